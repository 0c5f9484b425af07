package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/Nkovaturient/blocklock-kit/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-r string   comma-separated RPC endpoints
//	-addr string  release contract address
//	-i int      poll interval in seconds
//	-cache string  path to the local cache database
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with subcommands.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-r", "-addr", "-i", "-cache"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	endpoints := fs.String("r", strings.Join(cfg.RPCEndpoints, ","), "comma-separated rpc endpoints")
	fs.StringVar(&cfg.ContractAddress, "addr", cfg.ContractAddress, "release contract address")
	pollInterval := fs.Int("i", int(cfg.PollInterval.Seconds()), "poll interval (in seconds)")
	fs.StringVar(&cfg.CachePath, "cache", cfg.CachePath, "path to local cache database")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	if *endpoints != "" {
		cfg.RPCEndpoints = strings.Split(*endpoints, ",")
	}
	cfg.PollInterval = time.Duration(*pollInterval) * time.Second
}
