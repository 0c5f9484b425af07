package config

import "time"

// Config holds runtime settings for the blocklock kit.
//
// Scan tuning fields map onto the reveal-scan window arithmetic:
// PrefetchBlocks widens the window below the target height,
// SearchForwardBlocks bounds it above, DefaultScanSpan is the recent
// window used when no target hint is known, and ChunkSize is the
// provider-imposed ceiling on blocks per getLogs call.
type Config struct {
	// RPCEndpoints are tried in order until one answers.
	RPCEndpoints    []string
	ContractAddress string

	ChunkSize           uint64
	PrefetchBlocks      uint64
	SearchForwardBlocks uint64
	DefaultScanSpan     uint64

	AvgBlockTime time.Duration
	PollInterval time.Duration

	RetryAttempts uint64
	RetryDelay    time.Duration

	CachePath string

	// S3-compatible content gateway.
	S3RootUser     string
	S3RootPassword string
	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string

	// Time-lock oracle network.
	OracleBaseURL   string
	OracleChainHash string
}

// LoadDefaults populates Config with sensible development defaults.
// NOTE: the S3 values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.RPCEndpoints = []string{"http://127.0.0.1:8545"}
	c.ContractAddress = ""
	c.ChunkSize = 500
	c.PrefetchBlocks = 12
	c.SearchForwardBlocks = 500
	c.DefaultScanSpan = 1000
	c.AvgBlockTime = 30 * time.Second
	c.PollInterval = 30 * time.Second
	c.RetryAttempts = 3
	c.RetryDelay = 1 * time.Second
	c.CachePath = "blocklock.db"
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "releases"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.OracleBaseURL = "https://api.drand.sh"
	c.OracleChainHash = "52db9ba70e0cc0f6eaf7803dd07447a1f5477735fd3f661792ba94600c84e971"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
