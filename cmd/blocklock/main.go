package main

import (
	"context"
	"log"
	"os"

	"github.com/Nkovaturient/blocklock-kit/internal/buildinfo"
	"github.com/Nkovaturient/blocklock-kit/internal/cli"
	"github.com/Nkovaturient/blocklock-kit/internal/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := cli.NewApp(ctx, cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}
