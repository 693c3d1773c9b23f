package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"preflight-cli/internal/cli"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	level := zerolog.WarnLevel
	if lv, err := zerolog.ParseLevel(os.Getenv("PREFLIGHT_LOG")); err == nil && os.Getenv("PREFLIGHT_LOG") != "" {
		level = lv
	}
	zerolog.SetGlobalLevel(level)

	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
