package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"heimdahl/internal/client"
)

func main() {
	root := &cobra.Command{
		Use:          "heimdahl",
		Short:        "Query cross-chain swaps, transfers and events",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file path")
	flags.String("env-file", ".env", "env file read before HEIMDAHL_* variables")
	flags.String("api-key", "", "API key")
	flags.String("base-url", client.DefaultBaseURL, "REST API base URL")
	flags.String("ws-url", client.DefaultStreamURL, "stream base URL")
	flags.Duration("timeout", 30*time.Second, "HTTP request timeout")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("out", "", "append records to a JSONL file")
	flags.String("pg-dsn", "", "also store records in Postgres")
	flags.Bool("pretty", false, "print colored summaries instead of JSON lines")

	root.AddCommand(
		newChainsCmd(),
		newContractsCmd(),
		newEventsCmd(),
		newSwapsCmd(),
		newTransfersCmd(),
		newStreamCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
