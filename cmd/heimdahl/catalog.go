package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"heimdahl/internal/config"
	"heimdahl/internal/filter"
	"heimdahl/internal/pattern"
)

func newChainsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chains",
		Short: "List supported chains",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCatalog(cmd, func(ctx context.Context, a *app) (json.RawMessage, error) {
				return a.client.GetChains(ctx)
			})
		},
	}
}

func newContractsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "contracts",
		Short: "List registered EVM contracts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCatalog(cmd, func(ctx context.Context, a *app) (json.RawMessage, error) {
				return a.client.GetContracts(ctx)
			})
		},
	}
}

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Fetch raw contract events for a token",
		Args:  cobra.NoArgs,
		RunE:  runEvents,
	}
	cmd.Flags().String("chain", "", "chain name (required)")
	cmd.Flags().String("network", filter.DefaultNetwork, "network name")
	cmd.Flags().String("token-address", "", "token contract address (required)")
	cmd.Flags().String("event", "", "event name, e.g. Transfer (required)")
	return cmd
}

func runEvents(cmd *cobra.Command, _ []string) error {
	f := filter.Event{
		Scope:        scopeFromFlags(cmd),
		TokenAddress: stringFlag(cmd, "token-address"),
		EventName:    stringFlag(cmd, "event"),
	}
	if err := f.Validate(); err != nil {
		return err
	}

	return runCatalog(cmd, func(ctx context.Context, a *app) (json.RawMessage, error) {
		body, err := a.client.GetEvents(ctx, f)
		if err != nil {
			return nil, err
		}
		if err := a.persist(ctx, "events", pattern.Events(f).String(), []json.RawMessage{body}); err != nil {
			return nil, err
		}
		return body, nil
	})
}

// runCatalog fetches a single JSON document and prints it indented.
func runCatalog(cmd *cobra.Command, fetch func(context.Context, *app) (json.RawMessage, error)) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	body, err := fetch(ctx, a)
	if err != nil {
		a.logger.Error("request failed", zap.String("command", cmd.Name()), zap.Error(err))
		return err
	}

	var out bytes.Buffer
	if err := json.Indent(&out, body, "", "  "); err != nil {
		return fmt.Errorf("format response: %w", err)
	}
	out.WriteByte('\n')
	_, err = out.WriteTo(os.Stdout)
	return err
}

func scopeFromFlags(cmd *cobra.Command) filter.Scope {
	return filter.Scope{
		Chain:   stringFlag(cmd, "chain"),
		Network: stringFlag(cmd, "network"),
	}
}

func stringFlag(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}
