package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"heimdahl/internal/client"
	"heimdahl/internal/config"
	"heimdahl/internal/filter"
	"heimdahl/internal/pattern"
	"heimdahl/internal/reconnect"
	"heimdahl/internal/storage"
)

func newStreamCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Stream live swaps or transfers",
	}
	cmd.PersistentFlags().Int("reconnect", 0, "reconnect attempts after a stream breaks")
	cmd.PersistentFlags().Duration("reconnect-backoff", time.Second, "initial reconnect backoff")
	cmd.PersistentFlags().Duration("reconnect-max-backoff", 30*time.Second, "maximum reconnect backoff")

	swaps := &cobra.Command{
		Use:   "swaps",
		Short: "Stream Solana swaps for one or more pools",
		Args:  cobra.NoArgs,
		RunE:  runStreamSwaps,
	}
	swaps.Flags().String("network", filter.DefaultNetwork, "network name")
	swaps.Flags().StringSlice("pool", nil, "pool to follow (repeatable, comma-separated)")

	transfers := &cobra.Command{
		Use:   "transfers",
		Short: "Stream token transfers",
		Args:  cobra.NoArgs,
		RunE:  runStreamTransfers,
	}
	addScopeFlags(transfers)
	addTransferFlags(transfers)

	cmd.AddCommand(swaps, transfers)
	return cmd
}

type opener func(ctx context.Context, a *app, handler client.Handler) (*client.Subscription, error)

// streamTarget is one subscription the command keeps open.
type streamTarget struct {
	kind    string
	pattern pattern.Pattern
	open    opener
}

func runStreamSwaps(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadStream(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if len(cfg.Pools) == 0 {
		return fmt.Errorf("at least one --pool is required")
	}

	network := stringFlag(cmd, "network")
	targets := make([]streamTarget, 0, len(cfg.Pools))
	for _, pool := range cfg.Pools {
		f := filter.SwapStream{Network: network, Pool: pool}
		if err := f.Validate(); err != nil {
			return err
		}
		targets = append(targets, streamTarget{
			kind:    "swaps",
			pattern: pattern.SwapStream(f),
			open: func(ctx context.Context, a *app, h client.Handler) (*client.Subscription, error) {
				return a.client.StreamSwaps(ctx, f, h)
			},
		})
	}
	return runStreams(cfg, targets)
}

func runStreamTransfers(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadStream(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	f, err := transferFilterFromFlags(cmd)
	if err != nil {
		return err
	}
	return runStreams(cfg, []streamTarget{{
		kind:    "transfers",
		pattern: pattern.Transfers(f),
		open: func(ctx context.Context, a *app, h client.Handler) (*client.Subscription, error) {
			return a.client.StreamTransfers(ctx, f, h)
		},
	}})
}

func runStreams(cfg config.StreamConfig, targets []streamTarget) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg.Config)
	if err != nil {
		return err
	}
	defer a.close()

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, target := range targets {
		logger := a.logger.With(zap.String("kind", target.kind), zap.String("pattern", target.pattern.String()))

		handler := func(msg json.RawMessage) {
			mu.Lock()
			defer mu.Unlock()

			var err error
			if cfg.Pretty && target.kind == "swaps" {
				err = a.printer.Swap(msg)
			} else if cfg.Pretty {
				err = a.printer.Transfer(msg)
			} else {
				err = a.printer.Raw(msg)
			}
			if err != nil {
				logger.Warn("print frame failed", zap.Error(err))
			}
			if err := a.persist(gctx, storage.StreamKind(target.kind), target.pattern.String(), []json.RawMessage{msg}); err != nil {
				logger.Warn("store frame failed", zap.Error(err))
			}
		}

		policy := reconnect.Policy{
			MaxRetries: cfg.Reconnect,
			BaseDelay:  cfg.ReconnectBackoff,
			MaxDelay:   cfg.ReconnectMaxBackoff,
			Logger:     logger,
		}
		g.Go(func() error {
			return policy.Run(gctx, func(ctx context.Context) error {
				return follow(ctx, a, target, handler, logger)
			})
		})
	}

	err = g.Wait()
	if err != nil && errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// follow keeps one subscription open until ctx ends or the stream breaks.
// Stopping through ctx is not an error.
func follow(ctx context.Context, a *app, target streamTarget, handler client.Handler, logger *zap.Logger) error {
	sub, err := target.open(ctx, a, handler)
	if err != nil {
		logger.Error("subscribe failed", zap.Error(err))
		return err
	}

	select {
	case <-ctx.Done():
		_ = sub.Close()
		<-sub.Done()
	case <-sub.Done():
	}

	stats := sub.Stats()
	logger.Info("stream ended",
		zap.Stringer("state", sub.State()),
		zap.Int64("delivered", stats.Delivered),
		zap.Int64("failed", stats.Failed),
	)
	if ctx.Err() != nil {
		return nil
	}
	return sub.Err()
}
