package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"heimdahl/internal/client"
	"heimdahl/internal/config"
	"heimdahl/internal/filter"
	"heimdahl/internal/pattern"
	"heimdahl/internal/render"
)

func newSwapsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swaps",
		Short: "Query swaps by token pair",
		Args:  cobra.NoArgs,
		RunE:  runSwaps,
	}
	addScopeFlags(cmd)
	cmd.Flags().String("token1", "", "first token symbol or address")
	cmd.Flags().String("token2", "", "second token symbol or address (requires --token1)")
	cmd.Flags().String("size-bucket", "", "size bucket: micro, small, medium, large, whale (requires --token1)")
	addPagingFlags(cmd)
	return cmd
}

func newTransfersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfers",
		Short: "Query token transfers",
		Args:  cobra.NoArgs,
		RunE:  runTransfers,
	}
	addScopeFlags(cmd)
	addTransferFlags(cmd)
	addPagingFlags(cmd)
	return cmd
}

func addScopeFlags(cmd *cobra.Command) {
	cmd.Flags().String("chain", filter.DefaultChain, "chain name, or all")
	cmd.Flags().String("network", filter.DefaultNetwork, "network name")
}

func addTransferFlags(cmd *cobra.Command) {
	cmd.Flags().String("token", "", "token symbol or address")
	cmd.Flags().String("from", "", "sender address (requires --token)")
	cmd.Flags().String("to", "", "recipient address (requires --token)")
}

func addPagingFlags(cmd *cobra.Command) {
	cmd.Flags().Int("page", 0, "page number for a single-page query")
	cmd.Flags().Int("page-size", client.DefaultPageSize, "page size for a single-page query")
	cmd.Flags().Int("limit", 0, "collect up to this many records across pages (overrides --page)")
}

func swapFilterFromFlags(cmd *cobra.Command) (filter.Swap, error) {
	f := filter.Swap{
		Scope:      scopeFromFlags(cmd),
		Token1:     filter.ParseField(stringFlag(cmd, "token1")),
		Token2:     filter.ParseField(stringFlag(cmd, "token2")),
		SizeBucket: filter.ParseField(stringFlag(cmd, "size-bucket")),
	}
	return f, f.Validate()
}

func transferFilterFromFlags(cmd *cobra.Command) (filter.Transfer, error) {
	f := filter.Transfer{
		Scope: scopeFromFlags(cmd),
		Token: filter.ParseField(stringFlag(cmd, "token")),
		From:  filter.ParseField(stringFlag(cmd, "from")),
		To:    filter.ParseField(stringFlag(cmd, "to")),
	}
	return f, f.Validate()
}

// listQuery describes one list command in terms of its single-page and
// aggregating client calls.
type listQuery struct {
	kind      string
	pattern   string
	page      func(context.Context, *app, client.PageRequest) ([]json.RawMessage, error)
	aggregate func(context.Context, *app, int) ([]json.RawMessage, error)
	print     func(*app, json.RawMessage) error
}

func runSwaps(cmd *cobra.Command, _ []string) error {
	f, err := swapFilterFromFlags(cmd)
	if err != nil {
		return err
	}
	return runList(cmd, listQuery{
		kind:    "swaps",
		pattern: pattern.Swaps(f).String(),
		page: func(ctx context.Context, a *app, p client.PageRequest) ([]json.RawMessage, error) {
			return a.client.GetSwaps(ctx, f, p)
		},
		aggregate: func(ctx context.Context, a *app, limit int) ([]json.RawMessage, error) {
			return a.client.SearchSwapsByTokenPair(ctx, f, limit)
		},
		print: func(a *app, rec json.RawMessage) error {
			if a.cfg.Pretty {
				return a.printer.Swap(rec)
			}
			return a.printer.Raw(rec)
		},
	})
}

func runTransfers(cmd *cobra.Command, _ []string) error {
	f, err := transferFilterFromFlags(cmd)
	if err != nil {
		return err
	}
	return runList(cmd, listQuery{
		kind:    "transfers",
		pattern: pattern.Transfers(f).String(),
		page: func(ctx context.Context, a *app, p client.PageRequest) ([]json.RawMessage, error) {
			return a.client.GetTransfers(ctx, f, p)
		},
		aggregate: func(ctx context.Context, a *app, limit int) ([]json.RawMessage, error) {
			return a.client.GetTokenTransfers(ctx, f, limit)
		},
		print: func(a *app, rec json.RawMessage) error {
			if a.cfg.Pretty {
				return a.printer.Transfer(rec)
			}
			return a.printer.Raw(rec)
		},
	})
}

func runList(cmd *cobra.Command, q listQuery) error {
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

	a.lastFetch(ctx, q.kind, q.pattern)

	var records []json.RawMessage
	if cmd.Flags().Changed("limit") {
		limit, _ := cmd.Flags().GetInt("limit")
		a.logger.Info("aggregate start",
			zap.String("kind", q.kind),
			zap.String("pattern", q.pattern),
			zap.Int("limit", limit),
		)
		a.startProgress(q.kind, limit)
		records, err = q.aggregate(ctx, a, limit)
		a.stopProgress()
	} else {
		page, _ := cmd.Flags().GetInt("page")
		pageSize, _ := cmd.Flags().GetInt("page-size")
		records, err = q.page(ctx, a, client.PageRequest{Page: page, PageSize: pageSize})
	}
	if err != nil {
		a.logger.Error("query failed", zap.String("kind", q.kind), zap.Error(err))
		return err
	}

	if err := a.persist(ctx, q.kind, q.pattern, records); err != nil {
		return err
	}

	volume := render.NewVolume()
	for _, rec := range records {
		if err := q.print(a, rec); err != nil {
			return err
		}
		if q.kind == "swaps" {
			volume.AddSwap(rec)
		}
	}
	if cfg.Pretty {
		if err := volume.Write(a.printer); err != nil {
			return err
		}
		return a.printer.Summary(q.kind, len(records), q.pattern)
	}
	return nil
}
