package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"heimdahl/internal/channel"
	"heimdahl/internal/client"
	"heimdahl/internal/config"
	"heimdahl/internal/pattern"
	"heimdahl/internal/render"
	"heimdahl/internal/storage"
	"heimdahl/internal/storage/postgres"
	"heimdahl/internal/transport"
)

// app bundles what every command needs once configuration is loaded.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	client   *client.Client
	printer  *render.Printer
	sink     storage.Storage
	pg       *postgres.Store
	progress *progressbar.ProgressBar
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		printer: render.NewPrinter(os.Stdout, cfg.Pretty),
	}

	tr := transport.NewHTTPTransport(transport.Config{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Timeout: cfg.Timeout,
	}, logger)
	dialer := &channel.WebsocketDialer{HandshakeTimeout: cfg.Timeout}
	a.client = client.New(client.Config{
		StreamURL: cfg.WSURL,
		APIKey:    cfg.APIKey,
		OnPage:    a.onPage,
	}, tr, dialer, logger)

	var sinks storage.Multi
	if cfg.Out != "" {
		sinks = append(sinks, storage.NewJsonlStorage(cfg.Out))
	}
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.pg = store
		if err := store.EnsureSchema(ctx); err != nil {
			a.close()
			return nil, err
		}
		sinks = append(sinks, store)
	}
	if len(sinks) > 0 {
		a.sink = sinks
	}

	logger.Debug("app ready",
		zap.String("base_url", cfg.BaseURL),
		zap.String("ws_url", cfg.WSURL),
		zap.Duration("timeout", cfg.Timeout),
		zap.String("out", cfg.Out),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
	)
	return a, nil
}

func (a *app) close() {
	if a.client != nil {
		a.client.Close()
	}
	if a.pg != nil {
		a.pg.Close()
	}
	_ = a.logger.Sync()
}

func (a *app) onPage(_, _, total int) {
	if a.progress != nil {
		_ = a.progress.Set(total)
	}
}

// startProgress shows a bar on stderr for an aggregation of up to limit
// records.
func (a *app) startProgress(kind string, limit int) {
	if limit <= 0 {
		limit = client.DefaultLimit
	}
	a.progress = progressbar.NewOptions(limit,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription(fmt.Sprintf("[cyan]%s[reset]", kind)),
		progressbar.OptionClearOnFinish(),
	)
}

func (a *app) stopProgress() {
	if a.progress != nil {
		_ = a.progress.Finish()
		a.progress = nil
	}
}

// persist hands records to the configured sinks, if any.
func (a *app) persist(ctx context.Context, kind, pat string, records []json.RawMessage) error {
	if a.sink == nil || len(records) == 0 {
		return nil
	}
	if err := a.sink.PutBatch(ctx, storage.Batch{
		Kind:      kind,
		Pattern:   pat,
		Records:   records,
		FetchedAt: time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("store %s: %w", kind, err)
	}
	return nil
}

// lastFetch logs when the pattern was last stored in Postgres.
func (a *app) lastFetch(ctx context.Context, kind, pat string) {
	if a.pg == nil {
		return
	}
	at, count, ok, err := a.pg.LoadState(ctx, kind, pat)
	if err != nil {
		a.logger.Warn("load fetch state failed", zap.Error(err))
		return
	}
	if ok {
		a.logger.Info("previous fetch",
			zap.String("kind", kind),
			zap.String("pattern", pat),
			zap.Strings("segments", decodedSegments(pat)),
			zap.Time("fetched_at", at),
			zap.Int("count", count),
		)
	}
}

// decodedSegments returns the unescaped segments of a stored pattern, or nil
// when it does not parse.
func decodedSegments(raw string) []string {
	p, err := pattern.Parse(raw)
	if err != nil {
		return nil
	}
	return p.Segments()
}
