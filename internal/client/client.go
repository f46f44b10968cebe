package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"heimdahl/internal/channel"
	"heimdahl/internal/filter"
	"heimdahl/internal/pattern"
	"heimdahl/internal/transport"
)

const (
	DefaultBaseURL   = "https://api.heimdahl.xyz/v1"
	DefaultStreamURL = "wss://api.heimdahl.xyz/v1"

	DefaultLimit    = 100
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PageObserver is called after every page an aggregation fetches.
type PageObserver func(page, batchLen, total int)

// Config holds client settings.
type Config struct {
	StreamURL string
	APIKey    string
	OnPage    PageObserver
}

// Client queries swaps, transfers and events from the data service.
type Client struct {
	cfg       Config
	transport transport.Transport
	dialer    channel.Dialer
	logger    *zap.Logger
}

// New builds a Client. dialer may be nil when streams are not used.
func New(cfg Config, tr transport.Transport, dialer channel.Dialer, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.StreamURL == "" {
		cfg.StreamURL = DefaultStreamURL
	}
	return &Client{
		cfg:       cfg,
		transport: tr,
		dialer:    dialer,
		logger:    logger,
	}
}

// Close releases transport resources. Open subscriptions are not affected.
func (c *Client) Close() {
	if closer, ok := c.transport.(interface{ Close() }); ok {
		closer.Close()
	}
}

// PageRequest selects one page of a list endpoint.
type PageRequest struct {
	Page     int
	PageSize int
}

func (p PageRequest) normalize() (PageRequest, error) {
	if p.PageSize == 0 {
		p.PageSize = DefaultPageSize
	}
	if p.Page < 0 {
		return p, fmt.Errorf("%w: page %d", ErrInvalidPage, p.Page)
	}
	if p.PageSize < 0 || p.PageSize > MaxPageSize {
		return p, fmt.Errorf("%w: page size %d", ErrInvalidPage, p.PageSize)
	}
	return p, nil
}

func (p PageRequest) values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(p.Page))
	v.Set("pageSize", strconv.Itoa(p.PageSize))
	return v
}

// GetChains returns the supported chains.
func (c *Client) GetChains(ctx context.Context) (json.RawMessage, error) {
	return c.transport.Get(ctx, "chains", nil)
}

// GetContracts returns the registered EVM contracts.
func (c *Client) GetContracts(ctx context.Context) (json.RawMessage, error) {
	return c.transport.Get(ctx, "contracts", nil)
}

// GetEvents returns raw contract events for a token and event name.
func (c *Client) GetEvents(ctx context.Context, f filter.Event) (json.RawMessage, error) {
	return c.transport.Get(ctx, pattern.Events(f).Path(pattern.EventsList), nil)
}

// GetSwaps fetches one page of swaps.
func (c *Client) GetSwaps(ctx context.Context, f filter.Swap, page PageRequest) ([]json.RawMessage, error) {
	page, err := page.normalize()
	if err != nil {
		return nil, err
	}
	body, err := c.transport.Get(ctx, pattern.Swaps(f).Path(pattern.SwapsList), page.values())
	if err != nil {
		return nil, err
	}
	return swapBatch(body)
}

// GetTransfers fetches one page of transfers.
func (c *Client) GetTransfers(ctx context.Context, f filter.Transfer, page PageRequest) ([]json.RawMessage, error) {
	page, err := page.normalize()
	if err != nil {
		return nil, err
	}
	body, err := c.transport.Get(ctx, pattern.Transfers(f).Path(pattern.TransfersList), page.values())
	if err != nil {
		return nil, err
	}
	return transferBatch(body)
}

// swapBatch extracts the swaps array. A null body or missing key is an empty
// batch.
func swapBatch(body json.RawMessage) ([]json.RawMessage, error) {
	if isNull(body) {
		return nil, nil
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: swaps body is not an object", ErrUnexpectedBatch)
	}
	raw, ok := envelope["swaps"]
	if !ok || isNull(raw) {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: swaps is not an array", ErrUnexpectedBatch)
	}
	return items, nil
}

// transferBatch decodes a bare transfers array.
func transferBatch(body json.RawMessage) ([]json.RawMessage, error) {
	if isNull(body) {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("%w: transfers body is not an array", ErrUnexpectedBatch)
	}
	return items, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
