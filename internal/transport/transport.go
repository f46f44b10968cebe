package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

var (
	ErrRequestFailed    = errors.New("request failed")
	ErrUnexpectedStatus = errors.New("unexpected status code")
	ErrInvalidBody      = errors.New("invalid response body")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Path       string
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api request %s failed with status %d: %s", e.Path, e.StatusCode, e.Status)
}

func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}

// Transport performs a single GET against the data service and returns the
// JSON body.
type Transport interface {
	Get(ctx context.Context, path string, params url.Values) (json.RawMessage, error)
}

// Config holds HTTP transport settings.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// HTTPTransport is a Transport over resty.
type HTTPTransport struct {
	client *resty.Client
	logger *zap.Logger
}

var _ Transport = (*HTTPTransport)(nil)

func NewHTTPTransport(cfg Config, logger *zap.Logger) *HTTPTransport {
	if logger == nil {
		logger = zap.NewNop()
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetLogger(logger.Sugar()).
		SetDisableWarn(true)
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	return &HTTPTransport{client: client, logger: logger}
}

// Get issues GET {base}/{path}?{params}.
func (t *HTTPTransport) Get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	req := t.client.R().SetContext(ctx)
	if len(params) > 0 {
		req.SetQueryParamsFromValues(params)
	}

	start := time.Now()
	resp, err := req.Get("/" + strings.TrimLeft(path, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}

	t.logger.Debug("api request",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("elapsed", time.Since(start)),
	)

	if !resp.IsSuccess() {
		return nil, &StatusError{
			Path:       path,
			StatusCode: resp.StatusCode(),
			Status:     resp.Status(),
			Body:       string(resp.Body()),
		}
	}

	body := resp.Body()
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidBody, path)
	}
	return json.RawMessage(body), nil
}

// Close releases idle connections.
func (t *HTTPTransport) Close() {
	t.client.GetClient().CloseIdleConnections()
}
