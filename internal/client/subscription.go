package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"heimdahl/internal/channel"
	"heimdahl/internal/filter"
	"heimdahl/internal/pattern"
)

// State is the lifecycle stage of a Subscription.
type State int32

const (
	StateCreated State = iota
	StateConnecting
	StateStreaming
	StateClosed
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateClosed:
		return "closed"
	case StateErrored:
		return "errored"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Handler receives every decoded frame, one at a time, in arrival order.
type Handler func(msg json.RawMessage)

// ErrorHandler receives decode errors and the terminal channel error.
type ErrorHandler func(err error)

type subscribeOptions struct {
	onError ErrorHandler
}

// SubscribeOption configures a subscription.
type SubscribeOption func(*subscribeOptions)

// OnError registers a handler for stream errors.
func OnError(fn ErrorHandler) SubscribeOption {
	return func(o *subscribeOptions) {
		o.onError = fn
	}
}

// Stats counts frames seen by a subscription.
type Stats struct {
	Delivered int64
	Failed    int64
}

// Subscription binds one stream connection to a handler. The caller owns it
// and ends it with Close; there is no reconnect.
type Subscription struct {
	resource string
	pattern  pattern.Pattern
	conn     channel.Conn
	handler  Handler
	onError  ErrorHandler
	logger   *zap.Logger

	state     atomic.Int32
	closing   atomic.Bool
	delivered atomic.Int64
	failed    atomic.Int64

	done chan struct{}
	err  error
}

// StreamSwaps subscribes to live Solana swaps for one pool. ctx bounds the
// connection handshake only.
func (c *Client) StreamSwaps(ctx context.Context, f filter.SwapStream, handler Handler, opts ...SubscribeOption) (*Subscription, error) {
	return c.subscribe(ctx, pattern.SwapsStream, pattern.SwapStream(f), handler, opts)
}

// StreamTransfers subscribes to live transfers matching f. ctx bounds the
// connection handshake only.
func (c *Client) StreamTransfers(ctx context.Context, f filter.Transfer, handler Handler, opts ...SubscribeOption) (*Subscription, error) {
	return c.subscribe(ctx, pattern.TransfersStream, pattern.Transfers(f), handler, opts)
}

func (c *Client) subscribe(ctx context.Context, resource string, p pattern.Pattern, handler Handler, opts []SubscribeOption) (*Subscription, error) {
	if c.dialer == nil {
		return nil, fmt.Errorf("stream dialer is nil")
	}
	if handler == nil {
		return nil, fmt.Errorf("handler is nil")
	}

	var o subscribeOptions
	for _, opt := range opts {
		opt(&o)
	}

	sub := &Subscription{
		resource: resource,
		pattern:  p,
		handler:  handler,
		onError:  o.onError,
		logger:   c.logger.With(zap.String("stream", p.Path(resource))),
		done:     make(chan struct{}),
	}
	sub.state.Store(int32(StateConnecting))

	conn, err := c.dialer.Dial(ctx, c.streamURL(resource, p))
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrChannel, err)
		sub.finish(StateErrored, err)
		return nil, err
	}
	sub.conn = conn
	sub.state.Store(int32(StateStreaming))
	sub.logger.Info("subscribed")

	go sub.run()
	return sub, nil
}

func (c *Client) streamURL(resource string, p pattern.Pattern) string {
	u := strings.TrimRight(c.cfg.StreamURL, "/") + "/" + p.Path(resource)
	if c.cfg.APIKey != "" {
		u += "?api_key=" + url.QueryEscape(c.cfg.APIKey)
	}
	return u
}

func (s *Subscription) run() {
	for {
		frame, err := s.conn.ReadMessage()
		if err != nil {
			if errors.Is(err, channel.ErrClosed) || s.closing.Load() {
				s.logger.Info("subscription closed",
					zap.Int64("delivered", s.delivered.Load()),
					zap.Int64("failed", s.failed.Load()),
				)
				s.finish(StateClosed, nil)
				return
			}

			err = fmt.Errorf("%w: %w", ErrChannel, err)
			s.logger.Error("subscription broken", zap.Error(err))
			s.report(err)
			s.finish(StateErrored, err)
			return
		}
		s.deliver(frame)
	}
}

func (s *Subscription) deliver(frame []byte) {
	var msg json.RawMessage
	if err := json.Unmarshal(frame, &msg); err != nil {
		s.failed.Add(1)
		decodeErr := &DecodeError{Frame: frame, Err: err}
		s.logger.Warn("bad frame", zap.Error(err), zap.Int("size", len(frame)))
		s.report(decodeErr)
		return
	}
	s.delivered.Add(1)
	s.handler(msg)
}

func (s *Subscription) report(err error) {
	if s.onError != nil {
		s.onError(err)
	}
}

func (s *Subscription) finish(state State, err error) {
	s.err = err
	s.state.Store(int32(state))
	close(s.done)
}

// Close closes the underlying connection. The reader stops after the current
// frame; wait on Done to observe it.
func (s *Subscription) Close() error {
	if s.closing.Swap(true) {
		return nil
	}
	return s.conn.Close()
}

// Done is closed once the subscription reached Closed or Errored.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Err returns the terminal channel error, or nil after a normal close. It is
// only meaningful after Done is closed.
func (s *Subscription) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

func (s *Subscription) State() State {
	return State(s.state.Load())
}

// Pattern returns the compiled stream pattern.
func (s *Subscription) Pattern() pattern.Pattern {
	return s.pattern
}

func (s *Subscription) Stats() Stats {
	return Stats{Delivered: s.delivered.Load(), Failed: s.failed.Load()}
}
