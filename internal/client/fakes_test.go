package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"heimdahl/internal/channel"
)

type call struct {
	path   string
	params url.Values
}

type fakeTransport struct {
	calls   []call
	respond func(n int, path string, params url.Values) (json.RawMessage, error)
}

func (f *fakeTransport) Get(_ context.Context, path string, params url.Values) (json.RawMessage, error) {
	f.calls = append(f.calls, call{path: path, params: params})
	return f.respond(len(f.calls), path, params)
}

func items(n, offset int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf(`{"i":%d}`, offset+i)
	}
	return out
}

func swapBody(n, offset int) json.RawMessage {
	return json.RawMessage(`{"swaps":[` + strings.Join(items(n, offset), ",") + `]}`)
}

func transferBody(n, offset int) json.RawMessage {
	return json.RawMessage(`[` + strings.Join(items(n, offset), ",") + `]`)
}

type fakeConn struct {
	frames chan []byte
	fail   chan error
	closed chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		frames: make(chan []byte, 16),
		fail:   make(chan error, 1),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() ([]byte, error) {
	select {
	case f := <-c.frames:
		return f, nil
	case err := <-c.fail:
		return nil, err
	case <-c.closed:
		return nil, channel.ErrClosed
	}
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

type fakeDialer struct {
	conn channel.Conn
	err  error
	urls []string
}

func (d *fakeDialer) Dial(_ context.Context, rawURL string) (channel.Conn, error) {
	d.urls = append(d.urls, rawURL)
	if d.err != nil {
		return nil, d.err
	}
	return d.conn, nil
}
