package channel

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func newServer(t *testing.T, handle func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handle(conn)
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebsocketReadUntilNormalClose(t *testing.T) {
	srv := newServer(t, func(conn *websocket.Conn) {
		for _, frame := range []string{`{"n":1}`, `{"n":2}`} {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(frame))
		}
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_, _, _ = conn.ReadMessage()
	})
	defer srv.Close()

	d := &WebsocketDialer{HandshakeTimeout: time.Second}
	conn, err := d.Dial(context.Background(), wsURL(srv))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	for _, want := range []string{`{"n":1}`, `{"n":2}`} {
		got, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if string(got) != want {
			t.Fatalf("frame mismatch: %s != %s", got, want)
		}
	}

	if _, err := conn.ReadMessage(); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestWebsocketAbruptDisconnect(t *testing.T) {
	srv := newServer(t, func(conn *websocket.Conn) {
		_ = conn.UnderlyingConn().Close()
	})
	defer srv.Close()

	d := &WebsocketDialer{}
	conn, err := d.Dial(context.Background(), wsURL(srv))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	_, err = conn.ReadMessage()
	if err == nil || errors.Is(err, ErrClosed) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestWebsocketLocalClose(t *testing.T) {
	release := make(chan struct{})
	srv := newServer(t, func(conn *websocket.Conn) {
		<-release
	})
	defer srv.Close()
	defer close(release)

	d := &WebsocketDialer{}
	conn, err := d.Dial(context.Background(), wsURL(srv))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		_, err := conn.ReadMessage()
		errCh <- err
	}()

	if err := conn.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	select {
	case err := <-errCh:
		if !errors.Is(err, ErrClosed) {
			t.Fatalf("expected ErrClosed, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("read did not return after close")
	}
}

func TestWebsocketDialRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	d := &WebsocketDialer{}
	if _, err := d.Dial(context.Background(), wsURL(srv)); err == nil {
		t.Fatalf("expected dial error")
	}
}
