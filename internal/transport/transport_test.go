package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func TestHTTPTransportGet(t *testing.T) {
	var gotURI, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURI = r.RequestURI
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"swaps":[]}`))
	}))
	defer srv.Close()

	tr := NewHTTPTransport(Config{BaseURL: srv.URL + "/v1/", APIKey: "secret", Timeout: time.Second}, nil)
	defer tr.Close()

	params := url.Values{}
	params.Set("page", "2")
	params.Set("pageSize", "10")
	body, err := tr.Get(context.Background(), "swaps/list/all.mainnet.wrapped%2Eeth.all.all", params)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if string(body) != `{"swaps":[]}` {
		t.Fatalf("body mismatch: %s", body)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("auth header mismatch: %q", gotAuth)
	}
	if gotURI != "/v1/swaps/list/all.mainnet.wrapped%2Eeth.all.all?page=2&pageSize=10" {
		t.Fatalf("request uri mismatch: %s", gotURI)
	}
}

func TestHTTPTransportStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	tr := NewHTTPTransport(Config{BaseURL: srv.URL}, nil)
	_, err := tr.Get(context.Background(), "chains", nil)
	if err == nil {
		t.Fatalf("expected error")
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %T", err)
	}
	if statusErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status mismatch: %d", statusErr.StatusCode)
	}
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Fatalf("expected ErrUnexpectedStatus")
	}
}

func TestHTTPTransportInvalidBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer srv.Close()

	tr := NewHTTPTransport(Config{BaseURL: srv.URL}, nil)
	if _, err := tr.Get(context.Background(), "chains", nil); !errors.Is(err, ErrInvalidBody) {
		t.Fatalf("expected ErrInvalidBody, got %v", err)
	}
}

func TestHTTPTransportNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	tr := NewHTTPTransport(Config{BaseURL: base}, nil)
	if _, err := tr.Get(context.Background(), "chains", nil); !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed, got %v", err)
	}
}
