package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"testing"

	"heimdahl/internal/filter"
)

func TestGetSwapsSinglePage(t *testing.T) {
	tr := &fakeTransport{respond: func(int, string, url.Values) (json.RawMessage, error) {
		return swapBody(5, 0), nil
	}}
	c := New(Config{}, tr, nil, nil)

	got, err := c.GetSwaps(context.Background(), filter.Swap{
		Scope:  filter.Scope{Chain: "ethereum"},
		Token1: filter.Of("USDC"),
		Token2: filter.Of("WETH"),
	}, PageRequest{})
	if err != nil {
		t.Fatalf("get swaps: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 swaps, got %d", len(got))
	}

	req := tr.calls[0]
	if req.path != "swaps/list/ethereum.mainnet.USDC.WETH.all" {
		t.Fatalf("path mismatch: %s", req.path)
	}
	if req.params.Get("page") != "0" || req.params.Get("pageSize") != "10" {
		t.Fatalf("params mismatch: %v", req.params)
	}
}

func TestGetSwapsInvalidPage(t *testing.T) {
	tr := &fakeTransport{respond: func(int, string, url.Values) (json.RawMessage, error) {
		return swapBody(1, 0), nil
	}}
	c := New(Config{}, tr, nil, nil)

	for _, page := range []PageRequest{{Page: -1}, {PageSize: 101}, {PageSize: -3}} {
		if _, err := c.GetSwaps(context.Background(), filter.Swap{}, page); !errors.Is(err, ErrInvalidPage) {
			t.Fatalf("expected ErrInvalidPage for %+v, got %v", page, err)
		}
	}
	if len(tr.calls) != 0 {
		t.Fatalf("invalid pages must not reach the transport")
	}
}

func TestGetTransfersPath(t *testing.T) {
	tr := &fakeTransport{respond: func(int, string, url.Values) (json.RawMessage, error) {
		return transferBody(2, 0), nil
	}}
	c := New(Config{}, tr, nil, nil)

	got, err := c.GetTransfers(context.Background(), filter.Transfer{
		Scope: filter.Scope{Chain: "arbitrum"},
		Token: filter.Of("USDC"),
		From:  filter.Of("0x51C72848c68a965f66FA7a88855F9f7784502a7F"),
	}, PageRequest{Page: 3, PageSize: 5})
	if err != nil {
		t.Fatalf("get transfers: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 transfers, got %d", len(got))
	}
	if tr.calls[0].path != "transfers/list/arbitrum.mainnet.usdc.0x51C72848c68a965f66FA7a88855F9f7784502a7F.all.all" {
		t.Fatalf("path mismatch: %s", tr.calls[0].path)
	}
	if tr.calls[0].params.Get("page") != "3" || tr.calls[0].params.Get("pageSize") != "5" {
		t.Fatalf("params mismatch: %v", tr.calls[0].params)
	}
}

func TestCatalogPaths(t *testing.T) {
	tr := &fakeTransport{respond: func(int, string, url.Values) (json.RawMessage, error) {
		return json.RawMessage(`[]`), nil
	}}
	c := New(Config{}, tr, nil, nil)
	ctx := context.Background()

	if _, err := c.GetChains(ctx); err != nil {
		t.Fatalf("chains: %v", err)
	}
	if _, err := c.GetContracts(ctx); err != nil {
		t.Fatalf("contracts: %v", err)
	}
	if _, err := c.GetEvents(ctx, filter.Event{
		Scope:        filter.Scope{Chain: "arbitrum"},
		TokenAddress: "0xaf88d065e77c8cC2239327C5EDb3A432268e5831",
		EventName:    "Transfer",
	}); err != nil {
		t.Fatalf("events: %v", err)
	}

	want := []string{"chains", "contracts", "events/list/arbitrum.mainnet.0xaf88d065e77c8cC2239327C5EDb3A432268e5831.Transfer"}
	for i, w := range want {
		if tr.calls[i].path != w {
			t.Fatalf("path %d mismatch: %s != %s", i, tr.calls[i].path, w)
		}
	}
}

func TestSwapBatchShapes(t *testing.T) {
	cases := []struct {
		body    string
		want    int
		wantErr bool
	}{
		{`null`, 0, false},
		{`{}`, 0, false},
		{`{"swaps":null}`, 0, false},
		{`{"swaps":[{"a":1}],"total":9}`, 1, false},
		{`[{"a":1}]`, 0, true},
		{`{"swaps":{"a":1}}`, 0, true},
	}

	for _, tc := range cases {
		got, err := swapBatch(json.RawMessage(tc.body))
		if tc.wantErr {
			if !errors.Is(err, ErrUnexpectedBatch) {
				t.Fatalf("%s: expected ErrUnexpectedBatch, got %v", tc.body, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.body, err)
		}
		if len(got) != tc.want {
			t.Fatalf("%s: expected %d items, got %d", tc.body, tc.want, len(got))
		}
	}
}

func TestTransferBatchShapes(t *testing.T) {
	if got, err := transferBatch(json.RawMessage(`null`)); err != nil || len(got) != 0 {
		t.Fatalf("null body: %v %v", got, err)
	}
	if _, err := transferBatch(json.RawMessage(`{"transfers":[]}`)); !errors.Is(err, ErrUnexpectedBatch) {
		t.Fatalf("expected ErrUnexpectedBatch, got %v", err)
	}
}
