package render

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestPrinterSwap(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)

	raw := json.RawMessage(`{"token1_symbol":"USDC","token2_symbol":"WETH","token1_amount":"1500.25","token2_amount":0.5,"size_bucket":"small","tx_hash":"0xabc"}`)
	if err := p.Swap(raw); err != nil {
		t.Fatalf("swap: %v", err)
	}

	want := "swap 1500.25 USDC -> 0.5 WETH [small] 0xabc\n"
	if buf.String() != want {
		t.Fatalf("unexpected line:\n got %q\nwant %q", buf.String(), want)
	}
}

func TestPrinterSwapMissingFields(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)

	if err := p.Swap(json.RawMessage(`{"token1_symbol":"SOL","token2_amount":null}`)); err != nil {
		t.Fatalf("swap: %v", err)
	}
	if want := "swap - SOL -> - -\n"; buf.String() != want {
		t.Fatalf("unexpected line: %q", buf.String())
	}
}

func TestPrinterTransfer(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)

	raw := json.RawMessage(`{"token_symbol":"USDC","amount":"42","from_address":"0x1","to_address":"0x2"}`)
	if err := p.Transfer(raw); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if want := "transfer 42 USDC 0x1 -> 0x2\n"; buf.String() != want {
		t.Fatalf("unexpected line: %q", buf.String())
	}
}

func TestPrinterFallsBackToRaw(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)

	if err := p.Swap(json.RawMessage(`[1, 2,  3]`)); err != nil {
		t.Fatalf("swap: %v", err)
	}
	if want := "[1,2,3]\n"; buf.String() != want {
		t.Fatalf("unexpected line: %q", buf.String())
	}
}

func TestVolume(t *testing.T) {
	v := NewVolume()
	v.AddSwap(json.RawMessage(`{"token1_symbol":"USDC","token2_symbol":"WETH","token1_amount":"100.5","token2_amount":"0.05"}`))
	v.AddSwap(json.RawMessage(`{"token1_symbol":"USDC","token2_symbol":"WETH","token1_amount":200.25,"token2_amount":"0.1"}`))
	v.AddSwap(json.RawMessage(`{"token1_symbol":"USDC"}`))
	v.AddSwap(json.RawMessage(`not json`))

	if got := v.Total("USDC").String(); got != "300.75" {
		t.Fatalf("unexpected USDC volume: %s", got)
	}
	if got := v.Total("WETH").String(); got != "0.15" {
		t.Fatalf("unexpected WETH volume: %s", got)
	}

	var buf bytes.Buffer
	if err := v.Write(NewPrinter(&buf, false)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if want := "volume 300.75 USDC\nvolume 0.15 WETH\n"; buf.String() != want {
		t.Fatalf("unexpected volume output: %q", buf.String())
	}
}

func TestSummary(t *testing.T) {
	var buf bytes.Buffer
	if err := NewPrinter(&buf, false).Summary("swaps", 250, "ethereum.mainnet.USDC.all.all"); err != nil {
		t.Fatalf("summary: %v", err)
	}
	if want := "swaps 250 ethereum.mainnet.USDC.all.all\n"; buf.String() != want {
		t.Fatalf("unexpected summary: %q", buf.String())
	}
}
