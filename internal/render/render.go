package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
)

const missing = "-"

type swapRecord struct {
	Token1Symbol string              `json:"token1_symbol"`
	Token2Symbol string              `json:"token2_symbol"`
	Token1Amount decimal.NullDecimal `json:"token1_amount"`
	Token2Amount decimal.NullDecimal `json:"token2_amount"`
	SizeBucket   string              `json:"size_bucket"`
	TxHash       string              `json:"tx_hash"`
}

type transferRecord struct {
	TokenSymbol string              `json:"token_symbol"`
	Amount      decimal.NullDecimal `json:"amount"`
	FromAddress string              `json:"from_address"`
	ToAddress   string              `json:"to_address"`
	TxHash      string              `json:"tx_hash"`
}

// Printer writes one human-readable line per record. Records that do not
// decode into the expected shape are written as compact JSON.
type Printer struct {
	w      io.Writer
	kind   *color.Color
	amount *color.Color
	symbol *color.Color
	dim    *color.Color
}

func NewPrinter(w io.Writer, colored bool) *Printer {
	p := &Printer{
		w:      w,
		kind:   color.New(color.FgCyan, color.Bold),
		amount: color.New(color.FgGreen),
		symbol: color.New(color.FgYellow),
		dim:    color.New(color.Faint),
	}
	if !colored {
		for _, c := range []*color.Color{p.kind, p.amount, p.symbol, p.dim} {
			c.DisableColor()
		}
	}
	return p
}

func (p *Printer) Swap(raw json.RawMessage) error {
	var rec swapRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return p.Raw(raw)
	}

	line := fmt.Sprintf("%s %s %s -> %s %s",
		p.kind.Sprint("swap"),
		p.amount.Sprint(formatAmount(rec.Token1Amount)),
		p.symbol.Sprint(orMissing(rec.Token1Symbol)),
		p.amount.Sprint(formatAmount(rec.Token2Amount)),
		p.symbol.Sprint(orMissing(rec.Token2Symbol)),
	)
	if rec.SizeBucket != "" {
		line += " " + p.dim.Sprintf("[%s]", rec.SizeBucket)
	}
	if rec.TxHash != "" {
		line += " " + p.dim.Sprint(rec.TxHash)
	}
	_, err := fmt.Fprintln(p.w, line)
	return err
}

func (p *Printer) Transfer(raw json.RawMessage) error {
	var rec transferRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return p.Raw(raw)
	}

	line := fmt.Sprintf("%s %s %s %s -> %s",
		p.kind.Sprint("transfer"),
		p.amount.Sprint(formatAmount(rec.Amount)),
		p.symbol.Sprint(orMissing(rec.TokenSymbol)),
		orMissing(rec.FromAddress),
		orMissing(rec.ToAddress),
	)
	if rec.TxHash != "" {
		line += " " + p.dim.Sprint(rec.TxHash)
	}
	_, err := fmt.Fprintln(p.w, line)
	return err
}

// Raw writes the record as a single compact JSON line.
func (p *Printer) Raw(raw json.RawMessage) error {
	var b bytes.Buffer
	if err := json.Compact(&b, raw); err != nil {
		_, err = fmt.Fprintln(p.w, strings.TrimSpace(string(raw)))
		return err
	}
	_, err := fmt.Fprintln(p.w, b.String())
	return err
}

// Summary writes a closing line with the record count and pattern.
func (p *Printer) Summary(kind string, n int, pattern string) error {
	_, err := fmt.Fprintf(p.w, "%s %s %s\n",
		p.kind.Sprint(kind),
		p.amount.Sprintf("%d", n),
		p.dim.Sprint(pattern),
	)
	return err
}

// Volume sums swap amounts per token symbol.
type Volume struct {
	totals map[string]decimal.Decimal
}

func NewVolume() *Volume {
	return &Volume{totals: make(map[string]decimal.Decimal)}
}

// AddSwap accumulates both legs of a swap. Legs without a symbol or amount
// are skipped.
func (v *Volume) AddSwap(raw json.RawMessage) {
	var rec swapRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return
	}
	v.add(rec.Token1Symbol, rec.Token1Amount)
	v.add(rec.Token2Symbol, rec.Token2Amount)
}

func (v *Volume) add(symbol string, amount decimal.NullDecimal) {
	if symbol == "" || !amount.Valid {
		return
	}
	v.totals[symbol] = v.totals[symbol].Add(amount.Decimal)
}

func (v *Volume) Total(symbol string) decimal.Decimal {
	return v.totals[symbol]
}

// Write prints one line per symbol, sorted by symbol.
func (v *Volume) Write(p *Printer) error {
	symbols := make([]string, 0, len(v.totals))
	for s := range v.totals {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	for _, s := range symbols {
		if _, err := fmt.Fprintf(p.w, "%s %s %s\n",
			p.kind.Sprint("volume"),
			p.amount.Sprint(v.totals[s].String()),
			p.symbol.Sprint(s),
		); err != nil {
			return err
		}
	}
	return nil
}

func formatAmount(d decimal.NullDecimal) string {
	if !d.Valid {
		return missing
	}
	return d.Decimal.String()
}

func orMissing(s string) string {
	if s == "" {
		return missing
	}
	return s
}
