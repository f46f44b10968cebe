package pattern

import (
	"strings"

	"heimdahl/internal/filter"
)

// Swaps compiles a swap filter. Without token1 the pattern is just
// chain.network; with it, token2 and the size bucket are always emitted.
func Swaps(f filter.Swap) Pattern {
	segments := []string{f.ChainOrDefault(), f.NetworkOrDefault()}

	if token1, ok := f.Token1.Value(); ok {
		segments = append(segments, token1, f.Token2.String(), f.SizeBucket.String())
	}

	return Pattern{segments: segments}
}

// Transfers compiles a transfer filter. The token is lower-cased, from and to
// fall back to the wildcard independently, and the pattern always ends with a
// wildcard segment.
func Transfers(f filter.Transfer) Pattern {
	segments := []string{f.ChainOrDefault(), f.NetworkOrDefault()}

	if token, ok := f.Token.Value(); ok {
		segments = append(segments, strings.ToLower(token), f.From.String(), f.To.String())
	}

	segments = append(segments, filter.Wildcard)
	return Pattern{segments: segments}
}

// SwapStream compiles the live swap feed selector. Swap streams are Solana only.
func SwapStream(f filter.SwapStream) Pattern {
	return Pattern{segments: []string{"solana", f.NetworkOrDefault(), f.Pool}}
}

// Events compiles a raw event query.
func Events(f filter.Event) Pattern {
	return Pattern{segments: []string{f.ChainOrDefault(), f.NetworkOrDefault(), f.TokenAddress, f.EventName}}
}
