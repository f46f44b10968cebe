package filter

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Size buckets understood by the swap endpoints.
var SizeBuckets = []string{"micro", "small", "medium", "large", "whale", Wildcard}

// ParseField converts user input into a Field, treating blank input as unset.
func ParseField(input string) Field {
	input = strings.TrimSpace(input)
	if input == "" {
		return Field{}
	}
	return Of(input)
}

// ValidateAddress rejects malformed EVM addresses. Inputs without a 0x prefix
// are symbols or non-EVM addresses and pass through.
func ValidateAddress(input string) error {
	if !strings.HasPrefix(input, "0x") && !strings.HasPrefix(input, "0X") {
		return nil
	}
	if !common.IsHexAddress(input) {
		return fmt.Errorf("invalid address: %s", input)
	}
	return nil
}

// Validate checks that tail fields are filled in prefix order.
func (s Swap) Validate() error {
	if !s.Token1.Present() && (s.Token2.Present() || s.SizeBucket.Present()) {
		return fmt.Errorf("token2 and size bucket require token1")
	}
	if v, ok := s.SizeBucket.Value(); ok && !isSizeBucket(v) {
		return fmt.Errorf("invalid size bucket: %s", v)
	}
	return nil
}

func (t Transfer) Validate() error {
	if !t.Token.Present() && (t.From.Present() || t.To.Present()) {
		return fmt.Errorf("from and to addresses require token")
	}
	for _, f := range []Field{t.From, t.To} {
		if v, ok := f.Value(); ok {
			if err := ValidateAddress(v); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s SwapStream) Validate() error {
	if strings.TrimSpace(s.Pool) == "" {
		return fmt.Errorf("pool is required")
	}
	return nil
}

func (e Event) Validate() error {
	if e.Chain == "" || e.Chain == Wildcard {
		return fmt.Errorf("chain is required")
	}
	if e.TokenAddress == "" {
		return fmt.Errorf("token address is required")
	}
	if e.EventName == "" {
		return fmt.Errorf("event name is required")
	}
	if !common.IsHexAddress(e.TokenAddress) {
		return fmt.Errorf("invalid token address: %s", e.TokenAddress)
	}
	return nil
}

func isSizeBucket(v string) bool {
	for _, b := range SizeBuckets {
		if v == b {
			return true
		}
	}
	return false
}
