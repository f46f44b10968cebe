package filter

// Wildcard is the value that matches everything at a pattern position.
const Wildcard = "all"

const (
	DefaultChain   = "all"
	DefaultNetwork = "mainnet"
)

// Field is an optional filter value. The zero value is unset and matches
// everything, as does a field explicitly set to Wildcard or "".
type Field struct {
	value string
	set   bool
}

// Of returns a field holding value.
func Of(value string) Field {
	return Field{value: value, set: true}
}

// Value returns the concrete value and true, or "" and false when the field
// matches everything.
func (f Field) Value() (string, bool) {
	if !f.set || f.value == "" || f.value == Wildcard {
		return "", false
	}
	return f.value, true
}

// Present reports whether the field carries a concrete value.
func (f Field) Present() bool {
	_, ok := f.Value()
	return ok
}

func (f Field) String() string {
	if v, ok := f.Value(); ok {
		return v
	}
	return Wildcard
}

// Scope selects the chain and network a query runs against.
type Scope struct {
	Chain   string
	Network string
}

func (s Scope) ChainOrDefault() string {
	if s.Chain == "" {
		return DefaultChain
	}
	return s.Chain
}

func (s Scope) NetworkOrDefault() string {
	if s.Network == "" {
		return DefaultNetwork
	}
	return s.Network
}

// Swap filters swap queries.
type Swap struct {
	Scope
	Token1     Field
	Token2     Field
	SizeBucket Field
}

// Transfer filters transfer queries and transfer streams.
type Transfer struct {
	Scope
	Token Field
	From  Field
	To    Field
}

// SwapStream selects a live swap feed for one DEX pool on Solana.
type SwapStream struct {
	Network string
	Pool    string
}

func (s SwapStream) NetworkOrDefault() string {
	if s.Network == "" {
		return DefaultNetwork
	}
	return s.Network
}

// Event selects raw contract events for a token.
type Event struct {
	Scope
	TokenAddress string
	EventName    string
}
