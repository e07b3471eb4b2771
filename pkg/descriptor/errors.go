package descriptor

import "fmt"

// DecodeError reports a payload that is not a well-formed descriptor set.
type DecodeError struct {
	Size int
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode descriptor set (%d bytes): %v", e.Size, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// UnknownSymbolError reports a lookup of a symbol the index does not contain.
type UnknownSymbolError struct {
	Symbol string
	// Referrer is the symbol whose declaration pointed at Symbol, if any.
	Referrer string
}

func (e *UnknownSymbolError) Error() string {
	if e.Referrer != "" {
		return fmt.Sprintf("unknown symbol %s (referenced by %s)", e.Symbol, e.Referrer)
	}
	return fmt.Sprintf("unknown symbol %s", e.Symbol)
}

// KindMismatchError reports a symbol that exists but declares something else
// than what the caller asked for.
type KindMismatchError struct {
	Symbol string
	Want   Kind
	Got    Kind
}

func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("symbol %s is a %s, not a %s", e.Symbol, e.Got, e.Want)
}
