package models

import "strings"

// FetchError is a compound error that preserves its underlying children,
// mirroring the original implementation's per-stage error accumulation:
// a single post's failure never aborts the rest of a batch.
type FetchError struct {
	Message  string
	Children []error
}

// NewFetchError wraps message and children into a FetchError. A nil
// Children slice is valid and simply means "no nested cause".
func NewFetchError(message string, children []error) *FetchError {
	return &FetchError{Message: message, Children: children}
}

func (e *FetchError) Error() string {
	if len(e.Children) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Children))
	for _, c := range e.Children {
		parts = append(parts, c.Error())
	}
	return e.Message + ": " + strings.Join(parts, "; ")
}

// Unwrap exposes children to errors.Is/errors.As via the stdlib multi-error
// convention (errors.Join-compatible).
func (e *FetchError) Unwrap() []error {
	return e.Children
}

// Flatten walks a FetchError tree depth-first and returns every leaf
// (non-FetchError) error, per spec §7's "callers can introspect nested
// failures by flattening the source list depth-first".
func Flatten(err error) []error {
	if err == nil {
		return nil
	}
	fe, ok := err.(*FetchError)
	if !ok {
		return []error{err}
	}
	var out []error
	for _, c := range fe.Children {
		out = append(out, Flatten(c)...)
	}
	if len(out) == 0 {
		// A FetchError with no children is itself a leaf.
		return []error{fe}
	}
	return out
}
