// Package herrors defines the fatal/non-fatal error taxonomy used by the
// scheduler's core packages: fatal conditions are returned as errors from
// the top-level entry points rather than aborting the process in place.
package herrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a fatal condition. Budget infeasibility is deliberately
// not a Kind: it is non-fatal and surfaced through a report value instead.
type Kind int

const (
	// KindSchema marks a malformed input document: a missing tensor
	// reference, an unknown op input, or similar.
	KindSchema Kind = iota
	// KindInvariant marks a violation of the graph data model: a value with
	// no def, a non-DAG cycle, a PARAM value escaping as a graph output.
	KindInvariant
	// KindTypeMismatch marks a failed RTTI-like downcast between
	// hierarchical vertex variants — a programmer error, not bad input.
	KindTypeMismatch
)

func (k Kind) String() string {
	switch k {
	case KindSchema:
		return "schema"
	case KindInvariant:
		return "invariant"
	case KindTypeMismatch:
		return "type-mismatch"
	default:
		return "unknown"
	}
}

// Error is a fatal condition tagged with its Kind and wrapped with a stack
// trace so the CLI can log where construction failed.
type Error struct {
	Kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

func (e *Error) Unwrap() error { return e.err }

// New builds a Kind-tagged fatal error with a stack trace attached.
func New(kind Kind, format string, args ...any) error {
	return errors.WithStack(&Error{Kind: kind, msg: fmt.Sprintf(format, args...)})
}

// Wrap tags an existing error with a Kind, preserving its stack if it has
// one and attaching one if it doesn't.
func Wrap(kind Kind, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(&Error{Kind: kind, msg: fmt.Sprintf(format, args...), err: err})
}

// As recovers the Kind-tagged error from err, if any is present in its chain.
func As(err error) (*Error, bool) {
	var herr *Error
	if errors.As(err, &herr) {
		return herr, true
	}
	return nil, false
}
