package table

import (
	"errors"
	"fmt"
)

// Kind classifies a table error.
type Kind int

const (
	KindNone Kind = iota
	KindUsage
	KindNotFound
	KindTypeMismatch
	KindCorrupt
	KindAlloc
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindUsage:
		return "usage"
	case KindNotFound:
		return "not found"
	case KindTypeMismatch:
		return "type mismatch"
	case KindCorrupt:
		return "corrupt"
	case KindAlloc:
		return "allocation"
	default:
		return "internal"
	}
}

var (
	ErrUsage        = errors.New("usage error")
	ErrNotFound     = errors.New("not found")
	ErrTypeMismatch = errors.New("type mismatch")
	ErrCorrupt      = errors.New("corrupt table")
	ErrAlloc        = errors.New("allocation failure")
	ErrInternal     = errors.New("internal error")

	// ErrStale reports a Head whose array was restructured after the Head
	// was built.
	ErrStale = fmt.Errorf("%w: stale row index", ErrCorrupt)

	// ErrStop ends a walk early when returned by a Visitor.
	ErrStop = errors.New("stop walk")
)

// KindOf classifies err by the sentinel it wraps. Unclassified errors are
// internal.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrUsage):
		return KindUsage
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrTypeMismatch):
		return KindTypeMismatch
	case errors.Is(err, ErrCorrupt):
		return KindCorrupt
	case errors.Is(err, ErrAlloc):
		return KindAlloc
	default:
		return KindInternal
	}
}
