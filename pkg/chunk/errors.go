package chunk

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error kinds. Every error returned by the codec unwraps to one of these.
var (
	ErrInvalidParameters  = errors.New("invalid parameters")
	ErrItemNotFound       = errors.New("item not found")
	ErrCorruptData        = errors.New("corrupt data")
	ErrInternal           = errors.New("internal error")
	ErrUnsupportedVersion = errors.New("unsupported version")
)

// Error is a codec failure tagged with its kind and the operation that raised it.
type Error struct {
	Kind error
	Op   string
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Kind, e.Msg)
}

// Unwrap returns the error kind so errors.Is works against the sentinels.
func (e *Error) Unwrap() error {
	return e.Kind
}

// Errorf builds an *Error of the given kind.
func Errorf(kind error, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err is of the given kind.
func IsKind(err, kind error) bool {
	return errors.Is(err, kind)
}
