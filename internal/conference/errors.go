package conference

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the presentation layer.
type Kind string

const (
	KindMediaUnavailable  Kind = "media_unavailable"
	KindRoomUnavailable   Kind = "room_unavailable"
	KindNegotiationFailed Kind = "negotiation_failed"
	KindRelayDisconnected Kind = "relay_disconnected"
)

// ErrRelayClosed is the underlying cause reported when the relay channel
// closes from under the engine.
var ErrRelayClosed = errors.New("relay connection lost")

// ErrNoMedia is reported when a capture command reaches an engine that
// was built without a media controller.
var ErrNoMedia = errors.New("no media controller configured")

// Error wraps a failure with the operation that produced it and a
// machine-readable kind. Every error surfaced to the presentation layer
// is one of these.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == kind
}
