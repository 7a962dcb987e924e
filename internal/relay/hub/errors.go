package hub

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed - returns when Hub is closed and will not accept new messages or subscriptions.
	// Subscriptions get it after all retained messages were read.
	ErrClosed = errors.New("hub.Hub: closed")

	// ErrUnsubscribed - returns from Receive after the subscription was closed by its owner.
	ErrUnsubscribed = errors.New("hub.Subscription: unsubscribed")
)

// LaggedError - returns from Receive when the subscription fell behind the Hub capacity
// and the oldest unread messages were overwritten. The subscription cursor is already moved
// to the oldest retained message, so next Receive continues normally.
type LaggedError struct {
	Skipped uint64
}

func (e *LaggedError) Error() string {
	return fmt.Sprintf("hub.Subscription: lagged behind, %d message(s) skipped", e.Skipped)
}

// IsLagged - reports whether err is (or wraps) LaggedError and returns number of skipped messages.
func IsLagged(err error) (skipped uint64, ok bool) {
	var lagged *LaggedError
	if errors.As(err, &lagged) {
		return lagged.Skipped, true
	}
	return 0, false
}
