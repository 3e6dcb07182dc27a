package runtime

import (
	"context"
	"errors"
	"time"
)

// MaxReconnectAttempts and ReconnectDelay are spec.md §4.12's bounded
// WebSocket-reconnect parameters: up to 3 attempts, 2 seconds apart.
const (
	MaxReconnectAttempts = 3
	ReconnectDelay       = 2 * time.Second
)

// ErrDisconnected is returned by [Reconnect] once every attempt has been
// exhausted; any pending speak/recognize call should reject with this error
// (spec.md §4.12: "the pending speak promise rejects with Disconnected on
// terminal loss").
var ErrDisconnected = errors.New("voice: disconnected")

// Reconnect calls connect up to [MaxReconnectAttempts] times, waiting
// [ReconnectDelay] between attempts, and returns the first successful
// result. If every attempt fails, it returns [ErrDisconnected] wrapping the
// last underlying error. ctx cancellation aborts the retry loop immediately.
func Reconnect[T any](ctx context.Context, connect func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= MaxReconnectAttempts; attempt++ {
		result, err := connect(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == MaxReconnectAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(ReconnectDelay):
		}
	}

	return zero, errors.Join(ErrDisconnected, lastErr)
}
