package prio

import (
	"context"
)

// threadContextKey is a unique type used as a key for storing Thread
// values in a context.
type threadContextKey struct{}

// withThreadContext creates a new context with the thread value
// stored in it. This allows the thread to be retrieved from the
// context later.
func withThreadContext(ctx context.Context, t *Thread) context.Context {
	return context.WithValue(ctx, threadContextKey{}, t)
}

// ThreadFromContext retrieves a Thread from a context. Returns the
// thread and a boolean indicating whether a thread was found.
func ThreadFromContext(ctx context.Context) (*Thread, bool) {
	val, ok := ctx.Value(threadContextKey{}).(*Thread)
	return val, ok
}

// MustThreadFromContext retrieves a Thread from a context, panicking
// if not found. This function is useful when the caller expects the
// context to definitely contain a thread.
func MustThreadFromContext(ctx context.Context) *Thread {
	val, ok := ctx.Value(threadContextKey{}).(*Thread)
	if !ok {
		panic("prio: thread not found in context")
	}
	return val
}
