package ports

import "context"

// SignoutBus broadcasts the sign-out signal to sibling gateway instances.
// The payload is an opaque timestamp string; subscribers must react to the
// event itself, never interpret the value.
type SignoutBus interface {
	Publish(ctx context.Context, payload string) error
	// Subscribe registers fn to run on every published signal, including the
	// caller's own publishes. It returns an unsubscribe function.
	Subscribe(fn func(payload string)) (unsubscribe func(), err error)
}
