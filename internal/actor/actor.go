// Package actor carries the authenticated user of a request through
// context.Context so storage and audit code can attribute changes.
package actor

import "context"

// SystemName is used when no authenticated actor is present.
const SystemName = "Sistema"

type Actor struct {
	ID   string
	Name string
	Role string
}

type ctxKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

func FromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	a, ok := ctx.Value(ctxKey{}).(Actor)
	return a, ok
}

// DisplayName returns the actor name for log attribution, or SystemName.
func DisplayName(ctx context.Context) string {
	if a, ok := FromContext(ctx); ok && a.Name != "" {
		return a.Name
	}
	return SystemName
}
