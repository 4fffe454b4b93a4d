package database

import (
	"context"
)

type contextKey string

const (
	// ScopeKey is the context key for storing the request-scoped database connection.
	ScopeKey contextKey = "dbScope"
)

// GetScope retrieves the request-scoped database connection from context.
// Returns nil and false if not present or detached.
func GetScope(ctx context.Context) (*Scope, bool) {
	scope, ok := ctx.Value(ScopeKey).(*Scope)
	return scope, ok && scope != nil
}

// SetScope stores the request-scoped database connection in context.
func SetScope(ctx context.Context, scope *Scope) context.Context {
	return context.WithValue(ctx, ScopeKey, scope)
}

// Detach returns a context whose repository calls go to the pool instead of the
// connection pinned by WithScope. A pinned connection runs one statement at a
// time, so goroutines that query concurrently must use a detached context.
func Detach(ctx context.Context) context.Context {
	if _, ok := GetScope(ctx); !ok {
		return ctx
	}
	return context.WithValue(ctx, ScopeKey, (*Scope)(nil))
}
