package types

import "context"

// contextKey is unexported so only this package can mint keys.
type contextKey string

const (
	// ContextKeyScopeID carries the scope a request operates on.
	ContextKeyScopeID contextKey = "scope_id"
	// ContextKeyRequestID carries the request correlation id.
	ContextKeyRequestID contextKey = "request_id"
	// ContextKeyRequestSource carries where the request came from
	// (http, cli).
	ContextKeyRequestSource contextKey = "request_source"
)

// WithScopeID tags the context with the scope being operated on.
func WithScopeID(ctx context.Context, scopeID string) context.Context {
	return context.WithValue(ctx, ContextKeyScopeID, scopeID)
}

// WithRequestID tags the context with a correlation id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// WithRequestSource tags the context with the request origin.
func WithRequestSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestSource, source)
}

// ScopeIDFromContext returns the scope id on the context, if any.
func ScopeIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ContextKeyScopeID).(string)
	return v
}

// RequestIDFromContext returns the correlation id on the context, if any.
func RequestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ContextKeyRequestID).(string)
	return v
}

// RequestSourceFromContext returns the request origin on the context, if
// any.
func RequestSourceFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ContextKeyRequestSource).(string)
	return v
}
