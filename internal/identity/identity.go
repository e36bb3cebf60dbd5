package identity

import (
	"context"
	"errors"
	"net/http"
)

var ErrNoCaller = errors.New("no authenticated caller")

type ctxKey struct{}

// WithCaller returns a context carrying the caller id.
func WithCaller(ctx context.Context, callerID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, callerID)
}

// CallerID resolves the authenticated caller from the context.
func CallerID(ctx context.Context) (string, error) {
	id, _ := ctx.Value(ctxKey{}).(string)
	if id == "" {
		return "", ErrNoCaller
	}
	return id, nil
}

// Middleware lifts the identity the auth gateway established into the request
// context. Authentication itself happens upstream; this engine only consumes
// the resolved id.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get("X-User-Id"); id != "" {
			r = r.WithContext(WithCaller(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}
