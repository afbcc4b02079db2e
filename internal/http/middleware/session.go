package middleware

import (
	"context"
	"net/http"
)

// The session/auth layer in front of this service resolves the user and
// forwards the session and actor identities as headers. This middleware only
// lifts them onto the request context; it performs no authentication itself.
const (
	SessionIDHeader = "X-Session-ID"
	ActorIDHeader   = "X-Actor-ID"
)

type sessionIDKey struct{}
type actorIDKey struct{}

func Session() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if sessionID := r.Header.Get(SessionIDHeader); sessionID != "" {
				ctx = context.WithValue(ctx, sessionIDKey{}, sessionID)
			}
			if actorID := r.Header.Get(ActorIDHeader); actorID != "" {
				ctx = context.WithValue(ctx, actorIDKey{}, actorID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionIDFromContext returns the session ID forwarded by the auth layer.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	sessionID, ok := ctx.Value(sessionIDKey{}).(string)
	return sessionID, ok
}

// ActorIDFromContext returns the acting user ID forwarded by the auth layer.
func ActorIDFromContext(ctx context.Context) (string, bool) {
	actorID, ok := ctx.Value(actorIDKey{}).(string)
	return actorID, ok
}
