package middleware

import (
	"context"
	"net/http"

	"github.com/lmorales/tienda/pkg/auth"
)

// GuestTokenHeader carries the opaque identifier of an unauthenticated
// visitor. The client receives one from the cart endpoints on first contact
// and must send it back on every cart request until login.
const GuestTokenHeader = "X-Guest-Token"

type guestTokenKey struct{}

// GuestTokenFromCtx returns the guest token stored by Identity, or "".
func GuestTokenFromCtx(ctx context.Context) string {
	if t, ok := ctx.Value(guestTokenKey{}).(string); ok {
		return t
	}
	return ""
}

// Identity resolves the caller's identity without rejecting anyone: a valid
// Bearer token yields claims in the context, and the X-Guest-Token header (if
// any) is passed through as well. Cart routes accept both authenticated users
// and anonymous guests, so they use this instead of Auth.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if token := bearerToken(r); token != "" {
			if claims, err := auth.ValidateToken(token); err == nil {
				ctx = context.WithValue(ctx, claimsKey{}, claims)
			}
		}

		if guest := r.Header.Get(GuestTokenHeader); guest != "" {
			ctx = context.WithValue(ctx, guestTokenKey{}, guest)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
