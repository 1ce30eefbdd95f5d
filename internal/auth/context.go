package auth

import "context"

type claimsKey struct{}

// WithClaims returns a copy of ctx carrying the verified caller.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// FromContext returns the caller attached by the bearer middleware. A nil
// value stored under the key counts as absent.
func FromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*Claims)
	return claims, ok && claims != nil
}
