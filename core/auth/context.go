package auth

import "context"

type tokenKey struct{}

// NewContext returns a copy of ctx carrying the session token forwarded to the API.
func NewContext(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the session token stored in ctx, if any.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}
