package backend

import "context"

// Credentials supplies the bearer token for outgoing calls and is told when
// the backend rejects it.
type Credentials interface {
	BearerToken() string
	Invalidate(ctx context.Context) error
}

type credsKey struct{}

func WithCredentials(ctx context.Context, c Credentials) context.Context {
	return context.WithValue(ctx, credsKey{}, c)
}

func CredentialsFrom(ctx context.Context) Credentials {
	c, _ := ctx.Value(credsKey{}).(Credentials)
	return c
}

// staticToken is a one-off bearer, used for the password reset token which
// must not touch the signed-in session.
type staticToken string

func (t staticToken) BearerToken() string        { return string(t) }
func (staticToken) Invalidate(context.Context) error { return nil }

func WithBearer(ctx context.Context, token string) context.Context {
	return WithCredentials(ctx, staticToken(token))
}

type routeKey struct{}

// withRoute labels the request with its route template for metrics.
func withRoute(ctx context.Context, route string) context.Context {
	return context.WithValue(ctx, routeKey{}, route)
}

func routeFrom(ctx context.Context) string {
	if r, ok := ctx.Value(routeKey{}).(string); ok {
		return r
	}
	return "unknown"
}
