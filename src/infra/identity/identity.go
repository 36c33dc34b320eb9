// Package identity carries the caller identity on the request context.
package identity

import (
	"context"
	"strings"

	"qnadonate/src/core/domain"
)

type callerKey struct{}

// WithCaller returns a context carrying callerID.
func WithCaller(ctx context.Context, callerID string) context.Context {
	return context.WithValue(ctx, callerKey{}, callerID)
}

// ContextProvider implements ports.IdentityProvider by reading the identity
// stored with WithCaller.
type ContextProvider struct{}

func (ContextProvider) CallerID(ctx context.Context) (string, error) {
	id, _ := ctx.Value(callerKey{}).(string)
	if strings.TrimSpace(id) == "" {
		return "", domain.NewUnauthorizedError("caller identity missing")
	}
	return id, nil
}
