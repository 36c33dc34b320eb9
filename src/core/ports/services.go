package ports

import (
	"context"
	"time"
)

// IDGenerator supplies a fresh identifier per entity creation.
// Uniqueness is the only requirement; the scheme is up to the implementation.
type IDGenerator interface {
	GenerateID() string
}

// Clock supplies the timestamp recorded as CreatedAt.
type Clock interface {
	Now() time.Time
}

// IdentityProvider resolves the identity of the caller of an operation.
type IdentityProvider interface {
	CallerID(ctx context.Context) (string, error)
}
