// Package idgen provides the IDGenerator implementations selectable by
// APP_ID_SCHEME: random UUIDv4, time-ordered ULIDs and snowflake ids.
package idgen

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"qnadonate/src/core/ports"
	"qnadonate/src/infra/config"
)

// New returns the generator named by scheme.
func New(cfg config.StoreConfig) (ports.IDGenerator, error) {
	switch cfg.IDScheme {
	case config.IDSchemeUUID, "":
		return UUID{}, nil
	case config.IDSchemeULID:
		return NewULID(), nil
	case config.IDSchemeSnowflake:
		return NewSnowflake(cfg.SnowflakeNode)
	default:
		return nil, fmt.Errorf("unknown id scheme %q", cfg.IDScheme)
	}
}

// UUID generates random version 4 UUIDs.
type UUID struct{}

func (UUID) GenerateID() string {
	return uuid.NewString()
}

// ULID generates lexicographically sortable ids. Ids created within the same
// millisecond stay strictly increasing.
type ULID struct {
	mu      sync.Mutex
	entropy io.Reader
	now     func() time.Time
	lastMS  uint64
}

func NewULID() *ULID {
	return &ULID{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

// GenerateID never panics. When the entropy of a millisecond is exhausted
// the id moves to the next millisecond, and later ids never go back to an
// earlier one.
func (g *ULID) GenerateID() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := ulid.Timestamp(g.now())
	if ms < g.lastMS {
		ms = g.lastMS
	}
	for {
		id, err := ulid.New(ms, g.entropy)
		if err == nil {
			g.lastMS = ms
			return id.String()
		}
		if !errors.Is(err, ulid.ErrMonotonicOverflow) {
			return ulid.Make().String()
		}
		ms++
	}
}

// Snowflake generates 64-bit snowflake ids rendered in base 10.
type Snowflake struct {
	node *snowflake.Node
}

func NewSnowflake(node int64) (*Snowflake, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node %d: %w", node, err)
	}
	return &Snowflake{node: n}, nil
}

func (g *Snowflake) GenerateID() string {
	return g.node.Generate().String()
}

// Sequence hands out "<prefix>-1", "<prefix>-2", ... and is used where
// predictable ids matter, such as tests and fixtures.
type Sequence struct {
	mu     sync.Mutex
	prefix string
	next   int
}

func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix}
}

func (g *Sequence) GenerateID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("%s-%d", g.prefix, g.next)
}
