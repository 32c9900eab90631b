package cache

import (
	"context"
	"errors"

	"github.com/ondegooltd/sirahats-sub001/internal/domain"
)

// CartCache holds the raw stored cart, never the resolved view, so catalog changes
// show up on the next read.
//
// Every Delete bumps a per-user version. Readers take Version before loading the
// cart from the database and pass it to Set, which stores nothing if a Delete ran
// in between. A slow reader therefore cannot put back a cart that a write already
// replaced.
type CartCache interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Version(ctx context.Context, userID string) (int64, error)
	Set(ctx context.Context, userID string, cart *domain.Cart, version int64) error
	Delete(ctx context.Context, userID string) error
}

var ErrCacheMiss = errors.New("cache miss")

// Noop is used when no Redis is configured; every read misses.
type Noop struct{}

func (Noop) Get(context.Context, string) (*domain.Cart, error) { return nil, ErrCacheMiss }

func (Noop) Version(context.Context, string) (int64, error) { return 0, nil }

func (Noop) Set(context.Context, string, *domain.Cart, int64) error { return nil }

func (Noop) Delete(context.Context, string) error { return nil }
