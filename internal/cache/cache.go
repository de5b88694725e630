package cache

import (
	"context"
	"time"
)

// ReportCache stores serialized report payloads under short TTLs. A cache
// miss and a cache failure look the same to callers: (nil, false, err) with
// err optionally set, and the service falls through to the repository.
type ReportCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// Noop satisfies ReportCache without storing anything. Used when no Redis
// address is configured.
type Noop struct{}

func NewNoop() *Noop { return &Noop{} }

func (*Noop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (*Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (*Noop) Close() error { return nil }
