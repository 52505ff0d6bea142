package project

import (
	"context"

	"github.com/rpggio/bluecarbon/internal/domain/activity"
)

// Storage is a flat key/value blob store. Read returns repository.ErrNotFound
// for an absent key.
type Storage interface {
	Read(ctx context.Context, key string) (string, error)
	Write(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// BatchWriter is implemented by storages that can write several keys atomically.
type BatchWriter interface {
	WriteBatch(ctx context.Context, values map[string]string) error
}

// ActivityLogger records store mutations.
type ActivityLogger interface {
	LogActivity(ctx context.Context, entry *activity.ActivityEntry) error
}
