package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/medsearch-ai/medsearch/config"
	"github.com/medsearch-ai/medsearch/schema"
)

// ErrNotFound is returned when a session id has no record.
var ErrNotFound = errors.New("session not found")

// Store persists query sessions across the workflow lifecycle.
type Store interface {
	Create(ctx context.Context, query string) (*schema.Session, error)
	Get(ctx context.Context, id string) (*schema.Session, error)
	// Update applies fn to the stored session under the store's lock and
	// persists the result. fn receives a copy it may mutate freely.
	Update(ctx context.Context, id string, fn func(*schema.Session)) error
	Delete(ctx context.Context, id string) error
	// ListRecent returns up to limit sessions, newest first.
	ListRecent(ctx context.Context, limit int) ([]*schema.Session, error)
	Close() error
}

// New builds the configured store backend.
func New(cfg config.SessionConfig) (Store, error) {
	switch cfg.Provider {
	case "sqlite":
		return NewSQLite(cfg.Path)
	case "memory", "":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: unknown session provider %q", schema.ErrFatalConfig, cfg.Provider)
	}
}
