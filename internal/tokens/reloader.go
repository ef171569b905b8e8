package tokens

import (
	"context"
	"time"

	"github.com/FangWolf96/corepoint-ingest/internal/infra/logging"
)

// Repository is the source of truth for the token table.
type Repository interface {
	LoadTokens(ctx context.Context) (map[string]int, error)
}

// Reloader keeps a Cache in sync with a Repository.
type Reloader struct {
	repo     Repository
	cache    *Cache
	interval time.Duration
}

// NewReloader creates a reloader that refreshes the cache at the given interval.
func NewReloader(repo Repository, cache *Cache, interval time.Duration) *Reloader {
	return &Reloader{repo: repo, cache: cache, interval: interval}
}

// LoadOnce performs a single refresh. On error the cache keeps its previous
// contents so a transient DB outage does not lock every client out.
func (r *Reloader) LoadOnce(ctx context.Context) error {
	m, err := r.repo.LoadTokens(ctx)
	if err != nil {
		return err
	}
	r.cache.Replace(m)
	return nil
}

// Run refreshes the cache periodically until the context is canceled.
func (r *Reloader) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := r.LoadOnce(ctx); err != nil {
				logging.Error("Failed to reload API tokens", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
