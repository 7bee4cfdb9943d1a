package answer

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Resolver turns the configured data store id into the id the backend
// expects. The configured value is often a display name or a prefix of the
// real id, which the backend extends with a generated numeric suffix.
//
// Resolution is best-effort and never fails: any listing error falls back to
// the configured id unchanged. The result is cached for the resolver's
// lifetime; concurrent first calls are collapsed into one listing call.
type Resolver struct {
	lister      DataStoreLister
	parent      string
	configured  string
	autoResolve bool
	logger      *zap.Logger

	group    singleflight.Group
	mu       sync.RWMutex
	resolved string
	done     bool
}

// NewResolver creates a resolver for the given configured id. lister may be
// nil, in which case the configured id is always returned as-is.
func NewResolver(lister DataStoreLister, parent, configured string, autoResolve bool, logger *zap.Logger) *Resolver {
	return &Resolver{
		lister:      lister,
		parent:      parent,
		configured:  configured,
		autoResolve: autoResolve,
		logger:      logger,
	}
}

// Resolve returns the effective data store id, resolving it on first use.
func (r *Resolver) Resolve(ctx context.Context) string {
	r.mu.RLock()
	if r.done {
		id := r.resolved
		r.mu.RUnlock()
		return id
	}
	r.mu.RUnlock()

	id, _, _ := r.group.Do(r.configured, func() (any, error) {
		id := r.resolve(ctx)
		r.mu.Lock()
		r.resolved, r.done = id, true
		r.mu.Unlock()
		return id, nil
	})
	return id.(string)
}

// Reset invalidates the cached resolution. Exposed for tests.
func (r *Resolver) Reset() {
	r.mu.Lock()
	r.resolved, r.done = "", false
	r.mu.Unlock()
}

func (r *Resolver) resolve(ctx context.Context) string {
	if r.configured == "" {
		return r.configured
	}
	if !r.autoResolve || r.lister == nil || hasGeneratedSuffix(r.configured) {
		return r.configured
	}

	stores, err := r.lister.ListDataStores(ctx, r.parent)
	if err != nil {
		r.logger.Warn("Data store listing failed, using configured id",
			zap.String("parent", r.parent),
			zap.String("data_store_id", r.configured),
			zap.Error(err),
		)
		return r.configured
	}

	// Lower priority wins; ties keep the first store in listing order.
	const noMatch = 4
	best, bestID := noMatch, r.configured
	for _, ds := range stores {
		p := noMatch
		switch {
		case ds.ID == r.configured || trimGeneratedSuffix(ds.ID) == r.configured:
			p = 0
		case strings.HasPrefix(ds.ID, r.configured+"_"):
			p = 1
		case strings.EqualFold(ds.DisplayName, r.configured):
			p = 2
		case hasFoldedPrefix(ds.DisplayName, r.configured):
			p = 3
		}
		if p < best {
			best, bestID = p, ds.ID
		}
	}

	if best == noMatch {
		r.logger.Warn("No data store matched configured id",
			zap.String("data_store_id", r.configured),
			zap.Int("listed", len(stores)),
		)
		return r.configured
	}

	if bestID != r.configured {
		r.logger.Info("Resolved data store id",
			zap.String("configured", r.configured),
			zap.String("resolved", bestID),
			zap.Int("priority", best),
		)
	}
	return bestID
}

// hasGeneratedSuffix reports whether the trailing underscore-delimited
// segment is all digits, the convention the backend uses for generated ids.
func hasGeneratedSuffix(id string) bool {
	seg := id
	if i := strings.LastIndex(id, "_"); i >= 0 {
		seg = id[i+1:]
	}
	if seg == "" {
		return false
	}
	for _, r := range seg {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// trimGeneratedSuffix strips a trailing _<digits> segment, if present.
func trimGeneratedSuffix(id string) string {
	i := strings.LastIndex(id, "_")
	if i < 0 {
		return id
	}
	if hasGeneratedSuffix(id[i+1:]) {
		return id[:i]
	}
	return id
}

func hasFoldedPrefix(s, prefix string) bool {
	return strings.HasPrefix(strings.ToLower(s), strings.ToLower(prefix))
}
