package source

import (
	"context"
	"maps"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/23Serhii/avesint-platform/internal/platform/observability"
)

// Category is the trust classification of a channel.
type Category string

const (
	CategoryOfficial  Category = "official"
	CategoryOSINTTeam Category = "osint-team"
	CategoryLocalNews Category = "local-news"
	CategoryEnemyProp Category = "enemy-prop"
	CategoryUnknown   Category = "unknown"
)

// ValidCategory reports whether s is one of the five allowed categories.
func ValidCategory(s string) bool {
	switch Category(s) {
	case CategoryOfficial, CategoryOSINTTeam, CategoryLocalNews, CategoryEnemyProp, CategoryUnknown:
		return true
	default:
		return false
	}
}

// Source is one active source as reported by the backend registry.
type Source struct {
	Handle     string
	ExternalID string
	Category   string
}

// Fetcher lists the active sources known to the backend.
type Fetcher interface {
	ActiveSources(ctx context.Context) ([]Source, error)
}

// Registry answers category lookups for channel handles. Resolution order:
// static overrides, the latest backend snapshot, then "unknown". The snapshot
// is an immutable map replaced wholesale on refresh, so concurrent readers
// always observe a complete mapping.
type Registry struct {
	overrides map[string]string
	fetcher   Fetcher
	snapshot  atomic.Pointer[map[string]string]
	logger    *zerolog.Logger
}

// NewRegistry builds a registry from a static override map (keys are
// normalized to lower-case handles) and a backend fetcher. The snapshot
// starts empty until the first Refresh.
func NewRegistry(overrides map[string]string, fetcher Fetcher, logger *zerolog.Logger) *Registry {
	normalized := make(map[string]string, len(overrides))

	for k, v := range overrides {
		key := strings.ToLower(NormalizeHandle(k))
		if key == "" {
			continue
		}

		normalized[key] = strings.TrimSpace(v)
	}

	r := &Registry{
		overrides: normalized,
		fetcher:   fetcher,
		logger:    logger,
	}

	empty := map[string]string{}
	r.snapshot.Store(&empty)

	return r
}

// Refresh fetches all active sources and atomically swaps in a fresh
// handle-to-category mapping. A fetch failure leaves the previous snapshot
// untouched and is only logged.
func (r *Registry) Refresh(ctx context.Context) {
	sources, err := r.fetcher.ActiveSources(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to fetch active OSINT sources from backend")

		return
	}

	next := make(map[string]string, len(sources))

	for _, s := range sources {
		key := strings.ToLower(NormalizeHandle(s.Handle))
		if key == "" {
			continue
		}

		next[key] = s.Category
	}

	prev := r.snapshot.Swap(&next)

	observability.RegistrySnapshotSize.Set(float64(len(next)))

	if !maps.Equal(*prev, next) {
		r.logger.Info().Int("sources", len(next)).Msg("Loaded active sources from backend")
	}
}

// ResolveCategory returns the trust category for a handle in O(1). Override
// and snapshot values outside the allowed set are ignored and fall through.
func (r *Registry) ResolveCategory(handle string) Category {
	key := strings.ToLower(NormalizeHandle(handle))

	if ov, ok := r.overrides[key]; ok && ValidCategory(ov) {
		return Category(ov)
	}

	snap := *r.snapshot.Load()
	if cat, ok := snap[key]; ok && ValidCategory(cat) {
		return Category(cat)
	}

	return CategoryUnknown
}
