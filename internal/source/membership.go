package source

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Watcher subscribes the live connection to a set of channel handles and
// returns the handles that are now watched. Handles that cannot be resolved
// yet are skipped and will be offered again on the next reconcile.
type Watcher interface {
	Watch(ctx context.Context, handles []string) []string
}

// Membership maintains the desired set of watched channels. A static channel
// list, when configured, is authoritative and the backend is never consulted
// for membership. Registration is incremental: an already-watched handle is
// never registered twice, so Reconcile is safe to run on a timer.
type Membership struct {
	static  []string
	fetcher Fetcher
	watcher Watcher
	logger  *zerolog.Logger

	mu          sync.Mutex
	watched     map[string]struct{}
	loggedEmpty bool
}

func NewMembership(staticChannels []string, fetcher Fetcher, watcher Watcher, logger *zerolog.Logger) *Membership {
	return &Membership{
		static:  dedupeHandles(staticChannels),
		fetcher: fetcher,
		watcher: watcher,
		logger:  logger,
		watched: make(map[string]struct{}),
	}
}

// Reconcile computes the desired channel set, diffs it against the watched
// set and registers only the missing handles. Existing subscriptions are
// never reset.
func (m *Membership) Reconcile(ctx context.Context) {
	desired := m.desired(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(desired) == 0 {
		if !m.loggedEmpty && len(m.watched) == 0 {
			m.logger.Info().Msg("No channels configured: Telegram handler is not registered")

			m.loggedEmpty = true
		}

		return
	}

	missing := diff(desired, m.watched)
	if len(missing) == 0 {
		return
	}

	registered := m.watcher.Watch(ctx, missing)
	for _, h := range registered {
		m.watched[strings.ToLower(h)] = struct{}{}
	}

	if len(registered) > 0 {
		m.logger.Info().Strs("channels", registered).Msg("Registered Telegram handler for new channels")
	}
}

// desired returns the normalized, deduplicated channel set. The static list
// wins when non-empty; otherwise every handle from the backend registry.
func (m *Membership) desired(ctx context.Context) []string {
	if len(m.static) > 0 {
		return m.static
	}

	sources, err := m.fetcher.ActiveSources(ctx)
	if err != nil {
		m.logger.Error().Err(err).Msg("failed to fetch channel list from backend")

		return nil
	}

	handles := make([]string, 0, len(sources))
	for _, s := range sources {
		handles = append(handles, s.Handle)
	}

	return dedupeHandles(handles)
}

// diff returns the desired handles not present in watched, comparing
// case-insensitively.
func diff(desired []string, watched map[string]struct{}) []string {
	var missing []string

	for _, h := range desired {
		if _, ok := watched[strings.ToLower(h)]; !ok {
			missing = append(missing, h)
		}
	}

	return missing
}

func dedupeHandles(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))

	for _, c := range raw {
		h := NormalizeHandle(c)
		if h == "" {
			continue
		}

		key := strings.ToLower(h)
		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}

		out = append(out, h)
	}

	sort.Strings(out)

	return out
}
