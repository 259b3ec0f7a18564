// Package store keeps the client-side person collection and runs every graph
// mutation through an optimistic snapshot/apply/confirm-or-rollback cycle
// against the remote backend.
package store

import (
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/zeebo/xxh3"

	kindred "github.com/kindredapp/kindred-go"
	"github.com/kindredapp/kindred-go/graph"
)

// Store owns one cached person collection. The collection is an immutable
// value: readers always see either a pre-mutation or post-mutation snapshot,
// never a partial update.
type Store struct {
	remote Remote
	logger *slog.Logger

	// mu serializes mutations. A snapshot must never be taken from a state
	// containing another mutation's unconfirmed optimistic apply, so the
	// lock is held across the remote call.
	mu sync.Mutex

	stateMu sync.RWMutex
	people  kindred.People
	edges   []kindred.Edge
	hidden  map[kindred.PersonID]struct{}
	subs    map[int]chan kindred.People
	nextSub int
}

func New(remote Remote, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		remote: remote,
		logger: logger,
		people: kindred.People{},
		subs:   make(map[int]chan kindred.People),
	}
}

// People returns the current snapshot. The caller must not mutate it.
func (s *Store) People() kindred.People {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.people
}

// Edges returns the cached relationship edges from the last load or refetch.
func (s *Store) Edges() []kindred.Edge {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	out := make([]kindred.Edge, len(s.edges))
	copy(out, s.edges)
	return out
}

// SetHidden replaces the moderation exclusion set used by queries.
func (s *Store) SetHidden(ids []kindred.PersonID) {
	hidden := make(map[kindred.PersonID]struct{}, len(ids))
	for _, id := range ids {
		hidden[id] = struct{}{}
	}
	s.stateMu.Lock()
	s.hidden = hidden
	s.stateMu.Unlock()
}

// View returns a query view of the current snapshot with the moderation
// exclusion set applied.
func (s *Store) View() graph.View {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return graph.View{People: s.people, Hidden: s.hidden}
}

func (s *Store) CountAncestors(id kindred.PersonID) int {
	return s.View().CountAncestors(id)
}

func (s *Store) CountDescendants(id kindred.PersonID) int {
	return s.View().CountDescendants(id)
}

func (s *Store) Siblings(id kindred.PersonID) []kindred.Person {
	return s.View().Siblings(id)
}

// Subscribe registers a listener that receives every published snapshot.
// The returned function cancels the subscription. Slow listeners miss
// intermediate snapshots rather than blocking a mutation.
func (s *Store) Subscribe() (<-chan kindred.People, func()) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan kindred.People, 1)
	s.subs[id] = ch

	cancel := func() {
		s.stateMu.Lock()
		defer s.stateMu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// publish atomically swaps the snapshot and notifies subscribers.
func (s *Store) publish(people kindred.People) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.people = people
	for _, ch := range s.subs {
		select {
		case ch <- people:
		default:
			// drop the stale snapshot, keep only the newest
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- people:
			default:
			}
		}
	}
}

func (s *Store) setEdges(edges []kindred.Edge) {
	s.stateMu.Lock()
	s.edges = edges
	s.stateMu.Unlock()
}

func (s *Store) appendEdge(edge kindred.Edge) {
	s.stateMu.Lock()
	s.edges = append(s.edges, edge)
	s.stateMu.Unlock()
}

// fingerprint condenses id/version pairs of a collection into one hash.
// Two snapshots with equal fingerprints carry the same structural state.
func fingerprint(people kindred.People) uint64 {
	keys := make([]string, 0, len(people))
	for id, p := range people {
		keys = append(keys, id.Value+"@"+strconv.FormatInt(p.Version, 10))
	}
	sort.Strings(keys)
	return xxh3.HashString(strings.Join(keys, "\n"))
}
