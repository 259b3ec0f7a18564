package store

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	kindred "github.com/kindredapp/kindred-go"
	"github.com/kindredapp/kindred-go/graph"
)

var tracer = otel.Tracer("store")

// Remote is the persistence boundary. Implementations must create edges
// idempotently: a duplicate create returns the existing edge id, never an
// error, since client retries are expected.
type Remote interface {
	FetchPeople(ctx context.Context) ([]kindred.Person, error)
	FetchEdges(ctx context.Context) ([]kindred.Edge, error)
	CreatePerson(ctx context.Context, actorID string, person kindred.Person) (kindred.Person, error)
	UpdatePerson(ctx context.Context, actorID string, person kindred.Person) (kindred.Person, error)
	CreateEdge(ctx context.Context, actorID string, edge kindred.Edge) (string, error)
	DeleteEdge(ctx context.Context, edgeID string, actorID string) error
}

// Load replaces the cache with the server's authoritative collection.
func (s *Store) Load(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Store.Load")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.refetch(ctx)
}

// refetch pulls people and edges and swaps them in wholesale. Fetched edges
// are folded over the fetched people so the adjacency arrays are complete
// even when the backend returns bare rows; folding is idempotent when the
// arrays were already populated. Callers hold s.mu.
func (s *Store) refetch(ctx context.Context) error {
	people, err := s.remote.FetchPeople(ctx)
	if err != nil {
		return &RemoteWriteError{Op: "fetch people", Err: err}
	}
	edges, err := s.remote.FetchEdges(ctx)
	if err != nil {
		return &RemoteWriteError{Op: "fetch edges", Err: err}
	}

	collection := make(kindred.People, len(people))
	for _, p := range people {
		collection[p.ID] = p
	}
	for _, edge := range edges {
		folded, err := graph.ApplyEdge(collection, edge)
		if err != nil {
			s.logger.Warn("skipping unappliable stored edge",
				slog.String("edge", edge.ID),
				slog.String("error", err.Error()),
				slog.String("module", "store"),
			)
			continue
		}
		collection = folded
	}

	s.publish(collection)
	s.setEdges(edges)
	return nil
}

// AddRelationship runs the full optimistic protocol for one edge: snapshot,
// apply, publish, persist, then reconcile or roll back. It returns the
// server-assigned edge id.
//
// A mutation that has published its optimistic apply always runs to
// completion, even if the caller's context is cancelled mid-flight.
func (s *Store) AddRelationship(ctx context.Context, actorID string, edge kindred.Edge) (string, error) {
	ctx, span := tracer.Start(ctx, "Store.AddRelationship")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.People()

	next, err := graph.ApplyEdge(snapshot, edge)
	if err != nil {
		// programming error, nothing was published
		span.RecordError(err)
		return "", err
	}

	if fingerprint(next) == fingerprint(snapshot) {
		s.logger.Debug("relationship already present or endpoint missing, skipping remote write",
			slog.String("type", string(edge.Type)),
			slog.String("module", "store"),
		)
		return "", nil
	}

	s.publish(next)

	ctx = context.WithoutCancel(ctx)
	edgeID, err := s.remote.CreateEdge(ctx, actorID, edge)
	if err != nil {
		s.publish(snapshot)
		span.RecordError(err)
		return "", &RemoteWriteError{Op: "create relationship", Err: err}
	}

	edge.ID = edgeID
	edge.CreatedBy = actorID
	s.appendEdge(edge)

	// A sibling edge rewrites a whole group server-side; per-entity merge is
	// impractical there, so reconcile by refetching the collection.
	if edge.Type == kindred.EdgeSibling {
		if err := s.refetch(ctx); err != nil {
			s.logger.Warn("post-commit refetch failed, keeping optimistic state",
				slog.String("error", err.Error()),
				slog.String("module", "store"),
			)
		}
	}

	return edgeID, nil
}

// CreatePerson optimistically inserts a person under a temporary id and
// swaps it for the server-assigned one on confirmation.
func (s *Store) CreatePerson(ctx context.Context, actorID string, draft kindred.Person) (kindred.PersonID, error) {
	ctx, span := tracer.Start(ctx, "Store.CreatePerson")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.People()

	tempID := kindred.NewTemporaryID()
	now := time.Now().UTC()
	draft.ID = tempID
	draft.Version = 1
	draft.CreatedAt = now
	draft.UpdatedAt = now

	next := make(kindred.People, len(snapshot)+1)
	for id, p := range snapshot {
		next[id] = p
	}
	next[tempID] = draft
	s.publish(next)

	ctx = context.WithoutCancel(ctx)
	confirmed, err := s.remote.CreatePerson(ctx, actorID, draft)
	if err != nil {
		s.publish(snapshot)
		span.RecordError(err)
		return kindred.PersonID{}, &RemoteWriteError{Op: "create person", Err: err}
	}

	if confirmed.ID.IsZero() || confirmed.ID.Temporary {
		// unusable response shape, fall back to a full refetch
		recErr := &ReconcileError{Op: "create person", Reason: "server returned no confirmed id"}
		s.logger.Warn(recErr.Error(), slog.String("module", "store"))
		if err := s.refetch(ctx); err != nil {
			s.publish(snapshot)
			return kindred.PersonID{}, recErr
		}
		return kindred.PersonID{}, recErr
	}

	s.swapIdentifier(tempID, confirmed)
	return confirmed.ID, nil
}

// UpdateProfile applies a profile-attribute edit optimistically. Adjacency
// arrays are client-maintained denormalizations, so the cached ones are kept
// and only attribute/bookkeeping fields are merged from the server response.
func (s *Store) UpdateProfile(ctx context.Context, actorID string, person kindred.Person) error {
	ctx, span := tracer.Start(ctx, "Store.UpdateProfile")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.People()
	current, ok := snapshot[person.ID]
	if !ok {
		return &ReconcileError{Op: "update profile", Reason: "person not in cache"}
	}

	optimistic := current
	optimistic.Name = person.Name
	optimistic.BirthDate = person.BirthDate
	optimistic.DeathDate = person.DeathDate
	optimistic.Gender = person.Gender
	optimistic.PhotoURL = person.PhotoURL
	optimistic.Biography = person.Biography
	optimistic.Phone = person.Phone
	optimistic.Version = current.Version + 1
	optimistic.UpdatedAt = time.Now().UTC()

	next := make(kindred.People, len(snapshot))
	for id, p := range snapshot {
		next[id] = p
	}
	next[person.ID] = optimistic
	s.publish(next)

	ctx = context.WithoutCancel(ctx)
	authoritative, err := s.remote.UpdatePerson(ctx, actorID, optimistic)
	if err != nil {
		s.publish(snapshot)
		span.RecordError(err)
		return &RemoteWriteError{Op: "update person", Err: err}
	}

	if authoritative.ID != person.ID {
		s.logger.Warn("update response did not match requested person, refetching",
			slog.String("module", "store"),
		)
		if err := s.refetch(ctx); err != nil {
			s.publish(snapshot)
			return &ReconcileError{Op: "update person", Reason: "unmergeable response and refetch failed"}
		}
		return nil
	}

	merged := authoritative
	merged.ParentIDs = optimistic.ParentIDs
	merged.SpouseIDs = optimistic.SpouseIDs
	merged.ChildIDs = optimistic.ChildIDs
	merged.SiblingIDs = optimistic.SiblingIDs

	final := make(kindred.People, len(next))
	for id, p := range next {
		final[id] = p
	}
	final[person.ID] = merged
	s.publish(final)
	return nil
}

// RemoveRelationship deletes an edge remotely, then refetches. There is no
// optimistic inverse for an edge removal: undoing a sibling link means
// recomputing group closures, which only the authoritative collection can
// answer.
func (s *Store) RemoveRelationship(ctx context.Context, actorID string, edgeID string) error {
	ctx, span := tracer.Start(ctx, "Store.RemoveRelationship")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.remote.DeleteEdge(ctx, edgeID, actorID); err != nil {
		span.RecordError(err)
		return &RemoteWriteError{Op: "delete relationship", Err: err}
	}

	return s.refetch(ctx)
}

// swapIdentifier replaces every occurrence of tempID in the cache with the
// confirmed person, rewriting adjacency references throughout.
func (s *Store) swapIdentifier(tempID kindred.PersonID, confirmed kindred.Person) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	next := make(kindred.People, len(s.people))
	for id, p := range s.people {
		if id == tempID {
			continue
		}
		p.ParentIDs = swapIDs(p.ParentIDs, tempID, confirmed.ID)
		p.SpouseIDs = swapIDs(p.SpouseIDs, tempID, confirmed.ID)
		p.ChildIDs = swapIDs(p.ChildIDs, tempID, confirmed.ID)
		p.SiblingIDs = swapIDs(p.SiblingIDs, tempID, confirmed.ID)
		next[id] = p
	}

	cached, ok := s.people[tempID]
	if ok {
		confirmed.ParentIDs = swapIDs(cached.ParentIDs, tempID, confirmed.ID)
		confirmed.SpouseIDs = swapIDs(cached.SpouseIDs, tempID, confirmed.ID)
		confirmed.ChildIDs = swapIDs(cached.ChildIDs, tempID, confirmed.ID)
		confirmed.SiblingIDs = swapIDs(cached.SiblingIDs, tempID, confirmed.ID)
	}
	next[confirmed.ID] = confirmed

	s.people = next
	for _, ch := range s.subs {
		select {
		case ch <- next:
		default:
		}
	}
}

func swapIDs(ids []kindred.PersonID, from, to kindred.PersonID) []kindred.PersonID {
	changed := false
	for _, id := range ids {
		if id == from {
			changed = true
			break
		}
	}
	if !changed {
		return ids
	}
	out := make([]kindred.PersonID, len(ids))
	for i, id := range ids {
		if id == from {
			out[i] = to
		} else {
			out[i] = id
		}
	}
	return out
}
