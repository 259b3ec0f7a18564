package usecase

import (
	"context"
	"log/slog"
	"time"

	kindred "github.com/kindredapp/kindred-go"
	"github.com/kindredapp/kindred-go/graph"
	"github.com/kindredapp/kindred-go/internal/domain"
)

type PeopleUsecase struct {
	people PersonRepository
	edges  RelationshipRepository
	signal Signal
}

func NewPeopleUsecase(people PersonRepository, edges RelationshipRepository, signal Signal) *PeopleUsecase {
	return &PeopleUsecase{people: people, edges: edges, signal: signal}
}

// List returns every person with adjacency arrays composed from the stored
// edges. The composition runs through the same mutator the clients use, so
// server and client agree on the denormalization.
func (uc *PeopleUsecase) List(ctx context.Context) ([]kindred.Person, error) {
	rows, err := uc.people.List(ctx)
	if err != nil {
		return nil, err
	}
	edges, err := uc.edges.List(ctx)
	if err != nil {
		return nil, err
	}

	collection := make(kindred.People, len(rows))
	order := make([]kindred.PersonID, len(rows))
	for i, row := range rows {
		p := personToShared(row)
		collection[p.ID] = p
		order[i] = p.ID
	}

	for _, edge := range edges {
		folded, err := graph.ApplyEdge(collection, edgeToShared(edge))
		if err != nil {
			slog.WarnContext(ctx, "stored edge is unappliable",
				slog.String("edge", edge.ID),
				slog.String("error", err.Error()),
				slog.String("module", "usecase"),
			)
			continue
		}
		collection = folded
	}

	out := make([]kindred.Person, len(order))
	for i, id := range order {
		p := collection[id]
		// folding bumps the in-memory version; the stored one is canonical
		if row, ok := findRow(rows, id.Value); ok {
			p.Version = row.Version
		}
		out[i] = p
	}
	return out, nil
}

func findRow(rows []domain.Person, id string) (domain.Person, bool) {
	for _, row := range rows {
		if row.ID == id {
			return row, true
		}
	}
	return domain.Person{}, false
}

type CreatePersonInput struct {
	Person    domain.Person
	CreatedBy string
}

func (uc *PeopleUsecase) Create(ctx context.Context, input CreatePersonInput) (kindred.Person, error) {
	if input.Person.Name == "" {
		return kindred.Person{}, domain.ValidationError{Reason: "name is required"}
	}

	created, err := uc.people.Create(ctx, input.Person)
	if err != nil {
		return kindred.Person{}, err
	}

	uc.publish(ctx, kindred.Event{Kind: "person.created", PersonID: created.ID})
	return personToShared(created), nil
}

func (uc *PeopleUsecase) Update(ctx context.Context, person domain.Person) (kindred.Person, error) {
	updated, err := uc.people.Update(ctx, person)
	if err != nil {
		return kindred.Person{}, err
	}
	uc.publish(ctx, kindred.Event{Kind: "person.updated", PersonID: updated.ID})
	return personToShared(updated), nil
}

func (uc *PeopleUsecase) Get(ctx context.Context, id string) (kindred.Person, error) {
	row, err := uc.people.Get(ctx, id)
	if err != nil {
		return kindred.Person{}, err
	}
	return personToShared(row), nil
}

func (uc *PeopleUsecase) Hide(ctx context.Context, id string) error {
	if err := uc.people.Hide(ctx, id); err != nil {
		return err
	}
	uc.publish(ctx, kindred.Event{Kind: "person.updated", PersonID: id})
	return nil
}

func (uc *PeopleUsecase) publish(ctx context.Context, event kindred.Event) {
	event.Timestamp = time.Now().UTC()
	if err := uc.signal.Publish(ctx, event); err != nil {
		slog.WarnContext(ctx, "failed to publish event",
			slog.String("kind", event.Kind),
			slog.String("error", err.Error()),
			slog.String("module", "usecase"),
		)
	}
}

func personToShared(p domain.Person) kindred.Person {
	var gender *kindred.Gender
	if p.Gender != nil {
		g := kindred.Gender(*p.Gender)
		gender = &g
	}
	return kindred.Person{
		ID:        kindred.ConfirmedID(p.ID),
		Name:      p.Name,
		BirthDate: p.BirthDate,
		DeathDate: p.DeathDate,
		Gender:    gender,
		PhotoURL:  p.PhotoURL,
		Biography: p.Biography,
		Phone:     p.Phone,
		AccountID: p.AccountID,
		Hidden:    p.Hidden,
		Version:   p.Version,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func edgeToShared(e domain.Edge) kindred.Edge {
	return kindred.Edge{
		ID:          e.ID,
		Type:        kindred.EdgeType(e.Type),
		PersonOneID: kindred.ConfirmedID(e.PersonOneID),
		PersonTwoID: kindred.ConfirmedID(e.PersonTwoID),
		CreatedBy:   e.CreatedBy,
	}
}
