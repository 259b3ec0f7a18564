package usecase

import (
	"context"
	"log/slog"
	"time"

	kindred "github.com/kindredapp/kindred-go"
	"github.com/kindredapp/kindred-go/internal/domain"
)

type RelationshipUsecase struct {
	edges  RelationshipRepository
	people PersonRepository
	signal Signal
}

func NewRelationshipUsecase(edges RelationshipRepository, people PersonRepository, signal Signal) *RelationshipUsecase {
	return &RelationshipUsecase{edges: edges, people: people, signal: signal}
}

// Create validates and stores one edge. Both endpoints must exist, a
// self-relationship is rejected, and duplicates resolve to the existing row.
func (uc *RelationshipUsecase) Create(ctx context.Context, edge domain.Edge) (domain.Edge, error) {
	if !kindred.EdgeType(edge.Type).Valid() {
		return domain.Edge{}, domain.ValidationError{Reason: "unknown relationship type"}
	}
	if edge.PersonOneID == edge.PersonTwoID {
		return domain.Edge{}, domain.ValidationError{Reason: "a person cannot be their own relative"}
	}

	for _, id := range []string{edge.PersonOneID, edge.PersonTwoID} {
		if _, err := uc.people.Get(ctx, id); err != nil {
			return domain.Edge{}, err
		}
	}

	created, err := uc.edges.Create(ctx, edge)
	if err != nil {
		return domain.Edge{}, err
	}

	uc.publish(ctx, kindred.Event{Kind: "edge.created", EdgeID: created.ID})
	return created, nil
}

func (uc *RelationshipUsecase) List(ctx context.Context) ([]domain.Edge, error) {
	return uc.edges.List(ctx)
}

func (uc *RelationshipUsecase) Delete(ctx context.Context, id string) error {
	if err := uc.edges.Delete(ctx, id); err != nil {
		return err
	}
	uc.publish(ctx, kindred.Event{Kind: "edge.deleted", EdgeID: id})
	return nil
}

func (uc *RelationshipUsecase) publish(ctx context.Context, event kindred.Event) {
	event.Timestamp = time.Now().UTC()
	if err := uc.signal.Publish(ctx, event); err != nil {
		slog.WarnContext(ctx, "failed to publish event",
			slog.String("kind", event.Kind),
			slog.String("error", err.Error()),
			slog.String("module", "usecase"),
		)
	}
}
