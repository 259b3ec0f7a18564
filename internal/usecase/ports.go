package usecase

import (
	"context"

	kindred "github.com/kindredapp/kindred-go"
	"github.com/kindredapp/kindred-go/internal/domain"
)

// PersonRepository defines storage operations for people.
type PersonRepository interface {
	Create(ctx context.Context, person domain.Person) (domain.Person, error)
	Update(ctx context.Context, person domain.Person) (domain.Person, error)
	Get(ctx context.Context, id string) (domain.Person, error)
	List(ctx context.Context) ([]domain.Person, error)
	Hide(ctx context.Context, id string) error
}

// RelationshipRepository defines storage operations for edges. Create must
// be idempotent: a duplicate edge yields the existing row.
type RelationshipRepository interface {
	Create(ctx context.Context, edge domain.Edge) (domain.Edge, error)
	List(ctx context.Context) ([]domain.Edge, error)
	Delete(ctx context.Context, id string) error
}

// UpdateRepository defines storage operations for wall posts.
type UpdateRepository interface {
	Create(ctx context.Context, update domain.Update) (domain.Update, error)
	ListByWall(ctx context.Context, wallID string) ([]domain.Update, error)
}

// ModerationRepository defines storage for blocks and invitations.
type ModerationRepository interface {
	CreateBlock(ctx context.Context, block domain.Block) (domain.Block, error)
	ListBlocks(ctx context.Context, blockerID string) ([]domain.Block, error)
	CreateInvitation(ctx context.Context, inv domain.Invitation) (domain.Invitation, error)
	GetInvitationByToken(ctx context.Context, token string) (domain.Invitation, error)
}

// Signal publishes graph-change events to the realtime feed.
type Signal interface {
	Publish(ctx context.Context, event kindred.Event) error
}
