package usecase

import (
	"context"
	"time"

	"github.com/kindredapp/kindred-go/internal/domain"
)

type ModerationUsecase struct {
	moderation ModerationRepository
	people     PersonRepository
}

func NewModerationUsecase(moderation ModerationRepository, people PersonRepository) *ModerationUsecase {
	return &ModerationUsecase{moderation: moderation, people: people}
}

func (uc *ModerationUsecase) Block(ctx context.Context, block domain.Block) (domain.Block, error) {
	if block.BlockerID == block.BlockedID {
		return domain.Block{}, domain.ValidationError{Reason: "cannot block yourself"}
	}
	if _, err := uc.people.Get(ctx, block.BlockedID); err != nil {
		return domain.Block{}, err
	}
	return uc.moderation.CreateBlock(ctx, block)
}

func (uc *ModerationUsecase) ListBlocks(ctx context.Context, blockerID string) ([]domain.Block, error) {
	return uc.moderation.ListBlocks(ctx, blockerID)
}

// Invite issues a claim link for a placeholder profile. Profiles already
// linked to an account cannot be re-claimed.
func (uc *ModerationUsecase) Invite(ctx context.Context, personID, createdBy string) (domain.Invitation, error) {
	person, err := uc.people.Get(ctx, personID)
	if err != nil {
		return domain.Invitation{}, err
	}
	if person.AccountID != nil {
		return domain.Invitation{}, domain.ValidationError{Reason: "person is already linked to an account"}
	}
	return uc.moderation.CreateInvitation(ctx, domain.Invitation{
		PersonID:  personID,
		CreatedBy: createdBy,
	})
}

// ResolveInvitation looks up a claim link. An expired link reads the same as
// a missing one.
func (uc *ModerationUsecase) ResolveInvitation(ctx context.Context, token string) (domain.Invitation, error) {
	inv, err := uc.moderation.GetInvitationByToken(ctx, token)
	if err != nil {
		return domain.Invitation{}, err
	}
	if time.Now().After(inv.ExpiresAt) {
		return domain.Invitation{}, domain.NotFoundError{Resource: "invitation"}
	}
	return inv, nil
}
