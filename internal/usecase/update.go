package usecase

import (
	"context"

	"github.com/kindredapp/kindred-go/internal/domain"
)

type UpdateUsecase struct {
	updates UpdateRepository
	people  PersonRepository
}

func NewUpdateUsecase(updates UpdateRepository, people PersonRepository) *UpdateUsecase {
	return &UpdateUsecase{updates: updates, people: people}
}

func (uc *UpdateUsecase) Create(ctx context.Context, update domain.Update) (domain.Update, error) {
	if update.PhotoURL == "" {
		return domain.Update{}, domain.ValidationError{Reason: "photo is required"}
	}
	if _, err := uc.people.Get(ctx, update.WallID); err != nil {
		return domain.Update{}, err
	}
	return uc.updates.Create(ctx, update)
}

func (uc *UpdateUsecase) ListByWall(ctx context.Context, wallID string) ([]domain.Update, error) {
	return uc.updates.ListByWall(ctx, wallID)
}
