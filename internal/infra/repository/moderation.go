package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kindredapp/kindred-go/internal/domain"
	"github.com/kindredapp/kindred-go/internal/infra/database/models"
)

type ModerationRepository struct {
	db *gorm.DB
}

func NewModerationRepository(db *gorm.DB) *ModerationRepository {
	return &ModerationRepository{db: db}
}

// CreateBlock is idempotent on (blocker, blocked).
func (r *ModerationRepository) CreateBlock(ctx context.Context, block domain.Block) (domain.Block, error) {
	model := models.Block{
		ID:        uuid.NewString(),
		BlockerID: block.BlockerID,
		BlockedID: block.BlockedID,
		Reason:    block.Reason,
	}

	var out models.Block
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "blocker_id"}, {Name: "blocked_id"}},
			DoNothing: true,
		}).Create(&model).Error; err != nil {
			return err
		}
		return tx.Where("blocker_id = ? AND blocked_id = ?", block.BlockerID, block.BlockedID).
			Take(&out).Error
	})
	if err != nil {
		return domain.Block{}, err
	}

	return domain.Block{
		ID:        out.ID,
		BlockerID: out.BlockerID,
		BlockedID: out.BlockedID,
		Reason:    out.Reason,
		CreatedAt: out.CDate,
	}, nil
}

func (r *ModerationRepository) ListBlocks(ctx context.Context, blockerID string) ([]domain.Block, error) {
	var rows []models.Block
	if err := r.db.WithContext(ctx).
		Where("blocker_id = ?", blockerID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	blocks := make([]domain.Block, len(rows))
	for i, row := range rows {
		blocks[i] = domain.Block{
			ID:        row.ID,
			BlockerID: row.BlockerID,
			BlockedID: row.BlockedID,
			Reason:    row.Reason,
			CreatedAt: row.CDate,
		}
	}
	return blocks, nil
}

func (r *ModerationRepository) CreateInvitation(ctx context.Context, inv domain.Invitation) (domain.Invitation, error) {
	model := models.Invitation{
		ID:        uuid.NewString(),
		PersonID:  inv.PersonID,
		Token:     uuid.NewString(),
		CreatedBy: inv.CreatedBy,
		ExpiresAt: inv.ExpiresAt,
	}
	if model.ExpiresAt.IsZero() {
		model.ExpiresAt = time.Now().UTC().Add(14 * 24 * time.Hour)
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return domain.Invitation{}, err
	}
	return domain.Invitation{
		ID:        model.ID,
		PersonID:  model.PersonID,
		Token:     model.Token,
		CreatedBy: model.CreatedBy,
		ExpiresAt: model.ExpiresAt,
		CreatedAt: model.CDate,
	}, nil
}

func (r *ModerationRepository) GetInvitationByToken(ctx context.Context, token string) (domain.Invitation, error) {
	var model models.Invitation
	err := r.db.WithContext(ctx).Take(&model, "token = ?", token).Error
	if err == gorm.ErrRecordNotFound {
		return domain.Invitation{}, domain.NotFoundError{Resource: "invitation"}
	}
	if err != nil {
		return domain.Invitation{}, err
	}
	return domain.Invitation{
		ID:        model.ID,
		PersonID:  model.PersonID,
		Token:     model.Token,
		CreatedBy: model.CreatedBy,
		ExpiresAt: model.ExpiresAt,
		CreatedAt: model.CDate,
	}, nil
}
