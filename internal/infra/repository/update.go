package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kindredapp/kindred-go/internal/domain"
	"github.com/kindredapp/kindred-go/internal/infra/database/models"
)

type UpdateRepository struct {
	db *gorm.DB
}

func NewUpdateRepository(db *gorm.DB) *UpdateRepository {
	return &UpdateRepository{db: db}
}

func (r *UpdateRepository) Create(ctx context.Context, update domain.Update) (domain.Update, error) {
	model := models.Update{
		ID:        uuid.NewString(),
		AuthorID:  update.AuthorID,
		WallID:    update.WallID,
		PhotoURL:  update.PhotoURL,
		Caption:   update.Caption,
		TaggedIDs: strings.Join(update.TaggedIDs, ","),
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return domain.Update{}, err
	}
	return updateFromModel(model), nil
}

func (r *UpdateRepository) ListByWall(ctx context.Context, wallID string) ([]domain.Update, error) {
	var rows []models.Update
	if err := r.db.WithContext(ctx).
		Where("wall_id = ?", wallID).
		Order("c_date desc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	updates := make([]domain.Update, len(rows))
	for i, row := range rows {
		updates[i] = updateFromModel(row)
	}
	return updates, nil
}

func updateFromModel(m models.Update) domain.Update {
	var tagged []string
	if m.TaggedIDs != "" {
		tagged = strings.Split(m.TaggedIDs, ",")
	}
	return domain.Update{
		ID:        m.ID,
		AuthorID:  m.AuthorID,
		WallID:    m.WallID,
		PhotoURL:  m.PhotoURL,
		Caption:   m.Caption,
		TaggedIDs: tagged,
		CreatedAt: m.CDate,
	}
}
