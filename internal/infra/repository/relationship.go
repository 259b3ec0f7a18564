package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kindredapp/kindred-go/internal/domain"
	"github.com/kindredapp/kindred-go/internal/infra/database/models"
)

type RelationshipRepository struct {
	db *gorm.DB
}

func NewRelationshipRepository(db *gorm.DB) *RelationshipRepository {
	return &RelationshipRepository{db: db}
}

// canonicalize rewrites an edge into its stored form: child rows become
// parent rows with the same endpoint order (person one is already the
// parent for both tags), and symmetric rows order their endpoints
// lexicographically so the unique index is direction-blind.
func canonicalize(edge domain.Edge) domain.Edge {
	if edge.Type == "child" {
		edge.Type = "parent"
	}
	if edge.Type == "spouse" || edge.Type == "sibling" {
		if edge.PersonTwoID < edge.PersonOneID {
			edge.PersonOneID, edge.PersonTwoID = edge.PersonTwoID, edge.PersonOneID
		}
	}
	return edge
}

// Create inserts the edge idempotently: if an identical edge exists, the
// existing row is returned rather than an error, since concurrent client
// retries are expected.
func (r *RelationshipRepository) Create(ctx context.Context, edge domain.Edge) (domain.Edge, error) {
	edge = canonicalize(edge)

	model := models.Relationship{
		ID:          uuid.NewString(),
		Type:        edge.Type,
		PersonOneID: edge.PersonOneID,
		PersonTwoID: edge.PersonTwoID,
		CreatedBy:   edge.CreatedBy,
	}

	var out models.Relationship
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "type"}, {Name: "person_one_id"}, {Name: "person_two_id"}},
			DoNothing: true,
		}).Create(&model).Error; err != nil {
			return err
		}

		return tx.Where("type = ? AND person_one_id = ? AND person_two_id = ?",
			edge.Type, edge.PersonOneID, edge.PersonTwoID).
			Take(&out).Error
	})
	if err != nil {
		return domain.Edge{}, err
	}

	return domain.Edge{
		ID:          out.ID,
		Type:        out.Type,
		PersonOneID: out.PersonOneID,
		PersonTwoID: out.PersonTwoID,
		CreatedBy:   out.CreatedBy,
		CreatedAt:   out.CDate,
	}, nil
}

func (r *RelationshipRepository) List(ctx context.Context) ([]domain.Edge, error) {
	var rows []models.Relationship
	if err := r.db.WithContext(ctx).Order("c_date asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	edges := make([]domain.Edge, len(rows))
	for i, row := range rows {
		edges[i] = domain.Edge{
			ID:          row.ID,
			Type:        row.Type,
			PersonOneID: row.PersonOneID,
			PersonTwoID: row.PersonTwoID,
			CreatedBy:   row.CreatedBy,
			CreatedAt:   row.CDate,
		}
	}
	return edges, nil
}

func (r *RelationshipRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Relationship{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFoundError{Resource: "relationship"}
	}
	return nil
}
