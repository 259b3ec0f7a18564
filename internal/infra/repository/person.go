package repository

import (
	"context"
	"encoding/json"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kindredapp/kindred-go/internal/domain"
	"github.com/kindredapp/kindred-go/internal/infra/database/models"
)

type PersonRepository struct {
	db *gorm.DB
	mc *memcache.Client
}

func NewPersonRepository(db *gorm.DB, mc *memcache.Client) *PersonRepository {
	return &PersonRepository{db: db, mc: mc}
}

func personCacheKey(id string) string {
	return "kd:person:" + id
}

func toModel(p domain.Person) models.Person {
	return models.Person{
		ID:        p.ID,
		Name:      p.Name,
		BirthDate: p.BirthDate,
		DeathDate: p.DeathDate,
		Gender:    p.Gender,
		PhotoURL:  p.PhotoURL,
		Biography: p.Biography,
		Phone:     p.Phone,
		AccountID: p.AccountID,
		Hidden:    p.Hidden,
		Version:   p.Version,
	}
}

func fromModel(m models.Person) domain.Person {
	return domain.Person{
		ID:        m.ID,
		Name:      m.Name,
		BirthDate: m.BirthDate,
		DeathDate: m.DeathDate,
		Gender:    m.Gender,
		PhotoURL:  m.PhotoURL,
		Biography: m.Biography,
		Phone:     m.Phone,
		AccountID: m.AccountID,
		Hidden:    m.Hidden,
		Version:   m.Version,
		CreatedAt: m.CDate,
		UpdatedAt: m.MDate,
	}
}

func (r *PersonRepository) Create(ctx context.Context, person domain.Person) (domain.Person, error) {
	person.ID = uuid.NewString()
	person.Version = 1

	model := toModel(person)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return domain.Person{}, err
	}
	return fromModel(model), nil
}

func (r *PersonRepository) Update(ctx context.Context, person domain.Person) (domain.Person, error) {
	var current models.Person
	err := r.db.WithContext(ctx).Take(&current, "id = ?", person.ID).Error
	if err == gorm.ErrRecordNotFound {
		return domain.Person{}, domain.NotFoundError{Resource: "person"}
	}
	if err != nil {
		return domain.Person{}, err
	}

	model := toModel(person)
	model.Version = current.Version + 1
	if err := r.db.WithContext(ctx).Model(&models.Person{}).
		Where("id = ?", person.ID).
		Updates(map[string]any{
			"name":       model.Name,
			"birth_date": model.BirthDate,
			"death_date": model.DeathDate,
			"gender":     model.Gender,
			"photo_url":  model.PhotoURL,
			"biography":  model.Biography,
			"phone":      model.Phone,
			"version":    model.Version,
		}).Error; err != nil {
		return domain.Person{}, err
	}

	r.mc.Delete(personCacheKey(person.ID))

	var updated models.Person
	if err := r.db.WithContext(ctx).Take(&updated, "id = ?", person.ID).Error; err != nil {
		return domain.Person{}, err
	}
	return fromModel(updated), nil
}

// Get serves a single person through the memcached read-through cache.
func (r *PersonRepository) Get(ctx context.Context, id string) (domain.Person, error) {
	if item, err := r.mc.Get(personCacheKey(id)); err == nil {
		var cached domain.Person
		if err := json.Unmarshal(item.Value, &cached); err == nil {
			return cached, nil
		}
	}

	var model models.Person
	err := r.db.WithContext(ctx).Take(&model, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return domain.Person{}, domain.NotFoundError{Resource: "person"}
	}
	if err != nil {
		return domain.Person{}, err
	}

	person := fromModel(model)
	if buf, err := json.Marshal(person); err == nil {
		r.mc.Set(&memcache.Item{Key: personCacheKey(id), Value: buf, Expiration: 300})
	}
	return person, nil
}

func (r *PersonRepository) List(ctx context.Context) ([]domain.Person, error) {
	var rows []models.Person
	if err := r.db.WithContext(ctx).Order("c_date asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	people := make([]domain.Person, len(rows))
	for i, row := range rows {
		people[i] = fromModel(row)
	}
	return people, nil
}

// Hide soft-hides a person instead of deleting the row, preserving tree
// connectivity for other members.
func (r *PersonRepository) Hide(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&models.Person{}).
		Where("id = ?", id).
		Update("hidden", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFoundError{Resource: "person"}
	}
	r.mc.Delete(personCacheKey(id))
	return nil
}
