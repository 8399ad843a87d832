package verification

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a verification record does not exist
var ErrNotFound = errors.New("verification record not found")

// Repository defines verification record persistence
type Repository interface {
	Create(ctx context.Context, record *Record) error
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	Update(ctx context.Context, record *Record) error
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*Record, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a postgres-backed verification repository
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, record *Record) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *gormRepository) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	var record Record
	err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *gormRepository) Update(ctx context.Context, record *Record) error {
	return r.db.WithContext(ctx).Save(record).Error
}

func (r *gormRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*Record, error) {
	var records []*Record
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
