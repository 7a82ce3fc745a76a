package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"uniform-studio/internal/domain/school"
	"uniform-studio/internal/domain/system"
	studio_errors "uniform-studio/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresSchoolRepository struct {
	db *gorm.DB
}

func NewSchoolRepository(db *gorm.DB) SchoolRepository {
	return &PostgresSchoolRepository{db: db}
}

func (r *PostgresSchoolRepository) Create(ctx context.Context, s *school.School) error {
	s.Email = strings.ToLower(strings.TrimSpace(s.Email))
	res := r.db.WithContext(ctx).Create(s)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) || isUniqueViolation(res.Error) {
			return studio_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresSchoolRepository) GetByID(ctx context.Context, id uuid.UUID) (school.School, error) {
	var s school.School
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return school.School{}, studio_errors.ErrNotFound
		}
		return school.School{}, err
	}
	return s, nil
}

func (r *PostgresSchoolRepository) GetByEmail(ctx context.Context, email string) (school.School, error) {
	var s school.School
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return school.School{}, studio_errors.ErrNotFound
		}
		return school.School{}, err
	}
	return s, nil
}

type PostgresConfigRepository struct {
	db *gorm.DB
}

func NewConfigRepository(db *gorm.DB) ConfigRepository {
	return &PostgresConfigRepository{db: db}
}

func (r *PostgresConfigRepository) Get(ctx context.Context, key string) (system.BusinessConfig, error) {
	var c system.BusinessConfig
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return system.BusinessConfig{}, studio_errors.ErrNotFound
		}
		return system.BusinessConfig{}, err
	}
	return c, nil
}

func (r *PostgresConfigRepository) Set(ctx context.Context, key, value string) error {
	c := system.BusinessConfig{Key: key, Value: value, UpdatedAt: time.Now()}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&c).Error
}
