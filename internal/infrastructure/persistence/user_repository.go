package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/identity"
	"github.com/shopfront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// emailIs matches email without regard to case
func emailIs(email string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email)))
	}
}

func (r *GormUserRepository) first(q *gorm.DB) (*identity.User, error) {
	var row models.UserModel
	switch err := q.First(&row).Error; {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, identity.ErrUserNotFound
	case err != nil:
		return nil, fmt.Errorf("load user: %w", err)
	}
	return row.ToDomain(), nil
}

func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, identity.ErrUserNotFound
	}
	return r.first(r.db.WithContext(ctx).Scopes(emailIs(email)))
}

// FindByIDs loads buyers in one query for the vendor order views
func (r *GormUserRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]identity.User, error) {
	users := []identity.User{}
	if len(ids) == 0 {
		return users, nil
	}
	var rows []models.UserModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	for i := range rows {
		users = append(users, *rows[i].ToDomain())
	}
	return users, nil
}

func (r *GormUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.UserModel{}).Scopes(emailIs(email)).Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return n > 0, nil
}

// Save upserts the user. The unique email index turns a race between two
// registrations into ErrEmailTaken for the loser.
func (r *GormUserRepository) Save(ctx context.Context, user *identity.User) error {
	err := r.db.WithContext(ctx).Save(models.UserModelFromDomain(user)).Error
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return identity.ErrEmailTaken
	case err != nil:
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

var _ identity.UserRepository = (*GormUserRepository)(nil)
