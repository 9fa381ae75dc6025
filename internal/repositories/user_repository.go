package repositories

import (
	"errors"
	"fmt"

	"github.com/feedline/backend/internal/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	CreateUser(user *models.User) error
	GetUserByID(id uint) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	UpdateUser(user *models.User) error
	DeleteUser(id uint) error

	// GetUserIDsPage returns up to limit user IDs greater than afterID in
	// ascending order, so batch jobs can walk the whole account table in
	// bounded pages.
	GetUserIDsPage(afterID uint, limit int) ([]uint, error)

	// UpdateCounter overwrites one denormalized counter column with the
	// given value. Idempotent; used by the reconciliation job.
	UpdateCounter(id uint, column string, value int64) error

	IncrementFollowersCount(id uint) error
	DecrementFollowersCount(id uint) error
	IncrementFollowingCount(id uint) error
	DecrementFollowingCount(id uint) error
	IncrementPostsCount(id uint) error
	DecrementPostsCount(id uint) error
}

// PostgresUserRepository implements UserRepository for PostgreSQL
type PostgresUserRepository struct {
	db *gorm.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// CreateUser creates a new user in PostgreSQL
func (r *PostgresUserRepository) CreateUser(user *models.User) error {
	return r.db.Create(user).Error
}

// GetUserByID retrieves a user by ID from PostgreSQL
func (r *PostgresUserRepository) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email from PostgreSQL
func (r *PostgresUserRepository) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
		}
		return nil, err
	}
	return &user, nil
}

// UpdateUser updates an existing user in PostgreSQL
func (r *PostgresUserRepository) UpdateUser(user *models.User) error {
	return r.db.Save(user).Error
}

// DeleteUser deletes a user by ID from PostgreSQL
func (r *PostgresUserRepository) DeleteUser(id uint) error {
	return r.db.Delete(&models.User{}, id).Error
}

// GetUserIDsPage returns a bounded, ordered page of user IDs for batch jobs
func (r *PostgresUserRepository) GetUserIDsPage(afterID uint, limit int) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.User{}).
		Where("id > ?", afterID).
		Order("id").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

// UpdateCounter sets a counter column to an absolute value
func (r *PostgresUserRepository) UpdateCounter(id uint, column string, value int64) error {
	switch column {
	case models.ColumnFollowersCount, models.ColumnFollowingCount, models.ColumnPostsCount:
	default:
		return fmt.Errorf("unknown counter column %q", column)
	}
	return r.db.Model(&models.User{}).Where("id = ?", id).Update(column, value).Error
}

func (r *PostgresUserRepository) IncrementFollowersCount(id uint) error {
	return r.addToCounter(id, models.ColumnFollowersCount, 1)
}

func (r *PostgresUserRepository) DecrementFollowersCount(id uint) error {
	return r.addToCounter(id, models.ColumnFollowersCount, -1)
}

func (r *PostgresUserRepository) IncrementFollowingCount(id uint) error {
	return r.addToCounter(id, models.ColumnFollowingCount, 1)
}

func (r *PostgresUserRepository) DecrementFollowingCount(id uint) error {
	return r.addToCounter(id, models.ColumnFollowingCount, -1)
}

func (r *PostgresUserRepository) IncrementPostsCount(id uint) error {
	return r.addToCounter(id, models.ColumnPostsCount, 1)
}

func (r *PostgresUserRepository) DecrementPostsCount(id uint) error {
	return r.addToCounter(id, models.ColumnPostsCount, -1)
}

// addToCounter applies a relative delta, clamped at zero so a decrement
// racing the reconciliation job can never drive a counter negative.
func (r *PostgresUserRepository) addToCounter(id uint, column string, delta int64) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).
		Update(column, gorm.Expr("GREATEST("+column+" + ?, 0)", delta)).Error
}
