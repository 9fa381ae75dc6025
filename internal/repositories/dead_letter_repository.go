package repositories

import (
	"github.com/feedline/backend/internal/models"
	"gorm.io/gorm"
)

// DeadLetterRepository defines the interface for the operator failure queue
type DeadLetterRepository interface {
	CreateDeadLetter(letter *models.DeadLetter) error
	GetRecentDeadLetters(limit int) ([]models.DeadLetter, error)
}

// PostgresDeadLetterRepository implements DeadLetterRepository for PostgreSQL
type PostgresDeadLetterRepository struct {
	db *gorm.DB
}

// NewPostgresDeadLetterRepository creates a new PostgresDeadLetterRepository
func NewPostgresDeadLetterRepository(db *gorm.DB) *PostgresDeadLetterRepository {
	return &PostgresDeadLetterRepository{db: db}
}

func (r *PostgresDeadLetterRepository) CreateDeadLetter(letter *models.DeadLetter) error {
	return r.db.Create(letter).Error
}

func (r *PostgresDeadLetterRepository) GetRecentDeadLetters(limit int) ([]models.DeadLetter, error) {
	var letters []models.DeadLetter
	err := r.db.Order("created_at DESC").Limit(limit).Find(&letters).Error
	return letters, err
}
