package repository

import (
	"context"

	"github.com/Houeta/sheetmate-bot/internal/models"
)

type Repository struct {
	db Database
}

// EmployeeManager defines the repository operations consumed by the caching
// layer and the bot: looking up an employee by Telegram ID, creating one on
// first contact, and registering an email address.
type EmployeeManager interface {
	GetEmployeeByTelegramID(ctx context.Context, telegramID int64) (models.Employee, error)
	GetOrCreateEmployee(ctx context.Context, telegramID int64, name string) (models.Employee, bool, error)
	UpdateEmployeeEmail(ctx context.Context, telegramID int64, email string) (models.Employee, error)
}

// NewRepository creates a new instance of Repository with the provided Database.
// It returns a pointer to the newly created Repository.
func NewRepository(db Database) *Repository {
	return &Repository{db: db}
}
