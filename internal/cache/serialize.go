package cache

import (
	"time"

	"github.com/Houeta/sheetmate-bot/internal/models"
)

// EmployeeEntry is the transport-safe form of an employee record stored in
// the cache. It is a single explicit field-tagged type so that a value read
// from the cache is structurally indistinguishable from one read fresh from
// the store. Timestamps serialize as RFC 3339 strings; the nullable email
// survives the round trip as JSON null.
type EmployeeEntry struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Email      *string   `json:"email"`
	TelegramID int64     `json:"telegram_id"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewEmployeeEntry converts a repository row into its cacheable form.
func NewEmployeeEntry(employee models.Employee) EmployeeEntry {
	return EmployeeEntry{
		ID:         employee.ID,
		Name:       employee.Name,
		Email:      employee.Email,
		TelegramID: employee.TelegramID,
		IsActive:   employee.IsActive,
		CreatedAt:  employee.CreatedAt,
	}
}

// Employee converts the cached form back into the model used by callers.
func (e EmployeeEntry) Employee() models.Employee {
	return models.Employee{
		ID:         e.ID,
		Name:       e.Name,
		Email:      e.Email,
		TelegramID: e.TelegramID,
		IsActive:   e.IsActive,
		CreatedAt:  e.CreatedAt,
	}
}
