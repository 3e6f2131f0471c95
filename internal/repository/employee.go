package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/Houeta/sheetmate-bot/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrEmployeeNotFound is returned when no employee record exists for the given telegram ID.
	ErrEmployeeNotFound = errors.New("employee with this telegram ID not found")
	// ErrEmailExists is returned when the email is already registered by a different employee.
	ErrEmailExists = errors.New("email already registered by another employee")
	// ErrInvalidEmail is returned when the email fails format validation.
	ErrInvalidEmail = errors.New("invalid email format")
)

// uniqueViolationCode is the PostgreSQL error code for unique constraint violations.
const uniqueViolationCode = "23505"

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// GetEmployeeByTelegramID retrieves an employee record by the Telegram account ID.
// It returns ErrEmployeeNotFound if no record exists.
func (r *Repository) GetEmployeeByTelegramID(ctx context.Context, telegramID int64) (models.Employee, error) {
	employee, err := scanEmployee(r.db.QueryRow(ctx, selectEmployeeSQL, telegramID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Employee{}, ErrEmployeeNotFound
		}
		return models.Employee{}, fmt.Errorf("failed to get employee data: %w", err)
	}

	return employee, nil
}

// GetOrCreateEmployee returns the employee linked to the Telegram account,
// inserting a fresh record on first contact. The boolean result reports
// whether a new record was created. A concurrent caller may win the insert;
// the unique constraint on telegram_id rejects the loser, which is resolved
// with a single re-read of the existing record.
func (r *Repository) GetOrCreateEmployee(
	ctx context.Context,
	telegramID int64,
	name string,
) (models.Employee, bool, error) {
	employee, err := r.GetEmployeeByTelegramID(ctx, telegramID)
	if err == nil {
		return employee, false, nil
	}
	if !errors.Is(err, ErrEmployeeNotFound) {
		return models.Employee{}, false, err
	}

	employee, err = scanEmployee(r.db.QueryRow(ctx, insertEmployeeSQL, name, telegramID, time.Now()))
	if err != nil {
		if isUniqueViolation(err) {
			existing, rerr := r.GetEmployeeByTelegramID(ctx, telegramID)
			if rerr != nil {
				return models.Employee{}, false, fmt.Errorf("failed to re-read employee after insert conflict: %w", rerr)
			}
			return existing, false, nil
		}
		return models.Employee{}, false, fmt.Errorf("failed to insert employee: %w", err)
	}

	return employee, true, nil
}

// UpdateEmployeeEmail sets the email address for the employee linked to the
// Telegram account and returns the updated record. The email is validated
// before any store access; ErrEmployeeNotFound is returned before mutation if
// no record exists, and ErrEmailExists when the address is already claimed by
// a different record.
func (r *Repository) UpdateEmployeeEmail(
	ctx context.Context,
	telegramID int64,
	email string,
) (models.Employee, error) {
	if !emailPattern.MatchString(email) {
		return models.Employee{}, ErrInvalidEmail
	}

	if _, err := r.GetEmployeeByTelegramID(ctx, telegramID); err != nil {
		return models.Employee{}, err
	}

	employee, err := scanEmployee(r.db.QueryRow(ctx, updateEmployeeEmailSQL, telegramID, email))
	if err != nil {
		if isUniqueViolation(err) {
			return models.Employee{}, ErrEmailExists
		}
		return models.Employee{}, fmt.Errorf("failed to update employee email: %w", err)
	}

	return employee, nil
}

// scanEmployee reads one employee row in the fixed column order used by all queries.
func scanEmployee(row pgx.Row) (models.Employee, error) {
	var employee models.Employee

	err := row.Scan(
		&employee.ID,
		&employee.Name,
		&employee.Email,
		&employee.TelegramID,
		&employee.IsActive,
		&employee.CreatedAt,
	)
	if err != nil {
		return models.Employee{}, err
	}

	return employee, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
