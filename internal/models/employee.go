package models

import "time"

// Employee represents a chat user mapped to a payroll identity.
// A record is created on first contact from a Telegram account and is
// completed once the user registers an email address.
type Employee struct {
	ID         int64     // Unique identifier assigned by the database
	Name       string    // Display name taken from the Telegram profile
	Email      *string   // Email address, nil until the user registers one
	TelegramID int64     // Telegram account identifier, immutable once set
	IsActive   bool      // Reserved flag, true for every new record
	CreatedAt  time.Time // Timestamp of when the record was created
}

// HasEmail reports whether the employee finished registration.
func (e Employee) HasEmail() bool {
	return e.Email != nil && *e.Email != ""
}
