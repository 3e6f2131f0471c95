package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/Houeta/sheetmate-bot/internal/cache"
	"github.com/Houeta/sheetmate-bot/internal/metrics"
	"github.com/Houeta/sheetmate-bot/internal/models"
	"github.com/Houeta/sheetmate-bot/internal/repository"
)

// TimesheetGenerator produces employee timesheets and supports dropping any
// cached period templates.
type TimesheetGenerator interface {
	Generate(ctx context.Context, employeeName string) (string, error)
	InvalidateAll(ctx context.Context) bool
}

// Service is the facade the bot talks to. It exposes the same operations
// whether or not a cache backend was configured: with one, reads and writes
// go through the caching layer; without one, every call is forwarded
// straight to the repository and generator. The cache wrappers are built
// once at construction and owned by the facade.
type Service struct {
	log        *slog.Logger
	employees  repository.EmployeeManager
	timesheets TimesheetGenerator
}

// New creates the facade. A nil cacheSvc disables caching entirely without
// changing call semantics.
func New(
	log *slog.Logger,
	repo repository.EmployeeManager,
	generator cache.TemplateRenderer,
	cacheSvc *cache.Service,
	appMetrics *metrics.Metrics,
	employeeTTL, templateTTL time.Duration,
) *Service {
	svc := &Service{log: log}

	if cacheSvc != nil {
		svc.employees = cache.NewEmployeeCache(log, cacheSvc, repo, appMetrics, employeeTTL)
		svc.timesheets = cache.NewTimesheetCache(log, cacheSvc, generator, appMetrics, templateTTL)
	} else {
		svc.employees = repo
		svc.timesheets = &directGenerator{generator: generator}
	}

	return svc
}

// GetOrCreateEmployee returns the employee for the Telegram account,
// creating a record on first contact. The boolean reports whether a new
// record was created.
func (s *Service) GetOrCreateEmployee(
	ctx context.Context,
	telegramID int64,
	name string,
) (models.Employee, bool, error) {
	return s.employees.GetOrCreateEmployee(ctx, telegramID, name)
}

// GetEmployeeByTelegramID returns the employee for the Telegram account, or
// repository.ErrEmployeeNotFound when no record exists.
func (s *Service) GetEmployeeByTelegramID(ctx context.Context, telegramID int64) (models.Employee, error) {
	return s.employees.GetEmployeeByTelegramID(ctx, telegramID)
}

// UpdateEmployeeEmail registers the email address for the Telegram account
// and returns the updated record.
func (s *Service) UpdateEmployeeEmail(ctx context.Context, telegramID int64, email string) (models.Employee, error) {
	return s.employees.UpdateEmployeeEmail(ctx, telegramID, email)
}

// GenerateTimesheet renders a timesheet for the current reporting period
// stamped with the employee name, and returns the file path.
func (s *Service) GenerateTimesheet(ctx context.Context, employeeName string) (string, error) {
	return s.timesheets.Generate(ctx, employeeName)
}

// InvalidateTimesheets drops every cached period template so the next
// request renders a fresh one.
func (s *Service) InvalidateTimesheets(ctx context.Context) bool {
	return s.timesheets.InvalidateAll(ctx)
}

// directGenerator adapts the raw renderer to the TimesheetGenerator
// interface for the cache-disabled configuration.
type directGenerator struct {
	generator cache.TemplateRenderer
}

func (d *directGenerator) Generate(_ context.Context, employeeName string) (string, error) {
	return d.generator.Render(employeeName)
}

func (d *directGenerator) InvalidateAll(_ context.Context) bool {
	// nothing is cached, so there is nothing to drop
	return true
}
