package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Houeta/sheetmate-bot/internal/metrics"
	"github.com/Houeta/sheetmate-bot/internal/models"
	"github.com/Houeta/sheetmate-bot/internal/repository"
)

// DefaultEmployeeTTL is the expiry window for cached employee records.
const DefaultEmployeeTTL = time.Hour

// EmployeeCache is a read-through/write-through cache in front of the
// employee repository, keyed by the Telegram account ID. Reads are served
// from the cache when possible and populate it after a successful
// authoritative read; email updates always go to the store first and then
// refresh the cache entry, so a reader never observes a value newer than the
// store.
type EmployeeCache struct {
	log     *slog.Logger
	cache   *Service
	source  repository.EmployeeManager
	metrics *metrics.Metrics
	ttl     time.Duration
}

// NewEmployeeCache creates an employee cache over the given repository.
// A non-positive ttl falls back to DefaultEmployeeTTL.
func NewEmployeeCache(
	log *slog.Logger,
	cache *Service,
	source repository.EmployeeManager,
	appMetrics *metrics.Metrics,
	ttl time.Duration,
) *EmployeeCache {
	if ttl <= 0 {
		ttl = DefaultEmployeeTTL
	}

	return &EmployeeCache{log: log, cache: cache, source: source, metrics: appMetrics, ttl: ttl}
}

// employeeKey builds the stable cache key for the given Telegram account.
// The format is part of the external interface and must not change.
func employeeKey(telegramID int64) string {
	return fmt.Sprintf("employee:telegram:%d", telegramID)
}

// GetOrCreateEmployee returns the cached record when present, skipping the
// store entirely. On a miss it delegates to the repository get-or-create and
// populates the cache with the result. A record served from cache was by
// definition not just created, so the created flag is false on a hit.
func (c *EmployeeCache) GetOrCreateEmployee(
	ctx context.Context,
	telegramID int64,
	name string,
) (models.Employee, bool, error) {
	if employee, ok := c.lookup(ctx, telegramID); ok {
		return employee, false, nil
	}

	employee, created, err := c.source.GetOrCreateEmployee(ctx, telegramID, name)
	if err != nil {
		return models.Employee{}, false, err
	}

	c.store(ctx, employee)

	return employee, created, nil
}

// GetEmployeeByTelegramID is the read-through lookup without creation on
// miss. An absent record is never cached; the not-found error passes through
// unchanged.
func (c *EmployeeCache) GetEmployeeByTelegramID(
	ctx context.Context,
	telegramID int64,
) (models.Employee, error) {
	if employee, ok := c.lookup(ctx, telegramID); ok {
		return employee, nil
	}

	employee, err := c.source.GetEmployeeByTelegramID(ctx, telegramID)
	if err != nil {
		return models.Employee{}, err
	}

	c.store(ctx, employee)

	return employee, nil
}

// UpdateEmployeeEmail writes through to the authoritative store first. On
// success the cache entry is overwritten with the fresh snapshot rather than
// invalidated, so a concurrent reader cannot race a miss between deletion and
// repopulation. On failure the entry is deleted, since the store state may
// have changed in a way the cached snapshot does not reflect.
func (c *EmployeeCache) UpdateEmployeeEmail(
	ctx context.Context,
	telegramID int64,
	email string,
) (models.Employee, error) {
	employee, err := c.source.UpdateEmployeeEmail(ctx, telegramID, email)
	if err != nil {
		c.Invalidate(ctx, telegramID)
		return models.Employee{}, err
	}

	c.store(ctx, employee)

	return employee, nil
}

// Invalidate drops the cached record for the given Telegram account.
func (c *EmployeeCache) Invalidate(ctx context.Context, telegramID int64) bool {
	return c.cache.Delete(ctx, employeeKey(telegramID))
}

func (c *EmployeeCache) lookup(ctx context.Context, telegramID int64) (models.Employee, bool) {
	var entry EmployeeEntry
	if !c.cache.Get(ctx, employeeKey(telegramID), &entry) {
		c.metrics.CacheOps.WithLabelValues("employee", "miss").Inc()
		c.log.DebugContext(ctx, "Employee cache miss", "telegramID", telegramID)
		return models.Employee{}, false
	}

	c.metrics.CacheOps.WithLabelValues("employee", "hit").Inc()
	c.log.DebugContext(ctx, "Employee cache hit", "telegramID", telegramID)

	return entry.Employee(), true
}

func (c *EmployeeCache) store(ctx context.Context, employee models.Employee) {
	if c.cache.Set(ctx, employeeKey(employee.TelegramID), NewEmployeeEntry(employee), c.ttl) {
		c.log.DebugContext(ctx, "Cached employee", "telegramID", employee.TelegramID)
	}
}
