package cache_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Houeta/sheetmate-bot/internal/cache"
	"github.com/Houeta/sheetmate-bot/internal/metrics"
	"github.com/Houeta/sheetmate-bot/internal/models"
	"github.com/Houeta/sheetmate-bot/internal/repository"
	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmployeeSource is an in-memory stand-in for the authoritative store
// that counts how often each operation reaches it.
type fakeEmployeeSource struct {
	employees   map[int64]models.Employee
	nextID      int64
	getCalls    int
	createCalls int
	updateCalls int
	updateErr   error
}

func newFakeEmployeeSource() *fakeEmployeeSource {
	return &fakeEmployeeSource{employees: make(map[int64]models.Employee), nextID: 1}
}

func (f *fakeEmployeeSource) GetEmployeeByTelegramID(_ context.Context, telegramID int64) (models.Employee, error) {
	f.getCalls++
	employee, ok := f.employees[telegramID]
	if !ok {
		return models.Employee{}, repository.ErrEmployeeNotFound
	}
	return employee, nil
}

func (f *fakeEmployeeSource) GetOrCreateEmployee(
	_ context.Context,
	telegramID int64,
	name string,
) (models.Employee, bool, error) {
	f.createCalls++
	if employee, ok := f.employees[telegramID]; ok {
		return employee, false, nil
	}

	employee := models.Employee{
		ID:         f.nextID,
		Name:       name,
		TelegramID: telegramID,
		IsActive:   true,
		CreatedAt:  time.Now().UTC(),
	}
	f.nextID++
	f.employees[telegramID] = employee

	return employee, true, nil
}

func (f *fakeEmployeeSource) UpdateEmployeeEmail(
	_ context.Context,
	telegramID int64,
	email string,
) (models.Employee, error) {
	f.updateCalls++
	if f.updateErr != nil {
		return models.Employee{}, f.updateErr
	}

	employee, ok := f.employees[telegramID]
	if !ok {
		return models.Employee{}, repository.ErrEmployeeNotFound
	}
	employee.Email = &email
	f.employees[telegramID] = employee

	return employee, nil
}

func newEmployeeCache(
	t *testing.T,
	source *fakeEmployeeSource,
) (*cache.EmployeeCache, *miniredis.Miniredis) {
	t.Helper()

	svc, mr := newTestService(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	appMetrics := metrics.NewMetrics(prometheus.NewRegistry())

	return cache.NewEmployeeCache(log, svc, source, appMetrics, time.Hour), mr
}

func TestEmployeeCache_GetOrCreate(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	telegramID := int64(12345)

	t.Run("miss populates cache, second call is a hit", func(t *testing.T) {
		t.Parallel()
		source := newFakeEmployeeSource()
		empCache, _ := newEmployeeCache(t, source)

		first, created, err := empCache.GetOrCreateEmployee(ctx, telegramID, "Alice Smith")
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, 1, source.createCalls)

		second, created, err := empCache.GetOrCreateEmployee(ctx, telegramID, "Alice Smith")
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, second.ID, "both calls must return the same record identity")
		assert.Equal(t, 1, source.createCalls, "the second call must not reach the store")
	})

	t.Run("dead cache backend degrades to store", func(t *testing.T) {
		t.Parallel()
		source := newFakeEmployeeSource()
		empCache, mr := newEmployeeCache(t, source)

		mr.Close()

		// a dead cache backend degrades every call to a direct store access
		employee, created, err := empCache.GetOrCreateEmployee(ctx, telegramID, "Alice Smith")
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, "Alice Smith", employee.Name)

		_, created, err = empCache.GetOrCreateEmployee(ctx, telegramID, "Alice Smith")
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, 2, source.createCalls)
	})
}

func TestEmployeeCache_GetByTelegramID(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	telegramID := int64(12345)

	t.Run("read-through populates cache", func(t *testing.T) {
		t.Parallel()
		source := newFakeEmployeeSource()
		source.employees[telegramID] = models.Employee{ID: 1, Name: "Alice Smith", TelegramID: telegramID, IsActive: true}
		empCache, _ := newEmployeeCache(t, source)

		_, err := empCache.GetEmployeeByTelegramID(ctx, telegramID)
		require.NoError(t, err)
		assert.Equal(t, 1, source.getCalls)

		_, err = empCache.GetEmployeeByTelegramID(ctx, telegramID)
		require.NoError(t, err)
		assert.Equal(t, 1, source.getCalls, "the hit must be served without touching the store")
	})

	t.Run("absent record is never cached", func(t *testing.T) {
		t.Parallel()
		source := newFakeEmployeeSource()
		empCache, _ := newEmployeeCache(t, source)

		_, err := empCache.GetEmployeeByTelegramID(ctx, telegramID)
		require.ErrorIs(t, err, repository.ErrEmployeeNotFound)

		_, err = empCache.GetEmployeeByTelegramID(ctx, telegramID)
		require.ErrorIs(t, err, repository.ErrEmployeeNotFound)
		assert.Equal(t, 2, source.getCalls, "an absent result must fall through to the store every time")
	})
}

func TestEmployeeCache_UpdateEmail(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	telegramID := int64(12345)

	t.Run("write-through refreshes the cached snapshot", func(t *testing.T) {
		t.Parallel()
		source := newFakeEmployeeSource()
		empCache, _ := newEmployeeCache(t, source)

		_, _, err := empCache.GetOrCreateEmployee(ctx, telegramID, "Alice Smith")
		require.NoError(t, err)

		updated, err := empCache.UpdateEmployeeEmail(ctx, telegramID, "alice@example.com")
		require.NoError(t, err)
		require.NotNil(t, updated.Email)

		// the very next read must observe the new email, served from cache
		cached, err := empCache.GetEmployeeByTelegramID(ctx, telegramID)
		require.NoError(t, err)
		require.NotNil(t, cached.Email)
		assert.Equal(t, "alice@example.com", *cached.Email)
		assert.Equal(t, 0, source.getCalls)
	})

	t.Run("failed update invalidates the cached snapshot", func(t *testing.T) {
		t.Parallel()
		source := newFakeEmployeeSource()
		empCache, _ := newEmployeeCache(t, source)

		_, _, err := empCache.GetOrCreateEmployee(ctx, telegramID, "Alice Smith")
		require.NoError(t, err)

		source.updateErr = repository.ErrEmailExists
		_, err = empCache.UpdateEmployeeEmail(ctx, telegramID, "taken@example.com")
		require.ErrorIs(t, err, repository.ErrEmailExists)

		// the stale entry must be gone: the next read reaches the store
		_, err = empCache.GetEmployeeByTelegramID(ctx, telegramID)
		require.NoError(t, err)
		assert.Equal(t, 1, source.getCalls)
	})
}
