package cache_test

import (
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/Houeta/sheetmate-bot/internal/cache"
	"github.com/Houeta/sheetmate-bot/internal/metrics"
	"github.com/Houeta/sheetmate-bot/internal/timesheet"
	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// countingRenderer delegates to a real generator while counting how many
// full-grid renders actually happen.
type countingRenderer struct {
	gen          *timesheet.Generator
	renders      int
	blankRenders int
	failAll      bool
}

func (r *countingRenderer) Render(employeeName string) (string, error) {
	r.renders++
	if employeeName == "" {
		r.blankRenders++
	}
	if r.failAll {
		return "", assert.AnError
	}
	return r.gen.Render(employeeName)
}

func (r *countingRenderer) Period() (time.Month, int) {
	return r.gen.Period()
}

func newTimesheetCache(t *testing.T) (*cache.TimesheetCache, *countingRenderer, *cache.Service, *miniredis.Miniredis) {
	t.Helper()

	svc, mr := newTestService(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	appMetrics := metrics.NewMetrics(prometheus.NewRegistry())
	renderer := &countingRenderer{
		gen: timesheet.NewGenerator(time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)),
	}

	return cache.NewTimesheetCache(log, svc, renderer, appMetrics, 24*time.Hour), renderer, svc, mr
}

const marchTemplateKey = "timesheet:template:03:2025"

func titleOf(t *testing.T, path string) string {
	t.Helper()

	file, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer file.Close()

	title, err := file.GetCellValue(timesheet.SheetName, timesheet.TitleCell)
	require.NoError(t, err)

	return title
}

func TestTimesheetCache_TemplateReuse(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	tsCache, renderer, _, _ := newTimesheetCache(t)

	alicePath, err := tsCache.Generate(ctx, "Alice Smith")
	require.NoError(t, err)
	defer os.Remove(alicePath)

	bobPath, err := tsCache.Generate(ctx, "Bob Jones")
	require.NoError(t, err)
	defer os.Remove(bobPath)

	assert.Equal(t, 1, renderer.renders, "one full-grid render must serve every employee in the period")
	assert.Equal(t, 1, renderer.blankRenders)
	assert.NotEqual(t, alicePath, bobPath)

	assert.Equal(t, "Timesheet - Alice Smith", titleOf(t, alicePath))
	assert.Equal(t, "Timesheet - Bob Jones", titleOf(t, bobPath))
}

func TestTimesheetCache_DanglingTemplateIsForcedMiss(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	tsCache, renderer, svc, _ := newTimesheetCache(t)

	first, err := tsCache.Generate(ctx, "Alice Smith")
	require.NoError(t, err)
	defer os.Remove(first)

	var templatePath string
	require.True(t, svc.Get(ctx, marchTemplateKey, &templatePath))
	require.NoError(t, os.Remove(templatePath))

	second, err := tsCache.Generate(ctx, "Alice Smith")
	require.NoError(t, err)
	defer os.Remove(second)

	assert.Equal(t, 2, renderer.blankRenders, "a dangling cached path must force a fresh render")
	assert.Equal(t, "Timesheet - Alice Smith", titleOf(t, second))
}

func TestTimesheetCache_CorruptTemplateFallsBackToFullRender(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	tsCache, renderer, svc, _ := newTimesheetCache(t)

	garbage, err := os.CreateTemp(t.TempDir(), "garbage_*.xlsx")
	require.NoError(t, err)
	_, err = garbage.WriteString("this is not a spreadsheet")
	require.NoError(t, err)
	require.NoError(t, garbage.Close())

	require.True(t, svc.Set(ctx, marchTemplateKey, garbage.Name(), time.Hour))

	path, err := tsCache.Generate(ctx, "Alice Smith")
	require.NoError(t, err)
	defer os.Remove(path)

	assert.Equal(t, 1, renderer.renders)
	assert.Equal(t, 0, renderer.blankRenders, "fallback renders directly for the employee, not a blank")
	assert.Equal(t, "Timesheet - Alice Smith", titleOf(t, path))
}

func TestTimesheetCache_InvalidateAll(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	tsCache, renderer, svc, _ := newTimesheetCache(t)

	first, err := tsCache.Generate(ctx, "Alice Smith")
	require.NoError(t, err)
	defer os.Remove(first)
	require.Equal(t, 1, renderer.blankRenders)

	assert.True(t, tsCache.InvalidateAll(ctx))

	var templatePath string
	assert.False(t, svc.Get(ctx, marchTemplateKey, &templatePath), "invalidation must drop the template key")

	second, err := tsCache.Generate(ctx, "Alice Smith")
	require.NoError(t, err)
	defer os.Remove(second)

	assert.Equal(t, 2, renderer.blankRenders, "the next call after invalidation must render fresh")
}

func TestTimesheetCache_DeadCacheStillGenerates(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	tsCache, renderer, _, mr := newTimesheetCache(t)

	mr.Close()

	path, err := tsCache.Generate(ctx, "Alice Smith")
	require.NoError(t, err)
	defer os.Remove(path)

	assert.Equal(t, "Timesheet - Alice Smith", titleOf(t, path))
	assert.Equal(t, 1, renderer.blankRenders)
}

func TestTimesheetCache_GeneratorFailure(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	tsCache, renderer, _, _ := newTimesheetCache(t)

	renderer.failAll = true

	_, err := tsCache.Generate(ctx, "Alice Smith")
	require.Error(t, err)
	require.ErrorContains(t, err, "failed to render period template")
}
