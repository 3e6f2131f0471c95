package cache

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Houeta/sheetmate-bot/internal/metrics"
	"github.com/Houeta/sheetmate-bot/internal/timesheet"
	"github.com/xuri/excelize/v2"
)

// DefaultTemplateTTL is the expiry window for cached period templates. It is
// much longer than the employee TTL because a template is reusable across
// every employee requesting the same period.
const DefaultTemplateTTL = 24 * time.Hour

// templateKeyPattern matches every cached timesheet key for bulk invalidation.
const templateKeyPattern = "timesheet:*"

// TemplateRenderer produces timesheet spreadsheets for the reporting period
// it was configured with. An empty employee name renders a reusable blank
// period template.
type TemplateRenderer interface {
	Render(employeeName string) (string, error)
	Period() (time.Month, int)
}

// TimesheetCache is a read-through cache in front of the timesheet
// generator. Rendering the full month grid is the expensive step and is
// identical for every employee in a period, so only the blank template is
// cached; the per-employee copy is materialized from it on every request by
// stamping the employee name. Any materialization failure falls back to a
// full render, so the cache can never fail harder than its absence would.
type TimesheetCache struct {
	log       *slog.Logger
	cache     *Service
	generator TemplateRenderer
	metrics   *metrics.Metrics
	ttl       time.Duration
}

// NewTimesheetCache creates a timesheet cache over the given generator.
// A non-positive ttl falls back to DefaultTemplateTTL.
func NewTimesheetCache(
	log *slog.Logger,
	cache *Service,
	generator TemplateRenderer,
	appMetrics *metrics.Metrics,
	ttl time.Duration,
) *TimesheetCache {
	if ttl <= 0 {
		ttl = DefaultTemplateTTL
	}

	return &TimesheetCache{log: log, cache: cache, generator: generator, metrics: appMetrics, ttl: ttl}
}

// templateKey builds the stable cache key for a reporting period.
// The format is part of the external interface and must not change.
func templateKey(month time.Month, year int) string {
	return fmt.Sprintf("timesheet:template:%02d:%d", int(month), year)
}

// Generate returns the path of a timesheet stamped with the employee name
// for the generator's reporting period. A cached template path is only
// reused when the file still exists; a dangling path is treated as a miss so
// external temp-file cleanup cannot surface to the user.
func (c *TimesheetCache) Generate(ctx context.Context, employeeName string) (string, error) {
	month, year := c.generator.Period()
	key := templateKey(month, year)

	var templatePath string
	if c.cache.Get(ctx, key, &templatePath) {
		if _, err := os.Stat(templatePath); err == nil {
			c.metrics.CacheOps.WithLabelValues("template", "hit").Inc()
			c.log.InfoContext(ctx, "Template cache hit", "month", int(month), "year", year)
			return c.materializeOrRegenerate(ctx, templatePath, employeeName)
		}
		c.log.WarnContext(ctx, "Cached template file is gone, forcing regeneration", "path", templatePath)
	}

	c.metrics.CacheOps.WithLabelValues("template", "miss").Inc()
	c.log.InfoContext(ctx, "Template cache miss", "month", int(month), "year", year)

	templatePath, err := c.generator.Render("")
	if err != nil {
		return "", fmt.Errorf("failed to render period template: %w", err)
	}

	c.cache.Set(ctx, key, templatePath, c.ttl)

	return c.materializeOrRegenerate(ctx, templatePath, employeeName)
}

// InvalidateAll deletes every cached timesheet key, forcing the next Generate
// call to render a fresh period template.
func (c *TimesheetCache) InvalidateAll(ctx context.Context) bool {
	ok := c.cache.DeletePattern(ctx, templateKeyPattern)
	if ok {
		c.log.InfoContext(ctx, "Invalidated all cached timesheet templates")
	}

	return ok
}

// materializeOrRegenerate stamps a per-employee copy of the template,
// falling back to a full render when any materialization step fails.
func (c *TimesheetCache) materializeOrRegenerate(
	ctx context.Context,
	templatePath, employeeName string,
) (string, error) {
	path, err := c.materialize(templatePath, employeeName)
	if err == nil {
		return path, nil
	}

	c.log.WarnContext(ctx, "Template materialization failed, regenerating from scratch",
		"employee", employeeName, "error", err)

	path, err = c.generator.Render(employeeName)
	if err != nil {
		return "", fmt.Errorf("failed to generate timesheet for %q: %w", employeeName, err)
	}

	return path, nil
}

// materialize copies the blank template to a fresh file and writes the
// employee name into the title cell.
func (c *TimesheetCache) materialize(templatePath, employeeName string) (string, error) {
	month, year := c.generator.Period()
	prefix := fmt.Sprintf("Timesheet_%s_%02d_%d_", strings.ReplaceAll(employeeName, " ", "_"), int(month), year)

	dst, err := os.CreateTemp("", prefix+"*.xlsx")
	if err != nil {
		return "", fmt.Errorf("failed to create employee timesheet file: %w", err)
	}

	if err = copyFile(dst, templatePath); err != nil {
		os.Remove(dst.Name())
		return "", err
	}

	file, err := excelize.OpenFile(dst.Name())
	if err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to open copied template: %w", err)
	}
	defer file.Close()

	if err = file.SetCellValue(timesheet.SheetName, timesheet.TitleCell, "Timesheet - "+employeeName); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to stamp employee name: %w", err)
	}

	if err = file.Save(); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to save employee timesheet: %w", err)
	}

	return dst.Name(), nil
}

func copyFile(dst *os.File, srcPath string) error {
	defer dst.Close()

	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("failed to open template: %w", err)
	}
	defer src.Close()

	if _, err = io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to copy template: %w", err)
	}

	return nil
}
