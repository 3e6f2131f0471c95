package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

// DBPinger reports whether the database is reachable.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// CachePinger reports whether the cache backend is reachable.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker reports the health of the backing services. The cache is
// optional; when none is configured it is reported as disabled, which is a
// healthy state since the application runs without it.
type HealthChecker struct {
	db    DBPinger
	cache CachePinger
	log   *slog.Logger
}

func NewHealthChecker(log *slog.Logger, db DBPinger, cache CachePinger) *HealthChecker {
	return &HealthChecker{db: db, cache: cache, log: log}
}

func (h *HealthChecker) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	h.log.DebugContext(req.Context(), "Performing health checks...")

	var err error
	status := make(map[string]string)
	overallStatus := http.StatusOK

	if err = h.db.Ping(req.Context()); err != nil {
		status["database"] = "unavailable"
		overallStatus = http.StatusServiceUnavailable
		h.log.WarnContext(req.Context(), "Health check failed: DB ping", "error", err)
	} else {
		status["database"] = "ok"
	}

	switch {
	case h.cache == nil:
		status["cache"] = "disabled"
	case h.cache.Ping(req.Context()) != nil:
		// the cache is an accelerator, not a dependency: report it
		// degraded without failing the overall health
		status["cache"] = "unavailable"
		h.log.WarnContext(req.Context(), "Health check failed: cache ping")
	default:
		status["cache"] = "ok"
	}

	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(overallStatus)
	if err = json.NewEncoder(writer).Encode(status); err != nil {
		h.log.ErrorContext(req.Context(), "Failed to write health check response", "error", err)
	}

	h.log.DebugContext(req.Context(), "Health checks completed", "status", overallStatus)
}
