package handler

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"sort"
	"time"

	"banking-backoffice-api/internal/model"
	"banking-backoffice-api/internal/repository"
)

const healthCheckTimeout = 5 * time.Second

// StoreChecker reports the health of the record store
type StoreChecker interface {
	CheckStore(ctx context.Context) model.StoreHealth
}

// DBChecker checks a Postgres-backed store
type DBChecker struct {
	db *sql.DB
}

func NewDBChecker(db *sql.DB) *DBChecker {
	return &DBChecker{db: db}
}

func (c *DBChecker) CheckStore(ctx context.Context) model.StoreHealth {
	dbHealth := model.StoreHealth{
		Driver: "postgres",
		Status: "unhealthy",
	}

	if c.db == nil {
		return dbHealth
	}

	if err := c.db.PingContext(ctx); err != nil {
		return dbHealth
	}

	// Get database stats
	stats := c.db.Stats()
	dbHealth.ConnectionPool = fmt.Sprintf("open: %d, idle: %d, in_use: %d",
		stats.OpenConnections, stats.Idle, stats.InUse)

	if version, err := repository.LatestMigration(ctx, c.db); err == nil {
		dbHealth.Migration = version
	}

	dbHealth.Status = "healthy"
	return dbHealth
}

// MemoryChecker reports the in-process store, which is always reachable
type MemoryChecker struct{}

func (MemoryChecker) CheckStore(context.Context) model.StoreHealth {
	return model.StoreHealth{Driver: "memory", Status: "healthy"}
}

// DependencyCheck probes an optional dependency such as the event stream
type DependencyCheck func(ctx context.Context) error

type HealthHandler struct {
	store        StoreChecker
	version      string
	dependencies map[string]DependencyCheck
}

func NewHealthHandler(store StoreChecker, version string) *HealthHandler {
	return &HealthHandler{
		store:        store,
		version:      version,
		dependencies: make(map[string]DependencyCheck),
	}
}

// AddDependency registers a named check reported under "dependencies".
// A failing dependency degrades the status but keeps the handler at 200.
func (h *HealthHandler) AddDependency(name string, check DependencyCheck) {
	h.dependencies[name] = check
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	response := model.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   h.version,
		Store:     h.store.CheckStore(ctx),
	}

	if len(h.dependencies) > 0 {
		response.Dependencies = make(map[string]string, len(h.dependencies))
		names := make([]string, 0, len(h.dependencies))
		for name := range h.dependencies {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			if err := h.dependencies[name](ctx); err != nil {
				response.Dependencies[name] = "unhealthy"
				response.Status = "degraded"
				continue
			}
			response.Dependencies[name] = "healthy"
		}
	}

	// If the store is unhealthy, mark overall status as unhealthy
	if response.Store.Status != "healthy" {
		response.Status = "unhealthy"
		writeJSON(w, http.StatusServiceUnavailable, response)
		return
	}

	writeJSON(w, http.StatusOK, response)
}
