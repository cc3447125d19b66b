package handlers

import (
	"database/sql"
	"time"

	"github.com/fenilmodi00/ipo-tracker/database"
	"github.com/fenilmodi00/ipo-tracker/services"
	"github.com/gofiber/fiber/v2"
)

type PerformanceHandler struct {
	DB      *sql.DB
	Store   *database.IPOStore
	Query   *services.QueryService
	Updater *services.UpdateService
	Cache   *services.CacheService
}

func NewPerformanceHandler(db *sql.DB, store *database.IPOStore, query *services.QueryService, updater *services.UpdateService, cache *services.CacheService) *PerformanceHandler {
	return &PerformanceHandler{
		DB:      db,
		Store:   store,
		Query:   query,
		Updater: updater,
		Cache:   cache,
	}
}

// GetPerformanceMetrics returns service, store, cache and pool statistics
func (h *PerformanceHandler) GetPerformanceMetrics(c *fiber.Ctx) error {
	metrics := make(map[string]interface{})

	metrics["query_service"] = h.Query.Metrics().Snapshot()
	metrics["update_service"] = h.Updater.Metrics().Snapshot()
	metrics["store"] = h.Store.Metrics()

	if h.Cache != nil {
		metrics["cache_stats"] = h.Cache.Stats()
	}

	dbStats := h.DB.Stats()
	metrics["database_stats"] = map[string]interface{}{
		"open_connections":     dbStats.OpenConnections,
		"in_use":               dbStats.InUse,
		"idle":                 dbStats.Idle,
		"wait_count":           dbStats.WaitCount,
		"wait_duration_ms":     dbStats.WaitDuration.Milliseconds(),
		"max_idle_closed":      dbStats.MaxIdleClosed,
		"max_idle_time_closed": dbStats.MaxIdleTimeClosed,
		"max_lifetime_closed":  dbStats.MaxLifetimeClosed,
	}

	indexStats, err := h.Store.IndexUsage(c.UserContext())
	if err != nil {
		metrics["index_stats_error"] = err.Error()
	} else {
		metrics["index_stats"] = indexStats
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    metrics,
	})
}

// ClearCache drops every cached listing page
func (h *PerformanceHandler) ClearCache(c *fiber.Ctx) error {
	if h.Cache == nil {
		return c.JSON(fiber.Map{
			"success": false,
			"message": "Cache service not available",
		})
	}

	removed := h.Cache.Clear()
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Cache cleared successfully",
		"removed": removed,
	})
}

// Health pings the database
func (h *PerformanceHandler) Health(c *fiber.Ctx) error {
	if err := database.Ping(c.UserContext(), h.DB); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":    "unhealthy",
			"database":  err.Error(),
			"timestamp": time.Now().Unix(),
		})
	}
	return c.JSON(fiber.Map{
		"status":    "ok",
		"database":  h.Store.Dialect().Name,
		"timestamp": time.Now().Unix(),
	})
}
