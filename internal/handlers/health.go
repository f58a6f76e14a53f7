package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Ananth-NQI/guestotp-backend/internal/storage"
)

// JobStatus is implemented by scheduled jobs
type JobStatus interface {
	Status() (running bool, lastRun time.Time, lastErr error)
}

// HealthHandler handles health check requests
type HealthHandler struct {
	Version    string
	store      storage.Store
	refreshJob JobStatus
	lockRooms  func() int
}

// NewHealthHandler creates a new health handler. refreshJob and lockRooms may be nil.
func NewHealthHandler(version string, store storage.Store, refreshJob JobStatus, lockRooms func() int) *HealthHandler {
	return &HealthHandler{
		Version:    version,
		store:      store,
		refreshJob: refreshJob,
		lockRooms:  lockRooms,
	}
}

// Check returns the health status of the service
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status := "healthy"
	statusCode := fiber.StatusOK
	dbStatus := "connected"
	if err := h.store.Ping(ctx); err != nil {
		status = "unhealthy"
		statusCode = fiber.StatusServiceUnavailable
		dbStatus = "unreachable"
	}

	services := fiber.Map{
		"database": fiber.Map{
			"status":  dbStatus,
			"storage": h.store.Kind(),
		},
	}
	if h.lockRooms != nil {
		services["lock_directory_rooms"] = h.lockRooms()
	}
	if h.refreshJob != nil {
		running, lastRun, lastErr := h.refreshJob.Status()
		job := fiber.Map{"running": running}
		if !lastRun.IsZero() {
			job["last_run"] = lastRun.Format(time.RFC3339)
			job["last_ok"] = lastErr == nil
		}
		services["lock_session_refresh"] = job
	}

	return c.Status(statusCode).JSON(fiber.Map{
		"status":   status,
		"service":  "Guest OTP Backend",
		"version":  h.Version,
		"services": services,
	})
}
