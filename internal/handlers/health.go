package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/cleanteam/internal/middleware"
)

const (
	APIVersion  = "0.1.0"
	ServiceName = "cleanteam"

	// PingTimeout bounds the database round trip of the readiness probe.
	PingTimeout = 2 * time.Second
)

// Pinger checks connectivity to a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Counter reports the size of a runtime component.
type Counter interface {
	Count() int
}

// HealthHandler serves the liveness, readiness and info probes.
type HealthHandler struct {
	db        Pinger
	trackers  Counter
	scheduled Counter
	env       string
	started   time.Time
}

// NewHealthHandler builds the probe handler. trackers and scheduled may be nil.
func NewHealthHandler(db Pinger, trackers, scheduled Counter, env string) *HealthHandler {
	return &HealthHandler{
		db:        db,
		trackers:  trackers,
		scheduled: scheduled,
		env:       env,
		started:   time.Now(),
	}
}

// StatusResponse is returned by both probes. Checks is only set on readiness.
type StatusResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// InfoResponse describes the running process.
type InfoResponse struct {
	Service        string    `json:"service"`
	Version        string    `json:"version"`
	Environment    string    `json:"environment"`
	StartedAt      time.Time `json:"startedAt"`
	Uptime         string    `json:"uptime"`
	ActiveTrackers int       `json:"activeTrackers"`
	ScheduledTeams int       `json:"scheduledTeams"`
}

// Register mounts the probes on the root router, outside the team group.
func (h *HealthHandler) Register(r gin.IRouter) {
	r.GET("/health", h.Health)
	r.GET("/health/ready", h.Ready)
	r.GET("/api/v1/info", h.Info)
}

// Health always answers 200 while the process serves requests.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, StatusResponse{Status: "healthy"})
}

// Ready answers 503 until the database answers a ping within PingTimeout.
func (h *HealthHandler) Ready(c *gin.Context) {
	state := h.databaseState(c)
	if state != "connected" {
		c.JSON(http.StatusServiceUnavailable, StatusResponse{
			Status: "not_ready",
			Checks: map[string]string{"database": state},
		})
		return
	}
	c.JSON(http.StatusOK, StatusResponse{
		Status: "ready",
		Checks: map[string]string{"database": state},
	})
}

func (h *HealthHandler) databaseState(c *gin.Context) string {
	if h.db == nil {
		return "unconfigured"
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), PingTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		if log := middleware.GetLogger(c); log != nil {
			log.Error("Readiness ping failed", err, map[string]interface{}{
				"timeout": PingTimeout.String(),
			})
		}
		return "disconnected"
	}
	return "connected"
}

// Info reports version, uptime and the live tracker and scheduler counts.
func (h *HealthHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, InfoResponse{
		Service:        ServiceName,
		Version:        APIVersion,
		Environment:    h.env,
		StartedAt:      h.started.UTC(),
		Uptime:         time.Since(h.started).Truncate(time.Second).String(),
		ActiveTrackers: count(h.trackers),
		ScheduledTeams: count(h.scheduled),
	})
}

func count(c Counter) int {
	if c == nil {
		return 0
	}
	return c.Count()
}
