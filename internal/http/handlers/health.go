package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	dbPing    func() error
	redisPing func() error
}

// nil ping funcs mean the dependency is not configured and is skipped.
func NewHealthHandler(dbPing, redisPing func() error) *HealthHandler {
	return &HealthHandler{dbPing: dbPing, redisPing: redisPing}
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readyz(ctx *gin.Context) {
	checks := gin.H{}
	ready := true

	if h.dbPing != nil {
		if err := h.dbPing(); err != nil {
			checks["db"] = "down"
			ready = false
		} else {
			checks["db"] = "up"
		}
	}

	if h.redisPing != nil {
		if err := h.redisPing(); err != nil {
			checks["redis"] = "down"
			ready = false
		} else {
			checks["redis"] = "up"
		}
	}

	if !ready {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "checks": checks})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ready", "checks": checks})
}
