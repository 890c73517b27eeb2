package handler

import (
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

const apiVersion = "1.0.0"

// SystemHandler serves version and liveness endpoints
type SystemHandler struct {
	BaseHandler
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler() *SystemHandler {
	return &SystemHandler{startTime: time.Now()}
}

// SystemInfoResponse describes the running service
type SystemInfoResponse struct {
	Name      string `json:"name" example:"PharmaPOS Backend API"`
	Version   string `json:"version" example:"1.0.0"`
	GoVersion string `json:"go_version" example:"go1.25.5"`
	Uptime    string `json:"uptime" example:"1h30m45s"`
}

// GetSystemInfo godoc
// @ID           getSystemInfo
//
//	@Summary		Get system information
//	@Description	Returns service name, version and uptime.
//	@Tags			system
//	@Produce		json
//	@Success		200	{object}	APIResponse[SystemInfoResponse]
//	@Router			/system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:      "PharmaPOS Backend API",
		Version:   apiVersion,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}

// PingResponse is the liveness probe payload
type PingResponse struct {
	Message   string `json:"message" example:"pong"`
	Timestamp string `json:"timestamp" example:"2026-08-28T12:00:00Z"`
}

// Ping godoc
// @ID           pingSystem
//
//	@Summary		Ping the API
//	@Description	Liveness probe for POS terminals and load balancers.
//	@Tags			system
//	@Produce		json
//	@Success		200	{object}	APIResponse[PingResponse]
//	@Router			/system/ping [get]
func (h *SystemHandler) Ping(c *gin.Context) {
	h.Success(c, PingResponse{
		Message:   "pong",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}
