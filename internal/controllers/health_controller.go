package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/borkya1/smart-gallery/internal/store"
)

type HealthController struct {
	checks    []store.ReadinessCheck
	startTime time.Time
}

type rootResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type healthResponse struct {
	Status        string            `json:"status"`
	Uptime        string            `json:"uptime"`
	UptimeSeconds float64           `json:"uptime_seconds"`
	Dependencies  map[string]string `json:"dependencies"`
}

func (hc *HealthController) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, rootResponse{Status: "ok", Message: "SmartGallery Backend is running"})
}

// Health reports uptime and the reachability of every backing store. Any
// unreachable store turns the answer into 503.
func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(hc.startTime)
	resp := healthResponse{
		Status:        "ok",
		Uptime:        formatDuration(uptime),
		UptimeSeconds: uptime.Seconds(),
		Dependencies:  make(map[string]string, len(hc.checks)),
	}

	status := http.StatusOK
	for _, check := range hc.checks {
		if err := check.IsReady(r.Context()); err != nil {
			resp.Dependencies[check.Name()] = err.Error()
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Dependencies[check.Name()] = "ok"
	}

	writeJSON(w, status, resp)
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
}

func NewHealthController(checks []store.ReadinessCheck) *HealthController {
	return &HealthController{
		checks:    checks,
		startTime: time.Now(),
	}
}
