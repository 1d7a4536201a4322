package edge

import (
	"fmt"
	"net/http"
	"time"
)

type healthResponse struct {
	Status        string  `json:"status"`
	Uptime        string  `json:"uptime"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	OpenAI        bool    `json:"openai_configured"`
}

type HealthHandler struct {
	startTime  time.Time
	configured func() bool
}

func NewHealthHandler(analyze *AnalyzeFoodHandler) *HealthHandler {
	return &HealthHandler{
		startTime: time.Now(),
		configured: func() bool {
			return analyze.Vision.Configured() && analyze.Text.Configured()
		},
	}
}

func (hh *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	uptime := time.Since(hh.startTime)
	writeJSON(w, http.StatusOK, healthResponse{
		Status:        "ok",
		Uptime:        formatDuration(uptime),
		UptimeSeconds: uptime.Seconds(),
		OpenAI:        hh.configured(),
	})
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
}
