package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/herald/internal/httpserver/deps"
)

type healthzResponse struct {
	Status        string  `json:"status"`
	Mode          string  `json:"mode,omitempty"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Version       string  `json:"version,omitempty"`
	Commit        string  `json:"commit,omitempty"`
	BuildDate     string  `json:"build_date,omitempty"`
	GoVersion     string  `json:"go_version,omitempty"`
}

// Healthz is liveness only: the process answers, whatever the feed state.
func Healthz(d deps.Deps) http.HandlerFunc {
	now := d.TimeNow
	if now == nil {
		now = time.Now
	}
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthzResponse{
			Status:        "ok",
			Version:       d.Version,
			Commit:        d.Commit,
			BuildDate:     d.BuildDate,
			GoVersion:     d.GoVersion,
			UptimeSeconds: now().Sub(d.StartTime).Seconds(),
		}
		if d.Announcer != nil {
			resp.Mode = string(d.Announcer.Status().Mode)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
