package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/herald/internal/announcer"
	"github.com/MrSnakeDoc/herald/internal/httpserver/deps"
	"github.com/MrSnakeDoc/herald/internal/transport"
)

type componentStatus struct {
	OK       bool   `json:"ok"`
	Count    *int   `json:"count,omitempty"`
	Unread   *int   `json:"unread,omitempty"`
	Snoozed  *int   `json:"snoozed,omitempty"`
	Events   *int64 `json:"events,omitempty"`
	Panics   *int64 `json:"panics,omitempty"`
	LastSync string `json:"last_sync,omitempty"`
	Mode     string `json:"mode,omitempty"`
	Impact   string `json:"impact,omitempty"`
	Error    string `json:"error,omitempty"`
}

type infraResponse struct {
	DeliveryMode string                     `json:"delivery_mode"`
	Components   map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := d.Announcer.Status()

		lastSync := "never"
		if !st.LastSync.IsZero() {
			lastSync = st.LastSync.Format("2006-01-02 15:04:05")
		}

		components := map[string]componentStatus{
			"transport": transportStatus(st),
			"feed": {
				OK:       st.Hydrated,
				Count:    &st.Count,
				Unread:   &st.Unread,
				Snoozed:  &st.Snoozed,
				LastSync: lastSync,
			},
			"subscribers": {
				OK:     st.HandlerPanics == 0,
				Count:  &st.Subscribers,
				Panics: &st.HandlerPanics,
			},
			"redis": checkRedis(r.Context(), d),
		}

		writeJSON(w, http.StatusOK, infraResponse{
			DeliveryMode: determineDeliveryMode(st),
			Components:   components,
		})
	}
}

func transportStatus(st announcer.Status) componentStatus {
	delivered := st.Delivered
	if st.Transport == transport.StatusConnected {
		return componentStatus{OK: true, Mode: string(st.Mode), Events: &delivered}
	}
	return componentStatus{
		OK:     false,
		Mode:   string(st.Mode),
		Events: &delivered,
		Impact: "polling-fallback",
		Error:  string(st.Transport),
	}
}

func determineDeliveryMode(st announcer.Status) string {
	switch {
	case !st.Connected:
		return "stopped"
	case st.Transport == transport.StatusConnected:
		return "realtime"
	default:
		return "polling"
	}
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{
			OK:     false,
			Mode:   "disabled",
			Impact: "snapshot-in-memory-only",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "snapshot-not-persisted",
			Error:  "timeout",
		}
	}

	return componentStatus{
		OK:   true,
		Mode: "optimal",
	}
}
