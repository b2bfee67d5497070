package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/herald/internal/httpserver/deps"
	"github.com/MrSnakeDoc/herald/internal/transport"
)

type readyzResponse struct {
	Ready     bool             `json:"ready"`
	Hydrated  bool             `json:"hydrated"`
	Transport transport.Status `json:"transport"`
}

// Readyz is ready once the facade is connected and the feed was loaded at
// least once. A disconnected transport is not a reason to be unready: reads
// are then served through the gateway.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := d.Announcer.Status()
		resp := readyzResponse{
			Ready:     st.Connected && st.Hydrated,
			Hydrated:  st.Hydrated,
			Transport: st.Transport,
		}

		status := http.StatusOK
		if !resp.Ready {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	}
}
