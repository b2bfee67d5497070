package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/MrSnakeDoc/herald/internal/announcer"
	"github.com/MrSnakeDoc/herald/internal/gateway"
	"github.com/MrSnakeDoc/herald/internal/httpserver/deps"
	"github.com/MrSnakeDoc/herald/internal/logger"
)

const maxBodySize = 64 << 10

// envelope mirrors the backend response shape so clients can talk to the
// daemon and the backend the same way.
type envelope struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Retryable bool        `json:"retryable,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func ok(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

func fail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Error: msg})
}

// mutationFailed maps a facade error to a response. The optimistic change
// has already been reverted by the time it gets here.
func mutationFailed(w http.ResponseWriter, r *http.Request, d deps.Deps, op string, err error) {
	switch {
	case errors.Is(err, announcer.ErrNotFound):
		fail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, announcer.ErrInvalidDuration):
		fail(w, http.StatusBadRequest, err.Error())
	default:
		d.Logger.Warn("mutation failed",
			logger.String("op", op),
			logger.String("path", r.URL.Path),
			logger.Error(err))
		writeJSON(w, http.StatusBadGateway, envelope{
			Error:     err.Error(),
			Retryable: gateway.IsRetryable(err),
		})
	}
}

// decodeBody reads a small JSON body. An empty body leaves dst untouched.
func decodeBody(r *http.Request, dst interface{}) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
