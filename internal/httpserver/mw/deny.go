package mw

import (
	"encoding/json"
	"net/http"
)

type denial struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Retryable bool   `json:"retryable,omitempty"`
}

// deny answers with the API error envelope so clients parse rejections the
// same way as handler errors.
func deny(w http.ResponseWriter, status int, msg string, retryable bool) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(denial{Error: msg, Retryable: retryable})
}
