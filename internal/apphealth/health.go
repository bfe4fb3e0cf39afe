// Package apphealth exposes HTTP health and readiness endpoints for the
// livecortex demo server surface.
package apphealth

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

const checkTimeout = 5 * time.Second

// Checker is a single named readiness probe. Check should return promptly;
// Handler passes it a context that expires after checkTimeout, and a Check
// that ignores its context is not cut short.
type Checker struct {
	Name  string
	Check func(ctx context.Context) error
}

// Handler serves /healthz and /readyz.
type Handler struct {
	checkers []Checker
}

// New builds a Handler that evaluates every given checker on /readyz.
func New(checkers ...Checker) *Handler {
	return &Handler{checkers: checkers}
}

type readyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Healthz always responds 200: it reports the process is up, not that it is
// ready to serve.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz evaluates every registered checker and responds 200 only if all
// pass within checkTimeout, 503 otherwise.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	resp := readyResponse{Status: "ok", Checks: make(map[string]string, len(h.checkers))}
	allOK := true

	for _, c := range h.checkers {
		if err := c.Check(ctx); err != nil {
			resp.Checks[c.Name] = err.Error()
			allOK = false
			continue
		}
		resp.Checks[c.Name] = "ok"
	}

	status := http.StatusOK
	if !allOK {
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// Register wires Healthz and Readyz onto mux at /healthz and /readyz.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", h.Healthz)
	mux.HandleFunc("/readyz", h.Readyz)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
