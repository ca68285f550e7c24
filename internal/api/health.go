package api

import (
	"context"
	"net/http"
)

// Pinger is an interface for checking database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler provides HTTP handlers for health check endpoints.
type HealthHandler struct {
	// DB is pinged on readiness when the corpus lives in Postgres.
	DB Pinger
	// CorpusLoaded reports whether the engine has a corpus.
	CorpusLoaded func() bool
	// OracleState returns per-oracle circuit states, e.g. {"embedding": "closed"}.
	OracleState func() map[string]string
}

// Healthz is a liveness probe. Returns 200 if the process is running.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz is a readiness probe. Returns 200 once the corpus is loaded and, when
// configured, the database is reachable. Open oracle circuits are reported but
// do not fail readiness.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "not ready"}
	if h.OracleState != nil {
		body["oracles"] = h.OracleState()
	}

	if h.CorpusLoaded == nil || !h.CorpusLoaded() {
		body["reason"] = "corpus not loaded"
		RespondJSON(w, r, http.StatusServiceUnavailable, body)
		return
	}

	if h.DB != nil {
		if err := h.DB.Ping(r.Context()); err != nil {
			body["reason"] = "database unreachable"
			RespondJSON(w, r, http.StatusServiceUnavailable, body)
			return
		}
	}

	body["status"] = "ready"
	RespondJSON(w, r, http.StatusOK, body)
}
