package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/agent-smit/passguard/internal/analyzer"
	"github.com/agent-smit/passguard/internal/breach"
	apierrors "github.com/agent-smit/passguard/internal/errors"
)

// MaxSuggestionCount caps the count query parameter on the suggestions endpoint.
const MaxSuggestionCount = 20

// PasswordAnalyzer is the subset of analyzer.Analyzer the handlers need.
type PasswordAnalyzer interface {
	Analyze(ctx context.Context, password string) (*analyzer.Result, error)
	Check(ctx context.Context, password string) (*breach.Match, error)
	Baseline(ctx context.Context, count int) ([]string, error)
}

// PasswordsHandler provides HTTP handlers for password analysis.
type PasswordsHandler struct {
	analyzer     PasswordAnalyzer
	defaultCount int
}

// NewPasswordsHandler creates a new PasswordsHandler. defaultCount is used by
// the suggestions endpoint when no count is given.
func NewPasswordsHandler(a PasswordAnalyzer, defaultCount int) *PasswordsHandler {
	if defaultCount <= 0 {
		defaultCount = 3
	}
	return &PasswordsHandler{analyzer: a, defaultCount: defaultCount}
}

type passwordRequest struct {
	Password string `json:"password"`
}

type suggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
	Error       string   `json:"error,omitempty"`
}

// Analyze handles POST /api/v1/analyze.
func (h *PasswordsHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if apiErr := decodeJSON(r, &req); apiErr != nil {
		RespondError(w, r, apiErr)
		return
	}

	res, err := h.analyzer.Analyze(r.Context(), req.Password)
	if err != nil {
		RespondError(w, r, errorFromCore("analyze", redact(req.Password), err))
		return
	}

	RespondJSON(w, r, http.StatusOK, res)
}

// Check handles POST /api/v1/check: the compromise verdict without strength,
// feedback or suggestions.
func (h *PasswordsHandler) Check(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if apiErr := decodeJSON(r, &req); apiErr != nil {
		RespondError(w, r, apiErr)
		return
	}

	match, err := h.analyzer.Check(r.Context(), req.Password)
	if err != nil {
		RespondError(w, r, errorFromCore("check", redact(req.Password), err))
		return
	}

	RespondJSON(w, r, http.StatusOK, match)
}

// Suggestions handles GET /api/v1/suggestions?count=N. A generation timeout
// still answers 200 with whatever was produced and the error code attached.
func (h *PasswordsHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	count := h.defaultCount
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxSuggestionCount {
			RespondError(w, r, apierrors.Validation("count must be an integer between 1 and "+strconv.Itoa(MaxSuggestionCount)))
			return
		}
		count = n
	}

	suggestions, err := h.analyzer.Baseline(r.Context(), count)
	resp := suggestionsResponse{Suggestions: suggestions}
	if resp.Suggestions == nil {
		resp.Suggestions = []string{}
	}
	if err != nil {
		apiErr := errorFromCore("suggestions", "baseline", err)
		if apiErr.Code != apierrors.CodeGenerationTimeout || len(resp.Suggestions) == 0 {
			RespondError(w, r, apiErr)
			return
		}
		resp.Error = apiErr.Code
	}

	RespondJSON(w, r, http.StatusOK, resp)
}
