package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/agent-smit/passguard/internal/analyzer"
	"github.com/agent-smit/passguard/internal/breach"
	apierrors "github.com/agent-smit/passguard/internal/errors"
)

// Envelope is the standard API response format.
type Envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
	Error   any  `json:"error"`
	Meta    Meta `json:"meta"`
}

// Meta contains request metadata.
type Meta struct {
	Timestamp string `json:"timestamp"`
	RequestID string `json:"request_id"`
}

func newMeta(r *http.Request) Meta {
	reqID := ""
	if r != nil {
		reqID = r.Header.Get("X-Request-Id")
	}
	return Meta{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: reqID,
	}
}

// RespondJSON writes a success JSON response with the standard envelope.
func RespondJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	env := Envelope{
		Success: true,
		Data:    data,
		Meta:    newMeta(r),
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(env)
}

// RespondError writes an error JSON response with the standard envelope.
func RespondError(w http.ResponseWriter, r *http.Request, err *apierrors.APIError) {
	env := Envelope{
		Success: false,
		Error: map[string]string{
			"code":    err.Code,
			"message": err.Message,
		},
		Meta: newMeta(r),
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(err.Status)
	json.NewEncoder(w).Encode(env)
}

// decodeJSON reads a JSON request body into dst, rejecting unknown fields and
// bodies over the MaxBodySize limit.
func decodeJSON(r *http.Request, dst any) *apierrors.APIError {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apierrors.Validation("request body too large")
		}
		return apierrors.Validation("invalid JSON body")
	}
	return nil
}

// errorFromCore maps analyzer and engine failures onto API errors. Anything
// unrecognised is logged and reported as an internal error; op names the
// operation and subject is a redacted identifier for the input.
func errorFromCore(op, subject string, err error) *apierrors.APIError {
	switch {
	case errors.Is(err, analyzer.ErrEmptyPassword), errors.Is(err, analyzer.ErrPasswordTooLong):
		return apierrors.Validation(err.Error())
	case errors.Is(err, breach.ErrInvalidCount):
		return apierrors.Validation(err.Error())
	case errors.Is(err, breach.ErrOracleUnavailable), errors.Is(err, breach.ErrInvalidDimension):
		// A vector of the wrong size means the embedding model drifted.
		log.Printf("%s %s: oracle unavailable: %v", op, subject, err)
		return apierrors.OracleUnavailable("password models are temporarily unavailable")
	case errors.Is(err, breach.ErrGenerationTimeout):
		return apierrors.GenerationTimeout("could not generate safe suggestions in time")
	case errors.Is(err, context.Canceled):
		return apierrors.ServiceUnavailable("request canceled")
	default:
		log.Printf("%s %s: %v", op, subject, err)
		return apierrors.Internal("internal server error")
	}
}
