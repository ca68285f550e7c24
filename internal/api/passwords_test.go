package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/agent-smit/passguard/internal/analyzer"
	"github.com/agent-smit/passguard/internal/breach"
	apierrors "github.com/agent-smit/passguard/internal/errors"
)

type fakeAnalyzer struct {
	result      *analyzer.Result
	match       *breach.Match
	suggestions []string
	err         error

	gotPassword string
	gotCount    int
}

func (f *fakeAnalyzer) Analyze(_ context.Context, password string) (*analyzer.Result, error) {
	f.gotPassword = password
	if err := analyzer.Validate(password); err != nil {
		return nil, err
	}
	return f.result, f.err
}

func (f *fakeAnalyzer) Check(_ context.Context, password string) (*breach.Match, error) {
	f.gotPassword = password
	return f.match, f.err
}

func (f *fakeAnalyzer) Baseline(_ context.Context, count int) ([]string, error) {
	f.gotCount = count
	return f.suggestions, f.err
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	errObj, ok := decodeEnvelope(t, w)["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error object in %s", w.Body.String())
	}
	return errObj["code"].(string)
}

func TestPasswordsHandler_Analyze(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		analyzer   *fakeAnalyzer
		wantStatus int
		wantCode   string
	}{
		{
			name: "compromised password",
			body: `{"password":"password124"}`,
			analyzer: &fakeAnalyzer{result: &analyzer.Result{
				InputPassword:       "password124",
				MostSimilarPassword: "password123",
				Status:              breach.StatusCompromised,
				Suggestions:         []string{"!p@ssword124#57"},
			}},
			wantStatus: http.StatusOK,
		},
		{
			name:       "empty password",
			body:       `{"password":""}`,
			analyzer:   &fakeAnalyzer{},
			wantStatus: http.StatusBadRequest,
			wantCode:   apierrors.CodeValidation,
		},
		{
			name:       "malformed json",
			body:       `{"password":`,
			analyzer:   &fakeAnalyzer{},
			wantStatus: http.StatusBadRequest,
			wantCode:   apierrors.CodeValidation,
		},
		{
			name:       "unknown field",
			body:       `{"password":"x","user":"bob"}`,
			analyzer:   &fakeAnalyzer{},
			wantStatus: http.StatusBadRequest,
			wantCode:   apierrors.CodeValidation,
		},
		{
			name:       "oracle down",
			body:       `{"password":"password124"}`,
			analyzer:   &fakeAnalyzer{err: fmt.Errorf("%w: embedding circuit open", breach.ErrOracleUnavailable)},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   apierrors.CodeOracleUnavailable,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewPasswordsHandler(tc.analyzer, 3)
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(tc.body))

			h.Analyze(w, r)

			if w.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tc.wantStatus, w.Body.String())
			}
			if tc.wantCode != "" {
				if got := errorCode(t, w); got != tc.wantCode {
					t.Errorf("code = %s, want %s", got, tc.wantCode)
				}
				return
			}
			data := decodeEnvelope(t, w)["data"].(map[string]any)
			if data["most_similar_password"] != "password123" || data["status"] != string(breach.StatusCompromised) {
				t.Errorf("data = %v", data)
			}
		})
	}
}

func TestPasswordsHandler_ErrorBodyOmitsPassword(t *testing.T) {
	h := NewPasswordsHandler(&fakeAnalyzer{err: fmt.Errorf("scan failed")}, 3)
	w := httptest.NewRecorder()
	h.Analyze(w, httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(`{"password":"hunter2-secret"}`)))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "hunter2-secret") {
		t.Error("error response must not echo the password")
	}
}

func TestPasswordsHandler_Check(t *testing.T) {
	fa := &fakeAnalyzer{match: &breach.Match{Password: "letmein", Index: 1, Distance: 0.125, Status: breach.StatusCompromised}}
	h := NewPasswordsHandler(fa, 3)
	w := httptest.NewRecorder()

	h.Check(w, httptest.NewRequest(http.MethodPost, "/api/v1/check", strings.NewReader(`{"password":"letmein1"}`)))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if fa.gotPassword != "letmein1" {
		t.Errorf("analyzer got %q", fa.gotPassword)
	}
	data := decodeEnvelope(t, w)["data"].(map[string]any)
	if data["password"] != "letmein" || data["index"] != float64(1) || data["distance"] != 0.125 {
		t.Errorf("data = %v", data)
	}
}

func TestPasswordsHandler_Suggestions(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		analyzer   *fakeAnalyzer
		wantStatus int
		wantCount  int
		wantError  string
	}{
		{
			name:       "default count",
			analyzer:   &fakeAnalyzer{suggestions: []string{"a", "b", "c"}},
			wantStatus: http.StatusOK,
			wantCount:  3,
		},
		{
			name:       "explicit count",
			query:      "?count=5",
			analyzer:   &fakeAnalyzer{suggestions: []string{"a"}},
			wantStatus: http.StatusOK,
			wantCount:  5,
		},
		{
			name:       "zero count",
			query:      "?count=0",
			analyzer:   &fakeAnalyzer{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "count over cap",
			query:      "?count=21",
			analyzer:   &fakeAnalyzer{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "non-numeric count",
			query:      "?count=lots",
			analyzer:   &fakeAnalyzer{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "timeout with partial results",
			analyzer:   &fakeAnalyzer{suggestions: []string{"a"}, err: breach.ErrGenerationTimeout},
			wantStatus: http.StatusOK,
			wantCount:  3,
			wantError:  apierrors.CodeGenerationTimeout,
		},
		{
			name:       "timeout with nothing",
			analyzer:   &fakeAnalyzer{err: breach.ErrGenerationTimeout},
			wantStatus: http.StatusServiceUnavailable,
			wantCount:  3,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewPasswordsHandler(tc.analyzer, 3)
			w := httptest.NewRecorder()

			h.Suggestions(w, httptest.NewRequest(http.MethodGet, "/api/v1/suggestions"+tc.query, nil))

			if w.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tc.wantStatus, w.Body.String())
			}
			if tc.wantCount != 0 && tc.analyzer.gotCount != tc.wantCount {
				t.Errorf("count = %d, want %d", tc.analyzer.gotCount, tc.wantCount)
			}
			if tc.wantStatus != http.StatusOK {
				return
			}
			data := decodeEnvelope(t, w)["data"].(map[string]any)
			if _, ok := data["suggestions"].([]any); !ok {
				t.Errorf("suggestions missing: %v", data)
			}
			if got, _ := data["error"].(string); got != tc.wantError {
				t.Errorf("error = %q, want %q", got, tc.wantError)
			}
		})
	}
}
