package api

import (
	"net/http"

	"github.com/agent-smit/passguard/internal/breach"
)

// CorpusInfo describes the loaded corpus without exposing its entries.
type CorpusInfo struct {
	Size        int    `json:"size"`
	Dimension   int    `json:"dimension"`
	Fingerprint string `json:"fingerprint"`
	Source      string `json:"source"`
	Model       string `json:"model"`
}

// CorpusHandler serves metadata about the loaded corpus.
type CorpusHandler struct {
	info CorpusInfo
}

// NewCorpusHandler creates a new CorpusHandler for c.
func NewCorpusHandler(c *breach.Corpus, source, model string) *CorpusHandler {
	return &CorpusHandler{info: CorpusInfo{
		Size:        c.Len(),
		Dimension:   c.Dimension(),
		Fingerprint: c.Fingerprint(),
		Source:      source,
		Model:       model,
	}}
}

// Get handles GET /api/v1/corpus.
func (h *CorpusHandler) Get(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, r, http.StatusOK, h.info)
}
