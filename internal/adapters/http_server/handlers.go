// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"reviewit/internal/analytics"
	"reviewit/internal/app"
	"reviewit/internal/domain"
)

type Handlers struct {
	A *app.AnalyticsService
	S *app.SummaryService
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
	Kind   string `json:"kind,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/v1", func(r chi.Router) {
		// cross-company views
		r.Get("/analyze/wordcloud/all/{sentiment}", h.wordCloudAll)
		r.Get("/analyze/scores/ranking", h.scoreRanking)
		r.Get("/analyze/sentiment/ranking", h.positiveRanking)

		r.Group(func(r chi.Router) {
			r.Use(CompanyContext)
			r.Get("/analyze/wordcloud/{sentiment}", h.wordCloud)
			r.Get("/analyze/keywords/quarterly", h.quarterKeywords)
			r.Get("/analyze/keywords/{sentiment}", h.topKeywords)
			r.Get("/analyze/reviews-by-keyword", h.reviewsByKeyword)
			r.Get("/main/statistics", h.statistics)
			r.Get("/main/reviews", h.companyReviews)
			r.Get("/main/summary", h.quarterlySummary)
			r.Get("/departments/{id}/reviews", h.departmentReviews)
			r.Get("/departments/{id}/summary", h.departmentSummary)
		})
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	writeProblemKind(w, status, title, detail, "")
}

func writeProblemKind(w http.ResponseWriter, status int, title, detail, kind string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail, Kind: kind}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps the domain error kinds onto HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	switch kind {
	case domain.KindNoData, domain.KindNoSourceData:
		writeProblemKind(w, http.StatusNotFound, "Not Found", err.Error(), string(kind))
	case domain.KindInvalidReference:
		writeProblemKind(w, http.StatusBadRequest, "Invalid Reference", err.Error(), string(kind))
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

func sentimentParam(w http.ResponseWriter, r *http.Request) (domain.Sentiment, bool) {
	raw := chi.URLParam(r, "sentiment")
	s, ok := domain.ParseSentiment(strings.ToLower(raw))
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid sentiment", "sentiment must be positive or negative")
	}
	return s, ok
}

func (h *Handlers) wordCloudAll(w http.ResponseWriter, r *http.Request) {
	sent, ok := sentimentParam(w, r)
	if !ok {
		return
	}
	out, err := h.A.WordCloudAll(r.Context(), sent)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, out)
}

func (h *Handlers) wordCloud(w http.ResponseWriter, r *http.Request) {
	sent, ok := sentimentParam(w, r)
	if !ok {
		return
	}
	out, err := h.A.WordCloud(r.Context(), CompanyID(r.Context()), sent)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, out)
}

func (h *Handlers) topKeywords(w http.ResponseWriter, r *http.Request) {
	sent, ok := sentimentParam(w, r)
	if !ok {
		return
	}
	out, err := h.A.TopKeywords(r.Context(), CompanyID(r.Context()), sent)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, struct {
		Sentiment string                     `json:"sentiment"`
		Keywords  []analytics.KeywordExample `json:"keywords"`
	}{sent.String(), out})
}

func (h *Handlers) quarterKeywords(w http.ResponseWriter, r *http.Request) {
	out, err := h.A.QuarterKeywords(r.Context(), CompanyID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, struct {
		Keywords []analytics.KeywordCount `json:"keywords"`
	}{out})
}

func (h *Handlers) reviewsByKeyword(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	keyword := strings.TrimSpace(q.Get("keyword"))
	if keyword == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid keyword", "keyword is required")
		return
	}
	sent := domain.SentimentUnknown
	if raw := q.Get("sentiment"); raw != "" {
		s, ok := domain.ParseSentiment(strings.ToLower(raw))
		if !ok {
			writeProblem(w, http.StatusBadRequest, "Invalid sentiment", "sentiment must be positive or negative")
			return
		}
		sent = s
	}

	out, err := h.A.ReviewsByKeyword(r.Context(), CompanyID(r.Context()), keyword, sent)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, struct {
		Keyword string           `json:"keyword"`
		Reviews []app.KeywordHit `json:"reviews"`
	}{keyword, out})
}

func (h *Handlers) scoreRanking(w http.ResponseWriter, r *http.Request) {
	out, err := h.A.ScoreRanking(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, struct {
		Ranking []analytics.Rank `json:"ranking"`
	}{out})
}

func (h *Handlers) positiveRanking(w http.ResponseWriter, r *http.Request) {
	out, err := h.A.PositiveRateRanking(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, struct {
		Ranking []analytics.Rank `json:"ranking"`
	}{out})
}

func (h *Handlers) statistics(w http.ResponseWriter, r *http.Request) {
	out, err := h.A.CompanyStatistics(r.Context(), CompanyID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, out)
}

func (h *Handlers) companyReviews(w http.ResponseWriter, r *http.Request) {
	out, err := h.A.CompanyReviews(r.Context(), CompanyID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, struct {
		Reviews []app.ReviewView `json:"reviews"`
	}{out})
}

func (h *Handlers) quarterlySummary(w http.ResponseWriter, r *http.Request) {
	out, err := h.S.QuarterlySummary(r.Context(), CompanyID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, out)
}

func departmentID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "department id must be a positive number")
		return 0, false
	}
	return id, true
}

func (h *Handlers) departmentReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := departmentID(w, r)
	if !ok {
		return
	}
	out, err := h.A.DepartmentReviews(r.Context(), CompanyID(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, struct {
		Reviews []app.ReviewView `json:"reviews"`
	}{out})
}

func (h *Handlers) departmentSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := departmentID(w, r)
	if !ok {
		return
	}
	out, err := h.S.DepartmentSummary(r.Context(), CompanyID(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, out)
}
