package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/sifria/mareh/core/errors"
	"github.com/sifria/mareh/core/index"
	"github.com/sifria/mareh/core/ref"
	"github.com/sifria/mareh/core/sqlite"
	"github.com/sifria/mareh/internal/logging"
)

// APIResponse is the standard API response wrapper.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *APIMeta    `json:"meta,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIMeta contains response metadata.
type APIMeta struct {
	Total     int    `json:"total,omitempty"`
	Timestamp string `json:"timestamp"`
}

// RefPayload is the wire form of a parsed reference.
type RefPayload struct {
	Ref         string   `json:"ref"`
	Book        string   `json:"book"`
	Sections    []int    `json:"sections"`
	ToSections  []int    `json:"toSections"`
	URL         string   `json:"url"`
	Type        string   `json:"type"`
	Categories  []string `json:"categories"`
	IsBookLevel bool     `json:"isBookLevel"`
	IsRange     bool     `json:"isRange"`
	IsSpanning  bool     `json:"isSpanning"`
}

// CitationPayload is the wire form of a citation found in free text.
type CitationPayload struct {
	Text  string     `json:"text"`
	Start int        `json:"start"`
	End   int        `json:"end"`
	Ref   RefPayload `json:"ref"`
}

func refToPayload(r *ref.Ref) RefPayload {
	return RefPayload{
		Ref:         r.Normal(),
		Book:        r.Book(),
		Sections:    r.Sections(),
		ToSections:  r.ToSections(),
		URL:         r.URL(),
		Type:        r.Type(),
		Categories:  r.Entry().Categories(),
		IsBookLevel: r.IsBookLevel(),
		IsRange:     r.IsRange(),
		IsSpanning:  r.IsSpanning(),
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, total int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := APIResponse{
		Success: status < 400,
		Data:    data,
		Meta: &APIMeta{
			Total:     total,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Error("failed to encode response", "error", err)
	}
}

// writeError maps domain errors to HTTP statuses: unknown titles are
// 404, citation input problems 422, schema problems 400.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := "internal"

	var bookErr *errors.BookNameError
	var inputErr *errors.InputError
	var schemaErr *errors.SchemaError
	switch {
	case errors.As(err, &bookErr):
		status = http.StatusNotFound
		code = "unknown_title"
	case errors.As(err, &inputErr):
		status = http.StatusUnprocessableEntity
		code = inputErr.Kind.String()
	case errors.As(err, &schemaErr):
		status = http.StatusBadRequest
		code = "invalid_schema"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: err.Error()},
		Meta:    &APIMeta{Timestamp: time.Now().UTC().Format(time.RFC3339)},
	}
	if encErr := json.NewEncoder(w).Encode(resp); encErr != nil {
		logging.Error("failed to encode error response", "error", encErr)
	}
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	tref := r.URL.Query().Get("ref")
	if tref == "" {
		writeError(w, &errors.InputError{Kind: errors.KindMalformed, Message: "missing ref parameter"})
		return
	}

	lang := "en"
	if hasHebrew(tref) {
		lang = "he"
	}
	s.metrics.ParsesTotal.WithLabelValues(lang).Inc()

	parsed, err := s.engine.Parse(tref)
	if err != nil {
		var inputErr *errors.InputError
		if errors.As(err, &inputErr) {
			s.metrics.ParseFailuresTotal.WithLabelValues(inputErr.Kind.String()).Inc()
		} else {
			s.metrics.ParseFailuresTotal.WithLabelValues("book_name").Inc()
		}
		logging.ParseFailure(tref, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, refToPayload(parsed), 0)
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")
	if r.Method == http.MethodPost {
		var body struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, &errors.InputError{Kind: errors.KindMalformed, Message: "invalid JSON body"})
			return
		}
		text = body.Text
	}
	if text == "" {
		writeError(w, &errors.InputError{Kind: errors.KindMalformed, Message: "missing text"})
		return
	}

	s.metrics.ScansTotal.Inc()
	citations := s.engine.RefsInString(text)
	s.metrics.ScanCitationsTotal.Add(float64(len(citations)))

	payloads := make([]CitationPayload, 0, len(citations))
	for _, c := range citations {
		payloads = append(payloads, CitationPayload{
			Text:  c.Text,
			Start: c.Start,
			End:   c.End,
			Ref:   refToPayload(c.Ref),
		})
	}
	writeJSON(w, http.StatusOK, payloads, len(payloads))
}

func (s *Server) handleTitles(w http.ResponseWriter, r *http.Request) {
	lang := r.URL.Query().Get("lang")
	if lang == "" {
		lang = "en"
	}
	titles := s.engine.Library().FullTitleList(lang)
	writeJSON(w, http.StatusOK, titles, len(titles))
}

func (s *Server) handleGetIndex(w http.ResponseWriter, r *http.Request) {
	title := r.PathValue("title")
	entry, err := s.engine.Library().GetIndex(title)
	if err != nil {
		writeError(w, err)
		return
	}
	switch e := entry.(type) {
	case *index.Index:
		writeJSON(w, http.StatusOK, e.Record(), 0)
	default:
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"title":      entry.Title(),
			"categories": entry.Categories(),
			"kind":       entry.Kind(),
		}, 0)
	}
}

func (s *Server) handlePostIndex(w http.ResponseWriter, r *http.Request) {
	var rec index.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, &errors.InputError{Kind: errors.KindMalformed, Message: "invalid JSON body"})
		return
	}
	if _, err := s.engine.Library().AddIndex(&rec); err != nil {
		writeError(w, err)
		return
	}
	if s.store != nil {
		if err := s.store.PutIndex(&rec); err != nil {
			logging.Error("failed to persist record", "title", rec.Title, "error", err)
		}
	}
	writeJSON(w, http.StatusCreated, &rec, 0)
}

func (s *Server) handleDeleteIndex(w http.ResponseWriter, r *http.Request) {
	title := r.PathValue("title")
	if err := s.engine.Library().RemoveIndex(title); err != nil {
		writeError(w, err)
		return
	}
	if s.store != nil {
		if err := s.store.DeleteIndex(title); err != nil {
			logging.Error("failed to delete persisted record", "title", title, "error", err)
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": title}, 0)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats := s.engine.CacheStats()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"uptime":       s.metrics.Uptime().String(),
		"texts":        len(s.engine.Library().TextTitles()),
		"cache_hits":   stats.Hits,
		"cache_misses": stats.Misses,
		"sqlite":       sqlite.GetInfo(),
	}, 0)
}

// hasHebrew reports whether s contains Hebrew-script characters.
func hasHebrew(s string) bool {
	for _, r := range s {
		if r >= 0x0590 && r <= 0x05FF {
			return true
		}
	}
	return false
}
