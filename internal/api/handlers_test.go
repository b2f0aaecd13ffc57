package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sifria/mareh/core/library"
	"github.com/sifria/mareh/core/ref"
	"github.com/sifria/mareh/internal/config"
	"github.com/sifria/mareh/internal/metrics"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	lib := library.New()
	if err := library.Seed(lib); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	engine := ref.NewEngine(lib)
	m := metrics.New(prometheus.NewRegistry())
	return NewServer(config.ServerConfig{Host: "127.0.0.1", Port: 8080}, engine, nil, m)
}

func doRequest(t *testing.T, s *Server, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)
	return rec
}

func TestHandleParse(t *testing.T) {
	s := testServer(t)
	rec := doRequest(t, s, http.MethodGet, "/v1/parse?ref="+url.QueryEscape("Genesis 4:5-8"), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success bool       `json:"success"`
		Data    RefPayload `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success {
		t.Error("success = false")
	}
	if resp.Data.Ref != "Genesis 4:5-8" || resp.Data.Book != "Genesis" {
		t.Errorf("payload = %+v", resp.Data)
	}
	if !resp.Data.IsRange || resp.Data.IsSpanning {
		t.Errorf("range flags = %+v", resp.Data)
	}
	if resp.Data.URL != "Genesis.4.5-8" {
		t.Errorf("URL = %q", resp.Data.URL)
	}
}

func TestHandleParseHebrew(t *testing.T) {
	s := testServer(t)
	rec := doRequest(t, s, http.MethodGet, "/v1/parse?ref="+url.QueryEscape("שבת כ״א ב"), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data RefPayload `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.Ref != "Shabbat 21b" {
		t.Errorf("Ref = %q", resp.Data.Ref)
	}
}

func TestHandleParseErrors(t *testing.T) {
	s := testServer(t)
	tests := []struct {
		query  string
		status int
		code   string
	}{
		{"", http.StatusUnprocessableEntity, "malformed"},
		{"ref=" + url.QueryEscape("Nonesuch 3:4"), http.StatusNotFound, "unknown_title"},
		{"ref=" + url.QueryEscape("Genesis 4:5-8-9"), http.StatusUnprocessableEntity, "structural"},
		{"ref=" + url.QueryEscape("Genesis 51:1"), http.StatusUnprocessableEntity, "out_of_range"},
		{"ref=" + url.QueryEscape("שם"), http.StatusUnprocessableEntity, "ibid"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			rec := doRequest(t, s, http.MethodGet, "/v1/parse?"+tt.query, "")
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			var resp APIResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Success || resp.Error == nil || resp.Error.Code != tt.code {
				t.Errorf("error = %+v, want code %q", resp.Error, tt.code)
			}
		})
	}
}

func TestHandleScan(t *testing.T) {
	s := testServer(t)
	text := "See Genesis 4:5 and Shabbat 21b."

	for _, tc := range []struct {
		name   string
		method string
		target string
		body   string
	}{
		{"get", http.MethodGet, "/v1/scan?text=" + url.QueryEscape(text), ""},
		{"post", http.MethodPost, "/v1/scan", `{"text":"` + text + `"}`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, s, tc.method, tc.target, tc.body)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			var resp struct {
				Data []CitationPayload `json:"data"`
				Meta *APIMeta          `json:"meta"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if len(resp.Data) != 2 {
				t.Fatalf("found %d citations", len(resp.Data))
			}
			if resp.Data[0].Ref.Ref != "Genesis 4:5" || resp.Data[1].Ref.Ref != "Shabbat 21b" {
				t.Errorf("citations = %+v", resp.Data)
			}
			if resp.Meta == nil || resp.Meta.Total != 2 {
				t.Errorf("meta = %+v", resp.Meta)
			}
		})
	}

	rec := doRequest(t, s, http.MethodGet, "/v1/scan", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("missing text status = %d", rec.Code)
	}
}

func TestHandleTitles(t *testing.T) {
	s := testServer(t)

	rec := doRequest(t, s, http.MethodGet, "/v1/titles", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Data []string `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !contains(resp.Data, "Genesis") || !contains(resp.Data, "Rambam Repentance") {
		t.Errorf("en titles missing expected entries (%d total)", len(resp.Data))
	}

	rec = doRequest(t, s, http.MethodGet, "/v1/titles?lang=he", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !contains(resp.Data, "בראשית") {
		t.Error("he titles missing בראשית")
	}
}

func TestHandleGetIndex(t *testing.T) {
	s := testServer(t)

	rec := doRequest(t, s, http.MethodGet, "/v1/index/Genesis", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Data struct {
			Title      string   `json:"title"`
			Categories []string `json:"categories"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.Title != "Genesis" || len(resp.Data.Categories) != 2 {
		t.Errorf("data = %+v", resp.Data)
	}

	rec = doRequest(t, s, http.MethodGet, "/v1/index/"+url.PathEscape("Rashi on Genesis"), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("commentary status = %d, body %s", rec.Code, rec.Body.String())
	}
	var commentary struct {
		Data struct {
			Title string `json:"title"`
			Kind  string `json:"kind"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &commentary); err != nil {
		t.Fatal(err)
	}
	if commentary.Data.Title != "Rashi on Genesis" || commentary.Data.Kind != "commentary" {
		t.Errorf("commentary data = %+v", commentary.Data)
	}

	rec = doRequest(t, s, http.MethodGet, "/v1/index/Nonesuch", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown title status = %d", rec.Code)
	}
}

func TestHandlePostAndDeleteIndex(t *testing.T) {
	s := testServer(t)

	body := `{"title":"Jonah","categories":["Tanakh","Prophets"],"sectionNames":["Chapter","Verse"],"heTitle":"יונה"}`
	rec := doRequest(t, s, http.MethodPost, "/v1/index", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, s, http.MethodGet, "/v1/parse?ref="+url.QueryEscape("Jonah 2:1"), "")
	if rec.Code != http.StatusOK {
		t.Errorf("new text does not parse: %d", rec.Code)
	}

	rec = doRequest(t, s, http.MethodDelete, "/v1/index/Jonah", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = doRequest(t, s, http.MethodGet, "/v1/parse?ref="+url.QueryEscape("Jonah 2:1"), "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("deleted text still parses: %d", rec.Code)
	}

	rec = doRequest(t, s, http.MethodDelete, "/v1/index/Jonah", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d", rec.Code)
	}

	rec = doRequest(t, s, http.MethodPost, "/v1/index", `{"title":`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad JSON status = %d", rec.Code)
	}

	// A schema-invalid record is a 400, not a 422.
	rec = doRequest(t, s, http.MethodPost, "/v1/index", `{"title":"Bad-Title","sectionNames":["Chapter"]}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid record status = %d", rec.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	s := testServer(t)
	rec := doRequest(t, s, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Data struct {
			Status string `json:"status"`
			Texts  int    `json:"texts"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.Status != "ok" {
		t.Errorf("status field = %q", resp.Data.Status)
	}
	if resp.Data.Texts != len(library.SeedRecords()) {
		t.Errorf("texts = %d", resp.Data.Texts)
	}
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
