package sources

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

const sparqlResults = `{
  "results": {
    "bindings": [
      {
        "work": {"value": "http://publications.europa.eu/resource/celex/32026L0042"},
        "title": {"value": "Directive (EU) 2026/42 on energy taxation"},
        "date": {"value": "2026-08-15"},
        "url": {"value": "https://eur-lex.europa.eu/eli/dir/2026/42"}
      },
      {
        "work": {"value": "http://publications.europa.eu/resource/celex/32026R0099"},
        "title": {"value": "Regulation (EU) 2026/99 on tax reporting"},
        "date": {"value": "not-a-date"},
        "url": {"value": "https://eur-lex.europa.eu/eli/reg/2026/99"}
      },
      {
        "work": {"value": ""},
        "title": {"value": "orphan binding"},
        "date": {"value": "2026-08-10"},
        "url": {"value": ""}
      }
    ]
  }
}`

func TestEurLexFetch(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		form, _ := url.ParseQuery(string(body))
		gotQuery = form.Get("query")
		w.Header().Set("Content-Type", "application/sparql-results+json")
		_, _ = w.Write([]byte(sparqlResults))
	}))
	defer srv.Close()

	src := NewEurLex(EurLexConfig{Endpoint: srv.URL, Timeout: 5 * time.Second, Logger: zap.NewNop()})
	src.now = func() time.Time { return feedNow }

	docs, err := src.Fetch(context.Background(), "Tax", 30, 10)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	// The unparsable date and the empty work URI are both skipped.
	if len(docs) != 1 {
		t.Fatalf("Fetch() returned %d documents, want 1: %+v", len(docs), docs)
	}

	d := docs[0]
	if d.ID != "eurlex-32026L0042" {
		t.Errorf("ID = %q", d.ID)
	}
	if d.DocType != "directive" {
		t.Errorf("DocType = %q, want directive", d.DocType)
	}
	if d.Source != "EUR-Lex" || d.Topic != "Tax" {
		t.Errorf("metadata = %s/%s", d.Source, d.Topic)
	}
	if !d.Published.Equal(time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Published = %v", d.Published)
	}

	// The topic lands lowercased in the SPARQL filter, the window as a date.
	if !strings.Contains(gotQuery, `"tax"`) {
		t.Errorf("query does not filter on topic: %s", gotQuery)
	}
	if !strings.Contains(gotQuery, "2026-07-21") {
		t.Errorf("query does not bound the date window: %s", gotQuery)
	}
}

func TestEurLexFetchEndpointError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	src := NewEurLex(EurLexConfig{Endpoint: srv.URL, Timeout: 5 * time.Second, Logger: zap.NewNop()})
	if _, err := src.Fetch(context.Background(), "tax", 30, 10); err == nil {
		t.Fatal("Fetch() error = nil, want endpoint error")
	}
}
