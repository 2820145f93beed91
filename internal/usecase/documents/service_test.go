package documents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/policyradar/policyradar/internal/domain"
	"github.com/policyradar/policyradar/internal/domain/document"
	"github.com/policyradar/policyradar/internal/domain/filter"
	"github.com/policyradar/policyradar/internal/store"
)

var testNow = time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func intPtr(v int) *int { return &v }

// seedCorpus builds a store with a mixed corpus: two recent tax documents,
// one old tax document, one recent health document.
func seedCorpus(t *testing.T) *store.Store {
	t.Helper()
	st := store.New()
	st.Replace([]document.Document{
		{
			ID: "tax-new", Title: "VAT reform proposal", Topic: "tax",
			Source: "EURACTIV", DocType: "news",
			Published: time.Date(2026, 8, 19, 10, 0, 0, 0, time.UTC),
		},
		{
			ID: "tax-mid", Title: "Council debates CBAM", Topic: "tax",
			Source: "EP Open Data", DocType: "press_release",
			Published: time.Date(2026, 8, 17, 9, 0, 0, 0, time.UTC),
		},
		{
			ID: "tax-old", Title: "Historic excise directive", Topic: "tax",
			Source: "EUR-Lex", DocType: "regulation",
			Published: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			ID: "health-new", Title: "Pharma package update", Topic: "health",
			Source: "EURACTIV", DocType: "news",
			Published: time.Date(2026, 8, 18, 8, 0, 0, 0, time.UTC),
		},
	})
	return st
}

func mustCriteria(t *testing.T, topic, source, docType, search string, days *int, limit int) filter.Criteria {
	t.Helper()
	c, err := filter.New(topic, source, docType, search, days, limit)
	if err != nil {
		t.Fatalf("filter.New() error = %v", err)
	}
	return c
}

func TestQueryByTopic(t *testing.T) {
	svc := New(seedCorpus(t)).WithClock(fixedClock)

	docs, err := svc.Query(context.Background(), mustCriteria(t, "tax", "", "", "", nil, 0))
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("Query(topic=tax) returned %d documents, want 3", len(docs))
	}
	for _, d := range docs {
		if d.Topic != "tax" {
			t.Errorf("document %q has topic %q", d.ID, d.Topic)
		}
	}
	// Newest first.
	if docs[0].ID != "tax-new" || docs[2].ID != "tax-old" {
		t.Errorf("order = [%s %s %s], want newest first", docs[0].ID, docs[1].ID, docs[2].ID)
	}
}

func TestQueryTopicAndDays(t *testing.T) {
	svc := New(seedCorpus(t)).WithClock(fixedClock)

	docs, err := svc.Query(context.Background(), mustCriteria(t, "tax", "", "", "", intPtr(5), 0))
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("Query(topic=tax, days=5) returned %d documents, want 2", len(docs))
	}
	for _, d := range docs {
		if d.ID == "tax-old" {
			t.Error("document outside the window was returned")
		}
	}
}

func TestQueryLimit(t *testing.T) {
	svc := New(seedCorpus(t)).WithClock(fixedClock)

	docs, err := svc.Query(context.Background(), mustCriteria(t, "", "", "", "", nil, 2))
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("Query(limit=2) returned %d documents, want 2", len(docs))
	}
	// Truncation keeps the newest documents.
	if docs[0].ID != "tax-new" || docs[1].ID != "health-new" {
		t.Errorf("limited result = [%s %s], want the two newest", docs[0].ID, docs[1].ID)
	}
}

func TestQueryIdempotent(t *testing.T) {
	svc := New(seedCorpus(t)).WithClock(fixedClock)
	c := mustCriteria(t, "tax", "", "", "", nil, 0)

	first, err := svc.Query(context.Background(), c)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	second, err := svc.Query(context.Background(), c)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("result sizes differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("position %d differs: %q vs %q", i, first[i].ID, second[i].ID)
		}
	}
}

func TestQueryNoMatchesIsEmptyNotError(t *testing.T) {
	svc := New(seedCorpus(t)).WithClock(fixedClock)

	docs, err := svc.Query(context.Background(), mustCriteria(t, "fisheries", "", "", "", nil, 0))
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("Query() returned %d documents, want 0", len(docs))
	}
}

func TestQueryUninitializedStore(t *testing.T) {
	svc := New(store.New())

	_, err := svc.Query(context.Background(), mustCriteria(t, "", "", "", "", nil, 0))
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("Query() error = %v, want ErrStoreUnavailable", err)
	}
}

func TestGet(t *testing.T) {
	svc := New(seedCorpus(t))

	d, err := svc.Get(context.Background(), "health-new")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if d.Title != "Pharma package update" {
		t.Errorf("Get() title = %q", d.Title)
	}

	_, err = svc.Get(context.Background(), "nope")
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("Get(nope) error = %v, want ErrDocumentNotFound", err)
	}
}

func TestCount(t *testing.T) {
	svc := New(seedCorpus(t))

	n, err := svc.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 4 {
		t.Errorf("Count() = %d, want 4", n)
	}
}
