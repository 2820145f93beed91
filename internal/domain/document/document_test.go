package document

import (
	"errors"
	"testing"
	"time"

	"github.com/policyradar/policyradar/internal/domain"
)

func TestValidate(t *testing.T) {
	published := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		doc     Document
		wantErr bool
	}{
		{"valid", Document{ID: "a", Published: published}, false},
		{"missing id", Document{Published: published}, true},
		{"blank id", Document{ID: "   ", Published: published}, true},
		{"zero published", Document{ID: "a"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.doc.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrInvalidDocument) {
				t.Errorf("Validate() error = %v, want ErrInvalidDocument", err)
			}
		})
	}
}

func TestLess(t *testing.T) {
	early := Document{ID: "b", Published: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)}
	late := Document{ID: "a", Published: time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)}
	tieA := Document{ID: "a", Published: early.Published}
	tieB := Document{ID: "b", Published: early.Published}

	if !Less(late, early) {
		t.Error("newer document should sort first")
	}
	if Less(early, late) {
		t.Error("older document should sort last")
	}
	if !Less(tieA, tieB) || Less(tieB, tieA) {
		t.Error("equal timestamps should break ties by ID ascending")
	}
}
