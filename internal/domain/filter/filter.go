// Package filter defines the selection criteria for document queries.
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/policyradar/policyradar/internal/domain"
	"github.com/policyradar/policyradar/internal/domain/document"
)

const (
	// DefaultLimit is applied when a query does not specify a limit.
	DefaultLimit = 50
	// MaxLimit is the hard cap on the number of returned documents.
	MaxLimit = 500
)

// Limits bounds the result window during criteria construction. The zero
// value of either field falls back to the package constants, so deployments
// only override what they configure.
type Limits struct {
	Default int
	Max     int
}

// DefaultLimits applies the package-level bounds.
var DefaultLimits = Limits{Default: DefaultLimit, Max: MaxLimit}

func (l Limits) normalized() Limits {
	if l.Default <= 0 {
		l.Default = DefaultLimit
	}
	// MaxLimit stays the absolute ceiling regardless of configuration.
	if l.Max <= 0 || l.Max > MaxLimit {
		l.Max = MaxLimit
	}
	if l.Default > l.Max {
		l.Default = l.Max
	}
	return l
}

// Criteria is a per-request value object describing a document selection.
// All provided criteria must hold for a document to match (logical AND).
type Criteria struct {
	topic   string
	source  string
	docType string
	search  string
	days    *int
	limit   int
}

// New validates and creates Criteria with the package-level limit bounds.
func New(topic, source, docType, search string, days *int, limit int) (Criteria, error) {
	return NewWithLimits(topic, source, docType, search, days, limit, DefaultLimits)
}

// NewWithLimits validates and creates Criteria.
// The wildcard value "all" on topic/source/doc_type means no filter (the
// frontend sends it for unselected dropdowns). Out-of-range limits are
// clamped against bounds, not rejected. A negative days value is the only
// rejection.
func NewWithLimits(topic, source, docType, search string, days *int, limit int, bounds Limits) (Criteria, error) {
	if days != nil && *days < 0 {
		return Criteria{}, fmt.Errorf("days must be non-negative, got %d: %w", *days, domain.ErrInvalidParameter)
	}
	bounds = bounds.normalized()
	if limit <= 0 {
		limit = bounds.Default
	}
	if limit > bounds.Max {
		limit = bounds.Max
	}
	return Criteria{
		topic:   normalize(topic),
		source:  normalize(source),
		docType: normalize(docType),
		search:  strings.TrimSpace(search),
		days:    days,
		limit:   limit,
	}, nil
}

func normalize(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "all") {
		return ""
	}
	return v
}

// Topic returns the topic filter ("" = unfiltered).
func (c Criteria) Topic() string { return c.topic }

// Source returns the source filter ("" = unfiltered).
func (c Criteria) Source() string { return c.source }

// DocType returns the doc_type filter ("" = unfiltered).
func (c Criteria) DocType() string { return c.docType }

// Search returns the free-text filter ("" = unfiltered).
func (c Criteria) Search() string { return c.search }

// Days returns the recency window in days, nil when unset.
func (c Criteria) Days() *int { return c.days }

// Limit returns the clamped result limit, always in [1, MaxLimit].
func (c Criteria) Limit() int { return c.limit }

// Cutoff computes the recency cutoff for the given clock reading.
// The window is calendar-based: days=0 selects documents published since
// midnight UTC today, days=7 since midnight UTC seven days ago.
// Returns ok=false when no days filter is set.
func (c Criteria) Cutoff(now time.Time) (cutoff time.Time, ok bool) {
	if c.days == nil {
		return time.Time{}, false
	}
	midnight := now.UTC().Truncate(24 * time.Hour)
	return midnight.AddDate(0, 0, -*c.days), true
}

// Matches reports whether the document satisfies every provided criterion.
// Topic, source and doc_type use exact case-insensitive comparison; search
// is a case-insensitive substring match over title, summary and body.
func (c Criteria) Matches(d document.Document, now time.Time) bool {
	if c.topic != "" && !strings.EqualFold(c.topic, d.Topic) {
		return false
	}
	if c.source != "" && !strings.EqualFold(c.source, d.Source) {
		return false
	}
	if c.docType != "" && !strings.EqualFold(c.docType, d.DocType) {
		return false
	}
	if cutoff, ok := c.Cutoff(now); ok && d.Published.Before(cutoff) {
		return false
	}
	if c.search != "" {
		needle := strings.ToLower(c.search)
		if !strings.Contains(strings.ToLower(d.Title), needle) &&
			!strings.Contains(strings.ToLower(d.Summary), needle) &&
			!strings.Contains(strings.ToLower(d.Body), needle) {
			return false
		}
	}
	return true
}
