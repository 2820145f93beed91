package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/policyradar/policyradar/internal/domain/document"
)

// EurLex fetches legal acts from the EUR-Lex SPARQL endpoint of the EU
// Publications Office.
type EurLex struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
	now      func() time.Time
}

// EurLexConfig holds EUR-Lex source settings.
type EurLexConfig struct {
	Endpoint string
	Timeout  time.Duration
	Logger   *zap.Logger
}

// NewEurLex creates the EUR-Lex source.
func NewEurLex(cfg EurLexConfig) *EurLex {
	return &EurLex{
		endpoint: cfg.Endpoint,
		client:   &http.Client{Timeout: cfg.Timeout},
		logger:   cfg.Logger,
		now:      time.Now,
	}
}

// Name implements ingest.Source.
func (e *EurLex) Name() string { return "eur-lex" }

// sparqlResponse is the SPARQL 1.1 JSON results envelope, reduced to the
// bindings this query produces.
type sparqlResponse struct {
	Results struct {
		Bindings []map[string]struct {
			Value string `json:"value"`
		} `json:"bindings"`
	} `json:"results"`
}

// Fetch implements ingest.Source.
func (e *EurLex) Fetch(ctx context.Context, topic string, days, limit int) ([]document.Document, error) {
	cutoff := recencyCutoff(e.now(), days)
	query := buildSPARQLQuery(topic, cutoff, limit)

	form := url.Values{"query": {query}}
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, e.endpoint, strings.NewReader(form.Encode()),
	)
	if err != nil {
		return nil, fmt.Errorf("build sparql request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/sparql-results+json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query eur-lex endpoint: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("eur-lex endpoint returned %d", resp.StatusCode)
	}

	var parsed sparqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode sparql results: %w", err)
	}

	docs := make([]document.Document, 0, len(parsed.Results.Bindings))
	for _, binding := range parsed.Results.Bindings {
		d, ok := e.bindingToDocument(binding, topic)
		if !ok {
			continue
		}
		docs = append(docs, d)
		if len(docs) >= limit {
			break
		}
	}

	e.logger.Debug("eur-lex query done",
		zap.Int("bindings", len(parsed.Results.Bindings)),
		zap.Int("documents", len(docs)),
	)
	return docs, nil
}

func (e *EurLex) bindingToDocument(
	binding map[string]struct {
		Value string `json:"value"`
	},
	topic string,
) (document.Document, bool) {
	title := binding["title"].Value
	work := binding["work"].Value
	if title == "" || work == "" {
		return document.Document{}, false
	}

	published, err := time.Parse("2006-01-02", binding["date"].Value)
	if err != nil {
		e.logger.Debug("skipping work with unparsable date",
			zap.String("work", work),
			zap.String("date", binding["date"].Value),
		)
		return document.Document{}, false
	}

	return document.Document{
		ID:        "eurlex-" + workIdentifier(work),
		Title:     title,
		Summary:   title,
		Source:    "EUR-Lex",
		DocType:   docTypeFromTitle(title),
		Topic:     topic,
		URL:       binding["url"].Value,
		Language:  "en",
		Published: published.UTC(),
	}, true
}

// buildSPARQLQuery selects recent English-titled legal acts mentioning the
// topic, newest first.
func buildSPARQLQuery(topic string, cutoff time.Time, limit int) string {
	return fmt.Sprintf(`
PREFIX cdm: <http://publications.europa.eu/ontology/cdm#>
PREFIX xsd: <http://www.w3.org/2001/XMLSchema#>

SELECT DISTINCT ?work ?title ?date ?url
WHERE {
    ?work a cdm:work .

    ?work cdm:work_title ?title_node .
    FILTER(lang(?title_node) = 'en')
    BIND(STR(?title_node) AS ?title)
    FILTER(CONTAINS(LCASE(?title), %q))

    ?work cdm:work_date_document ?date .
    FILTER(?date > "%s"^^xsd:date)

    ?work cdm:work_is_realized_by_expression ?expression .
    ?expression cdm:expression_language <http://publications.europa.eu/resource/authority/language/ENG> .
    ?expression cdm:expression_manifested_by_manifestation ?manifestation .
    ?manifestation cdm:manifestation_type "html" .
    ?manifestation cdm:manifestation_url ?url .
}
ORDER BY DESC(?date)
LIMIT %d`, strings.ToLower(topic), cutoff.Format("2006-01-02"), limit)
}

// workIdentifier derives a stable ID suffix from the work URI (its last
// path segment, typically the CELEX number).
func workIdentifier(workURI string) string {
	trimmed := strings.TrimRight(workURI, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

// docTypeFromTitle classifies an act by its official title wording.
func docTypeFromTitle(title string) string {
	lower := strings.ToLower(title)
	switch {
	case strings.Contains(lower, "directive"):
		return "directive"
	case strings.Contains(lower, "decision"):
		return "decision"
	case strings.Contains(lower, "notice"):
		return "notice"
	default:
		return "regulation"
	}
}
