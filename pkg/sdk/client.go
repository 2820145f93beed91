// Package policyradar provides a Go client for the Policy Radar HTTP API.
package policyradar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/policyradar/policyradar/internal/domain"
)

const defaultTimeout = 30 * time.Second

// Client talks to a Policy Radar server.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithAPIKey sets the bearer token sent on authenticated endpoints.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a structured error response from the server.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("policyradar: %s (%s, http %d)", e.Message, e.Code, e.StatusCode)
}

// Unwrap maps known error codes to domain sentinels so callers can use
// errors.Is across the client/server boundary.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case "store_unavailable":
		return domain.ErrStoreUnavailable
	case "document_not_found":
		return domain.ErrDocumentNotFound
	case "invalid_parameter":
		return domain.ErrInvalidParameter
	case "unknown_source":
		return domain.ErrUnknownSource
	case "rag_provider_error":
		return domain.ErrRAGProviderError
	default:
		return nil
	}
}

// Documents lists documents matching the given filters.
func (c *Client) Documents(ctx context.Context, params DocumentsParams) (DocumentList, error) {
	q := url.Values{}
	if params.Topic != "" {
		q.Set("topic", params.Topic)
	}
	if params.Source != "" {
		q.Set("source", params.Source)
	}
	if params.DocType != "" {
		q.Set("doc_type", params.DocType)
	}
	if params.Search != "" {
		q.Set("search", params.Search)
	}
	if params.Days != nil {
		q.Set("days", strconv.Itoa(*params.Days))
	}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}

	path := "/api/documents"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out DocumentList
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// Document fetches a single document by ID.
func (c *Client) Document(ctx context.Context, id string) (Document, error) {
	var out Document
	err := c.do(ctx, http.MethodGet, "/api/documents/"+url.PathEscape(id), nil, &out)
	return out, err
}

// Stats returns corpus-wide aggregates.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var out Stats
	err := c.do(ctx, http.MethodGet, "/api/stats", nil, &out)
	return out, err
}

// Topics returns per-topic document counts.
func (c *Client) Topics(ctx context.Context) ([]NameCount, error) {
	var out struct {
		Topics []NameCount `json:"topics"`
	}
	err := c.do(ctx, http.MethodGet, "/api/topics", nil, &out)
	return out.Topics, err
}

// Sources returns per-source document counts.
func (c *Client) Sources(ctx context.Context) ([]NameCount, error) {
	var out struct {
		Sources []NameCount `json:"sources"`
	}
	err := c.do(ctx, http.MethodGet, "/api/sources", nil, &out)
	return out.Sources, err
}

// RAGQuery asks a question grounded in the corpus. contextIDs optionally
// restricts retrieval to the named documents.
func (c *Client) RAGQuery(ctx context.Context, query string, contextIDs []string) (RAGAnswer, error) {
	body := map[string]any{"query": query}
	if len(contextIDs) > 0 {
		body["context_documents"] = contextIDs
	}

	var out RAGAnswer
	err := c.do(ctx, http.MethodPost, "/api/rag/query", body, &out)
	return out, err
}

// Ingest triggers an ingestion run. Requires an API key when the server
// has authentication enabled.
func (c *Client) Ingest(ctx context.Context, req IngestRequest) (IngestReport, error) {
	var out IngestReport
	err := c.do(ctx, http.MethodPost, "/api/ingest", req, &out)
	return out, err
}

// Health returns the server's readiness report. A starting server responds
// with 503; the report is still decoded in that case.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	err := c.do(ctx, http.MethodGet, "/api/health", nil, &out)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusServiceUnavailable {
			return Health{Status: "starting"}, err
		}
	}
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Code: "internal_error"}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
