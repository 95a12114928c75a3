// Package llm talks to the question-answering and search-index service.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"insightpaper/internal/models"
)

const DefaultTimeout = 60 * time.Second

// Endpoint names under {base}/api/.
const (
	endpointSearch         = "gptSearch"
	endpointContext        = "gptContext"
	endpointAsk            = "llm"
	endpointAddDocument    = "addDocumentPinecone"
	endpointDeleteDocument = "deleteDocumentPinecone"
)

// Client posts JSON to the LLM service. Every call is attempted once.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client with the given per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llm %s: status %d: %s", e.Endpoint, e.Status, e.Body)
}

// IndexDocument is what the search index needs to ingest a document.
type IndexDocument struct {
	DocumentID int64  `json:"documentId"`
	CourseID   *int64 `json:"courseId,omitempty"`
	Title      string `json:"title"`
	URL        string `json:"url"`
}

// Search returns the passages of one document matching query.
func (c *Client) Search(ctx context.Context, query string, documentID int64) ([]models.SearchHit, error) {
	var raw json.RawMessage
	err := c.post(ctx, endpointSearch, map[string]any{
		"query":      query,
		"documentId": documentID,
	}, &raw)
	if err != nil {
		return nil, err
	}
	hits, err := decodeHits(raw)
	if err != nil {
		return nil, fmt.Errorf("llm %s: %w", endpointSearch, err)
	}
	for i := range hits {
		if hits[i].DocumentID == 0 {
			hits[i].DocumentID = documentID
		}
	}
	return hits, nil
}

// AskWithContext answers question grounded in one indexed document.
func (c *Client) AskWithContext(ctx context.Context, question string, documentID int64, model string) (string, error) {
	var resp answerResponse
	err := c.post(ctx, endpointContext, map[string]any{
		"question":   question,
		"documentId": documentID,
		"model":      model,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.text(), nil
}

// Ask answers question without document context.
func (c *Client) Ask(ctx context.Context, question, model string) (string, error) {
	var resp answerResponse
	err := c.post(ctx, endpointAsk, map[string]any{
		"question": question,
		"model":    model,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.text(), nil
}

// AddDocument adds a document to the search index.
func (c *Client) AddDocument(ctx context.Context, doc IndexDocument) error {
	return c.post(ctx, endpointAddDocument, doc, nil)
}

// DeleteDocument removes a document from the search index.
func (c *Client) DeleteDocument(ctx context.Context, documentID int64) error {
	return c.post(ctx, endpointDeleteDocument, map[string]any{"documentId": documentID}, nil)
}

func (c *Client) post(ctx context.Context, endpoint string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("llm %s: encode request: %w", endpoint, err)
	}
	url := c.baseURL + "/api/" + endpoint + "/"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("llm %s: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("llm %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Endpoint: endpoint, Status: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("llm %s: decode response: %w", endpoint, err)
	}
	return nil
}

// answerResponse accepts the field names the service's providers use.
type answerResponse struct {
	Answer   string `json:"answer"`
	Response string `json:"response"`
	Result   string `json:"result"`
}

func (a answerResponse) text() string {
	for _, s := range []string{a.Answer, a.Response, a.Result} {
		if s != "" {
			return s
		}
	}
	return ""
}

// decodeHits accepts either a bare array or {"results": [...]}.
func decodeHits(raw json.RawMessage) ([]models.SearchHit, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []models.SearchHit{}, nil
	}
	var hits []models.SearchHit
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &hits); err != nil {
			return nil, err
		}
		return hits, nil
	}
	var wrapped struct {
		Results []models.SearchHit `json:"results"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, err
	}
	if wrapped.Results == nil {
		return []models.SearchHit{}, nil
	}
	return wrapped.Results, nil
}
