package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	EngineHTTP              = "fastapi"
	DefaultFallbackTimeout  = 10 * time.Second
	fallbackResponseMaxBody = 1 << 16
)

const fallbackSchemaJSON = `{
  "type": "object",
  "required": ["title", "description"],
  "properties": {
    "title": {"type": "string"},
    "description": {"type": "string"}
  }
}`

var fallbackSchema = mustSchema(fallbackSchemaJSON)

// FallbackClient calls a remote deterministic generator service.
type FallbackClient struct {
	url    string
	client *http.Client
}

// NewFallbackClient returns a client posting to url. A nil client gets a 10s timeout.
func NewFallbackClient(url string, client *http.Client) (*FallbackClient, error) {
	if url == "" {
		return nil, errors.New("fallback url is required")
	}
	if client == nil {
		client = &http.Client{Timeout: DefaultFallbackTimeout}
	}
	return &FallbackClient{url: url, client: client}, nil
}

func (c *FallbackClient) Engine() string { return EngineHTTP }

func (c *FallbackClient) Generate(ctx context.Context, title, focus string) (Meta, error) {
	meta, err := c.generate(ctx, title, focus)
	if err != nil {
		return Meta{}, fmt.Errorf("%w: %w", ErrFallbackFailed, err)
	}
	return meta, nil
}

func (c *FallbackClient) generate(ctx context.Context, title, focus string) (Meta, error) {
	body, err := json.Marshal(map[string]string{"title": title, "focus": focus})
	if err != nil {
		return Meta{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Meta{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Meta{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Meta{}, fmt.Errorf("fallback service status %d", resp.StatusCode)
	}

	var doc map[string]any
	if err := json.NewDecoder(io.LimitReader(resp.Body, fallbackResponseMaxBody)).Decode(&doc); err != nil {
		return Meta{}, fmt.Errorf("decode fallback response: %w", err)
	}
	if err := validateAgainst(fallbackSchema, doc); err != nil {
		return Meta{}, err
	}
	return requireText(clampMeta(doc["title"].(string), doc["description"].(string)))
}
