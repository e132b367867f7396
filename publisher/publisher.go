package publisher

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

	"go.uber.org/zap"
)

const (
	postsPath   = "/wp-json/wp/v2/posts/"
	fetchFields = "id,title,excerpt,content,meta"

	MetaTitleKey       = "_aioseo_title"
	MetaDescriptionKey = "_aioseo_description"

	DefaultTimeout = 15 * time.Second
	maxErrorBody   = 2048
)

var (
	ErrFetchFailed  = errors.New("record fetch failed")
	ErrUpdateFailed = errors.New("record update failed")
)

// Config holds the WordPress endpoint and application-password credentials.
type Config struct {
	BaseURL  string
	User     string
	Password string
	Timeout  time.Duration
}

// Field is a WordPress rendered/raw field pair.
type Field struct {
	Rendered string `json:"rendered"`
	Raw      string `json:"raw,omitempty"`
}

// Post is the subset of a WordPress post the workflow reads.
type Post struct {
	ID      int             `json:"id"`
	Title   Field           `json:"title"`
	Excerpt Field           `json:"excerpt"`
	Content Field           `json:"content"`
	Meta    json.RawMessage `json:"meta,omitempty"`
}

// RecordError reports a failed read or write against the content store.
// StatusCode is zero when the request never got a response.
type RecordError struct {
	Op         string
	PostID     int
	StatusCode int
	Body       string
	Err        error
}

func (e *RecordError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("wp %s post %d: %v", e.Op, e.PostID, e.Err)
	}
	return fmt.Sprintf("wp %s post %d: status %d", e.Op, e.PostID, e.StatusCode)
}

func (e *RecordError) Unwrap() []error {
	sentinel := ErrFetchFailed
	if e.Op == "update" {
		sentinel = ErrUpdateFailed
	}
	if e.Err == nil {
		return []error{sentinel}
	}
	return []error{sentinel, e.Err}
}

type updatePayload struct {
	Meta map[string]string `json:"meta"`
}

// Client reads posts from and writes AIOSEO meta back to a WordPress site.
type Client struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// New creates a Client. A nil http client gets cfg.Timeout (15s by default).
func New(cfg Config, client *http.Client, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("wordpress base url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid wordpress base url: %w", err)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{cfg: cfg, client: client, logger: logger}, nil
}

// PostURL is the REST resource of one post.
func (c *Client) PostURL(id int) string {
	return c.cfg.BaseURL + postsPath + strconv.Itoa(id)
}

// FetchURL is PostURL with the edit context and field selection used by FetchPost.
func (c *Client) FetchURL(id int) string {
	q := url.Values{}
	q.Set("context", "edit")
	q.Set("_fields", fetchFields)
	return c.PostURL(id) + "?" + q.Encode()
}

// FetchPost reads the post in edit context, requesting only the fields the workflow needs.
func (c *Client) FetchPost(ctx context.Context, id int) (Post, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.FetchURL(id), nil)
	if err != nil {
		return Post{}, &RecordError{Op: "fetch", PostID: id, Err: err}
	}
	req.SetBasicAuth(c.cfg.User, c.cfg.Password)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Post{}, &RecordError{Op: "fetch", PostID: id, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := readErrorBody(resp.Body)
		c.logger.Error("wp fetch failed", zap.Int("post", id), zap.Int("status", resp.StatusCode), zap.String("body", body))
		return Post{}, &RecordError{Op: "fetch", PostID: id, StatusCode: resp.StatusCode, Body: body}
	}

	var post Post
	if err := json.NewDecoder(resp.Body).Decode(&post); err != nil {
		return Post{}, &RecordError{Op: "fetch", PostID: id, Err: fmt.Errorf("decode post: %w", err)}
	}
	c.logger.Debug("wp post fetched", zap.Int("post", id))
	return post, nil
}

// UpdateMeta writes the AIOSEO title and description meta fields of a post.
func (c *Client) UpdateMeta(ctx context.Context, id int, title, description string) error {
	body, err := json.Marshal(updatePayload{Meta: map[string]string{
		MetaTitleKey:       title,
		MetaDescriptionKey: description,
	}})
	if err != nil {
		return &RecordError{Op: "update", PostID: id, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.PostURL(id), bytes.NewReader(body))
	if err != nil {
		return &RecordError{Op: "update", PostID: id, Err: err}
	}
	req.SetBasicAuth(c.cfg.User, c.cfg.Password)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return &RecordError{Op: "update", PostID: id, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody := readErrorBody(resp.Body)
		c.logger.Error("wp update failed", zap.Int("post", id), zap.Int("status", resp.StatusCode), zap.String("body", respBody))
		return &RecordError{Op: "update", PostID: id, StatusCode: resp.StatusCode, Body: respBody}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	c.logger.Debug("wp meta updated", zap.Int("post", id))
	return nil
}

func readErrorBody(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	return strings.TrimSpace(string(data))
}
