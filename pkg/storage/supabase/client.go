package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/proteinapura/storefront/pkg/config"
	"github.com/proteinapura/storefront/pkg/logger"
)

const (
	storagePath = "/storage/v1"
	pingTimeout = 5 * time.Second
)

// Client talks to the provider's object storage REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logg       *logger.Logger
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Bucket is the subset of bucket metadata the back-office needs.
type Bucket struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Public bool   `json:"public"`
}

// SignedUpload lets a browser PUT a file directly into storage.
type SignedUpload struct {
	SignedURL string `json:"signedUrl"`
	Path      string `json:"path"`
	Token     string `json:"token"`
}

// APIError is a non-2xx answer from the storage API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("storage: %d %s", e.Status, e.Message)
}

func (e *APIError) UpstreamStatus() int { return e.Status }

func closeBody(ctx context.Context, logg *logger.Logger, body io.Closer, msg string) {
	if body == nil {
		return
	}
	if err := body.Close(); err != nil && logg != nil {
		logg.Warn(ctx, msg)
	}
}

// NewClient builds a storage client using the service role key so uploads
// bypass row-level policies.
func NewClient(cfg config.SupabaseConfig, httpCfg config.HTTPConfig, logg *logger.Logger) (*Client, error) {
	if cfg.BaseURL() == "" {
		return nil, errors.New("supabase url is required")
	}
	key := cfg.ServiceRoleKey
	if key == "" {
		key = cfg.AnonKey
	}
	if key == "" {
		return nil, errors.New("supabase service role or anon key is required")
	}
	timeout := httpCfg.ClientTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL(),
		apiKey:     key,
		logg:       logg,
	}, nil
}

// Upload stores body at bucket/objectPath and returns the stored key.
func (c *Client) Upload(ctx context.Context, bucket, objectPath string, body io.Reader, contentType string, upsert bool) (string, error) {
	if c == nil {
		return "", errors.New("storage client not initialized")
	}
	u := c.baseURL + storagePath + "/object/" + escapeSegment(bucket) + "/" + escapePath(objectPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, body)
	if err != nil {
		return "", err
	}
	c.authorize(req)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", fmt.Sprintf("%t", upsert))

	var out struct {
		Key string `json:"Key"`
	}
	if err := c.do(ctx, req, &out); err != nil {
		return "", err
	}
	return out.Key, nil
}

// PublicURL returns the unauthenticated download URL of an object.
func (c *Client) PublicURL(bucket, objectPath string) string {
	return c.baseURL + storagePath + "/object/public/" + escapeSegment(bucket) + "/" + escapePath(objectPath)
}

// CreateSignedUploadURL requests a one-time upload token for bucket/objectPath.
func (c *Client) CreateSignedUploadURL(ctx context.Context, bucket, objectPath string, upsert bool) (*SignedUpload, error) {
	if c == nil {
		return nil, errors.New("storage client not initialized")
	}
	u := c.baseURL + storagePath + "/object/upload/sign/" + escapeSegment(bucket) + "/" + escapePath(objectPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader("{}"))
	if err != nil {
		return nil, err
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")
	if upsert {
		req.Header.Set("x-upsert", "true")
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	if out.URL == "" {
		return nil, errors.New("storage: signed upload response has no url")
	}

	signed, err := url.Parse(c.baseURL + storagePath + out.URL)
	if err != nil {
		return nil, fmt.Errorf("storage: parsing signed url: %w", err)
	}
	token := signed.Query().Get("token")
	if token == "" {
		return nil, errors.New("storage: signed upload url has no token")
	}

	return &SignedUpload{
		SignedURL: signed.String(),
		Path:      objectPath,
		Token:     token,
	}, nil
}

// ListBuckets returns every bucket visible to the configured key.
func (c *Client) ListBuckets(ctx context.Context) ([]Bucket, error) {
	if c == nil {
		return nil, errors.New("storage client not initialized")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+storagePath+"/bucket", nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	var out []Bucket
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	_, err := c.ListBuckets(ctx)
	return err
}

func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
}

func (c *Client) do(ctx context.Context, req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("storage request: %w", err)
	}
	defer closeBody(ctx, c.logg, resp.Body, "storage: closing response body failed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("storage: decoding response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	msg := strings.TrimSpace(string(b))
	if json.Unmarshal(b, &body) == nil {
		switch {
		case body.Message != "":
			msg = body.Message
		case body.Error != "":
			msg = body.Error
		}
	}
	if msg == "" {
		msg = resp.Status
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}

func escapeSegment(s string) string {
	return url.PathEscape(s)
}

func escapePath(p string) string {
	parts := strings.Split(strings.TrimLeft(p, "/"), "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
