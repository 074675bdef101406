// Package transport implements the HTTP-backed secrets.Fetcher: it queries
// the vault service for the records visible to the client's credential and
// wires up lazy file downloads.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/systmms/vaultpath/internal/errors"
	"github.com/systmms/vaultpath/internal/logging"
	"github.com/systmms/vaultpath/internal/metrics"
	"github.com/systmms/vaultpath/internal/secure"
	"github.com/systmms/vaultpath/pkg/record"
)

const defaultTimeout = 30 * time.Second

// Client fetches records over HTTPS. It implements secrets.Fetcher.
type Client struct {
	baseURL    string
	token      *secure.Buffer
	httpClient *http.Client
	logger     *logging.Logger
	cachePath  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithCache enables the on-disk response cache at path. After each
// successful fetch the response is mirrored there (0600); when the service
// is unreachable the cached copy is served instead, with a warning. Off by
// default: serving stale secrets is a policy decision the caller opts
// into, never a silent fallback.
func WithCache(path string) Option {
	return func(c *Client) { c.cachePath = path }
}

// New creates a transport client for the given service URL. The token is
// held in a protected enclave and only decrypted per request.
func New(baseURL string, token *secure.Buffer, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logging.New(false, false),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type fetchRequest struct {
	RequestedRecords []string `json:"requestedRecords,omitempty"`
}

type fetchResponse struct {
	Records []wireRecord `json:"records"`
}

type wireRecord struct {
	Uid    string         `json:"uid"`
	Title  string         `json:"title"`
	Type   string         `json:"type"`
	Notes  string         `json:"notes,omitempty"`
	Fields []record.Field `json:"fields,omitempty"`
	Custom []record.Field `json:"custom,omitempty"`
	Files  []wireFile     `json:"files,omitempty"`
}

type wireFile struct {
	Uid          string `json:"fileUid"`
	Name         string `json:"name"`
	Title        string `json:"title,omitempty"`
	Size         int64  `json:"size,omitempty"`
	LastModified int64  `json:"lastModified,omitempty"`
	ContentType  string `json:"contentType,omitempty"`
	URL          string `json:"url,omitempty"`
}

// Fetch returns the records visible to the client's credential, optionally
// narrowed by uids.
func (c *Client) Fetch(ctx context.Context, uids []string) ([]*record.Record, error) {
	start := time.Now()

	body, err := c.doFetch(ctx, uids)
	if err != nil {
		metrics.RecordFetch("error", time.Since(start).Seconds())
		if c.cachePath == "" {
			return nil, err
		}
		cached, cacheErr := os.ReadFile(c.cachePath)
		if cacheErr != nil {
			return nil, err
		}
		c.logger.Warn("fetch failed, serving cached records from %s: %v", c.cachePath, err)
		body = cached
	} else {
		metrics.RecordFetch("ok", time.Since(start).Seconds())
		if c.cachePath != "" {
			if cacheErr := os.WriteFile(c.cachePath, body, 0o600); cacheErr != nil {
				c.logger.Warn("failed to update record cache at %s: %v", c.cachePath, cacheErr)
			}
		}
	}

	var resp fetchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode records response: %w", err)
	}

	records := make([]*record.Record, 0, len(resp.Records))
	for _, wire := range resp.Records {
		records = append(records, c.toRecord(wire))
	}
	return records, nil
}

func (c *Client) doFetch(ctx context.Context, uids []string) ([]byte, error) {
	payload, err := json.Marshal(fetchRequest{RequestedRecords: uids})
	if err != nil {
		return nil, fmt.Errorf("failed to encode fetch request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/records", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build fetch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if err := c.authorize(req); err != nil {
		return nil, err
	}

	c.logger.Debug("fetching records from %s (%d uids requested)", c.baseURL, len(uids))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("record fetch failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read fetch response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, errors.UserError{
			Message:    fmt.Sprintf("vault service rejected the client credential (HTTP %d)", resp.StatusCode),
			Suggestion: "Re-initialize the profile with a fresh one-time token",
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vault service returned HTTP %d: %s", resp.StatusCode, logging.Redact(string(body), nil))
	}
	return body, nil
}

func (c *Client) authorize(req *http.Request) error {
	if c.token == nil {
		return nil
	}
	token, err := c.token.String()
	if err != nil {
		return fmt.Errorf("failed to open client token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

func (c *Client) toRecord(wire wireRecord) *record.Record {
	rec := &record.Record{
		Uid:    wire.Uid,
		Title:  wire.Title,
		Type:   wire.Type,
		Notes:  wire.Notes,
		Fields: wire.Fields,
		Custom: wire.Custom,
	}
	for _, wf := range wire.Files {
		f := &record.File{
			Uid:         wf.Uid,
			Name:        wf.Name,
			Title:       wf.Title,
			Size:        wf.Size,
			ContentType: wf.ContentType,
		}
		if wf.LastModified > 0 {
			f.LastModified = time.UnixMilli(wf.LastModified)
		}
		url := wf.URL
		if url == "" {
			url = fmt.Sprintf("%s/api/v1/files/%s", c.baseURL, wf.Uid)
		}
		f.SetDownloadFunc(c.downloadFunc(url))
		rec.Files = append(rec.Files, f)
	}
	return rec
}

func (c *Client) downloadFunc(url string) func(ctx context.Context) ([]byte, error) {
	return func(ctx context.Context) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build download request: %w", err)
		}
		if err := c.authorize(req); err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			metrics.RecordDownload("error")
			return nil, fmt.Errorf("file download failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			metrics.RecordDownload("error")
			return nil, fmt.Errorf("file download returned HTTP %d", resp.StatusCode)
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			metrics.RecordDownload("error")
			return nil, fmt.Errorf("failed to read file content: %w", err)
		}
		metrics.RecordDownload("ok")
		return data, nil
	}
}
