// Package dataplane provides the client for the data-plane API, the
// backend service that owns catalog metadata and executes SQL on the
// warehouse. The engine never talks to a database directly.
package dataplane

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/velora-hq/explorer-engine/pkg/logging"
	"github.com/velora-hq/explorer-engine/pkg/models"
	"github.com/velora-hq/explorer-engine/pkg/retry"
)

const (
	// DefaultTimeout is the maximum time to wait for data-plane responses.
	DefaultTimeout = 30 * time.Second

	// DefaultExportTimeout bounds export downloads, which stream full
	// result files and routinely outlive DefaultTimeout.
	DefaultExportTimeout = 120 * time.Second
)

// Client provides access to the data-plane API.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	exportClient *http.Client
	retryCfg     *retry.Config
	logger       *zap.Logger
}

// NewClient creates a data-plane client. Zero timeouts select the
// defaults.
func NewClient(baseURL string, timeout, exportTimeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if exportTimeout <= 0 {
		exportTimeout = DefaultExportTimeout
	}
	return &Client{
		baseURL:      baseURL,
		httpClient:   &http.Client{Timeout: timeout},
		exportClient: &http.Client{Timeout: exportTimeout},
		retryCfg:     retry.DefaultConfig(),
		logger:       logger.Named("dataplane"),
	}
}

// SetMaxRetries overrides the retry budget for catalog fetches. A value
// of 0 disables retries; negative values are ignored. Not safe to call
// after the client is in use.
func (c *Client) SetMaxRetries(n int) {
	if n < 0 {
		return
	}
	c.retryCfg.MaxRetries = n
}

// FetchCatalog retrieves the raw table list for a project. Transient
// transport failures are retried with backoff; this is the only retried
// data-plane call.
func (c *Client) FetchCatalog(ctx context.Context, projectID string) ([]any, error) {
	endpoint, err := buildURL(c.baseURL, "api", "v1", "catalog")
	if err != nil {
		return nil, fmt.Errorf("failed to build URL: %w", err)
	}
	endpoint += "?project=" + url.QueryEscape(projectID)

	c.logger.Debug("Fetching catalog from data-plane",
		zap.String("url", endpoint),
		zap.String("project_id", projectID))

	body, err := retry.DoWithResultIfRetryable(ctx, c.retryCfg, func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		return c.do(c.httpClient, req)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog: %w", err)
	}

	var response struct {
		Tables []any `json:"tables"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse catalog response: %w", err)
	}

	c.logger.Info("Fetched catalog from data-plane",
		zap.String("project_id", projectID),
		zap.Int("table_count", len(response.Tables)))

	return response.Tables, nil
}

// ExecuteSQL submits one SQL statement for execution and normalizes the
// response. Execution is never retried; the user retries explicitly.
func (c *Client) ExecuteSQL(ctx context.Context, projectID, sqlQuery string) (*models.ResultSet, error) {
	endpoint, err := buildURL(c.baseURL, "api", "v1", "sql")
	if err != nil {
		return nil, fmt.Errorf("failed to build URL: %w", err)
	}

	c.logger.Debug("Executing SQL on data-plane",
		zap.String("project_id", projectID),
		zap.String("sql", logging.SanitizeQuery(sqlQuery)))

	payload, err := c.postJSON(ctx, c.httpClient, endpoint, map[string]any{
		"project": projectID,
		"sql":     sqlQuery,
	})
	if err != nil {
		return nil, err
	}

	rs := NormalizeResult(payload, sqlQuery)
	c.logger.Debug("SQL execution returned",
		zap.String("project_id", projectID),
		zap.Int("row_count", rs.RowCount))
	return rs, nil
}

// Ask forwards a natural-language question. The data-plane owns the
// translation to SQL; the engine only normalizes what comes back.
func (c *Client) Ask(ctx context.Context, projectID, question string) (*models.Answer, error) {
	endpoint, err := buildURL(c.baseURL, "api", "v1", "ask")
	if err != nil {
		return nil, fmt.Errorf("failed to build URL: %w", err)
	}

	c.logger.Debug("Forwarding question to data-plane",
		zap.String("project_id", projectID))

	payload, err := c.postJSON(ctx, c.httpClient, endpoint, map[string]any{
		"project": projectID,
		"query":   question,
	})
	if err != nil {
		return nil, err
	}

	return NormalizeAnswer(payload), nil
}

// ExportResult is a streamed export download.
type ExportResult struct {
	Body        io.ReadCloser
	ContentType string
	Filename    string
}

// Export streams an export download for the given SQL. The statement is
// forwarded verbatim; the caller owns closing Body.
func (c *Client) Export(ctx context.Context, projectID, sqlQuery, format string) (*ExportResult, error) {
	endpoint, err := buildURL(c.baseURL, "api", "v1", "export")
	if err != nil {
		return nil, fmt.Errorf("failed to build URL: %w", err)
	}

	body, err := json.Marshal(map[string]any{
		"project": projectID,
		"sql":     sqlQuery,
		"format":  format,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Info("Requesting export from data-plane",
		zap.String("project_id", projectID),
		zap.String("format", format))

	resp, err := c.exportClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call data-plane: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		c.logger.Error("data-plane export failed",
			zap.Int("status", resp.StatusCode),
			zap.String("body", logging.TruncateString(string(errBody), logging.MaxQueryLogLength)))
		return nil, newAPIError(resp.StatusCode, errBody)
	}

	return &ExportResult{
		Body:        resp.Body,
		ContentType: resp.Header.Get("Content-Type"),
		Filename:    exportFilename(resp.Header.Get("Content-Disposition"), format),
	}, nil
}

// postJSON executes a JSON POST and decodes the response object.
func (c *Client) postJSON(ctx context.Context, client *http.Client, endpoint string, reqBody map[string]any) (map[string]any, error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	respBody, err := c.do(client, req)
	if err != nil {
		return nil, err
	}

	var payload map[string]any
	if err := json.Unmarshal(respBody, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return payload, nil
}

// do executes a request and returns the response body, converting
// non-200 statuses into apiError.
func (c *Client) do(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call data-plane: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("data-plane returned error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", logging.TruncateString(string(body), logging.MaxQueryLogLength)))
		return nil, newAPIError(resp.StatusCode, body)
	}

	return body, nil
}

// buildURL constructs a URL by parsing the base and joining path segments.
func buildURL(baseURL string, pathSegments ...string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}

	segments := append([]string{u.Path}, pathSegments...)
	u.Path = path.Join(segments...)

	return u.String(), nil
}

// exportFilename extracts the filename from a Content-Disposition header,
// falling back to a format-derived name.
func exportFilename(disposition, format string) string {
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			if name := params["filename"]; name != "" {
				return name
			}
		}
	}
	if format == "" {
		format = "csv"
	}
	return "export." + format
}
