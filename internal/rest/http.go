package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alfredjeanlab/adminkit/internal/idgen"
)

// HTTPClient implements Transport over HTTP/JSON.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPClient creates a client resolving relative URLs against baseURL
// (e.g. "http://localhost:3000"). A nil httpClient uses a default client.
func NewHTTPClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

func (c *HTTPClient) GetOne(ctx context.Context, entityName, url, method string) (map[string]any, error) {
	var out map[string]any
	if _, err := c.doJSON(ctx, orDefault(method, http.MethodGet), url, nil, &out); err != nil {
		return nil, fmt.Errorf("get %s: %w", entityName, err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

func (c *HTTPClient) GetList(ctx context.Context, params ListParams, entityName, url, method string) (*ListResponse, error) {
	q, err := params.Query()
	if err != nil {
		return nil, err
	}
	if len(q) > 0 {
		url += querySeparator(url) + q.Encode()
	}

	var body json.RawMessage
	header, err := c.doJSON(ctx, orDefault(method, http.MethodGet), url, nil, &body)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", entityName, err)
	}
	resp, err := decodeList(body)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", entityName, err)
	}
	resp.Header = header
	return resp, nil
}

func (c *HTTPClient) CreateOne(ctx context.Context, payload map[string]any, entityName, url, method string) (map[string]any, error) {
	var out map[string]any
	if _, err := c.doJSON(ctx, orDefault(method, http.MethodPost), url, payload, &out); err != nil {
		return nil, fmt.Errorf("create %s: %w", entityName, err)
	}
	return out, nil
}

func (c *HTTPClient) UpdateOne(ctx context.Context, payload map[string]any, entityName, url, method string) (map[string]any, error) {
	var out map[string]any
	if _, err := c.doJSON(ctx, orDefault(method, http.MethodPut), url, payload, &out); err != nil {
		return nil, fmt.Errorf("update %s: %w", entityName, err)
	}
	return out, nil
}

func (c *HTTPClient) DeleteOne(ctx context.Context, entityName, url, method string) error {
	if _, err := c.doJSON(ctx, orDefault(method, http.MethodDelete), url, nil, nil); err != nil {
		return fmt.Errorf("delete %s: %w", entityName, err)
	}
	return nil
}

// DeleteAll deletes every entry matching params.Filters with one request.
func (c *HTTPClient) DeleteAll(ctx context.Context, entityName, url string, params ListParams) error {
	q, err := params.Query()
	if err != nil {
		return err
	}
	if len(q) > 0 {
		url += querySeparator(url) + q.Encode()
	}
	if _, err := c.doJSON(ctx, http.MethodDelete, url, nil, nil); err != nil {
		return fmt.Errorf("delete %s: %w", entityName, err)
	}
	return nil
}

// decodeList accepts either a bare array or an object carrying "data" and an
// optional "total"/"totalCount".
func decodeList(body json.RawMessage) (*ListResponse, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return &ListResponse{Data: []map[string]any{}}, nil
	}
	if trimmed[0] == '[' {
		var data []map[string]any
		if err := json.Unmarshal(trimmed, &data); err != nil {
			return nil, fmt.Errorf("decoding response: %w", err)
		}
		return &ListResponse{Data: data}, nil
	}
	var envelope struct {
		Data       []map[string]any `json:"data"`
		Total      *int             `json:"total"`
		TotalCount *int             `json:"totalCount"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	resp := &ListResponse{Data: envelope.Data, TotalCount: envelope.TotalCount}
	if resp.TotalCount == nil {
		resp.TotalCount = envelope.Total
	}
	if resp.Data == nil {
		resp.Data = []map[string]any{}
	}
	return resp, nil
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

func (c *HTTPClient) resolve(u string) string {
	if strings.Contains(u, "://") || strings.HasPrefix(u, "//") || c.baseURL == "" {
		return u
	}
	return c.baseURL + "/" + strings.TrimLeft(u, "/")
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded (for DELETE/204 responses).
func (c *HTTPClient) doJSON(ctx context.Context, method, url string, body any, result any) (http.Header, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(url), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	reqID, err := idgen.RequestID()
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Request-ID", reqID)

	c.logger.Debug("rest request", "method", method, "url", req.URL.String(), "request_id", reqID)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	// 204 No Content carries no body.
	if resp.StatusCode == http.StatusNoContent {
		return resp.Header, nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &errResp) == nil {
			if errResp.Error != "" {
				return nil, &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
			}
			if errResp.Message != "" {
				return nil, &APIError{StatusCode: resp.StatusCode, Message: errResp.Message}
			}
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if result != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return nil, fmt.Errorf("decoding response: %w", err)
		}
	}

	return resp.Header, nil
}

func orDefault(method, def string) string {
	if method == "" {
		return def
	}
	return method
}

func querySeparator(u string) string {
	if strings.Contains(u, "?") {
		return "&"
	}
	return "?"
}
