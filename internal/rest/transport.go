// Package rest defines the REST transport used to fetch and write entries,
// and an HTTP/JSON implementation of it.
package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Transport executes REST calls for an entity. url is the fully resolved
// endpoint; method the HTTP method configured on the entity.
type Transport interface {
	GetOne(ctx context.Context, entityName, url, method string) (map[string]any, error)
	GetList(ctx context.Context, params ListParams, entityName, url, method string) (*ListResponse, error)
	CreateOne(ctx context.Context, payload map[string]any, entityName, url, method string) (map[string]any, error)
	UpdateOne(ctx context.Context, payload map[string]any, entityName, url, method string) (map[string]any, error)
	DeleteOne(ctx context.Context, entityName, url, method string) error
	DeleteAll(ctx context.Context, entityName, url string, params ListParams) error
}

// NoPagination is the page value that omits pagination parameters.
const NoPagination = -1

// ListParams is the query of a list request. A Page of 0 or NoPagination
// omits _page and _perPage.
type ListParams struct {
	Page      int            `json:"_page,omitempty"`
	PerPage   int            `json:"_perPage,omitempty"`
	SortField string         `json:"_sortField,omitempty"`
	SortDir   string         `json:"_sortDir,omitempty"`
	Filters   map[string]any `json:"_filters,omitempty"`
}

// Query encodes the parameters on the wire: _page, _perPage, _sortField,
// _sortDir and _filters as a JSON object.
func (p ListParams) Query() (url.Values, error) {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("_page", strconv.Itoa(p.Page))
		if p.PerPage > 0 {
			q.Set("_perPage", strconv.Itoa(p.PerPage))
		}
	}
	if p.SortField != "" {
		q.Set("_sortField", p.SortField)
		if p.SortDir != "" {
			q.Set("_sortDir", p.SortDir)
		}
	}
	if len(p.Filters) > 0 {
		data, err := json.Marshal(p.Filters)
		if err != nil {
			return nil, fmt.Errorf("encoding filters: %w", err)
		}
		q.Set("_filters", string(data))
	}
	return q, nil
}

// ListResponse is the decoded result of a list request.
type ListResponse struct {
	Data []map[string]any
	// TotalCount is set when the body carries an explicit total.
	TotalCount *int
	Header     http.Header
}

// HeaderValue returns the named response header, or "".
func (r *ListResponse) HeaderValue(name string) string {
	if r.Header == nil {
		return ""
	}
	return r.Header.Get(name)
}
