package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ZiperRom1/codechecker/internal/ports"
)

// Client talks to a running statistics server over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the given base URL (e.g. http://localhost:8001).
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

// Ping reports whether the server answers its health endpoint.
func (c *Client) Ping() bool {
	resp, err := c.http.Get(c.baseURL + RouteHealth)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Store stores one or more report directories under the run name.
func (c *Client) Store(product, runName string, reportDirs []string) (*StoreResult, error) {
	var result StoreResult
	err := c.post(RouteStore, StoreRequest{
		Product:    product,
		RunName:    runName,
		ReportDirs: reportDirs,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// FailedFilesCount returns the distinct failed-file count. nil runNames
// means all runs.
func (c *Client) FailedFilesCount(product string, runNames []string) (int, error) {
	var result FailedFilesCountResult
	if err := c.get(RouteFailedFilesCount, scopeQuery(product, runNames), &result); err != nil {
		return 0, err
	}
	return result.Count, nil
}

// FailedFiles returns per-file failure occurrences. nil runNames means all
// runs.
func (c *Client) FailedFiles(product string, runNames []string) (map[string][]ports.FailureRecord, error) {
	var result FailedFilesResult
	if err := c.get(RouteFailedFiles, scopeQuery(product, runNames), &result); err != nil {
		return nil, err
	}
	return result.Files, nil
}

// RemoveRuns removes the runs matched by the filter.
func (c *Client) RemoveRuns(product string, filter ports.RunFilter) (bool, error) {
	var result RemoveRunsResult
	err := c.post(RouteRemoveRuns, RemoveRunsRequest{Product: product, Filter: filter}, &result)
	if err != nil {
		return false, err
	}
	return result.Removed, nil
}

// Archives lists stored archives, optionally restricted to one product.
func (c *Client) Archives(product string) (map[string][]string, error) {
	q := url.Values{}
	if product != "" {
		q.Set("product", product)
	}
	var result ArchivesResult
	if err := c.get(RouteArchives, q, &result); err != nil {
		return nil, err
	}
	return result.Archives, nil
}

// Health fetches the server health snapshot.
func (c *Client) Health() (*HealthResult, error) {
	var result HealthResult
	if err := c.get(RouteHealth, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func scopeQuery(product string, runNames []string) url.Values {
	q := url.Values{}
	if product != "" {
		q.Set("product", product)
	}
	for _, run := range runNames {
		q.Add("run", run)
	}
	return q
}

func (c *Client) get(route string, query url.Values, out any) error {
	u := c.baseURL + route
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	resp, err := c.http.Get(u)
	if err != nil {
		return fmt.Errorf("GET %s: %w", route, err)
	}
	defer resp.Body.Close()
	return decodeResponse(route, resp, out)
}

func (c *Client) post(route string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	resp, err := c.http.Post(c.baseURL+route, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("POST %s: %w", route, err)
	}
	defer resp.Body.Close()
	return decodeResponse(route, resp, out)
}

func decodeResponse(route string, resp *http.Response, out any) error {
	if resp.StatusCode != http.StatusOK {
		var er errorResponse
		if json.NewDecoder(resp.Body).Decode(&er) == nil && er.Error != "" {
			return fmt.Errorf("%s: %s", route, er.Error)
		}
		return fmt.Errorf("%s: unexpected status %d", route, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
