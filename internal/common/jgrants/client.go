// Package jgrants implements the client for the jGrants public subsidy
// directory. Only the two read endpoints the search pipeline needs are
// covered: keyword list search and per-subsidy detail lookup.
package jgrants

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"subsidy-concierge/internal/common/config"
	"subsidy-concierge/internal/models"
)

// Client calls the jGrants public API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type listResponse struct {
	Metadata struct {
		ResultCount int `json:"resultCount"`
	} `json:"metadata"`
	Result []models.Subsidy `json:"result"`
}

func NewClient(cfg config.JGrantsConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: config.GetDuration(cfg.Timeout),
		},
	}
}

// Search runs one directory query and returns the matching list records.
// Results are requested sorted by acceptance deadline ascending, restricted
// to programs currently accepting applications.
func (c *Client) Search(ctx context.Context, p models.SearchParams) ([]models.Subsidy, error) {
	query := url.Values{}
	query.Set("keyword", p.Keyword)
	query.Set("sort", "acceptance_end_datetime")
	query.Set("order", "ASC")
	query.Set("acceptance", "1")
	if p.UsePurpose != "" {
		query.Set("use_purpose", p.UsePurpose)
	}
	if p.Industry != "" {
		query.Set("industry", p.Industry)
	}
	if p.TargetArea != "" {
		query.Set("target_area_search", p.TargetArea)
	}
	if p.EmployeeBand != "" {
		query.Set("target_number_of_employees", p.EmployeeBand)
	}

	endpoint := fmt.Sprintf("%s/subsidies?%s", c.baseURL, query.Encode())
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var resp listResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal search response: %w", err)
	}

	return resp.Result, nil
}

// Detail fetches the full record for one subsidy. The API wraps single
// lookups in the same result array as list responses.
func (c *Client) Detail(ctx context.Context, id string) (*models.Subsidy, error) {
	endpoint := fmt.Sprintf("%s/subsidies/id/%s", c.baseURL, url.PathEscape(id))
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var resp listResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal detail response: %w", err)
	}

	if len(resp.Result) == 0 {
		return nil, fmt.Errorf("subsidy %s not found", id)
	}

	return &resp.Result[0], nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("directory request failed (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}
