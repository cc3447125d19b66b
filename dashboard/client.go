package dashboard

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fenilmodi00/ipo-tracker/models"
	"github.com/fenilmodi00/ipo-tracker/shared"
)

// Client talks to the listing and update endpoints of a running server
type Client struct {
	serverURL string
	apiPrefix string
	http      *http.Client
	factory   *shared.HTTPClientFactory
}

// NewClient creates a client for serverURL (scheme and host) with routes under apiPrefix
func NewClient(serverURL, apiPrefix string, timeout time.Duration) *Client {
	factory := shared.NewHTTPClientFactory(timeout)
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		apiPrefix: "/" + strings.Trim(apiPrefix, "/"),
		http:      factory.CreateOptimizedHTTPClient(timeout),
		factory:   factory,
	}
}

// Close releases idle connections
func (c *Client) Close() {
	c.factory.CleanupAllClients()
}

// ListIPOs fetches one page of the listing
func (c *Client) ListIPOs(ctx context.Context, params models.QueryParams) (*models.IPOPage, error) {
	values := BuildQuery(State{Tab: params.Tab, Page: params.Page, Search: params.Search}, params.Limit)

	var page models.IPOPage
	if err := shared.DoJSON(ctx, c.http, http.MethodGet, c.apiURL("/ipos")+"?"+values.Encode(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

type updateResponse struct {
	Success       bool  `json:"success"`
	ModifiedCount int64 `json:"modifiedCount"`
}

// UpdateIPO sends a partial update of the editable fields
func (c *Client) UpdateIPO(ctx context.Context, id string, update models.IPOUpdate) (models.UpdateResult, error) {
	var response updateResponse
	if err := shared.DoJSON(ctx, c.http, http.MethodPatch, c.apiURL("/ipos/"+url.PathEscape(id)), update, &response); err != nil {
		return models.UpdateResult{}, err
	}
	return models.UpdateResult{Matched: response.Success, ModifiedCount: response.ModifiedCount}, nil
}

// UpdateLogs fetches the audit trail of one record
func (c *Client) UpdateLogs(ctx context.Context, id string, limit int) ([]models.IPOUpdateLog, error) {
	var response struct {
		Data []models.IPOUpdateLog `json:"data"`
	}
	endpoint := c.apiURL("/ipos/"+url.PathEscape(id)+"/history") + "?limit=" + strconv.Itoa(limit)
	if err := shared.DoJSON(ctx, c.http, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// Health returns the decoded body of the health endpoint
func (c *Client) Health(ctx context.Context) (map[string]interface{}, error) {
	var body map[string]interface{}
	if err := shared.DoJSON(ctx, c.http, http.MethodGet, c.serverURL+"/health", nil, &body); err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) apiURL(path string) string {
	if c.apiPrefix == "/" {
		return c.serverURL + path
	}
	return c.serverURL + c.apiPrefix + path
}
