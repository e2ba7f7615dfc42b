// Package client is a typed wrapper around the campaign service REST API.
// It owns no state beyond its configuration.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/foxzi/disparo/internal/metrics"
	"github.com/foxzi/disparo/internal/models"
)

// Client is a campaign service API client
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithMetrics records request counts and durations
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithLogger sets the logger used for request tracing
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger.With("component", "client")
	}
}

// NewClient creates a new API client
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// request performs a JSON request. route is the path template used as the
// metrics label.
func (c *Client) request(ctx context.Context, method, route, path string, body any, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.do(req, route, result)
}

func (c *Client) do(req *http.Request, route string, result any) error {
	requestID := uuid.NewString()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveAPIRequest(req.Method, route, 0, time.Since(start))
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	c.metrics.ObserveAPIRequest(req.Method, route, resp.StatusCode, time.Since(start))
	c.logger.Debug("api request", "method", req.Method, "path", req.URL.Path,
		"status", resp.StatusCode, "request_id", requestID, "duration", time.Since(start))

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errResp ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			apiErr.Message = errResp.Error
			if apiErr.Message == "" {
				apiErr.Message = errResp.Message
			}
		}
		return apiErr
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil && err != io.EOF {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}

func idPath(prefix string, id models.ID, suffix ...string) string {
	p := prefix + "/" + url.PathEscape(id.String())
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}

// ListCampaigns lists all campaigns
func (c *Client) ListCampaigns(ctx context.Context) ([]models.Campaign, error) {
	var resp CampaignListResponse
	if err := c.request(ctx, http.MethodGet, "/campaigns", "/campaigns", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Campaigns, nil
}

// GetCampaign gets a campaign with its delivery stats
func (c *Client) GetCampaign(ctx context.Context, id models.ID) (*models.CampaignDetail, error) {
	var resp models.CampaignDetail
	if err := c.request(ctx, http.MethodGet, "/campaigns/{id}", idPath("/campaigns", id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateCampaign creates a draft campaign
func (c *Client) CreateCampaign(ctx context.Context, req *CampaignCreateRequest) (*models.Campaign, error) {
	var resp campaignResponse
	if err := c.request(ctx, http.MethodPost, "/campaigns", "/campaigns", req, &resp); err != nil {
		return nil, err
	}
	if resp.Campaign == nil {
		return &models.Campaign{Name: req.Name, Status: models.CampaignDraft}, nil
	}
	return resp.Campaign, nil
}

// StartCampaign moves a draft campaign to active
func (c *Client) StartCampaign(ctx context.Context, id models.ID) error {
	return c.campaignAction(ctx, id, models.ActionStart)
}

// PauseCampaign pauses an active campaign
func (c *Client) PauseCampaign(ctx context.Context, id models.ID) error {
	return c.campaignAction(ctx, id, models.ActionPause)
}

// ResumeCampaign resumes a paused campaign
func (c *Client) ResumeCampaign(ctx context.Context, id models.ID) error {
	return c.campaignAction(ctx, id, models.ActionResume)
}

func (c *Client) campaignAction(ctx context.Context, id models.ID, action models.Action) error {
	route := "/campaigns/{id}/" + string(action)
	return c.request(ctx, http.MethodPost, route, idPath("/campaigns", id, string(action)), nil, nil)
}

// DeleteCampaign deletes a campaign
func (c *Client) DeleteCampaign(ctx context.Context, id models.ID) error {
	return c.request(ctx, http.MethodDelete, "/campaigns/{id}", idPath("/campaigns", id), nil, nil)
}

// ListLists lists all recipient lists
func (c *Client) ListLists(ctx context.Context) ([]models.List, error) {
	var resp ListsResponse
	if err := c.request(ctx, http.MethodGet, "/lists", "/lists", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Lists, nil
}

// GetList gets a recipient list
func (c *Client) GetList(ctx context.Context, id models.ID) (*models.List, error) {
	var resp listResponse
	if err := c.request(ctx, http.MethodGet, "/lists/{id}", idPath("/lists", id), nil, &resp); err != nil {
		return nil, err
	}
	if resp.List == nil {
		return nil, fmt.Errorf("decode response: missing list")
	}
	return resp.List, nil
}

// ListContacts gets one page of a list's contacts. page is 1-indexed.
func (c *Client) ListContacts(ctx context.Context, id models.ID, page, limit int) (*ContactsResponse, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(limit))
	path := idPath("/lists", id, "contacts") + "?" + params.Encode()

	var resp ContactsResponse
	if err := c.request(ctx, http.MethodGet, "/lists/{id}/contacts", path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UploadList uploads a recipient file. The service answers immediately with
// a list in processing state.
func (c *Client) UploadList(ctx context.Context, req *ListUploadRequest) (*models.List, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("name", req.Name); err != nil {
		return nil, fmt.Errorf("write name field: %w", err)
	}
	if err := mw.WriteField("description", req.Description); err != nil {
		return nil, fmt.Errorf("write description field: %w", err)
	}
	fw, err := mw.CreateFormFile("file", req.FileName)
	if err != nil {
		return nil, fmt.Errorf("create file field: %w", err)
	}
	if _, err := io.Copy(fw, req.File); err != nil {
		return nil, fmt.Errorf("copy file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/lists", &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	var resp listResponse
	if err := c.do(httpReq, "/lists", &resp); err != nil {
		return nil, err
	}
	if resp.List == nil {
		return &models.List{Name: req.Name, Description: req.Description, Status: models.ListProcessing}, nil
	}
	return resp.List, nil
}

// DeleteList deletes a recipient list
func (c *Client) DeleteList(ctx context.Context, id models.ID) error {
	return c.request(ctx, http.MethodDelete, "/lists/{id}", idPath("/lists", id), nil, nil)
}

// ListTemplates lists templates
func (c *Client) ListTemplates(ctx context.Context) ([]models.Template, error) {
	var resp TemplatesResponse
	if err := c.request(ctx, http.MethodGet, "/templates", "/templates", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Templates, nil
}

// GetTemplate gets a template by ID
func (c *Client) GetTemplate(ctx context.Context, id models.ID) (*models.Template, error) {
	var resp templateResponse
	if err := c.request(ctx, http.MethodGet, "/templates/{id}", idPath("/templates", id), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Template == nil {
		return nil, fmt.Errorf("decode response: missing template")
	}
	return resp.Template, nil
}

// CreateTemplate creates a new template
func (c *Client) CreateTemplate(ctx context.Context, req *TemplateRequest) (*models.Template, error) {
	var resp templateResponse
	if err := c.request(ctx, http.MethodPost, "/templates", "/templates", req, &resp); err != nil {
		return nil, err
	}
	if resp.Template == nil {
		return templateFromRequest("", req), nil
	}
	return resp.Template, nil
}

// UpdateTemplate updates a template
func (c *Client) UpdateTemplate(ctx context.Context, id models.ID, req *TemplateRequest) (*models.Template, error) {
	var resp templateResponse
	if err := c.request(ctx, http.MethodPut, "/templates/{id}", idPath("/templates", id), req, &resp); err != nil {
		return nil, err
	}
	if resp.Template == nil {
		return templateFromRequest(id, req), nil
	}
	return resp.Template, nil
}

// DeleteTemplate deletes a template
func (c *Client) DeleteTemplate(ctx context.Context, id models.ID) error {
	return c.request(ctx, http.MethodDelete, "/templates/{id}", idPath("/templates", id), nil, nil)
}

// DashboardStats gets the dashboard aggregate
func (c *Client) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	var resp models.DashboardStats
	if err := c.request(ctx, http.MethodGet, "/dashboard/stats", "/dashboard/stats", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func templateFromRequest(id models.ID, req *TemplateRequest) *models.Template {
	return &models.Template{
		ID:          id,
		Name:        req.Name,
		Subject:     req.Subject,
		TextContent: req.TextContent,
		HTMLContent: req.HTMLContent,
	}
}
