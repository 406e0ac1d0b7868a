// ABOUTME: HTTP client for the AI capacity analyzer API
// ABOUTME: Wraps API calls with proper error handling for CLI usage

package client

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
	"time"

	"github.com/keir-whitehead/setup-lab-3d/backend/models"
	"github.com/keir-whitehead/setup-lab-3d/backend/services"
)

// Client is the API client for the capacity analyzer backend
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client with the given base URL
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// BaseURL returns the backend address the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// PlanOptions narrows and orders a plan response
type PlanOptions struct {
	Category string
	Query    string
	Sort     bool
}

func (o PlanOptions) values() url.Values {
	v := url.Values{}
	if o.Category != "" {
		v.Set("category", o.Category)
	}
	if o.Query != "" {
		v.Set("q", o.Query)
	}
	if o.Sort {
		v.Set("sort", "true")
	}
	return v
}

// Health calls GET /api/v1/health
func (c *Client) Health(ctx context.Context) (*models.HealthResponse, error) {
	var health models.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/health", nil, nil, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// Models calls GET /api/v1/catalog/models
func (c *Client) Models(ctx context.Context, category, query string) ([]models.ModelDefinition, error) {
	q := url.Values{}
	if category != "" {
		q.Set("category", category)
	}
	if query != "" {
		q.Set("q", query)
	}
	var defs []models.ModelDefinition
	if err := c.do(ctx, http.MethodGet, "/api/v1/catalog/models", q, nil, &defs); err != nil {
		return nil, err
	}
	return defs, nil
}

// CloudServices calls GET /api/v1/catalog/cloud
func (c *Client) CloudServices(ctx context.Context) ([]models.CloudService, error) {
	var cloud []models.CloudService
	if err := c.do(ctx, http.MethodGet, "/api/v1/catalog/cloud", nil, nil, &cloud); err != nil {
		return nil, err
	}
	return cloud, nil
}

// Plan calls POST /api/v1/plan
func (c *Client) Plan(ctx context.Context, machines []models.Machine, opts PlanOptions) (*models.PlanResponse, error) {
	var plan models.PlanResponse
	body := models.PlanRequest{Machines: machines}
	if err := c.do(ctx, http.MethodPost, "/api/v1/plan", opts.values(), body, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// Costs calls POST /api/v1/costs
func (c *Client) Costs(ctx context.Context, machines []models.Machine, rate, hours float64) (*models.CostProjection, error) {
	var projection models.CostProjection
	body := models.CostRequest{Machines: machines, ElectricityRate: &rate, HoursPerDay: &hours}
	if err := c.do(ctx, http.MethodPost, "/api/v1/costs", nil, body, &projection); err != nil {
		return nil, err
	}
	return &projection, nil
}

// GetFleet calls GET /api/v1/fleet. An empty name selects the default fleet.
func (c *Client) GetFleet(ctx context.Context, name string) (*services.FleetSpec, error) {
	var spec services.FleetSpec
	if err := c.do(ctx, http.MethodGet, "/api/v1/fleet", fleetQuery(name), nil, &spec); err != nil {
		return nil, err
	}
	return &spec, nil
}

// PutFleet calls PUT /api/v1/fleet and returns the fleet as stored
func (c *Client) PutFleet(ctx context.Context, name string, spec services.FleetSpec) (*services.FleetSpec, error) {
	var stored services.FleetSpec
	if err := c.do(ctx, http.MethodPut, "/api/v1/fleet", fleetQuery(name), spec, &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

// DeleteFleet calls DELETE /api/v1/fleet. The default fleet is emptied
// rather than removed.
func (c *Client) DeleteFleet(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/fleet", fleetQuery(name), nil, nil)
}

// ListFleets calls GET /api/v1/fleets
func (c *Client) ListFleets(ctx context.Context) ([]models.FleetSummary, error) {
	var fleets []models.FleetSummary
	if err := c.do(ctx, http.MethodGet, "/api/v1/fleets", nil, nil, &fleets); err != nil {
		return nil, err
	}
	return fleets, nil
}

func fleetQuery(name string) url.Values {
	if name == "" {
		return nil
	}
	return url.Values{"name": {name}}
}

// APIError is a non-200 response from the backend
type APIError struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return "backend returned status " + strconv.Itoa(e.StatusCode)
	}
	if e.Details != "" {
		return fmt.Sprintf("backend error: %s (%s)", e.Message, e.Details)
	}
	return "backend error: " + e.Message
}

// do sends one JSON request and decodes the response into out. A nil out
// or a 204 response skips decoding.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.handleRequestError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return c.handleErrorResponse(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid response from backend: %w", err)
	}
	return nil
}

// handleRequestError converts context errors to user-friendly messages
func (c *Client) handleRequestError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("request canceled")
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("request timed out")
	}
	return fmt.Errorf("cannot connect to backend at %s: %w", c.baseURL, err)
}

// handleErrorResponse parses API error responses
func (c *Client) handleErrorResponse(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var errResp models.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
		apiErr.Message = errResp.Error
		apiErr.Details = errResp.Details
	}
	return apiErr
}
