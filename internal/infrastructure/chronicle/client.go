// Package chronicle provides the HTTP client for the external chronicle
// analytics service.
package chronicle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	domainChronicle "github.com/sprintforge/sprintforge-go/internal/domain/chronicle"
)

const defaultTimeout = 10 * time.Second

// ClientConfig configures the chronicle client.
type ClientConfig struct {
	// BaseURL is the chronicle service base URL.
	BaseURL string `json:"baseUrl" yaml:"base_url"`

	// Timeout bounds each request.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// Client queries the chronicle analytics service. Any transport or decode
// failure is returned as an error; callers treat a failed source as absent
// rather than propagating the failure into pattern logic.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a chronicle client.
func NewClient(config ClientConfig) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: config.BaseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// GetSimilarProjects returns projects historically similar to the reference
// project, at or above the similarity threshold.
func (c *Client) GetSimilarProjects(ctx context.Context, referenceProjectID string, similarityThreshold float64) ([]domainChronicle.SimilarProject, error) {
	endpoint := fmt.Sprintf("%s/api/v1/projects/%s/similar?threshold=%s",
		c.baseURL, url.PathEscape(referenceProjectID),
		url.QueryEscape(fmt.Sprintf("%.2f", similarityThreshold)))

	var projects []domainChronicle.SimilarProject
	if err := c.getJSON(ctx, endpoint, &projects); err != nil {
		return nil, fmt.Errorf("failed to fetch similar projects: %w", err)
	}
	return projects, nil
}

// GetVelocityTrends returns the project's velocity trend.
func (c *Client) GetVelocityTrends(ctx context.Context, projectID string) (*domainChronicle.VelocityTrend, error) {
	endpoint := fmt.Sprintf("%s/api/v1/projects/%s/velocity", c.baseURL, url.PathEscape(projectID))

	var trend domainChronicle.VelocityTrend
	if err := c.getJSON(ctx, endpoint, &trend); err != nil {
		return nil, fmt.Errorf("failed to fetch velocity trends: %w", err)
	}
	return &trend, nil
}

// GetProjectImpediments returns the project's recurring impediments.
func (c *Client) GetProjectImpediments(ctx context.Context, projectID string) ([]domainChronicle.Impediment, error) {
	endpoint := fmt.Sprintf("%s/api/v1/projects/%s/impediments", c.baseURL, url.PathEscape(projectID))

	var impediments []domainChronicle.Impediment
	if err := c.getJSON(ctx, endpoint, &impediments); err != nil {
		return nil, fmt.Errorf("failed to fetch impediments: %w", err)
	}
	return impediments, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("chronicle service returned %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
