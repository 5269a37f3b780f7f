package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/warroom/warroom-bot/internal/models"
)

// APIError is returned when the companion API answers with a non-2xx status
// or with success set to false
type APIError struct {
	StatusCode int
	Endpoint   string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

// Channel is a monitored channel (social profile, broadcaster, portal) managed by the backend
type Channel struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Platform  string    `json:"platform"`
	URL       string    `json:"url,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// ChannelInput is the payload for creating a channel
type ChannelInput struct {
	Name     string `json:"name"`
	Platform string `json:"platform"`
	URL      string `json:"url,omitempty"`
}

// AIAnalysis is the narrative analysis generated for an activation
type AIAnalysis struct {
	ActivationID    string    `json:"activation_id"`
	Summary         string    `json:"summary"`
	Highlights      []string  `json:"highlights"`
	Risks           []string  `json:"risks"`
	Recommendations []string  `json:"recommendations"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// ServiceStatus is the health of one backend service
type ServiceStatus struct {
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Healthy   bool      `json:"healthy"`
	Message   string    `json:"message,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// APIClient talks to the companion HTTP API
type APIClient struct {
	baseURL string
	client  *resty.Client
}

// NewAPIClient creates a client for the API at baseURL. token may be empty.
func NewAPIClient(baseURL, token string) *APIClient {
	baseURL = strings.TrimRight(baseURL, "/")
	client := resty.New().
		SetTimeout(30*time.Second).
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "WarRoom-Bot/1.0")
	if token != "" {
		client.SetAuthToken(token)
	}

	return &APIClient{baseURL: baseURL, client: client}
}

func (a *APIClient) IsEnabled() bool {
	return a.baseURL != ""
}

// ListChannels returns every channel known to the backend
func (a *APIClient) ListChannels(ctx context.Context) ([]Channel, error) {
	var channels []Channel
	err := a.do(ctx, http.MethodGet, "/api/elege/channels", nil, &channels)
	return channels, err
}

// CreateChannel registers a new channel
func (a *APIClient) CreateChannel(ctx context.Context, input ChannelInput) (*Channel, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, &models.ValidationError{Field: "name", Message: "name is required"}
	}
	if strings.TrimSpace(input.Platform) == "" {
		return nil, &models.ValidationError{Field: "platform", Message: "platform is required"}
	}

	var channel Channel
	if err := a.do(ctx, http.MethodPost, "/api/elege/channels", input, &channel); err != nil {
		return nil, err
	}
	return &channel, nil
}

// DeleteChannel removes a channel
func (a *APIClient) DeleteChannel(ctx context.Context, channelID string) error {
	return a.do(ctx, http.MethodDelete, "/api/elege/channels/"+url.PathEscape(channelID), nil, nil)
}

// LinkChannel attaches a channel to an activation
func (a *APIClient) LinkChannel(ctx context.Context, activationID, channelID string) error {
	path := fmt.Sprintf("/api/elege/activations/%s/channels", url.PathEscape(activationID))
	return a.do(ctx, http.MethodPost, path, map[string]string{"channel_id": channelID}, nil)
}

// UnlinkChannel detaches a channel from an activation
func (a *APIClient) UnlinkChannel(ctx context.Context, activationID, channelID string) error {
	path := fmt.Sprintf("/api/elege/activations/%s/channels/%s", url.PathEscape(activationID), url.PathEscape(channelID))
	return a.do(ctx, http.MethodDelete, path, nil, nil)
}

// GenerateAIAnalysis asks the backend to produce a fresh analysis for an activation
func (a *APIClient) GenerateAIAnalysis(ctx context.Context, activationID string) (*AIAnalysis, error) {
	var analysis AIAnalysis
	path := fmt.Sprintf("/api/v1/activations/%s/ai-analysis", url.PathEscape(activationID))
	if err := a.do(ctx, http.MethodPost, path, nil, &analysis); err != nil {
		return nil, err
	}
	if analysis.ActivationID == "" {
		analysis.ActivationID = activationID
	}
	return &analysis, nil
}

// ServiceStatuses returns the health of every backend service
func (a *APIClient) ServiceStatuses(ctx context.Context) ([]ServiceStatus, error) {
	var statuses []ServiceStatus
	err := a.do(ctx, http.MethodGet, "/api/admin/services/status", nil, &statuses)
	return statuses, err
}

// ControlService sends an action ("start", "stop", "restart") to a backend service
func (a *APIClient) ControlService(ctx context.Context, service, action string) error {
	switch action {
	case "start", "stop", "restart":
	default:
		return &models.ValidationError{Field: "action", Message: fmt.Sprintf("unsupported action %q", action)}
	}
	path := fmt.Sprintf("/api/admin/services/%s/%s", url.PathEscape(service), action)
	return a.do(ctx, http.MethodPost, path, nil, nil)
}

// VerifyPublicDashboard checks the access password of a public dashboard
func (a *APIClient) VerifyPublicDashboard(ctx context.Context, token, password string) error {
	path := fmt.Sprintf("/api/public/dashboard/%s/verify", url.PathEscape(token))
	return a.do(ctx, http.MethodPost, path, map[string]string{"password": password}, nil)
}

// PublicDashboardData loads the summary behind a public dashboard
func (a *APIClient) PublicDashboardData(ctx context.Context, token string) (*models.DashboardSummary, error) {
	var summary models.DashboardSummary
	path := fmt.Sprintf("/api/public/dashboard/%s/data", url.PathEscape(token))
	if err := a.do(ctx, http.MethodGet, path, nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// do executes a request and unwraps the success envelope. The payload is
// read from "data" when present, otherwise from the body itself.
func (a *APIClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	req := a.client.R().SetContext(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}

	var env envelope
	decodeErr := json.Unmarshal(resp.Body(), &env)

	if resp.IsError() || decodeErr != nil || !env.Success {
		apiErr := &APIError{StatusCode: resp.StatusCode(), Endpoint: method + " " + path}
		switch {
		case env.Error != "":
			apiErr.Message = env.Error
		case env.Message != "":
			apiErr.Message = env.Message
		case decodeErr != nil:
			apiErr.Message = "invalid response body"
		case !env.Success && !resp.IsError():
			apiErr.Message = "request was not successful"
		}
		return apiErr
	}

	if out == nil {
		return nil
	}

	payload := []byte(env.Data)
	if len(payload) == 0 || string(payload) == "null" {
		payload = resp.Body()
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}

	return nil
}
