package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/warroom/warroom-bot/internal/models"
)

// ErrNotFound is returned when a requested row does not exist or is not visible
var ErrNotFound = errors.New("not found")

// DefaultFeedLimit caps how many recent mentions are aggregated per refresh
const DefaultFeedLimit = 200

const maxCrises = 50

// SupabaseClient reads activation data through the PostgREST interface of the BaaS
type SupabaseClient struct {
	projectURL string
	apiKey     string
	client     *resty.Client
}

// Ensure SupabaseClient implements FeedSource
var _ FeedSource = (*SupabaseClient)(nil)

// NewSupabaseClient creates a client for the project at projectURL
func NewSupabaseClient(projectURL, apiKey string) *SupabaseClient {
	projectURL = strings.TrimRight(projectURL, "/")
	return &SupabaseClient{
		projectURL: projectURL,
		apiKey:     apiKey,
		client: resty.New().
			SetTimeout(30*time.Second).
			SetBaseURL(projectURL+"/rest/v1").
			SetHeader("apikey", apiKey).
			SetHeader("Accept", "application/json").
			SetAuthToken(apiKey),
	}
}

func (s *SupabaseClient) GetName() string {
	return "supabase"
}

func (s *SupabaseClient) IsEnabled() bool {
	return s.projectURL != "" && s.apiKey != ""
}

// GetActivation loads one activation by id
func (s *SupabaseClient) GetActivation(ctx context.Context, activationID string) (*models.Activation, error) {
	var activations []models.Activation
	err := s.get(ctx, "activations", map[string]string{
		"select": "*",
		"id":     "eq." + activationID,
		"limit":  "1",
	}, &activations)
	if err != nil {
		return nil, err
	}
	if len(activations) == 0 {
		return nil, fmt.Errorf("activation %s: %w", activationID, ErrNotFound)
	}
	return &activations[0], nil
}

// ListActivations returns the active activations, newest first
func (s *SupabaseClient) ListActivations(ctx context.Context) ([]models.Activation, error) {
	var activations []models.Activation
	err := s.get(ctx, "activations", map[string]string{
		"select": "*",
		"status": "eq.active",
		"order":  "created_at.desc",
	}, &activations)
	return activations, err
}

// ListFeedItems returns the most recent non-archived mentions of an activation.
// Rows that cannot be decoded at all are skipped.
func (s *SupabaseClient) ListFeedItems(ctx context.Context, activationID string, limit int) ([]models.FeedItem, error) {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}

	var rows []json.RawMessage
	err := s.get(ctx, "feed_items", map[string]string{
		"select":        "*",
		"activation_id": "eq." + activationID,
		// neq alone would also drop rows whose status is NULL
		"or":    "(status.is.null,status.neq.archived)",
		"order": "created_at.desc",
		"limit": strconv.Itoa(limit),
	}, &rows)
	if err != nil {
		return nil, err
	}

	items := make([]models.FeedItem, 0, len(rows))
	for _, row := range rows {
		var item models.FeedItem
		if err := json.Unmarshal(row, &item); err != nil {
			logrus.Debugf("Skipping undecodable feed row for activation %s: %v", activationID, err)
			continue
		}
		if item.IsArchived() {
			continue
		}
		items = append(items, item)
	}

	return items, nil
}

// ListCrises returns the latest crisis events raised for an activation
func (s *SupabaseClient) ListCrises(ctx context.Context, activationID string) ([]models.Crisis, error) {
	var crises []models.Crisis
	err := s.get(ctx, "crisis_events", map[string]string{
		"select":        "*",
		"activation_id": "eq." + activationID,
		"order":         "created_at.desc",
		"limit":         strconv.Itoa(maxCrises),
	}, &crises)
	return crises, err
}

// SaveActivation validates and writes an activation's editable fields
func (s *SupabaseClient) SaveActivation(ctx context.Context, activation models.Activation) (*models.Activation, error) {
	if err := activation.Validate(); err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"name":               strings.TrimSpace(activation.Name),
		"keywords":           activation.Keywords,
		"people_of_interest": activation.PeopleOfInterest,
	}

	var saved []models.Activation
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("id", "eq."+activation.ID).
		SetHeader("Content-Type", "application/json").
		SetHeader("Prefer", "return=representation").
		SetBody(body).
		Patch("/activations")
	if err != nil {
		return nil, fmt.Errorf("failed to save activation %s: %w", activation.ID, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("supabase returned status %d saving activation: %s", resp.StatusCode(), string(resp.Body()))
	}
	if err := json.Unmarshal(resp.Body(), &saved); err != nil {
		return nil, fmt.Errorf("failed to decode saved activation: %w", err)
	}
	if len(saved) == 0 {
		return nil, fmt.Errorf("activation %s: %w", activation.ID, ErrNotFound)
	}

	return &saved[0], nil
}

func (s *SupabaseClient) get(ctx context.Context, table string, query map[string]string, out interface{}) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(query).
		Get("/" + table)
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", table, err)
	}

	if resp.IsError() {
		return fmt.Errorf("supabase returned status %d for %s: %s", resp.StatusCode(), table, string(resp.Body()))
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", table, err)
	}

	return nil
}
