package sources

import (
	"context"

	"github.com/warroom/warroom-bot/internal/models"
)

// FeedSource defines the contract for reading activation data from the database
type FeedSource interface {
	GetName() string
	IsEnabled() bool
	GetActivation(ctx context.Context, activationID string) (*models.Activation, error)
	ListActivations(ctx context.Context) ([]models.Activation, error)
	ListFeedItems(ctx context.Context, activationID string, limit int) ([]models.FeedItem, error)
	ListCrises(ctx context.Context, activationID string) ([]models.Crisis, error)
}
