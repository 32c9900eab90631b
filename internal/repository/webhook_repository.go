package repository

import (
	"context"
	"fmt"

	"github.com/ondegooltd/sirahats-sub001/internal/domain"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoWebhookRepository struct {
	collection *mongo.Collection
}

func NewMongoWebhookRepository(db *mongo.Database) WebhookRepository {
	return &mongoWebhookRepository{collection: db.Collection("webhooks")}
}

func (m mongoWebhookRepository) InsertWebhook(ctx context.Context, record *domain.WebhookRecord) error {
	if _, err := m.collection.InsertOne(ctx, record); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateWebhook
		}
		return fmt.Errorf("failed to insert webhook record: %w", err)
	}
	return nil
}
