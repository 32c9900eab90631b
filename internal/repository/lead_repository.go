package repository

import (
	"context"
	"fmt"

	"github.com/ondegooltd/sirahats-sub001/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoLeadRepository struct {
	collection *mongo.Collection
}

func NewMongoLeadRepository(db *mongo.Database) LeadRepository {
	return &mongoLeadRepository{collection: db.Collection("leads")}
}

func (m mongoLeadRepository) CreateLead(ctx context.Context, lead *domain.Lead) error {
	if _, err := m.collection.InsertOne(ctx, lead); err != nil {
		return fmt.Errorf("failed to insert lead: %w", err)
	}
	return nil
}

// ListLeads returns newest first; an empty kind lists every kind.
func (m mongoLeadRepository) ListLeads(ctx context.Context, kind domain.LeadKind, page domain.Pagination) ([]*domain.Lead, int64, error) {
	filter := bson.M{}
	if kind != "" {
		filter["kind"] = kind
	}

	total, err := m.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count leads: %w", err)
	}

	page = page.Normalize()
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Limit))

	cur, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query leads: %w", err)
	}
	leads := make([]*domain.Lead, 0)
	if err := cur.All(ctx, &leads); err != nil {
		return nil, 0, fmt.Errorf("failed to decode leads: %w", err)
	}
	return leads, total, nil
}
