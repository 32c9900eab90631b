package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectMongoDB opens the process-wide client pool once at start-up. Callers own the
// returned database and must disconnect its client on shutdown.
func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

// Store bundles the collection-scoped repositories over one database handle.
type Store struct {
	db          *mongo.Database
	Carts       CartRepository
	Products    ProductRepository
	Collections CollectionRepository
	Orders      OrderRepository
	Webhooks    WebhookRepository
	Users       UserRepository
	Leads       LeadRepository
}

func NewStore(db *mongo.Database) *Store {
	return &Store{
		db:          db,
		Carts:       NewMongoCartRepository(db),
		Products:    NewMongoProductRepository(db),
		Collections: NewMongoCollectionRepository(db),
		Orders:      NewMongoOrderRepository(db),
		Webhooks:    NewMongoWebhookRepository(db),
		Users:       NewMongoUserRepository(db),
		Leads:       NewMongoLeadRepository(db),
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}

func (s *Store) Close(ctx context.Context) error {
	return s.db.Client().Disconnect(ctx)
}
