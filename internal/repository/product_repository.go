package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/ondegooltd/sirahats-sub001/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var sortableProductFields = map[string]bool{
	"created_at": true,
	"price":      true,
	"name":       true,
}

type mongoProductRepository struct {
	collection *mongo.Collection
}

func NewMongoProductRepository(db *mongo.Database) ProductRepository {
	return &mongoProductRepository{collection: db.Collection("products")}
}

func productFilterDoc(f domain.ProductFilter) bson.M {
	filter := bson.M{}
	if f.ActiveOnly {
		filter["active"] = true
	}
	if f.Query != "" {
		filter["name"] = containsInsensitive(f.Query)
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Collection != "" {
		filter["collection"] = f.Collection
	}
	price := bson.M{}
	if f.MinPrice != nil {
		price["$gte"] = *f.MinPrice
	}
	if f.MaxPrice != nil {
		price["$lte"] = *f.MaxPrice
	}
	if len(price) > 0 {
		filter["price"] = price
	}
	return filter
}

func sortDoc(spec domain.SortSpec, allowed map[string]bool) bson.D {
	field := spec.Field
	if !allowed[field] {
		field = "created_at"
	}
	dir := 1
	if spec.Descending {
		dir = -1
	}
	return bson.D{{Key: field, Value: dir}, {Key: "_id", Value: dir}}
}

func (m mongoProductRepository) ListProducts(ctx context.Context, f domain.ProductFilter) ([]*domain.Product, int64, error) {
	filter := productFilterDoc(f)

	total, err := m.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	page := f.Pagination.Normalize()
	opts := options.Find().
		SetSort(sortDoc(f.Sort, sortableProductFields)).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Limit))

	cur, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query products: %w", err)
	}

	products := make([]*domain.Product, 0)
	if err := cur.All(ctx, &products); err != nil {
		return nil, 0, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, total, nil
}

func (m mongoProductRepository) findOne(ctx context.Context, filter bson.M) (*domain.Product, error) {
	var p domain.Product
	if err := m.collection.FindOne(ctx, filter).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

func (m mongoProductRepository) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return m.findOne(ctx, bson.M{"_id": id})
}

func (m mongoProductRepository) GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return m.findOne(ctx, bson.M{"slug": slug})
}

func (m mongoProductRepository) GetProductsByIDs(ctx context.Context, ids []string) (map[string]*domain.Product, error) {
	result := make(map[string]*domain.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	cur, err := m.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to query products by id: %w", err)
	}
	var products []*domain.Product
	if err := cur.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	for _, p := range products {
		result[p.ID] = p
	}
	return result, nil
}

func (m mongoProductRepository) CreateProduct(ctx context.Context, p *domain.Product) error {
	if _, err := m.collection.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

func (m mongoProductRepository) UpdateProduct(ctx context.Context, p *domain.Product) error {
	result, err := m.collection.ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("failed to update product: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (m mongoProductRepository) DeleteProduct(ctx context.Context, id string) error {
	result, err := m.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

type mongoCollectionRepository struct {
	collection *mongo.Collection
}

func NewMongoCollectionRepository(db *mongo.Database) CollectionRepository {
	return &mongoCollectionRepository{collection: db.Collection("collections")}
}

func (m mongoCollectionRepository) ListCollections(ctx context.Context) ([]*domain.Collection, error) {
	cur, err := m.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query collections: %w", err)
	}
	collections := make([]*domain.Collection, 0)
	if err := cur.All(ctx, &collections); err != nil {
		return nil, fmt.Errorf("failed to decode collections: %w", err)
	}
	return collections, nil
}

func (m mongoCollectionRepository) GetCollectionBySlug(ctx context.Context, slug string) (*domain.Collection, error) {
	var c domain.Collection
	if err := m.collection.FindOne(ctx, bson.M{"slug": slug}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCollectionNotFound
		}
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}
	return &c, nil
}

func (m mongoCollectionRepository) CreateCollection(ctx context.Context, c *domain.Collection) error {
	if _, err := m.collection.InsertOne(ctx, c); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("failed to insert collection: %w", err)
	}
	return nil
}

func (m mongoCollectionRepository) DeleteCollection(ctx context.Context, id string) error {
	result, err := m.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrCollectionNotFound
	}
	return nil
}

// containsInsensitive builds a case-insensitive substring match for user input.
func containsInsensitive(q string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(q), "$options": "i"}
}
