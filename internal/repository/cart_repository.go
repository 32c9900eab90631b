package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ondegooltd/sirahats-sub001/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// upserts racing on the unique user_id index are retried this many times
const maxLineAttempts = 3

type mongoCartRepository struct {
	collection *mongo.Collection
}

func NewMongoCartRepository(db *mongo.Database) CartRepository {
	return &mongoCartRepository{
		collection: db.Collection("carts"),
	}
}

func (m mongoCartRepository) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	var cart domain.Cart

	filter := bson.M{"user_id": userID}
	err := m.collection.FindOne(ctx, filter).Decode(&cart)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return &cart, nil
}

// AddItem increments the line for productID, appending it (and creating the cart)
// when absent.
func (m mongoCartRepository) AddItem(ctx context.Context, userID, productID string, quantity int) error {
	return m.upsertLine(ctx, userID, productID, quantity, func(now time.Time) bson.M {
		return bson.M{
			"$inc": bson.M{"items.$.quantity": quantity},
			"$set": bson.M{"updated_at": now},
		}
	})
}

// SetItemQuantity replaces the line's quantity, appending the line when absent.
// Callers route quantity <= 0 to RemoveItem.
func (m mongoCartRepository) SetItemQuantity(ctx context.Context, userID, productID string, quantity int) error {
	return m.upsertLine(ctx, userID, productID, quantity, func(now time.Time) bson.M {
		return bson.M{
			"$set": bson.M{"items.$.quantity": quantity, "updated_at": now},
		}
	})
}

func (m mongoCartRepository) upsertLine(
	ctx context.Context,
	userID, productID string,
	quantity int,
	existingUpdate func(time.Time) bson.M) error {

	for attempt := 0; attempt < maxLineAttempts; attempt++ {
		now := time.Now().UTC()

		// Line already present: modify it in place.
		result, err := m.collection.UpdateOne(ctx,
			bson.M{"user_id": userID, "items.product_id": productID},
			existingUpdate(now),
		)
		if err != nil {
			return fmt.Errorf("failed to update existing item: %w", err)
		}
		if result.MatchedCount > 0 {
			return nil
		}

		// Line absent: push it, inserting the cart document if there is none.
		item := domain.CartItem{ProductID: productID, Quantity: quantity, AddedAt: now}
		_, err = m.collection.UpdateOne(ctx,
			bson.M{"user_id": userID, "items.product_id": bson.M{"$ne": productID}},
			bson.M{
				"$push":        bson.M{"items": item},
				"$set":         bson.M{"updated_at": now},
				"$setOnInsert": bson.M{"created_at": now},
			},
			options.Update().SetUpsert(true),
		)
		if err == nil {
			return nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("failed to add new item: %w", err)
		}
		// another writer created the cart or the line in between; go again
	}

	return fmt.Errorf("failed to add item to cart for user %s after %d attempts", userID, maxLineAttempts)
}

func (m mongoCartRepository) RemoveItem(ctx context.Context, userID, productID string) error {
	filter := bson.M{"user_id": userID, "items.product_id": productID}
	update := bson.M{
		"$pull": bson.M{
			"items": bson.M{"product_id": productID},
		},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}

	if _, err := m.collection.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to remove item: %w", err)
	}

	return nil
}

func (m mongoCartRepository) DeleteCart(ctx context.Context, userID string) error {
	filter := bson.M{"user_id": userID}

	result, err := m.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrCartNotFound
	}

	return nil
}
