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

var sortableOrderFields = map[string]bool{
	"created_at":   true,
	"updated_at":   true,
	"total":        true,
	"order_number": true,
	"status":       true,
}

type mongoOrderRepository struct {
	collection *mongo.Collection
}

func NewMongoOrderRepository(db *mongo.Database) OrderRepository {
	return &mongoOrderRepository{collection: db.Collection("orders")}
}

func (r mongoOrderRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	if _, err := r.collection.InsertOne(ctx, order); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (r mongoOrderRepository) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	var order domain.Order
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query order by id: %w", err)
	}
	return &order, nil
}

func orderFilterDoc(f domain.OrderFilter) bson.M {
	filter := bson.M{}
	if f.UserID != "" {
		filter["user_id"] = f.UserID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Search != "" {
		match := containsInsensitive(f.Search)
		filter["$or"] = bson.A{
			bson.M{"order_number": match},
			bson.M{"shipping_address.full_name": match},
			bson.M{"shipping_address.email": match},
		}
	}
	return filter
}

func (r mongoOrderRepository) ListOrders(ctx context.Context, f domain.OrderFilter) ([]*domain.Order, int64, error) {
	filter := orderFilterDoc(f)

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	page := f.Pagination.Normalize()
	opts := options.Find().
		SetSort(sortDoc(f.Sort, sortableOrderFields)).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Limit))

	cur, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query orders: %w", err)
	}

	orders := make([]*domain.Order, 0)
	if err := cur.All(ctx, &orders); err != nil {
		return nil, 0, fmt.Errorf("failed to decode orders: %w", err)
	}
	return orders, total, nil
}

func (r mongoOrderRepository) UpdateOrder(
	ctx context.Context,
	id string,
	expected domain.OrderStatus,
	update domain.OrderUpdate) (*domain.Order, error) {

	set := bson.M{"updated_at": time.Now().UTC()}
	if update.Status != nil {
		set["status"] = *update.Status
	}
	if update.TrackingNumber != nil {
		set["tracking_number"] = *update.TrackingNumber
	}
	if update.Notes != nil {
		set["notes"] = *update.Notes
	}
	if update.EstimatedDelivery != nil {
		set["estimated_delivery"] = update.EstimatedDelivery.UTC()
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var order domain.Order
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": expected},
		bson.M{"$set": set},
		opts,
	).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, r.missOrConflict(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}
	return &order, nil
}

func (r mongoOrderRepository) MarkOrderPaid(ctx context.Context, id string, payment domain.PaymentConfirmation) (bool, error) {
	filter := bson.M{
		"_id":            id,
		"payment_status": bson.M{"$ne": domain.PaymentStatusPaid},
	}
	// Pipeline form so the status only advances when it is still pending; the
	// payment fields are stamped whatever the fulfilment status.
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"status": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$status", domain.OrderStatusPending}},
				domain.OrderStatusProcessing,
				"$status",
			}},
			"payment_status":    domain.PaymentStatusPaid,
			"payment_reference": bson.M{"$literal": payment.Reference},
			"payment_amount":    payment.Amount,
			"paid_at":           payment.PaidAt.UTC(),
			"updated_at":        time.Now().UTC(),
		}}},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to mark order paid: %w", err)
	}
	if result.MatchedCount == 1 {
		return true, nil
	}

	if err := r.missOrConflict(ctx, id); errors.Is(err, ErrOrderNotFound) {
		return false, err
	}
	return false, nil
}

// missOrConflict tells a missing order apart from one whose state no longer matched.
func (r mongoOrderRepository) missOrConflict(ctx context.Context, id string) error {
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to count order: %w", err)
	}
	if n == 0 {
		return ErrOrderNotFound
	}
	return ErrOrderConflict
}

func (r mongoOrderRepository) DeleteOrder(ctx context.Context, id string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}
