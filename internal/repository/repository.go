package repository

import (
	"context"
	"errors"

	"github.com/ondegooltd/sirahats-sub001/internal/domain"
)

var (
	ErrCartNotFound       = errors.New("cart not found")
	ErrProductNotFound    = errors.New("product not found")
	ErrCollectionNotFound = errors.New("collection not found")
	ErrDuplicateSlug      = errors.New("slug already exists")
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderConflict      = errors.New("order was modified concurrently")
	ErrDuplicateWebhook   = errors.New("webhook event already recorded")
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateEmail     = errors.New("email already registered")
)

// CartRepository defines the interface for cart data operations.
// Quantity changes are applied server-side so concurrent writers never lose updates.
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	AddItem(ctx context.Context, userID, productID string, quantity int) error
	SetItemQuantity(ctx context.Context, userID, productID string, quantity int) error
	RemoveItem(ctx context.Context, userID, productID string) error
	DeleteCart(ctx context.Context, userID string) error
}

type ProductRepository interface {
	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, int64, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error)
	// GetProductsByIDs resolves references in one round trip; missing ids are absent from the map.
	GetProductsByIDs(ctx context.Context, ids []string) (map[string]*domain.Product, error)
	CreateProduct(ctx context.Context, p *domain.Product) error
	UpdateProduct(ctx context.Context, p *domain.Product) error
	DeleteProduct(ctx context.Context, id string) error
}

type CollectionRepository interface {
	ListCollections(ctx context.Context) ([]*domain.Collection, error)
	GetCollectionBySlug(ctx context.Context, slug string) (*domain.Collection, error)
	CreateCollection(ctx context.Context, c *domain.Collection) error
	DeleteCollection(ctx context.Context, id string) error
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrderByID(ctx context.Context, id string) (*domain.Order, error)
	ListOrders(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, int64, error)
	// UpdateOrder applies the update only if the stored status still equals expected.
	UpdateOrder(ctx context.Context, id string, expected domain.OrderStatus, update domain.OrderUpdate) (*domain.Order, error)
	// MarkOrderPaid stamps the payment on an unpaid order and moves it from pending
	// to processing; any other status is left alone. It reports false when the order
	// was already paid.
	MarkOrderPaid(ctx context.Context, id string, payment domain.PaymentConfirmation) (bool, error)
	DeleteOrder(ctx context.Context, id string) error
}

type WebhookRepository interface {
	// InsertWebhook returns ErrDuplicateWebhook when (event, reference) was already stored.
	InsertWebhook(ctx context.Context, record *domain.WebhookRecord) error
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) (*domain.User, error)
	UpdateSettings(ctx context.Context, id string, settings domain.Settings) (*domain.User, error)
	AddToWishlist(ctx context.Context, id, productID string) (*domain.User, error)
	RemoveFromWishlist(ctx context.Context, id, productID string) (*domain.User, error)
}

type LeadRepository interface {
	CreateLead(ctx context.Context, lead *domain.Lead) error
	ListLeads(ctx context.Context, kind domain.LeadKind, page domain.Pagination) ([]*domain.Lead, int64, error)
}
