package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ondegooltd/sirahats-sub001/internal/cache"
	"github.com/ondegooltd/sirahats-sub001/internal/domain"
	"github.com/ondegooltd/sirahats-sub001/internal/repository"
	"golang.org/x/sync/singleflight"
)

type CartService struct {
	repo     repository.CartRepository
	products repository.ProductRepository
	cache    cache.CartCache
	sfg      singleflight.Group // Prevents cache stampede
}

func NewCartService(
	repo repository.CartRepository,
	products repository.ProductRepository,
	cache cache.CartCache) *CartService {

	return &CartService{
		repo:     repo,
		products: products,
		cache:    cache,
	}
}

// GetCart returns the caller's cart resolved against the current catalog. A user
// without a cart gets an empty one.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.CartView, error) {
	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, cart)
}

func (s *CartService) loadCart(ctx context.Context, userID string) (*domain.Cart, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			slog.WarnContext(ctx, "cache get error", "user_id", userID, "error", err)
		}

		// read the version first so a write that lands during the load wins
		version, verr := s.cache.Version(ctx, userID)

		cart, err = s.repo.GetCart(ctx, userID)
		if errors.Is(err, repository.ErrCartNotFound) {
			return emptyCart(userID), nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load cart: %w", err)
		}

		if verr != nil {
			slog.WarnContext(ctx, "cache version error", "user_id", userID, "error", verr)
		} else {
			s.fillCache(ctx, userID, cart, version)
		}
		return cart, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Cart), nil
}

// Snapshot reads the stored cart straight from the database, bypassing the cache.
func (s *CartService) Snapshot(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.repo.GetCart(ctx, userID)
	if errors.Is(err, repository.ErrCartNotFound) {
		return emptyCart(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return cart, nil
}

// AddItem increments the product's line by quantity, creating the line or the cart
// as needed.
func (s *CartService) AddItem(ctx context.Context, userID, productID string, quantity int) (*domain.CartView, error) {
	if quantity < 1 {
		return nil, invalid("quantity must be at least 1")
	}
	if err := s.requireProduct(ctx, productID); err != nil {
		return nil, err
	}

	if err := s.repo.AddItem(ctx, userID, productID, quantity); err != nil {
		slog.ErrorContext(ctx, "repo add item error", "user_id", userID, "product_id", productID, "error", err)
		return nil, err
	}

	s.invalidateCache(userID)
	return s.current(ctx, userID)
}

// SetItemQuantity replaces the line's quantity; quantity <= 0 removes the line.
func (s *CartService) SetItemQuantity(ctx context.Context, userID, productID string, quantity int) (*domain.CartView, error) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, userID, productID)
	}
	if err := s.requireProduct(ctx, productID); err != nil {
		return nil, err
	}

	if err := s.repo.SetItemQuantity(ctx, userID, productID, quantity); err != nil {
		slog.ErrorContext(ctx, "repo set item quantity error", "user_id", userID, "product_id", productID, "error", err)
		return nil, err
	}

	s.invalidateCache(userID)
	return s.current(ctx, userID)
}

func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*domain.CartView, error) {
	if err := s.repo.RemoveItem(ctx, userID, productID); err != nil {
		slog.ErrorContext(ctx, "repo remove item error", "user_id", userID, "product_id", productID, "error", err)
		return nil, err
	}

	s.invalidateCache(userID)
	return s.current(ctx, userID)
}

// Clear deletes the cart document. Clearing a missing cart succeeds.
func (s *CartService) Clear(ctx context.Context, userID string) error {
	err := s.repo.DeleteCart(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrCartNotFound) {
		slog.ErrorContext(ctx, "repo delete cart error", "user_id", userID, "error", err)
		return err
	}

	s.invalidateCache(userID)
	return nil
}

func (s *CartService) current(ctx context.Context, userID string) (*domain.CartView, error) {
	cart, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, cart)
}

func (s *CartService) resolve(ctx context.Context, cart *domain.Cart) (*domain.CartView, error) {
	ids := make([]string, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cart products: %w", err)
	}
	return domain.ResolveCart(cart, products), nil
}

func (s *CartService) requireProduct(ctx context.Context, productID string) error {
	p, err := s.products.GetProduct(ctx, productID)
	if errors.Is(err, repository.ErrProductNotFound) {
		return notFound("product", productID)
	}
	if err != nil {
		return err
	}
	if !p.Active {
		return notFound("product", productID)
	}
	return nil
}

// fillCache completes before the read returns. The write is skipped by the cache
// when the cart was invalidated after version was taken.
func (s *CartService) fillCache(ctx context.Context, userID string, cart *domain.Cart, version int64) {
	setCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := s.cache.Set(setCtx, userID, cart, version); err != nil {
		slog.WarnContext(ctx, "cache set error", "user_id", userID, "error", err)
	}
}

func (s *CartService) invalidateCache(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		slog.Warn("cache invalidate error", "user_id", userID, "error", err)
	}
}

func emptyCart(userID string) *domain.Cart {
	now := time.Now().UTC()
	return &domain.Cart{
		UserID:    userID,
		Items:     []domain.CartItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}
