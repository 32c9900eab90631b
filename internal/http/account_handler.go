package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ondegooltd/sirahats-sub001/internal/domain"
	"github.com/ondegooltd/sirahats-sub001/internal/service"
)

type AccountService interface {
	Register(ctx context.Context, in service.RegisterInput) (*service.AuthResult, error)
	Login(ctx context.Context, in service.LoginInput) (*service.AuthResult, error)
	Profile(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, in service.ProfileInput) (*domain.User, error)
	Settings(ctx context.Context, userID string) (*domain.Settings, error)
	UpdateSettings(ctx context.Context, userID string, in service.SettingsInput) (*domain.Settings, error)
	Wishlist(ctx context.Context, userID string) ([]*domain.Product, error)
	AddToWishlist(ctx context.Context, userID, productID string) ([]*domain.Product, error)
	RemoveFromWishlist(ctx context.Context, userID, productID string) ([]*domain.Product, error)
}

type AccountHandler struct {
	accounts AccountService
	timeout  time.Duration
}

func NewAccountHandler(accounts AccountService, timeout time.Duration) *AccountHandler {
	return &AccountHandler{accounts: accounts, timeout: timeout}
}

type WishlistRequestDTO struct {
	ProductID string `json:"product_id"`
}

type WishlistResponse struct {
	Products []*domain.Product `json:"products"`
}

// POST /api/v1/auth/register
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req service.RegisterInput
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	res, err := h.accounts.Register(ctx, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, res)
}

// POST /api/v1/auth/login
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req service.LoginInput
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	res, err := h.accounts.Login(ctx, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// GET /api/v1/account/profile
func (h *AccountHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := identity(r).UserID
	user, err := h.accounts.Profile(ctx, userID)
	if err != nil {
		handleServiceError(w, r, err, "user_id", userID)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// PUT /api/v1/account/profile
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := identity(r).UserID
	var req service.ProfileInput
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, err, "user_id", userID)
		return
	}
	user, err := h.accounts.UpdateProfile(ctx, userID, req)
	if err != nil {
		handleServiceError(w, r, err, "user_id", userID)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// GET /api/v1/account/settings
func (h *AccountHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := identity(r).UserID
	settings, err := h.accounts.Settings(ctx, userID)
	if err != nil {
		handleServiceError(w, r, err, "user_id", userID)
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

// PUT /api/v1/account/settings
func (h *AccountHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := identity(r).UserID
	var req service.SettingsInput
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, err, "user_id", userID)
		return
	}
	settings, err := h.accounts.UpdateSettings(ctx, userID, req)
	if err != nil {
		handleServiceError(w, r, err, "user_id", userID)
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

// GET /api/v1/account/wishlist
func (h *AccountHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := identity(r).UserID
	products, err := h.accounts.Wishlist(ctx, userID)
	if err != nil {
		handleServiceError(w, r, err, "user_id", userID)
		return
	}
	respondJSON(w, http.StatusOK, &WishlistResponse{Products: products})
}

// POST /api/v1/account/wishlist
func (h *AccountHandler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := identity(r).UserID
	var req WishlistRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, err, "user_id", userID)
		return
	}
	products, err := h.accounts.AddToWishlist(ctx, userID, req.ProductID)
	if err != nil {
		handleServiceError(w, r, err, "user_id", userID, "product_id", req.ProductID)
		return
	}
	respondJSON(w, http.StatusOK, &WishlistResponse{Products: products})
}

// DELETE /api/v1/account/wishlist/{product_id}
func (h *AccountHandler) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := identity(r).UserID
	productID := chi.URLParam(r, "product_id")
	products, err := h.accounts.RemoveFromWishlist(ctx, userID, productID)
	if err != nil {
		handleServiceError(w, r, err, "user_id", userID, "product_id", productID)
		return
	}
	respondJSON(w, http.StatusOK, &WishlistResponse{Products: products})
}
