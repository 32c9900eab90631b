package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ondegooltd/sirahats-sub001/internal/auth"
	"github.com/ondegooltd/sirahats-sub001/internal/domain"
	"github.com/ondegooltd/sirahats-sub001/internal/notify"
	"github.com/ondegooltd/sirahats-sub001/internal/repository"
)

type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Phone    string `json:"phone" validate:"omitempty,max=30"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ProfileInput struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=100"`
	Phone *string `json:"phone" validate:"omitempty,max=30"`
}

type SettingsInput struct {
	Newsletter   bool   `json:"newsletter"`
	OrderUpdates bool   `json:"order_updates"`
	Currency     string `json:"currency" validate:"required,len=3,alpha"`
}

type AuthResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
}

type TokenIssuer interface {
	Issue(user *domain.User) (string, time.Time, error)
}

type AccountService struct {
	users       repository.UserRepository
	products    repository.ProductRepository
	tokens      TokenIssuer
	notifier    Dispatcher
	currency    string
	adminEmails map[string]bool
	now         func() time.Time
}

func NewAccountService(
	users repository.UserRepository,
	products repository.ProductRepository,
	tokens TokenIssuer,
	notifier Dispatcher,
	currency string,
	adminEmails []string) *AccountService {

	admins := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		admins[normalizeEmail(e)] = true
	}
	return &AccountService{
		users:       users,
		products:    products,
		tokens:      tokens,
		notifier:    notifier,
		currency:    currency,
		adminEmails: admins,
		now:         time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a customer account, or an admin one for configured admin emails,
// and signs the caller in.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(in.Name),
		Email:        normalizeEmail(in.Email),
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: hash,
		Role:         domain.RoleCustomer,
		Settings:     domain.DefaultSettings(s.currency),
		Wishlist:     []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if s.adminEmails[user.Email] {
		user.Role = domain.RoleAdmin
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, fmt.Errorf("%w: email already registered", ErrConflict)
		}
		return nil, err
	}
	slog.InfoContext(ctx, "user registered", "user_id", user.ID, "role", user.Role)

	s.notifier.Dispatch(ctx, notify.Welcome(user))
	return s.issue(user)
}

func (s *AccountService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(in.Email))
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := auth.CheckPassword(user.PasswordHash, in.Password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

func (s *AccountService) issue(user *domain.User) (*AuthResult, error) {
	token, expires, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, ExpiresAt: expires, User: user}, nil
}

func (s *AccountService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	return s.userResult(s.users.GetUserByID(ctx, userID))
}

func (s *AccountService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*domain.User, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	update := domain.ProfileUpdate{Name: trimPtr(in.Name), Phone: trimPtr(in.Phone)}
	return s.userResult(s.users.UpdateProfile(ctx, userID, update))
}

func (s *AccountService) Settings(ctx context.Context, userID string) (*domain.Settings, error) {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &user.Settings, nil
}

func (s *AccountService) UpdateSettings(ctx context.Context, userID string, in SettingsInput) (*domain.Settings, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	user, err := s.userResult(s.users.UpdateSettings(ctx, userID, domain.Settings{
		Newsletter:   in.Newsletter,
		OrderUpdates: in.OrderUpdates,
		Currency:     strings.ToUpper(in.Currency),
	}))
	if err != nil {
		return nil, err
	}
	return &user.Settings, nil
}

// Wishlist resolves the stored product ids, skipping products that no longer exist
// or are inactive.
func (s *AccountService) Wishlist(ctx context.Context, userID string) ([]*domain.Product, error) {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.resolveWishlist(ctx, user.Wishlist)
}

func (s *AccountService) AddToWishlist(ctx context.Context, userID, productID string) ([]*domain.Product, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, invalid("product_id is required")
	}
	p, err := s.products.GetProduct(ctx, productID)
	if errors.Is(err, repository.ErrProductNotFound) || (err == nil && !p.Active) {
		return nil, notFound("product", productID)
	}
	if err != nil {
		return nil, err
	}

	user, err := s.userResult(s.users.AddToWishlist(ctx, userID, productID))
	if err != nil {
		return nil, err
	}
	return s.resolveWishlist(ctx, user.Wishlist)
}

func (s *AccountService) RemoveFromWishlist(ctx context.Context, userID, productID string) ([]*domain.Product, error) {
	user, err := s.userResult(s.users.RemoveFromWishlist(ctx, userID, productID))
	if err != nil {
		return nil, err
	}
	return s.resolveWishlist(ctx, user.Wishlist)
}

func (s *AccountService) resolveWishlist(ctx context.Context, ids []string) ([]*domain.Product, error) {
	byID, err := s.products.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve wishlist: %w", err)
	}
	products := make([]*domain.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok && p.Active {
			products = append(products, p)
		}
	}
	return products, nil
}

func (s *AccountService) userResult(user *domain.User, err error) (*domain.User, error) {
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, notFound("user", "")
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
