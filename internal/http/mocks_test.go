package http

import (
	"context"
	"sync"

	"github.com/ondegooltd/sirahats-sub001/internal/auth"
	"github.com/ondegooltd/sirahats-sub001/internal/domain"
	"github.com/ondegooltd/sirahats-sub001/internal/payment"
	"github.com/ondegooltd/sirahats-sub001/internal/service"
)

type stubTokens map[string]auth.Identity

func (s stubTokens) Parse(token string) (auth.Identity, error) {
	id, ok := s[token]
	if !ok {
		return auth.Identity{}, auth.ErrInvalidToken
	}
	return id, nil
}

var testTokens = stubTokens{
	"customer-token": {UserID: "u1", Email: "u1@example.com", Role: domain.RoleCustomer},
	"admin-token":    {UserID: "admin", Email: "admin@example.com", Role: domain.RoleAdmin},
}

type CartMock struct {
	m         sync.Mutex
	cart      *domain.CartView
	err       error
	userID    string
	productID string
	quantity  int
}

func (c *CartMock) record(userID, productID string, quantity int) (*domain.CartView, error) {
	c.m.Lock()
	defer c.m.Unlock()
	c.userID, c.productID, c.quantity = userID, productID, quantity
	if c.err != nil {
		return nil, c.err
	}
	return c.cart, nil
}

func (c *CartMock) GetCart(_ context.Context, userID string) (*domain.CartView, error) {
	return c.record(userID, "", 0)
}

func (c *CartMock) AddItem(_ context.Context, userID, productID string, quantity int) (*domain.CartView, error) {
	return c.record(userID, productID, quantity)
}

func (c *CartMock) SetItemQuantity(_ context.Context, userID, productID string, quantity int) (*domain.CartView, error) {
	return c.record(userID, productID, quantity)
}

func (c *CartMock) RemoveItem(_ context.Context, userID, productID string) (*domain.CartView, error) {
	return c.record(userID, productID, 0)
}

func (c *CartMock) Clear(_ context.Context, userID string) error {
	_, err := c.record(userID, "", 0)
	return err
}

type OrdersMock struct {
	m      sync.Mutex
	order  *domain.Order
	page   *service.Page[*domain.Order]
	err    error
	filter domain.OrderFilter
	update service.AdminOrderUpdate
	caller auth.Identity
}

func (o *OrdersMock) CreateOrder(_ context.Context, _ string, _ service.CreateOrderInput) (*domain.Order, error) {
	if o.err != nil {
		return nil, o.err
	}
	return o.order, nil
}

func (o *OrdersMock) GetOrder(_ context.Context, caller auth.Identity, _ string) (*domain.Order, error) {
	o.m.Lock()
	o.caller = caller
	o.m.Unlock()
	if o.err != nil {
		return nil, o.err
	}
	return o.order, nil
}

func (o *OrdersMock) ListUserOrders(_ context.Context, userID string, page domain.Pagination) (*service.Page[*domain.Order], error) {
	return o.ListOrders(context.Background(), domain.OrderFilter{UserID: userID, Pagination: page})
}

func (o *OrdersMock) ListOrders(_ context.Context, filter domain.OrderFilter) (*service.Page[*domain.Order], error) {
	o.m.Lock()
	o.filter = filter
	o.m.Unlock()
	if o.err != nil {
		return nil, o.err
	}
	return o.page, nil
}

func (o *OrdersMock) UpdateOrder(_ context.Context, _ string, in service.AdminOrderUpdate) (*domain.Order, error) {
	o.m.Lock()
	o.update = in
	o.m.Unlock()
	if o.err != nil {
		return nil, o.err
	}
	return o.order, nil
}

func (o *OrdersMock) DeleteOrder(context.Context, string) error {
	return o.err
}

type PaymentsMock struct {
	authz  *payment.Authorization
	verify *payment.Verification
	err    error
	input  service.InitializePaymentInput
}

func (p *PaymentsMock) Initialize(_ context.Context, _ auth.Identity, in service.InitializePaymentInput) (*payment.Authorization, error) {
	p.input = in
	if p.err != nil {
		return nil, p.err
	}
	return p.authz, nil
}

func (p *PaymentsMock) Verify(context.Context, auth.Identity, string) (*payment.Verification, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.verify, nil
}

type WebhooksMock struct {
	body      []byte
	signature string
	result    *service.WebhookResult
	err       error
}

func (h *WebhooksMock) Handle(_ context.Context, body []byte, signature string) (*service.WebhookResult, error) {
	h.body, h.signature = body, signature
	if h.err != nil {
		return nil, h.err
	}
	return h.result, nil
}

type CatalogMock struct {
	filter   domain.ProductFilter
	product  *domain.Product
	page     *service.Page[*domain.Product]
	inactive bool
	err      error
}

func (c *CatalogMock) ListProducts(_ context.Context, f domain.ProductFilter) (*service.Page[*domain.Product], error) {
	c.filter = f
	return c.page, c.err
}

func (c *CatalogMock) GetProduct(_ context.Context, _ string, includeInactive bool) (*domain.Product, error) {
	c.inactive = includeInactive
	return c.product, c.err
}

func (c *CatalogMock) CreateProduct(context.Context, service.ProductInput) (*domain.Product, error) {
	return c.product, c.err
}

func (c *CatalogMock) UpdateProduct(context.Context, string, service.ProductInput) (*domain.Product, error) {
	return c.product, c.err
}

func (c *CatalogMock) DeleteProduct(context.Context, string) error { return c.err }

func (c *CatalogMock) ListCollections(context.Context) ([]*domain.Collection, error) {
	return []*domain.Collection{}, c.err
}

func (c *CatalogMock) GetCollection(context.Context, string, domain.Pagination) (*service.CollectionDetail, error) {
	return nil, c.err
}

func (c *CatalogMock) CreateCollection(context.Context, service.CollectionInput) (*domain.Collection, error) {
	return nil, c.err
}

func (c *CatalogMock) DeleteCollection(context.Context, string) error { return c.err }

type AccountsMock struct {
	result *service.AuthResult
	err    error
}

func (a *AccountsMock) Register(context.Context, service.RegisterInput) (*service.AuthResult, error) {
	return a.result, a.err
}

func (a *AccountsMock) Login(context.Context, service.LoginInput) (*service.AuthResult, error) {
	return a.result, a.err
}

func (a *AccountsMock) Profile(context.Context, string) (*domain.User, error) {
	if a.err != nil {
		return nil, a.err
	}
	return a.result.User, nil
}

func (a *AccountsMock) UpdateProfile(ctx context.Context, userID string, _ service.ProfileInput) (*domain.User, error) {
	return a.Profile(ctx, userID)
}

func (a *AccountsMock) Settings(context.Context, string) (*domain.Settings, error) {
	if a.err != nil {
		return nil, a.err
	}
	return &a.result.User.Settings, nil
}

func (a *AccountsMock) UpdateSettings(ctx context.Context, userID string, _ service.SettingsInput) (*domain.Settings, error) {
	return a.Settings(ctx, userID)
}

func (a *AccountsMock) Wishlist(context.Context, string) ([]*domain.Product, error) {
	return []*domain.Product{}, a.err
}

func (a *AccountsMock) AddToWishlist(context.Context, string, string) ([]*domain.Product, error) {
	return []*domain.Product{}, a.err
}

func (a *AccountsMock) RemoveFromWishlist(context.Context, string, string) ([]*domain.Product, error) {
	return []*domain.Product{}, a.err
}

type LeadsMock struct {
	kind domain.LeadKind
	err  error
}

func (l *LeadsMock) SubmitContact(_ context.Context, in service.ContactInput) (*domain.Lead, error) {
	if l.err != nil {
		return nil, l.err
	}
	return &domain.Lead{ID: "l1", Kind: domain.LeadKindContact, Email: in.Email}, nil
}

func (l *LeadsMock) SubmitWholesale(_ context.Context, in service.WholesaleInput) (*domain.Lead, error) {
	if l.err != nil {
		return nil, l.err
	}
	return &domain.Lead{ID: "l2", Kind: domain.LeadKindWholesale, Email: in.Email}, nil
}

func (l *LeadsMock) ListLeads(_ context.Context, kind domain.LeadKind, page domain.Pagination) (*service.Page[*domain.Lead], error) {
	l.kind = kind
	if l.err != nil {
		return nil, l.err
	}
	return &service.Page[*domain.Lead]{Items: []*domain.Lead{}, Pagination: domain.NewPageInfo(page, 0)}, nil
}

type HealthMock struct{ err error }

func (h HealthMock) Ping(context.Context) error { return h.err }
