package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ondegooltd/sirahats-sub001/internal/cache"
	"github.com/ondegooltd/sirahats-sub001/internal/domain"
	"github.com/ondegooltd/sirahats-sub001/internal/notify"
	"github.com/ondegooltd/sirahats-sub001/internal/payment"
	"github.com/ondegooltd/sirahats-sub001/internal/repository"
)

type mockCartRepository struct {
	m     sync.RWMutex
	carts map[string]*domain.Cart
	gets  int
	err   error
}

func newMockCartRepository() *mockCartRepository {
	return &mockCartRepository{carts: map[string]*domain.Cart{}}
}

func (m *mockCartRepository) GetCart(_ context.Context, userID string) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.gets++
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.carts[userID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	cp := *c
	cp.Items = append([]domain.CartItem{}, c.Items...)
	return &cp, nil
}

func (m *mockCartRepository) line(userID, productID string) (*domain.Cart, int) {
	c, ok := m.carts[userID]
	if !ok {
		c = &domain.Cart{UserID: userID, Items: []domain.CartItem{}, CreatedAt: time.Now()}
		m.carts[userID] = c
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return c, i
		}
	}
	c.Items = append(c.Items, domain.CartItem{ProductID: productID, AddedAt: time.Now()})
	return c, len(c.Items) - 1
}

func (m *mockCartRepository) AddItem(_ context.Context, userID, productID string, quantity int) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	c, i := m.line(userID, productID)
	c.Items[i].Quantity += quantity
	return nil
}

func (m *mockCartRepository) SetItemQuantity(_ context.Context, userID, productID string, quantity int) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	c, i := m.line(userID, productID)
	c.Items[i].Quantity = quantity
	return nil
}

func (m *mockCartRepository) RemoveItem(_ context.Context, userID, productID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	c, ok := m.carts[userID]
	if !ok {
		return nil
	}
	for i, item := range c.Items {
		if item.ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *mockCartRepository) DeleteCart(_ context.Context, userID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.carts[userID]; !ok {
		return repository.ErrCartNotFound
	}
	delete(m.carts, userID)
	return nil
}

func (m *mockCartRepository) getCalls() int {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.gets
}

type mockCache struct {
	m       sync.RWMutex
	cart    *domain.Cart
	version int64
	err     error

	// when set, Set signals setStarted and waits for release before storing
	setStarted chan struct{}
	release    chan struct{}
}

func (m *mockCache) Get(context.Context, string) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		return nil, cache.ErrCacheMiss
	}
	return m.cart, nil
}

func (m *mockCache) Version(context.Context, string) (int64, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.version, m.err
}

func (m *mockCache) Set(_ context.Context, _ string, cart *domain.Cart, version int64) error {
	if m.release != nil {
		m.setStarted <- struct{}{}
		<-m.release
	}
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if version == m.version {
		m.cart = cart
	}
	return nil
}

func (m *mockCache) Delete(context.Context, string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.cart = nil
	m.version++
	return m.err
}

func (m *mockCache) getCart() *domain.Cart {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.cart
}

type mockProductRepository struct {
	m        sync.RWMutex
	products map[string]*domain.Product
	err      error
}

func newMockProductRepository(products ...*domain.Product) *mockProductRepository {
	m := &mockProductRepository{products: map[string]*domain.Product{}}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockProductRepository) ListProducts(_ context.Context, f domain.ProductFilter) ([]*domain.Product, int64, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, 0, m.err
	}
	out := make([]*domain.Product, 0)
	for _, p := range m.products {
		if f.ActiveOnly && !p.Active {
			continue
		}
		if f.Collection != "" && p.Collection != f.Collection {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (m *mockProductRepository) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

func (m *mockProductRepository) GetProductBySlug(_ context.Context, slug string) (*domain.Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	for _, p := range m.products {
		if p.Slug == slug {
			return p, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (m *mockProductRepository) GetProductsByIDs(_ context.Context, ids []string) (map[string]*domain.Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string]*domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (m *mockProductRepository) CreateProduct(_ context.Context, p *domain.Product) error {
	m.m.Lock()
	defer m.m.Unlock()
	for _, existing := range m.products {
		if existing.Slug == p.Slug {
			return repository.ErrDuplicateSlug
		}
	}
	m.products[p.ID] = p
	return nil
}

func (m *mockProductRepository) UpdateProduct(_ context.Context, p *domain.Product) error {
	m.m.Lock()
	defer m.m.Unlock()
	if _, ok := m.products[p.ID]; !ok {
		return repository.ErrProductNotFound
	}
	m.products[p.ID] = p
	return nil
}

func (m *mockProductRepository) DeleteProduct(_ context.Context, id string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

type mockCollectionRepository struct {
	m           sync.RWMutex
	collections map[string]*domain.Collection
}

func (m *mockCollectionRepository) ListCollections(context.Context) ([]*domain.Collection, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	out := make([]*domain.Collection, 0, len(m.collections))
	for _, c := range m.collections {
		out = append(out, c)
	}
	return out, nil
}

func (m *mockCollectionRepository) GetCollectionBySlug(_ context.Context, slug string) (*domain.Collection, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	for _, c := range m.collections {
		if c.Slug == slug {
			return c, nil
		}
	}
	return nil, repository.ErrCollectionNotFound
}

func (m *mockCollectionRepository) CreateCollection(_ context.Context, c *domain.Collection) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.collections == nil {
		m.collections = map[string]*domain.Collection{}
	}
	for _, existing := range m.collections {
		if existing.Slug == c.Slug {
			return repository.ErrDuplicateSlug
		}
	}
	m.collections[c.ID] = c
	return nil
}

func (m *mockCollectionRepository) DeleteCollection(_ context.Context, id string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if _, ok := m.collections[id]; !ok {
		return repository.ErrCollectionNotFound
	}
	delete(m.collections, id)
	return nil
}

// mockOrderRepository mirrors the conditional writes of the real store.
type mockOrderRepository struct {
	m      sync.RWMutex
	orders map[string]*domain.Order
	err    error
}

func newMockOrderRepository(orders ...*domain.Order) *mockOrderRepository {
	m := &mockOrderRepository{orders: map[string]*domain.Order{}}
	for _, o := range orders {
		m.orders[o.ID] = o
	}
	return m
}

func (m *mockOrderRepository) CreateOrder(_ context.Context, order *domain.Order) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	cp := *order
	m.orders[order.ID] = &cp
	return nil
}

func (m *mockOrderRepository) GetOrderByID(_ context.Context, id string) (*domain.Order, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepository) ListOrders(_ context.Context, f domain.OrderFilter) ([]*domain.Order, int64, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	out := make([]*domain.Order, 0)
	for _, o := range m.orders {
		if f.UserID != "" && o.UserID != f.UserID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		out = append(out, o)
	}
	return out, int64(len(out)), nil
}

func (m *mockOrderRepository) UpdateOrder(
	_ context.Context,
	id string,
	expected domain.OrderStatus,
	update domain.OrderUpdate) (*domain.Order, error) {

	m.m.Lock()
	defer m.m.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	if o.Status != expected {
		return nil, repository.ErrOrderConflict
	}
	if update.Status != nil {
		o.Status = *update.Status
	}
	if update.TrackingNumber != nil {
		o.TrackingNumber = *update.TrackingNumber
	}
	if update.Notes != nil {
		o.Notes = *update.Notes
	}
	if update.EstimatedDelivery != nil {
		o.EstimatedDelivery = update.EstimatedDelivery
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepository) MarkOrderPaid(_ context.Context, id string, p domain.PaymentConfirmation) (bool, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return false, m.err
	}
	o, ok := m.orders[id]
	if !ok {
		return false, repository.ErrOrderNotFound
	}
	if o.PaymentStatus == domain.PaymentStatusPaid {
		return false, nil
	}
	amount := p.Amount
	paidAt := p.PaidAt
	if o.Status == domain.OrderStatusPending {
		o.Status = domain.OrderStatusProcessing
	}
	o.PaymentStatus = domain.PaymentStatusPaid
	o.PaymentReference = p.Reference
	o.PaymentAmount = &amount
	o.PaidAt = &paidAt
	return true, nil
}

func (m *mockOrderRepository) DeleteOrder(_ context.Context, id string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if _, ok := m.orders[id]; !ok {
		return repository.ErrOrderNotFound
	}
	delete(m.orders, id)
	return nil
}

func (m *mockOrderRepository) get(id string) *domain.Order {
	m.m.RLock()
	defer m.m.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return nil
	}
	cp := *o
	return &cp
}

func (m *mockOrderRepository) count() int {
	m.m.RLock()
	defer m.m.RUnlock()
	return len(m.orders)
}

type mockWebhookRepository struct {
	m       sync.RWMutex
	records []*domain.WebhookRecord
	err     error
}

func (m *mockWebhookRepository) InsertWebhook(_ context.Context, r *domain.WebhookRecord) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, existing := range m.records {
		if existing.Event == r.Event && existing.Reference == r.Reference {
			return repository.ErrDuplicateWebhook
		}
	}
	m.records = append(m.records, r)
	return nil
}

func (m *mockWebhookRepository) count() int {
	m.m.RLock()
	defer m.m.RUnlock()
	return len(m.records)
}

type mockUserRepository struct {
	m     sync.RWMutex
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: map[string]*domain.User{}}
}

func (m *mockUserRepository) CreateUser(_ context.Context, u *domain.User) error {
	m.m.Lock()
	defer m.m.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicateEmail
		}
	}
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepository) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return u, nil
}

func (m *mockUserRepository) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) apply(id string, fn func(u *domain.User)) (*domain.User, error) {
	m.m.Lock()
	defer m.m.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	fn(u)
	return u, nil
}

func (m *mockUserRepository) UpdateProfile(_ context.Context, id string, update domain.ProfileUpdate) (*domain.User, error) {
	return m.apply(id, func(u *domain.User) {
		if update.Name != nil {
			u.Name = *update.Name
		}
		if update.Phone != nil {
			u.Phone = *update.Phone
		}
	})
}

func (m *mockUserRepository) UpdateSettings(_ context.Context, id string, settings domain.Settings) (*domain.User, error) {
	return m.apply(id, func(u *domain.User) { u.Settings = settings })
}

func (m *mockUserRepository) AddToWishlist(_ context.Context, id, productID string) (*domain.User, error) {
	return m.apply(id, func(u *domain.User) {
		for _, p := range u.Wishlist {
			if p == productID {
				return
			}
		}
		u.Wishlist = append(u.Wishlist, productID)
	})
}

func (m *mockUserRepository) RemoveFromWishlist(_ context.Context, id, productID string) (*domain.User, error) {
	return m.apply(id, func(u *domain.User) {
		kept := u.Wishlist[:0]
		for _, p := range u.Wishlist {
			if p != productID {
				kept = append(kept, p)
			}
		}
		u.Wishlist = kept
	})
}

type mockLeadRepository struct {
	m     sync.RWMutex
	leads []*domain.Lead
}

func (m *mockLeadRepository) CreateLead(_ context.Context, lead *domain.Lead) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.leads = append(m.leads, lead)
	return nil
}

func (m *mockLeadRepository) ListLeads(_ context.Context, kind domain.LeadKind, _ domain.Pagination) ([]*domain.Lead, int64, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	out := make([]*domain.Lead, 0)
	for _, l := range m.leads {
		if kind == "" || l.Kind == kind {
			out = append(out, l)
		}
	}
	return out, int64(len(out)), nil
}

type mockGateway struct {
	m        sync.RWMutex
	requests []payment.InitializeRequest
	verify   *payment.Verification
	err      error
}

func (m *mockGateway) Initialize(_ context.Context, req payment.InitializeRequest) (*payment.Authorization, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.requests = append(m.requests, req)
	return &payment.Authorization{
		AuthorizationURL: "https://checkout.example.test/" + req.Reference,
		AccessCode:       "access-" + req.Reference,
		Reference:        req.Reference,
	}, nil
}

func (m *mockGateway) Verify(context.Context, string) (*payment.Verification, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.verify, nil
}

func (m *mockGateway) lastRequest() payment.InitializeRequest {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.requests[len(m.requests)-1]
}

// recordingDispatcher captures notifications synchronously.
type recordingDispatcher struct {
	m    sync.RWMutex
	sent []notify.Notification
}

func (d *recordingDispatcher) Dispatch(_ context.Context, n notify.Notification) {
	d.m.Lock()
	defer d.m.Unlock()
	d.sent = append(d.sent, n)
}

func (d *recordingDispatcher) templates() []notify.Template {
	d.m.RLock()
	defer d.m.RUnlock()
	out := make([]notify.Template, 0, len(d.sent))
	for _, n := range d.sent {
		out = append(out, n.Template)
	}
	return out
}

type stubTokens struct{}

func (stubTokens) Issue(u *domain.User) (string, time.Time, error) {
	return "token-" + u.ID, time.Now().Add(time.Hour), nil
}

func testProduct(id, price string) *domain.Product {
	return &domain.Product{
		ID:       id,
		Name:     "Product " + id,
		Slug:     "product-" + id,
		Category: "baskets",
		Price:    domain.MustAmount(price),
		Images:   []string{"https://cdn.example.test/" + id + ".jpg"},
		Stock:    10,
		Active:   true,
	}
}
