package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ondegooltd/sirahats-sub001/internal/domain"
	"github.com/ondegooltd/sirahats-sub001/internal/repository"
)

type Page[T any] struct {
	Items      []T             `json:"items"`
	Pagination domain.PageInfo `json:"pagination"`
}

type ProductInput struct {
	Name        string        `json:"name" validate:"required,max=200"`
	Slug        string        `json:"slug" validate:"omitempty,max=200"`
	Description string        `json:"description" validate:"max=10000"`
	Category    string        `json:"category" validate:"required"`
	Collection  string        `json:"collection"`
	Price       domain.Amount `json:"price"`
	Images      []string      `json:"images" validate:"dive,url"`
	Stock       int           `json:"stock" validate:"gte=0"`
	Active      *bool         `json:"active"`
}

type CollectionInput struct {
	Name        string `json:"name" validate:"required,max=200"`
	Slug        string `json:"slug" validate:"omitempty,max=200"`
	Description string `json:"description"`
	Image       string `json:"image" validate:"omitempty,url"`
}

type CollectionDetail struct {
	*domain.Collection
	Products []*domain.Product `json:"products"`
}

type CatalogService struct {
	products    repository.ProductRepository
	collections repository.CollectionRepository
	now         func() time.Time
}

func NewCatalogService(products repository.ProductRepository, collections repository.CollectionRepository) *CatalogService {
	return &CatalogService{products: products, collections: collections, now: time.Now}
}

func (s *CatalogService) ListProducts(ctx context.Context, filter domain.ProductFilter) (*Page[*domain.Product], error) {
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(filter.MaxPrice.Decimal) {
		return nil, invalid("min_price must not exceed max_price")
	}
	filter.Pagination = filter.Pagination.Normalize()

	products, total, err := s.products.ListProducts(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &Page[*domain.Product]{Items: products, Pagination: domain.NewPageInfo(filter.Pagination, total)}, nil
}

// GetProduct looks the product up by id, then by slug. Inactive products are only
// visible when includeInactive is set.
func (s *CatalogService) GetProduct(ctx context.Context, idOrSlug string, includeInactive bool) (*domain.Product, error) {
	p, err := s.products.GetProduct(ctx, idOrSlug)
	if errors.Is(err, repository.ErrProductNotFound) {
		p, err = s.products.GetProductBySlug(ctx, idOrSlug)
	}
	if errors.Is(err, repository.ErrProductNotFound) {
		return nil, notFound("product", idOrSlug)
	}
	if err != nil {
		return nil, err
	}
	if !p.Active && !includeInactive {
		return nil, notFound("product", idOrSlug)
	}
	return p, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*domain.Product, error) {
	if err := validateProduct(in); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	p := &domain.Product{
		ID:        uuid.NewString(),
		CreatedAt: now,
		Active:    true,
	}
	applyProductInput(p, in)
	p.UpdatedAt = now

	if err := s.products.CreateProduct(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicateSlug) {
			return nil, fmt.Errorf("%w: slug %q already in use", ErrConflict, p.Slug)
		}
		return nil, err
	}
	return p, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id string, in ProductInput) (*domain.Product, error) {
	if err := validateProduct(in); err != nil {
		return nil, err
	}
	p, err := s.products.GetProduct(ctx, id)
	if errors.Is(err, repository.ErrProductNotFound) {
		return nil, notFound("product", id)
	}
	if err != nil {
		return nil, err
	}

	applyProductInput(p, in)
	p.UpdatedAt = s.now().UTC()

	if err := s.products.UpdateProduct(ctx, p); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateSlug):
			return nil, fmt.Errorf("%w: slug %q already in use", ErrConflict, p.Slug)
		case errors.Is(err, repository.ErrProductNotFound):
			return nil, notFound("product", id)
		}
		return nil, err
	}
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	err := s.products.DeleteProduct(ctx, id)
	if errors.Is(err, repository.ErrProductNotFound) {
		return notFound("product", id)
	}
	return err
}

func (s *CatalogService) ListCollections(ctx context.Context) ([]*domain.Collection, error) {
	return s.collections.ListCollections(ctx)
}

// GetCollection returns the collection with its active products, first page only.
func (s *CatalogService) GetCollection(ctx context.Context, slug string, page domain.Pagination) (*CollectionDetail, error) {
	c, err := s.collections.GetCollectionBySlug(ctx, slug)
	if errors.Is(err, repository.ErrCollectionNotFound) {
		return nil, notFound("collection", slug)
	}
	if err != nil {
		return nil, err
	}

	products, _, err := s.products.ListProducts(ctx, domain.ProductFilter{
		Collection: c.Slug,
		ActiveOnly: true,
		Pagination: page.Normalize(),
	})
	if err != nil {
		return nil, err
	}
	return &CollectionDetail{Collection: c, Products: products}, nil
}

func (s *CatalogService) CreateCollection(ctx context.Context, in CollectionInput) (*domain.Collection, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	slug := in.Slug
	if slug == "" {
		slug = Slugify(in.Name)
	}
	c := &domain.Collection{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		Slug:        slug,
		Description: in.Description,
		Image:       in.Image,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.collections.CreateCollection(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicateSlug) {
			return nil, fmt.Errorf("%w: slug %q already in use", ErrConflict, c.Slug)
		}
		return nil, err
	}
	return c, nil
}

func (s *CatalogService) DeleteCollection(ctx context.Context, id string) error {
	err := s.collections.DeleteCollection(ctx, id)
	if errors.Is(err, repository.ErrCollectionNotFound) {
		return notFound("collection", id)
	}
	return err
}

func validateProduct(in ProductInput) error {
	if err := validateInput(in); err != nil {
		return err
	}
	if in.Price.IsNegative() {
		return invalid("price must not be negative")
	}
	return nil
}

func applyProductInput(p *domain.Product, in ProductInput) {
	p.Name = strings.TrimSpace(in.Name)
	p.Slug = in.Slug
	if p.Slug == "" {
		p.Slug = Slugify(p.Name)
	}
	p.Description = in.Description
	p.Category = in.Category
	p.Collection = in.Collection
	p.Price = domain.NewAmount(in.Price.Decimal)
	p.Images = in.Images
	if p.Images == nil {
		p.Images = []string{}
	}
	p.Stock = in.Stock
	if in.Active != nil {
		p.Active = *in.Active
	}
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases s and joins its alphanumeric runs with "-".
func Slugify(s string) string {
	return strings.Trim(nonSlugChars.ReplaceAllString(strings.ToLower(s), "-"), "-")
}
