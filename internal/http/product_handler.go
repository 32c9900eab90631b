package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ondegooltd/sirahats-sub001/internal/domain"
	"github.com/ondegooltd/sirahats-sub001/internal/service"
)

type CatalogService interface {
	ListProducts(ctx context.Context, filter domain.ProductFilter) (*service.Page[*domain.Product], error)
	GetProduct(ctx context.Context, idOrSlug string, includeInactive bool) (*domain.Product, error)
	CreateProduct(ctx context.Context, in service.ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id string, in service.ProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	ListCollections(ctx context.Context) ([]*domain.Collection, error)
	GetCollection(ctx context.Context, slug string, page domain.Pagination) (*service.CollectionDetail, error)
	CreateCollection(ctx context.Context, in service.CollectionInput) (*domain.Collection, error)
	DeleteCollection(ctx context.Context, id string) error
}

type ProductHandler struct {
	catalog CatalogService
	timeout time.Duration
}

func NewProductHandler(catalog CatalogService, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		timeout: timeout,
	}
}

type CollectionsResponse struct {
	Collections []*domain.Collection `json:"collections"`
}

// GET /api/v1/products?q=&category=&collection=&min_price=&max_price=&page=&limit=&sort=&order=
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	page, err := parsePagination(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	sort, err := parseSort(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	minPrice, err := queryAmount(r, "min_price")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	maxPrice, err := queryAmount(r, "max_price")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	q := r.URL.Query()
	products, err := h.catalog.ListProducts(ctx, domain.ProductFilter{
		Query:      strings.TrimSpace(q.Get("q")),
		Category:   q.Get("category"),
		Collection: q.Get("collection"),
		MinPrice:   minPrice,
		MaxPrice:   maxPrice,
		ActiveOnly: !identity(r).IsAdmin(),
		Sort:       sort,
		Pagination: page,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

// GET /api/v1/products/{product_id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := chi.URLParam(r, "product_id")
	p, err := h.catalog.GetProduct(ctx, id, identity(r).IsAdmin())
	if err != nil {
		handleServiceError(w, r, err, "product_id", id)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// POST /api/v1/products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req service.ProductInput
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	p, err := h.catalog.CreateProduct(ctx, req)
	if err != nil {
		handleServiceError(w, r, err, "slug", req.Slug)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

// PUT /api/v1/products/{product_id}
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := chi.URLParam(r, "product_id")
	var req service.ProductInput
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, err, "product_id", id)
		return
	}
	p, err := h.catalog.UpdateProduct(ctx, id, req)
	if err != nil {
		handleServiceError(w, r, err, "product_id", id)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// DELETE /api/v1/products/{product_id}
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := chi.URLParam(r, "product_id")
	if err := h.catalog.DeleteProduct(ctx, id); err != nil {
		handleServiceError(w, r, err, "product_id", id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/collections
func (h *ProductHandler) ListCollections(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	collections, err := h.catalog.ListCollections(ctx)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, &CollectionsResponse{Collections: collections})
}

// GET /api/v1/collections/{slug}
func (h *ProductHandler) GetCollection(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	slug := chi.URLParam(r, "slug")
	page, err := parsePagination(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	c, err := h.catalog.GetCollection(ctx, slug, page)
	if err != nil {
		handleServiceError(w, r, err, "slug", slug)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// POST /api/v1/collections
func (h *ProductHandler) CreateCollection(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req service.CollectionInput
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	c, err := h.catalog.CreateCollection(ctx, req)
	if err != nil {
		handleServiceError(w, r, err, "slug", req.Slug)
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

// DELETE /api/v1/collections/{collection_id}
func (h *ProductHandler) DeleteCollection(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := chi.URLParam(r, "collection_id")
	if err := h.catalog.DeleteCollection(ctx, id); err != nil {
		handleServiceError(w, r, err, "collection_id", id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
