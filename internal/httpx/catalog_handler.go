package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/pcgearph/storefront/internal/catalog"
	"github.com/pcgearph/storefront/internal/orders"
)

// CatalogStore is implemented by *catalog.Repo.
type CatalogStore interface {
	ListProducts(ctx context.Context) ([]catalog.Product, error)
	CreateProduct(ctx context.Context, in catalog.ProductInput) (int64, error)
	DeleteProduct(ctx context.Context, id int64) error
	ListCategories(ctx context.Context) ([]catalog.Category, error)
	CreateCategory(ctx context.Context, name, description string) (int64, error)
	DeleteCategory(ctx context.Context, id int64) error
	ListSuppliers(ctx context.Context) ([]catalog.Supplier, error)
	CreateSupplier(ctx context.Context, s catalog.Supplier) (int64, error)
	DeleteSupplier(ctx context.Context, id int64) error
}

type CatalogHandler struct {
	Store    CatalogStore
	Validate *validator.Validate
}

type CreateProductRequest struct {
	Name        string            `json:"name" validate:"required"`
	Category    string            `json:"category"`
	Brand       string            `json:"brand"`
	Price       orders.PriceValue `json:"price" validate:"required"`
	Image       string            `json:"image"`
	Description string            `json:"description"`
	Stock       int               `json:"stock" validate:"gte=0"`
}

type CreateCategoryRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

type CreateSupplierRequest struct {
	Name          string `json:"name" validate:"required"`
	ContactPerson string `json:"contact_person"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
}

func (h *CatalogHandler) Register(r *chi.Mux, admin func(http.Handler) http.Handler) {
	r.Get("/products", h.listProducts)
	r.Get("/categories", h.listCategories)
	r.Get("/suppliers", h.listSuppliers)
	r.Group(func(g chi.Router) {
		g.Use(admin)
		g.Post("/products", h.createProduct)
		g.Delete("/products/{id}", h.deleteProduct)
		g.Post("/categories", h.createCategory)
		g.Delete("/categories/{id}", h.deleteCategory)
		g.Post("/suppliers", h.createSupplier)
		g.Delete("/suppliers/{id}", h.deleteSupplier)
	})
}

func (h *CatalogHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Store.ListProducts(ctx)
	if err != nil {
		log.Printf("list products: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load products")
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *CatalogHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Missing required fields (name, price)")
		return
	}
	price, err := orders.ParsePrice(string(req.Price))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid price")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	id, err := h.Store.CreateProduct(ctx, catalog.ProductInput{
		Name:        req.Name,
		Category:    req.Category,
		Brand:       req.Brand,
		Price:       price,
		Image:       req.Image,
		Description: req.Description,
		Stock:       req.Stock,
	})
	if err != nil {
		log.Printf("create product: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create product")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Product created", "id": id})
}

func (h *CatalogHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, h.Store.DeleteProduct, "Product deleted")
}

func (h *CatalogHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	cs, err := h.Store.ListCategories(ctx)
	if err != nil {
		log.Printf("list categories: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load categories")
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

func (h *CatalogHandler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Category Name is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	id, err := h.Store.CreateCategory(ctx, req.Name, req.Description)
	if err != nil {
		log.Printf("create category: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create category")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Category created", "id": id})
}

func (h *CatalogHandler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, h.Store.DeleteCategory, "Category deleted")
}

func (h *CatalogHandler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ss, err := h.Store.ListSuppliers(ctx)
	if err != nil {
		log.Printf("list suppliers: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load suppliers")
		return
	}
	writeJSON(w, http.StatusOK, ss)
}

func (h *CatalogHandler) createSupplier(w http.ResponseWriter, r *http.Request) {
	var req CreateSupplierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Supplier Name is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	id, err := h.Store.CreateSupplier(ctx, catalog.Supplier{
		Name:          req.Name,
		ContactPerson: req.ContactPerson,
		Email:         req.Email,
		Phone:         req.Phone,
		Address:       req.Address,
	})
	if err != nil {
		log.Printf("create supplier: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create supplier")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Supplier created", "id": id})
}

func (h *CatalogHandler) deleteSupplier(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, h.Store.DeleteSupplier, "Supplier deleted")
}

func (h *CatalogHandler) deleteByID(w http.ResponseWriter, r *http.Request, del func(context.Context, int64) error, msg string) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Missing ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := del(ctx, id); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		log.Printf("delete id=%d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}
