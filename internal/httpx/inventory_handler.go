package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/pcgearph/storefront/internal/inventory"
)

// InventoryStore is implemented by *inventory.Repo.
type InventoryStore interface {
	Apply(ctx context.Context, productID int64, typ string, qty int, reason string) error
	Recent(ctx context.Context, limit int) ([]inventory.Movement, error)
}

type InventoryHandler struct {
	Store    InventoryStore
	Validate *validator.Validate
}

type MovementRequest struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	Type      string `json:"type" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required"`
	Reason    string `json:"reason"`
}

func (h *InventoryHandler) Register(r *chi.Mux, admin func(http.Handler) http.Handler) {
	r.Group(func(g chi.Router) {
		g.Use(admin)
		g.Get("/inventory", h.listMovements)
		g.Post("/inventory", h.applyMovement)
	})
}

func (h *InventoryHandler) listMovements(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	logs, err := h.Store.Recent(ctx, 100)
	if err != nil {
		log.Printf("list inventory: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load inventory logs")
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (h *InventoryHandler) applyMovement(w http.ResponseWriter, r *http.Request) {
	var req MovementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Product, Type (IN/OUT), and Quantity are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	err := h.Store.Apply(ctx, req.ProductID, strings.ToUpper(req.Type), req.Quantity, req.Reason)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"message": "Stock updated successfully"})
	case errors.Is(err, inventory.ErrInvalidType), errors.Is(err, inventory.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, inventory.ErrInsufficientStock):
		writeError(w, http.StatusConflict, err.Error())
	default:
		log.Printf("inventory movement: %v", err)
		writeError(w, http.StatusInternalServerError, "stock update failed")
	}
}
