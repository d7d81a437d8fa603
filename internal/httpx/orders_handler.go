package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	kafkax "github.com/pcgearph/storefront/internal/kafka"
	"github.com/pcgearph/storefront/internal/metrics"
	"github.com/pcgearph/storefront/internal/orders"
)

// OrderStore is implemented by *orders.Repo.
type OrderStore interface {
	PlaceOrder(ctx context.Context, in orders.PlaceOrderInput) (int64, error)
	ListByUser(ctx context.Context, userID int64) ([]orders.Order, error)
	ListAll(ctx context.Context) ([]orders.Order, error)
	GetStatus(ctx context.Context, orderID int64) (orders.Status, error)
	UpdateStatus(ctx context.Context, orderID int64, to orders.Status) (orders.Status, error)
}

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// StatusCache is satisfied by redisx.StatusCache.
type StatusCache interface {
	GetStatus(ctx context.Context, orderID int64) (string, bool)
	SetStatus(ctx context.Context, orderID int64, status string)
	Invalidate(ctx context.Context, orderID int64)
}

type OrdersHandler struct {
	Store         OrderStore
	Placed        Publisher // order.placed
	StatusChanged Publisher // order.status.changed
	Cache         StatusCache
	Validate      *validator.Validate
	Service       string

	DefaultCourier     string
	DefaultShippingFee decimal.Decimal
}

type CustomerPayload struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required"`
	Phone     string `json:"phone" validate:"required"`
}

type ShippingPayload struct {
	Address    string `json:"address" validate:"required"`
	Barangay   string `json:"barangay" validate:"required"`
	City       string `json:"city" validate:"required"`
	Province   string `json:"province" validate:"required"`
	PostalCode string `json:"postalCode" validate:"required"`
}

type PaymentPayload struct {
	Method string `json:"method"`
}

type ItemPayload struct {
	ProductID *int64            `json:"productId"`
	Title     string            `json:"title" validate:"required"`
	Price     orders.PriceValue `json:"price" validate:"required"`
	Qty       int               `json:"qty" validate:"required,gt=0"`
}

type PlaceOrderRequest struct {
	Customer    *CustomerPayload `json:"customer" validate:"required"`
	Shipping    *ShippingPayload `json:"shipping" validate:"required"`
	Payment     PaymentPayload   `json:"payment"`
	Items       []ItemPayload    `json:"items" validate:"required,min=1,dive"`
	Total       *float64         `json:"total" validate:"required"`
	Courier     string           `json:"courier"`
	ShippingFee *float64         `json:"shippingFee"`
	UserID      *int64           `json:"userId"`
}

type PlaceOrderResponse struct {
	Message   string  `json:"message"`
	OrderID   int64   `json:"orderId"`
	DisplayID string  `json:"displayId"`
	Courier   string  `json:"courier"`
	Total     float64 `json:"total"`
}

func (h *OrdersHandler) Register(r *chi.Mux, admin func(http.Handler) http.Handler) {
	r.Post("/orders", h.placeOrder)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Group(func(g chi.Router) {
		g.Use(admin)
		g.Get("/admin/orders", h.listAllOrders)
		g.Post("/admin/orders/status", h.updateStatus)
	})
}

func (h *OrdersHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(metrics.PlaceOrderLatency)
	defer timer.ObserveDuration()

	var req PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Missing required order fields")
		return
	}

	lines := make([]orders.LineInput, 0, len(req.Items))
	for _, it := range req.Items {
		price, err := orders.ParsePrice(string(it.Price))
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid price for item %q", it.Title))
			return
		}
		subtotal := price.Mul(decimal.NewFromInt(int64(it.Qty)))
		lines = append(lines, orders.LineInput{
			ProductID: it.ProductID,
			Name:      it.Title,
			Price:     price,
			Qty:       it.Qty,
			Subtotal:  subtotal,
		})
	}

	courier := req.Courier
	if courier == "" {
		courier = h.DefaultCourier
	}
	fee := h.DefaultShippingFee
	if req.ShippingFee != nil {
		fee = decimal.NewFromFloat(*req.ShippingFee)
	}

	// The client-submitted total is advisory only: the authoritative total
	// is recomputed from parsed prices and must agree within rounding.
	computed := orders.ComputeTotal(lines, fee)
	if !orders.TotalMatches(computed, decimal.NewFromFloat(*req.Total)) {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("order total mismatch: expected %s", computed.StringFixed(2)))
		return
	}

	in := orders.PlaceOrderInput{
		UserID:        req.UserID,
		Customer:      orders.Customer(*req.Customer),
		Shipping:      orders.ShippingAddress(*req.Shipping),
		PaymentMethod: req.Payment.Method,
		Courier:       courier,
		ShippingFee:   fee,
		Total:         computed,
		Items:         lines,
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	orderID, err := h.Store.PlaceOrder(ctx, in)
	if err != nil {
		var insufficient *orders.InsufficientStockError
		if errors.As(err, &insufficient) {
			metrics.StockRejections.Inc()
			writeError(w, http.StatusConflict, insufficient.Error())
			return
		}
		log.Printf("place order: %v", err)
		writeError(w, http.StatusInternalServerError, "order placement failed")
		return
	}

	metrics.OrdersPlaced.Inc()
	h.Cache.SetStatus(ctx, orderID, string(orders.StatusPending))
	h.publishPlaced(orderID, in)

	writeJSON(w, http.StatusOK, PlaceOrderResponse{
		Message:   "Order placed successfully",
		OrderID:   orderID,
		DisplayID: orders.DisplayID(orderID),
		Courier:   courier,
		Total:     computed.InexactFloat64(),
	})
}

// publishPlaced hands the committed order to the mailer via the async
// producer. The order is already durable: nothing here can fail the request.
func (h *OrdersHandler) publishPlaced(orderID int64, in orders.PlaceOrderInput) {
	items := make([]orders.ReceiptItem, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, orders.ReceiptItem{
			Name:     it.Name,
			Qty:      it.Qty,
			Price:    it.Price,
			Subtotal: it.Subtotal,
		})
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderPlaced,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		CorrelationID: orders.DisplayID(orderID),
		Payload: kafkax.MustMarshal(orders.OrderPlacedPayload{
			OrderID:       orderID,
			DisplayID:     orders.DisplayID(orderID),
			UserID:        in.UserID,
			Customer:      in.Customer,
			Shipping:      in.Shipping,
			PaymentMethod: in.PaymentMethod,
			Courier:       in.Courier,
			ShippingFee:   in.ShippingFee,
			Total:         in.Total,
			Items:         items,
		}),
	}
	h.Placed.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderPlaced)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("user_id")
	if q == "" {
		writeError(w, http.StatusBadRequest, "User ID is required")
		return
	}
	userID, err := strconv.ParseInt(q, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Store.ListByUser(ctx, userID)
	if err != nil {
		log.Printf("list orders user=%d: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "failed to load orders")
		return
	}
	writeJSON(w, http.StatusOK, toViews(list))
}

func (h *OrdersHandler) listAllOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Store.ListAll(ctx)
	if err != nil {
		log.Printf("list all orders: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load orders")
		return
	}
	writeJSON(w, http.StatusOK, toViews(list))
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := orders.ParseOrderID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if s, ok := h.Cache.GetStatus(ctx, orderID); ok {
		writeJSON(w, http.StatusOK, map[string]string{"status": s})
		return
	}

	status, err := h.Store.GetStatus(ctx, orderID)
	if errors.Is(err, orders.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		log.Printf("get order %d: %v", orderID, err)
		writeError(w, http.StatusInternalServerError, "failed to load order")
		return
	}
	h.Cache.SetStatus(ctx, orderID, string(status))
	writeJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

type UpdateStatusRequest struct {
	OrderID flexID `json:"order_id"`
	Status  string `json:"status"`
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.OrderID == "" || req.Status == "" {
		writeError(w, http.StatusBadRequest, "Missing order_id or status")
		return
	}
	orderID, err := orders.ParseOrderID(string(req.OrderID))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	to, err := orders.ParseStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	from, err := h.Store.UpdateStatus(ctx, orderID, to)
	if err != nil {
		var invalid *orders.InvalidTransitionError
		switch {
		case errors.Is(err, orders.ErrNotFound):
			writeError(w, http.StatusNotFound, "order not found")
		case errors.As(err, &invalid):
			writeError(w, http.StatusConflict, invalid.Error())
		default:
			log.Printf("update status %d: %v", orderID, err)
			writeError(w, http.StatusInternalServerError, "failed to update status")
		}
		return
	}

	h.Cache.Invalidate(ctx, orderID)
	h.publishStatusChanged(orderID, from, to)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Order status updated successfully"})
}

func (h *OrdersHandler) publishStatusChanged(orderID int64, from, to orders.Status) {
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderStatusChanged,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		CorrelationID: orders.DisplayID(orderID),
		Payload: kafkax.MustMarshal(orders.OrderStatusChangedPayload{
			OrderID: orderID,
			From:    from,
			To:      to,
		}),
	}
	h.StatusChanged.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderStatusChanged)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

// flexID tolerates both string and numeric order ids in request bodies.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	*f = flexID(string(b))
	return nil
}
