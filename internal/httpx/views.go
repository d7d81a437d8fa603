package httpx

import (
	"time"

	"github.com/pcgearph/storefront/internal/orders"
)

// orderView is the wire shape the admin and account screens expect:
// zero-padded display id plus the raw id for follow-up updates.
type orderView struct {
	ID          string                 `json:"id"`
	RawID       int64                  `json:"raw_id"`
	Date        time.Time              `json:"date"`
	Status      orders.Status          `json:"status"`
	Total       float64                `json:"total"`
	Courier     string                 `json:"courier"`
	ShippingFee float64                `json:"shippingFee"`
	Customer    orders.Customer        `json:"customer"`
	Shipping    orders.ShippingAddress `json:"shipping"`
	Items       []itemView             `json:"items"`
}

type itemView struct {
	Title    string  `json:"title"`
	Qty      int     `json:"qty"`
	Price    float64 `json:"price"`
	Subtotal float64 `json:"subtotal"`
}

func toViews(list []orders.Order) []orderView {
	out := make([]orderView, 0, len(list))
	for _, o := range list {
		v := orderView{
			ID:          orders.DisplayID(o.ID),
			RawID:       o.ID,
			Date:        o.CreatedAt,
			Status:      o.Status,
			Total:       o.Total.InexactFloat64(),
			Courier:     o.Courier,
			ShippingFee: o.ShippingFee.InexactFloat64(),
			Customer:    o.Customer,
			Shipping:    o.Shipping,
			Items:       make([]itemView, 0, len(o.Items)),
		}
		for _, it := range o.Items {
			v.Items = append(v.Items, itemView{
				Title:    it.Name,
				Qty:      it.Qty,
				Price:    it.Price.InexactFloat64(),
				Subtotal: it.Subtotal.InexactFloat64(),
			})
		}
		out = append(out, v)
	}
	return out
}
