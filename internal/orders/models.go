package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer is a point-in-time snapshot captured on the order header, not a
// live reference to a user record.
type Customer struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type ShippingAddress struct {
	Address    string `json:"address"`
	Barangay   string `json:"barangay"`
	City       string `json:"city"`
	Province   string `json:"province"`
	PostalCode string `json:"postalCode"`
}

type Order struct {
	ID            int64
	UserID        *int64
	Status        Status
	Total         decimal.Decimal
	Courier       string
	ShippingFee   decimal.Decimal
	PaymentMethod string
	Customer      Customer
	Shipping      ShippingAddress
	CreatedAt     time.Time

	Items []Item
}

// Item snapshots name and unit price at order time; ProductID is carried
// when the cart supplied one, the name alone otherwise.
type Item struct {
	ID        int64
	OrderID   int64
	ProductID *int64
	Name      string
	Price     decimal.Decimal
	Qty       int
	Subtotal  decimal.Decimal
}

// PlaceOrderInput is the validated, price-parsed form of a checkout payload.
type PlaceOrderInput struct {
	UserID        *int64
	Customer      Customer
	Shipping      ShippingAddress
	PaymentMethod string
	Courier       string
	ShippingFee   decimal.Decimal
	Total         decimal.Decimal
	Items         []LineInput
}

type LineInput struct {
	ProductID *int64
	Name      string
	Price     decimal.Decimal
	Qty       int
	Subtotal  decimal.Decimal
}
