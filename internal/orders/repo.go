package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("order not found")

// InsufficientStockError covers both "not enough stock" and "no such
// product": the guard cannot tell them apart and neither may commit.
type InsufficientStockError struct {
	Item string
}

func (e *InsufficientStockError) Error() string {
	return "insufficient stock for product: " + e.Item
}

type InvalidTransitionError struct {
	From, To Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}

type Repo struct{ DB *pgxpool.Pool }

// PlaceOrder persists the order header, its line items and the stock
// decrements in one transaction. Any item failing the stock guard rolls the
// whole order back; no partial order is ever visible.
func (r *Repo) PlaceOrder(ctx context.Context, in PlaceOrderInput) (orderID int64, err error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO orders (user_id, total, status, courier, shipping_fee, payment_method,
		                    first_name, last_name, email, phone,
		                    address, barangay, city, province, postal_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id`,
		in.UserID, in.Total.InexactFloat64(), StatusPending, in.Courier,
		in.ShippingFee.InexactFloat64(), in.PaymentMethod,
		in.Customer.FirstName, in.Customer.LastName, in.Customer.Email, in.Customer.Phone,
		in.Shipping.Address, in.Shipping.Barangay, in.Shipping.City,
		in.Shipping.Province, in.Shipping.PostalCode,
	).Scan(&orderID)
	if err != nil {
		return 0, err
	}

	for _, it := range in.Items {
		// Single conditional update. Atomicity of the check-and-decrement is
		// delegated to Postgres; zero rows affected means the guard failed.
		// The guard runs before the line-item insert so an unknown product id
		// surfaces as InsufficientStock, not as an FK violation on the item.
		var ct pgconn.CommandTag
		if it.ProductID != nil {
			ct, err = tx.Exec(ctx,
				`UPDATE products SET stock = stock - $1 WHERE id = $2 AND stock >= $1`,
				it.Qty, *it.ProductID)
		} else {
			ct, err = tx.Exec(ctx,
				`UPDATE products SET stock = stock - $1 WHERE name = $2 AND stock >= $1`,
				it.Qty, it.Name)
		}
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			return 0, &InsufficientStockError{Item: it.Name}
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (order_id, product_id, product_name, price, quantity, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			orderID, it.ProductID, it.Name, it.Price.InexactFloat64(), it.Qty, it.Subtotal.InexactFloat64(),
		)
		if err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return orderID, nil
}

func (r *Repo) GetStatus(ctx context.Context, orderID int64) (Status, error) {
	var s string
	err := r.DB.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1`, orderID).Scan(&s)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return Status(s), nil
}

// UpdateStatus applies a single transition, validated against the status
// machine under row lock. Returns the previous status.
func (r *Repo) UpdateStatus(ctx context.Context, orderID int64, to Status) (Status, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var cur string
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&cur)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	from := Status(cur)
	if !CanTransition(from, to) {
		return "", &InvalidTransitionError{From: from, To: to}
	}

	if _, err := tx.Exec(ctx, `UPDATE orders SET status = $1 WHERE id = $2`, to, orderID); err != nil {
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return from, nil
}

func (r *Repo) ListByUser(ctx context.Context, userID int64) ([]Order, error) {
	return r.list(ctx, `WHERE user_id = $1`, userID)
}

func (r *Repo) ListAll(ctx context.Context) ([]Order, error) {
	return r.list(ctx, ``)
}

func (r *Repo) list(ctx context.Context, where string, args ...any) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, user_id, status, total, courier, shipping_fee, payment_method,
		       first_name, last_name, email, phone,
		       address, barangay, city, province, postal_code, created_at
		FROM orders `+where+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	ids := make([]int64, 0)
	for rows.Next() {
		var o Order
		var total, fee float64
		var status string
		if err := rows.Scan(&o.ID, &o.UserID, &status, &total, &o.Courier, &fee, &o.PaymentMethod,
			&o.Customer.FirstName, &o.Customer.LastName, &o.Customer.Email, &o.Customer.Phone,
			&o.Shipping.Address, &o.Shipping.Barangay, &o.Shipping.City,
			&o.Shipping.Province, &o.Shipping.PostalCode, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.Status = Status(status)
		o.Total = decimal.NewFromFloat(total)
		o.ShippingFee = decimal.NewFromFloat(fee)
		out = append(out, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	items, err := r.itemsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Items = items[out[i].ID]
	}
	return out, nil
}

func (r *Repo) itemsFor(ctx context.Context, orderIDs []int64) (map[int64][]Item, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, order_id, product_id, product_name, price, quantity, subtotal
		FROM order_items WHERE order_id = ANY($1) ORDER BY id`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byOrder := map[int64][]Item{}
	for rows.Next() {
		var it Item
		var price, subtotal float64
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &price, &it.Qty, &subtotal); err != nil {
			return nil, err
		}
		it.Price = decimal.NewFromFloat(price)
		it.Subtotal = decimal.NewFromFloat(subtotal)
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}
	return byOrder, rows.Err()
}
