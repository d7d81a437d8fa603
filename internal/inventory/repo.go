package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	TypeIn  = "IN"
	TypeOut = "OUT"
)

var (
	ErrInvalidType       = errors.New("movement type must be IN or OUT")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type Movement struct {
	ID          int64     `json:"id"`
	ProductID   int64     `json:"product_id"`
	ProductName string    `json:"product_name"`
	Type        string    `json:"type"`
	Quantity    int       `json:"quantity"`
	Reason      string    `json:"reason"`
	CreatedAt   time.Time `json:"created_at"`
}

type Repo struct{ DB *pgxpool.Pool }

// Apply records one stock movement and adjusts the product counter in the
// same transaction. OUT movements go through the same conditional guard the
// order core uses, so the ledger can never drive stock negative.
func (r *Repo) Apply(ctx context.Context, productID int64, typ string, qty int, reason string) error {
	if typ != TypeIn && typ != TypeOut {
		return ErrInvalidType
	}
	if qty <= 0 {
		return ErrInvalidQuantity
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Stock first, log second: an unknown product fails the update with zero
	// rows and surfaces like the guard instead of tripping the log's FK.
	if typ == TypeIn {
		ct, err := tx.Exec(ctx, `UPDATE products SET stock = stock + $1 WHERE id = $2`, qty, productID)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return ErrInsufficientStock // unknown product: same surface as the guard
		}
	} else {
		ct, err := tx.Exec(ctx, `UPDATE products SET stock = stock - $1 WHERE id = $2 AND stock >= $1`, qty, productID)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return ErrInsufficientStock
		}
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO inventory_logs (product_id, type, quantity, reason)
		VALUES ($1, $2, $3, $4)`, productID, typ, qty, reason); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Recent returns the newest movements joined with the product name, capped
// the way the admin screen reads them.
func (r *Repo) Recent(ctx context.Context, limit int) ([]Movement, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.DB.Query(ctx, `
		SELECT i.id, i.product_id, p.name, i.type, i.quantity, i.reason, i.created_at
		FROM inventory_logs i
		JOIN products p ON p.id = i.product_id
		ORDER BY i.created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Movement
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.ProductName, &m.Type, &m.Quantity, &m.Reason, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
