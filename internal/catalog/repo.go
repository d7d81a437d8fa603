package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("not found")

type Repo struct{ DB *pgxpool.Pool }

type ProductInput struct {
	Name        string
	Category    string
	Brand       string
	Price       decimal.Decimal
	Image       string
	Description string
	Stock       int
}

func (r *Repo) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, name, category, brand, price, image, description, stock, created_at
		FROM products ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		var price float64
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Brand, &price,
			&p.Image, &p.Description, &p.Stock, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Price = decimal.NewFromFloat(price)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) CreateProduct(ctx context.Context, in ProductInput) (int64, error) {
	var id int64
	err := r.DB.QueryRow(ctx, `
		INSERT INTO products (name, category, brand, price, image, description, stock)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		in.Name, in.Category, in.Brand, in.Price.InexactFloat64(),
		in.Image, in.Description, in.Stock,
	).Scan(&id)
	return id, err
}

func (r *Repo) DeleteProduct(ctx context.Context, id int64) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, name, description FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) CreateCategory(ctx context.Context, name, description string) (int64, error) {
	var id int64
	err := r.DB.QueryRow(ctx, `INSERT INTO categories (name, description) VALUES ($1, $2) RETURNING id`,
		name, description).Scan(&id)
	return id, err
}

func (r *Repo) DeleteCategory(ctx context.Context, id int64) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, name, contact_person, email, phone, address, created_at
		FROM suppliers ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Supplier
	for rows.Next() {
		var s Supplier
		if err := rows.Scan(&s.ID, &s.Name, &s.ContactPerson, &s.Email, &s.Phone, &s.Address, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repo) CreateSupplier(ctx context.Context, s Supplier) (int64, error) {
	var id int64
	err := r.DB.QueryRow(ctx, `
		INSERT INTO suppliers (name, contact_person, email, phone, address)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		s.Name, s.ContactPerson, s.Email, s.Phone, s.Address,
	).Scan(&id)
	return id, err
}

func (r *Repo) DeleteSupplier(ctx context.Context, id int64) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
