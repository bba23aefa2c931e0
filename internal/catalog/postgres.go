package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// DB is the subset of pgxpool.Pool used by PostgresRepository.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository stores products in the products table.
type PostgresRepository struct {
	DB DB
}

const productColumns = `id::text, name, category, description, image_url, price::text, mrp::text,
	offer_percent::text, bag_weight, germination, yield_duration, season, is_active, created_at, updated_at`

func (r PostgresRepository) List(ctx context.Context, f Filter) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+productColumns+` FROM products
		WHERE ($1::text = '' OR lower(category) = lower($1::text))
		  AND (NOT $2::bool OR is_active)
		ORDER BY name, id`, f.Category, f.ActiveOnly)
	if err != nil {
		return nil, fmt.Errorf("catalog: list products: %w", err)
	}
	defer rows.Close()
	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: list products: %w", err)
	}
	return out, nil
}

func (r PostgresRepository) Get(ctx context.Context, id string) (Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Product{}, ErrNotFound
	}
	row := r.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

func (r PostgresRepository) Create(ctx context.Context, p Product) (Product, error) {
	row := r.DB.QueryRow(ctx, `INSERT INTO products
		(name, category, description, image_url, price, mrp, offer_percent, bag_weight, germination, yield_duration, season, is_active)
		VALUES ($1, $2, $3, $4, $5::text::numeric, $6::text::numeric, $7::text::numeric, $8, $9, $10, $11, $12)
		RETURNING `+productColumns,
		p.Name, p.Category, p.Description, p.ImageURL, p.Price.String(),
		nullDecimalText(p.MRP), nullDecimalText(p.OfferPercent),
		p.BagWeight, p.Germination, p.YieldDuration, nullSeason(p.Season), p.Active)
	created, err := scanProduct(row)
	if err != nil {
		return Product{}, fmt.Errorf("catalog: create product: %w", err)
	}
	return created, nil
}

func (r PostgresRepository) SetActive(ctx context.Context, id string, active bool) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	tag, err := r.DB.Exec(ctx, `UPDATE products SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("catalog: set active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var (
		p                  Product
		price              string
		mrp, offer, season *string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Description, &p.ImageURL, &price, &mrp, &offer,
		&p.BagWeight, &p.Germination, &p.YieldDuration, &season, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, err
	}
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return Product{}, fmt.Errorf("catalog: decode price: %w", err)
	}
	if p.MRP, err = parseNullDecimal(mrp); err != nil {
		return Product{}, fmt.Errorf("catalog: decode mrp: %w", err)
	}
	if p.OfferPercent, err = parseNullDecimal(offer); err != nil {
		return Product{}, fmt.Errorf("catalog: decode offer: %w", err)
	}
	if season != nil {
		p.Season = Season(*season)
	}
	return p, nil
}

func parseNullDecimal(v *string) (decimal.NullDecimal, error) {
	if v == nil {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(*v)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

func nullDecimalText(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.String()
	return &s
}

func nullSeason(s Season) *string {
	if s == "" {
		return nil
	}
	v := string(s)
	return &v
}
