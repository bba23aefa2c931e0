package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// DB is the subset of pgxpool.Pool used by PostgresLedger.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresLedger stores orders in the orders table. Line items and customer
// details are kept as jsonb snapshots.
type PostgresLedger struct {
	DB DB
}

const orderColumns = `id::text, user_id, ordered_by, items::text, order_date, status,
	customer_details::text, total_amount::text, discount::text, final_amount::text, needs_review`

func (l PostgresLedger) CreateOrder(ctx context.Context, o Order) (string, error) {
	items, err := jsonText(o.Items)
	if err != nil {
		return "", fmt.Errorf("order: encode items: %w", err)
	}
	customer, err := jsonText(o.CustomerDetails)
	if err != nil {
		return "", fmt.Errorf("order: encode customer: %w", err)
	}
	var id string
	err = l.DB.QueryRow(ctx, `INSERT INTO orders
		(user_id, ordered_by, items, order_date, status, customer_details, total_amount, discount, final_amount, needs_review)
		VALUES ($1, $2, $3::jsonb, $4, $5, $6::jsonb, $7::text::numeric, $8::text::numeric, $9::text::numeric, $10)
		RETURNING id::text`,
		o.UserID, o.OrderedBy, items, o.OrderDate, string(o.Status), customer,
		decimalText(o.TotalAmount), decimalText(o.Discount), decimalText(o.FinalAmount), o.NeedsReview,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("order: insert: %w", err)
	}
	return id, nil
}

func (l PostgresLedger) GetOrder(ctx context.Context, id string) (Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Order{}, ErrNotFound
	}
	o, err := scanOrder(l.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	return o, err
}

func (l PostgresLedger) ListOrders(ctx context.Context) ([]Order, error) {
	rows, err := l.DB.Query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY order_date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("order: list: %w", err)
	}
	defer rows.Close()
	out := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("order: list: %w", err)
	}
	return out, nil
}

func (l PostgresLedger) UpdateOrderStatus(ctx context.Context, id string, from, to Status) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	tag, err := l.DB.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1 AND status = $3`,
		id, string(to), string(from))
	if err != nil {
		return fmt.Errorf("order: update status: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	var exists bool
	if err := l.DB.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("order: update status: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrInvalidTransition
}

func scanOrder(row pgx.Row) (Order, error) {
	var (
		o                      Order
		status                 string
		items, customer        *string
		total, discount, final *string
	)
	err := row.Scan(&o.ID, &o.UserID, &o.OrderedBy, &items, &o.OrderDate, &status,
		&customer, &total, &discount, &final, &o.NeedsReview)
	if err != nil {
		return Order{}, err
	}
	o.Status = Status(status)
	if items != nil {
		if err := json.Unmarshal([]byte(*items), &o.Items); err != nil {
			return Order{}, fmt.Errorf("order: decode items: %w", err)
		}
	}
	if customer != nil {
		o.CustomerDetails = &CustomerDetails{}
		if err := json.Unmarshal([]byte(*customer), o.CustomerDetails); err != nil {
			return Order{}, fmt.Errorf("order: decode customer: %w", err)
		}
	}
	for _, f := range []struct {
		src *string
		dst *decimal.NullDecimal
	}{{total, &o.TotalAmount}, {discount, &o.Discount}, {final, &o.FinalAmount}} {
		if f.src == nil {
			continue
		}
		d, err := decimal.NewFromString(*f.src)
		if err != nil {
			return Order{}, fmt.Errorf("order: decode amount: %w", err)
		}
		*f.dst = decimal.NewNullDecimal(d)
	}
	return o, nil
}

func jsonText[T any](v T) (*string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(data) == "null" {
		return nil, nil
	}
	s := string(data)
	return &s, nil
}

func decimalText(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.String()
	return &s
}
