package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
)

const contentColumns = `id, model_id, content_type, title, description, price::text, is_active, total_sales, total_revenue::text, created_at`

type contentRepository struct {
	t *tx
}

func scanContent(row pgx.Row) (*domain.DigitalContent, error) {
	var (
		c              domain.DigitalContent
		price, revenue string
	)
	err := row.Scan(&c.ID, &c.ModelID, &c.Type, &c.Title, &c.Description, &price,
		&c.IsActive, &c.TotalSales, &revenue, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	if c.Price, err = numeric(price); err != nil {
		return nil, err
	}
	if c.TotalRevenue, err = numeric(revenue); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *contentRepository) Create(ctx context.Context, c *domain.DigitalContent) error {
	ctx, cancel := context.WithTimeout(ctx, r.t.timeout)
	defer cancel()

	return r.t.q.QueryRow(ctx, `
INSERT INTO digital_content (model_id, content_type, title, description, price, is_active, created_at)
VALUES ($1, $2, $3, $4, $5::numeric, $6, $7)
RETURNING id`,
		c.ModelID, c.Type, c.Title, c.Description, c.Price.String(), c.IsActive, c.CreatedAt,
	).Scan(&c.ID)
}

// FindByID locks the row inside write transactions so concurrent purchases
// of one item serialise on it.
func (r *contentRepository) FindByID(ctx context.Context, id int64) (*domain.DigitalContent, error) {
	ctx, cancel := context.WithTimeout(ctx, r.t.timeout)
	defer cancel()

	row := r.t.q.QueryRow(ctx, r.t.forUpdate(`SELECT `+contentColumns+` FROM digital_content WHERE id = $1`), id)
	c, err := scanContent(row)
	if err != nil {
		return nil, noRows(err, domain.ErrContentNotFound)
	}
	return c, nil
}

func (r *contentRepository) list(ctx context.Context, query string, args ...any) ([]*domain.DigitalContent, error) {
	ctx, cancel := context.WithTimeout(ctx, r.t.timeout)
	defer cancel()

	rows, err := r.t.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.DigitalContent
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *contentRepository) ListActive(ctx context.Context, limit int) ([]*domain.DigitalContent, error) {
	query := `SELECT ` + contentColumns + ` FROM digital_content WHERE is_active ORDER BY id`
	if limit > 0 {
		return r.list(ctx, query+` LIMIT $1`, limit)
	}
	return r.list(ctx, query)
}

func (r *contentRepository) ListByModel(ctx context.Context, modelID int64) ([]*domain.DigitalContent, error) {
	return r.list(ctx, `SELECT `+contentColumns+` FROM digital_content WHERE model_id = $1 ORDER BY id`, modelID)
}

func (r *contentRepository) SetActive(ctx context.Context, id int64, active bool) error {
	return r.t.exec(ctx, domain.ErrContentNotFound,
		`UPDATE digital_content SET is_active = $2 WHERE id = $1`, id, active)
}

func (r *contentRepository) SetPrice(ctx context.Context, id int64, price decimal.Decimal) error {
	return r.t.exec(ctx, domain.ErrContentNotFound,
		`UPDATE digital_content SET price = $2::numeric WHERE id = $1`, id, price.String())
}

func (r *contentRepository) RecordSale(ctx context.Context, id int64, amount decimal.Decimal) error {
	return r.t.exec(ctx, domain.ErrContentNotFound, `
UPDATE digital_content
SET total_sales = total_sales + 1, total_revenue = total_revenue + $2::numeric
WHERE id = $1`, id, amount.String())
}

func (r *contentRepository) InsertPurchase(ctx context.Context, p *domain.ContentPurchase) error {
	ctx, cancel := context.WithTimeout(ctx, r.t.timeout)
	defer cancel()

	return r.t.q.QueryRow(ctx, `
INSERT INTO content_purchases (content_id, client_id, price_paid, purchased_at)
VALUES ($1, $2, $3::numeric, $4)
RETURNING id`,
		p.ContentID, p.ClientID, p.PricePaid.String(), p.PurchasedAt,
	).Scan(&p.ID)
}

func (r *contentRepository) FindPurchase(ctx context.Context, id int64) (*domain.ContentPurchase, error) {
	ctx, cancel := context.WithTimeout(ctx, r.t.timeout)
	defer cancel()

	var (
		p    domain.ContentPurchase
		paid string
	)
	err := r.t.q.QueryRow(ctx, `
SELECT id, content_id, client_id, price_paid::text, purchased_at
FROM content_purchases WHERE id = $1`, id,
	).Scan(&p.ID, &p.ContentID, &p.ClientID, &paid, &p.PurchasedAt)
	if err != nil {
		return nil, noRows(err, domain.ErrPurchaseNotFound)
	}
	if p.PricePaid, err = numeric(paid); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *contentRepository) ListPurchases(ctx context.Context, contentID int64) ([]*domain.ContentPurchase, error) {
	ctx, cancel := context.WithTimeout(ctx, r.t.timeout)
	defer cancel()

	rows, err := r.t.q.Query(ctx, `
SELECT id, content_id, client_id, price_paid::text, purchased_at
FROM content_purchases WHERE content_id = $1 ORDER BY id`, contentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.ContentPurchase
	for rows.Next() {
		var (
			p    domain.ContentPurchase
			paid string
		)
		if err := rows.Scan(&p.ID, &p.ContentID, &p.ClientID, &paid, &p.PurchasedAt); err != nil {
			return nil, err
		}
		if p.PricePaid, err = numeric(paid); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
