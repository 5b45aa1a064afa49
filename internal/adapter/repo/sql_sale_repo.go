package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	domain "github.com/aq2208/gpos-checkout/internal/entity"
	"github.com/aq2208/gpos-checkout/internal/usecase"
)

// SQLSaleRepo works against MySQL in production and SQLite locally.
type SQLSaleRepo struct{ db *sql.DB }

func NewSQLSaleRepo(db *sql.DB) *SQLSaleRepo { return &SQLSaleRepo{db: db} }

const saleColumns = `id,shop_id,sale_number,customer_id,sale_date,currency,status,payment_status,
discount_type,discount_value,discount_amount,tax_amount,subtotal,total_amount,paid_amount,
notes,created_by,created_at,updated_at,completed_at`

func (r *SQLSaleRepo) CreateSale(ctx context.Context, s *domain.Sale) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO sales (`+saleColumns+`)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
`, s.ID, s.ShopID, s.SaleNumber, nullString(s.CustomerID), s.SaleDate, s.Currency, string(s.Status), string(s.PaymentStatus),
		nullDiscountType(s.DiscountType), s.DiscountValue, s.DiscountAmount, s.TaxAmount, s.Subtotal, s.TotalAmount, s.PaidAmount,
		s.Notes, s.CreatedBy, s.CreatedAt, s.UpdatedAt, nullTime(s.CompletedAt))
	return err
}

func (r *SQLSaleRepo) GetSale(ctx context.Context, shopID, id string) (*domain.Sale, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+saleColumns+` FROM sales WHERE id=? AND shop_id=?`, id, shopID)

	var (
		s            domain.Sale
		customerID   sql.NullString
		discountType sql.NullString
		notes        sql.NullString
		completedAt  sql.NullTime
		status       string
		payStatus    string
	)
	err := row.Scan(&s.ID, &s.ShopID, &s.SaleNumber, &customerID, &s.SaleDate, &s.Currency, &status, &payStatus,
		&discountType, &s.DiscountValue, &s.DiscountAmount, &s.TaxAmount, &s.Subtotal, &s.TotalAmount, &s.PaidAmount,
		&notes, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.Status = domain.SaleStatus(status)
	s.PaymentStatus = domain.PaymentStatus(payStatus)
	if customerID.Valid {
		s.CustomerID = &customerID.String
	}
	if discountType.Valid {
		dt := domain.DiscountType(discountType.String)
		s.DiscountType = &dt
	}
	s.Notes = notes.String
	if completedAt.Valid {
		t := completedAt.Time
		s.CompletedAt = &t
	}
	return &s, nil
}

func (r *SQLSaleRepo) InsertItem(ctx context.Context, it *domain.SaleItem) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO sale_items (id,sale_id,item_id,sku,name,unit_price,quantity,discount_type,discount_value,line_total,created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?)
`, it.ID, it.SaleID, it.ItemID, it.SKU, it.Name, it.UnitPrice, it.Quantity,
		nullDiscountType(it.DiscountType), it.DiscountValue, it.LineTotal, it.CreatedAt)
	return err
}

func (r *SQLSaleRepo) ListItems(ctx context.Context, saleID string) ([]domain.SaleItem, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id,sale_id,item_id,sku,name,unit_price,quantity,discount_type,discount_value,line_total,created_at
FROM sale_items WHERE sale_id=? ORDER BY created_at, id`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SaleItem
	for rows.Next() {
		var (
			it           domain.SaleItem
			sku, name    sql.NullString
			discountType sql.NullString
		)
		if err := rows.Scan(&it.ID, &it.SaleID, &it.ItemID, &sku, &name, &it.UnitPrice, &it.Quantity,
			&discountType, &it.DiscountValue, &it.LineTotal, &it.CreatedAt); err != nil {
			return nil, err
		}
		it.SKU, it.Name = sku.String, name.String
		if discountType.Valid {
			dt := domain.DiscountType(discountType.String)
			it.DiscountType = &dt
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *SQLSaleRepo) InsertPayment(ctx context.Context, p *domain.SalePayment) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO sale_payments (id,sale_id,payment_type,amount,reference,notes,created_by,created_at)
VALUES (?,?,?,?,?,?,?,?)
`, p.ID, p.SaleID, string(p.PaymentType), p.Amount, p.Reference, p.Notes, p.CreatedBy, p.CreatedAt)
	return err
}

func (r *SQLSaleRepo) ListPayments(ctx context.Context, saleID string) ([]domain.SalePayment, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id,sale_id,payment_type,amount,reference,notes,created_by,created_at
FROM sale_payments WHERE sale_id=? ORDER BY created_at, id`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SalePayment
	for rows.Next() {
		var (
			p          domain.SalePayment
			ptype      string
			ref, notes sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.SaleID, &ptype, &p.Amount, &ref, &notes, &p.CreatedBy, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.PaymentType = domain.PaymentType(ptype)
		p.Reference, p.Notes = ref.String, notes.String
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLSaleRepo) CompleteSale(ctx context.Context, s *domain.Sale, fromStatus domain.SaleStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE sales
SET status=?, payment_status=?, subtotal=?, discount_amount=?, total_amount=?, paid_amount=?, updated_at=?, completed_at=?
WHERE id=? AND shop_id=? AND status=?`,
		string(s.Status), string(s.PaymentStatus), s.Subtotal, s.DiscountAmount, s.TotalAmount, s.PaidAmount,
		s.UpdatedAt, nullTime(s.CompletedAt), s.ID, s.ShopID, string(fromStatus))
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *SQLSaleRepo) UpdateStatusIf(ctx context.Context, id string, fromStatus, toStatus domain.SaleStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE sales
SET status = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND status = ?`,
		string(toStatus), id, string(fromStatus),
	)
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	// rows == 0 → nothing matched (either not found or status mismatch)
	return rows > 0, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullDiscountType(t *domain.DiscountType) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*t), Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

var _ usecase.SaleRepo = (*SQLSaleRepo)(nil)

var ErrNotFound = usecase.ErrNotFound
