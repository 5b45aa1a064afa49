package repo

import (
	"context"
	"database/sql"
	"testing"
	"time"

	domain "github.com/aq2208/gpos-checkout/internal/entity"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *SQLSaleRepo {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(context.Background(), db))
	return NewSQLSaleRepo(db)
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleSale(id string) *domain.Sale {
	now := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	cust := "cust-1"
	pct := domain.DiscountPercentage
	return &domain.Sale{
		ID: id, ShopID: "shop-1", SaleNumber: "S-" + id, CustomerID: &cust, SaleDate: "2026-02-03",
		Currency: "USD", Status: domain.SaleStatusPending, PaymentStatus: domain.PaymentStatusUnpaid,
		DiscountType: &pct, DiscountValue: d("5"), DiscountAmount: d("12.5"), TaxAmount: d("7.25"),
		Notes: "engraving", CreatedBy: "user-1", CreatedAt: now, UpdatedAt: now,
	}
}

func TestSQLSaleRepo_CreateAndGet(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, r.CreateSale(ctx, sampleSale("a1")))

	got, err := r.GetSale(ctx, "shop-1", "a1")
	require.NoError(t, err)
	assert.Equal(t, "S-a1", got.SaleNumber)
	require.NotNil(t, got.CustomerID)
	assert.Equal(t, "cust-1", *got.CustomerID)
	require.NotNil(t, got.DiscountType)
	assert.Equal(t, domain.DiscountPercentage, *got.DiscountType)
	assert.True(t, d("12.5").Equal(got.DiscountAmount))
	assert.True(t, d("7.25").Equal(got.TaxAmount))
	assert.Equal(t, domain.SaleStatusPending, got.Status)
	assert.Equal(t, "engraving", got.Notes)
	assert.Nil(t, got.CompletedAt)

	_, err = r.GetSale(ctx, "shop-2", "a1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLSaleRepo_ItemsAndPayments(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, r.CreateSale(ctx, sampleSale("b1")))
	at := time.Date(2026, 2, 3, 5, 0, 0, 0, time.UTC)

	fixed := domain.DiscountFixed
	require.NoError(t, r.InsertItem(ctx, &domain.SaleItem{ID: "i1", SaleID: "b1", ItemID: "ring", SKU: "RG-18K", Name: "18k ring",
		UnitPrice: d("450"), Quantity: 1, DiscountType: &fixed, DiscountValue: d("50"), LineTotal: d("400"), CreatedAt: at}))
	require.NoError(t, r.InsertItem(ctx, &domain.SaleItem{ID: "i2", SaleID: "b1", ItemID: "chain",
		UnitPrice: d("19.99"), Quantity: 2, LineTotal: d("39.98"), CreatedAt: at.Add(time.Second)}))

	items, err := r.ListItems(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "ring", items[0].ItemID)
	require.NotNil(t, items[0].DiscountType)
	assert.True(t, d("400").Equal(items[0].LineTotal))
	assert.Nil(t, items[1].DiscountType)
	assert.True(t, d("39.98").Equal(items[1].LineTotal))

	require.NoError(t, r.InsertPayment(ctx, &domain.SalePayment{ID: "p1", SaleID: "b1", PaymentType: domain.PaymentCash,
		Amount: d("100"), CreatedBy: "user-1", CreatedAt: at}))
	require.NoError(t, r.InsertPayment(ctx, &domain.SalePayment{ID: "p2", SaleID: "b1", PaymentType: domain.PaymentGoldExchange,
		Amount: d("339.98"), Reference: "scrap 12g", CreatedBy: "user-1", CreatedAt: at.Add(time.Second)}))

	pays, err := r.ListPayments(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, pays, 2)
	assert.Equal(t, domain.PaymentGoldExchange, pays[1].PaymentType)
	assert.Equal(t, "scrap 12g", pays[1].Reference)

	empty, err := r.ListItems(ctx, "nope")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSQLSaleRepo_CompleteIsGuarded(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	s := sampleSale("c1")
	require.NoError(t, r.CreateSale(ctx, s))

	done := time.Date(2026, 2, 3, 6, 0, 0, 0, time.UTC)
	s.Status = domain.SaleStatusCompleted
	s.PaymentStatus = domain.PaymentStatusPaid
	s.Subtotal, s.TotalAmount, s.PaidAmount = d("250"), d("244.75"), d("244.75")
	s.UpdatedAt, s.CompletedAt = done, &done

	ok, err := r.CompleteSale(ctx, s, domain.SaleStatusPending)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.CompleteSale(ctx, s, domain.SaleStatusPending)
	require.NoError(t, err)
	assert.False(t, ok, "second completion must not match")

	got, err := r.GetSale(ctx, "shop-1", "c1")
	require.NoError(t, err)
	assert.Equal(t, domain.SaleStatusCompleted, got.Status)
	assert.Equal(t, domain.PaymentStatusPaid, got.PaymentStatus)
	assert.True(t, d("244.75").Equal(got.TotalAmount))
	require.NotNil(t, got.CompletedAt)

	ok, err = r.UpdateStatusIf(ctx, "c1", domain.SaleStatusCompleted, domain.SaleStatusVoided)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = r.UpdateStatusIf(ctx, "c1", domain.SaleStatusCompleted, domain.SaleStatusVoided)
	require.NoError(t, err)
	assert.False(t, ok)
}
