package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	domain "github.com/aq2208/gpos-checkout/internal/entity"
	"github.com/aq2208/gpos-checkout/internal/logging"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleService implements SaleOperations on top of a SaleRepo.
type SaleService struct {
	repo  SaleRepo
	idem  IdempotencyStore // optional
	pub   SaleEventPublisher
	cache SaleStatusCache // optional
	now   func() time.Time
	log   *slog.Logger
}

func NewSaleService(repo SaleRepo, idem IdempotencyStore, pub SaleEventPublisher, cache SaleStatusCache) *SaleService {
	return &SaleService{
		repo:  repo,
		idem:  idem,
		pub:   pub,
		cache: cache,
		now:   time.Now,
		log:   logging.New("sales"),
	}
}

type SaleDetail struct {
	Sale     domain.Sale          `json:"sale"`
	Items    []domain.SaleItem    `json:"items"`
	Payments []domain.SalePayment `json:"payments"`
}

func (s *SaleService) CreateSale(ctx context.Context, in CreateSaleInput) (*domain.Sale, error) {
	if in.ShopID == "" || in.CreatedBy == "" {
		return nil, ErrMissingIdentity
	}
	if strings.TrimSpace(in.Currency) == "" {
		return nil, ErrInvalidCurrency
	}
	if in.DiscountType != nil && (!in.DiscountType.Valid() || in.DiscountValue.IsNegative()) {
		return nil, ErrInvalidDiscount
	}
	if in.TaxAmount.IsNegative() || in.DiscountAmount.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}

	scope := in.ShopID + ":" + in.CreatedBy
	useIdem := s.idem != nil && in.IdempotencyKey != ""
	if useIdem {
		// Fast path: idempotency recall
		prev, ok, err := s.idem.Recall(ctx, scope, in.IdempotencyKey)
		if err != nil {
			s.log.Warn("idempotency recall failed", "shop_id", in.ShopID, "key", in.IdempotencyKey, "error", err)
		} else if ok {
			return s.repo.GetSale(ctx, in.ShopID, prev)
		}
		ok, err = s.idem.TryLock(ctx, scope, in.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrDuplicate
		}
	}

	now := s.now().UTC()
	id := uuid.NewString()
	sale := &domain.Sale{
		ID:             id,
		ShopID:         in.ShopID,
		SaleNumber:     saleNumber(now, id),
		CustomerID:     in.CustomerID,
		SaleDate:       in.SaleDate,
		Currency:       strings.ToUpper(in.Currency),
		Status:         domain.SaleStatusPending,
		PaymentStatus:  domain.PaymentStatusUnpaid,
		DiscountType:   in.DiscountType,
		DiscountValue:  in.DiscountValue,
		DiscountAmount: in.DiscountAmount,
		TaxAmount:      in.TaxAmount,
		Notes:          in.Notes,
		CreatedBy:      in.CreatedBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if sale.SaleDate == "" {
		sale.SaleDate = now.Format("2006-01-02")
	}
	if err := s.repo.CreateSale(ctx, sale); err != nil {
		if useIdem {
			_ = s.idem.Release(ctx, scope, in.IdempotencyKey)
		}
		return nil, fmt.Errorf("create sale: %w", err)
	}
	if useIdem {
		_ = s.idem.Remember(ctx, scope, in.IdempotencyKey, id)
	}
	s.log.Info("sale created", "sale_id", id, "shop_id", in.ShopID)
	return sale, nil
}

func (s *SaleService) AddSaleItem(ctx context.Context, in AddSaleItemInput) (*domain.SaleItem, error) {
	if in.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if in.UnitPrice.IsNegative() {
		return nil, ErrInvalidPrice
	}
	if in.Discount != nil && (!in.Discount.Type.Valid() || in.Discount.Value.IsNegative()) {
		return nil, ErrInvalidDiscount
	}
	if _, err := s.pendingSale(ctx, in.ShopID, in.SaleID); err != nil {
		return nil, err
	}

	line := domain.CartItem{ItemID: in.ItemID, UnitPrice: in.UnitPrice, Quantity: in.Quantity, Discount: in.Discount}
	item := &domain.SaleItem{
		ID:        uuid.NewString(),
		SaleID:    in.SaleID,
		ItemID:    in.ItemID,
		SKU:       in.SKU,
		Name:      in.Name,
		UnitPrice: in.UnitPrice,
		Quantity:  in.Quantity,
		LineTotal: LineTotal(line),
		CreatedAt: s.now().UTC(),
	}
	if in.Discount != nil {
		dt := in.Discount.Type
		item.DiscountType = &dt
		item.DiscountValue = in.Discount.Value
	}
	if err := s.repo.InsertItem(ctx, item); err != nil {
		return nil, fmt.Errorf("add sale item: %w", err)
	}
	return item, nil
}

func (s *SaleService) RecordPayment(ctx context.Context, in RecordPaymentInput) (*domain.SalePayment, error) {
	if in.PaymentType == domain.PaymentRefund {
		return nil, ErrRefundNotAllowed
	}
	if !in.PaymentType.Valid() {
		return nil, ErrInvalidPayment
	}
	if !in.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	if _, err := s.pendingSale(ctx, in.ShopID, in.SaleID); err != nil {
		return nil, err
	}

	p := &domain.SalePayment{
		ID:          uuid.NewString(),
		SaleID:      in.SaleID,
		PaymentType: in.PaymentType,
		Amount:      in.Amount,
		Reference:   in.Reference,
		Notes:       in.Notes,
		CreatedBy:   in.CreatedBy,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.InsertPayment(ctx, p); err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}
	return p, nil
}

// CompleteSale recomputes the sale figures from what was persisted and closes it.
func (s *SaleService) CompleteSale(ctx context.Context, in CompleteSaleInput) (*domain.Sale, error) {
	sale, err := s.pendingSale(ctx, in.ShopID, in.SaleID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListItems(ctx, sale.ID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	payments, err := s.repo.ListPayments(ctx, sale.ID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}

	var orderDiscount *domain.Discount
	if sale.DiscountType != nil {
		orderDiscount = &domain.Discount{Type: *sale.DiscountType, Value: sale.DiscountValue}
	}
	t := ComputeTotals(cartItemsFromSale(items), orderDiscount, decimal.Zero, SumPayments(payments))
	now := s.now().UTC()
	sale.Subtotal = t.Subtotal
	sale.DiscountAmount = t.OrderDiscount
	// tax was computed against the shop rate at creation and is carried as-is
	sale.TotalAmount = t.GrandTotal.Add(sale.TaxAmount)
	sale.PaidAmount = t.PaidAmount
	sale.PaymentStatus = domain.PaymentStatusFor(sale.TotalAmount, sale.PaidAmount)
	sale.Status = domain.SaleStatusCompleted
	sale.UpdatedAt = now
	sale.CompletedAt = &now

	ok, err := s.repo.CompleteSale(ctx, sale, domain.SaleStatusPending)
	if err != nil {
		return nil, fmt.Errorf("complete sale: %w", err)
	}
	if !ok {
		return nil, ErrSaleNotPending
	}

	if s.pub != nil {
		msg := SaleCompletedMsg{
			SaleID:     sale.ID,
			ShopID:     sale.ShopID,
			SaleNumber: sale.SaleNumber,
			Total:      sale.TotalAmount,
			Paid:       sale.PaidAmount,
			Currency:   sale.Currency,
			Status:     string(sale.Status),
		}
		if sale.CustomerID != nil {
			msg.CustomerID = *sale.CustomerID
		}
		// best-effort; the sale row is already committed
		if err := s.pub.PublishCompleted(ctx, msg); err != nil {
			s.log.Warn("publish sale completed failed", "sale_id", sale.ID, "error", err)
		}
	}
	s.log.Info("sale completed", "sale_id", sale.ID, "total", sale.TotalAmount.String(), "payment_status", string(sale.PaymentStatus))
	return sale, nil
}

func (s *SaleService) GetSaleDetail(ctx context.Context, shopID, id string) (*SaleDetail, error) {
	sale, err := s.repo.GetSale(ctx, shopID, id)
	if err != nil {
		return nil, normalizeNotFound(err)
	}
	items, err := s.repo.ListItems(ctx, id)
	if err != nil {
		return nil, err
	}
	payments, err := s.repo.ListPayments(ctx, id)
	if err != nil {
		return nil, err
	}
	return &SaleDetail{Sale: *sale, Items: items, Payments: payments}, nil
}

// MarkStatus applies an externally decided status change. Only completed sales can be voided.
func (s *SaleService) MarkStatus(ctx context.Context, saleID string, to domain.SaleStatus) (bool, error) {
	if to != domain.SaleStatusVoided {
		return false, ErrInvalidStatus
	}
	ok, err := s.repo.UpdateStatusIf(ctx, saleID, domain.SaleStatusCompleted, to)
	if err != nil {
		return false, err
	}
	if ok && s.cache != nil {
		_ = s.cache.SetStatus(ctx, saleID, string(to))
	}
	return ok, nil
}

func (s *SaleService) pendingSale(ctx context.Context, shopID, id string) (*domain.Sale, error) {
	if shopID == "" {
		return nil, ErrMissingIdentity
	}
	sale, err := s.repo.GetSale(ctx, shopID, id)
	if err != nil {
		return nil, normalizeNotFound(err)
	}
	if sale.Status != domain.SaleStatusPending {
		return nil, ErrSaleNotPending
	}
	return sale, nil
}

// ErrNotFound is returned by SaleRepo implementations for missing rows.
var ErrNotFound = errors.New("not found")

func normalizeNotFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return ErrSaleNotFound
	}
	return err
}

func saleNumber(at time.Time, id string) string {
	return "S-" + at.Format("20060102") + "-" + strings.ToUpper(strings.ReplaceAll(id, "-", "")[:6])
}

var _ SaleOperations = (*SaleService)(nil)
