package usecase

import (
	"context"

	domain "github.com/aq2208/gpos-checkout/internal/entity"
	"github.com/shopspring/decimal"
)

// CartSource gives the checkout read access to the caller's cart and a way to clear it.
type CartSource interface {
	Cart() domain.Cart
	Clear(ctx context.Context) error
}

type IdentitySource interface {
	Identity() domain.Identity
}

// IdentityFunc adapts a plain function to IdentitySource.
type IdentityFunc func() domain.Identity

func (f IdentityFunc) Identity() domain.Identity { return f() }

type CreateSaleInput struct {
	ShopID         string
	CustomerID     *string
	SaleDate       string
	Currency       string
	DiscountType   *domain.DiscountType
	DiscountValue  decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	Notes          string
	CreatedBy      string
	IdempotencyKey string
}

type AddSaleItemInput struct {
	ShopID    string
	SaleID    string
	ItemID    string
	SKU       string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	Discount  *domain.Discount
}

type RecordPaymentInput struct {
	ShopID      string
	SaleID      string
	PaymentType domain.PaymentType
	Amount      decimal.Decimal
	Reference   string
	Notes       string
	CreatedBy   string
}

type CompleteSaleInput struct {
	ShopID string
	SaleID string
}

// SaleOperations are the persistence calls a checkout drives. A non-nil error is a failed call.
type SaleOperations interface {
	CreateSale(ctx context.Context, in CreateSaleInput) (*domain.Sale, error)
	AddSaleItem(ctx context.Context, in AddSaleItemInput) (*domain.SaleItem, error)
	RecordPayment(ctx context.Context, in RecordPaymentInput) (*domain.SalePayment, error)
	CompleteSale(ctx context.Context, in CompleteSaleInput) (*domain.Sale, error)
}

// Notifier announces outcomes to the user. Calls are fire-and-forget.
type Notifier interface {
	Success(msg string)
	Error(msg string)
	Info(msg string)
	Warning(msg string)
}

// Callbacks are supplied by whoever mounts a checkout. Nil fields are skipped.
type Callbacks struct {
	OnComplete func(sale domain.Sale)
	OnCancel   func()
	OnError    func(message string)
}

// SaleRepo is the persistence shape behind SaleService.
type SaleRepo interface {
	CreateSale(ctx context.Context, s *domain.Sale) error
	GetSale(ctx context.Context, shopID, id string) (*domain.Sale, error)
	InsertItem(ctx context.Context, it *domain.SaleItem) error
	ListItems(ctx context.Context, saleID string) ([]domain.SaleItem, error)
	InsertPayment(ctx context.Context, p *domain.SalePayment) error
	ListPayments(ctx context.Context, saleID string) ([]domain.SalePayment, error)
	// CompleteSale writes final totals and flips status only when the row is still in fromStatus.
	CompleteSale(ctx context.Context, s *domain.Sale, fromStatus domain.SaleStatus) (bool, error)
	UpdateStatusIf(ctx context.Context, id string, fromStatus, toStatus domain.SaleStatus) (bool, error)
}

type CartStore interface {
	Load(ctx context.Context, shopID, userID string) (domain.Cart, error)
	Save(ctx context.Context, shopID, userID string, cart domain.Cart) error
	Delete(ctx context.Context, shopID, userID string) error
}

type SaleStatusCache interface {
	SetStatus(ctx context.Context, saleID string, status string) error
	GetStatus(ctx context.Context, saleID string) (string, error)
}

type SaleEventPublisher interface {
	PublishCompleted(ctx context.Context, msg SaleCompletedMsg) error
}

type IdempotencyStore interface {
	TryLock(ctx context.Context, scope, key string) (bool, error)
	Remember(ctx context.Context, scope, key, value string) error
	Recall(ctx context.Context, scope, key string) (string, bool, error)
	Release(ctx context.Context, scope, key string) error
}
