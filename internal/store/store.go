package store

import (
	"context"
	"errors"

	"ubmqi/backend/internal/domain"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidTransaction  = errors.New("invalid transaction")
	ErrAlreadyPaid         = errors.New("already paid")
	ErrDuplicateEmail      = errors.New("email already registered")
)

// SaleSettlement bundles every effect of one sale so implementations can
// apply stock decrements, the sale record, ledger entries and the SHU
// allocation under a single lock or transaction.
type SaleSettlement struct {
	Sale       domain.Sale
	StockDelta map[string]int
	Entries    []domain.Transaction
	Allocation *domain.SHUAllocation
}

// SaleResolution carries the effects of settling a receivable.
type SaleResolution struct {
	Entries    []domain.Transaction
	Allocation domain.SHUAllocation
}

type Repository interface {
	// Members
	CreateMember(ctx context.Context, account domain.MemberAccount) (*domain.Member, error)
	GetMemberByID(ctx context.Context, id string) (*domain.Member, error)
	GetMemberAccountByEmail(ctx context.Context, email string) (*domain.MemberAccount, error)
	ListMembers(ctx context.Context) ([]domain.Member, error)
	UpdateMember(ctx context.Context, account domain.MemberAccount) (*domain.Member, error)
	DeleteMember(ctx context.Context, id string) error
	CountMembers(ctx context.Context) (int, error)

	// Products
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
	GetProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)

	// Ledger
	AppendTransaction(ctx context.Context, entry domain.Transaction) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, category string, memberID string, limit int) ([]domain.Transaction, error)

	// Sales
	SettleSale(ctx context.Context, settlement SaleSettlement) (*domain.Sale, error)
	GetSaleByID(ctx context.Context, id string) (*domain.Sale, error)
	ListSales(ctx context.Context, status string, limit int) ([]domain.Sale, error)
	MarkSalePaid(ctx context.Context, saleID string, resolution SaleResolution) (*domain.Sale, error)

	// SHU
	GetSHUPool(ctx context.Context) (domain.SHUPool, error)
	GetMemberSHU(ctx context.Context, memberID string) (*domain.MemberSHU, error)
	ListMemberSHU(ctx context.Context) ([]domain.MemberSHU, error)
	WithdrawMemberSHU(ctx context.Context, memberID string, amount int64, entry domain.Transaction) (*domain.MemberSHU, *domain.Transaction, error)

	// Snapshot exchange
	ExportSnapshot(ctx context.Context) (*domain.Snapshot, error)
	ImportSnapshot(ctx context.Context, snap domain.Snapshot) error
}
