package domain

import "time"

// All monetary amounts are int64 rupiah (no fractional unit).

const (
	RoleAdmin   = "ADMIN"
	RoleAnggota = "ANGGOTA"
)

const (
	MemberStatusAktif = "Aktif"
)

// Ledger entry direction, from the cooperative's cash box perspective:
// DEBIT is money in, KREDIT is money out.
const (
	EntryDebit  = "DEBIT"
	EntryKredit = "KREDIT"
)

const (
	CategorySimpanan  = "Simpanan"
	CategoryPenjualan = "Penjualan"
	CategoryBiayaOps  = "Biaya Operasional"
	CategorySHU       = "SHU"
	CategoryLainnya   = "Lainnya"
	CategoryHPP       = "HPP"
)

const (
	SaleStatusLunas   = "Lunas"
	SaleStatusPiutang = "Piutang"
)

const (
	SavingsWajib    = "Wajib"
	SavingsPokok    = "Pokok"
	SavingsSukarela = "Sukarela"
)

type Member struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Status     string `json:"status"`
	Address    string `json:"address"`
	JoinedDate string `json:"joined_date"`
}

// MemberAccount is the internal persistence model for a member including
// the password hash. Never serialized into API responses.
type MemberAccount struct {
	Member
	PasswordHash string
}

type MemberCreateRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type MemberUpdateRequest struct {
	Name     *string `json:"name,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Address  *string `json:"address,omitempty"`
	Password *string `json:"password,omitempty"`
}

type MemberResponse struct {
	Member Member `json:"member"`
}

type MemberListResponse struct {
	Members []Member `json:"members"`
}

type Product struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	BuyPrice  int64  `json:"buy_price"`
	SellPrice int64  `json:"sell_price"`
	Stock     int    `json:"stock"`
}

type ProductCreateRequest struct {
	Name      string `json:"name"`
	Category  string `json:"category"`
	BuyPrice  int64  `json:"buy_price"`
	SellPrice int64  `json:"sell_price"`
	Stock     int    `json:"stock"`
}

type ProductUpdateRequest struct {
	Name      *string `json:"name,omitempty"`
	Category  *string `json:"category,omitempty"`
	BuyPrice  *int64  `json:"buy_price,omitempty"`
	SellPrice *int64  `json:"sell_price,omitempty"`
	Stock     *int    `json:"stock,omitempty"`
}

type ProductResponse struct {
	Product Product `json:"product"`
}

type ProductListResponse struct {
	Products []Product `json:"products"`
}

// Transaction is one immutable ledger entry. MemberID is set when the
// entry belongs to a member (savings, SHU payouts, sales); empty for
// organization-level entries.
type Transaction struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Amount      int64     `json:"amount"`
	Date        time.Time `json:"date"`
	Category    string    `json:"category"`
	MemberID    string    `json:"member_id,omitempty"`
}

type TransactionListResponse struct {
	Transactions []Transaction `json:"transactions"`
}

type SaleItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Qty       int    `json:"qty"`
	UnitPrice int64  `json:"unit_price"`
}

type Sale struct {
	ID            string     `json:"id"`
	MemberID      string     `json:"member_id"`
	MemberName    string     `json:"member_name"`
	Items         []SaleItem `json:"items"`
	Total         int64      `json:"total"`
	HPP           int64      `json:"hpp"`
	PaymentStatus string     `json:"payment_status"`
	Date          time.Time  `json:"date"`
}

type CartLine struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type SaleRequest struct {
	MemberID      string     `json:"member_id"`
	PaymentStatus string     `json:"payment_status"`
	Lines         []CartLine `json:"lines"`
}

type SaleResponse struct {
	Sale      Sale  `json:"sale"`
	NetProfit int64 `json:"net_profit"`
	Allocated bool  `json:"allocated"`
}

type SaleListResponse struct {
	Sales []Sale `json:"sales"`
}

// SHUPool holds the organization-wide running allocation totals. The
// totals are cumulative gross allocation: withdrawals debit the
// per-member balances, never the pool.
type SHUPool struct {
	JasaModal     int64 `json:"jasaModal"`
	JasaTransaksi int64 `json:"jasaTransaksi"`
	Pengurus      int64 `json:"pengurus"`
	CadanganModal int64 `json:"cadanganModal"`
	InfaqMQI      int64 `json:"infaqMQI"`
}

func (p SHUPool) Total() int64 {
	return p.JasaModal + p.JasaTransaksi + p.Pengurus + p.CadanganModal + p.InfaqMQI
}

// SHUAllocation is one computed split of a sale's net profit. The five
// shares always sum to the net profit exactly.
type SHUAllocation struct {
	MemberID      string `json:"member_id"`
	JasaModal     int64  `json:"jasaModal"`
	JasaTransaksi int64  `json:"jasaTransaksi"`
	Pengurus      int64  `json:"pengurus"`
	CadanganModal int64  `json:"cadanganModal"`
	InfaqMQI      int64  `json:"infaqMQI"`
}

func (a SHUAllocation) Total() int64 {
	return a.JasaModal + a.JasaTransaksi + a.Pengurus + a.CadanganModal + a.InfaqMQI
}

// MemberSHU is one member's accrued, withdrawable SHU balance.
type MemberSHU struct {
	MemberID      string `json:"memberId"`
	JasaModal     int64  `json:"jasaModal"`
	JasaTransaksi int64  `json:"jasaTransaksi"`
}

func (m MemberSHU) Total() int64 {
	return m.JasaModal + m.JasaTransaksi
}

type WithdrawSHURequest struct {
	MemberID string `json:"member_id"`
	Amount   int64  `json:"amount"`
}

type WithdrawSHUResponse struct {
	MemberSHU   MemberSHU   `json:"member_shu"`
	Transaction Transaction `json:"transaction"`
}

type CashEntryRequest struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
}

type SavingsEntryRequest struct {
	MemberID string `json:"member_id"`
	Type     string `json:"type"`
	SubType  string `json:"sub_type"`
	Amount   int64  `json:"amount"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	MemberID    string `json:"member_id"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	MemberID string
	Name     string
	Role     string
}

type DashboardSummary struct {
	CashBalance int64 `json:"cash_balance"`
	Receivables int64 `json:"receivables"`
	MemberCount int   `json:"member_count"`
}

type SavingsStatement struct {
	MemberID string        `json:"member_id,omitempty"`
	Balance  int64         `json:"balance"`
	History  []Transaction `json:"history"`
}

type SHUStatus struct {
	Pool      SHUPool     `json:"pool"`
	PoolTotal int64       `json:"pool_total"`
	Members   []MemberSHU `json:"members,omitempty"`
	Mine      *MemberSHU  `json:"mine,omitempty"`
}

type IncomeStatement struct {
	Revenue       int64 `json:"revenue"`
	COGS          int64 `json:"cogs"`
	OperatingCost int64 `json:"operating_cost"`
	NetProfit     int64 `json:"net_profit"`
}

type BalanceSheet struct {
	Cash             int64 `json:"cash"`
	Receivables      int64 `json:"receivables"`
	InventoryValue   int64 `json:"inventory_value"`
	TotalAssets      int64 `json:"total_assets"`
	Savings          int64 `json:"savings"`
	AllocatedSHU     int64 `json:"allocated_shu"`
	TotalLiabilities int64 `json:"total_liabilities"`
}

type FinancialReport struct {
	BalanceSheet    BalanceSheet    `json:"balance_sheet"`
	IncomeStatement IncomeStatement `json:"income_statement"`
	GeneratedAt     string          `json:"generated_at"`
}

// Snapshot is the full application state exchanged with the cloud blob
// store. AppSignature guards against importing a foreign document.
type Snapshot struct {
	AppSignature string        `json:"app_signature"`
	Members      []Member      `json:"members"`
	Products     []Product     `json:"products"`
	Transactions []Transaction `json:"transactions"`
	Sales        []Sale        `json:"sales"`
	SHUPool      SHUPool       `json:"shuPool"`
	MemberSHU    []MemberSHU   `json:"memberShu"`
	LastUpdated  string        `json:"lastUpdated"`
}

const SnapshotSignature = "UB_MQI_OFFICIAL"

type SyncPushResponse struct {
	SyncID      string `json:"sync_id"`
	LastUpdated string `json:"last_updated"`
}

type SyncPullResponse struct {
	SyncID       string `json:"sync_id"`
	Members      int    `json:"members"`
	Products     int    `json:"products"`
	Transactions int    `json:"transactions"`
	Sales        int    `json:"sales"`
}
