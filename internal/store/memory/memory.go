package memory

import (
	"context"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"ubmqi/backend/internal/domain"
	"ubmqi/backend/internal/store"
	"ubmqi/backend/internal/xid"
)

type Store struct {
	mu           sync.RWMutex
	members      map[string]domain.MemberAccount
	products     map[string]domain.Product
	transactions []domain.Transaction
	salesByID    map[string]domain.Sale
	saleOrder    []string
	shuPool      domain.SHUPool
	memberSHU    map[string]domain.MemberSHU
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// seedAdmin builds the initial admin account for dev/demo mode. The
// password is read from SEED_ADMIN_PASSWORD; if unset a hardcoded dev
// default is used with a warning. Production runs on PostgreSQL.
func seedAdmin() domain.MemberAccount {
	pwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev admin credentials. Set SEED_ADMIN_PASSWORD to override.")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("[memory-store] failed to hash seed password: %v", err)
	}
	return domain.MemberAccount{
		Member: domain.Member{
			ID:         "adm-001",
			Name:       "Pengurus UB MQI",
			Role:       domain.RoleAdmin,
			Phone:      "081200000001",
			Email:      "admin@ubmqi.id",
			Status:     domain.MemberStatusAktif,
			Address:    "Sekretariat MQI",
			JoinedDate: "2024-01-01",
		},
		PasswordHash: string(hash),
	}
}

func NewSeeded() *Store {
	products := []domain.Product{
		{ID: "prd-001", Name: "Beras Premium 5kg", Category: "Sembako", BuyPrice: 62000, SellPrice: 68000, Stock: 40},
		{ID: "prd-002", Name: "Minyak Goreng 2L", Category: "Sembako", BuyPrice: 34000, SellPrice: 38000, Stock: 60},
		{ID: "prd-003", Name: "Gula Pasir 1kg", Category: "Sembako", BuyPrice: 15500, SellPrice: 17500, Stock: 80},
		{ID: "prd-004", Name: "Telur Ayam 1kg", Category: "Sembako", BuyPrice: 25000, SellPrice: 28000, Stock: 50},
		{ID: "prd-005", Name: "Air Mineral Galon", Category: "Minuman", BuyPrice: 17000, SellPrice: 20000, Stock: 30},
		{ID: "prd-006", Name: "Kopi Bubuk 250g", Category: "Minuman", BuyPrice: 21000, SellPrice: 25000, Stock: 45},
	}

	productMap := make(map[string]domain.Product, len(products))
	for _, p := range products {
		productMap[p.ID] = p
	}

	admin := seedAdmin()
	return &Store{
		members:      map[string]domain.MemberAccount{admin.ID: admin},
		products:     productMap,
		transactions: make([]domain.Transaction, 0, 128),
		salesByID:    make(map[string]domain.Sale),
		saleOrder:    make([]string, 0, 64),
		memberSHU:    make(map[string]domain.MemberSHU),
	}
}

// New returns an empty store, used by tests that need full control of
// the initial state.
func New() *Store {
	return &Store{
		members:      make(map[string]domain.MemberAccount),
		products:     make(map[string]domain.Product),
		transactions: make([]domain.Transaction, 0, 16),
		salesByID:    make(map[string]domain.Sale),
		saleOrder:    make([]string, 0, 16),
		memberSHU:    make(map[string]domain.MemberSHU),
	}
}

func cmpString(a, b string) int {
	return strings.Compare(a, b)
}

func (s *Store) CreateMember(_ context.Context, account domain.MemberAccount) (*domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if account.Name == "" || account.Email == "" || account.PasswordHash == "" {
		return nil, store.ErrInvalidTransaction
	}
	for _, existing := range s.members {
		if strings.EqualFold(existing.Email, account.Email) {
			return nil, store.ErrDuplicateEmail
		}
	}
	if account.ID == "" {
		account.ID = xid.New("mbr")
	}
	if _, exists := s.members[account.ID]; exists {
		return nil, store.ErrInvalidTransaction
	}
	if account.Status == "" {
		account.Status = domain.MemberStatusAktif
	}
	if account.JoinedDate == "" {
		account.JoinedDate = time.Now().UTC().Format("2006-01-02")
	}
	s.members[account.ID] = account
	created := account.Member
	return &created, nil
}

func (s *Store) GetMemberByID(_ context.Context, id string) (*domain.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, exists := s.members[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	member := account.Member
	return &member, nil
}

func (s *Store) GetMemberAccountByEmail(_ context.Context, email string) (*domain.MemberAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, account := range s.members {
		if strings.EqualFold(account.Email, email) {
			found := account
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListMembers(_ context.Context) ([]domain.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	members := make([]domain.Member, 0, len(s.members))
	for _, account := range s.members {
		members = append(members, account.Member)
	}
	slices.SortFunc(members, func(a, b domain.Member) int {
		return cmpString(a.Name, b.Name)
	})
	return members, nil
}

func (s *Store) UpdateMember(_ context.Context, account domain.MemberAccount) (*domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.members[account.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if account.Name == "" {
		return nil, store.ErrInvalidTransaction
	}
	if account.PasswordHash == "" {
		account.PasswordHash = current.PasswordHash
	}
	s.members[account.ID] = account
	updated := account.Member
	return &updated, nil
}

func (s *Store) DeleteMember(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.members[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.members, id)
	return nil
}

func (s *Store) CountMembers(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.members), nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.Name == "" || product.SellPrice < 1 || product.BuyPrice < 0 || product.Stock < 0 {
		return nil, store.ErrInvalidTransaction
	}
	if product.ID == "" {
		product.ID = xid.New("prd")
	}
	if _, exists := s.products[product.ID]; exists {
		return nil, store.ErrInvalidTransaction
	}
	s.products[product.ID] = product
	created := product
	return &created, nil
}

func (s *Store) GetProductByID(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.products[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyProduct := product
	return &copyProduct, nil
}

func (s *Store) GetProductsByIDs(_ context.Context, ids []string) (map[string]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]domain.Product, len(ids))
	for _, id := range ids {
		if product, exists := s.products[id]; exists {
			result[id] = product
		}
	}
	return result, nil
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}
	slices.SortFunc(products, func(a, b domain.Product) int {
		if a.Category == b.Category {
			return cmpString(a.Name, b.Name)
		}
		return cmpString(a.Category, b.Category)
	})
	return products, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.Name == "" || product.SellPrice < 1 || product.BuyPrice < 0 || product.Stock < 0 {
		return nil, store.ErrInvalidTransaction
	}
	if _, exists := s.products[product.ID]; !exists {
		return nil, store.ErrNotFound
	}
	s.products[product.ID] = product
	updated := product
	return &updated, nil
}

func (s *Store) appendTransactionLocked(entry domain.Transaction) domain.Transaction {
	if entry.ID == "" {
		entry.ID = xid.New("trx")
	}
	if entry.Date.IsZero() {
		entry.Date = time.Now().UTC()
	}
	s.transactions = append(s.transactions, entry)
	return entry
}

func (s *Store) AppendTransaction(_ context.Context, entry domain.Transaction) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.Amount < 0 {
		return nil, store.ErrInvalidTransaction
	}
	if entry.Type != domain.EntryDebit && entry.Type != domain.EntryKredit {
		return nil, store.ErrInvalidTransaction
	}
	appended := s.appendTransactionLocked(entry)
	return &appended, nil
}

func (s *Store) ListTransactions(_ context.Context, category string, memberID string, limit int) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Transaction, 0, len(s.transactions))
	for i := len(s.transactions) - 1; i >= 0; i-- {
		entry := s.transactions[i]
		if category != "" && entry.Category != category {
			continue
		}
		if memberID != "" && entry.MemberID != memberID {
			continue
		}
		result = append(result, entry)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (s *Store) applyAllocationLocked(alloc domain.SHUAllocation) {
	s.shuPool.JasaModal += alloc.JasaModal
	s.shuPool.JasaTransaksi += alloc.JasaTransaksi
	s.shuPool.Pengurus += alloc.Pengurus
	s.shuPool.CadanganModal += alloc.CadanganModal
	s.shuPool.InfaqMQI += alloc.InfaqMQI

	balance, exists := s.memberSHU[alloc.MemberID]
	if !exists {
		balance = domain.MemberSHU{MemberID: alloc.MemberID}
	}
	balance.JasaTransaksi += alloc.JasaTransaksi
	s.memberSHU[alloc.MemberID] = balance
}

func (s *Store) SettleSale(_ context.Context, settlement store.SaleSettlement) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale := settlement.Sale
	if sale.ID == "" || len(sale.Items) == 0 {
		return nil, store.ErrInvalidTransaction
	}
	if _, exists := s.salesByID[sale.ID]; exists {
		return nil, store.ErrInvalidTransaction
	}

	// Stock is validated against current state before any mutation so the
	// whole settlement fails or succeeds as one unit.
	for productID, qty := range settlement.StockDelta {
		product, exists := s.products[productID]
		if !exists {
			return nil, store.ErrNotFound
		}
		if product.Stock < qty {
			return nil, store.ErrInsufficientStock
		}
	}
	for productID, qty := range settlement.StockDelta {
		product := s.products[productID]
		product.Stock -= qty
		s.products[productID] = product
	}

	if sale.Date.IsZero() {
		sale.Date = time.Now().UTC()
	}
	s.salesByID[sale.ID] = sale
	s.saleOrder = append(s.saleOrder, sale.ID)

	for _, entry := range settlement.Entries {
		s.appendTransactionLocked(entry)
	}
	if settlement.Allocation != nil {
		s.applyAllocationLocked(*settlement.Allocation)
	}

	created := sale
	return &created, nil
}

func (s *Store) GetSaleByID(_ context.Context, id string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, exists := s.salesByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	found := sale
	return &found, nil
}

func (s *Store) ListSales(_ context.Context, status string, limit int) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Sale, 0, len(s.saleOrder))
	for i := len(s.saleOrder) - 1; i >= 0; i-- {
		sale := s.salesByID[s.saleOrder[i]]
		if status != "" && sale.PaymentStatus != status {
			continue
		}
		result = append(result, sale)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (s *Store) MarkSalePaid(_ context.Context, saleID string, resolution store.SaleResolution) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, exists := s.salesByID[saleID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if sale.PaymentStatus != domain.SaleStatusPiutang {
		return nil, store.ErrAlreadyPaid
	}

	sale.PaymentStatus = domain.SaleStatusLunas
	s.salesByID[saleID] = sale

	for _, entry := range resolution.Entries {
		s.appendTransactionLocked(entry)
	}
	s.applyAllocationLocked(resolution.Allocation)

	updated := sale
	return &updated, nil
}

func (s *Store) GetSHUPool(_ context.Context) (domain.SHUPool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shuPool, nil
}

func (s *Store) GetMemberSHU(_ context.Context, memberID string) (*domain.MemberSHU, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	balance, exists := s.memberSHU[memberID]
	if !exists {
		return nil, store.ErrNotFound
	}
	found := balance
	return &found, nil
}

func (s *Store) ListMemberSHU(_ context.Context) ([]domain.MemberSHU, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	balances := make([]domain.MemberSHU, 0, len(s.memberSHU))
	for _, balance := range s.memberSHU {
		balances = append(balances, balance)
	}
	slices.SortFunc(balances, func(a, b domain.MemberSHU) int {
		return cmpString(a.MemberID, b.MemberID)
	})
	return balances, nil
}

func (s *Store) WithdrawMemberSHU(_ context.Context, memberID string, amount int64, entry domain.Transaction) (*domain.MemberSHU, *domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if amount < 1 {
		return nil, nil, store.ErrInvalidTransaction
	}
	balance, exists := s.memberSHU[memberID]
	if !exists {
		return nil, nil, store.ErrNotFound
	}
	if amount > balance.JasaModal+balance.JasaTransaksi {
		return nil, nil, store.ErrInsufficientBalance
	}

	// jasaModal drains first, the remainder comes out of jasaTransaksi.
	fromModal := min(amount, balance.JasaModal)
	balance.JasaModal -= fromModal
	balance.JasaTransaksi -= amount - fromModal
	s.memberSHU[memberID] = balance

	appended := s.appendTransactionLocked(entry)
	updated := balance
	return &updated, &appended, nil
}

func (s *Store) ExportSnapshot(_ context.Context) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := domain.Snapshot{
		AppSignature: domain.SnapshotSignature,
		Members:      make([]domain.Member, 0, len(s.members)),
		Products:     make([]domain.Product, 0, len(s.products)),
		Transactions: make([]domain.Transaction, len(s.transactions)),
		Sales:        make([]domain.Sale, 0, len(s.saleOrder)),
		SHUPool:      s.shuPool,
		MemberSHU:    make([]domain.MemberSHU, 0, len(s.memberSHU)),
		LastUpdated:  time.Now().UTC().Format(time.RFC3339),
	}
	for _, account := range s.members {
		snap.Members = append(snap.Members, account.Member)
	}
	for _, product := range s.products {
		snap.Products = append(snap.Products, product)
	}
	copy(snap.Transactions, s.transactions)
	for _, id := range s.saleOrder {
		snap.Sales = append(snap.Sales, s.salesByID[id])
	}
	for _, balance := range s.memberSHU {
		snap.MemberSHU = append(snap.MemberSHU, balance)
	}
	slices.SortFunc(snap.Members, func(a, b domain.Member) int { return cmpString(a.ID, b.ID) })
	slices.SortFunc(snap.Products, func(a, b domain.Product) int { return cmpString(a.ID, b.ID) })
	slices.SortFunc(snap.MemberSHU, func(a, b domain.MemberSHU) int { return cmpString(a.MemberID, b.MemberID) })
	return &snap, nil
}

func (s *Store) ImportSnapshot(_ context.Context, snap domain.Snapshot) error {
	if snap.AppSignature != domain.SnapshotSignature {
		return store.ErrInvalidTransaction
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	members := make(map[string]domain.MemberAccount, len(snap.Members))
	for _, member := range snap.Members {
		// Imported members keep their existing local credentials when
		// present; new ones arrive without a usable password until reset.
		account := domain.MemberAccount{Member: member}
		if existing, ok := s.members[member.ID]; ok {
			account.PasswordHash = existing.PasswordHash
		}
		members[member.ID] = account
	}
	products := make(map[string]domain.Product, len(snap.Products))
	for _, product := range snap.Products {
		products[product.ID] = product
	}
	sales := make(map[string]domain.Sale, len(snap.Sales))
	order := make([]string, 0, len(snap.Sales))
	for _, sale := range snap.Sales {
		sales[sale.ID] = sale
		order = append(order, sale.ID)
	}
	balances := make(map[string]domain.MemberSHU, len(snap.MemberSHU))
	for _, balance := range snap.MemberSHU {
		balances[balance.MemberID] = balance
	}

	s.members = members
	s.products = products
	s.transactions = append(s.transactions[:0], snap.Transactions...)
	s.salesByID = sales
	s.saleOrder = order
	s.shuPool = snap.SHUPool
	s.memberSHU = balances
	return nil
}
