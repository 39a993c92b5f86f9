package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"ubmqi/backend/internal/cache"
	"ubmqi/backend/internal/cloudsync"
	"ubmqi/backend/internal/domain"
	"ubmqi/backend/internal/store"
	"ubmqi/backend/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

const reportCacheKey = "report:financial"

// Service owns every mutation of the ledger, the member directory and
// the SHU balances. Handlers never touch the repository directly.
type Service struct {
	repo        store.Repository
	reportCache cache.ReportCache
	sync        *cloudsync.Client
}

func New(repo store.Repository, reportCache cache.ReportCache) *Service {
	if reportCache == nil {
		reportCache = cache.NoopReportCache{}
	}
	return &Service{repo: repo, reportCache: reportCache}
}

func (s *Service) requireAdmin(ctx context.Context) (domain.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.Actor{}, fmt.Errorf("admin role required")
	}
	return actor, nil
}

func (s *Service) invalidateReport(ctx context.Context) {
	if err := s.reportCache.Invalidate(ctx, reportCacheKey); err != nil {
		log.Printf("[service] WARN: failed to invalidate report cache: %v", err)
	}
}

func (s *Service) logAudit(ctx context.Context, action string, entityID string, detail string) {
	actor, _ := ActorFromContext(ctx)
	log.Printf("[audit] actor=%s role=%s action=%s entity=%s detail=%s", actor.MemberID, actor.Role, action, entityID, detail)
}

// --- Members ---

func (s *Service) CreateMember(ctx context.Context, req domain.MemberCreateRequest) (domain.Member, error) {
	actor, err := s.requireAdmin(ctx)
	if err != nil {
		return domain.Member{}, err
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || !strings.Contains(req.Email, "@") {
		return domain.Member{}, store.ErrInvalidTransaction
	}
	if len(req.Password) < 6 {
		return domain.Member{}, store.ErrInvalidTransaction
	}
	role := req.Role
	if role == "" {
		role = domain.RoleAnggota
	}
	if role != domain.RoleAdmin && role != domain.RoleAnggota {
		return domain.Member{}, store.ErrInvalidTransaction
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.Member{}, fmt.Errorf("hash password: %w", err)
	}

	account := domain.MemberAccount{
		Member: domain.Member{
			ID:         xid.New("mbr"),
			Name:       req.Name,
			Role:       role,
			Phone:      strings.TrimSpace(req.Phone),
			Email:      req.Email,
			Status:     domain.MemberStatusAktif,
			Address:    strings.TrimSpace(req.Address),
			JoinedDate: time.Now().UTC().Format("2006-01-02"),
		},
		PasswordHash: string(hash),
	}

	created, err := s.repo.CreateMember(ctx, account)
	if err != nil {
		return domain.Member{}, err
	}
	s.logAudit(ctx, "member_create", created.ID, fmt.Sprintf("by=%s,email=%s", actor.MemberID, created.Email))
	return *created, nil
}

func (s *Service) ListMembers(ctx context.Context) ([]domain.Member, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListMembers(ctx)
}

func (s *Service) GetMember(ctx context.Context, id string) (domain.Member, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.Member{}, fmt.Errorf("authentication required")
	}
	if actor.Role != domain.RoleAdmin && actor.MemberID != id {
		return domain.Member{}, fmt.Errorf("admin role required")
	}
	member, err := s.repo.GetMemberByID(ctx, id)
	if err != nil {
		return domain.Member{}, err
	}
	return *member, nil
}

func (s *Service) UpdateMember(ctx context.Context, id string, req domain.MemberUpdateRequest) (domain.Member, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.Member{}, fmt.Errorf("authentication required")
	}
	if actor.Role != domain.RoleAdmin && actor.MemberID != id {
		return domain.Member{}, fmt.Errorf("admin role required")
	}

	existing, err := s.repo.GetMemberByID(ctx, id)
	if err != nil {
		return domain.Member{}, err
	}

	account := domain.MemberAccount{Member: *existing}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Member{}, store.ErrInvalidTransaction
		}
		account.Name = name
	}
	if req.Phone != nil {
		account.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Address != nil {
		account.Address = strings.TrimSpace(*req.Address)
	}
	if req.Password != nil {
		if len(*req.Password) < 6 {
			return domain.Member{}, store.ErrInvalidTransaction
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return domain.Member{}, fmt.Errorf("hash password: %w", err)
		}
		account.PasswordHash = string(hash)
	}

	updated, err := s.repo.UpdateMember(ctx, account)
	if err != nil {
		return domain.Member{}, err
	}
	s.logAudit(ctx, "member_update", updated.ID, "")
	return *updated, nil
}

func (s *Service) DeleteMember(ctx context.Context, id string) error {
	actor, err := s.requireAdmin(ctx)
	if err != nil {
		return err
	}
	if actor.MemberID == id {
		return store.ErrInvalidTransaction
	}
	if err := s.repo.DeleteMember(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "member_delete", id, "")
	return nil
}

// --- Products ---

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return domain.Product{}, err
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	if req.Name == "" || req.SellPrice < 1 || req.BuyPrice < 0 || req.Stock < 0 {
		return domain.Product{}, store.ErrInvalidTransaction
	}

	product := domain.Product{
		ID:        xid.New("prd"),
		Name:      req.Name,
		Category:  req.Category,
		BuyPrice:  req.BuyPrice,
		SellPrice: req.SellPrice,
		Stock:     req.Stock,
	}
	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}
	s.logAudit(ctx, "product_create", created.ID, fmt.Sprintf("name=%s,sell=%d,stock=%d", created.Name, created.SellPrice, created.Stock))
	s.invalidateReport(ctx)
	return *created, nil
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return domain.Product{}, err
	}

	existing, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Product{}, store.ErrInvalidTransaction
		}
		updated.Name = name
	}
	if req.Category != nil {
		updated.Category = strings.TrimSpace(*req.Category)
	}
	if req.BuyPrice != nil {
		if *req.BuyPrice < 0 {
			return domain.Product{}, store.ErrInvalidTransaction
		}
		updated.BuyPrice = *req.BuyPrice
	}
	if req.SellPrice != nil {
		if *req.SellPrice < 1 {
			return domain.Product{}, store.ErrInvalidTransaction
		}
		updated.SellPrice = *req.SellPrice
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return domain.Product{}, store.ErrInvalidTransaction
		}
		updated.Stock = *req.Stock
	}

	saved, err := s.repo.UpdateProduct(ctx, updated)
	if err != nil {
		return domain.Product{}, err
	}
	s.logAudit(ctx, "product_update", saved.ID, fmt.Sprintf("sell=%d,stock=%d", saved.SellPrice, saved.Stock))
	s.invalidateReport(ctx)
	return *saved, nil
}

// --- Sales ---

// RecordSale settles a cart for a member. Totals and cost of goods are
// computed server-side from the catalog. A cash sale ("Lunas") books
// revenue, books the 20% operating cost, and allocates the remaining
// net profit immediately; a receivable ("Piutang") only records the
// sale and decrements stock, allocation waits until it is paid off.
func (s *Service) RecordSale(ctx context.Context, req domain.SaleRequest) (domain.SaleResponse, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return domain.SaleResponse{}, err
	}
	if len(req.Lines) == 0 {
		return domain.SaleResponse{}, store.ErrInvalidTransaction
	}
	if req.PaymentStatus != domain.SaleStatusLunas && req.PaymentStatus != domain.SaleStatusPiutang {
		return domain.SaleResponse{}, store.ErrInvalidTransaction
	}

	member, err := s.repo.GetMemberByID(ctx, req.MemberID)
	if err != nil {
		return domain.SaleResponse{}, err
	}

	ids := make([]string, 0, len(req.Lines))
	qtyByProduct := make(map[string]int, len(req.Lines))
	for _, line := range req.Lines {
		if line.Qty < 1 {
			return domain.SaleResponse{}, store.ErrInvalidTransaction
		}
		if _, seen := qtyByProduct[line.ProductID]; !seen {
			ids = append(ids, line.ProductID)
		}
		qtyByProduct[line.ProductID] += line.Qty
	}

	products, err := s.repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return domain.SaleResponse{}, err
	}

	var total, hpp int64
	items := make([]domain.SaleItem, 0, len(ids))
	for _, id := range ids {
		product, exists := products[id]
		if !exists {
			return domain.SaleResponse{}, store.ErrNotFound
		}
		qty := qtyByProduct[id]
		if product.Stock < qty {
			return domain.SaleResponse{}, store.ErrInsufficientStock
		}
		total += product.SellPrice * int64(qty)
		hpp += product.BuyPrice * int64(qty)
		items = append(items, domain.SaleItem{
			ProductID: product.ID,
			Name:      product.Name,
			Qty:       qty,
			UnitPrice: product.SellPrice,
		})
	}

	now := time.Now().UTC()
	sale := domain.Sale{
		ID:            xid.New("sale"),
		MemberID:      member.ID,
		MemberName:    member.Name,
		Items:         items,
		Total:         total,
		HPP:           hpp,
		PaymentStatus: req.PaymentStatus,
		Date:          now,
	}

	settlement := store.SaleSettlement{Sale: sale, StockDelta: qtyByProduct}
	resp := domain.SaleResponse{Sale: sale}

	if req.PaymentStatus == domain.SaleStatusLunas {
		entries, alloc, netProfit := saleBooking(sale, fmt.Sprintf("Penjualan: %s (%s)", sale.ID, member.Name), now)
		settlement.Entries = entries
		settlement.Allocation = &alloc
		resp.NetProfit = netProfit
		resp.Allocated = true
	}

	saved, err := s.repo.SettleSale(ctx, settlement)
	if err != nil {
		return domain.SaleResponse{}, err
	}
	resp.Sale = *saved

	s.logAudit(ctx, "sale_record", saved.ID, fmt.Sprintf("member=%s,total=%d,status=%s", member.ID, total, saved.PaymentStatus))
	s.invalidateReport(ctx)
	return resp, nil
}

// saleBooking builds the ledger entries and allocation for recognizing
// a sale's revenue: the full amount in, the operating cost share out,
// and the split of what remains.
func saleBooking(sale domain.Sale, incomeDescription string, at time.Time) ([]domain.Transaction, domain.SHUAllocation, int64) {
	profit := sale.Total - sale.HPP
	opCost := operatingCost(profit)
	netProfit := profit - opCost

	entries := []domain.Transaction{
		{
			ID:          xid.New("trx"),
			Type:        domain.EntryDebit,
			Description: incomeDescription,
			Amount:      sale.Total,
			Date:        at,
			Category:    domain.CategoryPenjualan,
			MemberID:    sale.MemberID,
		},
		{
			ID:          xid.New("trx"),
			Type:        domain.EntryKredit,
			Description: fmt.Sprintf("Biaya Ops (20%%): %s", sale.ID),
			Amount:      opCost,
			Date:        at,
			Category:    domain.CategoryBiayaOps,
		},
	}
	return entries, AllocateSHU(netProfit, sale.MemberID), netProfit
}

func (s *Service) ListSales(ctx context.Context, status string, limit int) ([]domain.Sale, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	if status != "" && status != domain.SaleStatusLunas && status != domain.SaleStatusPiutang {
		return nil, store.ErrInvalidTransaction
	}
	return s.repo.ListSales(ctx, status, limit)
}

// ResolveReceivable marks a credit sale as paid, exactly once. Payment
// books the same entries a cash sale would have, then allocates.
func (s *Service) ResolveReceivable(ctx context.Context, saleID string) (domain.SaleResponse, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return domain.SaleResponse{}, err
	}

	sale, err := s.repo.GetSaleByID(ctx, saleID)
	if err != nil {
		return domain.SaleResponse{}, err
	}
	if sale.PaymentStatus != domain.SaleStatusPiutang {
		return domain.SaleResponse{}, store.ErrAlreadyPaid
	}

	now := time.Now().UTC()
	entries, alloc, netProfit := saleBooking(*sale, fmt.Sprintf("Lunas Piutang: %s", sale.ID), now)

	updated, err := s.repo.MarkSalePaid(ctx, saleID, store.SaleResolution{
		Entries:    entries,
		Allocation: alloc,
	})
	if err != nil {
		return domain.SaleResponse{}, err
	}

	s.logAudit(ctx, "receivable_resolve", saleID, fmt.Sprintf("total=%d", updated.Total))
	s.invalidateReport(ctx)
	return domain.SaleResponse{Sale: *updated, NetProfit: netProfit, Allocated: true}, nil
}

// --- SHU ---

func (s *Service) SHUStatus(ctx context.Context) (domain.SHUStatus, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.SHUStatus{}, fmt.Errorf("authentication required")
	}

	pool, err := s.repo.GetSHUPool(ctx)
	if err != nil {
		return domain.SHUStatus{}, err
	}
	status := domain.SHUStatus{Pool: pool, PoolTotal: pool.Total()}

	if actor.Role == domain.RoleAdmin {
		members, err := s.repo.ListMemberSHU(ctx)
		if err != nil {
			return domain.SHUStatus{}, err
		}
		status.Members = members
	}
	if balance, err := s.repo.GetMemberSHU(ctx, actor.MemberID); err == nil {
		status.Mine = balance
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.SHUStatus{}, err
	}
	return status, nil
}

// WithdrawSHU pays out part of a member's accrued SHU in cash.
func (s *Service) WithdrawSHU(ctx context.Context, req domain.WithdrawSHURequest) (domain.WithdrawSHUResponse, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return domain.WithdrawSHUResponse{}, err
	}
	if req.Amount < 1 {
		return domain.WithdrawSHUResponse{}, store.ErrInvalidTransaction
	}

	member, err := s.repo.GetMemberByID(ctx, req.MemberID)
	if err != nil {
		return domain.WithdrawSHUResponse{}, err
	}

	entry := domain.Transaction{
		ID:          xid.New("trx"),
		Type:        domain.EntryKredit,
		Description: fmt.Sprintf("Pencairan SHU: %s", member.Name),
		Amount:      req.Amount,
		Date:        time.Now().UTC(),
		Category:    domain.CategorySHU,
		MemberID:    member.ID,
	}

	balance, appended, err := s.repo.WithdrawMemberSHU(ctx, member.ID, req.Amount, entry)
	if err != nil {
		return domain.WithdrawSHUResponse{}, err
	}

	s.logAudit(ctx, "shu_withdraw", member.ID, fmt.Sprintf("amount=%d", req.Amount))
	s.invalidateReport(ctx)
	return domain.WithdrawSHUResponse{MemberSHU: *balance, Transaction: *appended}, nil
}

// --- Manual ledger entries ---

func (s *Service) RecordCashEntry(ctx context.Context, req domain.CashEntryRequest) (domain.Transaction, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return domain.Transaction{}, err
	}

	req.Description = strings.TrimSpace(req.Description)
	if req.Description == "" || req.Amount < 1 {
		return domain.Transaction{}, store.ErrInvalidTransaction
	}
	if req.Type != domain.EntryDebit && req.Type != domain.EntryKredit {
		return domain.Transaction{}, store.ErrInvalidTransaction
	}

	entry := domain.Transaction{
		ID:          xid.New("trx"),
		Type:        req.Type,
		Description: req.Description,
		Amount:      req.Amount,
		Date:        time.Now().UTC(),
		Category:    domain.CategoryLainnya,
	}
	appended, err := s.repo.AppendTransaction(ctx, entry)
	if err != nil {
		return domain.Transaction{}, err
	}
	s.logAudit(ctx, "cash_entry", appended.ID, fmt.Sprintf("type=%s,amount=%d", appended.Type, appended.Amount))
	s.invalidateReport(ctx)
	return *appended, nil
}

func (s *Service) RecordSavingsEntry(ctx context.Context, req domain.SavingsEntryRequest) (domain.Transaction, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return domain.Transaction{}, err
	}
	if req.Amount < 1 {
		return domain.Transaction{}, store.ErrInvalidTransaction
	}
	if req.Type != domain.EntryDebit && req.Type != domain.EntryKredit {
		return domain.Transaction{}, store.ErrInvalidTransaction
	}
	switch req.SubType {
	case domain.SavingsWajib, domain.SavingsPokok, domain.SavingsSukarela:
	default:
		return domain.Transaction{}, store.ErrInvalidTransaction
	}

	member, err := s.repo.GetMemberByID(ctx, req.MemberID)
	if err != nil {
		return domain.Transaction{}, err
	}

	entry := domain.Transaction{
		ID:          xid.New("trx"),
		Type:        req.Type,
		Description: fmt.Sprintf("[%s] %s", req.SubType, member.Name),
		Amount:      req.Amount,
		Date:        time.Now().UTC(),
		Category:    domain.CategorySimpanan,
		MemberID:    member.ID,
	}
	appended, err := s.repo.AppendTransaction(ctx, entry)
	if err != nil {
		return domain.Transaction{}, err
	}
	s.logAudit(ctx, "savings_entry", appended.ID, fmt.Sprintf("member=%s,type=%s,amount=%d", member.ID, appended.Type, appended.Amount))
	s.invalidateReport(ctx)
	return *appended, nil
}

// KasHistory lists the cash-relevant ledger, i.e. everything except the
// HPP bookkeeping category.
func (s *Service) KasHistory(ctx context.Context, limit int) ([]domain.Transaction, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	entries, err := s.repo.ListTransactions(ctx, "", "", 0)
	if err != nil {
		return nil, err
	}
	result := make([]domain.Transaction, 0, len(entries))
	for _, entry := range entries {
		if entry.Category == domain.CategoryHPP {
			continue
		}
		result = append(result, entry)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}
