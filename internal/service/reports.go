package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"ubmqi/backend/internal/domain"
)

const reportCacheTTL = 60 * time.Second

// cashBalance folds the ledger: DEBIT adds, KREDIT subtracts, the HPP
// bookkeeping category never touches cash.
func cashBalance(entries []domain.Transaction) int64 {
	var balance int64
	for _, entry := range entries {
		if entry.Category == domain.CategoryHPP {
			continue
		}
		if entry.Type == domain.EntryDebit {
			balance += entry.Amount
		} else {
			balance -= entry.Amount
		}
	}
	return balance
}

func signedSum(entries []domain.Transaction) int64 {
	var sum int64
	for _, entry := range entries {
		if entry.Type == domain.EntryDebit {
			sum += entry.Amount
		} else {
			sum -= entry.Amount
		}
	}
	return sum
}

func (s *Service) Dashboard(ctx context.Context) (domain.DashboardSummary, error) {
	if _, ok := ActorFromContext(ctx); !ok {
		return domain.DashboardSummary{}, fmt.Errorf("authentication required")
	}

	entries, err := s.repo.ListTransactions(ctx, "", "", 0)
	if err != nil {
		return domain.DashboardSummary{}, err
	}
	receivables, err := s.receivableTotal(ctx)
	if err != nil {
		return domain.DashboardSummary{}, err
	}
	memberCount, err := s.repo.CountMembers(ctx)
	if err != nil {
		return domain.DashboardSummary{}, err
	}

	return domain.DashboardSummary{
		CashBalance: cashBalance(entries),
		Receivables: receivables,
		MemberCount: memberCount,
	}, nil
}

func (s *Service) receivableTotal(ctx context.Context) (int64, error) {
	sales, err := s.repo.ListSales(ctx, domain.SaleStatusPiutang, 0)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, sale := range sales {
		total += sale.Total
	}
	return total, nil
}

// SavingsStatement returns the savings history and balance, organization
// wide when memberID is empty. Members can only read their own.
func (s *Service) SavingsStatement(ctx context.Context, memberID string) (domain.SavingsStatement, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.SavingsStatement{}, fmt.Errorf("authentication required")
	}
	if actor.Role != domain.RoleAdmin {
		if memberID == "" || memberID != actor.MemberID {
			return domain.SavingsStatement{}, fmt.Errorf("admin role required")
		}
	}

	entries, err := s.repo.ListTransactions(ctx, domain.CategorySimpanan, memberID, 0)
	if err != nil {
		return domain.SavingsStatement{}, err
	}
	return domain.SavingsStatement{
		MemberID: memberID,
		Balance:  signedSum(entries),
		History:  entries,
	}, nil
}

// FinancialReport assembles the balance sheet and income statement from
// the ledger, sales and catalog. Results are cached briefly; every
// mutation invalidates the cache.
func (s *Service) FinancialReport(ctx context.Context) (domain.FinancialReport, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return domain.FinancialReport{}, err
	}

	if cached, hit, err := s.reportCache.Get(ctx, reportCacheKey); err != nil {
		log.Printf("[service] WARN: report cache get failed: %v", err)
	} else if hit {
		return *cached, nil
	}

	entries, err := s.repo.ListTransactions(ctx, "", "", 0)
	if err != nil {
		return domain.FinancialReport{}, err
	}
	sales, err := s.repo.ListSales(ctx, "", 0)
	if err != nil {
		return domain.FinancialReport{}, err
	}
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return domain.FinancialReport{}, err
	}
	pool, err := s.repo.GetSHUPool(ctx)
	if err != nil {
		return domain.FinancialReport{}, err
	}

	var revenue, opCost, savings, receivables, cogs int64
	for _, entry := range entries {
		switch entry.Category {
		case domain.CategoryPenjualan:
			revenue += entry.Amount
		case domain.CategoryBiayaOps:
			opCost += entry.Amount
		case domain.CategorySimpanan:
			if entry.Type == domain.EntryDebit {
				savings += entry.Amount
			} else {
				savings -= entry.Amount
			}
		}
	}
	// Cost of goods follows revenue recognition: receivables contribute
	// neither revenue nor cost until they are paid off.
	for _, sale := range sales {
		if sale.PaymentStatus == domain.SaleStatusPiutang {
			receivables += sale.Total
			continue
		}
		cogs += sale.HPP
	}

	var inventory int64
	for _, product := range products {
		inventory += int64(product.Stock) * product.BuyPrice
	}

	cash := cashBalance(entries)
	income := domain.IncomeStatement{
		Revenue:       revenue,
		COGS:          cogs,
		OperatingCost: opCost,
		NetProfit:     revenue - cogs - opCost,
	}
	balance := domain.BalanceSheet{
		Cash:             cash,
		Receivables:      receivables,
		InventoryValue:   inventory,
		TotalAssets:      cash + receivables + inventory,
		Savings:          savings,
		AllocatedSHU:     pool.Total(),
		TotalLiabilities: savings + pool.Total(),
	}

	report := domain.FinancialReport{
		BalanceSheet:    balance,
		IncomeStatement: income,
		GeneratedAt:     time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.reportCache.Set(ctx, reportCacheKey, &report, reportCacheTTL); err != nil {
		log.Printf("[service] WARN: report cache set failed: %v", err)
	}
	return report, nil
}
