package memory

import (
	"context"
	"errors"
	"testing"

	"ubmqi/backend/internal/domain"
	"ubmqi/backend/internal/store"
)

func TestImportSnapshotRejectsBadSignature(t *testing.T) {
	s := New()
	err := s.ImportSnapshot(context.Background(), domain.Snapshot{AppSignature: "WRONG"})
	if !errors.Is(err, store.ErrInvalidTransaction) {
		t.Fatalf("expected ErrInvalidTransaction, got %v", err)
	}
}

func TestImportSnapshotPreservesLocalPasswords(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.CreateMember(ctx, domain.MemberAccount{
		Member: domain.Member{
			ID: "mbr-001", Name: "Siti", Role: domain.RoleAnggota,
			Email: "siti@ubmqi.id", Status: domain.MemberStatusAktif,
		},
		PasswordHash: "local-hash",
	}); err != nil {
		t.Fatalf("create member: %v", err)
	}

	snap := domain.Snapshot{
		AppSignature: domain.SnapshotSignature,
		Members: []domain.Member{
			{ID: "mbr-001", Name: "Siti Baru", Role: domain.RoleAnggota, Email: "siti@ubmqi.id", Status: domain.MemberStatusAktif},
			{ID: "mbr-002", Name: "Pendatang", Role: domain.RoleAnggota, Email: "baru@ubmqi.id", Status: domain.MemberStatusAktif},
		},
	}
	if err := s.ImportSnapshot(ctx, snap); err != nil {
		t.Fatalf("import: %v", err)
	}

	known, err := s.GetMemberAccountByEmail(ctx, "siti@ubmqi.id")
	if err != nil {
		t.Fatalf("get known member: %v", err)
	}
	if known.PasswordHash != "local-hash" {
		t.Fatalf("expected local hash to survive import, got %q", known.PasswordHash)
	}
	if known.Name != "Siti Baru" {
		t.Fatalf("expected profile fields to come from the snapshot, got %q", known.Name)
	}

	incoming, err := s.GetMemberAccountByEmail(ctx, "baru@ubmqi.id")
	if err != nil {
		t.Fatalf("get incoming member: %v", err)
	}
	if incoming.PasswordHash != "" {
		t.Fatalf("expected incoming member without a usable password, got %q", incoming.PasswordHash)
	}
}

func TestListTransactionsNewestFirstWithFilters(t *testing.T) {
	ctx := context.Background()
	s := New()

	for _, entry := range []domain.Transaction{
		{ID: "trx-1", Type: domain.EntryDebit, Description: "a", Amount: 100, Category: domain.CategorySimpanan, MemberID: "mbr-001"},
		{ID: "trx-2", Type: domain.EntryKredit, Description: "b", Amount: 200, Category: domain.CategoryLainnya},
		{ID: "trx-3", Type: domain.EntryDebit, Description: "c", Amount: 300, Category: domain.CategorySimpanan, MemberID: "mbr-002"},
	} {
		if _, err := s.AppendTransaction(ctx, entry); err != nil {
			t.Fatalf("append %s: %v", entry.ID, err)
		}
	}

	all, err := s.ListTransactions(ctx, "", "", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].ID != "trx-3" || all[2].ID != "trx-1" {
		t.Fatalf("expected newest first, got %+v", all)
	}

	savings, err := s.ListTransactions(ctx, domain.CategorySimpanan, "mbr-001", 0)
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(savings) != 1 || savings[0].ID != "trx-1" {
		t.Fatalf("expected only mbr-001 savings, got %+v", savings)
	}

	limited, err := s.ListTransactions(ctx, "", "", 2)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected limit 2, got %d", len(limited))
	}
}

func TestAppendTransactionValidatesType(t *testing.T) {
	s := New()
	_, err := s.AppendTransaction(context.Background(), domain.Transaction{
		Type: "TRANSFER", Description: "x", Amount: 100, Category: domain.CategoryLainnya,
	})
	if !errors.Is(err, store.ErrInvalidTransaction) {
		t.Fatalf("expected ErrInvalidTransaction, got %v", err)
	}
}

func TestSettleSaleRejectsDuplicateID(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.CreateProduct(ctx, domain.Product{ID: "prd-001", Name: "Gula", SellPrice: 17500, BuyPrice: 15500, Stock: 5}); err != nil {
		t.Fatalf("create product: %v", err)
	}

	settlement := store.SaleSettlement{
		Sale: domain.Sale{
			ID:            "sale-001",
			Items:         []domain.SaleItem{{ProductID: "prd-001", Name: "Gula", Qty: 1, UnitPrice: 17500}},
			Total:         17500,
			HPP:           15500,
			PaymentStatus: domain.SaleStatusLunas,
		},
		StockDelta: map[string]int{"prd-001": 1},
	}
	if _, err := s.SettleSale(ctx, settlement); err != nil {
		t.Fatalf("first settle: %v", err)
	}
	if _, err := s.SettleSale(ctx, settlement); !errors.Is(err, store.ErrInvalidTransaction) {
		t.Fatalf("expected ErrInvalidTransaction on duplicate sale id, got %v", err)
	}
}
