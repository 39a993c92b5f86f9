package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"ubmqi/backend/internal/domain"
	"ubmqi/backend/internal/store"
	"ubmqi/backend/internal/xid"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// --- Members ---

func (s *Store) CreateMember(ctx context.Context, account domain.MemberAccount) (*domain.Member, error) {
	if account.Name == "" || account.Email == "" || account.PasswordHash == "" {
		return nil, store.ErrInvalidTransaction
	}
	if account.ID == "" {
		account.ID = xid.New("mbr")
	}
	if account.Status == "" {
		account.Status = domain.MemberStatusAktif
	}
	if account.JoinedDate == "" {
		account.JoinedDate = time.Now().UTC().Format("2006-01-02")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO members (id, name, role, phone, email, status, address, joined_date, password_hash, created_at, updated_at)
		VALUES ($1,$2,$3,$4,lower($5),$6,$7,$8,$9,now(),now())
	`, account.ID, account.Name, account.Role, account.Phone, account.Email, account.Status, account.Address, account.JoinedDate, account.PasswordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicateEmail
		}
		return nil, err
	}

	created := account.Member
	return &created, nil
}

func (s *Store) GetMemberByID(ctx context.Context, id string) (*domain.Member, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, role, phone, email, status, address, joined_date
		FROM members WHERE id = $1
	`, id)
	return scanMember(row)
}

func (s *Store) GetMemberAccountByEmail(ctx context.Context, email string) (*domain.MemberAccount, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, role, phone, email, status, address, joined_date, password_hash
		FROM members WHERE email = lower($1)
	`, email)

	var account domain.MemberAccount
	err := row.Scan(&account.ID, &account.Name, &account.Role, &account.Phone, &account.Email, &account.Status, &account.Address, &account.JoinedDate, &account.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *Store) ListMembers(ctx context.Context) ([]domain.Member, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, role, phone, email, status, address, joined_date
		FROM members ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]domain.Member, 0, 64)
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Role, &m.Phone, &m.Email, &m.Status, &m.Address, &m.JoinedDate); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (s *Store) UpdateMember(ctx context.Context, account domain.MemberAccount) (*domain.Member, error) {
	if account.Name == "" {
		return nil, store.ErrInvalidTransaction
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE members
		SET name = $2, phone = $3, address = $4,
		    password_hash = COALESCE(NULLIF($5, ''), password_hash),
		    updated_at = now()
		WHERE id = $1
	`, account.ID, account.Name, account.Phone, account.Address, account.PasswordHash)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetMemberByID(ctx, account.ID)
}

func (s *Store) DeleteMember(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CountMembers(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM members`).Scan(&count)
	return count, err
}

// --- Products ---

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.Name == "" || product.SellPrice < 1 || product.BuyPrice < 0 || product.Stock < 0 {
		return nil, store.ErrInvalidTransaction
	}
	if product.ID == "" {
		product.ID = xid.New("prd")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, category, buy_price, sell_price, stock, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,now(),now())
	`, product.ID, product.Name, product.Category, product.BuyPrice, product.SellPrice, product.Stock)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidTransaction
		}
		return nil, err
	}

	created := product
	return &created, nil
}

func (s *Store) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, category, buy_price, sell_price, stock
		FROM products WHERE id = $1
	`, id)

	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.Category, &p.BuyPrice, &p.SellPrice, &p.Stock)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) GetProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	result := make(map[string]domain.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	placeholders := make([]string, 0, len(ids))
	args := make([]any, 0, len(ids))
	for i, id := range ids {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, name, category, buy_price, sell_price, stock
		FROM products WHERE id IN (%s)
	`, strings.Join(placeholders, ",")), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.BuyPrice, &p.SellPrice, &p.Stock); err != nil {
			return nil, err
		}
		result[p.ID] = p
	}
	return result, rows.Err()
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category, buy_price, sell_price, stock
		FROM products ORDER BY category, name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 64)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.BuyPrice, &p.SellPrice, &p.Stock); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.Name == "" || product.SellPrice < 1 || product.BuyPrice < 0 || product.Stock < 0 {
		return nil, store.ErrInvalidTransaction
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, category = $3, buy_price = $4, sell_price = $5, stock = $6, updated_at = now()
		WHERE id = $1
	`, product.ID, product.Name, product.Category, product.BuyPrice, product.SellPrice, product.Stock)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	updated := product
	return &updated, nil
}

// --- Ledger ---

func insertTransaction(ctx context.Context, execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}, entry domain.Transaction) (domain.Transaction, error) {
	if entry.ID == "" {
		entry.ID = xid.New("trx")
	}
	if entry.Date.IsZero() {
		entry.Date = time.Now().UTC()
	}
	_, err := execer.ExecContext(ctx, `
		INSERT INTO transactions (id, type, description, amount, date, category, member_id)
		VALUES ($1,$2,$3,$4,$5,$6,NULLIF($7,''))
	`, entry.ID, entry.Type, entry.Description, entry.Amount, entry.Date, entry.Category, entry.MemberID)
	return entry, err
}

func (s *Store) AppendTransaction(ctx context.Context, entry domain.Transaction) (*domain.Transaction, error) {
	if entry.Amount < 0 {
		return nil, store.ErrInvalidTransaction
	}
	if entry.Type != domain.EntryDebit && entry.Type != domain.EntryKredit {
		return nil, store.ErrInvalidTransaction
	}
	appended, err := insertTransaction(ctx, s.db, entry)
	if err != nil {
		return nil, err
	}
	return &appended, nil
}

func (s *Store) ListTransactions(ctx context.Context, category string, memberID string, limit int) ([]domain.Transaction, error) {
	query := `
		SELECT id, type, description, amount, date, category, COALESCE(member_id, '')
		FROM transactions
		WHERE ($1 = '' OR category = $1)
		  AND ($2 = '' OR member_id = $2)
		ORDER BY date DESC, id DESC
	`
	args := []any{category, memberID}
	if limit > 0 {
		query += " LIMIT $3"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.Transaction, 0, 128)
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(&t.ID, &t.Type, &t.Description, &t.Amount, &t.Date, &t.Category, &t.MemberID); err != nil {
			return nil, err
		}
		entries = append(entries, t)
	}
	return entries, rows.Err()
}

// --- Sales ---

func (s *Store) SettleSale(ctx context.Context, settlement store.SaleSettlement) (*domain.Sale, error) {
	sale := settlement.Sale
	if sale.ID == "" || len(sale.Items) == 0 {
		return nil, store.ErrInvalidTransaction
	}
	if sale.Date.IsZero() {
		sale.Date = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	for productID, qty := range settlement.StockDelta {
		res, err := tx.ExecContext(ctx, `
			UPDATE products SET stock = stock - $2, updated_at = now()
			WHERE id = $1 AND stock >= $2
		`, productID, qty)
		if err != nil {
			return nil, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			var exists bool
			if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists); err != nil {
				return nil, err
			}
			if !exists {
				return nil, store.ErrNotFound
			}
			return nil, store.ErrInsufficientStock
		}
	}

	itemsJSON, err := json.Marshal(sale.Items)
	if err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO sales (id, member_id, member_name, items, total, hpp, payment_status, date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, sale.ID, sale.MemberID, sale.MemberName, itemsJSON, sale.Total, sale.HPP, sale.PaymentStatus, sale.Date)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidTransaction
		}
		return nil, err
	}

	for _, entry := range settlement.Entries {
		if _, err := insertTransaction(ctx, tx, entry); err != nil {
			return nil, err
		}
	}
	if settlement.Allocation != nil {
		if err := applyAllocation(ctx, tx, *settlement.Allocation); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	created := sale
	return &created, nil
}

func scanSale(row *sql.Row) (*domain.Sale, error) {
	var sale domain.Sale
	var itemsJSON []byte
	err := row.Scan(&sale.ID, &sale.MemberID, &sale.MemberName, &itemsJSON, &sale.Total, &sale.HPP, &sale.PaymentStatus, &sale.Date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(itemsJSON, &sale.Items); err != nil {
		return nil, err
	}
	return &sale, nil
}

func (s *Store) GetSaleByID(ctx context.Context, id string) (*domain.Sale, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, member_id, member_name, items, total, hpp, payment_status, date
		FROM sales WHERE id = $1
	`, id)
	return scanSale(row)
}

func (s *Store) ListSales(ctx context.Context, status string, limit int) ([]domain.Sale, error) {
	query := `
		SELECT id, member_id, member_name, items, total, hpp, payment_status, date
		FROM sales
		WHERE ($1 = '' OR payment_status = $1)
		ORDER BY date DESC, id DESC
	`
	args := []any{status}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0, 64)
	for rows.Next() {
		var sale domain.Sale
		var itemsJSON []byte
		if err := rows.Scan(&sale.ID, &sale.MemberID, &sale.MemberName, &itemsJSON, &sale.Total, &sale.HPP, &sale.PaymentStatus, &sale.Date); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(itemsJSON, &sale.Items); err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

func (s *Store) MarkSalePaid(ctx context.Context, saleID string, resolution store.SaleResolution) (*domain.Sale, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var status string
	err = tx.QueryRowContext(ctx, `SELECT payment_status FROM sales WHERE id = $1 FOR UPDATE`, saleID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if status != domain.SaleStatusPiutang {
		return nil, store.ErrAlreadyPaid
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE sales SET payment_status = $2 WHERE id = $1
	`, saleID, domain.SaleStatusLunas); err != nil {
		return nil, err
	}

	for _, entry := range resolution.Entries {
		if _, err := insertTransaction(ctx, tx, entry); err != nil {
			return nil, err
		}
	}
	if err := applyAllocation(ctx, tx, resolution.Allocation); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.GetSaleByID(ctx, saleID)
}

// --- SHU ---

// applyAllocation bumps the single-row pool and the member's accrued
// balance inside the caller's transaction.
func applyAllocation(ctx context.Context, tx *sql.Tx, alloc domain.SHUAllocation) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE shu_pool
		SET jasa_modal = jasa_modal + $1,
		    jasa_transaksi = jasa_transaksi + $2,
		    pengurus = pengurus + $3,
		    cadangan_modal = cadangan_modal + $4,
		    infaq_mqi = infaq_mqi + $5
		WHERE id = 1
	`, alloc.JasaModal, alloc.JasaTransaksi, alloc.Pengurus, alloc.CadanganModal, alloc.InfaqMQI)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO member_shu (member_id, jasa_modal, jasa_transaksi)
		VALUES ($1, 0, $2)
		ON CONFLICT (member_id) DO UPDATE SET jasa_transaksi = member_shu.jasa_transaksi + $2
	`, alloc.MemberID, alloc.JasaTransaksi)
	return err
}

func (s *Store) GetSHUPool(ctx context.Context) (domain.SHUPool, error) {
	var pool domain.SHUPool
	err := s.db.QueryRowContext(ctx, `
		SELECT jasa_modal, jasa_transaksi, pengurus, cadangan_modal, infaq_mqi
		FROM shu_pool WHERE id = 1
	`).Scan(&pool.JasaModal, &pool.JasaTransaksi, &pool.Pengurus, &pool.CadanganModal, &pool.InfaqMQI)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SHUPool{}, nil
	}
	return pool, err
}

func (s *Store) GetMemberSHU(ctx context.Context, memberID string) (*domain.MemberSHU, error) {
	var balance domain.MemberSHU
	err := s.db.QueryRowContext(ctx, `
		SELECT member_id, jasa_modal, jasa_transaksi FROM member_shu WHERE member_id = $1
	`, memberID).Scan(&balance.MemberID, &balance.JasaModal, &balance.JasaTransaksi)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

func (s *Store) ListMemberSHU(ctx context.Context) ([]domain.MemberSHU, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT member_id, jasa_modal, jasa_transaksi FROM member_shu ORDER BY member_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	balances := make([]domain.MemberSHU, 0, 64)
	for rows.Next() {
		var balance domain.MemberSHU
		if err := rows.Scan(&balance.MemberID, &balance.JasaModal, &balance.JasaTransaksi); err != nil {
			return nil, err
		}
		balances = append(balances, balance)
	}
	return balances, rows.Err()
}

func (s *Store) WithdrawMemberSHU(ctx context.Context, memberID string, amount int64, entry domain.Transaction) (*domain.MemberSHU, *domain.Transaction, error) {
	if amount < 1 {
		return nil, nil, store.ErrInvalidTransaction
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var balance domain.MemberSHU
	err = tx.QueryRowContext(ctx, `
		SELECT member_id, jasa_modal, jasa_transaksi FROM member_shu WHERE member_id = $1 FOR UPDATE
	`, memberID).Scan(&balance.MemberID, &balance.JasaModal, &balance.JasaTransaksi)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, store.ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	if amount > balance.JasaModal+balance.JasaTransaksi {
		return nil, nil, store.ErrInsufficientBalance
	}

	fromModal := amount
	if fromModal > balance.JasaModal {
		fromModal = balance.JasaModal
	}
	balance.JasaModal -= fromModal
	balance.JasaTransaksi -= amount - fromModal

	if _, err := tx.ExecContext(ctx, `
		UPDATE member_shu SET jasa_modal = $2, jasa_transaksi = $3 WHERE member_id = $1
	`, memberID, balance.JasaModal, balance.JasaTransaksi); err != nil {
		return nil, nil, err
	}

	appended, err := insertTransaction(ctx, tx, entry)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	return &balance, &appended, nil
}

// --- Snapshot exchange ---

func (s *Store) ExportSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	snap := domain.Snapshot{
		AppSignature: domain.SnapshotSignature,
		LastUpdated:  time.Now().UTC().Format(time.RFC3339),
	}

	members, err := s.ListMembers(ctx)
	if err != nil {
		return nil, err
	}
	snap.Members = members

	products, err := s.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	snap.Products = products

	entries, err := s.ListTransactions(ctx, "", "", 0)
	if err != nil {
		return nil, err
	}
	snap.Transactions = entries

	sales, err := s.ListSales(ctx, "", 0)
	if err != nil {
		return nil, err
	}
	snap.Sales = sales

	pool, err := s.GetSHUPool(ctx)
	if err != nil {
		return nil, err
	}
	snap.SHUPool = pool

	balances, err := s.ListMemberSHU(ctx)
	if err != nil {
		return nil, err
	}
	snap.MemberSHU = balances

	return &snap, nil
}

func (s *Store) ImportSnapshot(ctx context.Context, snap domain.Snapshot) error {
	if snap.AppSignature != domain.SnapshotSignature {
		return store.ErrInvalidTransaction
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// Transactions reference members, so clear children first. Member rows
	// survive via upsert to keep their local password hashes.
	for _, table := range []string{"transactions", "sales", "member_shu", "products"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return err
		}
	}

	for _, member := range snap.Members {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO members (id, name, role, phone, email, status, address, joined_date, password_hash, created_at, updated_at)
			VALUES ($1,$2,$3,$4,lower($5),$6,$7,$8,'',now(),now())
			ON CONFLICT (id) DO UPDATE
			SET name = $2, role = $3, phone = $4, email = lower($5), status = $6, address = $7, joined_date = $8, updated_at = now()
		`, member.ID, member.Name, member.Role, member.Phone, member.Email, member.Status, member.Address, member.JoinedDate); err != nil {
			return err
		}
	}

	for _, product := range snap.Products {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO products (id, name, category, buy_price, sell_price, stock, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,now(),now())
		`, product.ID, product.Name, product.Category, product.BuyPrice, product.SellPrice, product.Stock); err != nil {
			return err
		}
	}

	for _, entry := range snap.Transactions {
		if _, err := insertTransaction(ctx, tx, entry); err != nil {
			return err
		}
	}

	for _, sale := range snap.Sales {
		itemsJSON, err := json.Marshal(sale.Items)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO sales (id, member_id, member_name, items, total, hpp, payment_status, date)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`, sale.ID, sale.MemberID, sale.MemberName, itemsJSON, sale.Total, sale.HPP, sale.PaymentStatus, sale.Date); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE shu_pool
		SET jasa_modal = $1, jasa_transaksi = $2, pengurus = $3, cadangan_modal = $4, infaq_mqi = $5
		WHERE id = 1
	`, snap.SHUPool.JasaModal, snap.SHUPool.JasaTransaksi, snap.SHUPool.Pengurus, snap.SHUPool.CadanganModal, snap.SHUPool.InfaqMQI); err != nil {
		return err
	}

	for _, balance := range snap.MemberSHU {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO member_shu (member_id, jasa_modal, jasa_transaksi) VALUES ($1,$2,$3)
		`, balance.MemberID, balance.JasaModal, balance.JasaTransaksi); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func scanMember(row *sql.Row) (*domain.Member, error) {
	var m domain.Member
	err := row.Scan(&m.ID, &m.Name, &m.Role, &m.Phone, &m.Email, &m.Status, &m.Address, &m.JoinedDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
