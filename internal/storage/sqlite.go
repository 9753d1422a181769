package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// ErrAlreadyExists indicates a uniqueness conflict (duplicate email).
var ErrAlreadyExists = errors.New("record already exists")

// Repository is the SQLite-backed ledger store. Every query is scoped to
// an owning user id; a request without a resolved principal fails closed.
type Repository struct {
	db      *sql.DB
	maxRows int
}

// NewRepository opens the database, applies migrations and returns a
// ready store. maxRows caps range queries; pass 0 for the default.
func NewRepository(dbPath string, maxRows int) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" && !strings.HasPrefix(dbPath, ":") {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// A single connection sidesteps SQLITE_BUSY under concurrent writes
	// and keeps in-memory databases on one handle.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}

	return &Repository{db: db, maxRows: maxRows}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return storeError("ping", err)
	}
	return nil
}

func requireUser(userID int64) error {
	if userID <= 0 {
		return fmt.Errorf("missing principal: %w", core.ErrUnauthorized)
	}
	return nil
}

// --- users ---

func (r *Repository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, username, password_hash) VALUES (?, ?, ?)`,
		u.Email, u.Username, u.PasswordHash)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return core.User{}, fmt.Errorf("email %s: %w", u.Email, ErrAlreadyExists)
		}
		return core.User{}, storeError("create user", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.User{}, storeError("create user id", err)
	}
	return r.GetUserByID(ctx, id)
}

func (r *Repository) GetUserByID(ctx context.Context, id int64) (core.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, email, username, password_hash, created_at FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, email, username, password_hash, created_at FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func scanUser(row *sql.Row) (core.User, error) {
	var u core.User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, fmt.Errorf("user: %w", core.ErrNotFound)
	}
	if err != nil {
		return core.User{}, storeError("scan user", err)
	}
	return u, nil
}

// --- categories ---

func (r *Repository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := requireUser(c.UserID); err != nil {
		return core.Category{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (user_id, name, kind) VALUES (?, ?, ?)`,
		c.UserID, c.Name, string(c.Kind))
	if err != nil {
		return core.Category{}, storeError("create category", err)
	}
	c.ID, err = res.LastInsertId()
	if err != nil {
		return core.Category{}, storeError("create category id", err)
	}
	return c, nil
}

func (r *Repository) GetCategory(ctx context.Context, userID, id int64) (core.Category, error) {
	if err := requireUser(userID); err != nil {
		return core.Category{}, err
	}
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, kind FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	var c core.Category
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Kind)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("category %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Category{}, storeError("get category", err)
	}
	return c, nil
}

func (r *Repository) ListCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, kind FROM categories WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, storeError("list categories", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Kind); err != nil {
			return nil, storeError("scan category", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list categories", err)
	}
	return out, nil
}

func (r *Repository) UpdateCategory(ctx context.Context, c core.Category) error {
	if err := requireUser(c.UserID); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, kind = ? WHERE id = ? AND user_id = ?`,
		c.Name, string(c.Kind), c.ID, c.UserID)
	if err != nil {
		return storeError("update category", err)
	}
	return affectedOrNotFound(res, "category")
}

// DeleteCategory removes a category together with its transactions and
// budgets. The cascade is explicit and transactional so the ledger never
// holds orphaned rows.
func (r *Repository) DeleteCategory(ctx context.Context, userID, id int64) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeError("begin delete category", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return storeError("delete category", err)
	}
	if err := affectedOrNotFound(res, "category"); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM transactions WHERE category_id = ? AND user_id = ?`, id, userID); err != nil {
		return storeError("delete category transactions", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM budgets WHERE category_id = ? AND user_id = ?`, id, userID); err != nil {
		return storeError("delete category budgets", err)
	}
	if err := tx.Commit(); err != nil {
		return storeError("commit delete category", err)
	}

	slog.InfoContext(ctx, "Category deleted with cascade", "category_id", id, "user_id", userID)
	return nil
}

// --- transactions ---

func (r *Repository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := requireUser(t.UserID); err != nil {
		return core.Transaction{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (user_id, category_id, amount, kind, occurred_on, description)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.UserID, t.CategoryID, t.Amount.String(), string(t.Kind), t.Date.String(), t.Description)
	if err != nil {
		return core.Transaction{}, storeError("create transaction", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, storeError("create transaction id", err)
	}
	return r.GetTransaction(ctx, t.UserID, id)
}

func (r *Repository) GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error) {
	if err := requireUser(userID); err != nil {
		return core.Transaction{}, err
	}
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, category_id, amount, kind, occurred_on, description, created_at
		 FROM transactions WHERE id = ? AND user_id = ?`, id, userID)

	t, err := scanTransaction(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	return t, err
}

// ListTransactions returns transactions matching the filter, newest first.
// Results are always capped at the repository row limit.
func (r *Repository) ListTransactions(ctx context.Context, userID int64, f TransactionFilter) ([]core.Transaction, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	query := `SELECT id, user_id, category_id, amount, kind, occurred_on, description, created_at
		 FROM transactions WHERE user_id = ?`
	args := []any{userID}

	if f.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(f.Kind))
	}
	if f.CategoryID != 0 {
		query += ` AND category_id = ?`
		args = append(args, f.CategoryID)
	}
	if !f.From.IsZero() {
		query += ` AND occurred_on >= ?`
		args = append(args, f.From.String())
	}
	if !f.To.IsZero() {
		query += ` AND occurred_on <= ?`
		args = append(args, f.To.String())
	}

	limit := f.Limit
	if limit <= 0 || limit > r.maxRows {
		limit = r.maxRows
	}
	query += ` ORDER BY occurred_on DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeError("list transactions", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list transactions", err)
	}
	return out, nil
}

func (r *Repository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	if err := requireUser(t.UserID); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET category_id = ?, amount = ?, kind = ?, occurred_on = ?, description = ?
		 WHERE id = ? AND user_id = ?`,
		t.CategoryID, t.Amount.String(), string(t.Kind), t.Date.String(), t.Description, t.ID, t.UserID)
	if err != nil {
		return storeError("update transaction", err)
	}
	return affectedOrNotFound(res, "transaction")
}

func (r *Repository) DeleteTransaction(ctx context.Context, userID, id int64) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return storeError("delete transaction", err)
	}
	return affectedOrNotFound(res, "transaction")
}

func scanTransaction(scan func(...any) error) (core.Transaction, error) {
	var (
		t      core.Transaction
		amount string
		date   string
	)
	err := scan(&t.ID, &t.UserID, &t.CategoryID, &amount, &t.Kind, &date, &t.Description, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, err
	}
	if err != nil {
		return core.Transaction{}, storeError("scan transaction", err)
	}
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.Transaction{}, storeError("parse transaction amount", err)
	}
	if t.Date, err = core.ParseDate(date); err != nil {
		return core.Transaction{}, storeError("parse transaction date", err)
	}
	return t, nil
}

// --- budgets ---

func (r *Repository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := requireUser(b.UserID); err != nil {
		return core.Budget{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (user_id, category_id, amount, period, start_date, end_date)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		b.UserID, b.CategoryID, b.Amount.String(), string(b.Period), b.StartDate.String(), b.EndDate.String())
	if err != nil {
		return core.Budget{}, storeError("create budget", err)
	}
	b.ID, err = res.LastInsertId()
	if err != nil {
		return core.Budget{}, storeError("create budget id", err)
	}
	return b, nil
}

func (r *Repository) GetBudget(ctx context.Context, userID, id int64) (core.Budget, error) {
	if err := requireUser(userID); err != nil {
		return core.Budget{}, err
	}
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, category_id, amount, period, start_date, end_date
		 FROM budgets WHERE id = ? AND user_id = ?`, id, userID)

	b, err := scanBudget(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, fmt.Errorf("budget %d: %w", id, core.ErrNotFound)
	}
	return b, err
}

func (r *Repository) ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, category_id, amount, period, start_date, end_date
		 FROM budgets WHERE user_id = ? ORDER BY start_date DESC, id DESC`, userID)
	if err != nil {
		return nil, storeError("list budgets", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list budgets", err)
	}
	return out, nil
}

func (r *Repository) UpdateBudget(ctx context.Context, b core.Budget) error {
	if err := requireUser(b.UserID); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET category_id = ?, amount = ?, period = ?, start_date = ?, end_date = ?
		 WHERE id = ? AND user_id = ?`,
		b.CategoryID, b.Amount.String(), string(b.Period), b.StartDate.String(), b.EndDate.String(), b.ID, b.UserID)
	if err != nil {
		return storeError("update budget", err)
	}
	return affectedOrNotFound(res, "budget")
}

func (r *Repository) DeleteBudget(ctx context.Context, userID, id int64) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return storeError("delete budget", err)
	}
	return affectedOrNotFound(res, "budget")
}

func scanBudget(scan func(...any) error) (core.Budget, error) {
	var (
		b          core.Budget
		amount     string
		start, end string
	)
	err := scan(&b.ID, &b.UserID, &b.CategoryID, &amount, &b.Period, &start, &end)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, err
	}
	if err != nil {
		return core.Budget{}, storeError("scan budget", err)
	}
	if b.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.Budget{}, storeError("parse budget amount", err)
	}
	if b.StartDate, err = core.ParseDate(start); err != nil {
		return core.Budget{}, storeError("parse budget start date", err)
	}
	if b.EndDate, err = core.ParseDate(end); err != nil {
		return core.Budget{}, storeError("parse budget end date", err)
	}
	return b, nil
}

func affectedOrNotFound(res sql.Result, entity string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storeError("rows affected", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", entity, core.ErrNotFound)
	}
	return nil
}
