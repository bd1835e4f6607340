package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/eugenenazirov/opticalc/internal/knapsack"
)

var _ Storage = (*SQLiteStorage)(nil)

// SQLiteStorage persists the catalog and run history in a SQLite database.
type SQLiteStorage struct {
	db   *sql.DB
	opts options
}

// NewSQLiteStorage opens (creating if needed) the database at dbPath and migrates it.
func NewSQLiteStorage(ctx context.Context, dbPath string, opts ...Option) (*SQLiteStorage, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, errors.New("database path cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteStorage{db: db, opts: buildOptions(opts)}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

const itemColumns = `id, name, cost, sell_price, created_at, updated_at`

func (s *SQLiteStorage) ListItems(ctx context.Context) ([]CatalogItem, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+itemColumns+` FROM items ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := []CatalogItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}
	return items, nil
}

func (s *SQLiteStorage) GetItem(ctx context.Context, id string) (CatalogItem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return CatalogItem{}, ErrItemNotFound
	}
	return item, err
}

func (s *SQLiteStorage) AddItem(ctx context.Context, item knapsack.Item) (CatalogItem, error) {
	normalized, err := normalizeItem(item)
	if err != nil {
		return CatalogItem{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return CatalogItem{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&count); err != nil {
		return CatalogItem{}, fmt.Errorf("failed to count items: %w", err)
	}
	if count >= s.opts.maxItems {
		return CatalogItem{}, ErrCatalogFull
	}

	now := s.opts.clock()
	stored := CatalogItem{
		ID:        s.opts.newID(),
		Item:      normalized,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO items (id, name, cost, sell_price, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		stored.ID, stored.Name, stored.Cost, stored.SellPrice, stored.CreatedAt, stored.UpdatedAt,
	)
	if err != nil {
		return CatalogItem{}, fmt.Errorf("failed to insert item: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return CatalogItem{}, fmt.Errorf("failed to commit item: %w", err)
	}
	return stored, nil
}

func (s *SQLiteStorage) UpdateItem(ctx context.Context, id string, item knapsack.Item) (CatalogItem, error) {
	normalized, err := normalizeItem(item)
	if err != nil {
		return CatalogItem{}, err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE items SET name = ?, cost = ?, sell_price = ?, updated_at = ? WHERE id = ?`,
		normalized.Name, normalized.Cost, normalized.SellPrice, s.opts.clock(), id,
	)
	if err != nil {
		return CatalogItem{}, fmt.Errorf("failed to update item: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return CatalogItem{}, err
	}
	return s.GetItem(ctx, id)
}

func (s *SQLiteStorage) DeleteItem(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return requireAffected(res)
}

func (s *SQLiteStorage) ClearItems(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM items`); err != nil {
		return fmt.Errorf("failed to clear items: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) SaveRun(ctx context.Context, run Run) (Run, error) {
	run.ID = s.opts.newID()
	run.CreatedAt = s.opts.clock()
	if run.Plan == nil {
		run.Plan = []knapsack.PlanEntry{}
	}

	plan, err := json.Marshal(run.Plan)
	if err != nil {
		return Run{}, fmt.Errorf("failed to encode plan: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, mode, budget, total_profit, total_cost, plan, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, string(run.Mode), run.Budget, run.TotalProfit, run.TotalCost, string(plan), run.CreatedAt,
	)
	if err != nil {
		return Run{}, fmt.Errorf("failed to insert run: %w", err)
	}
	return run, nil
}

func (s *SQLiteStorage) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, mode, budget, total_profit, total_cost, plan, created_at FROM runs ORDER BY seq DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	runs := []Run{}
	for rows.Next() {
		var (
			run  Run
			mode string
			plan string
		)
		if err := rows.Scan(&run.ID, &mode, &run.Budget, &run.TotalProfit, &run.TotalCost, &plan, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.Mode = knapsack.Mode(mode)
		if err := json.Unmarshal([]byte(plan), &run.Plan); err != nil {
			return nil, fmt.Errorf("failed to decode plan of run %s: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (CatalogItem, error) {
	var (
		item               CatalogItem
		createdAt, updated time.Time
	)
	err := row.Scan(&item.ID, &item.Name, &item.Cost, &item.SellPrice, &createdAt, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CatalogItem{}, err
		}
		return CatalogItem{}, fmt.Errorf("failed to scan item: %w", err)
	}
	item.CreatedAt = createdAt.UTC()
	item.UpdatedAt = updated.UTC()
	return item, nil
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrItemNotFound
	}
	return nil
}
