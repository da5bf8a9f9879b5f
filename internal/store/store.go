// Package store keeps the order table in sqlite and answers the grouped
// queries the dashboard needs.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"superstore/internal/dataset"
)

var ErrNoOrdersTable = errors.New("store: database has no orders table")

const schema = `CREATE TABLE orders (
	seq INTEGER PRIMARY KEY,
	row_id INTEGER,
	order_id TEXT,
	order_date TEXT NOT NULL,
	ship_date TEXT,
	ship_mode TEXT,
	customer_id TEXT,
	customer_name TEXT,
	segment TEXT,
	country TEXT,
	city TEXT,
	state TEXT,
	postal_code TEXT,
	region TEXT,
	product_id TEXT,
	category TEXT,
	sub_category TEXT,
	product_name TEXT,
	sales REAL,
	quantity INTEGER,
	discount REAL,
	profit REAL
)`

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_orders_order_date ON orders(order_date)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_region ON orders(region)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_state ON orders(state)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_city ON orders(city)`,
}

const orderColumns = `seq, row_id, order_id, order_date, ship_date, ship_mode, customer_id, customer_name,
	segment, country, city, state, postal_code, region, product_id, category, sub_category, product_name,
	sales, quantity, discount, profit`

// Store wraps a sqlite handle holding one orders table.
type Store struct {
	db   *sql.DB
	path string
}

// Load copies orders into a private in-memory database.
func Load(ctx context.Context, orders []dataset.Order) (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := writeOrders(ctx, db, orders); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, path: ":memory:"}, nil
}

// Import writes orders to a sqlite file at path, replacing any existing file.
func Import(ctx context.Context, orders []dataset.Order, path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()
	return writeOrders(ctx, db, orders)
}

// Open attaches to a database previously written by Import.
func Open(ctx context.Context, path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("sqlite path: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	var name string
	err = db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type='table' AND name='orders'`).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		db.Close()
		return nil, ErrNoOrdersTable
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("inspect %s: %w", path, err)
	}
	return &Store{db: db, path: path}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Path is the file backing the store, or ":memory:".
func (s *Store) Path() string { return s.path }

func writeOrders(ctx context.Context, db *sql.DB, orders []dataset.Order) error {
	if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS orders`); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create orders: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	ph := strings.TrimRight(strings.Repeat("?,", 22), ",")
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO orders (`+orderColumns+`) VALUES (`+ph+`)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, o := range orders {
		if _, err := stmt.ExecContext(ctx,
			o.Seq, o.RowID, o.OrderID, day(o.OrderDate), nullableDay(o.ShipDate), o.ShipMode,
			o.CustomerID, o.CustomerName, o.Segment, o.Country, o.City, o.State, o.PostalCode,
			o.Region, o.ProductID, o.Category, o.SubCategory, o.ProductName,
			o.Sales, o.Quantity, o.Discount, o.Profit,
		); err != nil {
			return fmt.Errorf("insert row %d: %w", o.Seq, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	for _, idx := range indexes {
		if _, err := db.ExecContext(ctx, idx); err != nil {
			return err
		}
	}
	return nil
}

func day(t time.Time) string { return t.Format(dataset.DateLayout) }

func nullableDay(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return day(t)
}

func parseDay(v string) (time.Time, error) {
	return time.Parse(dataset.DateLayout, v)
}
