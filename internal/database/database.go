package database

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Database struct {
	DB *gorm.DB
}

func New(databaseURL string) (*Database, error) {
	var db *gorm.DB
	var err error

	if strings.HasPrefix(databaseURL, "sqlite://") {
		// SQLite for development and tests
		dbPath := strings.TrimPrefix(databaseURL, "sqlite://")
		db, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
	} else {
		// PostgreSQL for production
		db, err = gorm.Open(postgres.Open(databaseURL), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if strings.HasPrefix(databaseURL, "sqlite://") {
		// One connection only: sqlite has a single writer, and a second
		// pooled connection to :memory: would open a different database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	// Create tables manually with raw SQL
	createTablesSQL := `
	CREATE TABLE IF NOT EXISTS products (
		id UUID PRIMARY KEY,
		zoho_item_id TEXT UNIQUE,
		zoho_group_id TEXT,
		group_name TEXT,
		sku TEXT,
		name TEXT NOT NULL,
		description TEXT,
		category_slug TEXT,
		price DECIMAL(10,2) DEFAULT 0,
		compare_at_price DECIMAL(10,2),
		stock_quantity INTEGER DEFAULT 0,
		low_stock_threshold INTEGER DEFAULT 0,
		case_pack_size INTEGER DEFAULT 1,
		min_order_qty INTEGER DEFAULT 1,
		is_active BOOLEAN DEFAULT true,
		is_online BOOLEAN DEFAULT false,
		image_source TEXT DEFAULT 'none',
		image_url TEXT,
		last_synced_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ,
		updated_at TIMESTAMPTZ
	);

	CREATE TABLE IF NOT EXISTS categories (
		id UUID PRIMARY KEY,
		slug TEXT UNIQUE NOT NULL,
		name TEXT NOT NULL,
		zoho_category_id TEXT UNIQUE,
		created_at TIMESTAMPTZ,
		updated_at TIMESTAMPTZ
	);

	CREATE TABLE IF NOT EXISTS sync_runs (
		id UUID PRIMARY KEY,
		type TEXT NOT NULL,
		trigger_source TEXT,
		status TEXT,
		created_count INTEGER DEFAULT 0,
		updated_count INTEGER DEFAULT 0,
		skipped_count INTEGER DEFAULT 0,
		delisted_count INTEGER DEFAULT 0,
		error_count INTEGER DEFAULT 0,
		errors TEXT,
		started_at TIMESTAMPTZ,
		finished_at TIMESTAMPTZ,
		duration_ms BIGINT DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS jobs (
		id UUID PRIMARY KEY,
		type TEXT NOT NULL,
		user_id TEXT,
		order_id TEXT,
		payload TEXT,
		status TEXT DEFAULT 'pending',
		attempts INTEGER DEFAULT 0,
		max_attempts INTEGER DEFAULT 3,
		last_error TEXT,
		created_at TIMESTAMPTZ,
		updated_at TIMESTAMPTZ
	);

	CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		name TEXT NOT NULL,
		company_name TEXT,
		status TEXT DEFAULT 'pending',
		zoho_contact_id TEXT UNIQUE,
		price_list_id TEXT,
		created_at TIMESTAMPTZ,
		updated_at TIMESTAMPTZ
	);

	CREATE TABLE IF NOT EXISTS carts (
		id UUID PRIMARY KEY,
		user_id TEXT UNIQUE NOT NULL,
		created_at TIMESTAMPTZ,
		updated_at TIMESTAMPTZ
	);

	CREATE TABLE IF NOT EXISTS cart_items (
		id UUID PRIMARY KEY,
		cart_id TEXT NOT NULL,
		product_id TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		unit_price DECIMAL(10,2) DEFAULT 0,
		line_total DECIMAL(10,2) DEFAULT 0,
		created_at TIMESTAMPTZ,
		updated_at TIMESTAMPTZ
	);

	CREATE TABLE IF NOT EXISTS orders (
		id UUID PRIMARY KEY,
		user_id TEXT NOT NULL,
		status TEXT DEFAULT 'pending_approval',
		subtotal DECIMAL(10,2) DEFAULT 0,
		total DECIMAL(10,2) DEFAULT 0,
		shipping_name TEXT,
		shipping_address TEXT,
		shipping_city TEXT,
		shipping_zip TEXT,
		notes TEXT,
		zoho_sales_order_id TEXT,
		pushed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ,
		updated_at TIMESTAMPTZ
	);

	CREATE TABLE IF NOT EXISTS order_items (
		id UUID PRIMARY KEY,
		order_id TEXT NOT NULL,
		product_id TEXT,
		sku TEXT,
		name TEXT,
		unit_price DECIMAL(10,2) DEFAULT 0,
		quantity INTEGER DEFAULT 0,
		line_total DECIMAL(10,2) DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS price_lists (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		zoho_pricebook_id TEXT UNIQUE NOT NULL,
		created_at TIMESTAMPTZ,
		updated_at TIMESTAMPTZ
	);

	CREATE TABLE IF NOT EXISTS customer_prices (
		id UUID PRIMARY KEY,
		price_list_id TEXT NOT NULL,
		zoho_item_id TEXT NOT NULL,
		price DECIMAL(10,2) DEFAULT 0,
		created_at TIMESTAMPTZ,
		updated_at TIMESTAMPTZ
	);

	CREATE TABLE IF NOT EXISTS api_call_logs (
		id UUID PRIMARY KEY,
		endpoint TEXT NOT NULL,
		method TEXT,
		status_code INTEGER DEFAULT 0,
		success BOOLEAN DEFAULT false,
		duration_ms BIGINT DEFAULT 0,
		error_message TEXT,
		created_at TIMESTAMPTZ
	);
	`

	err = db.Exec(createTablesSQL).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &Database{DB: db}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
