package postgres

// schemaStatements is executed in order by EnsureSchema. Statements are kept
// individually because the pgx stdlib driver uses the extended protocol,
// which rejects multi-statement strings.
//
// The updated_at triggers fire on UPDATE only; inserts take the column
// default. Indexes cover every column the report queries filter or join on.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS categories (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS products (
		id BIGSERIAL PRIMARY KEY,
		sku TEXT NOT NULL UNIQUE,
		upc TEXT UNIQUE,
		name TEXT NOT NULL,
		brand TEXT NOT NULL DEFAULT '',
		category_id BIGINT REFERENCES categories(id),
		subcategory TEXT NOT NULL DEFAULT '',
		size TEXT NOT NULL DEFAULT '',
		abv NUMERIC(5,2) NOT NULL DEFAULT 0,
		description TEXT NOT NULL DEFAULT '',
		cost_price NUMERIC(10,2) NOT NULL DEFAULT 0 CHECK (cost_price >= 0),
		retail_price NUMERIC(10,2) NOT NULL DEFAULT 0 CHECK (retail_price >= 0),
		status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'discontinued')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	// product_id is UNIQUE: at most one inventory record per product. The
	// unique constraint doubles as the inventory(product_id) lookup index.
	`CREATE TABLE IF NOT EXISTS inventory (
		id BIGSERIAL PRIMARY KEY,
		product_id BIGINT NOT NULL UNIQUE REFERENCES products(id) ON DELETE RESTRICT,
		quantity_on_hand INTEGER NOT NULL DEFAULT 0 CHECK (quantity_on_hand >= 0),
		reorder_level INTEGER NOT NULL DEFAULT 0,
		reorder_quantity INTEGER NOT NULL DEFAULT 0,
		last_restock_date TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS sales_transactions (
		id BIGSERIAL PRIMARY KEY,
		transaction_date TIMESTAMPTZ NOT NULL DEFAULT now(),
		total_amount NUMERIC(10,2) NOT NULL DEFAULT 0,
		payment_method TEXT NOT NULL CHECK (payment_method IN ('cash', 'card', 'digital_wallet')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	// line_total is stored, not computed: writers keep it consistent with
	// quantity * unit_price - discount_amount. The reports only read it.
	`CREATE TABLE IF NOT EXISTS sales_line_items (
		id BIGSERIAL PRIMARY KEY,
		transaction_id BIGINT NOT NULL REFERENCES sales_transactions(id) ON DELETE RESTRICT,
		product_id BIGINT NOT NULL REFERENCES products(id) ON DELETE RESTRICT,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		unit_price NUMERIC(10,2) NOT NULL,
		line_total NUMERIC(10,2) NOT NULL CHECK (line_total >= 0),
		discount_amount NUMERIC(10,2) NOT NULL DEFAULT 0
	)`,

	`CREATE OR REPLACE FUNCTION stamp_updated_at() RETURNS trigger AS $$
	BEGIN
		NEW.updated_at = now();
		RETURN NEW;
	END;
	$$ LANGUAGE plpgsql`,

	`DROP TRIGGER IF EXISTS categories_stamp_updated_at ON categories`,
	`CREATE TRIGGER categories_stamp_updated_at
		BEFORE UPDATE ON categories
		FOR EACH ROW EXECUTE FUNCTION stamp_updated_at()`,

	`DROP TRIGGER IF EXISTS products_stamp_updated_at ON products`,
	`CREATE TRIGGER products_stamp_updated_at
		BEFORE UPDATE ON products
		FOR EACH ROW EXECUTE FUNCTION stamp_updated_at()`,

	`DROP TRIGGER IF EXISTS inventory_stamp_updated_at ON inventory`,
	`CREATE TRIGGER inventory_stamp_updated_at
		BEFORE UPDATE ON inventory
		FOR EACH ROW EXECUTE FUNCTION stamp_updated_at()`,

	`CREATE INDEX IF NOT EXISTS idx_products_category_id ON products (category_id)`,
	`CREATE INDEX IF NOT EXISTS idx_products_status ON products (status)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_transactions_date ON sales_transactions (transaction_date)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_line_items_transaction_id ON sales_line_items (transaction_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_line_items_product_id ON sales_line_items (product_id)`,
}
