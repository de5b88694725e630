package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"lisearch/backend/internal/domain"
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

// EnsureSchema applies the table, trigger, and index definitions. All
// statements are idempotent, so this is safe to run at every startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return classify(fmt.Errorf("applying schema: %w", err))
		}
	}
	return nil
}

func (s *Store) TopSellingProducts(ctx context.Context, params domain.TopSellingParams) ([]domain.TopSellerRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.name, p.brand, c.name,
			SUM(sli.quantity)::bigint,
			ROUND(SUM(sli.line_total), 2)::float8,
			COALESCE(i.quantity_on_hand, 0)
		FROM sales_line_items sli
		JOIN sales_transactions st ON st.id = sli.transaction_id
		JOIN products p ON p.id = sli.product_id
		JOIN categories c ON c.id = p.category_id
		LEFT JOIN inventory i ON i.product_id = p.id
		WHERE p.status = 'active'
			AND st.transaction_date >= now() - make_interval(days => $1)
			AND ($2 = '' OR c.name ILIKE '%' || $2 || '%')
		GROUP BY p.id, p.name, p.brand, c.name, i.quantity_on_hand
		ORDER BY SUM(sli.quantity) DESC
		LIMIT $3
	`, params.Days, escapeLike(params.Category), params.Limit)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	result := make([]domain.TopSellerRow, 0, params.Limit)
	for rows.Next() {
		var row domain.TopSellerRow
		if err := rows.Scan(&row.ProductID, &row.Name, &row.Brand, &row.Category, &row.TotalQuantitySold, &row.TotalRevenue, &row.CurrentStock); err != nil {
			return nil, classify(err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return result, nil
}

func (s *Store) TrendingProducts(ctx context.Context, params domain.TrendingParams) ([]domain.TrendingRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.name, p.brand, c.name,
			SUM(sli.quantity)::bigint,
			ROUND(SUM(sli.line_total), 2)::float8,
			COALESCE(i.quantity_on_hand, 0),
			ROUND(SUM(sli.quantity)::numeric / $1, 2)::float8 AS sales_velocity
		FROM sales_line_items sli
		JOIN sales_transactions st ON st.id = sli.transaction_id
		JOIN products p ON p.id = sli.product_id
		JOIN categories c ON c.id = p.category_id
		LEFT JOIN inventory i ON i.product_id = p.id
		WHERE p.status = 'active'
			AND st.transaction_date >= now() - make_interval(days => $1)
		GROUP BY p.id, p.name, p.brand, c.name, i.quantity_on_hand
		ORDER BY sales_velocity DESC, SUM(sli.quantity) DESC
		LIMIT $2
	`, params.Days, params.Limit)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	result := make([]domain.TrendingRow, 0, params.Limit)
	for rows.Next() {
		var row domain.TrendingRow
		if err := rows.Scan(&row.ProductID, &row.Name, &row.Brand, &row.Category, &row.TotalQuantitySold, &row.TotalRevenue, &row.CurrentStock, &row.SalesVelocity); err != nil {
			return nil, classify(err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return result, nil
}

func (s *Store) SearchProductsByDescription(ctx context.Context, term string) ([]domain.SearchResultRow, error) {
	pattern := "%" + escapeLike(term) + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.sku, p.name, p.brand, c.name, p.subcategory, p.size,
			p.abv::float8, p.description, p.retail_price::float8,
			CASE WHEN p.name ILIKE $1 THEN 3 ELSE 1 END AS relevance_score
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE p.status = 'active'
			AND (p.name ILIKE $1 OR p.description ILIKE $1 OR p.brand ILIKE $1)
		ORDER BY relevance_score DESC, p.name ASC
	`, pattern)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	result := make([]domain.SearchResultRow, 0, 32)
	for rows.Next() {
		var row domain.SearchResultRow
		if err := rows.Scan(&row.ProductID, &row.SKU, &row.Name, &row.Brand, &row.Category, &row.Subcategory, &row.Size, &row.ABV, &row.Description, &row.RetailPrice, &row.RelevanceScore); err != nil {
			return nil, classify(err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return result, nil
}

func (s *Store) LowStockProducts(ctx context.Context, limit int) ([]domain.LowStockRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.sku, p.name, p.brand, c.name,
			i.quantity_on_hand, i.reorder_level,
			i.reorder_level - i.quantity_on_hand AS stock_deficit,
			i.reorder_quantity
		FROM inventory i
		JOIN products p ON p.id = i.product_id
		JOIN categories c ON c.id = p.category_id
		WHERE i.quantity_on_hand <= i.reorder_level
		ORDER BY stock_deficit DESC, p.name ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	result := make([]domain.LowStockRow, 0, limit)
	for rows.Next() {
		var row domain.LowStockRow
		if err := rows.Scan(&row.ProductID, &row.SKU, &row.Name, &row.Brand, &row.Category, &row.CurrentStock, &row.ReorderLevel, &row.StockDeficit, &row.ReorderQuantity); err != nil {
			return nil, classify(err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return result, nil
}

func (s *Store) SalesSummaryByCategory(ctx context.Context, days int) ([]domain.CategorySalesRow, error) {
	// The top-product subquery orders by quantity desc then product id asc,
	// so ties resolve the same way on every run.
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.name,
			COALESCE(SUM(sli.quantity), 0)::bigint AS total_units,
			ROUND(COALESCE(SUM(sli.line_total), 0), 2)::float8 AS total_revenue,
			ROUND(SUM(sli.line_total) / NULLIF(SUM(sli.quantity), 0), 2)::float8 AS avg_unit_value,
			COUNT(DISTINCT p.id)::bigint,
			(
				SELECT p2.name
				FROM sales_line_items sli2
				JOIN sales_transactions st2 ON st2.id = sli2.transaction_id
				JOIN products p2 ON p2.id = sli2.product_id
				WHERE p2.category_id = c.id
					AND p2.status = 'active'
					AND st2.transaction_date >= now() - make_interval(days => $1)
				GROUP BY p2.id, p2.name
				ORDER BY SUM(sli2.quantity) DESC, p2.id ASC
				LIMIT 1
			)
		FROM categories c
		JOIN products p ON p.category_id = c.id AND p.status = 'active'
		JOIN sales_line_items sli ON sli.product_id = p.id
		JOIN sales_transactions st ON st.id = sli.transaction_id
			AND st.transaction_date >= now() - make_interval(days => $1)
		GROUP BY c.id, c.name
		ORDER BY total_revenue DESC
	`, days)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	result := make([]domain.CategorySalesRow, 0, 8)
	for rows.Next() {
		var row domain.CategorySalesRow
		var avg sql.NullFloat64
		var top sql.NullString
		if err := rows.Scan(&row.Category, &row.TotalUnits, &row.TotalRevenue, &avg, &row.DistinctProducts, &top); err != nil {
			return nil, classify(err)
		}
		if avg.Valid {
			v := avg.Float64
			row.AvgUnitValue = &v
		}
		if top.Valid {
			row.TopProduct = top.String
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return result, nil
}

func (s *Store) ProductDetails(ctx context.Context, params domain.ProductDetailsParams) (*domain.ProductDetailsRow, error) {
	var row domain.ProductDetailsRow
	var upc sql.NullString
	var lastSale sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT p.id, p.sku, p.upc, p.name, p.brand, c.name, p.subcategory, p.size,
			p.abv::float8, p.description, p.cost_price::float8, p.retail_price::float8, p.status,
			COALESCE(i.quantity_on_hand, 0), COALESCE(i.reorder_level, 0),
			COALESCE(s.units_30d, 0)::bigint, COALESCE(s.revenue_30d, 0)::float8, s.last_sale_at
		FROM products p
		JOIN categories c ON c.id = p.category_id
		LEFT JOIN inventory i ON i.product_id = p.id
		LEFT JOIN LATERAL (
			SELECT
				SUM(sli.quantity) FILTER (WHERE st.transaction_date >= now() - make_interval(days => 30)) AS units_30d,
				ROUND(COALESCE(SUM(sli.line_total) FILTER (WHERE st.transaction_date >= now() - make_interval(days => 30)), 0), 2)::float8 AS revenue_30d,
				MAX(st.transaction_date) AS last_sale_at
			FROM sales_line_items sli
			JOIN sales_transactions st ON st.id = sli.transaction_id
			WHERE sli.product_id = p.id
		) s ON true
		WHERE p.status = 'active'
			AND ($1 = 0 OR p.id = $1)
			AND ($2 = '' OR p.name ILIKE '%' || $2 || '%')
		ORDER BY p.id ASC
		LIMIT 1
	`, params.ProductID, escapeLike(params.ProductName)).Scan(
		&row.ProductID, &row.SKU, &upc, &row.Name, &row.Brand, &row.Category, &row.Subcategory, &row.Size,
		&row.ABV, &row.Description, &row.CostPrice, &row.RetailPrice, &row.Status,
		&row.CurrentStock, &row.ReorderLevel,
		&row.UnitsSold30d, &row.Revenue30d, &lastSale,
	)
	if err != nil {
		return nil, classify(err)
	}
	if upc.Valid {
		row.UPC = upc.String
	}
	if lastSale.Valid {
		t := lastSale.Time.UTC()
		row.LastSaleAt = &t
	}
	return &row, nil
}

func (s *Store) RecentTransactions(ctx context.Context, limit int) ([]domain.RecentTransactionRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT st.id, st.transaction_date, st.total_amount::float8, st.payment_method,
			COUNT(sli.id)::bigint AS item_count,
			COALESCE(string_agg(p.name, ', ' ORDER BY p.name), '')
		FROM sales_transactions st
		LEFT JOIN sales_line_items sli ON sli.transaction_id = st.id
		LEFT JOIN products p ON p.id = sli.product_id
		GROUP BY st.id, st.transaction_date, st.total_amount, st.payment_method
		ORDER BY st.transaction_date DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	result := make([]domain.RecentTransactionRow, 0, limit)
	for rows.Next() {
		var row domain.RecentTransactionRow
		if err := rows.Scan(&row.TransactionID, &row.TransactionDate, &row.TotalAmount, &row.PaymentMethod, &row.ItemCount, &row.ProductNames); err != nil {
			return nil, classify(err)
		}
		row.TransactionDate = row.TransactionDate.UTC()
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return result, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM categories ORDER BY name ASC
	`)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	names := make([]string, 0, 8)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, classify(err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return names, nil
}

// likeEscaper neutralizes the LIKE wildcards so user-supplied text always
// matches literally, like the in-memory store's substring checks do.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// classify maps driver errors onto the domain taxonomy: connectivity and
// timeout failures become the retryable domain.ErrUnavailable, missing rows
// become domain.ErrNotFound, and everything else (constraint and data
// errors) passes through as non-retryable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 08 is connection exception, 57P0x are shutdown states.
		if len(pgErr.Code) >= 2 && (pgErr.Code[:2] == "08" || pgErr.Code[:2] == "57") {
			return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
		}
	}
	return err
}
