package store

import (
	"context"

	"lisearch/backend/internal/domain"
)

// Repository is the read-only report contract over the POS schema. Every
// method is a pure function of the current data snapshot and its parameters;
// implementations must preserve the column semantics and ordering documented
// per method, since the dispatcher and the HTTP report endpoints both depend
// on them.
//
// Parameter validation happens in the service layer; implementations may
// assume limits and day windows are positive.
type Repository interface {
	// TopSellingProducts returns active products with at least one sale in
	// the trailing window, ordered by total quantity sold descending.
	TopSellingProducts(ctx context.Context, params domain.TopSellingParams) ([]domain.TopSellerRow, error)

	// TrendingProducts orders by sales velocity descending, breaking ties
	// by raw quantity sold descending.
	TrendingProducts(ctx context.Context, params domain.TrendingParams) ([]domain.TrendingRow, error)

	// SearchProductsByDescription matches the term case-insensitively
	// against name, description, and brand of active products. A name match
	// scores 3, any other match scores 1; ordered score desc, name asc.
	SearchProductsByDescription(ctx context.Context, term string) ([]domain.SearchResultRow, error)

	// LowStockProducts returns products whose stock is at or below the
	// reorder level, ordered by stock deficit desc then name asc. Products
	// without an inventory record never appear, and product status is not
	// consulted (both are defined behavior, matching the upstream reports).
	LowStockProducts(ctx context.Context, limit int) ([]domain.LowStockRow, error)

	// SalesSummaryByCategory aggregates the window per category, ordered by
	// total revenue descending. The top product within a category is chosen
	// deterministically: highest quantity, then lowest product id.
	SalesSummaryByCategory(ctx context.Context, days int) ([]domain.CategorySalesRow, error)

	// ProductDetails returns at most one product matched by id or by
	// case-insensitive name substring (lowest id wins on multiple matches).
	// Returns domain.ErrNotFound when nothing matches.
	ProductDetails(ctx context.Context, params domain.ProductDetailsParams) (*domain.ProductDetailsRow, error)

	// RecentTransactions is unfiltered by product status; product names are
	// concatenated in name order so the result is reproducible.
	RecentTransactions(ctx context.Context, limit int) ([]domain.RecentTransactionRow, error)

	// ListCategories returns all category names in alphabetical order.
	ListCategories(ctx context.Context) ([]string, error)
}
