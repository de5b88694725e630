// Package service applies parameter defaults and validation, runs the
// report queries through a short-TTL cache, and screens results for data
// inconsistencies before they reach the dispatcher or the HTTP layer.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"lisearch/backend/internal/cache"
	"lisearch/backend/internal/catalog"
	"lisearch/backend/internal/domain"
	"lisearch/backend/internal/metrics"
	"lisearch/backend/internal/store"
)

const (
	defaultTopSellingLimit = 10
	defaultTopSellingDays  = 30
	defaultTrendingLimit   = 10
	defaultTrendingDays    = 7
	defaultLowStockLimit   = 20
	defaultSummaryDays     = 30
	defaultRecentLimit     = 10
)

type Service struct {
	repo     store.Repository
	cache    cache.ReportCache
	cacheTTL time.Duration
	log      zerolog.Logger
}

func New(repo store.Repository, reportCache cache.ReportCache, cacheTTL time.Duration, log zerolog.Logger) *Service {
	if reportCache == nil {
		reportCache = cache.NewNoop()
	}
	return &Service{repo: repo, cache: reportCache, cacheTTL: cacheTTL, log: log}
}

// positive applies the default when v is unset (zero) and rejects negative
// values. There is no clamping: a caller asking for 5000 rows gets 5000.
func positive(name string, v, def int) (int, error) {
	if v == 0 {
		return def, nil
	}
	if v < 0 {
		return 0, domain.NewValidationError(name, "must be positive")
	}
	return v, nil
}

func (s *Service) TopSellingProducts(ctx context.Context, params domain.TopSellingParams) ([]domain.TopSellerRow, []string, error) {
	var err error
	if params.Limit, err = positive("limit", params.Limit, defaultTopSellingLimit); err != nil {
		return nil, nil, err
	}
	if params.Days, err = positive("days", params.Days, defaultTopSellingDays); err != nil {
		return nil, nil, err
	}
	params.Category = strings.TrimSpace(params.Category)

	var rows []domain.TopSellerRow
	key := fmt.Sprintf("report:top_selling:%s:%d:%d", strings.ToLower(params.Category), params.Limit, params.Days)
	err = s.observe(ctx, catalog.OpTopSelling, func(ctx context.Context) error {
		return s.loadCached(ctx, key, &rows, func(ctx context.Context) error {
			var err error
			rows, err = s.repo.TopSellingProducts(ctx, params)
			return err
		})
	})
	if err != nil {
		return nil, nil, err
	}

	var warnings []string
	for _, row := range rows {
		if row.CurrentStock < 0 {
			warnings = append(warnings, fmt.Sprintf("data inconsistent: product %d has negative stock %d", row.ProductID, row.CurrentStock))
		}
		if row.TotalRevenue < 0 {
			warnings = append(warnings, fmt.Sprintf("data inconsistent: product %d has negative revenue %.2f", row.ProductID, row.TotalRevenue))
		}
	}
	return rows, warnings, nil
}

func (s *Service) TrendingProducts(ctx context.Context, params domain.TrendingParams) ([]domain.TrendingRow, []string, error) {
	var err error
	if params.Days, err = positive("days", params.Days, defaultTrendingDays); err != nil {
		return nil, nil, err
	}
	if params.Limit, err = positive("limit", params.Limit, defaultTrendingLimit); err != nil {
		return nil, nil, err
	}

	var rows []domain.TrendingRow
	key := fmt.Sprintf("report:trending:%d:%d", params.Days, params.Limit)
	err = s.observe(ctx, catalog.OpTrending, func(ctx context.Context) error {
		return s.loadCached(ctx, key, &rows, func(ctx context.Context) error {
			var err error
			rows, err = s.repo.TrendingProducts(ctx, params)
			return err
		})
	})
	if err != nil {
		return nil, nil, err
	}

	var warnings []string
	for _, row := range rows {
		if row.CurrentStock < 0 {
			warnings = append(warnings, fmt.Sprintf("data inconsistent: product %d has negative stock %d", row.ProductID, row.CurrentStock))
		}
		if row.TotalRevenue < 0 {
			warnings = append(warnings, fmt.Sprintf("data inconsistent: product %d has negative revenue %.2f", row.ProductID, row.TotalRevenue))
		}
	}
	return rows, warnings, nil
}

func (s *Service) SearchProductsByDescription(ctx context.Context, term string) ([]domain.SearchResultRow, []string, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil, domain.NewValidationError("search_term", "must not be empty")
	}

	var rows []domain.SearchResultRow
	key := "report:search:" + strings.ToLower(term)
	err := s.observe(ctx, catalog.OpSearch, func(ctx context.Context) error {
		return s.loadCached(ctx, key, &rows, func(ctx context.Context) error {
			var err error
			rows, err = s.repo.SearchProductsByDescription(ctx, term)
			return err
		})
	})
	if err != nil {
		return nil, nil, err
	}

	var warnings []string
	for _, row := range rows {
		if row.RetailPrice < 0 {
			warnings = append(warnings, fmt.Sprintf("data inconsistent: product %d has negative retail price %.2f", row.ProductID, row.RetailPrice))
		}
	}
	return rows, warnings, nil
}

func (s *Service) LowStockProducts(ctx context.Context, limit int) ([]domain.LowStockRow, []string, error) {
	limit, err := positive("limit", limit, defaultLowStockLimit)
	if err != nil {
		return nil, nil, err
	}

	var rows []domain.LowStockRow
	key := fmt.Sprintf("report:low_stock:%d", limit)
	err = s.observe(ctx, catalog.OpLowStock, func(ctx context.Context) error {
		return s.loadCached(ctx, key, &rows, func(ctx context.Context) error {
			var err error
			rows, err = s.repo.LowStockProducts(ctx, limit)
			return err
		})
	})
	if err != nil {
		return nil, nil, err
	}

	var warnings []string
	for _, row := range rows {
		if row.CurrentStock < 0 {
			warnings = append(warnings, fmt.Sprintf("data inconsistent: product %d has negative stock %d", row.ProductID, row.CurrentStock))
		}
		if row.StockDeficit != row.ReorderLevel-row.CurrentStock {
			warnings = append(warnings, fmt.Sprintf("data inconsistent: product %d deficit %d does not match reorder level %d minus stock %d",
				row.ProductID, row.StockDeficit, row.ReorderLevel, row.CurrentStock))
		}
	}
	return rows, warnings, nil
}

func (s *Service) SalesSummaryByCategory(ctx context.Context, days int) ([]domain.CategorySalesRow, []string, error) {
	days, err := positive("days", days, defaultSummaryDays)
	if err != nil {
		return nil, nil, err
	}

	var rows []domain.CategorySalesRow
	key := fmt.Sprintf("report:category_summary:%d", days)
	err = s.observe(ctx, catalog.OpSalesSummary, func(ctx context.Context) error {
		return s.loadCached(ctx, key, &rows, func(ctx context.Context) error {
			var err error
			rows, err = s.repo.SalesSummaryByCategory(ctx, days)
			return err
		})
	})
	if err != nil {
		return nil, nil, err
	}

	var warnings []string
	for _, row := range rows {
		if row.TotalRevenue < 0 {
			warnings = append(warnings, fmt.Sprintf("data inconsistent: category %q has negative revenue %.2f", row.Category, row.TotalRevenue))
		}
		if row.AvgUnitValue != nil && row.TotalUnits > 0 {
			expected := row.TotalRevenue / float64(row.TotalUnits)
			if math.Abs(*row.AvgUnitValue-expected) > 0.01 {
				warnings = append(warnings, fmt.Sprintf("data inconsistent: category %q average unit value %.2f drifts from revenue/units %.2f",
					row.Category, *row.AvgUnitValue, expected))
			}
		}
	}
	return rows, warnings, nil
}

func (s *Service) ProductDetails(ctx context.Context, params domain.ProductDetailsParams) (*domain.ProductDetailsRow, []string, error) {
	params.ProductName = strings.TrimSpace(params.ProductName)
	if params.ProductID < 0 {
		return nil, nil, domain.NewValidationError("product_id", "must be positive")
	}
	if params.ProductID == 0 && params.ProductName == "" {
		return nil, nil, domain.NewValidationError("product_id", "either product_id or product_name is required")
	}

	var row *domain.ProductDetailsRow
	key := fmt.Sprintf("report:product:%d:%s", params.ProductID, strings.ToLower(params.ProductName))
	err := s.observe(ctx, catalog.OpProductDetails, func(ctx context.Context) error {
		return s.loadCached(ctx, key, &row, func(ctx context.Context) error {
			var err error
			row, err = s.repo.ProductDetails(ctx, params)
			return err
		})
	})
	if err != nil {
		return nil, nil, err
	}

	var warnings []string
	if row.CurrentStock < 0 {
		warnings = append(warnings, fmt.Sprintf("data inconsistent: product %d has negative stock %d", row.ProductID, row.CurrentStock))
	}
	if row.Revenue30d < 0 {
		warnings = append(warnings, fmt.Sprintf("data inconsistent: product %d has negative 30-day revenue %.2f", row.ProductID, row.Revenue30d))
	}
	return row, warnings, nil
}

func (s *Service) RecentTransactions(ctx context.Context, limit int) ([]domain.RecentTransactionRow, []string, error) {
	limit, err := positive("limit", limit, defaultRecentLimit)
	if err != nil {
		return nil, nil, err
	}

	var rows []domain.RecentTransactionRow
	key := fmt.Sprintf("report:transactions:%d", limit)
	err = s.observe(ctx, catalog.OpRecent, func(ctx context.Context) error {
		return s.loadCached(ctx, key, &rows, func(ctx context.Context) error {
			var err error
			rows, err = s.repo.RecentTransactions(ctx, limit)
			return err
		})
	})
	if err != nil {
		return nil, nil, err
	}

	var warnings []string
	for _, row := range rows {
		if row.TotalAmount < 0 {
			warnings = append(warnings, fmt.Sprintf("data inconsistent: transaction %d has negative total %.2f", row.TransactionID, row.TotalAmount))
		}
	}
	return rows, warnings, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]string, error) {
	return s.repo.ListCategories(ctx)
}

// observe wraps one report execution with metrics.
func (s *Service) observe(ctx context.Context, operation string, run func(context.Context) error) error {
	start := time.Now()
	err := run(ctx)
	outcome := metrics.OutcomeOK
	switch {
	case err == nil:
	case domain.IsValidation(err):
		outcome = metrics.OutcomeInvalid
	case isNotFound(err):
		outcome = metrics.OutcomeNotFound
	case isUnavailable(err):
		outcome = metrics.OutcomeUnavailable
	default:
		outcome = metrics.OutcomeError
	}
	metrics.ObserveReport(operation, outcome, time.Since(start))
	return err
}

// loadCached fills dest from the cache when possible, otherwise runs load
// (which must assign the result that dest points to) and stores the result.
// Cache failures are logged at WARN and never fail the request.
func (s *Service) loadCached(ctx context.Context, key string, dest any, load func(context.Context) error) error {
	if payload, ok, err := s.cache.Get(ctx, key); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("report cache read failed")
	} else if ok {
		if err := json.Unmarshal(payload, dest); err == nil {
			return nil
		}
		s.log.Warn().Str("key", key).Msg("report cache payload corrupt, refetching")
	}

	if err := load(ctx); err != nil {
		return err
	}

	payload, err := json.Marshal(dest)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("report cache encode failed")
		return nil
	}
	if err := s.cache.Set(ctx, key, payload, s.cacheTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("report cache write failed")
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

func isUnavailable(err error) bool {
	return errors.Is(err, domain.ErrUnavailable)
}
