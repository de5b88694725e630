package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"lisearch/backend/internal/cache"
	"lisearch/backend/internal/domain"
	"lisearch/backend/internal/store/memory"
)

func newTestService(repo *memory.Store) *Service {
	return New(repo, cache.NewNoop(), 0, zerolog.Nop())
}

func fixtureStore() (*memory.Store, map[string]int64) {
	s := memory.New()
	wine := s.AddCategory("Wine", "wines")
	beer := s.AddCategory("Beer", "beers")

	ids := make(map[string]int64)
	ids["merlot"] = s.AddProduct(domain.Product{
		SKU: "WIN-001", Name: "Falcon Ridge Merlot", Brand: "Falcon Ridge",
		CategoryID: wine, Description: "Soft red with plum and a smoky oak finish.", RetailPrice: 18.99,
	})
	ids["ipa"] = s.AddProduct(domain.Product{
		SKU: "BEER-001", Name: "Harbor Haze IPA", Brand: "Harbor Brewing",
		CategoryID: beer, Description: "Juicy IPA with citrus and pine.", RetailPrice: 13.99,
	})
	ids["retired"] = s.AddProduct(domain.Product{
		SKU: "BEER-999", Name: "Old Line Lager", Brand: "Harbor Brewing",
		CategoryID: beer, Description: "Retired smoky rauchbier.", RetailPrice: 9.99,
		Status: domain.ProductStatusDiscontinued,
	})

	s.SetInventory(ids["merlot"], 40, 12, 24)
	s.SetInventory(ids["ipa"], 5, 20, 36)

	now := time.Now().UTC()
	s.AddSale(now.AddDate(0, 0, -1), domain.PaymentMethodCard, []memory.SaleItem{
		{ProductID: ids["merlot"], Quantity: 2, UnitPrice: 18.99},
		{ProductID: ids["ipa"], Quantity: 1, UnitPrice: 13.99},
	})
	s.AddSale(now.AddDate(0, 0, -3), domain.PaymentMethodCash, []memory.SaleItem{
		{ProductID: ids["ipa"], Quantity: 4, UnitPrice: 13.99},
	})
	s.AddSale(now.AddDate(0, 0, -2), domain.PaymentMethodCash, []memory.SaleItem{
		{ProductID: ids["retired"], Quantity: 10, UnitPrice: 9.99},
	})
	return s, ids
}

func TestTopSellingAppliesDefaultsAndExcludesDiscontinued(t *testing.T) {
	repo, ids := fixtureStore()
	svc := newTestService(repo)

	rows, warnings, err := svc.TopSellingProducts(context.Background(), domain.TopSellingParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	// IPA sold 5 units, merlot 2; the discontinued lager sold 10 but must
	// not appear.
	if rows[0].ProductID != ids["ipa"] || rows[0].TotalQuantitySold != 5 {
		t.Fatalf("unexpected first row: %+v", rows[0])
	}
	for _, row := range rows {
		if row.ProductID == ids["retired"] {
			t.Fatalf("discontinued product leaked into report: %+v", row)
		}
	}
}

func TestTopSellingCategoryFilter(t *testing.T) {
	repo, ids := fixtureStore()
	svc := newTestService(repo)

	rows, _, err := svc.TopSellingProducts(context.Background(), domain.TopSellingParams{Category: "wine"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].ProductID != ids["merlot"] {
		t.Fatalf("expected only the merlot, got %+v", rows)
	}
}

func TestTopSellingRejectsNegativeParams(t *testing.T) {
	svc := newTestService(memory.New())

	_, _, err := svc.TopSellingProducts(context.Background(), domain.TopSellingParams{Limit: -1})
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, _, err = svc.TopSellingProducts(context.Background(), domain.TopSellingParams{Days: -7})
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestEmptyDataIsEmptyResultNotError(t *testing.T) {
	svc := newTestService(memory.New())

	rows, warnings, err := svc.TopSellingProducts(context.Background(), domain.TopSellingParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 0 || len(warnings) != 0 {
		t.Fatalf("expected empty result, got rows=%v warnings=%v", rows, warnings)
	}

	summary, _, err := svc.SalesSummaryByCategory(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(summary) != 0 {
		t.Fatalf("expected empty summary, got %v", summary)
	}
}

func TestTrendingVelocity(t *testing.T) {
	repo, ids := fixtureStore()
	svc := newTestService(repo)

	rows, _, err := svc.TrendingProducts(context.Background(), domain.TrendingParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	// Default window is 7 days: IPA moved 5 units, velocity 5/7 = 0.71.
	if rows[0].ProductID != ids["ipa"] {
		t.Fatalf("expected the IPA first, got %+v", rows[0])
	}
	if rows[0].SalesVelocity != 0.71 {
		t.Fatalf("expected velocity 0.71, got %v", rows[0].SalesVelocity)
	}
}

func TestSearchScoringAndOrder(t *testing.T) {
	repo, _ := fixtureStore()
	svc := newTestService(repo)

	// "smoky" appears in the merlot's description and in the discontinued
	// lager's. Only the active merlot may return, with score 1.
	rows, _, err := svc.SearchProductsByDescription(context.Background(), "smoky")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].Name != "Falcon Ridge Merlot" || rows[0].RelevanceScore != 1 {
		t.Fatalf("unexpected search result: %+v", rows)
	}

	// A name hit ranks above a description hit.
	rows, _, err = svc.SearchProductsByDescription(context.Background(), "haze")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].RelevanceScore != 3 {
		t.Fatalf("expected name-match score 3, got %+v", rows)
	}
}

func TestSearchOrdersNameMatchesAboveDescriptionMatches(t *testing.T) {
	s := memory.New()
	c := s.AddCategory("Spirits", "")
	s.AddProduct(domain.Product{
		SKU: "S-1", Name: "Citrus Gin", CategoryID: c,
		Description: "Bright juniper-forward gin.",
	})
	s.AddProduct(domain.Product{
		SKU: "S-2", Name: "Valley Vodka", CategoryID: c,
		Description: "Clean vodka with a citrus nose.",
	})
	s.AddProduct(domain.Product{
		SKU: "S-3", Name: "Anchor Rum", CategoryID: c,
		Description: "Molasses and citrus peel.",
	})
	svc := newTestService(s)

	rows, _, err := svc.SearchProductsByDescription(context.Background(), "citrus")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	// The name match leads with score 3; the two description matches follow
	// with score 1, ordered by name.
	if rows[0].Name != "Citrus Gin" || rows[0].RelevanceScore != 3 {
		t.Fatalf("unexpected first row: %+v", rows[0])
	}
	if rows[1].Name != "Anchor Rum" || rows[1].RelevanceScore != 1 {
		t.Fatalf("unexpected second row: %+v", rows[1])
	}
	if rows[2].Name != "Valley Vodka" || rows[2].RelevanceScore != 1 {
		t.Fatalf("unexpected third row: %+v", rows[2])
	}
}

func TestSearchTreatsWildcardCharactersLiterally(t *testing.T) {
	s := memory.New()
	c := s.AddCategory("Beer", "")
	s.AddProduct(domain.Product{
		SKU: "B-1", Name: "Harbor 100% Stout", CategoryID: c,
		Description: "Full-bodied stout.",
	})
	s.AddProduct(domain.Product{
		SKU: "B-2", Name: "Plain Lager", CategoryID: c,
		Description: "Nothing fancy.",
	})
	svc := newTestService(s)

	rows, _, err := svc.SearchProductsByDescription(context.Background(), "100%")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].Name != "Harbor 100% Stout" {
		t.Fatalf("expected only the literal match, got %+v", rows)
	}
}

func TestSearchRejectsEmptyTerm(t *testing.T) {
	svc := newTestService(memory.New())
	_, _, err := svc.SearchProductsByDescription(context.Background(), "   ")
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLowStockDeficit(t *testing.T) {
	repo, ids := fixtureStore()
	svc := newTestService(repo)

	rows, warnings, err := svc.LowStockProducts(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	// Only the IPA (5 on hand vs reorder level 20) qualifies.
	if len(rows) != 1 || rows[0].ProductID != ids["ipa"] {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	if rows[0].StockDeficit != 15 {
		t.Fatalf("expected deficit 15, got %d", rows[0].StockDeficit)
	}
}

func TestLowStockBoundaryIncluded(t *testing.T) {
	s := memory.New()
	c := s.AddCategory("Beer", "")
	id := s.AddProduct(domain.Product{SKU: "B-1", Name: "Edge Case Ale", CategoryID: c})
	s.SetInventory(id, 20, 20, 24) // exactly at the reorder level

	svc := newTestService(s)
	rows, _, err := svc.LowStockProducts(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].StockDeficit != 0 {
		t.Fatalf("expected the at-level product with deficit 0, got %+v", rows)
	}
}

func TestSalesSummaryByCategory(t *testing.T) {
	repo, _ := fixtureStore()
	svc := newTestService(repo)

	rows, warnings, err := svc.SalesSummaryByCategory(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	// Beer revenue (5 * 13.99 = 69.95) beats wine (2 * 18.99 = 37.98); the
	// discontinued lager's sales are excluded from the beer totals.
	if len(rows) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(rows))
	}
	if rows[0].Category != "Beer" || rows[0].TotalUnits != 5 || rows[0].TotalRevenue != 69.95 {
		t.Fatalf("unexpected beer summary: %+v", rows[0])
	}
	if rows[0].TopProduct != "Harbor Haze IPA" {
		t.Fatalf("unexpected top product: %q", rows[0].TopProduct)
	}
	if rows[0].AvgUnitValue == nil || *rows[0].AvgUnitValue != 13.99 {
		t.Fatalf("unexpected average unit value: %v", rows[0].AvgUnitValue)
	}
}

func TestProductDetails(t *testing.T) {
	repo, ids := fixtureStore()
	svc := newTestService(repo)

	row, _, err := svc.ProductDetails(context.Background(), domain.ProductDetailsParams{ProductName: "haze"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row.ProductID != ids["ipa"] {
		t.Fatalf("expected the IPA, got %+v", row)
	}
	if row.UnitsSold30d != 5 {
		t.Fatalf("expected 5 units in 30d, got %d", row.UnitsSold30d)
	}
	if row.LastSaleAt == nil {
		t.Fatal("expected a last sale timestamp")
	}
}

func TestProductDetailsRequiresIdentifier(t *testing.T) {
	svc := newTestService(memory.New())
	_, _, err := svc.ProductDetails(context.Background(), domain.ProductDetailsParams{})
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestProductDetailsNotFound(t *testing.T) {
	repo, _ := fixtureStore()
	svc := newTestService(repo)
	_, _, err := svc.ProductDetails(context.Background(), domain.ProductDetailsParams{ProductID: 9999})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecentTransactionsOrderAndNames(t *testing.T) {
	repo, _ := fixtureStore()
	svc := newTestService(repo)

	rows, _, err := svc.RecentTransactions(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].TransactionDate.After(rows[i-1].TransactionDate) {
			t.Fatalf("transactions out of order: %v then %v", rows[i-1].TransactionDate, rows[i].TransactionDate)
		}
	}
	// Product names concatenate in alphabetical order. The discontinued
	// product still shows up here: transaction history is immutable.
	if rows[0].ProductNames != "Falcon Ridge Merlot, Harbor Haze IPA" {
		t.Fatalf("unexpected product names: %q", rows[0].ProductNames)
	}
}

func TestReportsAreIdempotent(t *testing.T) {
	repo, _ := fixtureStore()
	svc := newTestService(repo)

	first, _, err := svc.TopSellingProducts(context.Background(), domain.TopSellingParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _, err := svc.TopSellingProducts(context.Background(), domain.TopSellingParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("row counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("row %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}
