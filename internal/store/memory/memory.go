// Package memory provides an in-memory Repository for development and
// tests. It mirrors the Postgres report semantics, including ordering and
// tie-breaking, so tests written against it hold on the real store.
package memory

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"lisearch/backend/internal/domain"
)

type Store struct {
	mu sync.RWMutex

	categories   map[int64]domain.Category
	products     map[int64]domain.Product
	inventory    map[int64]domain.Inventory // keyed by product id
	transactions map[int64]domain.SalesTransaction
	lineItems    []domain.SalesLineItem

	nextCategoryID    int64
	nextProductID     int64
	nextInventoryID   int64
	nextTransactionID int64
	nextLineItemID    int64
}

// SaleItem is one line of an AddSale call. LineTotal is derived from
// Quantity and UnitPrice; callers never set it.
type SaleItem struct {
	ProductID int64
	Quantity  int
	UnitPrice float64
}

func New() *Store {
	return &Store{
		categories:   make(map[int64]domain.Category),
		products:     make(map[int64]domain.Product),
		inventory:    make(map[int64]domain.Inventory),
		transactions: make(map[int64]domain.SalesTransaction),
	}
}

func (s *Store) AddCategory(name, description string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextCategoryID++
	now := time.Now().UTC()
	s.categories[s.nextCategoryID] = domain.Category{
		ID:          s.nextCategoryID,
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return s.nextCategoryID
}

func (s *Store) AddProduct(p domain.Product) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextProductID++
	p.ID = s.nextProductID
	if p.Status == "" {
		p.Status = domain.ProductStatusActive
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	s.products[p.ID] = p
	return p.ID
}

func (s *Store) SetInventory(productID int64, quantityOnHand, reorderLevel, reorderQuantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.inventory[productID]
	if !ok {
		s.nextInventoryID++
		inv = domain.Inventory{ID: s.nextInventoryID, ProductID: productID}
	}
	inv.QuantityOnHand = quantityOnHand
	inv.ReorderLevel = reorderLevel
	inv.ReorderQuantity = reorderQuantity
	inv.UpdatedAt = time.Now().UTC()
	s.inventory[productID] = inv
}

func (s *Store) AddSale(date time.Time, paymentMethod string, items []SaleItem) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTransactionID++
	txID := s.nextTransactionID

	total := 0.0
	for _, item := range items {
		lineTotal := round2(float64(item.Quantity) * item.UnitPrice)
		total += lineTotal
		s.nextLineItemID++
		s.lineItems = append(s.lineItems, domain.SalesLineItem{
			ID:            s.nextLineItemID,
			TransactionID: txID,
			ProductID:     item.ProductID,
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			LineTotal:     lineTotal,
		})
	}
	s.transactions[txID] = domain.SalesTransaction{
		ID:              txID,
		TransactionDate: date.UTC(),
		TotalAmount:     round2(total),
		PaymentMethod:   paymentMethod,
	}
	return txID
}

// NewSeeded returns a store pre-loaded with a small liquor store dataset:
// five categories, a product per category plus extras, inventory records
// (one product below its reorder level), and sales spread over the last
// month. Dates are relative to now so the day-window reports stay
// meaningful.
func NewSeeded() *Store {
	s := New()
	now := time.Now().UTC()

	wine := s.AddCategory("Wine", "Red, white, rosé, and sparkling wines")
	beer := s.AddCategory("Beer", "Craft beers, lagers, ales, and imports")
	spirits := s.AddCategory("Spirits", "Whiskey, vodka, rum, gin, and tequila")
	liqueurs := s.AddCategory("Liqueurs", "Flavored spirits and cordials")
	rtd := s.AddCategory("Ready-to-Drink", "Pre-mixed cocktails and hard seltzers")

	chard := s.AddProduct(domain.Product{
		SKU: "WIN-CHARD-002", UPC: "012345678902", Name: "Kendall-Jackson Chardonnay", Brand: "Kendall-Jackson",
		CategoryID: wine, Subcategory: "White Wine - Chardonnay", Size: "750ml", ABV: 13.5,
		Description: "Rich and creamy Chardonnay with tropical fruit flavors, vanilla, and butter notes.",
		CostPrice:   12.00, RetailPrice: 24.99,
	})
	pinot := s.AddProduct(domain.Product{
		SKU: "WIN-PINOT-003", UPC: "012345678903", Name: "Meiomi Pinot Noir", Brand: "Meiomi",
		CategoryID: wine, Subcategory: "Red Wine - Pinot Noir", Size: "750ml", ABV: 13.8,
		Description: "Silky Pinot Noir with bright cherry, strawberry, and subtle oak. Elegant and food-friendly.",
		CostPrice:   13.50, RetailPrice: 26.99,
	})
	paleAle := s.AddProduct(domain.Product{
		SKU: "BEER-IPA-101", UPC: "112345678901", Name: "Sierra Nevada Pale Ale", Brand: "Sierra Nevada",
		CategoryID: beer, Subcategory: "IPA", Size: "6-pack 12oz", ABV: 5.6,
		Description: "Classic American pale ale with piney, citrusy hops and balanced malt backbone.",
		CostPrice:   7.50, RetailPrice: 12.99,
	})
	stout := s.AddProduct(domain.Product{
		SKU: "BEER-STOUT-103", UPC: "112345678903", Name: "Guinness Draught", Brand: "Guinness",
		CategoryID: beer, Subcategory: "Stout", Size: "4-pack 14.9oz", ABV: 4.2,
		Description: "Iconic Irish stout with roasted barley, chocolate notes, and creamy texture.",
		CostPrice:   8.00, RetailPrice: 13.99,
	})
	whiskey := s.AddProduct(domain.Product{
		SKU: "SPRT-WHIS-201", UPC: "212345678901", Name: "Jack Daniel's Old No. 7", Brand: "Jack Daniel's",
		CategoryID: spirits, Subcategory: "Tennessee Whiskey", Size: "750ml", ABV: 40.0,
		Description: "Classic Tennessee whiskey with smooth caramel, vanilla, and charcoal mellowing. Woody undertones.",
		CostPrice:   18.00, RetailPrice: 32.99,
	})
	vodka := s.AddProduct(domain.Product{
		SKU: "SPRT-VODK-202", UPC: "212345678902", Name: "Grey Goose Vodka", Brand: "Grey Goose",
		CategoryID: spirits, Subcategory: "Vodka", Size: "750ml", ABV: 40.0,
		Description: "Premium French vodka with silky smooth texture and subtle sweetness. Clean finish.",
		CostPrice:   22.00, RetailPrice: 39.99,
	})
	baileys := s.AddProduct(domain.Product{
		SKU: "LIQ-BAIL-301", UPC: "312345678901", Name: "Baileys Irish Cream", Brand: "Baileys",
		CategoryID: liqueurs, Subcategory: "Cream Liqueur", Size: "750ml", ABV: 17.0,
		Description: "Creamy blend of Irish whiskey and cream with chocolate and vanilla flavors.",
		CostPrice:   16.00, RetailPrice: 27.99,
	})
	seltzer := s.AddProduct(domain.Product{
		SKU: "RTD-CLAW-401", UPC: "412345678901", Name: "White Claw Black Cherry", Brand: "White Claw",
		CategoryID: rtd, Subcategory: "Hard Seltzer", Size: "12-pack 12oz", ABV: 5.0,
		Description: "Light and refreshing hard seltzer with natural black cherry flavor. Low calorie and gluten-free.",
		CostPrice:   13.00, RetailPrice: 19.99,
	})

	s.SetInventory(chard, 48, 15, 24)
	s.SetInventory(pinot, 36, 15, 24)
	s.SetInventory(paleAle, 60, 20, 36)
	s.SetInventory(stout, 8, 20, 24) // below reorder level
	s.SetInventory(whiskey, 25, 10, 12)
	s.SetInventory(vodka, 30, 10, 12)
	s.SetInventory(baileys, 18, 12, 12)
	s.SetInventory(seltzer, 72, 24, 48)

	daysAgo := func(d int) time.Time { return now.AddDate(0, 0, -d) }

	s.AddSale(daysAgo(1), domain.PaymentMethodCard, []SaleItem{
		{ProductID: whiskey, Quantity: 2, UnitPrice: 32.99},
		{ProductID: seltzer, Quantity: 1, UnitPrice: 19.99},
	})
	s.AddSale(daysAgo(2), domain.PaymentMethodCash, []SaleItem{
		{ProductID: paleAle, Quantity: 3, UnitPrice: 12.99},
	})
	s.AddSale(daysAgo(3), domain.PaymentMethodDigitalWallet, []SaleItem{
		{ProductID: chard, Quantity: 2, UnitPrice: 24.99},
		{ProductID: pinot, Quantity: 1, UnitPrice: 26.99},
	})
	s.AddSale(daysAgo(5), domain.PaymentMethodCard, []SaleItem{
		{ProductID: whiskey, Quantity: 1, UnitPrice: 32.99},
		{ProductID: vodka, Quantity: 1, UnitPrice: 39.99},
		{ProductID: baileys, Quantity: 1, UnitPrice: 27.99},
	})
	s.AddSale(daysAgo(8), domain.PaymentMethodCash, []SaleItem{
		{ProductID: stout, Quantity: 2, UnitPrice: 13.99},
		{ProductID: paleAle, Quantity: 1, UnitPrice: 12.99},
	})
	s.AddSale(daysAgo(12), domain.PaymentMethodCard, []SaleItem{
		{ProductID: seltzer, Quantity: 4, UnitPrice: 19.99},
	})
	s.AddSale(daysAgo(18), domain.PaymentMethodCard, []SaleItem{
		{ProductID: whiskey, Quantity: 2, UnitPrice: 32.99},
		{ProductID: chard, Quantity: 1, UnitPrice: 24.99},
	})
	s.AddSale(daysAgo(25), domain.PaymentMethodDigitalWallet, []SaleItem{
		{ProductID: vodka, Quantity: 2, UnitPrice: 39.99},
	})

	return s
}

type productTotals struct {
	quantity int64
	revenue  float64
}

// salesTotals aggregates line items within the trailing window, keyed by
// product id. Only products present in the result had at least one sale.
func (s *Store) salesTotals(days int, activeOnly bool) map[int64]*productTotals {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	totals := make(map[int64]*productTotals)
	for _, li := range s.lineItems {
		tx, ok := s.transactions[li.TransactionID]
		if !ok || tx.TransactionDate.Before(cutoff) {
			continue
		}
		p, ok := s.products[li.ProductID]
		if !ok {
			continue
		}
		if activeOnly && p.Status != domain.ProductStatusActive {
			continue
		}
		t := totals[li.ProductID]
		if t == nil {
			t = &productTotals{}
			totals[li.ProductID] = t
		}
		t.quantity += int64(li.Quantity)
		t.revenue += li.LineTotal
	}
	return totals
}

func (s *Store) categoryName(categoryID int64) string {
	if c, ok := s.categories[categoryID]; ok {
		return c.Name
	}
	return ""
}

func (s *Store) stockOnHand(productID int64) int {
	if inv, ok := s.inventory[productID]; ok {
		return inv.QuantityOnHand
	}
	return 0
}

func (s *Store) TopSellingProducts(_ context.Context, params domain.TopSellingParams) ([]domain.TopSellerRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := s.salesTotals(params.Days, true)
	rows := make([]domain.TopSellerRow, 0, len(totals))
	for productID, t := range totals {
		p := s.products[productID]
		category := s.categoryName(p.CategoryID)
		if params.Category != "" && !strings.Contains(strings.ToLower(category), strings.ToLower(params.Category)) {
			continue
		}
		rows = append(rows, domain.TopSellerRow{
			ProductID:         productID,
			Name:              p.Name,
			Brand:             p.Brand,
			Category:          category,
			TotalQuantitySold: t.quantity,
			TotalRevenue:      round2(t.revenue),
			CurrentStock:      s.stockOnHand(productID),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].TotalQuantitySold > rows[j].TotalQuantitySold
	})
	if len(rows) > params.Limit {
		rows = rows[:params.Limit]
	}
	return rows, nil
}

func (s *Store) TrendingProducts(_ context.Context, params domain.TrendingParams) ([]domain.TrendingRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := s.salesTotals(params.Days, true)
	rows := make([]domain.TrendingRow, 0, len(totals))
	for productID, t := range totals {
		p := s.products[productID]
		rows = append(rows, domain.TrendingRow{
			ProductID:         productID,
			Name:              p.Name,
			Brand:             p.Brand,
			Category:          s.categoryName(p.CategoryID),
			TotalQuantitySold: t.quantity,
			TotalRevenue:      round2(t.revenue),
			CurrentStock:      s.stockOnHand(productID),
			SalesVelocity:     round2(float64(t.quantity) / float64(params.Days)),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].SalesVelocity != rows[j].SalesVelocity {
			return rows[i].SalesVelocity > rows[j].SalesVelocity
		}
		return rows[i].TotalQuantitySold > rows[j].TotalQuantitySold
	})
	if len(rows) > params.Limit {
		rows = rows[:params.Limit]
	}
	return rows, nil
}

func (s *Store) SearchProductsByDescription(_ context.Context, term string) ([]domain.SearchResultRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(term)
	rows := make([]domain.SearchResultRow, 0, 8)
	for _, p := range s.products {
		if p.Status != domain.ProductStatusActive {
			continue
		}
		nameHit := strings.Contains(strings.ToLower(p.Name), needle)
		otherHit := strings.Contains(strings.ToLower(p.Description), needle) ||
			strings.Contains(strings.ToLower(p.Brand), needle)
		if !nameHit && !otherHit {
			continue
		}
		score := 1
		if nameHit {
			score = 3
		}
		rows = append(rows, domain.SearchResultRow{
			ProductID:      p.ID,
			SKU:            p.SKU,
			Name:           p.Name,
			Brand:          p.Brand,
			Category:       s.categoryName(p.CategoryID),
			Subcategory:    p.Subcategory,
			Size:           p.Size,
			ABV:            p.ABV,
			Description:    p.Description,
			RetailPrice:    p.RetailPrice,
			RelevanceScore: score,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].RelevanceScore != rows[j].RelevanceScore {
			return rows[i].RelevanceScore > rows[j].RelevanceScore
		}
		return rows[i].Name < rows[j].Name
	})
	return rows, nil
}

func (s *Store) LowStockProducts(_ context.Context, limit int) ([]domain.LowStockRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]domain.LowStockRow, 0, 8)
	for productID, inv := range s.inventory {
		if inv.QuantityOnHand > inv.ReorderLevel {
			continue
		}
		p, ok := s.products[productID]
		if !ok {
			continue
		}
		rows = append(rows, domain.LowStockRow{
			ProductID:       productID,
			SKU:             p.SKU,
			Name:            p.Name,
			Brand:           p.Brand,
			Category:        s.categoryName(p.CategoryID),
			CurrentStock:    inv.QuantityOnHand,
			ReorderLevel:    inv.ReorderLevel,
			StockDeficit:    inv.ReorderLevel - inv.QuantityOnHand,
			ReorderQuantity: inv.ReorderQuantity,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].StockDeficit != rows[j].StockDeficit {
			return rows[i].StockDeficit > rows[j].StockDeficit
		}
		return rows[i].Name < rows[j].Name
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (s *Store) SalesSummaryByCategory(_ context.Context, days int) ([]domain.CategorySalesRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := s.salesTotals(days, true)

	type categoryAgg struct {
		units    int64
		revenue  float64
		products map[int64]bool
		topID    int64
		topQty   int64
	}
	byCategory := make(map[int64]*categoryAgg)
	for productID, t := range totals {
		p := s.products[productID]
		agg := byCategory[p.CategoryID]
		if agg == nil {
			agg = &categoryAgg{products: make(map[int64]bool)}
			byCategory[p.CategoryID] = agg
		}
		agg.units += t.quantity
		agg.revenue += t.revenue
		agg.products[productID] = true
		if t.quantity > agg.topQty || (t.quantity == agg.topQty && (agg.topID == 0 || productID < agg.topID)) {
			agg.topID = productID
			agg.topQty = t.quantity
		}
	}

	rows := make([]domain.CategorySalesRow, 0, len(byCategory))
	for categoryID, agg := range byCategory {
		row := domain.CategorySalesRow{
			Category:         s.categoryName(categoryID),
			TotalUnits:       agg.units,
			TotalRevenue:     round2(agg.revenue),
			DistinctProducts: int64(len(agg.products)),
			TopProduct:       s.products[agg.topID].Name,
		}
		if agg.units > 0 {
			avg := round2(agg.revenue / float64(agg.units))
			row.AvgUnitValue = &avg
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].TotalRevenue > rows[j].TotalRevenue
	})
	return rows, nil
}

func (s *Store) ProductDetails(_ context.Context, params domain.ProductDetailsParams) (*domain.ProductDetailsRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var match *domain.Product
	for id, p := range s.products {
		if p.Status != domain.ProductStatusActive {
			continue
		}
		if params.ProductID != 0 && id != params.ProductID {
			continue
		}
		if params.ProductName != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(params.ProductName)) {
			continue
		}
		if match == nil || p.ID < match.ID {
			candidate := p
			match = &candidate
		}
	}
	if match == nil {
		return nil, domain.ErrNotFound
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -30)
	var units30d int64
	var revenue30d float64
	var lastSale *time.Time
	for _, li := range s.lineItems {
		if li.ProductID != match.ID {
			continue
		}
		tx, ok := s.transactions[li.TransactionID]
		if !ok {
			continue
		}
		if lastSale == nil || tx.TransactionDate.After(*lastSale) {
			t := tx.TransactionDate
			lastSale = &t
		}
		if !tx.TransactionDate.Before(cutoff) {
			units30d += int64(li.Quantity)
			revenue30d += li.LineTotal
		}
	}

	row := &domain.ProductDetailsRow{
		ProductID:    match.ID,
		SKU:          match.SKU,
		UPC:          match.UPC,
		Name:         match.Name,
		Brand:        match.Brand,
		Category:     s.categoryName(match.CategoryID),
		Subcategory:  match.Subcategory,
		Size:         match.Size,
		ABV:          match.ABV,
		Description:  match.Description,
		CostPrice:    match.CostPrice,
		RetailPrice:  match.RetailPrice,
		Status:       match.Status,
		CurrentStock: s.stockOnHand(match.ID),
		UnitsSold30d: units30d,
		Revenue30d:   round2(revenue30d),
		LastSaleAt:   lastSale,
	}
	if inv, ok := s.inventory[match.ID]; ok {
		row.ReorderLevel = inv.ReorderLevel
	}
	return row, nil
}

func (s *Store) RecentTransactions(_ context.Context, limit int) ([]domain.RecentTransactionRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]domain.RecentTransactionRow, 0, len(s.transactions))
	for txID, tx := range s.transactions {
		var names []string
		var itemCount int64
		for _, li := range s.lineItems {
			if li.TransactionID != txID {
				continue
			}
			itemCount++
			if p, ok := s.products[li.ProductID]; ok {
				names = append(names, p.Name)
			}
		}
		sort.Strings(names)
		rows = append(rows, domain.RecentTransactionRow{
			TransactionID:   txID,
			TransactionDate: tx.TransactionDate,
			TotalAmount:     tx.TotalAmount,
			PaymentMethod:   tx.PaymentMethod,
			ItemCount:       itemCount,
			ProductNames:    strings.Join(names, ", "),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].TransactionDate.After(rows[j].TransactionDate)
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (s *Store) ListCategories(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.categories))
	for _, c := range s.categories {
		names = append(names, c.Name)
	}
	sort.Strings(names)
	return names, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
