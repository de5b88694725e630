package domain

import "time"

type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Product struct {
	ID          int64     `json:"id"`
	SKU         string    `json:"sku"`
	UPC         string    `json:"upc,omitempty"`
	Name        string    `json:"name"`
	Brand       string    `json:"brand"`
	CategoryID  int64     `json:"category_id"`
	Subcategory string    `json:"subcategory"`
	Size        string    `json:"size"`
	ABV         float64   `json:"abv"`
	Description string    `json:"description"`
	CostPrice   float64   `json:"cost_price"`
	RetailPrice float64   `json:"retail_price"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Inventory struct {
	ID              int64      `json:"id"`
	ProductID       int64      `json:"product_id"`
	QuantityOnHand  int        `json:"quantity_on_hand"`
	ReorderLevel    int        `json:"reorder_level"`
	ReorderQuantity int        `json:"reorder_quantity"`
	LastRestockDate *time.Time `json:"last_restock_date,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type SalesTransaction struct {
	ID              int64     `json:"id"`
	TransactionDate time.Time `json:"transaction_date"`
	TotalAmount     float64   `json:"total_amount"`
	PaymentMethod   string    `json:"payment_method"`
}

type SalesLineItem struct {
	ID             int64   `json:"id"`
	TransactionID  int64   `json:"transaction_id"`
	ProductID      int64   `json:"product_id"`
	Quantity       int     `json:"quantity"`
	UnitPrice      float64 `json:"unit_price"`
	LineTotal      float64 `json:"line_total"`
	DiscountAmount float64 `json:"discount_amount"`
}

const (
	ProductStatusActive       = "active"
	ProductStatusDiscontinued = "discontinued"
)

const (
	PaymentMethodCash          = "cash"
	PaymentMethodCard          = "card"
	PaymentMethodDigitalWallet = "digital_wallet"
)

type TopSellingParams struct {
	Category string `json:"category,omitempty"`
	Limit    int    `json:"limit"`
	Days     int    `json:"days"`
}

type TrendingParams struct {
	Days  int `json:"days"`
	Limit int `json:"limit"`
}

type ProductDetailsParams struct {
	ProductID   int64  `json:"product_id,omitempty"`
	ProductName string `json:"product_name,omitempty"`
}

// TopSellerRow is one row of the top-selling-products report.
// CurrentStock is zero when the product has no inventory record.
type TopSellerRow struct {
	ProductID         int64   `json:"product_id"`
	Name              string  `json:"name"`
	Brand             string  `json:"brand"`
	Category          string  `json:"category"`
	TotalQuantitySold int64   `json:"total_quantity_sold"`
	TotalRevenue      float64 `json:"total_revenue"`
	CurrentStock      int     `json:"current_stock"`
}

// TrendingRow extends the top-seller shape with sales velocity
// (units per day over the window, rounded to 2 decimals).
type TrendingRow struct {
	ProductID         int64   `json:"product_id"`
	Name              string  `json:"name"`
	Brand             string  `json:"brand"`
	Category          string  `json:"category"`
	TotalQuantitySold int64   `json:"total_quantity_sold"`
	TotalRevenue      float64 `json:"total_revenue"`
	CurrentStock      int     `json:"current_stock"`
	SalesVelocity     float64 `json:"sales_velocity"`
}

type SearchResultRow struct {
	ProductID      int64   `json:"product_id"`
	SKU            string  `json:"sku"`
	Name           string  `json:"name"`
	Brand          string  `json:"brand"`
	Category       string  `json:"category"`
	Subcategory    string  `json:"subcategory"`
	Size           string  `json:"size"`
	ABV            float64 `json:"abv"`
	Description    string  `json:"description"`
	RetailPrice    float64 `json:"retail_price"`
	RelevanceScore int     `json:"relevance_score"`
}

type LowStockRow struct {
	ProductID       int64  `json:"product_id"`
	SKU             string `json:"sku"`
	Name            string `json:"name"`
	Brand           string `json:"brand"`
	Category        string `json:"category"`
	CurrentStock    int    `json:"current_stock"`
	ReorderLevel    int    `json:"reorder_level"`
	StockDeficit    int    `json:"stock_deficit"`
	ReorderQuantity int    `json:"reorder_quantity"`
}

// CategorySalesRow summarizes one category over the window.
// AvgUnitValue is nil when no units were sold (never a division by zero).
type CategorySalesRow struct {
	Category         string   `json:"category"`
	TotalUnits       int64    `json:"total_units"`
	TotalRevenue     float64  `json:"total_revenue"`
	AvgUnitValue     *float64 `json:"avg_unit_value"`
	DistinctProducts int64    `json:"distinct_products"`
	TopProduct       string   `json:"top_product"`
}

type ProductDetailsRow struct {
	ProductID    int64      `json:"product_id"`
	SKU          string     `json:"sku"`
	UPC          string     `json:"upc,omitempty"`
	Name         string     `json:"name"`
	Brand        string     `json:"brand"`
	Category     string     `json:"category"`
	Subcategory  string     `json:"subcategory"`
	Size         string     `json:"size"`
	ABV          float64    `json:"abv"`
	Description  string     `json:"description"`
	CostPrice    float64    `json:"cost_price"`
	RetailPrice  float64    `json:"retail_price"`
	Status       string     `json:"status"`
	CurrentStock int        `json:"current_stock"`
	ReorderLevel int        `json:"reorder_level"`
	UnitsSold30d int64      `json:"units_sold_30d"`
	Revenue30d   float64    `json:"revenue_30d"`
	LastSaleAt   *time.Time `json:"last_sale_at,omitempty"`
}

type RecentTransactionRow struct {
	TransactionID   int64     `json:"transaction_id"`
	TransactionDate time.Time `json:"transaction_date"`
	TotalAmount     float64   `json:"total_amount"`
	PaymentMethod   string    `json:"payment_method"`
	ItemCount       int64     `json:"item_count"`
	ProductNames    string    `json:"product_names"`
}

type ChatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

// ChatAnswer carries the structured result of one resolved report
// invocation. Rows holds the typed row slice for the operation;
// Warnings carries data-inconsistency markers for degraded answers.
type ChatAnswer struct {
	Operation string   `json:"operation"`
	Rows      any      `json:"rows"`
	RowCount  int      `json:"row_count"`
	Warnings  []string `json:"warnings,omitempty"`
}

type ChatResponse struct {
	SessionID     string      `json:"session_id"`
	Answer        *ChatAnswer `json:"answer,omitempty"`
	Clarification string      `json:"clarification,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}
