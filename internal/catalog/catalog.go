// Package catalog declares the report operations the assistant can invoke:
// their names, parameters, and defaults. The language resolver advertises
// this catalog as callable functions, and Bind turns a resolved call's raw
// arguments into typed parameters, rejecting anything outside the declared
// contract before it reaches the service layer.
package catalog

import (
	"errors"
	"fmt"
	"math"

	"lisearch/backend/internal/domain"
)

const (
	OpTopSelling     = "get_top_selling_products"
	OpTrending       = "get_trending_products"
	OpSearch         = "search_products_by_description"
	OpLowStock       = "get_low_stock_products"
	OpSalesSummary   = "get_sales_summary_by_category"
	OpProductDetails = "get_product_details"
	OpRecent         = "get_recent_transactions"
)

var ErrUnknownOperation = errors.New("unknown operation")

type Param struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Default     any    `json:"default,omitempty"`
}

type Operation struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Params      []Param `json:"params"`
}

// BoundCall is a validated invocation. Args holds the typed parameter value
// for the operation; callers switch on Operation to recover it.
type BoundCall struct {
	Operation string
	Args      any
}

var operations = []Operation{
	{
		Name:        OpTopSelling,
		Description: "Get the best-selling products ranked by units sold over a trailing day window, optionally restricted to one product category.",
		Params: []Param{
			{Name: "category", Type: "string", Description: "Category name filter, e.g. 'Wine' or 'Beer'. Matches partially and case-insensitively. Omit for all categories."},
			{Name: "limit", Type: "integer", Description: "Maximum number of products to return.", Default: 10},
			{Name: "days", Type: "integer", Description: "Size of the trailing window in days.", Default: 30},
		},
	},
	{
		Name:        OpTrending,
		Description: "Get products trending right now, ranked by sales velocity (units per day) over a short trailing window.",
		Params: []Param{
			{Name: "days", Type: "integer", Description: "Size of the trailing window in days.", Default: 7},
			{Name: "limit", Type: "integer", Description: "Maximum number of products to return.", Default: 10},
		},
	},
	{
		Name:        OpSearch,
		Description: "Search the product catalog by free text. Matches product name, description, and brand case-insensitively; name matches rank first.",
		Params: []Param{
			{Name: "search_term", Type: "string", Description: "Text to search for, e.g. 'smoky', 'citrus', or a brand name.", Required: true},
		},
	},
	{
		Name:        OpLowStock,
		Description: "List products whose stock on hand is at or below their reorder level, worst deficit first.",
		Params: []Param{
			{Name: "limit", Type: "integer", Description: "Maximum number of products to return.", Default: 20},
		},
	},
	{
		Name:        OpSalesSummary,
		Description: "Summarize sales per category over a trailing day window: units, revenue, average unit value, and each category's top product.",
		Params: []Param{
			{Name: "days", Type: "integer", Description: "Size of the trailing window in days.", Default: 30},
		},
	},
	{
		Name:        OpProductDetails,
		Description: "Get full details for a single product, including stock position and its last 30 days of sales. Identify the product by id or by (partial) name; at least one is required.",
		Params: []Param{
			{Name: "product_id", Type: "integer", Description: "Exact product id."},
			{Name: "product_name", Type: "string", Description: "Product name or a fragment of it, matched case-insensitively."},
		},
	},
	{
		Name:        OpRecent,
		Description: "List the most recent sales transactions with their totals, payment methods, and purchased product names.",
		Params: []Param{
			{Name: "limit", Type: "integer", Description: "Maximum number of transactions to return.", Default: 10},
		},
	},
}

// Operations returns the full catalog. The slice is shared; callers must
// not mutate it.
func Operations() []Operation {
	return operations
}

// Bind validates raw resolver arguments against the operation's declared
// parameters and returns the typed call. Unknown operations, unknown
// argument names, wrong types, and explicit non-positive limits or windows
// are all rejected; absent optional integers stay zero so the service can
// apply defaults.
func Bind(operation string, args map[string]any) (BoundCall, error) {
	switch operation {
	case OpTopSelling:
		if err := allowKeys(args, "category", "limit", "days"); err != nil {
			return BoundCall{}, err
		}
		category, err := stringArg(args, "category")
		if err != nil {
			return BoundCall{}, err
		}
		limit, err := positiveIntArg(args, "limit")
		if err != nil {
			return BoundCall{}, err
		}
		days, err := positiveIntArg(args, "days")
		if err != nil {
			return BoundCall{}, err
		}
		return BoundCall{Operation: operation, Args: domain.TopSellingParams{Category: category, Limit: limit, Days: days}}, nil

	case OpTrending:
		if err := allowKeys(args, "days", "limit"); err != nil {
			return BoundCall{}, err
		}
		days, err := positiveIntArg(args, "days")
		if err != nil {
			return BoundCall{}, err
		}
		limit, err := positiveIntArg(args, "limit")
		if err != nil {
			return BoundCall{}, err
		}
		return BoundCall{Operation: operation, Args: domain.TrendingParams{Days: days, Limit: limit}}, nil

	case OpSearch:
		if err := allowKeys(args, "search_term"); err != nil {
			return BoundCall{}, err
		}
		term, err := stringArg(args, "search_term")
		if err != nil {
			return BoundCall{}, err
		}
		if term == "" {
			return BoundCall{}, domain.NewValidationError("search_term", "must not be empty")
		}
		return BoundCall{Operation: operation, Args: term}, nil

	case OpLowStock:
		if err := allowKeys(args, "limit"); err != nil {
			return BoundCall{}, err
		}
		limit, err := positiveIntArg(args, "limit")
		if err != nil {
			return BoundCall{}, err
		}
		return BoundCall{Operation: operation, Args: limit}, nil

	case OpSalesSummary:
		if err := allowKeys(args, "days"); err != nil {
			return BoundCall{}, err
		}
		days, err := positiveIntArg(args, "days")
		if err != nil {
			return BoundCall{}, err
		}
		return BoundCall{Operation: operation, Args: days}, nil

	case OpProductDetails:
		if err := allowKeys(args, "product_id", "product_name"); err != nil {
			return BoundCall{}, err
		}
		id, err := positiveIntArg(args, "product_id")
		if err != nil {
			return BoundCall{}, err
		}
		name, err := stringArg(args, "product_name")
		if err != nil {
			return BoundCall{}, err
		}
		return BoundCall{Operation: operation, Args: domain.ProductDetailsParams{ProductID: int64(id), ProductName: name}}, nil

	case OpRecent:
		if err := allowKeys(args, "limit"); err != nil {
			return BoundCall{}, err
		}
		limit, err := positiveIntArg(args, "limit")
		if err != nil {
			return BoundCall{}, err
		}
		return BoundCall{Operation: operation, Args: limit}, nil
	}

	return BoundCall{}, fmt.Errorf("%w: %q", ErrUnknownOperation, operation)
}

func allowKeys(args map[string]any, allowed ...string) error {
	for key := range args {
		found := false
		for _, a := range allowed {
			if key == a {
				found = true
				break
			}
		}
		if !found {
			return domain.NewValidationError(key, "not a parameter of this operation")
		}
	}
	return nil
}

func stringArg(args map[string]any, name string) (string, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", domain.NewValidationError(name, "must be a string")
	}
	return s, nil
}

// positiveIntArg returns 0 when the argument is absent. JSON numbers arrive
// as float64; integral values are accepted, fractional ones are not.
func positiveIntArg(args map[string]any, name string) (int, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return 0, nil
	}
	var v int
	switch n := raw.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, domain.NewValidationError(name, "must be an integer")
		}
		v = int(n)
	case int:
		v = n
	case int64:
		v = int(n)
	default:
		return 0, domain.NewValidationError(name, "must be an integer")
	}
	if v <= 0 {
		return 0, domain.NewValidationError(name, "must be positive")
	}
	return v, nil
}
