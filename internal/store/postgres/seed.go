package postgres

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"lisearch/backend/internal/domain"
)

type seedCategory struct {
	name        string
	description string
}

type seedProduct struct {
	sku         string
	upc         string
	name        string
	brand       string
	category    string
	subcategory string
	size        string
	abv         float64
	description string
	costPrice   float64
	retailPrice float64
}

var seedCategories = []seedCategory{
	{"Wine", "Red, white, rosé, and sparkling wines"},
	{"Beer", "Craft beers, lagers, ales, and imports"},
	{"Spirits", "Whiskey, vodka, rum, gin, and tequila"},
	{"Liqueurs", "Flavored spirits and cordials"},
	{"Ready-to-Drink", "Pre-mixed cocktails and hard seltzers"},
}

var seedProducts = []seedProduct{
	{"WIN-CAB-001", "012345678901", "Château Margaux", "Château Margaux", "Wine", "Red Wine - Bordeaux", "750ml", 13.5,
		"Full-bodied Bordeaux with notes of dark cherry, cedar, and tobacco. Smooth tannins with a long finish.", 45.00, 89.99},
	{"WIN-CHARD-002", "012345678902", "Kendall-Jackson Chardonnay", "Kendall-Jackson", "Wine", "White Wine - Chardonnay", "750ml", 13.5,
		"Rich and creamy Chardonnay with tropical fruit flavors, vanilla, and butter notes.", 12.00, 24.99},
	{"WIN-PINOT-003", "012345678903", "Meiomi Pinot Noir", "Meiomi", "Wine", "Red Wine - Pinot Noir", "750ml", 13.8,
		"Silky Pinot Noir with bright cherry, strawberry, and subtle oak. Elegant and food-friendly.", 13.50, 26.99},
	{"WIN-SAUV-004", "012345678904", "Kim Crawford Sauvignon Blanc", "Kim Crawford", "Wine", "White Wine - Sauvignon Blanc", "750ml", 13.0,
		"Crisp and refreshing with zesty citrus, passion fruit, and herbaceous notes.", 10.00, 19.99},
	{"WIN-PROS-005", "012345678905", "La Marca Prosecco", "La Marca", "Wine", "Sparkling Wine", "750ml", 11.0,
		"Light and bubbly Italian Prosecco with notes of green apple, pear, and white peach.", 9.00, 17.99},
	{"BEER-IPA-101", "112345678901", "Sierra Nevada Pale Ale", "Sierra Nevada", "Beer", "IPA", "6-pack 12oz", 5.6,
		"Classic American pale ale with piney, citrusy hops and balanced malt backbone.", 7.50, 12.99},
	{"BEER-LAG-102", "112345678902", "Stella Artois", "Stella Artois", "Beer", "Lager", "6-pack 11.2oz", 5.0,
		"Crisp Belgian lager with subtle malt sweetness and clean finish.", 6.50, 11.99},
	{"BEER-STOUT-103", "112345678903", "Guinness Draught", "Guinness", "Beer", "Stout", "4-pack 14.9oz", 4.2,
		"Iconic Irish stout with roasted barley, chocolate notes, and creamy texture.", 8.00, 13.99},
	{"BEER-WHEAT-104", "112345678904", "Blue Moon Belgian White", "Blue Moon", "Beer", "Wheat Beer", "6-pack 12oz", 5.4,
		"Smooth wheat beer with orange peel and coriander. Light and refreshing citrus notes.", 6.00, 10.99},
	{"BEER-CRAFT-105", "112345678905", "Dogfish Head 60 Minute IPA", "Dogfish Head", "Beer", "IPA", "6-pack 12oz", 6.0,
		"Continuously hopped IPA with complex citrus, pine, and caramel flavors.", 8.50, 14.99},
	{"SPRT-WHIS-201", "212345678901", "Jack Daniel's Old No. 7", "Jack Daniel's", "Spirits", "Tennessee Whiskey", "750ml", 40.0,
		"Classic Tennessee whiskey with smooth caramel, vanilla, and charcoal mellowing. Woody undertones.", 18.00, 32.99},
	{"SPRT-VODK-202", "212345678902", "Grey Goose Vodka", "Grey Goose", "Spirits", "Vodka", "750ml", 40.0,
		"Premium French vodka with silky smooth texture and subtle sweetness. Clean finish.", 22.00, 39.99},
	{"SPRT-GIN-203", "212345678903", "Tanqueray London Dry Gin", "Tanqueray", "Spirits", "Gin", "750ml", 47.3,
		"Juniper-forward London dry gin with citrus, angelica, and licorice notes. Perfect for martinis.", 16.00, 28.99},
	{"SPRT-RUM-204", "212345678904", "Bacardi Superior", "Bacardi", "Spirits", "White Rum", "750ml", 40.0,
		"Light and crisp white rum with subtle vanilla and almond. Ideal for mojitos and daiquiris.", 12.00, 21.99},
	{"SPRT-TEQ-205", "212345678905", "Patrón Silver", "Patrón", "Spirits", "Tequila", "750ml", 40.0,
		"Premium silver tequila with citrus, pepper, and agave flavors. Smooth and clean.", 32.00, 54.99},
	{"SPRT-SCOT-206", "212345678906", "Johnnie Walker Black Label", "Johnnie Walker", "Spirits", "Scotch Whisky", "750ml", 40.0,
		"Blended Scotch with smoky peat, dried fruit, and vanilla. Rich and complex with woody notes.", 24.00, 42.99},
	{"LIQ-BAIL-301", "312345678901", "Baileys Irish Cream", "Baileys", "Liqueurs", "Cream Liqueur", "750ml", 17.0,
		"Creamy blend of Irish whiskey and cream with chocolate and vanilla flavors.", 16.00, 27.99},
	{"LIQ-COIN-302", "312345678902", "Cointreau", "Cointreau", "Liqueurs", "Orange Liqueur", "750ml", 40.0,
		"Premium triple sec with intense orange peel flavor. Essential for margaritas and cosmopolitans.", 20.00, 36.99},
	{"RTD-CLAW-401", "412345678901", "White Claw Black Cherry", "White Claw", "Ready-to-Drink", "Hard Seltzer", "12-pack 12oz", 5.0,
		"Light and refreshing hard seltzer with natural black cherry flavor. Low calorie and gluten-free.", 13.00, 19.99},
	{"RTD-MARG-402", "412345678902", "Cutwater Lime Margarita", "Cutwater", "Ready-to-Drink", "Canned Cocktail", "4-pack 12oz", 12.5,
		"Premium ready-to-drink margarita with real tequila, lime juice, and agave. Tangy and refreshing citrus profile.", 11.00, 17.99},
}

// Seed wipes all five tables and loads the demo liquor store dataset: 5
// categories, 20 products with inventory, and 200 randomized transactions
// spread over the trailing 30 days. Running it twice yields a fresh dataset
// each time. Everything runs in one transaction.
func (s *Store) Seed(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`TRUNCATE sales_line_items, sales_transactions, inventory, products, categories RESTART IDENTITY CASCADE`,
	); err != nil {
		return classify(fmt.Errorf("truncating tables: %w", err))
	}

	categoryIDs := make(map[string]int64, len(seedCategories))
	for _, c := range seedCategories {
		var id int64
		err := tx.QueryRowContext(ctx,
			`INSERT INTO categories (name, description) VALUES ($1, $2) RETURNING id`,
			c.name, c.description,
		).Scan(&id)
		if err != nil {
			return classify(fmt.Errorf("seeding category %q: %w", c.name, err))
		}
		categoryIDs[c.name] = id
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	now := time.Now().UTC()

	productIDs := make([]int64, 0, len(seedProducts))
	prices := make(map[int64]float64, len(seedProducts))
	for _, p := range seedProducts {
		var id int64
		err := tx.QueryRowContext(ctx, `
			INSERT INTO products (sku, upc, name, brand, category_id, subcategory, size, abv, description, cost_price, retail_price, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING id
		`, p.sku, p.upc, p.name, p.brand, categoryIDs[p.category], p.subcategory, p.size, p.abv, p.description, p.costPrice, p.retailPrice, domain.ProductStatusActive).Scan(&id)
		if err != nil {
			return classify(fmt.Errorf("seeding product %q: %w", p.sku, err))
		}
		productIDs = append(productIDs, id)
		prices[id] = p.retailPrice
	}

	reorderQuantities := []int{12, 24, 36, 48}
	for _, id := range productIDs {
		restock := now.AddDate(0, 0, -(1 + rng.Intn(30)))
		_, err := tx.ExecContext(ctx, `
			INSERT INTO inventory (product_id, quantity_on_hand, reorder_level, reorder_quantity, last_restock_date)
			VALUES ($1, $2, $3, $4, $5)
		`, id, 10+rng.Intn(141), 10+rng.Intn(21), reorderQuantities[rng.Intn(len(reorderQuantities))], restock)
		if err != nil {
			return classify(fmt.Errorf("seeding inventory for product %d: %w", id, err))
		}
	}

	for i := 0; i < 200; i++ {
		txDate := now.
			AddDate(0, 0, -rng.Intn(31)).
			Add(-time.Duration(rng.Intn(24)) * time.Hour).
			Add(-time.Duration(rng.Intn(60)) * time.Minute)
		payment := []string{domain.PaymentMethodCash, domain.PaymentMethodCard, domain.PaymentMethodDigitalWallet}[rng.Intn(3)]

		numItems := 1 + rng.Intn(5)
		selected := rng.Perm(len(productIDs))[:numItems]

		type pendingItem struct {
			productID int64
			quantity  int
			unitPrice float64
			lineTotal float64
		}
		items := make([]pendingItem, 0, numItems)
		total := 0.0
		for _, idx := range selected {
			productID := productIDs[idx]
			quantity := 1 + rng.Intn(3)
			unitPrice := prices[productID]
			lineTotal := round2(float64(quantity) * unitPrice)
			total += lineTotal
			items = append(items, pendingItem{productID, quantity, unitPrice, lineTotal})
		}

		var transactionID int64
		err := tx.QueryRowContext(ctx, `
			INSERT INTO sales_transactions (transaction_date, total_amount, payment_method)
			VALUES ($1, $2, $3)
			RETURNING id
		`, txDate, round2(total), payment).Scan(&transactionID)
		if err != nil {
			return classify(fmt.Errorf("seeding transaction %d: %w", i, err))
		}

		for _, item := range items {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO sales_line_items (transaction_id, product_id, quantity, unit_price, line_total, discount_amount)
				VALUES ($1, $2, $3, $4, $5, 0)
			`, transactionID, item.productID, item.quantity, item.unitPrice, item.lineTotal)
			if err != nil {
				return classify(fmt.Errorf("seeding line item for transaction %d: %w", transactionID, err))
			}
		}
	}

	return tx.Commit()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
