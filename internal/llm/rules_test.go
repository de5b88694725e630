package llm

import (
	"context"
	"errors"
	"testing"

	"lisearch/backend/internal/catalog"
	"lisearch/backend/internal/domain"
)

func TestRulesResolvesCommonPhrasings(t *testing.T) {
	r := NewRules()
	cases := []struct {
		text string
		op   string
	}{
		{"what's trending right now?", catalog.OpTrending},
		{"show me the top 5 best selling wines", catalog.OpTopSelling},
		{"which products are running low?", catalog.OpLowStock},
		{"give me a sales summary by category", catalog.OpSalesSummary},
		{"show recent transactions", catalog.OpRecent},
		{"tell me about Grey Goose", catalog.OpProductDetails},
		{"search for something smoky", catalog.OpSearch},
	}
	for _, tc := range cases {
		res, err := r.Resolve(context.Background(), tc.text)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tc.text, err)
		}
		if res.Operation != tc.op {
			t.Fatalf("%q: expected %s, got %s", tc.text, tc.op, res.Operation)
		}
	}
}

func TestRulesExtractsArguments(t *testing.T) {
	r := NewRules()

	res, err := r.Resolve(context.Background(), "top 5 selling wine products in the last 14 days")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Operation != catalog.OpTopSelling {
		t.Fatalf("expected top selling, got %s", res.Operation)
	}
	if res.Args["category"] != "Wine" {
		t.Fatalf("expected category Wine, got %v", res.Args["category"])
	}
	if res.Args["limit"] != 5 {
		t.Fatalf("expected limit 5, got %v", res.Args["limit"])
	}
	if res.Args["days"] != 14 {
		t.Fatalf("expected days 14, got %v", res.Args["days"])
	}
}

func TestRulesWeekPhraseBecomesSevenDays(t *testing.T) {
	r := NewRules()
	res, err := r.Resolve(context.Background(), "sales summary by category for this week")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Args["days"] != 7 {
		t.Fatalf("expected days 7, got %v", res.Args["days"])
	}
}

func TestRulesProductByID(t *testing.T) {
	r := NewRules()
	res, err := r.Resolve(context.Background(), "show details for product #12")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Operation != catalog.OpProductDetails {
		t.Fatalf("expected product details, got %s", res.Operation)
	}
	if res.Args["product_id"] != 12 {
		t.Fatalf("expected product_id 12, got %v", res.Args["product_id"])
	}
}

func TestRulesUnrelatedTextIsNoMatch(t *testing.T) {
	r := NewRules()
	for _, text := range []string{
		"what's the weather like today?",
		"",
		"tell me a joke",
	} {
		_, err := r.Resolve(context.Background(), text)
		if !errors.Is(err, domain.ErrNoMatch) {
			t.Fatalf("%q: expected ErrNoMatch, got %v", text, err)
		}
	}
}
