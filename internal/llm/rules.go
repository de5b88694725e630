package llm

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"lisearch/backend/internal/catalog"
	"lisearch/backend/internal/domain"
)

// RuleResolver maps text to operations with ordered keyword checks. It
// covers the common phrasings well enough for development without an API
// key; anything it does not recognize becomes a clarification.
type RuleResolver struct{}

func NewRules() *RuleResolver { return &RuleResolver{} }

func (*RuleResolver) Name() string { return "rules" }

var knownCategories = []string{"Wine", "Beer", "Spirits", "Liqueurs", "Ready-to-Drink"}

var (
	numberRe     = regexp.MustCompile(`\b(\d+)\b`)
	daysRe       = regexp.MustCompile(`(?i)\b(?:last|past)?\s*(\d+)\s*days?\b`)
	topNRe       = regexp.MustCompile(`(?i)\btop\s+(\d+)\b`)
	aboutRe      = regexp.MustCompile(`(?i)\b(?:about|details?\s+(?:for|on|of)|tell me about)\s+(.+?)[?.!]?$`)
	searchForRe  = regexp.MustCompile(`(?i)\b(?:search for|find|looking for|look for)\s+(.+?)[?.!]?$`)
	productIDRe  = regexp.MustCompile(`(?i)\bproduct\s+(?:id\s+)?#?(\d+)\b`)
	weekWordsRe  = regexp.MustCompile(`(?i)\bthis week|past week|last week\b`)
	monthWordsRe = regexp.MustCompile(`(?i)\bthis month|past month|last month\b`)
)

func (r *RuleResolver) Resolve(_ context.Context, text string) (Resolution, error) {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return Resolution{}, domain.ErrNoMatch
	}

	switch {
	case containsAny(t, "trending", "hot right now", "on the rise", "picking up"):
		args := map[string]any{}
		if d, ok := extractDays(text); ok {
			args["days"] = d
		}
		if n, ok := extractTopN(text); ok {
			args["limit"] = n
		}
		return Resolution{Operation: catalog.OpTrending, Args: args}, nil

	case containsAny(t, "low stock", "low on stock", "restock", "reorder", "running low", "out of stock", "almost out"):
		args := map[string]any{}
		if n, ok := extractNumber(text); ok {
			args["limit"] = n
		}
		return Resolution{Operation: catalog.OpLowStock, Args: args}, nil

	case containsAny(t, "top", "best sell", "best-sell", "most popular", "biggest seller"):
		args := map[string]any{}
		if c, ok := extractCategory(t); ok {
			args["category"] = c
		}
		if n, ok := extractTopN(text); ok {
			args["limit"] = n
		}
		if d, ok := extractDays(text); ok {
			args["days"] = d
		}
		return Resolution{Operation: catalog.OpTopSelling, Args: args}, nil

	case containsAny(t, "summary", "by category", "per category", "category breakdown", "how are categories"):
		args := map[string]any{}
		if d, ok := extractDays(text); ok {
			args["days"] = d
		}
		return Resolution{Operation: catalog.OpSalesSummary, Args: args}, nil

	case containsAny(t, "recent transaction", "latest transaction", "recent sale", "latest sale", "recent order", "latest order", "last transactions"):
		args := map[string]any{}
		if n, ok := extractNumber(text); ok {
			args["limit"] = n
		}
		return Resolution{Operation: catalog.OpRecent, Args: args}, nil
	}

	if m := productIDRe.FindStringSubmatch(text); m != nil {
		id, _ := strconv.Atoi(m[1])
		return Resolution{Operation: catalog.OpProductDetails, Args: map[string]any{"product_id": id}}, nil
	}
	if m := aboutRe.FindStringSubmatch(text); m != nil {
		name := strings.TrimSpace(m[1])
		if name != "" {
			return Resolution{Operation: catalog.OpProductDetails, Args: map[string]any{"product_name": name}}, nil
		}
	}
	if m := searchForRe.FindStringSubmatch(text); m != nil {
		term := strings.TrimSpace(m[1])
		term = strings.TrimPrefix(term, "something ")
		if term != "" {
			return Resolution{Operation: catalog.OpSearch, Args: map[string]any{"search_term": term}}, nil
		}
	}

	return Resolution{}, domain.ErrNoMatch
}

func containsAny(haystack string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func extractCategory(t string) (string, bool) {
	for _, c := range knownCategories {
		if strings.Contains(t, strings.ToLower(c)) {
			return c, true
		}
	}
	return "", false
}

func extractDays(text string) (int, bool) {
	if m := daysRe.FindStringSubmatch(text); m != nil {
		if d, err := strconv.Atoi(m[1]); err == nil && d > 0 {
			return d, true
		}
	}
	if weekWordsRe.MatchString(text) {
		return 7, true
	}
	if monthWordsRe.MatchString(text) {
		return 30, true
	}
	return 0, false
}

func extractTopN(text string) (int, bool) {
	if m := topNRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n, true
		}
	}
	return 0, false
}

// extractNumber pulls the first standalone number that is not part of a
// day-window phrase.
func extractNumber(text string) (int, bool) {
	withoutDays := daysRe.ReplaceAllString(text, "")
	if m := numberRe.FindStringSubmatch(withoutDays); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n, true
		}
	}
	return 0, false
}

var _ Resolver = (*RuleResolver)(nil)
