package knowledge

import "strings"

// Intent labels the department a query should route to when the bot cannot
// answer it. Values match the departments stored on contact requests.
type Intent string

const (
	IntentSales     Intent = "sales_marketing"
	IntentTechnical Intent = "engineers"
	IntentGeneral   Intent = "support"
)

// Ordered rule list; sales wins over technical when both match. This is a
// coarse keyword heuristic, not a trained classifier, and is meant to stay
// auditable and trivially replaceable.
var (
	salesKeywords = []string{
		"pricing", "price", "quote", "cost", "plan", "package",
		"subscription", "buy", "purchase", "billing", "amount",
	}
	technicalKeywords = []string{
		"prompt", "instruction", "model", "llm", "integration", "api",
	}
)

// ClassifyIntent labels a raw query by keyword containment over the
// normalized text. No match yields IntentGeneral.
func ClassifyIntent(raw string) Intent {
	m := Normalize(raw)
	if containsAny(m, salesKeywords) {
		return IntentSales
	}
	if containsAny(m, technicalKeywords) {
		return IntentTechnical
	}
	return IntentGeneral
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
