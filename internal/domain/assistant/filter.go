package assistant

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Verdict is the outcome of screening a question
type Verdict string

const (
	VerdictAllowed   Verdict = "ALLOWED"
	VerdictOffTopic  Verdict = "OFF_TOPIC"
	VerdictInjection Verdict = "INJECTION"
	VerdictEmpty     Verdict = "EMPTY"
	VerdictTooLong   Verdict = "TOO_LONG"
)

// MaxQuestionLength is the longest question accepted, in runes
const MaxQuestionLength = 1000

// RefusalMessage is returned for every filtered question
const RefusalMessage = "I can only answer questions about your company's sales, purchases, invoices, orders, products, stock, customers and suppliers."

var (
	domainPattern = regexp.MustCompile(`\b(` + strings.Join([]string{
		`sales?`, `sold`, `sell(ing|s)?`, `revenue`, `income`, `profit`, `margin`, `turnover`,
		`invoices?`, `invoiced`, `billing`, `bills?`, `unpaid`, `paid`, `overdue`, `outstanding`,
		`orders?`, `purchases?`, `purchased`, `bought`, `buy(ing)?`, `spend(ing)?`, `spent`, `costs?`, `expenses?`,
		`products?`, `items?`, `sku`, `inventory`, `stock`, `restock`, `warehouse`, `quantit(y|ies)`,
		`customers?`, `clients?`, `suppliers?`, `vendors?`,
		`tax(es)?`, `vat`, `discounts?`, `prices?`, `pricing`, `totals?`, `average`, `trend`, `forecast`,
		`best[- ]?sell(er|ers|ing)`, `top`, `month(ly)?`, `week(ly)?`, `year(ly)?`, `quarter(ly)?`, `daily`, `today`, `yesterday`,
	}, "|") + `)\b`)

	injectionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`ignore\s+(all\s+|any\s+)?(the\s+)?(previous|prior|above|earlier)\s+(instructions?|prompts?|rules?)`),
		regexp.MustCompile(`disregard\s+(all\s+|the\s+)?(previous|prior|above|system)`),
		regexp.MustCompile(`(reveal|show|print|repeat)\s+(me\s+)?(the\s+|your\s+)?(system\s+prompt|instructions|hidden\s+prompt)`),
		regexp.MustCompile(`\byou\s+are\s+now\b`),
		regexp.MustCompile(`\bact\s+as\b`),
		regexp.MustCompile(`\bpretend\s+(to\s+be|you)\b`),
		regexp.MustCompile(`\bjailbreak\b|\bdan\s+mode\b|\bdeveloper\s+mode\b`),
		regexp.MustCompile(`(other|another|all)\s+(companies|compan(y|ies)'?s?\s+data|tenants?)`),
		regexp.MustCompile(`\b(drop|delete|truncate|update|insert)\s+(table|from|into)\b`),
		regexp.MustCompile(`(api[_\s-]?key|password|secret|credentials?|access\s+token)`),
	}

	whitespace = regexp.MustCompile(`\s+`)
	lower      = cases.Lower(language.Und)
)

// Normalize applies NFKC, lower-casing and whitespace collapsing so that
// look-alike characters cannot slip past the filter.
func Normalize(question string) string {
	s := norm.NFKC.String(question)
	s = lower.String(s)
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Screen decides whether a question may be sent to the model. It returns the
// normalized question along with the verdict.
func Screen(question string) (string, Verdict) {
	q := Normalize(question)
	if q == "" {
		return q, VerdictEmpty
	}
	if len([]rune(q)) > MaxQuestionLength {
		return q, VerdictTooLong
	}
	for _, p := range injectionPatterns {
		if p.MatchString(q) {
			return q, VerdictInjection
		}
	}
	if !domainPattern.MatchString(q) {
		return q, VerdictOffTopic
	}
	return q, VerdictAllowed
}
