package deeplink

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Kind identifies the screen family a route belongs to.
type Kind string

const (
	KindHome     Kind = "home"
	KindCategory Kind = "category"
	KindProduct  Kind = "product"
	KindBrand    Kind = "brand"
)

// IDPlaceholder is replaced with the extracted identifier in a rule template.
const IDPlaceholder = "{id}"

// DefaultHomeRoute is the route returned when no rule matches.
const DefaultHomeRoute = "/home"

// Rule maps a path keyword to a route template.
type Rule struct {
	// Keyword is the path segment that selects this rule (e.g. "products").
	Keyword string

	// Kind is reported in the resolved Intent.
	Kind Kind

	// Template is the in-app route; it must contain IDPlaceholder.
	Template string
}

// Rule validation errors.
var (
	ErrEmptyKeyword       = errors.New("rule keyword is empty")
	ErrKeywordHasSlash    = errors.New("rule keyword contains a slash")
	ErrMissingPlaceholder = errors.New("rule template has no " + IDPlaceholder + " placeholder")
	ErrDuplicateKeyword   = errors.New("duplicate rule keyword")
)

// DefaultRules returns the built-in rule table in priority order.
// A path containing more than one keyword resolves with the earliest rule.
func DefaultRules() []Rule {
	return []Rule{
		{Keyword: "categories", Kind: KindCategory, Template: "/category/" + IDPlaceholder},
		{Keyword: "products", Kind: KindProduct, Template: "/product/" + IDPlaceholder},
		{Keyword: "brands", Kind: KindBrand, Template: "/brand/" + IDPlaceholder},
	}
}

// DefaultLocales are the locale segments stripped from the path root.
func DefaultLocales() []string {
	return []string{"en", "ar"}
}

// ValidateRules reports the first problem in a rule table.
func ValidateRules(rules []Rule) error {
	seen := make(map[string]struct{}, len(rules))
	for i, rule := range rules {
		keyword := strings.TrimSpace(rule.Keyword)
		if keyword == "" {
			return fmt.Errorf("rule %d: %w", i, ErrEmptyKeyword)
		}
		if strings.Contains(keyword, "/") {
			return fmt.Errorf("rule %q: %w", keyword, ErrKeywordHasSlash)
		}
		if !strings.Contains(rule.Template, IDPlaceholder) {
			return fmt.Errorf("rule %q: %w", keyword, ErrMissingPlaceholder)
		}
		if _, ok := seen[keyword]; ok {
			return fmt.Errorf("rule %q: %w", keyword, ErrDuplicateKeyword)
		}
		seen[keyword] = struct{}{}
	}
	return nil
}

// compiledRule is a validated rule with its precomputed path marker.
type compiledRule struct {
	Rule
	marker string
}

func compileRules(rules []Rule) []compiledRule {
	out := make([]compiledRule, 0, len(rules))
	for _, rule := range rules {
		rule.Keyword = strings.TrimSpace(rule.Keyword)
		if rule.Kind == "" {
			rule.Kind = Kind(rule.Keyword)
		}
		out = append(out, compiledRule{
			Rule:   rule,
			marker: "/" + rule.Keyword + "/",
		})
	}
	return out
}

// localePattern builds the regexp matching a leading locale segment.
func localePattern(locales []string) *regexp.Regexp {
	if len(locales) == 0 {
		return nil
	}
	quoted := make([]string, len(locales))
	for i, locale := range locales {
		quoted[i] = regexp.QuoteMeta(locale)
	}
	return regexp.MustCompile(`^/?(` + strings.Join(quoted, "|") + `)(/|$)`)
}
