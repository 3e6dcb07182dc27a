package pagemodel

import (
	"fmt"
	"io"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// ClassifierTables holds every keyword/regex table the extraction classifiers
// consult. Kept as data rather than code per the centralization guidance for
// keyword-driven classification: one YAML file a deployment can tune without
// a rebuild, instead of scattered string literals.
type ClassifierTables struct {
	PriceKeywords   []string `yaml:"price_keywords"`
	FeatureKeywords []string `yaml:"feature_keywords"`
	FAQKeywords     []string `yaml:"faq_keywords"`
	AccordionHints  []string `yaml:"accordion_hints"`
	ProductKeywords []string `yaml:"product_keywords"`
	CTAVerbs        []string `yaml:"cta_verbs"`
	CTAClasses      []string `yaml:"cta_classes"`
	PopularMarkers  []string `yaml:"popular_markers"`
	BadgeTokens     []string `yaml:"badge_tokens"`
	PricePeriods    []string `yaml:"price_periods"`
	CustomSentinels []string `yaml:"custom_sentinels"`

	// SectionKeywords maps a coarse section kind ("pricing", "faq", ...) to
	// a small list of id/class/heading keywords used by findSectionByType
	// (Element Finder, C4).
	SectionKeywords map[string][]string `yaml:"section_keywords"`

	priceRe *regexp.Regexp
}

// currencyPattern matches a leading currency symbol/code followed by a
// numeric amount, e.g. "$49", "49 USD", "€19.99".
const currencyPattern = `(?i)([$€£¥]|usd|eur|gbp)\s?\d[\d,]*(\.\d+)?|\d[\d,]*(\.\d+)?\s?(usd|eur|gbp|[$€£¥])`

// DefaultClassifierTables returns the built-in keyword tables, used when no
// rule file is configured. Mirrors the vocabulary spec.md §4.1 describes.
func DefaultClassifierTables() *ClassifierTables {
	t := &ClassifierTables{
		PriceKeywords:   []string{"price", "pricing", "plan", "tier", "subscription", "cost"},
		FeatureKeywords: []string{"feature", "features", "capabilities", "what you get", "included"},
		FAQKeywords:     []string{"faq", "frequently asked", "questions", "q&a"},
		AccordionHints:  []string{"accordion", "collapse", "expand", "toggle"},
		ProductKeywords: []string{"product", "item", "card", "catalog"},
		CTAVerbs:        []string{"get started", "sign up", "start free", "try", "buy", "subscribe", "book", "demo", "contact sales", "learn more"},
		CTAClasses:      []string{"cta", "btn-primary", "button-primary", "signup-button"},
		PopularMarkers:  []string{"popular", "recommended", "best value", "most popular"},
		BadgeTokens:     []string{"popular", "most advanced", "new", "beta"},
		PricePeriods:    []string{"/mo", "/month", "per month", "/yr", "/year", "per year"},
		CustomSentinels: []string{"custom", "contact us", "talk to sales"},
		SectionKeywords: map[string][]string{
			"pricing":  {"pricing", "plans", "price"},
			"features": {"features", "capabilities"},
			"faq":      {"faq", "questions"},
			"signup":   {"signup", "sign-up", "get-started", "register"},
			"contact":  {"contact", "reach-us", "sales"},
			"about":    {"about", "company", "who-we-are"},
		},
	}
	t.priceRe = regexp.MustCompile(currencyPattern)
	return t
}

// LoadClassifierTables reads a YAML file into [ClassifierTables] via
// [DecodeClassifierTables], so fields the file leaves unset keep their
// [DefaultClassifierTables] values.
func LoadClassifierTables(path string) (*ClassifierTables, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pagemodel: open classifier tables %q: %w", path, err)
	}
	defer f.Close()
	return DecodeClassifierTables(f)
}

// DecodeClassifierTables decodes YAML classifier tables from r, starting
// from [DefaultClassifierTables] so a partial file only overrides the
// sections it specifies.
func DecodeClassifierTables(r io.Reader) (*ClassifierTables, error) {
	t := DefaultClassifierTables()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(t); err != nil && err != io.EOF {
		return nil, fmt.Errorf("pagemodel: decode classifier tables: %w", err)
	}
	t.priceRe = regexp.MustCompile(currencyPattern)
	return t, nil
}

// PriceRegexp returns the compiled currency/price pattern.
func (t *ClassifierTables) PriceRegexp() *regexp.Regexp {
	if t.priceRe == nil {
		t.priceRe = regexp.MustCompile(currencyPattern)
	}
	return t.priceRe
}
