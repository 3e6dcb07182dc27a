// Package types holds the data model shared across the sales-agent runtime:
// the extracted Page Context, conversation history, user profile, behavior
// snapshot, intents, action plans, and voice session state. Types here carry
// no behavior beyond small invariant-preserving helpers; the packages that
// produce and consume them (pagemodel, intent, sales, voice, ...) own the
// algorithms.
package types

import "time"

// Heading is one entry in a page's extracted heading structure.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
	ID    string `json:"id,omitempty"`
}

// Section describes one structural region of the page.
type Section struct {
	ID          string `json:"id,omitempty"`
	Tag         string `json:"tag"`
	Heading     string `json:"heading,omitempty"`
	TextPreview string `json:"textPreview"`
}

// ElementRef is a live handle to a DOM element, resolved through the attached
// browser page. It is intentionally opaque outside pagemodel/action/
// elementfinder: those packages know how to turn a Ref back into something a
// browser.Page can act on. A cached PageContext is only valid as long as the
// Ref it carries has not been invalidated by a significant DOM mutation (see
// pagemodel.Cache).
type ElementRef struct {
	// Selector is a stable CSS selector usable to re-resolve the element even
	// after a fresh navigation/extraction pass. Kept instead of a raw DOM
	// handle because handles do not survive page reloads (REDESIGN FLAGS:
	// implementations that cannot guarantee mutation-observer invalidation
	// must cache stable selectors plus per-use resolution).
	Selector string `json:"selector"`
}

// PricingCard describes one extracted pricing-plan card.
type PricingCard struct {
	Plan       string     `json:"plan"`
	Price      string     `json:"price"`
	PriceValue *float64   `json:"priceValue,omitempty"`
	Currency   string     `json:"currency,omitempty"`
	Period     string     `json:"period,omitempty"`
	Features   []string   `json:"features"`
	Popular    bool       `json:"popular"`
	Element    ElementRef `json:"element"`
}

// Feature describes one extracted feature entry.
type Feature struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Element     ElementRef `json:"element"`
}

// FAQ describes one extracted frequently-asked-question entry.
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Product describes one extracted product card.
type Product struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price,omitempty"`
	Image       string `json:"image,omitempty"`
}

// CTA describes one extracted call-to-action element.
type CTA struct {
	Text    string     `json:"text"`
	Href    string     `json:"href,omitempty"`
	Tag     string     `json:"tag"`
	Element ElementRef `json:"element"`
}

// Metadata holds page-level metadata extracted from <meta>/<title>/JSON-LD.
type Metadata struct {
	SiteName    string            `json:"siteName,omitempty"`
	Description string            `json:"description,omitempty"`
	OGTags      map[string]string `json:"ogTags,omitempty"`
	Schema      []map[string]any  `json:"schema,omitempty"`
}

// Content bundles every extracted content category. List sizes are capped
// per the extractor's invariants (pricing unbounded but deduped, features
// deduped by name, faqs ≤20, products ≤20, ctas ≤10).
type Content struct {
	Pricing  []PricingCard `json:"pricing"`
	Features []Feature     `json:"features"`
	FAQs     []FAQ         `json:"faqs"`
	Products []Product     `json:"products"`
	CTAs     []CTA         `json:"ctas"`
	Metadata Metadata      `json:"metadata"`
}

// PageContext is the immutable semantic snapshot of a host page produced by
// the DOM Model Extractor. Once built, a PageContext is never mutated in
// place; a new extraction produces a new value.
type PageContext struct {
	URL            string    `json:"url"`
	Title          string    `json:"title"`
	CurrentSection string    `json:"currentSection"`
	ScrollPosition float64   `json:"scrollPosition"`
	Structure      Structure `json:"structure"`
	Content        Content   `json:"content"`
	Keywords       []string  `json:"keywords"`
	Summary        string    `json:"summary"`
	Links          []string  `json:"links"`
	ExtractedAt    time.Time `json:"extractedAt"`
	ExtractionTime time.Duration `json:"extractionTime"`
}

// Structure holds the ordered heading list and section list for a page.
type Structure struct {
	Headings []Heading `json:"headings"`
	Sections []Section `json:"sections"`
}

// MaxFeatures, MaxFAQs, MaxProducts, MaxCTAs, MaxKeywords, MaxSummaryLen and
// MaxFeatureItems are the hard caps the extractor enforces (§3 of the spec).
const (
	MaxFeaturesPerCard = 15
	MaxFAQs            = 20
	MaxProducts        = 20
	MaxCTAs            = 10
	MaxKeywords        = 15
	MaxSummaryLen      = 200
	MaxFeatureDescLen  = 200
	MaxFeatureNameLen  = 100
	MaxFAQAnswerLen    = 300
)

// CustomPriceSentinel is the literal price value used when a pricing card has
// no numeric price but is clearly marked as custom/contact-us pricing.
const CustomPriceSentinel = "Custom"
