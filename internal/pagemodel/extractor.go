// Package pagemodel implements the DOM Model Extractor (C1) and Content
// Cache (C2): building a typed, capped [types.PageContext] snapshot of the
// host page and serving it back out of a TTL cache until the page mutates
// significantly.
package pagemodel

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/salesagent/runtime/internal/browserpage"
	"github.com/salesagent/runtime/internal/observe"
	"github.com/salesagent/runtime/pkg/types"
)

// Extractor walks the attached page and builds a [types.PageContext]. It is
// stateless aside from its classifier tables and budget, so a single
// Extractor can serve every session.
type Extractor struct {
	tables *ClassifierTables
	budget time.Duration
}

// Option configures an [Extractor].
type Option func(*Extractor)

// WithBudget overrides the soft extraction time budget (default 200ms, spec §4.1).
func WithBudget(d time.Duration) Option {
	return func(e *Extractor) { e.budget = d }
}

// WithClassifierTables overrides the default keyword tables.
func WithClassifierTables(t *ClassifierTables) Option {
	return func(e *Extractor) { e.tables = t }
}

// NewExtractor creates an Extractor with the spec-mandated 200ms default budget.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{tables: DefaultClassifierTables(), budget: 200 * time.Millisecond}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract walks page and returns a fully populated, capped PageContext.
// Never returns an error for malformed markup: the classifiers only read the
// decoded snapshot, and an element no classifier accepts is skipped (panics
// are not recovered); a budget timeout returns whatever sections finished in
// time (spec §4.1 failure semantics).
func (e *Extractor) Extract(ctx context.Context, page *browserpage.Page) (*types.PageContext, error) {
	start := time.Now()
	bctx, cancel := context.WithTimeout(ctx, e.budget)
	defer cancel()

	raw, err := e.snapshot(page)
	if err != nil {
		return nil, fmt.Errorf("pagemodel: raw DOM snapshot: %w", err)
	}

	content := types.Content{Metadata: e.extractMetadata(raw)}

	eg, _ := errgroup.WithContext(bctx)
	eg.Go(func() error { content.Pricing = e.classifyPricing(raw); return nil })
	eg.Go(func() error { content.Features = e.classifyFeatures(raw); return nil })
	eg.Go(func() error { content.FAQs = e.classifyFAQs(raw); return nil })
	eg.Go(func() error { content.Products = e.classifyProducts(raw); return nil })
	eg.Go(func() error { content.CTAs = e.classifyCTAs(raw); return nil })

	done := make(chan struct{})
	go func() { _ = eg.Wait(); close(done) }()
	budgetExceeded := false
	select {
	case <-done:
	case <-bctx.Done():
		// Soft budget exceeded: return whatever classifiers have already
		// written into content so far, per spec.md §4.1 failure semantics.
		budgetExceeded = true
	}
	observe.DefaultMetrics().RecordExtraction(ctx, time.Since(start), budgetExceeded)

	structure := types.Structure{
		Headings: toHeadings(raw.Headings),
		Sections: toSections(raw.Sections),
	}

	pc := &types.PageContext{
		URL:            raw.URL,
		Title:          raw.Title,
		CurrentSection: computeCurrentSection(raw),
		ScrollPosition: raw.ScrollY,
		Structure:      structure,
		Content:        content,
		Keywords:       extractKeywords(raw, e.tables, types.MaxKeywords),
		Summary:        truncate(raw.Description, types.MaxSummaryLen),
		Links:          dedupeStrings(raw.Links),
		ExtractedAt:    time.Now(),
		ExtractionTime: time.Since(start),
	}
	return pc, nil
}

// snapshot runs [walkScript] in the page and decodes the result.
func (e *Extractor) snapshot(page *browserpage.Page) (*rawSnapshot, error) {
	result, err := page.Evaluate(walkScript, nil)
	if err != nil {
		return nil, err
	}
	return decodeRawSnapshot(result)
}

// ── metadata ─────────────────────────────────────────────────────────────

func (e *Extractor) extractMetadata(raw *rawSnapshot) types.Metadata {
	m := types.Metadata{
		SiteName:    raw.SiteName,
		Description: raw.Description,
		OGTags:      raw.OGTags,
	}
	for _, block := range raw.JSONLDBlocks {
		parsed, ok := parseJSONLD(block)
		if !ok {
			continue // silently skip invalid JSON-LD, per spec.md §4.1 step 3
		}
		m.Schema = append(m.Schema, parsed)
	}
	return m
}

// ── pricing ──────────────────────────────────────────────────────────────

func (e *Extractor) classifyPricing(raw *rawSnapshot) []types.PricingCard {
	var cards []types.PricingCard
	for _, n := range raw.Candidates {
		if !e.looksLikePricingContainer(n) {
			continue
		}
		card := e.extractPricingCard(n)
		if card.Plan == "" && card.Price == "" {
			continue
		}
		cards = append(cards, card)
	}
	return cards
}

func (e *Extractor) looksLikePricingContainer(n rawNode) bool {
	hay := strings.ToLower(n.Text + " " + strings.Join(n.Classes, " "))
	hasKeyword := containsAnyWord(hay, e.tables.PriceKeywords)
	hasPricePattern := e.tables.PriceRegexp().MatchString(n.Text)
	if hasKeyword && hasPricePattern {
		return true
	}
	if (n.Tag == "table" || n.Tag == "section" || n.Tag == "div") && countPriceMatches(e.tables.PriceRegexp(), n.Text) >= 2 {
		return true
	}
	return false
}

func (e *Extractor) extractPricingCard(n rawNode) types.PricingCard {
	card := types.PricingCard{Element: types.ElementRef{Selector: n.Selector}}

	for _, c := range n.Children {
		if card.Plan == "" && isHeadingTag(c.Tag) {
			card.Plan = c.Text
		}
	}
	if card.Plan == "" {
		for _, lvl := range []string{"h4", "h3", "h2", "h1", "h5", "h6"} {
			for _, c := range n.Children {
				if c.Tag == lvl {
					card.Plan = c.Text
					break
				}
			}
			if card.Plan != "" {
				break
			}
		}
	}

	card.Price, card.PriceValue, card.Currency, card.Period = parsePrice(n.Text, e.tables)

	for _, c := range n.Children {
		if c.Tag != "li" {
			continue
		}
		text := strings.TrimSpace(c.Text)
		if len(text) < 3 || len(text) > 200 {
			continue
		}
		if containsAnyWord(strings.ToLower(text), e.tables.BadgeTokens) {
			continue
		}
		card.Features = append(card.Features, text)
		if len(card.Features) >= types.MaxFeaturesPerCard {
			break
		}
	}

	hay := strings.ToLower(n.Text + " " + strings.Join(n.Classes, " "))
	card.Popular = containsAnyWord(hay, e.tables.PopularMarkers)

	return card
}

// parsePrice extracts a raw price string, optional numeric value, currency,
// and billing period, falling back to the "Custom" sentinel per spec.md §3.
func parsePrice(text string, t *ClassifierTables) (raw string, value *float64, currency, period string) {
	loc := t.PriceRegexp().FindStringIndex(text)
	if loc == nil {
		for _, s := range t.CustomSentinels {
			if strings.Contains(strings.ToLower(text), s) {
				return types.CustomPriceSentinel, nil, "", ""
			}
		}
		return "", nil, "", ""
	}
	raw = strings.TrimSpace(text[loc[0]:loc[1]])

	digits := regexp.MustCompile(`[\d,]+(\.\d+)?`).FindString(raw)
	if digits != "" {
		if f, err := strconv.ParseFloat(strings.ReplaceAll(digits, ",", ""), 64); err == nil {
			value = &f
		}
	}
	switch {
	case strings.ContainsAny(raw, "$"):
		currency = "USD"
	case strings.Contains(raw, "€"):
		currency = "EUR"
	case strings.Contains(raw, "£"):
		currency = "GBP"
	}
	for _, p := range t.PricePeriods {
		if strings.Contains(strings.ToLower(text), p) {
			period = strings.TrimPrefix(p, "/")
			period = strings.TrimPrefix(period, "per ")
			break
		}
	}
	return raw, value, currency, period
}

// ── features ─────────────────────────────────────────────────────────────

func (e *Extractor) classifyFeatures(raw *rawSnapshot) []types.Feature {
	seen := map[string]bool{}
	var out []types.Feature
	for _, n := range raw.Candidates {
		if !e.looksLikeFeatureList(n) {
			continue
		}
		for _, c := range n.Children {
			f := extractFeature(c)
			if f.Name == "" || seen[strings.ToLower(f.Name)] {
				continue
			}
			seen[strings.ToLower(f.Name)] = true
			out = append(out, f)
		}
	}
	return out
}

func (e *Extractor) looksLikeFeatureList(n rawNode) bool {
	hay := strings.ToLower(n.Text + " " + strings.Join(n.Classes, " "))
	hasKeyword := containsAnyWord(hay, e.tables.FeatureKeywords)
	isGrid := n.Tag == "ul" || n.Tag == "ol" || strings.Contains(strings.Join(n.Classes, " "), "grid")
	if hasKeyword && isGrid {
		return true
	}
	consistent := 0
	for _, c := range n.Children {
		heading := firstHeading(c)
		if heading != "" && len(c.Text) >= 20 {
			consistent++
		}
	}
	return consistent >= 3
}

func extractFeature(n rawNode) types.Feature {
	name := firstHeading(n)
	if name == "" {
		name = n.OwnText
	}
	desc := n.Text
	if name != "" {
		desc = strings.TrimSpace(strings.TrimPrefix(desc, name))
	}
	return types.Feature{
		Name:        truncate(name, types.MaxFeatureNameLen),
		Description: truncate(desc, types.MaxFeatureDescLen),
		Element:     types.ElementRef{Selector: n.Selector},
	}
}

// ── FAQs ─────────────────────────────────────────────────────────────────

func (e *Extractor) classifyFAQs(raw *rawSnapshot) []types.FAQ {
	var out []types.FAQ
	for _, n := range raw.Candidates {
		if !e.looksLikeFAQContainer(n) {
			continue
		}
		if n.Tag == "dl" {
			out = append(out, extractDLFAQs(n)...)
			continue
		}
		out = append(out, extractQuestionShapedFAQs(n)...)
		if len(out) >= types.MaxFAQs {
			break
		}
	}
	if len(out) > types.MaxFAQs {
		out = out[:types.MaxFAQs]
	}
	return out
}

func (e *Extractor) looksLikeFAQContainer(n rawNode) bool {
	hay := strings.ToLower(n.Text + " " + strings.Join(n.Classes, " "))
	hasKeyword := containsAnyWord(hay, e.tables.FAQKeywords)
	hasAccordion := containsAnyWord(hay, e.tables.AccordionHints)
	questionCount := countQuestionShaped(n.Children)
	if hasKeyword && questionCount >= 2 {
		return true
	}
	if hasAccordion && questionCount >= 2 {
		return true
	}
	if n.Tag == "dl" && countTag(n.Children, "dt") >= 2 {
		return true
	}
	return false
}

func countQuestionShaped(children []rawNode) int {
	n := 0
	for _, c := range children {
		if looksLikeQuestion(c.Text) {
			n++
		}
	}
	return n
}

func looksLikeQuestion(text string) bool {
	t := strings.TrimSpace(text)
	return strings.HasSuffix(t, "?") || len(t) > 0 && startsWithQuestionWord(t)
}

var questionWords = []string{"what", "how", "why", "when", "where", "who", "can", "does", "is", "are"}

func startsWithQuestionWord(t string) bool {
	low := strings.ToLower(t)
	for _, w := range questionWords {
		if strings.HasPrefix(low, w+" ") {
			return true
		}
	}
	return false
}

func extractDLFAQs(n rawNode) []types.FAQ {
	var out []types.FAQ
	var pendingQ string
	for _, c := range n.Children {
		switch c.Tag {
		case "dt":
			pendingQ = c.Text
		case "dd":
			if pendingQ != "" {
				out = append(out, types.FAQ{Question: pendingQ, Answer: truncate(c.Text, types.MaxFAQAnswerLen)})
				pendingQ = ""
			}
		}
	}
	return out
}

func extractQuestionShapedFAQs(n rawNode) []types.FAQ {
	var out []types.FAQ
	var pendingQ string
	for _, c := range n.Children {
		if looksLikeQuestion(c.Text) {
			if pendingQ != "" {
				out = append(out, types.FAQ{Question: pendingQ})
			}
			pendingQ = c.Text
			continue
		}
		if pendingQ != "" {
			out = append(out, types.FAQ{Question: pendingQ, Answer: truncate(c.Text, types.MaxFAQAnswerLen)})
			pendingQ = ""
		}
	}
	if pendingQ != "" {
		out = append(out, types.FAQ{Question: pendingQ})
	}
	return out
}

// ── products ─────────────────────────────────────────────────────────────

func (e *Extractor) classifyProducts(raw *rawSnapshot) []types.Product {
	var matches []rawNode
	for _, n := range raw.Candidates {
		if e.looksLikeProductCard(n) {
			matches = append(matches, n)
		}
	}
	sortByRelevance(matches)
	if len(matches) > types.MaxProducts {
		matches = matches[:types.MaxProducts]
	}
	out := make([]types.Product, 0, len(matches))
	for _, n := range matches {
		out = append(out, extractProduct(n))
	}
	return out
}

// sortByRelevance orders competing candidates highest-relevance first
// (spec.md §4.1 relevance ranking), used to decide which candidates survive
// a list's size cap.
func sortByRelevance(nodes []rawNode) {
	for i := 1; i < len(nodes); i++ {
		for j := i; j > 0 && relevance(nodes[j]) > relevance(nodes[j-1]); j-- {
			nodes[j], nodes[j-1] = nodes[j-1], nodes[j]
		}
	}
}

func (e *Extractor) looksLikeProductCard(n rawNode) bool {
	hay := strings.ToLower(n.Text + " " + strings.Join(n.Classes, " "))
	hasKeyword := containsAnyWord(hay, e.tables.ProductKeywords)
	heading := firstHeading(n)
	hasImageOrButton := hasChildTag(n, "img") || hasChildTag(n, "button") || hasChildTag(n, "a")
	if hasKeyword && heading != "" && hasImageOrButton {
		return true
	}
	hasPrice := e.tables.PriceRegexp().MatchString(n.Text)
	if heading != "" && hasPrice && hasChildTag(n, "button") {
		return true
	}
	area := n.Rect.Area
	if heading != "" && hasChildTag(n, "img") && area >= 10000 && area <= 500000 && len(n.Text) >= 50 && len(n.Text) <= 500 {
		return true
	}
	return false
}

func extractProduct(n rawNode) types.Product {
	p := types.Product{Name: firstHeading(n)}
	for _, c := range n.Children {
		if c.Tag == "img" {
			p.Image = c.Attrs["src"]
			break
		}
	}
	p.Price, _, _, _ = parsePrice(n.Text, DefaultClassifierTables())
	p.Description = strings.TrimSpace(strings.TrimPrefix(n.Text, p.Name))
	return p
}

// ── CTAs ─────────────────────────────────────────────────────────────────

func (e *Extractor) classifyCTAs(raw *rawSnapshot) []types.CTA {
	var matches []rawNode
	for _, n := range raw.Candidates {
		if n.Tag != "button" && n.Tag != "a" {
			continue
		}
		hay := strings.ToLower(n.Text)
		hasVerb := containsAnyPhrase(hay, e.tables.CTAVerbs)
		hasClass := containsAnyWord(strings.Join(n.Classes, " "), e.tables.CTAClasses)
		if hasVerb || hasClass {
			matches = append(matches, n)
		}
	}
	sortByRelevance(matches)
	if len(matches) > types.MaxCTAs {
		matches = matches[:types.MaxCTAs]
	}
	out := make([]types.CTA, 0, len(matches))
	for _, n := range matches {
		out = append(out, types.CTA{
			Text:    n.Text,
			Href:    n.Attrs["href"],
			Tag:     n.Tag,
			Element: types.ElementRef{Selector: n.Selector},
		})
	}
	return out
}

// ── structure / current section ───────────────────────────────────────────

func toHeadings(rs []rawHeading) []types.Heading {
	out := make([]types.Heading, 0, len(rs))
	for _, h := range rs {
		out = append(out, types.Heading{Level: h.Level, Text: h.Text, ID: h.ID})
	}
	return out
}

func toSections(rs []rawSection) []types.Section {
	out := make([]types.Section, 0, len(rs))
	for _, s := range rs {
		out = append(out, types.Section{ID: s.ID, Tag: s.Tag, Heading: s.Heading, TextPreview: s.TextPreview})
	}
	return out
}

// computeCurrentSection finds the section whose vertical range straddles the
// viewport mid-line, falling back to a scroll-percentage bucket per spec.md §4.1 step 4.
func computeCurrentSection(raw *rawSnapshot) string {
	mid := raw.ScrollY + raw.ViewportH/2
	for _, s := range raw.Sections {
		if mid >= s.Top && mid <= s.Bottom {
			if s.ID != "" {
				return s.ID
			}
			return s.Heading
		}
	}
	if raw.DocHeight <= 0 {
		return "top"
	}
	pct := raw.ScrollY / raw.DocHeight
	switch {
	case pct < 0.33:
		return "top"
	case pct < 0.66:
		return "middle"
	default:
		return "bottom"
	}
}

// ── keywords ─────────────────────────────────────────────────────────────

func extractKeywords(raw *rawSnapshot, t *ClassifierTables, cap int) []string {
	counts := map[string]int{}
	for _, h := range raw.Headings {
		for _, w := range tokenize(h.Text) {
			counts[w]++
		}
	}
	type kv struct {
		word  string
		count int
	}
	var kvs []kv
	for w, c := range counts {
		if len(w) > 2 {
			kvs = append(kvs, kv{w, c})
		}
	}
	for i := 0; i < len(kvs); i++ {
		for j := i + 1; j < len(kvs); j++ {
			if kvs[j].count > kvs[i].count {
				kvs[i], kvs[j] = kvs[j], kvs[i]
			}
		}
	}
	var out []string
	for _, e := range kvs {
		out = append(out, e.word)
		if len(out) >= cap {
			break
		}
	}
	return out
}
