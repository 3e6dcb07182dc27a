// Package elementfinder implements C4, resolving a free-text description
// (spoken or typed) to a concrete element on the attached host page. It
// tries three strategies in the strict order spec.md §4.4 mandates: a
// context search against the already-extracted Page Context, a semantic
// search over section-like containers, and a DOM fallback that queries the
// live page through Playwright.
package elementfinder

import (
	"fmt"
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/salesagent/runtime/internal/browserpage"
	"github.com/salesagent/runtime/internal/pagemodel"
	"github.com/salesagent/runtime/pkg/types"
)

// SemanticThreshold is the minimum fraction of query tokens that must
// appear in a section's extracted text for the semantic search strategy to
// accept it (spec.md §4.4).
const SemanticThreshold = 0.3

// DefaultFuzzyThreshold is the Jaro-Winkler acceptance threshold for the
// DOM-fallback strategy's final fuzzy token pass.
const DefaultFuzzyThreshold = 0.85

// Finder resolves element descriptions against a Page Context and, failing
// that, the live DOM.
type Finder struct {
	tables         *pagemodel.ClassifierTables
	fuzzyThreshold float64
}

// Option configures a [Finder].
type Option func(*Finder)

// WithClassifierTables overrides the section-keyword tables
// [FindSectionByType] consults.
func WithClassifierTables(t *pagemodel.ClassifierTables) Option {
	return func(f *Finder) { f.tables = t }
}

// WithFuzzyThreshold overrides the DOM-fallback fuzzy-match threshold.
func WithFuzzyThreshold(threshold float64) Option {
	return func(f *Finder) { f.fuzzyThreshold = threshold }
}

// NewFinder builds a Finder with default classifier tables and fuzzy
// threshold unless overridden.
func NewFinder(opts ...Option) *Finder {
	f := &Finder{tables: pagemodel.DefaultClassifierTables(), fuzzyThreshold: DefaultFuzzyThreshold}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Find resolves description to an element, trying context search, then
// semantic search, then a live-DOM fallback in that order. It returns
// (nil, nil) — not an error — when nothing matches; callers treat a nil ref
// as "not found" (spec.md §4.5's `{success:false, error:"Section not
// found"}` contract lives one layer up, in the Action Executor).
func (f *Finder) Find(page *browserpage.Page, description string, pc *types.PageContext) (*types.ElementRef, error) {
	if ref := f.contextSearch(description, pc); ref != nil {
		return ref, nil
	}
	if ref := f.semanticSearch(description, pc); ref != nil {
		return ref, nil
	}
	return f.domFallback(page, description)
}

// contextSearch matches description against plan/feature/product/CTA names
// already extracted into pc: exact/substring match on the full name, or a
// word-level match when a query token (>2 chars) equals a token of the
// name.
func (f *Finder) contextSearch(description string, pc *types.PageContext) *types.ElementRef {
	if pc == nil {
		return nil
	}
	low := strings.ToLower(description)
	qTokens := tokenize(description)

	for _, p := range pc.Content.Pricing {
		if nameMatches(low, qTokens, p.Plan) {
			return &p.Element
		}
	}
	for _, ft := range pc.Content.Features {
		if nameMatches(low, qTokens, ft.Name) {
			return &ft.Element
		}
	}
	for _, c := range pc.Content.CTAs {
		if nameMatches(low, qTokens, c.Text) {
			return &c.Element
		}
	}
	// Products don't carry an ElementRef (spec.md §3's Product shape has no
	// element field); a context-search hit on a product name alone can't
	// produce a ref, so it's skipped here and left to semantic/DOM fallback.
	return nil
}

func nameMatches(descLower string, qTokens []string, name string) bool {
	if name == "" {
		return false
	}
	nameLower := strings.ToLower(name)
	if descLower == nameLower || strings.Contains(descLower, nameLower) || strings.Contains(nameLower, descLower) {
		return true
	}
	nameTokens := tokenize(name)
	nameTokenSet := make(map[string]bool, len(nameTokens))
	for _, t := range nameTokens {
		nameTokenSet[t] = true
	}
	for _, t := range qTokens {
		if len(t) > 2 && nameTokenSet[t] {
			return true
		}
	}
	return false
}

// semanticSearch scores each section-like container in pc by the fraction
// of query tokens (>2 chars) present in its extracted text, returning the
// highest scorer if it clears [SemanticThreshold].
func (f *Finder) semanticSearch(description string, pc *types.PageContext) *types.ElementRef {
	if pc == nil {
		return nil
	}
	qTokens := significantTokens(description)
	if len(qTokens) == 0 {
		return nil
	}

	var best *types.Section
	bestScore := 0.0
	for i := range pc.Structure.Sections {
		s := &pc.Structure.Sections[i]
		score := tokenFraction(qTokens, s.Heading+" "+s.TextPreview)
		if score > bestScore {
			bestScore = score
			best = s
		}
	}
	if best == nil || bestScore < SemanticThreshold {
		return nil
	}
	return sectionRef(*best)
}

func sectionRef(s types.Section) *types.ElementRef {
	if s.ID != "" {
		return &types.ElementRef{Selector: "#" + s.ID}
	}
	return &types.ElementRef{Selector: s.Tag}
}

func tokenFraction(qTokens []string, hay string) float64 {
	hayTokens := tokenize(hay)
	haySet := make(map[string]bool, len(hayTokens))
	for _, t := range hayTokens {
		haySet[t] = true
	}
	hits := 0
	for _, t := range qTokens {
		if haySet[t] {
			hits++
		}
	}
	return float64(hits) / float64(len(qTokens))
}

// domFallback queries the live page through Playwright using the per-token
// selector patterns spec.md §4.4 names, trying each in order before falling
// back to a fuzzy pass over id/class tokens actually present on the page.
func (f *Finder) domFallback(page *browserpage.Page, description string) (*types.ElementRef, error) {
	if page == nil {
		return nil, nil
	}
	for _, tok := range significantTokens(description) {
		for _, sel := range []string{
			"#" + tok,
			fmt.Sprintf("[id*=%q]", tok),
			fmt.Sprintf("[class*=%q]", tok),
		} {
			if ok, err := f.selectorExists(page, sel); err != nil {
				return nil, err
			} else if ok {
				return &types.ElementRef{Selector: sel}, nil
			}
		}
	}

	for _, sel := range []string{
		fmt.Sprintf("[aria-label*=%q]", description),
		fmt.Sprintf("[data-section*=%q]", description),
	} {
		if ok, err := f.selectorExists(page, sel); err != nil {
			return nil, err
		} else if ok {
			return &types.ElementRef{Selector: sel}, nil
		}
	}

	return f.fuzzyDOMFallback(page, description)
}

func (f *Finder) selectorExists(page *browserpage.Page, selector string) (bool, error) {
	count, err := page.Raw().Locator(selector).Count()
	if err != nil {
		return false, fmt.Errorf("elementfinder: count %q: %w", selector, err)
	}
	return count > 0, nil
}

// idClassCollectScript gathers every distinct id/class token currently on
// the page, for the fuzzy fallback pass. It only inspects attributes — no
// classification logic runs in JS, per this codebase's "idiomatic Go only"
// discipline for anything beyond raw DOM reads.
const idClassCollectScript = `() => {
  const tokens = new Set();
  document.querySelectorAll('[id],[class]').forEach(el => {
    if (el.id) tokens.add(el.id);
    el.classList && el.classList.forEach(c => tokens.add(c));
  });
  return Array.from(tokens);
}`

// fuzzyDOMFallback is the last-resort strategy: collect every id/class token
// on the page and accept the closest Jaro-Winkler match to any significant
// query token, above [Finder.fuzzyThreshold].
func (f *Finder) fuzzyDOMFallback(page *browserpage.Page, description string) (*types.ElementRef, error) {
	if f.fuzzyThreshold <= 0 {
		return nil, nil
	}
	result, err := page.Evaluate(idClassCollectScript, nil)
	if err != nil {
		return nil, fmt.Errorf("elementfinder: collect id/class tokens: %w", err)
	}
	raw, ok := result.([]any)
	if !ok {
		return nil, nil
	}

	qTokens := significantTokens(description)
	bestToken := ""
	bestScore := 0.0
	for _, v := range raw {
		token, ok := v.(string)
		if !ok || token == "" {
			continue
		}
		for _, q := range qTokens {
			score := matchr.JaroWinkler(q, strings.ToLower(token), false)
			if score > bestScore {
				bestScore = score
				bestToken = token
			}
		}
	}
	if bestToken == "" || bestScore < f.fuzzyThreshold {
		return nil, nil
	}
	sel := fmt.Sprintf("[id*=%q],[class*=%q]", bestToken, bestToken)
	if ok, err := f.selectorExists(page, sel); err == nil && ok {
		return &types.ElementRef{Selector: sel}, nil
	}
	return nil, nil
}

// FindSectionByType tries a small keyword list per kind (e.g. "pricing",
// "faq") against every extracted section's ID/tag/heading, per spec.md
// §4.4's `findSectionByType` auxiliary.
func (f *Finder) FindSectionByType(kind string, pc *types.PageContext) *types.ElementRef {
	if pc == nil {
		return nil
	}
	keywords := f.tables.SectionKeywords[kind]
	if len(keywords) == 0 {
		return nil
	}
	for i := range pc.Structure.Sections {
		s := &pc.Structure.Sections[i]
		hay := strings.ToLower(s.ID + " " + s.Tag + " " + s.Heading)
		for _, kw := range keywords {
			if strings.Contains(hay, strings.ToLower(kw)) {
				return sectionRef(*s)
			}
		}
	}
	return nil
}

// GetScrollableParent returns selector itself if the element's own overflow
// is auto/scroll, otherwise the selector of its closest section-like
// ancestor (spec.md §4.4). Since this runtime holds only stable CSS
// selectors (not live handles), the ancestor walk runs in the page via a
// small, logic-free JS snippet and returns a selector string.
func (f *Finder) GetScrollableParent(page *browserpage.Page, selector string) (string, error) {
	script := fmt.Sprintf(`() => {
  const isScrollable = (el) => {
    const style = getComputedStyle(el);
    return style.overflowY === 'auto' || style.overflowY === 'scroll' ||
           style.overflow === 'auto' || style.overflow === 'scroll';
  };
  const sectionLike = 'section,article,main,[data-section]';
  const start = document.querySelector(%q);
  if (!start) return null;
  if (isScrollable(start)) return %q;
  let el = start.closest(sectionLike);
  if (!el) return %q;
  if (el.id) return '#' + el.id;
  return el.tagName.toLowerCase();
}`, selector, selector, selector)

	result, err := page.Evaluate(script, nil)
	if err != nil {
		return "", fmt.Errorf("elementfinder: scrollable parent of %q: %w", selector, err)
	}
	if result == nil {
		return selector, nil
	}
	sel, _ := result.(string)
	if sel == "" {
		return selector, nil
	}
	return sel, nil
}
