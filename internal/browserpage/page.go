// Package browserpage manages the Playwright-driven browser connection that
// backs one embed session: the host page this runtime extracts, navigates,
// and highlights elements on. A [Page] wraps a playwright.Page with the
// helpers the extraction, element-finder, and action-executor packages need,
// grounded on the pack's browser-session wrapper pattern.
package browserpage

import (
	"fmt"
	"sync"

	"github.com/playwright-community/playwright-go"
)

var (
	pwOnce     sync.Once
	pwInstance *playwright.Playwright
	pwErr      error
)

// getPlaywright returns the process-wide Playwright driver instance,
// starting it (and installing browsers, if missing) on first use.
func getPlaywright() (*playwright.Playwright, error) {
	pwOnce.Do(func() {
		if err := playwright.Install(); err != nil {
			pwErr = fmt.Errorf("browserpage: install playwright browsers: %w", err)
			return
		}
		pw, err := playwright.Run()
		if err != nil {
			pwErr = fmt.Errorf("browserpage: start playwright: %w", err)
			return
		}
		pwInstance = pw
	})
	return pwInstance, pwErr
}

// Page wraps one playwright.Page for the lifetime of an embed session. Every
// session owns exactly one Page — this runtime drives a single host tab per
// session, never a multi-tab browser session.
type Page struct {
	mu      sync.RWMutex
	browser playwright.Browser
	ctx     playwright.BrowserContext
	page    playwright.Page
	closed  bool
}

// Connect attaches to the host page via Chrome DevTools Protocol at cdpURL.
// The embed transport hands this runtime a live CDP endpoint for the tab the
// visitor is already looking at; this runtime never launches its own
// visible browser window.
func Connect(cdpURL string) (*Page, error) {
	pw, err := getPlaywright()
	if err != nil {
		return nil, err
	}

	browser, err := pw.Chromium.ConnectOverCDP(cdpURL)
	if err != nil {
		return nil, fmt.Errorf("browserpage: connect over CDP %q: %w", cdpURL, err)
	}

	contexts := browser.Contexts()
	if len(contexts) == 0 {
		_ = browser.Close()
		return nil, fmt.Errorf("browserpage: no browser contexts available at %q", cdpURL)
	}
	bctx := contexts[0]

	pages := bctx.Pages()
	if len(pages) == 0 {
		_ = browser.Close()
		return nil, fmt.Errorf("browserpage: no open pages in browser context")
	}

	return &Page{browser: browser, ctx: bctx, page: pages[0]}, nil
}

// Raw returns the underlying playwright.Page for packages that need
// locator/evaluate access beyond this wrapper's helpers.
func (p *Page) Raw() playwright.Page {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.page
}

// URL returns the page's current URL.
func (p *Page) URL() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.page.URL()
}

// Title returns the page's current title.
func (p *Page) Title() (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.page.Title()
}

// Evaluate runs expression in the page's main frame and returns its result.
func (p *Page) Evaluate(expression string, arg any) (any, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, fmt.Errorf("browserpage: page is closed")
	}
	return p.page.Evaluate(expression, arg)
}

// ExposeFunction binds a Go callback as a named function in the page's main
// frame, so in-page JavaScript (the Behavior Tracker's event listeners) can
// call back into this runtime.
func (p *Page) ExposeFunction(name string, fn func(...any) any) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return fmt.Errorf("browserpage: page is closed")
	}
	return p.page.ExposeFunction(name, fn)
}

// Closed reports whether the underlying browser connection has been closed.
func (p *Page) Closed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

// Close disconnects from the browser. The host's browser itself is never
// closed — this runtime is a guest on an existing tab, not its owner.
func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.browser.Close()
}
