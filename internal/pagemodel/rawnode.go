package pagemodel

// rawNode is one visible DOM candidate surfaced by the in-page walk script
// ([walkScript]). All classification logic lives in Go (extractor.go); the
// script's only job is to surface the raw, already-visibility-filtered
// candidates with enough attributes to classify and rank them without a
// second DOM round-trip per element.
type rawNode struct {
	Selector    string            `json:"selector"`
	Tag         string            `json:"tag"`
	Text        string            `json:"text"`
	OwnText     string            `json:"ownText"`
	Classes     []string          `json:"classes"`
	Attrs       map[string]string `json:"attrs"`
	Children    []rawNode         `json:"children"`
	Rect        rawRect           `json:"rect"`
	InViewport  bool              `json:"inViewport"`
	ViewportPct float64           `json:"viewportPct"`
	ScrollDist  float64           `json:"scrollDist"`
}

type rawRect struct {
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	Area   float64 `json:"area"`
}

// rawSnapshot is the full result of one walk-script invocation.
type rawSnapshot struct {
	URL            string            `json:"url"`
	Title          string            `json:"title"`
	ScrollY        float64           `json:"scrollY"`
	DocHeight      float64           `json:"docHeight"`
	ViewportH      float64           `json:"viewportH"`
	Candidates     []rawNode         `json:"candidates"`
	Headings       []rawHeading      `json:"headings"`
	Sections       []rawSection      `json:"sections"`
	Links          []string          `json:"links"`
	OGTags         map[string]string `json:"ogTags"`
	SiteName       string            `json:"siteName"`
	Description    string            `json:"description"`
	JSONLDBlocks   []string          `json:"jsonLdBlocks"`
}

type rawHeading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
	ID    string `json:"id"`
}

type rawSection struct {
	ID          string  `json:"id"`
	Tag         string  `json:"tag"`
	Heading     string  `json:"heading"`
	TextPreview string  `json:"textPreview"`
	Top         float64 `json:"top"`
	Bottom      float64 `json:"bottom"`
}

// walkScript is evaluated in the host page via playwright's Page.Evaluate. It
// performs the visibility filtering and raw attribute collection spec.md §4.1
// step 1 calls for; everything after that (classification, scoring, caps) is
// plain Go so it can be unit tested without a browser.
const walkScript = `() => {
  function isVisible(el) {
    const cs = getComputedStyle(el);
    if (cs.display === 'none' || cs.visibility === 'hidden' || cs.opacity === '0') return false;
    const r = el.getBoundingClientRect();
    return r.width > 0 && r.height > 0;
  }
  function textOf(el) {
    return (el.innerText || el.textContent || '').trim();
  }
  function ownTextOf(el) {
    let t = '';
    for (const n of el.childNodes) {
      if (n.nodeType === Node.TEXT_NODE) t += n.textContent;
    }
    return t.trim();
  }
  function rectOf(el) {
    const r = el.getBoundingClientRect();
    return { top: r.top + window.scrollY, bottom: r.bottom + window.scrollY,
              left: r.left, right: r.right, area: r.width * r.height };
  }
  const candidates = [];
  const skipTags = new Set(['SCRIPT', 'STYLE', 'NOSCRIPT', 'TEMPLATE']);
  const walker = document.createTreeWalker(document.body, NodeFilter.SHOW_ELEMENT);
  let node = walker.currentNode;
  while (node) {
    if (!skipTags.has(node.tagName) && isVisible(node)) {
      const r = node.getBoundingClientRect();
      const mid = window.innerHeight / 2;
      const scrollDist = Math.abs((r.top + r.bottom) / 2 - mid);
      const viewportPct = Math.max(0, Math.min(r.height, window.innerHeight) * r.width) /
        (window.innerWidth * window.innerHeight);
      candidates.push({
        selector: '', // not computed: ElementRefs built from candidates carry an empty selector
        tag: node.tagName.toLowerCase(),
        text: textOf(node).slice(0, 2000),
        ownText: ownTextOf(node).slice(0, 500),
        classes: Array.from(node.classList || []),
        attrs: {
          id: node.id || '',
          href: node.getAttribute('href') || '',
          src: node.getAttribute('src') || '',
          'aria-label': node.getAttribute('aria-label') || '',
          'data-section': node.getAttribute('data-section') || '',
          role: node.getAttribute('role') || '',
        },
        rect: rectOf(node),
        inViewport: r.top >= 0 && r.bottom <= window.innerHeight,
        viewportPct: viewportPct,
        scrollDist: scrollDist,
      });
    }
    node = walker.nextNode();
  }

  const headings = Array.from(document.querySelectorAll('h1,h2,h3,h4,h5,h6')).map(h => ({
    level: parseInt(h.tagName[1], 10), text: textOf(h), id: h.id || '',
  }));

  const sections = Array.from(document.querySelectorAll('section,article,main,[data-section]')).map(s => {
    const r = s.getBoundingClientRect();
    const heading = s.querySelector('h1,h2,h3,h4,h5,h6');
    return {
      id: s.id || '', tag: s.tagName.toLowerCase(),
      heading: heading ? textOf(heading) : '',
      textPreview: textOf(s).slice(0, 200),
      top: r.top + window.scrollY, bottom: r.bottom + window.scrollY,
    };
  });

  const links = Array.from(document.querySelectorAll('a[href]')).map(a => a.href);

  const ogTags = {};
  document.querySelectorAll('meta[property^="og:"]').forEach(m => {
    ogTags[m.getAttribute('property').slice(3)] = m.getAttribute('content') || '';
  });

  const jsonLdBlocks = Array.from(document.querySelectorAll('script[type="application/ld+json"]'))
    .map(s => s.textContent);

  const siteNameMeta = document.querySelector('meta[property="og:site_name"]') ||
    document.querySelector('meta[name="application-name"]');
  const descMeta = document.querySelector('meta[property="og:description"]') ||
    document.querySelector('meta[name="description"]');

  return {
    url: location.href,
    title: document.title,
    scrollY: window.scrollY,
    docHeight: document.documentElement.scrollHeight,
    viewportH: window.innerHeight,
    candidates: candidates,
    headings: headings,
    sections: sections,
    links: links,
    ogTags: ogTags,
    siteName: siteNameMeta ? siteNameMeta.getAttribute('content') : '',
    description: descMeta ? descMeta.getAttribute('content') : '',
    jsonLdBlocks: jsonLdBlocks,
  };
}`
