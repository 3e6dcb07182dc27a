package behavior

// bridgeFunctionName is exposed into the page as window.<name>; the
// bridge script below is the only thing that calls it.
const bridgeFunctionName = "__salesAgentBehavior"

// bridgeScript installs passive listeners for scroll, mouse movement,
// exit intent, CTA hover/click, and pricing/features section visibility,
// forwarding each as a (name, JSON-data) call to bridgeFunctionName. It
// guards against double injection (Init is idempotent; a reconnect must
// not double up listeners) and debounces the high-frequency scroll and
// mousemove events itself, in the page, rather than flooding the Go side.
const bridgeScript = `() => {
  if (window.__salesAgentBehaviorInstalled) return { success: true };
  window.__salesAgentBehaviorInstalled = true;

  const send = (name, data) => {
    if (window.` + bridgeFunctionName + `) {
      window.` + bridgeFunctionName + `(name, JSON.stringify(data || {}));
    }
  };

  let scrollTimer = null;
  window.addEventListener('scroll', () => {
    if (scrollTimer) return;
    scrollTimer = setTimeout(() => {
      scrollTimer = null;
      const doc = document.documentElement;
      const max = doc.scrollHeight - doc.clientHeight;
      const depth = max > 0 ? Math.min(1, window.scrollY / max) : 0;
      send('scroll', { depth });
    }, 150);
  }, { passive: true });

  let moveCount = 0;
  let moveTimer = null;
  window.addEventListener('mousemove', () => {
    moveCount++;
    if (moveTimer) return;
    moveTimer = setTimeout(() => {
      const n = moveCount;
      moveCount = 0;
      moveTimer = null;
      send('mouse_move', { count: n });
    }, 250);
  }, { passive: true });

  document.addEventListener('mouseleave', (e) => {
    if (e.clientY <= 0) send('exit_intent', {});
  });

  document.querySelectorAll('button, a, [role="button"]').forEach((el) => {
    const text = (el.innerText || el.textContent || '').trim();
    const classes = el.className ? String(el.className) : '';
    el.addEventListener('mouseover', () => send('cta_hover', { text, classes }));
    el.addEventListener('click', () => send('cta_click', { text, classes }));
  });

  ['pricing', 'features'].forEach((id) => {
    const el = document.getElementById(id);
    if (!el || !window.IntersectionObserver) return;
    new IntersectionObserver((entries) => {
      entries.forEach((entry) => {
        if (entry.isIntersecting) send('section_visible', { section: id });
      });
    }, { threshold: 0.3 }).observe(el);
  });

  return { success: true };
}`
