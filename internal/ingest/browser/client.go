// Package browser drives the SCAHA pages through a headless Chrome instance.
//
// Some scoreboard data (the team list, the schedule table) is only populated
// by client-side script after a postback, which the plain HTTP path cannot see.
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"
)

const (
	// UserAgent for browser sessions
	UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// PageLoadTimeout bounds the initial navigation
	PageLoadTimeout = 30 * time.Second

	// NetworkIdleTimeout bounds the wait for postbacks to settle
	NetworkIdleTimeout = 15 * time.Second

	// SelectorTimeout bounds waits for result tables to appear
	SelectorTimeout = 15 * time.Second

	// quietPeriod is how long the network must stay idle to count as settled
	quietPeriod = 500 * time.Millisecond
)

// syncSelectedAttrs mirrors the live selection state into the markup so that
// serialized HTML reports which option is active.
const syncSelectedAttrs = `document.querySelectorAll('option').forEach(function (o) {
  if (o.selected) { o.setAttribute('selected', 'selected'); } else { o.removeAttribute('selected'); }
}); true`

// Options configure the browser launched for each page
type Options struct {
	ExecPath string
	Headless bool
}

// Client launches one browser per opened page
type Client struct {
	opts []chromedp.ExecAllocatorOption
}

// NewClient creates a new browser client
func NewClient(o Options) *Client {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", o.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1280, 720),
		chromedp.UserAgent(UserAgent),
	)
	if o.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(o.ExecPath))
	}
	return &Client{opts: opts}
}

// Page is a single browser tab owned by one query. Close must be called on
// every exit path; cancelling the context passed to Open also tears it down.
type Page struct {
	ctx    context.Context
	cancel context.CancelFunc
	idle   *idleTracker
}

// Open launches a browser, navigates to url and waits for the page to settle
func (c *Client) Open(ctx context.Context, url string) (*Page, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, c.opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	p := &Page{
		ctx: browserCtx,
		cancel: func() {
			browserCancel()
			allocCancel()
		},
		idle: newIdleTracker(),
	}
	chromedp.ListenTarget(browserCtx, p.idle.handle)

	// The first Run starts the browser and binds it to the context it is
	// given, so it must not carry a timeout.
	if err := chromedp.Run(browserCtx); err != nil {
		p.Close()
		return nil, fmt.Errorf("chromedp start: %w", err)
	}

	err := p.run(ctx, PageLoadTimeout,
		network.Enable(),
		chromedp.Navigate(url),
		chromedp.WaitReady(`body`, chromedp.ByQuery),
	)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("chromedp navigate %s: %w", url, err)
	}
	if err := p.WaitIdle(ctx); err != nil {
		p.Close()
		return nil, err
	}

	log.Debug().Str("component", "browser").Str("url", url).Msg("page loaded")
	return p, nil
}

// Close shuts the browser down
func (p *Page) Close() {
	if p.cancel != nil {
		p.cancel()
	}
}

// HTML returns the serialized document with option selection made explicit
func (p *Page) HTML(ctx context.Context) (string, error) {
	var htmlContent string
	err := p.run(ctx, NetworkIdleTimeout,
		chromedp.Evaluate(syncSelectedAttrs, nil),
		chromedp.OuterHTML(`html`, &htmlContent, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("chromedp error: %w", err)
	}
	if htmlContent == "" {
		return "", fmt.Errorf("empty HTML content returned")
	}
	return htmlContent, nil
}

// SelectValue sets a select element's value, fires its change handler and
// waits for the resulting postback to finish.
func (p *Page) SelectValue(ctx context.Context, elementID, value string) error {
	sel := byID(elementID)
	script := fmt.Sprintf(
		`(function () { var el = document.querySelector(%q); if (!el) { return false; } el.value = %q; el.dispatchEvent(new Event('change', { bubbles: true })); return true; })()`,
		sel, value,
	)
	var found bool
	if err := p.run(ctx, NetworkIdleTimeout,
		chromedp.WaitReady(sel, chromedp.ByQuery),
		chromedp.Evaluate(script, &found),
	); err != nil {
		return fmt.Errorf("select %s=%s: %w", elementID, value, err)
	}
	if !found {
		return fmt.Errorf("select %s not present on page", elementID)
	}
	return p.WaitIdle(ctx)
}

// Click presses a button and waits for the resulting postback to finish
func (p *Page) Click(ctx context.Context, elementID string) error {
	if err := p.run(ctx, NetworkIdleTimeout,
		chromedp.Click(byID(elementID), chromedp.ByQuery, chromedp.NodeVisible),
	); err != nil {
		return fmt.Errorf("click %s: %w", elementID, err)
	}
	return p.WaitIdle(ctx)
}

// WaitForRows blocks until the table with the given id has body rows
func (p *Page) WaitForRows(ctx context.Context, tableID string) error {
	if err := p.run(ctx, SelectorTimeout,
		chromedp.WaitReady(byID(tableID)+` tbody tr`, chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("wait for %s rows: %w", tableID, err)
	}
	return nil
}

// WaitIdle blocks until no request has been in flight for a short quiet period
func (p *Page) WaitIdle(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, NetworkIdleTimeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if p.idle.settled(quietPeriod) {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for network idle: %w", ctx.Err())
		case <-p.ctx.Done():
			return fmt.Errorf("browser closed: %w", p.ctx.Err())
		case <-ticker.C:
		}
	}
}

// run executes actions on the page, bounded by timeout and by the caller's context
func (p *Page) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func byID(id string) string {
	return fmt.Sprintf(`[id="%s"]`, id)
}

// idleTracker counts in-flight network requests of one page
type idleTracker struct {
	mu       sync.Mutex
	inflight map[network.RequestID]struct{}
	lastSeen time.Time
}

func newIdleTracker() *idleTracker {
	return &idleTracker{
		inflight: make(map[network.RequestID]struct{}),
		lastSeen: time.Now(),
	}
}

func (t *idleTracker) handle(ev interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		t.inflight[e.RequestID] = struct{}{}
	case *network.EventLoadingFinished:
		delete(t.inflight, e.RequestID)
	case *network.EventLoadingFailed:
		delete(t.inflight, e.RequestID)
	default:
		return
	}
	t.lastSeen = time.Now()
}

func (t *idleTracker) settled(quiet time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight) == 0 && time.Since(t.lastSeen) >= quiet
}
