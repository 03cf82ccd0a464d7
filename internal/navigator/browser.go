package navigator

import (
	"context"

	"github.com/fortuna/scaha-mcp/internal/ingest/browser"
)

// browserTransport drives a headless browser, letting page scripts populate
// the content that plain postbacks do not return.
type browserTransport struct {
	client *browser.Client
}

// NewBrowserTransport returns the headless-browser transport
func NewBrowserTransport(client *browser.Client) Transport {
	return &browserTransport{client: client}
}

func (t *browserTransport) Name() string { return "browser" }

func (t *browserTransport) Open(ctx context.Context, url string) (Page, string, error) {
	page, err := t.client.Open(ctx, url)
	if err != nil {
		return nil, "", err
	}
	html, err := page.HTML(ctx)
	if err != nil {
		page.Close()
		return nil, "", err
	}
	return &browserPage{page: page}, html, nil
}

type browserPage struct {
	page *browser.Page
}

func (p *browserPage) Select(ctx context.Context, sel Selection) (string, error) {
	if err := p.page.SelectValue(ctx, sel.Layout.SelectID(sel.Control), sel.Value); err != nil {
		return "", err
	}
	return p.page.HTML(ctx)
}

func (p *browserPage) Trigger(ctx context.Context, req TriggerRequest) (string, error) {
	if err := p.page.Click(ctx, req.ButtonID); err != nil {
		return "", err
	}
	if req.TableID != "" {
		if err := p.page.WaitForRows(ctx, req.TableID); err != nil {
			return "", err
		}
	}
	return p.page.HTML(ctx)
}

func (p *browserPage) Close() {
	p.page.Close()
}
