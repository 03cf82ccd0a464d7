package navigator

import (
	"context"
	"net/http"

	"github.com/fortuna/scaha-mcp/internal/ingest/jsf"
	"github.com/fortuna/scaha-mcp/internal/scaha"
)

// httpTransport replays JSF partial postbacks over plain HTTP
type httpTransport struct {
	client *jsf.Client
}

// NewHTTPTransport returns the postback transport
func NewHTTPTransport(client *jsf.Client) Transport {
	return &httpTransport{client: client}
}

func (t *httpTransport) Name() string { return "http" }

func (t *httpTransport) Open(ctx context.Context, url string) (Page, string, error) {
	session, html, err := t.client.OpenSession(ctx, url)
	if err != nil {
		return nil, "", err
	}
	return &httpPage{client: t.client, url: url, session: session}, html, nil
}

type httpPage struct {
	client  *jsf.Client
	url     string
	session *jsf.Session
}

// Select posts the changed control with its target value. Controls before it
// keep their current values and controls after it are reset to "0", since
// the server rebuilds their option lists from the new choice.
func (p *httpPage) Select(ctx context.Context, sel Selection) (string, error) {
	fields := map[string]string{sel.Layout.SubmitField: "1"}
	for _, c := range controlsOf(sel.Layout) {
		switch {
		case c < sel.Control:
			fields[sel.Layout.Field(c)] = currentValue(sel.Options, c)
		case c == sel.Control:
			fields[sel.Layout.Field(c)] = sel.Value
		default:
			fields[sel.Layout.Field(c)] = "0"
		}
	}

	body, err := p.client.SubmitPostback(ctx, p.url, p.session, fields)
	if err != nil {
		return "", err
	}
	return p.fragment(body, sel.Layout.FormID)
}

// Trigger posts the current control values together with the button
func (p *httpPage) Trigger(ctx context.Context, req TriggerRequest) (string, error) {
	fields := map[string]string{
		req.Layout.SubmitField: "1",
		req.ButtonID:           req.ButtonID,
	}
	for _, c := range controlsOf(req.Layout) {
		fields[req.Layout.Field(c)] = currentValue(req.Options, c)
	}

	body, err := p.client.SubmitPostback(ctx, p.url, p.session, fields)
	if err != nil {
		return "", err
	}
	return p.fragment(body, req.Layout.FormID)
}

// fragment returns the refreshed form markup. A response without one leaves
// the page in an unknown state, so it fails rather than reusing the old document.
func (p *httpPage) fragment(body, formID string) (string, error) {
	fragment, ok := jsf.ExtractUpdatedFragment(body, formID)
	if !ok {
		return "", &scaha.TransportError{Op: http.MethodPost, URL: p.url, Err: jsf.ErrNoUpdate}
	}
	return fragment, nil
}

func (p *httpPage) Close() {}
