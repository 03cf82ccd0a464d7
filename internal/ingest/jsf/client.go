// Package jsf replays the partial-postback protocol of the SCAHA JavaServer Faces site.
package jsf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/fortuna/scaha-mcp/internal/scaha"
)

const (
	// UserAgent for requests
	UserAgent = "Mozilla/5.0 (compatible; SCAHA-MCP/1.0)"

	// SessionCookie is the servlet container's session cookie name
	SessionCookie = "JSESSIONID"

	// ViewStateField carries the server-issued view state on every postback
	ViewStateField = "javax.faces.ViewState"

	// DefaultTimeout bounds every request to the upstream site
	DefaultTimeout = 30 * time.Second
)

var (
	sessionCookiePattern = regexp.MustCompile(SessionCookie + `=([^;]+)`)
	viewStateUpdate      = regexp.MustCompile(`(?s)<update id="[^"]*javax\.faces\.ViewState[^"]*"><!\[CDATA\[(.*?)\]\]></update>`)
	updatePattern        = regexp.MustCompile(`(?s)<update id="([^"]*)"><!\[CDATA\[(.*?)\]\]></update>`)
	errorPattern         = regexp.MustCompile(`(?s)<error>\s*<error-name>(.*?)</error-name>\s*<error-message>(?:<!\[CDATA\[)?(.*?)(?:\]\]>)?</error-message>`)
	redirectPattern      = regexp.MustCompile(`<redirect url="([^"]*)"`)
)

// ErrNoUpdate is returned when a postback response carries no markup update
var ErrNoUpdate = errors.New("postback response carried no partial update")

// Session is the per-query conversation state with the upstream server.
// The view state is replaced after every postback; a Session must only be
// used by one goroutine at a time.
type Session struct {
	ID        string
	ViewState string
}

// Client performs page loads and postbacks against the upstream site
type Client struct {
	http *resty.Client
}

// NewClient creates a client with the default timeout.
func NewClient() *Client {
	return NewClientWithTimeout(DefaultTimeout)
}

// NewClientWithTimeout creates a client whose requests are bounded by timeout.
// Cookies are carried explicitly on the Session, never in a shared jar.
func NewClientWithTimeout(timeout time.Duration) *Client {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", UserAgent).
		SetCookieJar(nil)
	return &Client{http: client}
}

// OpenSession loads url and captures the session cookie and the initial view state
func (c *Client) OpenSession(ctx context.Context, url string) (*Session, string, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, "", &scaha.TransportError{Op: http.MethodGet, URL: url, Err: err}
	}
	if !res.IsSuccess() {
		return nil, "", &scaha.TransportError{Op: http.MethodGet, URL: url, StatusCode: res.StatusCode()}
	}

	session := &Session{ID: sessionIDFrom(res)}

	body := string(res.Body())
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	session.ViewState = doc.Find(`input[name="` + ViewStateField + `"]`).First().AttrOr("value", "")

	log.Debug().
		Str("component", "jsf").
		Str("url", url).
		Bool("has_session", session.ID != "").
		Bool("has_view_state", session.ViewState != "").
		Msg("session opened")

	return session, body, nil
}

// SubmitPostback posts fields together with the session's view state and
// stores the refreshed view state from the response back into session.
func (c *Client) SubmitPostback(ctx context.Context, url string, session *Session, fields map[string]string) (string, error) {
	form := make(map[string]string, len(fields)+1)
	for k, v := range fields {
		form[k] = v
	}
	form[ViewStateField] = session.ViewState

	target := url
	req := c.http.R().
		SetContext(ctx).
		SetFormData(form)
	if session.ID != "" {
		target = fmt.Sprintf("%s;jsessionid=%s", url, session.ID)
		req.SetHeader("Cookie", SessionCookie+"="+session.ID)
	}

	res, err := req.Post(target)
	if err != nil {
		return "", &scaha.TransportError{Op: http.MethodPost, URL: url, Err: err}
	}
	if !res.IsSuccess() {
		return "", &scaha.TransportError{Op: http.MethodPost, URL: url, StatusCode: res.StatusCode()}
	}

	body := string(res.Body())
	if err := partialResponseError(body); err != nil {
		return "", &scaha.TransportError{Op: http.MethodPost, URL: url, Err: err}
	}
	if m := viewStateUpdate.FindStringSubmatch(body); m != nil && m[1] != "" {
		session.ViewState = m[1]
	}

	log.Debug().
		Str("component", "jsf").
		Str("url", url).
		Int("fields", len(fields)).
		Int("bytes", len(body)).
		Msg("postback submitted")

	return body, nil
}

// ExtractUpdatedFragment returns the CDATA fragment that updates formID.
// When no update targets the form, every markup update found is concatenated.
// View state updates are never markup. It reports false when the response
// carries no markup update at all.
func ExtractUpdatedFragment(body, formID string) (string, bool) {
	targeted := regexp.MustCompile(`(?s)<update id="` + regexp.QuoteMeta(formID) + `"><!\[CDATA\[(.*?)\]\]></update>`)
	if m := targeted.FindStringSubmatch(body); m != nil && m[1] != "" {
		return m[1], true
	}

	var b strings.Builder
	for _, m := range updatePattern.FindAllStringSubmatch(body, -1) {
		if strings.Contains(m[1], ViewStateField) {
			continue
		}
		b.WriteString(m[2])
	}
	if b.Len() == 0 {
		return "", false
	}
	return b.String(), true
}

// partialResponseError reports the <error> and <redirect> answers a JSF
// server sends with a 200 status instead of markup.
func partialResponseError(body string) error {
	if !strings.Contains(body, "<partial-response") {
		return nil
	}
	if m := errorPattern.FindStringSubmatch(body); m != nil {
		return fmt.Errorf("server error %s: %s", strings.TrimSpace(m[1]), strings.TrimSpace(m[2]))
	}
	if m := redirectPattern.FindStringSubmatch(body); m != nil {
		return fmt.Errorf("server redirected to %s", m[1])
	}
	return nil
}

func sessionIDFrom(res *resty.Response) string {
	for _, cookie := range res.Cookies() {
		if cookie.Name == SessionCookie {
			return cookie.Value
		}
	}
	for _, header := range res.Header().Values("Set-Cookie") {
		if m := sessionCookiePattern.FindStringSubmatch(header); m != nil {
			return m[1]
		}
	}
	return ""
}
