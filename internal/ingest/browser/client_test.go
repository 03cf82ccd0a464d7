package browser

import (
	"context"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/scaha-mcp/internal/scahatest"
)

func TestIdleTrackerCountsInflightRequests(t *testing.T) {
	tracker := newIdleTracker()
	tracker.lastSeen = time.Now().Add(-time.Second)
	assert.True(t, tracker.settled(quietPeriod), "no traffic yet")

	tracker.handle(&network.EventRequestWillBeSent{RequestID: "r1"})
	tracker.handle(&network.EventRequestWillBeSent{RequestID: "r2"})
	assert.False(t, tracker.settled(0))

	tracker.handle(&network.EventLoadingFinished{RequestID: "r1"})
	assert.False(t, tracker.settled(0), "r2 still in flight")

	tracker.handle(&network.EventLoadingFailed{RequestID: "r2"})
	assert.True(t, tracker.settled(0))
	assert.False(t, tracker.settled(time.Hour), "quiet period restarts on every event")
}

func TestIdleTrackerIgnoresOtherEvents(t *testing.T) {
	tracker := newIdleTracker()
	before := time.Now().Add(-time.Second)
	tracker.lastSeen = before

	tracker.handle(&network.EventResponseReceived{RequestID: "r1"})
	tracker.handle("not an event")

	assert.Equal(t, before, tracker.lastSeen)
	assert.True(t, tracker.settled(quietPeriod))
}

func TestByIDQuotesJSFIdentifiers(t *testing.T) {
	assert.Equal(t, `[id="j_id_4d:j_id_4nInner"]`, byID("j_id_4d:j_id_4nInner"))
	assert.Equal(t, `[id="j_id_4d:playertotals"] tbody tr`, byID(scahatest.PlayersTable)+` tbody tr`)
}

func findChrome() string {
	if path := os.Getenv("CHROME_EXECUTABLE_PATH"); path != "" {
		return path
	}
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}

func TestPageOutlivesOpen(t *testing.T) {
	chrome := findChrome()
	if chrome == "" {
		t.Skip("no Chrome binary available")
	}

	srv := scahatest.NewServer()
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	page, err := NewClient(Options{ExecPath: chrome, Headless: true}).Open(ctx, srv.ScoreboardURL())
	require.NoError(t, err)
	defer page.Close()

	first, err := page.HTML(ctx)
	require.NoError(t, err)
	assert.Contains(t, first, scahatest.ScheduleField)

	second, err := page.HTML(ctx)
	require.NoError(t, err, "the browser must survive past Open")
	assert.Equal(t, first, second)

	require.NoError(t, page.SelectValue(ctx, scahatest.ScheduleField, "101"))
	html, err := page.HTML(ctx)
	require.NoError(t, err)
	assert.Contains(t, html, `value="101" selected="selected"`)
}

func TestClosedPageRejectsActions(t *testing.T) {
	chrome := findChrome()
	if chrome == "" {
		t.Skip("no Chrome binary available")
	}

	srv := scahatest.NewServer()
	defer srv.Close()

	ctx := context.Background()
	page, err := NewClient(Options{ExecPath: chrome, Headless: true}).Open(ctx, srv.ScoreboardURL())
	require.NoError(t, err)

	page.Close()
	_, err = page.HTML(ctx)
	assert.Error(t, err)
}
