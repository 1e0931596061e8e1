package browser_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/securedocs-e2e/pkg/browser"
	"github.com/entrhq/securedocs-e2e/pkg/browser/browsertest"
)

func newHandle(t *testing.T) *browsertest.Handle {
	t.Helper()
	d := browsertest.NewDriver(nil)
	h, err := d.Launch(browser.LaunchOptions{})
	require.NoError(t, err)
	return h.(*browsertest.Handle)
}

var fast = browser.WaitOptions{Timeout: 50 * time.Millisecond, Interval: 5 * time.Millisecond}

func TestWaitUntil(t *testing.T) {
	marker := browser.DataPage("user-dashboard")

	tests := []struct {
		name    string
		setup   func(h *browsertest.Handle)
		cond    browser.Condition
		wantErr bool
	}{
		{
			name:  "element present",
			setup: func(h *browsertest.Handle) { h.Put(marker.Selector(), browsertest.NewElement("")) },
			cond:  browser.ElementPresent(marker),
		},
		{
			name:    "element missing",
			cond:    browser.ElementPresent(marker),
			wantErr: true,
		},
		{
			name:  "url contains",
			setup: func(h *browsertest.Handle) { h.SetURL("https://app.test/dashboard") },
			cond:  browser.URLContains("dashboard"),
		},
		{
			name:    "url does not contain",
			setup:   func(h *browsertest.Handle) { h.SetURL("https://app.test/login") },
			cond:    browser.URLContains("dashboard"),
			wantErr: true,
		},
		{
			name: "clickable skips hidden elements",
			setup: func(h *browsertest.Handle) {
				hidden := browsertest.NewElement("a")
				hidden.Hidden = true
				h.Put("button", hidden, browsertest.NewElement("b"))
			},
			cond: browser.ElementClickable(browser.CSS("button")),
		},
		{
			name: "disabled is not clickable",
			setup: func(h *browsertest.Handle) {
				el := browsertest.NewElement("a")
				el.Disabled = true
				h.Put("button", el)
			},
			cond:    browser.ElementClickable(browser.CSS("button")),
			wantErr: true,
		},
		{
			name:  "text contains",
			setup: func(h *browsertest.Handle) { h.SetContent("<html><body><p>Welcome back</p></body></html>") },
			cond:  browser.TextContains("Welcome back"),
		},
		{
			name:  "any of takes the first that holds",
			setup: func(h *browsertest.Handle) { h.SetURL("https://app.test/dashboard") },
			cond:  browser.AnyOf(browser.ElementPresent(marker), browser.URLContains("dashboard")),
		},
		{
			name:    "any of with none holding",
			setup:   func(h *browsertest.Handle) { h.SetURL("https://app.test/login") },
			cond:    browser.AnyOf(browser.ElementPresent(marker), browser.URLContains("dashboard")),
			wantErr: true,
		},
		{
			name: "not",
			cond: browser.Not(browser.ElementPresent(marker)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHandle(t)
			if tt.setup != nil {
				tt.setup(h)
			}
			err := browser.WaitUntil(h, tt.cond, fast)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, browser.IsTimeout(err))
				assert.Contains(t, err.Error(), tt.cond.Name)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestWaitUntilPollsUntilConditionHolds(t *testing.T) {
	h := newHandle(t)
	calls := 0
	cond := browser.Condition{
		Name: "third poll",
		Check: func(browser.Handle) (bool, error) {
			calls++
			return calls >= 3, nil
		},
	}

	err := browser.WaitUntil(h, cond, browser.WaitOptions{Timeout: time.Second, Interval: time.Millisecond})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWaitUntilZeroTimeoutChecksOnce(t *testing.T) {
	h := newHandle(t)
	calls := 0
	cond := browser.Condition{
		Name: "never",
		Check: func(browser.Handle) (bool, error) {
			calls++
			return false, nil
		},
	}

	err := browser.WaitUntil(h, cond, browser.WaitOptions{})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestWaitUntilKeepsLastError(t *testing.T) {
	h := newHandle(t)
	boom := errors.New("boom")
	h.QueryErr = boom

	err := browser.WaitUntil(h, browser.ElementPresent(browser.CSS("div")), fast)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var te *browser.TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, fast.Timeout, te.Timeout)
}

func TestFindElement(t *testing.T) {
	h := newHandle(t)
	field := browser.Name("email")
	quick := browser.WaitOptions{Timeout: 20 * time.Millisecond}

	_, err := browser.FindElement(h, field, quick)
	require.Error(t, err)
	assert.True(t, browser.IsNotFound(err))
	assert.True(t, browser.IsTimeout(err), "not-found wraps the wait timeout")

	var nf *browser.ElementNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, field, nf.Locator)
	assert.Equal(t, quick.Timeout, nf.Timeout)

	h.Put(field.Selector(), browsertest.NewElement("first"), browsertest.NewElement("second"))
	el, err := browser.FindElement(h, field, quick)
	require.NoError(t, err)
	text, err := el.Text()
	require.NoError(t, err)
	assert.Equal(t, "first", text)

	els, err := browser.FindElements(h, field, quick)
	require.NoError(t, err)
	assert.Len(t, els, 2)
}

func TestFindClickable(t *testing.T) {
	h := newHandle(t)
	hidden := browsertest.NewElement("hidden")
	hidden.Hidden = true
	h.Put("button", hidden, browsertest.NewElement("shown"))
	quick := browser.WaitOptions{Timeout: 20 * time.Millisecond}

	el, err := browser.FindClickable(h, browser.CSS("button"), quick)
	require.NoError(t, err)
	text, _ := el.Text()
	assert.Equal(t, "shown", text)
}

func TestHandleTitle(t *testing.T) {
	tests := []struct {
		name  string
		setup func(h *browsertest.Handle)
		want  string
	}{
		{
			name: "explicit title",
			setup: func(h *browsertest.Handle) {
				h.SetTitle("SecureDocs - Admin")
				h.SetContent("<html><head><title>ignored</title></head></html>")
			},
			want: "SecureDocs - Admin",
		},
		{
			name:  "title element of content",
			setup: func(h *browsertest.Handle) { h.SetContent("<html><head><title> SecureDocs - Sign in </title></head></html>") },
			want:  "SecureDocs - Sign in",
		},
		{
			name:  "content without title",
			setup: func(h *browsertest.Handle) { h.SetContent("<html><body><p>hello</p></body></html>") },
			want:  "",
		},
		{
			name:  "blank page",
			setup: func(h *browsertest.Handle) {},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHandle(t)
			tt.setup(h)
			got, err := h.Title()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// countingHandle counts Query calls on the wrapped handle.
type countingHandle struct {
	browser.Handle
	queries int
}

func (c *countingHandle) Query(loc browser.Locator) ([]browser.Element, error) {
	c.queries++
	return c.Handle.Query(loc)
}

func TestFindHonorsPollInterval(t *testing.T) {
	loc := browser.CSS(".missing")
	opts := browser.WaitOptions{Timeout: 80 * time.Millisecond, Interval: 5 * time.Millisecond}

	tests := []struct {
		name string
		find func(h browser.Handle) error
	}{
		{
			name: "FindElement",
			find: func(h browser.Handle) error {
				_, err := browser.FindElement(h, loc, opts)
				return err
			},
		},
		{
			name: "FindElements",
			find: func(h browser.Handle) error {
				_, err := browser.FindElements(h, loc, opts)
				return err
			},
		},
		{
			name: "FindClickable",
			find: func(h browser.Handle) error {
				_, err := browser.FindClickable(h, loc, opts)
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &countingHandle{Handle: newHandle(t)}
			err := tt.find(h)
			require.Error(t, err)
			assert.True(t, browser.IsNotFound(err))
			// The default interval would allow at most two checks in this window.
			assert.GreaterOrEqual(t, h.queries, 4)
		})
	}
}

func TestWaitOnClosedHandle(t *testing.T) {
	h := newHandle(t)
	require.NoError(t, h.Close())

	err := browser.WaitUntil(h, browser.ElementPresent(browser.CSS("div")), fast)
	require.Error(t, err)
	assert.ErrorIs(t, err, browser.ErrHandleClosed)
}
