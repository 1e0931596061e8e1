package testapp

import (
	"bytes"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/entrhq/securedocs-e2e/pkg/logging"
)

func init() {
	api.DisableConfigDir()
}

func newServer(t *testing.T) (*App, string, *http.Client) {
	t.Helper()
	opts := DefaultOptions()
	opts.Logger = logging.FromZap(zaptest.NewLogger(t), "testapp")
	app, err := New(opts)
	require.NoError(t, err)

	srv := app.Start()
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return app, srv.URL, &http.Client{Jar: jar}
}

func get(t *testing.T, client *http.Client, u string) (*http.Response, string) {
	t.Helper()
	resp, err := client.Get(u)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func post(t *testing.T, client *http.Client, u string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := client.PostForm(u, form)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func login(t *testing.T, client *http.Client, base, email, password string) (*http.Response, string) {
	t.Helper()
	return post(t, client, base+"/login", url.Values{"email": {email}, "password": {password}})
}

func TestUnauthenticatedRedirectsToLogin(t *testing.T) {
	_, base, client := newServer(t)

	for _, path := range []string{"/", "/dashboard", "/files", "/admin", "/upgrade"} {
		resp, body := get(t, client, base+path)
		assert.Equal(t, "/login", resp.Request.URL.Path, path)
		assert.Contains(t, body, `data-page="login"`, path)
	}
}

func TestLoginLandsOnRoleDashboard(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		path     string
		marker   string
	}{
		{"user", "user@securedocs.test", "UserPass123!", "/dashboard", `data-page="user-dashboard"`},
		{"admin", "admin@securedocs.test", "AdminPass123!", "/admin", `data-page="admin-dashboard"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, base, client := newServer(t)

			resp, body := login(t, client, base, tt.email, tt.password)
			assert.Equal(t, tt.path, resp.Request.URL.Path)
			assert.Contains(t, body, tt.marker)
			assert.Contains(t, body, `data-action="logout"`)
			assert.Equal(t, 1, app.ActiveSessions())

			u, _ := url.Parse(base)
			cookies := client.Jar.Cookies(u)
			require.Len(t, cookies, 1)
			assert.Equal(t, SessionCookie, cookies[0].Name)
		})
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	app, base, client := newServer(t)

	resp, body := login(t, client, base, "user@securedocs.test", "wrong")
	assert.Equal(t, "/login", resp.Request.URL.Path)
	assert.Contains(t, body, `class="alert-error"`)
	assert.Contains(t, body, "Invalid email or password")
	assert.Zero(t, app.ActiveSessions())
}

func TestStandardUserCannotOpenAdmin(t *testing.T) {
	_, base, client := newServer(t)
	login(t, client, base, "user@securedocs.test", "UserPass123!")

	resp, _ := get(t, client, base+"/admin/users")
	assert.Equal(t, "/login", resp.Request.URL.Path)
}

func TestLogoutEndsSession(t *testing.T) {
	app, base, client := newServer(t)
	login(t, client, base, "user@securedocs.test", "UserPass123!")

	resp, _ := get(t, client, base+"/logout")
	assert.Equal(t, "/login", resp.Request.URL.Path)
	assert.Zero(t, app.ActiveSessions())

	resp, _ = get(t, client, base+"/dashboard")
	assert.Equal(t, "/login", resp.Request.URL.Path)
}

func TestFolderLifecycle(t *testing.T) {
	app, base, client := newServer(t)
	const email = "user@securedocs.test"
	login(t, client, base, email, "UserPass123!")

	_, body := post(t, client, base+"/files/folders", url.Values{"folder_name": {"e2e-one"}})
	assert.Contains(t, body, `data-folder="e2e-one"`)

	_, body = post(t, client, base+"/files/folders/e2e-one/rename", url.Values{"new_name": {"e2e-two"}})
	assert.Contains(t, body, `data-folder="e2e-two"`)
	assert.NotContains(t, body, `data-folder="e2e-one"`)
	assert.Equal(t, []string{"e2e-two"}, app.Folders(email))

	_, body = post(t, client, base+"/files/folders/e2e-two/delete", nil)
	assert.NotContains(t, body, `data-folder=`)
	assert.Empty(t, app.Folders(email))
}

func TestSearch(t *testing.T) {
	_, base, client := newServer(t)
	login(t, client, base, "user@securedocs.test", "UserPass123!")

	_, body := get(t, client, base+"/search?q=HANDBOOK")
	assert.Contains(t, body, `data-result="handbook.pdf"`)
	assert.NotContains(t, body, "empty-state")

	_, body = get(t, client, base+"/search?q=nothing-here")
	assert.NotContains(t, body, "data-result=")
	assert.Contains(t, body, `class="empty-state"`)
}

func TestPreviewAndDownload(t *testing.T) {
	_, base, client := newServer(t)
	login(t, client, base, "user@securedocs.test", "UserPass123!")

	_, body := get(t, client, base+"/documents/1/preview")
	assert.Contains(t, body, `data-page-count="3"`)
	assert.Contains(t, body, "Page 1 of 3")

	resp, err := client.Get(base + "/documents/1/download")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	n, err := api.PageCount(bytes.NewReader(data), model.NewDefaultConfiguration())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	resp2, _ := get(t, client, base+"/documents/99/preview")
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func TestUpgradeCheckout(t *testing.T) {
	_, base, client := newServer(t)
	login(t, client, base, "user@securedocs.test", "UserPass123!")

	_, body := get(t, client, base+"/upgrade")
	for _, plan := range []string{"free", "pro", "business"} {
		assert.Contains(t, body, `data-plan="`+plan+`"`)
	}

	resp, body := post(t, client, base+"/upgrade/checkout", url.Values{"plan": {"pro"}})
	assert.Equal(t, "/upgrade/checkout", resp.Request.URL.Path)
	assert.Contains(t, body, `data-selected-plan="pro"`)
	assert.Contains(t, body, "Pro plan")

	resp, _ = post(t, client, base+"/upgrade/checkout", url.Values{"plan": {"enterprise"}})
	assert.Equal(t, "/upgrade", resp.Request.URL.Path)
}

func TestAdminPages(t *testing.T) {
	_, base, client := newServer(t)
	login(t, client, base, "admin@securedocs.test", "AdminPass123!")

	_, body := get(t, client, base+"/admin")
	assert.Contains(t, body, `data-stat="users">2<`)
	assert.Contains(t, body, `data-stat="documents">2<`)

	_, body = get(t, client, base+"/admin/users")
	assert.Contains(t, body, `data-user="admin@securedocs.test"`)
	assert.Contains(t, body, `data-user="user@securedocs.test"`)
	assert.Less(t, strings.Index(body, "admin@"), strings.Index(body, "user@"))
}

func TestNotFound(t *testing.T) {
	_, base, client := newServer(t)

	resp, body := get(t, client, base+"/missing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, `data-page="not-found"`)
}

func TestSamplePDFPageCounts(t *testing.T) {
	for _, pages := range []int{1, 2, 7} {
		n, err := api.PageCount(bytes.NewReader(SamplePDF(pages)), model.NewDefaultConfiguration())
		require.NoError(t, err)
		assert.Equal(t, pages, n)
	}
}
