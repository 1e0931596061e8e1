package session

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/entrhq/securedocs-e2e/pkg/browser"
	"github.com/entrhq/securedocs-e2e/pkg/browser/browsertest"
	"github.com/entrhq/securedocs-e2e/pkg/config"
	"github.com/entrhq/securedocs-e2e/pkg/logging"
	"github.com/entrhq/securedocs-e2e/pkg/metrics"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const baseURL = "https://app.test"

func testSettings() Settings {
	return Settings{
		BaseURL: baseURL,
		Credentials: map[AccountClass]Credential{
			StandardUser:  {Identifier: "user@securedocs.test", Secret: "UserPass123!"},
			Administrator: {Identifier: "admin@securedocs.test", Secret: "AdminPass123!"},
		},
		ElementTimeout:    30 * time.Millisecond,
		LandingTimeout:    50 * time.Millisecond,
		NavigationTimeout: 30 * time.Millisecond,
		PollInterval:      2 * time.Millisecond,
	}
}

func newTestManager(t *testing.T, app *browsertest.App) (*Manager, *browsertest.Driver, *metrics.Metrics) {
	t.Helper()
	driver := app.Driver()
	mx := metrics.NewMetrics()
	m := NewManager(driver, testSettings(),
		WithLogger(logging.FromZap(zaptest.NewLogger(t), "session")),
		WithMetrics(mx),
	)
	t.Cleanup(m.Cleanup)
	return m, driver, mx
}

func TestNewManagerDoesNotLaunch(t *testing.T) {
	m, driver, _ := newTestManager(t, browsertest.NewApp(baseURL))

	assert.Empty(t, driver.Events())
	assert.Equal(t, Uninitialized, m.State())
	assert.False(t, m.IsLoggedIn())
	assert.Equal(t, None, m.AccountClass())
}

func TestHandleIsIdempotent(t *testing.T) {
	m, driver, _ := newTestManager(t, browsertest.NewApp(baseURL))

	h1, err := m.Handle()
	require.NoError(t, err)
	h2, err := m.Handle()
	require.NoError(t, err)

	assert.Same(t, h1, h2)
	assert.Equal(t, 1, driver.Count(browsertest.EventLaunch))
	assert.Equal(t, HandleReady, m.State())
	assert.False(t, m.IsLoggedIn())
}

func TestHandleAppliesLaunchDefaults(t *testing.T) {
	m, driver, _ := newTestManager(t, browsertest.NewApp(baseURL))

	_, err := m.Handle()
	require.NoError(t, err)

	opts := driver.LaunchOptions()
	require.Len(t, opts, 1)
	assert.Equal(t, browser.Viewport{Width: 1920, Height: 1080}, opts[0].Viewport)
	assert.Equal(t, "en-US", opts[0].Locale)
}

func TestHandleCreationError(t *testing.T) {
	m, driver, mx := newTestManager(t, browsertest.NewApp(baseURL))
	launchErr := errors.New("executable doesn't exist")
	driver.LaunchErr = launchErr

	_, err := m.Login(StandardUser)
	require.Error(t, err)

	var hce *HandleCreationError
	require.ErrorAs(t, err, &hce)
	assert.ErrorIs(t, err, launchErr)
	assert.Equal(t, Uninitialized, m.State())
	assert.Equal(t, 1.0, testutil.ToFloat64(mx.BrowserLaunchesTotal.WithLabelValues("failure")))
}

func TestLoginCacheHit(t *testing.T) {
	m, driver, mx := newTestManager(t, browsertest.NewApp(baseURL))

	h1, err := m.Login(StandardUser)
	require.NoError(t, err)
	navigations := len(driver.Navigations())
	eventCount := len(driver.Events())

	h2, err := m.Login(StandardUser)
	require.NoError(t, err)

	assert.Same(t, h1, h2)
	assert.True(t, m.IsLoggedIn())
	assert.Equal(t, 1, navigations)
	assert.Len(t, driver.Events(), eventCount, "cache hit must not touch the browser")
	assert.Equal(t, 1, driver.Count(browsertest.EventLaunch))
	assert.Equal(t, 1.0, testutil.ToFloat64(mx.SessionCacheTotal.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mx.LoginsTotal.WithLabelValues("standard_user", "success")))
}

func TestLoginNoneMeansStandardUser(t *testing.T) {
	m, _, _ := newTestManager(t, browsertest.NewApp(baseURL))

	_, err := m.Login(None)
	require.NoError(t, err)
	assert.Equal(t, StandardUser, m.AccountClass())
	assert.Equal(t, "user@securedocs.test", m.Identifier())
}

func TestUnknownAccountClassRejected(t *testing.T) {
	unknown := AccountClass(7)
	cred := Credential{Identifier: "someone@securedocs.test", Secret: "Secret123!"}

	tests := []struct {
		name     string
		loggedIn bool
		call     func(m *Manager) (browser.Handle, error)
	}{
		{
			name: "LoginAs before any session",
			call: func(m *Manager) (browser.Handle, error) { return m.LoginAs(unknown, cred) },
		},
		{
			name: "NavigateToDashboard before any session",
			call: func(m *Manager) (browser.Handle, error) { return m.NavigateToDashboard(unknown) },
		},
		{
			name:     "LoginAs keeps the current session",
			loggedIn: true,
			call:     func(m *Manager) (browser.Handle, error) { return m.LoginAs(unknown, cred) },
		},
		{
			name:     "NavigateToDashboard keeps the current session",
			loggedIn: true,
			call:     func(m *Manager) (browser.Handle, error) { return m.NavigateToDashboard(unknown) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, driver, _ := newTestManager(t, browsertest.NewApp(baseURL))
			if tt.loggedIn {
				_, err := m.Login(StandardUser)
				require.NoError(t, err)
			}
			before := driver.Events()

			h, err := tt.call(m)
			require.Error(t, err)
			assert.ErrorContains(t, err, "unknown account class AccountClass(7)")
			assert.Nil(t, h)
			assert.Equal(t, before, driver.Events(), "no browser activity")

			if tt.loggedIn {
				assert.True(t, m.IsLoggedIn())
				assert.Equal(t, StandardUser, m.AccountClass())
				return
			}
			assert.False(t, m.IsLoggedIn())
			assert.Equal(t, Uninitialized, m.State())
		})
	}
}

func TestLoginLandsOnDashboard(t *testing.T) {
	tests := []struct {
		name    string
		class   AccountClass
		wantURL string
		marker  string
	}{
		{"standard user", StandardUser, "dashboard", `[data-page="user-dashboard"]`},
		{"administrator", Administrator, "admin", `[data-page="admin-dashboard"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, _ := newTestManager(t, browsertest.NewApp(baseURL))

			h, err := m.Login(tt.class)
			require.NoError(t, err)

			assert.Contains(t, h.CurrentURL(), tt.wantURL)
			assert.NotNil(t, h.(*browsertest.Handle).Get(tt.marker))
			assert.Equal(t, Authenticated, m.State())
			assert.Equal(t, tt.class, m.AccountClass())
		})
	}
}

func TestLoginAcceptsEitherLandingSignal(t *testing.T) {
	for _, mode := range []browsertest.LandingMode{browsertest.LandingURLOnly, browsertest.LandingMarkerOnly} {
		app := browsertest.NewApp(baseURL)
		app.Landing = mode
		m, _, _ := newTestManager(t, app)

		_, err := m.Login(StandardUser)
		require.NoError(t, err, "landing mode %d", mode)
		assert.True(t, m.IsLoggedIn())
	}
}

func TestLoginFillsCredentials(t *testing.T) {
	var email, password *browsertest.Element
	app := browsertest.NewApp(baseURL)
	driver := browsertest.NewDriver(func(h *browsertest.Handle) {
		app.Install(h)
		next := h.OnNavigate
		h.OnNavigate = func(h *browsertest.Handle, url string) error {
			err := next(h, url)
			if e := h.Get(`[name="email"]`); e != nil {
				email = e
				password = h.Get(`[name="password"]`)
			}
			return err
		}
	})
	m := NewManager(driver, testSettings(), WithLogger(logging.NewNop()))
	defer m.Cleanup()

	_, err := m.Login(Administrator)
	require.NoError(t, err)
	require.NotNil(t, email)
	assert.Equal(t, "admin@securedocs.test", email.Value)
	assert.Equal(t, "AdminPass123!", password.Value)
	assert.Equal(t, []string{baseURL + "/login"}, driver.Navigations())
}

func TestAccountSwitchInvalidatesSession(t *testing.T) {
	m, driver, _ := newTestManager(t, browsertest.NewApp(baseURL))

	_, err := m.Login(StandardUser)
	require.NoError(t, err)
	first := driver.Handles()[0]
	driver.Reset()

	h, err := m.Login(Administrator)
	require.NoError(t, err)

	assert.Equal(t, []string{
		browsertest.EventClose,
		browsertest.EventLaunch,
		browsertest.EventNavigate,
		browsertest.EventClick,
	}, driver.EventKinds())
	assert.True(t, first.Closed())
	assert.NotSame(t, first, h)
	assert.Equal(t, Administrator, m.AccountClass())
	assert.Len(t, driver.Open(), 1)
}

func TestExplicitIdentifierSwitch(t *testing.T) {
	app := browsertest.NewApp(baseURL)
	app.Users["other@securedocs.test"] = "OtherPass1!"
	m, driver, _ := newTestManager(t, app)

	_, err := m.Login(StandardUser)
	require.NoError(t, err)

	// Same class and identifier is a cache hit
	_, err = m.LoginAs(StandardUser, Credential{Identifier: "user@securedocs.test", Secret: "UserPass123!"})
	require.NoError(t, err)
	assert.Equal(t, 1, driver.Count(browsertest.EventLaunch))

	// Same class, different identifier starts over
	_, err = m.LoginAs(StandardUser, Credential{Identifier: "other@securedocs.test", Secret: "OtherPass1!"})
	require.NoError(t, err)
	assert.Equal(t, 2, driver.Count(browsertest.EventLaunch))
	assert.Equal(t, 1, driver.Count(browsertest.EventClose))
	assert.Equal(t, "other@securedocs.test", m.Identifier())
}

func TestCleanupIdempotent(t *testing.T) {
	m, driver, _ := newTestManager(t, browsertest.NewApp(baseURL))

	assert.NotPanics(t, m.Cleanup)
	assert.NotPanics(t, m.Cleanup)
	assert.Equal(t, Uninitialized, m.State())
	assert.False(t, m.IsLoggedIn())
	assert.Empty(t, driver.Events())

	_, err := m.Login(StandardUser)
	require.NoError(t, err)
	m.Cleanup()
	m.ResetSession()

	assert.Equal(t, 1, driver.Count(browsertest.EventClose))
	assert.Equal(t, Uninitialized, m.State())
	assert.Equal(t, None, m.AccountClass())
	assert.Empty(t, m.Identifier())
}

func TestCleanupSwallowsCloseError(t *testing.T) {
	m, driver, mx := newTestManager(t, browsertest.NewApp(baseURL))

	_, err := m.Login(StandardUser)
	require.NoError(t, err)
	driver.Handles()[0].CloseErr = errors.New("browser has disconnected")

	assert.NotPanics(t, m.Cleanup)
	assert.Equal(t, Uninitialized, m.State())
	assert.Equal(t, 1.0, testutil.ToFloat64(mx.CleanupsTotal.WithLabelValues("close_error")))
}

func TestLoginFailureRollsBack(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(app *browsertest.App)
		cred   Credential
		assert func(t *testing.T, err error)
	}{
		{
			name:  "landing never appears",
			setup: func(app *browsertest.App) { app.Landing = browsertest.LandingNever },
			assert: func(t *testing.T, err error) {
				var lte *LoginTimeoutError
				require.ErrorAs(t, err, &lte)
				assert.Equal(t, StandardUser, lte.Account)
				assert.True(t, browser.IsTimeout(err))
			},
		},
		{
			name: "wrong password",
			cred: Credential{Identifier: "user@securedocs.test", Secret: "nope"},
			assert: func(t *testing.T, err error) {
				var lte *LoginTimeoutError
				require.ErrorAs(t, err, &lte)
				assert.Contains(t, lte.URL, "/login")
			},
		},
		{
			name:  "login form missing",
			setup: func(app *browsertest.App) { app.NoLoginForm = true },
			assert: func(t *testing.T, err error) {
				var nf *ElementNotFoundError
				require.ErrorAs(t, err, &nf)
				assert.Equal(t, `[name="email"]`, nf.Locator.Selector())
			},
		},
		{
			name:  "navigation error",
			setup: func(app *browsertest.App) { app.NavigateErr = errors.New("net::ERR_CONNECTION_REFUSED") },
			assert: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "ERR_CONNECTION_REFUSED")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := browsertest.NewApp(baseURL)
			if tt.setup != nil {
				tt.setup(app)
			}
			m, driver, mx := newTestManager(t, app)

			_, err := m.LoginAs(StandardUser, tt.cred)
			require.Error(t, err)
			tt.assert(t, err)

			assert.False(t, m.IsLoggedIn())
			assert.Equal(t, Uninitialized, m.State())
			assert.Equal(t, None, m.AccountClass())
			assert.Empty(t, driver.Open(), "failed login must close the handle")
			assert.Equal(t, 1.0, testutil.ToFloat64(mx.LoginsTotal.WithLabelValues("standard_user", "failure")))
		})
	}
}

func TestFailedLoginIsNotCached(t *testing.T) {
	app := browsertest.NewApp(baseURL)
	app.Landing = browsertest.LandingNever
	m, driver, _ := newTestManager(t, app)

	_, err := m.Login(StandardUser)
	require.Error(t, err)

	app.Landing = browsertest.LandingBoth
	_, err = m.Login(StandardUser)
	require.NoError(t, err)
	assert.Equal(t, 2, driver.Count(browsertest.EventLaunch))
}

func TestNavigateToDashboardReusesSession(t *testing.T) {
	m, driver, _ := newTestManager(t, browsertest.NewApp(baseURL))

	_, err := m.Login(StandardUser)
	require.NoError(t, err)
	driver.Reset()

	// Already on the dashboard: nothing happens
	h, err := m.NavigateToDashboard(None)
	require.NoError(t, err)
	assert.Empty(t, driver.Events())

	// Elsewhere: one navigation, no login
	h.(*browsertest.Handle).SetURL(baseURL + "/files")
	_, err = m.NavigateToDashboard(StandardUser)
	require.NoError(t, err)
	assert.Equal(t, []string{baseURL + "/dashboard"}, driver.Navigations())
	assert.Equal(t, 0, driver.Count(browsertest.EventLaunch))
	assert.Equal(t, 0, driver.Count(browsertest.EventClick))
	assert.Contains(t, h.CurrentURL(), "dashboard")
}

func TestNavigateToDashboardLogsInFirst(t *testing.T) {
	m, driver, _ := newTestManager(t, browsertest.NewApp(baseURL))

	h, err := m.NavigateToDashboard(Administrator)
	require.NoError(t, err)

	assert.Equal(t, Administrator, m.AccountClass())
	assert.Contains(t, h.CurrentURL(), "admin")
	assert.Equal(t, []string{baseURL + "/login"}, driver.Navigations())
}

func TestNavigateToDashboardDefaultsToBoundClass(t *testing.T) {
	m, driver, _ := newTestManager(t, browsertest.NewApp(baseURL))

	_, err := m.Login(Administrator)
	require.NoError(t, err)
	driver.Handles()[0].SetURL(baseURL + "/files")
	driver.Reset()

	_, err = m.NavigateToDashboard(None)
	require.NoError(t, err)
	assert.Equal(t, []string{baseURL + "/admin"}, driver.Navigations())
	assert.Equal(t, Administrator, m.AccountClass())
}

func TestNavigateToDashboardTimeoutKeepsSession(t *testing.T) {
	app := browsertest.NewApp(baseURL)
	m, driver, mx := newTestManager(t, app)

	_, err := m.Login(StandardUser)
	require.NoError(t, err)

	h := driver.Handles()[0]
	h.SetURL(baseURL + "/files")
	h.OnNavigate = func(h *browsertest.Handle, url string) error {
		h.Clear()
		h.SetURL(baseURL + "/maintenance")
		return nil
	}

	_, err = m.NavigateToDashboard(StandardUser)
	require.Error(t, err)

	var nte *NavigationTimeoutError
	require.ErrorAs(t, err, &nte)
	assert.Equal(t, baseURL+"/dashboard", nte.Target)
	assert.Equal(t, baseURL+"/maintenance", nte.URL)
	assert.True(t, m.IsLoggedIn(), "navigation failure leaves the session authenticated")
	assert.Equal(t, 1.0, testutil.ToFloat64(mx.NavigationsTotal.WithLabelValues("standard_user", "failure")))
}

func TestCredentialsCopiedAtConstruction(t *testing.T) {
	settings := testSettings()
	m := NewManager(browsertest.NewApp(baseURL).Driver(), settings, WithLogger(logging.NewNop()))
	defer m.Cleanup()

	settings.Credentials[StandardUser] = Credential{Identifier: "mallory@evil.test", Secret: "x"}

	_, err := m.Login(StandardUser)
	require.NoError(t, err)
	assert.Equal(t, "user@securedocs.test", m.Identifier())
}

func TestLoginWithoutCredentials(t *testing.T) {
	settings := testSettings()
	delete(settings.Credentials, Administrator)
	m := NewManager(browsertest.NewApp(baseURL).Driver(), settings, WithLogger(logging.NewNop()))

	_, err := m.Login(Administrator)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no credentials configured")
	assert.Equal(t, Uninitialized, m.State())
}

func TestSettingsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Target.BaseURL = "https://staging.example.com/"
	cfg.Browser.Headless = false

	m := NewManager(browsertest.NewDriver(nil), SettingsFromConfig(cfg), WithLogger(logging.NewNop()))
	s := m.Settings()

	assert.Equal(t, "https://staging.example.com", s.BaseURL)
	assert.Equal(t, "admin@securedocs.test", s.Credentials[Administrator].Identifier)
	assert.False(t, s.Launch.Headless)
	assert.Equal(t, 20*time.Second, s.LandingTimeout)
	assert.Equal(t, 250*time.Millisecond, s.PollInterval)
}

func TestParseAccountClass(t *testing.T) {
	tests := []struct {
		in      string
		want    AccountClass
		wantErr bool
	}{
		{"", None, false},
		{"user", StandardUser, false},
		{"standard_user", StandardUser, false},
		{"Admin", Administrator, false},
		{"administrator", Administrator, false},
		{"root", None, true},
	}
	for _, tt := range tests {
		got, err := ParseAccountClass(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
