// Package testapp is an in-process SecureDocs stand-in for live browser tests.
//
// It serves plain HTML forms with the same markers and controls as the real
// application, so the page objects and the session manager can be exercised
// end to end without network access.
package testapp

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"html/template"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/entrhq/securedocs-e2e/pkg/logging"
)

// SessionCookie carries the login session.
const SessionCookie = "sd_session"

var fixedModTime = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// Document is a stored file.
type Document struct {
	ID    int
	Name  string
	Pages int
	data  []byte
}

// Account is a login known to the app.
type Account struct {
	Email    string
	Password string
	Admin    bool
}

// Role returns the account's display role.
func (a Account) Role() string {
	if a.Admin {
		return "administrator"
	}
	return "user"
}

// Options seeds the app.
type Options struct {
	Accounts  []Account
	Documents []Document
	Plans     []string
	Logger    *logging.Logger
}

// DefaultOptions seeds the suite's built-in accounts, a three-page handbook
// and the standard plans.
func DefaultOptions() Options {
	return Options{
		Accounts: []Account{
			{Email: "user@securedocs.test", Password: "UserPass123!"},
			{Email: "admin@securedocs.test", Password: "AdminPass123!", Admin: true},
		},
		Documents: []Document{
			{Name: "handbook.pdf", Pages: 3},
			{Name: "quarterly-report.pdf", Pages: 5},
		},
		Plans: []string{"free", "pro", "business"},
	}
}

// App is the fake application.
type App struct {
	log    *logging.Logger
	views  map[string]*template.Template
	router *mux.Router

	mu        sync.Mutex
	accounts  map[string]Account
	sessions  map[string]string
	folders   map[string][]string
	documents []Document
	plans     []string
}

// New creates an app from opts.
func New(opts Options) (*App, error) {
	views, err := parseViews()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	a := &App{
		log:      opts.Logger,
		views:    views,
		accounts: make(map[string]Account),
		sessions: make(map[string]string),
		folders:  make(map[string][]string),
		plans:    append([]string(nil), opts.Plans...),
	}
	if a.log == nil {
		a.log = logging.NewLogger("testapp")
	}
	for _, acc := range opts.Accounts {
		a.accounts[acc.Email] = acc
	}
	for i, doc := range opts.Documents {
		doc.ID = i + 1
		if doc.data == nil {
			doc.data = SamplePDF(doc.Pages)
		}
		a.documents = append(a.documents, doc)
	}
	a.router = a.routes()
	return a, nil
}

// Start serves the app on a loopback listener. Close the returned server when done.
func (a *App) Start() *httptest.Server {
	return httptest.NewServer(a)
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// Folders returns a user's folder names.
func (a *App) Folders(email string) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.folders[email]...)
}

// ActiveSessions counts live login sessions.
func (a *App) ActiveSessions() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.sessions)
}

func (a *App) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	})
	r.HandleFunc("/login", a.loginPage).Methods(http.MethodGet)
	r.HandleFunc("/login", a.loginSubmit).Methods(http.MethodPost)
	r.HandleFunc("/logout", a.logout)

	r.HandleFunc("/dashboard", a.requireUser(a.dashboard)).Methods(http.MethodGet)
	r.HandleFunc("/files", a.requireUser(a.files)).Methods(http.MethodGet)
	r.HandleFunc("/files/folders", a.requireUser(a.createFolder)).Methods(http.MethodPost)
	r.HandleFunc("/files/folders/{name}/rename", a.requireUser(a.renameFolder)).Methods(http.MethodPost)
	r.HandleFunc("/files/folders/{name}/delete", a.requireUser(a.deleteFolder)).Methods(http.MethodPost)
	r.HandleFunc("/search", a.requireUser(a.search)).Methods(http.MethodGet)
	r.HandleFunc("/documents/{id:[0-9]+}/preview", a.requireUser(a.preview)).Methods(http.MethodGet)
	r.HandleFunc("/documents/{id:[0-9]+}/download", a.requireUser(a.download)).Methods(http.MethodGet)
	r.HandleFunc("/upgrade", a.requireUser(a.upgrade)).Methods(http.MethodGet)
	r.HandleFunc("/upgrade/checkout", a.requireUser(a.choosePlan)).Methods(http.MethodPost)
	r.HandleFunc("/upgrade/checkout", a.requireUser(a.checkout)).Methods(http.MethodGet)

	r.HandleFunc("/admin", a.requireAdmin(a.adminDashboard)).Methods(http.MethodGet)
	r.HandleFunc("/admin/users", a.requireAdmin(a.adminUsers)).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.render(w, http.StatusNotFound, "not-found", "Not Found", "", nil)
	})
	return r
}

type userHandler func(w http.ResponseWriter, r *http.Request, acc Account)

// currentAccount resolves the session cookie.
func (a *App) currentAccount(r *http.Request) (Account, bool) {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return Account{}, false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	email, ok := a.sessions[c.Value]
	if !ok {
		return Account{}, false
	}
	acc, ok := a.accounts[email]
	return acc, ok
}

func (a *App) requireUser(next userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acc, ok := a.currentAccount(r)
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r, acc)
	}
}

func (a *App) requireAdmin(next userHandler) http.HandlerFunc {
	return a.requireUser(func(w http.ResponseWriter, r *http.Request, acc Account) {
		if !acc.Admin {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r, acc)
	})
}

type loginData struct {
	Email string
	Error string
}

func (a *App) loginPage(w http.ResponseWriter, r *http.Request) {
	a.render(w, http.StatusOK, "login", "Sign in", "", loginData{})
}

func (a *App) loginSubmit(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")

	a.mu.Lock()
	acc, ok := a.accounts[email]
	a.mu.Unlock()
	if !ok || acc.Password != password {
		a.log.Debugf("Rejected login for %s", email)
		a.render(w, http.StatusOK, "login", "Sign in", "", loginData{Email: email, Error: "Invalid email or password"})
		return
	}

	token := newToken()
	a.mu.Lock()
	a.sessions[token] = email
	a.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: token, Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
	a.log.Debugf("Logged in %s", email)
	if acc.Admin {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (a *App) logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(SessionCookie); err == nil {
		a.mu.Lock()
		delete(a.sessions, c.Value)
		a.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

type dashboardData struct {
	Folders   []string
	Documents []Document
}

func (a *App) dashboard(w http.ResponseWriter, r *http.Request, acc Account) {
	a.mu.Lock()
	data := dashboardData{Folders: append([]string(nil), a.folders[acc.Email]...), Documents: a.documents}
	a.mu.Unlock()
	a.render(w, http.StatusOK, "dashboard", "Dashboard", acc.Email, data)
}

func (a *App) files(w http.ResponseWriter, r *http.Request, acc Account) {
	a.mu.Lock()
	data := dashboardData{Folders: append([]string(nil), a.folders[acc.Email]...), Documents: a.documents}
	a.mu.Unlock()
	a.render(w, http.StatusOK, "files", "Files", acc.Email, data)
}

func (a *App) createFolder(w http.ResponseWriter, r *http.Request, acc Account) {
	name := strings.TrimSpace(r.PostFormValue("folder_name"))
	if name != "" {
		a.mu.Lock()
		if !slices.Contains(a.folders[acc.Email], name) {
			a.folders[acc.Email] = append(a.folders[acc.Email], name)
		}
		a.mu.Unlock()
	}
	http.Redirect(w, r, "/files", http.StatusSeeOther)
}

func (a *App) renameFolder(w http.ResponseWriter, r *http.Request, acc Account) {
	from := folderParam(r)
	to := strings.TrimSpace(r.PostFormValue("new_name"))
	if to != "" {
		a.mu.Lock()
		folders := a.folders[acc.Email]
		if i := slices.Index(folders, from); i >= 0 && !slices.Contains(folders, to) {
			folders[i] = to
		}
		a.mu.Unlock()
	}
	http.Redirect(w, r, "/files", http.StatusSeeOther)
}

func (a *App) deleteFolder(w http.ResponseWriter, r *http.Request, acc Account) {
	name := folderParam(r)
	a.mu.Lock()
	a.folders[acc.Email] = slices.DeleteFunc(a.folders[acc.Email], func(f string) bool { return f == name })
	a.mu.Unlock()
	http.Redirect(w, r, "/files", http.StatusSeeOther)
}

func folderParam(r *http.Request) string {
	name := mux.Vars(r)["name"]
	if unescaped, err := url.PathUnescape(name); err == nil {
		return unescaped
	}
	return name
}

type searchData struct {
	Query   string
	Results []Document
}

func (a *App) search(w http.ResponseWriter, r *http.Request, acc Account) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	data := searchData{Query: q}
	if q != "" {
		needle := strings.ToLower(q)
		for _, doc := range a.documents {
			if strings.Contains(strings.ToLower(doc.Name), needle) {
				data.Results = append(data.Results, doc)
			}
		}
	}
	a.render(w, http.StatusOK, "search", "Search", acc.Email, data)
}

func (a *App) document(r *http.Request) (Document, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id < 1 || id > len(a.documents) {
		return Document{}, false
	}
	return a.documents[id-1], true
}

func (a *App) preview(w http.ResponseWriter, r *http.Request, acc Account) {
	doc, ok := a.document(r)
	if !ok {
		a.render(w, http.StatusNotFound, "not-found", "Not Found", acc.Email, nil)
		return
	}
	a.render(w, http.StatusOK, "preview", doc.Name, acc.Email, struct{ Document Document }{doc})
}

func (a *App) download(w http.ResponseWriter, r *http.Request, _ Account) {
	doc, ok := a.document(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Name))
	http.ServeContent(w, r, doc.Name, fixedModTime, bytes.NewReader(doc.data))
}

func (a *App) upgrade(w http.ResponseWriter, r *http.Request, acc Account) {
	a.render(w, http.StatusOK, "upgrade", "Upgrade", acc.Email, struct{ Plans []string }{a.plans})
}

func (a *App) choosePlan(w http.ResponseWriter, r *http.Request, _ Account) {
	plan := r.PostFormValue("plan")
	if !slices.Contains(a.plans, plan) {
		http.Redirect(w, r, "/upgrade", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/upgrade/checkout?plan="+url.QueryEscape(plan), http.StatusSeeOther)
}

func (a *App) checkout(w http.ResponseWriter, r *http.Request, acc Account) {
	a.render(w, http.StatusOK, "checkout", "Checkout", acc.Email, struct{ Plan string }{r.URL.Query().Get("plan")})
}

func (a *App) adminDashboard(w http.ResponseWriter, r *http.Request, acc Account) {
	a.mu.Lock()
	folders := 0
	for _, f := range a.folders {
		folders += len(f)
	}
	stats := map[string]int{
		"users":     len(a.accounts),
		"documents": len(a.documents),
		"folders":   folders,
		"sessions":  len(a.sessions),
	}
	a.mu.Unlock()
	a.render(w, http.StatusOK, "admin", "Admin", acc.Email, struct{ Stats map[string]int }{stats})
}

func (a *App) adminUsers(w http.ResponseWriter, r *http.Request, acc Account) {
	a.mu.Lock()
	users := make([]Account, 0, len(a.accounts))
	for _, u := range a.accounts {
		users = append(users, u)
	}
	a.mu.Unlock()
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	a.render(w, http.StatusOK, "admin-users", "Users", acc.Email, struct{ Users []Account }{users})
}

type layoutData struct {
	Title string
	User  string
	Data  any
}

func (a *App) render(w http.ResponseWriter, status int, view, title, user string, data any) {
	t, ok := a.views[view]
	if !ok {
		http.Error(w, "unknown view "+view, http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", layoutData{Title: title, User: user, Data: data}); err != nil {
		a.log.Errorf("Failed to render %s: %v", view, err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func newToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
