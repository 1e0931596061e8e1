package testapp

import (
	"html/template"

	"github.com/Masterminds/sprig/v3"
)

// Markup follows the contract in pkg/pages: every view has a data-page
// marker and every control a data-action.
const pageTemplates = `
{{define "layout"}}<!DOCTYPE html>
<html lang="en">
<head><title>SecureDocs - {{.Title}}</title><style>.hidden{display:none}</style></head>
<body>
{{if .User}}<nav><span data-testid="user-email">{{.User}}</span> <a data-action="logout" href="/logout">Log out</a></nav>{{end}}
{{template "content" .}}
</body>
</html>{{end}}

{{define "login"}}
<main data-page="login">
  <h1>Sign in</h1>
  {{with .Error}}<div class="alert-error" role="alert">{{.}}</div>{{end}}
  <form method="post" action="/login">
    <input type="email" name="email" value="{{.Email}}">
    <input type="password" name="password">
    <button type="submit">Sign in</button>
  </form>
</main>{{end}}

{{define "dashboard"}}
<main data-page="user-dashboard">
  <h1>Welcome back</h1>
  <p>{{len .Folders}} {{if eq (len .Folders) 1}}folder{{else}}folders{{end}}, {{len .Documents}} documents</p>
  <a href="/files">Files</a> <a href="/search">Search</a> <a href="/upgrade">Upgrade</a>
</main>{{end}}

{{define "admin"}}
<main data-page="admin-dashboard">
  <h1>Administration</h1>
  {{range $name, $value := .Stats}}<div class="tile"><span>{{$name | title}}</span> <strong data-stat="{{$name}}">{{$value}}</strong></div>
  {{end}}
  <a href="/admin/users">Users</a>
</main>{{end}}

{{define "admin-users"}}
<main data-page="admin-users">
  <table>
  {{range .Users}}<tr data-user="{{.Email}}"><td>{{.Email}}</td><td>{{.Role}}</td></tr>
  {{end}}
  </table>
</main>{{end}}

{{define "files"}}
<main data-page="files">
  <form method="post" action="/files/folders">
    <input name="folder_name" placeholder="New folder">
    <button type="submit" data-action="create-folder">Create</button>
  </form>
  <ul>
  {{range .Folders}}<li data-folder="{{.}}"><span>{{.}}</span>
    <form method="post" action="/files/folders/{{.}}/rename"><input name="new_name"><button type="submit" data-action="rename">Rename</button></form>
    <form method="post" action="/files/folders/{{.}}/delete"><button type="submit" data-action="delete">Delete</button></form>
  </li>
  {{end}}
  </ul>
  <ul>
  {{range .Documents}}<li data-document="{{.Name}}"><span>{{.Name}}</span> <a data-action="preview" href="/documents/{{.ID}}/preview">Preview</a></li>
  {{end}}
  </ul>
</main>{{end}}

{{define "search"}}
<main data-page="search">
  <form method="get" action="/search">
    <input name="q" value="{{.Query}}">
    <button type="submit" data-action="search">Search</button>
  </form>
  {{if .Query}}{{if .Results}}<ul>{{range .Results}}<li data-result="{{.Name}}"><a href="/documents/{{.ID}}/preview">{{.Name}}</a></li>{{end}}</ul>
  {{else}}<p class="empty-state">No documents match "{{.Query | trunc 40}}"</p>{{end}}{{end}}
</main>{{end}}

{{define "preview"}}
<main data-page="preview">
  <h1 data-testid="document-name">{{.Document.Name}}</h1>
  <span data-page-count="{{.Document.Pages}}">Page 1 of {{.Document.Pages}}</span>
  <a data-action="download" href="/documents/{{.Document.ID}}/download">Download</a>
</main>{{end}}

{{define "upgrade"}}
<main data-page="upgrade">
  {{range .Plans}}<div data-plan="{{.}}"><h2>{{. | title}}</h2>
    <form method="post" action="/upgrade/checkout"><input type="hidden" name="plan" value="{{.}}"><button type="submit" data-action="choose-plan">Choose {{. | title}}</button></form>
  </div>
  {{end}}
</main>{{end}}

{{define "checkout"}}
<main data-page="checkout">
  <h1>Checkout</h1>
  <p data-selected-plan="{{.Plan}}">{{.Plan | title}} plan</p>
</main>{{end}}

{{define "not-found"}}
<main data-page="not-found"><h1>Page not found</h1></main>{{end}}
`

// parseViews maps each view to a template set of the layout plus that view as "content".
func parseViews() (map[string]*template.Template, error) {
	base, err := template.New("securedocs").Funcs(sprig.FuncMap()).Parse(pageTemplates)
	if err != nil {
		return nil, err
	}
	views := make(map[string]*template.Template)
	for _, name := range []string{"login", "dashboard", "admin", "admin-users", "files", "search", "preview", "upgrade", "checkout", "not-found"} {
		t, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.New("content").Parse(`{{template "` + name + `" .Data}}`); err != nil {
			return nil, err
		}
		views[name] = t
	}
	return views, nil
}
