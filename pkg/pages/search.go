package pages

import (
	"net/url"

	"github.com/entrhq/securedocs-e2e/pkg/browser"
)

// Search is the document search view at /search.
type Search struct {
	site Site
}

var (
	searchMarker  = browser.DataPage("search")
	searchField   = browser.Name("q")
	searchSubmit  = action("search")
	searchResult  = browser.CSS("[data-result]")
	searchNoMatch = browser.CSS(".empty-state")
)

// NewSearch creates the search page object.
func NewSearch(site Site) *Search {
	return &Search{site: site}
}

// Open navigates to the empty search view.
func (p *Search) Open(h browser.Handle) error {
	return p.site.open(h, "/search", searchMarker)
}

// OpenQuery navigates straight to the results for query.
func (p *Search) OpenQuery(h browser.Handle, query string) error {
	return p.site.open(h, "/search?q="+url.QueryEscape(query), searchMarker)
}

// Query submits the search form and waits for either results or the empty state.
func (p *Search) Query(h browser.Handle, query string) ([]string, error) {
	if err := p.site.fill(h, searchField, query); err != nil {
		return nil, err
	}
	if err := p.site.click(h, searchSubmit); err != nil {
		return nil, err
	}
	return p.Results(h)
}

// Results waits for the result list to settle and returns the result names.
// No results is an empty slice, not an error.
func (p *Search) Results(h browser.Handle) ([]string, error) {
	settled := browser.AnyOf(browser.ElementPresent(searchResult), browser.ElementPresent(searchNoMatch))
	if err := browser.WaitUntil(h, settled, p.site.navOpts()); err != nil {
		return nil, err
	}
	return attrs(h, searchResult, "data-result")
}

// EmptyMessage returns the empty-state text, or "" when results are shown.
func (p *Search) EmptyMessage(h browser.Handle) (string, error) {
	r := browser.Probe(h, searchNoMatch)
	if r.Kind == browser.KindNotFound {
		return "", nil
	}
	el, err := r.Unwrap()
	if err != nil {
		return "", err
	}
	return el.Text()
}
