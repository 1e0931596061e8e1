package pages

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/entrhq/securedocs-e2e/pkg/browser"
)

// Preview is the in-browser document viewer at /documents/<id>/preview.
type Preview struct {
	site Site
}

var (
	previewMarker  = browser.DataPage("preview")
	previewTitle   = browser.CSS("[data-testid=\"document-name\"]")
	previewCounter = browser.CSS("[data-page-count]")
	downloadLink   = browser.Attr("a", "data-action", "download")

	// "Page 1 of 12" or "12 pages"
	pageCountPattern = regexp.MustCompile(`(?i)(?:of\s+(\d+))|(?:(\d+)\s+pages?)`)
)

// NewPreview creates the preview page object.
func NewPreview(site Site) *Preview {
	return &Preview{site: site}
}

// OpenFromFiles opens the preview of a document listed on the file browser.
func (p *Preview) OpenFromFiles(h browser.Handle, document string) error {
	files := NewFiles(p.site)
	if err := files.Open(h); err != nil {
		return err
	}
	if err := p.site.click(h, action("preview").Within(documentRow(document))); err != nil {
		return err
	}
	return p.site.await(h, previewMarker)
}

// DocumentName returns the name shown in the viewer header.
func (p *Preview) DocumentName(h browser.Handle) (string, error) {
	el, err := browser.FindElement(h, previewTitle, p.site.elementOpts())
	if err != nil {
		return "", err
	}
	name, err := el.Text()
	return strings.TrimSpace(name), err
}

// PageCount reads the viewer's page counter. The data-page-count attribute
// wins; otherwise the count is parsed from the counter text.
func (p *Preview) PageCount(h browser.Handle) (int, error) {
	el, err := browser.FindElement(h, previewCounter, p.site.elementOpts())
	if err != nil {
		return 0, err
	}
	if v, ok, err := el.Attribute("data-page-count"); err == nil && ok && v != "" {
		n, convErr := strconv.Atoi(strings.TrimSpace(v))
		if convErr == nil {
			return n, nil
		}
	}
	text, err := el.Text()
	if err != nil {
		return 0, err
	}
	return ParsePageCount(text)
}

// ParsePageCount extracts the total from counter text such as "Page 1 of 3".
func ParsePageCount(text string) (int, error) {
	m := pageCountPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, fmt.Errorf("no page count in %q", text)
	}
	digits := m[1]
	if digits == "" {
		digits = m[2]
	}
	return strconv.Atoi(digits)
}

// DownloadURL returns the absolute URL of the viewer's download link.
func (p *Preview) DownloadURL(h browser.Handle) (string, error) {
	el, err := browser.FindElement(h, downloadLink, p.site.elementOpts())
	if err != nil {
		return "", err
	}
	href, ok, err := el.Attribute("href")
	if err != nil {
		return "", err
	}
	if !ok || href == "" {
		return "", fmt.Errorf("download link has no href")
	}
	return p.site.Resolve(href)
}
