package pages

import (
	"fmt"

	"github.com/entrhq/securedocs-e2e/pkg/browser"
)

// Files is the file browser at /files: a folder list with per-row rename and
// delete forms, a new-folder form and the document list.
type Files struct {
	site Site
}

var (
	filesMarker      = browser.DataPage("files")
	folderNameField  = browser.Name("folder_name")
	createFolder     = action("create-folder")
	anyFolder        = browser.CSS("[data-folder]")
	anyDocument      = browser.CSS("[data-document]")
	renameFieldInRow = browser.Name("new_name")
)

// NewFiles creates the file browser page object.
func NewFiles(site Site) *Files {
	return &Files{site: site}
}

func folderRow(name string) browser.Locator {
	return browser.Attr("", "data-folder", name)
}

func documentRow(name string) browser.Locator {
	return browser.Attr("", "data-document", name)
}

// Open navigates to the file browser.
func (p *Files) Open(h browser.Handle) error {
	return p.site.open(h, "/files", filesMarker)
}

// CreateFolder submits the new-folder form and waits for the folder row.
func (p *Files) CreateFolder(h browser.Handle, name string) error {
	if err := p.site.fill(h, folderNameField, name); err != nil {
		return err
	}
	if err := p.site.click(h, createFolder); err != nil {
		return err
	}
	if err := browser.WaitUntil(h, browser.ElementPresent(folderRow(name)), p.site.navOpts()); err != nil {
		return fmt.Errorf("folder %q was not created: %w", name, err)
	}
	return nil
}

// RenameFolder renames a folder through its row form and waits until only the
// new name is listed.
func (p *Files) RenameFolder(h browser.Handle, from, to string) error {
	row := folderRow(from)
	if err := p.site.fill(h, renameFieldInRow.Within(row), to); err != nil {
		return err
	}
	if err := p.site.click(h, action("rename").Within(row)); err != nil {
		return err
	}
	renamed := browser.Condition{
		Name: fmt.Sprintf("folder %q renamed to %q", from, to),
		Check: func(h browser.Handle) (bool, error) {
			if ok, err := browser.ElementPresent(folderRow(to)).Check(h); !ok || err != nil {
				return false, err
			}
			return browser.Not(browser.ElementPresent(row)).Check(h)
		},
	}
	return browser.WaitUntil(h, renamed, p.site.navOpts())
}

// DeleteFolder deletes a folder through its row form and waits for the row to go.
func (p *Files) DeleteFolder(h browser.Handle, name string) error {
	row := folderRow(name)
	if err := p.site.click(h, action("delete").Within(row)); err != nil {
		return err
	}
	if err := browser.WaitUntil(h, browser.Not(browser.ElementPresent(row)), p.site.navOpts()); err != nil {
		return fmt.Errorf("folder %q was not deleted: %w", name, err)
	}
	return nil
}

// Folder probes for a folder row. A missing folder is a NotFound result,
// not an error.
func (p *Files) Folder(h browser.Handle, name string) browser.Result[browser.Element] {
	return browser.Probe(h, folderRow(name))
}

// Folders lists the folder names currently shown.
func (p *Files) Folders(h browser.Handle) ([]string, error) {
	return attrs(h, anyFolder, "data-folder")
}

// Documents lists the document names currently shown.
func (p *Files) Documents(h browser.Handle) ([]string, error) {
	return attrs(h, anyDocument, "data-document")
}
