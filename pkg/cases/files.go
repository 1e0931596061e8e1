package cases

import (
	"context"
	"fmt"

	"github.com/entrhq/securedocs-e2e/pkg/browser"
	"github.com/entrhq/securedocs-e2e/pkg/pages"
	"github.com/entrhq/securedocs-e2e/pkg/session"
	"github.com/entrhq/securedocs-e2e/pkg/suite"
)

func fileCases(d Data) []suite.Case {
	return []suite.Case{
		{
			Name:        "create-folder",
			Category:    CategoryFiles,
			Account:     session.StandardUser,
			Description: "A new folder appears in the file list",
			Run: func(_ context.Context, env *suite.Env) error {
				files := pages.NewFiles(env.Site)
				name := uniqueName(d.FolderPrefix)
				if err := files.Open(env.Handle); err != nil {
					return err
				}
				if err := files.CreateFolder(env.Handle, name); err != nil {
					return err
				}
				defer removeFolder(env, files, name)

				if err := files.Open(env.Handle); err != nil {
					return err
				}
				return expectFolder(env.Handle, files, name, true)
			},
		},
		{
			Name:        "rename-folder",
			Category:    CategoryFiles,
			Account:     session.StandardUser,
			Description: "A renamed folder is listed under its new name only",
			Run: func(_ context.Context, env *suite.Env) error {
				files := pages.NewFiles(env.Site)
				from, to := uniqueName(d.FolderPrefix), uniqueName(d.FolderPrefix)
				if err := files.Open(env.Handle); err != nil {
					return err
				}
				if err := files.CreateFolder(env.Handle, from); err != nil {
					return err
				}
				if err := files.RenameFolder(env.Handle, from, to); err != nil {
					removeFolder(env, files, from)
					return err
				}
				defer removeFolder(env, files, to)

				if err := expectFolder(env.Handle, files, from, false); err != nil {
					return err
				}
				return expectFolder(env.Handle, files, to, true)
			},
		},
		{
			Name:        "delete-folder",
			Category:    CategoryFiles,
			Account:     session.StandardUser,
			Description: "A deleted folder disappears from the file list",
			Run: func(_ context.Context, env *suite.Env) error {
				files := pages.NewFiles(env.Site)
				name := uniqueName(d.FolderPrefix)
				if err := files.Open(env.Handle); err != nil {
					return err
				}
				if err := files.CreateFolder(env.Handle, name); err != nil {
					return err
				}
				if err := files.DeleteFolder(env.Handle, name); err != nil {
					return err
				}

				if err := files.Open(env.Handle); err != nil {
					return err
				}
				return expectFolder(env.Handle, files, name, false)
			},
		},
	}
}

// expectFolder checks folder presence without waiting. Driver failures are
// errors either way.
func expectFolder(h browser.Handle, files *pages.Files, name string, present bool) error {
	r := files.Folder(h, name)
	switch r.Kind {
	case browser.KindNone:
		if !present {
			return fmt.Errorf("folder %q is still listed", name)
		}
	case browser.KindNotFound:
		if present {
			return fmt.Errorf("folder %q is not listed", name)
		}
	default:
		return fmt.Errorf("checking folder %q: %w", name, r.Err)
	}
	return nil
}

// removeFolder deletes a folder a case created, logging instead of failing.
func removeFolder(env *suite.Env, files *pages.Files, name string) {
	if files.Folder(env.Handle, name).Kind == browser.KindNotFound {
		if err := files.Open(env.Handle); err != nil {
			env.Log.Warnf("Could not reopen files to remove %q: %v", name, err)
			return
		}
	}
	if err := files.DeleteFolder(env.Handle, name); err != nil {
		env.Log.Warnf("Could not remove folder %q: %v", name, err)
	}
}
