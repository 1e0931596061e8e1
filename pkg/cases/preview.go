package cases

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/entrhq/securedocs-e2e/pkg/pages"
	"github.com/entrhq/securedocs-e2e/pkg/session"
	"github.com/entrhq/securedocs-e2e/pkg/suite"
)

func previewCases(d Data) []suite.Case {
	return []suite.Case{
		{
			Name:        "pdf-page-count",
			Category:    CategoryPreview,
			Account:     session.StandardUser,
			Description: "The preview's page counter matches the downloaded PDF",
			Run: func(ctx context.Context, env *suite.Env) error {
				preview := pages.NewPreview(env.Site)
				if err := preview.OpenFromFiles(env.Handle, d.Document); err != nil {
					return err
				}

				name, err := preview.DocumentName(env.Handle)
				if err != nil {
					return err
				}
				if name != d.Document {
					return fmt.Errorf("preview shows %q, want %q", name, d.Document)
				}

				shown, err := preview.PageCount(env.Handle)
				if err != nil {
					return err
				}
				url, err := preview.DownloadURL(env.Handle)
				if err != nil {
					return err
				}

				data, err := download(ctx, env.Handle, url, env.Site.Timeouts.Navigation)
				if err != nil {
					return err
				}
				if path, err := saveArtifact(env.Artifacts, filepath.Base(d.Document), data); err != nil {
					env.Log.Warnf("Could not keep downloaded document: %v", err)
				} else if path != "" {
					env.Log.Debugf("Saved downloaded document to %s", path)
				}

				actual, err := pdfPageCount(data)
				if err != nil {
					return err
				}
				if actual != shown {
					return fmt.Errorf("preview shows %d pages, downloaded PDF has %d", shown, actual)
				}
				return nil
			},
		},
	}
}
