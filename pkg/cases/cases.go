// Package cases holds the SecureDocs end-to-end scenarios.
package cases

import (
	"github.com/google/uuid"

	"github.com/entrhq/securedocs-e2e/pkg/suite"
)

// Categories
const (
	CategoryAuth       = "auth"
	CategoryNavigation = "navigation"
	CategoryFiles      = "files"
	CategorySearch     = "search"
	CategoryPreview    = "preview"
	CategoryPremium    = "premium"
	CategoryAdmin      = "admin"
)

// Data is the seeded content the scenarios rely on.
type Data struct {
	// Document is a PDF present in every standard user's file list
	Document string

	// SearchTerm matches Document by name
	SearchTerm string

	// Plans are the plan identifiers the upgrade page must offer
	Plans []string

	// CheckoutPlan is the plan taken through checkout
	CheckoutPlan string

	// FolderPrefix prefixes folders the file cases create
	FolderPrefix string
}

// DefaultData describes the standard SecureDocs demo tenant.
func DefaultData() Data {
	return Data{
		Document:     "handbook.pdf",
		SearchTerm:   "handbook",
		Plans:        []string{"free", "pro", "business"},
		CheckoutPlan: "pro",
		FolderPrefix: "e2e-",
	}
}

// uniqueName returns prefix plus a short random suffix, so reruns against a
// shared tenant never collide.
func uniqueName(prefix string) string {
	return prefix + uuid.NewString()[:8]
}

// All returns every scenario, grouped by category.
func All(d Data) []suite.Case {
	var all []suite.Case
	all = append(all, authCases()...)
	all = append(all, navigationCases()...)
	all = append(all, fileCases(d)...)
	all = append(all, searchCases(d)...)
	all = append(all, previewCases(d)...)
	all = append(all, premiumCases(d)...)
	all = append(all, adminCases()...)
	return all
}

// Register adds every scenario to reg.
func Register(reg *suite.Registry, d Data) error {
	for _, c := range All(d) {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
