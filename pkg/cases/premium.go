package cases

import (
	"context"
	"fmt"
	"slices"

	"github.com/entrhq/securedocs-e2e/pkg/pages"
	"github.com/entrhq/securedocs-e2e/pkg/session"
	"github.com/entrhq/securedocs-e2e/pkg/suite"
)

func premiumCases(d Data) []suite.Case {
	return []suite.Case{
		{
			Name:        "plans-listed",
			Category:    CategoryPremium,
			Account:     session.StandardUser,
			Description: "The upgrade page offers every plan",
			Run: func(_ context.Context, env *suite.Env) error {
				upgrade := pages.NewUpgrade(env.Site)
				if err := upgrade.Open(env.Handle); err != nil {
					return err
				}
				plans, err := upgrade.Plans(env.Handle)
				if err != nil {
					return err
				}
				for _, want := range d.Plans {
					if !slices.Contains(plans, want) {
						return fmt.Errorf("plan %q missing from %v", want, plans)
					}
				}
				return nil
			},
		},
		{
			Name:        "upgrade-checkout",
			Category:    CategoryPremium,
			Account:     session.StandardUser,
			Description: "Choosing a plan opens checkout for that plan",
			Run: func(_ context.Context, env *suite.Env) error {
				upgrade := pages.NewUpgrade(env.Site)
				if err := upgrade.Open(env.Handle); err != nil {
					return err
				}
				plans, err := upgrade.Plans(env.Handle)
				if err != nil {
					return err
				}
				if !slices.Contains(plans, d.CheckoutPlan) {
					return suite.Skip("plan %q is not offered", d.CheckoutPlan)
				}

				if err := upgrade.Choose(env.Handle, d.CheckoutPlan); err != nil {
					return err
				}
				selected, err := upgrade.SelectedPlan(env.Handle)
				if err != nil {
					return err
				}
				if selected != d.CheckoutPlan {
					return fmt.Errorf("checkout is for plan %q, want %q", selected, d.CheckoutPlan)
				}
				return nil
			},
		},
	}
}
