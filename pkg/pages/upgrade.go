package pages

import (
	"fmt"

	"github.com/entrhq/securedocs-e2e/pkg/browser"
)

// Upgrade is the premium plan picker at /upgrade.
type Upgrade struct {
	site Site
}

var (
	upgradeMarker  = browser.DataPage("upgrade")
	checkoutMarker = browser.DataPage("checkout")
	anyPlan        = browser.CSS("[data-plan]")
	selectedPlan   = browser.CSS("[data-selected-plan]")
)

// NewUpgrade creates the upgrade page object.
func NewUpgrade(site Site) *Upgrade {
	return &Upgrade{site: site}
}

// Open navigates to the plan picker.
func (p *Upgrade) Open(h browser.Handle) error {
	return p.site.open(h, "/upgrade", upgradeMarker)
}

// Plans lists the plan identifiers offered.
func (p *Upgrade) Plans(h browser.Handle) ([]string, error) {
	if _, err := browser.FindElements(h, anyPlan, p.site.elementOpts()); err != nil {
		return nil, err
	}
	return attrs(h, anyPlan, "data-plan")
}

// Choose selects a plan and waits for checkout, signalled by the checkout
// marker or a URL containing "checkout".
func (p *Upgrade) Choose(h browser.Handle, plan string) error {
	choose := action("choose-plan").Within(browser.Attr("", "data-plan", plan))
	if err := p.site.click(h, choose); err != nil {
		return err
	}
	atCheckout := browser.AnyOf(browser.ElementPresent(checkoutMarker), browser.URLContains("checkout"))
	if err := browser.WaitUntil(h, atCheckout, p.site.navOpts()); err != nil {
		return fmt.Errorf("checkout for plan %q did not open: %w", plan, err)
	}
	return nil
}

// SelectedPlan returns the plan shown on the checkout view.
func (p *Upgrade) SelectedPlan(h browser.Handle) (string, error) {
	el, err := browser.FindElement(h, selectedPlan, p.site.elementOpts())
	if err != nil {
		return "", err
	}
	v, _, err := el.Attribute("data-selected-plan")
	return v, err
}
