package browser

import (
	"fmt"
	"strings"
)

// Locator identifies elements on a page. Every locator renders to a CSS
// selector so all backends can resolve it the same way.
type Locator struct {
	selector    string
	description string
}

// CSS locates elements by a raw CSS selector.
func CSS(selector string) Locator {
	return Locator{selector: selector, description: selector}
}

// Name locates form fields by their name attribute.
func Name(name string) Locator {
	return Locator{
		selector:    fmt.Sprintf("[name=%s]", quote(name)),
		description: fmt.Sprintf("field named %q", name),
	}
}

// DataPage locates landing-page markers carrying data-page="<page>".
func DataPage(page string) Locator {
	return Attr("", "data-page", page)
}

// Attr locates elements of the given tag (any tag when empty) whose
// attribute equals value.
func Attr(tag, attr, value string) Locator {
	sel := fmt.Sprintf("%s[%s=%s]", tag, attr, quote(value))
	return Locator{selector: sel, description: sel}
}

// Within scopes child to descendants of l.
func (l Locator) Within(parent Locator) Locator {
	sel := parent.selector + " " + l.selector
	return Locator{selector: sel, description: sel}
}

// Selector returns the CSS selector for the locator.
func (l Locator) Selector() string {
	return l.selector
}

// IsZero reports whether the locator was never set.
func (l Locator) IsZero() bool {
	return l.selector == ""
}

func (l Locator) String() string {
	if l.description != "" {
		return l.description
	}
	return l.selector
}

func quote(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
}
