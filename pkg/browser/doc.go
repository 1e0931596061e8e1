// Package browser defines the browser-automation contract the suite is written
// against, plus the helpers built on top of it.
//
// # Drivers and handles
//
// A Driver launches Handles. A Handle is one live browser instance positioned
// on one page; it can navigate, query elements, and report URL, title, HTML and
// cookies. Backends live in subpackages:
//
//   - pwdriver: Playwright (Chromium), installed and started lazily
//   - cdpdriver: Chrome DevTools Protocol via chromedp
//   - browsertest: scripted in-memory fake for unit tests
//
// # Waiting
//
// WaitUntil is the only retry primitive. It polls a Condition at a fixed
// interval until the condition holds or the timeout elapses, then fails with a
// *TimeoutError. Conditions compose with AnyOf, which succeeds on the first
// condition to hold:
//
//	err := browser.WaitUntil(h, browser.AnyOf(
//		browser.ElementPresent(browser.DataPage("user-dashboard")),
//		browser.URLContains("dashboard"),
//	), browser.WaitOptions{Timeout: 20 * time.Second})
//
// Waits cannot be cancelled midway; callers that need to give up sooner pass a
// shorter timeout.
//
// # Benign failures
//
// Existence checks that are expected to miss return a Result instead of an
// error. Probe answers "is it there right now", ProbeWithin waits first.
package browser
