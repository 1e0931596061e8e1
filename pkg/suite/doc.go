// Package suite registers, selects and runs end-to-end cases.
//
// Cases are plain values in a Registry. A Filter picks cases by glob on their
// name or category-qualified ID, and a Runner executes the selection:
//
//	cases, _ := reg.Select(suite.Filter{Include: []string{"auth/*"}})
//	summary := suite.NewRunner(factory, site, suite.DefaultOptions()).Run(ctx, cases)
//
// Each runner worker owns one session.Manager built by the factory, so cases
// that share an account class reuse the same login. A failed attempt resets the
// session (unless disabled) before the next attempt or case. Workers always
// clean up their manager on exit.
package suite
