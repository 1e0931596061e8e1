// Package session caches one authenticated browser handle across many test
// cases.
//
// A Manager moves through three states:
//
//	Uninitialized --Handle--> HandleReady --Login(c)--> Authenticated(c)
//
// Login for the class already bound is a cache hit and touches nothing.
// Login for another class (or an explicit, different identifier) cleans up
// and starts over from Uninitialized. A failed login always cleans up before
// returning, so the next caller never mistakes it for a valid session.
// Cleanup returns to Uninitialized from any state and never fails.
//
// Managers are constructed explicitly and handed to the code that needs them:
//
//	m := session.NewManager(driver, session.SettingsFromConfig(cfg))
//	defer m.Cleanup()
//
//	h, err := m.Login(session.Administrator)
package session
