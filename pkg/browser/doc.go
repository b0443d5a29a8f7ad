// Package browser attaches to a Chromium instance that is already running
// with remote debugging enabled and exposes the small set of operations the
// capture pipeline needs.
//
// The package never launches or closes the browser. A Session only holds the
// driver connection; Detach releases that connection and leaves every tab
// open.
//
// # Drivers
//
// Two drivers implement the interfaces in this package:
//
//   - playwright (default): connects with Playwright's connectOverCDP and
//     produces ARIA snapshots with Locator.AriaSnapshot. Low-level
//     evaluation goes through a raw CDP session so it still works on tabs
//     whose Playwright page object has gone stale.
//   - rod: speaks CDP directly. ARIA snapshots are rendered from
//     Accessibility.getFullAXTree, and selectors are CSS only.
//
// # Resolving the active page
//
// ResolveActivePage picks the tab the user is looking at: the last page that
// is not an internal browser page. Tabs restored by the browser after a
// restart often report an empty or about:blank URL even though they display
// a real document. Such a tab is replaced by a fresh page navigated to the
// URL read through the evaluation channel.
package browser
