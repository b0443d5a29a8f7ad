package browser

import (
	"errors"
	"fmt"
	"time"

	"github.com/entrhq/materials/pkg/logging"
)

// Probe and repair bounds.
const (
	URLProbeTimeout         = 5 * time.Second
	TitleTimeout            = 3 * time.Second
	RepairNavigationTimeout = 30 * time.Second
)

var (
	// ErrNoSession is returned when there is no session or it has no contexts.
	ErrNoSession = errors.New("no browser session: the session has no contexts")
	// ErrNoPages is returned when no context has an open page.
	ErrNoPages = errors.New("no pages open in the browser")
)

// ResolvePageURL returns the page's real URL: the driver's known URL when it
// has one, otherwise location.href read through the evaluation channel. When
// the probe fails the known URL (possibly empty) is returned.
func ResolvePageURL(p Page, logger *logging.Logger) string {
	known := p.URL()
	if known != "" {
		return known
	}

	v, err := p.Evaluate("location.href", URLProbeTimeout)
	if err != nil {
		logger.Warnf("url probe failed: %v", err)
		return known
	}
	if href, ok := v.(string); ok {
		return href
	}
	return known
}

// ResolvePageTitle returns the page title. The driver's Title call gets
// TitleTimeout; after that the evaluation channel is asked for
// document.title. Failures yield "".
func ResolvePageTitle(p Page, logger *logging.Logger) string {
	title, err := withTimeout("page title", TitleTimeout, p.Title)
	if err == nil {
		return title
	}
	logger.Debugf("title lookup failed, probing document.title: %v", err)

	v, err := p.Evaluate("document.title", TitleTimeout)
	if err != nil {
		logger.Warnf("title probe failed: %v", err)
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

type candidate struct {
	page    Page
	realURL string
}

// ResolveActivePage selects the page the user is most likely working in: the
// last page, across all contexts, whose real URL is a user page. When every
// page is internal the last page is returned with a warning.
//
// A selected page whose known URL is empty or about:blank is a handle the
// driver cannot operate on reliably. It is replaced by a new page in the first
// context navigated to the resolved URL. If the repair fails the original
// page is returned.
func ResolveActivePage(s Session, logger *logging.Logger) (Page, error) {
	if s == nil {
		return nil, ErrNoSession
	}
	contexts := s.Contexts()
	if len(contexts) == 0 {
		return nil, ErrNoSession
	}

	var all []candidate
	for _, c := range contexts {
		for _, p := range c.Pages() {
			all = append(all, candidate{page: p, realURL: ResolvePageURL(p, logger)})
		}
	}
	if len(all) == 0 {
		return nil, ErrNoPages
	}

	chosen := all[len(all)-1]
	found := false
	for i := len(all) - 1; i >= 0; i-- {
		if IsUserPage(all[i].realURL) {
			chosen = all[i]
			found = true
			break
		}
	}
	if !found {
		logger.Warnf("no user page among %d open pages, using the last one (%s)", len(all), chosen.realURL)
	} else {
		logger.Infof("active page: %s", chosen.realURL)
	}

	known := chosen.page.URL()
	if known != "" && known != blankURL {
		return chosen.page, nil
	}
	if !IsUserPage(chosen.realURL) {
		// Nothing to navigate a fresh page to.
		return chosen.page, nil
	}

	repaired, err := repair(contexts[0], chosen.realURL)
	if err != nil {
		logger.Warnf("stale page repair failed, using original handle: %v", err)
		return chosen.page, nil
	}
	logger.Infof("replaced stale page handle with a fresh page at %s", chosen.realURL)
	return repaired, nil
}

func repair(c Context, url string) (Page, error) {
	p, err := c.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	if err := p.Goto(url, WaitDOMContentLoaded, RepairNavigationTimeout); err != nil {
		return nil, fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return p, nil
}
