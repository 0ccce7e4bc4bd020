package browser

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/hazyhaar/copymd/idgen"
)

var newPageID = idgen.Prefixed("pg_", idgen.NanoID(12))

// Tab is one page opened by the manager, with the bridge installed.
type Tab struct {
	ID     string
	URL    string
	Page   *rod.Page
	Bridge *Bridge

	router *rod.HijackRouter
}

// OpenTab creates a tab, navigates to pageURL and installs the bridge.
// Headless tabs get the stealth patches; headful tabs are a real user's
// window and are left as is.
func OpenTab(ctx context.Context, mgr *Manager, pageURL string) (*Tab, error) {
	b := mgr.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}
	cfg := mgr.Config()

	var (
		page *rod.Page
		err  error
	)
	if cfg.Mode == ModeHeadless {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	t := &Tab{ID: newPageID(), URL: pageURL, Page: page}
	if len(cfg.ResourceBlocking) > 0 {
		t.router = applyResourceBlocking(page, cfg.ResourceBlocking)
	}

	navCtx, cancel := context.WithTimeout(ctx, cfg.NavTimeout)
	defer cancel()
	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		_ = t.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		cfg.Logger.Warn("browser: wait load timeout", "url", pageURL, "error", err)
	}

	bridge, err := Install(ctx, page, cfg.Logger)
	if err != nil {
		_ = t.Close()
		return nil, err
	}
	t.Bridge = bridge
	cfg.Logger.Info("browser: tab opened", "page", t.ID, "url", pageURL, "mode", cfg.Mode)
	return t, nil
}

// Close removes the bridge state and closes the tab.
func (t *Tab) Close() error {
	if t.router != nil {
		_ = t.router.Stop()
		t.router = nil
	}
	if t.Page == nil {
		return nil
	}
	return t.Page.Close()
}
