package scraper

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/GmS-001/Law-Verdict/internal/config"
	"github.com/GmS-001/Law-Verdict/pkg/logger"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Browser owns one Chrome process and opens a tab per scrape session
type Browser struct {
	cfg       *config.Config
	selectors Selectors
	logger    *logger.Logger

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
	sessions map[*PortalSession]struct{}
}

// NewBrowser prepares a launcher. Chrome starts on the first Open.
func NewBrowser(cfg *config.Config, logger *logger.Logger) *Browser {
	return &Browser{
		cfg:       cfg,
		selectors: DefaultSelectors(),
		logger:    logger,
		sessions:  make(map[*PortalSession]struct{}),
	}
}

// Open starts a tab in its own browser context, so concurrent sessions share
// neither cookies nor download events. Downloads land in downloadDir under
// their GUID.
func (b *Browser) Open(ctx context.Context, downloadDir string) (Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.connect(); err != nil {
		return nil, err
	}

	dir, err := filepath.Abs(downloadDir)
	if err != nil {
		return nil, fmt.Errorf("invalid download directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download directory: %w", err)
	}

	incognito, err := b.browser.Incognito()
	if err != nil {
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}
	root := b.browser
	dispose := func() {
		_ = proto.TargetDisposeBrowserContext{BrowserContextID: incognito.BrowserContextID}.Call(root)
	}

	err = proto.BrowserSetDownloadBehavior{
		Behavior:         proto.BrowserSetDownloadBehaviorBehaviorAllowAndName,
		BrowserContextID: incognito.BrowserContextID,
		DownloadPath:     dir,
		EventsEnabled:    true,
	}.Call(b.browser)
	if err != nil {
		dispose()
		return nil, fmt.Errorf("failed to set download directory: %w", err)
	}

	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		dispose()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             1920,
		Height:            1080,
		DeviceScaleFactor: 1,
	}); err != nil {
		b.logger.Warn("Failed to set viewport", "error", err)
	}
	if _, err := page.SetExtraHeaders([]string{"Accept-Language", "en-US,en;q=0.9"}); err != nil {
		b.logger.Warn("Failed to set extra headers", "error", err)
	}

	s := &PortalSession{
		owner:       b,
		page:        page,
		dispose:     dispose,
		downloadDir: dir,
		sel:         b.selectors,
		portalURL:   b.cfg.PortalURL,
		timeout:     b.cfg.ScraperTimeout,
		logger:      b.logger,
	}
	b.sessions[s] = struct{}{}

	b.logger.Info("Browser session opened", "download_dir", dir)
	return s, nil
}

// connect launches Chrome once
func (b *Browser) connect() error {
	if b.browser != nil {
		return nil
	}

	l := launcher.New().
		Headless(b.cfg.HeadlessMode).
		Set("user-agent", b.cfg.UserAgent).
		Set("disable-blink-features", "AutomationControlled").
		Delete("enable-automation")

	if b.cfg.BrowserPath != "" {
		l = l.Bin(b.cfg.BrowserPath)
	}
	if b.cfg.LogLevel == "debug" {
		l = l.Devtools(true)
	}

	browserURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(browserURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return fmt.Errorf("failed to connect to browser: %w", err)
	}

	b.launcher = l
	b.browser = browser
	return nil
}

func (b *Browser) release(s *PortalSession) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.sessions, s)
}

// Close closes every open tab and the browser
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for s := range b.sessions {
		_ = s.page.Close()
		s.dispose()
	}
	b.sessions = make(map[*PortalSession]struct{})

	if b.browser == nil {
		return nil
	}
	err := b.browser.Close()
	b.launcher.Kill()
	b.browser = nil
	b.launcher = nil
	return err
}

// PortalSession drives the search form of one tab
type PortalSession struct {
	owner       *Browser
	page        *rod.Page
	dispose     func()
	downloadDir string
	sel         Selectors
	portalURL   string
	timeout     time.Duration
	logger      *logger.Logger

	closeOnce sync.Once
}

// ConfigureFilters opens the portal and fills the date window and the
// reportable option. It does not submit.
func (s *PortalSession) ConfigureFilters(ctx context.Context, f Filters) error {
	navCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.logger.Info("Navigating to portal", "url", s.portalURL)
	page := s.page.Context(navCtx)
	if err := page.Navigate(s.portalURL); err != nil {
		return fmt.Errorf("failed to navigate: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		s.logger.Warn("Page load timeout", "error", err)
	}

	form := s.sel.Form
	for selector, value := range map[string]string{
		form.FromDate: f.FromString(),
		form.ToDate:   f.ToString(),
	} {
		el, err := page.Element(selector)
		if err != nil {
			return fmt.Errorf("date field %s not found: %w", selector, err)
		}
		// The date inputs are read-only pickers, so assign the value directly
		if _, err := el.Eval(`function (v) {
			this.value = v;
			this.dispatchEvent(new Event('change', { bubbles: true }));
		}`, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", selector, err)
		}
	}

	radio, err := page.Element(fmt.Sprintf(form.ReportableRadio, f.Option))
	if err != nil {
		return fmt.Errorf("reportable option %s not found: %w", f.Option, err)
	}
	if err := radio.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to select option %s: %w", f.Option, err)
	}

	s.logger.Info("Search filters set",
		"from_date", f.FromString(),
		"to_date", f.ToString(),
		"option", f.Option,
	)
	return nil
}

// Page exposes the tab to the collector
func (s *PortalSession) Page() Page {
	return NewRodPage(s.page, s.downloadDir)
}

// Close closes the tab. Calling it more than once is harmless.
func (s *PortalSession) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.page.Close()
		s.dispose()
		s.owner.release(s)
		s.logger.Debug("Browser session closed")
	})
	return err
}
