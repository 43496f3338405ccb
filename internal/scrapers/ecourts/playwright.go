package ecourts

import (
	"casestatus-backend/internal/components/telemetry"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

const report_playwright_close = "playwright.close"

type PlaywrightOptions struct {
	// Browser is one of "chromium", "firefox" or "webkit", it defaults to chromium.
	Browser           string
	Headless          bool
	ExecutablePath    string
	NavigationTimeout time.Duration
	ActionTimeout     time.Duration
}

// PlaywrightBrowser opens a fresh playwright driver and browser for every
// session so that attempts never share browser state.
type PlaywrightBrowser struct {
	opts PlaywrightOptions
	tel  telemetry.API
}

func NewPlaywrightBrowser(opts PlaywrightOptions, tel telemetry.API) PlaywrightBrowser {
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = 30 * time.Second
	}
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = 10 * time.Second
	}
	return PlaywrightBrowser{
		opts: opts,
		tel:  telemetry.NewScopedAPI("ecourts", tel),
	}
}

// InstallDriver downloads the playwright driver and, unless skipBrowsers is
// set, the browsers it drives.
func InstallDriver(skipBrowsers bool) error {
	return playwright.Install(&playwright.RunOptions{
		SkipInstallBrowsers: skipBrowsers,
		Verbose:             true,
	})
}

func (b PlaywrightBrowser) browserType(pw *playwright.Playwright) (playwright.BrowserType, error) {
	switch b.opts.Browser {
	case "", "chromium":
		return pw.Chromium, nil
	case "firefox":
		return pw.Firefox, nil
	case "webkit":
		return pw.WebKit, nil
	}
	return nil, fmt.Errorf("unknown browser %q", b.opts.Browser)
}

func (b PlaywrightBrowser) Open(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	browserType, err := b.browserType(pw)
	if err != nil {
		pw.Stop()
		return nil, err
	}

	launchOptions := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(b.opts.Headless),
	}
	if b.opts.ExecutablePath != "" {
		launchOptions.ExecutablePath = playwright.String(b.opts.ExecutablePath)
	}
	browser, err := browserType.Launch(launchOptions)
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("launch %s: %w", browserType.Name(), err)
	}

	page, err := browser.NewPage()
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("new page: %w", err)
	}
	page.SetDefaultNavigationTimeout(float64(b.opts.NavigationTimeout.Milliseconds()))
	page.SetDefaultTimeout(float64(b.opts.ActionTimeout.Milliseconds()))

	return &playwrightSession{
		pw:      pw,
		browser: browser,
		page:    playwrightPage{page: page},
		tel:     b.tel,
	}, nil
}

type playwrightSession struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwrightPage
	tel     telemetry.API
	closed  bool
}

func (s *playwrightSession) Page() Page {
	return s.page
}

func (s *playwrightSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if err := s.page.page.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close page: %w", err))
	}
	if err := s.browser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close browser: %w", err))
	}
	if err := s.pw.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop playwright: %w", err))
	}
	err := errors.Join(errs...)
	if err != nil {
		s.tel.ReportWarning(report_playwright_close, err)
	}
	return err
}

type playwrightPage struct {
	page playwright.Page
}

func (p playwrightPage) Goto(url string) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	return err
}

func (p playwrightPage) WaitForLoadState(state LoadState) error {
	loadState := playwright.LoadStateDomcontentloaded
	if state == LOAD_NETWORK_IDLE {
		loadState = playwright.LoadStateNetworkidle
	}
	return p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State: loadState,
	})
}

func (p playwrightPage) Click(selector string, timeout time.Duration) error {
	opts := playwright.LocatorClickOptions{}
	if timeout > 0 {
		opts.Timeout = playwright.Float(float64(timeout.Milliseconds()))
	}
	return p.page.Locator(selector).First().Click(opts)
}

func (p playwrightPage) SelectOption(selector string, by MatchBy, value string) error {
	values := playwright.SelectOptionValues{}
	switch by {
	case MATCH_VALUE:
		values.Values = &[]string{value}
	case MATCH_LABEL:
		values.Labels = &[]string{value}
	default:
		return fmt.Errorf("unknown match strategy %q", by)
	}

	selected, err := p.page.Locator(selector).First().SelectOption(values)
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		return fmt.Errorf("no option matching %q", value)
	}
	return nil
}

func (p playwrightPage) Fill(selector, value string) error {
	return p.page.Locator(selector).First().Fill(value)
}

func (p playwrightPage) InnerText(selector string) (string, error) {
	return p.page.Locator(selector).First().InnerText()
}

func (p playwrightPage) Content() (string, error) {
	return p.page.Content()
}

func (p playwrightPage) Url() string {
	return p.page.URL()
}
