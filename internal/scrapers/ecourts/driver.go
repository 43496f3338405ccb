package ecourts

import (
	"casestatus-backend/internal/captcha"
	"casestatus-backend/internal/components/assert"
	"casestatus-backend/internal/components/telemetry"
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
)

const (
	report_driver_navigate      = "driver.navigate"
	report_driver_fill_form     = "driver.fill-form"
	report_driver_solve_captcha = "driver.solve-captcha"
	report_driver_submit        = "driver.submit"
)

// Step is a stage of driving the search form, each step fails with its own
// StepError so callers can tell where an attempt stopped.
type Step int

const (
	STEP_NAVIGATE Step = iota
	STEP_FILL_FORM
	STEP_SOLVE_CAPTCHA
	STEP_SUBMIT
)

func (s Step) String() string {
	switch s {
	case STEP_NAVIGATE:
		return "navigate"
	case STEP_FILL_FORM:
		return "fill-form"
	case STEP_SOLVE_CAPTCHA:
		return "solve-captcha"
	case STEP_SUBMIT:
		return "submit"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %s", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

type DriverOptions struct {
	PortalUrl string
	Selectors Selectors
	// OptionalClickTimeout bounds the wait for the optional "Case Status" link,
	// it is kept short since the link is usually absent.
	OptionalClickTimeout time.Duration
}

// Driver fills and submits the portal's case status search form.
type Driver struct {
	portalUrl            string
	sel                  Selectors
	optionalClickTimeout time.Duration
	tel                  telemetry.API
}

func NewDriver(opts DriverOptions, tel telemetry.API) Driver {
	assert.NotNil(tel)
	assert.NotEmptyStr(opts.PortalUrl)
	assert.NotEmpty(opts.Selectors.CaseType, "case type strategies")

	timeout := opts.OptionalClickTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	return Driver{
		portalUrl:            opts.PortalUrl,
		sel:                  opts.Selectors,
		optionalClickTimeout: timeout,
		tel:                  telemetry.NewScopedAPI("ecourts", tel),
	}
}

func stepError(step Step, err error) error {
	return &StepError{Step: step, Err: err}
}

// Navigate opens the portal and reveals the case status form. The case status
// link is optional, failing to click it is only a warning.
func (d Driver) Navigate(ctx context.Context, page Page) error {
	if err := ctx.Err(); err != nil {
		return stepError(STEP_NAVIGATE, err)
	}

	err := page.Goto(d.portalUrl)
	if err != nil {
		d.tel.ReportBroken(report_driver_navigate, fmt.Errorf("goto: %w", err), d.portalUrl)
		return stepError(STEP_NAVIGATE, fmt.Errorf("goto %s: %w", d.portalUrl, err))
	}

	err = page.Click(d.sel.CaseStatusLink, d.optionalClickTimeout)
	if err != nil {
		d.tel.ReportWarning(
			report_driver_navigate,
			fmt.Errorf("case status link not found or clickable, assuming the form is on the page: %w", err),
		)
		return nil
	}
	err = page.WaitForLoadState(LOAD_DOM_CONTENT)
	if err != nil {
		d.tel.ReportBroken(report_driver_navigate, fmt.Errorf("wait after case status click: %w", err))
		return stepError(STEP_NAVIGATE, fmt.Errorf("wait after case status click: %w", err))
	}
	return nil
}

// SelectCaseType tries every case type strategy in order and returns the
// strategy that succeeded.
func (d Driver) SelectCaseType(page Page, caseType string) (SelectStrategy, error) {
	var errs []error
	for _, strategy := range d.sel.CaseType {
		err := page.SelectOption(strategy.Selector, strategy.By, caseType)
		if err == nil {
			return strategy, nil
		}
		d.tel.ReportDebug(
			"case type strategy failed",
			strategy.Selector,
			string(strategy.By),
			err,
		)
		errs = append(errs, fmt.Errorf("%s by %s: %w", strategy.Selector, strategy.By, err))
	}
	return SelectStrategy{}, fmt.Errorf("select case type %q: %w", caseType, errors.Join(errs...))
}

// FillForm selects the case type, fills the case number and selects the filing year.
func (d Driver) FillForm(ctx context.Context, page Page, query CaseQuery) error {
	if err := ctx.Err(); err != nil {
		return stepError(STEP_FILL_FORM, err)
	}

	strategy, err := d.SelectCaseType(page, query.CaseType)
	if err != nil {
		d.tel.ReportBroken(report_driver_fill_form, err)
		return stepError(STEP_FILL_FORM, err)
	}
	if strategy.Selector != d.sel.CaseType[0].Selector {
		d.tel.ReportWarning(
			report_driver_fill_form,
			"primary case type strategy failed, used fallback",
			strategy.Selector,
		)
	}

	err = page.Fill(d.sel.CaseNumber, query.CaseNumber)
	if err != nil {
		err = fmt.Errorf("fill case number: %w", err)
		d.tel.ReportBroken(report_driver_fill_form, err)
		return stepError(STEP_FILL_FORM, err)
	}

	err = page.SelectOption(d.sel.FilingYear, MATCH_VALUE, query.FilingYear)
	if err != nil {
		err = fmt.Errorf("select filing year: %w", err)
		d.tel.ReportBroken(report_driver_fill_form, err)
		return stepError(STEP_FILL_FORM, err)
	}
	return nil
}

// SolveCaptcha reads the arithmetic challenge, solves it and fills in the answer.
// Any failure here ends the attempt, a fresh challenge is never requested.
func (d Driver) SolveCaptcha(ctx context.Context, page Page) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, stepError(STEP_SOLVE_CAPTCHA, err)
	}

	challenge, err := page.InnerText(d.sel.Captcha)
	if err != nil {
		err = fmt.Errorf("read challenge: %w", err)
		d.tel.ReportBroken(report_driver_solve_captcha, err)
		return 0, stepError(STEP_SOLVE_CAPTCHA, err)
	}
	d.tel.ReportDebug("captcha challenge", challenge)

	answer, err := captcha.Solve(challenge)
	if err != nil {
		d.tel.ReportBroken(report_driver_solve_captcha, err)
		return 0, stepError(STEP_SOLVE_CAPTCHA, err)
	}

	err = page.Fill(d.sel.CaptchaAnswer, strconv.Itoa(answer))
	if err != nil {
		err = fmt.Errorf("fill answer: %w", err)
		d.tel.ReportBroken(report_driver_solve_captcha, err)
		return 0, stepError(STEP_SOLVE_CAPTCHA, err)
	}
	return answer, nil
}

// Submit submits the search, waits for the network to settle and captures the
// rendered result page.
func (d Driver) Submit(ctx context.Context, page Page) (RenderedPage, error) {
	if err := ctx.Err(); err != nil {
		return RenderedPage{}, stepError(STEP_SUBMIT, err)
	}

	err := page.Click(d.sel.Submit, 0)
	if err != nil {
		err = fmt.Errorf("click search: %w", err)
		d.tel.ReportBroken(report_driver_submit, err)
		return RenderedPage{}, stepError(STEP_SUBMIT, err)
	}
	err = page.WaitForLoadState(LOAD_NETWORK_IDLE)
	if err != nil {
		err = fmt.Errorf("wait for network idle: %w", err)
		d.tel.ReportBroken(report_driver_submit, err)
		return RenderedPage{}, stepError(STEP_SUBMIT, err)
	}

	content, err := page.Content()
	if err != nil {
		err = fmt.Errorf("capture result page: %w", err)
		d.tel.ReportBroken(report_driver_submit, err)
		return RenderedPage{}, stepError(STEP_SUBMIT, err)
	}
	return RenderedPage{Url: page.Url(), Html: content}, nil
}

// Execute runs every step in order, calling onStep before each one starts.
func (d Driver) Execute(ctx context.Context, page Page, query CaseQuery, onStep func(Step)) (RenderedPage, error) {
	if onStep == nil {
		onStep = func(Step) {}
	}

	onStep(STEP_NAVIGATE)
	if err := d.Navigate(ctx, page); err != nil {
		return RenderedPage{}, err
	}
	onStep(STEP_FILL_FORM)
	if err := d.FillForm(ctx, page, query); err != nil {
		return RenderedPage{}, err
	}
	onStep(STEP_SOLVE_CAPTCHA)
	if _, err := d.SolveCaptcha(ctx, page); err != nil {
		return RenderedPage{}, err
	}
	onStep(STEP_SUBMIT)
	return d.Submit(ctx, page)
}
