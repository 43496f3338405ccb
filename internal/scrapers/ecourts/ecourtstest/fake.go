// Package ecourtstest provides an in-memory portal page for testing code that
// drives the ecourts search form.
package ecourtstest

import (
	"casestatus-backend/internal/scrapers/ecourts"
	"context"
	"fmt"
	"sync"
	"time"
)

// Page is a fake ecourts.Page. Selectors listed in Errors fail with the given
// error, selectors without text in Texts fail InnerText.
type Page struct {
	PageUrl string
	Html    string
	Texts   map[string]string
	Errors  map[string]error

	GotoErr    error
	WaitErr    map[ecourts.LoadState]error
	ContentErr error

	mutex   sync.Mutex
	actions []string
	filled  map[string]string
	visited []string
}

func (p *Page) record(format string, args ...any) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.actions = append(p.actions, fmt.Sprintf(format, args...))
}

// Actions returns every call made against the page in order.
func (p *Page) Actions() []string {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	out := make([]string, len(p.actions))
	copy(out, p.actions)
	return out
}

// Filled returns the value last filled into selector.
func (p *Page) Filled(selector string) (string, bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	value, ok := p.filled[selector]
	return value, ok
}

func (p *Page) Goto(url string) error {
	p.record("goto %s", url)
	if p.GotoErr != nil {
		return p.GotoErr
	}
	p.mutex.Lock()
	p.visited = append(p.visited, url)
	p.mutex.Unlock()
	return nil
}

func (p *Page) WaitForLoadState(state ecourts.LoadState) error {
	p.record("wait %d", state)
	return p.WaitErr[state]
}

func (p *Page) Click(selector string, timeout time.Duration) error {
	p.record("click %s", selector)
	return p.Errors[selector]
}

func (p *Page) SelectOption(selector string, by ecourts.MatchBy, value string) error {
	p.record("select %s by %s = %s", selector, by, value)
	return p.Errors[selector]
}

func (p *Page) Fill(selector, value string) error {
	p.record("fill %s = %s", selector, value)
	if err := p.Errors[selector]; err != nil {
		return err
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.filled == nil {
		p.filled = map[string]string{}
	}
	p.filled[selector] = value
	return nil
}

func (p *Page) InnerText(selector string) (string, error) {
	p.record("read %s", selector)
	if err := p.Errors[selector]; err != nil {
		return "", err
	}
	text, ok := p.Texts[selector]
	if !ok {
		return "", fmt.Errorf("no element matches %s", selector)
	}
	return text, nil
}

func (p *Page) Content() (string, error) {
	p.record("content")
	if p.ContentErr != nil {
		return "", p.ContentErr
	}
	return p.Html, nil
}

func (p *Page) Url() string {
	return p.PageUrl
}

// Browser hands out sessions over a single fake page and counts how many
// sessions were opened and closed.
type Browser struct {
	Page    *Page
	OpenErr error

	mutex  sync.Mutex
	opened int
	closed int
}

func (b *Browser) Open(ctx context.Context) (ecourts.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if b.OpenErr != nil {
		return nil, b.OpenErr
	}
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.opened++
	return &session{browser: b}, nil
}

// Opened returns the number of sessions opened so far.
func (b *Browser) Opened() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.opened
}

// Closed returns the number of sessions closed so far.
func (b *Browser) Closed() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.closed
}

type session struct {
	browser *Browser
	closed  bool
}

func (s *session) Page() ecourts.Page {
	return s.browser.Page
}

func (s *session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.browser.mutex.Lock()
	defer s.browser.mutex.Unlock()
	s.browser.closed++
	return nil
}

// ResultPage renders a result page the way the portal does for a found case.
// Each order is a (date, href) pair, an empty date leaves out the date cell.
func ResultPage(petitioner, respondent, filingDate, nextHearing string, orders ...[2]string) string {
	rows := ""
	for i, order := range orders {
		dateCell := ""
		if order[0] != "" {
			dateCell = fmt.Sprintf(`<td class="order-date">%s</td>`, order[0])
		}
		rows += fmt.Sprintf(
			`<tr><td>%d</td>%s<td><a href="%s">View Order</a></td></tr>`,
			i+1, dateCell, order[1],
		)
	}

	return fmt.Sprintf(`<html><body>
<table class="case-details">
	<tr><td>Petitioner Name</td><td> %s </td></tr>
	<tr><td>Respondent Name</td><td>%s</td></tr>
	<tr><td>Filing Date</td><td>%s</td></tr>
	<tr><td>Next Hearing Date</td><td>%s</td></tr>
</table>
<table class="orders-table">
	<thead><tr><th>#</th><th>Order Date</th><th>Order</th></tr></thead>
	<tbody>%s</tbody>
</table>
</body></html>`, petitioner, respondent, filingDate, nextHearing, rows)
}

// NotFoundPage renders the portal's response to a query without a match.
const NotFoundPage = `<html><body><div class="alert">No record found</div></body></html>`
