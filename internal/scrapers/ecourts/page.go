package ecourts

import (
	"context"
	"time"
)

type LoadState int

const (
	LOAD_DOM_CONTENT LoadState = iota
	LOAD_NETWORK_IDLE
)

// Page is the subset of browser page operations the driver needs. Every
// blocking call is bounded by the timeouts the page was created with.
type Page interface {
	// Goto navigates to url and waits for the DOM content to load.
	Goto(url string) error
	WaitForLoadState(state LoadState) error
	// Click clicks the first element matching selector, a zero timeout uses the
	// page's default action timeout.
	Click(selector string, timeout time.Duration) error
	SelectOption(selector string, by MatchBy, value string) error
	Fill(selector, value string) error
	InnerText(selector string) (string, error)
	Content() (string, error)
	Url() string
}

// Session is a browser exclusively owned by one attempt.
type Session interface {
	Page() Page
	Close() error
}

// Browser opens sessions, implementations must make Close release every
// resource the session acquired.
type Browser interface {
	Open(ctx context.Context) (Session, error)
}
