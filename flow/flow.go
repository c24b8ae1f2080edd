// Package flow drives one authenticated browsing session from login to a
// persisted trend snapshot.
//
// Steps run strictly in order: authenticate, open the trending tab, extract
// the top rows, read the egress IP, insert. Every element interaction is
// gated by an explicit wait; the only fixed sleeps are the settle delays the
// site's client-side rendering needs.
package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/use-agent/trendscout/browser"
	"github.com/use-agent/trendscout/models"
)

const (
	LoginURL  = "https://x.com/i/flow/login?mx=2"
	IPEchoURL = "https://api.ipify.org?format=text"

	// MaxTopics is the number of trend rows read from the top of the list.
	MaxTopics = 5
)

// Locators on the target site. These are the only contract with its markup.
var (
	identifierInput = browser.CSS(`input[name="text"]`)
	passwordInput   = browser.CSS(`input[name="password"]`)
	nextButton      = browser.XPath(`//span[text()='Next']/ancestor::button`)
	loginButton     = browser.XPath(`//button[@data-testid='LoginForm_Login_Button']`)
	challengePrompt = browser.XPath(`//span[contains(text(), 'Enter your phone number or username')]`)

	showMoreLink = browser.XPath(`//a[@role='link' and @href='/explore/tabs/for-you']//span[contains(text(), 'Show more')]`)
	trendingTab  = browser.XPath(`//a[@role='tab' and @href='/explore/tabs/trending']//span[contains(text(), 'Trending')]`)
	trendRow     = browser.CSS(`[data-testid="trend"]`)
	trendLabel   = browser.CSS(`div[class*="r-b88u0q"]`)

	ipEchoBody = browser.XPath(`//pre`)
)

// Timings holds every wait bound and settle delay of the flow.
type Timings struct {
	// Probe bounds the secondary-identifier challenge probe and the
	// navigation selections.
	Probe time.Duration
	// Element bounds ordinary form-field and button waits.
	Element time.Duration
	// TrendList bounds the wait for the first trend row.
	TrendList time.Duration

	PageSettle  time.Duration // after opening the login page
	InputSettle time.Duration // after typing, for the site's debounce
	ClickSettle time.Duration // after a click that swaps views
	TrendSettle time.Duration // after the first row, for the rest to stream in
}

// DefaultTimings returns the bounds tuned against the live site.
func DefaultTimings() Timings {
	return Timings{
		Probe:       5 * time.Second,
		Element:     10 * time.Second,
		TrendList:   20 * time.Second,
		PageSettle:  2 * time.Second,
		InputSettle: 1 * time.Second,
		ClickSettle: 1 * time.Second,
		TrendSettle: 3 * time.Second,
	}
}

// Sleeper pauses for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Flow is the short-lived context object of one invocation: the live session
// plus the knobs every step reads. It is not shared between invocations.
type Flow struct {
	Session browser.Session
	Timings Timings
	Sleep   Sleeper
	Log     *slog.Logger
}

// New returns a Flow over sess with default timings.
func New(sess browser.Session) *Flow {
	return &Flow{
		Session: sess,
		Timings: DefaultTimings(),
		Sleep:   SleepContext,
		Log:     slog.Default(),
	}
}

func (f *Flow) settle(ctx context.Context, d time.Duration) error {
	if err := f.Sleep(ctx, d); err != nil {
		return models.NewTrendError(models.ErrCodeTimeout, "request canceled", err)
	}
	return nil
}

// stepError classifies a failed wait or interaction of the named step.
func stepError(step, code string, err error) error {
	switch {
	case errors.Is(err, browser.ErrWaitTimeout):
		return models.NewTrendError(models.ErrCodeTimeout, step+": element did not appear in time", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return models.NewTrendError(models.ErrCodeTimeout, step+": request canceled", err)
	default:
		return models.NewTrendError(code, step+" failed", err)
	}
}

// typeInto waits for sel, types text into it and lets the site's debounce
// register the change.
func (f *Flow) typeInto(ctx context.Context, step string, sel browser.Selector, text string, timeout, settle time.Duration) error {
	el, err := f.Session.WaitPresent(ctx, sel, timeout)
	if err != nil {
		return stepError(step, models.ErrCodeAuthFailed, err)
	}
	if err := el.Input(text); err != nil {
		return stepError(step, models.ErrCodeAuthFailed, fmt.Errorf("input: %w", err))
	}
	return f.settle(ctx, settle)
}

// clickWhen waits for sel using wait, clicks it and settles.
func (f *Flow) clickWhen(ctx context.Context, step, code string, wait waitFunc, sel browser.Selector, timeout, settle time.Duration) error {
	el, err := wait(ctx, sel, timeout)
	if err != nil {
		return stepError(step, code, err)
	}
	if err := el.Click(); err != nil {
		return stepError(step, code, fmt.Errorf("click: %w", err))
	}
	return f.settle(ctx, settle)
}

type waitFunc func(ctx context.Context, sel browser.Selector, timeout time.Duration) (browser.Element, error)
