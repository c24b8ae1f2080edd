package flow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/use-agent/trendscout/browser"
	"github.com/use-agent/trendscout/models"
)

type fakeElement struct {
	text     string
	textErr  error
	children map[browser.Selector]*fakeElement
	findErr  error
	inputs   []string
	clicks   int
}

func (e *fakeElement) Input(text string) error {
	e.inputs = append(e.inputs, text)
	return nil
}

func (e *fakeElement) Click() error {
	e.clicks++
	return nil
}

func (e *fakeElement) Text() (string, error) { return e.text, e.textErr }

func (e *fakeElement) Find(sel browser.Selector) (browser.Element, error) {
	if e.findErr != nil {
		return nil, e.findErr
	}
	if c, ok := e.children[sel]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("find %s: %w", sel, browser.ErrNotFound)
}

// fakeSession answers waits from a fixed page: selectors in present resolve,
// selectors in waitErr fail with that error, anything else times out.
type fakeSession struct {
	present    map[browser.Selector]*fakeElement
	waitErr    map[browser.Selector]error
	rows       []browser.Element
	prepareErr error

	calls     []string
	navigated []string
	prepared  int
	closed    int
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		present: map[browser.Selector]*fakeElement{},
		waitErr: map[browser.Selector]error{},
	}
}

func (s *fakeSession) Prepare(context.Context) error {
	s.prepared++
	s.calls = append(s.calls, "prepare")
	return s.prepareErr
}

func (s *fakeSession) Navigate(_ context.Context, url string) error {
	s.navigated = append(s.navigated, url)
	s.calls = append(s.calls, "navigate "+url)
	return nil
}

func (s *fakeSession) WaitPresent(_ context.Context, sel browser.Selector, timeout time.Duration) (browser.Element, error) {
	s.calls = append(s.calls, "wait "+sel.String())
	if err, ok := s.waitErr[sel]; ok {
		return nil, err
	}
	if el, ok := s.present[sel]; ok {
		return el, nil
	}
	return nil, fmt.Errorf("wait for %s after %s: %w", sel, timeout, browser.ErrWaitTimeout)
}

func (s *fakeSession) WaitClickable(ctx context.Context, sel browser.Selector, timeout time.Duration) (browser.Element, error) {
	return s.WaitPresent(ctx, sel, timeout)
}

func (s *fakeSession) Elements(_ context.Context, sel browser.Selector) ([]browser.Element, error) {
	if sel == trendRow {
		return s.rows, nil
	}
	return nil, nil
}

func (s *fakeSession) Close() error {
	s.closed++
	return nil
}

func (s *fakeSession) element(sel browser.Selector) *fakeElement {
	return s.present[sel]
}

type fakeLauncher struct {
	session  *fakeSession
	err      error
	launches int
}

func (l *fakeLauncher) Launch(context.Context, browser.Profile) (browser.Session, error) {
	l.launches++
	if l.err != nil {
		return nil, l.err
	}
	return l.session, nil
}

type fakeSink struct {
	inserted []*models.TrendSnapshot
	err      error
}

func (s *fakeSink) Insert(_ context.Context, snap *models.TrendSnapshot) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.inserted = append(s.inserted, snap)
	return "6762b7b2e4b0a1c9d8f3a001", nil
}

func trendRowWithLabel(label string) *fakeElement {
	return &fakeElement{children: map[browser.Selector]*fakeElement{
		trendLabel: {text: label},
	}}
}

// loggedInPage is a site where every step of scenario A succeeds.
func loggedInPage(labels []string, ip string) *fakeSession {
	s := newFakeSession()
	for _, sel := range []browser.Selector{
		identifierInput, nextButton, passwordInput, loginButton,
		showMoreLink, trendingTab,
	} {
		s.present[sel] = &fakeElement{}
	}
	for _, l := range labels {
		s.rows = append(s.rows, trendRowWithLabel(l))
	}
	if len(labels) > 0 {
		s.present[trendRow] = s.rows[0].(*fakeElement)
	}
	s.present[ipEchoBody] = &fakeElement{text: ip + "\n"}
	return s
}

func noSleep(context.Context, time.Duration) error { return nil }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testFlow(s *fakeSession) *Flow {
	return &Flow{Session: s, Timings: DefaultTimings(), Sleep: noSleep, Log: quietLogger()}
}
