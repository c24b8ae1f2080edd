// Package browser wraps an automated Chrome session behind a small
// wait-then-interact surface.
//
// Every lookup that may race page rendering is an explicit wait bounded by a
// timeout. When the bound elapses the error wraps ErrWaitTimeout, which is
// distinct from the caller's own context being cancelled.
package browser

import (
	"context"
	"errors"
	"time"
)

// ErrWaitTimeout is returned when an explicit wait elapses before its
// condition holds.
var ErrWaitTimeout = errors.New("wait timed out")

// ErrNotFound is returned by immediate lookups that match nothing.
var ErrNotFound = errors.New("element not found")

// By is the locator strategy of a Selector.
type By int

const (
	ByCSS By = iota
	ByXPath
)

// Selector locates elements either by CSS or by XPath.
type Selector struct {
	By    By
	Value string
}

// CSS builds a CSS selector.
func CSS(v string) Selector { return Selector{By: ByCSS, Value: v} }

// XPath builds an XPath selector.
func XPath(v string) Selector { return Selector{By: ByXPath, Value: v} }

func (s Selector) String() string {
	if s.By == ByXPath {
		return "xpath=" + s.Value
	}
	return "css=" + s.Value
}

// Launcher starts a browser process for one invocation.
type Launcher interface {
	// Launch starts the browser. On error no process is left running.
	Launch(ctx context.Context, p Profile) (Session, error)
}

// Session is the live browser handle. It is owned by exactly one flow and
// must be closed exactly once.
type Session interface {
	// Prepare masks automation signals and applies the fingerprint. It must
	// run before the first Navigate.
	Prepare(ctx context.Context) error

	// Navigate loads url, bounded by the profile's page-load timeout.
	Navigate(ctx context.Context, url string) error

	// WaitPresent waits until an element matching sel is in the DOM.
	WaitPresent(ctx context.Context, sel Selector, timeout time.Duration) (Element, error)

	// WaitClickable waits until an element matching sel is visible and enabled.
	WaitClickable(ctx context.Context, sel Selector, timeout time.Duration) (Element, error)

	// Elements returns every element currently matching sel, in document order.
	Elements(ctx context.Context, sel Selector) ([]Element, error)

	// Close terminates the browser process.
	Close() error
}

// Element is a DOM node found through a Session.
type Element interface {
	Input(text string) error
	Click() error
	Text() (string, error)

	// Find looks up a descendant without waiting. It returns ErrNotFound
	// when nothing matches.
	Find(sel Selector) (Element, error)
}
