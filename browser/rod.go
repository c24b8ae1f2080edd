package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"
)

// RodLauncher starts a fresh Chrome per session through rod's launcher.
type RodLauncher struct{}

// NewRodLauncher returns a launcher backed by go-rod.
func NewRodLauncher() *RodLauncher { return &RodLauncher{} }

// Launch starts Chrome with the profile's fingerprint flags and connects to it.
// A failure at any step kills whatever was started; there is no retry.
func (RodLauncher) Launch(ctx context.Context, p Profile) (Session, error) {
	l := launcher.New().
		Context(ctx).
		Headless(p.Headless).
		NoSandbox(p.NoSandbox)

	if p.Bin != "" {
		l = l.Bin(p.Bin)
	}
	if p.Proxy.Enabled() {
		l = l.Proxy(p.Proxy.Server)
	}

	// ── Fingerprint flags ────────────────────────────────────────────
	// These are read by Chrome at startup, so they must be set here rather
	// than per page.
	if p.Width > 0 && p.Height > 0 {
		l.Set(flags.Flag("window-size"), strconv.Itoa(p.Width)+","+strconv.Itoa(p.Height))
	}
	if p.UserAgent != "" {
		l.Set(flags.Flag("user-agent"), p.UserAgent)
	}
	if p.Language != "" {
		l.Set(flags.Flag("lang"), p.Language)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("disable-infobars"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-gpu"))
	l.Set(flags.Flag("disable-notifications"))
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		l.Kill()
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	slog.Debug("browser launched", "controlURL", controlURL)

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("connect to browser: %w", err)
	}

	if p.Proxy.HasAuth() {
		wait := b.HandleAuth(p.Proxy.Username, p.Proxy.Password)
		go func() {
			if err := wait(); err != nil {
				slog.Debug("proxy auth handler exited", "error", err)
			}
		}()
	}

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = b.Close()
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("open page: %w", err)
	}

	return &RodSession{
		launcher: l,
		browser:  b,
		page:     page,
		profile:  p,
	}, nil
}

// RodSession is a Session over one Chrome process and one tab.
type RodSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	profile  Profile
}

// Prepare installs the stealth script and the user-agent and viewport
// overrides. The site inspects these on first load, so this has to run
// before the first Navigate.
func (s *RodSession) Prepare(ctx context.Context) error {
	p := s.page.Context(ctx)

	if _, err := p.EvalOnNewDocument(stealth.JS); err != nil {
		return fmt.Errorf("inject stealth script: %w", err)
	}

	if s.profile.UserAgent != "" {
		if err := p.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      s.profile.UserAgent,
			AcceptLanguage: s.profile.Language,
		}); err != nil {
			return fmt.Errorf("override user agent: %w", err)
		}
	}

	if s.profile.Language != "" {
		if err := (proto.NetworkSetExtraHTTPHeaders{
			Headers: proto.NetworkHeaders{"Accept-Language": gson.New(s.profile.Language)},
		}).Call(p); err != nil {
			return fmt.Errorf("set extra headers: %w", err)
		}
	}

	if s.profile.Width > 0 && s.profile.Height > 0 {
		if err := p.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             s.profile.Width,
			Height:            s.profile.Height,
			DeviceScaleFactor: 1,
		}); err != nil {
			return fmt.Errorf("set viewport: %w", err)
		}
	}
	return nil
}

func (s *RodSession) Navigate(ctx context.Context, url string) error {
	if s.profile.PageLoadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.profile.PageLoadTimeout)
		defer cancel()
	}
	p := s.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("wait load %s: %w", url, err)
	}
	return nil
}

func (s *RodSession) WaitPresent(ctx context.Context, sel Selector, timeout time.Duration) (Element, error) {
	el, err := s.waitElement(ctx, sel, timeout, nil)
	if err != nil {
		return nil, err
	}
	return el, nil
}

func (s *RodSession) WaitClickable(ctx context.Context, sel Selector, timeout time.Duration) (Element, error) {
	el, err := s.waitElement(ctx, sel, timeout, func(el *rod.Element) error {
		if err := el.WaitVisible(); err != nil {
			return err
		}
		return el.WaitEnabled()
	})
	if err != nil {
		return nil, err
	}
	return el, nil
}

// waitElement polls for sel until timeout, then runs cond on the match under
// the same deadline. The returned element is rebound to ctx so it outlives
// the wait's deadline.
func (s *RodSession) waitElement(ctx context.Context, sel Selector, timeout time.Duration, cond func(*rod.Element) error) (*rodElement, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	p := s.page.Context(waitCtx)

	var (
		el  *rod.Element
		err error
	)
	if sel.By == ByXPath {
		el, err = p.ElementX(sel.Value)
	} else {
		el, err = p.Element(sel.Value)
	}
	if err == nil && cond != nil {
		err = cond(el)
	}
	if err != nil {
		return nil, waitError(ctx, sel, timeout, err)
	}
	return &rodElement{el: el.Context(ctx)}, nil
}

// waitError separates "our bound elapsed" from "the caller gave up".
func waitError(ctx context.Context, sel Selector, timeout time.Duration, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("wait for %s: %w", sel, ctx.Err())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("wait for %s after %s: %w", sel, timeout, ErrWaitTimeout)
	}
	return fmt.Errorf("wait for %s: %w", sel, err)
}

func (s *RodSession) Elements(ctx context.Context, sel Selector) ([]Element, error) {
	p := s.page.Context(ctx)

	var (
		els rod.Elements
		err error
	)
	if sel.By == ByXPath {
		els, err = p.ElementsX(sel.Value)
	} else {
		els, err = p.Elements(sel.Value)
	}
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", sel, err)
	}

	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el})
	}
	return out, nil
}

// Close shuts Chrome down and removes its temporary profile directory.
func (s *RodSession) Close() error {
	err := s.browser.Close()
	if err != nil {
		s.launcher.Kill()
	}
	s.launcher.Cleanup()
	return err
}

type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Input(text string) error {
	return e.el.Input(text)
}

func (e *rodElement) Click() error {
	return e.el.Click(proto.InputMouseButtonLeft, 1)
}

func (e *rodElement) Text() (string, error) {
	return e.el.Text()
}

func (e *rodElement) Find(sel Selector) (Element, error) {
	var (
		ok  bool
		el  *rod.Element
		err error
	)
	if sel.By == ByXPath {
		ok, el, err = e.el.HasX(sel.Value)
	} else {
		ok, el, err = e.el.Has(sel.Value)
	}
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", sel, err)
	}
	if !ok {
		return nil, fmt.Errorf("find %s: %w", sel, ErrNotFound)
	}
	return &rodElement{el: el}, nil
}
