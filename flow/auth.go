package flow

import (
	"context"
	"errors"

	"github.com/use-agent/trendscout/browser"
	"github.com/use-agent/trendscout/models"
)

// Credentials are the account secrets of the target site.
type Credentials struct {
	Identifier string
	// Handle answers the secondary-identifier challenge. Optional.
	Handle   string
	Password string
}

// Challenge is the outcome of probing for the secondary-identifier prompt.
type Challenge int

const (
	// ChallengeAbsent is the common case: the site went straight to the
	// password step.
	ChallengeAbsent Challenge = iota
	// ChallengePresent means the site asked for the handle before the
	// password.
	ChallengePresent
)

func (c Challenge) String() string {
	if c == ChallengePresent {
		return "present"
	}
	return "absent"
}

// Authenticate logs in:
//
//	EnterIdentifier → ClickNext → {Challenge?} → EnterPassword → ClickLogin
func (f *Flow) Authenticate(ctx context.Context, creds Credentials) error {
	t := f.Timings

	if err := f.Session.Navigate(ctx, LoginURL); err != nil {
		return stepError("open login page", models.ErrCodeNavigation, err)
	}
	if err := f.settle(ctx, t.PageSettle); err != nil {
		return err
	}

	// ── EnterIdentifier / ClickNext ─────────────────────────────────
	if err := f.typeInto(ctx, "enter identifier", identifierInput, creds.Identifier, t.Element, t.InputSettle); err != nil {
		return err
	}
	if err := f.clickWhen(ctx, "click next", models.ErrCodeAuthFailed, f.Session.WaitClickable, nextButton, t.Element, t.ClickSettle); err != nil {
		return err
	}

	// ── SecondaryIdentifierChallenge? ───────────────────────────────
	challenge, err := f.ProbeChallenge(ctx)
	if err != nil {
		return err
	}
	f.Log.Debug("secondary identifier challenge probed", "challenge", challenge.String())
	if challenge == ChallengePresent {
		if err := f.answerChallenge(ctx, creds.Handle); err != nil {
			return err
		}
	}

	// ── EnterPassword / ClickLogin ──────────────────────────────────
	if err := f.typeInto(ctx, "enter password", passwordInput, creds.Password, t.Element, 0); err != nil {
		return err
	}
	if err := f.clickWhen(ctx, "click login", models.ErrCodeAuthFailed, f.Session.WaitClickable, loginButton, t.Element, 0); err != nil {
		return err
	}

	f.Log.Info("authenticated")
	return nil
}

// ProbeChallenge waits briefly for the secondary-identifier prompt. Only the
// probe's own timeout means ChallengeAbsent; any other failure is returned.
func (f *Flow) ProbeChallenge(ctx context.Context) (Challenge, error) {
	_, err := f.Session.WaitPresent(ctx, challengePrompt, f.Timings.Probe)
	switch {
	case err == nil:
		return ChallengePresent, nil
	case errors.Is(err, browser.ErrWaitTimeout):
		return ChallengeAbsent, nil
	default:
		return ChallengeAbsent, stepError("probe secondary identifier challenge", models.ErrCodeAuthFailed, err)
	}
}

func (f *Flow) answerChallenge(ctx context.Context, handle string) error {
	if handle == "" {
		return models.NewTrendError(models.ErrCodeAuthFailed,
			"site asked for the secondary identifier but no handle is configured", nil)
	}
	t := f.Timings
	if err := f.typeInto(ctx, "enter secondary identifier", identifierInput, handle, t.Probe, 0); err != nil {
		return err
	}
	return f.clickWhen(ctx, "click next after challenge", models.ErrCodeAuthFailed, f.Session.WaitClickable, nextButton, t.Probe, t.ClickSettle)
}
