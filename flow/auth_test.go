package flow

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/trendscout/browser"
	"github.com/use-agent/trendscout/models"
)

var testCreds = Credentials{Identifier: "trend.bot@example.com", Handle: "trendbot", Password: "hunter2"}

func TestAuthenticate_ChallengeAbsent(t *testing.T) {
	s := loggedInPage(nil, "")

	err := testFlow(s).Authenticate(context.Background(), testCreds)
	require.NoError(t, err)

	assert.Equal(t, []string{LoginURL}, s.navigated)
	assert.Equal(t, []string{"trend.bot@example.com"}, s.element(identifierInput).inputs)
	assert.Equal(t, []string{"hunter2"}, s.element(passwordInput).inputs)
	assert.Equal(t, 1, s.element(nextButton).clicks)
	assert.Equal(t, 1, s.element(loginButton).clicks)
}

func TestAuthenticate_ChallengePresent(t *testing.T) {
	s := loggedInPage(nil, "")
	s.present[challengePrompt] = &fakeElement{text: "Enter your phone number or username"}

	err := testFlow(s).Authenticate(context.Background(), testCreds)
	require.NoError(t, err)

	assert.Equal(t, []string{"trend.bot@example.com", "trendbot"}, s.element(identifierInput).inputs)
	assert.Equal(t, 2, s.element(nextButton).clicks)
	assert.Equal(t, 1, s.element(loginButton).clicks)
}

func TestAuthenticate_StepOrder(t *testing.T) {
	s := loggedInPage(nil, "")

	require.NoError(t, testFlow(s).Authenticate(context.Background(), testCreds))

	want := []string{
		"navigate " + LoginURL,
		"wait " + identifierInput.String(),
		"wait " + nextButton.String(),
		"wait " + challengePrompt.String(),
		"wait " + passwordInput.String(),
		"wait " + loginButton.String(),
	}
	assert.Equal(t, want, s.calls)
}

func TestAuthenticate_ChallengeWithoutHandle(t *testing.T) {
	s := loggedInPage(nil, "")
	s.present[challengePrompt] = &fakeElement{}

	creds := testCreds
	creds.Handle = ""
	err := testFlow(s).Authenticate(context.Background(), creds)

	var te *models.TrendError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, models.ErrCodeAuthFailed, te.Code)
	assert.Empty(t, s.element(passwordInput).inputs)
}

func TestAuthenticate_PasswordTimeout(t *testing.T) {
	s := loggedInPage(nil, "")
	delete(s.present, passwordInput)

	err := testFlow(s).Authenticate(context.Background(), testCreds)

	var te *models.TrendError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, models.ErrCodeTimeout, te.Code)
	assert.Contains(t, te.Message, "enter password")
	assert.ErrorIs(t, err, browser.ErrWaitTimeout)
}

func TestProbeChallenge(t *testing.T) {
	detached := errors.New("cdp: node is detached from document")

	tests := []struct {
		name     string
		setup    func(s *fakeSession)
		want     Challenge
		wantErr  bool
		wantCode string
	}{
		{
			name:  "timeout means absent",
			setup: func(*fakeSession) {},
			want:  ChallengeAbsent,
		},
		{
			name:  "prompt found",
			setup: func(s *fakeSession) { s.present[challengePrompt] = &fakeElement{} },
			want:  ChallengePresent,
		},
		{
			name:     "other failure propagates",
			setup:    func(s *fakeSession) { s.waitErr[challengePrompt] = detached },
			wantErr:  true,
			wantCode: models.ErrCodeAuthFailed,
		},
		{
			name:     "cancellation is not absence",
			setup:    func(s *fakeSession) { s.waitErr[challengePrompt] = context.Canceled },
			wantErr:  true,
			wantCode: models.ErrCodeTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newFakeSession()
			tt.setup(s)

			got, err := testFlow(s).ProbeChallenge(context.Background())
			if tt.wantErr {
				var te *models.TrendError
				require.ErrorAs(t, err, &te)
				assert.Equal(t, tt.wantCode, te.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAuthenticate_ProbeFailureStopsBeforePassword(t *testing.T) {
	s := loggedInPage(nil, "")
	s.waitErr[challengePrompt] = errors.New("cdp: target closed")

	err := testFlow(s).Authenticate(context.Background(), testCreds)
	require.Error(t, err)
	assert.False(t, slices.Contains(s.calls, "wait "+passwordInput.String()))
}
