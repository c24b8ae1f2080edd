package flow

import (
	"context"
	"strings"
	"time"

	"github.com/use-agent/trendscout/models"
)

// EgressIP reads the public address the session is seen from.
func (f *Flow) EgressIP(ctx context.Context) (string, error) {
	if err := f.Session.Navigate(ctx, IPEchoURL); err != nil {
		return "", stepError("open ip echo", models.ErrCodeIPLookup, err)
	}
	el, err := f.Session.WaitPresent(ctx, ipEchoBody, f.Timings.Element)
	if err != nil {
		return "", stepError("read ip echo", models.ErrCodeIPLookup, err)
	}
	text, err := el.Text()
	if err != nil {
		return "", stepError("read ip echo", models.ErrCodeIPLookup, err)
	}
	ip := strings.TrimSpace(text)
	if ip == "" {
		return "", models.NewTrendError(models.ErrCodeIPLookup, "ip echo returned an empty body", nil)
	}
	return ip, nil
}

// Assemble builds the snapshot for topics. It still needs the live session
// for the egress IP, so it runs before teardown.
func (f *Flow) Assemble(ctx context.Context, topics []string, id string, now time.Time) (*models.TrendSnapshot, error) {
	if len(topics) == 0 {
		return nil, models.NewTrendError(models.ErrCodeNoTrends, "no trending topics found", nil)
	}

	ip, err := f.EgressIP(ctx)
	if err != nil {
		return nil, err
	}

	return &models.TrendSnapshot{
		UniqueID:  id,
		Topics:    append([]string(nil), topics...),
		Timestamp: now.Format(models.TimestampLayout),
		IPAddress: ip,
		CaptureAt: now,
	}, nil
}
