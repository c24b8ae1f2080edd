package flow

import (
	"context"
	"errors"
	"iter"
	"strings"

	"github.com/use-agent/trendscout/browser"
	"github.com/use-agent/trendscout/models"
)

// rowResult is the outcome of reading one trend row.
type rowResult struct {
	Index int
	Topic string
	Err   error
}

var errEmptyLabel = errors.New("empty label")

// readRows yields one attempt per row, in order. Nothing is read until the
// sequence is ranged over, and each range starts from the first row again.
func readRows(rows []browser.Element) iter.Seq[rowResult] {
	return func(yield func(rowResult) bool) {
		for i, row := range rows {
			r := rowResult{Index: i}
			label, err := row.Find(trendLabel)
			if err == nil {
				r.Topic, err = label.Text()
			}
			r.Topic = strings.TrimSpace(r.Topic)
			if err == nil && r.Topic == "" {
				err = errEmptyLabel
			}
			r.Err = err
			if !yield(r) {
				return
			}
		}
	}
}

// collectTopics keeps the readable rows in display order and returns the
// failed ones separately.
func collectTopics(results iter.Seq[rowResult]) (topics []string, failed []rowResult) {
	for r := range results {
		if r.Err != nil {
			failed = append(failed, r)
			continue
		}
		topics = append(topics, r.Topic)
	}
	return topics, failed
}

// CollectTrends opens the trending tab and returns up to MaxTopics topic
// names in on-page order. Unreadable rows are skipped; zero readable rows
// is an error.
func (f *Flow) CollectTrends(ctx context.Context) ([]string, error) {
	t := f.Timings

	if err := f.clickWhen(ctx, "open explore", models.ErrCodeNavigation, f.Session.WaitPresent, showMoreLink, t.Probe, t.ClickSettle); err != nil {
		return nil, err
	}
	if err := f.clickWhen(ctx, "open trending tab", models.ErrCodeNavigation, f.Session.WaitPresent, trendingTab, t.Probe, t.ClickSettle); err != nil {
		return nil, err
	}

	if _, err := f.Session.WaitPresent(ctx, trendRow, t.TrendList); err != nil {
		return nil, stepError("wait for trend list", models.ErrCodeNavigation, err)
	}
	// Rows stream in after the first one renders.
	if err := f.settle(ctx, t.TrendSettle); err != nil {
		return nil, err
	}

	rows, err := f.Session.Elements(ctx, trendRow)
	if err != nil {
		return nil, stepError("list trend rows", models.ErrCodeNavigation, err)
	}
	if len(rows) > MaxTopics {
		rows = rows[:MaxTopics]
	}

	topics, failed := collectTopics(readRows(rows))
	if len(failed) > 0 {
		skipped := make([]int, 0, len(failed))
		for _, r := range failed {
			skipped = append(skipped, r.Index)
		}
		f.Log.Warn("skipped unreadable trend rows",
			"skipped", skipped,
			"rows", len(rows),
			"error", failed[0].Err,
		)
	}

	if len(topics) == 0 {
		return nil, models.NewTrendError(models.ErrCodeNoTrends, "no trending topics found", nil)
	}
	f.Log.Info("trends extracted", "count", len(topics))
	return topics, nil
}
