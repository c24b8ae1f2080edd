package flow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/use-agent/trendscout/browser"
	"github.com/use-agent/trendscout/models"
)

// Sink persists snapshots. It is append-only.
type Sink interface {
	// Insert stores s and returns its storage-assigned identifier.
	Insert(ctx context.Context, s *models.TrendSnapshot) (string, error)
}

// Notifier is told about every saved record. Failures are its own concern.
type Notifier interface {
	Notify(ctx context.Context, rec *models.SnapshotRecord)
}

// Runner executes one full capture per Run call. Each call launches its own
// browser; nothing is shared between calls.
type Runner struct {
	launcher browser.Launcher
	sink     Sink
	profile  browser.Profile
	creds    Credentials
	timings  Timings
	sleep    Sleeper
	now      func() time.Time
	newID    func() string
	notifier Notifier
	log      *slog.Logger
}

// Option customises a Runner.
type Option func(*Runner)

// WithTimings overrides the wait bounds and settle delays.
func WithTimings(t Timings) Option { return func(r *Runner) { r.timings = t } }

// WithSleeper replaces the settle-delay implementation.
func WithSleeper(s Sleeper) Option { return func(r *Runner) { r.sleep = s } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(r *Runner) { r.now = now } }

// WithIDGenerator replaces the uuid generator.
func WithIDGenerator(gen func() string) Option { return func(r *Runner) { r.newID = gen } }

// WithNotifier registers a notifier for saved records.
func WithNotifier(n Notifier) Option { return func(r *Runner) { r.notifier = n } }

// WithLogger replaces slog.Default.
func WithLogger(l *slog.Logger) Option { return func(r *Runner) { r.log = l } }

// NewRunner wires a Runner.
func NewRunner(l browser.Launcher, sink Sink, profile browser.Profile, creds Credentials, opts ...Option) *Runner {
	r := &Runner{
		launcher: l,
		sink:     sink,
		profile:  profile,
		creds:    creds,
		timings:  DefaultTimings(),
		sleep:    SleepContext,
		now:      time.Now,
		newID:    uuid.NewString,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run performs one capture.
//
// Lifecycle:
//
//  1. Launch        – start Chrome; failure is fatal, nothing to tear down
//  2. DEFER: close  – teardown runs exactly once from here on
//  3. Prepare       – stealth + fingerprint, before any navigation
//  4. Authenticate  – login state machine
//  5. Collect       – trending tab, top rows
//  6. Assemble      – uuid, timestamp, egress IP (needs the live browser)
//  7. Insert        – sink stamps the storage id; not retried
//  8. Notify        – best effort
func (r *Runner) Run(ctx context.Context) (rec *models.SnapshotRecord, err error) {
	start := time.Now()
	log := r.log

	// ── 1. Launch ───────────────────────────────────────────────────
	sess, err := r.launcher.Launch(ctx, r.profile)
	if err != nil {
		log.Error("browser launch failed", "error", err)
		return nil, models.NewTrendError(models.ErrCodeBrowserLaunch, "failed to launch browser", err)
	}

	// ── 2. Teardown ─────────────────────────────────────────────────
	defer func() {
		if closeErr := sess.Close(); closeErr != nil {
			log.Warn("browser close failed", "error", closeErr)
		}
		if err != nil {
			log.Error("trend capture failed",
				"error", err,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
		}
	}()

	f := &Flow{Session: sess, Timings: r.timings, Sleep: r.sleep, Log: log}

	// ── 3. Prepare ──────────────────────────────────────────────────
	if err = sess.Prepare(ctx); err != nil {
		return nil, models.NewTrendError(models.ErrCodeBrowserLaunch, "failed to prepare browser session", err)
	}

	// ── 4. Authenticate ─────────────────────────────────────────────
	if err = f.Authenticate(ctx, r.creds); err != nil {
		return nil, err
	}

	// ── 5. Collect ──────────────────────────────────────────────────
	topics, err := f.CollectTrends(ctx)
	if err != nil {
		return nil, err
	}

	// ── 6. Assemble ─────────────────────────────────────────────────
	snap, err := f.Assemble(ctx, topics, r.newID(), r.now())
	if err != nil {
		return nil, err
	}

	// ── 7. Insert ───────────────────────────────────────────────────
	storageID, err := r.sink.Insert(ctx, snap)
	if err != nil {
		var te *models.TrendError
		if !errors.As(err, &te) {
			err = models.NewTrendError(models.ErrCodeStorage, "failed to save snapshot", err)
		}
		return nil, err
	}
	rec = &models.SnapshotRecord{TrendSnapshot: *snap, ID: storageID}

	log.Info("trend snapshot saved",
		"unique_id", rec.UniqueID,
		"id", rec.ID,
		"topics", len(rec.Topics),
		"ip_address", rec.IPAddress,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	// ── 8. Notify ───────────────────────────────────────────────────
	if r.notifier != nil {
		r.notifier.Notify(ctx, rec)
	}
	return rec, nil
}
