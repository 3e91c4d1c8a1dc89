package pipeline

import (
	"context"
	"errors"
	"time"

	errs "xpurge/pkg/errors"
	"xpurge/pkg/journal"
	"xpurge/pkg/logger"
	"xpurge/pkg/metrics"
	"xpurge/pkg/ratelimit"
	"xpurge/pkg/twitter"
)

// Kind selects what the pipeline does to each target
type Kind string

const (
	KindDelete Kind = "delete"
	KindUnlike Kind = "unlike"
)

// DefaultInterval is the pause after every action
const DefaultInterval = 500 * time.Millisecond

// API is the slice of the X client the pipeline drives
type API interface {
	FetchTweets(ctx context.Context, w twitter.Window) ([]twitter.Tweet, error)
	DeleteTweet(ctx context.Context, id string) error
	FetchLikes(ctx context.Context) ([]twitter.Tweet, error)
	Unlike(ctx context.Context, id string) error
}

// BatchSink receives every fetched batch; the work file implements it
type BatchSink interface {
	Save(batch []twitter.Tweet) error
}

// Recorder persists runs and actions; the journal implements it
type Recorder interface {
	StartRun(ctx context.Context, kind, username, window string) (string, error)
	RecordAction(ctx context.Context, a journal.Action) error
	FinishRun(ctx context.Context, runID, state string, counts journal.Counts, errMsg string) error
}

// Observer is told about progress as it happens
type Observer interface {
	BatchFetched(kind Kind, batch, size int)
	ActionDone(kind Kind, id string, err error)
}

// Result counts what one run did. BatchFetched and BatchActed describe the last batch.
type Result struct {
	Batches      int
	Fetched      int
	Acted        int
	Skipped      int
	BatchFetched int
	BatchActed   int
}

// Runner drives the fetch, act, refetch loop
type Runner struct {
	api      API
	pacer    ratelimit.Pacer
	sink     BatchSink
	recorder Recorder
	observer Observer
	username string
	logger   logger.Logger
	now      func() time.Time
}

// Option configures a Runner
type Option func(*Runner)

// WithPacer replaces the fixed interval pacer
func WithPacer(p ratelimit.Pacer) Option {
	return func(r *Runner) { r.pacer = p }
}

// WithBatchSink stores every fetched batch
func WithBatchSink(s BatchSink) Option {
	return func(r *Runner) { r.sink = s }
}

// WithRecorder journals runs and actions
func WithRecorder(rec Recorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

// WithObserver reports progress
func WithObserver(o Observer) Option {
	return func(r *Runner) { r.observer = o }
}

// WithUsername labels journal entries
func WithUsername(name string) Option {
	return func(r *Runner) { r.username = name }
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithClock overrides the clock used for run timing
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// New creates a Runner pacing DefaultInterval between actions
func New(api API, opts ...Option) *Runner {
	r := &Runner{
		api:    api,
		pacer:  ratelimit.NewIntervalPacer(DefaultInterval),
		logger: logger.GetLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Delete removes the user's posts inside w until a fetch comes back empty or fails.
// The first failed delete aborts the run with an ActionFailed error naming the post.
func (r *Runner) Delete(ctx context.Context, w twitter.Window) (Result, error) {
	fetch := func(ctx context.Context) ([]twitter.Tweet, error) {
		return r.api.FetchTweets(ctx, w)
	}
	return r.run(ctx, KindDelete, w.String(), fetch, r.api.DeleteTweet)
}

// Unlike removes the user's likes. Failures are logged and skipped.
func (r *Runner) Unlike(ctx context.Context) (Result, error) {
	return r.run(ctx, KindUnlike, "", r.api.FetchLikes, r.api.Unlike)
}

// Fetch retrieves one batch of posts inside w and stores it without acting on it
func (r *Runner) Fetch(ctx context.Context, w twitter.Window) ([]twitter.Tweet, error) {
	batch, err := r.api.FetchTweets(ctx, w)
	metrics.IncFetch("fetch")
	if err != nil {
		return nil, err
	}
	r.store(batch)
	return batch, nil
}

type fetchFunc func(ctx context.Context) ([]twitter.Tweet, error)
type actFunc func(ctx context.Context, id string) error

func (r *Runner) run(ctx context.Context, kind Kind, window string, fetch fetchFunc, act actFunc) (res Result, err error) {
	start := r.now()
	log := r.logger.WithField("kind", string(kind))
	runID := r.startRun(ctx, kind, window)

	defer func() {
		state := journal.StateDone
		if err != nil {
			state = journal.StateAborted
		}
		elapsed := r.now().Sub(start)
		r.finishRun(ctx, runID, state, res, err)
		metrics.ObserveRun(string(kind), state, elapsed)
		log.InfoWithFields("Run finished", map[string]interface{}{
			"state":    state,
			"batches":  res.Batches,
			"fetched":  res.Fetched,
			"acted":    res.Acted,
			"skipped":  res.Skipped,
			"duration": elapsed.String(),
		})
	}()

	attempted := make(map[string]struct{})

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		batch, err := fetch(ctx)
		metrics.IncFetch(string(kind))
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, ctxErr
			}
			if errors.Is(err, errs.ErrSigningPrerequisiteMissing) {
				return res, err
			}
			log.WithError(err).Warn("Fetch failed, ending run")
			return res, nil
		}

		if len(batch) == 0 {
			log.Debug("Nothing left to act on")
			return res, nil
		}

		r.store(batch)

		fresh := make([]twitter.Tweet, 0, len(batch))
		for _, t := range batch {
			if _, seen := attempted[t.ID]; !seen {
				fresh = append(fresh, t)
			}
		}
		if len(fresh) == 0 {
			log.InfoWithFields("Batch holds only already attempted items, ending run", map[string]interface{}{
				"size": len(batch),
			})
			return res, nil
		}

		res.Batches++
		res.Fetched += len(batch)
		res.BatchFetched = len(batch)
		res.BatchActed = 0
		if r.observer != nil {
			r.observer.BatchFetched(kind, res.Batches, len(batch))
		}

		for _, t := range fresh {
			attempted[t.ID] = struct{}{}

			actErr := act(ctx, t.ID)
			if actErr != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return res, ctxErr
				}
			}

			r.recordAction(ctx, runID, kind, t.ID, actErr)
			logger.LogAction(log, string(kind), t.ID, actErr)
			if r.observer != nil {
				r.observer.ActionDone(kind, t.ID, actErr)
			}

			if actErr != nil {
				if errors.Is(actErr, errs.ErrSigningPrerequisiteMissing) {
					return res, actErr
				}
				if kind == KindDelete {
					return res, errs.ActionFailed(t.ID, actErr)
				}
				res.Skipped++
			} else {
				res.Acted++
				res.BatchActed++
			}

			if err := r.pacer.Pause(ctx); err != nil {
				return res, err
			}
		}
	}
}

func (r *Runner) store(batch []twitter.Tweet) {
	if r.sink == nil {
		return
	}
	if err := r.sink.Save(batch); err != nil {
		r.logger.WithError(err).Warn("Failed to write work file")
	}
}

func (r *Runner) startRun(ctx context.Context, kind Kind, window string) string {
	if r.recorder == nil {
		return ""
	}
	id, err := r.recorder.StartRun(context.WithoutCancel(ctx), string(kind), r.username, window)
	if err != nil {
		r.logger.WithError(err).Warn("Failed to journal run start")
		return ""
	}
	return id
}

func (r *Runner) recordAction(ctx context.Context, runID string, kind Kind, id string, actErr error) {
	outcome := metrics.OutcomeOK
	var msg string
	if actErr != nil {
		msg = actErr.Error()
		outcome = metrics.OutcomeFailed
		if kind == KindUnlike {
			outcome = metrics.OutcomeSkipped
		}
	}
	metrics.IncAction(string(kind), outcome)

	if r.recorder == nil || runID == "" {
		return
	}
	err := r.recorder.RecordAction(context.WithoutCancel(ctx), journal.Action{
		RunID:    runID,
		TargetID: id,
		Kind:     string(kind),
		Outcome:  outcome,
		Error:    msg,
	})
	if err != nil {
		r.logger.WithError(err).Warn("Failed to journal action")
	}
}

func (r *Runner) finishRun(ctx context.Context, runID, state string, res Result, runErr error) {
	if r.recorder == nil || runID == "" {
		return
	}
	var msg string
	if runErr != nil {
		msg = runErr.Error()
	}
	counts := journal.Counts{Batches: res.Batches, Fetched: res.Fetched, Acted: res.Acted, Skipped: res.Skipped}
	if err := r.recorder.FinishRun(context.WithoutCancel(ctx), runID, state, counts, msg); err != nil {
		r.logger.WithError(err).Warn("Failed to journal run end")
	}
}
