package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xpurge/pkg/config"
	"xpurge/pkg/credential"
	errs "xpurge/pkg/errors"
	"xpurge/pkg/journal"
	"xpurge/pkg/logger"
	"xpurge/pkg/metrics"
	"xpurge/pkg/twitter"
	"xpurge/pkg/twitter/twittertest"
	"xpurge/pkg/workfile"
)

// scriptedAPI answers fetches from a queue of batches and then with empty pages
type scriptedAPI struct {
	batches  [][]string
	fetchErr error
	failOn   map[string]error
	fetches  int
	attempts []string
	window   twitter.Window
}

func (s *scriptedAPI) next() ([]twitter.Tweet, error) {
	s.fetches++
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	if len(s.batches) == 0 {
		return nil, nil
	}
	ids := s.batches[0]
	s.batches = s.batches[1:]

	batch := make([]twitter.Tweet, len(ids))
	for i, id := range ids {
		batch[i] = twitter.Tweet{ID: id}
	}
	return batch, nil
}

func (s *scriptedAPI) act(id string) error {
	s.attempts = append(s.attempts, id)
	return s.failOn[id]
}

func (s *scriptedAPI) FetchTweets(_ context.Context, w twitter.Window) ([]twitter.Tweet, error) {
	s.window = w
	return s.next()
}

func (s *scriptedAPI) FetchLikes(context.Context) ([]twitter.Tweet, error) { return s.next() }

func (s *scriptedAPI) DeleteTweet(_ context.Context, id string) error { return s.act(id) }

func (s *scriptedAPI) Unlike(_ context.Context, id string) error { return s.act(id) }

type countingPacer struct {
	pauses int
	err    error
}

func (p *countingPacer) Pause(context.Context) error {
	p.pauses++
	return p.err
}

type memorySink struct {
	batches [][]twitter.Tweet
}

func (m *memorySink) Save(batch []twitter.Tweet) error {
	m.batches = append(m.batches, batch)
	return nil
}

type recordingObserver struct {
	batches []int
	done    []string
}

func (o *recordingObserver) BatchFetched(_ Kind, _ int, size int) { o.batches = append(o.batches, size) }

func (o *recordingObserver) ActionDone(_ Kind, id string, _ error) { o.done = append(o.done, id) }

func newRunner(api API, opts ...Option) (*Runner, *countingPacer) {
	pacer := &countingPacer{}
	opts = append([]Option{WithPacer(pacer), WithLogger(logger.NewNopLogger())}, opts...)
	return New(api, opts...), pacer
}

func TestEmptyFetchIsOneCallAndSuccess(t *testing.T) {
	for _, kind := range []Kind{KindDelete, KindUnlike} {
		t.Run(string(kind), func(t *testing.T) {
			api := &scriptedAPI{}
			r, pacer := newRunner(api)

			var res Result
			var err error
			if kind == KindDelete {
				res, err = r.Delete(context.Background(), twitter.Window{})
			} else {
				res, err = r.Unlike(context.Background())
			}

			require.NoError(t, err)
			assert.Equal(t, 1, api.fetches)
			assert.Equal(t, Result{}, res)
			assert.Zero(t, pacer.pauses)
		})
	}
}

func TestDeleteDrainsThenSucceeds(t *testing.T) {
	api := &scriptedAPI{batches: [][]string{{"1", "2"}}}
	r, pacer := newRunner(api)

	res, err := r.Delete(context.Background(), twitter.Window{})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Acted)
	assert.Equal(t, 1, res.Batches)
	assert.Equal(t, 2, res.Fetched)
	assert.Equal(t, 2, api.fetches)
	assert.Equal(t, []string{"1", "2"}, api.attempts)
	assert.Equal(t, 2, pacer.pauses)
}

func TestDeleteFailureAborts(t *testing.T) {
	cause := errs.Transport(403, "forbidden")
	api := &scriptedAPI{
		batches: [][]string{{"1", "2", "3"}},
		failOn:  map[string]error{"2": cause},
	}
	r, _ := newRunner(api)

	res, err := r.Delete(context.Background(), twitter.Window{})
	require.Error(t, err)

	assert.ErrorIs(t, err, errs.ErrActionFailed)
	id, ok := errs.FailedID(err)
	require.True(t, ok)
	assert.Equal(t, "2", id)
	assert.ErrorIs(t, err, cause)

	assert.Equal(t, []string{"1", "2"}, api.attempts, "nothing after the failing item is touched")
	assert.Equal(t, 1, api.fetches)
	assert.Equal(t, 1, res.Acted)
	assert.Equal(t, 3, res.BatchFetched)
	assert.Equal(t, 1, res.BatchActed)
}

func TestUnlikeFailureContinues(t *testing.T) {
	api := &scriptedAPI{
		batches: [][]string{{"1", "2", "3"}},
		failOn:  map[string]error{"2": errs.Transport(404, "gone")},
	}
	r, pacer := newRunner(api)

	res, err := r.Unlike(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2", "3"}, api.attempts)
	assert.Equal(t, 2, res.Acted)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 3, pacer.pauses)
}

func TestFetchFailureEndsRunSuccessfully(t *testing.T) {
	api := &scriptedAPI{fetchErr: errs.Transport(429, "slow down")}
	r, _ := newRunner(api)

	res, err := r.Delete(context.Background(), twitter.Window{})
	require.NoError(t, err)
	assert.Equal(t, 1, api.fetches)
	assert.Zero(t, res.Acted)
}

func TestSigningPrerequisitePropagates(t *testing.T) {
	api := &scriptedAPI{fetchErr: errs.SigningPrerequisiteMissing("tweets")}
	r, _ := newRunner(api)

	_, err := r.Delete(context.Background(), twitter.Window{})
	assert.ErrorIs(t, err, errs.ErrSigningPrerequisiteMissing)
}

func TestRefetchAfterEveryBatch(t *testing.T) {
	api := &scriptedAPI{batches: [][]string{{"1", "2"}, {"3"}, {"4", "5"}}}
	r, _ := newRunner(api)

	res, err := r.Delete(context.Background(), twitter.Window{})
	require.NoError(t, err)
	assert.Equal(t, 4, api.fetches)
	assert.Equal(t, 3, res.Batches)
	assert.Equal(t, 5, res.Acted)
	assert.Equal(t, 2, res.BatchFetched)
}

func TestAlreadyAttemptedBatchEndsRun(t *testing.T) {
	api := &scriptedAPI{
		batches: [][]string{{"1", "2"}, {"1"}, {"never"}},
		failOn:  map[string]error{"1": errs.Transport(500, "boom")},
	}
	r, _ := newRunner(api)

	res, err := r.Unlike(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, api.attempts)
	assert.Equal(t, 2, api.fetches)
	assert.Equal(t, 1, res.Batches)
}

func TestMixedBatchSkipsAttemptedIDs(t *testing.T) {
	api := &scriptedAPI{
		batches: [][]string{{"1", "2"}, {"1", "3"}},
		failOn:  map[string]error{"1": errs.Transport(500, "boom")},
	}
	r, _ := newRunner(api)

	res, err := r.Unlike(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, api.attempts)
	assert.Equal(t, 2, res.Acted)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 3, api.fetches)
}

func TestWindowIsPassedThrough(t *testing.T) {
	api := &scriptedAPI{}
	r, _ := newRunner(api)
	w := twitter.Window{Since: "2020-01-01"}

	_, err := r.Delete(context.Background(), w)
	require.NoError(t, err)
	assert.Equal(t, w, api.window)
}

func TestCancellationStopsRun(t *testing.T) {
	api := &scriptedAPI{batches: [][]string{{"1", "2", "3"}}}
	pacer := &countingPacer{err: context.Canceled}
	r := New(api, WithPacer(pacer), WithLogger(logger.NewNopLogger()))

	_, err := r.Delete(context.Background(), twitter.Window{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"1"}, api.attempts)
}

func TestCancelledContextBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	api := &scriptedAPI{batches: [][]string{{"1"}}}
	r, _ := newRunner(api)

	_, err := r.Unlike(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, api.fetches)
}

func TestSinkAndObserver(t *testing.T) {
	api := &scriptedAPI{batches: [][]string{{"1", "2"}, {"3"}}}
	sink := &memorySink{}
	obs := &recordingObserver{}
	r, _ := newRunner(api, WithBatchSink(sink), WithObserver(obs))

	_, err := r.Delete(context.Background(), twitter.Window{})
	require.NoError(t, err)

	require.Len(t, sink.batches, 2)
	assert.Equal(t, "3", sink.batches[1][0].ID)
	assert.Equal(t, []int{2, 1}, obs.batches)
	assert.Equal(t, []string{"1", "2", "3"}, obs.done)
}

func TestFetchStoresOneBatch(t *testing.T) {
	api := &scriptedAPI{batches: [][]string{{"1", "2"}, {"3"}}}
	sink := &memorySink{}
	r, _ := newRunner(api, WithBatchSink(sink))

	batch, err := r.Fetch(context.Background(), twitter.Window{})
	require.NoError(t, err)
	assert.Len(t, batch, 2)
	assert.Len(t, sink.batches, 1)
	assert.Empty(t, api.attempts)

	api.fetchErr = errors.New("down")
	_, err = r.Fetch(context.Background(), twitter.Window{})
	assert.Error(t, err)
}

func TestDeleteAgainstFakeAPIWithJournal(t *testing.T) {
	srv := twittertest.NewServer()
	defer srv.Close()
	srv.ConsumerSecret = "cs"
	srv.SetTweets("10", "11", "12")
	srv.FailDelete["12"] = 403

	client := twitter.NewClient(config.AppCredential{APIKey: "b", ConsumerKey: "ck", ConsumerSecret: "cs"}, 5*time.Second,
		twitter.WithBaseURL(srv.URL),
		twitter.WithBatchSize(2),
		twitter.WithLogger(logger.NewNopLogger()),
	)
	client.SetUser(&credential.UserCredential{Username: "alice", ID: "123", OAuthToken: "finalB", OAuthTokenSecret: "secC"})

	dir := t.TempDir()
	j, err := journal.Open(filepath.Join(dir, "journal.db"), logger.NewNopLogger())
	require.NoError(t, err)
	defer j.Close()
	work := workfile.NewManager(filepath.Join(dir, "work.json"), logger.NewNopLogger())

	r, _ := newRunner(client, WithRecorder(j), WithBatchSink(work), WithUsername("alice"))
	res, err := r.Delete(context.Background(), twitter.Window{})

	id, ok := errs.FailedID(err)
	require.True(t, ok)
	assert.Equal(t, "12", id)
	assert.Equal(t, 2, res.Acted)
	assert.Equal(t, []string{"12"}, srv.RemainingTweets())
	assert.Zero(t, srv.SignatureFailures())

	saved, err := work.Load()
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "12", saved[0].ID)

	runs, err := j.RecentRuns(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, journal.StateAborted, runs[0].State)
	assert.Equal(t, 2, runs[0].Counts.Acted)
	assert.Contains(t, runs[0].Error, "12")

	actions, err := j.Actions(context.Background(), runs[0].ID)
	require.NoError(t, err)
	require.Len(t, actions, 3)
	assert.Equal(t, "failed", actions[2].Outcome)
}

func TestUnlikeAgainstStickyFakeAPI(t *testing.T) {
	srv := twittertest.NewServer()
	defer srv.Close()
	srv.StickyLikes = true
	srv.SetLikes("1", "2", "3")
	srv.FailUnlike["2"] = 404

	client := twitter.NewClient(config.AppCredential{APIKey: "b", ConsumerKey: "ck", ConsumerSecret: "cs"}, 5*time.Second,
		twitter.WithBaseURL(srv.URL),
		twitter.WithLogger(logger.NewNopLogger()),
	)
	client.SetUser(&credential.UserCredential{Username: "alice", ID: "123", OAuthToken: "finalB", OAuthTokenSecret: "secC"})

	r, _ := newRunner(client)
	res, err := r.Unlike(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Acted)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, []string{"2"}, srv.RemainingLikes())
	assert.Len(t, srv.CallsTo("/2/users/123/liked_tweets"), 2)
}

// runDurationSum reads the run duration histogram sum for kind from the metrics endpoint
func runDurationSum(t *testing.T, kind Kind) float64 {
	t.Helper()
	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	prefix := `xpurge_run_duration_seconds_sum{kind="` + string(kind) + `"} `
	for _, line := range strings.Split(rec.Body.String(), "\n") {
		if v, ok := strings.CutPrefix(line, prefix); ok {
			sum, err := strconv.ParseFloat(v, 64)
			require.NoError(t, err)
			return sum
		}
	}
	return 0
}

func TestRunDurationUsesRunnerClock(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		now = now.Add(time.Hour)
		return now
	}

	before := runDurationSum(t, KindUnlike)
	api := &scriptedAPI{batches: [][]string{{"1"}}}
	r, _ := newRunner(api, WithClock(clock))

	_, err := r.Unlike(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 3600, runDurationSum(t, KindUnlike)-before, 0.001)
}
