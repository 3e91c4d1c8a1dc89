// Package pipeline repeatedly fetches the first page of the user's posts or
// likes and acts on every item until nothing is left.
//
// A run moves through these states:
//
//	Idle -> FetchingBatch -> ActingOnBatch -> FetchingBatch ... -> Done | Aborted
//
// A failed or empty fetch ends the run as Done. Deleting stops at the first
// failure with an ActionFailed error carrying the post id; unliking logs the
// failure and moves on. After each batch the first page is fetched again, so
// no cursor is ever kept. Items already attempted in a run are never retried,
// and a page made only of such items ends the run.
//
// Basic usage:
//
//	runner := pipeline.New(client,
//		pipeline.WithPacer(ratelimit.NewIntervalPacer(cfg.Pipeline.ActionInterval)),
//		pipeline.WithBatchSink(workfile.NewManager(cfg.Pipeline.WorkFile, log)),
//	)
//	res, err := runner.Delete(ctx, window)
//	if id, ok := errors.FailedID(err); ok {
//		// id is the post that could not be deleted
//	}
package pipeline
