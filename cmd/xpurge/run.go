package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"xpurge/pkg/credential"
	errs "xpurge/pkg/errors"
	"xpurge/pkg/pipeline"
	"xpurge/pkg/ratelimit"
	"xpurge/pkg/twitter"
	"xpurge/pkg/ui"
	"xpurge/pkg/ui/tui"
)

// interruptible returns a context cancelled by SIGINT or SIGTERM. stop restores
// the default signal behavior.
func interruptible(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// runPipeline drives a delete or unlike run and exits 1 when it aborts
func runPipeline(ctx context.Context, a *app, cred *credential.UserCredential, kind pipeline.Kind, window twitter.Window) {
	sigCtx, stop := interruptible(ctx)
	defer stop()

	runCtx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	a.startMetrics(runCtx)

	tracker := ui.NewStatusTracker(os.Stdout)
	var observer pipeline.Observer = tracker
	var pacer ratelimit.Pacer = ratelimit.NewIntervalPacer(a.cfg.Pipeline.ActionInterval)

	var dash *tui.TUI
	uiDone := make(chan error, 1)
	if a.cfg.Output.TUI {
		dash = tui.NewTUI(kind, cred.Username, cancel)
		observer = dash
		pacer = dash.Pacer(pacer)
		go func() { uiDone <- dash.Start() }()
	}

	opts := []pipeline.Option{
		pipeline.WithPacer(pacer),
		pipeline.WithBatchSink(a.work),
		pipeline.WithObserver(observer),
		pipeline.WithUsername(cred.Username),
		pipeline.WithLogger(a.log),
	}
	if a.journal != nil {
		opts = append(opts, pipeline.WithRecorder(a.journal))
	}
	runner := pipeline.New(a.client, opts...)

	var (
		res pipeline.Result
		err error
	)
	if kind == pipeline.KindDelete {
		res, err = runner.Delete(runCtx, window)
	} else {
		res, err = runner.Unlike(runCtx)
	}

	if dash != nil {
		dash.Done(err)
		if uiErr := <-uiDone; uiErr != nil {
			a.log.WithError(uiErr).Warn("Dashboard failed")
		}
	}

	tracker.PrintSummary(kind, res)
	if a.cfg.Output.Notify {
		ui.NewNotifier(os.Stdout, true).RunFinished(kind, res, err)
	}

	if err != nil {
		reportRunError(kind, cred, err)
		a.Close()
		os.Exit(1)
	}

	ui.PrintSuccess("[" + string(kind) + " complete, nothing left to act on]")
	ui.PrintInfo("Work file", a.work.Path())
}

func reportRunError(kind pipeline.Kind, cred *credential.UserCredential, err error) {
	if id, ok := errs.FailedID(err); ok {
		ui.PrintError("Failed to delete post", id)
		ui.PrintInfo("Post", twitter.PostURL(cred.Username, id))
		var failure *errs.Error
		if errors.As(err, &failure) && failure.Err != nil {
			ui.PrintInfo("Reason", failure.Err.Error())
		}
		return
	}

	switch {
	case errors.Is(err, context.Canceled):
		ui.PrintWarning("Interrupted")
	case errors.Is(err, errs.ErrSigningPrerequisiteMissing):
		ui.PrintError("Not logged in", "run 'xpurge login' first")
	default:
		ui.PrintError(string(kind)+" aborted", err.Error())
	}
}
