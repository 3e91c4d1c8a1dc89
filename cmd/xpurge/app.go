package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"xpurge/pkg/config"
	"xpurge/pkg/credential"
	"xpurge/pkg/journal"
	"xpurge/pkg/logger"
	"xpurge/pkg/metrics"
	"xpurge/pkg/session"
	"xpurge/pkg/twitter"
	"xpurge/pkg/ui"
	"xpurge/pkg/workfile"
)

// app holds everything a command needs, built from the merged configuration
type app struct {
	cfg     *config.Config
	log     logger.Logger
	store   credential.Store
	client  *twitter.Client
	work    *workfile.Manager
	journal *journal.Journal
}

// mustLoadConfig loads configuration and initializes logging, exiting on failure
func mustLoadConfig(cmd *cobra.Command) *config.Config {
	cfg, err := config.Load(configFile, changedFlags(cmd))
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	// The dashboard owns the terminal
	if cfg.Output.TUI && cfg.Logging.File == "" {
		cfg.Logging.Level = "disabled"
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logging", err.Error())
		os.Exit(1)
	}
	return cfg
}

// mustSetup builds the API client and supporting stores. When withJournal is
// set and the journal is enabled, it is opened as well.
func mustSetup(cmd *cobra.Command, withJournal bool) *app {
	cfg := mustLoadConfig(cmd)
	log := logger.GetLogger()

	if err := cfg.ValidateAppCredential(); err != nil {
		ui.PrintError("Missing application credentials", err.Error())
		credential.ShowAppKeysGuide(os.Stderr)
		os.Exit(1)
	}

	store, err := credential.NewStore(cfg.Credentials)
	if err != nil {
		ui.PrintError("Failed to open credential store", err.Error())
		os.Exit(1)
	}

	a := &app{
		cfg:    cfg,
		log:    log,
		store:  store,
		client: twitter.NewFromConfig(cfg, log),
		work:   workfile.NewManager(cfg.Pipeline.WorkFile, log),
	}

	if withJournal && cfg.Journal.Enabled {
		j, err := journal.Open(cfg.Journal.Path, log)
		if err != nil {
			log.WithError(err).Warn("Journal unavailable, continuing without it")
		} else {
			a.journal = j
		}
	}

	return a
}

// Close releases the journal
func (a *app) Close() {
	if a.journal == nil {
		return
	}
	if err := a.journal.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close journal")
	}
}

// mustLogin wires the stored credential into the client, running the PIN login when none is stored
func (a *app) mustLogin(ctx context.Context) *credential.UserCredential {
	cred, err := session.InitClient(ctx, a.client, a.store, session.NewTerminalPrompter())
	if err != nil {
		ui.PrintError("Login failed", err.Error())
		os.Exit(1)
	}
	a.log.WithField("username", cred.Username).Debug("Credentials loaded")
	return cred
}

// startMetrics serves /metrics until ctx ends, when an address is configured
func (a *app) startMetrics(ctx context.Context) {
	if a.cfg.Metrics.Addr == "" {
		return
	}

	errCh := metrics.StartServer(ctx, a.cfg.Metrics.Addr)
	a.log.WithField("addr", a.cfg.Metrics.Addr).Info("Serving metrics")

	go func() {
		if err, ok := <-errCh; ok && err != nil {
			a.log.WithError(err).Error("Metrics server stopped")
		}
	}()
}

func describeUser(cred *credential.UserCredential) string {
	if cred.Username == "" {
		return fmt.Sprintf("id %s", cred.ID)
	}
	return fmt.Sprintf("@%s (id %s)", cred.Username, cred.ID)
}
