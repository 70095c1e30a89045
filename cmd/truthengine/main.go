package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/preethamgouda/truth-engine/internal/appconfig"
	"github.com/preethamgouda/truth-engine/internal/codec"
	"github.com/preethamgouda/truth-engine/internal/domain"
	"github.com/preethamgouda/truth-engine/internal/metrics"
	"github.com/preethamgouda/truth-engine/internal/pipeline"
	"github.com/preethamgouda/truth-engine/internal/replay"
	"github.com/preethamgouda/truth-engine/internal/statestore"
)

// newLogger builds the run's structured logger. TRUTHENGINE_LOG_LEVEL is
// the one environment knob honored anywhere in this binary, and it only
// ever affects logging verbosity.
func newLogger() *logrus.Entry {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	level := logrus.InfoLevel
	if raw := os.Getenv("TRUTHENGINE_LOG_LEVEL"); raw != "" {
		if parsed, err := logrus.ParseLevel(raw); err == nil {
			level = parsed
		}
	}
	log.SetLevel(level)

	return log.WithField("run_id", uuid.NewString())
}

func main() {
	log := newLogger()

	app := &cli.App{
		Name:  "truthengine",
		Usage: "deterministic price-decision core for the construction-materials marketplace",
		Commands: []*cli.Command{
			runCommand(log),
			replayCommand(log),
			verifyStateCommand(log),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Error("exiting with failure")
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps domain sentinel errors to process exit codes: one
// small, exhaustive switch, no fallback that swallows the kind.
func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidEvent):
		return 10
	case errors.Is(err, domain.ErrOutOfOrder):
		return 11
	case errors.Is(err, domain.ErrStateCorrupt):
		return 12
	case errors.Is(err, domain.ErrReplayMismatch):
		return 13
	default:
		return 1
	}
}

func runCommand(log *logrus.Entry) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "process events starting from an existing (or empty) state",
		Flags: appconfig.RunFlags(),
		Action: func(c *cli.Context) error {
			cfg, err := appconfig.FromContext(c)
			if err != nil {
				return err
			}
			return runRun(log, cfg)
		},
	}
}

func runRun(log *logrus.Entry, cfg appconfig.Config) error {
	start := time.Now()
	log.WithFields(logrus.Fields{"events": cfg.EventsPath, "state": cfg.StatePath}).Info("run: loading state")

	state, err := statestore.Load(cfg.StatePath)
	if err != nil {
		return err
	}

	eventsFile, err := os.Open(cfg.EventsPath)
	if err != nil {
		return fmt.Errorf("run: open events %s: %w", cfg.EventsPath, err)
	}
	defer eventsFile.Close()

	events, err := pipeline.ReadEvents(eventsFile)
	if err != nil {
		return err
	}

	auditFile, err := os.Create(cfg.AuditPath)
	if err != nil {
		return fmt.Errorf("run: create audit %s: %w", cfg.AuditPath, err)
	}
	defer auditFile.Close()

	rec := metrics.New()
	log.WithField("event_count", len(events)).Info("run: processing")

	p := pipeline.New(log, rec)
	if err := p.Run(events, state, auditFile); err != nil {
		return err
	}

	if err := statestore.Save(cfg.StatePath, state); err != nil {
		return err
	}

	if cfg.MetricsOut != "" {
		if err := rec.WriteTo(cfg.MetricsOut); err != nil {
			return fmt.Errorf("run: write metrics %s: %w", cfg.MetricsOut, err)
		}
	}

	log.WithFields(logrus.Fields{
		"state_hash": state.StateHash,
		"elapsed":    time.Since(start).Truncate(time.Millisecond),
	}).Info("run: complete")
	return nil
}

func replayCommand(log *logrus.Entry) *cli.Command {
	return &cli.Command{
		Name:  "replay",
		Usage: "reprocess events from an empty state and verify the resulting hash",
		Flags: appconfig.ReplayFlags(),
		Action: func(c *cli.Context) error {
			cfg, err := appconfig.FromContext(c)
			if err != nil {
				return err
			}
			return runReplay(log, cfg)
		},
	}
}

func runReplay(log *logrus.Entry, cfg appconfig.Config) error {
	expected, err := replay.ReadExpectedHash(cfg.VerifyPath)
	if err != nil {
		return err
	}

	rec := metrics.New()
	v := replay.New(log, rec)
	result, err := v.Run(cfg.EventsPath, cfg.StatePath, cfg.AuditPath, expected)
	if err != nil {
		return err
	}

	if cfg.MetricsOut != "" {
		if err := rec.WriteTo(cfg.MetricsOut); err != nil {
			return fmt.Errorf("replay: write metrics %s: %w", cfg.MetricsOut, err)
		}
	}

	log.WithField("state_hash", result.ComputedHash).Info("replay: hashes match")
	return nil
}

func verifyStateCommand(log *logrus.Entry) *cli.Command {
	return &cli.Command{
		Name:  "verify-state",
		Usage: "load a rules_state.json file and report STATE_CORRUPT without running any events",
		Flags: appconfig.VerifyStateFlags(),
		Action: func(c *cli.Context) error {
			cfg, err := appconfig.FromContext(c)
			if err != nil {
				return err
			}
			return runVerifyState(log, cfg)
		},
	}
}

func runVerifyState(log *logrus.Entry, cfg appconfig.Config) error {
	state, err := statestore.Load(cfg.StatePath)
	if err != nil {
		return err
	}
	hash, err := codec.FingerprintState(state)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"state": cfg.StatePath, "state_hash": hash}).Info("verify-state: ok")
	return nil
}
