package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/deepresearch"
	"github.com/hupe1980/deepresearch/artifact"
	"github.com/hupe1980/deepresearch/chat"
	"github.com/hupe1980/deepresearch/chat/server"
	"github.com/hupe1980/deepresearch/chat/tui"
	"github.com/hupe1980/deepresearch/config"
	"github.com/hupe1980/deepresearch/core"
	"github.com/hupe1980/deepresearch/logging"
	"github.com/hupe1980/deepresearch/runner"
	"github.com/hupe1980/deepresearch/session"
)

func loadConfig(optFns ...func(o *config.LoadOptions)) (*config.Config, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, err
	}

	if workflow != "" {
		if err := os.Setenv(config.EnvPrefix+"_WORKFLOW", workflow); err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(configFile, optFns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

type app struct {
	cfg       *config.Config
	assistant *deepresearch.Assistant
	sessions  *session.InMemoryStore
	artifacts *artifact.InMemoryStore
}

func newApp(quiet bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:       cfg,
		sessions:  session.NewInMemoryStore(),
		artifacts: artifact.NewInMemoryStore(),
	}

	a.assistant, err = deepresearch.NewFromConfig(cfg, func(o *deepresearch.Options) {
		o.SessionStore = a.sessions
		o.ArtifactStore = a.artifacts
		if quiet {
			o.Logger = logging.NoOpLogger{}
		}
	})
	if err != nil {
		return nil, err
	}

	return a, nil
}

func runChat(cmd *cobra.Command, _ []string) error {
	// The TUI owns the terminal.
	a, err := newApp(true)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	return tui.Run(ctx, chat.NewShim(a.assistant), core.NewID())
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = a.cfg.Server.Address
	}

	logger, err := deepresearch.NewLoggerFromConfig(a.cfg)
	if err != nil {
		return err
	}

	srv := server.New(chat.NewShim(a.assistant, func(o *chat.ShimOptions) { o.Logger = logger }), func(o *server.Options) {
		o.SessionStore = a.sessions
		o.ArtifactStore = a.artifacts
		o.Logger = logger
	})

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	return srv.ListenAndServe(ctx, addr)
}

func runAsk(cmd *cobra.Command, args []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	sessionID := core.NewID()

	res, err := a.assistant.RunSync(ctx, sessionID, args[0])
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), res.Output)

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		return nil
	}

	report, err := loadReport(a.artifacts, sessionID, res)
	if err != nil {
		return err
	}

	if err := os.WriteFile(out, report, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", out)

	return nil
}

// loadReport returns the archived report of res. Runs without an archived
// report, such as those with an empty answer, yield their output as is.
func loadReport(artifacts core.ArtifactStore, sessionID string, res *runner.Result) ([]byte, error) {
	if res.ReportID == "" || artifacts == nil {
		return []byte(res.Output), nil
	}

	report, err := artifacts.Get(sessionID, res.ReportID)
	if err != nil {
		return nil, fmt.Errorf("failed to load report: %w", err)
	}

	return report, nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(func(o *config.LoadOptions) { o.SkipAPIKey = true })
	if err != nil {
		return err
	}

	// Resolve the key only to show whether it is set.
	_ = cfg.ResolveAPIKey()

	fmt.Fprintln(cmd.OutOrStdout(), cfg.String())

	return nil
}
