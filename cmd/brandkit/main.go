package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/vampirenirmal/brandkit/internal/agent"
	"github.com/vampirenirmal/brandkit/internal/config"
	"github.com/vampirenirmal/brandkit/internal/core"
	"github.com/vampirenirmal/brandkit/internal/domain"
	"github.com/vampirenirmal/brandkit/internal/media"
	"github.com/vampirenirmal/brandkit/internal/server"
	"github.com/vampirenirmal/brandkit/internal/stage"
)

const usage = `Usage: brandkit <command> [flags]

Commands:
  serve      start the HTTP server
  generate   generate a brand package for one idea and print it as JSON
  diagnose   check provider configuration with a sample strategy run
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx, os.Args[2:])
	case "generate":
		err = runGenerate(ctx, os.Args[2:])
	case "diagnose":
		err = runDiagnose(ctx, os.Args[2:])
	case "-h", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app holds the wired components for one process.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	orch     *core.Orchestrator
	strategy *stage.StrategyStage
	regen    *stage.Regenerator
	status   server.Status
}

func newApp(mock bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	var (
		text   agent.AIClient
		runner media.Runner
		status server.Status
	)
	if mock {
		text = agent.NewMockClient()
		runner = media.NewMockClient()
		status = server.Status{TextConfigured: true, MediaConfigured: true}
	} else {
		lim := cfg.Limits
		textClient := agent.NewClient(cfg.Text.APIKey,
			agent.WithAPIConfig(cfg.Text.APIType, cfg.Text.BaseURL, cfg.Text.Model),
			agent.WithTimeout(cfg.Text.Timeout),
			agent.WithRetry(lim.MaxRetries),
			agent.WithRateLimit(lim.TextRateLimit.RequestsPerMinute, lim.TextRateLimit.BurstSize),
			agent.WithLogger(logger),
		)
		mediaClient := media.NewClient(cfg.Media.APIKey,
			media.WithBaseURL(cfg.Media.BaseURL),
			media.WithTimeout(cfg.Media.Timeout),
			media.WithRetry(lim.MaxRetries),
			media.WithRateLimit(lim.MediaRateLimit.RequestsPerMinute, lim.MediaRateLimit.BurstSize),
			media.WithLogger(logger),
		)
		text, runner = textClient, mediaClient
		status = server.Status{
			TextConfigured:  textClient.Configured(),
			MediaConfigured: mediaClient.Configured(),
		}
	}

	gen := agent.NewGenerator(text, agent.WithGeneratorLogger(logger))
	studio := media.NewStudio(runner, media.WithModels(cfg.Media.Models), media.WithStudioLogger(logger))

	stages := stage.Pipeline(gen, studio, cfg.Limits.SocialConcurrency, stage.WithLogger(logger))

	return &app{
		cfg:    cfg,
		logger: logger,
		orch: core.New(stages,
			core.WithLogger(logger),
			core.WithMinInterval(cfg.Limits.ProgressInterval)),
		strategy: stage.NewStrategyStage(gen, stage.WithLogger(logger)),
		regen:    stage.NewRegenerator(studio, logger),
		status:   status,
	}, nil
}

func newLogger(lc config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: lc.SlogLevel()}
	if lc.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", "", "listen address (overrides config)")
	mock := fs.Bool("mock", false, "use canned providers instead of real ones")
	_ = fs.Parse(args)

	a, err := newApp(*mock)
	if err != nil {
		return err
	}
	if *addr != "" {
		a.cfg.Server.Addr = *addr
	}

	srv := server.New(a.orch, a.strategy, a.regen, a.status,
		server.WithLogger(a.logger),
		server.WithCORSOrigins(a.cfg.Server.CORSOrigins))
	httpServer := &http.Server{
		Addr:    a.cfg.Server.Addr,
		Handler: srv.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "addr", a.cfg.Server.Addr,
			"text_configured", a.status.TextConfigured,
			"media_configured", a.status.MediaConfigured)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func runGenerate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	idea := fs.String("idea", "", "startup idea to brand")
	mock := fs.Bool("mock", false, "use canned providers instead of real ones")
	_ = fs.Parse(args)

	req, err := domain.NewSimpleRequest(*idea)
	if err != nil {
		return err
	}
	a, err := newApp(*mock)
	if err != nil {
		return err
	}

	var last domain.ProgressUpdate
	for u := range a.orch.Stream(ctx, req) {
		fmt.Fprintf(os.Stderr, "[%3d%%] %-18s %s\n", u.OverallProgress, u.CurrentAgent, u.Message)
		last = u
	}
	if !last.Completed {
		return errors.New("generation ended without a final update")
	}
	if last.Result == nil {
		return fmt.Errorf("generation failed: %s", last.Message)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(last.Result)
}

func runDiagnose(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("diagnose", flag.ExitOnError)
	mock := fs.Bool("mock", false, "use canned providers instead of real ones")
	_ = fs.Parse(args)

	a, err := newApp(*mock)
	if err != nil {
		return err
	}

	report := server.Diagnose(ctx, a.strategy, a.status)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}
	if report.Status == server.DiagnosticError {
		return errors.New(report.Message)
	}
	return nil
}
