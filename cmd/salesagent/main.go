// Command salesagent is the main entry point for the conversational sales
// agent embed runtime.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/salesagent/runtime/internal/app"
	"github.com/salesagent/runtime/internal/config"
	"github.com/salesagent/runtime/internal/engagement"
	"github.com/salesagent/runtime/internal/health"
	"github.com/salesagent/runtime/internal/observe"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "salesagent: config file %q not found\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "salesagent: %v\n", err)
		}
		return 1
	}

	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("salesagent starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	otelShutdown, err := observe.InitProvider(context.Background(), observe.ProviderConfig{
		ServiceName: "salesagent",
	})
	if err != nil {
		slog.Error("failed to initialise OpenTelemetry providers", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Error("otel shutdown error", "err", err)
		}
	}()

	reg := config.NewRegistry()
	app.RegisterBuiltinProviders(reg)

	application, err := app.New(*cfg, reg)
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	rules := loadEngagementRules(cfg.Triggers.RulesPath)
	application.SetEngagementRules(rules)

	rulesWatcher := watchEngagementRules(cfg.Triggers.RulesPath, application)
	if rulesWatcher != nil {
		defer rulesWatcher.Close()
	}

	printStartupSummary(cfg, len(rules))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := newServer(cfg.Server.ListenAddr, application)
	serveErrCh := make(chan error, 1)
	go func() {
		slog.Info("server ready — press Ctrl+C to shut down", "addr", cfg.Server.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
			return
		}
		serveErrCh <- nil
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErrCh:
		if err != nil {
			slog.Error("server error", "err", err)
			return 1
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	slog.Info("shutdown signal received, stopping…")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "err", err)
	}
	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("application shutdown error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// loadEngagementRules reads the engagement-trigger rule table at path, if
// one is configured.
func loadEngagementRules(path string) []engagement.Rule {
	if path == "" {
		return nil
	}
	rules, err := engagement.LoadRules(path)
	if err != nil {
		slog.Warn("failed to load engagement rule table — starting with none", "path", path, "err", err)
		return nil
	}
	return rules
}

// watchEngagementRules installs an fsnotify watch on the rule table file so
// editing it takes effect without restarting the embed service (spec.md
// §4.8's Open Question). Returns nil if no rules path is configured.
func watchEngagementRules(path string, application *app.App) *fsnotify.Watcher {
	if path == "" {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Warn("failed to start engagement rule table watcher", "err", err)
		return nil
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		slog.Warn("failed to watch engagement rule table directory", "path", path, "err", err)
		_ = w.Close()
		return nil
	}
	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(path) {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				rules := loadEngagementRules(path)
				if rules != nil {
					application.SetEngagementRules(rules)
					slog.Info("engagement rule table reloaded", "path", path, "rule_count", len(rules))
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("engagement rule table watcher error", "err", err)
			}
		}
	}()
	return w
}

func newServer(addr string, application *app.App) *http.Server {
	mux := http.NewServeMux()
	healthHandler := health.New()
	healthHandler.Register(mux)
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/embed", newEmbedHandler(application))
	mux.Handle("/voice/", http.StripPrefix("/voice", application.VoiceSignalingHandler()))
	return &http.Server{Addr: addr, Handler: observe.Middleware(observe.DefaultMetrics())(mux)}
}

func printStartupSummary(cfg *config.Config, ruleCount int) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║      salesagent — startup summary     ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printProvider("LLM", cfg.Providers.LLM.Name, cfg.Providers.LLM.Model)
	printProvider("STT", cfg.Providers.STT.Name, cfg.Providers.STT.Model)
	printProvider("TTS", cfg.Providers.TTS.Name, cfg.Providers.TTS.Model)
	fmt.Printf("║  Engagement rules: %-18d ║\n", ruleCount)
	if cfg.Server.ListenAddr != "" {
		fmt.Printf("║  Listen addr     : %-19s ║\n", cfg.Server.ListenAddr)
	}
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printProvider(kind, name, model string) {
	value := name
	if value == "" {
		value = "(not configured)"
	} else if model != "" {
		value = name + " / " + model
	}
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-12s    : %-19s ║\n", kind, value)
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
