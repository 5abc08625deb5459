package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"harvest/internal/configuration"
	"harvest/internal/history"
	"harvest/internal/journal"
	"harvest/internal/score/rule"
	"harvest/internal/score/scorer"
	"harvest/internal/server"

	"golang.org/x/sync/errgroup"
)

// prepareLogger sets the default slog logger: JSON on stdout at the given level
// (debug, info, warn, error). Unknown levels fall back to info.
func prepareLogger(level string) {
	var logLevel slog.Level

	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn", "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	slog.SetDefault(slog.New(handler))
}

func newJournal(config configuration.JournalConfig) journal.Journal {
	if config.File == "" {
		return journal.Nop{}
	}
	return journal.NewJsonlJournal(config.File, config.Size, config.Amount)
}

// Exits with code 1 when configuration, rules or the model backend cannot be set up.
func main() {
	configPath := flag.String("config", "/etc/harvest/config.yaml", "configuration file")
	envPath := flag.String("env", ".env", "optional dotenv file")
	flag.Parse()

	if err := configuration.LoadEnvFile(*envPath); err != nil {
		slog.Debug("Skipping dotenv file", "path", *envPath, "error", err)
	}

	config, err := configuration.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Unable to load configuration", "error", err)
		os.Exit(1)
	}
	prepareLogger(config.Logger.Level)

	appCtx, appCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer appCancel()

	var bonus rule.Set
	if config.Model.Rules != "" {
		bonus, err = rule.LoadFromFile(config.Model.Rules)
		if err != nil {
			slog.Error("Unable to load bonus rules", "error", err)
			os.Exit(1)
		}
		slog.Info("Bonus rules loaded", "rules", len(bonus))
	}

	model, err := scorer.NewModelClient(
		config.Model.Url,
		config.Model.Name,
		scorer.WithTimeout(config.Model.Timeout),
		scorer.WithMaxLength(config.Model.MaxLength),
	)
	if err != nil {
		slog.Error("Unable to initialize model client", "error", err)
		os.Exit(1)
	}

	readyCtx, readyCancel := context.WithTimeout(appCtx, config.Model.Timeout)
	err = model.Ready(readyCtx)
	readyCancel()
	if err != nil {
		slog.Error("Model is not ready", "model", config.Model.Name, "url", config.Model.Url, "error", err)
		os.Exit(1)
	}

	answerScorer, err := scorer.New(config.Model.Head, model, bonus)
	if err != nil {
		slog.Error("Unable to initialize scorer", "error", err)
		os.Exit(1)
	}

	historyRepo := history.NewRepository(config.History.Length, config.History.Ttl)
	answersJournal := newJournal(config.Journal)

	srv := server.NewServer(
		config.Server.Address,
		config.Server.WriteTimeout,
		server.NewApiRouter(answerScorer, model, historyRepo, answersJournal),
	)

	g, ctx := errgroup.WithContext(appCtx)
	g.Go(func() error {
		return historyRepo.Serve(ctx)
	})
	g.Go(func() error {
		slog.Info("Server listening "+config.Server.Address, "model", config.Model.Name, "head", config.Model.Head)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second*10)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	if closeErr := answersJournal.Close(); closeErr != nil {
		slog.Warn("Journal close", "error", closeErr)
	}
	if err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped")
}
