package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bizradar/internal/agent"
	"bizradar/internal/agent/analyst"
	"bizradar/internal/agent/competition"
	"bizradar/internal/auth"
	"bizradar/internal/jobs"
	"bizradar/internal/llm"
	"bizradar/internal/prompt"
	"bizradar/internal/server"
	"bizradar/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bizradar API server",
	Long: `Starts the HTTP API, the prompt template watcher, and the
background poller that finalizes queued provider runs. The process
shuts down cleanly on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	st, err := store.Open(cfg.Database.Path, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.RunMigrations(); err != nil {
		return err
	}

	client, err := llm.NewFromConfig(context.Background(), cfg, logger)
	if err != nil {
		return err
	}

	prompts, err := prompt.NewRegistry(cfg.Prompts.Dir, logger)
	if err != nil {
		return err
	}
	if cfg.Prompts.Watch && cfg.Prompts.Dir != "" {
		watcher, err := prompt.NewWatcher(prompts, logger)
		if err != nil {
			return fmt.Errorf("failed to watch prompts: %w", err)
		}
		if err := watcher.Start(); err != nil {
			return fmt.Errorf("failed to watch prompts: %w", err)
		}
		defer watcher.Stop()
	}

	registry := buildRegistry(st, client, prompts)

	poller := jobs.NewPoller(st, client, logger, cfg.GetPollInterval(), cfg.Jobs.MaxConcurrent)
	poller.Start()
	defer poller.Stop()

	srv := server.New(server.Options{
		Addr:         cfg.Server.Addr,
		Store:        st,
		Registry:     registry,
		Issuer:       auth.NewIssuer(cfg.Auth.JWTSecret, cfg.GetTokenTTL()),
		Logger:       logger,
		BcryptCost:   cfg.Auth.BcryptCost,
		ReadTimeout:  cfg.GetReadTimeout(),
		WriteTimeout: cfg.GetWriteTimeout(),
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	logger.Info("bizradar started",
		zap.String("addr", cfg.Server.Addr),
		zap.String("provider", client.Provider()),
		zap.String("model", client.Model()),
		zap.Int("agents", registry.Count()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GetShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
	return nil
}

// buildRegistry wires every agent against the shared store, provider
// client, and prompt templates.
func buildRegistry(st *store.Store, client llm.Client, prompts *prompt.Registry) *agent.Registry {
	registry := agent.NewRegistry()
	registry.MustRegister(analyst.New(analyst.Deps{
		Store:     st,
		LLM:       client,
		Prompts:   prompts,
		PromptIDs: cfg.LLM.PromptIDs,
		Logger:    logger,
	}))
	registry.MustRegister(competition.New(competition.Deps{
		Store:     st,
		LLM:       client,
		Prompts:   prompts,
		PromptIDs: cfg.LLM.PromptIDs,
		Logger:    logger,
	}))
	return registry
}
