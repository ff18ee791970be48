// Package main is the entry point for the chat backend.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Russell-Ding/AWS-Chat-Template/internal/chat"
	"github.com/Russell-Ding/AWS-Chat-Template/internal/config"
	"github.com/Russell-Ding/AWS-Chat-Template/internal/extract"
	"github.com/Russell-Ding/AWS-Chat-Template/internal/providers"
	"github.com/Russell-Ding/AWS-Chat-Template/internal/server"
	"github.com/Russell-Ding/AWS-Chat-Template/internal/store"
	"github.com/Russell-Ding/AWS-Chat-Template/internal/tools"
)

func main() {
	// Local .env is optional; real deployments use the environment.
	_ = godotenv.Load()

	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	setupLogging(*debug)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	log.Info().
		Int("port", cfg.Server.Port).
		Str("store", cfg.Store.Path).
		Str("region", cfg.Bedrock.Region).
		Bool("search", cfg.Search.Enabled).
		Msg("configuration loaded")

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open conversation store")
	}
	defer st.Close()

	ctx := context.Background()

	registry := providers.NewRegistry()
	client, err := buildClient(ctx, cfg, registry)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up inference client")
	}

	var searcher tools.Searcher = noSearch{}
	if cfg.Search.Enabled {
		web := tools.NewWebSearcher(tools.SearchConfig{
			Headless:    cfg.Search.Headless,
			ChromePath:  cfg.Search.ChromePath,
			MaxResults:  cfg.Search.MaxResults,
			TokenBudget: cfg.Search.TokenBudget,
			PageTimeout: cfg.Search.PageTimeout.Std(),
		})
		if err := web.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to start search browser")
		}
		defer web.Stop()
		searcher = web
	}

	orch := chat.New(st, client, searcher, cfg.Chat.MaxTurns)
	srv := server.New(cfg.Server, st, orch, registry, extract.New())

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
		}
	}()

	if err := srv.Start(); err != nil && err.Error() != "http: Server closed" {
		log.Fatal().Err(err).Msg("server error")
	}
	log.Info().Msg("server stopped")
}

// buildClient wires the provider client. The SigV4 signing transport is
// only constructed for real Bedrock endpoints; a configured endpoint
// override (local stub, private gateway) skips signing.
func buildClient(ctx context.Context, cfg *config.Config, registry *providers.Registry) (*providers.Client, error) {
	opts := providers.ClientOptions{
		Endpoint:  cfg.Bedrock.Endpoint,
		Region:    cfg.Bedrock.Region,
		Timeout:   cfg.Bedrock.Timeout.Std(),
		MaxTokens: cfg.Bedrock.MaxTokens,
		Overrides: cfg.Bedrock.Overrides,
	}
	if cfg.Bedrock.Endpoint == "" {
		transport, err := providers.NewSigningTransport(ctx, cfg.Bedrock.Region, nil)
		if err != nil {
			return nil, err
		}
		opts.HTTPClient = &http.Client{Transport: transport}
	}
	return providers.NewClient(registry, opts), nil
}

// noSearch satisfies the search boundary when the tool is disabled.
type noSearch struct{}

func (noSearch) Search(context.Context, string) string { return "" }

// setupLogging configures zerolog console output and the global level.
func setupLogging(debug bool) {
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	})
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
