package main

import (
	"context"
	"fmt"

	"gamesage/internal/answer"
	"gamesage/internal/answer/policy"
	"gamesage/internal/assistant"
	"gamesage/internal/config"
	"gamesage/internal/debug"
	"gamesage/internal/draft"
	"gamesage/internal/llm"
	"gamesage/internal/logging"
	"gamesage/internal/observability"
	"gamesage/internal/providers"
	"gamesage/internal/providers/hltb"
	"gamesage/internal/providers/rawg"
	"gamesage/internal/providers/wiki"
)

// needs says which parts of the app a command uses.
type needs struct {
	store     bool
	assistant bool
}

type app struct {
	cfg       config.Config
	debug     *debug.Logger
	terms     answer.Terms
	enforcer  *policy.Enforcer
	store     *logging.TurnLogger
	assistant *assistant.Assistant
	tracer    *observability.TracerProvider
}

func createApp(ctx context.Context, opts *rootOptions, n needs) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.debug {
		cfg.Debug = true
	}
	if opts.dbPath != "" {
		cfg.DBPath = opts.dbPath
	}
	if opts.termsPath != "" {
		cfg.TermsPath = opts.termsPath
	}
	if n.assistant {
		if err := cfg.RequireLLM(); err != nil {
			return nil, err
		}
	}

	a := &app{cfg: cfg, debug: debug.NewLogger(cfg.Debug)}

	a.terms, err = answer.LoadTerms(cfg.TermsPath)
	if err != nil {
		return nil, err
	}
	a.enforcer = policy.New(a.terms)

	if n.store || n.assistant {
		a.store, err = logging.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize turn log: %w", err)
		}
	}

	if !n.assistant {
		return a, nil
	}

	a.tracer, err = observability.InitTracing(ctx, cfg.Tracing)
	if err != nil {
		a.debug.Printf("Failed to initialize tracing: %v", err)
	} else if a.tracer.IsEnabled() {
		a.debug.Println("OpenTelemetry tracing initialized and enabled")
	} else {
		a.debug.Println("OpenTelemetry tracing disabled (set OTEL_TRACES_ENABLED=true to enable)")
	}

	llmService := llm.NewService(llm.Options{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
	}, a.debug)

	deps := assistant.Deps{
		Terms:   a.terms,
		Drafter: draft.NewDrafter(llmService, a.debug),
		Length:  hltb.New(providers.NewClient(cfg.ProviderTimeout, cfg.ProviderRPS), cfg.HLTBBaseURL),
		Wiki:    wiki.New(providers.NewClient(cfg.ProviderTimeout, cfg.ProviderRPS), cfg.WikiAPIURL, a.terms.SectionSynonyms),
		Store:   a.store,
		Debug:   a.debug,
	}
	metadata := rawg.New(providers.NewClient(cfg.ProviderTimeout, cfg.ProviderRPS), cfg.RAWGBaseURL, cfg.RAWGAPIKey)
	if metadata.Enabled() {
		deps.Metadata = metadata
	} else {
		a.debug.Println("RAWG_API_KEY not set, metadata lookups disabled")
	}
	a.assistant = assistant.New(deps)

	a.debug.Printf("Starting gamesage %s with model %s", version, cfg.OpenAIModel)
	return a, nil
}

func (a *app) Close() {
	if a.tracer != nil {
		a.tracer.Shutdown(context.Background())
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.debug.Warnf("failed to close turn log: %v", err)
		}
	}
	a.debug.Sync()
}
