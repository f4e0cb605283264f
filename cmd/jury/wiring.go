package main

import (
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	customvoting "github.com/ahrav/go-jury/examples/custom_voting"
	"github.com/ahrav/go-jury/infrastructure/juror"
	"github.com/ahrav/go-jury/infrastructure/llm"
	"github.com/ahrav/go-jury/internal/application"
	"github.com/ahrav/go-jury/internal/ports"
)

const serviceName = "jury"

// Transport retry backoff bounds.
const (
	retryBaseDelay = 500 * time.Millisecond
	retryMaxDelay  = 10 * time.Second
)

// jurorFactory creates the jurors described by cfg, in configuration order.
type jurorFactory func(cfg *application.JuryConfig, metrics ports.MetricsCollector) ([]ports.Juror, error)

// newStrategyRegistry returns a registry holding the example custom
// strategies.
func newStrategyRegistry() (*application.StrategyRegistry, error) {
	registry := application.NewStrategyRegistry()
	if err := customvoting.Register(registry); err != nil {
		return nil, fmt.Errorf("failed to register example strategies: %w", err)
	}
	return registry, nil
}

func loadConfig(path string, registry ports.StrategyRegistry) (*application.JuryConfig, error) {
	loader, err := application.NewConfigLoader(registry)
	if err != nil {
		return nil, err
	}
	return loader.LoadFromFile(path)
}

// newLLMJurors builds one LLM-backed juror per configured juror. Each juror
// gets its own client so rate limits apply per juror.
func newLLMJurors(cfg *application.JuryConfig, metrics ports.MetricsCollector) ([]ports.Juror, error) {
	jurors := make([]ports.Juror, 0, len(cfg.Jurors))
	for _, jc := range cfg.Jurors {
		creds, err := llm.ResolveCredentials(jc.Provider)
		if err != nil {
			return nil, fmt.Errorf("juror %s: %w", jc.Name, err)
		}

		client, err := llm.NewClient(creds.Provider, llm.ClientConfig{
			APIKey:     creds.APIKey,
			Model:      jc.Model,
			BaseURL:    creds.BaseURL,
			Timeout:    time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
			Middleware: clientMiddleware(cfg.LLM, creds.Provider, metrics),
		})
		if err != nil {
			return nil, fmt.Errorf("juror %s: %w", jc.Name, err)
		}

		j, err := juror.New(juror.Config{
			Name:                 jc.Name,
			Weight:               jc.EffectiveWeight(),
			SystemPrompt:         jc.SystemPrompt,
			Temperature:          jc.EffectiveTemperature(),
			OptionalExplanations: !cfg.ExplanationRequired(),
			Attempts:             cfg.Attempts(),
		}, client, juror.WithLogger(slog.Default()))
		if err != nil {
			return nil, err
		}
		jurors = append(jurors, j)
	}
	return jurors, nil
}

// clientMiddleware assembles the provider middleware, outermost first.
// The timeout sits inside the retry loop so it bounds each attempt.
func clientMiddleware(settings application.LLMSettings, provider string, metrics ports.MetricsCollector) []llm.Middleware {
	mw := []llm.Middleware{llm.TracingMiddleware(serviceName)}

	retries := 0
	if settings.RetryAttempts != nil {
		retries = *settings.RetryAttempts
	}
	if retries > 0 {
		mw = append(mw, llm.RetryMiddleware(retries, retryBaseDelay, retryMaxDelay))
	}
	if settings.RateLimitRPS > 0 {
		mw = append(mw, llm.RateLimitMiddleware(rate.Limit(settings.RateLimitRPS), max(settings.RateLimitBurst, 1)))
	}
	if settings.TimeoutSeconds > 0 {
		mw = append(mw, llm.TimeoutMiddleware(time.Duration(settings.TimeoutSeconds)*time.Second))
	}
	return append(mw, llm.MetricsMiddleware(provider, metrics))
}

// buildJury loads path and assembles a jury around the configured jurors.
func buildJury(
	path string,
	registry *application.StrategyRegistry,
	factory jurorFactory,
	metrics ports.MetricsCollector,
) (*application.Jury, error) {
	cfg, err := loadConfig(path, registry)
	if err != nil {
		return nil, err
	}
	jurors, err := factory(cfg, metrics)
	if err != nil {
		return nil, err
	}
	return application.NewJury(cfg, jurors,
		application.WithAggregator(application.NewVotingAggregator(registry)),
		application.WithMetrics(metrics),
	)
}
