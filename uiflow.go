// Package uiflow provides a top-level convenience entry point for the
// self-correcting UI-schema generation pipeline.
//
// Usage:
//
//	import "github.com/BaSui01/uiflow"
//
//	p, err := uiflow.New(uiflow.WithOpenAI("gpt-4o-mini"), uiflow.WithCatalog(catalog))
//	result, err := p.Generate(ctx, "a pricing page with three tiers", nil)
//
// The pipeline streams the model's output, extracts candidate JSON, runs the
// staged validation chain and, when defects remain, re-prompts the model
// with exactly the unresolved errors until the schema validates or retries
// are exhausted.
package uiflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/BaSui01/uiflow/config"
	"github.com/BaSui01/uiflow/internal/metrics"
	"github.com/BaSui01/uiflow/llm"
	"github.com/BaSui01/uiflow/llm/providers"
	"github.com/BaSui01/uiflow/llm/providers/anthropic"
	"github.com/BaSui01/uiflow/llm/providers/openai"
	"github.com/BaSui01/uiflow/retry"
	"github.com/BaSui01/uiflow/schema"
	"github.com/BaSui01/uiflow/validate"
)

// Pipeline wires the provider client, validation chain and retry controller
// into one generation entry point. A Pipeline is safe for concurrent use;
// every run owns its own buffers and error history.
type Pipeline struct {
	cfg        *config.Config
	provider   llm.Provider
	catalog    validate.Catalog
	chain      *validate.Chain
	controller *retry.Controller
	logger     *zap.Logger
}

type options struct {
	cfg        *config.Config
	provider   llm.Provider
	catalog    validate.Catalog
	tokens     *validate.TokenCatalog
	logger     *zap.Logger
	registerer prometheus.Registerer
}

// Option configures the pipeline created by [New].
type Option func(*options)

// WithConfig supplies a full configuration, usually from config.NewLoader.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithOpenAI selects the OpenAI provider. API key from OPENAI_API_KEY env
// unless set via config.
func WithOpenAI(model string) Option {
	return func(o *options) {
		o.ensureConfig()
		o.cfg.Provider.Provider = "openai"
		o.cfg.Provider.Model = model
	}
}

// WithAnthropic selects the Anthropic provider. API key from
// ANTHROPIC_API_KEY env unless set via config.
func WithAnthropic(model string) Option {
	return func(o *options) {
		o.ensureConfig()
		o.cfg.Provider.Provider = "anthropic"
		o.cfg.Provider.Model = model
	}
}

// WithAPIKey overrides the provider API key.
func WithAPIKey(key string) Option {
	return func(o *options) {
		o.ensureConfig()
		o.cfg.Provider.APIKey = key
	}
}

// WithProvider sets a pre-built provider, bypassing client construction.
func WithProvider(p llm.Provider) Option {
	return func(o *options) { o.provider = p }
}

// WithCatalog injects the component catalog used by the existence and
// props layers.
func WithCatalog(catalog validate.Catalog) Option {
	return func(o *options) { o.catalog = catalog }
}

// WithTokens injects the design-token catalog used by the style layer.
func WithTokens(tokens *validate.TokenCatalog) Option {
	return func(o *options) { o.tokens = tokens }
}

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithRegisterer enables prometheus metrics on the given registerer.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

func (o *options) ensureConfig() {
	if o.cfg == nil {
		o.cfg = config.Default()
	}
}

// New creates a Pipeline. At minimum a provider must be reachable: either
// inject one with [WithProvider], or select one with [WithOpenAI] /
// [WithAnthropic] and make sure an API key is configured.
func New(opts ...Option) (*Pipeline, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	o.ensureConfig()
	cfg := o.cfg

	logger := o.logger
	if logger == nil {
		var err error
		logger, err = config.NewLogger(cfg.Log)
		if err != nil {
			return nil, fmt.Errorf("failed to build logger: %w", err)
		}
	}

	provider := o.provider
	if provider == nil {
		format, err := formatFor(cfg.Provider.Provider)
		if err != nil {
			return nil, err
		}
		provider, err = providers.NewClient(cfg.Provider, format, logger)
		if err != nil {
			return nil, err
		}
	}

	catalog := o.catalog
	if catalog == nil {
		catalog = cfg.Catalog()
	}
	tokens := o.tokens
	if tokens == nil {
		tokens = cfg.Tokens
	}

	chain := validate.NewChain(catalog,
		validate.WithLogger(logger),
		validate.WithTokenCatalog(tokens),
	)

	ctrlOpts := []retry.ControllerOption{retry.WithLogger(logger)}
	if o.registerer != nil {
		ctrlOpts = append(ctrlOpts, retry.WithMetrics(
			metrics.NewCollector("uiflow", o.registerer, logger),
		))
	}

	return &Pipeline{
		cfg:        cfg,
		provider:   provider,
		catalog:    catalog,
		chain:      chain,
		controller: retry.NewController(chain, ctrlOpts...),
		logger:     logger,
	}, nil
}

// Generate runs the full self-correcting loop for one user prompt and
// returns the validated schema. onProgress may be nil.
func (p *Pipeline) Generate(ctx context.Context, prompt string, onProgress func(retry.ProgressEvent)) (*retry.Result, error) {
	system := p.SystemPrompt()
	generate := func(ctx context.Context, prompt string) (string, error) {
		return p.provider.Complete(ctx, []llm.Message{
			{Role: llm.RoleSystem, Content: system},
			{Role: llm.RoleUser, Content: prompt},
		})
	}
	return p.controller.ExecuteWithRetry(ctx, generate, prompt, retry.Options{
		MaxRetries:            p.cfg.Retry.MaxRetries,
		Timeout:               p.cfg.Retry.Timeout,
		OnProgress:            onProgress,
		IncludePreviousOutput: p.cfg.Retry.IncludePreviousOutput,
		Backoff:               p.backoff(),
	})
}

// ExecuteWithRetry runs the loop with a caller-supplied generate function
// instead of the configured provider.
func (p *Pipeline) ExecuteWithRetry(ctx context.Context, generate retry.GenerateFunc, prompt string, opts retry.Options) (*retry.Result, error) {
	return p.controller.ExecuteWithRetry(ctx, generate, prompt, opts)
}

// Validate runs the full validation chain over raw model output.
func (p *Pipeline) Validate(raw string) *validate.ChainResult {
	return p.chain.Run(raw)
}

// ValidateSchema runs the post-syntax layers over an extracted schema.
func (p *Pipeline) ValidateSchema(s *schema.UISchema) *validate.ChainResult {
	return p.chain.RunSchema(s)
}

// Compliance scores a schema's design-token compliance.
func (p *Pipeline) Compliance(s *schema.UISchema) *validate.ComplianceResult {
	return p.chain.Compliance(s)
}

// HealthCheck probes the configured provider.
func (p *Pipeline) HealthCheck(ctx context.Context) error {
	return p.provider.HealthCheck(ctx)
}

func (p *Pipeline) backoff() *retry.Backoff {
	if p.cfg.Retry.InitialDelay <= 0 {
		return nil
	}
	return &retry.Backoff{
		InitialDelay: p.cfg.Retry.InitialDelay,
		MaxDelay:     p.cfg.Retry.MaxDelay,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

func formatFor(name string) (llm.Format, error) {
	switch strings.ToLower(name) {
	case "openai":
		return openai.New(), nil
	case "anthropic":
		return anthropic.New(), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}
