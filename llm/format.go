package llm

import (
	"net/http"
	"strings"
)

// Format is the per-provider wire strategy: how to shape the request, which
// headers to attach, and how to pull the text increment out of a decoded
// stream record. The shared buffering/extraction logic stays provider-agnostic;
// only these three concerns differ between OpenAI-style and Anthropic-style APIs.
type Format interface {
	// Name returns the provider identifier (e.g. "openai", "anthropic").
	Name() string

	// Endpoint returns the full streaming endpoint URL for the given config.
	Endpoint(cfg ProviderConfig) string

	// HealthEndpoint returns the URL probed by connectivity checks.
	HealthEndpoint(cfg ProviderConfig) string

	// BuildRequest marshals the provider-specific streaming request body.
	BuildRequest(cfg ProviderConfig, messages []Message) ([]byte, error)

	// BuildHeaders applies authentication and content headers.
	BuildHeaders(req *http.Request, cfg ProviderConfig)

	// ExtractDelta pulls the text increment out of one parsed `data:` record.
	// A record that carries no text (role preludes, stop events, usage blocks)
	// yields an empty string and no error.
	ExtractDelta(record []byte) (string, error)
}

// BaseURL normalizes a configured endpoint override against a default.
func BaseURL(cfg ProviderConfig, def string) string {
	if cfg.Endpoint != "" {
		return strings.TrimRight(cfg.Endpoint, "/")
	}
	return def
}
