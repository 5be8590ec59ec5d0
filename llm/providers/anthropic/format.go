// Package anthropic implements the Anthropic Messages wire format for the
// shared streaming client.
//
// The Anthropic API differs from OpenAI-style endpoints in three ways that
// matter here: authentication uses the x-api-key header, the system prompt
// is passed as a separate top-level field, and stream records are typed
// events whose text increment lives at content_block_delta.delta.text.
package anthropic

import (
	"encoding/json"
	"net/http"

	"github.com/BaSui01/uiflow/llm"
)

const (
	defaultBaseURL   = "https://api.anthropic.com"
	apiVersion       = "2023-06-01"
	defaultMaxTokens = 4096 // the Messages API requires max_tokens
)

// Format implements llm.Format for the Anthropic Messages API.
type Format struct{}

// New returns the Anthropic wire format.
func New() Format { return Format{} }

func (Format) Name() string { return "anthropic" }

func (Format) Endpoint(cfg llm.ProviderConfig) string {
	return llm.BaseURL(cfg, defaultBaseURL) + "/v1/messages"
}

func (Format) HealthEndpoint(cfg llm.ProviderConfig) string {
	return llm.BaseURL(cfg, defaultBaseURL) + "/v1/models"
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	System      string    `json:"system,omitempty"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float32   `json:"temperature,omitempty"`
	Stream      bool      `json:"stream"`
}

// streamEvent is the decoded shape of one `data:` record.
type streamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
}

func (Format) BuildRequest(cfg llm.ProviderConfig, messages []llm.Message) ([]byte, error) {
	body := request{
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Stream:      true,
	}
	if body.MaxTokens == 0 {
		body.MaxTokens = defaultMaxTokens
	}
	for _, m := range messages {
		// System prompts travel in the dedicated field, not the message list.
		if m.Role == llm.RoleSystem {
			body.System = m.Content
			continue
		}
		body.Messages = append(body.Messages, message{Role: string(m.Role), Content: m.Content})
	}
	return json.Marshal(body)
}

func (Format) BuildHeaders(req *http.Request, cfg llm.ProviderConfig) {
	req.Header.Set("x-api-key", cfg.APIKey)
	req.Header.Set("anthropic-version", apiVersion)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
}

func (Format) ExtractDelta(record []byte) (string, error) {
	var ev streamEvent
	if err := json.Unmarshal(record, &ev); err != nil {
		return "", err
	}
	if ev.Type != "content_block_delta" {
		return "", nil
	}
	return ev.Delta.Text, nil
}
