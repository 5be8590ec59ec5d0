// Package openai implements the OpenAI chat-completions wire format for the
// shared streaming client. Any OpenAI-compatible endpoint (DeepSeek, Qwen,
// local gateways) works through this format with an Endpoint override.
package openai

import (
	"encoding/json"
	"net/http"

	"github.com/BaSui01/uiflow/llm"
)

const defaultBaseURL = "https://api.openai.com"

// Format implements llm.Format for OpenAI-style APIs.
type Format struct{}

// New returns the OpenAI wire format.
func New() Format { return Format{} }

func (Format) Name() string { return "openai" }

func (Format) Endpoint(cfg llm.ProviderConfig) string {
	return llm.BaseURL(cfg, defaultBaseURL) + "/v1/chat/completions"
}

func (Format) HealthEndpoint(cfg llm.ProviderConfig) string {
	return llm.BaseURL(cfg, defaultBaseURL) + "/v1/models"
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float32       `json:"temperature,omitempty"`
	Stream      bool          `json:"stream"`
}

// streamRecord is the decoded shape of one `data:` record. The text
// increment lives at choices[0].delta.content.
type streamRecord struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func (Format) BuildRequest(cfg llm.ProviderConfig, messages []llm.Message) ([]byte, error) {
	body := chatRequest{
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Stream:      true,
	}
	for _, m := range messages {
		body.Messages = append(body.Messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}
	return json.Marshal(body)
}

func (Format) BuildHeaders(req *http.Request, cfg llm.ProviderConfig) {
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
}

func (Format) ExtractDelta(record []byte) (string, error) {
	var rec streamRecord
	if err := json.Unmarshal(record, &rec); err != nil {
		return "", err
	}
	if len(rec.Choices) == 0 {
		return "", nil
	}
	return rec.Choices[0].Delta.Content, nil
}
