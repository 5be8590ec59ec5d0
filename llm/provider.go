package llm

import (
	"context"
	"time"
)

// 统一的 LLM 错误码，用于对齐 HTTP 状态、可重试性与降级策略。
type ErrorCode string

const (
	ErrInvalidRequest  ErrorCode = "LLM_INVALID_REQUEST"  // 参数/格式错误
	ErrUnauthorized    ErrorCode = "LLM_UNAUTHORIZED"     // 未授权或密钥失效
	ErrForbidden       ErrorCode = "LLM_FORBIDDEN"        // 权限或内容策略拒绝
	ErrRateLimited     ErrorCode = "LLM_RATE_LIMITED"     // 上游或本地限流
	ErrQuotaExceeded   ErrorCode = "LLM_QUOTA_EXCEEDED"   // 额度/配额用尽
	ErrModelOverloaded ErrorCode = "LLM_MODEL_OVERLOADED" // 模型过载/熔断
	ErrUpstreamTimeout ErrorCode = "LLM_UPSTREAM_TIMEOUT" // 上游超时
	ErrUpstreamError   ErrorCode = "LLM_UPSTREAM_ERROR"   // 上游 5xx/网络错误
)

type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status"`
	Retryable  bool      `json:"retryable"`
	Provider   string    `json:"provider,omitempty"`
}

func (e *Error) Error() string { return e.Message }

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message 是一次会话中的单条消息，发送后不可变。
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// StreamChunk 是流式解码产出的单个文本增量。终止 chunk 的 Done 为 true，
// 传输层错误折叠进 Err 而不是作为 error 抛出流边界。
type StreamChunk struct {
	Content  string `json:"content,omitempty"`
	Done     bool   `json:"done"`
	Provider string `json:"provider,omitempty"`
	Err      *Error `json:"error,omitempty"`
}

// ProviderConfig Provider 配置（由调用方提供，本库只消费）。
type ProviderConfig struct {
	Provider    string            `json:"provider" yaml:"provider"`
	APIKey      string            `json:"api_key" yaml:"api_key"`
	Model       string            `json:"model" yaml:"model"`
	Endpoint    string            `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	MaxTokens   int               `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	Temperature float32           `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	Timeout     time.Duration     `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Headers     map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	// RPS 客户端侧限流（0 表示不限流）。
	RPS float64 `json:"rps,omitempty" yaml:"rps,omitempty"`
}

// Provider 定义了统一的 LLM 适配接口。
// 流式解码与缓冲逻辑与 Provider 无关，Provider 仅决定线格式（见 Format）。
type Provider interface {
	// Stream 发起流式请求，返回增量响应通道。
	// 传输错误以单个 Err+Done 终止 chunk 的形式出现在通道上。
	Stream(ctx context.Context, messages []Message) <-chan StreamChunk

	// Complete 发起流式请求并聚合全部增量为完整文本。
	Complete(ctx context.Context, messages []Message) (string, error)

	// HealthCheck 执行轻量级连通性检查（比正常请求更短的超时）。
	HealthCheck(ctx context.Context) error

	// Name 返回 Provider 的唯一标识
	Name() string
}
