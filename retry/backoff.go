package retry

import (
	"math"
	"math/rand"
	"time"
)

// Backoff 定义两次尝试之间的退避策略
// 遵循 KISS 原则：指数退避 + 可选随机抖动
type Backoff struct {
	InitialDelay time.Duration // 初始延迟时间（0 表示不退避，单测默认）
	MaxDelay     time.Duration // 最大延迟时间
	Multiplier   float64       // 延迟时间倍增因子（指数退避）
	Jitter       bool          // 是否添加随机抖动（防止雪崩）
}

// DefaultBackoff 返回适用于 LLM API 调用的默认退避策略
func DefaultBackoff() *Backoff {
	return &Backoff{
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// Delay 计算第 attempt 次重试前的延迟（attempt 从 1 开始计）
func (b *Backoff) Delay(attempt int) time.Duration {
	if b == nil || b.InitialDelay <= 0 || attempt < 1 {
		return 0
	}
	multiplier := b.Multiplier
	if multiplier < 1.0 {
		multiplier = 2.0
	}

	// 指数退避：delay = initial * multiplier^(attempt-1)
	delay := float64(b.InitialDelay) * math.Pow(multiplier, float64(attempt-1))

	if b.MaxDelay > 0 && delay > float64(b.MaxDelay) {
		delay = float64(b.MaxDelay)
	}

	// 添加随机抖动（±25%），防止多个客户端同时重试导致的雪崩效应
	if b.Jitter {
		jitter := delay * 0.25
		delay = delay + (rand.Float64()*2-1)*jitter
	}

	if delay < float64(b.InitialDelay) {
		delay = float64(b.InitialDelay)
	}
	return time.Duration(delay)
}
