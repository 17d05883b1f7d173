package crawlers

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// RateLimiter 全局请求节流器
// 职责: 在相邻两次请求之间强制插入[min, max]毫秒的随机间隔
// 间隔窗口是所有worker共享的,串行化发放,约束的是总请求速率而非单worker速率
type RateLimiter struct {
	minDelay time.Duration
	maxDelay time.Duration

	// 上一次发放的槽位时间,互斥保护
	mu        sync.Mutex
	lastGrant time.Time

	rng *rand.Rand
}

// NewRateLimiter 创建节流器,间隔单位毫秒
func NewRateLimiter(minDelayMs, maxDelayMs int) *RateLimiter {
	if minDelayMs < 0 {
		minDelayMs = 0
	}
	if maxDelayMs < minDelayMs {
		maxDelayMs = minDelayMs
	}
	return &RateLimiter{
		minDelay: time.Duration(minDelayMs) * time.Millisecond,
		maxDelay: time.Duration(maxDelayMs) * time.Millisecond,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Wait 等待下一个请求槽位
// 在锁内计算本次槽位时间并预占,锁外睡眠,保证并发调用时槽位依次错开
// 只有context取消会返回错误
func (rl *RateLimiter) Wait(ctx context.Context) error {
	rl.mu.Lock()
	delay := rl.minDelay
	if jitter := rl.maxDelay - rl.minDelay; jitter > 0 {
		delay += time.Duration(rl.rng.Int63n(int64(jitter) + 1))
	}

	now := time.Now()
	target := rl.lastGrant.Add(delay)
	if target.Before(now) {
		target = now
	}
	rl.lastGrant = target
	rl.mu.Unlock()

	wait := time.Until(target)
	if wait <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
