// Package ratelimiter は外部サービス呼び出しの頻度を制限します。
package ratelimiter

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// Limiter は、メール送信などの操作の頻度を制限するインターフェースです。
type Limiter interface {
	Wait(ctx context.Context) error
}

// RateLimiter は interval あたり limit 回まで操作を許可します。
// 上限に達するとトークンが補充されるまで待機します。複数のリクエストから同時に呼ばれても安全です。
type RateLimiter struct {
	limit    int           // intervalあたりの上限
	interval time.Duration // どの単位で補充するか
	limiter  *rate.Limiter
}

var _ Limiter = (*RateLimiter)(nil)

// NewRateLimiter は新しいRateLimiterのインスタンスを生成します。
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 1
	}
	every := rate.Inf
	if interval > 0 {
		every = rate.Every(interval / time.Duration(limit))
	}
	return &RateLimiter{
		limit:    limit,
		interval: interval,
		limiter:  rate.NewLimiter(every, limit),
	}
}

// Wait は枠が空くまで待機します。
// ctxがキャンセルされた場合、他の待機者とは独立して即座にctxのエラーを返し、枠は消費しません。
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl.limiter.Tokens() < 1 {
		slog.Warn("rate limit reached, waiting", "limit", rl.limit, "interval", rl.interval)
	}
	return rl.limiter.Wait(ctx)
}
