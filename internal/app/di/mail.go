package di

import (
	"log/slog"
	"time"

	authusecase "voces_backend/internal/feature/auth/usecase"
	infrahttp "voces_backend/internal/platform/http"
	"voces_backend/internal/platform/mail"
	"voces_backend/internal/shared/ratelimiter"
)

// Gmail APIへの送信はプロセス全体でこの速度に制限する
const (
	mailRateLimit    = 60
	mailRateInterval = time.Minute
)

// NewMailer creates a Gmail-backed Mailer with its own HTTP client and rate limiter.
// It returns nil when the mail settings are incomplete, in which case emails are skipped.
func NewMailer(cfg mail.Config) authusecase.Mailer {
	if missing := cfg.Missing(); len(missing) > 0 {
		slog.Warn("email service is not configured; emails will be skipped", "missing", missing)
		return nil
	}
	httpClient := infrahttp.NewHTTPClient(infrahttp.DefaultTimeout)
	limiter := ratelimiter.NewRateLimiter(mailRateLimit, mailRateInterval)
	return mail.NewGmailSender(cfg, httpClient, limiter)
}
