// Package mail はGmail API経由でトランザクションメールを送信します。
package mail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"voces_backend/internal/feature/auth/domain/entity"
	"voces_backend/internal/shared/ratelimiter"
)

// ErrNotConfigured はメール送信に必要な設定が不足している場合に返されます。
var ErrNotConfigured = errors.New("email service is not configured")

// Config はGmail OAuth2の送信設定です。
type Config struct {
	User         string `env:"EMAIL_USER"`
	From         string `env:"EMAIL_FROM"`
	ClientID     string `env:"GMAIL_CLIENT_ID"`
	ClientSecret string `env:"GMAIL_CLIENT_SECRET"`
	RefreshToken string `env:"GMAIL_REFRESH_TOKEN"`
}

// Missing は未設定の環境変数名を返します。
func (c Config) Missing() []string {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"EMAIL_USER", c.User},
		{"GMAIL_CLIENT_ID", c.ClientID},
		{"GMAIL_CLIENT_SECRET", c.ClientSecret},
		{"GMAIL_REFRESH_TOKEN", c.RefreshToken},
		{"EMAIL_FROM", c.From},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// GmailSender はリフレッシュトークンで認可したGmail APIクライアントでメールを送信します。
type GmailSender struct {
	cfg        Config
	httpClient *http.Client
	limiter    ratelimiter.Limiter

	oauthEndpoint oauth2.Endpoint
	apiEndpoint   string

	mu  sync.Mutex
	svc *gmail.Service
}

// NewGmailSender はGmailSenderを生成します。APIクライアントは最初の送信時に生成されます。
// limiter はプロセス全体で共有され、全リクエストの送信頻度を制限します。
func NewGmailSender(cfg Config, httpClient *http.Client, limiter ratelimiter.Limiter) *GmailSender {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &GmailSender{
		cfg:           cfg,
		httpClient:    httpClient,
		limiter:       limiter,
		oauthEndpoint: google.Endpoint,
	}
}

// Send はメールを1通送信します。設定不足の場合はネットワークに触れずErrNotConfiguredを返します。
func (s *GmailSender) Send(ctx context.Context, msg entity.Email) error {
	if missing := s.cfg.Missing(); len(missing) > 0 {
		slog.Error("missing required environment variables for email service", "missing", strings.Join(missing, ", "))
		return ErrNotConfigured
	}

	raw, err := BuildMessage(s.cfg.From, msg)
	if err != nil {
		return err
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
	}

	svc, err := s.service()
	if err != nil {
		return err
	}

	sent, err := svc.Users.Messages.Send("me", &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("gmail send: %w", err)
	}

	slog.Info("email sent via gmail", "message_id", sent.Id)
	return nil
}

// service はOAuth2クライアントとGmailサービスを一度だけ生成します。
// トークン更新はリクエストのcontextではなくプロセスの寿命に紐づけます。
func (s *GmailSender) service() (*gmail.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.svc != nil {
		return s.svc, nil
	}

	conf := &oauth2.Config{
		ClientID:     s.cfg.ClientID,
		ClientSecret: s.cfg.ClientSecret,
		Endpoint:     s.oauthEndpoint,
		Scopes:       []string{gmail.GmailSendScope},
	}
	base := context.WithValue(context.Background(), oauth2.HTTPClient, s.httpClient)
	client := conf.Client(base, &oauth2.Token{RefreshToken: s.cfg.RefreshToken})

	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if s.apiEndpoint != "" {
		opts = append(opts, option.WithEndpoint(s.apiEndpoint))
	}

	svc, err := gmail.NewService(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	s.svc = svc
	return svc, nil
}
