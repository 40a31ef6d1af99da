// Package usecase はauthフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/oops"

	"voces_backend/internal/feature/auth/domain/entity"
)

const (
	// minPasswordLength はパスワードの最低文字数を定義します。
	minPasswordLength = 8

	// dummyPasswordHash はユーザーが存在しない場合にも比較処理を行うためのダミーハッシュです。
	dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

	verificationSubject = "Welcome to Voces de la Extinción! Please Verify Your Email"
	resetSubject        = "Your Password Reset Request"
)

// UserRepository はユーザーエンティティの永続化層を抽象化します。
// Goの慣例に従い、インターフェースはプロバイダー（adapters）ではなくコンシューマー（usecase）が定義します。
type UserRepository interface {
	// Create は新しいユーザーをストレージに永続化します。
	// 同じメールアドレスのユーザーが既に存在する場合、ErrEmailAlreadyExistsを返します。
	Create(ctx context.Context, user *entity.User) error

	// FindByEmail は指定されたメールアドレスに一致するユーザーを取得します。
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// FindByID は指定されたIDに一致するユーザーを取得します。
	FindByID(ctx context.Context, id string) (*entity.User, error)

	// FindByVerificationToken は検証トークンを保持するユーザーを取得します。
	FindByVerificationToken(ctx context.Context, token string) (*entity.User, error)

	// FindByResetToken はトークンが一致し、かつ期限がnowより後のユーザーを1クエリで取得します。
	FindByResetToken(ctx context.Context, token string, now time.Time) (*entity.User, error)

	// MarkVerified は検証済みに設定し、検証トークンと期限を同時にクリアします。
	MarkVerified(ctx context.Context, id string) error

	// SetPasswordResetToken はリセットトークンと期限を保存します（既存のものは上書き）。
	SetPasswordResetToken(ctx context.Context, id string, token entity.EphemeralToken) error

	// ResetPassword はパスワードハッシュを更新し、リセットトークンと期限を同時にクリアします。
	ResetPassword(ctx context.Context, id, passwordHash string) error
}

// PasswordHasher hashes and verifies user secrets.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(hash, plaintext string) bool
}

// EphemeralTokenIssuer creates random tokens with a server-side expiry.
type EphemeralTokenIssuer interface {
	Issue() (entity.EphemeralToken, error)
}

// SessionIssuer signs session tokens.
type SessionIssuer interface {
	Issue(claims entity.SessionClaims) (entity.SessionToken, error)
}

// Mailer delivers transactional email.
type Mailer interface {
	Send(ctx context.Context, msg entity.Email) error
}

// authUsecase は認証ビジネスロジックを実装します。
type authUsecase struct {
	users         UserRepository
	hasher        PasswordHasher
	tokens        EphemeralTokenIssuer
	sessions      SessionIssuer
	mailer        Mailer
	publicBaseURL string
	now           func() time.Time
}

// NewAuthUsecase はauthUsecaseの新しいインスタンスを生成します。
// publicBaseURL はメール内リンクの生成に使用されます（例: "http://localhost:8080"）。
func NewAuthUsecase(
	users UserRepository,
	hasher PasswordHasher,
	tokens EphemeralTokenIssuer,
	sessions SessionIssuer,
	mailer Mailer,
	publicBaseURL string,
) *authUsecase {
	return &authUsecase{
		users:         users,
		hasher:        hasher,
		tokens:        tokens,
		sessions:      sessions,
		mailer:        mailer,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		now:           time.Now,
	}
}

// NormalizeEmail はメールアドレスの前後の空白を除去し小文字化します。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validatePassword はパスワードがセキュリティ要件を満たしているかチェックします。
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// Register は未検証ユーザーを作成し、検証メールを送信します。
// メール送信の失敗はログに記録するのみで、登録自体は成功します。
func (u *authUsecase) Register(ctx context.Context, email, password string) (entity.PublicUser, error) {
	email = NormalizeEmail(email)
	if err := validatePassword(password); err != nil {
		return entity.PublicUser{}, err
	}

	if _, err := u.users.FindByEmail(ctx, email); err == nil {
		return entity.PublicUser{}, ErrEmailAlreadyExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return entity.PublicUser{}, oops.In("auth").With("operation", "FindByEmail").Wrap(err)
	}

	hashed, err := u.hasher.Hash(password)
	if err != nil {
		return entity.PublicUser{}, oops.In("auth").With("operation", "Register").Wrap(err)
	}

	token, err := u.tokens.Issue()
	if err != nil {
		return entity.PublicUser{}, fmt.Errorf("failed to generate verification token: %w", err)
	}

	user := &entity.User{
		Email:                         email,
		Password:                      hashed,
		IsVerified:                    false,
		EmailVerificationToken:        &token.Value,
		EmailVerificationTokenExpires: &token.ExpiresAt,
		Role:                          entity.RoleUser,
		Plan:                          entity.PlanFree,
	}
	if err := u.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			return entity.PublicUser{}, err
		}
		return entity.PublicUser{}, oops.In("auth").With("operation", "Create").Wrap(err)
	}

	link := u.publicBaseURL + "/auth/verify-email/" + token.Value
	u.sendBestEffort(ctx, entity.Email{
		To:      user.Email,
		Subject: verificationSubject,
		Text:    "Thank you for registering. Please verify your email by clicking this link: " + link,
		HTML:    `<p>Thank you for registering. Please verify your email by clicking this link: <a href="` + link + `">` + link + `</a></p>`,
	}, "verification")

	return user.Public(), nil
}

// VerifyEmail は検証トークンを消費してユーザーを検証済みにします。
func (u *authUsecase) VerifyEmail(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrVerificationTokenRequired
	}

	user, err := u.users.FindByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrVerificationTokenNotFound
		}
		return oops.In("auth").With("operation", "FindByVerificationToken").Wrap(err)
	}

	if user.EmailVerificationTokenExpires != nil && user.EmailVerificationTokenExpires.Before(u.now()) {
		return ErrVerificationTokenExpired
	}

	if err := u.users.MarkVerified(ctx, user.ID); err != nil {
		return oops.In("auth").With("operation", "MarkVerified", "user_id", user.ID).Wrap(err)
	}
	return nil
}

// Login はユーザーを認証し、成功時にセッショントークンを返します。
// タイミング攻撃を防止するため、ユーザーが存在しない場合でもbcrypt比較を実行します。
func (u *authUsecase) Login(ctx context.Context, email, password string) (entity.SessionToken, entity.PublicUser, error) {
	user, err := u.users.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return "", entity.PublicUser{}, oops.In("auth").With("operation", "FindByEmail").Wrap(err)
	}

	passwordHash := dummyPasswordHash
	if user != nil {
		passwordHash = user.Password
	}
	matched := u.hasher.Verify(passwordHash, password)

	// ユーザー未検出またはパスワード不一致の場合、同一のエラーを返す
	if user == nil || !matched {
		return "", entity.PublicUser{}, ErrInvalidCredentials
	}

	if !user.IsVerified {
		return "", entity.PublicUser{}, ErrEmailNotVerified
	}

	token, err := u.sessions.Issue(entity.SessionClaims{UserID: user.ID, Role: user.Role})
	if err != nil {
		return "", entity.PublicUser{}, fmt.Errorf("failed to generate token: %w", err)
	}
	return token, user.Public(), nil
}

// ForgotPassword はユーザーが存在する場合にリセットトークンを発行しメールを送信します。
// 列挙攻撃を防ぐため、ユーザーが存在しない場合もnilを返します。
func (u *authUsecase) ForgotPassword(ctx context.Context, email string) error {
	user, err := u.users.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil
		}
		return oops.In("auth").With("operation", "FindByEmail").Wrap(err)
	}

	token, err := u.tokens.Issue()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}
	if err := u.users.SetPasswordResetToken(ctx, user.ID, token); err != nil {
		return oops.In("auth").With("operation", "SetPasswordResetToken", "user_id", user.ID).Wrap(err)
	}

	link := u.publicBaseURL + "/auth/reset-password/" + token.Value
	u.sendBestEffort(ctx, entity.Email{
		To:      user.Email,
		Subject: resetSubject,
		Text:    "You requested a password reset. Please use the following link to reset your password: " + link,
		HTML:    `<p>You requested a password reset. Please use the following link to reset your password: <a href="` + link + `">` + link + `</a></p>`,
	}, "password_reset")

	return nil
}

// ResetPassword は有効なリセットトークンでパスワードを更新し、トークンを無効化します。
func (u *authUsecase) ResetPassword(ctx context.Context, token, password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidResetToken
	}

	user, err := u.users.FindByResetToken(ctx, token, u.now())
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrInvalidResetToken
		}
		return oops.In("auth").With("operation", "FindByResetToken").Wrap(err)
	}

	hashed, err := u.hasher.Hash(password)
	if err != nil {
		return oops.In("auth").With("operation", "ResetPassword", "user_id", user.ID).Wrap(err)
	}
	if err := u.users.ResetPassword(ctx, user.ID, hashed); err != nil {
		return oops.In("auth").With("operation", "ResetPassword", "user_id", user.ID).Wrap(err)
	}
	return nil
}

// sendBestEffort はメールを送信し、失敗してもエラーを返しません。
func (u *authUsecase) sendBestEffort(ctx context.Context, msg entity.Email, kind string) {
	if u.mailer == nil {
		slog.Warn("mailer not configured; email skipped", "kind", kind, "to", msg.To)
		return
	}
	if err := u.mailer.Send(ctx, msg); err != nil {
		slog.Error("failed to send email", "kind", kind, "to", msg.To, "error", err)
		return
	}
	slog.Info("email sent", "kind", kind, "to", msg.To)
}
