// Package handler はauthフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"voces_backend/internal/api"
	"voces_backend/internal/feature/auth/domain/entity"
	"voces_backend/internal/feature/auth/usecase"
	jwtmw "voces_backend/internal/platform/jwt"
)

// レスポンスメッセージ
const (
	msgRegistered       = "User created successfully. Please verify your email."
	msgEmailTaken       = "User with this email already exists"
	msgInvalidEmail     = "Please provide a valid email address."
	msgPasswordTooShort = "Password must be at least 8 characters long."
	msgPasswordRequired = "Password is required."
	msgInvalidRequest   = "invalid request"

	msgVerified            = "Email verified successfully. You can now log in."
	msgVerifyTokenRequired = "Verification token is required."
	msgVerifyTokenNotFound = "Invalid verification token."
	msgVerifyTokenExpired  = "Verification token has expired."
	msgLoginSuccessful     = "Login successful"
	msgInvalidCredentials  = "Invalid credentials"
	msgEmailNotVerified    = "Please verify your email before logging in."
	msgResetLinkSent       = "If a user with that email exists, a password reset link has been sent."
	msgPasswordReset       = "Password has been reset successfully."
	msgInvalidResetToken   = "Invalid or expired password reset token."
	msgInternalServerError = "internal server error"
	msgNotAuthorized       = "Not authorized"
)

// AuthUsecase は認証操作のユースケースを定義します。
// Goの慣例に従い、インターフェースはプロバイダー（usecase）ではなくコンシューマー（handler）が定義します。
type AuthUsecase interface {
	Register(ctx context.Context, email, password string) (entity.PublicUser, error)
	VerifyEmail(ctx context.Context, token string) error
	Login(ctx context.Context, email, password string) (entity.SessionToken, entity.PublicUser, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
}

// AuthHandler は認証操作のHTTPリクエストを処理します。
type AuthHandler struct {
	auth AuthUsecase
}

// NewAuthHandler はAuthHandlerの新しいインスタンスを生成します。
func NewAuthHandler(auth AuthUsecase) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Register はユーザー登録APIエンドポイントを処理します。
// - バリデーションエラー時は400を返却
// - メール重複時は409を返却
// - 成功時は201と公開ユーザー情報を返却（パスワードハッシュやトークンは含まない）
func (h *AuthHandler) Register(c *gin.Context) {
	var req api.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("register validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: bindErrorMessage(err, msgPasswordTooShort)})
		return
	}

	user, err := h.auth.Register(c.Request.Context(), string(req.Email), req.Password)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrEmailAlreadyExists):
			slog.Warn("register conflict", "email", string(req.Email), "remote_addr", c.ClientIP())
			c.JSON(http.StatusConflict, api.ErrorResponse{Message: msgEmailTaken})
		case errors.Is(err, usecase.ErrPasswordTooShort):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: msgPasswordTooShort})
		default:
			slog.Error("register failed", "error", err, "remote_addr", c.ClientIP())
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: msgInternalServerError})
		}
		return
	}

	slog.Info("user registered", "user_id", user.ID, "remote_addr", c.ClientIP())
	c.JSON(http.StatusCreated, api.RegisterResponse{Message: msgRegistered, User: toPublicUser(user)})
}

// VerifyEmail はパスパラメータのトークンでメールアドレスを検証します。
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	err := h.auth.VerifyEmail(c.Request.Context(), c.Param("token"))
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrVerificationTokenRequired):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: msgVerifyTokenRequired})
		case errors.Is(err, usecase.ErrVerificationTokenNotFound):
			slog.Warn("unknown verification token", "remote_addr", c.ClientIP())
			c.JSON(http.StatusNotFound, api.ErrorResponse{Message: msgVerifyTokenNotFound})
		case errors.Is(err, usecase.ErrVerificationTokenExpired):
			c.JSON(http.StatusGone, api.ErrorResponse{Message: msgVerifyTokenExpired})
		default:
			slog.Error("verify email failed", "error", err, "remote_addr", c.ClientIP())
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: msgInternalServerError})
		}
		return
	}

	slog.Info("email verified", "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, api.MessageResponse{Message: msgVerified})
}

// Login はユーザーログインAPIエンドポイントを処理します。
// メール未登録とパスワード不一致は同一の401レスポンスになります。
func (h *AuthHandler) Login(c *gin.Context) {
	var req api.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("login validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: bindErrorMessage(err, msgPasswordRequired)})
		return
	}

	token, user, err := h.auth.Login(c.Request.Context(), string(req.Email), req.Password)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidCredentials):
			// ユーザー列挙攻撃を防止するため、実際のエラーを公開しない
			slog.Warn("login failed", "remote_addr", c.ClientIP())
			c.JSON(http.StatusUnauthorized, api.ErrorResponse{Message: msgInvalidCredentials})
		case errors.Is(err, usecase.ErrEmailNotVerified):
			c.JSON(http.StatusForbidden, api.ErrorResponse{Message: msgEmailNotVerified})
		case errors.Is(err, jwtmw.ErrSecretNotConfigured):
			slog.Error("session secret is not configured")
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: jwtmw.MsgMisconfigured})
		default:
			slog.Error("login failed", "error", err, "remote_addr", c.ClientIP())
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: msgInternalServerError})
		}
		return
	}

	slog.Info("user login successful", "user_id", user.ID, "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, api.LoginResponse{Message: msgLoginSuccessful, Token: token.String(), User: toPublicUser(user)})
}

// ForgotPassword はパスワードリセットを受け付けます。
// ユーザーの有無にかかわらず同じ200レスポンスを返します。
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req api.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("forgot password validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: msgInvalidEmail})
		return
	}

	if err := h.auth.ForgotPassword(c.Request.Context(), string(req.Email)); err != nil {
		slog.Error("forgot password failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: msgInternalServerError})
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: msgResetLinkSent})
}

// ResetPassword は有効なリセットトークンでパスワードを更新します。
// 期限切れトークンと存在しないトークンは同じ400レスポンスになります。
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req api.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("reset password validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: msgPasswordTooShort})
		return
	}

	err := h.auth.ResetPassword(c.Request.Context(), c.Param("token"), req.Password)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrPasswordTooShort):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: msgPasswordTooShort})
		case errors.Is(err, usecase.ErrInvalidResetToken):
			slog.Warn("invalid reset token", "remote_addr", c.ClientIP())
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: msgInvalidResetToken})
		default:
			slog.Error("reset password failed", "error", err, "remote_addr", c.ClientIP())
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: msgInternalServerError})
		}
		return
	}

	slog.Info("password reset", "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, api.MessageResponse{Message: msgPasswordReset})
}

// Me は認可ミドルウェアが解決した現在のユーザーを返します。
func (h *AuthHandler) Me(c *gin.Context) {
	p, ok := jwtmw.CurrentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Message: msgNotAuthorized})
		return
	}
	c.JSON(http.StatusOK, api.CurrentUser{
		ID:         p.ID,
		Email:      p.Email,
		Plan:       string(p.Plan),
		Role:       string(p.Role),
		IsVerified: p.IsVerified,
	})
}

func toPublicUser(u entity.PublicUser) api.PublicUser {
	return api.PublicUser{ID: u.ID, Email: u.Email, Plan: string(u.Plan), Role: string(u.Role)}
}

// bindErrorMessage はバインドエラーをクライアント向けメッセージに変換します。
// パスワードの検証エラーにはpasswordMsgを使います。
func bindErrorMessage(err error, passwordMsg string) string {
	if errors.Is(err, openapi_types.ErrValidationEmail) {
		return msgInvalidEmail
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.StructField() == "Email" {
				return msgInvalidEmail
			}
		}
		return passwordMsg
	}
	return msgInvalidRequest
}
