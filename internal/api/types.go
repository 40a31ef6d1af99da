// Package api はHTTP APIのリクエスト/レスポンスの型を定義します。
// 各フィーチャーのハンドラーはこのパッケージの型でJSONを入出力します。
package api

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

// ErrorResponse はエラー時の共通レスポンスです。成功時と同じく message キーで返します。
type ErrorResponse struct {
	Message string `json:"message"`
}

// MessageResponse はメッセージのみのレスポンスです。
type MessageResponse struct {
	Message string `json:"message"`
}

// RegisterRequest は POST /auth/register のリクエストボディです。
// Email はJSONデコード時に形式が検証されます。
type RegisterRequest struct {
	Email    openapi_types.Email `json:"email" binding:"required"`
	Password string              `json:"password" binding:"required"`
}

// LoginRequest は POST /auth/login のリクエストボディです。
type LoginRequest struct {
	Email    openapi_types.Email `json:"email" binding:"required"`
	Password string              `json:"password" binding:"required"`
}

// ForgotPasswordRequest は POST /auth/forgot-password のリクエストボディです。
type ForgotPasswordRequest struct {
	Email openapi_types.Email `json:"email" binding:"required"`
}

// ResetPasswordRequest は POST /auth/reset-password/{token} のリクエストボディです。
type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

// PublicUser は登録・ログイン時に返すユーザー情報です。
type PublicUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Plan  string `json:"plan"`
	Role  string `json:"role"`
}

// RegisterResponse は登録成功時のレスポンスです。
type RegisterResponse struct {
	Message string     `json:"message"`
	User    PublicUser `json:"user"`
}

// LoginResponse はログイン成功時のレスポンスです。
type LoginResponse struct {
	Message string     `json:"message"`
	Token   string     `json:"token"`
	User    PublicUser `json:"user"`
}

// CurrentUser は GET /users/me のレスポンスです。
type CurrentUser struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Plan       string `json:"plan"`
	Role       string `json:"role"`
	IsVerified bool   `json:"isVerified"`
}

// AdminUser は管理者向けユーザー情報です。パスワードハッシュやトークンは含みません。
type AdminUser struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	IsVerified bool      `json:"isVerified"`
	Plan       string    `json:"plan"`
	Role       string    `json:"role"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// AdminUserUpdateRequest は PUT /admin/users/{id} のリクエストボディです。省略したフィールドは変更されません。
type AdminUserUpdateRequest struct {
	Email      *openapi_types.Email `json:"email,omitempty"`
	IsVerified *bool                `json:"isVerified,omitempty"`
	Plan       *string              `json:"plan,omitempty"`
	Role       *string              `json:"role,omitempty"`
}

// TagRequest はタグ作成・更新のリクエストボディです。
type TagRequest struct {
	Name string `json:"name" binding:"required"`
}

// Tag はタグのレスポンスです。
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Recording は録音のレスポンスです。
type Recording struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description *string        `json:"description"`
	FileURL     string         `json:"fileUrl"`
	FileKey     string         `json:"fileKey"`
	Metadata    map[string]any `json:"metadata"`
	Tags        []Tag          `json:"tags"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}
