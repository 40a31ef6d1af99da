// Package handler はadminフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"voces_backend/internal/api"
	adminusecase "voces_backend/internal/feature/admin/usecase"
	"voces_backend/internal/feature/auth/domain/entity"
	authusecase "voces_backend/internal/feature/auth/usecase"
	jwtmw "voces_backend/internal/platform/jwt"
)

const (
	msgUserNotFound        = "User not found"
	msgEmailTaken          = "User with this email already exists"
	msgInvalidEmail        = "Please provide a valid email address."
	msgInvalidRole         = "Role must be one of USER, ADMIN."
	msgInvalidPlan         = "Plan must be one of FREE, PREMIUM."
	msgInvalidRequest      = "invalid request"
	msgInternalServerError = "internal server error"
)

// UserAdminUsecase は管理者向けユーザー管理のユースケースです。
type UserAdminUsecase interface {
	List(ctx context.Context) ([]entity.UserSummary, error)
	Get(ctx context.Context, id string) (entity.UserSummary, error)
	Update(ctx context.Context, id string, upd entity.UserUpdate) (entity.UserSummary, error)
	Delete(ctx context.Context, id string) error
}

// UserAdminHandler は /admin/users 配下のリクエストを処理します。
type UserAdminHandler struct {
	users UserAdminUsecase
}

// NewUserAdminHandler はUserAdminHandlerを生成します。
func NewUserAdminHandler(users UserAdminUsecase) *UserAdminHandler {
	return &UserAdminHandler{users: users}
}

// List は全ユーザーを返します。
func (h *UserAdminHandler) List(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		h.fail(c, err, "list users")
		return
	}
	out := make([]api.AdminUser, 0, len(users))
	for _, u := range users {
		out = append(out, toAdminUser(u))
	}
	c.JSON(http.StatusOK, out)
}

// Get はIDでユーザーを返します。
func (h *UserAdminHandler) Get(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "get user")
		return
	}
	c.JSON(http.StatusOK, toAdminUser(user))
}

// Update はユーザーを部分更新します。
func (h *UserAdminHandler) Update(c *gin.Context) {
	var req api.AdminUserUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("admin update validation failed", "error", err, "remote_addr", c.ClientIP())
		msg := msgInvalidRequest
		if errors.Is(err, openapi_types.ErrValidationEmail) {
			msg = msgInvalidEmail
		}
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: msg})
		return
	}

	var upd entity.UserUpdate
	if req.Email != nil {
		email := string(*req.Email)
		upd.Email = &email
	}
	upd.IsVerified = req.IsVerified
	if req.Plan != nil {
		plan := entity.Plan(*req.Plan)
		upd.Plan = &plan
	}
	if req.Role != nil {
		role := entity.Role(*req.Role)
		upd.Role = &role
	}

	id := c.Param("id")
	user, err := h.users.Update(c.Request.Context(), id, upd)
	if err != nil {
		h.fail(c, err, "update user")
		return
	}

	actor, _ := jwtmw.CurrentPrincipal(c)
	slog.Info("user updated by admin", "user_id", id, "admin_id", actor.ID, "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, toAdminUser(user))
}

// Delete はユーザーを削除し204を返します。
func (h *UserAdminHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.users.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err, "delete user")
		return
	}

	actor, _ := jwtmw.CurrentPrincipal(c)
	slog.Info("user deleted by admin", "user_id", id, "admin_id", actor.ID, "remote_addr", c.ClientIP())
	c.Status(http.StatusNoContent)
}

func (h *UserAdminHandler) fail(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, authusecase.ErrUserNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Message: msgUserNotFound})
	case errors.Is(err, authusecase.ErrEmailAlreadyExists):
		slog.Warn(op+" conflict", "remote_addr", c.ClientIP())
		c.JSON(http.StatusConflict, api.ErrorResponse{Message: msgEmailTaken})
	case errors.Is(err, adminusecase.ErrInvalidRole):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: msgInvalidRole})
	case errors.Is(err, adminusecase.ErrInvalidPlan):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: msgInvalidPlan})
	case errors.Is(err, adminusecase.ErrEmptyEmail):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: msgInvalidEmail})
	default:
		slog.Error(op+" failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: msgInternalServerError})
	}
}

func toAdminUser(u entity.UserSummary) api.AdminUser {
	return api.AdminUser{
		ID:         u.ID,
		Email:      u.Email,
		IsVerified: u.IsVerified,
		Plan:       string(u.Plan),
		Role:       string(u.Role),
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}
