// Package handler はtagsフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"voces_backend/internal/api"
	"voces_backend/internal/feature/tags/domain/entity"
	"voces_backend/internal/feature/tags/usecase"
)

const (
	msgTagNotFound         = "Tag not found"
	msgTagNameTaken        = "Tag with this name already exists"
	msgTagNameRequired     = "Tag name is required."
	msgInternalServerError = "internal server error"
)

// TagUsecase はタグ管理のユースケースです。
type TagUsecase interface {
	List(ctx context.Context) ([]entity.Tag, error)
	Get(ctx context.Context, id string) (*entity.Tag, error)
	Create(ctx context.Context, name string) (*entity.Tag, error)
	Rename(ctx context.Context, id, name string) (*entity.Tag, error)
	Delete(ctx context.Context, id string) error
}

// TagHandler はタグのCRUDエンドポイントを処理します。
type TagHandler struct {
	tags TagUsecase
}

// NewTagHandler はTagHandlerを生成します。
func NewTagHandler(tags TagUsecase) *TagHandler {
	return &TagHandler{tags: tags}
}

// List は全タグを名前順で返します。
func (h *TagHandler) List(c *gin.Context) {
	tags, err := h.tags.List(c.Request.Context())
	if err != nil {
		h.fail(c, err, "list tags")
		return
	}
	out := make([]api.Tag, 0, len(tags))
	for _, t := range tags {
		out = append(out, ToAPITag(t))
	}
	c.JSON(http.StatusOK, out)
}

// Get はIDでタグを返します。
func (h *TagHandler) Get(c *gin.Context) {
	tag, err := h.tags.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "get tag")
		return
	}
	c.JSON(http.StatusOK, ToAPITag(*tag))
}

// Create は新しいタグを作成し201を返します。
func (h *TagHandler) Create(c *gin.Context) {
	var req api.TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("create tag validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: msgTagNameRequired})
		return
	}

	tag, err := h.tags.Create(c.Request.Context(), req.Name)
	if err != nil {
		h.fail(c, err, "create tag")
		return
	}
	slog.Info("tag created", "tag_id", tag.ID, "remote_addr", c.ClientIP())
	c.JSON(http.StatusCreated, ToAPITag(*tag))
}

// Update はタグ名を変更します。
func (h *TagHandler) Update(c *gin.Context) {
	var req api.TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("update tag validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: msgTagNameRequired})
		return
	}

	tag, err := h.tags.Rename(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		h.fail(c, err, "update tag")
		return
	}
	slog.Info("tag updated", "tag_id", tag.ID, "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, ToAPITag(*tag))
}

// Delete はタグを削除し204を返します。
func (h *TagHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.tags.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err, "delete tag")
		return
	}
	slog.Info("tag deleted", "tag_id", id, "remote_addr", c.ClientIP())
	c.Status(http.StatusNoContent)
}

func (h *TagHandler) fail(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, usecase.ErrTagNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Message: msgTagNotFound})
	case errors.Is(err, usecase.ErrTagNameTaken):
		slog.Warn(op+" conflict", "remote_addr", c.ClientIP())
		c.JSON(http.StatusConflict, api.ErrorResponse{Message: msgTagNameTaken})
	case errors.Is(err, usecase.ErrTagNameRequired):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: msgTagNameRequired})
	default:
		slog.Error(op+" failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: msgInternalServerError})
	}
}

// ToAPITag はエンティティをレスポンス型に変換します。録音ハンドラーからも使います。
func ToAPITag(t entity.Tag) api.Tag {
	return api.Tag{ID: t.ID, Name: t.Name, CreatedAt: t.CreatedAt, UpdatedAt: t.UpdatedAt}
}
