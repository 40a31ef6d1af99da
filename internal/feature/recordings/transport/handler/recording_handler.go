// Package handler はrecordingsフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"voces_backend/internal/api"
	"voces_backend/internal/feature/recordings/domain/entity"
	"voces_backend/internal/feature/recordings/usecase"
	taghandler "voces_backend/internal/feature/tags/transport/handler"
)

const (
	msgRecordingNotFound    = "Recording not found"
	msgTitleAndFileRequired = "Title and file are required."
	msgTitleEmpty           = "Title must not be empty."
	msgInvalidMetadata      = "Metadata must be a JSON object."
	msgStorageNotConfigured = "S3 bucket name not configured on server."
	msgInvalidUpload        = "Uploaded file could not be read."
	msgInternalServerError  = "internal server error"
)

// multipartフォームのフィールド名
const (
	formFieldFile          = "recording"
	formFieldTitle         = "title"
	formFieldDescription   = "description"
	formFieldTags          = "tags"
	formFieldTagsBracketed = "tags[]"
	formFieldMetadata      = "metadata"
)

var errInvalidMetadata = errors.New("metadata must be a JSON object")

// RecordingUsecase は録音管理のユースケースです。
type RecordingUsecase interface {
	List(ctx context.Context) ([]entity.Recording, error)
	Get(ctx context.Context, id string) (*entity.Recording, error)
	Create(ctx context.Context, in usecase.CreateInput) (*entity.Recording, error)
	Update(ctx context.Context, id string, in usecase.UpdateInput) (*entity.Recording, error)
	Delete(ctx context.Context, id string) error
}

// RecordingHandler は録音のCRUDエンドポイントを処理します。
type RecordingHandler struct {
	recordings RecordingUsecase
}

// NewRecordingHandler はRecordingHandlerを生成します。
func NewRecordingHandler(recordings RecordingUsecase) *RecordingHandler {
	return &RecordingHandler{recordings: recordings}
}

// List は全録音を新しい順に返します。
func (h *RecordingHandler) List(c *gin.Context) {
	recs, err := h.recordings.List(c.Request.Context())
	if err != nil {
		h.fail(c, err, "list recordings")
		return
	}
	out := make([]api.Recording, 0, len(recs))
	for _, r := range recs {
		out = append(out, toAPIRecording(r))
	}
	c.JSON(http.StatusOK, out)
}

// Get はタグ付きで録音を返します。
func (h *RecordingHandler) Get(c *gin.Context) {
	rec, err := h.recordings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "get recording")
		return
	}
	c.JSON(http.StatusOK, toAPIRecording(*rec))
}

// Create はmultipartフォームから録音を作成します。
// フィールド: recording(ファイル), title, description, tags(複数可), metadata(JSON文字列)
func (h *RecordingHandler) Create(c *gin.Context) {
	metadata, err := parseMetadata(c)
	if err != nil {
		slog.Warn("create recording: invalid metadata", "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: msgInvalidMetadata})
		return
	}

	in := usecase.CreateInput{
		Title:       c.PostForm(formFieldTitle),
		Description: optionalForm(c, formFieldDescription),
		Metadata:    metadata,
		Tags:        tagsForm(c),
	}

	file, closeFile, err := openUpload(c)
	if err != nil {
		slog.Warn("create recording: unreadable upload", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: msgInvalidUpload})
		return
	}
	defer closeFile()
	in.File = file

	rec, err := h.recordings.Create(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err, "create recording")
		return
	}
	slog.Info("recording created", "recording_id", rec.ID, "file_key", rec.FileKey, "remote_addr", c.ClientIP())
	c.JSON(http.StatusCreated, toAPIRecording(*rec))
}

// Update はmultipartフォームで録音を部分更新します。送られなかったフィールドは変更されません。
func (h *RecordingHandler) Update(c *gin.Context) {
	metadata, err := parseMetadata(c)
	if err != nil {
		slog.Warn("update recording: invalid metadata", "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: msgInvalidMetadata})
		return
	}

	in := usecase.UpdateInput{
		Title:       optionalForm(c, formFieldTitle),
		Description: optionalForm(c, formFieldDescription),
		Metadata:    metadata,
		Tags:        tagsForm(c),
	}

	file, closeFile, err := openUpload(c)
	if err != nil {
		slog.Warn("update recording: unreadable upload", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: msgInvalidUpload})
		return
	}
	defer closeFile()
	in.File = file

	rec, err := h.recordings.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.fail(c, err, "update recording")
		return
	}
	slog.Info("recording updated", "recording_id", rec.ID, "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, toAPIRecording(*rec))
}

// Delete は録音とそのファイルを削除し204を返します。
func (h *RecordingHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.recordings.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err, "delete recording")
		return
	}
	slog.Info("recording deleted", "recording_id", id, "remote_addr", c.ClientIP())
	c.Status(http.StatusNoContent)
}

func (h *RecordingHandler) fail(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, usecase.ErrRecordingNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Message: msgRecordingNotFound})
	case errors.Is(err, usecase.ErrTitleAndFileRequired):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: msgTitleAndFileRequired})
	case errors.Is(err, usecase.ErrTitleEmpty):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: msgTitleEmpty})
	case errors.Is(err, usecase.ErrStorageNotConfigured):
		slog.Error(op+": storage not configured", "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: msgStorageNotConfigured})
	default:
		slog.Error(op+" failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: msgInternalServerError})
	}
}

// openUpload はフォームのファイルを開きます。ファイルが無い場合はnilを返します。
func openUpload(c *gin.Context) (*entity.Upload, func(), error) {
	noop := func() {}
	fh, err := c.FormFile(formFieldFile)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, noop, nil
		}
		return nil, noop, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, noop, err
	}
	return &entity.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	}, func() { _ = f.Close() }, nil
}

// optionalForm はフィールドが送られた場合のみ値を返します。
func optionalForm(c *gin.Context, key string) *string {
	v, ok := c.GetPostForm(key)
	if !ok {
		return nil
	}
	return &v
}

// tagsForm は tags と tags[] の両方を受け付けます。どちらも無い場合はnilです。
func tagsForm(c *gin.Context) []string {
	if v, ok := c.GetPostFormArray(formFieldTags); ok {
		return v
	}
	if v, ok := c.GetPostFormArray(formFieldTagsBracketed); ok {
		return v
	}
	return nil
}

// parseMetadata はmetadataフィールドのJSON文字列をオブジェクトとして解析します。空または未送信はnilです。
func parseMetadata(c *gin.Context) (map[string]any, error) {
	raw := c.PostForm(formFieldMetadata)
	if raw == "" {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil || m == nil {
		return nil, errInvalidMetadata
	}
	return m, nil
}

func toAPIRecording(r entity.Recording) api.Recording {
	tags := make([]api.Tag, 0, len(r.Tags))
	for _, t := range r.Tags {
		tags = append(tags, taghandler.ToAPITag(t))
	}
	return api.Recording{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		FileURL:     r.FileURL,
		FileKey:     r.FileKey,
		Metadata:    r.Metadata,
		Tags:        tags,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
