package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"voces_backend/internal/feature/recordings/domain/entity"
	tagentity "voces_backend/internal/feature/tags/domain/entity"
)

const defaultContentType = "application/octet-stream"

// RecordingRepository は録音の永続化層を抽象化します。
type RecordingRepository interface {
	// List は全録音を作成日時の降順で返します。
	List(ctx context.Context) ([]entity.Recording, error)

	// FindByID はタグ付きで録音を取得します。存在しない場合はErrRecordingNotFoundを返します。
	FindByID(ctx context.Context, id string) (*entity.Recording, error)

	// Create は録音とタグの関連を保存します。タグは既に存在している必要があります。
	Create(ctx context.Context, rec *entity.Recording) error

	// Update は録音のカラムを更新します。replaceTagsがtrueの場合、タグの関連をrec.Tagsで置き換えます。
	Update(ctx context.Context, rec *entity.Recording, replaceTags bool) error

	// Delete は録音とタグの関連を削除します。
	Delete(ctx context.Context, id string) error
}

// ObjectStorage は録音ファイルの保存先です。
type ObjectStorage interface {
	Configured() bool
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// TagEnsurer は名前からタグを取得または作成します。
type TagEnsurer interface {
	EnsureByNames(ctx context.Context, names []string) ([]tagentity.Tag, error)
}

// CreateInput は録音作成の入力です。
type CreateInput struct {
	Title       string
	Description *string
	Metadata    map[string]any
	Tags        []string
	File        *entity.Upload
}

// UpdateInput は録音更新の入力です。nilのフィールドは変更されません。
type UpdateInput struct {
	Title       *string
	Description *string
	Metadata    map[string]any
	Tags        []string
	File        *entity.Upload
}

type recordingUsecase struct {
	recordings RecordingRepository
	storage    ObjectStorage
	tags       TagEnsurer
	newKey     func(filename string) string
}

// NewRecordingUsecase はrecordingUsecaseを生成します。
func NewRecordingUsecase(recordings RecordingRepository, storage ObjectStorage, tags TagEnsurer) *recordingUsecase {
	return &recordingUsecase{
		recordings: recordings,
		storage:    storage,
		tags:       tags,
		newKey:     ObjectKey,
	}
}

// ObjectKey は元のファイル名の拡張子を保ったランダムなオブジェクトキーを返します。
func ObjectKey(filename string) string {
	return uuid.NewString() + path.Ext(filename)
}

// List は全録音を返します。
func (u *recordingUsecase) List(ctx context.Context) ([]entity.Recording, error) {
	recs, err := u.recordings.List(ctx)
	if err != nil {
		return nil, oops.In("recordings").With("operation", "List").Wrap(err)
	}
	return recs, nil
}

// Get はIDで録音を返します。
func (u *recordingUsecase) Get(ctx context.Context, id string) (*entity.Recording, error) {
	rec, err := u.recordings.FindByID(ctx, id)
	if err != nil {
		return nil, wrapUnexpected(err, "FindByID")
	}
	return rec, nil
}

// Create はファイルをアップロードしてから録音を保存します。
// 保存に失敗した場合、アップロード済みのオブジェクトを削除します。
func (u *recordingUsecase) Create(ctx context.Context, in CreateInput) (*entity.Recording, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" || in.File == nil {
		return nil, ErrTitleAndFileRequired
	}
	if !u.storage.Configured() {
		return nil, ErrStorageNotConfigured
	}

	tags, err := u.ensureTags(ctx, in.Tags)
	if err != nil {
		return nil, err
	}

	key, url, err := u.upload(ctx, in.File)
	if err != nil {
		return nil, err
	}

	rec := &entity.Recording{
		Title:       title,
		Description: in.Description,
		FileURL:     url,
		FileKey:     key,
		Metadata:    in.Metadata,
		Tags:        tags,
	}
	if err := u.recordings.Create(ctx, rec); err != nil {
		if delErr := u.storage.Delete(ctx, key); delErr != nil {
			slog.Error("failed to remove orphaned object", "key", key, "error", delErr)
		}
		return nil, oops.In("recordings").With("operation", "Create").Wrap(err)
	}
	return rec, nil
}

// Update は録音を部分更新します。新しいファイルがある場合は古いオブジェクトを削除してからアップロードします。
func (u *recordingUsecase) Update(ctx context.Context, id string, in UpdateInput) (*entity.Recording, error) {
	rec, err := u.recordings.FindByID(ctx, id)
	if err != nil {
		return nil, wrapUnexpected(err, "FindByID")
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, ErrTitleEmpty
		}
		rec.Title = title
	}

	if in.File != nil {
		if !u.storage.Configured() {
			return nil, ErrStorageNotConfigured
		}
		if rec.FileKey != "" {
			if err := u.storage.Delete(ctx, rec.FileKey); err != nil {
				return nil, oops.In("recordings").With("operation", "DeleteObject", "key", rec.FileKey).Wrap(err)
			}
		}
		key, url, err := u.upload(ctx, in.File)
		if err != nil {
			return nil, err
		}
		rec.FileKey = key
		rec.FileURL = url
	}

	replaceTags := in.Tags != nil
	if replaceTags {
		tags, err := u.ensureTags(ctx, in.Tags)
		if err != nil {
			return nil, err
		}
		rec.Tags = tags
	}
	if in.Description != nil {
		rec.Description = in.Description
	}
	if in.Metadata != nil {
		rec.Metadata = in.Metadata
	}

	if err := u.recordings.Update(ctx, rec, replaceTags); err != nil {
		return nil, wrapUnexpected(err, "Update")
	}
	return u.Get(ctx, id)
}

// Delete はオブジェクトを削除してから録音を削除します。
func (u *recordingUsecase) Delete(ctx context.Context, id string) error {
	rec, err := u.recordings.FindByID(ctx, id)
	if err != nil {
		return wrapUnexpected(err, "FindByID")
	}
	if !u.storage.Configured() {
		return ErrStorageNotConfigured
	}
	if err := u.storage.Delete(ctx, rec.FileKey); err != nil {
		return oops.In("recordings").With("operation", "DeleteObject", "key", rec.FileKey).Wrap(err)
	}
	if err := u.recordings.Delete(ctx, id); err != nil {
		return wrapUnexpected(err, "Delete")
	}
	return nil
}

func (u *recordingUsecase) upload(ctx context.Context, f *entity.Upload) (key, url string, err error) {
	contentType := f.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}
	key = u.newKey(f.Filename)
	url, err = u.storage.Upload(ctx, key, f.Body, f.Size, contentType)
	if err != nil {
		return "", "", oops.In("recordings").With("operation", "Upload", "key", key).Wrap(err)
	}
	return key, url, nil
}

func (u *recordingUsecase) ensureTags(ctx context.Context, names []string) ([]tagentity.Tag, error) {
	if len(names) == 0 {
		return []tagentity.Tag{}, nil
	}
	tags, err := u.tags.EnsureByNames(ctx, names)
	if err != nil {
		return nil, oops.In("recordings").With("operation", "EnsureTags").Wrap(err)
	}
	return tags, nil
}

func wrapUnexpected(err error, op string) error {
	if errors.Is(err, ErrRecordingNotFound) {
		return err
	}
	return oops.In("recordings").With("operation", op).Wrap(err)
}
