// Package adapters はrecordingsフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"voces_backend/internal/feature/recordings/domain/entity"
	"voces_backend/internal/feature/recordings/usecase"
)

type recordingGorm struct {
	db *gorm.DB
}

var _ usecase.RecordingRepository = (*recordingGorm)(nil)

// NewRecordingGorm はrecordingGormを生成します。
func NewRecordingGorm(db *gorm.DB) *recordingGorm {
	return &recordingGorm{db: db}
}

func preloadTags(db *gorm.DB) *gorm.DB {
	return db.Order("name ASC")
}

// List は全録音をタグ付きで作成日時の降順に返します。
func (r *recordingGorm) List(ctx context.Context) ([]entity.Recording, error) {
	var recs []entity.Recording
	err := r.db.WithContext(ctx).
		Preload("Tags", preloadTags).
		Order("created_at DESC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// FindByID はIDで録音をタグ付きで取得します。
func (r *recordingGorm) FindByID(ctx context.Context, id string) (*entity.Recording, error) {
	var rec entity.Recording
	err := r.db.WithContext(ctx).
		Preload("Tags", preloadTags).
		Where("id = ?", id).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrRecordingNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// Create は録音と関連テーブルの行を挿入します。タグ自体は更新しません。
func (r *recordingGorm) Create(ctx context.Context, rec *entity.Recording) error {
	if rec == nil {
		return errors.New("recording is nil")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Omit("Tags.*").Create(rec).Error
}

// Update は録音のカラムを更新し、必要に応じてタグの関連を置き換えます。
func (r *recordingGorm) Update(ctx context.Context, rec *entity.Recording, replaceTags bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(rec).
			Omit(clause.Associations).
			Select("title", "description", "file_url", "file_key", "metadata", "updated_at").
			Updates(rec)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return usecase.ErrRecordingNotFound
		}
		if !replaceTags {
			return nil
		}

		assoc := tx.Model(rec).Omit("Tags.*").Association("Tags")
		if len(rec.Tags) == 0 {
			return assoc.Clear()
		}
		return assoc.Replace(rec.Tags)
	})
}

// Delete は関連テーブルの行と録音を削除します。
func (r *recordingGorm) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := &entity.Recording{ID: id}
		if err := tx.Model(rec).Association("Tags").Clear(); err != nil {
			return err
		}
		res := tx.Delete(rec)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return usecase.ErrRecordingNotFound
		}
		return nil
	})
}
