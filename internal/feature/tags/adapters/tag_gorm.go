// Package adapters はtagsフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"voces_backend/internal/feature/tags/domain/entity"
	"voces_backend/internal/feature/tags/usecase"
	"voces_backend/internal/platform/db"
)

type tagGorm struct {
	db *gorm.DB
}

var _ usecase.TagRepository = (*tagGorm)(nil)

// NewTagGorm はtagGormを生成します。
func NewTagGorm(db *gorm.DB) *tagGorm {
	return &tagGorm{db: db}
}

// List は全タグを名前の昇順で返します。
func (r *tagGorm) List(ctx context.Context) ([]entity.Tag, error) {
	var tags []entity.Tag
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// FindByID はIDでタグを取得します。
func (r *tagGorm) FindByID(ctx context.Context, id string) (*entity.Tag, error) {
	var t entity.Tag
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrTagNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Create はタグを保存します。IDが空の場合はUUIDを採番します。
func (r *tagGorm) Create(ctx context.Context, t *entity.Tag) error {
	if t == nil {
		return errors.New("tag is nil")
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return usecase.ErrTagNameTaken
		}
		return err
	}
	return nil
}

// Rename はタグ名を変更し、更新後のタグを返します。
func (r *tagGorm) Rename(ctx context.Context, id, name string) (*entity.Tag, error) {
	res := r.db.WithContext(ctx).Model(&entity.Tag{}).Where("id = ?", id).Update("name", name)
	if res.Error != nil {
		if db.IsUniqueViolation(res.Error) {
			return nil, usecase.ErrTagNameTaken
		}
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, usecase.ErrTagNotFound
	}
	return r.FindByID(ctx, id)
}

// Delete はタグを削除します。録音との関連は外部キーのCASCADEで消えます。
func (r *tagGorm) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Tag{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return usecase.ErrTagNotFound
	}
	return nil
}

// EnsureByNames は名前ごとにタグを取得し、存在しなければ作成します。
// 戻り値は入力(正規化後)の順序に従います。
func (r *tagGorm) EnsureByNames(ctx context.Context, names []string) ([]entity.Tag, error) {
	names = usecase.NormalizeNames(names)
	if len(names) == 0 {
		return []entity.Tag{}, nil
	}

	rows := make([]entity.Tag, 0, len(names))
	for _, n := range names {
		rows = append(rows, entity.Tag{ID: uuid.NewString(), Name: n})
	}
	// 既存(または同時に作成された)名前は無視する
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&rows).Error
	if err != nil {
		return nil, err
	}

	var found []entity.Tag
	if err := r.db.WithContext(ctx).Where("name IN ?", names).Find(&found).Error; err != nil {
		return nil, err
	}
	byName := make(map[string]entity.Tag, len(found))
	for _, t := range found {
		byName[t.Name] = t
	}
	out := make([]entity.Tag, 0, len(names))
	for _, n := range names {
		if t, ok := byName[n]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}
