package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/samber/oops"

	"voces_backend/internal/feature/tags/domain/entity"
)

// TagRepository はタグの永続化層を抽象化します。
type TagRepository interface {
	// List は全タグを名前順で返します。
	List(ctx context.Context) ([]entity.Tag, error)

	// FindByID はIDでタグを取得します。存在しない場合はErrTagNotFoundを返します。
	FindByID(ctx context.Context, id string) (*entity.Tag, error)

	// Create はタグを保存します。名前が重複する場合はErrTagNameTakenを返します。
	Create(ctx context.Context, tag *entity.Tag) error

	// Rename はタグ名を変更し、更新後のタグを返します。
	Rename(ctx context.Context, id, name string) (*entity.Tag, error)

	// Delete はタグを削除します。
	Delete(ctx context.Context, id string) error

	// EnsureByNames は名前ごとに既存タグを取得し、無ければ作成します。
	EnsureByNames(ctx context.Context, names []string) ([]entity.Tag, error)
}

// tagUsecase はタグ管理のビジネスロジックを実装します。
type tagUsecase struct {
	tags TagRepository
}

// NewTagUsecase はtagUsecaseを生成します。
func NewTagUsecase(tags TagRepository) *tagUsecase {
	return &tagUsecase{tags: tags}
}

// List は全タグを返します。
func (u *tagUsecase) List(ctx context.Context) ([]entity.Tag, error) {
	tags, err := u.tags.List(ctx)
	if err != nil {
		return nil, oops.In("tags").With("operation", "List").Wrap(err)
	}
	return tags, nil
}

// Get はIDでタグを返します。
func (u *tagUsecase) Get(ctx context.Context, id string) (*entity.Tag, error) {
	tag, err := u.tags.FindByID(ctx, id)
	if err != nil {
		return nil, wrapUnexpected(err, "FindByID")
	}
	return tag, nil
}

// Create は新しいタグを作成します。
func (u *tagUsecase) Create(ctx context.Context, name string) (*entity.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrTagNameRequired
	}
	tag := &entity.Tag{Name: name}
	if err := u.tags.Create(ctx, tag); err != nil {
		return nil, wrapUnexpected(err, "Create")
	}
	return tag, nil
}

// Rename はタグ名を変更します。
func (u *tagUsecase) Rename(ctx context.Context, id, name string) (*entity.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrTagNameRequired
	}
	tag, err := u.tags.Rename(ctx, id, name)
	if err != nil {
		return nil, wrapUnexpected(err, "Rename")
	}
	return tag, nil
}

// Delete はタグを削除します。
func (u *tagUsecase) Delete(ctx context.Context, id string) error {
	if err := u.tags.Delete(ctx, id); err != nil {
		return wrapUnexpected(err, "Delete")
	}
	return nil
}

// NormalizeNames は前後の空白を除去し、空の名前と重複を取り除きます。順序は保持されます。
func NormalizeNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// wrapUnexpected はドメインエラー以外をoopsでラップします。
func wrapUnexpected(err error, op string) error {
	if errors.Is(err, ErrTagNotFound) || errors.Is(err, ErrTagNameTaken) || errors.Is(err, ErrTagNameRequired) {
		return err
	}
	return oops.In("tags").With("operation", op).Wrap(err)
}
