package usecase

import (
	"context"
	"errors"

	"github.com/samber/oops"

	"voces_backend/internal/feature/auth/domain/entity"
	authusecase "voces_backend/internal/feature/auth/usecase"
)

// UserStore は管理者向けのユーザー永続化操作です。authフィーチャーのリポジトリが実装します。
type UserStore interface {
	List(ctx context.Context) ([]entity.User, error)
	FindByID(ctx context.Context, id string) (*entity.User, error)
	Update(ctx context.Context, id string, upd entity.UserUpdate) (*entity.User, error)
	Delete(ctx context.Context, id string) error
}

type userAdminUsecase struct {
	users UserStore
}

// NewUserAdminUsecase はuserAdminUsecaseを生成します。
func NewUserAdminUsecase(users UserStore) *userAdminUsecase {
	return &userAdminUsecase{users: users}
}

// List は全ユーザーの管理者向け表現を返します。
func (u *userAdminUsecase) List(ctx context.Context) ([]entity.UserSummary, error) {
	users, err := u.users.List(ctx)
	if err != nil {
		return nil, oops.In("admin").With("operation", "List").Wrap(err)
	}
	out := make([]entity.UserSummary, 0, len(users))
	for i := range users {
		out = append(out, users[i].Summary())
	}
	return out, nil
}

// Get はIDでユーザーを返します。
func (u *userAdminUsecase) Get(ctx context.Context, id string) (entity.UserSummary, error) {
	user, err := u.users.FindByID(ctx, id)
	if err != nil {
		return entity.UserSummary{}, wrapUnexpected(err, "FindByID")
	}
	return user.Summary(), nil
}

// Update はユーザーを部分更新します。ロールとプランは既知の値のみ受け付け、メールアドレスは正規化されます。
func (u *userAdminUsecase) Update(ctx context.Context, id string, upd entity.UserUpdate) (entity.UserSummary, error) {
	if upd.Role != nil && !upd.Role.Valid() {
		return entity.UserSummary{}, ErrInvalidRole
	}
	if upd.Plan != nil && !upd.Plan.Valid() {
		return entity.UserSummary{}, ErrInvalidPlan
	}
	if upd.Email != nil {
		email := authusecase.NormalizeEmail(*upd.Email)
		if email == "" {
			return entity.UserSummary{}, ErrEmptyEmail
		}
		upd.Email = &email
	}

	user, err := u.users.Update(ctx, id, upd)
	if err != nil {
		return entity.UserSummary{}, wrapUnexpected(err, "Update")
	}
	return user.Summary(), nil
}

// Delete はユーザーを削除します。
func (u *userAdminUsecase) Delete(ctx context.Context, id string) error {
	if err := u.users.Delete(ctx, id); err != nil {
		return wrapUnexpected(err, "Delete")
	}
	return nil
}

func wrapUnexpected(err error, op string) error {
	if errors.Is(err, authusecase.ErrUserNotFound) || errors.Is(err, authusecase.ErrEmailAlreadyExists) {
		return err
	}
	return oops.In("admin").With("operation", op).Wrap(err)
}
