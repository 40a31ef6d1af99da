// Package adapters はauthフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"voces_backend/internal/feature/auth/domain/entity"
	"voces_backend/internal/feature/auth/usecase"
	"voces_backend/internal/platform/db"
)

// userGorm はUserRepositoryインターフェースのGORM実装です。
type userGorm struct {
	db *gorm.DB
}

// userGormがUserRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.UserRepository = (*userGorm)(nil)

// NewUserGorm は指定されたgorm.DB接続でuserGormの新しいインスタンスを生成します。
func NewUserGorm(db *gorm.DB) *userGorm {
	return &userGorm{db: db}
}

// Create はユーザーをデータベースに追加します。IDが空の場合はUUIDを採番します。
// 同じメールアドレスのユーザーが既に存在する場合、usecase.ErrEmailAlreadyExistsを返します。
func (r *userGorm) Create(ctx context.Context, u *entity.User) error {
	if u == nil {
		return errors.New("user is nil")
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.EmailVerificationTokenExpires = utcPtr(u.EmailVerificationTokenExpires)
	u.PasswordResetTokenExpires = utcPtr(u.PasswordResetTokenExpires)

	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return usecase.ErrEmailAlreadyExists
		}
		return err
	}
	return nil
}

// FindByEmail はメールアドレスでユーザーを取得します。
func (r *userGorm) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.first(ctx, "email = ?", email)
}

// FindByID はIDでユーザーを取得します。
func (r *userGorm) FindByID(ctx context.Context, id string) (*entity.User, error) {
	return r.first(ctx, "id = ?", id)
}

// FindByVerificationToken は検証トークンでユーザーを取得します。期限の判定は呼び出し側で行います。
func (r *userGorm) FindByVerificationToken(ctx context.Context, token string) (*entity.User, error) {
	return r.first(ctx, "email_verification_token = ?", token)
}

// FindByResetToken はトークン一致かつ期限がnowより後のユーザーを取得します。
// 期限切れのトークンは存在しないトークンと同じくErrUserNotFoundになります。
func (r *userGorm) FindByResetToken(ctx context.Context, token string, now time.Time) (*entity.User, error) {
	return r.first(ctx, "password_reset_token = ? AND password_reset_token_expires > ?", token, now.UTC())
}

// MarkVerified は検証済みフラグを立て、検証トークンと期限を同一UPDATEでクリアします。
func (r *userGorm) MarkVerified(ctx context.Context, id string) error {
	return r.updateColumns(ctx, id, map[string]any{
		"is_verified":                      true,
		"email_verification_token":         nil,
		"email_verification_token_expires": nil,
	})
}

// SetPasswordResetToken はリセットトークンと期限を保存します。以前のトークンは上書きされます。
func (r *userGorm) SetPasswordResetToken(ctx context.Context, id string, token entity.EphemeralToken) error {
	return r.updateColumns(ctx, id, map[string]any{
		"password_reset_token":         token.Value,
		"password_reset_token_expires": token.ExpiresAt.UTC(),
	})
}

// ResetPassword はパスワードハッシュを更新し、リセットトークンと期限を同一UPDATEでクリアします。
func (r *userGorm) ResetPassword(ctx context.Context, id, passwordHash string) error {
	return r.updateColumns(ctx, id, map[string]any{
		"password":                     passwordHash,
		"password_reset_token":         nil,
		"password_reset_token_expires": nil,
	})
}

// List は全ユーザーを作成日時の降順で返します。
func (r *userGorm) List(ctx context.Context) ([]entity.User, error) {
	var users []entity.User
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Update は管理者による部分更新を適用し、更新後のユーザーを返します。
// メールアドレスが他のユーザーと重複する場合、usecase.ErrEmailAlreadyExistsを返します。
func (r *userGorm) Update(ctx context.Context, id string, upd entity.UserUpdate) (*entity.User, error) {
	cols := map[string]any{}
	if upd.Email != nil {
		cols["email"] = *upd.Email
	}
	if upd.IsVerified != nil {
		cols["is_verified"] = *upd.IsVerified
		// 検証済みのユーザーは検証トークンを持たない
		if *upd.IsVerified {
			cols["email_verification_token"] = nil
			cols["email_verification_token_expires"] = nil
		}
	}
	if upd.Plan != nil {
		cols["plan"] = string(*upd.Plan)
	}
	if upd.Role != nil {
		cols["role"] = string(*upd.Role)
	}

	if len(cols) > 0 {
		if err := r.updateColumns(ctx, id, cols); err != nil {
			if db.IsUniqueViolation(err) {
				return nil, usecase.ErrEmailAlreadyExists
			}
			return nil, err
		}
	}
	return r.FindByID(ctx, id)
}

// Delete はユーザーを削除します。存在しない場合はusecase.ErrUserNotFoundを返します。
func (r *userGorm) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return usecase.ErrUserNotFound
	}
	return nil
}

func (r *userGorm) first(ctx context.Context, query string, args ...any) (*entity.User, error) {
	var u entity.User
	if err := r.db.WithContext(ctx).Where(query, args...).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// updateColumns は1レコードの複数カラムを単一のUPDATE文で更新します。
func (r *userGorm) updateColumns(ctx context.Context, id string, cols map[string]any) error {
	res := r.db.WithContext(ctx).Model(&entity.User{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return usecase.ErrUserNotFound
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
