// Package di provides dependency injection factories for creating application components.
package di

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"voces_backend/internal/app/router"
	adminhandler "voces_backend/internal/feature/admin/transport/handler"
	adminusecase "voces_backend/internal/feature/admin/usecase"
	authadapters "voces_backend/internal/feature/auth/adapters"
	authentity "voces_backend/internal/feature/auth/domain/entity"
	authhandler "voces_backend/internal/feature/auth/transport/handler"
	authusecase "voces_backend/internal/feature/auth/usecase"
	recordingadapters "voces_backend/internal/feature/recordings/adapters"
	recordingentity "voces_backend/internal/feature/recordings/domain/entity"
	recordinghandler "voces_backend/internal/feature/recordings/transport/handler"
	recordingusecase "voces_backend/internal/feature/recordings/usecase"
	tagentity "voces_backend/internal/feature/tags/domain/entity"
	taghandler "voces_backend/internal/feature/tags/transport/handler"
	tagusecase "voces_backend/internal/feature/tags/usecase"
	"voces_backend/internal/platform/config"
	platformhandler "voces_backend/internal/platform/http/handler"
	jwtmw "voces_backend/internal/platform/jwt"
	"voces_backend/internal/platform/password"
	"voces_backend/internal/platform/token"
)

// Deps は外部リソースへの接続です。mainで生成され、テストでは差し替えられます。
type Deps struct {
	DB *gorm.DB

	// Redis がnilの場合、タグはキャッシュなしで読み書きされます。
	Redis *redis.Client

	Storage recordingusecase.ObjectStorage

	// Mailer がnilの場合、メール送信はスキップされます。
	Mailer authusecase.Mailer
}

// Models はマイグレーション対象のモデルです。Tagは録音の中間テーブルより先に作成する必要があります。
func Models() []any {
	return []any{&authentity.User{}, &tagentity.Tag{}, &recordingentity.Recording{}}
}

// NewRouter は設定と依存からハンドラーを組み立て、ルーターを返します。
func NewRouter(cfg config.Config, d Deps) *gin.Engine {
	// Repository
	users := authadapters.NewUserGorm(d.DB)
	tags := NewTagRepository(d.Redis, d.DB)
	recordings := recordingadapters.NewRecordingGorm(d.DB)

	// Token
	sessions := jwtmw.NewGenerator(cfg.Session.Secret, cfg.Session.Expiration)
	ephemeral := token.NewGenerator(token.DefaultTTL)

	// Usecase
	authUC := authusecase.NewAuthUsecase(
		users,
		password.NewBcryptHasher(password.DefaultCost),
		ephemeral,
		sessions,
		d.Mailer,
		cfg.PublicBaseURL,
	)
	tagUC := tagusecase.NewTagUsecase(tags)
	recordingUC := recordingusecase.NewRecordingUsecase(recordings, d.Storage, tags)
	adminUC := adminusecase.NewUserAdminUsecase(users)

	// Handler
	handlers := router.Handlers{
		Health:     platformhandler.NewHealthHandler(healthChecks(d)),
		Auth:       authhandler.NewAuthHandler(authUC),
		Tags:       taghandler.NewTagHandler(tagUC),
		Recordings: recordinghandler.NewRecordingHandler(recordingUC),
		Admin:      adminhandler.NewUserAdminHandler(adminUC),
	}

	return router.NewRouter(handlers, router.Options{
		Guard:              jwtmw.AuthRequired(sessions, users),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})
}

func healthChecks(d Deps) map[string]platformhandler.CheckFunc {
	checks := map[string]platformhandler.CheckFunc{
		"database": func(ctx context.Context) error {
			sqlDB, err := d.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if d.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return d.Redis.Ping(ctx).Err()
		}
	}
	return checks
}
