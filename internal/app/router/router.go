// Package router はHTTPルーティングを組み立てます。
package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"voces_backend/internal/api"
	adminhandler "voces_backend/internal/feature/admin/transport/handler"
	authhandler "voces_backend/internal/feature/auth/transport/handler"
	recordinghandler "voces_backend/internal/feature/recordings/transport/handler"
	taghandler "voces_backend/internal/feature/tags/transport/handler"
	platformhandler "voces_backend/internal/platform/http/handler"
	jwtmw "voces_backend/internal/platform/jwt"
)

const rootMessage = "Voces de la Extinción API is running!"

// Handlers はルーターに登録するハンドラー一式です。
type Handlers struct {
	Health     *platformhandler.HealthHandler
	Auth       *authhandler.AuthHandler
	Tags       *taghandler.TagHandler
	Recordings *recordinghandler.RecordingHandler
	Admin      *adminhandler.UserAdminHandler
}

// Options はルーター全体に関わる設定です。
type Options struct {
	// Guard はjwtmw.AuthRequiredで作った認証ミドルウェアです。
	Guard gin.HandlerFunc

	// CORSAllowedOrigins が空の場合、CORSミドルウェアは登録しません。
	CORSAllowedOrigins []string
}

// NewRouter はgin.Engineを組み立てます。
func NewRouter(h Handlers, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		slog.Error("panic recovered", "panic", recovered, "path", c.Request.URL.Path, "remote_addr", c.ClientIP())
		c.AbortWithStatusJSON(http.StatusInternalServerError, api.ErrorResponse{Message: "internal server error"})
	}))

	if len(opts.CORSAllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSAllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Authorization", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// 認証不要
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, rootMessage) })
	// 導通確認用
	r.GET("/healthz", h.Health.Health)
	r.HEAD("/healthz", h.Health.Health)
	r.OPTIONS("/healthz", h.Health.Health)

	auth := r.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		// トークンなしは400
		auth.POST("/verify-email", h.Auth.VerifyEmail)
		auth.POST("/verify-email/:token", h.Auth.VerifyEmail)
		// メール内リンクのクリック用
		auth.GET("/verify-email/:token", h.Auth.VerifyEmail)
		auth.POST("/forgot-password", h.Auth.ForgotPassword)
		auth.POST("/reset-password/:token", h.Auth.ResetPassword)
	}

	// 認証必須のルート
	users := r.Group("/users", opts.Guard)
	{
		users.GET("/me", h.Auth.Me)
	}

	recordings := r.Group("/recordings", opts.Guard)
	{
		recordings.GET("", h.Recordings.List)
		recordings.GET("/:id", h.Recordings.Get)

		// 書き込みは管理者のみ
		recordings.POST("", jwtmw.AdminOnly(), h.Recordings.Create)
		recordings.PUT("/:id", jwtmw.AdminOnly(), h.Recordings.Update)
		recordings.DELETE("/:id", jwtmw.AdminOnly(), h.Recordings.Delete)
	}

	tags := r.Group("/tags", opts.Guard, jwtmw.AdminOnly())
	{
		tags.GET("", h.Tags.List)
		tags.GET("/:id", h.Tags.Get)
		tags.POST("", h.Tags.Create)
		tags.PUT("/:id", h.Tags.Update)
		tags.DELETE("/:id", h.Tags.Delete)
	}

	admin := r.Group("/admin", opts.Guard, jwtmw.AdminOnly())
	{
		admin.GET("/users", h.Admin.List)
		admin.GET("/users/:id", h.Admin.Get)
		admin.PUT("/users/:id", h.Admin.Update)
		admin.DELETE("/users/:id", h.Admin.Delete)
	}

	return r
}
