// Package config はプロセス全体の設定を環境変数から読み込みます。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"voces_backend/internal/platform/db"
	"voces_backend/internal/platform/mail"
	"voces_backend/internal/platform/redis"
	"voces_backend/internal/platform/storage"
)

// Config はmainで一度だけ読み込まれ、各コンポーネントに注入されます。
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	// PublicBaseURL はメール内リンクの基点です。未設定の場合は http://localhost:{Port} になります。
	PublicBaseURL string `env:"PUBLIC_BASE_URL"`

	// CORSAllowedOrigins が空の場合、CORSミドルウェアは登録されません。
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	Session SessionConfig
	DB      db.Config
	Redis   redis.Config
	Storage storage.Config
	Mail    mail.Config
}

// SessionConfig はセッショントークンの署名設定です。
type SessionConfig struct {
	Secret     string        `env:"JWT_SECRET"`
	Expiration time.Duration `env:"JWT_EXPIRATION" envDefault:"168h"`
}

// Load は .env ファイル（存在する場合）を読み込んだ後、環境変数から設定を構築します。
// 既に設定済みの環境変数は .env の値で上書きされません。
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load dotenv: %w", err)
	}
	return parse(env.Options{})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = "http://localhost:" + cfg.Port
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	return cfg, nil
}

// Addr はHTTPサーバーの待ち受けアドレスを返します。
func (c Config) Addr() string {
	return ":" + c.Port
}
