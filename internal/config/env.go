package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// envFile is loaded before the environment is read. Variables already set
// in the process take precedence over the file.
var envFile = ".env"

// loadEnv overlays cfg with environment variables. A missing .env file is
// not an error; a malformed one, or a malformed number, panics.
func loadEnv(cfg *Config) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	envString("DB_DRIVER", &cfg.Driver)
	envString("DB_HOST", &cfg.DBHost)
	envInt("DB_PORT", &cfg.DBPort)
	envString("DB_USER", &cfg.DBUser)
	envString("DB_PASSWORD", &cfg.DBPassword)
	envString("DB_DATABASE", &cfg.DBName)
	envString("DB_SSL_CA", &cfg.DBSSLCA)
	envString("DB_DSN", &cfg.DSN)

	envDuration("TABLE_CACHE_TTL", &cfg.TableCacheTTL)
	envInt("ROW_LIMIT", &cfg.RowLimit)
	envDuration("CODE_TTL", &cfg.CodeTTL)
	envDuration("RESEND_COOLDOWN", &cfg.ResendCooldown)
	envInt("VERIFY_ATTEMPTS_PER_MINUTE", &cfg.VerifyAttemptsPerMinute)

	envString("EMAIL_HOST", &cfg.EmailHost)
	envInt("EMAIL_PORT", &cfg.EmailPort)
	envString("EMAIL_USER", &cfg.EmailUser)
	envString("EMAIL_PASS", &cfg.EmailPassword)
	envString("EMAIL_SENDER", &cfg.EmailSender)

	envString("LOG_FORMAT", &cfg.LogFormat)
	envString("LOG_LEVEL", &cfg.LogLevel)
	envString("EXPORT_DIR", &cfg.ExportDir)

	envString("S3_BUCKET", &cfg.S3Bucket)
	envString("S3_REGION", &cfg.S3Region)
	envString("S3_ENDPOINT", &cfg.S3BaseEndpoint)
	envString("S3_ACCESS_KEY", &cfg.S3AccessKey)
	envString("S3_SECRET_KEY", &cfg.S3SecretKey)
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Errorf("%s: %w", key, err))
	}
	*dst = n
}

func envDuration(key string, dst *time.Duration) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(fmt.Errorf("%s: %w", key, err))
	}
	*dst = d
}
