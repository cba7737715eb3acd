package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/nicole/internal/flagx"
	"github.com/dmitrijs2005/nicole/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of a config file. Absent keys leave the
// corresponding Config field untouched.
type FileConfig struct {
	Driver     *string `json:"driver" yaml:"driver"`
	DBHost     *string `json:"db_host" yaml:"db_host"`
	DBPort     *int    `json:"db_port" yaml:"db_port"`
	DBUser     *string `json:"db_user" yaml:"db_user"`
	DBPassword *string `json:"db_password" yaml:"db_password"`
	DBName     *string `json:"db_name" yaml:"db_name"`
	DBSSLCA    *string `json:"db_ssl_ca" yaml:"db_ssl_ca"`
	DSN        *string `json:"dsn" yaml:"dsn"`

	TableCacheTTL *timex.Duration `json:"table_cache_ttl" yaml:"table_cache_ttl"`
	RowLimit      *int            `json:"row_limit" yaml:"row_limit"`

	CodeTTL                 *timex.Duration `json:"code_ttl" yaml:"code_ttl"`
	ResendCooldown          *timex.Duration `json:"resend_cooldown" yaml:"resend_cooldown"`
	VerifyAttemptsPerMinute *int            `json:"verify_attempts_per_minute" yaml:"verify_attempts_per_minute"`

	EmailHost     *string `json:"email_host" yaml:"email_host"`
	EmailPort     *int    `json:"email_port" yaml:"email_port"`
	EmailUser     *string `json:"email_user" yaml:"email_user"`
	EmailPassword *string `json:"email_password" yaml:"email_password"`
	EmailSender   *string `json:"email_sender" yaml:"email_sender"`

	LogFormat *string `json:"log_format" yaml:"log_format"`
	LogLevel  *string `json:"log_level" yaml:"log_level"`
	ExportDir *string `json:"export_dir" yaml:"export_dir"`

	S3Bucket       *string `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region       *string `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint *string `json:"s3_endpoint" yaml:"s3_endpoint"`
	S3AccessKey    *string `json:"s3_access_key" yaml:"s3_access_key"`
	S3SecretKey    *string `json:"s3_secret_key" yaml:"s3_secret_key"`
}

// parseFile overlays cfg with the file named by -c or -config, if any.
// Read and decode errors panic.
func parseFile(cfg *Config) {
	path := flagx.ConfigFileFlag(os.Args[1:])
	if path == "" {
		return
	}

	fc, err := readFile(path)
	if err != nil {
		panic(err)
	}
	fc.apply(cfg)
}

func readFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var fc FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return nil, err
	}
	return &fc, nil
}

func (fc *FileConfig) apply(cfg *Config) {
	set(&cfg.Driver, fc.Driver)
	set(&cfg.DBHost, fc.DBHost)
	set(&cfg.DBPort, fc.DBPort)
	set(&cfg.DBUser, fc.DBUser)
	set(&cfg.DBPassword, fc.DBPassword)
	set(&cfg.DBName, fc.DBName)
	set(&cfg.DBSSLCA, fc.DBSSLCA)
	set(&cfg.DSN, fc.DSN)

	if fc.TableCacheTTL != nil {
		cfg.TableCacheTTL = fc.TableCacheTTL.Duration
	}
	set(&cfg.RowLimit, fc.RowLimit)
	if fc.CodeTTL != nil {
		cfg.CodeTTL = fc.CodeTTL.Duration
	}
	if fc.ResendCooldown != nil {
		cfg.ResendCooldown = fc.ResendCooldown.Duration
	}
	set(&cfg.VerifyAttemptsPerMinute, fc.VerifyAttemptsPerMinute)

	set(&cfg.EmailHost, fc.EmailHost)
	set(&cfg.EmailPort, fc.EmailPort)
	set(&cfg.EmailUser, fc.EmailUser)
	set(&cfg.EmailPassword, fc.EmailPassword)
	set(&cfg.EmailSender, fc.EmailSender)

	set(&cfg.LogFormat, fc.LogFormat)
	set(&cfg.LogLevel, fc.LogLevel)
	set(&cfg.ExportDir, fc.ExportDir)

	set(&cfg.S3Bucket, fc.S3Bucket)
	set(&cfg.S3Region, fc.S3Region)
	set(&cfg.S3BaseEndpoint, fc.S3BaseEndpoint)
	set(&cfg.S3AccessKey, fc.S3AccessKey)
	set(&cfg.S3SecretKey, fc.S3SecretKey)
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
