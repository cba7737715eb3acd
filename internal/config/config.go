package config

import (
	"time"

	"github.com/dmitrijs2005/nicole/internal/dialect"
	"github.com/dmitrijs2005/nicole/internal/export"
	"github.com/dmitrijs2005/nicole/internal/mailer"
)

// Config holds runtime settings for the console.
type Config struct {
	// Database connection.
	Driver     string
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLCA    string
	DSN        string

	// Table access.
	TableCacheTTL time.Duration
	RowLimit      int

	// Recovery codes.
	CodeTTL                 time.Duration
	ResendCooldown          time.Duration
	VerifyAttemptsPerMinute int

	// Outgoing mail.
	EmailHost     string
	EmailPort     int
	EmailUser     string
	EmailPassword string
	EmailSender   string

	LogFormat string
	LogLevel  string

	ExportDir string

	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
	S3AccessKey    string
	S3SecretKey    string
}

// LoadDefaults populates c with defaults. DBPort 0 means the engine's
// standard port.
func (c *Config) LoadDefaults() {
	c.Driver = "mysql"
	c.DBHost = "127.0.0.1"
	c.DBName = "nicole"

	c.TableCacheTTL = 30 * time.Second
	c.RowLimit = 200

	c.CodeTTL = 15 * time.Minute
	c.ResendCooldown = 60 * time.Second

	c.EmailPort = 587

	c.LogFormat = "text"
	c.LogLevel = "info"

	c.ExportDir = "exports"
}

// LoadConfig builds a Config from defaults, the environment, an optional
// config file and command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	loadEnv(cfg)
	parseFile(cfg)
	parseFlags(cfg)
	return cfg
}

// Database returns connection options for dialect.Open.
func (c *Config) Database() dialect.Options {
	return dialect.Options{
		Driver:   c.Driver,
		Host:     c.DBHost,
		Port:     c.DBPort,
		User:     c.DBUser,
		Password: c.DBPassword,
		Name:     c.DBName,
		TLSCA:    c.DBSSLCA,
		DSN:      c.DSN,
	}
}

func (c *Config) Mail() mailer.Config {
	return mailer.Config{
		Host:     c.EmailHost,
		Port:     c.EmailPort,
		User:     c.EmailUser,
		Password: c.EmailPassword,
		Sender:   c.EmailSender,
	}
}

func (c *Config) S3() export.S3Config {
	return export.S3Config{
		Bucket:    c.S3Bucket,
		Region:    c.S3Region,
		Endpoint:  c.S3BaseEndpoint,
		AccessKey: c.S3AccessKey,
		SecretKey: c.S3SecretKey,
	}
}
