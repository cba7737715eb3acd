package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/nicole/internal/flagx"
)

// parseFlags overlays cfg with command-line flags. Only the flags defined
// here are considered; -c/-config and anything else is filtered out first.
// A malformed value panics.
func parseFlags(cfg *Config) {
	fs := flag.NewFlagSet("nicole", flag.ContinueOnError)

	fs.StringVar(&cfg.Driver, "driver", cfg.Driver, "database engine: mysql, postgres or sqlite")
	fs.StringVar(&cfg.DBHost, "db-host", cfg.DBHost, "database host")
	fs.IntVar(&cfg.DBPort, "db-port", cfg.DBPort, "database port (0 for the engine default)")
	fs.StringVar(&cfg.DBUser, "db-user", cfg.DBUser, "database user")
	fs.StringVar(&cfg.DBName, "db-name", cfg.DBName, "database name, or file path for sqlite")
	fs.StringVar(&cfg.DBSSLCA, "db-ssl-ca", cfg.DBSSLCA, "CA certificate file for TLS connections")
	fs.StringVar(&cfg.DSN, "dsn", cfg.DSN, "full data source name, overrides the db-* flags")

	fs.DurationVar(&cfg.TableCacheTTL, "table-cache-ttl", cfg.TableCacheTTL, "how long the table list is cached")
	fs.IntVar(&cfg.RowLimit, "row-limit", cfg.RowLimit, "maximum rows fetched per table")
	fs.DurationVar(&cfg.CodeTTL, "code-ttl", cfg.CodeTTL, "recovery code lifetime")
	fs.DurationVar(&cfg.ResendCooldown, "resend-cooldown", cfg.ResendCooldown, "minimum wait before a code can be resent")
	fs.IntVar(&cfg.VerifyAttemptsPerMinute, "verify-attempts", cfg.VerifyAttemptsPerMinute, "code verification attempts per minute (0 for unlimited)")

	fs.StringVar(&cfg.EmailHost, "email-host", cfg.EmailHost, "SMTP host")
	fs.IntVar(&cfg.EmailPort, "email-port", cfg.EmailPort, "SMTP port")
	fs.StringVar(&cfg.EmailSender, "email-sender", cfg.EmailSender, "From address of outgoing mail")

	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: text, json or zerolog")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn or error")
	fs.StringVar(&cfg.ExportDir, "export-dir", cfg.ExportDir, "directory for exported files")

	fs.StringVar(&cfg.S3Bucket, "s3-bucket", cfg.S3Bucket, "bucket for s3:// exports")
	fs.StringVar(&cfg.S3Region, "s3-region", cfg.S3Region, "region of the export bucket")
	fs.StringVar(&cfg.S3BaseEndpoint, "s3-endpoint", cfg.S3BaseEndpoint, "custom S3 endpoint (MinIO and similar)")

	var known []string
	fs.VisitAll(func(f *flag.Flag) {
		known = append(known, "-"+f.Name, "--"+f.Name)
	})

	if err := fs.Parse(flagx.FilterArgs(os.Args[1:], known)); err != nil {
		panic(err)
	}
}
