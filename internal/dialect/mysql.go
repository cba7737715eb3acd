package dialect

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/nicole/internal/common"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

const (
	mysqlDuplicateEntry   = 1062
	mysqlRowIsReferenced  = 1451
	mysqlRowIsReferenced2 = 1217
	mysqlTLSConfigName    = "nicole"
)

// Cannot delete or update a parent row: a foreign key constraint fails (`db`.`child`, CONSTRAINT ...)
var mysqlDependentTable = regexp.MustCompile("fails \\(`[^`]+`\\.`([^`]+)`")

type MySQL struct{}

func (MySQL) Name() string         { return "mysql" }
func (MySQL) DriverName() string   { return "mysql" }
func (MySQL) GooseDialect() string { return "mysql" }

func (MySQL) DSN(o Options) (string, error) {
	if o.DSN != "" {
		return o.DSN, nil
	}
	port := o.Port
	if port == 0 {
		port = 3306
	}

	cfg := mysql.NewConfig()
	cfg.User = o.User
	cfg.Passwd = o.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(o.Host, strconv.Itoa(port))
	cfg.DBName = o.Name
	cfg.ParseTime = true
	cfg.ClientFoundRows = true
	cfg.Loc = time.UTC

	if o.TLSCA != "" {
		pem, err := os.ReadFile(o.TLSCA)
		if err != nil {
			return "", fmt.Errorf("read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return "", fmt.Errorf("no certificates found in %s", o.TLSCA)
		}
		if err := mysql.RegisterTLSConfig(mysqlTLSConfigName, &tls.Config{RootCAs: pool, ServerName: o.Host}); err != nil {
			return "", fmt.Errorf("register TLS config: %w", err)
		}
		cfg.TLSConfig = mysqlTLSConfigName
	}
	return cfg.FormatDSN(), nil
}

func (MySQL) Rebind(query string) string { return rebind(sqlx.QUESTION, query) }

func (MySQL) QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (MySQL) ListTablesQuery() string {
	return `SELECT table_name FROM information_schema.tables
		 WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
		 ORDER BY table_name`
}

func (MySQL) SupportsReturning() bool { return false }

func (MySQL) Classify(err error) error {
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) {
		return err
	}
	switch myErr.Number {
	case mysqlDuplicateEntry:
		return fmt.Errorf("%w: %s", common.ErrorConflict, myErr.Message)
	case mysqlRowIsReferenced, mysqlRowIsReferenced2:
		table := ""
		if m := mysqlDependentTable.FindStringSubmatch(myErr.Message); m != nil {
			table = m[1]
		}
		return &common.ForeignKeyError{DependentTable: table, Err: err}
	}
	return err
}
