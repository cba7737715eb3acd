// Package tables is the allow-listed gateway to the user tables of the
// connected database: listing, fetching, searching and audited mutations.
package tables

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/nicole/internal/common"
	"github.com/dmitrijs2005/nicole/internal/dialect"
	"github.com/dmitrijs2005/nicole/internal/models"
)

var internalTables = map[string]struct{}{
	models.UsersTable:         {},
	models.HistoryTable:       {},
	models.RecoveryCodesTable: {},
	models.GooseVersionTable:  {},
}

// IsInternal reports whether name is one of the application's own tables.
func IsInternal(name string) bool {
	_, ok := internalTables[name]
	return ok
}

// Catalog caches the list of managed tables for ttl. A ttl of zero disables
// caching.
type Catalog struct {
	db  *sql.DB
	d   dialect.Dialect
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	names    []string
	allowed  map[string]struct{}
	loadedAt time.Time
}

func NewCatalog(db *sql.DB, d dialect.Dialect, ttl time.Duration) *Catalog {
	return &Catalog{db: db, d: d, ttl: ttl, now: time.Now}
}

// List returns the managed tables sorted by name.
func (c *Catalog) List(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureFresh(ctx); err != nil {
		return nil, err
	}
	return append([]string(nil), c.names...), nil
}

// IsAllowed reports whether name is a managed table.
func (c *Catalog) IsAllowed(ctx context.Context, name string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureFresh(ctx); err != nil {
		return false, err
	}
	_, ok := c.allowed[name]
	return ok, nil
}

// Refresh drops the cached list and reloads it.
func (c *Catalog) Refresh(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.allowed = nil
	if err := c.load(ctx); err != nil {
		return nil, err
	}
	return append([]string(nil), c.names...), nil
}

func (c *Catalog) ensureFresh(ctx context.Context) error {
	if c.allowed != nil && c.ttl > 0 && c.now().Sub(c.loadedAt) < c.ttl {
		return nil
	}
	return c.load(ctx)
}

func (c *Catalog) load(ctx context.Context) error {
	rows, err := c.db.QueryContext(ctx, c.d.ListTablesQuery())
	if err != nil {
		return fmt.Errorf("%w: list tables: %v", common.ErrorUnavailable, err)
	}
	defer rows.Close()

	var names []string
	allowed := map[string]struct{}{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("%w: list tables: %v", common.ErrorUnavailable, err)
		}
		if IsInternal(name) {
			continue
		}
		if _, dup := allowed[name]; dup {
			continue
		}
		allowed[name] = struct{}{}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: list tables: %v", common.ErrorUnavailable, err)
	}
	sort.Strings(names)

	c.names = names
	c.allowed = allowed
	c.loadedAt = c.now()
	return nil
}
