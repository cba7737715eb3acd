// Package migrations embeds the goose SQL migrations for every supported
// dialect. Each dialect keeps its files in a directory named after
// dialect.Dialect.Name().
package migrations

import "embed"

//go:embed postgres/*.sql mysql/*.sql sqlite/*.sql
var Migrations embed.FS
