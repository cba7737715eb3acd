// Command nicole is an operator console for browsing and editing the tables
// of a MySQL, PostgreSQL or SQLite database, with an audit trail of every
// change.
package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/nicole/internal/app"
	"github.com/dmitrijs2005/nicole/internal/buildinfo"
	"github.com/dmitrijs2005/nicole/internal/config"
)

func main() {
	log.SetFlags(0)
	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()

	console, err := app.NewApp(ctx, cfg, os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		log.Fatalf("nicole: %v", err)
	}
	console.Run(ctx)
}
