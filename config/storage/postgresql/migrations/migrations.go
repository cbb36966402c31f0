package migrations

import "embed"

// FS holds the numbered golang-migrate scripts for the simulation schema
//
//go:embed *.sql
var FS embed.FS
