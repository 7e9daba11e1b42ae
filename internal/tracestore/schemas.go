package tracestore

import "embed"

// sqlSchemas holds the embedded migration files applied by golang-migrate on
// startup.
//
//go:embed migrations/*.sql
var sqlSchemas embed.FS
