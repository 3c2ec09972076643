package figuresmith

import "embed"

// MigrationsFS holds the embedded SQL migrations for the figure archive.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS
