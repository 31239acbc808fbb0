// Package migrations embeds the SQL migration files into the binary so
// the bridge can run them without loose files on the filesystem.
package migrations

import (
	"embed"

	"github.com/junco466/animatronics-bridge/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "." // Files are at root of embedded FS
}
