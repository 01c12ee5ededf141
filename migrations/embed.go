// Package migrations embeds the SQL migration files so the server binary can
// run them without the source tree present.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
