// Package migrations embeds the SQL migrations applied by "erx migrate".
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
