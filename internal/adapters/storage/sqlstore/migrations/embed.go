// Package migrations embeds the quote store schema for each SQL dialect.
package migrations

import "embed"

// FS holds one directory per dialect of NNNN_title.up.sql and
// NNNN_title.down.sql pairs.
//
//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
