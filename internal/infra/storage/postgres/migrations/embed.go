package migrations

import "embed"

// FS contains embedded goose migrations for the transaction store.
//
//go:embed *.sql
var FS embed.FS
