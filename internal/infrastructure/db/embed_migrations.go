package db

import "embed"

// MigrationFS 內嵌 migrations/*.sql，供 cmd/migrate 使用。
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
