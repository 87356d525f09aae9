// Package migrations содержит SQL-миграции схемы хранилища историй.
package migrations

import "embed"

// FS встроенные файлы миграций для pkg/migration.
//
//go:embed *.sql
var FS embed.FS
