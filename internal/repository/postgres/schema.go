package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the document tables and indexes if they don't exist.
// Both kinds share one shape: metadata columns plus JSONB settings, share
// and elements payloads keyed by the document row.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames, tablePrefix string) error {
	for _, table := range []string{tables.Projects, tables.Templates} {
		createTable := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				status TEXT NOT NULL DEFAULT 'draft',
				settings JSONB NOT NULL DEFAULT '{}',
				share JSONB,
				elements JSONB NOT NULL DEFAULT '[]',
				created_at TIMESTAMPTZ DEFAULT NOW(),
				updated_at TIMESTAMPTZ DEFAULT NOW()
			)
		`, table)
		if _, err := pool.Exec(ctx, createTable); err != nil {
			return fmt.Errorf("create table %s: %w", table, err)
		}
	}

	// Slug and token lookups back the public /share endpoints; partial
	// indexes keep unshared rows out of the way.
	indexes := []string{
		fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS idx_%sprojects_share_slug ON %s ((share->>'slug')) WHERE share IS NOT NULL`, tablePrefix, tables.Projects),
		fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS idx_%stemplates_share_slug ON %s ((share->>'slug')) WHERE share IS NOT NULL`, tablePrefix, tables.Templates),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%sprojects_share_token ON %s ((share->>'token')) WHERE share IS NOT NULL`, tablePrefix, tables.Projects),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%stemplates_share_token ON %s ((share->>'token')) WHERE share IS NOT NULL`, tablePrefix, tables.Templates),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%sprojects_updated_at ON %s (updated_at DESC)`, tablePrefix, tables.Projects),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%stemplates_updated_at ON %s (updated_at DESC)`, tablePrefix, tables.Templates),
	}
	for _, indexSQL := range indexes {
		if _, err := pool.Exec(ctx, indexSQL); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}

	return nil
}

// DropTables drops the document tables. Used by the seeder's --drop-tables
// flag for a fresh start; blocked in production by the caller.
func DropTables(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	for _, table := range []string{tables.Projects, tables.Templates} {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			return fmt.Errorf("drop table %s: %w", table, err)
		}
	}
	return nil
}
