package database

import (
	"context"
	"fmt"
	"strings"
)

// The subset of the WordPress schema the engine reads. Used to bootstrap
// local databases and tests; production sites already have these tables.
var tables = []string{
	`CREATE TABLE IF NOT EXISTS {p}posts (
		ID INTEGER PRIMARY KEY AUTOINCREMENT,
		post_author INTEGER NOT NULL DEFAULT 0,
		post_date TEXT NOT NULL DEFAULT '0000-00-00 00:00:00',
		post_content TEXT NOT NULL DEFAULT '',
		post_title TEXT NOT NULL DEFAULT '',
		post_excerpt TEXT NOT NULL DEFAULT '',
		post_status TEXT NOT NULL DEFAULT 'publish',
		post_name TEXT NOT NULL DEFAULT '',
		post_parent INTEGER NOT NULL DEFAULT 0,
		guid TEXT NOT NULL DEFAULT '',
		post_type TEXT NOT NULL DEFAULT 'post',
		post_mime_type TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS {p}postmeta (
		meta_id INTEGER PRIMARY KEY AUTOINCREMENT,
		post_id INTEGER NOT NULL DEFAULT 0,
		meta_key TEXT,
		meta_value TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS {p}options (
		option_id INTEGER PRIMARY KEY AUTOINCREMENT,
		option_name TEXT NOT NULL UNIQUE,
		option_value TEXT NOT NULL DEFAULT '',
		autoload TEXT NOT NULL DEFAULT 'yes'
	)`,
	`CREATE TABLE IF NOT EXISTS {p}usermeta (
		umeta_id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL DEFAULT 0,
		meta_key TEXT,
		meta_value TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS {p}termmeta (
		meta_id INTEGER PRIMARY KEY AUTOINCREMENT,
		term_id INTEGER NOT NULL DEFAULT 0,
		meta_key TEXT,
		meta_value TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS {p}term_taxonomy (
		term_taxonomy_id INTEGER PRIMARY KEY AUTOINCREMENT,
		term_id INTEGER NOT NULL DEFAULT 0,
		taxonomy TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		parent INTEGER NOT NULL DEFAULT 0,
		count INTEGER NOT NULL DEFAULT 0
	)`,
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS {p}idx_posts_type_status_date ON {p}posts(post_type, post_status, post_date)`,
	`CREATE INDEX IF NOT EXISTS {p}idx_posts_parent ON {p}posts(post_parent)`,
	`CREATE INDEX IF NOT EXISTS {p}idx_postmeta_post_id ON {p}postmeta(post_id)`,
	`CREATE INDEX IF NOT EXISTS {p}idx_postmeta_meta_key ON {p}postmeta(meta_key)`,
	`CREATE INDEX IF NOT EXISTS {p}idx_usermeta_meta_key ON {p}usermeta(meta_key)`,
	`CREATE INDEX IF NOT EXISTS {p}idx_termmeta_term_id ON {p}termmeta(term_id)`,
	`CREATE INDEX IF NOT EXISTS {p}idx_term_taxonomy_term ON {p}term_taxonomy(term_id, taxonomy)`,
}

// CreateSchema creates the tables and indexes if they are missing
func (db *DB) CreateSchema(ctx context.Context) error {
	for _, tableSQL := range tables {
		if _, err := db.ExecContext(ctx, db.prefixed(tableSQL)); err != nil {
			return fmt.Errorf("failed to create table for query [%s]: %w", tableSQL, err)
		}
	}
	for _, indexSQL := range indexes {
		if _, err := db.ExecContext(ctx, db.prefixed(indexSQL)); err != nil {
			return fmt.Errorf("failed to create index for query [%s]: %w", indexSQL, err)
		}
	}
	db.logger.Database().Info("Schema ready", "prefix", db.Prefix)
	return nil
}

func (db *DB) prefixed(query string) string {
	return strings.ReplaceAll(query, "{p}", db.Prefix)
}
