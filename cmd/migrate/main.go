// Command migrate applies the SQL files under migrations/ to DATABASE_URL.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/exitravels/backoffice/internal/config"
	"github.com/exitravels/backoffice/internal/logging"
	"github.com/exitravels/backoffice/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: migrate [command]

Commands:
  (default)   差分マイグレーションを適用
  status      適用済み・未適用のマイグレーションを表示
  down        最後に適用したマイグレーションを 1 つ戻す
  reset       全テーブルを DROP し、集約スキーマで再作成
  fresh       全テーブルを DROP し、全マイグレーションを順番に適用`)
	os.Exit(1)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel)

	ctx := context.Background()
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logging.Fatal("connect failed", "error", err)
	}
	defer pool.Close()

	m := &migrator{pool: pool, dir: findMigrationDir()}

	cmd := ""
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "":
		m.up(ctx)
	case "status":
		m.status(ctx)
	case "down":
		m.down(ctx)
	case "reset":
		m.dropAll(ctx)
		m.consolidated(ctx)
	case "fresh":
		m.dropAll(ctx)
		m.up(ctx)
	default:
		usage()
	}
}

func findMigrationDir() string {
	dir := "migrations"
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		dir = "../migrations"
	}
	return dir
}

type migrator struct {
	pool *pgxpool.Pool
	dir  string
}

// upNames は .up.sql のマイグレーション名（拡張子なし）をソート済みで返す
func (m *migrator) upNames() []string {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		logging.Fatal("read migrations dir failed", "dir", m.dir, "error", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			names = append(names, strings.TrimSuffix(e.Name(), ".up.sql"))
		}
	}
	sort.Strings(names)
	return names
}

func (m *migrator) ensureTable(ctx context.Context) {
	if _, err := m.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		name TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`); err != nil {
		logging.Fatal("create schema_migrations failed", "error", err)
	}
}

func (m *migrator) applied(ctx context.Context) map[string]bool {
	m.ensureTable(ctx)
	rows, err := m.pool.Query(ctx, `SELECT name FROM schema_migrations`)
	if err != nil {
		logging.Fatal("list applied migrations failed", "error", err)
	}
	defer rows.Close()
	out := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			logging.Fatal("scan migration failed", "error", err)
		}
		out[name] = true
	}
	if err := rows.Err(); err != nil {
		logging.Fatal("list applied migrations failed", "error", err)
	}
	return out
}

// execFile runs one SQL file; the migration bookkeeping runs in the same
// transaction when record is non-empty.
func (m *migrator) execFile(ctx context.Context, file, record string, remove bool) {
	sql, err := os.ReadFile(filepath.Join(m.dir, file))
	if err != nil {
		logging.Fatal("read migration failed", "file", file, "error", err)
	}
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		logging.Fatal("begin failed", "error", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, string(sql)); err != nil {
		logging.Fatal("migration failed", "file", file, "error", err)
	}
	switch {
	case record != "" && remove:
		_, err = tx.Exec(ctx, "DELETE FROM schema_migrations WHERE name=$1", record)
	case record != "":
		_, err = tx.Exec(ctx, "INSERT INTO schema_migrations (name) VALUES ($1)", record)
	}
	if err != nil {
		logging.Fatal("record migration failed", "migration", record, "error", err)
	}
	if err := tx.Commit(ctx); err != nil {
		logging.Fatal("commit failed", "file", file, "error", err)
	}
}

// ---------------------------------------------------------------------------
// (default) 差分マイグレーション
// ---------------------------------------------------------------------------
func (m *migrator) up(ctx context.Context) {
	done := m.applied(ctx)
	count := 0
	for _, name := range m.upNames() {
		if done[name] {
			continue
		}
		m.execFile(ctx, name+".up.sql", name, false)
		count++
		slog.Info("migration applied", "migration", name)
	}
	if count == 0 {
		slog.Info("all migrations already applied")
		return
	}
	slog.Info("migrations completed", "count", count)
}

func (m *migrator) status(ctx context.Context) {
	done := m.applied(ctx)
	for _, name := range m.upNames() {
		mark := "pending"
		if done[name] {
			mark = "applied"
		}
		fmt.Printf("%-8s %s\n", mark, name)
	}
}

// ---------------------------------------------------------------------------
// down: 直近の 1 件を戻す
// ---------------------------------------------------------------------------
func (m *migrator) down(ctx context.Context) {
	done := m.applied(ctx)
	names := m.upNames()
	for i := len(names) - 1; i >= 0; i-- {
		if !done[names[i]] {
			continue
		}
		m.execFile(ctx, names[i]+".down.sql", names[i], true)
		slog.Info("migration reverted", "migration", names[i])
		return
	}
	slog.Info("nothing to revert")
}

// ---------------------------------------------------------------------------
// 全テーブル DROP / 集約スキーマで再作成
// ---------------------------------------------------------------------------
func (m *migrator) dropAll(ctx context.Context) {
	slog.Info("dropping all tables")
	m.execFile(ctx, "000_drop_all.sql", "", false)
	slog.Info("all tables dropped")
}

func (m *migrator) consolidated(ctx context.Context) {
	slog.Info("applying consolidated schema")
	m.execFile(ctx, "000_consolidated.sql", "", false)

	// 全マイグレーションを適用済みとして記録
	m.ensureTable(ctx)
	names := m.upNames()
	for _, name := range names {
		if _, err := m.pool.Exec(ctx, "INSERT INTO schema_migrations (name) VALUES ($1) ON CONFLICT DO NOTHING", name); err != nil {
			logging.Fatal("record migration failed", "migration", name, "error", err)
		}
	}
	slog.Info("consolidated schema applied", "migrations_marked", len(names))
}
