package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hewliyang/waze-traffic-api/internal/pkg/config"
)

const migrationsDir = "migrations"

const createVersionsSQL = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version    TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down>")
	}

	cfg, err := config.Load("waze-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, createVersionsSQL); err != nil {
		log.Fatalf("schema_migrations: %v", err)
	}

	switch os.Args[1] {
	case "up":
		err = up(ctx, pool)
	case "down":
		err = down(ctx, pool)
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
	if err != nil {
		log.Fatal(err)
	}
}

// versions lists migration versions ("001_travel_samples") in order.
func versions() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.up.sql"))
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, strings.TrimSuffix(filepath.Base(f), ".up.sql"))
	}
	sort.Strings(out)
	return out, nil
}

func applied(ctx context.Context, pool *pgxpool.Pool) (map[string]bool, error) {
	rows, err := pool.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	vs, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	done := make(map[string]bool, len(vs))
	for _, v := range vs {
		done[v] = true
	}
	return done, nil
}

// exec runs one migration file and records the version change in the same
// transaction.
func exec(ctx context.Context, pool *pgxpool.Pool, file, record, version string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("exec %s: %w", file, err)
		}
		if _, err := tx.Exec(ctx, record, version); err != nil {
			return fmt.Errorf("record %s: %w", version, err)
		}
		return nil
	})
}

func up(ctx context.Context, pool *pgxpool.Pool) error {
	all, err := versions()
	if err != nil {
		return err
	}
	done, err := applied(ctx, pool)
	if err != nil {
		return err
	}

	n := 0
	for _, v := range all {
		if done[v] {
			continue
		}
		file := filepath.Join(migrationsDir, v+".up.sql")
		if err := exec(ctx, pool, file, `INSERT INTO schema_migrations (version) VALUES ($1)`, v); err != nil {
			return err
		}
		fmt.Printf("UP   %s\n", v)
		n++
	}
	log.Printf("%d migration(s) applied", n)
	return nil
}

// down rolls back the most recent migration only.
func down(ctx context.Context, pool *pgxpool.Pool) error {
	var v string
	err := pool.QueryRow(ctx, `SELECT version FROM schema_migrations ORDER BY version DESC LIMIT 1`).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		log.Println("nothing to roll back")
		return nil
	}
	if err != nil {
		return err
	}

	file := filepath.Join(migrationsDir, v+".down.sql")
	if err := exec(ctx, pool, file, `DELETE FROM schema_migrations WHERE version = $1`, v); err != nil {
		return err
	}
	fmt.Printf("DOWN %s\n", v)
	return nil
}
