package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"cheltuieli/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists the state as one JSON document per dataset in a
// single snapshots table.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// settings is the non-ledger part of the state, stored as its own
// document.
type settings struct {
	Language  string  `json:"language"`
	CostPerM3 float64 `json:"cost_per_m3"`
}

// NewSQLiteStore opens (creating directories as needed) and migrates
// the database.
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Load reads every dataset document and assembles the state. Any
// undecodable document discards the whole snapshot: the table is wiped
// and the seeded default state returned, so a corrupt row can never
// wedge startup.
func (s *SQLiteStore) Load(ctx context.Context) (*core.State, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, doc FROM snapshots`)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	docs := map[string][]byte{}
	for rows.Next() {
		var name, doc string
		if err := rows.Scan(&name, &doc); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		docs[name] = []byte(doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	if len(docs) == 0 {
		return core.NewState(), nil
	}

	state := &core.State{}
	var cfg settings
	targets := []struct {
		name string
		dst  any
	}{
		{"monthly", &state.Monthly},
		{"annual", &state.Annual},
		{"utilities", &state.Utilities},
		{"administration", &state.Administration},
		{"daily", &state.Daily},
		{"car", &state.Car},
		{"settings", &cfg},
	}
	for _, t := range targets {
		doc, ok := docs[t.name]
		if !ok {
			continue
		}
		if err := json.Unmarshal(doc, t.dst); err != nil {
			s.logger.Warn("snapshot document corrupt, resetting to defaults",
				"dataset", t.name, "error", err)
			if _, derr := s.db.ExecContext(ctx, `DELETE FROM snapshots`); derr != nil {
				return nil, fmt.Errorf("wipe corrupt snapshots: %w", derr)
			}
			return core.NewState(), nil
		}
	}
	state.Language = cfg.Language
	if cfg.CostPerM3 > 0 {
		state.Administration.CostPerM3 = cfg.CostPerM3
	}
	state.Normalize()
	return state, nil
}

// Save upserts every dataset document in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, state *core.State) error {
	docs := []struct {
		name string
		src  any
	}{
		{"monthly", state.Monthly},
		{"annual", state.Annual},
		{"utilities", state.Utilities},
		{"administration", state.Administration},
		{"daily", state.Daily},
		{"car", state.Car},
		{"settings", settings{Language: state.Language, CostPerM3: state.Administration.CostPerM3}},
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, d := range docs {
		doc, err := json.Marshal(d.src)
		if err != nil {
			return fmt.Errorf("encode %s: %w", d.name, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO snapshots (name, doc, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
			d.name, string(doc), now)
		if err != nil {
			return fmt.Errorf("upsert %s: %w", d.name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}
