// Package snapshot writes derived rows to a local SQLite file.
package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fortuna/rinkside/internal/advstats"
	"github.com/fortuna/rinkside/internal/store"

	_ "modernc.org/sqlite"
)

// Store is a SQLite copy of player_adv_stats.
type Store struct {
	sqlDB *sql.DB
}

var upsertSnapshot = store.UpsertAdvStatsSQL(func(int) string { return "?" })

// Open opens or creates a snapshot file and ensures the table exists.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("snapshot path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.ExecContext(ctx, CreateTableSQL()); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create snapshot table: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// CreateTableSQL renders the snapshot table from the row columns.
func CreateTableSQL() string {
	cols := advstats.Columns()
	defs := make([]string, 0, len(cols)+1)
	for _, c := range cols {
		def := c.Name + " " + sqliteType(c.Kind)
		if !c.Nullable {
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}
	defs = append(defs, "PRIMARY KEY ("+strings.Join(advstats.KeyColumns, ", ")+")")
	return "CREATE TABLE IF NOT EXISTS " + store.AdvStatsTable + " (\n  " + strings.Join(defs, ",\n  ") + "\n)"
}

func sqliteType(k advstats.ColumnKind) string {
	switch k {
	case advstats.KindInt, advstats.KindBool:
		return "INTEGER"
	case advstats.KindFloat:
		return "REAL"
	default:
		return "TEXT"
	}
}

// UpsertRows writes rows in one transaction.
func (s *Store) UpsertRows(ctx context.Context, rows []advstats.PlayerGameRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertSnapshot)
	if err != nil {
		return fmt.Errorf("prepare snapshot upsert: %w", err)
	}
	defer stmt.Close()

	for i := range rows {
		if _, err := stmt.ExecContext(ctx, rows[i].Values()...); err != nil {
			return fmt.Errorf("snapshot game %d player %d %s: %w", rows[i].GameID, rows[i].PlayerID, rows[i].Slice, err)
		}
	}
	return tx.Commit()
}

// CountRows returns how many rows a game has under calcVersion.
func (s *Store) CountRows(ctx context.Context, gameID int64, calcVersion string) (int, error) {
	var n int
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM player_adv_stats WHERE game_id = ? AND calc_version = ?`,
		gameID, calcVersion,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count snapshot rows: %w", err)
	}
	return n, nil
}

// TeamOf returns the stored team of one row.
func (s *Store) TeamOf(ctx context.Context, gameID, playerID int64, slice advstats.Slice, calcVersion string) (string, error) {
	var team string
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT team_abbr FROM player_adv_stats WHERE game_id = ? AND player_id = ? AND state_key = ? AND calc_version = ?`,
		gameID, playerID, string(slice), calcVersion,
	).Scan(&team)
	if err != nil {
		return "", fmt.Errorf("read snapshot row: %w", err)
	}
	return team, nil
}
