package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"ScalpinMonitor/internal/model"
)

// SQLiteRecorder persists rows and trigger events to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so external readers don't block the writer.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS history_rows (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			iteration    INTEGER NOT NULL,
			exchange     TEXT,
			asset        TEXT,
			anchor       TEXT,
			valor_anchor REAL,
			profit_pct   REAL,
			acum_pct     REAL,
			mirror       TEXT,
			accion       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_ts ON history_rows(timestamp)`,

		`CREATE TABLE IF NOT EXISTS trigger_events (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			exchange     TEXT,
			asset        TEXT,
			anchor       TEXT,
			valor_anchor REAL,
			profit_pct   REAL,
			accion       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trigger_ts ON trigger_events(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRows(ts time.Time, iteration int, rows []model.Row) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO history_rows
		(timestamp, iteration, exchange, asset, anchor, valor_anchor, profit_pct, acum_pct, mirror, accion)
		VALUES (?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	unix := ts.Unix()
	for _, row := range rows {
		if _, err := stmt.Exec(unix, iteration, row.Exchange, row.Asset, row.Anchor,
			row.ValorAnchor, row.ProfitPct, row.AcumPct, row.Mirror, row.Accion); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordTrigger(ts time.Time, row model.Row) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO trigger_events
		(timestamp, exchange, asset, anchor, valor_anchor, profit_pct, accion)
		VALUES (?,?,?,?,?,?,?)`,
		ts.Unix(), row.Exchange, row.Asset, row.Anchor,
		row.ValorAnchor, row.ProfitPct, row.Accion,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
