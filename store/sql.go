package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/minaorangina/kingdoms/protocol"
	"github.com/rs/zerolog/log"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFS embed.FS

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

var (
	ErrUnsupportedDialect = errors.New("unsupported database dialect")
	ErrDuplicateEntry     = errors.New("journal already has an entry with this sequence number")
)

func duplicateEntry(entry protocol.JournalEntry) error {
	return fmt.Errorf("%w: game %s, seq %d", ErrDuplicateEntry, entry.GameID, entry.Seq)
}

// SQLJournal stores journals in sqlite or postgres
type SQLJournal struct {
	dialect Dialect
	db      *sql.DB
}

// OpenSQLJournal connects, migrates and returns a journal. For sqlite
// the dsn is a file path.
func OpenSQLJournal(ctx context.Context, dialect Dialect, dsn string) (*SQLJournal, error) {
	var driverName string
	switch dialect {
	case DialectSQLite:
		driverName = "sqlite"
		if dsn == "" {
			dsn = filepath.Join("tmp", "kingdoms.sqlite")
		}
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
	case DialectPostgres:
		driverName = "pgx"
		if dsn == "" {
			return nil, errors.New("postgres journal requires a dsn")
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDialect, dialect)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s database: %w", dialect, err)
	}

	j := &SQLJournal{dialect: dialect, db: db}
	if err := j.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info().Str("dialect", string(dialect)).Msg("journal database ready")
	return j, nil
}

func (j *SQLJournal) Close() error {
	return j.db.Close()
}

func (j *SQLJournal) bind(pos int) string {
	if j.dialect == DialectPostgres {
		return fmt.Sprintf("$%d", pos)
	}
	return "?"
}

func (j *SQLJournal) insertQuery(table string, cols []string) string {
	ph := make([]string, len(cols))
	for i := range cols {
		ph[i] = j.bind(i + 1)
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		table,
		strings.Join(cols, ", "),
		strings.Join(ph, ", "),
	)
}

// Append records one accepted command
func (j *SQLJournal) Append(ctx context.Context, entry protocol.JournalEntry) error {
	payload, err := json.Marshal(entry.Message)
	if err != nil {
		return fmt.Errorf("encode journal entry: %w", err)
	}

	var exists int
	q := fmt.Sprintf("SELECT COUNT(*) FROM journal WHERE game_id = %s AND seq = %s", j.bind(1), j.bind(2))
	if err := j.db.QueryRowContext(ctx, q, entry.GameID, entry.Seq).Scan(&exists); err != nil {
		return fmt.Errorf("check journal entry: %w", err)
	}
	if exists > 0 {
		return duplicateEntry(entry)
	}

	q = j.insertQuery("journal", []string{"game_id", "seq", "command", "player_id", "payload", "accepted_at"})
	if _, err := j.db.ExecContext(ctx, q,
		entry.GameID,
		entry.Seq,
		entry.Message.Command.String(),
		entry.Message.PlayerID,
		string(payload),
		entry.Accepted.UTC().UnixNano(),
	); err != nil {
		return fmt.Errorf("append journal entry %d: %w", entry.Seq, err)
	}
	return nil
}

// Entries returns a game's journal in sequence order
func (j *SQLJournal) Entries(ctx context.Context, gameID string) ([]protocol.JournalEntry, error) {
	q := fmt.Sprintf("SELECT seq, payload, accepted_at FROM journal WHERE game_id = %s ORDER BY seq", j.bind(1))
	rows, err := j.db.QueryContext(ctx, q, gameID)
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	defer rows.Close()

	entries := []protocol.JournalEntry{}
	for rows.Next() {
		var (
			seq      int64
			payload  string
			accepted int64
		)
		if err := rows.Scan(&seq, &payload, &accepted); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		entry := protocol.JournalEntry{
			GameID:   gameID,
			Seq:      seq,
			Accepted: time.Unix(0, accepted).UTC(),
		}
		if err := json.Unmarshal([]byte(payload), &entry.Message); err != nil {
			return nil, fmt.Errorf("decode journal entry %d: %w", seq, err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal: %w", err)
	}
	return entries, nil
}

func (j *SQLJournal) applyMigrations(ctx context.Context) error {
	create := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL
		)
	`
	if _, err := j.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied := map[string]bool{}
	rows, err := j.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return fmt.Errorf("read schema_migrations: %w", err)
	}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("scan schema migration: %w", err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate schema migrations: %w", err)
	}
	rows.Close()

	files, err := fs.Glob(migrationFS, fmt.Sprintf("migrations/%s/*.sql", j.dialect))
	if err != nil {
		return fmt.Errorf("glob migrations: %w", err)
	}
	sort.Strings(files)
	for _, file := range files {
		base := filepath.Base(file)
		if applied[base] {
			continue
		}
		sqlBytes, err := migrationFS.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		tx, err := j.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration tx %s: %w", file, err)
		}
		if _, err := tx.ExecContext(ctx, string(sqlBytes)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
		q := j.insertQuery("schema_migrations", []string{"version", "applied_at"})
		if _, err := tx.ExecContext(ctx, q, base, time.Now().UTC()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", file, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", file, err)
		}
		log.Debug().Str("migration", base).Msg("migration applied")
	}
	return nil
}
