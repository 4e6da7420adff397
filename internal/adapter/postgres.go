package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver

	"github.com/cascade-data/cascade/internal/model"
)

// Config holds the connection settings for a Postgres session.
type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string
}

// Postgres implements Adapter over a pgx database/sql connection.
type Postgres struct {
	cfg    Config
	logger *slog.Logger
	db     *sql.DB
}

// NewPostgres creates a Postgres adapter. If logger is nil, a discard logger
// is used.
func NewPostgres(cfg Config, logger *slog.Logger) *Postgres {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Postgres{cfg: cfg, logger: logger}
}

// DSN builds the key=value connection string.
func (p *Postgres) DSN() string {
	host := p.cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := p.cfg.Port
	if port == 0 {
		port = 5432
	}
	sslmode := p.cfg.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
		host, port, p.cfg.Database, sslmode)
	if p.cfg.Username != "" {
		dsn += " user=" + p.cfg.Username
	}
	if p.cfg.Password != "" {
		dsn += " password=" + p.cfg.Password
	}
	return dsn
}

// Connect opens and pings the connection.
func (p *Postgres) Connect(ctx context.Context) error {
	p.logger.Debug("connecting to postgres",
		slog.String("host", p.cfg.Host), slog.String("database", p.cfg.Database))

	db, err := sql.Open("pgx", p.DSN())
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}
	p.db = db
	return nil
}

func (p *Postgres) Close() error {
	if p.db == nil {
		return nil
	}
	return p.db.Close()
}

func (p *Postgres) Exec(ctx context.Context, query string) error {
	if p.db == nil {
		return fmt.Errorf("database connection not established")
	}
	_, err := p.db.ExecContext(ctx, query)
	return err
}

func (p *Postgres) QueryCount(ctx context.Context, query string) (int64, error) {
	if p.db == nil {
		return 0, fmt.Errorf("database connection not established")
	}
	var count int64
	if err := p.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (p *Postgres) QueryRowCount(ctx context.Context, query string) (int64, error) {
	if p.db == nil {
		return 0, fmt.Errorf("database connection not established")
	}
	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var n int64
	for rows.Next() {
		n++
	}
	return n, rows.Err()
}

func (p *Postgres) EnsureSchema(ctx context.Context, schema string) error {
	return p.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+p.QuoteIdent(schema))
}

func (p *Postgres) TableExists(ctx context.Context, rel model.Relation) (bool, error) {
	if p.db == nil {
		return false, fmt.Errorf("database connection not established")
	}
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = $1 AND table_name = $2 AND table_type = 'BASE TABLE'
		)`
	var exists bool
	if err := p.db.QueryRowContext(ctx, query, rel.Schema, rel.Name).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (p *Postgres) Columns(ctx context.Context, rel model.Relation) ([]string, error) {
	if p.db == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	const query = `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`

	rows, err := p.db.QueryContext(ctx, query, rel.Schema, rel.Name)
	if err != nil {
		return nil, fmt.Errorf("introspect %s: %w", rel, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

// QuoteIdent escapes an identifier by quoting and doubling inner quotes.
func (p *Postgres) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
