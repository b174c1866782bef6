package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/flowmap/internal/core"
	"github.com/JonMunkholm/flowmap/internal/properties"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

const schema = `
CREATE TABLE IF NOT EXISTS projects (
	id               TEXT PRIMARY KEY,
	name             TEXT NOT NULL,
	description      TEXT NOT NULL DEFAULT '',
	location_csv     TEXT,
	location_mapping JSONB,
	flow_csv         TEXT,
	flow_mapping     JSONB,
	properties       JSONB,
	created_at       TIMESTAMPTZ NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL
)`

const projectColumns = `id, name, description, location_csv, location_mapping,
	flow_csv, flow_mapping, properties, created_at, updated_at`

// PoolConfig holds connection pool settings.
type PoolConfig struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Connect opens a pgx pool and verifies it with a ping.
func Connect(ctx context.Context, cfg PoolConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// Postgres stores projects in a single projects table. CSV text is kept
// verbatim; mappings and properties are JSONB.
type Postgres struct {
	db DBTX
}

// NewPostgres wraps db. Call Migrate before first use.
func NewPostgres(db DBTX) *Postgres {
	return &Postgres{db: db}
}

// Migrate creates the projects table if it does not exist.
func (s *Postgres) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate projects: %w", err)
	}
	return nil
}

func (s *Postgres) CreateProject(ctx context.Context, p *core.Project) error {
	args, err := projectArgs(p)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `INSERT INTO projects (`+projectColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`, args...)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

// ListProjects returns projects ordered by creation time.
func (s *Postgres) ListProjects(ctx context.Context) ([]core.Project, error) {
	rows, err := s.db.Query(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	var out []core.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read projects: %w", err)
	}
	return out, nil
}

func (s *Postgres) GetProject(ctx context.Context, id string) (*core.Project, error) {
	row := s.db.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	p, err := scanProject(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrProjectNotFound
	}
	return p, err
}

func (s *Postgres) UpdateProject(ctx context.Context, p *core.Project) error {
	args, err := projectArgs(p)
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx, `UPDATE projects SET
		name = $2, description = $3,
		location_csv = $4, location_mapping = $5,
		flow_csv = $6, flow_mapping = $7,
		properties = $8, created_at = $9, updated_at = $10
		WHERE id = $1`, args...)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrProjectNotFound
	}
	return nil
}

func (s *Postgres) DeleteProject(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrProjectNotFound
	}
	return nil
}

// projectArgs flattens p into the column order of projectColumns.
func projectArgs(p *core.Project) ([]any, error) {
	locCSV, locMapping, err := sectionArgs(p.LocationData)
	if err != nil {
		return nil, err
	}
	flowCSV, flowMapping, err := sectionArgs(p.FlowData)
	if err != nil {
		return nil, err
	}

	var props []byte
	if p.PropertiesData != nil {
		if props, err = json.Marshal(p.PropertiesData.Config); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
	}

	return []any{
		p.ID, p.Name, p.Description,
		locCSV, locMapping,
		flowCSV, flowMapping,
		props,
		pgtype.Timestamptz{Time: p.CreatedAt, Valid: true},
		pgtype.Timestamptz{Time: p.UpdatedAt, Valid: true},
	}, nil
}

func sectionArgs(s *core.DataSection) (pgtype.Text, []byte, error) {
	if s == nil {
		return pgtype.Text{}, nil, nil
	}
	mapping := s.Mapping
	if mapping == nil {
		mapping = core.FieldMapping{}
	}
	data, err := json.Marshal(mapping)
	if err != nil {
		return pgtype.Text{}, nil, fmt.Errorf("invalid mapping: %w", err)
	}
	return pgtype.Text{String: s.CSVContent, Valid: true}, data, nil
}

func scanProject(row pgx.Row) (*core.Project, error) {
	var (
		p                       core.Project
		locCSV, flowCSV         pgtype.Text
		locMapping, flowMapping []byte
		props                   []byte
		createdAt, updatedAt    pgtype.Timestamptz
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description,
		&locCSV, &locMapping,
		&flowCSV, &flowMapping,
		&props, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan project: %w", err)
	}

	if p.LocationData, err = decodeSection(locCSV, locMapping); err != nil {
		return nil, err
	}
	if p.FlowData, err = decodeSection(flowCSV, flowMapping); err != nil {
		return nil, err
	}
	if props != nil {
		var cfg properties.Config
		if err := json.Unmarshal(props, &cfg); err != nil {
			return nil, fmt.Errorf("invalid config for project %s: %w", p.ID, err)
		}
		p.PropertiesData = &core.PropertiesSection{Config: cfg}
	}
	p.CreatedAt = createdAt.Time.UTC()
	p.UpdatedAt = updatedAt.Time.UTC()
	return &p, nil
}

func decodeSection(csv pgtype.Text, mapping []byte) (*core.DataSection, error) {
	if !csv.Valid {
		return nil, nil
	}
	s := &core.DataSection{CSVContent: csv.String, Mapping: core.FieldMapping{}}
	if mapping != nil {
		if err := json.Unmarshal(mapping, &s.Mapping); err != nil {
			return nil, fmt.Errorf("invalid mapping: %w", err)
		}
	}
	return s, nil
}
