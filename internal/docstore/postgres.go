package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var errUnknownCollection = errors.New("unknown collection")

// tables maps collection names to their Postgres tables.
var tables = map[string]string{
	UserAnalyses:     "user_analyses",
	SharedDashboards: "shared_dashboards",
}

// PostgresStore implements Store on top of a shared *sql.DB.
type PostgresStore struct {
	DB *sql.DB
}

// Collection returns the table-backed collection for name.
func (s *PostgresStore) Collection(name string) Collection {
	return &PGCollection{DB: s.DB, table: tables[name], name: name}
}

// Close closes the underlying pool.
func (s *PostgresStore) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// PGCollection implements Collection using one Postgres table.
type PGCollection struct {
	DB    *sql.DB
	table string
	name  string
}

func (c *PGCollection) check() error {
	if c.table == "" {
		return fmt.Errorf("%w: %q", errUnknownCollection, c.name)
	}
	return nil
}

// Get returns a record by id.
func (c *PGCollection) Get(ctx context.Context, id string) (Record, error) {
	if err := c.check(); err != nil {
		return Record{}, err
	}
	query := fmt.Sprintf(`
SELECT id, data, user_id, type, created_at
FROM %s
WHERE id = $1
LIMIT 1`, c.table)

	rec, err := scanRecord(c.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return rec, nil
}

// Set upserts a record.
func (c *PGCollection) Set(ctx context.Context, rec Record) error {
	if err := c.check(); err != nil {
		return err
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, data, user_id, type, created_at)
VALUES ($1, $2::jsonb, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
  data = EXCLUDED.data,
  user_id = EXCLUDED.user_id,
  type = EXCLUDED.type,
  created_at = EXCLUDED.created_at`, c.table)

	_, err := c.DB.ExecContext(ctx, query,
		rec.ID,
		string(rec.Data),
		nullableString(rec.UserID),
		rec.Type,
		rec.CreatedAt,
	)
	return err
}

// Delete removes a record; absent ids are not an error.
func (c *PGCollection) Delete(ctx context.Context, id string) error {
	if err := c.check(); err != nil {
		return err
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, c.table)
	_, err := c.DB.ExecContext(ctx, query, id)
	return err
}

// ListByUser lists records for a user ordered newest-first.
func (c *PGCollection) ListByUser(ctx context.Context, userID string, limit int) ([]Record, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`
SELECT id, data, user_id, type, created_at
FROM %s
WHERE user_id = $1
ORDER BY created_at DESC, id
LIMIT $2`, c.table)

	rows, err := c.DB.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Each streams every row to fn.
func (c *PGCollection) Each(ctx context.Context, fn func(Record) error) error {
	if err := c.check(); err != nil {
		return err
	}
	query := fmt.Sprintf(`SELECT id, data, user_id, type, created_at FROM %s ORDER BY created_at`, c.table)
	rows, err := c.DB.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	var data []byte
	var userID sql.NullString
	if err := row.Scan(&rec.ID, &data, &userID, &rec.Type, &rec.CreatedAt); err != nil {
		return Record{}, err
	}
	rec.Data = data
	if userID.Valid {
		owner := userID.String
		rec.UserID = &owner
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, nil
}

func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

var (
	_ Store      = (*PostgresStore)(nil)
	_ Collection = (*PGCollection)(nil)
)
