package repository

import (
	"context"
	"database/sql"
	"time"
)

type TxDB interface {
	DBTX
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// MySQLStorage keeps session values in portal_session_values, one row per
// (namespace, name).
type MySQLStorage struct {
	db        TxDB
	namespace string
}

func NewMySQLStorage(db TxDB, namespace string) *MySQLStorage {
	return &MySQLStorage{db: db, namespace: namespace}
}

func (s *MySQLStorage) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS ` + sessionTable + ` (
			namespace VARCHAR(64) NOT NULL,
			name VARCHAR(64) NOT NULL,
			value TEXT NOT NULL,
			updated_at DATETIME(6) NOT NULL,
			PRIMARY KEY (namespace, name)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4
	`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

func (s *MySQLStorage) Load(ctx context.Context, keys ...string) (map[string]string, error) {
	keys = normalizeKeys(keys)
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	args := make([]interface{}, 0, len(keys)+1)
	args = append(args, s.namespace)
	for _, key := range keys {
		args = append(args, key)
	}

	query := `SELECT name, value FROM ` + sessionTable + ` WHERE namespace = ? AND name IN (` + placeholders(len(keys)) + `)`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		out[name] = value
	}
	return out, rows.Err()
}

func (s *MySQLStorage) Save(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO ` + sessionTable + ` (namespace, name, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE value = VALUES(value), updated_at = VALUES(updated_at)
	`
	for name, value := range values {
		if _, err := tx.ExecContext(ctx, query, s.namespace, name, value, now); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *MySQLStorage) Delete(ctx context.Context, keys ...string) error {
	keys = normalizeKeys(keys)
	if len(keys) == 0 {
		return nil
	}

	args := make([]interface{}, 0, len(keys)+1)
	args = append(args, s.namespace)
	for _, key := range keys {
		args = append(args, key)
	}
	query := `DELETE FROM ` + sessionTable + ` WHERE namespace = ? AND name IN (` + placeholders(len(keys)) + `)`
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}
