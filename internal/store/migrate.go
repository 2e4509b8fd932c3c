package store

import (
	"context"
	"errors"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS audit_rejections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		client_key TEXT NOT NULL,
		method TEXT NOT NULL,
		path TEXT NOT NULL,
		decision TEXT NOT NULL,
		status INTEGER NOT NULL,
		rejected_at INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_audit_rejections_at ON audit_rejections(rejected_at);`,
	`CREATE INDEX IF NOT EXISTS idx_audit_rejections_client ON audit_rejections(client_key);`,
}

func (s *Store) migrate(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	for _, stmt := range schemaStatements {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply audit schema: %w", err)
		}
	}
	return nil
}
