package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/traktrelay/traktrelay/internal/gateway"
)

// RejectionRow is one persisted audit entry.
type RejectionRow struct {
	ID        int64     `json:"id"`
	ClientKey string    `json:"client_key"`
	Method    string    `json:"method"`
	Path      string    `json:"path"`
	Decision  string    `json:"decision"`
	Status    int       `json:"status"`
	At        time.Time `json:"rejected_at"`
}

// RejectionQuery filters audit listings.
type RejectionQuery struct {
	ClientKey string
	Decision  string
	Limit     int
}

// RecordRejection implements gateway.AuditSink.
func (s *Store) RecordRejection(ctx context.Context, entry gateway.AuditEntry) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	at := entry.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO audit_rejections (client_key, method, path, decision, status, rejected_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entry.ClientKey, entry.Method, entry.Path, entry.Decision, entry.Status, at.Unix())
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// ListRejections returns audit entries, newest first.
func (s *Store) ListRejections(ctx context.Context, query RejectionQuery) ([]RejectionRow, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	limit := query.Limit
	if limit <= 0 {
		limit = 100
	}

	clauses := make([]string, 0, 2)
	args := make([]any, 0, 3)
	if key := strings.TrimSpace(query.ClientKey); key != "" {
		clauses = append(clauses, "client_key = ?")
		args = append(args, key)
	}
	if decision := strings.TrimSpace(query.Decision); decision != "" {
		clauses = append(clauses, "decision = ?")
		args = append(args, decision)
	}

	stmt := "SELECT id, client_key, method, path, decision, status, rejected_at FROM audit_rejections"
	if len(clauses) > 0 {
		stmt += " WHERE " + strings.Join(clauses, " AND ")
	}
	stmt += " ORDER BY rejected_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.DB.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	var entries []RejectionRow
	for rows.Next() {
		var row RejectionRow
		var at int64
		if err := rows.Scan(&row.ID, &row.ClientKey, &row.Method, &row.Path, &row.Decision, &row.Status, &at); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		row.At = time.Unix(at, 0).UTC()
		entries = append(entries, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}

	return entries, nil
}

// PruneBefore deletes entries older than the cutoff and reports how many.
func (s *Store) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	result, err := s.DB.ExecContext(ctx,
		`DELETE FROM audit_rejections WHERE rejected_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("prune audit entries: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return affected, nil
}
