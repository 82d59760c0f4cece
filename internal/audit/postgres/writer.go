// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VetClinic Contributors

// Package postgres implements the audit writer using PostgreSQL.
package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/Dzyra46/vet-clinic-devsecops-sub000/internal/audit"
)

// DBPool is the subset of pgxpool.Pool the writer needs. pgxmock
// satisfies it in unit tests.
type DBPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const asyncWriteTimeout = 5 * time.Second

// Writer implements audit.Writer backed by the audit_logs table.
// Asynchrony lives in audit.Logger; both write paths here are plain inserts.
type Writer struct {
	pool DBPool
}

// NewWriter creates a Writer.
func NewWriter(pool DBPool) *Writer {
	return &Writer{pool: pool}
}

// WriteSync inserts an entry using the caller's context.
func (w *Writer) WriteSync(ctx context.Context, entry audit.Entry) error {
	return w.insert(ctx, entry)
}

// WriteAsync inserts an entry with a background timeout. It is called from
// the audit logger's consumer goroutine, never from a request.
func (w *Writer) WriteAsync(entry audit.Entry) error {
	ctx, cancel := context.WithTimeout(context.Background(), asyncWriteTimeout)
	defer cancel()
	return w.insert(ctx, entry)
}

func (w *Writer) insert(ctx context.Context, entry audit.Entry) error {
	_, err := w.pool.Exec(ctx, `
		INSERT INTO audit_logs (id, actor, action, resource, outcome, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		entry.ID.String(),
		entry.Actor,
		entry.Action,
		entry.Resource,
		string(entry.Outcome),
		entry.Detail,
		entry.Timestamp,
	)
	if err != nil {
		return oops.Code("AUDIT_INSERT_FAILED").
			With("actor", entry.Actor).
			With("action", entry.Action).
			With("resource", entry.Resource).
			Wrap(err)
	}
	return nil
}

// Close is a no-op; the pool is owned by the caller.
func (w *Writer) Close() error {
	return nil
}

// Compile-time interface check.
var _ audit.Writer = (*Writer)(nil)
