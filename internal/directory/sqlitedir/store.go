// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sqlitedir is a directory.Gateway over a local SQLite file, used
// for offline work and as the backing store of the development server.
//
// Like the real directory, role-specific fetches look a record up by
// identifier only and return it whatever its role.
package sqlitedir

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/classdesk/internal/directory"
)

// ErrClosed is returned after Close.
var ErrClosed = errors.New("directory store is closed")

// Store is a SQLite-backed directory. Safe for concurrent use.
type Store struct {
	mu sync.RWMutex
	db *sql.DB
}

// Open opens or creates the database at path. ":memory:" gives a private
// in-memory store.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) handle() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrClosed
	}
	return s.db, nil
}

// =============================================================================
// GATEWAY
// =============================================================================

// FetchParent implements directory.Gateway.
func (s *Store) FetchParent(ctx context.Context, id string) (directory.UserRecord, error) {
	return s.get(ctx, "fetch_parent", id)
}

// FetchProfessor implements directory.Gateway.
func (s *Store) FetchProfessor(ctx context.Context, id string) (directory.UserRecord, error) {
	return s.get(ctx, "fetch_professor", id)
}

// FetchStudent implements directory.Gateway.
func (s *Store) FetchStudent(ctx context.Context, id string) (directory.UserRecord, error) {
	return s.get(ctx, "fetch_student", id)
}

// FetchAll implements directory.Gateway. Records come back in insertion order.
func (s *Store) FetchAll(ctx context.Context) ([]directory.UserRecord, error) {
	db, err := s.handle()
	if err != nil {
		return nil, &directory.TransportError{Op: "fetch_all", Err: err}
	}

	rows, err := db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY seq")
	if err != nil {
		return nil, &directory.TransportError{Op: "fetch_all", Message: "query failed", Err: err}
	}
	defer rows.Close()

	out := []directory.UserRecord{}
	for rows.Next() {
		rec, err := scanUser(rows)
		if err != nil {
			return nil, &directory.TransportError{Op: "fetch_all", Message: "scan failed", Err: err}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &directory.TransportError{Op: "fetch_all", Message: "query failed", Err: err}
	}
	return out, nil
}

// Update implements directory.Gateway.
func (s *Store) Update(ctx context.Context, id string, patch directory.Patch) (directory.UserRecord, error) {
	db, err := s.handle()
	if err != nil {
		return directory.UserRecord{}, &directory.TransportError{Op: "update", Err: err}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return directory.UserRecord{}, &directory.TransportError{Op: "update", Message: "begin failed", Err: err}
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE identifier = ?", id)
	current, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return directory.UserRecord{}, directory.ErrNotFound
	}
	if err != nil {
		return directory.UserRecord{}, &directory.TransportError{Op: "update", Message: "query failed", Err: err}
	}

	updated := patch.Apply(current)
	_, err = tx.ExecContext(ctx, `UPDATE users SET
		name = ?, email = ?, active = ?, birth_date = ?, phone = ?, address = ?,
		registration = ?, linked_student = ?, linked_parent = ?, expertise_area = ?,
		academic_title = ?, updated_at = ?
		WHERE identifier = ?`,
		updated.DisplayName, updated.Email, updated.Active, updated.BirthDate, updated.Phone,
		updated.Address, updated.Registration, updated.LinkedStudent, updated.LinkedParent,
		updated.ExpertiseArea, updated.AcademicTitle, time.Now().Unix(), id)
	if err != nil {
		return directory.UserRecord{}, &directory.TransportError{Op: "update", Message: "write failed", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return directory.UserRecord{}, &directory.TransportError{Op: "update", Message: "commit failed", Err: err}
	}
	return updated, nil
}

func (s *Store) get(ctx context.Context, op, id string) (directory.UserRecord, error) {
	db, err := s.handle()
	if err != nil {
		return directory.UserRecord{}, &directory.TransportError{Op: op, Err: err}
	}
	row := db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE identifier = ?", id)
	rec, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return directory.UserRecord{}, directory.ErrNotFound
	}
	if err != nil {
		return directory.UserRecord{}, &directory.TransportError{Op: op, Message: "query failed", Err: err}
	}
	return rec, nil
}

// =============================================================================
// WRITES
// =============================================================================

// Upsert inserts rec or replaces every field of the existing record with the
// same identifier, role included. It is an administrative operation and not
// part of the dashboard's update path.
func (s *Store) Upsert(ctx context.Context, rec directory.UserRecord) error {
	return s.Seed(ctx, []directory.UserRecord{rec})
}

// Seed upserts records in one transaction. Identifiers are normalized and
// must be non-empty; roles must be valid.
func (s *Store) Seed(ctx context.Context, records []directory.UserRecord) error {
	records = directory.CloneRecords(records)
	for i := range records {
		records[i].Identifier = directory.Normalize(records[i].Identifier)
		if records[i].Identifier == "" {
			return fmt.Errorf("record %d: identifier is required", i)
		}
		if !records[i].Role.Valid() {
			return fmt.Errorf("record %d: invalid role %q", i, records[i].Role)
		}
	}

	db, err := s.handle()
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(seq), 0) FROM users").Scan(&seq); err != nil {
		return fmt.Errorf("read sequence: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO users (`+userColumns+`, seq, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(identifier) DO UPDATE SET
			name = excluded.name, email = excluded.email, role = excluded.role,
			active = excluded.active, birth_date = excluded.birth_date, phone = excluded.phone,
			address = excluded.address, registration = excluded.registration,
			linked_student = excluded.linked_student, linked_parent = excluded.linked_parent,
			expertise_area = excluded.expertise_area, academic_title = excluded.academic_title,
			updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("prepare seed: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, r := range records {
		seq++
		if _, err := stmt.ExecContext(ctx,
			r.Identifier, r.DisplayName, r.Email, string(r.Role), r.Active, r.BirthDate, r.Phone,
			r.Address, r.Registration, r.LinkedStudent, r.LinkedParent, r.ExpertiseArea,
			r.AcademicTitle, seq, now); err != nil {
			return fmt.Errorf("seed %s: %w", directory.MaskIdentifier(r.Identifier), err)
		}
	}
	return tx.Commit()
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	db, err := s.handle()
	if err != nil {
		return 0, err
	}
	var n int
	err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}

// =============================================================================
// HELPERS
// =============================================================================

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (directory.UserRecord, error) {
	var (
		rec  directory.UserRecord
		role string
	)
	err := row.Scan(&rec.Identifier, &rec.DisplayName, &rec.Email, &role, &rec.Active,
		&rec.BirthDate, &rec.Phone, &rec.Address, &rec.Registration, &rec.LinkedStudent,
		&rec.LinkedParent, &rec.ExpertiseArea, &rec.AcademicTitle)
	rec.Role = directory.Role(role)
	return rec, err
}

var _ directory.Gateway = (*Store)(nil)
