// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sqlitedir

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/classdesk/internal/directory"
)

const fixture = `
users:
  - identifier: "111.111.111-11"
    name: Ana Lima
    email: ana@school.test
    role: student
    active: true
    registration: "2025-001"
    linked_parent: "33333333333"
  - identifier: "22222222222"
    name: Bruno Dias
    email: bruno@school.test
    role: PROFESSOR
    active: true
    expertise_area: Mathematics
  - identifier: "33333333333"
    name: Carla Reis
    email: carla@school.test
    role: parent
    active: false
    linked_student: "11111111111"
`

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "dir", "classdesk.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seeded(t *testing.T) *Store {
	t.Helper()
	s := openStore(t)
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0600))
	n, err := s.LoadSeedFile(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	return s
}

func TestLoadSeedFile(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	rec, err := s.FetchStudent(ctx, "11111111111")
	require.NoError(t, err)
	assert.Equal(t, "Ana Lima", rec.DisplayName)
	assert.Equal(t, directory.RoleStudent, rec.Role)
	assert.Equal(t, "2025-001", rec.Registration)
	assert.Equal(t, "33333333333", rec.LinkedParent)
	assert.True(t, rec.Active)
}

func TestFetchIgnoresRole(t *testing.T) {
	s := seeded(t)

	// The store answers by identifier; scoping by role happens above it.
	rec, err := s.FetchParent(context.Background(), "22222222222")
	require.NoError(t, err)
	assert.Equal(t, directory.RoleProfessor, rec.Role)
}

func TestFetchNotFound(t *testing.T) {
	s := seeded(t)
	_, err := s.FetchProfessor(context.Background(), "99999999999")
	assert.ErrorIs(t, err, directory.ErrNotFound)
}

func TestFetchAllOrder(t *testing.T) {
	s := seeded(t)
	all, err := s.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"11111111111", "22222222222", "33333333333"},
		[]string{all[0].Identifier, all[1].Identifier, all[2].Identifier})
	assert.False(t, all[2].Active)
}

func TestFetchAllEmpty(t *testing.T) {
	all, err := openStore(t).FetchAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func TestUpdateAppliesPatchOnly(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	name := "Bruno Dias Neto"
	active := false
	updated, err := s.Update(ctx, "22222222222", directory.Patch{DisplayName: &name, Active: &active})
	require.NoError(t, err)
	assert.Equal(t, name, updated.DisplayName)
	assert.False(t, updated.Active)
	assert.Equal(t, "Mathematics", updated.ExpertiseArea)
	assert.Equal(t, directory.RoleProfessor, updated.Role)

	again, err := s.FetchProfessor(ctx, "22222222222")
	require.NoError(t, err)
	assert.Equal(t, updated, again)
}

func TestUpdateNotFound(t *testing.T) {
	s := seeded(t)
	_, err := s.Update(context.Background(), "00000000000", directory.Patch{})
	assert.ErrorIs(t, err, directory.ErrNotFound)
}

func TestUpsertKeepsOrder(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, directory.UserRecord{
		Identifier: "111.111.111-11", DisplayName: "Ana L.", Role: directory.RoleStudent,
	}))
	require.NoError(t, s.Upsert(ctx, directory.UserRecord{
		Identifier: "44444444444", DisplayName: "Davi", Role: directory.RoleStudent,
	}))

	all, err := s.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "Ana L.", all[0].DisplayName)
	assert.Equal(t, "Davi", all[3].DisplayName)
}

func TestSeedRejectsBadRecords(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	assert.Error(t, s.Seed(ctx, []directory.UserRecord{{Identifier: "abc", Role: directory.RoleStudent}}))
	assert.Error(t, s.Seed(ctx, []directory.UserRecord{{Identifier: "1", Role: "JANITOR"}}))

	_, err := ParseSeed([]byte("users:\n  - identifier: '1'\n    role: janitor\n"))
	assert.Error(t, err)
	_, err = ParseSeed([]byte("users: ["))
	assert.Error(t, err)
}

func TestClosedStore(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err := s.FetchAll(context.Background())
	assert.True(t, directory.IsTransport(err))
	assert.ErrorIs(t, err, ErrClosed)
}
