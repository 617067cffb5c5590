// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package roster

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/classdesk/internal/directory"
	"github.com/jeranaias/classdesk/internal/directory/directorytest"
)

func sampleSnapshot() []directory.UserRecord {
	prof := func(id, name string) directory.UserRecord {
		return directory.UserRecord{Identifier: id, DisplayName: name, Role: directory.RoleProfessor}
	}
	stud := func(id, name string) directory.UserRecord {
		return directory.UserRecord{Identifier: id, DisplayName: name, Role: directory.RoleStudent}
	}
	return []directory.UserRecord{
		prof("1", "Fernanda Lima"),
		stud("2", "Ana Souza"),
		prof("3", "Carlos Andrade"),
		prof("4", "Joana Prado"),
		stud("5", "Bruno Costa"),
		prof("6", "Hans Müller"),
		prof("7", "Mariana Alves"),
		stud("8", "JULIANA ramos"),
	}
}

// =============================================================================
// FILTER TESTS
// =============================================================================

func TestFilter_StudentsContainingAn(t *testing.T) {
	got := Filter(sampleSnapshot(), directory.RoleStudent, "an")

	var ids []string
	for _, r := range got {
		ids = append(ids, r.Identifier)
	}
	assert.Equal(t, []string{"2", "8"}, ids)
}

func TestFilter_OnlyMatchingRoleAndName(t *testing.T) {
	snap := sampleSnapshot()
	for _, role := range directory.LookupRoles() {
		for _, q := range []string{"", "a", "AN", "lima", "zz", "ü"} {
			for _, r := range Filter(snap, role, q) {
				assert.Equal(t, role, r.Role)
				assert.Contains(t, strings.ToLower(r.DisplayName), strings.ToLower(q))
			}
		}
	}
}

func TestFilter_EmptyQueryReturnsAllOfRole(t *testing.T) {
	got := Filter(sampleSnapshot(), directory.RoleProfessor, "")
	assert.Len(t, got, 5)
	assert.Equal(t, "1", got[0].Identifier, "fetch order is preserved")
	assert.Empty(t, Filter(sampleSnapshot(), directory.RoleParent, ""))
}

func TestFilter_UnicodeFolding(t *testing.T) {
	got := Filter(sampleSnapshot(), directory.RoleProfessor, "MÜLLER")
	require.Len(t, got, 1)
	assert.Equal(t, "6", got[0].Identifier)
}

func TestFilter_CaseOnlyNotFolding(t *testing.T) {
	snap := []directory.UserRecord{
		{Identifier: "1", DisplayName: "Inês Straße", Role: directory.RoleParent},
		{Identifier: "2", DisplayName: "Igor Strasser", Role: directory.RoleParent},
	}

	got := Filter(snap, directory.RoleParent, "ss")
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].Identifier)

	got = Filter(snap, directory.RoleParent, "INÊS STRASSE")
	assert.Empty(t, got)

	got = Filter(snap, directory.RoleParent, "STRAẞE")
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].Identifier)
}

func TestFilter_DoesNotMutateSnapshot(t *testing.T) {
	snap := sampleSnapshot()
	before := directory.CloneRecords(snap)
	out := Filter(snap, directory.RoleStudent, "")
	out[0].DisplayName = "changed"
	assert.Equal(t, before, snap)
}

func TestCountByRole(t *testing.T) {
	counts := CountByRole(sampleSnapshot())
	assert.Equal(t, 5, counts[directory.RoleProfessor])
	assert.Equal(t, 3, counts[directory.RoleStudent])
}

// =============================================================================
// CACHE TESTS
// =============================================================================

func TestCache_RefreshReplacesWholesale(t *testing.T) {
	fake := directorytest.NewFake(sampleSnapshot()...)
	c := NewCache(fake)
	assert.False(t, c.Loaded())

	require.NoError(t, c.Refresh(context.Background()))
	assert.True(t, c.Loaded())
	assert.Equal(t, 8, c.Len())
	assert.False(t, c.FetchedAt().IsZero())

	fake.Set(directory.UserRecord{Identifier: "9", DisplayName: "New", Role: directory.RoleParent})
	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, 9, c.Len())
}

func TestCache_RefreshFailureKeepsRoster(t *testing.T) {
	fake := directorytest.NewFake(sampleSnapshot()...)
	c := NewCache(fake)
	require.NoError(t, c.Refresh(context.Background()))

	fake.AllHook = func() ([]directory.UserRecord, error) {
		return nil, &directory.TransportError{Op: "fetch_all", Err: errors.New("down")}
	}
	err := c.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, directory.IsTransport(err))
	assert.Equal(t, 8, c.Len())
}

func TestCache_SnapshotIsACopy(t *testing.T) {
	c := NewCache(nil)
	c.Replace(sampleSnapshot())

	snap := c.Snapshot()
	snap[0].DisplayName = "mutated"
	assert.Equal(t, "Fernanda Lima", c.Snapshot()[0].DisplayName)
}

func TestCache_RefreshWithoutSource(t *testing.T) {
	assert.Error(t, NewCache(nil).Refresh(context.Background()))
}

func TestCache_ConcurrentReadsDuringReplace(t *testing.T) {
	c := NewCache(nil)
	small := sampleSnapshot()[:2]
	large := sampleSnapshot()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			if i%2 == 0 {
				c.Replace(small)
			} else {
				c.Replace(large)
			}
		}
	}()

	for i := 0; i < 500; i++ {
		n := len(c.Snapshot())
		assert.Contains(t, []int{0, 2, 8}, n)
	}
	<-done
}
