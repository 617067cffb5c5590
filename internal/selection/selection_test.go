// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package selection

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/classdesk/internal/directory"
	"github.com/jeranaias/classdesk/internal/directory/directorytest"
	"github.com/jeranaias/classdesk/internal/roster"
)

func sampleRecord() directory.UserRecord {
	return directory.UserRecord{
		Identifier:  "12345678900",
		DisplayName: "Ana Souza",
		Email:       "ana@example.com",
		Role:        directory.RoleStudent,
		Active:      true,
	}
}

type fixture struct {
	fake   *directorytest.Fake
	cache  *roster.Cache
	sel    *Context
	detail *Detail
	editor *Editor
}

func newFixture(t *testing.T, records ...directory.UserRecord) fixture {
	t.Helper()
	fake := directorytest.NewFake(records...)
	cache := roster.NewCache(fake)
	require.NoError(t, cache.Refresh(context.Background()))
	sel := NewContext()
	return fixture{
		fake:   fake,
		cache:  cache,
		sel:    sel,
		detail: NewDetail(sel),
		editor: NewEditor(sel, fake, cache),
	}
}

// =============================================================================
// DETAIL TESTS
// =============================================================================

func TestDetail_OpenClose(t *testing.T) {
	f := newFixture(t)
	rec := sampleRecord()

	assert.ErrorIs(t, f.detail.Open(nil), ErrNoRecord)
	assert.False(t, f.detail.IsOpen())

	require.NoError(t, f.detail.Open(&rec))
	assert.True(t, f.detail.IsOpen())
	got, ok := f.detail.Record()
	require.True(t, ok)
	assert.Equal(t, rec, got)

	f.detail.Close()
	assert.False(t, f.detail.IsOpen())
	_, ok = f.detail.Record()
	assert.False(t, ok)
	assert.Equal(t, State{}, f.sel.State(), "no retained selection after close")

	f.detail.Close() // idempotent
}

func TestDetail_HoldsCopy(t *testing.T) {
	f := newFixture(t)
	rec := sampleRecord()
	require.NoError(t, f.detail.Open(&rec))
	rec.DisplayName = "changed"

	got, _ := f.detail.Record()
	assert.Equal(t, "Ana Souza", got.DisplayName)
}

// =============================================================================
// MUTUAL EXCLUSION TESTS
// =============================================================================

func TestModesAreMutuallyExclusive(t *testing.T) {
	f := newFixture(t)
	rec := sampleRecord()

	require.NoError(t, f.detail.Open(&rec))
	require.NoError(t, f.editor.Open(&rec))
	assert.Equal(t, ModeEditing, f.sel.Mode())
	assert.False(t, f.detail.IsOpen())

	// Closing the (inactive) detail view leaves the editor alone.
	f.detail.Close()
	assert.Equal(t, EditorOpen, f.editor.State())

	require.NoError(t, f.detail.Open(&rec))
	assert.Equal(t, EditorClosed, f.editor.State())
	_, ok := f.editor.Draft()
	assert.False(t, ok)
}

func TestCannotSwitchDuringSubmit(t *testing.T) {
	f := newFixture(t, sampleRecord())
	rec := sampleRecord()
	require.NoError(t, f.editor.Open(&rec))
	_, err := f.editor.BeginSubmit(rec)
	require.NoError(t, err)

	assert.ErrorIs(t, f.detail.Open(&rec), ErrSubmitInFlight)
	assert.ErrorIs(t, f.editor.Close(), ErrSubmitInFlight)
	assert.ErrorIs(t, f.editor.SetDraft(rec), ErrSubmitInFlight)
	assert.Equal(t, EditorSubmitting, f.editor.State())
}

// =============================================================================
// EDITOR TESTS
// =============================================================================

func TestEditor_OpenSeedsDraftCopy(t *testing.T) {
	f := newFixture(t)
	rec := sampleRecord()
	require.NoError(t, f.editor.Open(&rec))

	draft, ok := f.editor.Draft()
	require.True(t, ok)
	assert.Equal(t, rec, draft)

	draft.DisplayName = "Edited"
	require.NoError(t, f.editor.SetDraft(draft))
	s := f.sel.State()
	assert.Equal(t, "Ana Souza", s.Record.DisplayName, "source record untouched")
	assert.Equal(t, "Edited", s.Draft.DisplayName)
}

func TestEditor_SetDraftKeepsIdentity(t *testing.T) {
	f := newFixture(t)
	rec := sampleRecord()
	require.NoError(t, f.editor.Open(&rec))

	draft := rec
	draft.Identifier = "000"
	draft.Role = directory.RoleParent
	require.NoError(t, f.editor.SetDraft(draft))

	got, _ := f.editor.Draft()
	assert.Equal(t, rec.Identifier, got.Identifier)
	assert.Equal(t, directory.RoleStudent, got.Role)
}

func TestEditor_RequiresOpenSession(t *testing.T) {
	f := newFixture(t)
	_, err := f.editor.Submit(context.Background(), sampleRecord())
	assert.ErrorIs(t, err, ErrNotOpen)
	assert.ErrorIs(t, f.editor.SetDraft(sampleRecord()), ErrNotOpen)
	assert.ErrorIs(t, f.editor.Open(nil), ErrNoRecord)
	assert.Zero(t, f.fake.CallCount("update"))
}

func TestEditor_SubmitSuccessClosesAndRefreshes(t *testing.T) {
	rec := sampleRecord()
	f := newFixture(t, rec)
	require.NoError(t, f.editor.Open(&rec))

	draft := rec
	draft.DisplayName = "Ana C. Souza"
	updated, err := f.editor.Submit(context.Background(), draft)
	require.NoError(t, err)
	assert.Equal(t, "Ana C. Souza", updated.DisplayName)

	assert.Equal(t, EditorClosed, f.editor.State())
	assert.Equal(t, State{}, f.sel.State())

	calls := f.fake.Calls()
	require.Equal(t, "update", calls[1].Op)
	assert.Equal(t, rec.Identifier, calls[1].ID)
	require.NotNil(t, calls[1].Patch.DisplayName)
	assert.Nil(t, calls[1].Patch.Email, "only changed fields are sent")
	assert.Equal(t, 2, f.fake.CallCount("all"), "mount fetch plus post-update refresh")
	assert.Equal(t, "Ana C. Souza", f.cache.Snapshot()[0].DisplayName)
}

func TestEditor_RosterReflectsServerNotDraft(t *testing.T) {
	rec := sampleRecord()
	f := newFixture(t, rec)
	// The server normalizes the name on its own.
	f.fake.UpdateHook = func(id string, p directory.Patch) (directory.UserRecord, error) {
		server := rec
		server.DisplayName = "ANA SOUZA (server)"
		f.fake.Set(server)
		return server, nil
	}

	require.NoError(t, f.editor.Open(&rec))
	draft := rec
	draft.DisplayName = "ana souza draft"
	_, err := f.editor.Submit(context.Background(), draft)
	require.NoError(t, err)

	snap := f.cache.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "ANA SOUZA (server)", snap[0].DisplayName)
}

func TestEditor_SubmitFailureKeepsDraft(t *testing.T) {
	rec := sampleRecord()
	f := newFixture(t, rec)
	before := f.cache.Snapshot()
	gwErr := &directory.TransportError{Op: "update", Err: errors.New("connection reset")}
	f.fake.UpdateHook = func(string, directory.Patch) (directory.UserRecord, error) {
		return directory.UserRecord{}, gwErr
	}

	require.NoError(t, f.editor.Open(&rec))
	draft := rec
	draft.Email = "new@example.com"
	_, err := f.editor.Submit(context.Background(), draft)

	var rejected *UpdateRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.ErrorIs(t, err, gwErr)
	assert.Equal(t, EditorOpen, f.editor.State())

	got, ok := f.editor.Draft()
	require.True(t, ok)
	assert.Equal(t, draft, got)
	assert.Equal(t, err, f.editor.Err())

	assert.Equal(t, before, f.cache.Snapshot(), "roster unchanged")
	assert.Equal(t, 1, f.fake.CallCount("all"), "no refresh after failure")
	assert.Equal(t, 1, f.fake.CallCount("update"), "no automatic retry")
}

func TestEditor_ErrorClearedOnResubmit(t *testing.T) {
	rec := sampleRecord()
	f := newFixture(t, rec)
	fail := true
	f.fake.UpdateHook = func(id string, p directory.Patch) (directory.UserRecord, error) {
		if fail {
			return directory.UserRecord{}, errors.New("boom")
		}
		return p.Apply(rec), nil
	}
	require.NoError(t, f.editor.Open(&rec))
	_, err := f.editor.Submit(context.Background(), rec)
	require.Error(t, err)

	fail = false
	_, err = f.editor.BeginSubmit(rec)
	require.NoError(t, err)
	assert.NoError(t, f.editor.Err())
}

func TestEditor_ConcurrentSubmitRejected(t *testing.T) {
	rec := sampleRecord()
	f := newFixture(t, rec)
	f.fake.Gate = make(chan struct{})
	require.NoError(t, f.editor.Open(&rec))

	done := make(chan error, 1)
	go func() {
		_, err := f.editor.Submit(context.Background(), rec)
		done <- err
	}()

	require.Eventually(t, func() bool {
		return f.editor.State() == EditorSubmitting
	}, 2*time.Second, 5*time.Millisecond)

	_, err := f.editor.Submit(context.Background(), rec)
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	// Release the update, then the post-update refresh.
	f.fake.Gate <- struct{}{}
	f.fake.Gate <- struct{}{}
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("submit did not finish")
	}

	assert.Equal(t, 1, f.fake.CallCount("update"))
}

func TestEditor_RefreshFailureAfterUpdate(t *testing.T) {
	rec := sampleRecord()
	f := newFixture(t, rec)
	f.fake.AllHook = func() ([]directory.UserRecord, error) {
		return nil, errors.New("roster down")
	}
	require.NoError(t, f.editor.Open(&rec))

	draft := rec
	draft.Active = false
	updated, err := f.editor.Submit(context.Background(), draft)

	var refreshErr *RefreshError
	require.ErrorAs(t, err, &refreshErr)
	assert.False(t, updated.Active)
	assert.Equal(t, EditorClosed, f.editor.State())
}

func TestStringers(t *testing.T) {
	assert.Equal(t, "viewing", ModeViewing.String())
	assert.Equal(t, "submitting", EditorSubmitting.String())
	assert.Equal(t, "unknown", Mode(9).String())
}
