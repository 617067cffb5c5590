// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package httpdir

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/classdesk/internal/directory"
	"github.com/jeranaias/classdesk/internal/directory/dirserver"
	"github.com/jeranaias/classdesk/internal/directory/sqlitedir"
)

// newBackend starts the development server over a seeded sqlite store.
func newBackend(t *testing.T, token string) *httptest.Server {
	t.Helper()
	store, err := sqlitedir.Open(filepath.Join(t.TempDir(), "dir.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Seed(context.Background(), []directory.UserRecord{
		{Identifier: "11111111111", DisplayName: "Ana Lima", Email: "ana@x.test", Role: directory.RoleStudent, Active: true},
		{Identifier: "22222222222", DisplayName: "Bruno Dias", Email: "bruno@x.test", Role: directory.RoleProfessor, Active: true},
		{Identifier: "33333333333", DisplayName: "Carla Reis", Email: "carla@x.test", Role: directory.RoleParent, LinkedStudent: "11111111111"},
	}))

	srv := httptest.NewServer(dirserver.NewHandler(store, token))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_FetchByRole(t *testing.T) {
	srv := newBackend(t, "")
	c := New(srv.URL + "/")
	ctx := context.Background()

	rec, err := c.FetchStudent(ctx, "11111111111")
	require.NoError(t, err)
	assert.Equal(t, "Ana Lima", rec.DisplayName)
	assert.Equal(t, directory.RoleStudent, rec.Role)

	rec, err = c.FetchParent(ctx, "33333333333")
	require.NoError(t, err)
	assert.Equal(t, "11111111111", rec.LinkedStudent)

	// The backend answers by identifier; the role comes back as stored.
	rec, err = c.FetchProfessor(ctx, "11111111111")
	require.NoError(t, err)
	assert.Equal(t, directory.RoleStudent, rec.Role)
}

func TestClient_NotFound(t *testing.T) {
	srv := newBackend(t, "")
	_, err := New(srv.URL).FetchStudent(context.Background(), "99999999999")
	assert.ErrorIs(t, err, directory.ErrNotFound)
	assert.False(t, directory.IsTransport(err))
}

func TestClient_FetchAll(t *testing.T) {
	srv := newBackend(t, "")
	all, err := New(srv.URL).FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "11111111111", all[0].Identifier)
}

func TestClient_Update(t *testing.T) {
	srv := newBackend(t, "")
	c := New(srv.URL)
	ctx := context.Background()

	email := "ana.lima@x.test"
	updated, err := c.Update(ctx, "11111111111", directory.Patch{Email: &email})
	require.NoError(t, err)
	assert.Equal(t, email, updated.Email)
	assert.Equal(t, "Ana Lima", updated.DisplayName)

	again, err := c.FetchStudent(ctx, "11111111111")
	require.NoError(t, err)
	assert.Equal(t, email, again.Email)
}

func TestClient_UpdateValidationMessage(t *testing.T) {
	srv := newBackend(t, "")
	bad := "nope"
	_, err := New(srv.URL).Update(context.Background(), "11111111111", directory.Patch{Email: &bad})

	var te *directory.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusUnprocessableEntity, te.Status)
	assert.Equal(t, "email must be a valid email address", te.Message)
	assert.Equal(t, "update failed (HTTP 422): email must be a valid email address", err.Error())
}

func TestClient_Token(t *testing.T) {
	srv := newBackend(t, "s3cret")
	c := New(srv.URL, WithToken("wrong"))

	_, err := c.FetchAll(context.Background())
	var te *directory.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusUnauthorized, te.Status)

	c.SetToken("s3cret")
	_, err = c.FetchAll(context.Background())
	assert.NoError(t, err)
}

func TestClient_HeadersAndNoRetry(t *testing.T) {
	var hits atomic.Int32
	var requestID, auth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		requestID.Store(r.Header.Get(RequestIDHeader))
		auth.Store(r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	_, err := New(srv.URL, WithToken("tok")).FetchStudent(context.Background(), "1")
	require.Error(t, err)
	assert.Equal(t, "fetch_student failed (HTTP 502): upstream down", err.Error())
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, "Bearer tok", auth.Load())
	_, perr := uuid.Parse(requestID.Load().(string))
	assert.NoError(t, perr)
}

func TestClient_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	_, err := New(srv.URL).FetchAll(context.Background())
	var te *directory.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "failed to decode response", te.Message)
}

func TestClient_LongErrorBodyTruncatedByRune(t *testing.T) {
	body := strings.Repeat("é", 300)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(body))
	}))
	defer srv.Close()

	_, err := New(srv.URL).FetchAll(context.Background())
	var te *directory.TransportError
	require.True(t, errors.As(err, &te))
	assert.True(t, utf8.ValidString(te.Message))
	assert.Equal(t, strings.Repeat("é", 200)+"...", te.Message)
}

func TestClient_UpdateEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	name := "Ana Rosa"
	updated, err := New(srv.URL).Update(context.Background(), "11111111111", directory.Patch{DisplayName: &name})
	var te *directory.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "update", te.Op)
	assert.Equal(t, "empty response", te.Message)
	assert.Empty(t, updated.Identifier)
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, WithTimeout(time.Second)).FetchAll(context.Background())
	assert.True(t, directory.IsTransport(err))
}

func TestClient_NotConfigured(t *testing.T) {
	_, err := New("").FetchAll(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestClient_RateLimitHonorsContext(t *testing.T) {
	srv := newBackend(t, "")
	c := New(srv.URL, WithRateLimit(0.001, 1))
	_, err := c.FetchAll(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.FetchAll(ctx)
	assert.True(t, directory.IsTransport(err))
}

func TestLogPath(t *testing.T) {
	assert.Equal(t, "/students/cpf/*********11", logPath("/students/cpf/12345678911"))
	assert.Equal(t, "/users", logPath("/users"))
}
