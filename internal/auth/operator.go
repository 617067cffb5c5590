// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth reads the operator identity out of the directory bearer token.
//
// The token is verified by the directory service, not here. The dashboard only
// decodes the claims to show who is signed in and to stamp audit lines, so
// parsing is unverified on purpose and an opaque (non-JWT) token is accepted
// as an anonymous operator.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jeranaias/classdesk/internal/directory"
)

// ErrNoToken is returned when no bearer token is configured.
var ErrNoToken = errors.New("no directory token configured")

// Operator is the signed-in administrator.
type Operator struct {
	Subject   string
	Name      string
	Email     string
	Role      directory.Role
	ExpiresAt time.Time // zero when the token carries no expiry
	Opaque    bool      // token was not a JWT
}

// claims mirrors the directory service token.
type claims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// ParseOperator decodes token. A leading "Bearer " is tolerated.
func ParseOperator(token string) (Operator, error) {
	token = strings.TrimSpace(token)
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[len("bearer "):])
	}
	if token == "" {
		return Operator{}, ErrNoToken
	}

	// Three dot-separated segments or it is not a JWT.
	if strings.Count(token, ".") != 2 {
		return Operator{Opaque: true}, nil
	}

	var c claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &c); err != nil {
		return Operator{}, fmt.Errorf("decode token claims: %w", err)
	}

	op := Operator{
		Subject: c.Subject,
		Name:    c.Name,
		Email:   c.Email,
	}
	if c.Role != "" {
		if r, err := directory.ParseRole(c.Role); err == nil {
			op.Role = r
		}
	}
	if c.ExpiresAt != nil {
		op.ExpiresAt = c.ExpiresAt.Time
	}
	return op, nil
}

// Expired reports whether the token expiry is at or before now.
func (o Operator) Expired(now time.Time) bool {
	return !o.ExpiresAt.IsZero() && !now.Before(o.ExpiresAt)
}

// Display returns the best available short name for headers and audit lines.
func (o Operator) Display() string {
	switch {
	case o.Name != "":
		return o.Name
	case o.Email != "":
		return o.Email
	case o.Subject != "":
		return o.Subject
	case o.Opaque:
		return "token"
	}
	return "anonymous"
}

// IsAdministrator reports whether the token carries the ADMIN role. Tokens
// without a role claim are treated as administrators; the service decides.
func (o Operator) IsAdministrator() bool {
	return o.Role == "" || o.Role == directory.RoleAdministrator
}
