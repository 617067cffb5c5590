// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sqlitedir

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jeranaias/classdesk/internal/directory"
)

// SeedFile is the YAML fixture format:
//
//	users:
//	  - identifier: "123.456.789-00"
//	    name: Ana Lima
//	    email: ana@school.test
//	    role: STUDENT
//	    active: true
//	    registration: "2025-001"
type SeedFile struct {
	Users []directory.UserRecord `yaml:"users"`
}

// ParseSeed decodes a YAML fixture. Role names are accepted in any case.
func ParseSeed(data []byte) ([]directory.UserRecord, error) {
	var f SeedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	for i := range f.Users {
		role, err := directory.ParseRole(string(f.Users[i].Role))
		if err != nil {
			return nil, fmt.Errorf("seed user %d: %w", i, err)
		}
		f.Users[i].Role = role
	}
	return f.Users, nil
}

// LoadSeedFile reads path and upserts its users. It returns how many were
// written.
func (s *Store) LoadSeedFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read seed file: %w", err)
	}
	users, err := ParseSeed(data)
	if err != nil {
		return 0, err
	}
	if err := s.Seed(ctx, users); err != nil {
		return 0, err
	}
	return len(users), nil
}
