// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// envOverrides lists the supported environment variables. Unset variables
// leave their pointer nil and the file value untouched.
type envOverrides struct {
	Mode        *string `env:"CLASSDESK_MODE"`
	APIURL      *string `env:"CLASSDESK_API_URL"`
	Token       *string `env:"CLASSDESK_TOKEN"`
	TimeoutSecs *int    `env:"CLASSDESK_TIMEOUT"`
	Database    *string `env:"CLASSDESK_DB"`
	Audit       *bool   `env:"CLASSDESK_AUDIT"`
	AuditPath   *string `env:"CLASSDESK_AUDIT_PATH"`
	DefaultRole *string `env:"CLASSDESK_DEFAULT_ROLE"`
}

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - CLASSDESK_MODE: directory.mode (http, local)
//   - CLASSDESK_API_URL: directory.api_url
//   - CLASSDESK_TOKEN: directory.token
//   - CLASSDESK_TIMEOUT: directory.timeout_secs
//   - CLASSDESK_DB: local.database_path
//   - CLASSDESK_AUDIT: audit.enabled ("true"/"false")
//   - CLASSDESK_AUDIT_PATH: audit.path
//   - CLASSDESK_DEFAULT_ROLE: ui.default_role
func (c *Config) ApplyEnvOverrides() error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	setString := func(dst *string, src *string) {
		if src != nil && *src != "" {
			*dst = *src
		}
	}
	setString(&c.Directory.Mode, o.Mode)
	setString(&c.Directory.APIURL, o.APIURL)
	setString(&c.Directory.Token, o.Token)
	setString(&c.Local.DatabasePath, o.Database)
	setString(&c.Audit.Path, o.AuditPath)
	setString(&c.UI.DefaultRole, o.DefaultRole)
	if o.TimeoutSecs != nil {
		c.Directory.TimeoutSecs = *o.TimeoutSecs
	}
	if o.Audit != nil {
		c.Audit.Enabled = *o.Audit
	}
	return nil
}

// LoadDotEnv loads KEY=value pairs from the given files (".env" when none)
// into the process environment. Variables already set win. Missing files are
// ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}
