// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// directory.go - Building the gateway, audit trail and workflow from config.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/jeranaias/classdesk/internal/audit"
	"github.com/jeranaias/classdesk/internal/auth"
	"github.com/jeranaias/classdesk/internal/config"
	"github.com/jeranaias/classdesk/internal/directory"
	"github.com/jeranaias/classdesk/internal/directory/httpdir"
	"github.com/jeranaias/classdesk/internal/directory/sqlitedir"
	"github.com/jeranaias/classdesk/internal/workflow"
)

// Env carries what every command handler needs.
type Env struct {
	Config *config.Config
	Args   Args
	Out    io.Writer // results
	Err    io.Writer // notes and warnings
}

// Directory is an opened gateway plus the concrete backend behind it.
type Directory struct {
	Gateway directory.Gateway
	Source  string // shown in the dashboard header

	Client *httpdir.Client   // http mode only
	Store  *sqlitedir.Store  // local mode only
	Audit  *audit.Logger
}

// Close releases the store and the audit log.
func (d *Directory) Close() error {
	var errs []error
	if d.Store != nil {
		errs = append(errs, d.Store.Close())
	}
	errs = append(errs, d.Audit.Close())
	return errors.Join(errs...)
}

// OpenDirectory builds the gateway selected by cfg.Directory.Mode and opens
// the audit trail.
func OpenDirectory(ctx context.Context, cfg *config.Config) (*Directory, error) {
	d := &Directory{}

	switch cfg.Directory.Mode {
	case config.ModeLocal:
		store, err := OpenLocalStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		d.Gateway, d.Store, d.Source = store, store, "local "+cfg.Local.DatabasePath
	default:
		opts := []httpdir.Option{
			httpdir.WithTimeout(time.Duration(cfg.Directory.TimeoutSecs) * time.Second),
			httpdir.WithToken(cfg.Directory.Token),
		}
		if cfg.Directory.RatePerSec > 0 {
			opts = append(opts, httpdir.WithRateLimit(cfg.Directory.RatePerSec, cfg.Directory.Burst))
		}
		client := httpdir.New(cfg.Directory.APIURL, opts...)
		d.Gateway, d.Client, d.Source = client, client, client.BaseURL()
	}

	logger, err := OpenAudit(cfg)
	if err != nil {
		d.Close()
		return nil, err
	}
	d.Audit = logger
	return d, nil
}

// OpenLocalStore opens the SQLite directory and, when it is empty and a seed
// file is configured, loads the seed file into it.
func OpenLocalStore(ctx context.Context, cfg *config.Config) (*sqlitedir.Store, error) {
	store, err := sqlitedir.Open(cfg.Local.DatabasePath)
	if err != nil {
		return nil, &CommandError{Command: "directory", Action: "open", Err: err}
	}
	if cfg.Local.SeedFile == "" {
		return store, nil
	}

	n, err := store.Count(ctx)
	if err != nil {
		store.Close()
		return nil, &CommandError{Command: "directory", Action: "open", Err: err}
	}
	if n > 0 {
		return store, nil
	}
	loaded, err := store.LoadSeedFile(ctx, cfg.Local.SeedFile)
	if err != nil {
		store.Close()
		return nil, &CommandError{Command: "directory", Action: "seed", Err: err}
	}
	log.Printf("seeded %d users from %s", loaded, cfg.Local.SeedFile)
	return store, nil
}

// OpenAudit opens the audit log, or returns a disabled logger when auditing
// is off.
func OpenAudit(cfg *config.Config) (*audit.Logger, error) {
	if !cfg.Audit.Enabled {
		return audit.Disabled(), nil
	}
	logger, err := audit.Open(cfg.Audit.Path)
	if err != nil {
		return nil, fmt.Errorf("audit: %w", err)
	}
	if cfg.Audit.MaxSizeMB > 0 {
		logger.SetMaxSize(int64(cfg.Audit.MaxSizeMB) * 1024 * 1024)
	}
	return logger, nil
}

// ResolveOperator reads who is signed in from the configured token. A missing
// token yields an anonymous operator; an unreadable one is reported but not
// fatal, since the directory is the one that enforces it.
func ResolveOperator(cfg *config.Config) (auth.Operator, error) {
	op, err := auth.ParseOperator(cfg.Directory.Token)
	if errors.Is(err, auth.ErrNoToken) {
		return auth.Operator{}, nil
	}
	if err != nil {
		return auth.Operator{Opaque: true}, err
	}
	return op, nil
}

// NewWorkflow wires d into a workflow stamped with the operator's name.
func NewWorkflow(d *Directory, operator auth.Operator) *workflow.Workflow {
	return workflow.New(d.Gateway,
		workflow.WithAudit(d.Audit),
		workflow.WithOperator(operator.Display()))
}
