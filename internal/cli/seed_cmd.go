// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// seed_cmd.go - `classdesk seed` and `classdesk serve`.

package cli

import (
	"context"
	"fmt"

	"github.com/jeranaias/classdesk/internal/directory/dirserver"
	"github.com/jeranaias/classdesk/internal/directory/sqlitedir"
)

// DefaultServeAddr is where `classdesk serve` listens by default; it matches
// the default directory API URL.
const DefaultServeAddr = ":8080"

// HandleSeed upserts the users of a YAML file into the local database.
func HandleSeed(ctx context.Context, env Env) error {
	p := NewArgParser(env.Args.Raw)
	path := p.Positional(0)
	if path == "" {
		path = env.Config.Local.SeedFile
	}
	if path == "" {
		return ErrMissingArgument("file", "classdesk seed users.yaml")
	}
	dbPath := p.FlagOrDefault("db", env.Config.Local.DatabasePath)

	store, err := sqlitedir.Open(dbPath)
	if err != nil {
		return &CommandError{Command: "seed", Action: "open", Err: err}
	}
	defer store.Close()

	loaded, err := store.LoadSeedFile(ctx, path)
	if err != nil {
		return &CommandError{Command: "seed", Action: "load", Err: err}
	}
	total, err := store.Count(ctx)
	if err != nil {
		return &CommandError{Command: "seed", Action: "count", Err: err}
	}

	if env.Args.JSON {
		return NewJSONResponse("seed", SeedData{
			File: path, Database: dbPath, Loaded: loaded, Total: total,
		}).Print(env.Out)
	}
	fmt.Fprintf(env.Out, "%s loaded %d users from %s (%d in %s)\n",
		SuccessStyle.Render("[OK]"), loaded, path, total, dbPath)
	return nil
}

// HandleServe serves the local database over the directory HTTP API until
// ctx is cancelled.
func HandleServe(ctx context.Context, env Env) error {
	p := NewArgParser(env.Args.Raw)
	addr := p.FlagOrDefault("addr", DefaultServeAddr)
	token := p.FlagOrDefault("token", env.Config.Directory.Token)

	store, err := OpenLocalStore(ctx, env.Config)
	if err != nil {
		return err
	}
	defer store.Close()

	srv := dirserver.NewServer(addr, store, token)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	if !env.Args.Quiet {
		auth := "no token required"
		if token != "" {
			auth = "bearer token required"
		}
		fmt.Fprintf(env.Err, "Serving %s on %s (%s). Press Ctrl+C to stop.\n",
			env.Config.Local.DatabasePath, addr, auth)
	}

	select {
	case err := <-errCh:
		if err != nil {
			return &CommandError{Command: "serve", Action: "listen", Err: err}
		}
		return nil
	case <-ctx.Done():
		if err := srv.Stop(); err != nil {
			return &CommandError{Command: "serve", Action: "shutdown", Err: err}
		}
		return <-errCh
	}
}
