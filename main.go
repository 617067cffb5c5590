// classdesk - a terminal front-end for the school user directory.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/classdesk/internal/cli"
	"github.com/jeranaias/classdesk/internal/config"
	"github.com/jeranaias/classdesk/internal/ui/dashboard"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse(os.Args[1:])
	if !args.Verbose {
		log.SetOutput(io.Discard)
	}

	_ = config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil && !args.Quiet {
		fmt.Fprintf(os.Stderr, "%s %v (using defaults)\n", cli.WarningStyle.Render("[WARN]"), err)
	}
	if cfg == nil {
		cfg = config.Default()
	}
	config.SetGlobal(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := cli.Env{Config: cfg, Args: args, Out: os.Stdout, Err: os.Stderr}
	if err := run(ctx, cmd, env); err != nil {
		cli.DisplayError(os.Stderr, err, args.JSON)
		stop()
		os.Exit(cli.GetExitCode(err))
	}
}

func run(ctx context.Context, cmd cli.Command, env cli.Env) error {
	switch cmd {
	case cli.CmdTUI:
		return runTUI(ctx, env)
	case cli.CmdLookup, cli.CmdRoster:
		return withWorkflow(ctx, env, cmd)
	case cli.CmdSeed:
		return cli.HandleSeed(ctx, env)
	case cli.CmdServe:
		return cli.HandleServe(ctx, env)
	case cli.CmdConfig:
		return cli.HandleConfig(env)
	case cli.CmdVersion:
		return cli.HandleVersion(env)
	case cli.CmdHelp:
		return cli.HandleHelp(env)
	default:
		return cli.ErrUnknownCommand(env.Args.Subcommand)
	}
}

// withWorkflow opens the configured directory for a one-shot command.
func withWorkflow(ctx context.Context, env cli.Env, cmd cli.Command) error {
	if err := env.Config.Validate(); err != nil {
		return err
	}
	d, err := cli.OpenDirectory(ctx, env.Config)
	if err != nil {
		return err
	}
	defer d.Close()

	op, err := cli.ResolveOperator(env.Config)
	if err != nil && env.Args.Verbose {
		log.Printf("operator: %v", err)
	}
	wf := cli.NewWorkflow(d, op)

	if cmd == cli.CmdLookup {
		return cli.HandleLookup(ctx, env, wf)
	}
	return cli.HandleRoster(ctx, env, wf)
}

func runTUI(ctx context.Context, env cli.Env) error {
	if err := cli.RequiresTTY("start the dashboard"); err != nil {
		return err
	}
	cfg := env.Config
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Bubble Tea owns the terminal; logs go to a file instead.
	if dir, err := config.ConfigDir(); err == nil && os.MkdirAll(dir, 0700) == nil {
		if f, err := tea.LogToFile(filepath.Join(dir, "classdesk.log"), "classdesk"); err == nil {
			defer f.Close()
		}
	}

	d, err := cli.OpenDirectory(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.Close()

	op, err := cli.ResolveOperator(cfg)
	switch {
	case err != nil:
		fmt.Fprintf(env.Err, "%s directory token is unreadable: %v\n", cli.WarningStyle.Render("[WARN]"), err)
	case op.Expired(time.Now()):
		fmt.Fprintf(env.Err, "%s directory token expired at %s\n",
			cli.WarningStyle.Render("[WARN]"), op.ExpiresAt.Format(time.RFC3339))
	case op.Subject != "" && !op.IsAdministrator():
		fmt.Fprintf(env.Err, "%s %s is not an administrator; updates may be rejected\n",
			cli.WarningStyle.Render("[WARN]"), op.Display())
	}

	wf := cli.NewWorkflow(d, op)
	m := dashboard.New(wf, dashboard.Options{
		Operator:    op.Display(),
		Source:      d.Source,
		DefaultRole: cfg.DefaultRole(),
		Compact:     cfg.UI.Compact,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	// Pick up a rotated token without restarting.
	if d.Client != nil {
		if path, err := config.ActivePath(); err == nil {
			werr := config.Watch(ctx, path, func(next *config.Config, err error) {
				if err != nil {
					p.Send(dashboard.NoticeMsg{Text: "Config reload failed: " + err.Error(), Warning: true})
					return
				}
				if next.Directory.Token == cfg.Directory.Token {
					return
				}
				d.Client.SetToken(next.Directory.Token)
				cfg.Directory.Token = next.Directory.Token
				p.Send(dashboard.NoticeMsg{Text: "Directory token reloaded"})
			})
			if werr != nil {
				log.Printf("config watch: %v", werr)
			}
		}
	}

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}
