// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and usage for classdesk.
package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdLookup
	CmdRoster
	CmdSeed
	CmdServe
	CmdConfig
	CmdVersion
	CmdHelp
	CmdUnknown
)

// String returns the command name as typed.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdLookup:
		return "lookup"
	case CmdRoster:
		return "roster"
	case CmdSeed:
		return "seed"
	case CmdServe:
		return "serve"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	}
	return "unknown"
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	JSON    bool // Output in JSON format
	Quiet   bool
	Verbose bool

	// Subcommand is the first positional argument after the command.
	Subcommand string

	// Raw args (remaining after the command and global flags)
	Raw []string
}

const usageText = `classdesk - school directory lookup and roster dashboard

Usage:
  classdesk                          Start the dashboard (default)
  classdesk lookup --role R <cpf>    Look up one user by role and CPF
  classdesk roster --role R          List users of a role
    --filter TEXT                    Only names containing TEXT
  classdesk seed <file.yaml>         Load users into the local database
  classdesk serve                    Serve the local database over HTTP
    --addr ADDR                      Listen address (default :8080)
    --token TOKEN                    Require this bearer token
  classdesk config [show|path]       Show the configuration or its path
  classdesk version                  Show version information
  classdesk help                     Show this help

Roles:
  student, professor, parent

Global flags:
  --json                             Machine-readable output (lookup, roster, seed, config, version)
  -q, --quiet                        Suppress informational output
  -v, --verbose                      Log gateway requests to stderr

Environment:
  CLASSDESK_MODE, CLASSDESK_API_URL, CLASSDESK_TOKEN, CLASSDESK_TIMEOUT,
  CLASSDESK_DB, CLASSDESK_AUDIT, CLASSDESK_AUDIT_PATH, CLASSDESK_DEFAULT_ROLE
  A .env file in the working directory is read first.

Examples:
  classdesk lookup --role student 123.456.789-00
  classdesk roster --role professor --filter silva --json
  classdesk seed users.yaml && classdesk serve --addr 127.0.0.1:8080

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "classdesk version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
	fmt.Fprintf(w, "  Go:         %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Parse parses command-line arguments (without the program name) and returns
// the command and args. No arguments starts the dashboard.
func Parse(argv []string) (Command, Args) {
	remaining, parsed := parseGlobalFlags(argv)
	if len(remaining) == 0 {
		return CmdTUI, parsed
	}

	name := strings.ToLower(remaining[0])
	parsed.Raw = remaining[1:]
	if len(parsed.Raw) > 0 && !strings.HasPrefix(parsed.Raw[0], "-") {
		parsed.Subcommand = parsed.Raw[0]
	}

	switch name {
	case "tui", "dashboard":
		return CmdTUI, parsed
	case "lookup", "find":
		return CmdLookup, parsed
	case "roster", "users", "ls":
		return CmdRoster, parsed
	case "seed":
		return CmdSeed, parsed
	case "serve", "server":
		return CmdServe, parsed
	case "config":
		return CmdConfig, parsed
	case "version", "--version":
		return CmdVersion, parsed
	case "help", "-h", "--help":
		return CmdHelp, parsed
	}
	parsed.Subcommand = name
	return CmdUnknown, parsed
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsed Args
	for _, arg := range args {
		switch arg {
		case "--json":
			parsed.JSON = true
		case "-q", "--quiet":
			parsed.Quiet = true
		case "-v", "--verbose":
			parsed.Verbose = true
		default:
			remaining = append(remaining, arg)
		}
	}
	return remaining, parsed
}
