// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - `classdesk config`, `version` and `help`.

package cli

import (
	"fmt"
	"runtime"

	"github.com/jeranaias/classdesk/internal/config"
)

// HandleConfig shows the effective configuration (token redacted) or the
// path of the active config file.
func HandleConfig(env Env) error {
	switch sub := env.Args.Subcommand; sub {
	case "", "show":
		if env.Args.JSON {
			return NewJSONResponse("config", env.Config.Redacted()).Print(env.Out)
		}
		fmt.Fprintln(env.Out, env.Config.String())
		return nil

	case "path":
		path, err := config.ActivePath()
		if err != nil {
			return &CommandError{Command: "config", Action: "path", Err: err}
		}
		if env.Args.JSON {
			return NewJSONResponse("config", map[string]string{"path": path}).Print(env.Out)
		}
		fmt.Fprintln(env.Out, path)
		return nil

	default:
		return NewValidationErrorWithExample("subcommand", sub, "expected show or path", "classdesk config path")
	}
}

// HandleVersion prints version information.
func HandleVersion(env Env) error {
	if env.Args.JSON {
		return NewJSONResponse("version", VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
			Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		}).Print(env.Out)
	}
	PrintVersion(env.Out)
	return nil
}

// HandleHelp prints the usage text.
func HandleHelp(env Env) error {
	PrintUsage(env.Out)
	return nil
}
