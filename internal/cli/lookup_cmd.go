// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// lookup_cmd.go - `classdesk lookup` and `classdesk roster`.

package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/jeranaias/classdesk/internal/directory"
	"github.com/jeranaias/classdesk/internal/lookup"
	"github.com/jeranaias/classdesk/internal/ui/components"
	"github.com/jeranaias/classdesk/internal/ui/styles"
	"github.com/jeranaias/classdesk/internal/util"
	"github.com/jeranaias/classdesk/internal/workflow"
)

const (
	lookupUsage = "classdesk lookup --role student 123.456.789-00"
	rosterUsage = "classdesk roster --role professor --filter silva"
)

// parseRoleFlag reads --role, falling back to the configured default role.
func parseRoleFlag(p *ArgParser, env Env, usage string) (directory.Role, error) {
	raw := p.FlagOrDefault("role", env.Config.UI.DefaultRole)
	role, err := directory.ParseRole(raw)
	if err != nil || !role.Lookupable() {
		return "", NewValidationErrorWithExample("role", raw,
			"must be one of student, professor, parent", usage)
	}
	return role, nil
}

// HandleLookup looks up one user by role and identifier.
func HandleLookup(ctx context.Context, env Env, wf *workflow.Workflow) error {
	p := NewArgParser(env.Args.Raw)
	role, err := parseRoleFlag(p, env, lookupUsage)
	if err != nil {
		return err
	}
	raw := p.Positional(0)
	if directory.Normalize(raw) == "" {
		return ErrMissingArgument("cpf", lookupUsage)
	}

	res, err := wf.SubmitLookup(ctx, role, raw)
	if err != nil {
		return &CommandError{Command: "lookup", Action: "submit", Err: err}
	}

	switch res.Status {
	case lookup.StatusFound:
		if env.Args.JSON {
			return NewJSONResponse("lookup", res.Record).Print(env.Out)
		}
		fmt.Fprintln(env.Out, TitleStyle.Render(res.Record.DisplayName))
		fmt.Fprintln(env.Out, components.RenderRecord(styles.NewTheme(), *res.Record, 0))
		return nil
	case lookup.StatusNotFound:
		return &NotFoundError{
			Resource: strings.ToLower(role.Label()),
			ID:       directory.FormatIdentifier(res.Query.Identifier),
			Message:  res.Message,
		}
	default:
		return &CommandError{Command: "lookup", Action: "fetch", Reason: res.Message, Err: res.Err}
	}
}

// HandleRoster fetches the directory and lists the users of one role,
// optionally filtered by name.
func HandleRoster(ctx context.Context, env Env, wf *workflow.Workflow) error {
	p := NewArgParser(env.Args.Raw)
	role, err := parseRoleFlag(p, env, rosterUsage)
	if err != nil {
		return err
	}
	filter := p.Flag("filter")
	if filter == "" && p.PositionalCount() > 0 {
		filter = strings.Join(positionals(p), " ")
	}

	if err := wf.RefreshRoster(ctx); err != nil {
		return &CommandError{Command: "roster", Action: "fetch", Err: err}
	}
	rows := wf.FilteredRoster(role, filter)

	if env.Args.JSON {
		return NewJSONResponse("roster", RosterData{
			Role:   string(role),
			Filter: filter,
			Count:  len(rows),
			Users:  rows,
		}).Print(env.Out)
	}

	if len(rows) == 0 {
		if !env.Args.Quiet {
			fmt.Fprintln(env.Err, DimStyle.Render("No users."))
		}
		return nil
	}
	writeRosterTable(env, rows, GetTerminalWidth())
	return nil
}

func positionals(p *ArgParser) []string {
	out := make([]string, 0, p.PositionalCount())
	for i := 0; i < p.PositionalCount(); i++ {
		out = append(out, p.Positional(i))
	}
	return out
}

// writeRosterTable prints rows as aligned columns: status, name, CPF, email.
func writeRosterTable(env Env, rows []directory.UserRecord, width int) {
	nameWidth := 0
	for _, r := range rows {
		if w := util.StringWidth(r.DisplayName); w > nameWidth {
			nameWidth = w
		}
	}
	if nameWidth > 32 {
		nameWidth = 32
	}
	if nameWidth < 4 {
		nameWidth = 4
	}
	emailWidth := width - nameWidth - 2 - 14 - 4
	if emailWidth < 8 {
		emailWidth = 8
	}

	fmt.Fprintln(env.Out, HeaderStyle.Render(
		"  "+util.PadRight("NAME", nameWidth)+"  "+util.PadRight("CPF", 14)+"  EMAIL"))
	for _, r := range rows {
		fmt.Fprintf(env.Out, "%s %s  %s  %s\n",
			styles.RenderActive(r.Active),
			util.PadRight(util.TruncateWidth(r.DisplayName, nameWidth), nameWidth),
			util.PadRight(directory.FormatIdentifier(r.Identifier), 14),
			util.TruncateWidth(r.Email, emailWidth))
	}
	if !env.Args.Quiet {
		fmt.Fprintln(env.Err, DimStyle.Render(fmt.Sprintf("%d users", len(rows))))
	}
}
