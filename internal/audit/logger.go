// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package audit records who looked up or changed which directory entry.
//
// Lines are pipe separated and human readable:
//
//	2025-03-01 10:42:07 | LOOKUP | ana.admin | STUDENT | *********00 | SUCCESS
//
// Identifiers are masked to their last two digits and bearer tokens or JWTs
// that end up in error messages are redacted before anything is written.
package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/classdesk/internal/directory"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// DefaultMaxFileSize is the size at which the log is rotated (5MB).
const DefaultMaxFileSize int64 = 5 * 1024 * 1024

// maxErrorLength bounds error text on one line.
const maxErrorLength = 200

// Event types.
const (
	EventSessionStart  = "SESSION_START"
	EventSessionEnd    = "SESSION_END"
	EventLookup        = "LOOKUP"
	EventRosterRefresh = "ROSTER_REFRESH"
	EventUpdate        = "UPDATE"
)

// =============================================================================
// EVENT
// =============================================================================

// Event is one audit entry.
type Event struct {
	Timestamp  time.Time
	Type       string
	Operator   string
	Role       directory.Role
	Identifier string // canonical; masked on write
	Success    bool
	Outcome    string // e.g. "not_found"; shown instead of SUCCESS/FAILURE when set
	Error      string
}

// LogLine formats the event as a single line without a trailing newline.
func (e Event) LogLine() string {
	status := "SUCCESS"
	switch {
	case e.Error != "":
		status = "ERROR: " + e.Error
	case e.Outcome != "":
		status = strings.ToUpper(e.Outcome)
	case !e.Success:
		status = "FAILURE"
	}

	operator := e.Operator
	if operator == "" {
		operator = "-"
	}

	return fmt.Sprintf("%s | %s | %s | %s | %s | %s",
		e.Timestamp.Format("2006-01-02 15:04:05"),
		e.Type,
		operator,
		string(e.Role),
		directory.MaskIdentifier(e.Identifier),
		status,
	)
}

// =============================================================================
// REDACTION
// =============================================================================

var secretPatterns = []struct {
	pattern *regexp.Regexp
	replace string
}{
	{regexp.MustCompile(`Bearer\s+[a-zA-Z0-9\-_.]+`), "Bearer [TOKEN_REDACTED]"},
	{regexp.MustCompile(`eyJ[a-zA-Z0-9_-]*\.eyJ[a-zA-Z0-9_-]*\.[a-zA-Z0-9_-]*`), "[JWT_REDACTED]"},
	{regexp.MustCompile(`\b\d{3}\.?\d{3}\.?\d{3}-?\d{2}\b`), "[ID_REDACTED]"},
}

// Redact removes tokens and identifiers from free text.
func Redact(input string) string {
	out := input
	for _, sp := range secretPatterns {
		out = sp.pattern.ReplaceAllString(out, sp.replace)
	}
	return out
}

func truncate(s string, max int) string {
	cleaned := strings.Join(strings.Fields(s), " ")
	runes := []rune(cleaned)
	if len(runes) <= max {
		return cleaned
	}
	return string(runes[:max-3]) + "..."
}

// =============================================================================
// LOGGER
// =============================================================================

// Logger appends events to a file. A nil *Logger and a disabled logger both
// accept events and drop them.
type Logger struct {
	mu      sync.Mutex
	path    string
	file    *os.File
	enabled bool
	maxSize int64
	now     func() time.Time
	open    func(path string) (*os.File, error)
}

func openLogFile(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
}

// Open creates or appends to the log at path (DefaultPath when empty).
func Open(path string) (*Logger, error) {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory: %w", err)
	}
	file, err := openLogFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log file: %w", err)
	}
	return &Logger{
		path:    path,
		file:    file,
		enabled: true,
		maxSize: DefaultMaxFileSize,
		now:     time.Now,
		open:    openLogFile,
	}, nil
}

// Disabled returns a logger that writes nothing.
func Disabled() *Logger {
	return &Logger{now: time.Now}
}

// Log writes one event. The timestamp is filled in when zero.
func (l *Logger) Log(e Event) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.enabled || l.file == nil {
		return nil
	}

	if e.Timestamp.IsZero() {
		e.Timestamp = l.now()
	}
	if e.Error != "" {
		e.Error = truncate(Redact(e.Error), maxErrorLength)
	}
	e.Operator = Redact(e.Operator)

	if err := l.checkRotationLocked(); err != nil {
		return err
	}
	if _, err := l.file.WriteString(e.LogLine() + "\n"); err != nil {
		return fmt.Errorf("failed to write audit event: %w", err)
	}
	return nil
}

// Path returns the log file path, empty for a disabled logger.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.path
}

// SetMaxSize sets the rotation threshold. Zero disables rotation.
func (l *Logger) SetMaxSize(size int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.maxSize = size
}

// Close closes the file.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// checkRotationLocked moves the current file to <path>.1 once it reaches
// maxSize. Only one previous generation is kept.
func (l *Logger) checkRotationLocked() error {
	if l.maxSize <= 0 {
		return nil
	}
	info, err := l.file.Stat()
	if err != nil || info.Size() < l.maxSize {
		return nil
	}

	// The file is closed from here on; a failed reopen leaves the logger
	// without one so later events are dropped instead of failing.
	err = l.file.Close()
	l.file = nil
	if err != nil {
		return fmt.Errorf("failed to close audit log for rotation: %w", err)
	}
	if err := os.Rename(l.path, l.path+".1"); err != nil {
		l.file, _ = l.open(l.path)
		return fmt.Errorf("failed to rotate audit log: %w", err)
	}
	file, err := l.open(l.path)
	if err != nil {
		return fmt.Errorf("failed to create new audit log after rotation: %w", err)
	}
	l.file = file
	return nil
}

// DefaultPath returns ~/.classdesk/audit.log.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".classdesk", "audit.log")
}
