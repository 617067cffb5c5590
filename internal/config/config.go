// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/classdesk/internal/directory"
	"github.com/jeranaias/classdesk/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Directory modes.
const (
	ModeHTTP  = "http"
	ModeLocal = "local"
)

// CurrentVersion is written into new config files.
const CurrentVersion = "1"

// Config represents the complete classdesk configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Directory gateway
	Directory DirectoryConfig `toml:"directory" json:"directory"`

	// Local SQLite directory
	Local LocalConfig `toml:"local" json:"local"`

	// Audit trail
	Audit AuditConfig `toml:"audit" json:"audit"`

	// UI preferences
	UI UIConfig `toml:"ui" json:"ui"`
}

// DirectoryConfig selects and tunes the directory gateway.
type DirectoryConfig struct {
	// Mode is "http" (directory REST API) or "local" (SQLite file).
	Mode string `toml:"mode" json:"mode"`

	// APIURL is the REST API base URL for http mode.
	APIURL string `toml:"api_url" json:"api_url"`

	// Token is the bearer token sent to the API.
	// SECURITY: Never logged; redacted by String().
	Token string `toml:"token" json:"token"`

	// TimeoutSecs bounds each API request.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`

	// RatePerSec caps outgoing requests (0 = unlimited).
	RatePerSec float64 `toml:"rate_per_sec" json:"rate_per_sec"`

	// Burst is the limiter burst size.
	Burst int `toml:"burst" json:"burst"`
}

// LocalConfig configures the local SQLite directory.
type LocalConfig struct {
	DatabasePath string `toml:"database_path" json:"database_path"`

	// SeedFile is loaded into an empty database on first open.
	SeedFile string `toml:"seed_file" json:"seed_file"`
}

// AuditConfig configures the audit trail.
type AuditConfig struct {
	Enabled   bool   `toml:"enabled" json:"enabled"`
	Path      string `toml:"path" json:"path"`
	MaxSizeMB int    `toml:"max_size_mb" json:"max_size_mb"`
}

// UIConfig holds dashboard preferences.
type UIConfig struct {
	// DefaultRole is preselected in the lookup role selector.
	DefaultRole string `toml:"default_role" json:"default_role"`

	// Compact hides the email column in the roster list.
	Compact bool `toml:"compact" json:"compact"`
}

// Default returns the built-in configuration: talk to a development
// directory server on localhost, audit on, students preselected.
func Default() *Config {
	dir, err := ConfigDir()
	if err != nil {
		dir = ".classdesk"
	}
	return &Config{
		Version: CurrentVersion,
		Directory: DirectoryConfig{
			Mode:        ModeHTTP,
			APIURL:      "http://localhost:8080",
			TimeoutSecs: 15,
			RatePerSec:  10,
			Burst:       5,
		},
		Local: LocalConfig{
			DatabasePath: filepath.Join(dir, "directory.db"),
		},
		Audit: AuditConfig{
			Enabled:   true,
			Path:      filepath.Join(dir, "audit.log"),
			MaxSizeMB: 5,
		},
		UI: UIConfig{
			DefaultRole: string(directory.RoleStudent),
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the classdesk configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".classdesk"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// ActivePath returns the config file Load would read, or the TOML path when
// none exists yet.
func ActivePath() (string, error) {
	tomlPath, err := ConfigPathTOML()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath, nil
	}
	jsonPath, err := ConfigPathJSON()
	if err == nil {
		if _, err := os.Stat(jsonPath); err == nil {
			return jsonPath, nil
		}
	}
	return tomlPath, nil
}

// ensureSecurePermissions tightens config files to 0600.
// SECURITY: Config files hold the directory bearer token.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads ~/.classdesk/config.toml, then config.json, then falls back to
// defaults. Environment overrides are applied last.
//
// When a file exists but cannot be decoded, the defaults are returned together
// with the decode error so callers can warn and carry on.
func Load() (*Config, error) {
	var loadErr error

	if tomlPath, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			cfg, err := LoadFromPath(tomlPath)
			if err == nil {
				return cfg, nil
			}
			loadErr = err
		}
	}

	if loadErr == nil {
		if jsonPath, err := ConfigPathJSON(); err == nil {
			if _, statErr := os.Stat(jsonPath); statErr == nil {
				cfg, err := LoadFromPath(jsonPath)
				if err == nil {
					return cfg, nil
				}
				loadErr = err
			}
		}
	}

	cfg := Default()
	if err := finish(cfg); err != nil {
		return nil, err
	}
	return cfg, loadErr
}

// LoadFromPath loads one file (JSON by extension, TOML otherwise) over the
// defaults and applies env overrides, defaults and validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}
	if err := finish(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func finish(cfg *Config) error {
	if err := cfg.ApplyEnvOverrides(); err != nil {
		return err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadTOML decodes a TOML file into cfg.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file into cfg.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// SetDefaults fills zero values that must never be zero.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	c.Directory.Mode = strings.ToLower(strings.TrimSpace(c.Directory.Mode))
	if c.Directory.Mode == "" {
		c.Directory.Mode = defaults.Directory.Mode
	}
	c.Directory.APIURL = strings.TrimSuffix(strings.TrimSpace(c.Directory.APIURL), "/")
	if c.Directory.TimeoutSecs == 0 {
		c.Directory.TimeoutSecs = defaults.Directory.TimeoutSecs
	}
	if c.Directory.Burst == 0 {
		c.Directory.Burst = defaults.Directory.Burst
	}
	if c.Local.DatabasePath == "" {
		c.Local.DatabasePath = defaults.Local.DatabasePath
	}
	if c.Audit.Path == "" {
		c.Audit.Path = defaults.Audit.Path
	}
	if c.Audit.MaxSizeMB == 0 {
		c.Audit.MaxSizeMB = defaults.Audit.MaxSizeMB
	}
	if c.UI.DefaultRole == "" {
		c.UI.DefaultRole = defaults.UI.DefaultRole
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg to path atomically with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf strings.Builder
	buf.WriteString("# classdesk configuration file\n")
	buf.WriteString("# Generated by classdesk - edit with care\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, []byte(buf.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration and returns ValidateErrors on failure.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	switch c.Directory.Mode {
	case ModeHTTP:
		u, err := url.Parse(c.Directory.APIURL)
		if c.Directory.APIURL == "" || err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			add("directory.api_url", "must be an absolute http(s) URL in http mode, got %q", c.Directory.APIURL)
		}
	case ModeLocal:
		if c.Local.DatabasePath == "" {
			add("local.database_path", "is required in local mode")
		}
	default:
		add("directory.mode", "invalid mode '%s', must be one of: http, local", c.Directory.Mode)
	}

	if c.Directory.TimeoutSecs < 1 || c.Directory.TimeoutSecs > 300 {
		add("directory.timeout_secs", "must be between 1 and 300, got %d", c.Directory.TimeoutSecs)
	}
	if c.Directory.RatePerSec < 0 {
		add("directory.rate_per_sec", "must not be negative")
	}
	if c.Directory.Burst < 0 {
		add("directory.burst", "must not be negative")
	}
	if c.Audit.MaxSizeMB < 0 {
		add("audit.max_size_mb", "must not be negative")
	}

	if role, err := directory.ParseRole(c.UI.DefaultRole); err != nil || !role.Lookupable() {
		add("ui.default_role", "must be one of: student, professor, parent, got %q", c.UI.DefaultRole)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// DefaultRole returns the parsed ui.default_role, STUDENT when invalid.
func (c *Config) DefaultRole() directory.Role {
	role, err := directory.ParseRole(c.UI.DefaultRole)
	if err != nil || !role.Lookupable() {
		return directory.RoleStudent
	}
	return role
}

// =============================================================================
// HELPERS
// =============================================================================

// Clone returns a copy. Config holds no reference types.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// Redacted returns a copy safe to print: the token is replaced.
func (c *Config) Redacted() *Config {
	safe := c.Clone()
	if safe.Directory.Token != "" {
		safe.Directory.Token = "[REDACTED]"
	}
	return safe
}

// String renders the config as JSON with the token redacted.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c.Redacted(), "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// ErrNoConfig is returned by ReloadGlobal when loading yields nothing.
var ErrNoConfig = errors.New("no configuration loaded")

// Global returns the process-wide configuration, loading it on first use.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
		if cfg == nil {
			cfg = Default()
		}
		globalConfigMu.Lock()
		globalConfig = cfg
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	if cfg == nil {
		return ErrNoConfig
	}
	SetGlobal(cfg)
	return nil
}

// SetGlobal sets the global configuration instance.
func SetGlobal(cfg *Config) {
	globalConfigOnce.Do(func() {})
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state between tests.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
