package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/spyrae/agentsync/internal/errors"
)

// Filename is the config file agentsync looks for.
const Filename = "agentsync.yaml"

// Version is the only supported config schema version.
const Version = 1

// Source type and target type tags.
const (
	SourceClaude      = "claude"
	TargetCursor      = "cursor"
	TargetCodex       = "codex"
	TargetAntigravity = "antigravity"
)

// Rules output formats.
const (
	RulesFormatMD  = "md"
	RulesFormatMDC = "mdc"
)

// Config is the top-level agentsync configuration.
type Config struct {
	Version int               `mapstructure:"version" yaml:"version"`
	Source  Source            `mapstructure:"source" yaml:"source"`
	Targets map[string]Target `mapstructure:"targets" yaml:"targets"`
	Rules   Rules             `mapstructure:"rules" yaml:"rules"`
	Sync    SyncOptions       `mapstructure:"sync" yaml:"sync"`

	// Dir is the directory containing the config file, resolved at load
	// time. Relative paths in the config are anchored here.
	Dir string `mapstructure:"-" yaml:"-"`
}

// Source describes where MCP servers and rules are read from.
type Source struct {
	Type         string `mapstructure:"type" yaml:"type"`
	GlobalConfig string `mapstructure:"global_config" yaml:"global_config"`
	ProjectMCP   string `mapstructure:"project_mcp" yaml:"project_mcp"`
	RulesFile    string `mapstructure:"rules_file" yaml:"rules_file"`
}

// Target describes one sync destination.
type Target struct {
	Type           string   `mapstructure:"type" yaml:"type"`
	MCPPath        string   `mapstructure:"mcp_path" yaml:"mcp_path"`
	ConfigPath     string   `mapstructure:"config_path" yaml:"config_path"`
	RulesPath      string   `mapstructure:"rules_path" yaml:"rules_path"`
	RulesFormat    string   `mapstructure:"rules_format" yaml:"rules_format"`
	ExcludeServers []string `mapstructure:"exclude_servers" yaml:"exclude_servers"`
	Protocols      []string `mapstructure:"protocols" yaml:"protocols"`
}

// Rules configures section filtering for generated rules files.
type Rules struct {
	ExcludeSections []string `mapstructure:"exclude_sections" yaml:"exclude_sections"`
}

// SyncOptions configures sync run behavior.
type SyncOptions struct {
	Backup    bool   `mapstructure:"backup" yaml:"backup"`
	BackupDir string `mapstructure:"backup_dir" yaml:"backup_dir"`
	LogDir    string `mapstructure:"log_dir" yaml:"log_dir"`
}

// Find locates agentsync.yaml by walking up from startDir.
// Returns the empty string when no config file exists up to the
// filesystem root.
func Find(startDir string) string {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return ""
	}

	for {
		candidate := filepath.Join(dir, Filename)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Load reads and unmarshals the config file at path.
// Defaults matching the scaffold are applied for omitted fields.
// The result is not semantically validated; call Validate for that.
func Load(path string) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(err, "resolving config path")
	}

	v := viper.New()
	v.SetConfigFile(abs)
	v.SetConfigType("yaml")

	v.SetDefault("version", 0) // force an explicit version field
	v.SetDefault("source.type", SourceClaude)
	v.SetDefault("source.global_config", "~/.claude.json")
	v.SetDefault("source.project_mcp", ".mcp.json")
	v.SetDefault("source.rules_file", "CLAUDE.md")
	v.SetDefault("sync.backup", true)
	v.SetDefault("sync.backup_dir", ".agentsync/backups")
	v.SetDefault("sync.log_dir", ".agentsync/logs")

	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Wrapf(errors.ErrConfigNotFound, "%s", abs)
		}
		return nil, errors.Wrapf(err, "reading %s", abs)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrapf(err, "unmarshaling %s", abs)
	}

	cfg.Dir = filepath.Dir(abs)

	// Per-target default for rules_format.
	for name, tc := range cfg.Targets {
		if tc.RulesFormat == "" {
			tc.RulesFormat = RulesFormatMD
			cfg.Targets[name] = tc
		}
	}

	return &cfg, nil
}

// LoadAndValidate combines Load and Validate, returning the first
// validation error wrapped with ErrInvalidConfig.
func LoadAndValidate(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if errs := Validate(cfg); len(errs) > 0 {
		return nil, errors.Wrapf(errors.ErrInvalidConfig, "%s: %v", path, errs[0])
	}
	return cfg, nil
}
