package sync

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spyrae/agentsync/internal/config"
	"github.com/spyrae/agentsync/internal/errors"
	"github.com/spyrae/agentsync/internal/logging"
	"github.com/spyrae/agentsync/internal/target"
)

// fixture builds a project directory with all three source tiers and a
// config syncing to all three target types inside the same directory.
func fixture(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	write := func(name, content string) {
		t.Helper()
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	write("claude.json", `{
		"mcpServers": {
			"github": {"command": "gh-mcp"},
			"linear": {"url": "https://linear.example/mcp"}
		},
		"projects": {
			"`+dir+`": {
				"mcpServers": {"codex": {"command": "codex-mcp"}}
			}
		}
	}`)
	write(".mcp.json", `{"mcpServers": {"postgres": {"command": "pg-mcp"}}}`)
	write("CLAUDE.md", `## Build

Run make.

## MCP Servers

Agent-specific section.
`)

	return &config.Config{
		Version: 1,
		Source: config.Source{
			Type:         config.SourceClaude,
			GlobalConfig: filepath.Join(dir, "claude.json"),
			ProjectMCP:   ".mcp.json",
			RulesFile:    "CLAUDE.md",
		},
		Targets: map[string]config.Target{
			"cursor": {
				Type:        config.TargetCursor,
				MCPPath:     "out/cursor/mcp.json",
				RulesPath:   "out/cursor/project.mdc",
				RulesFormat: config.RulesFormatMDC,
			},
			"codex": {
				Type:           config.TargetCodex,
				ConfigPath:     "out/codex/config.toml",
				RulesPath:      "out/codex/AGENTS.md",
				RulesFormat:    config.RulesFormatMD,
				ExcludeServers: []string{"codex"},
			},
			"antigravity": {
				Type:      config.TargetAntigravity,
				MCPPath:   "out/ag/mcp_config.json",
				Protocols: []string{"stdio"},
			},
		},
		Rules: config.Rules{ExcludeSections: []string{"MCP Servers"}},
		Sync:  config.SyncOptions{Backup: true, BackupDir: ".agentsync/backups"},
		Dir:   dir,
	}
}

func readOut(t *testing.T, cfg *config.Config, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(cfg.Dir, rel))
	require.NoError(t, err)
	return string(data)
}

func resultFor(t *testing.T, plan *Plan, name string) TargetResult {
	t.Helper()
	for _, r := range plan.Results {
		if r.Target == name {
			return r
		}
	}
	t.Fatalf("no result for target %s", name)
	return TargetResult{}
}

func TestRunCreatesAllTargets(t *testing.T) {
	cfg := fixture(t)

	plan, err := NewEngine(cfg, logging.ForTest(t)).Run(Options{})
	require.NoError(t, err)
	require.False(t, plan.Failed())
	assert.Equal(t, 4, plan.Servers)

	for _, r := range plan.Results {
		require.NoError(t, r.Err)
		for _, c := range r.Ch {
			assert.Equal(t, ChangeCreate, c.Kind, "%s %s", r.Target, c.Output.Path)
			assert.True(t, c.Written)
		}
	}

	cursorMCP := readOut(t, cfg, "out/cursor/mcp.json")
	assert.Contains(t, cursorMCP, `"github"`)
	assert.Contains(t, cursorMCP, `"codex"`)

	codexTOML := readOut(t, cfg, "out/codex/config.toml")
	assert.Contains(t, codexTOML, target.MarkerStart)
	assert.Contains(t, codexTOML, "[mcp_servers.github]")
	assert.NotContains(t, codexTOML, "[mcp_servers.codex]")

	agMCP := readOut(t, cfg, "out/ag/mcp_config.json")
	assert.Contains(t, agMCP, `"postgres"`)
	assert.NotContains(t, agMCP, `"linear"`, "http server filtered by stdio protocol restriction")

	agents := readOut(t, cfg, "out/codex/AGENTS.md")
	assert.Contains(t, agents, "## Build")
	assert.NotContains(t, agents, "MCP Servers")
}

func TestRunSecondPassIsNoop(t *testing.T) {
	cfg := fixture(t)
	engine := NewEngine(cfg, nil)

	_, err := engine.Run(Options{})
	require.NoError(t, err)

	plan, err := engine.Run(Options{})
	require.NoError(t, err)

	for _, r := range plan.Results {
		require.NoError(t, r.Err)
		for _, c := range r.Ch {
			assert.Equal(t, ChangeNoop, c.Kind, "%s %s", r.Target, c.Output.Path)
			assert.False(t, c.Written)
			assert.Empty(t, c.BackupPath)
		}
	}
}

func TestRunDryRunWritesNothing(t *testing.T) {
	cfg := fixture(t)

	plan, err := NewEngine(cfg, nil).Run(Options{DryRun: true})
	require.NoError(t, err)
	assert.True(t, plan.DryRun)

	counts := plan.Counts()
	assert.Positive(t, counts[ChangeCreate])

	_, err = os.Stat(filepath.Join(cfg.Dir, "out"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestRunDryRunMatchesRealRun(t *testing.T) {
	cfg := fixture(t)
	engine := NewEngine(cfg, nil)

	dry, err := engine.Run(Options{DryRun: true})
	require.NoError(t, err)
	applied, err := engine.Run(Options{})
	require.NoError(t, err)

	require.Len(t, applied.Results, len(dry.Results))
	for i, r := range applied.Results {
		require.Len(t, r.Ch, len(dry.Results[i].Ch))
		for j, c := range r.Ch {
			assert.Equal(t, dry.Results[i].Ch[j].Kind, c.Kind)
			assert.Equal(t, dry.Results[i].Ch[j].Output.Content, c.Output.Content)
		}
	}
}

func TestRunPrecedenceEndToEnd(t *testing.T) {
	cfg := fixture(t)
	// Global has lowercase "a", project overrides with "A" and adds "b";
	// the local tier stays absent.
	require.NoError(t, os.WriteFile(cfg.Source.GlobalConfig, []byte(`{
		"mcpServers": {"a": {"command": "global-a"}},
		"projects": {
			"`+cfg.Dir+`": {
				"mcpServers": {"A": {"command": "project-a"}, "b": {"command": "b"}}
			}
		}
	}`), 0o644))
	require.NoError(t, os.Remove(filepath.Join(cfg.Dir, ".mcp.json")))
	tc := cfg.Targets["cursor"]
	tc.ExcludeServers = []string{"b"}
	cfg.Targets["cursor"] = tc

	plan, err := NewEngine(cfg, nil).Run(Options{Targets: []string{"cursor"}})
	require.NoError(t, err)
	require.False(t, plan.Failed())

	got := readOut(t, cfg, "out/cursor/mcp.json")
	assert.Contains(t, got, `"A"`, "winning tier supplies display casing")
	assert.Contains(t, got, "project-a", "winning tier supplies payload")
	assert.NotContains(t, got, "global-a")
	assert.NotContains(t, got, `"b"`)
}

func TestRunTargetIsolation(t *testing.T) {
	cfg := fixture(t)
	// Break cursor's existing mcp.json; codex and antigravity must still sync.
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.Dir, "out/cursor"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Dir, "out/cursor/mcp.json"), []byte("{broken"), 0o644))

	plan, err := NewEngine(cfg, nil).Run(Options{})
	require.NoError(t, err)
	assert.True(t, plan.Failed())

	var re *target.RenderError
	require.Error(t, resultFor(t, plan, "cursor").Err)
	assert.True(t, errors.As(resultFor(t, plan, "cursor").Err, &re))

	require.NoError(t, resultFor(t, plan, "codex").Err)
	require.NoError(t, resultFor(t, plan, "antigravity").Err)
	assert.FileExists(t, filepath.Join(cfg.Dir, "out/codex/config.toml"))
	assert.FileExists(t, filepath.Join(cfg.Dir, "out/ag/mcp_config.json"))
}

func TestRunBackupBeforeOverwrite(t *testing.T) {
	cfg := fixture(t)
	engine := NewEngine(cfg, nil)

	_, err := engine.Run(Options{})
	require.NoError(t, err)

	// Change the source so the next run updates the files.
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Dir, ".mcp.json"),
		[]byte(`{"mcpServers": {"redis": {"command": "redis-mcp"}}}`), 0o644))

	plan, err := engine.Run(Options{})
	require.NoError(t, err)

	updated := 0
	for _, r := range plan.Results {
		for _, c := range r.Ch {
			if c.Kind == ChangeUpdate {
				updated++
				assert.NotEmpty(t, c.BackupPath)
				assert.FileExists(t, c.BackupPath)
			}
		}
	}
	assert.Positive(t, updated)

	backups, err := filepath.Glob(filepath.Join(cfg.Dir, ".agentsync/backups", "*.bak"))
	require.NoError(t, err)
	assert.NotEmpty(t, backups)
}

func TestRunNoBackup(t *testing.T) {
	cfg := fixture(t)
	engine := NewEngine(cfg, nil)

	_, err := engine.Run(Options{NoBackup: true})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Dir, ".mcp.json"),
		[]byte(`{"mcpServers": {"redis": {"command": "redis-mcp"}}}`), 0o644))
	_, err = engine.Run(Options{NoBackup: true})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(cfg.Dir, ".agentsync/backups"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestRunMCPOnly(t *testing.T) {
	cfg := fixture(t)

	plan, err := NewEngine(cfg, nil).Run(Options{MCPOnly: true})
	require.NoError(t, err)

	for _, r := range plan.Results {
		for _, c := range r.Ch {
			assert.Equal(t, target.OutputMCP, c.Output.Kind)
		}
	}
	_, err = os.Stat(filepath.Join(cfg.Dir, "out/codex/AGENTS.md"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestRunRulesOnly(t *testing.T) {
	cfg := fixture(t)

	plan, err := NewEngine(cfg, nil).Run(Options{RulesOnly: true})
	require.NoError(t, err)

	for _, r := range plan.Results {
		for _, c := range r.Ch {
			assert.Equal(t, target.OutputRules, c.Output.Kind)
		}
	}
	_, err = os.Stat(filepath.Join(cfg.Dir, "out/cursor/mcp.json"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestRunTargetSelection(t *testing.T) {
	cfg := fixture(t)

	plan, err := NewEngine(cfg, nil).Run(Options{Targets: []string{"codex"}})
	require.NoError(t, err)
	require.Len(t, plan.Results, 1)
	assert.Equal(t, "codex", plan.Results[0].Target)
}

func TestRunUnknownTarget(t *testing.T) {
	cfg := fixture(t)

	_, err := NewEngine(cfg, nil).Run(Options{Targets: []string{"windsurf"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnknownTarget))
}

func TestRunClearsRulesWhenAllSectionsExcluded(t *testing.T) {
	cfg := fixture(t)
	engine := NewEngine(cfg, nil)

	_, err := engine.Run(Options{})
	require.NoError(t, err)
	assert.Contains(t, readOut(t, cfg, "out/codex/AGENTS.md"), "## Build")

	// Exclusion added after the sync; the stale rules files must be
	// rewritten empty, not skipped.
	cfg.Rules.ExcludeSections = append(cfg.Rules.ExcludeSections, "Build")

	plan, err := engine.Run(Options{})
	require.NoError(t, err)
	require.False(t, plan.Failed())

	var rulesKind ChangeKind
	for _, c := range resultFor(t, plan, "codex").Ch {
		if c.Output.Kind == target.OutputRules {
			rulesKind = c.Kind
		}
	}
	assert.Equal(t, ChangeUpdate, rulesKind)
	assert.Empty(t, readOut(t, cfg, "out/codex/AGENTS.md"))
	assert.NotContains(t, readOut(t, cfg, "out/cursor/project.mdc"), "## Build")
}

func TestRunReportsServerDiff(t *testing.T) {
	cfg := fixture(t)
	engine := NewEngine(cfg, nil)

	plan, err := engine.Run(Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"codex", "github", "linear", "postgres"}, resultFor(t, plan, "cursor").Added)
	assert.Equal(t, []string{"github", "linear", "postgres"}, resultFor(t, plan, "codex").Added)

	plan, err = engine.Run(Options{})
	require.NoError(t, err)
	r := resultFor(t, plan, "cursor")
	assert.Empty(t, r.Added)
	assert.Empty(t, r.Removed)

	// A server dropped from the source shows up as a removal.
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Dir, ".mcp.json"),
		[]byte(`{"mcpServers": {}}`), 0o644))

	plan, err = engine.Run(Options{})
	require.NoError(t, err)
	r = resultFor(t, plan, "cursor")
	assert.Equal(t, []string{"postgres"}, r.Removed)
	assert.Empty(t, r.Added)
}

func TestRunMalformedSourceAborts(t *testing.T) {
	cfg := fixture(t)
	require.NoError(t, os.WriteFile(cfg.Source.GlobalConfig, []byte("{broken"), 0o644))

	_, err := NewEngine(cfg, nil).Run(Options{})
	require.Error(t, err)

	// No partial target writes.
	_, statErr := os.Stat(filepath.Join(cfg.Dir, "out"))
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestRunCodexForeignContentSurvives(t *testing.T) {
	cfg := fixture(t)
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.Dir, "out/codex"), 0o755))
	foreign := "# my settings\nmodel = 'o3'\n"
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Dir, "out/codex/config.toml"), []byte(foreign), 0o644))

	_, err := NewEngine(cfg, nil).Run(Options{Targets: []string{"codex"}})
	require.NoError(t, err)

	got := readOut(t, cfg, "out/codex/config.toml")
	assert.True(t, strings.HasPrefix(got, foreign))
	assert.Contains(t, got, target.MarkerStart)
}
