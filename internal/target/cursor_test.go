package target

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spyrae/agentsync/internal/config"
	"github.com/spyrae/agentsync/internal/mcp"
	"github.com/spyrae/agentsync/internal/rules"
)

func newCursor(t *testing.T, tc config.Target) (*Cursor, string) {
	t.Helper()
	dir := t.TempDir()
	return &Cursor{name: "cursor", tc: tc, dir: dir}, dir
}

func TestCursorRenderCreatesFile(t *testing.T) {
	c, dir := newCursor(t, config.Target{Type: config.TargetCursor, MCPPath: "mcp.json"})

	view := &View{Servers: []*mcp.Server{stdioServer("github")}, Rules: &rules.Document{}}
	outputs, err := c.Render(view)
	require.NoError(t, err)
	require.Len(t, outputs, 1)

	assert.Equal(t, OutputMCP, outputs[0].Kind)
	assert.Equal(t, filepath.Join(dir, "mcp.json"), outputs[0].Path)
	assert.JSONEq(t, `{"mcpServers": {"github": {"command": "run-github"}}}`, string(outputs[0].Content))
	assert.True(t, strings.HasSuffix(string(outputs[0].Content), "\n"))
}

func TestCursorRenderPreservesSiblings(t *testing.T) {
	c, dir := newCursor(t, config.Target{Type: config.TargetCursor, MCPPath: "mcp.json"})
	existing := `{"editor": {"theme": "dark"}, "mcpServers": {"old": {"command": "old"}}, "zeta": 1}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mcp.json"), []byte(existing), 0o644))

	view := &View{Servers: []*mcp.Server{stdioServer("github")}, Rules: &rules.Document{}}
	outputs, err := c.Render(view)
	require.NoError(t, err)

	got := string(outputs[0].Content)
	assert.JSONEq(t, `{
		"editor": {"theme": "dark"},
		"mcpServers": {"github": {"command": "run-github"}},
		"zeta": 1
	}`, got)

	// Sibling keys keep their original positions around the replaced map.
	assert.Less(t, strings.Index(got, `"editor"`), strings.Index(got, `"mcpServers"`))
	assert.Less(t, strings.Index(got, `"mcpServers"`), strings.Index(got, `"zeta"`))
	assert.NotContains(t, got, `"old"`)
}

func TestCursorRenderServerOrder(t *testing.T) {
	c, _ := newCursor(t, config.Target{Type: config.TargetCursor, MCPPath: "mcp.json"})

	view := &View{
		Servers: []*mcp.Server{stdioServer("zeta"), stdioServer("alpha")},
		Rules:   &rules.Document{},
	}
	outputs, err := c.Render(view)
	require.NoError(t, err)

	got := string(outputs[0].Content)
	assert.Less(t, strings.Index(got, `"zeta"`), strings.Index(got, `"alpha"`))
}

func TestCursorRenderMalformedExisting(t *testing.T) {
	c, dir := newCursor(t, config.Target{Type: config.TargetCursor, MCPPath: "mcp.json"})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mcp.json"), []byte("{broken"), 0o644))

	_, err := c.Render(&View{Rules: &rules.Document{}})
	require.Error(t, err)

	var re *RenderError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "cursor", re.Target)
}

func TestCursorRulesMDC(t *testing.T) {
	tc := config.Target{
		Type:        config.TargetCursor,
		RulesPath:   ".cursor/rules/project.mdc",
		RulesFormat: config.RulesFormatMDC,
	}
	c, dir := newCursor(t, tc)

	doc := rules.Parse("## Build\n\nRun make.\n")
	outputs, err := c.Render(NewView(nil, doc, tc, nil))
	require.NoError(t, err)
	require.Len(t, outputs, 1)

	got := string(outputs[0].Content)
	assert.Equal(t, OutputRules, outputs[0].Kind)
	assert.Equal(t, filepath.Join(dir, ".cursor/rules/project.mdc"), outputs[0].Path)
	assert.True(t, strings.HasPrefix(got, "---\n"))
	assert.Contains(t, got, "alwaysApply: true")
	assert.Contains(t, got, "## Build\n\nRun make.\n")
}

func TestCursorRulesPlainMD(t *testing.T) {
	tc := config.Target{
		Type:        config.TargetCursor,
		RulesPath:   "rules.md",
		RulesFormat: config.RulesFormatMD,
	}
	c, _ := newCursor(t, tc)

	doc := rules.Parse("## Build\n\nRun make.\n")
	outputs, err := c.Render(NewView(nil, doc, tc, nil))
	require.NoError(t, err)
	require.Len(t, outputs, 1)
	assert.Equal(t, "## Build\n\nRun make.\n", string(outputs[0].Content))
}

func TestCursorRulesSkippedWhenSourceEmpty(t *testing.T) {
	tc := config.Target{
		Type:      config.TargetCursor,
		RulesPath: "rules.md",
	}
	c, _ := newCursor(t, tc)

	outputs, err := c.Render(NewView(nil, &rules.Document{}, tc, nil))
	require.NoError(t, err)
	assert.Empty(t, outputs)
}

func TestCursorRulesClearedWhenAllExcluded(t *testing.T) {
	tc := config.Target{
		Type:        config.TargetCursor,
		RulesPath:   "rules.md",
		RulesFormat: config.RulesFormatMD,
	}
	c, _ := newCursor(t, tc)

	// The source still has sections, so an empty rules file must be
	// written over whatever an earlier sync left behind.
	doc := rules.Parse("## Secrets\n\nnever share\n")
	outputs, err := c.Render(NewView(nil, doc, tc, []string{"Secrets"}))
	require.NoError(t, err)
	require.Len(t, outputs, 1)
	assert.Equal(t, OutputRules, outputs[0].Kind)
	assert.Empty(t, outputs[0].Content)
}

func TestCursorState(t *testing.T) {
	c, dir := newCursor(t, config.Target{
		Type:      config.TargetCursor,
		MCPPath:   "mcp.json",
		RulesPath: "rules.md",
	})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mcp.json"),
		[]byte(`{"mcpServers": {"b": {"command": "b"}, "a": {"command": "a"}}}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rules.md"), []byte("## Build\n"), 0o644))

	state, err := c.State()
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, state.Servers)
	assert.True(t, state.Managed)
	assert.True(t, state.RulesExists)
	assert.Equal(t, "## Build\n", state.Rules)
}

func TestCursorStateMissingFiles(t *testing.T) {
	c, _ := newCursor(t, config.Target{
		Type:      config.TargetCursor,
		MCPPath:   "mcp.json",
		RulesPath: "rules.md",
	})

	state, err := c.State()
	require.NoError(t, err)
	assert.Empty(t, state.Servers)
	assert.False(t, state.Managed)
	assert.False(t, state.RulesExists)
}
