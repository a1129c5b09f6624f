package target

import (
	"strings"

	"github.com/spyrae/agentsync/internal/config"
	"github.com/spyrae/agentsync/internal/mcp"
	"github.com/spyrae/agentsync/internal/paths"
	"github.com/spyrae/agentsync/internal/rules"
	"github.com/spyrae/agentsync/pkg/fileutil"
	"github.com/spyrae/agentsync/pkg/frontmatter"
)

// serversKey is the JSON key the JSON variants manage inside target files.
const serversKey = "mcpServers"

// Cursor syncs to Cursor's mcp.json and an optional rules file.
//
// mcp.json is shared with the user: only the mcpServers key is replaced,
// every sibling key passes through verbatim. Rules are written either as
// plain Markdown or as .mdc, Markdown with a YAML frontmatter header.
type Cursor struct {
	name string
	tc   config.Target
	dir  string
}

// mdcMatter is the frontmatter header Cursor expects on .mdc rule files.
type mdcMatter struct {
	Description string `yaml:"description"`
	Globs       string `yaml:"globs"`
	AlwaysApply bool   `yaml:"alwaysApply"`
}

func (c *Cursor) Name() string { return c.name }

func (c *Cursor) Type() string { return config.TargetCursor }

func (c *Cursor) PresenceKey(name string) string { return foldKey(name) }

func (c *Cursor) Render(view *View) ([]Output, error) {
	var outputs []Output

	if c.tc.MCPPath != "" {
		path := paths.Resolve(c.tc.MCPPath, c.dir)
		content, err := c.renderMCP(path, view.Servers)
		if err != nil {
			return nil, &RenderError{Target: c.name, Path: path, Err: err}
		}
		outputs = append(outputs, Output{Kind: OutputMCP, Path: path, Content: content})
	}

	if c.tc.RulesPath != "" && view.SourceSections > 0 {
		path := paths.Resolve(c.tc.RulesPath, c.dir)
		content, err := c.renderRules(view.Rules)
		if err != nil {
			return nil, &RenderError{Target: c.name, Path: path, Err: err}
		}
		outputs = append(outputs, Output{Kind: OutputRules, Path: path, Content: content})
	}

	return outputs, nil
}

func (c *Cursor) renderMCP(path string, servers []*mcp.Server) ([]byte, error) {
	encoded, err := mcp.EncodeObject(servers)
	if err != nil {
		return nil, err
	}

	existing, exists, err := fileutil.ReadFileIfExists(path)
	if err != nil {
		return nil, err
	}

	var compact []byte
	if exists {
		compact, err = replaceTopLevelKey(existing, serversKey, encoded)
	} else {
		compact, err = replaceTopLevelKey([]byte("{}"), serversKey, encoded)
	}
	if err != nil {
		return nil, err
	}
	return prettyJSON(compact)
}

func (c *Cursor) renderRules(doc *rules.Document) ([]byte, error) {
	body := rules.Render(doc)
	if c.tc.RulesFormat != config.RulesFormatMDC {
		return []byte(body), nil
	}
	return frontmatter.Format(mdcMatter{
		Description: "Project rules synced from CLAUDE.md",
		AlwaysApply: true,
	}, body)
}

func (c *Cursor) State() (*State, error) {
	state := &State{}

	if c.tc.MCPPath != "" {
		path := paths.Resolve(c.tc.MCPPath, c.dir)
		data, exists, err := fileutil.ReadFileIfExists(path)
		if err != nil {
			return nil, &RenderError{Target: c.name, Path: path, Err: err}
		}
		if exists {
			names, err := jsonServerNames(data)
			if err != nil {
				return nil, &RenderError{Target: c.name, Path: path, Err: err}
			}
			state.Servers = names
			state.Managed = true
		}
	}

	if c.tc.RulesPath != "" {
		path := paths.Resolve(c.tc.RulesPath, c.dir)
		data, exists, err := fileutil.ReadFileIfExists(path)
		if err != nil {
			return nil, &RenderError{Target: c.name, Path: path, Err: err}
		}
		if exists && c.tc.RulesFormat == config.RulesFormatMDC {
			// Drift checks care about the rules body, not the header.
			var matter mdcMatter
			body, err := frontmatter.Parse(data, &matter)
			if err != nil {
				return nil, &RenderError{Target: c.name, Path: path, Err: err}
			}
			data = body
		}
		state.Rules = string(data)
		state.RulesExists = exists
	}

	return state, nil
}

// jsonServerNames extracts the mcpServers key names from a JSON target
// file, in document order.
func jsonServerNames(data []byte) ([]string, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}

	doc, err := decodeTopLevel(data)
	if err != nil {
		return nil, err
	}
	return objectKeys(doc[serversKey])
}
