package target

import (
	"bytes"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/spyrae/agentsync/internal/config"
	"github.com/spyrae/agentsync/internal/errors"
	"github.com/spyrae/agentsync/internal/mcp"
	"github.com/spyrae/agentsync/internal/paths"
	"github.com/spyrae/agentsync/internal/rules"
	"github.com/spyrae/agentsync/pkg/fileutil"
)

// Managed region markers in Codex's config.toml. Everything outside them
// belongs to the user and is never read for diffing or altered.
const (
	MarkerStart = "# === AGENTSYNC START ==="
	MarkerEnd   = "# === AGENTSYNC END ==="
)

// Codex syncs to Codex's config.toml and AGENTS.md.
//
// config.toml is user-owned: agentsync rewrites only the marker-delimited
// region, appending it at end-of-file on first contact. Server tables are
// named [mcp_servers.<name>] with dashes mapped to underscores, since
// Codex rejects dashes in table names.
type Codex struct {
	name string
	tc   config.Target
	dir  string
}

// TableName maps a server name to its Codex TOML table name.
func TableName(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

func (c *Codex) Name() string { return c.name }

func (c *Codex) Type() string { return config.TargetCodex }

func (c *Codex) PresenceKey(name string) string {
	return TableName(mcp.Fold(name))
}

func (c *Codex) Render(view *View) ([]Output, error) {
	var outputs []Output

	if c.tc.ConfigPath != "" {
		path := paths.Resolve(c.tc.ConfigPath, c.dir)
		content, err := c.renderMCP(path, view.Servers)
		if err != nil {
			return nil, &RenderError{Target: c.name, Path: path, Err: err}
		}
		outputs = append(outputs, Output{Kind: OutputMCP, Path: path, Content: content})
	}

	if c.tc.RulesPath != "" && view.SourceSections > 0 {
		path := paths.Resolve(c.tc.RulesPath, c.dir)
		outputs = append(outputs, Output{
			Kind:    OutputRules,
			Path:    path,
			Content: []byte(rules.Render(view.Rules)),
		})
	}

	return outputs, nil
}

func (c *Codex) renderMCP(path string, servers []*mcp.Server) ([]byte, error) {
	block, err := renderServerBlock(servers)
	if err != nil {
		return nil, err
	}

	existing, _, err := fileutil.ReadFileIfExists(path)
	if err != nil {
		return nil, err
	}
	return spliceManaged(existing, block)
}

// renderServerBlock renders the managed region's content: one TOML table
// per server, in slice order, separated by blank lines.
func renderServerBlock(servers []*mcp.Server) (string, error) {
	chunks := make([]string, 0, len(servers))
	for _, s := range servers {
		chunk, err := serverTable(s)
		if err != nil {
			return "", errors.Wrapf(err, "server %s", s.Name)
		}
		chunks = append(chunks, chunk)
	}
	return strings.Join(chunks, "\n") + "\n", nil
}

// serverTable renders one [mcp_servers.<name>] table. The header is
// written by hand so nested values can stay inline under it; pelletier
// encodes the payload keys in sorted order.
func serverTable(s *mcp.Server) (string, error) {
	payload, err := s.Payload()
	if err != nil {
		return "", err
	}

	var body bytes.Buffer
	enc := toml.NewEncoder(&body)
	enc.SetTablesInline(true)
	if err := enc.Encode(payload); err != nil {
		return "", err
	}

	return "[mcp_servers." + TableName(s.Name) + "]\n" + body.String(), nil
}

// spliceManaged replaces the content strictly between the markers with
// block, leaving every byte outside untouched. Absent markers mean the
// region plus markers is appended at end-of-file, after a separating
// blank line, never inserted mid-file.
func spliceManaged(existing []byte, block string) ([]byte, error) {
	s := string(existing)

	start := strings.Index(s, MarkerStart)
	if start < 0 {
		if strings.Contains(s, MarkerEnd) {
			return nil, errors.New("end marker present without start marker")
		}
		var out strings.Builder
		out.WriteString(s)
		if len(s) > 0 && !strings.HasSuffix(s, "\n") {
			out.WriteString("\n")
		}
		if len(strings.TrimSpace(s)) > 0 {
			out.WriteString("\n")
		}
		out.WriteString(MarkerStart + "\n")
		out.WriteString(block)
		out.WriteString(MarkerEnd + "\n")
		return []byte(out.String()), nil
	}

	contentStart := start + len(MarkerStart)
	if nl := strings.IndexByte(s[contentStart:], '\n'); nl >= 0 {
		contentStart += nl + 1
	} else {
		contentStart = len(s)
	}

	end := strings.Index(s[contentStart:], MarkerEnd)
	if end < 0 {
		return nil, errors.New("start marker present without end marker")
	}
	end += contentStart

	return []byte(s[:contentStart] + block + s[end:]), nil
}

// managedRegion extracts the current content between the markers.
// found is false when the file has no managed region yet.
func managedRegion(existing []byte) (content string, found bool, err error) {
	s := string(existing)

	start := strings.Index(s, MarkerStart)
	if start < 0 {
		return "", false, nil
	}

	contentStart := start + len(MarkerStart)
	if nl := strings.IndexByte(s[contentStart:], '\n'); nl >= 0 {
		contentStart += nl + 1
	} else {
		return "", false, errors.New("start marker present without end marker")
	}

	end := strings.Index(s[contentStart:], MarkerEnd)
	if end < 0 {
		return "", false, errors.New("start marker present without end marker")
	}
	return s[contentStart : contentStart+end], true, nil
}

func (c *Codex) State() (*State, error) {
	state := &State{}

	if c.tc.ConfigPath != "" {
		path := paths.Resolve(c.tc.ConfigPath, c.dir)
		data, exists, err := fileutil.ReadFileIfExists(path)
		if err != nil {
			return nil, &RenderError{Target: c.name, Path: path, Err: err}
		}
		if exists {
			names, managed, err := managedServerNames(data)
			if err != nil {
				return nil, &RenderError{Target: c.name, Path: path, Err: err}
			}
			state.Servers = names
			state.Managed = managed
		}
	}

	if c.tc.RulesPath != "" {
		path := paths.Resolve(c.tc.RulesPath, c.dir)
		data, exists, err := fileutil.ReadFileIfExists(path)
		if err != nil {
			return nil, &RenderError{Target: c.name, Path: path, Err: err}
		}
		state.Rules = string(data)
		state.RulesExists = exists
	}

	return state, nil
}

// managedServerNames parses the managed region and returns its table
// names in file order. A file without markers contributes no servers and
// is not considered managed.
func managedServerNames(data []byte) (names []string, managed bool, err error) {
	region, found, err := managedRegion(data)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}

	var parsed struct {
		MCPServers map[string]map[string]any `toml:"mcp_servers"`
	}
	if err := toml.Unmarshal([]byte(region), &parsed); err != nil {
		return nil, false, errors.Wrap(err, "managed region is not valid TOML")
	}

	// toml.Unmarshal validates but loses table order; recover it from the
	// header lines.
	for _, line := range strings.Split(region, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "[mcp_servers.") || !strings.HasSuffix(line, "]") {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(line, "[mcp_servers."), "]")
		if _, ok := parsed.MCPServers[name]; ok {
			names = append(names, name)
		}
	}
	return names, true, nil
}
