package target

import (
	"encoding/json"

	"github.com/spyrae/agentsync/internal/config"
	"github.com/spyrae/agentsync/internal/mcp"
	"github.com/spyrae/agentsync/internal/paths"
	"github.com/spyrae/agentsync/pkg/fileutil"
)

// Antigravity syncs to Antigravity's mcp_config.json. The file is owned
// entirely by agentsync, so it is rendered whole rather than spliced.
// Antigravity has no rules surface; the protocol restriction to stdio
// comes from the default config rather than from code.
type Antigravity struct {
	name string
	tc   config.Target
	dir  string
}

func (a *Antigravity) Name() string { return a.name }

func (a *Antigravity) Type() string { return config.TargetAntigravity }

func (a *Antigravity) PresenceKey(name string) string { return foldKey(name) }

func (a *Antigravity) Render(view *View) ([]Output, error) {
	if a.tc.MCPPath == "" {
		return nil, nil
	}
	path := paths.Resolve(a.tc.MCPPath, a.dir)

	encoded, err := mcp.EncodeObject(view.Servers)
	if err != nil {
		return nil, &RenderError{Target: a.name, Path: path, Err: err}
	}
	compact, err := replaceTopLevelKey([]byte("{}"), serversKey, encoded)
	if err != nil {
		return nil, &RenderError{Target: a.name, Path: path, Err: err}
	}
	content, err := prettyJSON(compact)
	if err != nil {
		return nil, &RenderError{Target: a.name, Path: path, Err: err}
	}

	return []Output{{Kind: OutputMCP, Path: path, Content: content}}, nil
}

func (a *Antigravity) State() (*State, error) {
	state := &State{}
	if a.tc.MCPPath == "" {
		return state, nil
	}
	path := paths.Resolve(a.tc.MCPPath, a.dir)

	data, exists, err := fileutil.ReadFileIfExists(path)
	if err != nil {
		return nil, &RenderError{Target: a.name, Path: path, Err: err}
	}
	if !exists {
		return state, nil
	}

	names, err := jsonServerNames(data)
	if err != nil {
		return nil, &RenderError{Target: a.name, Path: path, Err: err}
	}
	state.Servers = names
	state.Managed = true
	return state, nil
}

// decodeTopLevel unmarshals a JSON target file's top-level object.
func decodeTopLevel(data []byte) (map[string]json.RawMessage, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
