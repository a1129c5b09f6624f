package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spyrae/agentsync/internal/config"
	"github.com/spyrae/agentsync/internal/logging"
	"github.com/spyrae/agentsync/internal/mcp"
	"github.com/spyrae/agentsync/internal/paths"
	"github.com/spyrae/agentsync/internal/rules"
	"github.com/spyrae/agentsync/pkg/fileutil"
)

// ServersKey is the JSON key holding the server map in every tier file.
const ServersKey = "mcpServers"

// ParseError reports a malformed tier file. It is fatal to a sync run.
type ParseError struct {
	Tier mcp.Tier
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s tier config %s: %v", e.Tier, e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Reader loads servers and rules from the configured Claude source files.
type Reader struct {
	cfg *config.Config
	log *slog.Logger
}

// NewReader creates a Reader for the given configuration.
// A nil logger discards output.
func NewReader(cfg *config.Config, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = logging.NewDiscard()
	}
	return &Reader{cfg: cfg, log: logger}
}

// Servers reads and concatenates all three tiers in precedence read order
// (global, project, local). The result may contain case-insensitive name
// collisions; callers pass it through mcp.Dedup.
func (r *Reader) Servers() ([]*mcp.Server, error) {
	var merged []*mcp.Server

	globalPath := paths.Resolve(r.cfg.Source.GlobalConfig, r.cfg.Dir)
	data, exists, err := fileutil.ReadFileIfExists(globalPath)
	if err != nil {
		return nil, &ParseError{Tier: mcp.TierGlobal, Path: globalPath, Err: err}
	}
	if exists {
		doc, err := decodeObject(data)
		if err != nil {
			return nil, &ParseError{Tier: mcp.TierGlobal, Path: globalPath, Err: err}
		}

		global, err := decodeServers(doc[ServersKey], mcp.TierGlobal)
		if err != nil {
			return nil, &ParseError{Tier: mcp.TierGlobal, Path: globalPath, Err: err}
		}
		r.log.Debug("loaded global tier", "path", globalPath, "servers", len(global))
		merged = append(merged, global...)

		project, err := r.projectServers(doc)
		if err != nil {
			return nil, &ParseError{Tier: mcp.TierProject, Path: globalPath, Err: err}
		}
		r.log.Debug("loaded project tier", "path", globalPath, "servers", len(project))
		merged = append(merged, project...)
	} else {
		r.log.Debug("global config not found", "path", globalPath)
	}

	localPath := paths.Resolve(r.cfg.Source.ProjectMCP, r.cfg.Dir)
	data, exists, err = fileutil.ReadFileIfExists(localPath)
	if err != nil {
		return nil, &ParseError{Tier: mcp.TierLocal, Path: localPath, Err: err}
	}
	if exists {
		doc, err := decodeObject(data)
		if err != nil {
			return nil, &ParseError{Tier: mcp.TierLocal, Path: localPath, Err: err}
		}
		local, err := decodeServers(doc[ServersKey], mcp.TierLocal)
		if err != nil {
			return nil, &ParseError{Tier: mcp.TierLocal, Path: localPath, Err: err}
		}
		r.log.Debug("loaded local tier", "path", localPath, "servers", len(local))
		merged = append(merged, local...)
	} else {
		r.log.Debug("local .mcp.json not found", "path", localPath)
	}

	return merged, nil
}

// projectServers extracts the per-project tier from the decoded global
// config: projects[<config dir>].mcpServers.
func (r *Reader) projectServers(doc map[string]json.RawMessage) ([]*mcp.Server, error) {
	projectsRaw, ok := doc["projects"]
	if !ok {
		return nil, nil
	}

	var projects map[string]json.RawMessage
	if err := json.Unmarshal(projectsRaw, &projects); err != nil {
		return nil, err
	}

	blockRaw, ok := projects[r.cfg.Dir]
	if !ok {
		return nil, nil
	}

	var block map[string]json.RawMessage
	if err := json.Unmarshal(blockRaw, &block); err != nil {
		return nil, err
	}

	return decodeServers(block[ServersKey], mcp.TierProject)
}

// Rules reads and parses the rules document from the local tier.
// A missing or empty file yields an empty document, not an error.
func (r *Reader) Rules() (*rules.Document, error) {
	path := paths.Resolve(r.cfg.Source.RulesFile, r.cfg.Dir)

	data, exists, err := fileutil.ReadFileIfExists(path)
	if err != nil {
		return nil, &ParseError{Tier: mcp.TierLocal, Path: path, Err: err}
	}
	if !exists {
		r.log.Warn("rules file not found", "path", path)
		return &rules.Document{}, nil
	}
	if len(bytes.TrimSpace(data)) == 0 {
		r.log.Warn("rules file is empty", "path", path)
		return &rules.Document{}, nil
	}

	doc := rules.Parse(string(data))
	r.log.Debug("loaded rules", "path", path, "sections", len(doc.Sections))
	return doc, nil
}

// decodeObject unmarshals a tier file's top level, requiring a JSON object.
func decodeObject(data []byte) (map[string]json.RawMessage, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// decodeServers unmarshals a raw mcpServers object into records, keeping
// the key order of the document. encoding/json map decoding would lose
// that order, so keys are walked with a token decoder instead. Entries
// whose value is not an object are skipped.
func decodeServers(raw json.RawMessage, tier mcp.Tier) ([]*mcp.Server, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		if tok == nil {
			return nil, nil // explicit null
		}
		return nil, fmt.Errorf("%s must be a JSON object", ServersKey)
	}

	var servers []*mcp.Server
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected key token %v", keyTok)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		if !bytes.HasPrefix(bytes.TrimSpace(value), []byte("{")) {
			continue
		}

		s := &mcp.Server{Name: name, Tier: tier}
		if err := json.Unmarshal(value, s); err != nil {
			return nil, fmt.Errorf("server %q: %w", name, err)
		}
		servers = append(servers, s)
	}

	if _, err := dec.Token(); err != nil { // closing brace
		return nil, err
	}
	return servers, nil
}
