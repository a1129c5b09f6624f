// Package target renders the filtered server set and rules document into
// each supported agent's native file format.
//
// The variants form a closed set selected by the config type tag:
//
//   - cursor: replaces the mcpServers key of an mcp.json wholesale while
//     passing unrelated top-level keys through verbatim; rules as .mdc
//     (YAML frontmatter) or plain .md.
//   - codex: owns only the marker-delimited region of config.toml; bytes
//     outside the markers are never touched; rules as plain AGENTS.md.
//   - antigravity: owns the whole mcp_config.json; no rules output.
//
// Every variant pairs Render with State, the parser for its own managed
// content, so validation reads files exactly the way sync would rewrite
// them.
package target
