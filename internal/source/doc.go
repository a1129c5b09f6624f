// Package source reads the authoritative configuration agentsync syncs
// from: Claude Code's MCP server registry and the project rules document.
//
// Servers are merged from three tiers in fixed read order:
//
//  1. global: top-level mcpServers in ~/.claude.json
//  2. project: projects[<config dir>].mcpServers in the same file
//  3. local: mcpServers in the project's .mcp.json
//
// A missing tier file contributes nothing; a malformed one aborts the
// whole run with a [ParseError] naming the tier and path, because no
// meaningful merge is possible without a trustworthy source.
//
// Rules are read from the local tier only (CLAUDE.md); there is no
// multi-tier rules merge.
package source
