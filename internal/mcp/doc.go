// Package mcp defines the canonical, format-independent representation of
// an MCP server entry and the identity rules that govern merging entries
// from multiple configuration tiers.
//
// A [Server] carries its display name and origin [Tier] out of band; the
// JSON payload holds only the transport-specific fields. Fields agentsync
// does not model are preserved verbatim through unmarshal/marshal round
// trips, so unknown configuration survives translation untouched.
//
// Server identity is case-insensitive: "Notion" and "notion" are the same
// server. [Dedup] collapses such collisions using tier precedence
// (local > project > global) while keeping the stable first-appearance
// order of the surviving names.
package mcp
