// Package rules models a heading-structured rules document (CLAUDE.md and
// the files generated from it) as an ordered sequence of sections.
//
// The parser recognizes ## (level 2) and ### (level 3) headings. Section
// bodies are kept byte-for-byte, including the heading line itself, so the
// source text survives filtering and re-assembly unchanged. Text before
// the first heading is discarded.
//
// Section titles are matched case-sensitively when filtering. This is
// deliberate and differs from server-name matching, which folds case:
// rules exclusions name exact headings the user wrote.
package rules
