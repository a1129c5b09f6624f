// Package sync orchestrates the pipeline: load the source tiers, merge
// and dedup the server set, then per target filter, render, diff and
// write. A dry run executes the identical pipeline through the diff and
// stops before writing, so its plan is exactly what a real run would do
// against an unchanged filesystem.
package sync
