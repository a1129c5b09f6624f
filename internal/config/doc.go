// Package config loads and validates agentsync.yaml.
//
// The config file is discovered by walking up from the working directory,
// the same way git finds its repository root. The directory containing the
// file anchors every relative path in it and doubles as the key for the
// per-project tier inside the global Claude config.
//
// Loading and validation are separate passes: Load reports files that
// cannot be read or unmarshaled, Validate reports semantic problems
// (unknown target types, bad rules formats) as a slice of typed errors so
// callers can show all of them at once.
package config
