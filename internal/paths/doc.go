// Package paths resolves the file system locations agentsync reads and
// writes. Path strings from agentsync.yaml may use a leading ~ for the
// user's home directory and may be relative; relative paths are anchored
// at the directory containing the config file, never the process working
// directory.
package paths
