package sync

import "github.com/spyrae/agentsync/internal/target"

// ChangeKind classifies what writing one output would do.
type ChangeKind string

const (
	ChangeCreate ChangeKind = "create"
	ChangeUpdate ChangeKind = "update"
	ChangeNoop   ChangeKind = "no-op"
)

// Change is one planned or applied file change.
type Change struct {
	Kind   ChangeKind
	Output target.Output

	// Written reports whether the file was actually rewritten. Always
	// false in dry runs and for no-ops.
	Written bool

	// BackupPath is where the previous content was copied, when a backup
	// was taken.
	BackupPath string
}

// TargetResult collects one target's changes, or the error that stopped it.
type TargetResult struct {
	Target string
	Type   string
	Ch     []Change
	Err    error

	// Added and Removed name the servers the run introduces to or drops
	// from the target's managed area, compared with what was on disk
	// before anything was written. Sorted for stable output.
	Added   []string
	Removed []string
}

// Plan is the outcome of one sync run, dry or real.
type Plan struct {
	DryRun  bool
	Servers int
	Results []TargetResult
}

// Failed reports whether any target errored. The run's exit status is
// non-zero when true, even though other targets completed.
func (p *Plan) Failed() bool {
	for _, r := range p.Results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

// Counts tallies the plan's changes by kind.
func (p *Plan) Counts() map[ChangeKind]int {
	counts := make(map[ChangeKind]int)
	for _, r := range p.Results {
		for _, c := range r.Ch {
			counts[c.Kind]++
		}
	}
	return counts
}
