package sync

import (
	"bytes"
	"fmt"
	"log/slog"
	"sort"

	"github.com/spyrae/agentsync/internal/backup"
	"github.com/spyrae/agentsync/internal/config"
	"github.com/spyrae/agentsync/internal/logging"
	"github.com/spyrae/agentsync/internal/mcp"
	"github.com/spyrae/agentsync/internal/paths"
	"github.com/spyrae/agentsync/internal/rules"
	"github.com/spyrae/agentsync/internal/source"
	"github.com/spyrae/agentsync/internal/target"
	"github.com/spyrae/agentsync/pkg/fileutil"
)

// WriteError reports an I/O failure writing one target's file. Isolated
// to its target; the run continues with the others.
type WriteError struct {
	Target string
	Path   string
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("target %s: writing %s: %v", e.Target, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Options control one sync run.
type Options struct {
	// DryRun runs the pipeline through the diff and writes nothing.
	DryRun bool

	// MCPOnly and RulesOnly restrict which outputs are considered.
	MCPOnly   bool
	RulesOnly bool

	// Targets restricts the run to the named targets. Empty means all.
	Targets []string

	// NoBackup suppresses backups even when the config enables them.
	NoBackup bool
}

// Engine runs the sync pipeline.
type Engine struct {
	cfg *config.Config
	log *slog.Logger
}

// NewEngine creates an Engine. A nil logger discards output.
func NewEngine(cfg *config.Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewDiscard()
	}
	return &Engine{cfg: cfg, log: logger}
}

// Run executes one sync. A source load failure aborts before any target
// is touched. Per-target failures are recorded in the plan and do not
// stop the other targets; callers check Plan.Failed for the exit status.
func (e *Engine) Run(opts Options) (*Plan, error) {
	reader := source.NewReader(e.cfg, e.log)

	servers, err := reader.Servers()
	if err != nil {
		return nil, err
	}
	rulesDoc, err := reader.Rules()
	if err != nil {
		return nil, err
	}

	merged := mcp.Dedup(servers)
	e.log.Info("source loaded", "servers", len(merged), "rules_sections", len(rulesDoc.Sections))

	targets, err := target.Select(e.cfg, opts.Targets)
	if err != nil {
		return nil, err
	}

	var mgr *backup.Manager
	if e.cfg.Sync.Backup && !opts.NoBackup && !opts.DryRun {
		dir := paths.Resolve(e.cfg.Sync.BackupDir, e.cfg.Dir)
		mgr = backup.NewManager(dir, backup.WithLogger(e.log))
	}

	plan := &Plan{DryRun: opts.DryRun, Servers: len(merged)}
	for _, t := range targets {
		plan.Results = append(plan.Results, e.runTarget(t, merged, rulesDoc, mgr, opts))
	}
	return plan, nil
}

func (e *Engine) runTarget(t target.Target, merged []*mcp.Server, rulesDoc *rules.Document, mgr *backup.Manager, opts Options) TargetResult {
	result := TargetResult{Target: t.Name(), Type: t.Type()}

	tc := e.cfg.Targets[t.Name()]
	view := target.NewView(merged, rulesDoc, tc, e.cfg.Rules.ExcludeSections)
	e.log.Debug("filtered view", "target", t.Name(), "servers", len(view.Servers), "rules_sections", len(view.Rules.Sections))

	if !opts.RulesOnly && (tc.MCPPath != "" || tc.ConfigPath != "") {
		result.Added, result.Removed = e.serverDiff(t, view)
	}

	outputs, err := t.Render(view)
	if err != nil {
		result.Err = err
		e.log.Error("render failed", "target", t.Name(), "error", err)
		return result
	}

	for _, out := range outputs {
		if opts.MCPOnly && out.Kind != target.OutputMCP {
			continue
		}
		if opts.RulesOnly && out.Kind != target.OutputRules {
			continue
		}

		change, err := e.apply(t.Name(), out, mgr, opts.DryRun)
		if err != nil {
			result.Err = err
			e.log.Error("write failed", "target", t.Name(), "path", out.Path, "error", err)
			return result
		}
		result.Ch = append(result.Ch, change)
	}
	return result
}

// serverDiff compares the server names on disk with the filtered view
// before anything is written. A file the target cannot parse yields no
// diff; render or validate will surface the problem.
func (e *Engine) serverDiff(t target.Target, view *target.View) (added, removed []string) {
	state, err := t.State()
	if err != nil {
		return nil, nil
	}

	actual := make(map[string]bool, len(state.Servers))
	for _, name := range state.Servers {
		actual[mcp.Fold(name)] = true
	}

	expected := make(map[string]bool, len(view.Servers))
	for _, s := range view.Servers {
		key := t.PresenceKey(s.Name)
		expected[key] = true
		if !actual[key] {
			added = append(added, s.Name)
		}
	}
	for _, name := range state.Servers {
		if !expected[mcp.Fold(name)] {
			removed = append(removed, name)
		}
	}

	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}

// apply diffs one output against the file on disk and, outside dry runs,
// writes it when it differs. Byte equality after canonical formatting is
// the no-op test; nothing semantic is compared.
func (e *Engine) apply(targetName string, out target.Output, mgr *backup.Manager, dryRun bool) (Change, error) {
	change := Change{Output: out}

	existing, exists, err := fileutil.ReadFileIfExists(out.Path)
	if err != nil {
		return change, &WriteError{Target: targetName, Path: out.Path, Err: err}
	}

	switch {
	case !exists:
		change.Kind = ChangeCreate
	case bytes.Equal(existing, out.Content):
		change.Kind = ChangeNoop
	default:
		change.Kind = ChangeUpdate
	}

	if dryRun || change.Kind == ChangeNoop {
		e.log.Debug("diffed", "target", targetName, "path", out.Path, "change", change.Kind)
		return change, nil
	}

	if mgr != nil && exists {
		backupPath, err := mgr.Create(out.Path)
		if err != nil {
			return change, &WriteError{Target: targetName, Path: out.Path, Err: err}
		}
		change.BackupPath = backupPath
	}

	if err := fileutil.AtomicWriteFile(out.Path, out.Content, 0o644); err != nil {
		return change, &WriteError{Target: targetName, Path: out.Path, Err: err}
	}
	change.Written = true
	e.log.Info("written", "target", targetName, "path", out.Path, "change", change.Kind, "bytes", len(out.Content))
	return change, nil
}
