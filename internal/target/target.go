package target

import (
	"fmt"
	"sort"

	"github.com/spyrae/agentsync/internal/config"
	"github.com/spyrae/agentsync/internal/errors"
	"github.com/spyrae/agentsync/internal/mcp"
)

// OutputKind distinguishes the two files a target can produce.
type OutputKind string

const (
	OutputMCP   OutputKind = "mcp"
	OutputRules OutputKind = "rules"
)

// Output is one rendered file: the absolute destination path and the full
// content the file should have after sync.
type Output struct {
	Kind    OutputKind
	Path    string
	Content []byte
}

// State describes what a target's files currently contain on disk, parsed
// with the same logic Render uses for existing content.
type State struct {
	// Servers lists the server names currently present in the target's
	// managed area, in file order, as written (codex names keep their
	// underscore form).
	Servers []string

	// Managed reports whether the target's server file exists at all,
	// and for codex whether it contains a marker region. False means the
	// target has never been synced, which is not drift.
	Managed bool

	// Rules is the raw content of the target's rules file, empty when the
	// file is absent.
	Rules       string
	RulesExists bool
}

// RenderError reports a malformed existing target file or an
// unrepresentable record. It is isolated to its target; other targets
// proceed.
type RenderError struct {
	Target string
	Path   string
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("target %s: %s: %v", e.Target, e.Path, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// Target is one sync destination.
type Target interface {
	// Name is the key of the target in the configuration file.
	Name() string

	// Type is the variant tag: cursor, codex or antigravity.
	Type() string

	// Render produces the full desired content of every file the target
	// owns, reading existing files only to preserve their unmanaged parts.
	Render(view *View) ([]Output, error)

	// State parses the target's current files for drift detection.
	// Missing files yield an empty state, not an error.
	State() (*State, error)

	// PresenceKey maps a source server name to the key it is compared
	// under in this target's files. Folds case for every variant; codex
	// additionally applies its dash-to-underscore table naming.
	PresenceKey(name string) string
}

// New constructs the target variant named by tc.Type.
func New(name string, tc config.Target, cfg *config.Config) (Target, error) {
	switch tc.Type {
	case config.TargetCursor:
		return &Cursor{name: name, tc: tc, dir: cfg.Dir}, nil
	case config.TargetCodex:
		return &Codex{name: name, tc: tc, dir: cfg.Dir}, nil
	case config.TargetAntigravity:
		return &Antigravity{name: name, tc: tc, dir: cfg.Dir}, nil
	default:
		return nil, errors.Wrapf(errors.ErrUnknownTargetType, "%q", tc.Type)
	}
}

// All constructs every configured target in sorted name order, so runs are
// deterministic regardless of map iteration.
func All(cfg *config.Config) ([]Target, error) {
	names := make([]string, 0, len(cfg.Targets))
	for name := range cfg.Targets {
		names = append(names, name)
	}
	sort.Strings(names)

	targets := make([]Target, 0, len(names))
	for _, name := range names {
		t, err := New(name, cfg.Targets[name], cfg)
		if err != nil {
			return nil, errors.Wrapf(err, "target %s", name)
		}
		targets = append(targets, t)
	}
	return targets, nil
}

// Select constructs the targets named by names, in the given order.
// Empty names means every configured target, sorted by name. A name not
// present in the config is [errors.ErrUnknownTarget], so sync and
// validate reject a typo the same way instead of silently matching
// nothing.
func Select(cfg *config.Config, names []string) ([]Target, error) {
	all, err := All(cfg)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return all, nil
	}

	byName := make(map[string]Target, len(all))
	for _, t := range all {
		byName[t.Name()] = t
	}

	selected := make([]Target, 0, len(names))
	for _, name := range names {
		t, ok := byName[name]
		if !ok {
			return nil, errors.Wrapf(errors.ErrUnknownTarget, "%q", name)
		}
		selected = append(selected, t)
	}
	return selected, nil
}

// foldKey is the PresenceKey shared by the JSON variants.
func foldKey(name string) string {
	return mcp.Fold(name)
}
