// Package validate detects drift between the source configuration and
// the target files on disk. It reuses the reader, dedup and filter logic
// the sync pipeline uses, parses target files with each variant's own
// existing-content parser, and only ever reports; it never writes.
package validate

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spyrae/agentsync/internal/config"
	"github.com/spyrae/agentsync/internal/logging"
	"github.com/spyrae/agentsync/internal/mcp"
	"github.com/spyrae/agentsync/internal/source"
	"github.com/spyrae/agentsync/internal/target"
)

// Engine runs validation.
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

// Run validates every configured target, or only the named ones.
// A source load failure is fatal; everything found at the targets is a
// finding, reported exhaustively.
func (e *Engine) Run(targetNames []string) (*Report, error) {
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

	targets, err := target.Select(e.cfg, targetNames)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	for _, t := range targets {
		tc := e.cfg.Targets[t.Name()]
		view := target.NewView(merged, rulesDoc, tc, e.cfg.Rules.ExcludeSections)

		state, err := t.State()
		if err != nil {
			report.add(Finding{
				Target:   t.Name(),
				Check:    "servers",
				Kind:     KindParseFailure,
				Severity: SeverityError,
				Message:  err.Error(),
			})
			continue
		}

		e.checkServers(report, t, tc, view, state)
		e.checkRules(report, t, tc, state)
	}
	return report, nil
}

// checkServers compares the expected filtered server set against the
// names actually present in the target's managed area.
func (e *Engine) checkServers(report *Report, t target.Target, tc config.Target, view *target.View, state *target.State) {
	if tc.MCPPath == "" && tc.ConfigPath == "" {
		return
	}

	if !state.Managed {
		report.add(Finding{
			Target:   t.Name(),
			Check:    "servers",
			Kind:     KindNotSynced,
			Severity: SeverityOK,
			Message:  "target not synced yet",
		})
		return
	}

	expected := make(map[string]bool, len(view.Servers))
	var missing []string
	actual := make(map[string]bool, len(state.Servers))
	for _, name := range state.Servers {
		actual[mcp.Fold(name)] = true
	}
	for _, s := range view.Servers {
		key := t.PresenceKey(s.Name)
		expected[key] = true
		if !actual[key] {
			missing = append(missing, s.Name)
		}
	}

	excluded := make(map[string]bool, len(tc.ExcludeServers))
	for _, name := range tc.ExcludeServers {
		excluded[t.PresenceKey(name)] = true
	}

	var leaked, unexpected []string
	for _, name := range state.Servers {
		key := mcp.Fold(name)
		switch {
		case expected[key]:
		case excluded[key]:
			leaked = append(leaked, name)
		default:
			unexpected = append(unexpected, name)
		}
	}

	if len(missing) > 0 {
		report.add(Finding{
			Target:   t.Name(),
			Check:    "servers",
			Kind:     KindMissing,
			Severity: SeverityError,
			Names:    missing,
			Message:  fmt.Sprintf("missing from target: %s", strings.Join(missing, ", ")),
		})
	}
	if len(leaked) > 0 {
		report.add(Finding{
			Target:   t.Name(),
			Check:    "servers",
			Kind:     KindExcludedLeak,
			Severity: SeverityError,
			Names:    leaked,
			Message:  fmt.Sprintf("excluded but still present: %s", strings.Join(leaked, ", ")),
		})
	}
	if len(unexpected) > 0 {
		report.add(Finding{
			Target:   t.Name(),
			Check:    "servers",
			Kind:     KindUnexpected,
			Severity: SeverityWarning,
			Names:    unexpected,
			Message:  fmt.Sprintf("present but not in any source tier: %s", strings.Join(unexpected, ", ")),
		})
	}
	if len(missing) == 0 && len(leaked) == 0 && len(unexpected) == 0 {
		report.add(Finding{
			Target:   t.Name(),
			Check:    "servers",
			Kind:     KindConsistent,
			Severity: SeverityOK,
			Message:  fmt.Sprintf("%d servers in sync", len(view.Servers)),
		})
	}
}

// checkRules looks for excluded sections leaking into a target's rules
// file. The match is a substring scan for the heading line, enough to
// catch a stale file without reparsing the whole document.
func (e *Engine) checkRules(report *Report, t target.Target, tc config.Target, state *target.State) {
	if tc.RulesPath == "" || !state.RulesExists {
		return
	}

	var leaked []string
	for _, title := range e.cfg.Rules.ExcludeSections {
		if strings.Contains(state.Rules, "## "+title) || strings.Contains(state.Rules, "### "+title) {
			leaked = append(leaked, title)
		}
	}

	if len(leaked) > 0 {
		report.add(Finding{
			Target:   t.Name(),
			Check:    "rules",
			Kind:     KindSectionLeak,
			Severity: SeverityError,
			Names:    leaked,
			Message:  fmt.Sprintf("excluded sections still present: %s", strings.Join(leaked, ", ")),
		})
		return
	}

	report.add(Finding{
		Target:   t.Name(),
		Check:    "rules",
		Kind:     KindConsistent,
		Severity: SeverityOK,
		Message:  "rules file clean",
	})
}
