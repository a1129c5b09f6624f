package ui

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/spyrae/agentsync/internal/errors"
	"github.com/spyrae/agentsync/internal/sync"
	"github.com/spyrae/agentsync/internal/target"
	"github.com/spyrae/agentsync/internal/validate"
)

func init() {
	color.NoColor = true
}

func render(f func(*Printer)) string {
	var buf bytes.Buffer
	f(NewPrinter(&buf))
	return buf.String()
}

func TestSyncPlan(t *testing.T) {
	plan := &sync.Plan{
		Servers: 3,
		Results: []sync.TargetResult{
			{
				Target: "cursor",
				Ch: []sync.Change{
					{Kind: sync.ChangeCreate, Output: target.Output{Path: "/p/mcp.json"}, Written: true},
					{Kind: sync.ChangeNoop, Output: target.Output{Path: "/p/rules.md"}},
				},
				Added:   []string{"github", "linear"},
				Removed: []string{"legacy"},
			},
			{Target: "codex", Err: errors.New("boom")},
		},
	}

	got := render(func(p *Printer) { p.SyncPlan(plan) })
	assert.Contains(t, got, "Syncing 3 servers to 2 targets")
	assert.Contains(t, got, "+ created /p/mcp.json")
	assert.Contains(t, got, "= unchanged /p/rules.md")
	assert.Contains(t, got, "+2 servers (github, linear)")
	assert.Contains(t, got, "-1 servers (legacy)")
	assert.Contains(t, got, "✗ boom")
	assert.Contains(t, got, "Summary: 1 created, 0 updated, 1 unchanged, 1 failed")
}

func TestSyncPlanDryRun(t *testing.T) {
	plan := &sync.Plan{
		DryRun:  true,
		Servers: 1,
		Results: []sync.TargetResult{
			{
				Target: "cursor",
				Ch:     []sync.Change{{Kind: sync.ChangeUpdate, Output: target.Output{Path: "/p/mcp.json"}}},
			},
		},
	}

	got := render(func(p *Printer) { p.SyncPlan(plan) })
	assert.Contains(t, got, "(dry run)")
	assert.Contains(t, got, "~ would update /p/mcp.json")
}

func TestValidationReport(t *testing.T) {
	report := &validate.Report{
		Findings: []validate.Finding{
			{Target: "cursor", Check: "servers", Kind: validate.KindConsistent, Severity: validate.SeverityOK, Message: "3 servers in sync"},
			{Target: "codex", Check: "servers", Kind: validate.KindMissing, Severity: validate.SeverityError, Message: "missing from target: new"},
		},
	}

	got := render(func(p *Printer) { p.ValidationReport(report, false) })
	assert.NotContains(t, got, "3 servers in sync")
	assert.Contains(t, got, "✗ codex servers: missing from target: new")
	assert.Contains(t, got, "Validation failed")

	verbose := render(func(p *Printer) { p.ValidationReport(report, true) })
	assert.Contains(t, verbose, "✓ cursor servers: 3 servers in sync")
}

func TestValidationReportPassed(t *testing.T) {
	report := &validate.Report{
		Findings: []validate.Finding{
			{Target: "cursor", Check: "servers", Kind: validate.KindConsistent, Severity: validate.SeverityOK},
		},
	}

	got := render(func(p *Printer) { p.ValidationReport(report, false) })
	assert.Contains(t, got, "✓ Validation passed")
}

func TestStatus(t *testing.T) {
	report := &validate.Report{
		Findings: []validate.Finding{
			{Target: "cursor", Check: "servers", Kind: validate.KindConsistent, Severity: validate.SeverityOK},
			{Target: "cursor", Check: "rules", Kind: validate.KindConsistent, Severity: validate.SeverityOK},
			{Target: "codex", Check: "servers", Kind: validate.KindUnexpected, Severity: validate.SeverityWarning},
		},
	}

	got := render(func(p *Printer) { p.Status(report) })
	assert.Contains(t, got, "cursor")
	assert.Contains(t, got, "in sync")
	assert.Contains(t, got, "unexpected")
}
