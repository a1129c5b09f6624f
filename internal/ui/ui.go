// Package ui renders sync plans and validation reports for the console.
// The pipeline packages only produce structured data; every formatting
// decision lives here.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/spyrae/agentsync/internal/sync"
	"github.com/spyrae/agentsync/internal/validate"
)

// Printer writes human-readable reports to out.
type Printer struct {
	out io.Writer
}

// NewPrinter creates a Printer.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// SyncPlan renders the outcome of a sync run, dry or applied.
func (p *Printer) SyncPlan(plan *sync.Plan) {
	mode := ""
	if plan.DryRun {
		mode = color.New(color.FgHiBlack).Sprint(" (dry run)")
	}
	fmt.Fprintf(p.out, "Syncing %d servers to %d targets%s\n", plan.Servers, len(plan.Results), mode)

	for _, r := range plan.Results {
		fmt.Fprintf(p.out, "\n%s\n", color.New(color.Bold).Sprint(r.Target))

		if r.Err != nil {
			fmt.Fprintf(p.out, "  %s %v\n", color.RedString("✗"), r.Err)
			continue
		}
		if len(r.Ch) == 0 {
			fmt.Fprintf(p.out, "  %s\n", color.New(color.FgHiBlack).Sprint("nothing to do"))
			continue
		}

		for _, c := range r.Ch {
			fmt.Fprintf(p.out, "  %s %s\n", changeGlyph(c.Kind, plan.DryRun), c.Output.Path)
		}
		if len(r.Added) > 0 {
			fmt.Fprintf(p.out, "  %s\n",
				color.GreenString("+%d servers (%s)", len(r.Added), strings.Join(r.Added, ", ")))
		}
		if len(r.Removed) > 0 {
			fmt.Fprintf(p.out, "  %s\n",
				color.RedString("-%d servers (%s)", len(r.Removed), strings.Join(r.Removed, ", ")))
		}
	}

	fmt.Fprintf(p.out, "\n%s\n", p.planSummary(plan))
}

func changeGlyph(kind sync.ChangeKind, dryRun bool) string {
	switch kind {
	case sync.ChangeCreate:
		if dryRun {
			return color.GreenString("+ would create")
		}
		return color.GreenString("+ created")
	case sync.ChangeUpdate:
		if dryRun {
			return color.YellowString("~ would update")
		}
		return color.YellowString("~ updated")
	default:
		return color.New(color.FgHiBlack).Sprint("= unchanged")
	}
}

func (p *Printer) planSummary(plan *sync.Plan) string {
	counts := plan.Counts()
	parts := []string{
		fmt.Sprintf("%d created", counts[sync.ChangeCreate]),
		fmt.Sprintf("%d updated", counts[sync.ChangeUpdate]),
		fmt.Sprintf("%d unchanged", counts[sync.ChangeNoop]),
	}

	failed := 0
	for _, r := range plan.Results {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		parts = append(parts, color.RedString("%d failed", failed))
	}
	return "Summary: " + strings.Join(parts, ", ")
}

// ValidationReport renders a validation run. Passed checks are shown
// only in verbose mode; failures and warnings always.
func (p *Printer) ValidationReport(report *validate.Report, verbose bool) {
	for _, f := range report.Findings {
		if f.Severity == validate.SeverityOK && !verbose {
			continue
		}
		fmt.Fprintf(p.out, "%s %s %s: %s\n",
			severityGlyph(f.Severity), f.Target, f.Check, f.Message)
	}

	switch {
	case report.Failed():
		fmt.Fprintf(p.out, "\n%s\n", color.RedString("Validation failed"))
	case report.HasWarnings():
		fmt.Fprintf(p.out, "\n%s\n", color.YellowString("Validation passed with warnings"))
	default:
		fmt.Fprintf(p.out, "%s\n", color.GreenString("✓ Validation passed"))
	}
}

// Status renders the terse per-target drift summary.
func (p *Printer) Status(report *validate.Report) {
	type tally struct {
		name     string
		worst    validate.Severity
		problems []string
	}

	var order []string
	byTarget := make(map[string]*tally)
	for _, f := range report.Findings {
		tl, ok := byTarget[f.Target]
		if !ok {
			tl = &tally{name: f.Target}
			byTarget[f.Target] = tl
			order = append(order, f.Target)
		}
		if f.Severity > tl.worst {
			tl.worst = f.Severity
		}
		if f.Severity != validate.SeverityOK {
			tl.problems = append(tl.problems, string(f.Kind))
		}
	}

	for _, name := range order {
		tl := byTarget[name]
		detail := "in sync"
		if len(tl.problems) > 0 {
			detail = strings.Join(tl.problems, ", ")
		}
		fmt.Fprintf(p.out, "%s %-12s %s\n", severityGlyph(tl.worst), tl.name, detail)
	}
}

func severityGlyph(s validate.Severity) string {
	switch s {
	case validate.SeverityError:
		return color.RedString("✗")
	case validate.SeverityWarning:
		return color.YellowString("⚠")
	default:
		return color.GreenString("✓")
	}
}
