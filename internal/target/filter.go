package target

import (
	"github.com/spyrae/agentsync/internal/config"
	"github.com/spyrae/agentsync/internal/mcp"
	"github.com/spyrae/agentsync/internal/rules"
)

// View is the per-target filtered slice of the canonical merged set.
// Each target gets its own View; the merged inputs are never mutated.
type View struct {
	Servers []*mcp.Server
	Rules   *rules.Document

	// SourceSections counts the sections of the unfiltered rules
	// document. Targets render rules whenever this is non-zero, even
	// when filtering removed every section, so a stale rules file is
	// cleared rather than left behind.
	SourceSections int
}

// NewView filters the merged server set and rules document for one target:
// excluded names first, then excluded sections, then the protocol
// allow-list. The predicates are independent, so the order is a convention
// rather than a requirement.
func NewView(servers []*mcp.Server, doc *rules.Document, tc config.Target, excludeSections []string) *View {
	view := &View{
		Servers: FilterServers(servers, tc.ExcludeServers, tc.Protocols),
		Rules:   rules.Filter(doc, excludeSections),
	}
	if doc != nil {
		view.SourceSections = len(doc.Sections)
	}
	return view
}

// FilterServers drops servers whose case-folded name is excluded, then
// those whose effective protocol is outside the allow-list. An empty
// allow-list allows everything. The input slice is left untouched.
func FilterServers(servers []*mcp.Server, exclude, protocols []string) []*mcp.Server {
	excluded := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		excluded[mcp.Fold(name)] = true
	}

	allowed := make(map[string]bool, len(protocols))
	for _, p := range protocols {
		allowed[p] = true
	}

	out := make([]*mcp.Server, 0, len(servers))
	for _, s := range servers {
		if excluded[mcp.Fold(s.Name)] {
			continue
		}
		if len(allowed) > 0 && !allowed[s.Protocol()] {
			continue
		}
		out = append(out, s)
	}
	return out
}
