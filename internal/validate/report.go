package validate

// Kind classifies one validation finding.
type Kind string

const (
	// KindConsistent means the check passed.
	KindConsistent Kind = "consistent"

	// KindNotSynced means the target file or managed region does not
	// exist yet. Not drift; the target simply has never been synced.
	KindNotSynced Kind = "not-synced"

	// KindMissing means expected servers are absent from the target.
	KindMissing Kind = "missing"

	// KindUnexpected means the target carries servers no source tier
	// declares. Often user-added; reported as a warning.
	KindUnexpected Kind = "unexpected"

	// KindExcludedLeak means an excluded server is still present in the
	// target: the exclusion was added after the last sync.
	KindExcludedLeak Kind = "excluded-leak"

	// KindSectionLeak means an excluded rules section still appears in a
	// target's rules file.
	KindSectionLeak Kind = "section-leak"

	// KindParseFailure means the target's current file could not be
	// parsed at all.
	KindParseFailure Kind = "parse-failure"
)

// Severity ranks a finding's impact on the run's exit status.
type Severity int

const (
	SeverityOK Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityOK:
		return "ok"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Finding is one validation result. Findings are data; rendering them is
// the console layer's job.
type Finding struct {
	Target   string
	Check    string // "servers" or "rules"
	Kind     Kind
	Severity Severity

	// Names are the server names or section titles involved, in the
	// order they were found.
	Names []string

	Message string
}

// Report is the outcome of one validation run: every finding, passed
// checks included. Validation never stops at the first mismatch.
type Report struct {
	Findings []Finding
}

func (r *Report) add(f Finding) {
	r.Findings = append(r.Findings, f)
}

// Failed reports whether any finding is an error. Warnings alone leave
// the exit status at zero.
func (r *Report) Failed() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// HasWarnings reports whether any finding is a warning.
func (r *Report) HasWarnings() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityWarning {
			return true
		}
	}
	return false
}
