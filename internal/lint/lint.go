// Package lint statically validates a navigation descriptor against its
// corpus: the checks the site build would fail on (dangling references) plus
// hygiene findings that do not block a build.
package lint

// Severity indicates the importance level of a finding.
type Severity int

const (
	// SeverityInfo indicates informational findings.
	SeverityInfo Severity = iota
	// SeverityWarning indicates findings that should be fixed but do not
	// block a build.
	SeverityWarning
	// SeverityError indicates findings that will fail the site build.
	SeverityError
)

// String returns the human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Issue is a single finding against the descriptor or corpus.
type Issue struct {
	Path     string   `json:"path"`
	Line     int      `json:"line,omitempty"`
	Severity Severity `json:"-"`
	Rule     string   `json:"rule"`
	Message  string   `json:"message"`
}

// Result collects every finding of a lint run.
type Result struct {
	Issues []Issue
	// DocsTotal is the number of corpus documents examined.
	DocsTotal int
}

// HasErrors reports whether any error-level findings exist.
func (r *Result) HasErrors() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

// HasWarnings reports whether any warning-level findings exist.
func (r *Result) HasWarnings() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityWarning {
			return true
		}
	}
	return false
}

// ErrorCount returns the number of error-level findings.
func (r *Result) ErrorCount() int { return r.countBy(SeverityError) }

// WarningCount returns the number of warning-level findings.
func (r *Result) WarningCount() int { return r.countBy(SeverityWarning) }

func (r *Result) countBy(sev Severity) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == sev {
			n++
		}
	}
	return n
}
