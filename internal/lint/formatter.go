package lint

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// Formatter renders lint results for humans (text) or machines (json).
type Formatter struct {
	format   string
	useColor bool
}

// NewFormatter returns a formatter for the given output format ("text" or
// "json").
func NewFormatter(format string, useColor bool) *Formatter {
	return &Formatter{format: format, useColor: useColor}
}

// Format writes the result to w. quiet suppresses warnings and info findings.
func (f *Formatter) Format(w io.Writer, result *Result, quiet bool) error {
	if f.format == "json" {
		return f.formatJSON(w, result, quiet)
	}
	return f.formatText(w, result, quiet)
}

const (
	colorReset  = "\x1b[0m"
	colorRed    = "\x1b[31m"
	colorYellow = "\x1b[33m"
	colorCyan   = "\x1b[36m"
)

func (f *Formatter) formatText(w io.Writer, result *Result, quiet bool) error {
	for _, issue := range ordered(result, quiet) {
		sev := issue.Severity.String()
		if f.useColor {
			switch issue.Severity {
			case SeverityError:
				sev = colorRed + sev + colorReset
			case SeverityWarning:
				sev = colorYellow + sev + colorReset
			default:
				sev = colorCyan + sev + colorReset
			}
		}
		loc := issue.Path
		if issue.Line > 0 {
			loc = fmt.Sprintf("%s:%d", issue.Path, issue.Line)
		}
		if _, err := fmt.Fprintf(w, "%s %s [%s] %s\n", sev, loc, issue.Rule, issue.Message); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "\n%d document(s), %d error(s), %d warning(s)\n",
		result.DocsTotal, result.ErrorCount(), result.WarningCount())
	return err
}

type jsonReport struct {
	Issues   []jsonIssue `json:"issues"`
	Docs     int         `json:"docs_total"`
	Errors   int         `json:"errors"`
	Warnings int         `json:"warnings"`
}

type jsonIssue struct {
	Issue
	Severity string `json:"severity"`
}

func (f *Formatter) formatJSON(w io.Writer, result *Result, quiet bool) error {
	report := jsonReport{
		Issues:   []jsonIssue{},
		Docs:     result.DocsTotal,
		Errors:   result.ErrorCount(),
		Warnings: result.WarningCount(),
	}
	for _, issue := range ordered(result, quiet) {
		report.Issues = append(report.Issues, jsonIssue{Issue: issue, Severity: issue.Severity.String()})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// ordered returns findings sorted by path, then line, then rule, filtered for
// quiet mode. Stable output keeps CI diffs meaningful.
func ordered(result *Result, quiet bool) []Issue {
	issues := make([]Issue, 0, len(result.Issues))
	for _, issue := range result.Issues {
		if quiet && issue.Severity < SeverityError {
			continue
		}
		issues = append(issues, issue)
	}
	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Path != issues[j].Path {
			return issues[i].Path < issues[j].Path
		}
		if issues[i].Line != issues[j].Line {
			return issues[i].Line < issues[j].Line
		}
		return issues[i].Rule < issues[j].Rule
	})
	return issues
}
