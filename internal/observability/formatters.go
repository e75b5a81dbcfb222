// Package observability provides formatted console output for operators.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/hiring-pipeline/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 64
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for the ats CLI.
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	runes := []rune(s)
	return string(runes[:width-3]) + "..."
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	inner := boxWidth - 4
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", inner, truncate(title, inner))
	fmt.Fprintf(p.out, "├%s┤\n", border)
	for _, line := range strings.Split(content, "\n") {
		line = truncate(line, inner)
		fmt.Fprintf(p.out, "│ %s%s │\n", line, strings.Repeat(" ", inner-utf8.RuneCountInString(line)))
	}
	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintBoard outputs a process board: one column per interview step in plan
// order, then any step the plan does not declare.
func (p *Printer) PrintBoard(view *types.ProcessView) {
	if view == nil || view.Process == nil {
		return
	}

	names := make(map[string]string, len(view.CandidateAssignments))
	for _, a := range view.CandidateAssignments {
		if a.Candidate != nil {
			names[a.ID] = a.Candidate.FullName
		}
	}

	columns := make(map[string][]string)
	for id, state := range view.CandidatesInProcess {
		columns[state.CurrentStepID] = append(columns[state.CurrentStepID], id)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Process:  %s\n", view.ID))
	sb.WriteString(fmt.Sprintf("Stage:    %d\n", view.Stage))
	if view.HiredCandidateID != nil {
		sb.WriteString(fmt.Sprintf("Hired:    %s\n", label(*view.HiredCandidateID, names)))
	}

	writeColumn := func(title string, ids []string) {
		sort.Slice(ids, func(i, j int) bool { return label(ids[i], names) < label(ids[j], names) })
		sb.WriteString(fmt.Sprintf("\n%s (%d)\n", title, len(ids)))
		for _, id := range ids {
			sb.WriteString(fmt.Sprintf("  • %s [%s]\n", label(id, names), view.CandidatesInProcess[id].Status))
		}
	}

	declared := make(map[string]bool, len(view.InterviewPlan))
	for _, step := range view.InterviewPlan {
		declared[step.StepID] = true
		title := step.StepName
		if title == "" {
			title = step.StepID
		}
		writeColumn(title, columns[step.StepID])
	}

	var extra []string
	for stepID := range columns {
		if !declared[stepID] {
			extra = append(extra, stepID)
		}
	}
	sort.Strings(extra)
	for _, stepID := range extra {
		writeColumn(stepID+" (not in plan)", columns[stepID])
	}

	p.printBox(strings.ToUpper(view.Title), strings.TrimSuffix(sb.String(), "\n"))
}

func label(id string, names map[string]string) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return id
}

// PrintCandidate outputs a candidate summary and the most recent history.
func (p *Printer) PrintCandidate(c *types.Candidate) {
	if c == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("ID:       %s\n", c.ID))
	sb.WriteString(fmt.Sprintf("Status:   %s\n", c.Status))
	if c.Email != nil {
		sb.WriteString(fmt.Sprintf("Email:    %s\n", *c.Email))
	}
	if c.CurrentProcessID != nil {
		sb.WriteString(fmt.Sprintf("Process:  %s\n", *c.CurrentProcessID))
	}

	if len(c.History) > 0 {
		sb.WriteString(fmt.Sprintf("\nHistory (%d events):\n", len(c.History)))
		start := max(0, len(c.History)-maxItemsToShow)
		if start > 0 {
			sb.WriteString(fmt.Sprintf("  ... %d earlier\n", start))
		}
		for _, e := range c.History[start:] {
			sb.WriteString("  • " + describeEvent(e) + "\n")
		}
	}

	p.printBox(c.FullName, strings.TrimSuffix(sb.String(), "\n"))
}

func describeEvent(e types.HistoryEvent) string {
	switch e.Type {
	case types.EventCVUpload:
		return fmt.Sprintf("cv uploaded by %s", e.UploadedBy)
	case types.EventStatusChange:
		return fmt.Sprintf("%s in %s", e.Status, e.ProcessID)
	case types.EventInterviewFeedback:
		if e.Rating != nil {
			return fmt.Sprintf("feedback %d/5 at %s by %s", *e.Rating, e.StepID, e.InterviewerID)
		}
		return fmt.Sprintf("feedback at %s by %s", e.StepID, e.InterviewerID)
	case types.EventAIUpdate:
		return "analysis update"
	default:
		return string(e.Type)
	}
}
