package pipeline

import (
	"fmt"
	"maps"
	"strings"

	"github.com/jonathan/hiring-pipeline/internal/types"
)

// FeedbackMode decides what a second submission for the same step replaces.
type FeedbackMode string

const (
	// FeedbackPerStep keeps one entry per (candidate, step): last write wins.
	FeedbackPerStep FeedbackMode = "per_step"
	// FeedbackPerInterviewer also keeps every interviewer's latest entry
	// under ByInterviewer.
	FeedbackPerInterviewer FeedbackMode = "per_interviewer"
)

// ParseFeedbackMode converts a config value; empty means FeedbackPerStep.
func ParseFeedbackMode(s string) (FeedbackMode, error) {
	switch m := FeedbackMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return FeedbackPerStep, nil
	case FeedbackPerStep, FeedbackPerInterviewer:
		return m, nil
	default:
		return "", fmt.Errorf("unknown feedback mode %q", s)
	}
}

// RecordFeedback writes entry for (candidateID, stepID) and returns the new
// registry. Other candidates and other steps are carried over untouched and
// the input registry is not modified.
func RecordFeedback(registry types.FeedbackRegistry, candidateID, stepID string, entry types.FeedbackEntry, mode FeedbackMode) (types.FeedbackRegistry, error) {
	if strings.TrimSpace(candidateID) == "" {
		return registry, &InputError{Field: "candidateId", Message: "must not be empty"}
	}
	if strings.TrimSpace(stepID) == "" {
		return registry, &InputError{Field: "stepId", Message: "must not be empty"}
	}
	if strings.TrimSpace(entry.InterviewerID) == "" {
		return registry, &InputError{Field: "interviewerId", Message: "must not be empty"}
	}
	if entry.Rating != nil && (*entry.Rating < 1 || *entry.Rating > 5) {
		return registry, &InputError{Field: "rating", Message: "must be between 1 and 5"}
	}

	next := maps.Clone(registry)
	if next == nil {
		next = make(types.FeedbackRegistry, 1)
	}
	bucket := maps.Clone(next[candidateID])
	if bucket == nil {
		bucket = make(map[string]types.FeedbackEntry, 1)
	}

	entry.ByInterviewer = nil
	if mode == FeedbackPerInterviewer {
		prior, had := bucket[stepID]
		by := maps.Clone(prior.ByInterviewer)
		if by == nil {
			by = make(map[string]types.FeedbackEntry, 1)
		}
		// Entries written in per-step mode carry no ByInterviewer; keep the
		// author of the prior entry.
		if had && len(prior.ByInterviewer) == 0 && prior.InterviewerID != "" {
			prior.ByInterviewer = nil
			by[prior.InterviewerID] = prior
		}
		by[entry.InterviewerID] = entry
		entry.ByInterviewer = by
	}

	bucket[stepID] = entry
	next[candidateID] = bucket
	return next, nil
}
