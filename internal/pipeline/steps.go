package pipeline

import (
	"fmt"
	"strings"

	"github.com/jonathan/hiring-pipeline/internal/types"
)

// ValidatePlan checks that every step has a non-empty, unique ID.
func ValidatePlan(plan []types.InterviewStep) error {
	seen := make(map[string]struct{}, len(plan))
	for i, step := range plan {
		if strings.TrimSpace(step.StepID) == "" {
			return &InputError{Field: fmt.Sprintf("interviewPlan[%d].stepId", i), Message: "must not be empty"}
		}
		if _, dup := seen[step.StepID]; dup {
			return &InputError{Field: fmt.Sprintf("interviewPlan[%d].stepId", i), Message: fmt.Sprintf("duplicate step %q", step.StepID)}
		}
		seen[step.StepID] = struct{}{}
	}
	return nil
}

// HasStep reports whether plan declares stepID.
func HasStep(plan []types.InterviewStep, stepID string) bool {
	for _, step := range plan {
		if step.StepID == stepID {
			return true
		}
	}
	return false
}

// CheckStep rejects a step that is not part of plan. An empty plan declares
// no topology yet, so any step passes; so does everything when enforce is off.
func CheckStep(plan []types.InterviewStep, stepID string, enforce bool) error {
	if !enforce || len(plan) == 0 || HasStep(plan, stepID) {
		return nil
	}
	return &InputError{Field: "stepId", Message: fmt.Sprintf("step %q is not in the interview plan", stepID)}
}

// CheckBoard validates a whole board supplied by a client: every state needs a
// step (checked against plan) and a recognized status.
func CheckBoard(plan []types.InterviewStep, board types.PipelineBoard, statuses *types.StatusRegistry, enforce bool) error {
	for candidateID, state := range board {
		if strings.TrimSpace(candidateID) == "" {
			return &InputError{Field: "candidatesInProcess", Message: "candidate id must not be empty"}
		}
		if strings.TrimSpace(state.CurrentStepID) == "" {
			return &InputError{Field: "candidatesInProcess." + candidateID + ".currentStepId", Message: "must not be empty"}
		}
		if err := CheckStep(plan, state.CurrentStepID, enforce); err != nil {
			return err
		}
		if state.Status == "" {
			continue
		}
		if _, ok := statuses.Recognize(string(state.Status)); !ok {
			return &InputError{Field: "candidatesInProcess." + candidateID + ".status", Message: fmt.Sprintf("unrecognized status %q", state.Status)}
		}
	}
	return nil
}

// CheckRegistry validates a whole feedback registry supplied by a client.
func CheckRegistry(plan []types.InterviewStep, registry types.FeedbackRegistry, enforce bool) error {
	for candidateID, steps := range registry {
		for stepID, entry := range steps {
			if err := CheckStep(plan, stepID, enforce); err != nil {
				return err
			}
			if entry.Rating != nil && (*entry.Rating < 1 || *entry.Rating > 5) {
				return &InputError{Field: "interviewFeedback." + candidateID + "." + stepID + ".rating", Message: "must be between 1 and 5"}
			}
		}
	}
	return nil
}
