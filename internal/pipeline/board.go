// Package pipeline holds the pure state operations of a hiring process: board
// transitions, feedback aggregation and the candidate history ledger. Nothing
// here performs I/O; callers persist the returned values.
package pipeline

import (
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/jonathan/hiring-pipeline/internal/types"
)

// DefaultStatus is the board status of a candidate that has none yet.
const DefaultStatus = types.StatusActive

// ErrInvalidInput is matched by every InputError.
var ErrInvalidInput = errors.New("invalid pipeline input")

// InputError reports a rejected argument to a pipeline operation.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is makes errors.Is(err, ErrInvalidInput) hold for any InputError.
func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ResolveStatus picks the status a candidate ends up with after a transition:
// the supplied one, else the previous one, else DefaultStatus.
func ResolveStatus(prev *types.PipelineState, supplied types.CandidateStatus) types.CandidateStatus {
	if supplied != "" {
		return supplied
	}
	if prev != nil && prev.Status != "" {
		return prev.Status
	}
	return DefaultStatus
}

// Transition moves candidateID to targetStepID on board and returns the new
// board. The input board is not modified and only the candidate's key differs
// in the result. An empty status keeps the candidate's previous status.
func Transition(board types.PipelineBoard, candidateID, targetStepID string, status types.CandidateStatus, now time.Time) (types.PipelineBoard, error) {
	if strings.TrimSpace(candidateID) == "" {
		return board, &InputError{Field: "candidateId", Message: "must not be empty"}
	}
	if strings.TrimSpace(targetStepID) == "" {
		return board, &InputError{Field: "targetStepId", Message: "must not be empty"}
	}

	next := maps.Clone(board)
	if next == nil {
		next = make(types.PipelineBoard, 1)
	}

	var prev *types.PipelineState
	if cur, ok := board[candidateID]; ok {
		prev = &cur
	}

	next[candidateID] = types.PipelineState{
		CurrentStepID: targetStepID,
		Status:        ResolveStatus(prev, status),
		UpdatedAt:     now,
	}
	return next, nil
}
