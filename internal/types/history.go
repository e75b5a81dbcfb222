package types

import (
	"errors"
	"fmt"
	"time"
)

// HistoryEventType discriminates the HistoryEvent variants.
type HistoryEventType string

// History event variants.
const (
	EventCVUpload          HistoryEventType = "cvUpload"
	EventStatusChange      HistoryEventType = "statusChange"
	EventInterviewFeedback HistoryEventType = "interviewFeedback"
	EventAIUpdate          HistoryEventType = "aiUpdate"
)

// HistoryEvent is one entry of a candidate's ledger. It is a tagged variant:
// Type selects which of the remaining fields are meaningful.
//
//	cvUpload:          UploadedBy, UploadedAt, FilePath
//	statusChange:      ProcessID, Status, OccurredAt
//	interviewFeedback: ProcessID, StepID, InterviewerID, Rating, Feedback, SubmittedAt
//	aiUpdate:          OccurredAt, Payload
type HistoryEvent struct {
	Type HistoryEventType `json:"type"`

	UploadedBy string     `json:"uploadedBy,omitempty"`
	UploadedAt *time.Time `json:"uploadedAt,omitempty"`
	FilePath   string     `json:"filePath,omitempty"`

	ProcessID  string          `json:"processId,omitempty"`
	Status     CandidateStatus `json:"status,omitempty"`
	OccurredAt *time.Time      `json:"occurredAt,omitempty"`

	StepID        string     `json:"stepId,omitempty"`
	InterviewerID string     `json:"interviewerId,omitempty"`
	Rating        *int       `json:"rating,omitempty"`
	Feedback      string     `json:"feedback,omitempty"`
	SubmittedAt   *time.Time `json:"submittedAt,omitempty"`

	Payload map[string]any `json:"payload,omitempty"`
}

// NewCVUploadEvent records a resume document upload.
func NewCVUploadEvent(uploadedBy, filePath string, at time.Time) HistoryEvent {
	return HistoryEvent{Type: EventCVUpload, UploadedBy: uploadedBy, FilePath: filePath, UploadedAt: &at}
}

// NewStatusChangeEvent records a status change made within a process.
func NewStatusChangeEvent(processID string, status CandidateStatus, at time.Time) HistoryEvent {
	return HistoryEvent{Type: EventStatusChange, ProcessID: processID, Status: status, OccurredAt: &at}
}

// NewInterviewFeedbackEvent records one interviewer's feedback submission.
func NewInterviewFeedbackEvent(processID, stepID, interviewerID string, rating *int, feedback string, at time.Time) HistoryEvent {
	return HistoryEvent{
		Type:          EventInterviewFeedback,
		ProcessID:     processID,
		StepID:        stepID,
		InterviewerID: interviewerID,
		Rating:        rating,
		Feedback:      feedback,
		SubmittedAt:   &at,
	}
}

// NewAIUpdateEvent records an analysis result delivered by the external worker.
func NewAIUpdateEvent(payload map[string]any, at time.Time) HistoryEvent {
	return HistoryEvent{Type: EventAIUpdate, Payload: payload, OccurredAt: &at}
}

// Validate checks the fields required by the event's variant.
func (e HistoryEvent) Validate() error {
	switch e.Type {
	case EventCVUpload:
		if e.UploadedBy == "" || e.FilePath == "" || e.UploadedAt == nil {
			return errors.New("cvUpload event requires uploadedBy, filePath and uploadedAt")
		}
	case EventStatusChange:
		if e.ProcessID == "" || e.Status == "" || e.OccurredAt == nil {
			return errors.New("statusChange event requires processId, status and occurredAt")
		}
	case EventInterviewFeedback:
		if e.ProcessID == "" || e.StepID == "" || e.InterviewerID == "" || e.SubmittedAt == nil {
			return errors.New("interviewFeedback event requires processId, stepId, interviewerId and submittedAt")
		}
		if e.Rating != nil && (*e.Rating < 1 || *e.Rating > 5) {
			return fmt.Errorf("interviewFeedback rating %d out of range 1-5", *e.Rating)
		}
	case EventAIUpdate:
		if e.OccurredAt == nil {
			return errors.New("aiUpdate event requires occurredAt")
		}
	default:
		return fmt.Errorf("unknown history event type %q", e.Type)
	}
	return nil
}
