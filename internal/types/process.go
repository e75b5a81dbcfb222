package types

import "time"

// InterviewStep is one column of a process board. The ordered list of steps
// of a process is its fixed pipeline topology.
type InterviewStep struct {
	StepID         string  `json:"stepId" validate:"required"`
	StepName       string  `json:"stepName"`
	AssignedUserID *string `json:"assignedUserId,omitempty"`
}

// PipelineState is a candidate's position on one process board.
type PipelineState struct {
	CurrentStepID string          `json:"currentStepId"`
	Status        CandidateStatus `json:"status"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// PipelineBoard maps candidate ID to its pipeline state.
type PipelineBoard map[string]PipelineState

// FeedbackEntry is the assessment recorded for one candidate at one step.
// ByInterviewer is only populated when feedback is kept per interviewer; the
// top-level fields always hold the latest submission.
type FeedbackEntry struct {
	InterviewerID string                   `json:"interviewerId"`
	Rating        *int                     `json:"rating"`
	Feedback      string                   `json:"feedback"`
	SubmittedAt   time.Time                `json:"submittedAt"`
	ByInterviewer map[string]FeedbackEntry `json:"byInterviewer,omitempty"`
}

// FeedbackRegistry maps candidate ID to step ID to feedback.
type FeedbackRegistry map[string]map[string]FeedbackEntry

// Process is one hiring pipeline instance for a role.
type Process struct {
	ID                  string           `json:"id"`
	Title               string           `json:"title"`
	JobDescription      *string          `json:"jobDescription"`
	OwnerID             string           `json:"ownerId"`
	CollaboratorIDs     []string         `json:"collaboratorIds"`
	Stage               int              `json:"stage"`
	InterviewPlan       []InterviewStep  `json:"interviewPlan"`
	CandidatesInProcess PipelineBoard    `json:"candidatesInProcess"`
	InterviewFeedback   FeedbackRegistry `json:"interviewFeedback"`
	HiredCandidateID    *string          `json:"hiredCandidateId"`
	Version             int64            `json:"version"`
	CreatedAt           time.Time        `json:"createdAt"`
	UpdatedAt           time.Time        `json:"updatedAt"`
}

// CandidateAssignment pairs a board entry with the candidate record it points to.
type CandidateAssignment struct {
	ID        string     `json:"id"`
	Candidate *Candidate `json:"candidate"`
}

// ProcessView is the read model the board UI polls.
type ProcessView struct {
	*Process
	CandidateAssignments []CandidateAssignment `json:"candidateAssignments"`
}

// Candidate is a person moving through one or more hiring processes.
type Candidate struct {
	ID               string          `json:"id"`
	FullName         string          `json:"fullName"`
	Title            *string         `json:"title"`
	Email            *string         `json:"email"`
	Phone            *string         `json:"phone"`
	Location         *string         `json:"location"`
	Status           CandidateStatus `json:"status"`
	ResumeText       *string         `json:"resumeText"`
	CVFilePath       *string         `json:"cvFilePath"`
	Metadata         map[string]any  `json:"metadata"`
	History          []HistoryEvent  `json:"history"`
	CurrentProcessID *string         `json:"currentProcessId"`
	Version          int64           `json:"version"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// StrategicContext is the company-wide context singleton shown to recruiters.
type StrategicContext struct {
	StrategicVision   string     `json:"strategicVision"`
	CompanyMission    string     `json:"companyMission"`
	CoreValues        []string   `json:"coreValues"`
	CommunicationTone string     `json:"communicationTone"`
	UpdatedAt         *time.Time `json:"updatedAt"`
}
