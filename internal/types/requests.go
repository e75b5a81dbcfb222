package types

// CreateProcessRequest is the body of POST /processes.
type CreateProcessRequest struct {
	Title               string           `json:"title" validate:"required"`
	JobDescription      *string          `json:"jobDescription,omitempty"`
	OwnerID             string           `json:"ownerId,omitempty"`
	CollaboratorIDs     []string         `json:"collaboratorIds,omitempty"`
	InterviewPlan       []InterviewStep  `json:"interviewPlan,omitempty" validate:"omitempty,dive"`
	CandidatesInProcess PipelineBoard    `json:"candidatesInProcess,omitempty"`
	InterviewFeedback   FeedbackRegistry `json:"interviewFeedback,omitempty"`
	HiredCandidateID    *string          `json:"hiredCandidateId,omitempty"`
}

// UpdateProcessRequest is the body of PUT /processes/{id}. Every field is
// optional; absent (nil) fields are left untouched.
type UpdateProcessRequest struct {
	Stage               *int             `json:"stage,omitempty"`
	InterviewPlan       []InterviewStep  `json:"interviewPlan,omitempty" validate:"omitempty,dive"`
	CandidatesInProcess PipelineBoard    `json:"candidatesInProcess,omitempty"`
	InterviewFeedback   FeedbackRegistry `json:"interviewFeedback,omitempty"`

	CandidateID     string `json:"candidateId,omitempty" validate:"required_with=TargetStepID"`
	TargetStepID    string `json:"targetStepId,omitempty" validate:"required_with=CandidateID"`
	CandidateStatus string `json:"candidateStatus,omitempty" validate:"omitempty,candidate_status"`
}

// HasTransition reports whether the request moves a candidate on the board.
func (r *UpdateProcessRequest) HasTransition() bool {
	return r.CandidateID != "" && r.TargetStepID != ""
}

// IsEmpty reports whether the request carries no recognized field.
func (r *UpdateProcessRequest) IsEmpty() bool {
	return r.Stage == nil &&
		r.InterviewPlan == nil &&
		r.CandidatesInProcess == nil &&
		r.InterviewFeedback == nil &&
		!r.HasTransition()
}

// FeedbackRequest is the body of POST /feedback.
type FeedbackRequest struct {
	ProcessID   string `json:"processId" validate:"required"`
	CandidateID string `json:"candidateId" validate:"required"`
	StepID      string `json:"stepId" validate:"required"`
	Rating      *int   `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Feedback    string `json:"feedback,omitempty" validate:"max=20000"`
}

// CreateCandidateRequest is the body of POST /candidates.
type CreateCandidateRequest struct {
	FullName         string         `json:"fullName" validate:"required"`
	Title            *string        `json:"title,omitempty"`
	Email            *string        `json:"email,omitempty" validate:"omitempty,email"`
	Phone            *string        `json:"phone,omitempty"`
	Location         *string        `json:"location,omitempty"`
	ResumeText       *string        `json:"resumeText,omitempty"`
	Status           string         `json:"status,omitempty" validate:"omitempty,candidate_status"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	CurrentProcessID *string        `json:"currentProcessId,omitempty"`
}

// CVUpload describes a resume document received by POST /candidates/upload-cv.
// Data is the raw file content; persisting it is the service's job.
type CVUpload struct {
	FileName string
	Data     []byte
	FullName string
	Email    string
}

// CVUploadResponse is returned once the upload is accepted.
type CVUploadResponse struct {
	CandidateID string          `json:"candidateId"`
	Status      CandidateStatus `json:"status"`
}

// StrategicContextRequest is the body of POST /context.
type StrategicContextRequest struct {
	StrategicVision   string   `json:"strategicVision" validate:"required"`
	CompanyMission    string   `json:"companyMission" validate:"required"`
	CoreValues        []string `json:"coreValues"`
	CommunicationTone string   `json:"communicationTone" validate:"required"`
}

// AnalysisCallback is the body posted by the external analysis worker.
// Pointer and map fields distinguish "absent" from "empty".
type AnalysisCallback struct {
	CandidateID string         `json:"candidateId"`
	Status      *string        `json:"status,omitempty"`
	ResumeText  *string        `json:"resumeText,omitempty"`
	ParsedData  map[string]any `json:"parsedData,omitempty"`
	Analysis    map[string]any `json:"analysis,omitempty"`
}
