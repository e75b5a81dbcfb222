package hiring

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jonathan/hiring-pipeline/internal/pipeline"
	"github.com/jonathan/hiring-pipeline/internal/types"
	"golang.org/x/sync/errgroup"
)

const (
	// placeholderName is used for uploaded resumes until analysis fills in the name.
	placeholderName = "Profile processing"
	// defaultNotifyTimeout bounds the single analysis webhook attempt.
	defaultNotifyTimeout = 10 * time.Second
	// assignmentLoadLimit caps concurrent candidate reads for a board view.
	assignmentLoadLimit = 8
)

// Options configures a Service or a Syncer.
type Options struct {
	Statuses         *types.StatusRegistry
	FeedbackMode     pipeline.FeedbackMode
	EnforceStepPlan  bool
	MaxWriteAttempts int
	NotifyTimeout    time.Duration
	Now              func() time.Time
}

func (o *Options) normalize() {
	if o.Statuses == nil {
		o.Statuses = types.NewStatusRegistry()
	}
	if o.FeedbackMode == "" {
		o.FeedbackMode = pipeline.FeedbackPerStep
	}
	if o.MaxWriteAttempts <= 0 {
		o.MaxWriteAttempts = DefaultMaxWriteAttempts
	}
	if o.NotifyTimeout <= 0 {
		o.NotifyTimeout = defaultNotifyTimeout
	}
	if o.Now == nil {
		o.Now = func() time.Time { return time.Now().UTC() }
	}
}

// Service is the transition controller: the single entry point for process
// and candidate mutations made by authenticated people.
type Service struct {
	store    Store
	notifier Notifier
	uploads  DocumentStore
	validate *validator.Validate
	opts     Options
	pending  sync.WaitGroup
}

// NewService creates a Service. notifier and uploads may be nil, in which
// case resume uploads are rejected (nil uploads) or not announced (nil notifier).
func NewService(store Store, notifier Notifier, uploads DocumentStore, opts Options) *Service {
	opts.normalize()
	return &Service{
		store:    store,
		notifier: notifier,
		uploads:  uploads,
		validate: opts.Statuses.NewValidator(),
		opts:     opts,
	}
}

// Wait blocks until every in-flight analysis notification has finished.
func (s *Service) Wait() {
	s.pending.Wait()
}

// ---------------------------------------------------------------------
// Processes
// ---------------------------------------------------------------------

// CreateProcess creates a process owned by the caller unless the request names an owner.
func (s *Service) CreateProcess(ctx context.Context, principal types.Principal, req *types.CreateProcessRequest) (*types.Process, error) {
	if !principal.HasRole(types.RoleRecruiter, types.RoleManager) {
		return nil, forbidden("only recruiters and managers can create processes")
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fromValidator(err)
	}
	if err := pipeline.ValidatePlan(req.InterviewPlan); err != nil {
		return nil, fromPipeline(err)
	}
	if err := pipeline.CheckBoard(req.InterviewPlan, req.CandidatesInProcess, s.opts.Statuses, s.opts.EnforceStepPlan); err != nil {
		return nil, fromPipeline(err)
	}
	if err := pipeline.CheckRegistry(req.InterviewPlan, req.InterviewFeedback, s.opts.EnforceStepPlan); err != nil {
		return nil, fromPipeline(err)
	}

	now := s.opts.Now()
	p := &types.Process{
		ID:                  uuid.NewString(),
		Title:               req.Title,
		JobDescription:      req.JobDescription,
		OwnerID:             req.OwnerID,
		CollaboratorIDs:     req.CollaboratorIDs,
		InterviewPlan:       req.InterviewPlan,
		CandidatesInProcess: req.CandidatesInProcess,
		InterviewFeedback:   req.InterviewFeedback,
		HiredCandidateID:    req.HiredCandidateID,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if p.OwnerID == "" {
		p.OwnerID = principal.UserID
	}
	if p.CollaboratorIDs == nil {
		p.CollaboratorIDs = []string{}
	}
	if p.InterviewPlan == nil {
		p.InterviewPlan = []types.InterviewStep{}
	}
	if p.CandidatesInProcess == nil {
		p.CandidatesInProcess = types.PipelineBoard{}
	}
	if p.InterviewFeedback == nil {
		p.InterviewFeedback = types.FeedbackRegistry{}
	}

	if err := s.store.CreateProcess(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create process: %w", err)
	}
	log.Printf("[process] created %s %q owner=%s", p.ID, p.Title, p.OwnerID)
	return p, nil
}

// GetProcess returns the process together with the candidate records its
// board refers to. Candidates that no longer exist are left out.
func (s *Service) GetProcess(ctx context.Context, id string) (*types.ProcessView, error) {
	p, err := s.store.GetProcess(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get process: %w", err)
	}
	if p == nil {
		return nil, &NotFoundError{Kind: "process", ID: id}
	}

	ids := make([]string, 0, len(p.CandidatesInProcess))
	for candidateID := range p.CandidatesInProcess {
		ids = append(ids, candidateID)
	}
	sort.Strings(ids)

	loaded := make([]*types.Candidate, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(assignmentLoadLimit)
	for i, candidateID := range ids {
		g.Go(func() error {
			c, err := s.store.GetCandidate(gctx, candidateID)
			if err != nil {
				return fmt.Errorf("failed to load candidate %s: %w", candidateID, err)
			}
			loaded[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	view := &types.ProcessView{Process: p, CandidateAssignments: []types.CandidateAssignment{}}
	for i, c := range loaded {
		if c != nil {
			view.CandidateAssignments = append(view.CandidateAssignments, types.CandidateAssignment{ID: ids[i], Candidate: c})
		}
	}
	return view, nil
}

// UpdateProcess applies a partial update. Only fields present in req change.
// A (candidateId, targetStepId) pair moves the candidate on the board; with a
// candidateStatus it also updates the candidate record and its history.
func (s *Service) UpdateProcess(ctx context.Context, principal types.Principal, id string, req *types.UpdateProcessRequest) (*types.Process, error) {
	if principal.HasRole(types.RoleInterviewer) {
		return nil, forbidden("interviewers cannot update processes")
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fromValidator(err)
	}
	if req.IsEmpty() {
		return nil, invalid("", "no valid fields provided for update")
	}
	if req.InterviewPlan != nil {
		if err := pipeline.ValidatePlan(req.InterviewPlan); err != nil {
			return nil, fromPipeline(err)
		}
	}

	var status types.CandidateStatus
	if req.CandidateStatus != "" {
		parsed, err := s.opts.Statuses.Parse(req.CandidateStatus)
		if err != nil {
			return nil, invalid("candidateStatus", err.Error())
		}
		status = parsed
	}
	if req.HasTransition() {
		if err := s.requireCandidate(ctx, req.CandidateID); err != nil {
			return nil, err
		}
	}

	now := s.opts.Now()
	var updated *types.Process
	err := retryOnConflict(ctx, s.opts.MaxWriteAttempts, "process", func() error {
		p, err := s.store.GetProcess(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get process: %w", err)
		}
		if p == nil {
			return &NotFoundError{Kind: "process", ID: id}
		}

		next := *p
		if req.Stage != nil {
			next.Stage = *req.Stage
		}
		if req.InterviewPlan != nil {
			next.InterviewPlan = req.InterviewPlan
		}
		if req.CandidatesInProcess != nil {
			if err := pipeline.CheckBoard(next.InterviewPlan, req.CandidatesInProcess, s.opts.Statuses, s.opts.EnforceStepPlan); err != nil {
				return fromPipeline(err)
			}
			next.CandidatesInProcess = req.CandidatesInProcess
		}
		if req.InterviewFeedback != nil {
			if err := pipeline.CheckRegistry(next.InterviewPlan, req.InterviewFeedback, s.opts.EnforceStepPlan); err != nil {
				return fromPipeline(err)
			}
			next.InterviewFeedback = req.InterviewFeedback
		}
		if req.HasTransition() {
			if err := pipeline.CheckStep(next.InterviewPlan, req.TargetStepID, s.opts.EnforceStepPlan); err != nil {
				return fromPipeline(err)
			}
			board, err := pipeline.Transition(next.CandidatesInProcess, req.CandidateID, req.TargetStepID, status, now)
			if err != nil {
				return fromPipeline(err)
			}
			next.CandidatesInProcess = board
			if status == types.StatusHired {
				hired := req.CandidateID
				next.HiredCandidateID = &hired
			}
		}
		next.UpdatedAt = now

		if err := s.store.UpdateProcess(ctx, &next, p.Version); err != nil {
			return err
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}

	if req.HasTransition() {
		log.Printf("[process] %s: candidate %s -> %s (status=%s)", id, req.CandidateID, req.TargetStepID, updated.CandidatesInProcess[req.CandidateID].Status)
	}
	if !req.HasTransition() || status == "" {
		return updated, nil
	}

	err = s.mutateCandidate(ctx, req.CandidateID, func(c *types.Candidate) error {
		history, err := pipeline.AppendHistory(c.History, types.NewStatusChangeEvent(id, status, now))
		if err != nil {
			return fromPipeline(err)
		}
		processID := id
		c.History = history
		c.Status = status
		c.CurrentProcessID = &processID
		c.UpdatedAt = now
		return nil
	})
	if err != nil {
		log.Printf("[process] RECONCILE process=%s candidate=%s step=%s status=%s: board updated, candidate status change not recorded: %v",
			id, req.CandidateID, req.TargetStepID, status, err)
		return updated, &PartialWriteError{ProcessID: id, CandidateID: req.CandidateID, Step: "status change", Err: err}
	}
	return updated, nil
}

// RecordFeedback stores an interviewer's assessment of a candidate at one
// step and appends it to the candidate's history.
func (s *Service) RecordFeedback(ctx context.Context, principal types.Principal, req *types.FeedbackRequest) error {
	if !principal.HasRole(types.RoleInterviewer) {
		return forbidden("only interviewers can submit feedback")
	}
	if err := s.validate.Struct(req); err != nil {
		return fromValidator(err)
	}
	if err := s.requireCandidate(ctx, req.CandidateID); err != nil {
		return err
	}

	now := s.opts.Now()
	entry := types.FeedbackEntry{
		InterviewerID: principal.UserID,
		Rating:        req.Rating,
		Feedback:      req.Feedback,
		SubmittedAt:   now,
	}

	err := retryOnConflict(ctx, s.opts.MaxWriteAttempts, "feedback", func() error {
		p, err := s.store.GetProcess(ctx, req.ProcessID)
		if err != nil {
			return fmt.Errorf("failed to get process: %w", err)
		}
		if p == nil {
			return &NotFoundError{Kind: "process", ID: req.ProcessID}
		}
		if err := pipeline.CheckStep(p.InterviewPlan, req.StepID, s.opts.EnforceStepPlan); err != nil {
			return fromPipeline(err)
		}
		registry, err := pipeline.RecordFeedback(p.InterviewFeedback, req.CandidateID, req.StepID, entry, s.opts.FeedbackMode)
		if err != nil {
			return fromPipeline(err)
		}

		next := *p
		next.InterviewFeedback = registry
		next.UpdatedAt = now
		return s.store.UpdateProcess(ctx, &next, p.Version)
	})
	if err != nil {
		return err
	}

	err = s.mutateCandidate(ctx, req.CandidateID, func(c *types.Candidate) error {
		event := types.NewInterviewFeedbackEvent(req.ProcessID, req.StepID, principal.UserID, req.Rating, req.Feedback, now)
		history, err := pipeline.AppendHistory(c.History, event)
		if err != nil {
			return fromPipeline(err)
		}
		c.History = history
		c.UpdatedAt = now
		return nil
	})
	if err != nil {
		log.Printf("[feedback] RECONCILE process=%s candidate=%s step=%s interviewer=%s: feedback stored, history entry not recorded: %v",
			req.ProcessID, req.CandidateID, req.StepID, principal.UserID, err)
		return &PartialWriteError{ProcessID: req.ProcessID, CandidateID: req.CandidateID, Step: "feedback history", Err: err}
	}
	log.Printf("[feedback] process=%s candidate=%s step=%s interviewer=%s", req.ProcessID, req.CandidateID, req.StepID, principal.UserID)
	return nil
}

// ---------------------------------------------------------------------
// Candidates
// ---------------------------------------------------------------------

// CreateCandidate creates a candidate record with an empty history.
func (s *Service) CreateCandidate(ctx context.Context, principal types.Principal, req *types.CreateCandidateRequest) (*types.Candidate, error) {
	if !principal.HasRole(types.RoleRecruiter, types.RoleManager) {
		return nil, forbidden("only recruiters and managers can create candidates")
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fromValidator(err)
	}

	status := types.StatusBacklog
	if req.Status != "" {
		status = types.CandidateStatus(req.Status)
	}
	metadata := req.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	now := s.opts.Now()
	c := &types.Candidate{
		ID:               uuid.NewString(),
		FullName:         req.FullName,
		Title:            req.Title,
		Email:            req.Email,
		Phone:            req.Phone,
		Location:         req.Location,
		Status:           status,
		ResumeText:       req.ResumeText,
		Metadata:         metadata,
		History:          []types.HistoryEvent{},
		CurrentProcessID: req.CurrentProcessID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.CreateCandidate(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create candidate: %w", err)
	}
	return c, nil
}

// GetCandidate returns one candidate.
func (s *Service) GetCandidate(ctx context.Context, id string) (*types.Candidate, error) {
	c, err := s.store.GetCandidate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get candidate: %w", err)
	}
	if c == nil {
		return nil, &NotFoundError{Kind: "candidate", ID: id}
	}
	return c, nil
}

// UploadCV stores a resume document, creates a PROCESSING candidate for it
// and announces it to the analysis worker. The announcement is best effort
// and runs after the candidate is committed; its failure is only logged.
func (s *Service) UploadCV(ctx context.Context, principal types.Principal, upload *types.CVUpload) (*types.CVUploadResponse, error) {
	if !principal.HasRole(types.RoleRecruiter) {
		return nil, forbidden("only recruiters can upload resumes")
	}
	if upload == nil || len(upload.Data) == 0 {
		return nil, invalid("", "CV file is required")
	}
	if s.uploads == nil {
		return nil, fmt.Errorf("no document store configured")
	}

	path, err := s.uploads.Save(ctx, upload.FileName, upload.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to store uploaded file: %w", err)
	}

	now := s.opts.Now()
	history, err := pipeline.AppendHistory(nil, types.NewCVUploadEvent(principal.UserID, path, now))
	if err != nil {
		return nil, fromPipeline(err)
	}

	c := &types.Candidate{
		ID:         uuid.NewString(),
		FullName:   placeholderName,
		Status:     types.StatusProcessing,
		CVFilePath: &path,
		Metadata:   map[string]any{},
		History:    history,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if name := strings.TrimSpace(upload.FullName); name != "" {
		c.FullName = name
	}
	if email := strings.TrimSpace(upload.Email); email != "" {
		c.Email = &email
	}
	if err := s.store.CreateCandidate(ctx, c); err != nil {
		if rmErr := s.uploads.Remove(context.WithoutCancel(ctx), path); rmErr != nil {
			log.Printf("[upload] orphaned document %s: %v", path, rmErr)
		}
		return nil, fmt.Errorf("failed to create candidate: %w", err)
	}
	log.Printf("[upload] candidate %s created from %s by %s", c.ID, path, principal.UserID)

	s.notifyAsync(c.ID, path)
	return &types.CVUploadResponse{CandidateID: c.ID, Status: c.Status}, nil
}

// notifyAsync makes the single notification attempt on its own goroutine,
// detached from the request so a slow worker cannot hold the response.
func (s *Service) notifyAsync(candidateID, path string) {
	if s.notifier == nil {
		log.Printf("[notify] no analysis notifier configured; skipping candidate %s", candidateID)
		return
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.NotifyTimeout)
		defer cancel()
		if err := s.notifier.Notify(ctx, candidateID, path); err != nil {
			log.Printf("[notify] %v", fmt.Errorf("%w: candidate %s: %v", ErrUpstreamNotification, candidateID, err))
		}
	}()
}

// ---------------------------------------------------------------------
// Strategic context
// ---------------------------------------------------------------------

// GetStrategicContext returns the context singleton, or an empty one if it
// was never written.
func (s *Service) GetStrategicContext(ctx context.Context) (*types.StrategicContext, error) {
	sc, err := s.store.GetStrategicContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get strategic context: %w", err)
	}
	if sc == nil {
		return &types.StrategicContext{CoreValues: []string{}}, nil
	}
	return sc, nil
}

// UpdateStrategicContext replaces the context singleton. Recruiters only.
func (s *Service) UpdateStrategicContext(ctx context.Context, principal types.Principal, req *types.StrategicContextRequest) (*types.StrategicContext, error) {
	if !principal.HasRole(types.RoleRecruiter) {
		return nil, forbidden("only recruiters can update the strategic context")
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fromValidator(err)
	}

	values := make([]string, 0, len(req.CoreValues))
	for _, v := range req.CoreValues {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	now := s.opts.Now()
	sc, err := s.store.UpsertStrategicContext(ctx, &types.StrategicContext{
		StrategicVision:   req.StrategicVision,
		CompanyMission:    req.CompanyMission,
		CoreValues:        values,
		CommunicationTone: req.CommunicationTone,
		UpdatedAt:         &now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save strategic context: %w", err)
	}
	return sc, nil
}

// ---------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------

func (s *Service) requireCandidate(ctx context.Context, id string) error {
	c, err := s.store.GetCandidate(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get candidate: %w", err)
	}
	if c == nil {
		return &NotFoundError{Kind: "candidate", ID: id}
	}
	return nil
}

// mutateCandidate runs a read-merge-write cycle on one candidate, retrying on
// version conflicts. apply edits a copy of the stored record.
func (s *Service) mutateCandidate(ctx context.Context, id string, apply func(c *types.Candidate) error) error {
	return mutateCandidate(ctx, s.store, s.opts.MaxWriteAttempts, id, apply)
}

func mutateCandidate(ctx context.Context, store Store, attempts int, id string, apply func(c *types.Candidate) error) error {
	return retryOnConflict(ctx, attempts, "candidate", func() error {
		c, err := store.GetCandidate(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get candidate: %w", err)
		}
		if c == nil {
			return &NotFoundError{Kind: "candidate", ID: id}
		}
		next := *c
		if err := apply(&next); err != nil {
			return err
		}
		return store.UpdateCandidate(ctx, &next, c.Version)
	})
}
