package hiring

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonathan/hiring-pipeline/internal/db"
	"github.com/jonathan/hiring-pipeline/internal/pipeline"
	"github.com/jonathan/hiring-pipeline/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

var (
	fixedNow    = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	recruiter   = types.Principal{UserID: "rec-1", Role: types.RoleRecruiter}
	manager     = types.Principal{UserID: "mgr-1", Role: types.RoleManager}
	interviewer = types.Principal{UserID: "int-1", Role: types.RoleInterviewer}
)

func intPtr(v int) *int { return &v }

type recordingNotifier struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (n *recordingNotifier) Notify(_ context.Context, candidateID, cvFilePath string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, candidateID+"|"+cvFilePath)
	return n.err
}

type memoryUploads struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (u *memoryUploads) Save(_ context.Context, fileName string, data []byte) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.files == nil {
		u.files = map[string][]byte{}
	}
	path := "/uploads/" + fileName
	u.files[path] = data
	return path, nil
}

func (u *memoryUploads) Remove(_ context.Context, path string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.files, path)
	return nil
}

func testOptions() Options {
	return Options{
		EnforceStepPlan: true,
		Now:             func() time.Time { return fixedNow },
	}
}

func newTestService(t *testing.T) (*Service, *db.MemoryStore, *recordingNotifier) {
	t.Helper()
	store := db.NewMemoryStore()
	notifier := &recordingNotifier{}
	return NewService(store, notifier, &memoryUploads{}, testOptions()), store, notifier
}

func seedProcess(t *testing.T, svc *Service, steps ...string) *types.Process {
	t.Helper()
	plan := make([]types.InterviewStep, 0, len(steps))
	for _, s := range steps {
		plan = append(plan, types.InterviewStep{StepID: s, StepName: s})
	}
	p, err := svc.CreateProcess(context.Background(), recruiter, &types.CreateProcessRequest{
		Title:         "Staff Engineer",
		InterviewPlan: plan,
	})
	require.NoError(t, err)
	return p
}

func seedCandidate(t *testing.T, svc *Service, name string) *types.Candidate {
	t.Helper()
	c, err := svc.CreateCandidate(context.Background(), recruiter, &types.CreateCandidateRequest{FullName: name})
	require.NoError(t, err)
	return c
}

func TestCreateProcess(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateProcess(ctx, manager, &types.CreateProcessRequest{Title: "Designer"})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, manager.UserID, p.OwnerID)
	assert.Empty(t, p.CandidatesInProcess)
	assert.NotNil(t, p.CandidatesInProcess)

	_, err = svc.CreateProcess(ctx, interviewer, &types.CreateProcessRequest{Title: "Designer"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.CreateProcess(ctx, recruiter, &types.CreateProcessRequest{})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.CreateProcess(ctx, recruiter, &types.CreateProcessRequest{
		Title:         "Designer",
		InterviewPlan: []types.InterviewStep{{StepID: "a"}, {StepID: "a"}},
	})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestUpdateProcess_TransitionWithStatus(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	p := seedProcess(t, svc, "screen", "onsite")
	c := seedCandidate(t, svc, "Ada Lovelace")

	updated, err := svc.UpdateProcess(ctx, recruiter, p.ID, &types.UpdateProcessRequest{
		CandidateID:     c.ID,
		TargetStepID:    "onsite",
		CandidateStatus: "ON_HOLD",
	})
	require.NoError(t, err)
	assert.Equal(t, types.PipelineState{CurrentStepID: "onsite", Status: types.StatusOnHold, UpdatedAt: fixedNow}, updated.CandidatesInProcess[c.ID])
	assert.Equal(t, int64(1), updated.Version)

	got, err := svc.GetCandidate(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusOnHold, got.Status)
	require.NotNil(t, got.CurrentProcessID)
	assert.Equal(t, p.ID, *got.CurrentProcessID)
	require.Len(t, got.History, 1)
	assert.Equal(t, types.EventStatusChange, got.History[0].Type)
	assert.Equal(t, p.ID, got.History[0].ProcessID)
	assert.Equal(t, types.StatusOnHold, got.History[0].Status)
}

func TestUpdateProcess_TransitionKeepsOrDefaultsStatus(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	p := seedProcess(t, svc, "screen", "onsite")
	c := seedCandidate(t, svc, "Grace Hopper")

	updated, err := svc.UpdateProcess(ctx, recruiter, p.ID, &types.UpdateProcessRequest{CandidateID: c.ID, TargetStepID: "screen"})
	require.NoError(t, err)
	assert.Equal(t, types.StatusActive, updated.CandidatesInProcess[c.ID].Status)

	_, err = svc.UpdateProcess(ctx, recruiter, p.ID, &types.UpdateProcessRequest{CandidateID: c.ID, TargetStepID: "screen", CandidateStatus: "REJECTED"})
	require.NoError(t, err)

	updated, err = svc.UpdateProcess(ctx, manager, p.ID, &types.UpdateProcessRequest{CandidateID: c.ID, TargetStepID: "onsite"})
	require.NoError(t, err)
	assert.Equal(t, types.StatusRejected, updated.CandidatesInProcess[c.ID].Status)

	got, err := svc.GetCandidate(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, got.History, 1, "moves without a status do not touch the candidate")
}

func TestUpdateProcess_HiredSetsHiredCandidate(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	p := seedProcess(t, svc, "offer")
	c := seedCandidate(t, svc, "Katherine Johnson")

	updated, err := svc.UpdateProcess(ctx, recruiter, p.ID, &types.UpdateProcessRequest{
		CandidateID: c.ID, TargetStepID: "offer", CandidateStatus: "HIRED",
	})
	require.NoError(t, err)
	require.NotNil(t, updated.HiredCandidateID)
	assert.Equal(t, c.ID, *updated.HiredCandidateID)
}

func TestUpdateProcess_PartialFields(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	p := seedProcess(t, svc, "screen")
	c := seedCandidate(t, svc, "Alan Turing")

	_, err := svc.UpdateProcess(ctx, recruiter, p.ID, &types.UpdateProcessRequest{CandidateID: c.ID, TargetStepID: "screen"})
	require.NoError(t, err)

	updated, err := svc.UpdateProcess(ctx, recruiter, p.ID, &types.UpdateProcessRequest{Stage: intPtr(2)})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Stage)
	assert.Contains(t, updated.CandidatesInProcess, c.ID, "absent fields are untouched")
	assert.Len(t, updated.InterviewPlan, 1)
}

func TestUpdateProcess_Rejections(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	p := seedProcess(t, svc, "screen")
	c := seedCandidate(t, svc, "Barbara Liskov")

	tests := []struct {
		name      string
		principal types.Principal
		processID string
		req       types.UpdateProcessRequest
		wantErr   error
	}{
		{"interviewer", interviewer, p.ID, types.UpdateProcessRequest{Stage: intPtr(1)}, ErrForbidden},
		{"empty body", recruiter, p.ID, types.UpdateProcessRequest{}, ErrInvalidArgument},
		{"candidate without step", recruiter, p.ID, types.UpdateProcessRequest{CandidateID: c.ID}, ErrInvalidArgument},
		{"step without candidate", recruiter, p.ID, types.UpdateProcessRequest{TargetStepID: "screen"}, ErrInvalidArgument},
		{"unknown status", recruiter, p.ID, types.UpdateProcessRequest{CandidateID: c.ID, TargetStepID: "screen", CandidateStatus: "SUPERSTAR"}, ErrInvalidArgument},
		{"lowercase status", recruiter, p.ID, types.UpdateProcessRequest{CandidateID: c.ID, TargetStepID: "screen", CandidateStatus: "active"}, ErrInvalidArgument},
		{"step not in plan", recruiter, p.ID, types.UpdateProcessRequest{CandidateID: c.ID, TargetStepID: "final"}, ErrInvalidArgument},
		{"unknown candidate", recruiter, p.ID, types.UpdateProcessRequest{CandidateID: "ghost", TargetStepID: "screen"}, ErrNotFound},
		{"unknown process", recruiter, "missing", types.UpdateProcessRequest{Stage: intPtr(1)}, ErrNotFound},
		{"board with bad status", recruiter, p.ID, types.UpdateProcessRequest{CandidatesInProcess: types.PipelineBoard{
			c.ID: {CurrentStepID: "screen", Status: "MAYBE"},
		}}, ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := svc.UpdateProcess(ctx, tt.principal, tt.processID, &req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	got, err := svc.GetProcess(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Version, "rejected updates write nothing")
}

func TestUpdateProcess_EmptyPlanAcceptsAnyStep(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	p := seedProcess(t, svc)
	c := seedCandidate(t, svc, "Edsger Dijkstra")

	updated, err := svc.UpdateProcess(ctx, recruiter, p.ID, &types.UpdateProcessRequest{CandidateID: c.ID, TargetStepID: "anything"})
	require.NoError(t, err)
	assert.Equal(t, "anything", updated.CandidatesInProcess[c.ID].CurrentStepID)
}

// slowStore adds a round trip to every process read and write.
type slowStore struct {
	*db.MemoryStore
	latency time.Duration
}

func (s slowStore) GetProcess(ctx context.Context, id string) (*types.Process, error) {
	time.Sleep(s.latency)
	return s.MemoryStore.GetProcess(ctx, id)
}

func (s slowStore) UpdateProcess(ctx context.Context, p *types.Process, expectedVersion int64) error {
	time.Sleep(s.latency)
	return s.MemoryStore.UpdateProcess(ctx, p, expectedVersion)
}

func TestUpdateProcess_ConcurrentTransitionsAllLand(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping contention test in short mode")
	}
	store := slowStore{MemoryStore: db.NewMemoryStore(), latency: 2 * time.Millisecond}
	opts := testOptions()
	require.Zero(t, opts.MaxWriteAttempts, "runs with the default attempt bound")
	svc := NewService(store, nil, nil, opts)
	ctx := context.Background()
	p := seedProcess(t, svc, "screen", "onsite")

	const n = 64
	ids := make([]string, n)
	for i := range ids {
		ids[i] = seedCandidate(t, svc, fmt.Sprintf("Candidate %d", i)).ID
	}

	var g errgroup.Group
	for i, id := range ids {
		step := "screen"
		if i%2 == 0 {
			step = "onsite"
		}
		g.Go(func() error {
			_, err := svc.UpdateProcess(ctx, recruiter, p.ID, &types.UpdateProcessRequest{
				CandidateID: id, TargetStepID: step, CandidateStatus: "ACTIVE",
			})
			return err
		})
	}
	require.NoError(t, g.Wait())

	view, err := svc.GetProcess(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, view.CandidatesInProcess, n)
	assert.Len(t, view.CandidateAssignments, n)
	assert.Equal(t, int64(n), view.Version)
	for i, id := range ids {
		want := "screen"
		if i%2 == 0 {
			want = "onsite"
		}
		assert.Equal(t, want, view.CandidatesInProcess[id].CurrentStepID)
	}
}

// conflictStore makes every process update look stale.
type conflictStore struct {
	*db.MemoryStore
}

func (conflictStore) UpdateProcess(context.Context, *types.Process, int64) error {
	return db.ErrVersionConflict
}

func TestUpdateProcess_ConflictExhausted(t *testing.T) {
	mem := db.NewMemoryStore()
	opts := testOptions()
	opts.MaxWriteAttempts = 3
	svc := NewService(conflictStore{mem}, nil, nil, opts)
	p := seedProcess(t, svc, "screen")

	_, err := svc.UpdateProcess(context.Background(), recruiter, p.ID, &types.UpdateProcessRequest{Stage: intPtr(1)})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)
}

// failingCandidateStore commits processes but fails candidate updates.
type failingCandidateStore struct {
	*db.MemoryStore
}

func (failingCandidateStore) UpdateCandidate(context.Context, *types.Candidate, int64) error {
	return errors.New("disk full")
}

func TestUpdateProcess_PartialWrite(t *testing.T) {
	mem := db.NewMemoryStore()
	svc := NewService(failingCandidateStore{mem}, nil, nil, testOptions())
	ctx := context.Background()
	p := seedProcess(t, svc, "screen")
	c := seedCandidate(t, svc, "Frances Allen")

	updated, err := svc.UpdateProcess(ctx, recruiter, p.ID, &types.UpdateProcessRequest{
		CandidateID: c.ID, TargetStepID: "screen", CandidateStatus: "ON_HOLD",
	})
	require.Error(t, err)

	var partial *PartialWriteError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, p.ID, partial.ProcessID)
	assert.Equal(t, c.ID, partial.CandidateID)
	require.NotNil(t, updated)
	assert.Equal(t, types.StatusOnHold, updated.CandidatesInProcess[c.ID].Status)

	stored, err := mem.GetProcess(ctx, p.ID)
	require.NoError(t, err)
	assert.Contains(t, stored.CandidatesInProcess, c.ID, "process write is not rolled back")
}

func TestGetProcess(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	p := seedProcess(t, svc, "screen")
	c := seedCandidate(t, svc, "Margaret Hamilton")

	_, err := svc.UpdateProcess(ctx, recruiter, p.ID, &types.UpdateProcessRequest{
		CandidatesInProcess: types.PipelineBoard{
			c.ID:    {CurrentStepID: "screen", Status: types.StatusActive, UpdatedAt: fixedNow},
			"ghost": {CurrentStepID: "screen", Status: types.StatusActive, UpdatedAt: fixedNow},
		},
	})
	require.NoError(t, err)

	view, err := svc.GetProcess(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, view.CandidatesInProcess, 2)
	require.Len(t, view.CandidateAssignments, 1, "assignments without a candidate record are skipped")
	assert.Equal(t, c.ID, view.CandidateAssignments[0].ID)
	assert.Equal(t, "Margaret Hamilton", view.CandidateAssignments[0].Candidate.FullName)

	_, err = svc.GetProcess(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordFeedback(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	p := seedProcess(t, svc, "screen", "onsite")
	c := seedCandidate(t, svc, "Radia Perlman")

	req := &types.FeedbackRequest{ProcessID: p.ID, CandidateID: c.ID, StepID: "screen", Rating: intPtr(4), Feedback: "solid"}
	require.NoError(t, svc.RecordFeedback(ctx, interviewer, req))

	view, err := svc.GetProcess(ctx, p.ID)
	require.NoError(t, err)
	entry := view.InterviewFeedback[c.ID]["screen"]
	assert.Equal(t, interviewer.UserID, entry.InterviewerID)
	assert.Equal(t, 4, *entry.Rating)
	assert.Equal(t, "solid", entry.Feedback)
	assert.Equal(t, fixedNow, entry.SubmittedAt)

	got, err := svc.GetCandidate(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, got.History, 1)
	assert.Equal(t, types.EventInterviewFeedback, got.History[0].Type)
	assert.Equal(t, "screen", got.History[0].StepID)
}

func TestRecordFeedback_Rejections(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	p := seedProcess(t, svc, "screen")
	c := seedCandidate(t, svc, "Shafi Goldwasser")

	tests := []struct {
		name      string
		principal types.Principal
		req       types.FeedbackRequest
		wantErr   error
	}{
		{"recruiter", recruiter, types.FeedbackRequest{ProcessID: p.ID, CandidateID: c.ID, StepID: "screen"}, ErrForbidden},
		{"missing step", interviewer, types.FeedbackRequest{ProcessID: p.ID, CandidateID: c.ID}, ErrInvalidArgument},
		{"rating too high", interviewer, types.FeedbackRequest{ProcessID: p.ID, CandidateID: c.ID, StepID: "screen", Rating: intPtr(6)}, ErrInvalidArgument},
		{"rating too low", interviewer, types.FeedbackRequest{ProcessID: p.ID, CandidateID: c.ID, StepID: "screen", Rating: intPtr(0)}, ErrInvalidArgument},
		{"step not in plan", interviewer, types.FeedbackRequest{ProcessID: p.ID, CandidateID: c.ID, StepID: "final"}, ErrInvalidArgument},
		{"unknown process", interviewer, types.FeedbackRequest{ProcessID: "missing", CandidateID: c.ID, StepID: "screen"}, ErrNotFound},
		{"unknown candidate", interviewer, types.FeedbackRequest{ProcessID: p.ID, CandidateID: "ghost", StepID: "screen"}, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			err := svc.RecordFeedback(ctx, tt.principal, &req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRecordFeedback_ConcurrentStepsAllLand(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	const n = 12
	steps := make([]string, n)
	for i := range steps {
		steps[i] = fmt.Sprintf("step-%d", i)
	}
	p := seedProcess(t, svc, steps...)
	c := seedCandidate(t, svc, "Leslie Lamport")

	var g errgroup.Group
	for i, step := range steps {
		g.Go(func() error {
			who := types.Principal{UserID: fmt.Sprintf("int-%d", i), Role: types.RoleInterviewer}
			return svc.RecordFeedback(ctx, who, &types.FeedbackRequest{
				ProcessID: p.ID, CandidateID: c.ID, StepID: step, Rating: intPtr(1 + i%5),
			})
		})
	}
	require.NoError(t, g.Wait())

	view, err := svc.GetProcess(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, view.InterviewFeedback[c.ID], n)

	got, err := svc.GetCandidate(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, got.History, n)
}

func TestRecordFeedback_PerInterviewerMode(t *testing.T) {
	store := db.NewMemoryStore()
	opts := testOptions()
	opts.FeedbackMode = pipeline.FeedbackPerInterviewer
	svc := NewService(store, nil, nil, opts)
	ctx := context.Background()
	p := seedProcess(t, svc, "onsite")
	c := seedCandidate(t, svc, "Donald Knuth")

	for _, who := range []string{"int-a", "int-b"} {
		require.NoError(t, svc.RecordFeedback(ctx, types.Principal{UserID: who, Role: types.RoleInterviewer},
			&types.FeedbackRequest{ProcessID: p.ID, CandidateID: c.ID, StepID: "onsite", Feedback: who}))
	}

	view, err := svc.GetProcess(ctx, p.ID)
	require.NoError(t, err)
	entry := view.InterviewFeedback[c.ID]["onsite"]
	assert.Equal(t, "int-b", entry.InterviewerID)
	assert.Len(t, entry.ByInterviewer, 2)
}

func TestCreateCandidate(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	c, err := svc.CreateCandidate(ctx, manager, &types.CreateCandidateRequest{FullName: "Ken Thompson"})
	require.NoError(t, err)
	assert.Equal(t, types.StatusBacklog, c.Status)
	assert.Empty(t, c.History)
	assert.NotNil(t, c.History)

	_, err = svc.CreateCandidate(ctx, interviewer, &types.CreateCandidateRequest{FullName: "x"})
	assert.ErrorIs(t, err, ErrForbidden)

	bad := "not-an-email"
	_, err = svc.CreateCandidate(ctx, recruiter, &types.CreateCandidateRequest{FullName: "x", Email: &bad})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.CreateCandidate(ctx, recruiter, &types.CreateCandidateRequest{FullName: "x", Status: "FAMOUS"})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.GetCandidate(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUploadCV(t *testing.T) {
	svc, _, notifier := newTestService(t)
	ctx := context.Background()

	resp, err := svc.UploadCV(ctx, recruiter, &types.CVUpload{FileName: "cv.pdf", Data: []byte("%PDF")})
	require.NoError(t, err)
	assert.Equal(t, types.StatusProcessing, resp.Status)
	svc.Wait()

	c, err := svc.GetCandidate(ctx, resp.CandidateID)
	require.NoError(t, err)
	assert.Equal(t, "Profile processing", c.FullName)
	require.NotNil(t, c.CVFilePath)
	assert.Equal(t, "/uploads/cv.pdf", *c.CVFilePath)
	require.Len(t, c.History, 1)
	assert.Equal(t, types.EventCVUpload, c.History[0].Type)
	assert.Equal(t, recruiter.UserID, c.History[0].UploadedBy)

	assert.Equal(t, []string{resp.CandidateID + "|/uploads/cv.pdf"}, notifier.calls)
}

func TestUploadCV_NotifierFailureIsNotFatal(t *testing.T) {
	store := db.NewMemoryStore()
	notifier := &recordingNotifier{err: errors.New("worker down")}
	svc := NewService(store, notifier, &memoryUploads{}, testOptions())

	resp, err := svc.UploadCV(context.Background(), recruiter, &types.CVUpload{FileName: "cv.pdf", Data: []byte("x"), FullName: "Linus"})
	require.NoError(t, err)
	svc.Wait()

	c, err := store.GetCandidate(context.Background(), resp.CandidateID)
	require.NoError(t, err)
	assert.Equal(t, "Linus", c.FullName)
	assert.Len(t, notifier.calls, 1)
}

func TestUploadCV_Rejections(t *testing.T) {
	svc, _, notifier := newTestService(t)
	ctx := context.Background()

	_, err := svc.UploadCV(ctx, manager, &types.CVUpload{FileName: "cv.pdf", Data: []byte("x")})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.UploadCV(ctx, recruiter, &types.CVUpload{FileName: "cv.pdf"})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	svc.Wait()
	assert.Empty(t, notifier.calls)
}

// failingCreateStore rejects new candidates.
type failingCreateStore struct {
	*db.MemoryStore
}

func (failingCreateStore) CreateCandidate(context.Context, *types.Candidate) error {
	return errors.New("connection reset")
}

func TestUploadCV_CreateFailureRemovesDocument(t *testing.T) {
	uploads := &memoryUploads{}
	notifier := &recordingNotifier{}
	svc := NewService(failingCreateStore{db.NewMemoryStore()}, notifier, uploads, testOptions())

	_, err := svc.UploadCV(context.Background(), recruiter, &types.CVUpload{FileName: "cv.pdf", Data: []byte("%PDF")})
	require.Error(t, err)

	svc.Wait()
	assert.Empty(t, uploads.files, "the saved document is removed")
	assert.Empty(t, notifier.calls)
}

func TestStrategicContext(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	empty, err := svc.GetStrategicContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", empty.StrategicVision)
	assert.Equal(t, []string{}, empty.CoreValues)

	req := &types.StrategicContextRequest{
		StrategicVision:   "Be the default hiring tool",
		CompanyMission:    "Hire well",
		CoreValues:        []string{" candor ", "", "craft"},
		CommunicationTone: "warm",
	}
	_, err = svc.UpdateStrategicContext(ctx, manager, req)
	assert.ErrorIs(t, err, ErrForbidden)

	saved, err := svc.UpdateStrategicContext(ctx, recruiter, req)
	require.NoError(t, err)
	assert.Equal(t, []string{"candor", "craft"}, saved.CoreValues)

	got, err := svc.GetStrategicContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Hire well", got.CompanyMission)

	_, err = svc.UpdateStrategicContext(ctx, recruiter, &types.StrategicContextRequest{StrategicVision: "v"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
