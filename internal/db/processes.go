package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonathan/hiring-pipeline/internal/types"
)

const processColumns = `id, title, job_description, owner_id, collaborator_ids, stage,
	interview_plan, candidates_in_process, interview_feedback, hired_candidate_id,
	version, created_at, updated_at`

// processJSON holds the JSONB columns of a process row.
type processJSON struct {
	collaborators []byte
	plan          []byte
	board         []byte
	feedback      []byte
}

func encodeProcess(p *types.Process) (*processJSON, error) {
	var out processJSON
	var err error
	if out.collaborators, err = marshalOr(p.CollaboratorIDs, "[]"); err != nil {
		return nil, fmt.Errorf("failed to marshal collaborator ids: %w", err)
	}
	if out.plan, err = marshalOr(p.InterviewPlan, "[]"); err != nil {
		return nil, fmt.Errorf("failed to marshal interview plan: %w", err)
	}
	if out.board, err = marshalOr(p.CandidatesInProcess, "{}"); err != nil {
		return nil, fmt.Errorf("failed to marshal pipeline board: %w", err)
	}
	if out.feedback, err = marshalOr(p.InterviewFeedback, "{}"); err != nil {
		return nil, fmt.Errorf("failed to marshal interview feedback: %w", err)
	}
	return &out, nil
}

// CreateProcess inserts a new process at version 0.
func (db *DB) CreateProcess(ctx context.Context, p *types.Process) error {
	cols, err := encodeProcess(p)
	if err != nil {
		return err
	}
	p.Version = 0
	_, err = db.pool.Exec(ctx,
		`INSERT INTO processes (`+processColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0, $11, $12)`,
		p.ID, p.Title, p.JobDescription, p.OwnerID, cols.collaborators, p.Stage,
		cols.plan, cols.board, cols.feedback, p.HiredCandidateID,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert process: %w", err)
	}
	return nil
}

// GetProcess retrieves a process by ID. Returns nil, nil if not found.
func (db *DB) GetProcess(ctx context.Context, id string) (*types.Process, error) {
	var p types.Process
	var cols processJSON
	err := db.pool.QueryRow(ctx,
		`SELECT `+processColumns+` FROM processes WHERE id = $1`, id,
	).Scan(&p.ID, &p.Title, &p.JobDescription, &p.OwnerID, &cols.collaborators, &p.Stage,
		&cols.plan, &cols.board, &cols.feedback, &p.HiredCandidateID,
		&p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get process: %w", err)
	}

	if err := unmarshalColumns(map[string]columnTarget{
		"collaborator_ids":      {cols.collaborators, &p.CollaboratorIDs},
		"interview_plan":        {cols.plan, &p.InterviewPlan},
		"candidates_in_process": {cols.board, &p.CandidatesInProcess},
		"interview_feedback":    {cols.feedback, &p.InterviewFeedback},
	}); err != nil {
		return nil, fmt.Errorf("process %s: %w", id, err)
	}
	return &p, nil
}

// UpdateProcess writes p if the stored version equals expectedVersion and
// sets p.Version to the new version. Returns ErrVersionConflict otherwise.
func (db *DB) UpdateProcess(ctx context.Context, p *types.Process, expectedVersion int64) error {
	cols, err := encodeProcess(p)
	if err != nil {
		return err
	}
	tag, err := db.pool.Exec(ctx,
		`UPDATE processes SET
			title = $3, job_description = $4, owner_id = $5, collaborator_ids = $6,
			stage = $7, interview_plan = $8, candidates_in_process = $9,
			interview_feedback = $10, hired_candidate_id = $11, updated_at = $12,
			version = version + 1
		 WHERE id = $1 AND version = $2`,
		p.ID, expectedVersion, p.Title, p.JobDescription, p.OwnerID, cols.collaborators,
		p.Stage, cols.plan, cols.board, cols.feedback, p.HiredCandidateID, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update process: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.missingOrConflict(ctx, "processes", p.ID)
	}
	p.Version = expectedVersion + 1
	return nil
}

// missingOrConflict tells a deleted row from a stale version after an
// update matched nothing.
func (db *DB) missingOrConflict(ctx context.Context, table, id string) error {
	var exists bool
	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check %s %s: %w", table, id, err)
	}
	if !exists {
		return fmt.Errorf("%s row not found: %s", table, id)
	}
	return ErrVersionConflict
}

type columnTarget struct {
	raw  []byte
	dest any
}

func unmarshalColumns(cols map[string]columnTarget) error {
	for name, c := range cols {
		if len(c.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(c.raw, c.dest); err != nil {
			return fmt.Errorf("failed to unmarshal %s: %w", name, err)
		}
	}
	return nil
}

// marshalOr marshals v, substituting empty for nil values.
func marshalOr(v any, empty string) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		return []byte(empty), nil
	}
	return b, nil
}
