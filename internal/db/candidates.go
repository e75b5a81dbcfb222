package db

import (
	"context"
	"fmt"

	"github.com/jonathan/hiring-pipeline/internal/types"
)

const candidateColumns = `id, full_name, title, email, phone, location, status, resume_text,
	cv_file_path, metadata, history, current_process_id, version, created_at, updated_at`

// CreateCandidate inserts a new candidate at version 0.
func (db *DB) CreateCandidate(ctx context.Context, c *types.Candidate) error {
	metadata, err := marshalOr(c.Metadata, "{}")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	history, err := marshalOr(c.History, "[]")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	c.Version = 0
	_, err = db.pool.Exec(ctx,
		`INSERT INTO candidates (`+candidateColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 0, $13, $14)`,
		c.ID, c.FullName, c.Title, c.Email, c.Phone, c.Location, string(c.Status), c.ResumeText,
		c.CVFilePath, metadata, history, c.CurrentProcessID, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert candidate: %w", err)
	}
	return nil
}

// GetCandidate retrieves a candidate by ID. Returns nil, nil if not found.
func (db *DB) GetCandidate(ctx context.Context, id string) (*types.Candidate, error) {
	var c types.Candidate
	var status string
	var metadata, history []byte
	err := db.pool.QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE id = $1`, id,
	).Scan(&c.ID, &c.FullName, &c.Title, &c.Email, &c.Phone, &c.Location, &status, &c.ResumeText,
		&c.CVFilePath, &metadata, &history, &c.CurrentProcessID, &c.Version, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get candidate: %w", err)
	}
	c.Status = types.CandidateStatus(status)

	if err := unmarshalColumns(map[string]columnTarget{
		"metadata": {metadata, &c.Metadata},
		"history":  {history, &c.History},
	}); err != nil {
		return nil, fmt.Errorf("candidate %s: %w", id, err)
	}
	return &c, nil
}

// UpdateCandidate writes c if the stored version equals expectedVersion and
// sets c.Version to the new version. Returns ErrVersionConflict otherwise.
func (db *DB) UpdateCandidate(ctx context.Context, c *types.Candidate, expectedVersion int64) error {
	metadata, err := marshalOr(c.Metadata, "{}")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	history, err := marshalOr(c.History, "[]")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	tag, err := db.pool.Exec(ctx,
		`UPDATE candidates SET
			full_name = $3, title = $4, email = $5, phone = $6, location = $7,
			status = $8, resume_text = $9, cv_file_path = $10, metadata = $11,
			history = $12, current_process_id = $13, updated_at = $14,
			version = version + 1
		 WHERE id = $1 AND version = $2`,
		c.ID, expectedVersion, c.FullName, c.Title, c.Email, c.Phone, c.Location,
		string(c.Status), c.ResumeText, c.CVFilePath, metadata, history,
		c.CurrentProcessID, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update candidate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.missingOrConflict(ctx, "candidates", c.ID)
	}
	c.Version = expectedVersion + 1
	return nil
}
