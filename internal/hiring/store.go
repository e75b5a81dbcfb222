// Package hiring orchestrates mutations of hiring processes and candidates:
// the transition controller used by human actors and the sync path used by
// the external analysis worker.
package hiring

import (
	"context"

	"github.com/jonathan/hiring-pipeline/internal/types"
)

// Store is the entity store. Get methods return (nil, nil) for missing
// records. Update methods are compare-and-swap: they apply only when the
// stored version equals expectedVersion, bump the version on success and
// return db.ErrVersionConflict otherwise.
type Store interface {
	CreateProcess(ctx context.Context, p *types.Process) error
	GetProcess(ctx context.Context, id string) (*types.Process, error)
	UpdateProcess(ctx context.Context, p *types.Process, expectedVersion int64) error

	CreateCandidate(ctx context.Context, c *types.Candidate) error
	GetCandidate(ctx context.Context, id string) (*types.Candidate, error)
	UpdateCandidate(ctx context.Context, c *types.Candidate, expectedVersion int64) error

	GetStrategicContext(ctx context.Context) (*types.StrategicContext, error)
	UpsertStrategicContext(ctx context.Context, sc *types.StrategicContext) (*types.StrategicContext, error)
}

// Notifier tells the analysis worker that a resume is waiting. Delivery is
// at most once.
type Notifier interface {
	Notify(ctx context.Context, candidateID, cvFilePath string) error
}

// DocumentStore persists uploaded resume documents and returns the path
// the analysis worker should read from. Remove deletes a saved document.
type DocumentStore interface {
	Save(ctx context.Context, fileName string, data []byte) (string, error)
	Remove(ctx context.Context, path string) error
}
