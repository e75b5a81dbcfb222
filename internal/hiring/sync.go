package hiring

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log"

	"github.com/jonathan/hiring-pipeline/internal/pipeline"
	"github.com/jonathan/hiring-pipeline/internal/schemas"
	"github.com/jonathan/hiring-pipeline/internal/types"
)

// Syncer applies status and analysis updates posted by the external analysis
// worker. It authenticates with a shared secret instead of a user principal.
type Syncer struct {
	store  Store
	secret string
	opts   Options
}

// NewSyncer creates a Syncer. An empty secret rejects every callback.
func NewSyncer(store Store, secret string, opts Options) *Syncer {
	opts.normalize()
	return &Syncer{store: store, secret: secret, opts: opts}
}

// Authenticate compares the presented key to the configured secret in
// constant time.
func (s *Syncer) Authenticate(presented string) error {
	if s.secret == "" || presented == "" {
		return ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(presented), []byte(s.secret)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// Apply validates a raw callback body and merges it into the candidate.
// The candidate's global status becomes the supplied status, or ACTIVE when
// none is supplied. An unrecognized status leaves the current one in place;
// the rest of the callback is still merged.
func (s *Syncer) Apply(ctx context.Context, apiKey string, body []byte) (*types.Candidate, error) {
	if err := s.Authenticate(apiKey); err != nil {
		return nil, err
	}

	if err := schemas.ValidateAnalysisCallback(body); err != nil {
		return nil, invalid("", err.Error())
	}
	var cb types.AnalysisCallback
	if err := json.Unmarshal(body, &cb); err != nil {
		return nil, invalid("", "invalid JSON body")
	}
	if cb.CandidateID == "" {
		return nil, invalid("candidateId", "is required")
	}

	status, keepStatus := types.StatusActive, false
	if cb.Status != nil && *cb.Status != "" {
		if parsed, ok := s.opts.Statuses.Recognize(*cb.Status); ok {
			status = parsed
		} else {
			keepStatus = true
			log.Printf("[sync] candidate %s: ignoring unrecognized status %q", cb.CandidateID, *cb.Status)
		}
	}

	now := s.opts.Now()
	event := types.NewAIUpdateEvent(callbackPayload(&cb), now)

	var updated *types.Candidate
	err := mutateCandidate(ctx, s.store, s.opts.MaxWriteAttempts, cb.CandidateID, func(c *types.Candidate) error {
		history, err := pipeline.AppendHistory(c.History, event)
		if err != nil {
			return fromPipeline(err)
		}
		c.History = history
		c.Metadata = mergeMetadata(c.Metadata, &cb)
		if cb.ResumeText != nil {
			text := *cb.ResumeText
			c.ResumeText = &text
		}
		if !keepStatus {
			c.Status = status
		}
		c.UpdatedAt = now
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[sync] candidate %s -> %s", cb.CandidateID, updated.Status)
	return updated, nil
}

// mergeMetadata sets aiAnalysis and parsedData only when supplied; other
// keys, and earlier values of the two when absent, are preserved.
func mergeMetadata(existing map[string]any, cb *types.AnalysisCallback) map[string]any {
	out := make(map[string]any, len(existing)+2)
	for k, v := range existing {
		out[k] = v
	}
	if cb.Analysis != nil {
		out["aiAnalysis"] = cb.Analysis
	}
	if cb.ParsedData != nil {
		out["parsedData"] = cb.ParsedData
	}
	return out
}

// callbackPayload records the callback as received. Absent fields are kept
// as explicit nulls.
func callbackPayload(cb *types.AnalysisCallback) map[string]any {
	payload := map[string]any{"status": nil, "parsedData": nil, "analysis": nil}
	if cb.Status != nil {
		payload["status"] = *cb.Status
	}
	if cb.ParsedData != nil {
		payload["parsedData"] = cb.ParsedData
	}
	if cb.Analysis != nil {
		payload["analysis"] = cb.Analysis
	}
	return payload
}
