package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonathan/hiring-pipeline/internal/types"
)

// GetStrategicContext retrieves the context singleton. Returns nil, nil if it
// has never been written.
func (db *DB) GetStrategicContext(ctx context.Context) (*types.StrategicContext, error) {
	var sc types.StrategicContext
	var values []byte
	err := db.pool.QueryRow(ctx,
		`SELECT strategic_vision, company_mission, core_values, communication_tone, updated_at
		 FROM strategic_context WHERE id = 1`,
	).Scan(&sc.StrategicVision, &sc.CompanyMission, &values, &sc.CommunicationTone, &sc.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get strategic context: %w", err)
	}
	if len(values) > 0 {
		if err := json.Unmarshal(values, &sc.CoreValues); err != nil {
			return nil, fmt.Errorf("failed to unmarshal core values: %w", err)
		}
	}
	return &sc, nil
}

// UpsertStrategicContext replaces the context singleton and returns it.
func (db *DB) UpsertStrategicContext(ctx context.Context, sc *types.StrategicContext) (*types.StrategicContext, error) {
	values, err := marshalOr(sc.CoreValues, "[]")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal core values: %w", err)
	}
	_, err = db.pool.Exec(ctx,
		`INSERT INTO strategic_context (id, strategic_vision, company_mission, core_values, communication_tone, updated_at)
		 VALUES (1, $1, $2, $3, $4, COALESCE($5, NOW()))
		 ON CONFLICT (id) DO UPDATE SET
			strategic_vision = $1, company_mission = $2, core_values = $3,
			communication_tone = $4, updated_at = COALESCE($5, NOW())`,
		sc.StrategicVision, sc.CompanyMission, values, sc.CommunicationTone, sc.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save strategic context: %w", err)
	}
	return db.GetStrategicContext(ctx)
}
