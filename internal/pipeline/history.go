package pipeline

import "github.com/jonathan/hiring-pipeline/internal/types"

// AppendHistory returns history with event added at the tail. Prior entries
// are copied, never modified or reordered. An invalid event leaves history
// as it was.
func AppendHistory(history []types.HistoryEvent, event types.HistoryEvent) ([]types.HistoryEvent, error) {
	if err := event.Validate(); err != nil {
		return history, &InputError{Field: "history", Message: err.Error()}
	}
	out := make([]types.HistoryEvent, len(history), len(history)+1)
	copy(out, history)
	return append(out, event), nil
}
