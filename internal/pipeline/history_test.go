package pipeline

import (
	"testing"
	"time"

	"github.com/jonathan/hiring-pipeline/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendHistory(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	events := []types.HistoryEvent{
		types.NewCVUploadEvent("r1", "tmp/uploads/cv.pdf", now),
		types.NewStatusChangeEvent("p1", types.StatusActive, now.Add(time.Minute)),
		types.NewInterviewFeedbackEvent("p1", "onsite", "i1", intPtr(4), "Strong", now.Add(2*time.Minute)),
		types.NewAIUpdateEvent(map[string]any{"status": "ACTIVE"}, now.Add(3*time.Minute)),
	}

	var history []types.HistoryEvent
	for i, ev := range events {
		prev := history
		next, err := AppendHistory(history, ev)
		require.NoError(t, err)
		require.Len(t, next, i+1)
		assert.Equal(t, ev, next[len(next)-1], "appended at the tail")
		if len(prev) > 0 {
			assert.Equal(t, prev, next[:len(prev)], "prior entries unchanged")
		}
		history = next
	}
}

func TestAppendHistory_NeverShrinks(t *testing.T) {
	ev := types.NewStatusChangeEvent("p1", types.StatusActive, time.Now())
	history, err := AppendHistory(nil, ev)
	require.NoError(t, err)

	// Replaying the same event grows the ledger; it never deduplicates.
	history, err = AppendHistory(history, ev)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	history, err = AppendHistory(history, types.HistoryEvent{Type: "mystery"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Len(t, history, 2, "rejected event leaves the ledger as it was")
}

func TestAppendHistory_DoesNotAliasInput(t *testing.T) {
	now := time.Now()
	base := make([]types.HistoryEvent, 1, 4)
	base[0] = types.NewStatusChangeEvent("p1", types.StatusActive, now)

	a, err := AppendHistory(base, types.NewStatusChangeEvent("p1", types.StatusOnHold, now))
	require.NoError(t, err)
	b, err := AppendHistory(base, types.NewStatusChangeEvent("p1", types.StatusRejected, now))
	require.NoError(t, err)

	assert.Equal(t, types.StatusOnHold, a[1].Status)
	assert.Equal(t, types.StatusRejected, b[1].Status)
}
