package hiring

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"github.com/jonathan/hiring-pipeline/internal/db"
)

// DefaultMaxWriteAttempts bounds the read-merge-write cycles of one operation.
const DefaultMaxWriteAttempts = 30

const (
	minConflictBackoff = 2 * time.Millisecond
	maxConflictBackoff = 500 * time.Millisecond
)

// retryOnConflict runs cycle until it returns anything other than a version
// conflict. cycle must re-read the record on every call. There is no
// guarantee a writer ever wins a round, so the wait between attempts grows
// exponentially to thin out contention until attempts run out.
func retryOnConflict(ctx context.Context, attempts int, op string, cycle func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 1; ; attempt++ {
		err := cycle()
		if !errors.Is(err, db.ErrVersionConflict) {
			return err
		}
		if attempt >= attempts {
			log.Printf("[%s] giving up after %d conflicting writes", op, attempt)
			return fmt.Errorf("%w: %s after %d attempts", ErrConflict, op, attempt)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(conflictBackoff(attempt)):
		}
	}
}

// conflictBackoff doubles from minConflictBackoff up to maxConflictBackoff
// and waits a random duration between half and all of it.
func conflictBackoff(attempt int) time.Duration {
	d := maxConflictBackoff
	if shift := attempt - 1; shift < 16 {
		d = min(minConflictBackoff<<shift, maxConflictBackoff)
	}
	half := d / 2
	return half + rand.N(half+1)
}
