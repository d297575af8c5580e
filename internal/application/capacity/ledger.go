// Package capacity derives how many participants an event has admitted.
package capacity

import (
	"context"
	"fmt"

	"github.com/explore-with-me/ewm-service/internal/domain/event"
	"github.com/explore-with-me/ewm-service/internal/domain/request"
)

// Ledger counts CONFIRMED requests. Callers that admit participants must use
// it inside the event lock scope that also performs the confirming write.
type Ledger struct {
	requests request.Repository
}

func NewLedger(requests request.Repository) *Ledger {
	return &Ledger{requests: requests}
}

// ConfirmedCount returns the number of CONFIRMED requests for eventID.
func (l *Ledger) ConfirmedCount(ctx context.Context, eventID int64) (int, error) {
	n, err := l.requests.CountByEventAndStatus(ctx, eventID, request.StatusConfirmed)
	if err != nil {
		return 0, fmt.Errorf("count confirmed requests: %w", err)
	}
	return n, nil
}

// HasCapacity reports whether ev can admit one more participant.
func (l *Ledger) HasCapacity(ctx context.Context, ev *event.Event) (bool, error) {
	if !ev.HasLimit() {
		return true, nil
	}
	n, err := l.ConfirmedCount(ctx, ev.ID)
	if err != nil {
		return false, err
	}
	return n < ev.ParticipantLimit, nil
}

// ConfirmedCounts returns confirmed counts for many events, zero included.
func (l *Ledger) ConfirmedCounts(ctx context.Context, eventIDs []int64) (map[int64]int, error) {
	if len(eventIDs) == 0 {
		return map[int64]int{}, nil
	}
	counts, err := l.requests.CountConfirmedByEvents(ctx, eventIDs)
	if err != nil {
		return nil, fmt.Errorf("count confirmed requests: %w", err)
	}
	out := make(map[int64]int, len(eventIDs))
	for _, id := range eventIDs {
		out[id] = counts[id]
	}
	return out, nil
}
