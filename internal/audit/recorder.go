// Package audit turns intended ticket mutations into immutable history rows.
package audit

import (
	"strconv"
	"time"

	"github.com/spec-kit/trouble-tickets/internal/domain"
)

// Change describes one intended field mutation. Old and New hold canonical
// string serializations produced by the helpers below.
type Change struct {
	Field domain.TicketField
	Old   *string
	New   *string
	// Always forces a row even when Old equals New. Closure re-recording
	// relies on this: re-closing a closed ticket appends a fresh status row.
	Always bool
}

// Recorder builds history rows from change sets. The clock is injectable so
// tests can pin timestamps.
type Recorder struct {
	now func() time.Time
}

// NewRecorder constructs a Recorder. A nil clock falls back to time.Now.
func NewRecorder(now func() time.Time) *Recorder {
	if now == nil {
		now = time.Now
	}
	return &Recorder{now: now}
}

// Record produces one history row per effective change for a single
// mutation. Entries whose old and new values match are dropped unless marked
// Always; all surviving rows share one timestamp so the batch reads as a
// single mutation in the timeline.
func (r *Recorder) Record(ticketID, actorID int64, reason *string, changes []Change) []domain.TicketHistory {
	ts := r.now().UTC()
	rows := make([]domain.TicketHistory, 0, len(changes))
	for _, ch := range changes {
		if !ch.Always && equalValue(ch.Old, ch.New) {
			continue
		}
		rows = append(rows, domain.TicketHistory{
			TicketID:     ticketID,
			ChangedBy:    actorID,
			Field:        ch.Field,
			OldValue:     ch.Old,
			NewValue:     ch.New,
			ChangeReason: reason,
			CreatedAt:    ts,
		})
	}
	return rows
}

func equalValue(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// StatusValue serializes a status to its tag.
func StatusValue(s domain.TicketStatus) *string {
	v := string(s)
	return &v
}

// IDValue serializes an optional reference ID to its decimal form.
func IDValue(id *int64) *string {
	if id == nil {
		return nil
	}
	v := strconv.FormatInt(*id, 10)
	return &v
}

// TimeValue serializes an optional timestamp to ISO-8601 in UTC.
func TimeValue(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := t.UTC().Format(time.RFC3339)
	return &v
}

// TimestampValue serializes a required timestamp to ISO-8601 in UTC.
func TimestampValue(t time.Time) *string {
	v := t.UTC().Format(time.RFC3339)
	return &v
}
