package audit

import (
	"testing"
	"time"

	"github.com/spec-kit/trouble-tickets/internal/domain"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestRecordSkipsNoOpChanges(t *testing.T) {
	rec := NewRecorder(fixedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	reasonID := int64(5)

	rows := rec.Record(1, 10, nil, []Change{
		{Field: domain.FieldStatus, Old: StatusValue(domain.TicketStatusOpen), New: StatusValue(domain.TicketStatusPending)},
		{Field: domain.FieldPendingReason, Old: IDValue(&reasonID), New: IDValue(&reasonID)},
	})
	if len(rows) != 1 {
		t.Fatalf("expected 1 row after no-op suppression, got %d", len(rows))
	}
	if rows[0].Field != domain.FieldStatus {
		t.Fatalf("surviving row should be the status change, got %s", rows[0].Field)
	}
}

func TestRecordNilOldAndNewIsNoOp(t *testing.T) {
	rec := NewRecorder(fixedClock(time.Now()))
	rows := rec.Record(1, 10, nil, []Change{
		{Field: domain.FieldClosingReason, Old: nil, New: nil},
	})
	if len(rows) != 0 {
		t.Fatalf("expected no rows for nil->nil, got %d", len(rows))
	}
}

func TestRecordAlwaysBypassesSuppression(t *testing.T) {
	rec := NewRecorder(fixedClock(time.Now()))
	closed := StatusValue(domain.TicketStatusClosed)
	rows := rec.Record(7, 3, nil, []Change{
		{Field: domain.FieldStatus, Old: closed, New: closed, Always: true},
	})
	if len(rows) != 1 {
		t.Fatalf("forced change must produce a row, got %d", len(rows))
	}
	if rows[0].NewValue == nil || *rows[0].NewValue != "closed" {
		t.Fatalf("unexpected new value %v", rows[0].NewValue)
	}
}

func TestRecordSharesTimestampAndActor(t *testing.T) {
	at := time.Date(2024, 3, 15, 8, 30, 0, 0, time.UTC)
	rec := NewRecorder(fixedClock(at))
	reason := "customer callback"
	oldDue := time.Date(2024, 3, 16, 8, 30, 0, 0, time.UTC)
	newDue := time.Date(2024, 3, 17, 8, 30, 0, 0, time.UTC)
	reasonID := int64(2)

	rows := rec.Record(42, 9, &reason, []Change{
		{Field: domain.FieldStatus, Old: StatusValue(domain.TicketStatusPending), New: StatusValue(domain.TicketStatusInProgress)},
		{Field: domain.FieldSLADueDate, Old: TimestampValue(oldDue), New: TimestampValue(newDue)},
		{Field: domain.FieldPendingReason, Old: IDValue(&reasonID), New: IDValue(nil)},
	})
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	for _, row := range rows {
		if !row.CreatedAt.Equal(at) {
			t.Fatalf("row %s timestamp %s, want %s", row.Field, row.CreatedAt, at)
		}
		if row.ChangedBy != 9 {
			t.Fatalf("row %s actor %d, want 9", row.Field, row.ChangedBy)
		}
		if row.ChangeReason == nil || *row.ChangeReason != reason {
			t.Fatalf("row %s missing change reason", row.Field)
		}
		if row.TicketID != 42 {
			t.Fatalf("row %s ticket %d, want 42", row.Field, row.TicketID)
		}
	}
}

func TestSerializationForms(t *testing.T) {
	id := int64(1234)
	if got := IDValue(&id); got == nil || *got != "1234" {
		t.Fatalf("IDValue(1234)=%v", got)
	}
	if got := IDValue(nil); got != nil {
		t.Fatalf("IDValue(nil)=%v, want nil", got)
	}
	loc := time.FixedZone("UTC+3", 3*3600)
	at := time.Date(2024, 7, 1, 15, 0, 0, 0, loc)
	if got := TimestampValue(at); *got != "2024-07-01T12:00:00Z" {
		t.Fatalf("TimestampValue not normalized to UTC: %s", *got)
	}
	if got := TimeValue(nil); got != nil {
		t.Fatalf("TimeValue(nil)=%v, want nil", got)
	}
	if got := StatusValue(domain.TicketStatusInProgress); *got != "in_progress" {
		t.Fatalf("StatusValue=%s", *got)
	}
}
