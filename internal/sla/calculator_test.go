package sla

import (
	"testing"
	"time"
)

func TestDueDate(t *testing.T) {
	tests := []struct {
		name     string
		ref      string
		slaHours int
		want     string
	}{
		{"oneDay", "2024-01-01T00:00:00Z", 24, "2024-01-02T00:00:00Z"},
		{"twoDays", "2024-01-01T12:30:00Z", 48, "2024-01-03T12:30:00Z"},
		{"singleHour", "2024-06-15T23:15:00Z", 1, "2024-06-16T00:15:00Z"},
		{"crossesDSTBoundaryAsFixedDuration", "2024-03-30T12:00:00Z", 24, "2024-03-31T12:00:00Z"},
		{"crossesYear", "2023-12-31T20:00:00Z", 8, "2024-01-01T04:00:00Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := time.Parse(time.RFC3339, tt.ref)
			if err != nil {
				t.Fatalf("parse ref: %v", err)
			}
			want, err := time.Parse(time.RFC3339, tt.want)
			if err != nil {
				t.Fatalf("parse want: %v", err)
			}
			if got := DueDate(ref, tt.slaHours); !got.Equal(want) {
				t.Fatalf("DueDate(%s, %d)=%s want %s", tt.ref, tt.slaHours, got.Format(time.RFC3339), tt.want)
			}
		})
	}
}

func TestDueDateDeterministic(t *testing.T) {
	ref := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	first := DueDate(ref, 72)
	for i := 0; i < 10; i++ {
		if got := DueDate(ref, 72); !got.Equal(first) {
			t.Fatalf("DueDate not deterministic: %s vs %s", got, first)
		}
	}
}
