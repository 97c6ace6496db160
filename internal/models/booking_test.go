package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveStatus(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		status string
		end    time.Time
		want   string
	}{
		{"confirmed past end reads completed", StatusConfirmed, now.Add(-time.Hour), StatusCompleted},
		{"confirmed future stays confirmed", StatusConfirmed, now.Add(time.Hour), StatusConfirmed},
		{"pending past end stays pending", StatusPending, now.Add(-time.Hour), StatusPending},
		{"cancelled past end stays cancelled", StatusCancelled, now.Add(-time.Hour), StatusCancelled},
		{"end exactly now stays confirmed", StatusConfirmed, now, StatusConfirmed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Booking{Status: tt.status, EndTime: tt.end}
			assert.Equal(t, tt.want, b.EffectiveStatus(now))
		})
	}
}

func TestCanModify(t *testing.T) {
	assert.True(t, CanModify(StatusPending))
	assert.True(t, CanModify(StatusConfirmed))
	assert.False(t, CanModify(StatusCancelled))
	assert.False(t, CanModify(StatusCompleted))
}

func TestWindowOverlaps(t *testing.T) {
	at := func(h int) time.Time { return time.Date(2026, 3, 2, h, 0, 0, 0, time.UTC) }
	base := Window{Start: at(10), End: at(12)}

	tests := []struct {
		name  string
		other Window
		want  bool
	}{
		{"identical", Window{at(10), at(12)}, true},
		{"contained", Window{at(10), at(11)}, true},
		{"straddles start", Window{at(9), at(11)}, true},
		{"straddles end", Window{at(11), at(13)}, true},
		{"ends at start", Window{at(8), at(10)}, false},
		{"starts at end", Window{at(12), at(14)}, false},
		{"disjoint before", Window{at(6), at(8)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.Overlaps(tt.other))
			assert.Equal(t, tt.want, tt.other.Overlaps(base))
		})
	}
}

func TestWindowValid(t *testing.T) {
	at := func(h int) time.Time { return time.Date(2026, 3, 2, h, 0, 0, 0, time.UTC) }
	assert.True(t, Window{at(10), at(11)}.Valid())
	assert.False(t, Window{at(10), at(10)}.Valid())
	assert.False(t, Window{at(11), at(10)}.Valid())
}
