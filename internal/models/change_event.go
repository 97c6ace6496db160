package models

import "time"

const (
	OpInsert = "INSERT"
	OpUpdate = "UPDATE"
	OpDelete = "DELETE"
)

// ChangeEvent is a row-level change delivered by the backing store's change
// feed. On DELETE the payload may carry only the row key; non-key fields
// (including user ownership) cannot be relied on.
type ChangeEvent struct {
	Op     string    `json:"op"`
	Row    *Booking  `json:"row,omitempty"`
	OldRow *Booking  `json:"old_row,omitempty"`
	At     time.Time `json:"at"`
}

// RowID returns the booking id the event refers to, preferring the new row.
func (e ChangeEvent) RowID() int64 {
	if e.Row != nil && e.Row.ID != 0 {
		return e.Row.ID
	}
	if e.OldRow != nil {
		return e.OldRow.ID
	}
	return 0
}
