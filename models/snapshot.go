package models

import "time"

// TimestampLayout is the layout of TrendSnapshot.Timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

// TrendSnapshot is the state of the trending list at one capture.
// Topics are kept in on-page display order and never re-sorted.
type TrendSnapshot struct {
	UniqueID  string    `json:"unique_id"`
	Topics    []string  `json:"trending_topics"`
	Timestamp string    `json:"timestamp"`
	IPAddress string    `json:"ip_address"`
	CaptureAt time.Time `json:"-"`
}

// SnapshotRecord is a TrendSnapshot after the sink stamped it with its
// storage-assigned identifier.
type SnapshotRecord struct {
	TrendSnapshot
	ID string `json:"_id"`
}
