// Package utils provides utility functions for the application.
package utils

import (
	"time"
)

// NowMillis returns the current UTC time as Unix milliseconds.
// All record timestamps in the sync protocol use this representation
// to match what clients produce with Date.now().
func NowMillis() int64 {
	return time.Now().UTC().UnixMilli()
}

// NowMillisPtr returns a pointer to the current Unix millisecond timestamp
func NowMillisPtr() *int64 {
	now := NowMillis()
	return &now
}

// MillisToTime converts a Unix millisecond timestamp to a UTC time.Time
func MillisToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// TimeToMillis converts a time.Time to Unix milliseconds
func TimeToMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

// MillisAdd returns the given millisecond timestamp shifted by a duration
func MillisAdd(ms int64, d time.Duration) int64 {
	return ms + d.Milliseconds()
}

// UTCNow returns the current time in UTC
func UTCNow() time.Time {
	return time.Now().UTC()
}

// UTCNowRFC3339 returns the current UTC time in RFC3339 format
func UTCNowRFC3339() string {
	return UTCNow().Format(time.RFC3339)
}
