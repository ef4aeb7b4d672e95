package models

import "time"

// UnixMilliToTime converts Unix milliseconds to time.Time, mapping 0 to the zero time.
func UnixMilliToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// TimeToUnixMilli converts t to Unix milliseconds, mapping the zero time to 0.
func TimeToUnixMilli(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
