package history

import "time"

// NormalizeMillis converts a millisecond epoch timestamp to RFC 3339 UTC.
// Negative values (pre-1970) are formatted the same way.
func NormalizeMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339Nano)
}

// LatestTimestamp returns the lexicographically larger of two RFC 3339
// timestamps, treating the empty string as the minimum.
func LatestTimestamp(a, b string) string {
	if b > a {
		return b
	}
	return a
}
