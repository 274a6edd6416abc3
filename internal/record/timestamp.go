package record

import (
	"fmt"
	"time"
)

const (
	nanosPerMilli  = int64(time.Millisecond)
	nanosPerSecond = int64(time.Second)
	millisPerSec   = 1000
)

// Timestamp is the stored fixed-point form of a point in time. Nanos is in
// (-1e9, 1e9) and carries the same sign as Seconds, so -1ms is {0, -1000000}.
type Timestamp struct {
	Seconds int64
	Nanos   int32
}

// TimestampFromMillis converts milliseconds since the epoch. For every int64 m,
// TimestampFromMillis(m).Millis() == m.
func TimestampFromMillis(ms int64) Timestamp {
	return Timestamp{
		Seconds: ms / millisPerSec,
		Nanos:   int32((ms % millisPerSec) * nanosPerMilli),
	}
}

// Millis converts back to milliseconds since the epoch; sub-millisecond nanos
// truncate toward zero, matching the sign convention of Nanos.
func (t Timestamp) Millis() int64 {
	return t.Seconds*millisPerSec + int64(t.Nanos)/nanosPerMilli
}

// TimestampFromTime converts t at full nanosecond resolution.
func TimestampFromTime(t time.Time) Timestamp {
	sec, nsec := t.Unix(), int64(t.Nanosecond())
	if sec < 0 && nsec > 0 {
		sec++
		nsec -= nanosPerSecond
	}
	return Timestamp{Seconds: sec, Nanos: int32(nsec)}
}

func (t Timestamp) Time() time.Time {
	return time.Unix(t.Seconds, int64(t.Nanos)).UTC()
}

// Valid reports whether t is in canonical form.
func (t Timestamp) Valid() bool {
	n := int64(t.Nanos)
	if n <= -nanosPerSecond || n >= nanosPerSecond {
		return false
	}
	return !(t.Seconds > 0 && n < 0) && !(t.Seconds < 0 && n > 0)
}

func (t Timestamp) String() string {
	return fmt.Sprintf("%d.%09d", t.Seconds, abs32(t.Nanos))
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
