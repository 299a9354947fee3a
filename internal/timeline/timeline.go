// Package timeline implements the moment and span arithmetic used by the
// scheduler: a Time is a point on the project's time axis measured from the
// project origin, a Duration is a non-negative span. Both are kept in whole
// minutes, so (1h, 60m) and (2h, 0m) are the same value and compare equal
// with ==.
package timeline

import (
	"errors"
	"fmt"
)

var (
	// ErrNegativeTime is returned when an operation would move a Time before
	// the project origin.
	ErrNegativeTime = errors.New("negative time")
	// ErrNegativeDuration is returned when an operation would produce a
	// negative span.
	ErrNegativeDuration = errors.New("negative duration")
	// ErrOutOfRange is returned when a value would exceed MaxMinutes.
	ErrOutOfRange = errors.New("out of range")
)

const minutesPerHour = 60

// MaxMinutes bounds every Duration and Time a constructor or parser hands
// out. Sums of bounded values stay far away from int64 overflow.
const MaxMinutes int64 = 1 << 40

// Duration is a non-negative span of time with minute resolution.
type Duration struct {
	mins int64
}

// Time is a point on the project time axis. The zero value is the origin.
type Time struct {
	mins int64
}

// Zero is the project origin.
var Zero Time

// NewDuration returns hours+minutes as a Duration. Minutes outside [0,60)
// carry into hours.
func NewDuration(hours, minutes int) (Duration, error) {
	total, err := combine(hours, minutes)
	if err != nil {
		return Duration{}, fmt.Errorf("duration %dh %dm: %w", hours, minutes, err)
	}
	if total < 0 {
		return Duration{}, fmt.Errorf("%w: %dh %dm", ErrNegativeDuration, hours, minutes)
	}
	return Duration{mins: total}, nil
}

// combine returns hours*60+minutes, rejecting parts or totals beyond
// MaxMinutes in either direction before any multiplication happens.
func combine(hours, minutes int) (int64, error) {
	h, m := int64(hours), int64(minutes)
	if h > MaxMinutes/minutesPerHour || h < -MaxMinutes/minutesPerHour ||
		m > MaxMinutes || m < -MaxMinutes {
		return 0, ErrOutOfRange
	}
	total := h*minutesPerHour + m
	if total > MaxMinutes {
		return 0, ErrOutOfRange
	}
	return total, nil
}

// MustDuration is like NewDuration but panics on a negative span. It is meant
// for literals.
func MustDuration(hours, minutes int) Duration {
	d, err := NewDuration(hours, minutes)
	if err != nil {
		panic(err)
	}
	return d
}

// Hours returns a Duration of n whole hours.
func Hours(n int) Duration { return MustDuration(n, 0) }

// Minutes returns a Duration of n minutes.
func Minutes(n int) Duration { return MustDuration(0, n) }

// FromMinutes converts a total minute count.
func FromMinutes(total int64) (Duration, error) {
	if total < 0 {
		return Duration{}, fmt.Errorf("%w: %d minutes", ErrNegativeDuration, total)
	}
	if total > MaxMinutes {
		return Duration{}, fmt.Errorf("%w: %d minutes", ErrOutOfRange, total)
	}
	return Duration{mins: total}, nil
}

// Hours returns the whole-hour part of d.
func (d Duration) Hours() int { return int(d.mins / minutesPerHour) }

// Minutes returns the minute part of d, always in [0,60).
func (d Duration) Minutes() int { return int(d.mins % minutesPerHour) }

// TotalMinutes returns d expressed in minutes.
func (d Duration) TotalMinutes() int64 { return d.mins }

// IsZero reports whether d is the empty span.
func (d Duration) IsZero() bool { return d.mins == 0 }

// Add returns d+o. Operands within MaxMinutes cannot overflow; Sum checks
// longer chains.
func (d Duration) Add(o Duration) Duration { return Duration{mins: d.mins + o.mins} }

// Sub returns d-o, failing when o is longer than d.
func (d Duration) Sub(o Duration) (Duration, error) {
	if o.mins > d.mins {
		return Duration{}, fmt.Errorf("%w: %s - %s", ErrNegativeDuration, d, o)
	}
	return Duration{mins: d.mins - o.mins}, nil
}

// Scale returns d multiplied by k, failing with ErrOutOfRange when the
// product exceeds MaxMinutes.
func (d Duration) Scale(k uint) (Duration, error) {
	if d.mins == 0 || k == 0 {
		return Duration{}, nil
	}
	if uint64(k) > uint64(MaxMinutes/d.mins) {
		return Duration{}, fmt.Errorf("%w: %s x %d", ErrOutOfRange, d, k)
	}
	return Duration{mins: d.mins * int64(k)}, nil
}

// Sum adds ds, failing with ErrOutOfRange as soon as the running total
// exceeds MaxMinutes.
func Sum(ds ...Duration) (Duration, error) {
	var total int64
	for _, d := range ds {
		if d.mins > MaxMinutes-total {
			return Duration{}, fmt.Errorf("%w: sum of %d durations", ErrOutOfRange, len(ds))
		}
		total += d.mins
	}
	return Duration{mins: total}, nil
}

// Compare returns -1, 0 or +1 depending on whether d is shorter than, equal
// to or longer than o.
func (d Duration) Compare(o Duration) int { return cmp(d.mins, o.mins) }

// Less reports whether d is shorter than o.
func (d Duration) Less(o Duration) bool { return d.mins < o.mins }

// String renders d as "3h 05m".
func (d Duration) String() string {
	return fmt.Sprintf("%dh %02dm", d.Hours(), d.Minutes())
}

// MaxDuration returns the longer of a and b.
func MaxDuration(a, b Duration) Duration {
	if a.mins >= b.mins {
		return a
	}
	return b
}

// NewTime returns the moment hours:minutes after the origin.
func NewTime(hours, minutes int) (Time, error) {
	total, err := combine(hours, minutes)
	if err != nil {
		return Time{}, fmt.Errorf("time %dh %dm: %w", hours, minutes, err)
	}
	if total < 0 {
		return Time{}, fmt.Errorf("%w: %dh %dm", ErrNegativeTime, hours, minutes)
	}
	return Time{mins: total}, nil
}

// MustTime is like NewTime but panics on a negative moment.
func MustTime(hours, minutes int) Time {
	t, err := NewTime(hours, minutes)
	if err != nil {
		panic(err)
	}
	return t
}

// At returns the moment d after the origin.
func At(d Duration) Time { return Time{mins: d.mins} }

// Hours returns the whole-hour part of t.
func (t Time) Hours() int { return int(t.mins / minutesPerHour) }

// Minutes returns the minute part of t, always in [0,60).
func (t Time) Minutes() int { return int(t.mins % minutesPerHour) }

// TotalMinutes returns t expressed in minutes since the origin.
func (t Time) TotalMinutes() int64 { return t.mins }

// IsZero reports whether t is the origin.
func (t Time) IsZero() bool { return t.mins == 0 }

// Add returns t moved forward by d. Operands within MaxMinutes cannot
// overflow.
func (t Time) Add(d Duration) Time { return Time{mins: t.mins + d.mins} }

// Sub returns t moved back by d. It fails with ErrNegativeTime when d reaches
// past the origin.
func (t Time) Sub(d Duration) (Time, error) {
	if d.mins > t.mins {
		return Time{}, fmt.Errorf("%w: %s - %s", ErrNegativeTime, t, d)
	}
	return Time{mins: t.mins - d.mins}, nil
}

// Diff returns the span from u to t. It fails with ErrNegativeDuration when u
// is after t.
func (t Time) Diff(u Time) (Duration, error) {
	if u.mins > t.mins {
		return Duration{}, fmt.Errorf("%w: %s - %s", ErrNegativeDuration, t, u)
	}
	return Duration{mins: t.mins - u.mins}, nil
}

// Since returns the span between the origin and t.
func (t Time) Since() Duration { return Duration{mins: t.mins} }

// Compare returns -1, 0 or +1 depending on whether t is before, equal to or
// after u.
func (t Time) Compare(u Time) int { return cmp(t.mins, u.mins) }

// Before reports whether t is strictly before u.
func (t Time) Before(u Time) bool { return t.mins < u.mins }

// After reports whether t is strictly after u.
func (t Time) After(u Time) bool { return t.mins > u.mins }

// String renders t as a clock reading, "3:05". Hours are not wrapped at 24.
func (t Time) String() string {
	return fmt.Sprintf("%d:%02d", t.Hours(), t.Minutes())
}

// MaxTime returns the later of a and b.
func MaxTime(a, b Time) Time {
	if a.mins >= b.mins {
		return a
	}
	return b
}

// MinTime returns the earlier of a and b.
func MinTime(a, b Time) Time {
	if a.mins <= b.mins {
		return a
	}
	return b
}

func cmp(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
