package timeline

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// 1:30, 12:05
	clockRegex = regexp.MustCompile(`^(\d+):([0-5]\d)$`)
	// 3h, 2h30m, 2h 05m, 45m, 45min
	unitRegex = regexp.MustCompile(`^(?:(\d+)\s*h)?\s*(?:(\d+)\s*m(?:in)?)?$`)
	// bare hour count
	bareRegex = regexp.MustCompile(`^\d+$`)
)

// ParseDuration parses "3h", "2h30m", "2h 05m", "45m", "1:30" or a bare hour
// count such as "3".
func ParseDuration(s string) (Duration, error) {
	mins, err := parseMinutes(s)
	if err != nil {
		return Duration{}, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return Duration{mins: mins}, nil
}

// ParseTime parses a moment in the same forms as ParseDuration; "8:00" is
// eight hours after the origin.
func ParseTime(s string) (Time, error) {
	mins, err := parseMinutes(s)
	if err != nil {
		return Time{}, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return Time{mins: mins}, nil
}

func parseMinutes(raw string) (int64, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	if strings.HasPrefix(s, "-") {
		return 0, ErrNegativeDuration
	}

	var hours, mins string
	if bareRegex.MatchString(s) {
		hours = s
	} else if m := clockRegex.FindStringSubmatch(s); m != nil {
		hours, mins = m[1], m[2]
	} else if m := unitRegex.FindStringSubmatch(s); m != nil && (m[1] != "" || m[2] != "") {
		hours, mins = m[1], m[2]
	} else {
		return 0, fmt.Errorf("expected forms like 3h, 2h30m, 45m or 1:30")
	}

	var total int64
	if hours != "" {
		h, err := parsePart(hours, MaxMinutes/minutesPerHour)
		if err != nil {
			return 0, err
		}
		total = h * minutesPerHour
	}
	if mins != "" {
		m, err := parsePart(mins, MaxMinutes-total)
		if err != nil {
			return 0, err
		}
		total += m
	}
	return total, nil
}

// parsePart parses a run of digits no larger than limit.
func parsePart(digits string, limit int64) (int64, error) {
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n > limit {
		return 0, fmt.Errorf("%w: %s", ErrOutOfRange, digits)
	}
	return n, nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.compact()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (t Time) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Time) UnmarshalText(text []byte) error {
	parsed, err := ParseTime(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// compact renders d in the shortest form ParseDuration accepts: "3h",
// "45m", "2h30m", "0m".
func (d Duration) compact() string {
	h, m := d.Hours(), d.Minutes()
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh%02dm", h, m)
	}
}

// Format renders d using the named style: "clock" gives "3:05", "compact"
// gives "3h05m", anything else the default "3h 05m".
func (d Duration) Format(style string) string {
	switch style {
	case "clock":
		return At(d).String()
	case "compact":
		return d.compact()
	}
	return d.String()
}
