package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidTime = errors.New("invalid time")

// ParseHHMM validates a "HH:MM" time-of-day string and returns it in
// canonical zero-padded form.
func ParseHHMM(s string) (string, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("%w: expected HH:MM", ErrInvalidTime)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return "", fmt.Errorf("%w: bad hour", ErrInvalidTime)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return "", fmt.Errorf("%w: bad minute", ErrInvalidTime)
	}
	return fmt.Sprintf("%02d:%02d", h, m), nil
}

// SplitHHMM returns the hour and minute of an already validated "HH:MM".
func SplitHHMM(s string) (hour, minute int) {
	parts := strings.SplitN(s, ":", 2)
	hour, _ = strconv.Atoi(parts[0])
	minute, _ = strconv.Atoi(parts[1])
	return hour, minute
}
