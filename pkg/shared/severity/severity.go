// Package severity defines the risk tier attached to each port finding.
//
// The set is closed: low, medium, high, critical. Values received from the
// model outside this set are rejected by Parse rather than normalized.
package severity

import (
	"encoding/json"
	"fmt"
)

// Level represents the risk tier of a single port vulnerability.
type Level string

const (
	// Critical - immediate action required.
	Critical Level = "critical"

	// High - should be addressed urgently.
	High Level = "high"

	// Medium - address in the normal maintenance cycle.
	Medium Level = "medium"

	// Low - minor exposure.
	Low Level = "low"
)

// AllLevels returns all risk tiers in order of priority (highest first).
func AllLevels() []Level {
	return []Level{Critical, High, Medium, Low}
}

// String returns the string representation of the level.
func (l Level) String() string {
	return string(l)
}

// Valid reports whether l is one of the closed set of tiers.
func (l Level) Valid() bool {
	return l.Priority() > 0
}

// Priority returns the numeric priority of the level.
// Higher numbers = higher priority; unknown values are 0.
func (l Level) Priority() int {
	switch l {
	case Critical:
		return 4
	case High:
		return 3
	case Medium:
		return 2
	case Low:
		return 1
	default:
		return 0
	}
}

// IsHigherThan returns true if this level is higher than the other.
func (l Level) IsHigherThan(other Level) bool {
	return l.Priority() > other.Priority()
}

// IsAtLeast returns true if this level is at least as high as the other.
func (l Level) IsAtLeast(other Level) bool {
	return l.Priority() >= other.Priority()
}

// Label returns the badge text shown next to a port finding.
func (l Level) Label() string {
	switch l {
	case Critical:
		return "Critical Risk"
	case High:
		return "High Risk"
	case Medium:
		return "Medium Risk"
	case Low:
		return "Low Risk"
	default:
		return "Unknown Risk"
	}
}

// Parse returns the Level for s. Matching is exact: the model is asked for
// lower-case tiers and anything else is treated as a shape violation.
func Parse(s string) (Level, error) {
	l := Level(s)
	if !l.Valid() {
		return "", fmt.Errorf("invalid risk level %q", s)
	}
	return l, nil
}

// UnmarshalJSON rejects values outside the closed set.
func (l *Level) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("risk level must be a string: %w", err)
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Max returns the higher of two levels.
func Max(a, b Level) Level {
	if a.IsHigherThan(b) {
		return a
	}
	return b
}

// CountByLevel counts port findings by risk tier.
type CountByLevel struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Total    int `json:"total"`
}

// Increment increases the count for the given level.
func (c *CountByLevel) Increment(level Level) {
	c.Total++
	switch level {
	case Critical:
		c.Critical++
	case High:
		c.High++
	case Medium:
		c.Medium++
	case Low:
		c.Low++
	}
}

// Highest returns the highest level with a non-zero count, or "" when empty.
func (c *CountByLevel) Highest() Level {
	switch {
	case c.Critical > 0:
		return Critical
	case c.High > 0:
		return High
	case c.Medium > 0:
		return Medium
	case c.Low > 0:
		return Low
	}
	return ""
}
