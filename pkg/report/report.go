// Package report defines the SecurityReport handed to the presentation layer
// and the strict decoder that turns model output into one.
package report

import (
	"encoding/json"
	"fmt"

	"github.com/exploopio/emerald/pkg/shared/severity"
)

// Score and confidence bounds.
const (
	MinScore = 0
	MaxScore = 100
)

// Status is the overall assessed posture of the target.
type Status string

const (
	StatusSecure      Status = "secure"
	StatusAtRisk      Status = "at_risk"
	StatusCompromised Status = "compromised"
)

// Valid reports whether s is one of the closed set of statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusSecure, StatusAtRisk, StatusCompromised:
		return true
	}
	return false
}

// ParseStatus returns the Status for s, rejecting anything outside the set.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("invalid status %q", s)
	}
	return st, nil
}

// UnmarshalJSON rejects values outside the closed set.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("status must be a string: %w", err)
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// SecurityReport is the assessment of one target. Once produced it is not
// modified; both the model path and the fallback path return this shape.
type SecurityReport struct {
	Score           int                 `json:"score"`
	Status          Status              `json:"status"`
	Confidence      int                 `json:"confidence"`
	Summary         string              `json:"summary"`
	Indicators      []string            `json:"indicators"`
	Vulnerabilities []PortVulnerability `json:"vulnerabilities"`
	Recommendations []string            `json:"recommendations"`
	RemediationPlan []string            `json:"remediationPlan"`
	Sources         []Source            `json:"sources"`
}

// PortVulnerability describes the exposure of one port.
type PortVulnerability struct {
	Port              int            `json:"port"`
	Service           string         `json:"service"`
	Risk              severity.Level `json:"risk"`
	Description       string         `json:"description"`
	ProtectionMethods []string       `json:"protectionMethods"`
}

// Source is a grounding citation backing the report.
type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// Validate checks the report invariants.
func (r *SecurityReport) Validate() error {
	if r.Score < MinScore || r.Score > MaxScore {
		return &ParseError{Field: "score", Reason: fmt.Sprintf("%d out of range [0,100]", r.Score)}
	}
	if r.Confidence < MinScore || r.Confidence > MaxScore {
		return &ParseError{Field: "confidence", Reason: fmt.Sprintf("%d out of range [0,100]", r.Confidence)}
	}
	if !r.Status.Valid() {
		return &ParseError{Field: "status", Reason: fmt.Sprintf("invalid value %q", r.Status)}
	}
	for i, v := range r.Vulnerabilities {
		if !v.Risk.Valid() {
			return &ParseError{Field: fmt.Sprintf("vulnerabilities[%d].risk", i), Reason: fmt.Sprintf("invalid value %q", v.Risk)}
		}
		if v.Port < 0 || v.Port > 65535 {
			return &ParseError{Field: fmt.Sprintf("vulnerabilities[%d].port", i), Reason: fmt.Sprintf("%d out of range", v.Port)}
		}
	}
	return nil
}

// Compromised reports whether the target is assessed as compromised.
func (r *SecurityReport) Compromised() bool {
	return r.Status == StatusCompromised
}

// UrgentActions returns at most n leading remediation steps.
func (r *SecurityReport) UrgentActions(n int) []string {
	if n < 0 || n >= len(r.RemediationPlan) {
		return r.RemediationPlan
	}
	return r.RemediationPlan[:n]
}

// RiskCounts tallies vulnerabilities by risk tier.
func (r *SecurityReport) RiskCounts() severity.CountByLevel {
	var c severity.CountByLevel
	for _, v := range r.Vulnerabilities {
		c.Increment(v.Risk)
	}
	return c
}
