package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/exploopio/emerald/pkg/shared/severity"
)

// ParseError describes why a model response could not be decoded into a
// SecurityReport.
type ParseError struct {
	// Field is the JSON path of the offending value; empty for syntax errors.
	Field string

	// Reason is a short description of the problem.
	Reason string

	// Syntax is set when the body was not a well-formed JSON document.
	Syntax bool

	Err error
}

func (e *ParseError) Error() string {
	msg := e.Reason
	if e.Field != "" {
		msg = fmt.Sprintf("field %s: %s", e.Field, e.Reason)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// wireReport mirrors the response schema. Pointers distinguish absent
// required fields from zero values.
type wireReport struct {
	Score           *float64       `json:"score"`
	Status          *string        `json:"status"`
	Confidence      *float64       `json:"confidence"`
	Summary         *string        `json:"summary"`
	Indicators      []string       `json:"indicators"`
	Vulnerabilities *[]wireFinding `json:"vulnerabilities"`
	Recommendations []string       `json:"recommendations"`
	RemediationPlan *[]string      `json:"remediationPlan"`
}

type wireFinding struct {
	Port              *float64 `json:"port"`
	Service           string   `json:"service"`
	Risk              *string  `json:"risk"`
	Description       string   `json:"description"`
	ProtectionMethods []string `json:"protectionMethods"`
}

// Decode parses a model response body into a fully typed SecurityReport.
// It returns a *ParseError when the body is not a single JSON object, a
// required field is missing or null, a number is out of range or not
// integral, or an enumerated value falls outside its set. Sources are left
// empty; they come from grounding metadata, not from the body.
func Decode(data []byte) (*SecurityReport, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	var w wireReport
	if err := dec.Decode(&w); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, &ParseError{Field: typeErr.Field, Reason: "unexpected " + typeErr.Value, Err: err}
		}
		return nil, &ParseError{Reason: "invalid JSON", Syntax: true, Err: err}
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &ParseError{Reason: "trailing data after JSON object", Syntax: true}
	}

	r := &SecurityReport{
		Indicators:      nonNil(w.Indicators),
		Recommendations: nonNil(w.Recommendations),
		Sources:         []Source{},
	}

	var err error
	if r.Score, err = percent("score", w.Score); err != nil {
		return nil, err
	}
	if r.Confidence, err = percent("confidence", w.Confidence); err != nil {
		return nil, err
	}

	if w.Status == nil {
		return nil, missing("status")
	}
	if r.Status, err = ParseStatus(*w.Status); err != nil {
		return nil, &ParseError{Field: "status", Reason: err.Error()}
	}

	if w.Summary != nil {
		r.Summary = *w.Summary
	}

	if w.RemediationPlan == nil || *w.RemediationPlan == nil {
		return nil, missing("remediationPlan")
	}
	r.RemediationPlan = *w.RemediationPlan

	if w.Vulnerabilities == nil || *w.Vulnerabilities == nil {
		return nil, missing("vulnerabilities")
	}
	r.Vulnerabilities = make([]PortVulnerability, 0, len(*w.Vulnerabilities))
	for i, f := range *w.Vulnerabilities {
		v, err := f.toVulnerability(i)
		if err != nil {
			return nil, err
		}
		r.Vulnerabilities = append(r.Vulnerabilities, v)
	}

	return r, nil
}

func (f wireFinding) toVulnerability(i int) (PortVulnerability, error) {
	path := fmt.Sprintf("vulnerabilities[%d]", i)

	if f.Port == nil {
		return PortVulnerability{}, missing(path + ".port")
	}
	port, ok := integral(*f.Port)
	if !ok || port < 0 || port > 65535 {
		return PortVulnerability{}, &ParseError{Field: path + ".port", Reason: fmt.Sprintf("invalid port %v", *f.Port)}
	}

	if f.Risk == nil {
		return PortVulnerability{}, missing(path + ".risk")
	}
	risk, err := severity.Parse(*f.Risk)
	if err != nil {
		return PortVulnerability{}, &ParseError{Field: path + ".risk", Reason: err.Error()}
	}

	return PortVulnerability{
		Port:              port,
		Service:           f.Service,
		Risk:              risk,
		Description:       f.Description,
		ProtectionMethods: nonNil(f.ProtectionMethods),
	}, nil
}

func percent(field string, v *float64) (int, error) {
	if v == nil {
		return 0, missing(field)
	}
	n, ok := integral(*v)
	if !ok {
		return 0, &ParseError{Field: field, Reason: fmt.Sprintf("%v is not an integer", *v)}
	}
	if n < MinScore || n > MaxScore {
		return 0, &ParseError{Field: field, Reason: fmt.Sprintf("%d out of range [0,100]", n)}
	}
	return n, nil
}

func integral(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

func missing(field string) *ParseError {
	return &ParseError{Field: field, Reason: "required field missing"}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
