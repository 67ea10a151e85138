package severity

import (
	"encoding/json"
	"testing"
)

func TestLevel_Priority(t *testing.T) {
	tests := []struct {
		level    Level
		expected int
	}{
		{Critical, 4},
		{High, 3},
		{Medium, 2},
		{Low, 1},
		{Level("info"), 0},
		{Level(""), 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			if got := tt.level.Priority(); got != tt.expected {
				t.Errorf("Priority() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{"critical", Critical, false},
		{"high", High, false},
		{"medium", Medium, false},
		{"low", Low, false},
		{"HIGH", "", true},
		{"severe", "", true},
		{"info", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLevel_UnmarshalJSON(t *testing.T) {
	var l Level
	if err := json.Unmarshal([]byte(`"critical"`), &l); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if l != Critical {
		t.Errorf("got %q, want critical", l)
	}

	if err := json.Unmarshal([]byte(`"catastrophic"`), &l); err == nil {
		t.Error("expected error for out-of-set level")
	}
	if err := json.Unmarshal([]byte(`3`), &l); err == nil {
		t.Error("expected error for non-string level")
	}
}

func TestLevel_Label(t *testing.T) {
	tests := map[Level]string{
		Critical:       "Critical Risk",
		High:           "High Risk",
		Medium:         "Medium Risk",
		Low:            "Low Risk",
		Level("bogus"): "Unknown Risk",
	}
	for level, want := range tests {
		if got := level.Label(); got != want {
			t.Errorf("%q.Label() = %q, want %q", level, got, want)
		}
	}
}

func TestCompareHelpers(t *testing.T) {
	if !Critical.IsHigherThan(High) {
		t.Error("critical should be higher than high")
	}
	if !Medium.IsAtLeast(Medium) {
		t.Error("medium should be at least medium")
	}
	if Max(Low, High) != High {
		t.Error("Max(low, high) should be high")
	}
}

func TestCountByLevel(t *testing.T) {
	var c CountByLevel
	if c.Highest() != "" {
		t.Errorf("empty Highest() = %q", c.Highest())
	}

	for _, l := range []Level{High, Critical, High, Low} {
		c.Increment(l)
	}

	if c.Total != 4 || c.High != 2 || c.Critical != 1 || c.Low != 1 {
		t.Errorf("unexpected counts: %+v", c)
	}
	if c.Highest() != Critical {
		t.Errorf("Highest() = %q, want critical", c.Highest())
	}
}
