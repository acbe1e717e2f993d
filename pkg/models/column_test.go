package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestColumnMarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		column   Column
		expected string
	}{
		{
			name:     "Scalar",
			column:   ColumnAt(7),
			expected: "7",
		},
		{
			name:     "List",
			column:   ColumnList(3, 9),
			expected: "[3,9]",
		},
		{
			name:     "Single element list stays a list",
			column:   ColumnList(3),
			expected: "[3]",
		},
		{
			name:     "Empty",
			column:   Column{},
			expected: "null",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.column)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(data) != tt.expected {
				t.Errorf("Marshal() = %s, want %s", data, tt.expected)
			}
		})
	}
}

func TestColumnUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		scalar   bool
		values   []int
	}{
		{
			name:   "Number",
			input:  "12",
			scalar: true,
			values: []int{12},
		},
		{
			name:   "Array",
			input:  "[4,8]",
			scalar: false,
			values: []int{4, 8},
		},
		{
			name:   "Null",
			input:  "null",
			scalar: false,
			values: nil,
		},
		{
			name:   "Array with junk entries",
			input:  `[4,"x",8]`,
			scalar: false,
			values: []int{4, 8},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Column
			if err := json.Unmarshal([]byte(tt.input), &c); err != nil {
				t.Fatalf("Unmarshal(%q) error = %v", tt.input, err)
			}
			if c.Scalar != tt.scalar {
				t.Errorf("Scalar = %v, want %v", c.Scalar, tt.scalar)
			}
			if len(c.Values) != len(tt.values) {
				t.Fatalf("Values = %v, want %v", c.Values, tt.values)
			}
			for i := range tt.values {
				if c.Values[i] != tt.values[i] {
					t.Errorf("Values[%d] = %d, want %d", i, c.Values[i], tt.values[i])
				}
			}
		})
	}
}

func TestColumnRoundTripKeepsShape(t *testing.T) {
	scalar, _ := json.Marshal(ColumnAt(3))
	list, _ := json.Marshal(ColumnList(3))
	if string(scalar) == string(list) {
		t.Errorf("scalar and single-element list must serialize differently, both = %s", scalar)
	}
}

func TestTruncateEvidence(t *testing.T) {
	long := strings.Repeat("資", MaxEvidenceLen+40)
	got := TruncateEvidence(long)
	runes := []rune(got)
	if len(runes) != MaxEvidenceLen {
		t.Errorf("TruncateEvidence() length = %d runes, want %d", len(runes), MaxEvidenceLen)
	}

	short := "DELETE FROM t"
	if TruncateEvidence(short) != short {
		t.Errorf("TruncateEvidence() modified a short string")
	}
}

func TestIssueRuleRef(t *testing.T) {
	rule := "R4_DELETE_NO_WHERE"
	withRule := Issue{RuleID: &rule}
	if withRule.RuleRef() != rule {
		t.Errorf("RuleRef() = %q, want %q", withRule.RuleRef(), rule)
	}
	if (Issue{}).RuleRef() != "" {
		t.Errorf("RuleRef() on nil rule id should be empty")
	}
}
