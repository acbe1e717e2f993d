package llm

import (
	"encoding/json"
	"testing"
)

func TestRepairJSON_ValidInput(t *testing.T) {
	valid := `{"issues": [{"rule_id": "R4_DELETE_NO_WHERE", "line": 1}]}`

	repaired, stats, err := RepairJSON(valid)
	if err != nil {
		t.Errorf("Expected no error for valid JSON, got: %v", err)
	}
	if stats.WasRepaired {
		t.Error("Expected WasRepaired to be false for valid JSON")
	}
	if repaired != valid {
		t.Error("Expected valid JSON to pass through untouched")
	}
	if stats.OriginalBytes != len(valid) || stats.RepairedBytes != len(valid) {
		t.Error("Expected byte counts to match the input")
	}
}

func TestRepairJSON_TrailingCommas(t *testing.T) {
	malformed := `{"issues": [{"rule_id": "R1_CJK_NAME", "line": 2,},]}`
	expected := `{"issues": [{"rule_id": "R1_CJK_NAME", "line": 2}]}`

	repaired, stats, err := RepairJSON(malformed)
	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
	if repaired != expected {
		t.Errorf("Expected %s, got %s", expected, repaired)
	}
	if len(stats.Strategies) == 0 || stats.Strategies[0] != "trailing_commas" {
		t.Errorf("Expected trailing_commas strategy, got %v", stats.Strategies)
	}
}

func TestRepairJSON_IncompleteStructure(t *testing.T) {
	malformed := `{"issues": [{"rule_id": "R5_FROM_COMMA", "line": 3}`
	expected := `{"issues": [{"rule_id": "R5_FROM_COMMA", "line": 3}]}`

	repaired, stats, err := RepairJSON(malformed)
	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
	if repaired != expected {
		t.Errorf("Expected %s, got %s", expected, repaired)
	}
	if !stats.WasRepaired {
		t.Error("Expected WasRepaired to be true")
	}
}

func TestRepairJSON_Comments(t *testing.T) {
	malformed := `{
		// findings below
		"issues": [
			{"rule_id": "R2_PREFIX_TABLE", "line": 1} /* only one */
		]
	}`

	repaired, stats, err := RepairJSON(malformed)
	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
	if stats.CommentsLost != 2 {
		t.Errorf("Expected 2 comments lost, got %d", stats.CommentsLost)
	}
	var result interface{}
	if json.Unmarshal([]byte(repaired), &result) != nil {
		t.Error("Repaired JSON should be valid")
	}
}

func TestRepairJSON_UnquotedKeysAndSingleQuotes(t *testing.T) {
	malformed := `{issues: [{rule_id: 'R4_DELETE_NO_WHERE', line: 1}]}`

	repaired, _, err := RepairJSON(malformed)
	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
	var result map[string]interface{}
	if unmarshalErr := json.Unmarshal([]byte(repaired), &result); unmarshalErr != nil {
		t.Fatalf("Repaired JSON should be valid: %v (got %s)", unmarshalErr, repaired)
	}
	if _, ok := result["issues"]; !ok {
		t.Errorf("Expected repaired object to keep the issues key, got %s", repaired)
	}
}

func TestRepairJSON_NestedQuotesInMessage(t *testing.T) {
	malformed := `{"message": "use "TRUNCATE" instead", "line": 1}`

	repaired, _, err := RepairJSON(malformed)
	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
	var result map[string]interface{}
	if json.Unmarshal([]byte(repaired), &result) != nil {
		t.Fatalf("Repaired JSON should be valid, got %s", repaired)
	}
}

func TestRepairJSON_LibraryFallback(t *testing.T) {
	// None of the targeted strategies handle a lone unterminated string, so
	// the jsonrepair library has to finish the job.
	malformed := `{"message": "unterminated`

	repaired, stats, err := RepairJSON(malformed)
	if err != nil {
		t.Skipf("library fallback could not recover %q: %v", malformed, err)
	}
	var result interface{}
	if json.Unmarshal([]byte(repaired), &result) != nil {
		t.Error("Repaired JSON should be valid after library fallback")
	}
	if !stats.WasRepaired {
		t.Error("Expected WasRepaired to be true")
	}
}

func TestRepairJSON_NeverClaimsSuccessWithInvalidOutput(t *testing.T) {
	inputs := []string{
		"not json at all ::: <<<>>>",
		"{{{{",
		`{"a": }`,
	}
	for _, in := range inputs {
		repaired, stats, err := RepairJSON(in)
		if !stats.WasRepaired {
			t.Errorf("RepairJSON(%q): expected WasRepaired to be true", in)
		}
		if err != nil {
			continue
		}
		var v interface{}
		if json.Unmarshal([]byte(repaired), &v) != nil {
			t.Errorf("RepairJSON(%q) reported success but output is invalid: %s", in, repaired)
		}
	}
}
