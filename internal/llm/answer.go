package llm

import (
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/sqlreview/pkg/models"
)

// ParseAnswer decodes one model answer into a JSON value, repairing common
// formatting damage on the way. When nothing parseable can be recovered the
// returned error is a *models.ParseError and callers degrade to treating the
// answer as unstructured text.
func ParseAnswer(raw string) (interface{}, RepairStats, error) {
	payload := ExtractJSON(raw)
	if payload == "" {
		log.Debug().Int("bytes", len(raw)).Msg("No JSON payload found in answer")
		return nil, RepairStats{}, &models.ParseError{Reason: "no JSON payload in answer", Raw: raw}
	}

	repaired, stats, err := RepairJSON(payload)
	if stats.WasRepaired {
		log.Debug().
			Strs("strategies", stats.Strategies).
			Int("errors_fixed", stats.ErrorsFixed).
			Dur("repair_time", stats.RepairTime).
			Msg("Answer JSON needed repair")
	}
	if err != nil {
		log.Warn().Err(err).Int("bytes", len(payload)).Msg("Answer JSON unrecoverable")
		return nil, stats, &models.ParseError{Reason: err.Error(), Raw: payload}
	}

	var value interface{}
	if err := json.Unmarshal([]byte(repaired), &value); err != nil {
		return nil, stats, &models.ParseError{Reason: err.Error(), Raw: repaired}
	}
	return value, stats, nil
}

// ExtractJSON pulls the JSON portion out of a mixed text answer: fenced code
// blocks first, then the first balanced object or array. Pure JSON passes
// straight through; an unbalanced structure is returned from its opener to
// the end so the repair ladder can close it.
func ExtractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "{") || strings.HasPrefix(raw, "[") {
		return raw
	}

	if strings.Contains(raw, "```") {
		if block := fencedBlock(raw); block != "" {
			return block
		}
	}

	start := strings.IndexByte(raw, '{')
	openCh, closeCh := byte('{'), byte('}')
	if start == -1 {
		start = strings.IndexByte(raw, '[')
		openCh, closeCh = '[', ']'
	}
	if start == -1 {
		return ""
	}
	depth := 0
	for i := start; i < len(raw); i++ {
		switch raw[i] {
		case openCh:
			depth++
		case closeCh:
			depth--
			if depth == 0 {
				return raw[start : i+1]
			}
		}
	}
	return raw[start:]
}

func fencedBlock(raw string) string {
	var inside []string
	inBlock := false
	for _, line := range strings.Split(raw, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			if inBlock && len(inside) > 0 {
				break
			}
			inBlock = !inBlock
			continue
		}
		if inBlock {
			inside = append(inside, line)
		}
	}
	return strings.TrimSpace(strings.Join(inside, "\n"))
}
