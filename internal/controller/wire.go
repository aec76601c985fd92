package controller

import (
	"encoding/json"
	"fmt"
	"unicode"
)

// decodeProgressResult decodes the Data tool server's load_progress result
// shape: {"progress": {...}, "version": n}.
func decodeProgressResult(result map[string]any) (Progress, int, error) {
	raw, ok := result["progress"]
	if !ok {
		return Progress{FilledSlots: map[string]string{}}, 0, nil
	}

	encoded, err := json.Marshal(raw)
	if err != nil {
		return Progress{}, 0, fmt.Errorf("controller: re-encoding progress: %w", err)
	}
	var progress Progress
	if err := json.Unmarshal(encoded, &progress); err != nil {
		return Progress{}, 0, fmt.Errorf("controller: decoding progress: %w", err)
	}
	if progress.FilledSlots == nil {
		progress.FilledSlots = map[string]string{}
	}

	version := 0
	if v, ok := result["version"].(float64); ok {
		version = int(v)
	}
	return progress, version, nil
}

// progressToArguments converts Progress into the plain map the tool-call
// envelope carries (spec.md §6's portable structured value).
func progressToArguments(p Progress) map[string]any {
	filled := make(map[string]any, len(p.FilledSlots))
	for k, v := range p.FilledSlots {
		filled[k] = v
	}
	return map[string]any{
		"required_attributes": p.RequiredAttributes,
		"optional_attributes": p.OptionalAttributes,
		"filled_slots":        filled,
		"awaiting_slots":      p.AwaitingSlots,
		"target_action":       p.TargetAction,
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
