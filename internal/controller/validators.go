package controller

import (
	"strings"

	"github.com/virtus-coach/coach/internal/slots"
)

// ValidationError names which rule failed, mirroring
// original_source/app/coach/validators/execution_validator.py's per-rule
// boolean checks collapsed into a single tagged failure.
type ValidationError struct {
	Rule string
}

func (e *ValidationError) Error() string { return "controller: response validation failed: " + e.Rule }

// adviceMarkers are the configurable token list spec.md §4.3's no-advice
// rule names, grounded on execution_validator.py's advice_keywords.
var adviceMarkers = []string{
	"recommend", "should", "because", "typically", "suggest", "i'd advise", "in general",
}

// chattyPhrases flag paragraph-length, conversational filler, grounded on
// execution_validator.py's chatty_phrases.
var chattyPhrases = []string{
	"great question", "happy to help", "let me explain", "as you may know", "i understand",
}

// validateSingleQuestion is rule 1: when missingSlots > 0, text must
// contain exactly one '?'.
func validateSingleQuestion(text string, missingSlots int) error {
	if missingSlots == 0 {
		return nil
	}
	if strings.Count(text, "?") != 1 {
		return &ValidationError{Rule: "single_question"}
	}
	return nil
}

// validateNoAdviceBeforeExecution is rule 2: when target != none and
// missing > 0, text must not contain advice/explanation markers.
func validateNoAdviceBeforeExecution(text string, target TargetAction, missingSlots int) error {
	if target == ActionNone || missingSlots == 0 {
		return nil
	}
	lower := strings.ToLower(text)
	for _, marker := range adviceMarkers {
		if strings.Contains(lower, marker) {
			return &ValidationError{Rule: "no_advice"}
		}
	}
	return nil
}

// validateNoChattyResponse is rule 3: when target != none, the response
// must be slot-oriented; paragraph-length or chatty-phrase text is
// rejected. "Paragraph length" is operationalized as more than two
// sentence-ending punctuation marks, matching the original's sentence-count
// heuristic.
func validateNoChattyResponse(text string, target TargetAction) error {
	if target == ActionNone {
		return nil
	}
	lower := strings.ToLower(text)
	for _, phrase := range chattyPhrases {
		if strings.Contains(lower, phrase) {
			return &ValidationError{Rule: "no_chatty"}
		}
	}
	sentenceEnders := strings.Count(text, ".") + strings.Count(text, "!") + strings.Count(text, "?")
	if sentenceEnders > 2 {
		return &ValidationError{Rule: "no_chatty"}
	}
	return nil
}

// validateExecuteImmediately is rule 4: missing = ∅ ∧ target != none ⇒
// should_execute = true.
func validateExecuteImmediately(target TargetAction, missingSlots int, shouldExecute bool) error {
	if target != ActionNone && missingSlots == 0 && !shouldExecute {
		return &ValidationError{Rule: "execute_immediately"}
	}
	return nil
}

// validateResponse runs all four rules (spec.md §4.3 "all must pass").
func validateResponse(text string, target TargetAction, missingSlots int, shouldExecute bool) error {
	if err := validateSingleQuestion(text, missingSlots); err != nil {
		return err
	}
	if err := validateNoAdviceBeforeExecution(text, target, missingSlots); err != nil {
		return err
	}
	if err := validateNoChattyResponse(text, target); err != nil {
		return err
	}
	if err := validateExecuteImmediately(target, missingSlots, shouldExecute); err != nil {
		return err
	}
	return nil
}

// fallbackQuestion is the deterministic response emitted when a validator
// fails (spec.md §4.3 "deterministic 'I need one more detail' response").
func fallbackQuestion(slot slots.Name) string {
	return "I need one more detail: " + slotPrompt(slot)
}

var slotPrompts = map[slots.Name]string{
	slots.RaceDistance:       "what race distance are you training for?",
	slots.RaceDate:           "what is your race date?",
	slots.TargetTime:         "what is your target finish time?",
	slots.WeeklyMileage:      "what is your current weekly mileage?",
	slots.WorkoutDescription: "what workout would you like to add?",
}

func slotPrompt(slot slots.Name) string {
	if p, ok := slotPrompts[slot]; ok {
		return p
	}
	return string(slot) + "?"
}
