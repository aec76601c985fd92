package controller

import (
	"testing"

	"github.com/virtus-coach/coach/internal/slots"
)

func TestValidateSingleQuestion(t *testing.T) {
	if err := validateSingleQuestion("What is your race date?", 1); err != nil {
		t.Errorf("single question should pass: %v", err)
	}
	if err := validateSingleQuestion("What is your race date? And your target time?", 1); err == nil {
		t.Error("two questions should fail")
	}
	if err := validateSingleQuestion("No question mark here.", 1); err == nil {
		t.Error("zero question marks should fail when slots are missing")
	}
	if err := validateSingleQuestion("No question needed.", 0); err != nil {
		t.Errorf("rule should not apply when nothing is missing: %v", err)
	}
}

func TestValidateNoAdviceBeforeExecution(t *testing.T) {
	if err := validateNoAdviceBeforeExecution("What is your race date?", ActionPlanRaceBuild, 1); err != nil {
		t.Errorf("plain question should pass: %v", err)
	}
	if err := validateNoAdviceBeforeExecution("I recommend you wait.", ActionPlanRaceBuild, 1); err == nil {
		t.Error("advice marker should fail")
	}
	if err := validateNoAdviceBeforeExecution("I recommend you wait.", ActionNone, 1); err != nil {
		t.Errorf("rule should not apply for ActionNone: %v", err)
	}
	if err := validateNoAdviceBeforeExecution("I recommend you wait.", ActionPlanRaceBuild, 0); err != nil {
		t.Errorf("rule should not apply when nothing is missing: %v", err)
	}
}

func TestValidateNoChattyResponse(t *testing.T) {
	if err := validateNoChattyResponse("What is your race date?", ActionPlanRaceBuild); err != nil {
		t.Errorf("short question should pass: %v", err)
	}
	if err := validateNoChattyResponse("Great question! Let me explain.", ActionPlanRaceBuild); err == nil {
		t.Error("chatty phrase should fail")
	}
	if err := validateNoChattyResponse("One. Two. Three.", ActionPlanRaceBuild); err == nil {
		t.Error("more than two sentence-enders should fail")
	}
	if err := validateNoChattyResponse("Great question!", ActionNone); err != nil {
		t.Errorf("rule should not apply for ActionNone: %v", err)
	}
}

func TestValidateExecuteImmediately(t *testing.T) {
	if err := validateExecuteImmediately(ActionPlanRaceBuild, 0, true); err != nil {
		t.Errorf("should_execute=true with nothing missing should pass: %v", err)
	}
	if err := validateExecuteImmediately(ActionPlanRaceBuild, 0, false); err == nil {
		t.Error("nothing missing but should_execute=false should fail")
	}
	if err := validateExecuteImmediately(ActionPlanRaceBuild, 1, false); err != nil {
		t.Errorf("missing slots with should_execute=false should pass: %v", err)
	}
	if err := validateExecuteImmediately(ActionNone, 0, false); err != nil {
		t.Errorf("ActionNone should never require should_execute: %v", err)
	}
}

func TestFallbackQuestionKnownSlot(t *testing.T) {
	got := fallbackQuestion(slots.RaceDate)
	want := "I need one more detail: what is your race date?"
	if got != want {
		t.Errorf("fallbackQuestion = %q, want %q", got, want)
	}
}
