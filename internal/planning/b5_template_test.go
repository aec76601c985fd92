package planning

import (
	"errors"
	"testing"

	"github.com/virtus-coach/coach/internal/corpus"
)

const milesToMetersFixture = 1609.34

func templateFixture(id, sessionType string, priority int, min, max float64) *corpus.Template {
	return &corpus.Template{
		Metadata:    corpus.Metadata{ID: id, SessionType: sessionType, Priority: priority},
		SessionType: sessionType,
		Params:      []corpus.TemplateParam{{Name: "distance_mi_range", Min: min, Max: max}},
	}
}

func TestSelectTemplatesRestDayPassesThroughZeroValue(t *testing.T) {
	days := []DaySlot{{Weekday: "monday", SessionType: "rest", AssignedMiles: 0}}
	bindings, err := SelectTemplates(days, nil, milesToMetersFixture)
	if err != nil {
		t.Fatalf("SelectTemplates: %v", err)
	}
	if bindings[0].TemplateID != "" || bindings[0].DistanceMeters != 0 {
		t.Errorf("rest day binding should be zero-valued, got %+v", bindings[0])
	}
}

func TestSelectTemplatesPicksHighestPriority(t *testing.T) {
	days := []DaySlot{{Weekday: "tuesday", SessionType: "easy", AssignedMiles: 6}}
	templates := []*corpus.Template{
		templateFixture("t-low", "easy", 1, 3, 10),
		templateFixture("t-high", "easy", 5, 3, 10),
	}
	bindings, err := SelectTemplates(days, templates, milesToMetersFixture)
	if err != nil {
		t.Fatalf("SelectTemplates: %v", err)
	}
	if bindings[0].TemplateID != "t-high" {
		t.Errorf("TemplateID = %q, want t-high", bindings[0].TemplateID)
	}
}

func TestSelectTemplatesTieBreaksLexicographically(t *testing.T) {
	days := []DaySlot{{Weekday: "tuesday", SessionType: "easy", AssignedMiles: 6}}
	templates := []*corpus.Template{
		templateFixture("t-zzz", "easy", 3, 3, 10),
		templateFixture("t-aaa", "easy", 3, 3, 10),
	}
	bindings, err := SelectTemplates(days, templates, milesToMetersFixture)
	if err != nil {
		t.Fatalf("SelectTemplates: %v", err)
	}
	if bindings[0].TemplateID != "t-aaa" {
		t.Errorf("TemplateID = %q, want t-aaa", bindings[0].TemplateID)
	}
}

func TestSelectTemplatesNoMatchingTemplateErrors(t *testing.T) {
	days := []DaySlot{{Weekday: "wednesday", SessionType: "quality", AssignedMiles: 8}}
	_, err := SelectTemplates(days, nil, milesToMetersFixture)
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Guard != "no_matching_template" {
		t.Fatalf("expected no_matching_template error, got %v", err)
	}
}

func TestResolveDistanceClampsToRange(t *testing.T) {
	tmpl := templateFixture("t1", "easy", 1, 3, 10)
	if got := resolveDistance(tmpl, 15); got != 10 {
		t.Errorf("resolveDistance above max = %v, want 10", got)
	}
	if got := resolveDistance(tmpl, 1); got != 3 {
		t.Errorf("resolveDistance below min = %v, want 3", got)
	}
	if got := resolveDistance(tmpl, 6); got != 6 {
		t.Errorf("resolveDistance within range = %v, want 6", got)
	}
}

func TestResolveDistanceReturnsAllocatedWhenNoRangeParam(t *testing.T) {
	tmpl := &corpus.Template{Metadata: corpus.Metadata{ID: "t1"}, Params: nil}
	if got := resolveDistance(tmpl, 8.5); got != 8.5 {
		t.Errorf("resolveDistance with no params = %v, want 8.5", got)
	}
}
