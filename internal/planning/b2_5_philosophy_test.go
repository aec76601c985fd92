package planning

import (
	"errors"
	"testing"

	"github.com/virtus-coach/coach/internal/corpus"
)

func philosophyFixture(id string, priority int, raceTypes []string) *corpus.Philosophy {
	return &corpus.Philosophy{
		Metadata: corpus.Metadata{
			ID:        id,
			RaceTypes: raceTypes,
			Priority:  priority,
		},
		Embedding: []float64{1, 0, 0},
	}
}

func TestSelectPhilosophyFiltersByRaceType(t *testing.T) {
	candidates := []*corpus.Philosophy{
		philosophyFixture("p-5k", 1, []string{"5k"}),
		philosophyFixture("p-marathon", 1, []string{"marathon"}),
	}
	profile := AthleteProfile{RaceDistance: "marathon"}
	sel, err := SelectPhilosophy(candidates, profile, []float64{1, 0, 0})
	if err != nil {
		t.Fatalf("SelectPhilosophy: %v", err)
	}
	if sel.Philosophy.ID != "p-marathon" {
		t.Errorf("selected %q, want p-marathon", sel.Philosophy.ID)
	}
}

func TestSelectPhilosophyExcludesOnProhibitedTag(t *testing.T) {
	p := philosophyFixture("p1", 1, []string{"marathon"})
	p.Prohibits = []string{"injury_history"}
	profile := AthleteProfile{RaceDistance: "marathon", Tags: []string{"injury_history"}}
	_, err := SelectPhilosophy([]*corpus.Philosophy{p}, profile, []float64{1, 0, 0})
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Guard != "no_eligible_philosophy" {
		t.Fatalf("expected no_eligible_philosophy error, got %v", err)
	}
}

func TestSelectPhilosophyExcludesWhenRequiresNotSatisfied(t *testing.T) {
	p := philosophyFixture("p1", 1, []string{"marathon"})
	p.Requires = []string{"prior_marathon"}
	profile := AthleteProfile{RaceDistance: "marathon", Tags: nil}
	_, err := SelectPhilosophy([]*corpus.Philosophy{p}, profile, []float64{1, 0, 0})
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Guard != "no_eligible_philosophy" {
		t.Fatalf("expected no_eligible_philosophy error, got %v", err)
	}
}

func TestSelectPhilosophyOrdersByPriorityThenScoreThenID(t *testing.T) {
	low := philosophyFixture("z-low-priority", 1, []string{"marathon"})
	low.Embedding = []float64{1, 0, 0}
	highA := philosophyFixture("b-high", 5, []string{"marathon"})
	highA.Embedding = []float64{1, 0, 0} // score 1.0
	highB := philosophyFixture("a-high", 5, []string{"marathon"})
	highB.Embedding = []float64{0, 1, 0} // score 0.0 against query [1,0,0]

	profile := AthleteProfile{RaceDistance: "marathon"}
	sel, err := SelectPhilosophy([]*corpus.Philosophy{low, highB, highA}, profile, []float64{1, 0, 0})
	if err != nil {
		t.Fatalf("SelectPhilosophy: %v", err)
	}
	if sel.Philosophy.ID != "b-high" {
		t.Errorf("selected %q, want b-high (priority 5, score 1.0)", sel.Philosophy.ID)
	}
}

func TestSelectPhilosophyNoEligibleCandidates(t *testing.T) {
	profile := AthleteProfile{RaceDistance: "marathon"}
	_, err := SelectPhilosophy(nil, profile, []float64{1, 0, 0})
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != "B2.5" || stageErr.Guard != "no_eligible_philosophy" {
		t.Fatalf("expected B2.5/no_eligible_philosophy error, got %v", err)
	}
}
