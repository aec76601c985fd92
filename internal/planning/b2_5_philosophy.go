package planning

import (
	"fmt"
	"sort"

	"github.com/virtus-coach/coach/internal/corpus"
)

// PhilosophySelection is B2.5's output, carrying the winning document plus
// the ranking evidence the spec requires logging (spec.md §4.4 B2.5
// "logged with the winning id and ranking scores").
type PhilosophySelection struct {
	Philosophy *corpus.Philosophy
	Scores     map[string]float64 // philosophy id -> similarity score, among survivors
}

// SelectPhilosophy implements B2.5: filter by race_type/audience, drop
// gated-out documents, rank by priority then embedding similarity, with a
// lexicographic id tie-break (spec.md §4.4 B2.5).
func SelectPhilosophy(candidates []*corpus.Philosophy, profile AthleteProfile, queryVector []float64) (PhilosophySelection, error) {
	var survivors []*corpus.Philosophy
	for _, p := range candidates {
		if !containsStr(p.RaceTypes, profile.RaceDistance) {
			continue
		}
		if p.Audience != "" && p.Audience != profile.Audience {
			continue
		}
		if intersects(p.Prohibits, profile.Tags) {
			continue
		}
		if !satisfiesRequires(p.Requires, profile.Tags) {
			continue
		}
		survivors = append(survivors, p)
	}

	if len(survivors) == 0 {
		return PhilosophySelection{}, stageErr("B2.5", "no_eligible_philosophy", fmt.Errorf("no philosophy document matches race_type=%s audience=%s after gating", profile.RaceDistance, profile.Audience))
	}

	scores := make(map[string]float64, len(survivors))
	for _, p := range survivors {
		scores[p.ID] = corpus.CosineSimilarity(p.Embedding, queryVector)
	}

	sort.SliceStable(survivors, func(i, j int) bool {
		a, b := survivors[i], survivors[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if scores[a.ID] != scores[b.ID] {
			return scores[a.ID] > scores[b.ID]
		}
		return a.ID < b.ID
	})

	return PhilosophySelection{Philosophy: survivors[0], Scores: scores}, nil
}

func containsStr(list []string, val string) bool {
	for _, v := range list {
		if v == val {
			return true
		}
	}
	return false
}

func intersects(a, b []string) bool {
	set := make(map[string]bool, len(a))
	for _, v := range a {
		set[v] = true
	}
	for _, v := range b {
		if set[v] {
			return true
		}
	}
	return false
}

func satisfiesRequires(requires, tags []string) bool {
	if len(requires) == 0 {
		return true
	}
	set := make(map[string]bool, len(tags))
	for _, v := range tags {
		set[v] = true
	}
	for _, r := range requires {
		if !set[r] {
			return false
		}
	}
	return true
}
