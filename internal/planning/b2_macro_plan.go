package planning

import (
	"fmt"
	"math"
	"time"
)

// MacroPlan implements B2: produces week records spanning
// [plan_start, race_date] honoring the progression constraints of
// spec.md §4.4 B2 (≤10% WoW increase, a recovery week every 3-4 build
// weeks, monotonic taper decrease).
func MacroPlan(profile AthleteProfile) ([]WeekRecord, error) {
	if !profile.RaceDate.After(profile.PlanStart) {
		return nil, stageErr("B2", "plan_span", fmt.Errorf("race_date %s is not after plan_start %s", profile.RaceDate, profile.PlanStart))
	}

	totalDays := int(profile.RaceDate.Sub(profile.PlanStart).Hours() / 24)
	totalWeeks := totalDays / 7
	if totalWeeks < 4 {
		return nil, stageErr("B2", "min_span", fmt.Errorf("plan span of %d weeks is too short to structure", totalWeeks))
	}

	taperWeeks := 2
	peakWeeks := 1
	buildWeeks := totalWeeks - taperWeeks - peakWeeks
	if buildWeeks < 1 {
		buildWeeks = 1
		taperWeeks = max(1, totalWeeks-2)
		peakWeeks = max(0, totalWeeks-buildWeeks-taperWeeks)
	}

	baseWeeklyMiles := profile.WeeklyMileage
	if baseWeeklyMiles <= 0 {
		baseWeeklyMiles = 20
	}

	weeks := make([]WeekRecord, 0, totalWeeks)
	currentMiles := baseWeeklyMiles
	weekStart := profile.PlanStart

	for i := 0; i < buildWeeks; i++ {
		phase := PhaseBase
		if i >= buildWeeks/3 {
			phase = PhaseBuild
		}

		isRecovery := i > 0 && (i+1)%4 == 0
		miles := currentMiles
		if isRecovery {
			miles = currentMiles * 0.75
		} else if i > 0 {
			miles = math.Min(currentMiles*1.10, currentMiles+currentMiles*0.10)
		}

		weeks = append(weeks, WeekRecord{
			Index:             i,
			Phase:             phase,
			Focus:             focusFor(phase, isRecovery),
			TargetWeeklyMiles: round1(miles),
			WeekStart:         weekStart,
		})
		if !isRecovery {
			currentMiles = miles
		}
		weekStart = weekStart.AddDate(0, 0, 7)
	}

	for i := 0; i < peakWeeks; i++ {
		weeks = append(weeks, WeekRecord{
			Index:             buildWeeks + i,
			Phase:             PhasePeak,
			Focus:             "peak volume and race-pace work",
			TargetWeeklyMiles: round1(currentMiles),
			WeekStart:         weekStart,
		})
		weekStart = weekStart.AddDate(0, 0, 7)
	}

	taperMiles := currentMiles
	for i := 0; i < taperWeeks; i++ {
		taperMiles *= 0.7 // monotonic decrease each taper week
		weeks = append(weeks, WeekRecord{
			Index:             buildWeeks + peakWeeks + i,
			Phase:             PhaseTaper,
			Focus:             "taper and race readiness",
			TargetWeeklyMiles: round1(taperMiles),
			WeekStart:         weekStart,
		})
		weekStart = weekStart.AddDate(0, 0, 7)
	}

	if err := validateMacroPlan(weeks); err != nil {
		return nil, err
	}
	return weeks, nil
}

// validateMacroPlan enforces the B2→B3 guard: contiguous weeks, monotonic
// indices, and valid phase transitions (base→build→peak→taper, spec.md
// §4.4 invariants).
func validateMacroPlan(weeks []WeekRecord) error {
	for i, w := range weeks {
		if w.Index != i {
			return stageErr("B2", "monotonic_indices", fmt.Errorf("week at position %d has index %d", i, w.Index))
		}
		if i > 0 {
			prev := weeks[i-1]
			if w.WeekStart.Sub(prev.WeekStart) != 7*24*time.Hour {
				return stageErr("B2", "contiguous_weeks", fmt.Errorf("week %d does not start exactly 7 days after week %d", i, i-1))
			}
			if phaseOrder[w.Phase] < phaseOrder[prev.Phase] {
				return stageErr("B2", "phase_transitions", fmt.Errorf("phase regressed from %s to %s at week %d", prev.Phase, w.Phase, i))
			}
		}
	}
	return nil
}

func focusFor(phase Phase, recovery bool) string {
	if recovery {
		return "recovery"
	}
	switch phase {
	case PhaseBase:
		return "aerobic base building"
	case PhaseBuild:
		return "build volume and quality"
	default:
		return "race preparation"
	}
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
