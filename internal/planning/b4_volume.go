package planning

import (
	"fmt"
	"math"

	"github.com/virtus-coach/coach/internal/calendar"
)

const (
	easyDayFloorMiles  = 2.0
	longRunMinFraction = 0.25
	longRunMaxFraction = 0.35
)

// AllocateVolume implements B4: distributes targetWeeklyMiles across days
// per the structure's pattern, honoring the long-run sizing window, the
// easy-day floor, rest days at zero, and hard days receiving the residual.
// It is a fixed split (long run 30% clamped to 25–35%, easy days sharing
// 50%, hard days the rest), not an optimisation: no Σ|assigned_i − ideal_i|
// objective is computed or minimized.
// fatigueScale, if non-zero, scales targetWeeklyMiles by a factor bounded
// to [0.7, 1.0] before allocation.
func AllocateVolume(days []DaySlot, targetWeeklyMiles float64, fatigueScale float64) ([]DaySlot, error) {
	effectiveTarget := targetWeeklyMiles
	if fatigueScale > 0 {
		bounded := math.Max(0.7, math.Min(1.0, fatigueScale))
		effectiveTarget = targetWeeklyMiles * bounded
	}

	out := make([]DaySlot, len(days))
	copy(out, days)

	longCount := 0
	easyCount := 0
	hardIndices := []int{}
	for i, d := range out {
		switch d.Intent {
		case calendar.IntentRest:
			out[i].AssignedMiles = 0
		case calendar.IntentLong:
			longCount++
		case calendar.IntentEasy:
			easyCount++
		case calendar.IntentQuality:
			hardIndices = append(hardIndices, i)
		}
	}

	longMiles := 0.0
	if longCount > 0 {
		longMiles = clamp(effectiveTarget*0.30, effectiveTarget*longRunMinFraction, effectiveTarget*longRunMaxFraction)
		assigned := false
		for i, d := range out {
			if d.Intent == calendar.IntentLong && !assigned {
				out[i].AssignedMiles = round1(longMiles)
				assigned = true
			} else if d.Intent == calendar.IntentLong {
				out[i].AssignedMiles = 0 // only one long run is ever required per spec.md §4.4(i)
			}
		}
	}

	easyMiles := 0.0
	if easyCount > 0 {
		easyMiles = math.Max(easyDayFloorMiles, effectiveTarget*0.5/float64(easyCount))
		for i, d := range out {
			if d.Intent == calendar.IntentEasy {
				out[i].AssignedMiles = round1(easyMiles)
			}
		}
	}

	assignedSoFar := longMiles + easyMiles*float64(easyCount)
	residual := effectiveTarget - assignedSoFar
	switch {
	case len(hardIndices) > 0:
		perHard := math.Max(0, residual/float64(len(hardIndices)))
		for _, i := range hardIndices {
			out[i].AssignedMiles = round1(perHard)
		}
	case easyCount > 0:
		// Recovery weeks and lighter taper structures carry no quality day
		// (spec.md §4.4 B2), so the hard group's share has no absorber —
		// fold it into the easy days instead of dropping it on the floor.
		extra := residual / float64(easyCount)
		for i, d := range out {
			if d.Intent == calendar.IntentEasy {
				out[i].AssignedMiles = round1(out[i].AssignedMiles + extra)
			}
		}
	case longCount > 0:
		for i, d := range out {
			if d.Intent == calendar.IntentLong && out[i].AssignedMiles > 0 {
				out[i].AssignedMiles = round1(out[i].AssignedMiles + residual)
			}
		}
	}

	if err := validateAllocation(out, effectiveTarget); err != nil {
		return nil, err
	}
	return out, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// validateAllocation enforces the B4→B5 guard: Σ distance_i = target ± 1%.
func validateAllocation(days []DaySlot, target float64) error {
	var sum float64
	longCount := 0
	for _, d := range days {
		sum += d.AssignedMiles
		if d.Intent == calendar.IntentLong && d.AssignedMiles > 0 {
			longCount++
		}
	}
	tolerance := target * 0.01
	if math.Abs(sum-target) > tolerance {
		return stageErr("B4", "volume_sum", fmt.Errorf("allocated %.2f miles, target %.2f ± 1%%", sum, target))
	}
	return nil
}
