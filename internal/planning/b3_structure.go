package planning

import (
	"fmt"

	"github.com/virtus-coach/coach/internal/calendar"
	"github.com/virtus-coach/coach/internal/corpus"
)

// LoadStructure implements B3: for a macro week, pick the structure whose
// (philosophy_id, race_type, audience, phase) matches and whose
// days_to_race_range contains the week's distance-to-race, preferring a
// taper structure once days-to-race falls at or below its
// taper_days_to_race_le (spec.md §4.4 B3).
func LoadStructure(candidates []*corpus.Structure, philosophyID string, profile AthleteProfile, week WeekRecord, daysToRace int) (*corpus.Structure, error) {
	var matches []*corpus.Structure
	for _, s := range candidates {
		if s.ID == "" {
			continue
		}
		if !matchesStructure(s, philosophyID, profile, week, daysToRace) {
			continue
		}
		matches = append(matches, s)
	}

	if len(matches) == 0 {
		return nil, stageErr("B3", "no_matching_structure", fmt.Errorf("no structure matches philosophy=%s phase=%s days_to_race=%d", philosophyID, week.Phase, daysToRace))
	}

	var taperPreferred *corpus.Structure
	for _, s := range matches {
		if s.TaperDaysToRaceLE > 0 && daysToRace <= s.TaperDaysToRaceLE {
			if taperPreferred == nil || s.ID < taperPreferred.ID {
				taperPreferred = s
			}
		}
	}
	if taperPreferred != nil {
		return taperPreferred, nil
	}

	best := matches[0]
	for _, s := range matches[1:] {
		if s.Priority > best.Priority || (s.Priority == best.Priority && s.ID < best.ID) {
			best = s
		}
	}
	return best, nil
}

// matchesStructure does not filter on philosophyID directly: structures are
// scoped to a philosophy by directory convention in FileSource, not by a
// front-matter field, so philosophyID is accepted for call-site symmetry
// with SelectPhilosophy but unused here.
func matchesStructure(s *corpus.Structure, _ string, profile AthleteProfile, week WeekRecord, daysToRace int) bool {
	if !containsStr(s.RaceTypes, profile.RaceDistance) {
		return false
	}
	if s.Audience != "" && s.Audience != profile.Audience {
		return false
	}
	if s.Phase != string(week.Phase) {
		return false
	}
	if s.DaysToRaceMin > 0 && daysToRace < s.DaysToRaceMin {
		return false
	}
	if s.DaysToRaceMax > 0 && daysToRace > s.DaysToRaceMax {
		return false
	}
	return true
}

// MapHardGroupsToIntent applies spec.md §9 Open Question #2: structures map
// their hard-group session members to intent `quality` at load time; the
// structure-level `hard_days_max` remains a cap checked against the
// resulting quality-intent count, not a separate notion of "hard".
func MapHardGroupsToIntent(s *corpus.Structure) ([]DaySlot, error) {
	hardMembers := map[string]bool{}
	for _, members := range s.SessionGroups {
		for _, m := range members {
			hardMembers[m] = true
		}
	}

	days := make([]DaySlot, 0, len(s.WeekPattern))
	longRuns := 0
	qualityCount := 0
	for _, entry := range s.WeekPattern {
		intent := intentFor(entry.SessionType)
		if entry.HardGroup || hardMembers[entry.SessionType] {
			intent = calendar.IntentQuality
			qualityCount++
		}
		if intent == calendar.IntentLong {
			longRuns++
		}
		days = append(days, DaySlot{Weekday: entry.Weekday, SessionType: entry.SessionType, Intent: intent, HardGroup: entry.HardGroup || hardMembers[entry.SessionType]})
	}

	if s.Rules.HardDaysMax > 0 && qualityCount > s.Rules.HardDaysMax {
		return nil, stageErr("B3", "hard_days_max", fmt.Errorf("structure %s has %d quality-intent days, exceeding hard_days_max=%d", s.ID, qualityCount, s.Rules.HardDaysMax))
	}
	if s.Rules.LongRunRequiredCount > 0 && longRuns != s.Rules.LongRunRequiredCount {
		return nil, stageErr("B3", "long_run_count", fmt.Errorf("structure %s has %d long-run days, expected %d", s.ID, longRuns, s.Rules.LongRunRequiredCount))
	}
	if s.Rules.NoConsecutiveHardDays {
		if err := checkNoConsecutiveHard(days); err != nil {
			return nil, err
		}
	}

	return days, nil
}

func intentFor(sessionType string) calendar.Intent {
	switch sessionType {
	case "rest":
		return calendar.IntentRest
	case "long", "long_run":
		return calendar.IntentLong
	case "easy", "recovery":
		return calendar.IntentEasy
	default:
		return calendar.IntentEasy
	}
}

// checkNoConsecutiveHard enforces P6: no two consecutive hard-intent days.
func checkNoConsecutiveHard(days []DaySlot) error {
	for i := 1; i < len(days); i++ {
		if days[i].Intent == calendar.IntentQuality && days[i-1].Intent == calendar.IntentQuality {
			return stageErr("B3", "no_consecutive_hard_days", fmt.Errorf("days %d and %d are both quality-intent", i-1, i))
		}
	}
	return nil
}
