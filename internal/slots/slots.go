// Package slots defines the named, typed attributes the execution
// controller requires before it may invoke a planning tool (spec.md §3).
package slots

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Name identifies a slot. New slots are added by registering a Definition;
// the controller and extractor never hardcode a slot's shape.
type Name string

const (
	RaceDistance  Name = "race_distance"
	RaceDate      Name = "race_date"
	TargetTime    Name = "target_time"
	WeeklyMileage Name = "weekly_mileage"

	// WorkoutDescription is the single free-text slot required by the
	// add_workout target action (spec.md §4.3 ADDED note).
	WorkoutDescription Name = "workout_description"
)

// RaceDistanceEnum is the closed set of canonical race_distance values.
var RaceDistanceEnum = map[string]bool{
	"5k": true, "10k": true, "half": true, "marathon": true, "ultra": true,
}

// Value is a canonical, validated slot value along with the raw text it was
// parsed from, for audit/evidence purposes.
type Value struct {
	Name      Name
	Canonical string // canonical string form, e.g. "2026-04-25" or "03:00:00"
	Raw       string
}

// Definition is the normalize+validate pair for one slot type.
type Definition struct {
	Name      Name
	Normalize func(raw string, today time.Time) (canonical string, ambiguous bool, err error)
}

// Registry is the set of known slot definitions, keyed by name.
type Registry struct {
	defs map[Name]Definition
}

// NewRegistry builds the default registry covering spec.md §3's four
// canonical slots plus WorkoutDescription.
func NewRegistry() *Registry {
	r := &Registry{defs: map[Name]Definition{}}
	r.Register(Definition{Name: RaceDistance, Normalize: normalizeRaceDistance})
	r.Register(Definition{Name: RaceDate, Normalize: normalizeRaceDate})
	r.Register(Definition{Name: TargetTime, Normalize: normalizeTargetTime})
	r.Register(Definition{Name: WeeklyMileage, Normalize: normalizeWeeklyMileage})
	r.Register(Definition{Name: WorkoutDescription, Normalize: normalizeWorkoutDescription})
	return r
}

// Register adds or replaces a slot definition.
func (r *Registry) Register(def Definition) {
	r.defs[def.Name] = def
}

// Normalize looks up the slot's definition and runs it. An unknown slot name
// is a programmer error (the controller only ever asks about declared
// slots), so it returns an error rather than silently passing raw through.
func (r *Registry) Normalize(name Name, raw string, today time.Time) (canonical string, ambiguous bool, err error) {
	def, ok := r.defs[name]
	if !ok {
		return "", false, fmt.Errorf("slots: unknown slot %q", name)
	}
	return def.Normalize(raw, today)
}

// ─── race_distance ──────────────────────────────────────────────────────────

var distanceSynonyms = map[string]string{
	"5k": "5k", "5 k": "5k", "5km": "5k",
	"10k": "10k", "10 k": "10k", "10km": "10k",
	"half": "half", "half marathon": "half", "13.1": "half", "half-marathon": "half",
	"marathon": "marathon", "26.2": "marathon", "full": "marathon", "full marathon": "marathon",
	"ultra": "ultra", "ultramarathon": "ultra", "ultra marathon": "ultra",
}

func normalizeRaceDistance(raw string, _ time.Time) (string, bool, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if canonical, ok := distanceSynonyms[key]; ok {
		return canonical, false, nil
	}
	// A bare mileage number is not a distance — e.g. "20" could be a long
	// run, not a race category. Reject rather than guess.
	return "", true, fmt.Errorf("slots: %q is not a recognized race distance", raw)
}

// ─── race_date ──────────────────────────────────────────────────────────────

var ambiguousSeasonWords = map[string]bool{
	"spring": true, "summer": true, "fall": true, "autumn": true, "winter": true,
	"soon": true, "later": true, "sometime": true, "next year": true,
}

var monthNames = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

var monthDayPattern = regexp.MustCompile(`(?i)^([A-Za-z]+)\s+(\d{1,2})(?:st|nd|rd|th)?(?:,?\s*(\d{4}))?$`)
var isoDatePattern = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)

// normalizeRaceDate parses absolute and bare month-day forms against
// "today". Bare month-days assume the next future occurrence. Season words
// and other open-ended phrases are rejected as ambiguous, never guessed.
func normalizeRaceDate(raw string, today time.Time) (string, bool, error) {
	trimmed := strings.TrimSpace(raw)
	lower := strings.ToLower(trimmed)

	if ambiguousSeasonWords[lower] {
		return "", true, fmt.Errorf("slots: %q is an ambiguous date phrase", raw)
	}

	if m := isoDatePattern.FindStringSubmatch(trimmed); m != nil {
		t, err := time.Parse("2006-01-02", trimmed)
		if err != nil {
			return "", true, fmt.Errorf("slots: invalid ISO date %q", raw)
		}
		return finalizeRaceDate(t, today)
	}

	if m := monthDayPattern.FindStringSubmatch(trimmed); m != nil {
		month, ok := monthNames[strings.ToLower(m[1])]
		if !ok {
			return "", true, fmt.Errorf("slots: %q is not a recognized month", raw)
		}
		day, err := strconv.Atoi(m[2])
		if err != nil || day < 1 || day > 31 {
			return "", true, fmt.Errorf("slots: %q has an invalid day", raw)
		}

		year := today.Year()
		if m[3] != "" {
			year, err = strconv.Atoi(m[3])
			if err != nil {
				return "", true, fmt.Errorf("slots: %q has an invalid year", raw)
			}
		}

		candidate := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		if m[3] == "" && !candidate.After(today) {
			// Bare month-day in the past relative to "today": assume next year.
			candidate = time.Date(year+1, month, day, 0, 0, 0, 0, time.UTC)
		}
		return finalizeRaceDate(candidate, today)
	}

	return "", true, fmt.Errorf("slots: %q is not a recognized date", raw)
}

func finalizeRaceDate(t, today time.Time) (string, bool, error) {
	if !t.After(today) {
		return "", true, fmt.Errorf("slots: race_date %s is not in the future", t.Format("2006-01-02"))
	}
	return t.Format("2006-01-02"), false, nil
}

// ─── target_time ────────────────────────────────────────────────────────────

var subPattern = regexp.MustCompile(`(?i)^sub[\s-]?(\d+)(?::(\d{2}))?$`)
var hmsPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2}))?$`)

// normalizeTargetTime parses "sub-3" style goals and HH:MM(:SS) durations.
// A bare "3:15" is ambiguous between 3h15m and 3m15s; it is accepted as
// HH:MM only when it is a plausible race target (at least 20 minutes).
func normalizeTargetTime(raw string, _ time.Time) (string, bool, error) {
	trimmed := strings.TrimSpace(raw)

	if m := subPattern.FindStringSubmatch(trimmed); m != nil {
		hours, _ := strconv.Atoi(m[1])
		minutes := 0
		if m[2] != "" {
			minutes, _ = strconv.Atoi(m[2])
		}
		d := time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute
		return formatHMS(d), false, nil
	}

	if m := hmsPattern.FindStringSubmatch(trimmed); m != nil {
		hours, _ := strconv.Atoi(m[1])
		minutes, _ := strconv.Atoi(m[2])
		seconds := 0
		if m[3] != "" {
			seconds, _ = strconv.Atoi(m[3])
		}
		if minutes > 59 || seconds > 59 {
			return "", true, fmt.Errorf("slots: %q has an out-of-range minutes/seconds component", raw)
		}

		d := time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute + time.Duration(seconds)*time.Second
		if m[3] == "" && d < 20*time.Minute {
			return "", true, fmt.Errorf("slots: %q is ambiguous between HH:MM and MM:SS", raw)
		}
		return formatHMS(d), false, nil
	}

	return "", true, fmt.Errorf("slots: %q is not a recognized duration", raw)
}

func formatHMS(d time.Duration) string {
	total := int(d.Seconds())
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// ─── weekly_mileage ─────────────────────────────────────────────────────────

var mileagePattern = regexp.MustCompile(`(?i)^(~|approx\.?|about)?\s*(\d+(?:\.\d+)?)\s*(mpw|miles/week|mi/week|miles per week)?$`)

// normalizeWeeklyMileage requires an explicit weekly-volume unit; the
// unitless case is handled by NormalizeWeeklyMileageUnitless.
func normalizeWeeklyMileage(raw string, _ time.Time) (string, bool, error) {
	trimmed := strings.TrimSpace(raw)
	m := mileagePattern.FindStringSubmatch(trimmed)
	if m == nil {
		return "", true, fmt.Errorf("slots: %q is not a recognized weekly mileage", raw)
	}

	value, err := strconv.ParseFloat(m[2], 64)
	if err != nil || value <= 0 {
		return "", true, fmt.Errorf("slots: %q is not a positive mileage", raw)
	}

	if m[3] == "" {
		// Unitless number: rejected unless the caller already knows the
		// context explicitly asked for weekly mileage. This function only
		// sees the raw span, so unitless input is always ambiguous here;
		// extraction.Extractor calls NormalizeWeeklyMileageUnitless instead
		// when the words before the number in the same message mention
		// weekly mileage (see internal/extraction).
		return "", true, fmt.Errorf("slots: %q has no weekly-volume unit", raw)
	}

	return strconv.FormatFloat(value, 'f', -1, 64), false, nil
}

// NormalizeWeeklyMileageUnitless accepts a unitless positive number as
// weekly mileage. The extractor uses it when the user's own message text
// before the number mentions weekly mileage; the controller's previous
// question is not consulted.
func NormalizeWeeklyMileageUnitless(raw string) (string, bool, error) {
	trimmed := strings.TrimSpace(raw)
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || value <= 0 {
		return "", true, fmt.Errorf("slots: %q is not a positive mileage", raw)
	}
	return strconv.FormatFloat(value, 'f', -1, 64), false, nil
}

// ─── workout_description ────────────────────────────────────────────────────

func normalizeWorkoutDescription(raw string, _ time.Time) (string, bool, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", true, fmt.Errorf("slots: empty workout description")
	}
	return trimmed, false, nil
}
