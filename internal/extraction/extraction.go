// Package extraction implements the Attribute Extractor (C5): the
// stage-2 agent that pulls typed slot values out of a free-text message
// given the slots the controller has declared it needs (spec.md §4.2).
// Grounded on
// original_source/app/coach/extraction/modify_race_extractor.go's per-field
// regex-first extraction with an ambiguous-field bucket, reworked into a
// single slot-agnostic extractor driven by internal/slots' registry rather
// than one handwritten extractor per target action.
package extraction

import (
	"regexp"
	"strings"
	"time"

	"github.com/virtus-coach/coach/internal/slots"
)

// Result is the ExtractionResult of spec.md §3.
type Result struct {
	Values          map[slots.Name]string
	Confidence      float64
	Evidence        map[slots.Name]string
	MissingFields   map[slots.Name]bool
	AmbiguousFields map[slots.Name]bool
}

// NewEmptyResult returns the no-op extraction for an empty message: every
// requested field is missing, nothing is filled (spec.md §4.2 "Failure
// semantics").
func NewEmptyResult(requested []slots.Name) Result {
	missing := make(map[slots.Name]bool, len(requested))
	for _, s := range requested {
		missing[s] = true
	}
	return Result{
		Values:          map[slots.Name]string{},
		Evidence:        map[slots.Name]string{},
		MissingFields:   missing,
		AmbiguousFields: map[slots.Name]bool{},
	}
}

// span is one candidate substring considered for a slot, extracted by a
// slot-specific matcher below.
type span struct {
	text  string
	after string // substring of the message immediately preceding span.text, for unit-context checks
}

// Extractor runs deterministic regex/heuristic extraction for every
// requested slot. It takes no llmclient.Completer; every slot is resolved by
// the deterministic path.
type Extractor struct {
	registry *slots.Registry
}

// New builds an Extractor over the default slot registry.
func New(registry *slots.Registry) *Extractor {
	return &Extractor{registry: registry}
}

// Extract implements the §4.2 contract. today anchors relative-date
// parsing to the conversation's "today". conversationSummary is the
// rolling recap the controller built from load_context (spec.md §4.2's
// fourth argument); when the current message doesn't textually support a
// requested slot, the extractor MAY fall back to the summary to
// disambiguate — it never invents a value neither text supports.
func (e *Extractor) Extract(message string, requested []slots.Name, known map[slots.Name]string, today time.Time, conversationSummary string) Result {
	result := Result{
		Values:          map[slots.Name]string{},
		Evidence:        map[slots.Name]string{},
		MissingFields:   map[slots.Name]bool{},
		AmbiguousFields: map[slots.Name]bool{},
	}

	trimmed := strings.TrimSpace(message)
	summary := strings.TrimSpace(conversationSummary)
	if trimmed == "" && summary == "" {
		return NewEmptyResult(requested)
	}

	var totalConfidence float64
	var scored int

	for _, name := range requested {
		if _, already := known[name]; already {
			continue
		}

		candidates := candidateSpans(name, trimmed)
		fromSummary := false
		if len(candidates) == 0 && summary != "" {
			candidates = candidateSpans(name, summary)
			fromSummary = true
		}
		if len(candidates) == 0 {
			result.MissingFields[name] = true
			continue
		}

		// Prior-turn evidence is weighed lower than the current message: the
		// slot may since have changed, so confidence — not eligibility — is
		// what reflects the source.
		sourceDiscount := 1.0
		if fromSummary {
			sourceDiscount = 0.8
		}

		filled := false
		for _, c := range candidates {
			raw := c.text
			if name == slots.WeeklyMileage && !fromSummary && isUnitlessMileageContext(c, trimmed) {
				canonical, ambiguous, err := slots.NormalizeWeeklyMileageUnitless(raw)
				if err == nil && !ambiguous {
					result.Values[name] = canonical
					result.Evidence[name] = raw
					totalConfidence += 0.9 * sourceDiscount
					scored++
					filled = true
					break
				}
			}

			canonical, ambiguous, err := e.registry.Normalize(name, raw, today)
			if err != nil || ambiguous {
				continue
			}
			result.Values[name] = canonical
			result.Evidence[name] = raw
			totalConfidence += 0.85 * sourceDiscount
			scored++
			filled = true
			break
		}

		if !filled {
			if hasAmbiguousCandidate(name, candidates, e.registry, today) {
				result.AmbiguousFields[name] = true
			} else {
				result.MissingFields[name] = true
			}
		}
	}

	if scored > 0 {
		result.Confidence = totalConfidence / float64(scored)
	}
	return result
}

var seasonWordPattern = regexp.MustCompile(`(?i)\b(spring|summer|fall|autumn|winter|soon|later|sometime)\b`)
var monthDaySpan = regexp.MustCompile(`(?i)\b([A-Za-z]+)\s+(\d{1,2})(?:st|nd|rd|th)?(?:,?\s*\d{4})?\b`)
var isoDateSpan = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
var distanceSpan = regexp.MustCompile(`(?i)\b(5\s?k|10\s?k|half[\s-]?marathon|marathon|full marathon|ultra(?:marathon)?|26\.2|13\.1)\b`)
var subTimeSpan = regexp.MustCompile(`(?i)\bsub[\s-]?\d+(?::\d{2})?\b`)
var hmsSpan = regexp.MustCompile(`\b\d{1,2}:\d{2}(?::\d{2})?\b`)
var mileageSpan = regexp.MustCompile(`(?i)\b~?\d+(?:\.\d+)?\s*(?:mpw|miles/week|mi/week|miles per week)\b`)
var bareNumberSpan = regexp.MustCompile(`\b\d+(?:\.\d+)?\b`)

func candidateSpans(name slots.Name, message string) []span {
	var pattern *regexp.Regexp
	switch name {
	case slots.RaceDistance:
		pattern = distanceSpan
	case slots.RaceDate:
		if m := seasonWordPattern.FindString(message); m != "" {
			return []span{{text: m}}
		}
		if m := isoDateSpan.FindString(message); m != "" {
			return []span{{text: m}}
		}
		if m := monthDaySpan.FindString(message); m != "" {
			return []span{{text: m}}
		}
		return nil
	case slots.TargetTime:
		if m := subTimeSpan.FindString(message); m != "" {
			return []span{{text: m}}
		}
		if m := hmsSpan.FindString(message); m != "" {
			return []span{{text: m}}
		}
		return nil
	case slots.WeeklyMileage:
		if m := mileageSpan.FindString(message); m != "" {
			return []span{{text: m}}
		}
		// Fall through to a bare number, annotated with preceding context so
		// isUnitlessMileageContext can decide whether it's in-context.
		if loc := bareNumberSpan.FindStringIndex(message); loc != nil {
			return []span{{text: message[loc[0]:loc[1]], after: message[:loc[0]]}}
		}
		return nil
	case slots.WorkoutDescription:
		return []span{{text: message}}
	default:
		return nil
	}

	if m := pattern.FindString(message); m != "" {
		return []span{{text: m}}
	}
	return nil
}

// isUnitlessMileageContext reports whether the preceding text explicitly
// asked for weekly mileage, permitting a unitless number per spec.md §4.2.
func isUnitlessMileageContext(c span, _ string) bool {
	lower := strings.ToLower(c.after)
	return strings.Contains(lower, "weekly mileage") || strings.Contains(lower, "miles per week") || strings.Contains(lower, "mpw") || strings.Contains(lower, "how many miles")
}

// hasAmbiguousCandidate distinguishes "found text but it didn't validate"
// (ambiguous) from "found nothing at all" (missing), per spec.md §4.2's
// "value that fails its validator is recorded in ambiguous_fields".
func hasAmbiguousCandidate(name slots.Name, candidates []span, registry *slots.Registry, today time.Time) bool {
	for _, c := range candidates {
		if _, ambiguous, err := registry.Normalize(name, c.text, today); err != nil && ambiguous {
			return true
		}
	}
	return false
}
