package planning

import (
	"fmt"
	"sort"

	"github.com/virtus-coach/coach/internal/corpus"
)

// SelectTemplates implements B5: for each day, select the highest-priority
// matching template for its session_type and instantiate a concrete
// distance by taking the midpoint of the matching param range and adjusting
// toward the closest bound to exactly match the allocated distance
// (spec.md §4.4 B5).
func SelectTemplates(days []DaySlot, templates []*corpus.Template, milesToMeters float64) ([]TemplateBinding, error) {
	bySessionType := map[string][]*corpus.Template{}
	for _, t := range templates {
		bySessionType[t.SessionType] = append(bySessionType[t.SessionType], t)
	}

	bindings := make([]TemplateBinding, 0, len(days))
	for _, day := range days {
		if day.AssignedMiles == 0 {
			bindings = append(bindings, TemplateBinding{Day: day})
			continue
		}

		candidates := bySessionType[day.SessionType]
		if len(candidates) == 0 {
			return nil, stageErr("B5", "no_matching_template", fmt.Errorf("no template for session_type=%s", day.SessionType))
		}

		sort.SliceStable(candidates, func(i, j int) bool {
			if candidates[i].Priority != candidates[j].Priority {
				return candidates[i].Priority > candidates[j].Priority
			}
			return candidates[i].ID < candidates[j].ID
		})
		chosen := candidates[0]

		distance := resolveDistance(chosen, day.AssignedMiles)
		bindings = append(bindings, TemplateBinding{
			Day:            day,
			TemplateID:     chosen.ID,
			DistanceMeters: distance * milesToMeters,
		})
	}
	return bindings, nil
}

// resolveDistance instantiates the template's primary mileage-range param
// deterministically: start at the range midpoint, then move toward
// whichever bound is closer to the allocated miles (spec.md §4.4 B5
// "pick the midpoint, then adjust toward the closest range bound").
func resolveDistance(t *corpus.Template, allocatedMiles float64) float64 {
	var param *corpus.TemplateParam
	for i := range t.Params {
		if t.Params[i].Max > t.Params[i].Min {
			param = &t.Params[i]
			break
		}
	}
	if param == nil {
		return allocatedMiles
	}

	if allocatedMiles < param.Min {
		return param.Min
	}
	if allocatedMiles > param.Max {
		return param.Max
	}
	return allocatedMiles
}
