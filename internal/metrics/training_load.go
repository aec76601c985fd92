// Package metrics computes training-load EWMA figures (CTL/ATL/TSB) as a
// pure function of a daily training-stress series. Out of scope per
// spec.md §1 beyond this pure computation; no other package in this module
// calls it. Recovered from original_source/app/metrics/training_load.py.
package metrics

// Default EWMA time constants (days), matching the original's chronic/acute
// load windows.
const (
	DefaultChronicDays = 42.0
	DefaultAcuteDays   = 7.0
)

// DailyLoad is one day's training stress score, in arbitrary caller-defined
// units (e.g. TRIMP or duration-based load).
type DailyLoad struct {
	Stress float64
}

// Point is one day's resulting load figures.
type Point struct {
	CTL float64 // chronic training load (fitness)
	ATL float64 // acute training load (fatigue)
	TSB float64 // training stress balance (CTL - ATL; form)
}

// Compute runs the standard exponentially-weighted moving average over a
// chronologically ordered series of daily stress scores, using chronicDays
// and acuteDays as the EWMA time constants. The series must be gapless and
// in ascending date order; the caller is responsible for filling rest days
// with a zero-stress DailyLoad.
func Compute(series []DailyLoad, chronicDays, acuteDays float64) []Point {
	if chronicDays <= 0 {
		chronicDays = DefaultChronicDays
	}
	if acuteDays <= 0 {
		acuteDays = DefaultAcuteDays
	}

	chronicAlpha := 2.0 / (chronicDays + 1.0)
	acuteAlpha := 2.0 / (acuteDays + 1.0)

	points := make([]Point, len(series))
	var ctl, atl float64
	for i, day := range series {
		if i == 0 {
			ctl = day.Stress
			atl = day.Stress
		} else {
			ctl = ctl + chronicAlpha*(day.Stress-ctl)
			atl = atl + acuteAlpha*(day.Stress-atl)
		}
		points[i] = Point{CTL: ctl, ATL: atl, TSB: ctl - atl}
	}
	return points
}

// Latest is a convenience wrapper returning only the final point. The
// planning pipeline does not read it; its fatigue scale is a caller-supplied
// float64.
func Latest(series []DailyLoad, chronicDays, acuteDays float64) (Point, bool) {
	points := Compute(series, chronicDays, acuteDays)
	if len(points) == 0 {
		return Point{}, false
	}
	return points[len(points)-1], true
}
