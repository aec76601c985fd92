package metrics

import "testing"

func TestComputeFirstPointEqualsStress(t *testing.T) {
	series := []DailyLoad{{Stress: 50}}
	points := Compute(series, DefaultChronicDays, DefaultAcuteDays)
	if len(points) != 1 {
		t.Fatalf("expected 1 point, got %d", len(points))
	}
	if points[0].CTL != 50 || points[0].ATL != 50 || points[0].TSB != 0 {
		t.Errorf("first point = %+v, want CTL=ATL=50 TSB=0", points[0])
	}
}

func TestComputeConstantStressConverges(t *testing.T) {
	series := make([]DailyLoad, 100)
	for i := range series {
		series[i] = DailyLoad{Stress: 40}
	}
	points := Compute(series, DefaultChronicDays, DefaultAcuteDays)
	last := points[len(points)-1]
	if diff := last.CTL - 40; diff > 0.01 || diff < -0.01 {
		t.Errorf("CTL should converge to 40, got %v", last.CTL)
	}
	if diff := last.ATL - 40; diff > 0.01 || diff < -0.01 {
		t.Errorf("ATL should converge to 40, got %v", last.ATL)
	}
	if last.TSB > 0.02 || last.TSB < -0.02 {
		t.Errorf("TSB should converge to 0, got %v", last.TSB)
	}
}

func TestComputeDefaultsAppliedForNonPositiveWindows(t *testing.T) {
	series := []DailyLoad{{Stress: 10}, {Stress: 20}}
	withDefaults := Compute(series, DefaultChronicDays, DefaultAcuteDays)
	withZero := Compute(series, 0, 0)
	for i := range withDefaults {
		if withDefaults[i] != withZero[i] {
			t.Errorf("point %d: default-window %+v != zero-window %+v", i, withDefaults[i], withZero[i])
		}
	}
}

func TestLatestEmptySeries(t *testing.T) {
	_, ok := Latest(nil, DefaultChronicDays, DefaultAcuteDays)
	if ok {
		t.Error("expected ok=false for empty series")
	}
}

func TestLatestReturnsFinalPoint(t *testing.T) {
	series := []DailyLoad{{Stress: 10}, {Stress: 30}, {Stress: 50}}
	points := Compute(series, DefaultChronicDays, DefaultAcuteDays)
	latest, ok := Latest(series, DefaultChronicDays, DefaultAcuteDays)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if latest != points[len(points)-1] {
		t.Errorf("Latest = %+v, want %+v", latest, points[len(points)-1])
	}
}
