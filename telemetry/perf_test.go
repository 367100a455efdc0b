package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartDay()
		pc.StartPhase(PhaseRoots)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhasePhotosynthesis)
		time.Sleep(200 * time.Microsecond)
		pc.EndDay()
	}

	stats := pc.Stats()

	if stats.AvgDayDuration <= 0 {
		t.Error("expected positive average day duration")
	}
	if _, ok := stats.PhaseAvg[PhaseRoots]; !ok {
		t.Error("expected roots phase to be tracked")
	}
	if _, ok := stats.PhaseAvg[PhasePhotosynthesis]; !ok {
		t.Error("expected photosynthesis phase to be tracked")
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)

	for i := 0; i < 10; i++ {
		pc.StartDay()
		pc.StartPhase(PhaseTurnover)
		time.Sleep(10 * time.Microsecond)
		pc.EndDay()
	}

	stats := pc.Stats()
	if stats.AvgDayDuration <= 0 {
		t.Error("expected positive average day duration after window filled")
	}
	if stats.DaysPerSecond <= 0 {
		t.Error("expected positive days per second")
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartDay()
		pc.StartPhase("fast")
		time.Sleep(10 * time.Microsecond)
		pc.StartPhase("slow")
		time.Sleep(500 * time.Microsecond)
		pc.EndDay()
	}

	stats := pc.Stats()
	if stats.PhasePct["slow"] <= stats.PhasePct["fast"] {
		t.Errorf("expected slow phase (%v%%) > fast phase (%v%%)", stats.PhasePct["slow"], stats.PhasePct["fast"])
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	stats := NewPerfCollector(10).Stats()

	if stats.AvgDayDuration != 0 {
		t.Error("expected zero avg day duration for empty collector")
	}
	if stats.PhaseAvg == nil || stats.PhasePct == nil {
		t.Error("expected non-nil phase maps")
	}
}

func TestPerfStats_ToCSV(t *testing.T) {
	s := PerfStats{
		AvgDayDuration: 250 * time.Microsecond,
		PhasePct:       map[string]float64{PhaseTranspiration: 40, PhaseTurnover: 12.5},
	}
	row := s.ToCSV(90)
	if row.WindowEnd != 90 || row.AvgDayUS != 250 {
		t.Errorf("row = %+v", row)
	}
	if row.TranspirationPct != 40 || row.TurnoverPct != 12.5 || row.RootsPct != 0 {
		t.Errorf("phase columns = %+v", row)
	}
}
