package telemetry

import (
	"log/slog"
	"time"
)

// Phase names for the daily step.
const (
	PhaseRoots          = "roots"
	PhaseNitrogen       = "nitrogen"
	PhaseEvaporation    = "evaporation"
	PhaseTranspiration  = "transpiration"
	PhaseStress         = "stress"
	PhasePhotosynthesis = "photosynthesis"
	PhasePartitioning   = "partitioning"
	PhasePhenology      = "phenology"
	PhaseTurnover       = "turnover"
	PhaseVerify         = "verify"
	PhaseSoil           = "soil"
	PhaseTelemetry      = "telemetry"
)

// Phases lists the step phases in pipeline order.
var Phases = []string{
	PhaseRoots, PhaseNitrogen, PhaseEvaporation, PhaseTranspiration,
	PhaseStress, PhasePhotosynthesis, PhasePartitioning, PhasePhenology,
	PhaseTurnover, PhaseVerify, PhaseSoil, PhaseTelemetry,
}

// PerfSample holds timing data for a single day.
type PerfSample struct {
	DayDuration time.Duration
	Phases      map[string]time.Duration
}

// PerfCollector tracks step timings over a rolling window of days.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	dayStart      time.Time
	phaseStart    time.Time
	lastPhase     string
}

// NewPerfCollector creates a new performance collector averaging over
// windowSize days.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 30
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
	}
}

// StartDay begins timing a new simulated day.
func (p *PerfCollector) StartDay() {
	p.dayStart = time.Now()
	p.currentPhases = make(map[string]time.Duration)
	p.lastPhase = ""
}

// StartPhase begins timing a specific phase, ending the previous one.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndDay finishes timing the current day and records the sample.
func (p *PerfCollector) EndDay() {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.lastPhase = ""

	p.samples[p.writeIndex] = PerfSample{
		DayDuration: now.Sub(p.dayStart),
		Phases:      p.currentPhases,
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// WindowSize returns the number of days averaged over.
func (p *PerfCollector) WindowSize() int { return p.windowSize }

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	AvgDayDuration time.Duration
	MinDayDuration time.Duration
	MaxDayDuration time.Duration

	// Phase breakdown (average durations)
	PhaseAvg map[string]time.Duration

	// Phase percentages of total day time
	PhasePct map[string]float64

	DaysPerSecond float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	if p.sampleCount == 0 {
		return PerfStats{
			PhaseAvg: make(map[string]time.Duration),
			PhasePct: make(map[string]float64),
		}
	}

	var total, minDay, maxDay time.Duration
	phaseSum := make(map[string]time.Duration)
	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		total += s.DayDuration
		if i == 0 || s.DayDuration < minDay {
			minDay = s.DayDuration
		}
		if s.DayDuration > maxDay {
			maxDay = s.DayDuration
		}
		for phase, dur := range s.Phases {
			phaseSum[phase] += dur
		}
	}

	avg := total / time.Duration(p.sampleCount)
	phaseAvg := make(map[string]time.Duration)
	phasePct := make(map[string]float64)
	for phase, sum := range phaseSum {
		phaseAvg[phase] = sum / time.Duration(p.sampleCount)
		if avg > 0 {
			phasePct[phase] = float64(phaseAvg[phase]) / float64(avg) * 100
		}
	}

	var perSec float64
	if avg > 0 {
		perSec = float64(time.Second) / float64(avg)
	}

	return PerfStats{
		AvgDayDuration: avg,
		MinDayDuration: minDay,
		MaxDayDuration: maxDay,
		PhaseAvg:       phaseAvg,
		PhasePct:       phasePct,
		DaysPerSecond:  perSec,
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_day_us", s.AvgDayDuration.Microseconds()),
		slog.Int64("min_day_us", s.MinDayDuration.Microseconds()),
		slog.Int64("max_day_us", s.MaxDayDuration.Microseconds()),
		slog.Float64("days_per_sec", s.DaysPerSecond),
	}
	for _, phase := range Phases {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, slog.Float64(phase+"_pct", float64(int(pct*10))/10))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd         int     `csv:"window_end"`
	AvgDayUS          int64   `csv:"avg_day_us"`
	MinDayUS          int64   `csv:"min_day_us"`
	MaxDayUS          int64   `csv:"max_day_us"`
	DaysPerSec        float64 `csv:"days_per_sec"`
	RootsPct          float64 `csv:"roots_pct"`
	NitrogenPct       float64 `csv:"nitrogen_pct"`
	EvaporationPct    float64 `csv:"evaporation_pct"`
	TranspirationPct  float64 `csv:"transpiration_pct"`
	StressPct         float64 `csv:"stress_pct"`
	PhotosynthesisPct float64 `csv:"photosynthesis_pct"`
	PartitioningPct   float64 `csv:"partitioning_pct"`
	PhenologyPct      float64 `csv:"phenology_pct"`
	TurnoverPct       float64 `csv:"turnover_pct"`
	VerifyPct         float64 `csv:"verify_pct"`
	SoilPct           float64 `csv:"soil_pct"`
	TelemetryPct      float64 `csv:"telemetry_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(windowEnd int) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:         windowEnd,
		AvgDayUS:          s.AvgDayDuration.Microseconds(),
		MinDayUS:          s.MinDayDuration.Microseconds(),
		MaxDayUS:          s.MaxDayDuration.Microseconds(),
		DaysPerSec:        s.DaysPerSecond,
		RootsPct:          s.PhasePct[PhaseRoots],
		NitrogenPct:       s.PhasePct[PhaseNitrogen],
		EvaporationPct:    s.PhasePct[PhaseEvaporation],
		TranspirationPct:  s.PhasePct[PhaseTranspiration],
		StressPct:         s.PhasePct[PhaseStress],
		PhotosynthesisPct: s.PhasePct[PhasePhotosynthesis],
		PartitioningPct:   s.PhasePct[PhasePartitioning],
		PhenologyPct:      s.PhasePct[PhasePhenology],
		TurnoverPct:       s.PhasePct[PhaseTurnover],
		VerifyPct:         s.PhasePct[PhaseVerify],
		SoilPct:           s.PhasePct[PhaseSoil],
		TelemetryPct:      s.PhasePct[PhaseTelemetry],
	}
}
