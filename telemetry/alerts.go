package telemetry

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/sward/config"
)

// AlertType identifies the type of alert.
type AlertType string

const (
	AlertDrought        AlertType = "drought"
	AlertNitrogen       AlertType = "nitrogen_limitation"
	AlertColdDamage     AlertType = "cold_damage"
	AlertHeatStress     AlertType = "heat_stress"
	AlertKeepAliveFloor AlertType = "keepalive_floor"
	AlertPhenologyReset AlertType = "phenology_reset"
	AlertGrowthFlush    AlertType = "growth_flush"
	AlertGrowthCrash    AlertType = "growth_crash"
)

// Alert is an automatically detected event in the sward. It is one row of
// alerts.csv.
type Alert struct {
	Type        AlertType `csv:"type"`
	Day         int       `csv:"day"`
	DOY         int       `csv:"doy"`
	Species     string    `csv:"species"`
	Description string    `csv:"description"`
}

// LogAlert logs the alert.
func (a Alert) LogAlert(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("alert",
		"type", string(a.Type),
		"day", a.Day,
		"doy", a.DOY,
		"species", a.Species,
		"description", a.Description,
	)
}

// AlertDetector turns daily records into alerts. Stress alerts fire once at
// onset, after MinDays consecutive days below the threshold, and re-arm when
// the factor recovers.
type AlertDetector struct {
	cfg config.AlertsConfig

	// Rolling history (circular buffer)
	history     []DailyRecord
	historySize int
	historyIdx  int
	historyFull bool

	streaks map[streakKey]int
	active  map[streakKey]bool
}

type streakKey struct {
	species string
	kind    AlertType
}

// NewAlertDetector creates a detector with the configured thresholds.
func NewAlertDetector(cfg config.AlertsConfig) *AlertDetector {
	if cfg.HistorySize < 3 {
		cfg.HistorySize = 3
	}
	if cfg.MinDays < 1 {
		cfg.MinDays = 1
	}
	return &AlertDetector{
		cfg:         cfg,
		history:     make([]DailyRecord, cfg.HistorySize),
		historySize: cfg.HistorySize,
		streaks:     make(map[streakKey]int),
		active:      make(map[streakKey]bool),
	}
}

// Check analyses one day and returns any triggered alerts.
func (ad *AlertDetector) Check(r DailyRecord, species []SpeciesStatus) []Alert {
	var alerts []Alert

	for _, s := range species {
		if a := ad.sustained(r, s.Name, AlertDrought, s.WaterStress < ad.cfg.DroughtThreshold, ad.cfg.MinDays,
			fmt.Sprintf("Ω_water %.2f below %.2f", s.WaterStress, ad.cfg.DroughtThreshold)); a != nil {
			alerts = append(alerts, *a)
		}
		if a := ad.sustained(r, s.Name, AlertNitrogen, s.NitrogenStress < ad.cfg.NitrogenThreshold, ad.cfg.MinDays,
			fmt.Sprintf("Ω_N %.2f below %.2f", s.NitrogenStress, ad.cfg.NitrogenThreshold)); a != nil {
			alerts = append(alerts, *a)
		}
		if a := ad.sustained(r, s.Name, AlertColdDamage, s.LowTempStress < ad.cfg.ColdThreshold, 1,
			fmt.Sprintf("τ_T_low %.2f at mean %.1f°C", s.LowTempStress, r.TMean)); a != nil {
			alerts = append(alerts, *a)
		}
		if a := ad.sustained(r, s.Name, AlertHeatStress, s.HighTempStress < ad.cfg.HeatThreshold, 1,
			fmt.Sprintf("τ_T_high %.2f", s.HighTempStress)); a != nil {
			alerts = append(alerts, *a)
		}
		if a := ad.sustained(r, s.Name, AlertKeepAliveFloor, s.AtFloor, 1,
			"non-structural reserves held at the keep-alive floor"); a != nil {
			alerts = append(alerts, *a)
		}
		if s.PhenologyReset {
			alerts = append(alerts, Alert{
				Type:        AlertPhenologyReset,
				Day:         r.Day,
				DOY:         r.DOY,
				Species:     s.Name,
				Description: "leaf share reached the reset threshold, new vegetative cycle",
			})
		}
	}

	if ad.historyFull || ad.historyIdx > 0 {
		if a := ad.checkGrowthFlush(r); a != nil {
			alerts = append(alerts, *a)
		}
		if a := ad.checkGrowthCrash(r); a != nil {
			alerts = append(alerts, *a)
		}
	}
	ad.addToHistory(r)
	return alerts
}

// sustained tracks a per-species condition and reports its onset.
func (ad *AlertDetector) sustained(r DailyRecord, species string, kind AlertType, on bool, minDays int, desc string) *Alert {
	k := streakKey{species: species, kind: kind}
	if !on {
		ad.streaks[k] = 0
		ad.active[k] = false
		return nil
	}
	ad.streaks[k]++
	if ad.active[k] || ad.streaks[k] < minDays {
		return nil
	}
	ad.active[k] = true
	return &Alert{
		Type:        kind,
		Day:         r.Day,
		DOY:         r.DOY,
		Species:     species,
		Description: fmt.Sprintf("%s for %d days", desc, ad.streaks[k]),
	}
}

func (ad *AlertDetector) addToHistory(r DailyRecord) {
	ad.history[ad.historyIdx] = r
	ad.historyIdx = (ad.historyIdx + 1) % ad.historySize
	if ad.historyIdx == 0 {
		ad.historyFull = true
	}
}

func (ad *AlertDetector) getHistory() []DailyRecord {
	if ad.historyFull {
		return ad.history
	}
	return ad.history[:ad.historyIdx]
}

func (ad *AlertDetector) meanGrowth() (float64, bool) {
	history := ad.getHistory()
	if len(history) < 3 {
		return 0, false
	}
	var sum float64
	for _, h := range history {
		sum += h.Growth
	}
	return sum / float64(len(history)), true
}

// checkGrowthFlush fires when growth is more than twice the rolling average.
func (ad *AlertDetector) checkGrowthFlush(r DailyRecord) *Alert {
	avg, ok := ad.meanGrowth()
	if !ok || avg <= 1 {
		return nil
	}
	if r.Growth > 2*avg && r.Growth > 20 {
		return &Alert{
			Type:        AlertGrowthFlush,
			Day:         r.Day,
			DOY:         r.DOY,
			Description: fmt.Sprintf("growth %.1f kg DM/ha is %.1fx average (%.1f)", r.Growth, r.Growth/avg, avg),
		}
	}
	return nil
}

// checkGrowthCrash fires when growth falls below 30% of a productive average.
func (ad *AlertDetector) checkGrowthCrash(r DailyRecord) *Alert {
	avg, ok := ad.meanGrowth()
	if !ok || avg < 10 {
		return nil
	}
	if r.Growth < 0.3*avg {
		return &Alert{
			Type:        AlertGrowthCrash,
			Day:         r.Day,
			DOY:         r.DOY,
			Description: fmt.Sprintf("growth %.1f kg DM/ha dropped from average %.1f", r.Growth, avg),
		}
	}
	return nil
}
