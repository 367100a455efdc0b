package weather

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/sward/components"
	"github.com/pthm-cable/sward/config"
)

// Record is one row of a daily weather file. Optional columns left empty
// or zero are derived from the site: exrad and daylength from latitude and
// day of year, globrad from sunhours, f_directrad from globrad/exrad.
type Record struct {
	Date       string  `csv:"date"`
	DOY        int     `csv:"doy"`
	TMin       float64 `csv:"tmin"`
	TMax       float64 `csv:"tmax"`
	TAvg       float64 `csv:"tavg"`
	GlobRad    float64 `csv:"globrad"`  // [MJ m-2 d-1]
	ExRad      float64 `csv:"exrad"`    // [MJ m-2 d-1]
	Wind       float64 `csv:"wind"`     // [m s-1]
	Precip     float64 `csv:"precip"`   // [mm]
	SunHours   float64 `csv:"sunhours"` // [h]
	RelHumid   float64 `csv:"relhumid"` // [%]
	Daylength  float64 `csv:"daylength"`
	FDirectRad float64 `csv:"f_directrad"`
}

// ReadCSVFile reads daily weather from a CSV file.
func ReadCSVFile(path string, site config.SiteConfig, windHeight float64) ([]components.WeatherDay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening weather file: %w", err)
	}
	defer f.Close()
	return ReadCSV(f, site, windHeight)
}

// ReadCSV parses daily weather records and completes them for the site.
// Relative humidity is given in percent and converted to a fraction.
func ReadCSV(r io.Reader, site config.SiteConfig, windHeight float64) ([]components.WeatherDay, error) {
	var records []*Record
	if err := gocsv.Unmarshal(r, &records); err != nil {
		return nil, fmt.Errorf("parsing weather csv: %w", err)
	}
	if windHeight <= 0 {
		windHeight = 2
	}

	days := make([]components.WeatherDay, 0, len(records))
	var veg VegetationDetector
	for i, rec := range records {
		day, err := rec.toDay(site, windHeight)
		if err != nil {
			return nil, fmt.Errorf("weather row %d: %w", i+1, err)
		}
		day.VegetationPhase = veg.Observe(day.TMean)
		days = append(days, day)
	}
	return days, nil
}

func (rec *Record) toDay(site config.SiteConfig, windHeight float64) (components.WeatherDay, error) {
	doy := rec.DOY
	if doy <= 0 {
		t, err := time.Parse("2006-01-02", rec.Date)
		if err != nil {
			return components.WeatherDay{}, fmt.Errorf("no doy and unparseable date %q: %w", rec.Date, err)
		}
		doy = t.YearDay()
	}

	tMean := rec.TAvg
	if tMean == 0 && (rec.TMin != 0 || rec.TMax != 0) {
		tMean = (rec.TMin + rec.TMax) / 2
	}
	ra := rec.ExRad
	if ra <= 0 {
		ra = ExtraterrestrialRadiation(site.Latitude, doy)
	}
	rs := rec.GlobRad
	if rs <= 0 && rec.SunHours > 0 {
		rs = GlobalRadiationFromSunshine(rec.SunHours, site.Latitude, doy)
	}
	daylength := rec.Daylength * 3600
	if daylength <= 0 {
		daylength = Daylength(site.Latitude, doy)
	}
	fs := rec.FDirectRad
	if fs <= 0 {
		fs = DirectFraction(rs, ra)
	}

	return components.WeatherDay{
		DayOfYear:      doy,
		TMean:          tMean,
		TMin:           rec.TMin,
		TMax:           rec.TMax,
		GlobalRad:      rs,
		ExtraterrRad:   ra,
		SunHours:       rec.SunHours,
		RelHumidity:    rec.RelHumid / 100,
		Wind:           rec.Wind,
		WindHeight:     windHeight,
		CO2:            site.CO2,
		Rain:           rec.Precip,
		DirectFraction: fs,
		Daylength:      daylength,
	}, nil
}

// WriteCSV writes days as weather records, the inverse of ReadCSV.
func WriteCSV(w io.Writer, days []components.WeatherDay) error {
	records := make([]*Record, 0, len(days))
	for _, d := range days {
		records = append(records, &Record{
			DOY:        d.DayOfYear,
			TMin:       d.TMin,
			TMax:       d.TMax,
			TAvg:       d.TMean,
			GlobRad:    d.GlobalRad,
			ExRad:      d.ExtraterrRad,
			Wind:       d.Wind,
			Precip:     d.Rain,
			SunHours:   d.SunHours,
			RelHumid:   d.RelHumidity * 100,
			Daylength:  d.Daylength / 3600,
			FDirectRad: d.DirectFraction,
		})
	}
	if err := gocsv.Marshal(records, w); err != nil {
		return fmt.Errorf("writing weather csv: %w", err)
	}
	return nil
}
