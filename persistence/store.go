// Package persistence provides SQLite storage of sward runs: run metadata,
// daily records and harvests.
package persistence

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/pthm-cable/sward/config"
	"github.com/pthm-cable/sward/sward"
	"github.com/pthm-cable/sward/telemetry"
)

// Store wraps a SQLite connection. It implements sward.Recorder.
type Store struct {
	conn *sqlx.DB
}

var _ sward.Recorder = (*Store)(nil)

// Run is one row of the runs table.
type Run struct {
	ID         string     `db:"id"`
	Plot       string     `db:"plot"`
	Species    string     `db:"species"`
	Seed       int64      `db:"seed"`
	StartDOY   int        `db:"start_doy"`
	StartedAt  time.Time  `db:"started_at"`
	FinishedAt *time.Time `db:"finished_at"`
	Days       int        `db:"days"`
	Cuts       int        `db:"cuts"`
	Harvested  float64    `db:"harvested"`
}

// DailyRow is the stored subset of a daily record.
type DailyRow struct {
	Day            int     `db:"day"`
	DOY            int     `db:"doy"`
	TMean          float64 `db:"t_mean"`
	Rain           float64 `db:"rain"`
	Biomass        float64 `db:"biomass"`
	Shoot          float64 `db:"shoot"`
	Growth         float64 `db:"growth"`
	LAI            float64 `db:"lai"`
	WaterStress    float64 `db:"omega_water"`
	NitrogenStress float64 `db:"omega_n"`
	Transpired     float64 `db:"transpired"`
	Drainage       float64 `db:"drainage"`
	SoilWater      float64 `db:"soil_water"`
	NitrogenUptake float64 `db:"n_uptake"`
	SoilNitrate    float64 `db:"soil_nitrate"`
	CrudeProtein   float64 `db:"crude_protein"`
}

// HarvestRow is one row of the harvests table.
type HarvestRow struct {
	Day          int     `db:"day"`
	DOY          int     `db:"doy"`
	Method       string  `db:"method"`
	Target       float64 `db:"target"`
	Removed      float64 `db:"removed"`
	Residual     float64 `db:"residual"`
	CrudeProtein float64 `db:"crude_protein"`
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		plot TEXT NOT NULL,
		species TEXT NOT NULL,
		seed INTEGER NOT NULL,
		start_doy INTEGER NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		days INTEGER NOT NULL DEFAULT 0,
		cuts INTEGER NOT NULL DEFAULT 0,
		harvested REAL NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS daily (
		run_id TEXT NOT NULL REFERENCES runs(id),
		day INTEGER NOT NULL,
		doy INTEGER NOT NULL,
		t_mean REAL NOT NULL,
		rain REAL NOT NULL,
		biomass REAL NOT NULL,
		shoot REAL NOT NULL,
		growth REAL NOT NULL,
		lai REAL NOT NULL,
		omega_water REAL NOT NULL,
		omega_n REAL NOT NULL,
		transpired REAL NOT NULL,
		drainage REAL NOT NULL,
		soil_water REAL NOT NULL,
		n_uptake REAL NOT NULL,
		soil_nitrate REAL NOT NULL,
		crude_protein REAL NOT NULL,
		PRIMARY KEY (run_id, day)
	);

	CREATE TABLE IF NOT EXISTS harvests (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		day INTEGER NOT NULL,
		doy INTEGER NOT NULL,
		method TEXT NOT NULL,
		target REAL NOT NULL,
		removed REAL NOT NULL,
		residual REAL NOT NULL,
		crude_protein REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_harvests_run ON harvests(run_id);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// StartRun registers a new run and returns its id.
func (s *Store) StartRun(plot string, cfg *config.Config) (string, error) {
	id := uuid.NewString()
	names := make([]string, 0, len(cfg.Mixture))
	for _, m := range cfg.Mixture {
		names = append(names, m.Species)
	}
	_, err := s.conn.Exec(`INSERT INTO runs
		(id, plot, species, seed, start_doy, started_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, plot, strings.Join(names, ","), cfg.Weather.Seed, cfg.Engine.StartDOY, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// FinishRun stores the totals of a completed run.
func (s *Store) FinishRun(runID string, sum sward.Summary) error {
	res, err := s.conn.Exec(`UPDATE runs
		SET finished_at = ?, days = ?, cuts = ?, harvested = ?
		WHERE id = ?`,
		time.Now().UTC(), sum.Days, sum.Cuts, sum.Harvested, runID,
	)
	if err != nil {
		return fmt.Errorf("update run %s: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("unknown run %s", runID)
	}

	slog.Info("run stored",
		"run", runID,
		"days", humanize.Comma(int64(sum.Days)),
		"harvested", humanize.FormatFloat("#,###.", sum.Harvested),
	)
	return nil
}

// RecordDay appends a daily record.
func (s *Store) RecordDay(runID string, r telemetry.DailyRecord) error {
	return s.RecordDays(runID, []telemetry.DailyRecord{r})
}

// RecordDays appends daily records in one transaction.
func (s *Store) RecordDays(runID string, records []telemetry.DailyRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT OR REPLACE INTO daily
		(run_id, day, doy, t_mean, rain, biomass, shoot, growth, lai,
		 omega_water, omega_n, transpired, drainage, soil_water,
		 n_uptake, soil_nitrate, crude_protein)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.Exec(
			runID, r.Day, r.DOY, r.TMean, r.Rain, r.Biomass, r.Shoot, r.Growth, r.LAI,
			r.WaterStress, r.NitrogenStress, r.Transpired, r.Drainage, r.SoilWater,
			r.NitrogenUptake, r.SoilNitrate, r.CrudeProtein,
		)
		if err != nil {
			return fmt.Errorf("insert day %d: %w", r.Day, err)
		}
	}

	return tx.Commit()
}

// RecordHarvest appends a harvest.
func (s *Store) RecordHarvest(runID string, h telemetry.HarvestRecord) error {
	_, err := s.conn.Exec(`INSERT INTO harvests
		(run_id, day, doy, method, target, removed, residual, crude_protein)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, h.Day, h.DOY, h.Method, h.Target, h.Removed, h.Residual, h.CrudeProtein,
	)
	if err != nil {
		return fmt.Errorf("insert harvest on day %d: %w", h.Day, err)
	}
	return nil
}

// Run returns one run.
func (s *Store) Run(runID string) (Run, error) {
	var r Run
	err := s.conn.Get(&r, "SELECT * FROM runs WHERE id = ?", runID)
	return r, err
}

// Runs returns all runs, most recent first.
func (s *Store) Runs() ([]Run, error) {
	var runs []Run
	err := s.conn.Select(&runs, "SELECT * FROM runs ORDER BY started_at DESC")
	return runs, err
}

// Daily returns the daily rows of a run in day order.
func (s *Store) Daily(runID string) ([]DailyRow, error) {
	var rows []DailyRow
	err := s.conn.Select(&rows, `SELECT day, doy, t_mean, rain, biomass, shoot, growth, lai,
		omega_water, omega_n, transpired, drainage, soil_water,
		n_uptake, soil_nitrate, crude_protein
		FROM daily WHERE run_id = ? ORDER BY day`, runID)
	return rows, err
}

// Harvests returns the harvests of a run in order.
func (s *Store) Harvests(runID string) ([]HarvestRow, error) {
	var rows []HarvestRow
	err := s.conn.Select(&rows, `SELECT day, doy, method, target, removed, residual, crude_protein
		FROM harvests WHERE run_id = ? ORDER BY id`, runID)
	return rows, err
}

// TotalHarvested returns the dry matter removed over a run [kg DM ha-1].
func (s *Store) TotalHarvested(runID string) (float64, error) {
	var total float64
	err := s.conn.Get(&total, "SELECT COALESCE(SUM(removed), 0) FROM harvests WHERE run_id = ?", runID)
	return total, err
}
