// Package journal persists emitted signal events for downstream report renderers.
package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-contraction/internal/logger"
	"github.com/rxtech-lab/argo-contraction/internal/types"
	"github.com/rxtech-lab/argo-contraction/internal/version"
	"github.com/rxtech-lab/argo-contraction/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// timestampColumn is quoted because timestamp is also a type name.
const timestampColumn = `"timestamp"`

const (
	// SignalsFile is the parquet export written by Write and WriteRun
	SignalsFile = "signals.parquet"
	// SummaryFile is the yaml run summary written by Write and WriteRun
	SummaryFile = "summary.yaml"
)

// Journal records signal events of one or more runs.
type Journal interface {
	// Record appends one event. Safe for concurrent use.
	Record(event types.SignalEvent) error
	// Events returns the events of a run ordered by timestamp, instrument and insertion
	Events(runID string) ([]types.SignalEvent, error)
	// Write exports all recorded events and a summary into dir
	Write(dir string) error
	// WriteRun exports the events and summary of one run into dir
	WriteRun(dir string, runID string) error
	// Cleanup drops every recorded event
	Cleanup() error
	Close() error
}

// Summary is the content of summary.yaml.
type Summary struct {
	SchemaVersion string                `yaml:"schema_version"`
	EngineVersion string                `yaml:"engine_version"`
	GeneratedAt   time.Time             `yaml:"generated_at"`
	TotalSignals  int                   `yaml:"total_signals"`
	Runs          map[string]RunSummary `yaml:"runs"`
}

// RunSummary counts the signals of one run.
type RunSummary struct {
	Buys        int                          `yaml:"buys"`
	Sells       int                          `yaml:"sells"`
	Instruments map[string]InstrumentSummary `yaml:"instruments"`
}

// InstrumentSummary counts the signals of one instrument within a run.
type InstrumentSummary struct {
	Buys  int `yaml:"buys"`
	Sells int `yaml:"sells"`
}

// DuckDBJournal implements Journal on an in-memory DuckDB database.
type DuckDBJournal struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
	// mu serializes writes; instrument workers record concurrently
	mu sync.Mutex
}

// NewDuckDBJournal creates a new journal backed by an in-memory DuckDB database.
func NewDuckDBJournal(logger *logger.Logger) (*DuckDBJournal, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		logger.Error("Failed to open database", zap.Error(err))

		return nil, errors.Wrap(errors.ErrCodeJournalWriteFailed, "failed to open database", err)
	}

	if err := db.Ping(); err != nil {
		logger.Error("Failed to connect to database", zap.Error(err))
		db.Close()

		return nil, errors.Wrap(errors.ErrCodeJournalWriteFailed, "failed to connect to database", err)
	}

	journal := &DuckDBJournal{
		logger: logger,
		db:     db,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		mu:     sync.Mutex{},
	}

	if err := journal.initialize(); err != nil {
		db.Close()

		return nil, err
	}

	return journal, nil
}

// Record implements Journal.
func (j *DuckDBJournal) Record(event types.SignalEvent) error {
	if j == nil || j.db == nil {
		return errors.New(errors.ErrCodeJournalWriteFailed, "journal or database is nil")
	}

	record := NewSignalRecord(event)

	values, err := json.Marshal(record.IndicatorValues)
	if err != nil {
		return errors.Wrap(errors.ErrCodeJournalWriteFailed, "failed to encode indicator values", err)
	}

	conditions, err := json.Marshal(record.TriggerConditions)
	if err != nil {
		return errors.Wrap(errors.ErrCodeJournalWriteFailed, "failed to encode trigger conditions", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	_, err = j.sq.
		Insert("signals").
		Columns(
			"id", "run_id", timestampColumn, "instrument_id", "signal_type", "strategy_name",
			"price", "indicator_values", "trigger_conditions", "schema_version",
		).
		Values(
			squirrel.Expr("nextval('signal_id_seq')"), record.RunID, record.Timestamp, record.InstrumentID,
			string(record.SignalType), record.StrategyName, record.Price, string(values), string(conditions),
			record.SchemaVersion,
		).
		RunWith(j.db).
		Exec()
	if err != nil {
		return errors.Wrap(errors.ErrCodeJournalWriteFailed, "failed to insert signal", err)
	}

	return nil
}

// Events implements Journal.
func (j *DuckDBJournal) Events(runID string) ([]types.SignalEvent, error) {
	if j == nil || j.db == nil {
		return nil, errors.New(errors.ErrCodeJournalReadFailed, "journal or database is nil")
	}

	rows, err := j.sq.
		Select(
			"run_id", timestampColumn, "instrument_id", "signal_type", "strategy_name",
			"price", "indicator_values", "trigger_conditions", "schema_version",
		).
		From("signals").
		Where(squirrel.Eq{"run_id": runID}).
		OrderBy(timestampColumn+" ASC", "instrument_id ASC", "id ASC").
		RunWith(j.db).
		Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeJournalReadFailed, "failed to query signals", err)
	}
	defer rows.Close()

	events := make([]types.SignalEvent, 0)

	for rows.Next() {
		var (
			record     SignalRecord
			signalType string
			values     string
			conditions string
		)

		err := rows.Scan(
			&record.RunID, &record.Timestamp, &record.InstrumentID, &signalType, &record.StrategyName,
			&record.Price, &values, &conditions, &record.SchemaVersion,
		)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeJournalReadFailed, "failed to scan signal", err)
		}

		if err := version.CheckSchemaCompatibility(version.SignalSchemaVersion, record.SchemaVersion); err != nil {
			return nil, err
		}

		record.SignalType = types.SignalType(signalType)

		if err := json.Unmarshal([]byte(values), &record.IndicatorValues); err != nil {
			return nil, errors.Wrap(errors.ErrCodeJournalReadFailed, "failed to decode indicator values", err)
		}

		if err := json.Unmarshal([]byte(conditions), &record.TriggerConditions); err != nil {
			return nil, errors.Wrap(errors.ErrCodeJournalReadFailed, "failed to decode trigger conditions", err)
		}

		events = append(events, record.Event())
	}

	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeJournalReadFailed, "error iterating signals", err)
	}

	return events, nil
}

// Write implements Journal.
func (j *DuckDBJournal) Write(dir string) error {
	return j.export(dir, "")
}

// WriteRun implements Journal. Events recorded under other run ids are left out.
func (j *DuckDBJournal) WriteRun(dir string, runID string) error {
	if runID == "" {
		return errors.New(errors.ErrCodeInvalidParameter, "run id is empty")
	}

	return j.export(dir, runID)
}

// export writes signals.parquet and summary.yaml; an empty runID exports every run.
func (j *DuckDBJournal) export(dir string, runID string) error {
	if j == nil || j.db == nil || j.logger == nil {
		return errors.New(errors.ErrCodeJournalWriteFailed, "journal, database, or logger is nil")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeJournalWriteFailed, "failed to create directory", err)
	}

	signalsPath := filepath.Join(dir, SignalsFile)

	filter := ""
	if runID != "" {
		filter = fmt.Sprintf("WHERE run_id = '%s' ", strings.ReplaceAll(runID, "'", "''"))
	}

	_, err := j.db.Exec(fmt.Sprintf(`COPY (SELECT * EXCLUDE (id) FROM signals %sORDER BY run_id, "timestamp", instrument_id, id) TO '%s' (FORMAT PARQUET)`, filter, signalsPath))
	if err != nil {
		return errors.Wrap(errors.ErrCodeJournalWriteFailed, "failed to export signals to Parquet", err)
	}

	summary, err := j.summarize(runID)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(summary)
	if err != nil {
		return errors.Wrap(errors.ErrCodeJournalWriteFailed, "failed to encode summary", err)
	}

	summaryPath := filepath.Join(dir, SummaryFile)
	if err := os.WriteFile(summaryPath, data, 0644); err != nil {
		return errors.Wrap(errors.ErrCodeJournalWriteFailed, "failed to write summary", err)
	}

	j.logger.Info("Successfully exported signals",
		zap.String("signals", signalsPath),
		zap.String("summary", summaryPath),
		zap.Int("total", summary.TotalSignals),
	)

	return nil
}

// Summary counts the recorded signals per run and instrument.
func (j *DuckDBJournal) Summary() (Summary, error) {
	return j.summarize("")
}

func (j *DuckDBJournal) summarize(runID string) (Summary, error) {
	summary := Summary{
		SchemaVersion: version.SignalSchemaVersion,
		EngineVersion: version.GetVersion(),
		GeneratedAt:   time.Now().UTC(),
		TotalSignals:  0,
		Runs:          make(map[string]RunSummary),
	}

	query := j.sq.
		Select("run_id", "instrument_id", "signal_type", "COUNT(*)").
		From("signals").
		GroupBy("run_id", "instrument_id", "signal_type")

	if runID != "" {
		query = query.Where(squirrel.Eq{"run_id": runID})
	}

	rows, err := query.RunWith(j.db).Query()
	if err != nil {
		return Summary{}, errors.Wrap(errors.ErrCodeJournalReadFailed, "failed to summarize signals", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			runID, instrumentID, signalType string
			count                           int
		)

		if err := rows.Scan(&runID, &instrumentID, &signalType, &count); err != nil {
			return Summary{}, errors.Wrap(errors.ErrCodeJournalReadFailed, "failed to scan summary", err)
		}

		run, ok := summary.Runs[runID]
		if !ok {
			run = RunSummary{Instruments: make(map[string]InstrumentSummary)}
		}

		instrument := run.Instruments[instrumentID]

		switch types.SignalType(signalType) {
		case types.SignalTypeBuy:
			run.Buys += count
			instrument.Buys += count
		case types.SignalTypeSell:
			run.Sells += count
			instrument.Sells += count
		}

		run.Instruments[instrumentID] = instrument
		summary.Runs[runID] = run
		summary.TotalSignals += count
	}

	if err := rows.Err(); err != nil {
		return Summary{}, errors.Wrap(errors.ErrCodeJournalReadFailed, "error iterating summary", err)
	}

	return summary, nil
}

// Cleanup implements Journal.
func (j *DuckDBJournal) Cleanup() error {
	if j == nil || j.db == nil {
		return errors.New(errors.ErrCodeJournalWriteFailed, "journal or database is nil")
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.Exec(`
		DROP TABLE IF EXISTS signals;
		DROP SEQUENCE IF EXISTS signal_id_seq;
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeJournalWriteFailed, "failed to cleanup signals table", err)
	}

	return j.initialize()
}

// Close implements Journal.
func (j *DuckDBJournal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}

	return j.db.Close()
}

func (j *DuckDBJournal) initialize() error {
	_, err := j.db.Exec(`CREATE SEQUENCE IF NOT EXISTS signal_id_seq`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeJournalWriteFailed, "failed to create sequence", err)
	}

	_, err = j.db.Exec(`
		CREATE TABLE IF NOT EXISTS signals (
			id BIGINT PRIMARY KEY,
			run_id TEXT,
			"timestamp" TIMESTAMP,
			instrument_id TEXT,
			signal_type TEXT,
			strategy_name TEXT,
			price DOUBLE,
			indicator_values TEXT,
			trigger_conditions TEXT,
			schema_version TEXT
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeJournalWriteFailed, "failed to create signals table", err)
	}

	return nil
}
