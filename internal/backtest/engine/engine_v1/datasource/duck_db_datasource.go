package datasource

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-contraction/internal/logger"
	"github.com/rxtech-lab/argo-contraction/internal/types"
	"github.com/rxtech-lab/argo-contraction/pkg/errors"
	"go.uber.org/zap"
)

const barsView = "bars"

// barSelectColumns casts every column so parquet and CSV sources scan identically.
var barSelectColumns = []string{
	`CAST("timestamp" AS TIMESTAMP) AS "timestamp"`,
	"CAST(open AS DOUBLE) AS open",
	"CAST(high AS DOUBLE) AS high",
	"CAST(low AS DOUBLE) AS low",
	"CAST(close AS DOUBLE) AS close",
	"CAST(COALESCE(volume, 0) AS DOUBLE) AS volume",
	"CAST(COALESCE(amount, 0) AS DOUBLE) AS amount",
	"CAST(instrument_id AS VARCHAR) AS instrument_id",
}

type DuckDBDataSource struct {
	db          *sql.DB
	logger      *logger.Logger
	sq          squirrel.StatementBuilderType
	initialized bool
}

// NewDataSource creates a new DuckDB data source. path is the DuckDB database
// location; an empty path opens an in-memory database. This is distinct from
// Initialize, which attaches the bar file.
func NewDataSource(path string, logger *logger.Logger) (DataSource, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	return &DuckDBDataSource{
		db:          db,
		logger:      logger,
		sq:          squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		initialized: false,
	}, nil
}

// Initialize implements DataSource.
func (d *DuckDBDataSource) Initialize(path string) error {
	d.logger.Debug("Initializing DuckDB data source", zap.String("path", path))

	reader, err := readerFor(path)
	if err != nil {
		return err
	}

	_, err = d.db.Exec(fmt.Sprintf(`DROP VIEW IF EXISTS %s;`, barsView))
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to drop existing view", err)
	}

	// squirrel does not support CREATE VIEW
	query := fmt.Sprintf(`
		CREATE VIEW %s AS
		SELECT * FROM %s('%s');
	`, barsView, reader, escapeLiteral(path))

	_, err = d.db.Exec(query)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to read bars from %s", path)
	}

	columns, err := d.columns()
	if err != nil {
		return err
	}

	if missing := MissingColumns(columns); len(missing) > 0 {
		return errors.Newf(errors.ErrCodeMissingColumn, "%s is missing required columns: %s", path, strings.Join(missing, ", "))
	}

	d.initialized = true

	return nil
}

// Instruments implements DataSource.
func (d *DuckDBDataSource) Instruments() ([]string, error) {
	if err := d.ensureInitialized(); err != nil {
		return nil, err
	}

	query, args, err := d.sq.Select("DISTINCT CAST(instrument_id AS VARCHAR) AS instrument_id").
		From(barsView).
		OrderBy("instrument_id ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build instruments query", err)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query instruments", err)
	}
	defer rows.Close()

	instruments := make([]string, 0)

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan instrument", err)
		}

		instruments = append(instruments, id)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating instruments", err)
	}

	return instruments, nil
}

// ReadBars implements DataSource.
func (d *DuckDBDataSource) ReadBars(instrumentID string, start optional.Option[time.Time], end optional.Option[time.Time]) ([]types.Bar, error) {
	if err := d.ensureInitialized(); err != nil {
		return nil, err
	}

	builder := d.sq.Select(barSelectColumns...).
		From(barsView).
		Where(squirrel.Eq{"CAST(instrument_id AS VARCHAR)": instrumentID})
	builder = applyBounds(builder, start, end).OrderBy(`"timestamp" ASC`)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build bars query", err)
	}

	stmt, err := d.db.Prepare(query)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to prepare query", err)
	}
	defer stmt.Close()

	rows, err := stmt.Query(args...)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to read bars for %s", instrumentID)
	}
	defer rows.Close()

	bars := make([]types.Bar, 0, 256)

	for rows.Next() {
		var bar types.Bar

		err := rows.Scan(&bar.Time, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume, &bar.Amount, &bar.InstrumentID)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan row", err)
		}

		bars = append(bars, bar)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating rows", err)
	}

	if len(bars) == 0 {
		return nil, errors.Newf(errors.ErrCodeDataNotFound, "no bars for instrument %s in range", instrumentID)
	}

	if err := ValidateBarOrder(instrumentID, bars); err != nil {
		return nil, err
	}

	d.logger.Debug("Read bars", zap.String("instrument", instrumentID), zap.Int("bars", len(bars)))

	return bars, nil
}

// Count implements DataSource.
func (d *DuckDBDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	if err := d.ensureInitialized(); err != nil {
		return 0, err
	}

	query, args, err := applyBounds(d.sq.Select("COUNT(*)").From(barsView), start, end).ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build count query", err)
	}

	var count int
	if err := d.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count bars", err)
	}

	return count, nil
}

// Close implements DataSource.
func (d *DuckDBDataSource) Close() error {
	return d.db.Close()
}

func (d *DuckDBDataSource) columns() ([]string, error) {
	rows, err := d.db.Query(fmt.Sprintf(`SELECT column_name FROM (DESCRIBE %s);`, barsView))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to describe bars", err)
	}
	defer rows.Close()

	columns := make([]string, 0, len(types.BarColumns))

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan column name", err)
		}

		columns = append(columns, name)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating columns", err)
	}

	return columns, nil
}

func (d *DuckDBDataSource) ensureInitialized() error {
	if !d.initialized {
		return errors.New(errors.ErrCodeDataSourceUnavailable, "data source is not initialized")
	}

	return nil
}

func applyBounds(builder squirrel.SelectBuilder, start optional.Option[time.Time], end optional.Option[time.Time]) squirrel.SelectBuilder {
	if start.IsSome() {
		builder = builder.Where(squirrel.GtOrEq{`CAST("timestamp" AS TIMESTAMP)`: start.Unwrap()})
	}

	if end.IsSome() {
		builder = builder.Where(squirrel.LtOrEq{`CAST("timestamp" AS TIMESTAMP)`: end.Unwrap()})
	}

	return builder
}

func readerFor(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return "read_parquet", nil
	case ".csv":
		return "read_csv_auto", nil
	default:
		return "", errors.Newf(errors.ErrCodeUnsupportedFormat, "unsupported bar file %s, expected .parquet or .csv", path)
	}
}

func escapeLiteral(value string) string {
	return strings.ReplaceAll(value, "'", "''")
}
