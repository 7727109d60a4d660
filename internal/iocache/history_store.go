package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/tenure/internal/contract"
	"github.com/huangsam/tenure/schema"
)

// Table names for report history.
const (
	reportRunsTable     = "tenure_report_runs"
	actorDurationsTable = "tenure_actor_durations"
	seriesPointsTable   = "tenure_series_points"
)

// historyTables lists history tables in creation order.
var historyTables = []string{reportRunsTable, actorDurationsTable, seriesPointsTable}

// HistoryStoreImpl implements the HistoryStore interface.
type HistoryStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.HistoryStore = &HistoryStoreImpl{} // Compile-time check

// NewHistoryStore creates a new HistoryStore with the specified backend.
func NewHistoryStore(backend schema.DatabaseBackend, connStr string) (*HistoryStoreImpl, error) {
	if backend == schema.NoneBackend {
		// No-op store for disabled tracking
		return &HistoryStoreImpl{backend: backend}, nil
	}

	db, err := openDB(backend, connStr, GetHistoryDBFilePath(), false)
	if err != nil {
		return nil, err
	}

	if err := createHistoryTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history tables: %w", err)
	}

	return &HistoryStoreImpl{db: db, backend: backend}, nil
}

// createHistoryTables creates the report history tables.
func createHistoryTables(db *sql.DB, backend schema.DatabaseBackend) error {
	for _, table := range historyTables {
		if _, err := db.Exec(getCreateHistoryQuery(table, backend)); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table, err)
		}
	}
	return nil
}

// getCreateHistoryQuery returns the CREATE TABLE query for a history table.
func getCreateHistoryQuery(table string, backend schema.DatabaseBackend) string {
	quoted := quoteTableName(table, backend)

	switch table {
	case reportRunsTable:
		switch backend {
		case schema.MySQLBackend:
			return fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
					report VARCHAR(32) NOT NULL,
					source VARCHAR(16) NOT NULL,
					start_time DATETIME(6) NOT NULL,
					end_time DATETIME(6),
					run_duration_ms INT,
					row_count INT,
					config_params TEXT
				);
			`, quoted)
		case schema.PostgreSQLBackend:
			return fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					run_id BIGSERIAL PRIMARY KEY,
					report TEXT NOT NULL,
					source TEXT NOT NULL,
					start_time TIMESTAMPTZ NOT NULL,
					end_time TIMESTAMPTZ,
					run_duration_ms INT,
					row_count INT,
					config_params TEXT
				);
			`, quoted)
		default: // SQLite
			return fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					run_id INTEGER PRIMARY KEY AUTOINCREMENT,
					report TEXT NOT NULL,
					source TEXT NOT NULL,
					start_time TEXT NOT NULL,
					end_time TEXT,
					run_duration_ms INTEGER,
					row_count INTEGER,
					config_params TEXT
				);
			`, quoted)
		}

	case actorDurationsTable:
		switch backend {
		case schema.MySQLBackend:
			return fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					run_id BIGINT NOT NULL,
					snapshot DATETIME(6) NOT NULL,
					kind VARCHAR(16) NOT NULL,
					actor_id VARCHAR(128) NOT NULL,
					actor_name VARCHAR(255),
					days DOUBLE NOT NULL,
					PRIMARY KEY (run_id, actor_id)
				);
			`, quoted)
		case schema.PostgreSQLBackend:
			return fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					run_id BIGINT NOT NULL,
					snapshot TIMESTAMPTZ NOT NULL,
					kind TEXT NOT NULL,
					actor_id TEXT NOT NULL,
					actor_name TEXT,
					days DOUBLE PRECISION NOT NULL,
					PRIMARY KEY (run_id, actor_id)
				);
			`, quoted)
		default: // SQLite
			return fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					run_id INTEGER NOT NULL,
					snapshot TEXT NOT NULL,
					kind TEXT NOT NULL,
					actor_id TEXT NOT NULL,
					actor_name TEXT,
					days REAL NOT NULL,
					PRIMARY KEY (run_id, actor_id)
				);
			`, quoted)
		}

	default: // seriesPointsTable
		switch backend {
		case schema.MySQLBackend:
			return fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					run_id BIGINT NOT NULL,
					month DATETIME(6) NOT NULL,
					metric VARCHAR(32) NOT NULL,
					value DOUBLE NOT NULL,
					PRIMARY KEY (run_id, month, metric)
				);
			`, quoted)
		case schema.PostgreSQLBackend:
			return fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					run_id BIGINT NOT NULL,
					month TIMESTAMPTZ NOT NULL,
					metric TEXT NOT NULL,
					value DOUBLE PRECISION NOT NULL,
					PRIMARY KEY (run_id, month, metric)
				);
			`, quoted)
		default: // SQLite
			return fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					run_id INTEGER NOT NULL,
					month TEXT NOT NULL,
					metric TEXT NOT NULL,
					value REAL NOT NULL,
					PRIMARY KEY (run_id, month, metric)
				);
			`, quoted)
		}
	}
}

// BeginRun creates a new report run and returns its unique ID.
func (hs *HistoryStoreImpl) BeginRun(report string, source schema.DataSource, startTime time.Time, configParams map[string]any) (int64, error) {
	if hs.db == nil {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	quoted := quoteTableName(reportRunsTable, hs.backend)
	args := []any{report, string(source), formatTime(startTime, hs.backend), string(configJSON)}

	var runID int64
	switch hs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (report, source, start_time, config_params) VALUES ($1, $2, $3, $4) RETURNING run_id`, quoted)
		err = hs.db.QueryRow(query, args...).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (report, source, start_time, config_params) VALUES (?, ?, ?, ?)`, quoted)
		var result sql.Result
		result, err = hs.db.Exec(query, args...)
		if err == nil {
			runID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert report run: %w", err)
	}
	return runID, nil
}

// EndRun updates the report run with completion data.
func (hs *HistoryStoreImpl) EndRun(runID int64, endTime time.Time, rowCount int) error {
	if hs.db == nil {
		return nil
	}

	quoted := quoteTableName(reportRunsTable, hs.backend)
	start := timeScanner{backend: hs.backend}
	query := bind(fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = ?`, quoted), hs.backend)
	if err := hs.db.QueryRow(query, runID).Scan(start.dest()); err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}
	startTime, _, err := start.value()
	if err != nil {
		return err
	}

	durationMs := endTime.Sub(startTime).Milliseconds()
	update := bind(fmt.Sprintf(`UPDATE %s SET end_time = ?, run_duration_ms = ?, row_count = ? WHERE run_id = ?`, quoted), hs.backend)
	if _, err := hs.db.Exec(update, formatTime(endTime, hs.backend), durationMs, rowCount, runID); err != nil {
		return fmt.Errorf("failed to update report run: %w", err)
	}
	return nil
}

// RecordDurations stores one row per actor of a duration report.
func (hs *HistoryStoreImpl) RecordDurations(runID int64, doc schema.DurationDocument) error {
	if hs.db == nil {
		return nil
	}
	if len(doc.IDs) != len(doc.Names) || len(doc.IDs) != len(doc.Days) {
		return fmt.Errorf("duration document has ragged columns")
	}

	query := bind(fmt.Sprintf(`INSERT INTO %s (run_id, snapshot, kind, actor_id, actor_name, days) VALUES (?, ?, ?, ?, ?, ?)`,
		quoteTableName(actorDurationsTable, hs.backend)), hs.backend)
	snapshot := formatTime(doc.Date, hs.backend)
	return hs.inTx(query, func(stmt *sql.Stmt) error {
		for i, id := range doc.IDs {
			if _, err := stmt.Exec(runID, snapshot, string(doc.Kind), id, doc.Names[i], doc.Days[i]); err != nil {
				return fmt.Errorf("failed to insert duration for %s: %w", id, err)
			}
		}
		return nil
	})
}

// RecordSeries stores one row per month and metric of a time series report.
func (hs *HistoryStoreImpl) RecordSeries(runID int64, doc schema.SeriesDocument) error {
	if hs.db == nil {
		return nil
	}

	query := bind(fmt.Sprintf(`INSERT INTO %s (run_id, month, metric, value) VALUES (?, ?, ?, ?)`,
		quoteTableName(seriesPointsTable, hs.backend)), hs.backend)
	return hs.inTx(query, func(stmt *sql.Stmt) error {
		for _, p := range doc.Points {
			if len(p.Values) != len(doc.Metrics) {
				return fmt.Errorf("point %s has %d values for %d metrics",
					p.Month.Format("2006-01"), len(p.Values), len(doc.Metrics))
			}
			month := formatTime(p.Month, hs.backend)
			for i, m := range doc.Metrics {
				if _, err := stmt.Exec(runID, month, string(m), p.Values[i]); err != nil {
					return fmt.Errorf("failed to insert series point: %w", err)
				}
			}
		}
		return nil
	})
}

// inTx prepares query inside a transaction and commits when fn succeeds.
func (hs *HistoryStoreImpl) inTx(query string, fn func(stmt *sql.Stmt) error) error {
	tx, err := hs.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	stmt, err := tx.Prepare(query)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	if err := fn(stmt); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Close closes the underlying connection.
func (hs *HistoryStoreImpl) Close() error {
	if hs.db != nil {
		return hs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the history store.
func (hs *HistoryStoreImpl) GetStatus() (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{
		Backend:   string(hs.backend),
		Connected: hs.db != nil,
		TableRows: make(map[string]int64),
	}
	if hs.db == nil {
		return status, nil
	}

	quoted := quoteTableName(reportRunsTable, hs.backend)
	if err := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoted)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		last := timeScanner{backend: hs.backend}
		row := hs.db.QueryRow(fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY run_id DESC LIMIT 1", quoted))
		if err := row.Scan(&status.LastRunID, last.dest()); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		lastTime, _, err := last.value()
		if err != nil {
			return status, err
		}
		status.LastRunTime = lastTime

		oldest := timeScanner{backend: hs.backend}
		row = hs.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", quoted))
		if err := row.Scan(oldest.dest()); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		oldestTime, _, err := oldest.value()
		if err != nil {
			return status, err
		}
		status.OldestRunTime = oldestTime
	}

	for _, table := range historyTables {
		var count int64
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, hs.backend))
		if err := hs.db.QueryRow(query).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableRows[table] = count
	}
	return status, nil
}

// GetAllRuns retrieves all report runs, oldest first.
func (hs *HistoryStoreImpl) GetAllRuns() ([]schema.ReportRunRecord, error) {
	if hs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, report, source, start_time, end_time, run_duration_ms, COALESCE(row_count, 0), config_params
		FROM %s ORDER BY run_id`, quoteTableName(reportRunsTable, hs.backend))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query report runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.ReportRunRecord
	for rows.Next() {
		var record schema.ReportRunRecord
		start := timeScanner{backend: hs.backend}
		end := timeScanner{backend: hs.backend}
		if err := rows.Scan(&record.RunID, &record.Report, &record.Source, start.dest(), end.dest(),
			&record.DurationMs, &record.RowCount, &record.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan report run: %w", err)
		}
		if record.StartTime, _, err = start.value(); err != nil {
			return nil, err
		}
		endTime, ok, err := end.value()
		if err != nil {
			return nil, err
		}
		if ok {
			record.EndTime = &endTime
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating report runs: %w", err)
	}
	return results, nil
}

// GetAllDurations retrieves all recorded actor durations.
func (hs *HistoryStoreImpl) GetAllDurations() ([]schema.ActorDurationRecord, error) {
	if hs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, snapshot, kind, actor_id, COALESCE(actor_name, ''), days
		FROM %s ORDER BY run_id, actor_id`, quoteTableName(actorDurationsTable, hs.backend))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query actor durations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.ActorDurationRecord
	for rows.Next() {
		var record schema.ActorDurationRecord
		snapshot := timeScanner{backend: hs.backend}
		if err := rows.Scan(&record.RunID, snapshot.dest(), &record.Kind, &record.ActorID, &record.ActorName, &record.Days); err != nil {
			return nil, fmt.Errorf("failed to scan actor duration: %w", err)
		}
		if record.Snapshot, _, err = snapshot.value(); err != nil {
			return nil, err
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating actor durations: %w", err)
	}
	return results, nil
}

// GetAllSeriesPoints retrieves all recorded time series points.
func (hs *HistoryStoreImpl) GetAllSeriesPoints() ([]schema.SeriesPointRecord, error) {
	if hs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, month, metric, value FROM %s ORDER BY run_id, month, metric`,
		quoteTableName(seriesPointsTable, hs.backend))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query series points: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.SeriesPointRecord
	for rows.Next() {
		var record schema.SeriesPointRecord
		month := timeScanner{backend: hs.backend}
		if err := rows.Scan(&record.RunID, month.dest(), &record.Metric, &record.Value); err != nil {
			return nil, fmt.Errorf("failed to scan series point: %w", err)
		}
		if record.Month, _, err = month.value(); err != nil {
			return nil, err
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating series points: %w", err)
	}
	return results, nil
}
