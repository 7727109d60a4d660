package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/tenure/internal/contract"
	"github.com/huangsam/tenure/internal/parquet"
)

// ExecuteHistoryExport writes the history store to three Parquet files
// named after outputFile.
func ExecuteHistoryExport(store contract.HistoryStore, outputFile string, out io.Writer) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("history store is not initialized")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no report history found to export")
	}

	_, _ = fmt.Fprintf(out, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(out, "Total report runs: %d\n", status.TotalRuns)

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve report runs: %w", err)
	}
	durations, err := store.GetAllDurations()
	if err != nil {
		return fmt.Errorf("failed to retrieve actor durations: %w", err)
	}
	points, err := store.GetAllSeriesPoints()
	if err != nil {
		return fmt.Errorf("failed to retrieve series points: %w", err)
	}

	runsFile := outputFile + ".report_runs.parquet"
	if err := parquet.WriteReportRunsParquet(parquet.ConvertReportRunRecords(runs), runsFile); err != nil {
		return fmt.Errorf("failed to write report runs: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Exported %d report runs to: %s\n", len(runs), runsFile)

	durationsFile := outputFile + ".actor_durations.parquet"
	if err := parquet.WriteActorDurationsParquet(parquet.ConvertActorDurationRecords(durations), durationsFile); err != nil {
		return fmt.Errorf("failed to write actor durations: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Exported %d actor durations to: %s\n", len(durations), durationsFile)

	pointsFile := outputFile + ".series_points.parquet"
	if err := parquet.WriteSeriesPointsParquet(parquet.ConvertSeriesPointRecords(points), pointsFile); err != nil {
		return fmt.Errorf("failed to write series points: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Exported %d series points to: %s\n", len(points), pointsFile)
	return nil
}
