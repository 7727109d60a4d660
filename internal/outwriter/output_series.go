package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/huangsam/tenure/internal/contract"
	"github.com/huangsam/tenure/internal/parquet"
	"github.com/huangsam/tenure/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

const monthLayout = "2006-01"

// WriteSeriesResults outputs a time series document, dispatching based on the output format configured.
func WriteSeriesResults(w io.Writer, doc schema.SeriesDocument, cfg *contract.Config, duration time.Duration) error {
	for _, p := range doc.Points {
		if len(p.Values) != len(doc.Metrics) {
			return fmt.Errorf("series point %s has %d values for %d metrics",
				p.Month.Format(monthLayout), len(p.Values), len(doc.Metrics))
		}
	}
	fmtFloat := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeJSON(w, doc); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeCSVResultsForSeries(w, doc, fmtFloat); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := parquet.Write(w, parquet.FromSeriesDocument(0, doc)); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		if err := writeSeriesTable(w, doc, fmtFloat, duration, cfg); err != nil {
			return fmt.Errorf("error writing timeseries table output: %w", err)
		}
	}
	return nil
}

func seriesHeader(first string, metrics []schema.SeriesMetric) []string {
	header := make([]string, 0, len(metrics)+1)
	header = append(header, first)
	for _, m := range metrics {
		header = append(header, string(m))
	}
	return header
}

// writeCSVResultsForSeries writes one CSV row per month.
func writeCSVResultsForSeries(w io.Writer, doc schema.SeriesDocument, fmtFloat func(float64) string) error {
	return writeCSVWithHeader(w, seriesHeader("month", doc.Metrics), func(cw *csv.Writer) error {
		for _, p := range doc.Points {
			row := []string{p.Month.UTC().Format(schema.TimeFormat)}
			for _, v := range p.Values {
				row = append(row, fmtFloat(v))
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeSeriesTable prints the months with one column per metric.
func writeSeriesTable(w io.Writer, doc schema.SeriesDocument, fmtFloat func(float64) string, duration time.Duration, cfg *contract.Config) error {
	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	table.Header(seriesHeader("Month", doc.Metrics))
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	data := make([][]string, 0, len(doc.Points))
	for _, p := range doc.Points {
		row := []string{p.Month.UTC().Format(monthLayout)}
		for _, v := range p.Values {
			row = append(row, fmtFloat(v))
		}
		data = append(data, row)
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	span := "no months"
	if len(doc.Points) > 0 {
		span = fmt.Sprintf("%s to %s", doc.FirstDate.UTC().Format(monthLayout), doc.LastDate.UTC().Format(monthLayout))
	}
	_, err := fmt.Fprintf(w, "Timeseries of %d months (%s) completed in %v. Cache backend: %s\n",
		len(doc.Points), span, duration, cfg.CacheBackend)
	return err
}

