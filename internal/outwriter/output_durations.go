package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/tenure/internal/contract"
	"github.com/huangsam/tenure/internal/parquet"
	"github.com/huangsam/tenure/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteDurationResults outputs a duration document, dispatching based on the output format configured.
func WriteDurationResults(w io.Writer, doc schema.DurationDocument, cfg *contract.Config, duration time.Duration) error {
	if doc.Len() != len(doc.Names) || doc.Len() != len(doc.Days) {
		return fmt.Errorf("duration document has ragged columns: %d ids, %d names, %d durations",
			len(doc.IDs), len(doc.Names), len(doc.Days))
	}
	fmtFloat := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeJSON(w, doc); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeCSVResultsForDurations(w, doc, fmtFloat); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := parquet.Write(w, parquet.FromDurationDocument(0, doc)); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		if err := writeDurationTable(w, doc, cfg, fmtFloat, duration); err != nil {
			return fmt.Errorf("error writing duration table output: %w", err)
		}
	}
	return nil
}

// durationLabel picks the plain or colored label for one actor.
func durationLabel(kind schema.DurationKind, days float64, useColors bool) string {
	if useColors {
		return contract.GetColorLabel(kind, days)
	}
	return contract.GetPlainLabel(kind, days)
}

// writeCSVResultsForDurations writes one CSV row per actor.
func writeCSVResultsForDurations(w io.Writer, doc schema.DurationDocument, fmtFloat func(float64) string) error {
	kind := doc.Kind
	if kind == "" {
		kind = schema.AgeDuration
	}
	header := []string{"rank", "id", "name", string(kind) + "_days", "label", "snapshot"}
	snapshot := doc.Date.UTC().Format(schema.TimeFormat)
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for i := range doc.IDs {
			row := []string{
				strconv.Itoa(i + 1),
				doc.IDs[i],
				doc.Names[i],
				fmtFloat(doc.Days[i]),
				contract.GetPlainLabel(kind, doc.Days[i]),
				snapshot,
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeDurationTable renders the human-readable actor table and a summary line.
func writeDurationTable(w io.Writer, doc schema.DurationDocument, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	kind := doc.Kind
	if kind == "" {
		kind = schema.AgeDuration
	}
	table.Header([]string{"Rank", "ID", "Name", fmt.Sprintf("%s (days)", kind), "Label"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	nameWidth := GetMaxTableNameWidth(cfg)
	data := make([][]string, 0, doc.Len())
	for i := range doc.IDs {
		data = append(data, []string{
			strconv.Itoa(i + 1),
			doc.IDs[i],
			contract.TruncateName(doc.Names[i], nameWidth),
			fmtFloat(doc.Days[i]),
			durationLabel(kind, doc.Days[i], cfg.UseColors),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "Showing %d actors by %s at %s. Report completed in %v. Cache backend: %s\n",
		doc.Len(), kind, doc.Date.UTC().Format(schema.TimeFormat), duration, cfg.CacheBackend)
	return err
}
