// Package outwriter has output and writer logic.
package outwriter

import (
	"io"
	"time"

	"github.com/huangsam/tenure/internal/contract"
	"github.com/huangsam/tenure/schema"
)

// OutWriter writes report documents to stdout or to the configured output file.
type OutWriter struct{}

var _ contract.OutputWriter = &OutWriter{} // Compile-time check

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteDurations prints an age or idle report using the configured output format.
func (ow *OutWriter) WriteDurations(doc schema.DurationDocument, cfg *contract.Config, duration time.Duration) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return WriteDurationResults(w, doc, cfg, duration)
	}, "Wrote "+string(cfg.Output)+" "+string(doc.Kind)+" results")
}

// WriteSeries prints a time series report using the configured output format.
func (ow *OutWriter) WriteSeries(doc schema.SeriesDocument, cfg *contract.Config, duration time.Duration) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return WriteSeriesResults(w, doc, cfg, duration)
	}, "Wrote "+string(cfg.Output)+" timeseries results")
}
