package cmd

import (
	"github.com/huangsam/tenure/core"
	"github.com/huangsam/tenure/internal/contract"
	"github.com/huangsam/tenure/internal/outwriter"
	"github.com/spf13/cobra"
)

// runReport executes a report against the opened warehouse.
func runReport(execute core.ExecutorFunc, failure string) {
	if err := execute(rootCtx, cfg, wh, cacheManager, outwriter.NewOutWriter()); err != nil {
		contract.LogFatal(failure, err)
	}
}

// ageCmd reports how long each actor has been contributing.
var ageCmd = &cobra.Command{
	Use:   "age",
	Short: "Report how long each contributor has been active",
	Long: `Report the age of every contributor: the number of days between their first
activity and the snapshot (by default the latest activity in the warehouse).

Examples:
  # Age of every commit author
  tenure age --warehouse-dsn ./cvsanaly.db

  # Age of Acme committers at the end of 2012
  tenure age --actor committers --orgs Acme --snapshot 2012-12-31

  # Ticket changers active since 2012, as CSV
  tenure age --source its --start 2012-01-01 --output csv`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runReport(core.ExecuteAge, "Cannot run age report")
	},
}

// idleCmd reports how long each actor has been inactive.
var idleCmd = &cobra.Command{
	Use:   "idle",
	Short: "Report how long each contributor has been inactive",
	Long: `Report the idle time of every contributor: the number of days between their
last activity and the snapshot. Labels separate active contributors from
those who have gone quiet.

Examples:
  # Idle time of every author, ordered by unique identity
  tenure idle --warehouse-dsn ./cvsanaly.db

  # Mailing list senders who posted during 2012, measured at a fixed date
  tenure idle --source mls --snapshot 2013-01-01 --active-after 2012-01-01 --active-before 2012-12-31

  # Top 20 idle authors on the master branch, no merges
  tenure idle --branches master --no-merges --limit 20`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runReport(core.ExecuteIdle, "Cannot run idle report")
	},
}

// timeseriesCmd reports monthly activity.
var timeseriesCmd = &cobra.Command{
	Use:   "timeseries",
	Short: "Report monthly events and active contributors",
	Long: `Count events and distinct active contributors for every month of the period.
Months without activity are reported as zero.

Examples:
  # Commits per month during 2012
  tenure timeseries --start 2012-01-01 --end 2013-01-01

  # Messages and senders per month
  tenure timeseries --source mls --metrics events,actors

  # Active Acme committers per month as JSON
  tenure timeseries --metrics actors --actor committers --orgs Acme --output json`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runReport(core.ExecuteTimeseries, "Cannot run timeseries report")
	},
}
