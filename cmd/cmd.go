// Package cmd defines the command-line interface for tenure.
package cmd

import (
	"github.com/huangsam/tenure/internal/contract"
	"github.com/huangsam/tenure/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(ageCmd)
	rootCmd.AddCommand(idleCmd)
	rootCmd.AddCommand(timeseriesCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	pf := rootCmd.PersistentFlags()
	pf.String("source", string(schema.SCMSource), "Data source: scm or its or mls")
	pf.String("warehouse", string(schema.SQLiteBackend), "Warehouse backend: sqlite or mysql or postgresql or clickhouse")
	pf.String("warehouse-dsn", "", "Warehouse connection string (prefer TENURE_WAREHOUSE_DSN)")
	pf.String("identity-schema", "", "Database or schema holding the identity tables")
	pf.String("actor", "", "Actor role: authors or committers (scm), changers (its), senders (mls)")
	pf.String("date-field", "", "Activity date: commit-date, author-date, change-date, arrival-date, first-date")
	pf.String("start", "", "Start date in ISO8601 or time ago")
	pf.String("end", "", "End date in ISO8601 or time ago (exclusive)")
	pf.Bool("no-merges", false, "Ignore merge commits (scm only)")
	pf.String("branches", "", "Comma-separated branch names to restrict to (scm only)")
	pf.String("orgs", "", "Comma-separated organization names to restrict to")
	pf.String("actors", "", "Comma-separated unique identities to restrict to")
	pf.String("snapshot", "", "Instant durations are measured at (default: latest activity)")
	pf.String("offset", "", "Shift every duration by this amount (e.g. '30 days')")
	pf.String("active-after", "", "Only keep actors whose last activity is at or after this date")
	pf.String("active-before", "", "Only keep actors whose first activity is at or before this date")
	pf.String("metrics", "", "Comma-separated time series metrics: events, actors")
	pf.IntP("limit", "l", contract.DefaultResultLimit, "Number of actors to display (0 = all)")
	pf.Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	pf.String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	pf.String("output-file", "", "Optional path to write output to")
	pf.Int("width", 0, "Terminal width override (0 = auto-detect)")
	pf.String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	pf.String("query-timeout", "2 minutes", "Maximum time for a report's queries")
	pf.String("cache-backend", string(schema.NoneBackend), "Cache backend: sqlite or mysql or postgresql or none")
	pf.String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	pf.String("cache-ttl", "1 day", "How long cached query results stay valid")
	pf.String("history-backend", string(schema.NoneBackend), "Report history backend: sqlite or mysql or postgresql or none")
	pf.String("history-db-connect", "", "Database connection string for report history (must differ from cache-db-connect)")
	pf.String("metrics-file", "", "Write Prometheus metrics to this node-exporter textfile")
	pf.String("log-level", "warn", "Log level: trace, debug, info, warn, error")
	pf.String("log-format", "console", "Log format: console or json")
	pf.String("config", "", "Path to config file")
	if err := viper.BindPFlags(pf); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}
}
