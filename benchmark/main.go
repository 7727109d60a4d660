// Package main provides a performance benchmarking tool for the tenure CLI.
// It measures report execution times against one or more SQLite warehouses,
// running each report multiple times without the query cache and with it,
// treating the first cached run as cold and averaging the rest as warm,
// and writes CSV output for performance analysis and documentation.
//
// Prerequisites:
// - tenure binary installed and available in PATH
// - SQLite warehouse files (CVSAnalY, Bicho, MLStats with SortingHat tables)
//
// Usage: go run benchmark/main.go warehouse.db [warehouse.db...]
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"maps"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	Warehouse   string
	Report      string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	Warehouses  []string
	Timeout     time.Duration
	NoCacheRuns int
	CacheRuns   int
	CacheFile   string
	Reports     map[string][]string // report name -> tenure arguments
}

func main() {
	if len(os.Args) < 2 {
		fmt.Printf("Usage: %s warehouse.db [warehouse.db...]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		Warehouses:  os.Args[1:],
		Timeout:     5 * time.Minute,
		NoCacheRuns: 3,
		CacheRuns:   4,
		CacheFile:   filepath.Join(os.TempDir(), "tenure_benchmark_cache.db"),
		Reports: map[string][]string{
			"age":             {"age", "--limit", "50"},
			"idle":            {"idle", "--limit", "50"},
			"idle-committers": {"idle", "--actor", "committers", "--no-merges"},
			"timeseries":      {"timeseries", "--metrics", "events,actors"},
			"timeseries-mls":  {"timeseries", "--source", "mls", "--metrics", "events,actors"},
			"age-its-changes": {"age", "--source", "its"},
		},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the tenure binary and warehouses exist
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("tenure"); err != nil {
		return fmt.Errorf("tenure binary not found in PATH")
	}
	for _, wh := range config.Warehouses {
		if _, err := os.Stat(wh); os.IsNotExist(err) {
			return fmt.Errorf("warehouse not found at %s", wh)
		}
	}
	return nil
}

// runBenchmarks executes all reports across configured warehouses
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d warehouses, %v timeout, no-cache: %d runs, cache: %d runs\n",
		len(config.Warehouses), config.Timeout, config.NoCacheRuns, config.CacheRuns)

	for _, wh := range config.Warehouses {
		fmt.Printf("Benchmarking %s\n", wh)
		for _, name := range slices.Sorted(maps.Keys(config.Reports)) {
			results = append(results, runBenchmarkSuite(config, wh, name, config.Reports[name]))
		}
	}
	return results
}

// runBenchmarkSuite runs both no-cache and cache benchmarks for a report
func runBenchmarkSuite(config BenchmarkConfig, wh, name string, args []string) BenchmarkResult {
	fmt.Printf("Running %s on %s\n", name, filepath.Base(wh))

	// Helper to run a benchmark phase
	runPhase := func(cacheArgs []string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, wh, append(args, cacheArgs...), numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avgTime = fmt.Sprintf("%.3fs", sum/float64(len(times)))
		}
		return cold, avgTime
	}

	// Phase 1: No-cache runs
	_, noCacheAvg := runPhase([]string{"--cache-backend", "none"}, config.NoCacheRuns, "No-cache")

	// Phase 2: Cache runs, starting from an empty cache
	_ = os.Remove(config.CacheFile)
	cacheArgs := []string{"--cache-backend", "sqlite", "--cache-db-connect", config.CacheFile}
	coldTime, warmAvg := runPhase(cacheArgs, config.CacheRuns, "Cache")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Warehouse:   filepath.Base(wh),
		Report:      name,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark executes a tenure report multiple times and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, wh string, args []string, numRuns int) (coldTime float64, warmTimes []float64) {
	args = append([]string{}, args...)
	args = append(args, "--warehouse", "sqlite", "--warehouse-dsn", wh)

	var times []float64
	for range numRuns {
		ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		start := time.Now()
		output, err := exec.CommandContext(ctx, "tenure", args...).CombinedOutput()
		elapsed := time.Since(start)
		cancel()

		if err == nil && isSuccess(output) {
			times = append(times, elapsed.Seconds())
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks if command output indicates successful completion
func isSuccess(output []byte) bool {
	outputStr := string(output)
	return strings.Contains(outputStr, "completed in") && strings.Contains(outputStr, "Cache backend:")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("tenure_benchmark_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"warehouse", "report", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Warehouse, result.Report, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, result := range results {
		fmt.Printf("  %-20s %-16s: No-cache: %s, Cold: %s, Warm: %s\n",
			result.Warehouse, result.Report, result.NoCacheTime, result.ColdTime, result.WarmTime)
	}
}
