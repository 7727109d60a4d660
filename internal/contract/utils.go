package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/tenure/internal/logger"
	"github.com/huangsam/tenure/schema"
)

// Duration label constants.
const (
	ActiveValue  = "Active"  // idle for zero days
	RecentValue  = "Recent"  // idle for less than a month
	IdleValue    = "Idle"    // idle for less than half a year
	DormantValue = "Dormant" // idle for longer

	NewcomerValue = "Newcomer" // younger than a quarter
	RegularValue  = "Regular"  // younger than two years
	VeteranValue  = "Veteran"  // older
)

// Color variables for console output.
var (
	ActiveColor  = color.New(color.FgGreen, color.Bold)
	RecentColor  = color.New(color.FgCyan)
	IdleColor    = color.New(color.FgYellow)
	DormantColor = color.New(color.FgRed, color.Bold)
)

// GetPlainLabel returns a plain text label for a duration in days. This is the
// core logic used for CSV, JSON, and table printing.
func GetPlainLabel(kind schema.DurationKind, days float64) string {
	if kind == schema.AgeDuration {
		switch {
		case days < 90:
			return NewcomerValue
		case days < 730:
			return RegularValue
		default:
			return VeteranValue
		}
	}
	switch {
	case days <= 0:
		return ActiveValue
	case days < 30:
		return RecentValue
	case days < 180:
		return IdleValue
	default:
		return DormantValue
	}
}

// GetColorLabel returns a colored text label for console output (table).
func GetColorLabel(kind schema.DurationKind, days float64) string {
	text := GetPlainLabel(kind, days)
	switch text {
	case ActiveValue, VeteranValue:
		return ActiveColor.Sprint(text)
	case RecentValue, RegularValue:
		return RecentColor.Sprint(text)
	case IdleValue, NewcomerValue:
		return IdleColor.Sprint(text)
	default:
		return DormantColor.Sprint(text)
	}
}

// SelectOutputFile returns the file handle for output, os.Stdout when filePath is empty.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	logger.Get().Error().Err(err).Msg(msg)
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	logger.Get().Warn().Err(err).Msg(msg)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for the query cache.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".tenure_cache.db"
	}
	return filepath.Join(homeDir, ".tenure_cache.db")
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for report history.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".tenure_history.db"
	}
	return filepath.Join(homeDir, ".tenure_history.db")
}

// TruncateName truncates a name to a maximum width with an ellipsis suffix.
// Requires maxWidth > 3 so there is room for the ellipsis and one character.
func TruncateName(name string, maxWidth int) string {
	runes := []rune(name)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return name
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
