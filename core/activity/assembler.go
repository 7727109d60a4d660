package activity

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/tenure/internal/errs"
	"github.com/huangsam/tenure/schema"
)

// Row labels read by Assemble.
const (
	LabelPersonID  = "person_id"
	LabelName      = "name"
	LabelFirstDate = "firstdate"
	LabelLastDate  = "lastdate"
)

// timeLayouts are the textual timestamp formats drivers hand back for
// aggregated date columns.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.DateOnly,
}

// Assemble converts (person_id, name, firstdate, lastdate) rows into an ActivityList.
// One entry is produced per row, in row order.
func Assemble(rows []schema.Row) (ActivityList, error) {
	entries := make([]Entry, 0, len(rows))
	for i, row := range rows {
		e, err := assembleRow(row)
		if err != nil {
			return ActivityList{}, errs.Wrap(err, errs.KindMalformedRow, "activity.Assemble", "row %d", i)
		}
		entries = append(entries, e)
	}
	return ActivityList{entries: entries}, nil
}

func assembleRow(row schema.Row) (Entry, error) {
	id, err := field(row, LabelPersonID, ParseIdentifier)
	if err != nil {
		return Entry{}, err
	}
	name, err := field(row, LabelName, parseText)
	if err != nil {
		return Entry{}, err
	}
	first, err := field(row, LabelFirstDate, ParseTimestamp)
	if err != nil {
		return Entry{}, err
	}
	last, err := field(row, LabelLastDate, ParseTimestamp)
	if err != nil {
		return Entry{}, err
	}
	return Entry{ID: id, Name: name, Period: Period{Start: first, End: last}}, nil
}

func field[T any](row schema.Row, label string, parse func(any) (T, error)) (T, error) {
	var zero T
	v, ok := row[label]
	if !ok {
		return zero, fmt.Errorf("missing field %q", label)
	}
	if v == nil {
		return zero, fmt.Errorf("field %q is null", label)
	}
	out, err := parse(v)
	if err != nil {
		return zero, fmt.Errorf("field %q: %w", label, err)
	}
	return out, nil
}

// ParseIdentifier normalizes a driver value holding an actor identifier to a string.
func ParseIdentifier(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case int32:
		return strconv.FormatInt(int64(x), 10), nil
	case int:
		return strconv.Itoa(x), nil
	case uint64:
		return strconv.FormatUint(x, 10), nil
	case uint32:
		return strconv.FormatUint(uint64(x), 10), nil
	case float64:
		if x != float64(int64(x)) {
			return "", fmt.Errorf("identifier %v is not integral", x)
		}
		return strconv.FormatInt(int64(x), 10), nil
	default:
		return "", fmt.Errorf("unsupported identifier type %T", v)
	}
}

func parseText(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	default:
		return fmt.Sprint(x), nil
	}
}

// ParseTimestamp accepts time.Time or the textual forms drivers return for
// aggregated date columns. Textual timestamps without a zone are read as UTC.
func ParseTimestamp(v any) (time.Time, error) {
	var s string
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case *time.Time:
		if x == nil {
			return time.Time{}, fmt.Errorf("nil timestamp")
		}
		return *x, nil
	case []byte:
		s = string(x)
	case string:
		s = x
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp type %T", v)
	}
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}
