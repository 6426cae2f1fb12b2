package eventstore

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Layouts tried, in order, for timestamps that reach us as text. SQLite
// aggregates and some drivers return strings rather than time.Time.
var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04",
	"2006-01-02",
}

// naiveTime scans a store timestamp and pins its wall clock to loc. Store
// timestamps carry no zone, so whatever zone the driver attached is dropped.
type naiveTime struct {
	loc   *time.Location
	Time  time.Time
	Valid bool
}

func (n *naiveTime) Scan(src any) error {
	n.Time, n.Valid = time.Time{}, false
	var t time.Time
	switch v := src.(type) {
	case nil:
		return nil
	case time.Time:
		t = v
	case []byte:
		parsed, err := parseNaive(string(v))
		if err != nil {
			return err
		}
		t = parsed
	case string:
		parsed, err := parseNaive(v)
		if err != nil {
			return err
		}
		t = parsed
	default:
		return fmt.Errorf("cannot scan %T into timestamp", src)
	}
	n.Time = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), n.loc)
	n.Valid = true
	return nil
}

func (n naiveTime) ptr() *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time
	return &t
}

func parseNaive(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// successFlag scans the nullable auth.success column. Backends disagree on
// its type: tinyint, smallint, boolean, UInt8 or text.
type successFlag struct {
	sql.NullInt64
}

func (f *successFlag) Scan(src any) error {
	f.NullInt64 = sql.NullInt64{}
	switch v := src.(type) {
	case nil:
		return nil
	case bool:
		if v {
			f.Int64 = 1
		}
	case int64:
		f.Int64 = v
	case int32:
		f.Int64 = int64(v)
	case int16:
		f.Int64 = int64(v)
	case int8:
		f.Int64 = int64(v)
	case uint8:
		f.Int64 = int64(v)
	case uint64:
		if v != 0 {
			f.Int64 = 1
		}
	case []byte:
		return f.Scan(string(v))
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "t", "true":
			f.Int64 = 1
		case "f", "false":
			f.Int64 = 0
		default:
			i, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return fmt.Errorf("cannot scan %q into success flag", v)
			}
			f.Int64 = i
		}
	default:
		return fmt.Errorf("cannot scan %T into success flag", src)
	}
	f.Valid = true
	return nil
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func int64Ptr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	i := ni.Int64
	return &i
}
