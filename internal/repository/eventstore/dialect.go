package eventstore

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect carries the few SQL differences between supported backends. Queries
// are written once with "?" placeholders and rebound per dialect.
type Dialect struct {
	Name string
	// DriverName is the database/sql driver registered for this dialect.
	DriverName   string
	dollarParams bool
	minuteBucket func(col string) string
	// comparable normalises a timestamp column before range comparisons.
	// Nil leaves the column as is.
	comparable func(col string) string
}

var (
	MySQL = Dialect{
		Name:       "mysql",
		DriverName: "mysql",
		minuteBucket: func(col string) string {
			return fmt.Sprintf("STR_TO_DATE(DATE_FORMAT(%s, '%%Y-%%m-%%d %%H:%%i:00'), '%%Y-%%m-%%d %%H:%%i:%%s')", col)
		},
	}
	Postgres = Dialect{
		Name:         "postgres",
		DriverName:   "pgx",
		dollarParams: true,
		minuteBucket: func(col string) string {
			return fmt.Sprintf("date_trunc('minute', %s)", col)
		},
	}
	SQLite = Dialect{
		Name:       "sqlite",
		DriverName: "sqlite3",
		minuteBucket: func(col string) string {
			return fmt.Sprintf("strftime('%%Y-%%m-%%d %%H:%%M:00', %s)", col)
		},
		// Cowrie's sqlite output stores ISO-8601 text ("...T05:00:00.000000Z"),
		// which does not sort against "YYYY-MM-DD HH:MM:SS" as text.
		comparable: func(col string) string {
			return fmt.Sprintf("datetime(%s)", col)
		},
	}
	ClickHouse = Dialect{
		Name:       "clickhouse",
		DriverName: "clickhouse",
		minuteBucket: func(col string) string {
			return fmt.Sprintf("toStartOfMinute(%s)", col)
		},
	}
)

func (d Dialect) timeColumn(col string) string {
	if d.comparable == nil {
		return col
	}
	return d.comparable(col)
}

// DialectFor resolves a configured driver name.
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mysql", "mariadb":
		return MySQL, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "clickhouse":
		return ClickHouse, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported database driver %q", name)
	}
}

// Rebind rewrites "?" placeholders into the dialect's form. The queries in
// this package never contain a literal question mark.
func (d Dialect) Rebind(query string) string {
	if !d.dollarParams {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
