package database

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect captures the SQL differences between the supported backends
type Dialect struct {
	Name       string
	DriverName string
	dollarArgs bool
	lockClause string
}

var (
	Postgres = Dialect{Name: "postgres", DriverName: "postgres", dollarArgs: true, lockClause: " FOR UPDATE"}
	SQLite   = Dialect{Name: "sqlite", DriverName: "sqlite"}
)

// DialectFor returns the dialect of a configured driver name
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "postgres":
		return Postgres, nil
	case "sqlite":
		return SQLite, nil
	}
	return Dialect{}, fmt.Errorf("unsupported database driver %q", driver)
}

// Rebind rewrites ? placeholders into the dialect's form. Question marks inside
// single-quoted literals are left alone.
func (d Dialect) Rebind(query string) string {
	if !d.dollarArgs {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		ch := query[i]
		switch {
		case ch == '\'':
			inQuote = !inQuote
			b.WriteByte(ch)
		case ch == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

// ForUpdate returns the row-lock suffix for a SELECT inside a transaction
func (d Dialect) ForUpdate() string {
	return d.lockClause
}
