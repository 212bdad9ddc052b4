package store

import (
	"fmt"
	"time"
)

// sqliteTimeLayout is fixed width so stored values sort lexically in time
// order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

var parseLayouts = []string{
	sqliteTimeLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func (d Dialect) timeArg(t time.Time) any {
	if d == DialectSQLite {
		return t.UTC().Format(sqliteTimeLayout)
	}
	return t.UTC()
}

func (d Dialect) nullTimeArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return d.timeArg(*t)
}

// nullTime scans timestamps stored natively (Postgres) or as text (SQLite).
type nullTime struct {
	Time  time.Time
	Valid bool
}

func (n *nullTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		n.Time, n.Valid = time.Time{}, false
		return nil
	case time.Time:
		n.Time, n.Valid = v.UTC(), true
		return nil
	case string:
		return n.parse(v)
	case []byte:
		return n.parse(string(v))
	default:
		return fmt.Errorf("scan time: unsupported type %T", src)
	}
}

func (n *nullTime) parse(value string) error {
	for _, layout := range parseLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			n.Time, n.Valid = parsed.UTC(), true
			return nil
		}
	}
	return fmt.Errorf("scan time: cannot parse %q", value)
}

func (n nullTime) ptr() *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time
	return &t
}
