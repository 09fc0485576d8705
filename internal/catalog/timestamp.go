package catalog

import (
	"fmt"
	"strings"
	"time"
)

// storedTimeLayout matches what CURRENT_TIMESTAMP produces, with optional
// fractional seconds.
const storedTimeLayout = "2006-01-02 15:04:05.999999999"

var timestampLayouts = []string{
	storedTimeLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02",
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(storedTimeLayout)
}

// ParseTimestamp accepts the timestamp forms found in the table and in
// import files (SQLite, RFC 3339 and ISO 8601 without zone). Times without
// a zone are taken as UTC.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// nullTime scans TIMESTAMP columns whether the driver hands back text or an
// already parsed time.
type nullTime struct {
	Time  time.Time
	Valid bool
}

func (n *nullTime) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		n.Time, n.Valid = time.Time{}, false
		return nil
	case time.Time:
		n.Time, n.Valid = v.UTC(), true
		return nil
	case string:
		return n.scanText(v)
	case []byte:
		return n.scanText(string(v))
	case int64:
		n.Time, n.Valid = time.Unix(v, 0).UTC(), true
		return nil
	default:
		return fmt.Errorf("cannot scan %T into timestamp", value)
	}
}

func (n *nullTime) scanText(value string) error {
	t, err := ParseTimestamp(value)
	if err != nil {
		return err
	}
	n.Time, n.Valid = t, true
	return nil
}
