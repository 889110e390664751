package model

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DaySet is the set of weekdays a service is offered on, 0 = Sunday through
// 6 = Saturday. The services table stores it as an ordered comma-separated
// list ("0,1,3"), so DaySet implements driver.Valuer and sql.Scanner around
// that encoding.
type DaySet map[time.Weekday]struct{}

// ParseDaySet parses a comma-separated weekday list. Values outside 0-6 are
// rejected; duplicates collapse.
func ParseDaySet(s string) (DaySet, error) {
	set := make(DaySet)
	if strings.TrimSpace(s) == "" {
		return set, nil
	}
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid weekday %q: %w", part, err)
		}
		if n < 0 || n > 6 {
			return nil, fmt.Errorf("weekday %d out of range 0-6", n)
		}
		set[time.Weekday(n)] = struct{}{}
	}
	return set, nil
}

func (d DaySet) Contains(w time.Weekday) bool {
	_, ok := d[w]
	return ok
}

// String renders the set as an ordered comma-separated list.
func (d DaySet) String() string {
	parts := make([]string, 0, len(d))
	for w := time.Sunday; w <= time.Saturday; w++ {
		if d.Contains(w) {
			parts = append(parts, strconv.Itoa(int(w)))
		}
	}
	return strings.Join(parts, ",")
}

func (d DaySet) Value() (driver.Value, error) {
	return d.String(), nil
}

func (d *DaySet) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	case nil:
		*d = make(DaySet)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into DaySet", src)
	}

	set, err := ParseDaySet(raw)
	if err != nil {
		return err
	}
	*d = set
	return nil
}

func (d DaySet) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.String())), nil
}

func (d *DaySet) UnmarshalJSON(b []byte) error {
	raw, err := strconv.Unquote(string(b))
	if err != nil {
		return fmt.Errorf("day set must be a string: %w", err)
	}
	set, err := ParseDaySet(raw)
	if err != nil {
		return err
	}
	*d = set
	return nil
}
