package core

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the canonical representation of a Date at every storage boundary.
const DateLayout = "2006-01-02"

type (
	// Person is one of the two roster members who log activities.
	Person string

	// Date is a calendar date with no time-of-day component, stored in UTC.
	Date struct {
		time.Time
	}

	// Catalog maps an activity or reward name to its point value.
	Catalog map[string]int64

	ActivityRecord struct {
		ID       string `json:"id,omitempty"`
		Person   Person `json:"person"`
		Activity string `json:"activity"`
		Date     Date   `json:"date"`
		Points   int64  `json:"points"`
	}

	RedemptionRecord struct {
		ID     string `json:"id,omitempty"`
		Person Person `json:"person"`
		Reward string `json:"reward"`
		Date   Date   `json:"date"`
		Cost   int64  `json:"cost"`
	}
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses an ISO 8601 calendar date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, &ValidationError{Field: "date", Reason: fmt.Sprintf("%q is not a YYYY-MM-DD date", s)}
	}
	return Date{Time: t}, nil
}

// String returns the ISO 8601 form, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// AddDays returns the date n calendar days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// Before reports whether d falls on an earlier day than o.
func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }

// After reports whether d falls on a later day than o.
func (d Date) After(o Date) bool { return d.Time.After(o.Time) }

// Equal reports whether d and o are the same calendar day.
func (d Date) Equal(o Date) bool { return d.Time.Equal(o.Time) }

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	// Older ledger files were written with a full timestamp; keep the day only.
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return &ValidationError{Field: "date", Reason: "date cannot be zero"}
	}
	return nil
}

// Roster is the fixed pair of people allowed to log and redeem.
type Roster [2]Person

// DefaultRoster matches the original household.
var DefaultRoster = Roster{"Josse", "Tomi"}

// NewRoster builds a roster from exactly two distinct, non-empty names.
func NewRoster(names []string) (Roster, error) {
	if len(names) != 2 {
		return Roster{}, fmt.Errorf("%w: roster needs exactly two people, got %d", ErrConfiguration, len(names))
	}
	a, b := strings.TrimSpace(names[0]), strings.TrimSpace(names[1])
	if a == "" || b == "" {
		return Roster{}, fmt.Errorf("%w: roster names cannot be empty", ErrConfiguration)
	}
	if strings.EqualFold(a, b) {
		return Roster{}, fmt.Errorf("%w: roster names must differ, got %q twice", ErrConfiguration, a)
	}
	return Roster{Person(a), Person(b)}, nil
}

// Resolve maps user input (case-insensitive) to a roster member.
func (r Roster) Resolve(name string) (Person, error) {
	name = strings.TrimSpace(name)
	for _, p := range r {
		if strings.EqualFold(string(p), name) {
			return p, nil
		}
	}
	return "", &ValidationError{Field: "person", Reason: fmt.Sprintf("%q is not one of %s, %s", name, r[0], r[1])}
}

// ResolveFilter is like Resolve but accepts "" (and the original "Ambos") as "everyone".
func (r Roster) ResolveFilter(name string) (Person, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "ambos") || strings.EqualFold(name, "all") {
		return "", nil
	}
	return r.Resolve(name)
}

// Contains reports whether p is a roster member.
func (r Roster) Contains(p Person) bool {
	return p == r[0] || p == r[1]
}

// Names returns the roster as plain strings, in order.
func (r Roster) Names() []string {
	return []string{string(r[0]), string(r[1])}
}

// Validate checks the catalog is usable: names present and values non-negative.
func (c Catalog) Validate() error {
	for name, v := range c {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: catalog entry with empty name", ErrConfiguration)
		}
		if v < 0 {
			return fmt.Errorf("%w: catalog entry %q has negative value %d", ErrConfiguration, name, v)
		}
	}
	return nil
}

// Lookup returns the value for name, failing with a ValidationError for unknown names.
func (c Catalog) Lookup(field, name string) (int64, error) {
	v, ok := c[name]
	if !ok {
		return 0, &ValidationError{Field: field, Reason: fmt.Sprintf("%q is not in the catalog", name)}
	}
	return v, nil
}

// Names returns the catalog names sorted by value, then name.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for n := range c {
		names = append(names, n)
	}
	sortByValueThenName(names, c)
	return names
}

// Clone returns an independent copy.
func (c Catalog) Clone() Catalog {
	out := make(Catalog, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

func (a ActivityRecord) Validate() error {
	if strings.TrimSpace(string(a.Person)) == "" {
		return &ValidationError{Field: "person", Reason: "person is required"}
	}
	if strings.TrimSpace(a.Activity) == "" {
		return &ValidationError{Field: "activity", Reason: "activity is required"}
	}
	if len(a.Activity) > 200 {
		return &ValidationError{Field: "activity", Reason: "activity name too long (max 200 characters)"}
	}
	if err := a.Date.Validate(); err != nil {
		return err
	}
	if a.Points < 0 {
		return &ValidationError{Field: "points", Reason: "points cannot be negative"}
	}
	return nil
}

func (r RedemptionRecord) Validate() error {
	if strings.TrimSpace(string(r.Person)) == "" {
		return &ValidationError{Field: "person", Reason: "person is required"}
	}
	if strings.TrimSpace(r.Reward) == "" {
		return &ValidationError{Field: "reward", Reason: "reward is required"}
	}
	if len(r.Reward) > 200 {
		return &ValidationError{Field: "reward", Reason: "reward name too long (max 200 characters)"}
	}
	if err := r.Date.Validate(); err != nil {
		return err
	}
	if r.Cost < 0 {
		return &ValidationError{Field: "cost", Reason: "cost cannot be negative"}
	}
	return nil
}
