package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

// Clock is a time of day in minutes since midnight.
type Clock int

func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, errors.Errorf("invalid clock %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, errors.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, errors.Errorf("invalid minute in %q", s)
	}
	return Clock(h*60 + m), nil
}

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

func clockOf(t time.Time) Clock {
	return Clock(t.Hour()*60 + t.Minute())
}

type DayHours struct {
	Open   Clock
	Close  Clock
	Closed bool
}

// OpeningHours is indexed by time.Weekday; every day has an entry.
type OpeningHours [7]DayHours

// RawDayHours is the JSON shape stored in branches.opening_hours.
type RawDayHours struct {
	Open   string `json:"open"`
	Close  string `json:"close"`
	Closed bool   `json:"closed"`
}

var weekdayKeys = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// AlwaysClosed is used when a branch has no usable schedule.
func AlwaysClosed() OpeningHours {
	var h OpeningHours
	for i := range h {
		h[i].Closed = true
	}
	return h
}

// ParseOpeningHours converts the stored per-day map. Days missing from raw are closed.
func ParseOpeningHours(raw map[string]RawDayHours) (OpeningHours, error) {
	hours := AlwaysClosed()
	for key, day := range raw {
		wd, ok := weekdayKeys[strings.ToLower(strings.TrimSpace(key))]
		if !ok {
			return AlwaysClosed(), errors.Errorf("unknown weekday %q", key)
		}
		if day.Closed {
			continue
		}
		open, err := ParseClock(day.Open)
		if err != nil {
			return AlwaysClosed(), errors.Wrapf(err, "%s open", key)
		}
		closeAt, err := ParseClock(day.Close)
		if err != nil {
			return AlwaysClosed(), errors.Wrapf(err, "%s close", key)
		}
		hours[wd] = DayHours{Open: open, Close: closeAt}
	}
	return hours, nil
}

// IsOpen reports whether now falls inside that weekday's window in loc.
// A window with Close before Open runs past midnight.
func (h OpeningHours) IsOpen(now time.Time, loc *time.Location) bool {
	local := now.In(loc)
	day := h[local.Weekday()]
	if day.Closed {
		return false
	}
	m := clockOf(local)
	if day.Close < day.Open {
		return m >= day.Open || m <= day.Close
	}
	return m >= day.Open && m <= day.Close
}

type Transition struct {
	Day  time.Weekday
	Time Clock
	At   time.Time
}

// NextTransition returns the next opening: later today if the branch has not opened yet,
// otherwise the first open day among the following six.
func (h OpeningHours) NextTransition(now time.Time, loc *time.Location) (Transition, bool) {
	local := now.In(loc)

	today := h[local.Weekday()]
	if !today.Closed && clockOf(local) < today.Open {
		return transitionOn(local, today.Open), true
	}

	for i := 1; i <= 6; i++ {
		d := local.AddDate(0, 0, i)
		day := h[d.Weekday()]
		if !day.Closed {
			return transitionOn(d, day.Open), true
		}
	}
	return Transition{}, false
}

func transitionOn(day time.Time, at Clock) Transition {
	return Transition{
		Day:  day.Weekday(),
		Time: at,
		At:   time.Date(day.Year(), day.Month(), day.Day(), at.Hour(), at.Minute(), 0, 0, day.Location()),
	}
}

type Branch struct {
	ID        string
	Name      string
	NameLocal string
	Address   string
	Active    bool
	Hours     OpeningHours
}

func (b *Branch) IsOpen(now time.Time, loc *time.Location) bool {
	if b == nil || !b.Active {
		return false
	}
	return b.Hours.IsOpen(now, loc)
}

var ErrBranchNotFound = errors.New("branch not found")
