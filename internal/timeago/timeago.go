// Package timeago renders the distance between two instants as a short
// human phrase such as "3 minutes ago" or "2 hours, 14 minutes ago".
package timeago

import (
	"strconv"
	"strings"
	"time"
)

const (
	Day   = 24 * time.Hour
	Week  = 7 * Day
	Month = 30 * Day
	Year  = 365 * Day
)

// Unit is one step of the scale, largest first in Locale.Units.
type Unit struct {
	Size     time.Duration
	Singular string
	Plural   string
}

func (u Unit) label(n int64) string {
	if n == 1 {
		return u.Singular
	}
	return u.Plural
}

// Locale holds every word the formatter emits.
type Locale struct {
	Units     []Unit
	JustNow   string
	Separator string
	// Pattern wraps the joined units; "%s" is replaced by them.
	Pattern string
}

var English = Locale{
	Units: []Unit{
		{Year, "year", "years"},
		{Month, "month", "months"},
		{Week, "week", "weeks"},
		{Day, "day", "days"},
		{time.Hour, "hour", "hours"},
		{time.Minute, "minute", "minutes"},
		{time.Second, "second", "seconds"},
	},
	JustNow:   "just now",
	Separator: ", ",
	Pattern:   "%s ago",
}

type Formatter struct {
	locale   Locale
	maxUnits int
}

type Option func(*Formatter)

// WithMaxUnits caps how many consecutive units are considered. Values below
// one are treated as one.
func WithMaxUnits(n int) Option {
	return func(f *Formatter) {
		if n < 1 {
			n = 1
		}
		f.maxUnits = n
	}
}

func WithLocale(l Locale) Option {
	return func(f *Formatter) { f.locale = l }
}

func New(opts ...Option) *Formatter {
	f := &Formatter{locale: English, maxUnits: 1}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format describes how long before now t happened. A t after now is clock
// skew and reads as JustNow.
func (f *Formatter) Format(t, now time.Time) string {
	return f.FormatDuration(now.Sub(t))
}

// FormatDuration is Format for an already computed elapsed duration.
func (f *Formatter) FormatDuration(d time.Duration) string {
	parts := f.parts(d)
	if len(parts) == 0 {
		return f.locale.JustNow
	}
	return strings.Replace(f.locale.Pattern, "%s", strings.Join(parts, f.locale.Separator), 1)
}

// Span renders d without the "ago" wrapping, e.g. "4 minutes, 2 seconds".
func (f *Formatter) Span(d time.Duration) string {
	parts := f.parts(d)
	if len(parts) == 0 {
		return f.locale.JustNow
	}
	return strings.Join(parts, f.locale.Separator)
}

// parts walks the scale from the largest unit that fits. Lower units that come
// out as zero are dropped but still use up a slot, so "2 hours, 0 minutes"
// with two units prints as "2 hours" rather than reaching for seconds.
func (f *Formatter) parts(d time.Duration) []string {
	units := f.locale.Units
	start := -1
	for i, u := range units {
		if d >= u.Size {
			start = i
			break
		}
	}
	if start < 0 {
		return nil
	}

	var parts []string
	for i := start; i < len(units) && i < start+f.maxUnits; i++ {
		u := units[i]
		n := int64(d / u.Size)
		d -= time.Duration(n) * u.Size
		if n == 0 {
			continue
		}
		parts = append(parts, strconv.FormatInt(n, 10)+" "+u.label(n))
	}
	return parts
}

// Format is the one-shot form of Formatter.Format with the English locale.
func Format(t, now time.Time, maxUnits int) string {
	return New(WithMaxUnits(maxUnits)).Format(t, now)
}
