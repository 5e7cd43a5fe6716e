package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// timestampLayout accepts "01.03.2024 07:15" as well as unpadded "1.3.2024 7:15".
	timestampLayout = "2.1.2006 15:04"

	// isoLayout is ISO-8601 without a zone; upstream times carry no offset.
	isoLayout = "2006-01-02T15:04:05"

	// nbsp groups thousands in the upstream tables, e.g. "1 234,5".
	nbsp = "\u00a0"
)

// ParseTimestamp parses a "DD.MM.YYYY HH:MM" cell text. The result is naive
// wall-clock time stored in UTC so formatting round-trips the input fields.
func ParseTimestamp(text string) (time.Time, error) {
	s := strings.TrimSpace(strings.ReplaceAll(text, nbsp, " "))
	ts, err := time.ParseInLocation(timestampLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrTimestampFormat, text)
	}
	return ts, nil
}

// ParseValue normalizes a German-formatted number and parses it. A text that
// is not a finite number after normalization returns an error wrapping
// ErrValueFormat; callers treat that as "no value".
func ParseValue(text string) (float64, error) {
	s := strings.ReplaceAll(text, ",", ".")
	s = strings.ReplaceAll(s, nbsp, "")
	s = strings.TrimSpace(s)

	// ParseFloat also reads hex floats such as 0x1p3; the gauges only print decimals.
	if strings.ContainsAny(s, "xX") {
		return 0, fmt.Errorf("%w: %q", ErrValueFormat, text)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrValueFormat, text)
	}
	return v, nil
}

// OptionalValue is ParseValue with the soft failure folded into a nil result.
func OptionalValue(text string) *float64 {
	v, err := ParseValue(text)
	if err != nil {
		return nil
	}
	return &v
}

// FormatTime encodes a reading timestamp as zone-less ISO-8601.
func FormatTime(ts time.Time) string {
	return ts.Format(isoLayout)
}

// FormatValue renders a value for a per-field topic. Integral values keep a
// trailing ".0" so consumers always see a decimal, e.g. "45.0" and "123.4".
func FormatValue(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// NewCompositeReading assembles a composite from the canonical level reading
// and the optional flow and temperature values.
func NewCompositeReading(level Reading, flow, temperature *float64) CompositeReading {
	return CompositeReading{
		Time:        FormatTime(level.Timestamp),
		Level:       level.Value,
		Flow:        flow,
		Temperature: temperature,
	}
}
