package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected time.Time
	}{
		{"zero padded", "01.03.2024 07:15", time.Date(2024, time.March, 1, 7, 15, 0, 0, time.UTC)},
		{"unpadded day and month", "1.3.2024 7:15", time.Date(2024, time.March, 1, 7, 15, 0, 0, time.UTC)},
		{"end of year", "31.12.2023 23:45", time.Date(2023, time.December, 31, 23, 45, 0, 0, time.UTC)},
		{"surrounding whitespace", "\n  15.06.2024 12:00 ", time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, err := ParseTimestamp(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ts)
		})
	}
}

func TestParseTimestamp_Invalid(t *testing.T) {
	for _, text := range []string{
		"",
		"-",
		"2024-03-01 07:15",
		"01.03.2024",
		"32.01.2024 07:15",
		"01.13.2024 07:15",
		"01.03.2024 25:00",
		"01/03/2024 07:15",
	} {
		t.Run(text, func(t *testing.T) {
			_, err := ParseTimestamp(text)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrTimestampFormat)
		})
	}
}

func TestFormatTime_RoundTrip(t *testing.T) {
	ts, err := ParseTimestamp("01.03.2024 07:15")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01T07:15:00", FormatTime(ts))
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected float64
	}{
		{"decimal comma", "123,4", 123.4},
		{"integer", "45", 45},
		{"zero fraction", "45,0", 45},
		{"grouped thousands", "1\u00a0234,5", 1234.5},
		{"grouped millions", "1\u00a0234\u00a0567,25", 1234567.25},
		{"negative", "-0,3", -0.3},
		{"padded", "  7,2 ", 7.2},
		{"decimal point", "7.2", 7.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseValue(tt.text)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, v, 1e-9)
		})
	}
}

func TestParseValue_NotNumeric(t *testing.T) {
	for _, text := range []string{"", "-", "--", "n/a", "k.A.", "NaN", "Inf", "12,3,4", "0x1p3", "0X10", "0x_1p0"} {
		t.Run(text, func(t *testing.T) {
			_, err := ParseValue(text)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValueFormat)
			assert.Nil(t, OptionalValue(text))
		})
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in       float64
		expected string
	}{
		{123.4, "123.4"},
		{45, "45.0"},
		{7.2, "7.2"},
		{0, "0.0"},
		{-1.5, "-1.5"},
		{1234.5, "1234.5"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatValue(tt.in))
	}
}

func TestNewCompositeReading(t *testing.T) {
	level := Reading{
		Timestamp: time.Date(2024, time.March, 1, 7, 15, 0, 0, time.UTC),
		Value:     ptr(123.4),
	}

	c := NewCompositeReading(level, ptr(45.0), nil)

	assert.Equal(t, "2024-03-01T07:15:00", c.Time)
	require.NotNil(t, c.Level)
	assert.InDelta(t, 123.4, *c.Level, 1e-9)
	require.NotNil(t, c.Flow)
	assert.InDelta(t, 45.0, *c.Flow, 1e-9)
	assert.Nil(t, c.Temperature)
}

func TestCompositeReading_JSONAlwaysHasFourKeys(t *testing.T) {
	tests := []struct {
		name     string
		reading  CompositeReading
		expected string
	}{
		{
			name:     "all present",
			reading:  CompositeReading{Time: "2024-03-01T07:15:00", Level: ptr(123.4), Flow: ptr(45), Temperature: ptr(7.2)},
			expected: `{"time":"2024-03-01T07:15:00","level":123.4,"flow":45,"temperature":7.2}`,
		},
		{
			name:     "all absent",
			reading:  CompositeReading{Time: "2024-03-01T07:15:00"},
			expected: `{"time":"2024-03-01T07:15:00","level":null,"flow":null,"temperature":null}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.reading)
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(data))

			var keys map[string]any
			require.NoError(t, json.Unmarshal(data, &keys))
			assert.Len(t, keys, 4)
		})
	}
}

func TestCompositeReading_Fields(t *testing.T) {
	c := CompositeReading{Time: "2024-03-01T07:15:00", Level: ptr(123.4), Temperature: ptr(7.2)}

	assert.Equal(t, []Field{
		{Name: FieldLevel, Value: 123.4},
		{Name: FieldTemperature, Value: 7.2},
	}, c.Fields())
	assert.Empty(t, CompositeReading{}.Fields())
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "none", ErrorKind(nil))
	assert.Equal(t, "fetch", ErrorKind(ErrFetch))
	assert.Equal(t, "structure", ErrorKind(ErrStructure))
	assert.Equal(t, "timestamp", ErrorKind(ErrTimestampFormat))
	assert.Equal(t, "parse", ErrorKind(ErrParse))
	assert.Equal(t, "value", ErrorKind(ErrValueFormat))
}
