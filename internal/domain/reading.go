package domain

import (
	"context"
	"time"
)

// Source describes one upstream page and where its latest measurement lives.
type Source struct {
	Name              string // "level", "flow" or "temperature"
	URL               string
	TimestampSelector string // CSS selector of the time cell
	ValueSelector     string // CSS selector of the value cell
}

// Reading is the latest measurement extracted from one source page.
type Reading struct {
	Timestamp time.Time
	Value     *float64 // nil when the page shows no numeric value
}

// CompositeReading is the unit published to the message bus. All four keys
// are always encoded; missing values become JSON null.
type CompositeReading struct {
	Time        string   `json:"time"`
	Level       *float64 `json:"level"`
	Flow        *float64 `json:"flow"`
	Temperature *float64 `json:"temperature"`
}

// Field is one scalar of a composite reading, published on its own topic.
type Field struct {
	Name  string
	Value float64
}

// Fields returns the present scalar values in publish order.
func (c CompositeReading) Fields() []Field {
	fields := make([]Field, 0, 3)
	for _, f := range []struct {
		name string
		v    *float64
	}{
		{FieldLevel, c.Level},
		{FieldFlow, c.Flow},
		{FieldTemperature, c.Temperature},
	} {
		if f.v != nil {
			fields = append(fields, Field{Name: f.name, Value: *f.v})
		}
	}
	return fields
}

// Field names double as source names and topic suffixes.
const (
	FieldLevel       = "level"
	FieldFlow        = "flow"
	FieldTemperature = "temperature"
)

// Extractor fetches a source page and returns its latest reading.
type Extractor interface {
	Extract(ctx context.Context, src Source) (Reading, error)
}
