package domain

import "errors"

// Hard failures abort the reading of a single source.
var (
	ErrFetch           = errors.New("fetch failed")
	ErrParse           = errors.New("document not parseable")
	ErrStructure       = errors.New("element not found")
	ErrTimestampFormat = errors.New("invalid timestamp")
)

// ErrValueFormat marks a value cell that holds no number. It is never returned
// from an extraction; it only classifies the soft failure in logs and metrics.
var ErrValueFormat = errors.New("invalid value")

// ErrorKind returns a short label for err suitable for logs and metric labels.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrFetch):
		return "fetch"
	case errors.Is(err, ErrParse):
		return "parse"
	case errors.Is(err, ErrStructure):
		return "structure"
	case errors.Is(err, ErrTimestampFormat):
		return "timestamp"
	case errors.Is(err, ErrValueFormat):
		return "value"
	default:
		return "other"
	}
}
