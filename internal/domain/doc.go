// Package domain models river-gauge readings scraped from the Bavarian flood
// information service (Hochwassernachrichtendienst, HND) and the water
// information portal (Gewässerkundlicher Dienst, GKD).
//
// # Data Source
//
// Each measured quantity (water level, flow rate, water temperature) is
// published as its own HTML page holding a table of recent measurements,
// newest row first. The service reads the first row of the table body:
//
//	column 1: measurement time, "DD.MM.YYYY HH:MM"
//	column 2: measured value in German notation, e.g. "1 234,5"
//
// Time format:
//
//	Local wall-clock time without a zone designator. Readings are kept
//	naive and re-encoded as "2006-01-02T15:04:05" without an offset.
//
// Number format:
//
//	The decimal separator is a comma and thousands are grouped with a
//	non-breaking space (U+00A0). Both are normalized before parsing.
//	Placeholders such as "-" or "--" mean the station reported nothing
//	and produce a nil value rather than an error.
//
// # Failure Classes
//
// Fetch, parse, structure and timestamp failures are hard: the source yields
// no [Reading]. A value that cannot be parsed is soft: the Reading is
// returned with a nil Value. See [ErrFetch] and friends.
package domain
