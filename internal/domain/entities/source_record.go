// Package entities contains core domain data structures.
package entities

// Source identifies one of the three upstream security feeds.
type Source string

// Known feed sources. The declaration order is also the canonical
// ordering used when forming candidate pairs.
const (
	SourceFeedA Source = "FEED_A"
	SourceFeedB Source = "FEED_B"
	SourceFeedC Source = "FEED_C"
)

// Sources lists all known feeds in canonical order.
var Sources = []Source{SourceFeedA, SourceFeedB, SourceFeedC}

// Order returns the position of the source in the canonical feed
// ordering, or -1 for an unknown source.
func (s Source) Order() int {
	switch s {
	case SourceFeedA:
		return 0
	case SourceFeedB:
		return 1
	case SourceFeedC:
		return 2
	default:
		return -1
	}
}

// Valid reports whether the source is one of the known feeds.
func (s Source) Valid() bool {
	return s.Order() >= 0
}

// SourceRecord is a raw row from one feed in that feed's native schema.
// Fields holds the flat key-value columns exactly as parsed; the
// normalizer owns the mapping onto the common schema.
type SourceRecord struct {
	Source Source
	Fields map[string]string
	Line   int
}

// Field returns the named column value, or "" when absent.
func (r SourceRecord) Field(name string) string {
	if r.Fields == nil {
		return ""
	}
	return r.Fields[name]
}
