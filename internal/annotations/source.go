// Package annotations provides the configuration-source annotation store used
// by the model metadata. Every piece of mapping metadata (collection names,
// element names, index options, encryption settings) is recorded together with
// the source that set it, so that later configuration only overrides earlier
// configuration when it comes from a source of equal or higher precedence.
package annotations

// Source identifies the provenance of a configured annotation value.
// Sources are ordered: convention < data annotation < explicit. A value set
// from a higher-precedence source can never be silently replaced by a
// lower-precedence one.
type Source int

const (
	// SourceConvention marks values derived by naming conventions
	// (field names, type names, default discriminators).
	SourceConvention Source = iota

	// SourceDataAnnotation marks values read from struct tags
	// (bson:"..." and mongomap:"..." tags).
	SourceDataAnnotation

	// SourceExplicit marks values set through the fluent builder API.
	SourceExplicit
)

// String returns the string representation of the source
func (s Source) String() string {
	switch s {
	case SourceConvention:
		return "convention"
	case SourceDataAnnotation:
		return "data-annotation"
	case SourceExplicit:
		return "explicit"
	default:
		return "unknown"
	}
}

// Overrides reports whether a value from this source may replace a value
// previously recorded from old. Equal precedence overrides, so repeated
// configuration from the same source is cumulative (last write wins).
func (s Source) Overrides(old Source) bool {
	return s >= old
}
