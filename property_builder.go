package mongomap

import (
	"github.com/google/uuid"
	"github.com/nlstn/go-mongomap/internal/annotations"
	"github.com/nlstn/go-mongomap/internal/metadata"
)

// PropertyBuilder fluently configures one mapped property.
type PropertyBuilder struct {
	parent   *ModelBuilder
	property *metadata.Property
}

// Property returns the underlying property, or nil when the lookup this
// builder was created for failed.
func (b *PropertyBuilder) Property() *Property {
	return b.property
}

// HasElementName sets the BSON element name the property is stored under.
func (b *PropertyBuilder) HasElementName(name string) *PropertyBuilder {
	if b.property == nil {
		return b
	}
	if _, err := b.property.SetElementName(name, annotations.SourceExplicit); err != nil {
		b.parent.recordError(err)
	}
	return b
}

// HasBSONRepresentation overrides the BSON type the property's values are
// stored as.
func (b *PropertyBuilder) HasBSONRepresentation(r BSONRepresentation) *PropertyBuilder {
	if b.property != nil {
		b.property.SetRepresentation(r, annotations.SourceExplicit)
	}
	return b
}

// HasDateTimeKind sets the clock stored time values are interpreted
// against when read back.
func (b *PropertyBuilder) HasDateTimeKind(k DateTimeKind) *PropertyBuilder {
	if b.property != nil {
		b.property.SetTimeKind(k, annotations.SourceExplicit)
	}
	return b
}

// HasAnnotation attaches an arbitrary annotation to the property.
func (b *PropertyBuilder) HasAnnotation(name string, value interface{}) *PropertyBuilder {
	if b.property != nil {
		b.property.Annotations().Set(name, value, annotations.SourceExplicit)
	}
	return b
}

// IsEncrypted enables queryable encryption with fully spelled-out
// options, including sparsity and trim factor. The options are validated
// before they are stored.
func (b *PropertyBuilder) IsEncrypted(opts *QueryableEncryptionOptions) *PropertyBuilder {
	if b.property == nil {
		return b
	}
	if err := b.property.SetEncryption(opts); err != nil {
		b.parent.recordError(err)
	}
	return b
}

// IsEncryptedForEquality enables queryable encryption with equality
// queries on the property. A zero contention keeps the server default.
func (b *PropertyBuilder) IsEncryptedForEquality(dataKeyID *uuid.UUID, contention int) *PropertyBuilder {
	if b.property == nil {
		return b
	}
	opts := &metadata.QueryableEncryptionOptions{
		QueryType:  metadata.EncryptionQueryEquality,
		DataKeyID:  dataKeyID,
		Contention: contention,
	}
	if err := b.property.SetEncryption(opts); err != nil {
		b.parent.recordError(err)
	}
	return b
}

// IsEncryptedForRange enables queryable encryption with range queries on
// the property, bounded by min and max.
func (b *PropertyBuilder) IsEncryptedForRange(dataKeyID *uuid.UUID, min, max interface{}) *PropertyBuilder {
	if b.property == nil {
		return b
	}
	opts := &metadata.QueryableEncryptionOptions{
		QueryType: metadata.EncryptionQueryRange,
		DataKeyID: dataKeyID,
		Min:       min,
		Max:       max,
	}
	if err := b.property.SetEncryption(opts); err != nil {
		b.parent.recordError(err)
	}
	return b
}
