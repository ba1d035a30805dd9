package mongomap

import (
	"fmt"

	"github.com/nlstn/go-mongomap/internal/annotations"
	"github.com/nlstn/go-mongomap/internal/metadata"
)

// EntityTypeBuilder fluently configures one entity type. All mutations are
// recorded at explicit-configuration precedence and therefore override
// convention- and tag-derived values. Configuration errors are collected on
// the owning ModelBuilder and surface from Build.
type EntityTypeBuilder struct {
	parent *ModelBuilder
	entity *metadata.EntityType
}

// EntityType returns the underlying entity type, or nil when the
// registration this builder was created for failed.
func (b *EntityTypeBuilder) EntityType() *EntityType {
	return b.entity
}

func (b *EntityTypeBuilder) valid() bool {
	return b.entity != nil
}

// ToCollection maps the entity type's document root to the named
// collection. Calling it on an owned type promotes that type to a document
// root of its own.
func (b *EntityTypeBuilder) ToCollection(name string) *EntityTypeBuilder {
	if !b.valid() {
		return b
	}
	if _, err := b.entity.SetCollectionName(name, annotations.SourceExplicit); err != nil {
		b.parent.recordError(err)
	}
	return b
}

// HasContainingElementName sets the element the entity type's documents are
// stored under inside their parent document.
func (b *EntityTypeBuilder) HasContainingElementName(name string) *EntityTypeBuilder {
	if !b.valid() {
		return b
	}
	if _, err := b.entity.SetContainingElementName(name, annotations.SourceExplicit); err != nil {
		b.parent.recordError(err)
	}
	return b
}

// RemoveContainingElementName removes an explicit containing element name,
// restoring the navigation-derived default.
func (b *EntityTypeBuilder) RemoveContainingElementName() *EntityTypeBuilder {
	if b.valid() {
		b.entity.RemoveContainingElementName(annotations.SourceExplicit)
	}
	return b
}

// HasDiscriminator sets the element name the type discriminator is stored
// under. The setting lives on the inheritance chain root.
func (b *EntityTypeBuilder) HasDiscriminator(elementName string) *EntityTypeBuilder {
	if !b.valid() {
		return b
	}
	if _, err := b.entity.SetDiscriminatorElementName(elementName, annotations.SourceExplicit); err != nil {
		b.parent.recordError(err)
	}
	return b
}

// HasDiscriminatorValue sets the value written to the discriminator element
// for documents of this concrete type.
func (b *EntityTypeBuilder) HasDiscriminatorValue(value string) *EntityTypeBuilder {
	if !b.valid() {
		return b
	}
	if _, err := b.entity.SetDiscriminatorValue(value, annotations.SourceExplicit); err != nil {
		b.parent.recordError(err)
	}
	return b
}

// HasAnnotation attaches an arbitrary annotation to the entity type.
func (b *EntityTypeBuilder) HasAnnotation(name string, value interface{}) *EntityTypeBuilder {
	if b.valid() {
		b.entity.Annotations().Set(name, value, annotations.SourceExplicit)
	}
	return b
}

// Property returns a builder for the named property. An unknown name is a
// configuration error.
func (b *EntityTypeBuilder) Property(name string) *PropertyBuilder {
	if !b.valid() {
		return &PropertyBuilder{parent: b.parent}
	}
	p := b.entity.Property(name)
	if p == nil {
		b.parent.recordError(fmt.Errorf("entity type %s has no property %q", b.entity.Name(), name))
		return &PropertyBuilder{parent: b.parent}
	}
	return &PropertyBuilder{parent: b.parent, property: p}
}

// OwnsOne configures the target of a single-document owned navigation.
// The navigation must exist and must not be a collection.
func (b *EntityTypeBuilder) OwnsOne(navigation string, configure func(*EntityTypeBuilder)) *EntityTypeBuilder {
	return b.owns(navigation, false, configure)
}

// OwnsMany configures the target of an embedded-array owned navigation.
func (b *EntityTypeBuilder) OwnsMany(navigation string, configure func(*EntityTypeBuilder)) *EntityTypeBuilder {
	return b.owns(navigation, true, configure)
}

func (b *EntityTypeBuilder) owns(navigation string, collection bool, configure func(*EntityTypeBuilder)) *EntityTypeBuilder {
	if !b.valid() {
		return b
	}
	nav := b.entity.Navigation(navigation)
	if nav == nil {
		b.parent.recordError(fmt.Errorf("entity type %s has no navigation %q", b.entity.Name(), navigation))
		return b
	}
	if !nav.IsOwned() {
		b.parent.recordError(fmt.Errorf("navigation %s.%s targets another collection and cannot be configured as owned", b.entity.Name(), navigation))
		return b
	}
	if nav.IsCollection() != collection {
		want, got := "OwnsMany", "OwnsOne"
		if collection {
			want, got = "OwnsOne", "OwnsMany"
		}
		b.parent.recordError(fmt.Errorf("navigation %s.%s must be configured with %s, not %s", b.entity.Name(), navigation, want, got))
		return b
	}
	if configure != nil {
		configure(&EntityTypeBuilder{parent: b.parent, entity: nav.TargetEntityType()})
	}
	return b
}

// HasIndex declares an ordinary index over the named properties and
// returns its builder.
func (b *EntityTypeBuilder) HasIndex(properties ...string) *IndexBuilder {
	if !b.valid() {
		return &IndexBuilder{parent: b.parent}
	}
	idx, err := b.entity.AddIndex(properties...)
	if err != nil {
		b.parent.recordError(err)
		return &IndexBuilder{parent: b.parent}
	}
	return &IndexBuilder{parent: b.parent, index: idx}
}

// HasVectorIndex declares a vector search index whose vector field is the
// named property. Additional properties become pre-filter fields of the
// index.
func (b *EntityTypeBuilder) HasVectorIndex(property string, dimensions int, similarity string, filterProperties ...string) *IndexBuilder {
	if !b.valid() {
		return &IndexBuilder{parent: b.parent}
	}
	idx, err := b.entity.AddIndex(append([]string{property}, filterProperties...)...)
	if err != nil {
		b.parent.recordError(err)
		return &IndexBuilder{parent: b.parent}
	}
	opts := &metadata.VectorIndexOptions{NumDimensions: dimensions, Similarity: similarity}
	if err := idx.SetVectorOptions(opts); err != nil {
		b.parent.recordError(err)
	}
	return &IndexBuilder{parent: b.parent, index: idx}
}

// HasSearchIndex returns a builder over the named Atlas Search index,
// creating the definition when it does not exist yet. Repeated calls with
// the same name configure the same definition.
func (b *EntityTypeBuilder) HasSearchIndex(name string) *SearchIndexBuilder {
	if !b.valid() {
		return newSearchIndexBuilder(b.parent, nil, nil)
	}
	return newSearchIndexBuilder(b.parent, b.entity, b.entity.GetOrAddSearchIndex(name))
}
