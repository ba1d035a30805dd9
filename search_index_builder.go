package mongomap

import (
	"fmt"

	"github.com/nlstn/go-mongomap/internal/metadata"
	"github.com/nlstn/go-mongomap/internal/searchindex"
)

// Aliases for the search index field definition types handed out by the
// builders below.
type (
	StringField       = searchindex.StringDefinition
	AutocompleteField = searchindex.AutocompleteDefinition
	NumberField       = searchindex.NumberDefinition
	DateField         = searchindex.DateDefinition
	BooleanField      = searchindex.BooleanDefinition
	ObjectIDField     = searchindex.ObjectIDDefinition
	UUIDField         = searchindex.UUIDDefinition
	TokenField        = searchindex.TokenDefinition
	GeoField          = searchindex.GeoDefinition
	CustomAnalyzer    = searchindex.CustomAnalyzerDefinition
	TypeSet           = searchindex.TypeSetDefinition
)

// SearchFieldsBuilder configures the fields of one nesting level of a
// search index definition. Members are addressed by Go field name and
// resolved to their mapped BSON element names; unknown members are
// recorded as configuration errors on the owning ModelBuilder.
type SearchFieldsBuilder struct {
	parent *ModelBuilder
	entity *metadata.EntityType
	fields *searchindex.FieldsDefinition
}

func (b *SearchFieldsBuilder) memberElementName(member string) (string, bool) {
	if b.entity == nil || b.fields == nil {
		return "", false
	}
	if p := b.entity.Property(member); p != nil {
		return p.ElementName(), true
	}
	b.parent.recordError(fmt.Errorf("entity type %s has no property %q to index", b.entity.Name(), member))
	return "", false
}

// StringMember indexes the named member as a string field.
func (b *SearchFieldsBuilder) StringMember(member string) *StringField {
	name, ok := b.memberElementName(member)
	if !ok {
		return &StringField{}
	}
	return b.fields.StringField(name)
}

// AutocompleteMember indexes the named member for autocomplete queries.
func (b *SearchFieldsBuilder) AutocompleteMember(member string) *AutocompleteField {
	name, ok := b.memberElementName(member)
	if !ok {
		return &AutocompleteField{}
	}
	return b.fields.AutocompleteField(name)
}

// NumberMember indexes the named member as a number field.
func (b *SearchFieldsBuilder) NumberMember(member string) *NumberField {
	name, ok := b.memberElementName(member)
	if !ok {
		return &NumberField{}
	}
	return b.fields.NumberField(name)
}

// DateMember indexes the named member as a date field.
func (b *SearchFieldsBuilder) DateMember(member string) *DateField {
	name, ok := b.memberElementName(member)
	if !ok {
		return &DateField{}
	}
	return b.fields.DateField(name)
}

// BooleanMember indexes the named member as a boolean field.
func (b *SearchFieldsBuilder) BooleanMember(member string) *BooleanField {
	name, ok := b.memberElementName(member)
	if !ok {
		return &BooleanField{}
	}
	return b.fields.BooleanField(name)
}

// ObjectIDMember indexes the named member as an objectId field.
func (b *SearchFieldsBuilder) ObjectIDMember(member string) *ObjectIDField {
	name, ok := b.memberElementName(member)
	if !ok {
		return &ObjectIDField{}
	}
	return b.fields.ObjectIDField(name)
}

// UUIDMember indexes the named member as a uuid field.
func (b *SearchFieldsBuilder) UUIDMember(member string) *UUIDField {
	name, ok := b.memberElementName(member)
	if !ok {
		return &UUIDField{}
	}
	return b.fields.UUIDField(name)
}

// TokenMember indexes the named member as a token field.
func (b *SearchFieldsBuilder) TokenMember(member string) *TokenField {
	name, ok := b.memberElementName(member)
	if !ok {
		return &TokenField{}
	}
	return b.fields.TokenField(name)
}

// GeoMember indexes the named member as a geo field.
func (b *SearchFieldsBuilder) GeoMember(member string) *GeoField {
	name, ok := b.memberElementName(member)
	if !ok {
		return &GeoField{}
	}
	return b.fields.GeoField(name)
}

// EmbeddedMember indexes the named owned navigation as an embedded
// document or embedded-documents field, matching the navigation's
// cardinality, and calls configure with a builder scoped to the target
// entity type.
func (b *SearchFieldsBuilder) EmbeddedMember(member string, configure func(*SearchFieldsBuilder)) *SearchFieldsBuilder {
	if b.entity == nil || b.fields == nil {
		return b
	}
	nav := b.entity.Navigation(member)
	if nav == nil {
		b.parent.recordError(fmt.Errorf("entity type %s has no navigation %q to index", b.entity.Name(), member))
		return b
	}
	if !nav.IsOwned() {
		b.parent.recordError(fmt.Errorf("navigation %s.%s targets another collection and cannot be indexed as embedded", b.entity.Name(), member))
		return b
	}
	embedded := b.fields.EmbeddedField(nav.ElementName(), nav.IsCollection())
	if configure != nil {
		configure(&SearchFieldsBuilder{
			parent: b.parent,
			entity: nav.TargetEntityType(),
			fields: &embedded.FieldsDefinition,
		})
	}
	return b
}

// Dynamic enables or disables dynamic mapping at this nesting level.
func (b *SearchFieldsBuilder) Dynamic(enabled bool) *SearchFieldsBuilder {
	if b.fields != nil {
		b.fields.Dynamic = enabled
		b.fields.TypeSetName = ""
	}
	return b
}

// DynamicWithTypeSet restricts dynamic mapping at this nesting level to
// the named type set.
func (b *SearchFieldsBuilder) DynamicWithTypeSet(typeSet string) *SearchFieldsBuilder {
	if b.fields != nil {
		b.fields.TypeSetName = typeSet
	}
	return b
}

// IncludeStoredSource adds the named member to the stored-source include
// list at this nesting level.
func (b *SearchFieldsBuilder) IncludeStoredSource(member string) *SearchFieldsBuilder {
	if name, ok := b.memberElementName(member); ok {
		b.fields.IncludeStoredSourceField(name)
	}
	return b
}

// ExcludeStoredSource adds the named member to the stored-source exclude
// list at this nesting level.
func (b *SearchFieldsBuilder) ExcludeStoredSource(member string) *SearchFieldsBuilder {
	if name, ok := b.memberElementName(member); ok {
		b.fields.ExcludeStoredSourceField(name)
	}
	return b
}

// SearchIndexBuilder configures one Atlas Search index definition on an
// entity type. It extends SearchFieldsBuilder with the index-wide
// settings of the top-level definition.
type SearchIndexBuilder struct {
	SearchFieldsBuilder
	def *searchindex.TopLevelDefinition
}

func newSearchIndexBuilder(parent *ModelBuilder, entity *metadata.EntityType, def *searchindex.TopLevelDefinition) *SearchIndexBuilder {
	b := &SearchIndexBuilder{def: def}
	b.parent = parent
	b.entity = entity
	if def != nil {
		b.fields = &def.FieldsDefinition
	}
	return b
}

// Definition returns the underlying definition tree, or nil when the
// builder was created for a failed registration.
func (b *SearchIndexBuilder) Definition() *SearchIndexDefinition {
	return b.def
}

// HasAnalyzer sets the default analyzer for the whole index.
func (b *SearchIndexBuilder) HasAnalyzer(name string) *SearchIndexBuilder {
	if b.def != nil {
		b.def.Analyzer = name
	}
	return b
}

// HasSearchAnalyzer overrides the analyzer used at query time.
func (b *SearchIndexBuilder) HasSearchAnalyzer(name string) *SearchIndexBuilder {
	if b.def != nil {
		b.def.SearchAnalyzer = name
	}
	return b
}

// HasNumPartitions splits the index across the given number of
// sub-indexes.
func (b *SearchIndexBuilder) HasNumPartitions(n int) *SearchIndexBuilder {
	if b.def != nil {
		b.def.NumPartitions = n
	}
	return b
}

// StoresSource stores the whole source document (true) or none of it
// (false). It cannot be combined with IncludeStoredSource or
// ExcludeStoredSource; serializing a definition that configures both
// fails.
func (b *SearchIndexBuilder) StoresSource(store bool) *SearchIndexBuilder {
	if b.def != nil {
		b.def.StoreAllSource = &store
	}
	return b
}

// HasCustomAnalyzer returns the custom analyzer registered under name,
// creating it on first use.
func (b *SearchIndexBuilder) HasCustomAnalyzer(name string) *CustomAnalyzer {
	if b.def == nil {
		return &CustomAnalyzer{}
	}
	return b.def.CustomAnalyzer(name)
}

// HasTypeSet returns the type set registered under name, creating it on
// first use.
func (b *SearchIndexBuilder) HasTypeSet(name string) *TypeSet {
	if b.def == nil {
		return &TypeSet{}
	}
	return b.def.TypeSet(name)
}
