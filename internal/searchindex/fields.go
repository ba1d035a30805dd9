package searchindex

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// FieldsDefinition is the shared core of every definition that owns nested
// field definitions: the top-level index, embedded-document fields and
// embedded-array fields. It carries the dynamic-mapping flags and the
// stored-source include/exclude lists.
type FieldsDefinition struct {
	named
	fields []Definition

	// Dynamic enables dynamic mapping for fields not listed explicitly.
	Dynamic bool

	// TypeSetName restricts dynamic mapping to a named type set. When set,
	// the dynamic flag serializes as {typeSet: name} instead of a bool.
	TypeSetName string

	storedSourceIncluded []string
	storedSourceExcluded []string
}

// StringField returns the string definition registered under name, creating
// it on first use.
func (d *FieldsDefinition) StringField(name string) *StringDefinition {
	return GetOrAdd(&d.fields, name, func() *StringDefinition { return &StringDefinition{} })
}

// AutocompleteField returns the autocomplete definition registered under
// name, creating it on first use.
func (d *FieldsDefinition) AutocompleteField(name string) *AutocompleteDefinition {
	return GetOrAdd(&d.fields, name, func() *AutocompleteDefinition { return &AutocompleteDefinition{} })
}

// NumberField returns the number definition registered under name, creating
// it on first use.
func (d *FieldsDefinition) NumberField(name string) *NumberDefinition {
	return GetOrAdd(&d.fields, name, func() *NumberDefinition { return &NumberDefinition{} })
}

// DateField returns the date definition registered under name, creating it
// on first use.
func (d *FieldsDefinition) DateField(name string) *DateDefinition {
	return GetOrAdd(&d.fields, name, func() *DateDefinition { return &DateDefinition{} })
}

// BooleanField returns the boolean definition registered under name,
// creating it on first use.
func (d *FieldsDefinition) BooleanField(name string) *BooleanDefinition {
	return GetOrAdd(&d.fields, name, func() *BooleanDefinition { return &BooleanDefinition{} })
}

// ObjectIDField returns the objectId definition registered under name,
// creating it on first use.
func (d *FieldsDefinition) ObjectIDField(name string) *ObjectIDDefinition {
	return GetOrAdd(&d.fields, name, func() *ObjectIDDefinition { return &ObjectIDDefinition{} })
}

// UUIDField returns the uuid definition registered under name, creating it
// on first use.
func (d *FieldsDefinition) UUIDField(name string) *UUIDDefinition {
	return GetOrAdd(&d.fields, name, func() *UUIDDefinition { return &UUIDDefinition{} })
}

// TokenField returns the token definition registered under name, creating
// it on first use.
func (d *FieldsDefinition) TokenField(name string) *TokenDefinition {
	return GetOrAdd(&d.fields, name, func() *TokenDefinition { return &TokenDefinition{} })
}

// GeoField returns the geo definition registered under name, creating it on
// first use.
func (d *FieldsDefinition) GeoField(name string) *GeoDefinition {
	return GetOrAdd(&d.fields, name, func() *GeoDefinition { return &GeoDefinition{} })
}

// EmbeddedField returns the embedded sub-definition registered under name,
// creating it on first use. array selects the "embeddedDocuments" shape
// used for collection-valued navigations; single-valued navigations use the
// "document" shape. The returned definition recursively owns its own
// fields.
func (d *FieldsDefinition) EmbeddedField(name string, array bool) *EmbeddedDefinition {
	return GetOrAdd(&d.fields, name, func() *EmbeddedDefinition { return &EmbeddedDefinition{isArray: array} })
}

// Fields returns the registered field definitions in registration order.
func (d *FieldsDefinition) Fields() []Definition {
	return d.fields
}

// IncludeStoredSourceField adds an element name to the stored-source include
// list of this definition.
func (d *FieldsDefinition) IncludeStoredSourceField(name string) {
	d.storedSourceIncluded = appendUnique(d.storedSourceIncluded, name)
}

// ExcludeStoredSourceField adds an element name to the stored-source exclude
// list of this definition.
func (d *FieldsDefinition) ExcludeStoredSourceField(name string) {
	d.storedSourceExcluded = appendUnique(d.storedSourceExcluded, name)
}

func appendUnique(list []string, name string) []string {
	for _, existing := range list {
		if existing == name {
			return list
		}
	}
	return append(list, name)
}

// dynamicValue returns the wire value for the dynamic-mapping flag: a bool,
// or {typeSet: name} when a type set restricts dynamic mapping.
func (d *FieldsDefinition) dynamicValue() interface{} {
	if d.TypeSetName != "" {
		return bson.D{{Key: "typeSet", Value: d.TypeSetName}}
	}
	return d.Dynamic
}

// resolveStoredSource recursively collects the stored-source include and
// exclude lists of this definition and of every nested embedded-document
// child, prefixing descendant field names with the chain of containing
// element names. Embedded-array children are skipped: an array sub-document
// defines its stored source independently at its own level.
func (d *FieldsDefinition) resolveStoredSource() (included, excluded []string, err error) {
	included = append(included, d.storedSourceIncluded...)
	excluded = append(excluded, d.storedSourceExcluded...)

	for _, field := range d.fields {
		embedded, ok := field.(*EmbeddedDefinition)
		if !ok || embedded.isArray {
			continue
		}
		childIncluded, childExcluded, err := embedded.resolveStoredSource()
		if err != nil {
			return nil, nil, err
		}
		for _, name := range childIncluded {
			included = append(included, embedded.Name()+"."+name)
		}
		for _, name := range childExcluded {
			excluded = append(excluded, embedded.Name()+"."+name)
		}
	}

	if len(included) > 0 && len(excluded) > 0 {
		return nil, nil, fmt.Errorf(
			"search index definition %q mixes stored-source included fields %v with excluded fields %v; configure one or the other",
			d.Name(), included, excluded)
	}
	return included, excluded, nil
}

// appendStoredSource serializes the resolved stored-source configuration
// onto doc. Nothing is written when no fields were configured.
func (d *FieldsDefinition) appendStoredSource(doc bson.D) (bson.D, error) {
	included, excluded, err := d.resolveStoredSource()
	if err != nil {
		return nil, err
	}
	switch {
	case len(included) > 0:
		return append(doc, bson.E{Key: "storedSource", Value: bson.D{{Key: "include", Value: toBsonA(included)}}}), nil
	case len(excluded) > 0:
		return append(doc, bson.E{Key: "storedSource", Value: bson.D{{Key: "exclude", Value: toBsonA(excluded)}}}), nil
	default:
		return doc, nil
	}
}

func toBsonA(values []string) bson.A {
	arr := make(bson.A, 0, len(values))
	for _, v := range values {
		arr = append(arr, v)
	}
	return arr
}

// EmbeddedDefinition is a sub-definition nested inside another
// definition-with-fields. Its wire type is "document" for single-valued
// owning navigations and "embeddedDocuments" for collection-valued ones.
type EmbeddedDefinition struct {
	FieldsDefinition
	isArray bool
}

// IsArray reports whether this sub-definition maps a collection-valued
// navigation ("embeddedDocuments") rather than a single nested document.
func (d *EmbeddedDefinition) IsArray() bool {
	return d.isArray
}

// ToBson serializes the embedded sub-definition.
func (d *EmbeddedDefinition) ToBson() (bson.D, error) {
	typeName := "document"
	if d.isArray {
		typeName = "embeddedDocuments"
	}
	doc := bson.D{
		{Key: "type", Value: typeName},
		{Key: "dynamic", Value: d.dynamicValue()},
	}
	if len(d.fields) > 0 {
		fieldsDoc, err := fieldsToBson(d.fields)
		if err != nil {
			return nil, err
		}
		doc = append(doc, bson.E{Key: "fields", Value: fieldsDoc})
	}
	if d.isArray {
		// An embedded-array definition is the root of its own stored-source
		// scope; its lists are serialized here and never merged upward.
		var err error
		doc, err = d.appendStoredSource(doc)
		if err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// TopLevelDefinition is the root of a search index definition tree. Besides
// its fields it carries the index-wide analyzers, the partition count and
// the named auxiliary definitions (custom analyzers and type sets).
type TopLevelDefinition struct {
	FieldsDefinition

	// Analyzer is the default analyzer applied at both index and query time
	// unless overridden per field.
	Analyzer string

	// SearchAnalyzer overrides the analyzer at query time.
	SearchAnalyzer string

	// NumPartitions splits the index across sub-indexes for large datasets.
	NumPartitions int

	// StoreAllSource stores the whole source document (true) or none of it
	// (false). Mutually exclusive with the include/exclude field lists.
	StoreAllSource *bool

	analyzers []Definition
	typeSets  []Definition
}

// NewTopLevelDefinition creates an empty top-level search index definition
// with the given index name.
func NewTopLevelDefinition(name string) *TopLevelDefinition {
	d := &TopLevelDefinition{}
	d.setName(name)
	return d
}

// CustomAnalyzer returns the custom analyzer registered under name,
// creating it on first use. The analyzer is serialized into the index-level
// "analyzers" array and can be referenced by name from any field.
func (d *TopLevelDefinition) CustomAnalyzer(name string) *CustomAnalyzerDefinition {
	return GetOrAdd(&d.analyzers, name, func() *CustomAnalyzerDefinition { return &CustomAnalyzerDefinition{} })
}

// TypeSet returns the type set registered under name, creating it on first
// use. Type sets restrict dynamic mapping to the listed field types.
func (d *TopLevelDefinition) TypeSet(name string) *TypeSetDefinition {
	return GetOrAdd(&d.typeSets, name, func() *TypeSetDefinition { return &TypeSetDefinition{} })
}

// ToBson serializes the complete index definition document:
//
//	{
//	    mappings: {dynamic: ..., fields: {...}},
//	    analyzer: ..., searchAnalyzer: ..., numPartitions: ...,
//	    storedSource: true|false|{include: [...]}|{exclude: [...]},
//	    analyzers: [...], typeSets: [...],
//	}
//
// Sections that were never configured are omitted entirely.
func (d *TopLevelDefinition) ToBson() (bson.D, error) {
	mappings := bson.D{{Key: "dynamic", Value: d.dynamicValue()}}
	if len(d.fields) > 0 {
		fieldsDoc, err := fieldsToBson(d.fields)
		if err != nil {
			return nil, err
		}
		mappings = append(mappings, bson.E{Key: "fields", Value: fieldsDoc})
	}

	doc := bson.D{{Key: "mappings", Value: mappings}}
	doc = appendString(doc, "analyzer", d.Analyzer)
	doc = appendString(doc, "searchAnalyzer", d.SearchAnalyzer)
	doc = appendInt(doc, "numPartitions", d.NumPartitions)

	if d.StoreAllSource != nil {
		included, excluded, err := d.resolveStoredSource()
		if err != nil {
			return nil, err
		}
		if len(included) > 0 || len(excluded) > 0 {
			return nil, fmt.Errorf(
				"search index definition %q stores the whole source document and cannot also list stored-source fields",
				d.Name())
		}
		doc = append(doc, bson.E{Key: "storedSource", Value: *d.StoreAllSource})
	} else {
		var err error
		doc, err = d.appendStoredSource(doc)
		if err != nil {
			return nil, err
		}
	}

	if len(d.analyzers) > 0 {
		arr, err := listToBson(d.analyzers)
		if err != nil {
			return nil, err
		}
		doc = append(doc, bson.E{Key: "analyzers", Value: arr})
	}
	if len(d.typeSets) > 0 {
		arr, err := listToBson(d.typeSets)
		if err != nil {
			return nil, err
		}
		doc = append(doc, bson.E{Key: "typeSets", Value: arr})
	}
	return doc, nil
}

// NestStep names one level of nesting between a collection's document root
// and the sub-document a definition was declared against.
type NestStep struct {
	// Name is the element name holding the nested document at this level.
	Name string

	// Array marks the element as an array of documents.
	Array bool
}

// Nested rebases the definition under the given nesting path, outermost step
// first. The definition's own fields become the fields of the innermost
// embedded document, so member names stay relative to the type they were
// declared on while the serialized index addresses the full element path.
// Index-wide settings stay at the top level. Without steps the definition is
// returned unchanged.
func (d *TopLevelDefinition) Nested(steps []NestStep) *TopLevelDefinition {
	if len(steps) == 0 {
		return d
	}

	inner := &EmbeddedDefinition{
		FieldsDefinition: d.FieldsDefinition,
		isArray:          steps[len(steps)-1].Array,
	}
	inner.setName(steps[len(steps)-1].Name)

	var child Definition = inner
	for i := len(steps) - 2; i >= 0; i-- {
		wrapper := &EmbeddedDefinition{isArray: steps[i].Array}
		wrapper.setName(steps[i].Name)
		wrapper.fields = []Definition{child}
		child = wrapper
	}

	rooted := &TopLevelDefinition{
		Analyzer:       d.Analyzer,
		SearchAnalyzer: d.SearchAnalyzer,
		NumPartitions:  d.NumPartitions,
		StoreAllSource: d.StoreAllSource,
		analyzers:      d.analyzers,
		typeSets:       d.typeSets,
	}
	rooted.setName(d.Name())
	rooted.fields = []Definition{child}
	return rooted
}
