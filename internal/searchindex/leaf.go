package searchindex

import "go.mongodb.org/mongo-driver/bson"

// Leaf field definitions. Each serializes to a flat document carrying its
// "type" key plus whatever options were configured; unset options are
// omitted so the engine applies its own defaults.

// StringDefinition indexes a field as full-text searchable string content.
type StringDefinition struct {
	named
	Analyzer       string
	SearchAnalyzer string
	IndexOptions   string
	Store          *bool
	IgnoreAbove    int
	Norms          string
}

// ToBson serializes the string field definition.
func (d *StringDefinition) ToBson() (bson.D, error) {
	doc := bson.D{{Key: "type", Value: "string"}}
	doc = appendString(doc, "analyzer", d.Analyzer)
	doc = appendString(doc, "searchAnalyzer", d.SearchAnalyzer)
	doc = appendString(doc, "indexOptions", d.IndexOptions)
	doc = appendBool(doc, "store", d.Store)
	doc = appendInt(doc, "ignoreAbove", d.IgnoreAbove)
	doc = appendString(doc, "norms", d.Norms)
	return doc, nil
}

// AutocompleteDefinition indexes a field for type-ahead matching.
type AutocompleteDefinition struct {
	named
	Analyzer       string
	MinGrams       int
	MaxGrams       int
	Tokenization   string
	FoldDiacritics *bool
}

// ToBson serializes the autocomplete field definition.
func (d *AutocompleteDefinition) ToBson() (bson.D, error) {
	doc := bson.D{{Key: "type", Value: "autocomplete"}}
	doc = appendString(doc, "analyzer", d.Analyzer)
	doc = appendInt(doc, "minGrams", d.MinGrams)
	doc = appendInt(doc, "maxGrams", d.MaxGrams)
	doc = appendString(doc, "tokenization", d.Tokenization)
	doc = appendBool(doc, "foldDiacritics", d.FoldDiacritics)
	return doc, nil
}

// NumberDefinition indexes a numeric field.
type NumberDefinition struct {
	named
	Representation string
	IndexIntegers  *bool
	IndexDoubles   *bool
}

// ToBson serializes the number field definition.
func (d *NumberDefinition) ToBson() (bson.D, error) {
	doc := bson.D{{Key: "type", Value: "number"}}
	doc = appendString(doc, "representation", d.Representation)
	doc = appendBool(doc, "indexIntegers", d.IndexIntegers)
	doc = appendBool(doc, "indexDoubles", d.IndexDoubles)
	return doc, nil
}

// DateDefinition indexes a date field.
type DateDefinition struct {
	named
}

// ToBson serializes the date field definition.
func (d *DateDefinition) ToBson() (bson.D, error) {
	return bson.D{{Key: "type", Value: "date"}}, nil
}

// BooleanDefinition indexes a boolean field.
type BooleanDefinition struct {
	named
}

// ToBson serializes the boolean field definition.
func (d *BooleanDefinition) ToBson() (bson.D, error) {
	return bson.D{{Key: "type", Value: "boolean"}}, nil
}

// ObjectIDDefinition indexes an ObjectId field.
type ObjectIDDefinition struct {
	named
}

// ToBson serializes the objectId field definition.
func (d *ObjectIDDefinition) ToBson() (bson.D, error) {
	return bson.D{{Key: "type", Value: "objectId"}}, nil
}

// UUIDDefinition indexes a UUID field.
type UUIDDefinition struct {
	named
}

// ToBson serializes the uuid field definition.
func (d *UUIDDefinition) ToBson() (bson.D, error) {
	return bson.D{{Key: "type", Value: "uuid"}}, nil
}

// TokenDefinition indexes a field for exact-match and faceting operators.
type TokenDefinition struct {
	named
	Normalizer string
}

// ToBson serializes the token field definition.
func (d *TokenDefinition) ToBson() (bson.D, error) {
	doc := bson.D{{Key: "type", Value: "token"}}
	doc = appendString(doc, "normalizer", d.Normalizer)
	return doc, nil
}

// GeoDefinition indexes GeoJSON geometry.
type GeoDefinition struct {
	named
	IndexShapes *bool
}

// ToBson serializes the geo field definition.
func (d *GeoDefinition) ToBson() (bson.D, error) {
	doc := bson.D{{Key: "type", Value: "geo"}}
	doc = appendBool(doc, "indexShapes", d.IndexShapes)
	return doc, nil
}

func appendString(doc bson.D, key, value string) bson.D {
	if value == "" {
		return doc
	}
	return append(doc, bson.E{Key: key, Value: value})
}

func appendInt(doc bson.D, key string, value int) bson.D {
	if value == 0 {
		return doc
	}
	return append(doc, bson.E{Key: key, Value: value})
}

func appendBool(doc bson.D, key string, value *bool) bson.D {
	if value == nil {
		return doc
	}
	return append(doc, bson.E{Key: key, Value: *value})
}
