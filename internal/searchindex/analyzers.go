package searchindex

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// CustomAnalyzerDefinition describes a named custom analyzer: a required
// tokenizer plus optional character-filter and token-filter chains. The
// tokenizer requirement is validated when the analyzer serializes, not when
// it is created, so builders can configure filters and tokenizer in any
// order.
type CustomAnalyzerDefinition struct {
	named
	tokenizer    *TokenizerDefinition
	charFilters  []Definition
	tokenFilters []Definition
}

// SetTokenizer assigns the analyzer's tokenizer, replacing any previous one.
// The returned definition can be mutated to set tokenizer options.
func (d *CustomAnalyzerDefinition) SetTokenizer(typeName string) *TokenizerDefinition {
	t := &TokenizerDefinition{}
	t.setName(typeName)
	d.tokenizer = t
	return t
}

// Tokenizer returns the assigned tokenizer, or nil when none is set.
func (d *CustomAnalyzerDefinition) Tokenizer() *TokenizerDefinition {
	return d.tokenizer
}

// CharFilter returns the character filter of the given type registered on
// this analyzer, creating it on first use. Character filters run before
// tokenization in registration order.
func (d *CustomAnalyzerDefinition) CharFilter(typeName string) *FilterDefinition {
	return GetOrAdd(&d.charFilters, typeName, func() *FilterDefinition { return &FilterDefinition{} })
}

// TokenFilter returns the token filter of the given type registered on this
// analyzer, creating it on first use. Token filters run after tokenization
// in registration order.
func (d *CustomAnalyzerDefinition) TokenFilter(typeName string) *FilterDefinition {
	return GetOrAdd(&d.tokenFilters, typeName, func() *FilterDefinition { return &FilterDefinition{} })
}

// ToBson serializes the analyzer into the index-level "analyzers" entry
// shape: {name, charFilters?, tokenizer, tokenFilters?}. An analyzer
// without a tokenizer is structurally invalid and fails here.
func (d *CustomAnalyzerDefinition) ToBson() (bson.D, error) {
	if d.tokenizer == nil {
		return nil, fmt.Errorf("custom analyzer %q has no tokenizer assigned; every analyzer requires exactly one tokenizer", d.Name())
	}

	doc := bson.D{{Key: "name", Value: d.Name()}}
	if len(d.charFilters) > 0 {
		arr, err := listToBson(d.charFilters)
		if err != nil {
			return nil, err
		}
		doc = append(doc, bson.E{Key: "charFilters", Value: arr})
	}
	tokenizerDoc, err := d.tokenizer.ToBson()
	if err != nil {
		return nil, err
	}
	doc = append(doc, bson.E{Key: "tokenizer", Value: tokenizerDoc})
	if len(d.tokenFilters) > 0 {
		arr, err := listToBson(d.tokenFilters)
		if err != nil {
			return nil, err
		}
		doc = append(doc, bson.E{Key: "tokenFilters", Value: arr})
	}
	return doc, nil
}

// TokenizerDefinition describes how an analyzer splits text into tokens.
// The definition name is the tokenizer type ("standard", "nGram",
// "whitespace", ...); additional type-specific options are set through Set.
type TokenizerDefinition struct {
	named
	options bson.D
}

// Set records a type-specific tokenizer option ("minGram", "maxGram",
// "maxTokenLength", ...). Setting the same key twice overwrites the earlier
// value.
func (d *TokenizerDefinition) Set(key string, value interface{}) *TokenizerDefinition {
	for i, e := range d.options {
		if e.Key == key {
			d.options[i].Value = value
			return d
		}
	}
	d.options = append(d.options, bson.E{Key: key, Value: value})
	return d
}

// ToBson serializes the tokenizer to {type: ..., <options>}.
func (d *TokenizerDefinition) ToBson() (bson.D, error) {
	doc := bson.D{{Key: "type", Value: d.Name()}}
	return append(doc, d.options...), nil
}

// FilterDefinition is a character or token filter. Like tokenizers, the
// definition name is the filter type and options are free-form.
type FilterDefinition struct {
	named
	options bson.D
}

// Set records a type-specific filter option (stopword token lists,
// "minShingleSize"/"maxShingleSize", ...). Setting the same key twice
// overwrites the earlier value.
func (d *FilterDefinition) Set(key string, value interface{}) *FilterDefinition {
	for i, e := range d.options {
		if e.Key == key {
			d.options[i].Value = value
			return d
		}
	}
	d.options = append(d.options, bson.E{Key: key, Value: value})
	return d
}

// ToBson serializes the filter to {type: ..., <options>}.
func (d *FilterDefinition) ToBson() (bson.D, error) {
	doc := bson.D{{Key: "type", Value: d.Name()}}
	return append(doc, d.options...), nil
}

// TypeSetDefinition is a named set of field types referenced from dynamic
// mappings. Members are leaf field definitions registered through the same
// get-or-add protocol as index fields.
type TypeSetDefinition struct {
	named
	types []Definition
}

// StringMember returns the string member of the type set, creating it on
// first use.
func (d *TypeSetDefinition) StringMember() *StringDefinition {
	return GetOrAdd(&d.types, "string", func() *StringDefinition { return &StringDefinition{} })
}

// AutocompleteMember returns the autocomplete member of the type set,
// creating it on first use.
func (d *TypeSetDefinition) AutocompleteMember() *AutocompleteDefinition {
	return GetOrAdd(&d.types, "autocomplete", func() *AutocompleteDefinition { return &AutocompleteDefinition{} })
}

// Members returns the registered type-set members in registration order.
func (d *TypeSetDefinition) Members() []Definition {
	return d.types
}

// ToBson serializes the type set to {name, types: [...]}.
func (d *TypeSetDefinition) ToBson() (bson.D, error) {
	arr, err := listToBson(d.types)
	if err != nil {
		return nil, err
	}
	return bson.D{
		{Key: "name", Value: d.Name()},
		{Key: "types", Value: arr},
	}, nil
}
