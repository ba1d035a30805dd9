package searchindex

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// Vector similarity functions accepted by vectorSearch indexes.
const (
	SimilarityCosine     = "cosine"
	SimilarityEuclidean  = "euclidean"
	SimilarityDotProduct = "dotProduct"
)

// VectorSearchDefinition is the definition document for a "vectorSearch"
// type index: a flat list of vector fields plus the filter fields that may
// be used to pre-filter candidates. Unlike search index definitions it has
// no nesting; nested members are addressed by their dotted document path.
type VectorSearchDefinition struct {
	named
	fields []Definition
}

// NewVectorSearchDefinition creates an empty vector index definition with
// the given index name.
func NewVectorSearchDefinition(name string) *VectorSearchDefinition {
	d := &VectorSearchDefinition{}
	d.setName(name)
	return d
}

// VectorField returns the vector field entry for the given document path,
// creating it on first use.
func (d *VectorSearchDefinition) VectorField(path string) *VectorFieldDefinition {
	return GetOrAdd(&d.fields, path, func() *VectorFieldDefinition { return &VectorFieldDefinition{} })
}

// FilterField registers the given document path as a pre-filter field.
func (d *VectorSearchDefinition) FilterField(path string) *VectorFilterFieldDefinition {
	return GetOrAdd(&d.fields, path, func() *VectorFilterFieldDefinition { return &VectorFilterFieldDefinition{} })
}

// Fields returns the registered field entries in registration order.
func (d *VectorSearchDefinition) Fields() []Definition {
	return d.fields
}

// ToBson serializes the vector index definition to {fields: [...]}.
func (d *VectorSearchDefinition) ToBson() (bson.D, error) {
	if len(d.fields) == 0 {
		return nil, fmt.Errorf("vector index %q has no fields configured", d.Name())
	}
	arr, err := listToBson(d.fields)
	if err != nil {
		return nil, err
	}
	return bson.D{{Key: "fields", Value: arr}}, nil
}

// VectorFieldDefinition is a single indexed vector path.
type VectorFieldDefinition struct {
	named

	// NumDimensions is the length of the indexed vectors. Required.
	NumDimensions int

	// Similarity selects the similarity function. Required; one of the
	// Similarity constants.
	Similarity string

	// Quantization optionally enables vector quantization ("scalar" or
	// "binary").
	Quantization string
}

// ToBson serializes the vector field entry.
func (d *VectorFieldDefinition) ToBson() (bson.D, error) {
	if d.NumDimensions <= 0 {
		return nil, fmt.Errorf("vector field %q requires a positive number of dimensions, got %d", d.Name(), d.NumDimensions)
	}
	switch d.Similarity {
	case SimilarityCosine, SimilarityEuclidean, SimilarityDotProduct:
	default:
		return nil, fmt.Errorf("vector field %q has unknown similarity %q; use %q, %q or %q",
			d.Name(), d.Similarity, SimilarityCosine, SimilarityEuclidean, SimilarityDotProduct)
	}

	doc := bson.D{
		{Key: "type", Value: "vector"},
		{Key: "path", Value: d.Name()},
		{Key: "numDimensions", Value: d.NumDimensions},
		{Key: "similarity", Value: d.Similarity},
	}
	doc = appendString(doc, "quantization", d.Quantization)
	return doc, nil
}

// VectorFilterFieldDefinition marks a document path as usable in
// vector-search pre-filters.
type VectorFilterFieldDefinition struct {
	named
}

// ToBson serializes the filter field entry.
func (d *VectorFilterFieldDefinition) ToBson() (bson.D, error) {
	return bson.D{
		{Key: "type", Value: "filter"},
		{Key: "path", Value: d.Name()},
	}, nil
}
