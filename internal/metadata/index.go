package metadata

import (
	"fmt"
	"strings"

	"github.com/nlstn/go-mongomap/internal/annotations"
	"github.com/nlstn/go-mongomap/internal/searchindex"
)

// VectorIndexOptions marks an index as an Atlas vector-search index and
// carries the vector field configuration for its first property.
type VectorIndexOptions struct {
	// NumDimensions is the length of the indexed vectors. Required.
	NumDimensions int

	// Similarity is one of the searchindex.Similarity constants. Required.
	Similarity string

	// Quantization optionally enables vector quantization ("scalar" or
	// "binary").
	Quantization string
}

// Validate checks the vector options against their documented ranges.
func (o *VectorIndexOptions) Validate() error {
	if o.NumDimensions <= 0 {
		return fmt.Errorf("vector index options require a positive number of dimensions, got %d", o.NumDimensions)
	}
	switch o.Similarity {
	case searchindex.SimilarityCosine, searchindex.SimilarityEuclidean, searchindex.SimilarityDotProduct:
	default:
		return fmt.Errorf("unknown vector similarity %q; use %q, %q or %q", o.Similarity,
			searchindex.SimilarityCosine, searchindex.SimilarityEuclidean, searchindex.SimilarityDotProduct)
	}
	return nil
}

// Index is an index declared on an entity type, covering one or more of
// its properties in order. An index with vector options describes an Atlas
// vector-search index on its first property; without them it describes an
// ordinary collection index.
type Index struct {
	declaring   *EntityType
	properties  []*Property
	annotations *annotations.Store

	// unique and sparse only apply to ordinary indexes.
	unique bool
	sparse bool

	vector *VectorIndexOptions
}

// IsUnique reports whether the index enforces unique key values.
func (i *Index) IsUnique() bool {
	return i.unique
}

// SetUnique marks the index as unique.
func (i *Index) SetUnique(unique bool) {
	i.declaring.model.checkMutable()
	i.unique = unique
}

// IsSparse reports whether the index skips documents missing the indexed
// elements.
func (i *Index) IsSparse() bool {
	return i.sparse
}

// SetSparse marks the index as sparse.
func (i *Index) SetSparse(sparse bool) {
	i.declaring.model.checkMutable()
	i.sparse = sparse
}

// Name returns the index name: the configured annotation if set, else a
// conventional name joining the element names of the indexed properties.
func (i *Index) Name() string {
	return i.annotations.StringOr(annotations.IndexName, i.defaultName())
}

// SetName records the index name from the given configuration source. It
// returns false without mutating when a higher-precedence source already
// configured the name, and an error when the name is empty.
func (i *Index) SetName(name string, source annotations.Source) (bool, error) {
	i.declaring.model.checkMutable()
	if name == "" {
		return false, fmt.Errorf("index name on entity type %s must not be empty", i.declaring.Name())
	}
	return i.annotations.Set(annotations.IndexName, name, source), nil
}

func (i *Index) defaultName() string {
	parts := make([]string, 0, len(i.properties))
	for _, p := range i.properties {
		parts = append(parts, p.ElementName())
	}
	return strings.Join(parts, "_") + "_idx"
}

// DeclaringEntityType returns the entity type the index is declared on.
func (i *Index) DeclaringEntityType() *EntityType {
	return i.declaring
}

// Properties returns the indexed properties in declaration order.
func (i *Index) Properties() []*Property {
	return i.properties
}

// Annotations exposes the index's annotation store.
func (i *Index) Annotations() *annotations.Store {
	return i.annotations
}

// VectorOptions returns the vector-search options, or nil for an ordinary
// index.
func (i *Index) VectorOptions() *VectorIndexOptions {
	return i.vector
}

// SetVectorOptions validates and records vector-search options, turning
// the index into a vector index definition.
func (i *Index) SetVectorOptions(opts *VectorIndexOptions) error {
	i.declaring.model.checkMutable()
	if opts != nil {
		if err := opts.Validate(); err != nil {
			return fmt.Errorf("invalid vector options for index %q on entity type %s: %w", i.Name(), i.declaring.Name(), err)
		}
	}
	i.vector = opts
	return nil
}

// VectorDefinition builds the full vector index definition document for a
// vector index, resolving the indexed properties to their document paths.
// Properties after the first become pre-filter fields.
func (i *Index) VectorDefinition() (*searchindex.VectorSearchDefinition, error) {
	if i.vector == nil {
		return nil, fmt.Errorf("index %q on entity type %s has no vector options", i.Name(), i.declaring.Name())
	}
	def := searchindex.NewVectorSearchDefinition(i.Name())
	for n, p := range i.properties {
		path, err := p.declaring.elementPath(p)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			field := def.VectorField(path)
			field.NumDimensions = i.vector.NumDimensions
			field.Similarity = i.vector.Similarity
			field.Quantization = i.vector.Quantization
			continue
		}
		def.FilterField(path)
	}
	return def, nil
}
