package mongomap

import (
	"fmt"

	"github.com/nlstn/go-mongomap/internal/annotations"
	"github.com/nlstn/go-mongomap/internal/metadata"
)

func errNotVectorIndex(idx *metadata.Index) error {
	return fmt.Errorf("index %q on %s has no vector options; declare it with HasVectorIndex",
		idx.Name(), idx.DeclaringEntityType().Name())
}

// IndexBuilder fluently configures one declared index.
type IndexBuilder struct {
	parent *ModelBuilder
	index  *metadata.Index
}

// Index returns the underlying index, or nil when its declaration failed.
func (b *IndexBuilder) Index() *Index {
	return b.index
}

// HasName overrides the conventional index name.
func (b *IndexBuilder) HasName(name string) *IndexBuilder {
	if b.index == nil {
		return b
	}
	if _, err := b.index.SetName(name, annotations.SourceExplicit); err != nil {
		b.parent.recordError(err)
	}
	return b
}

// IsUnique marks the index as enforcing uniqueness. Vector indexes ignore
// the flag.
func (b *IndexBuilder) IsUnique() *IndexBuilder {
	if b.index != nil {
		b.index.SetUnique(true)
	}
	return b
}

// IsSparse marks the index as sparse, skipping documents that lack the
// indexed elements.
func (b *IndexBuilder) IsSparse() *IndexBuilder {
	if b.index != nil {
		b.index.SetSparse(true)
	}
	return b
}

// HasQuantization sets the stored vector quantization of a vector index.
// Calling it on an index without vector options is a configuration error.
func (b *IndexBuilder) HasQuantization(quantization string) *IndexBuilder {
	if b.index == nil {
		return b
	}
	opts := b.index.VectorOptions()
	if opts == nil {
		b.parent.recordError(errNotVectorIndex(b.index))
		return b
	}
	opts.Quantization = quantization
	if err := b.index.SetVectorOptions(opts); err != nil {
		b.parent.recordError(err)
	}
	return b
}

// HasAnnotation attaches an arbitrary annotation to the index.
func (b *IndexBuilder) HasAnnotation(name string, value interface{}) *IndexBuilder {
	if b.index != nil {
		b.index.Annotations().Set(name, value, annotations.SourceExplicit)
	}
	return b
}
