package mongomap

import (
	"fmt"

	"github.com/nlstn/go-mongomap/internal/query"
	"github.com/nlstn/go-mongomap/internal/scope"
	"go.mongodb.org/mongo-driver/bson"
)

// VectorSearchOptions configures a $vectorSearch aggregation stage.
type VectorSearchOptions struct {
	// IndexName selects a declared vector index by name. When empty, the
	// single vector index declared on the target member is used; zero or
	// several such indexes make the stage fail with ErrNoVectorIndex or
	// ErrAmbiguousVectorIndex.
	IndexName string

	// Limit caps the number of returned documents. Required.
	Limit int

	// NumCandidates is the approximate-search candidate pool size. When
	// zero and Exact is false it defaults to ten times the limit.
	NumCandidates int

	// Exact switches to exact nearest-neighbour search.
	Exact bool

	// Filter restricts the search to documents matching the expression.
	Filter bson.D

	// Scopes are combined with Filter into a single conjunction.
	Scopes []QueryScope
}

// VectorSearchStage builds a $vectorSearch aggregation stage for the
// entity type registered under entityName. path walks Go member names
// ("Profile.Embedding") from that type to the vector-valued property;
// the returned stage addresses the property by its full BSON element
// path inside the collection's documents.
func (m *Model) VectorSearchStage(entityName, path string, queryVector []float64, opts VectorSearchOptions) (bson.D, error) {
	entity := m.meta.EntityType(entityName)
	if entity == nil {
		return nil, fmt.Errorf("no entity type named %q is registered", entityName)
	}

	member, err := query.ResolvePath(entity, path)
	if err != nil {
		return nil, err
	}
	idx, err := query.ResolveVectorIndex(member, opts.IndexName)
	if err != nil {
		return nil, err
	}

	return query.BuildVectorSearchStage(idx.Name(), member.ElementPath, queryVector, query.StageOptions{
		Limit:         opts.Limit,
		NumCandidates: opts.NumCandidates,
		Exact:         opts.Exact,
		Filter:        scope.Combine(opts.Filter, opts.Scopes...),
	})
}

// VectorSearchStageFor is like VectorSearchStage but resolves the entity
// type from a struct value or pointer.
func (m *Model) VectorSearchStageFor(entity interface{}, path string, queryVector []float64, opts VectorSearchOptions) (bson.D, error) {
	goType, err := entityReflectType(entity)
	if err != nil {
		return nil, err
	}
	t := m.meta.FindEntityType(goType)
	if t == nil {
		return nil, fmt.Errorf("no entity type is registered for %s; shared registrations must be addressed by name", goType)
	}
	return m.VectorSearchStage(t.Name(), path, queryVector, opts)
}
