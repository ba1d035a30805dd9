package query

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// StageOptions tune the generated $vectorSearch aggregation stage.
type StageOptions struct {
	// Limit caps the number of returned documents. Required.
	Limit int

	// NumCandidates is the approximate-search candidate pool size. When
	// zero and Exact is false it defaults to ten times the limit.
	NumCandidates int

	// Exact switches to exact nearest-neighbour search, which ignores
	// NumCandidates.
	Exact bool

	// Filter optionally pre-filters candidate documents. The paths used
	// in the filter must be declared as filter fields on the index.
	Filter bson.D
}

// BuildVectorSearchStage assembles the $vectorSearch pipeline stage for an
// already-resolved index name and element path.
func BuildVectorSearchStage(indexName, elementPath string, queryVector []float64, opts StageOptions) (bson.D, error) {
	if indexName == "" {
		return nil, fmt.Errorf("a vector search stage requires an index name")
	}
	if elementPath == "" {
		return nil, fmt.Errorf("a vector search stage requires an element path")
	}
	if len(queryVector) == 0 {
		return nil, fmt.Errorf("a vector search stage requires a non-empty query vector")
	}
	if opts.Limit <= 0 {
		return nil, fmt.Errorf("vector search limit must be positive, got %d", opts.Limit)
	}

	vector := make(bson.A, 0, len(queryVector))
	for _, v := range queryVector {
		vector = append(vector, v)
	}

	spec := bson.D{
		{Key: "index", Value: indexName},
		{Key: "path", Value: elementPath},
		{Key: "queryVector", Value: vector},
		{Key: "limit", Value: opts.Limit},
	}
	if opts.Exact {
		spec = append(spec, bson.E{Key: "exact", Value: true})
	} else {
		numCandidates := opts.NumCandidates
		if numCandidates == 0 {
			numCandidates = opts.Limit * 10
		}
		if numCandidates < opts.Limit {
			return nil, fmt.Errorf("numCandidates (%d) must not be smaller than limit (%d)", numCandidates, opts.Limit)
		}
		spec = append(spec, bson.E{Key: "numCandidates", Value: numCandidates})
	}
	if len(opts.Filter) > 0 {
		spec = append(spec, bson.E{Key: "filter", Value: opts.Filter})
	}

	return bson.D{{Key: "$vectorSearch", Value: spec}}, nil
}
