package scope

import "go.mongodb.org/mongo-driver/bson"

// QueryScope is a reusable pre-filter applied to vector search stages,
// typically carrying tenant or soft-delete predicates. Scopes combine by
// conjunction.
type QueryScope struct {
	// Filter is a BSON filter document over the index's declared filter
	// fields (e.g. bson.D{{Key: "tenantId", Value: "acme"}}).
	Filter bson.D
}

// Combine merges the scopes' filters with the given base filter into a
// single conjunction. Empty inputs are skipped; a single non-empty filter
// is returned as-is instead of being wrapped in $and.
func Combine(base bson.D, scopes ...QueryScope) bson.D {
	clauses := make([]bson.D, 0, len(scopes)+1)
	if len(base) > 0 {
		clauses = append(clauses, base)
	}
	for _, s := range scopes {
		if len(s.Filter) > 0 {
			clauses = append(clauses, s.Filter)
		}
	}
	switch len(clauses) {
	case 0:
		return nil
	case 1:
		return clauses[0]
	default:
		and := make(bson.A, 0, len(clauses))
		for _, c := range clauses {
			and = append(and, c)
		}
		return bson.D{{Key: "$and", Value: and}}
	}
}
