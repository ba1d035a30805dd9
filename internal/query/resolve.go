// Package query resolves member paths against the mapped entity graph and
// builds the aggregation stages the public search operators append. It
// only reads frozen model metadata; nothing here touches the database.
package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nlstn/go-mongomap/internal/metadata"
)

// Sentinel errors for the resolution contract. Callers branch on these
// with errors.Is; the wrapped messages carry the entity and member names.
var (
	// ErrUnmappedMember reports a path segment that does not resolve to
	// mapped metadata.
	ErrUnmappedMember = errors.New("member is not mapped")

	// ErrNoVectorIndex reports that the target property has no vector
	// index at all.
	ErrNoVectorIndex = errors.New("no vector index defined")

	// ErrAmbiguousVectorIndex reports multiple candidate vector indexes
	// when the caller did not name one.
	ErrAmbiguousVectorIndex = errors.New("ambiguous vector index")

	// ErrVectorIndexNotDefined reports a caller-supplied index name that
	// is not among the candidates for the target property.
	ErrVectorIndexNotDefined = errors.New("vector index not defined")
)

// ResolvedMember is the result of resolving a member path: the final
// property, the entity type declaring it, and the dotted element path a
// query stage addresses it by.
type ResolvedMember struct {
	Property    *metadata.Property
	Declaring   *metadata.EntityType
	ElementPath string
}

// ResolvePath walks a member path such as "Address.City.Name" from the
// given entity type to its final property. Segments are separated by "."
// or "/" and name Go struct fields; intermediate segments must be owned
// navigations. The returned element path is rooted at the document root,
// ready for use in index definitions and aggregation stages.
func ResolvePath(entity *metadata.EntityType, path string) (*ResolvedMember, error) {
	segments := splitPath(path)
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: empty member path on entity type %s", ErrUnmappedMember, entity.Name())
	}

	current := entity
	for i, segment := range segments {
		last := i == len(segments)-1
		if last {
			if p := current.Property(segment); p != nil {
				return &ResolvedMember{
					Property:    p,
					Declaring:   current,
					ElementPath: current.ElementPath(p),
				}, nil
			}
			if current.Navigation(segment) != nil {
				return nil, fmt.Errorf("%w: %s on entity type %s is a navigation; member paths must end at a property",
					ErrUnmappedMember, segment, current.Name())
			}
			return nil, fmt.Errorf("%w: entity type %s has no member %s", ErrUnmappedMember, current.Name(), segment)
		}

		nav := current.Navigation(segment)
		if nav == nil {
			if current.Property(segment) != nil {
				return nil, fmt.Errorf("%w: %s on entity type %s is a property and cannot be traversed further",
					ErrUnmappedMember, segment, current.Name())
			}
			return nil, fmt.Errorf("%w: entity type %s has no member %s", ErrUnmappedMember, current.Name(), segment)
		}
		if !nav.IsOwned() {
			return nil, fmt.Errorf("%w: %s on entity type %s is a reference navigation; paths cannot cross into another collection's documents",
				ErrUnmappedMember, segment, current.Name())
		}
		current = nav.TargetEntityType()
	}
	// Unreachable: the loop returns on the last segment.
	return nil, fmt.Errorf("%w: %s", ErrUnmappedMember, path)
}

func splitPath(path string) []string {
	raw := strings.FieldsFunc(path, func(r rune) bool { return r == '.' || r == '/' })
	segments := raw[:0]
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

// ResolveVectorIndex selects the vector index a similarity query against
// the resolved member should use. Candidates are the indexes on the
// declaring entity type that carry vector options and list the member as
// their first indexed property.
//
// Without an index name exactly one candidate must exist; with a name the
// name must appear among the candidates. Both mismatch directions fail
// with distinct sentinel errors so callers can tell "create an index"
// apart from "name the right one".
func ResolveVectorIndex(member *ResolvedMember, indexName string) (*metadata.Index, error) {
	var candidates []*metadata.Index
	for _, idx := range member.Declaring.Indexes() {
		if idx.VectorOptions() == nil {
			continue
		}
		props := idx.Properties()
		if len(props) > 0 && props[0] == member.Property {
			candidates = append(candidates, idx)
		}
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w for property %s on entity type %s; declare one with HasVectorIndex before querying",
			ErrNoVectorIndex, member.Property.Name(), member.Declaring.Name())
	}

	if indexName == "" {
		if len(candidates) > 1 {
			names := make([]string, 0, len(candidates))
			for _, idx := range candidates {
				names = append(names, idx.Name())
			}
			return nil, fmt.Errorf("%w: property %s on entity type %s has %d vector indexes (%s); specify an index name explicitly",
				ErrAmbiguousVectorIndex, member.Property.Name(), member.Declaring.Name(), len(candidates), strings.Join(names, ", "))
		}
		return candidates[0], nil
	}

	for _, idx := range candidates {
		if idx.Name() == indexName {
			return idx, nil
		}
	}
	return nil, fmt.Errorf("%w: index %q is not declared for property %s on entity type %s",
		ErrVectorIndexNotDefined, indexName, member.Property.Name(), member.Declaring.Name())
}
