// Package searchindex models MongoDB Atlas Search index definitions as a
// recursive composite of named definition nodes. A top-level index definition
// owns field definitions; embedded-document and embedded-array field
// definitions recursively own their own fields, mirroring the entity
// ownership graph to arbitrary depth. Every node serializes itself to the
// nested BSON document shape the search engine expects.
//
// Definitions are assembled during the single-threaded model-building phase
// through idempotent get-or-add lookups: configuring the same named
// definition twice mutates one instance instead of creating duplicates.
// Serialization is read-only and safe for concurrent use once the model is
// frozen.
package searchindex

import "go.mongodb.org/mongo-driver/bson"

// Definition is a single node of a search index definition: a field, a
// filter, a tokenizer, an analyzer or a nested sub-definition. Every node
// has a required name (the field, filter or analyzer key) and serializes to
// the BSON fragment describing it.
//
// Serialization can fail for structurally incomplete configuration (an
// analyzer without a tokenizer, mixed stored-source lists); such errors are
// raised at the point of use rather than at construction so that partially
// built models remain configurable.
type Definition interface {
	// Name returns the key this definition is registered under.
	Name() string

	// ToBson serializes the definition to its BSON document form. Values
	// that were never set are omitted entirely, not written as null.
	ToBson() (bson.D, error)
}

// settable is implemented by all concrete definitions so the shared
// get-or-add routine can assign names to freshly created instances.
type settable interface {
	Definition
	setName(string)
}

// named provides the Name/setName plumbing embedded by every concrete
// definition type.
type named struct {
	name string
}

func (n *named) Name() string { return n.name }

func (n *named) setName(name string) { n.name = name }

// GetOrAdd scans defs for an existing definition whose name matches name AND
// whose concrete type is T. If found it is returned for in-place mutation;
// otherwise create is called, the new definition is named, appended and
// returned. This single routine backs every named collection in the package
// (fields, filters, analyzers, type sets, auxiliary definitions), which is
// what makes repeated configuration calls cumulative instead of clobbering.
//
// Two definitions may share a name as long as their concrete types differ;
// they are collapsed into an array when the owning collection serializes.
func GetOrAdd[T settable](defs *[]Definition, name string, create func() T) T {
	for _, d := range *defs {
		if d.Name() != name {
			continue
		}
		if t, ok := d.(T); ok {
			return t
		}
	}
	t := create()
	t.setName(name)
	*defs = append(*defs, t)
	return t
}

// fieldsToBson serializes a collection of named definitions into a document
// keyed by definition name. When several definitions share one name (for
// example a field indexed both as "string" and "autocomplete"), their
// documents are combined into an array under that single key; a unique name
// serializes as a plain document. First-seen order of names is preserved.
func fieldsToBson(defs []Definition) (bson.D, error) {
	var order []string
	grouped := make(map[string][]bson.D)
	for _, d := range defs {
		doc, err := d.ToBson()
		if err != nil {
			return nil, err
		}
		if _, seen := grouped[d.Name()]; !seen {
			order = append(order, d.Name())
		}
		grouped[d.Name()] = append(grouped[d.Name()], doc)
	}

	out := bson.D{}
	for _, name := range order {
		docs := grouped[name]
		if len(docs) == 1 {
			out = append(out, bson.E{Key: name, Value: docs[0]})
			continue
		}
		arr := make(bson.A, 0, len(docs))
		for _, doc := range docs {
			arr = append(arr, doc)
		}
		out = append(out, bson.E{Key: name, Value: arr})
	}
	return out, nil
}

// listToBson serializes a collection of definitions into a BSON array,
// preserving registration order. Used for analyzers and type sets, whose
// wire format is an array of named documents rather than a keyed map.
func listToBson(defs []Definition) (bson.A, error) {
	arr := make(bson.A, 0, len(defs))
	for _, d := range defs {
		doc, err := d.ToBson()
		if err != nil {
			return nil, err
		}
		arr = append(arr, doc)
	}
	return arr, nil
}
