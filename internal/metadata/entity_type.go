package metadata

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/nlstn/go-mongomap/internal/annotations"
	"github.com/nlstn/go-mongomap/internal/searchindex"
)

// EntityType is a node in the mapped entity graph. It either maps to its
// own collection (a document root) or is embedded in the document of the
// entity type that owns it.
type EntityType struct {
	model  *Model
	name   string // registration name; equals the Go type name unless shared
	goType reflect.Type
	shared bool

	base *EntityType

	properties      []*Property
	propertyIndex   map[string]*Property
	navigations     []*Navigation
	navigationIndex map[string]*Navigation
	indexes         []*Index
	searchIndexes   []searchindex.Definition

	annotations *annotations.Store

	// owner and ownedVia record the single ownership link for an owned
	// type: the principal entity and its principal-to-dependent navigation.
	owner    *EntityType
	ownedVia *Navigation
}

// Name returns the registration name of the entity type. For ordinary
// types this is the Go type name; shared-type registrations carry the
// caller-chosen name instead.
func (t *EntityType) Name() string {
	return t.name
}

// GoType returns the Go struct type the entity type maps.
func (t *EntityType) GoType() reflect.Type {
	return t.goType
}

// IsSharedType reports whether the Go type is registered more than once
// under distinct names.
func (t *EntityType) IsSharedType() bool {
	return t.shared
}

// BaseType returns the base entity type, or nil for the root of an
// inheritance chain.
func (t *EntityType) BaseType() *EntityType {
	return t.base
}

// Annotations exposes the entity type's annotation store.
func (t *EntityType) Annotations() *annotations.Store {
	return t.annotations
}

// Owner returns the entity type this type is embedded under, or nil.
// Ownership is shared across an inheritance chain.
func (t *EntityType) Owner() *EntityType {
	return t.chainRoot().owner
}

// OwningNavigation returns the principal-to-dependent navigation of the
// ownership link, or nil.
func (t *EntityType) OwningNavigation() *Navigation {
	return t.chainRoot().ownedVia
}

// chainRoot walks to the top of the inheritance chain.
func (t *EntityType) chainRoot() *EntityType {
	root := t
	for root.base != nil {
		root = root.base
	}
	return root
}

// setBaseType links the entity type under a base type. Collection name and
// root-ness are resolved against the chain root from then on.
func (t *EntityType) setBaseType(base *EntityType) error {
	t.model.checkMutable()
	for cur := base; cur != nil; cur = cur.base {
		if cur == t {
			return fmt.Errorf("entity type %s cannot be its own base type, directly or transitively", t.name)
		}
	}
	t.base = base
	return nil
}

// setOwnership records the ownership link for the entity type, rejecting
// links that would make a type transitively contain itself.
func (t *EntityType) setOwnership(owner *EntityType, via *Navigation) error {
	t.model.checkMutable()
	for cur := owner; cur != nil; cur = cur.chainRoot().owner {
		if cur.chainRoot() == t.chainRoot() {
			return fmt.Errorf("%w: entity type %s cannot be embedded under %s", ErrOwnershipCycle, t.name, owner.name)
		}
	}
	t.owner = owner
	t.ownedVia = via
	return nil
}

// Properties returns the properties declared on this type, not including
// inherited ones.
func (t *EntityType) Properties() []*Property {
	return t.properties
}

// Property looks a property up by its Go field name, searching the
// inheritance chain from this type upward.
func (t *EntityType) Property(name string) *Property {
	for cur := t; cur != nil; cur = cur.base {
		if p, ok := cur.propertyIndex[name]; ok {
			return p
		}
	}
	return nil
}

// Navigations returns the navigations declared on this type, not including
// inherited ones.
func (t *EntityType) Navigations() []*Navigation {
	return t.navigations
}

// Navigation looks a navigation up by name, searching the inheritance
// chain from this type upward.
func (t *EntityType) Navigation(name string) *Navigation {
	for cur := t; cur != nil; cur = cur.base {
		if n, ok := cur.navigationIndex[name]; ok {
			return n
		}
	}
	return nil
}

func (t *EntityType) addProperty(name string, goType reflect.Type) *Property {
	p := &Property{
		name:        name,
		goType:      goType,
		declaring:   t,
		annotations: annotations.NewStore(),
	}
	t.properties = append(t.properties, p)
	t.propertyIndex[name] = p
	return p
}

func (t *EntityType) addNavigation(name string, target *EntityType, collection, owned bool) *Navigation {
	n := &Navigation{
		name:        name,
		declaring:   t,
		target:      target,
		collection:  collection,
		owned:       owned,
		annotations: annotations.NewStore(),
	}
	t.navigations = append(t.navigations, n)
	t.navigationIndex[name] = n
	return n
}

// IsDocumentRoot reports whether the entity type maps to its own
// collection. Root-ness is decided at the top of the inheritance chain: a
// type is a root when it is not owned, or when a collection name has been
// configured despite ownership. Configuring a collection name on an owned
// type is the deliberate escape hatch for persisting an otherwise-embedded
// shape to a top-level collection.
func (t *EntityType) IsDocumentRoot() bool {
	root := t.chainRoot()
	if root.owner == nil {
		return true
	}
	_, hasCollection := root.annotations.Value(annotations.CollectionName)
	return hasCollection
}

// CollectionName returns the collection the entity type's documents live
// in. Subtypes delegate to the root of their inheritance chain; the
// default is the registration name.
func (t *EntityType) CollectionName() string {
	root := t.chainRoot()
	return root.annotations.StringOr(annotations.CollectionName, root.name)
}

// SetCollectionName records the collection name from the given
// configuration source. It returns false without mutating when a
// higher-precedence source already configured the name, and an error when
// the name is empty.
func (t *EntityType) SetCollectionName(name string, source annotations.Source) (bool, error) {
	t.model.checkMutable()
	if name == "" {
		return false, fmt.Errorf("collection name for entity type %s must not be empty", t.name)
	}
	return t.chainRoot().annotations.Set(annotations.CollectionName, name, source), nil
}

// ContainingElementName returns the element the entity type's data is
// embedded under in its owner's document: the configured annotation if
// set, else the owning navigation's element name. Empty for roots without
// ownership.
func (t *EntityType) ContainingElementName() string {
	if name, ok := t.annotations.Value(annotations.ContainingElementName); ok {
		return name.(string)
	}
	if via := t.OwningNavigation(); via != nil {
		return via.ElementName()
	}
	return ""
}

// SetContainingElementName records the containing element name from the
// given configuration source. Empty or whitespace-only names are argument
// errors; use RemoveContainingElementName to fall back to the default.
func (t *EntityType) SetContainingElementName(name string, source annotations.Source) (bool, error) {
	t.model.checkMutable()
	if strings.TrimSpace(name) == "" {
		return false, fmt.Errorf("containing element name for entity type %s must not be empty or whitespace; remove the annotation to restore the default", t.name)
	}
	return t.annotations.Set(annotations.ContainingElementName, name, source), nil
}

// RemoveContainingElementName drops the configured containing element
// name, restoring the navigation-derived default. It returns false when a
// higher-precedence source owns the annotation.
func (t *EntityType) RemoveContainingElementName(source annotations.Source) bool {
	t.model.checkMutable()
	return t.annotations.Remove(annotations.ContainingElementName, source)
}

// DocumentPath returns the ordered element names from the document root
// down to this entity type's embedded position. Empty for document roots.
func (t *EntityType) DocumentPath() []string {
	var names []string
	for cur := t; !cur.IsDocumentRoot(); cur = cur.Owner() {
		names = append(names, cur.ContainingElementName())
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return names
}

// DocumentRoot follows ownership links upward until it reaches a document
// root. A root returns itself.
func (t *EntityType) DocumentRoot() *EntityType {
	cur := t
	for !cur.IsDocumentRoot() {
		cur = cur.Owner()
	}
	return cur
}

// ElementPath returns the full dotted document path of a property of this
// entity type, as consumed by index definitions and query stages.
func (t *EntityType) ElementPath(p *Property) string {
	segments := append(t.DocumentPath(), p.ElementName())
	return strings.Join(segments, ".")
}

func (t *EntityType) elementPath(p *Property) (string, error) {
	if t.Property(p.Name()) != p {
		return "", fmt.Errorf("property %s is not declared on entity type %s or its base types", p.Name(), t.name)
	}
	return t.ElementPath(p), nil
}

// DiscriminatorElementName returns the document field that stores the
// discriminator for an inheritance chain, defaulting to "_t". Resolved
// against the chain root like the collection name.
func (t *EntityType) DiscriminatorElementName() string {
	return t.chainRoot().annotations.StringOr(annotations.DiscriminatorProperty, "_t")
}

// SetDiscriminatorElementName records the discriminator field name from
// the given configuration source.
func (t *EntityType) SetDiscriminatorElementName(name string, source annotations.Source) (bool, error) {
	t.model.checkMutable()
	if name == "" {
		return false, fmt.Errorf("discriminator element name for entity type %s must not be empty", t.name)
	}
	return t.chainRoot().annotations.Set(annotations.DiscriminatorProperty, name, source), nil
}

// DiscriminatorValue returns the discriminator value stored for documents
// of this concrete type, defaulting to the registration name.
func (t *EntityType) DiscriminatorValue() string {
	return t.annotations.StringOr(annotations.DiscriminatorValue, t.name)
}

// SetDiscriminatorValue records the discriminator value from the given
// configuration source.
func (t *EntityType) SetDiscriminatorValue(value string, source annotations.Source) (bool, error) {
	t.model.checkMutable()
	if value == "" {
		return false, fmt.Errorf("discriminator value for entity type %s must not be empty", t.name)
	}
	return t.annotations.Set(annotations.DiscriminatorValue, value, source), nil
}

// AddIndex declares an index over the named properties, in order. The
// properties must resolve on this entity type or its base types.
func (t *EntityType) AddIndex(propertyNames ...string) (*Index, error) {
	t.model.checkMutable()
	if len(propertyNames) == 0 {
		return nil, fmt.Errorf("an index on entity type %s requires at least one property", t.name)
	}
	properties := make([]*Property, 0, len(propertyNames))
	for _, name := range propertyNames {
		p := t.Property(name)
		if p == nil {
			return nil, fmt.Errorf("cannot index unknown property %s on entity type %s", name, t.name)
		}
		properties = append(properties, p)
	}
	idx := &Index{
		declaring:   t,
		properties:  properties,
		annotations: annotations.NewStore(),
	}
	t.indexes = append(t.indexes, idx)
	return idx, nil
}

// Indexes returns the indexes declared on this type.
func (t *EntityType) Indexes() []*Index {
	return t.indexes
}

// FindIndex looks an index up by name.
func (t *EntityType) FindIndex(name string) *Index {
	for _, idx := range t.indexes {
		if idx.Name() == name {
			return idx
		}
	}
	return nil
}

// GetOrAddSearchIndex returns the search index definition registered under
// the given name, creating an empty one on first use. Repeated calls with
// the same name configure the same definition instance.
func (t *EntityType) GetOrAddSearchIndex(name string) *searchindex.TopLevelDefinition {
	t.model.checkMutable()
	return searchindex.GetOrAdd(&t.searchIndexes, name, func() *searchindex.TopLevelDefinition {
		return searchindex.NewTopLevelDefinition(name)
	})
}

// SearchIndexes returns the search index definitions declared on this
// type, in registration order. Definitions declared on an embedded type are
// rebased onto its document root so their member names, which are relative
// to the declaring type, serialize under the full element path.
func (t *EntityType) SearchIndexes() []searchindex.Definition {
	steps := t.nestingSteps()
	if len(steps) == 0 {
		return t.searchIndexes
	}
	rooted := make([]searchindex.Definition, 0, len(t.searchIndexes))
	for _, def := range t.searchIndexes {
		top, ok := def.(*searchindex.TopLevelDefinition)
		if !ok {
			rooted = append(rooted, def)
			continue
		}
		rooted = append(rooted, top.Nested(steps))
	}
	return rooted
}

// nestingSteps returns the embedding path from the document root down to
// this type, one step per containing element. Empty for document roots.
func (t *EntityType) nestingSteps() []searchindex.NestStep {
	var steps []searchindex.NestStep
	for cur := t; !cur.IsDocumentRoot(); cur = cur.Owner() {
		step := searchindex.NestStep{Name: cur.ContainingElementName()}
		if nav := cur.OwningNavigation(); nav != nil {
			step.Array = nav.IsCollection()
		}
		steps = append(steps, step)
	}
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
	return steps
}
