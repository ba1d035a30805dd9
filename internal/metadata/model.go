package metadata

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sort"

	"github.com/nlstn/go-mongomap/internal/annotations"
)

// ErrOwnershipCycle is returned when configuring an ownership link would
// make an entity type transitively contain itself.
var ErrOwnershipCycle = errors.New("ownership cycle detected")

// Model is the registry of mapped entity types. It is built once on a
// single goroutine, frozen, and then only read; all read operations on a
// frozen model are safe for concurrent use.
type Model struct {
	logger *slog.Logger

	entityTypes map[string]*EntityType
	ordered     []*EntityType
	byGoType    map[reflect.Type][]*EntityType

	frozen bool
}

// NewModel creates an empty model. A nil logger falls back to
// slog.Default().
func NewModel(logger *slog.Logger) *Model {
	if logger == nil {
		logger = slog.Default()
	}
	return &Model{
		logger:      logger,
		entityTypes: make(map[string]*EntityType),
		byGoType:    make(map[reflect.Type][]*EntityType),
	}
}

// Logger returns the model's logger.
func (m *Model) Logger() *slog.Logger {
	return m.logger
}

// checkMutable panics when a mutation is attempted after Freeze. The model
// lifecycle is build-then-freeze; late configuration is a programming
// error, not a recoverable condition.
func (m *Model) checkMutable() {
	if m.frozen {
		panic("mongomap: the model is frozen; all configuration must happen before Build/Freeze")
	}
}

// IsFrozen reports whether the model has been frozen.
func (m *Model) IsFrozen() bool {
	return m.frozen
}

// addEntityType registers a new entity type under the given name. The
// shared flag marks registrations whose Go type appears under more than
// one name.
func (m *Model) addEntityType(name string, goType reflect.Type, shared bool) (*EntityType, error) {
	m.checkMutable()
	if name == "" {
		return nil, fmt.Errorf("entity type name must not be empty")
	}
	if existing, ok := m.entityTypes[name]; ok {
		if existing.goType != goType {
			return nil, fmt.Errorf("entity type name %s is already registered for Go type %s", name, existing.goType)
		}
		return existing, nil
	}
	t := &EntityType{
		model:           m,
		name:            name,
		goType:          goType,
		shared:          shared,
		propertyIndex:   make(map[string]*Property),
		navigationIndex: make(map[string]*Navigation),
		annotations:     annotations.NewStore(),
	}
	m.entityTypes[name] = t
	m.ordered = append(m.ordered, t)
	m.byGoType[goType] = append(m.byGoType[goType], t)
	if len(m.byGoType[goType]) > 1 {
		for _, registered := range m.byGoType[goType] {
			registered.shared = true
		}
	}
	m.logger.Debug("registered entity type", "name", name, "goType", goType.String(), "shared", t.shared)
	return t, nil
}

// EntityType looks an entity type up by registration name.
func (m *Model) EntityType(name string) *EntityType {
	return m.entityTypes[name]
}

// FindEntityType resolves a Go struct type to its entity type. It returns
// nil when the type is unregistered or registered under multiple names
// (shared types must be addressed by name).
func (m *Model) FindEntityType(goType reflect.Type) *EntityType {
	if goType.Kind() == reflect.Ptr {
		goType = goType.Elem()
	}
	matches := m.byGoType[goType]
	if len(matches) != 1 {
		return nil
	}
	return matches[0]
}

// EntityTypes returns all registered entity types sorted by name.
func (m *Model) EntityTypes() []*EntityType {
	types := make([]*EntityType, len(m.ordered))
	copy(types, m.ordered)
	sort.Slice(types, func(i, j int) bool { return types[i].name < types[j].name })
	return types
}

// DocumentRoots returns the entity types that map to their own
// collections, sorted by name.
func (m *Model) DocumentRoots() []*EntityType {
	var roots []*EntityType
	for _, t := range m.EntityTypes() {
		if t.base == nil && t.IsDocumentRoot() {
			roots = append(roots, t)
		}
	}
	return roots
}

// Freeze validates the model and switches it to its immutable runtime
// form. Freezing twice is a no-op.
func (m *Model) Freeze() error {
	if m.frozen {
		return nil
	}
	if err := m.validate(); err != nil {
		return err
	}
	m.frozen = true
	m.logger.Debug("model frozen", "entityTypes", len(m.ordered))
	return nil
}

// validate runs the model-wide consistency checks that cannot be enforced
// at individual configuration calls.
func (m *Model) validate() error {
	for _, t := range m.ordered {
		// Ownership links are checked at set time; re-walking here guards
		// links established before a base type reshaped the chain.
		seen := map[*EntityType]bool{}
		for cur := t; cur != nil; cur = cur.Owner() {
			root := cur.chainRoot()
			if seen[root] {
				return fmt.Errorf("%w: entity type %s", ErrOwnershipCycle, t.name)
			}
			seen[root] = true
		}
		for _, idx := range t.indexes {
			if opts := idx.VectorOptions(); opts != nil {
				if err := opts.Validate(); err != nil {
					return fmt.Errorf("index %q on entity type %s: %w", idx.Name(), t.name, err)
				}
			}
		}
	}
	return nil
}

// EntityTypeSnapshot is the serializable annotation state of one entity
// type.
type EntityTypeSnapshot struct {
	Name        string
	GoType      reflect.Type
	Annotations []annotations.Annotation
	Properties  map[string][]annotations.Annotation
	Navigations map[string][]annotations.Annotation
}

// Snapshot captures the annotation state of every entity type. Applying
// the snapshot to a freshly built model with the same registrations
// restores identical name, path and collection resolution.
func (m *Model) Snapshot() []EntityTypeSnapshot {
	snapshots := make([]EntityTypeSnapshot, 0, len(m.ordered))
	for _, t := range m.EntityTypes() {
		snap := EntityTypeSnapshot{
			Name:        t.name,
			GoType:      t.goType,
			Annotations: t.annotations.Snapshot(),
			Properties:  make(map[string][]annotations.Annotation),
			Navigations: make(map[string][]annotations.Annotation),
		}
		for _, p := range t.properties {
			if ann := p.annotations.Snapshot(); len(ann) > 0 {
				snap.Properties[p.name] = ann
			}
		}
		for _, n := range t.navigations {
			if ann := n.annotations.Snapshot(); len(ann) > 0 {
				snap.Navigations[n.name] = ann
			}
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots
}

// ApplySnapshot restores previously captured annotation state onto the
// model. Entity types absent from the model are reported as errors;
// unknown properties or navigations within a known type likewise.
func (m *Model) ApplySnapshot(snapshots []EntityTypeSnapshot) error {
	m.checkMutable()
	for _, snap := range snapshots {
		t := m.entityTypes[snap.Name]
		if t == nil {
			return fmt.Errorf("snapshot names unregistered entity type %s", snap.Name)
		}
		t.annotations = annotations.NewStoreFromSnapshot(snap.Annotations)
		for name, ann := range snap.Properties {
			p := t.Property(name)
			if p == nil {
				return fmt.Errorf("snapshot names unknown property %s on entity type %s", name, snap.Name)
			}
			p.annotations = annotations.NewStoreFromSnapshot(ann)
		}
		for name, ann := range snap.Navigations {
			n := t.Navigation(name)
			if n == nil {
				return fmt.Errorf("snapshot names unknown navigation %s on entity type %s", name, snap.Name)
			}
			n.annotations = annotations.NewStoreFromSnapshot(ann)
		}
	}
	return nil
}
