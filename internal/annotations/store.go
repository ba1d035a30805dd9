package annotations

import "sort"

// Annotation is a single recorded metadata value together with the source
// that set it. Annotations are exported so that a frozen model can be
// snapshotted and reloaded without losing provenance information.
type Annotation struct {
	Name   string
	Value  interface{}
	Source Source
}

// Store holds the annotations attached to a single model element (entity
// type, property, navigation or index). All mutation happens during the
// single-threaded model-building phase; after the model is frozen the store
// is only read, which is safe for concurrent use.
type Store struct {
	annotations map[string]*Annotation
}

// NewStore creates an empty annotation store.
func NewStore() *Store {
	return &Store{annotations: make(map[string]*Annotation)}
}

// NewStoreFromSnapshot recreates a store from a previously captured snapshot.
func NewStoreFromSnapshot(snapshot []Annotation) *Store {
	s := NewStore()
	for _, a := range snapshot {
		s.annotations[a.Name] = &Annotation{Name: a.Name, Value: a.Value, Source: a.Source}
	}
	return s
}

// Set records value under name if source has equal or higher precedence than
// the currently recorded source. It reports whether the value was applied.
// A rejected write is not an error; convention-based configuration probes
// freely and backs off when explicit configuration already exists.
func (s *Store) Set(name string, value interface{}, source Source) bool {
	if name == "" {
		panic("annotations: annotation name must not be empty")
	}
	existing, ok := s.annotations[name]
	if ok && !source.Overrides(existing.Source) {
		return false
	}
	s.annotations[name] = &Annotation{Name: name, Value: value, Source: source}
	return true
}

// CanSet reports whether a Set call from source would be applied, without
// mutating the store. Fluent builders call this before every write so that
// conditional configuration can return "not applied" instead of failing.
func (s *Store) CanSet(name string, source Source) bool {
	if name == "" {
		panic("annotations: annotation name must not be empty")
	}
	existing, ok := s.annotations[name]
	if !ok {
		return true
	}
	return source.Overrides(existing.Source)
}

// Remove deletes the annotation under name if source has sufficient
// precedence to override it. It reports whether the annotation was removed
// (or was already absent).
func (s *Store) Remove(name string, source Source) bool {
	existing, ok := s.annotations[name]
	if !ok {
		return true
	}
	if !source.Overrides(existing.Source) {
		return false
	}
	delete(s.annotations, name)
	return true
}

// Value returns the recorded value under name.
func (s *Store) Value(name string) (interface{}, bool) {
	a, ok := s.annotations[name]
	if !ok {
		return nil, false
	}
	return a.Value, true
}

// SourceOf returns the source that set the annotation under name.
func (s *Store) SourceOf(name string) (Source, bool) {
	a, ok := s.annotations[name]
	if !ok {
		return SourceConvention, false
	}
	return a.Source, true
}

// StringOr returns the annotation under name as a string, or def when the
// annotation is absent or not a string.
func (s *Store) StringOr(name, def string) string {
	if v, ok := s.annotations[name]; ok {
		if str, ok := v.Value.(string); ok {
			return str
		}
	}
	return def
}

// BoolOr returns the annotation under name as a bool, or def when the
// annotation is absent or not a bool.
func (s *Store) BoolOr(name string, def bool) bool {
	if v, ok := s.annotations[name]; ok {
		if b, ok := v.Value.(bool); ok {
			return b
		}
	}
	return def
}

// IntOr returns the annotation under name as an int, or def when the
// annotation is absent or not an int.
func (s *Store) IntOr(name string, def int) int {
	if v, ok := s.annotations[name]; ok {
		if i, ok := v.Value.(int); ok {
			return i
		}
	}
	return def
}

// Names returns all annotation names in sorted order for deterministic
// iteration.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.annotations))
	for name := range s.annotations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot captures the full annotation state including sources. The
// returned slice is ordered by name and safe to retain; it shares no state
// with the store.
func (s *Store) Snapshot() []Annotation {
	snapshot := make([]Annotation, 0, len(s.annotations))
	for _, name := range s.Names() {
		a := s.annotations[name]
		snapshot = append(snapshot, Annotation{Name: a.Name, Value: a.Value, Source: a.Source})
	}
	return snapshot
}
