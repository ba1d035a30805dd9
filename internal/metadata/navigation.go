package metadata

import (
	"fmt"
	"strings"

	"github.com/nlstn/go-mongomap/internal/annotations"
)

// Navigation describes a relationship from a declaring entity type to a
// target entity type. Owned navigations embed the target's document inside
// the declaring type's document; reference navigations only record the
// relationship and leave the target in its own collection.
type Navigation struct {
	name        string
	declaring   *EntityType
	target      *EntityType
	collection  bool
	owned       bool
	annotations *annotations.Store
}

// Name returns the navigation's name, which is the Go struct field name it
// was discovered from.
func (n *Navigation) Name() string {
	return n.name
}

// DeclaringEntityType returns the entity type the navigation is declared on.
func (n *Navigation) DeclaringEntityType() *EntityType {
	return n.declaring
}

// TargetEntityType returns the entity type the navigation points at.
func (n *Navigation) TargetEntityType() *EntityType {
	return n.target
}

// IsCollection reports whether the navigation is collection-valued
// (a slice field) rather than single-valued.
func (n *Navigation) IsCollection() bool {
	return n.collection
}

// IsOwned reports whether the target's document is embedded under the
// declaring type's document.
func (n *Navigation) IsOwned() bool {
	return n.owned
}

// Annotations exposes the navigation's annotation store.
func (n *Navigation) Annotations() *annotations.Store {
	return n.annotations
}

// ElementName returns the document field name the navigation's data is
// stored under: the configured annotation if one is set, otherwise the
// lower-camel form of the navigation name.
func (n *Navigation) ElementName() string {
	return n.annotations.StringOr(annotations.ElementName, defaultElementName(n.name))
}

// SetElementName records the element name from the given configuration
// source. It returns false without mutating when a higher-precedence source
// already configured the name, and an error when the name is empty or
// whitespace-only.
func (n *Navigation) SetElementName(name string, source annotations.Source) (bool, error) {
	n.declaring.model.checkMutable()
	if strings.TrimSpace(name) == "" {
		return false, fmt.Errorf("element name for navigation %s.%s must not be empty or whitespace", n.declaring.Name(), n.name)
	}
	return n.annotations.Set(annotations.ElementName, name, source), nil
}
