package metadata

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nlstn/go-mongomap/internal/annotations"
)

// AnalyzeEntity registers a Go struct as an entity type and derives its
// mapping metadata by convention: exported fields become properties,
// struct-shaped fields become owned navigations unless tagged as
// references, and `bson` tags configure element names as data annotations.
func (m *Model) AnalyzeEntity(entity interface{}) (*EntityType, error) {
	goType, err := entityStructType(entity)
	if err != nil {
		return nil, err
	}
	a := &analyzer{model: m}
	return a.analyze(goType.Name(), goType, false)
}

// AnalyzeSharedEntity registers a Go struct under a caller-chosen name,
// allowing the same struct type to back multiple mappings.
func (m *Model) AnalyzeSharedEntity(name string, entity interface{}) (*EntityType, error) {
	goType, err := entityStructType(entity)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("shared entity type registration for %s requires a non-empty name", goType)
	}
	a := &analyzer{model: m}
	return a.analyze(name, goType, true)
}

func entityStructType(entity interface{}) (reflect.Type, error) {
	goType := reflect.TypeOf(entity)
	if goType == nil {
		return nil, fmt.Errorf("entity must be a struct or pointer to struct, got nil")
	}
	if goType.Kind() == reflect.Ptr {
		goType = goType.Elem()
	}
	if goType.Kind() != reflect.Struct {
		return nil, fmt.Errorf("entity must be a struct, got %s", goType.Kind())
	}
	return goType, nil
}

// analyzer walks entity struct types recursively, registering owned types
// as it descends. Each type is registered before its fields are analyzed,
// so mutually referential Go types resolve to reference navigations
// instead of recursing forever.
type analyzer struct {
	model *Model
}

func (a *analyzer) analyze(name string, goType reflect.Type, shared bool) (*EntityType, error) {
	if existing := a.model.entityTypes[name]; existing != nil {
		if existing.goType != goType {
			return nil, fmt.Errorf("entity type name %s is already registered for Go type %s", name, existing.goType)
		}
		return existing, nil
	}

	t, err := a.model.addEntityType(name, goType, shared)
	if err != nil {
		return nil, err
	}

	// A CollectionName() string method configures the collection as a
	// data annotation, overridable only by explicit builder calls.
	if collection, ok := collectionNameFromMethod(goType); ok {
		if _, err := t.SetCollectionName(collection, annotations.SourceDataAnnotation); err != nil {
			return nil, err
		}
	}

	for i := 0; i < goType.NumField(); i++ {
		field := goType.Field(i)
		if !field.IsExported() {
			continue
		}
		if field.Anonymous {
			if err := a.analyzeBaseType(t, field); err != nil {
				return nil, err
			}
			continue
		}
		if err := a.analyzeField(t, field); err != nil {
			return nil, fmt.Errorf("error analyzing field %s of %s: %w", field.Name, goType, err)
		}
	}
	return t, nil
}

// analyzeBaseType treats an anonymous embedded struct field as the base
// type of an inheritance chain.
func (a *analyzer) analyzeBaseType(t *EntityType, field reflect.StructField) error {
	baseType := field.Type
	if baseType.Kind() == reflect.Ptr {
		baseType = baseType.Elem()
	}
	if baseType.Kind() != reflect.Struct || isTerminalStruct(baseType) {
		return fmt.Errorf("embedded field %s of %s is not usable as a base type", field.Name, t.goType)
	}
	base, err := a.analyze(baseType.Name(), baseType, false)
	if err != nil {
		return err
	}
	return t.setBaseType(base)
}

func (a *analyzer) analyzeField(t *EntityType, field reflect.StructField) error {
	elementName, skip := bsonTagName(field)
	if skip {
		return nil
	}
	tagOptions := mongomapTagOptions(field)

	fieldType := field.Type
	isSlice := fieldType.Kind() == reflect.Slice
	if isSlice {
		fieldType = fieldType.Elem()
	}
	if fieldType.Kind() == reflect.Ptr {
		fieldType = fieldType.Elem()
	}

	if fieldType.Kind() == reflect.Struct && !isTerminalStruct(fieldType) {
		return a.analyzeNavigation(t, field, fieldType, isSlice, elementName, tagOptions)
	}

	p := t.addProperty(field.Name, field.Type)
	if elementName != "" {
		if _, err := p.SetElementName(elementName, annotations.SourceDataAnnotation); err != nil {
			return err
		}
	}
	if tagOptions["discriminator"] {
		if _, err := t.SetDiscriminatorElementName(p.ElementName(), annotations.SourceDataAnnotation); err != nil {
			return err
		}
	}
	return nil
}

func (a *analyzer) analyzeNavigation(t *EntityType, field reflect.StructField, targetType reflect.Type, isSlice bool, elementName string, tagOptions map[string]bool) error {
	if tagOptions["ref"] {
		target, err := a.analyze(targetType.Name(), targetType, false)
		if err != nil {
			return err
		}
		t.addNavigation(field.Name, target, isSlice, false)
		return nil
	}

	target, own, err := a.resolveOwnedTarget(t, field.Name, targetType)
	if err != nil {
		return err
	}
	nav := t.addNavigation(field.Name, target, isSlice, own)
	if elementName != "" {
		if _, err := nav.SetElementName(elementName, annotations.SourceDataAnnotation); err != nil {
			return err
		}
	}
	if own {
		if err := target.setOwnership(t, nav); err != nil {
			return err
		}
	}
	return nil
}

// resolveOwnedTarget registers (or finds) the entity type embedded through
// an owned navigation, reporting whether the navigation takes ownership.
// A Go type owned from several places becomes a shared-type registration
// named Owner.Field for each additional owner; a type already registered
// as a document root stays a reference.
func (a *analyzer) resolveOwnedTarget(owner *EntityType, fieldName string, targetType reflect.Type) (*EntityType, bool, error) {
	existing := a.model.entityTypes[targetType.Name()]
	switch {
	case existing == nil:
		target, err := a.analyze(targetType.Name(), targetType, false)
		if err != nil {
			return nil, false, err
		}
		return target, true, nil
	case existing.goType != targetType:
		return nil, false, fmt.Errorf("entity type name %s is already registered for Go type %s", targetType.Name(), existing.goType)
	case existing.Owner() == nil:
		return existing, false, nil
	case existing.Owner() == owner:
		return existing, true, nil
	default:
		// Owned elsewhere: register a shared-type instance for this owner.
		target, err := a.analyze(owner.Name()+"."+fieldName, targetType, true)
		if err != nil {
			return nil, false, err
		}
		return target, true, nil
	}
}

// bsonTagName extracts the element name from a field's bson tag. The skip
// result is true for fields tagged bson:"-".
func bsonTagName(field reflect.StructField) (name string, skip bool) {
	tag, ok := field.Tag.Lookup("bson")
	if !ok {
		return "", false
	}
	name, _, _ = strings.Cut(tag, ",")
	if name == "-" {
		return "", true
	}
	return name, false
}

// mongomapTagOptions parses the comma-separated mongomap struct tag.
func mongomapTagOptions(field reflect.StructField) map[string]bool {
	options := make(map[string]bool)
	tag, ok := field.Tag.Lookup("mongomap")
	if !ok {
		return options
	}
	for _, option := range strings.Split(tag, ",") {
		if option = strings.TrimSpace(option); option != "" {
			options[option] = true
		}
	}
	return options
}

// collectionNameFromMethod detects a CollectionName() string method on the
// entity type or its pointer receiver, mirroring how custom table-name
// hooks are conventionally declared.
func collectionNameFromMethod(goType reflect.Type) (string, bool) {
	candidates := []reflect.Type{goType, reflect.PtrTo(goType)}
	for _, candidate := range candidates {
		method, ok := candidate.MethodByName("CollectionName")
		if !ok {
			continue
		}
		if method.Type.NumIn() != 1 || method.Type.NumOut() != 1 || method.Type.Out(0).Kind() != reflect.String {
			continue
		}
		receiver := reflect.New(goType)
		if candidate.Kind() != reflect.Ptr {
			receiver = receiver.Elem()
		}
		result := method.Func.Call([]reflect.Value{receiver})
		if name := result[0].String(); name != "" {
			return name, true
		}
	}
	return "", false
}

// terminalStructTypes are struct-shaped Go types mapped as scalar values
// rather than owned documents.
var terminalStructTypes = map[reflect.Type]bool{
	reflect.TypeOf(time.Time{}):            true,
	reflect.TypeOf(uuid.UUID{}):            true,
	reflect.TypeOf(decimal.Decimal{}):      true,
	reflect.TypeOf(primitive.Decimal128{}): true,
}

func isTerminalStruct(goType reflect.Type) bool {
	return terminalStructTypes[goType]
}
