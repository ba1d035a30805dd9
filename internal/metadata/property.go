package metadata

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nlstn/go-mongomap/internal/annotations"
)

// BSONRepresentation selects the BSON type a property's values are stored
// as, when the default mapping for the Go type is not wanted.
type BSONRepresentation int

const (
	// RepresentationDefault stores the value with the driver's default
	// mapping for the Go type.
	RepresentationDefault BSONRepresentation = iota
	RepresentationObjectID
	RepresentationString
	RepresentationInt32
	RepresentationInt64
	RepresentationDouble
	RepresentationDecimal128
	RepresentationDateTime
	RepresentationBinary
	RepresentationBoolean
)

// String returns the representation's name as used in configuration errors.
func (r BSONRepresentation) String() string {
	switch r {
	case RepresentationDefault:
		return "Default"
	case RepresentationObjectID:
		return "ObjectID"
	case RepresentationString:
		return "String"
	case RepresentationInt32:
		return "Int32"
	case RepresentationInt64:
		return "Int64"
	case RepresentationDouble:
		return "Double"
	case RepresentationDecimal128:
		return "Decimal128"
	case RepresentationDateTime:
		return "DateTime"
	case RepresentationBinary:
		return "Binary"
	case RepresentationBoolean:
		return "Boolean"
	default:
		return fmt.Sprintf("BSONRepresentation(%d)", int(r))
	}
}

// DateTimeKind records which clock a stored time.Time is interpreted
// against when read back.
type DateTimeKind int

const (
	// DateTimeKindUnspecified is the default: values are stored as-is and
	// read back without timezone adjustment.
	DateTimeKindUnspecified DateTimeKind = iota
	DateTimeKindUTC
	DateTimeKindLocal
)

// String returns the kind's name.
func (k DateTimeKind) String() string {
	switch k {
	case DateTimeKindUnspecified:
		return "Unspecified"
	case DateTimeKindUTC:
		return "UTC"
	case DateTimeKindLocal:
		return "Local"
	default:
		return fmt.Sprintf("DateTimeKind(%d)", int(k))
	}
}

// Queryable encryption query types.
const (
	EncryptionQueryEquality = "equality"
	EncryptionQueryRange    = "range"
)

// QueryableEncryptionOptions configures client-side queryable encryption
// for a property.
type QueryableEncryptionOptions struct {
	// QueryType is EncryptionQueryEquality or EncryptionQueryRange.
	QueryType string

	// DataKeyID identifies the data encryption key. Nil means the key is
	// resolved externally at collection setup time.
	DataKeyID *uuid.UUID

	// Contention tunes the insert/update concurrency trade-off. Must not
	// be negative.
	Contention int

	// Sparsity applies to range queries only and must be between 1 and 4.
	Sparsity int

	// TrimFactor applies to range queries only and must not be negative.
	TrimFactor int

	// Min and Max bound the queryable domain for range queries. Both are
	// required for EncryptionQueryRange.
	Min interface{}
	Max interface{}
}

// Validate checks the option values against their documented ranges.
func (o *QueryableEncryptionOptions) Validate() error {
	switch o.QueryType {
	case EncryptionQueryEquality, EncryptionQueryRange:
	default:
		return fmt.Errorf("unknown queryable encryption query type %q; use %q or %q",
			o.QueryType, EncryptionQueryEquality, EncryptionQueryRange)
	}
	if o.Contention < 0 {
		return fmt.Errorf("queryable encryption contention must not be negative, got %d", o.Contention)
	}
	if o.QueryType == EncryptionQueryRange {
		if o.Min == nil || o.Max == nil {
			return fmt.Errorf("queryable encryption range queries require both min and max bounds")
		}
		if o.Sparsity != 0 && (o.Sparsity < 1 || o.Sparsity > 4) {
			return fmt.Errorf("queryable encryption sparsity must be between 1 and 4, got %d", o.Sparsity)
		}
		if o.TrimFactor < 0 {
			return fmt.Errorf("queryable encryption trim factor must not be negative, got %d", o.TrimFactor)
		}
	}
	return nil
}

// Property is a mapped scalar member of an entity type.
type Property struct {
	name        string
	goType      reflect.Type
	declaring   *EntityType
	annotations *annotations.Store
}

// Name returns the property's name, which is the Go struct field name.
func (p *Property) Name() string {
	return p.name
}

// GoType returns the Go type of the underlying struct field.
func (p *Property) GoType() reflect.Type {
	return p.goType
}

// DeclaringEntityType returns the entity type the property belongs to.
func (p *Property) DeclaringEntityType() *EntityType {
	return p.declaring
}

// Annotations exposes the property's annotation store.
func (p *Property) Annotations() *annotations.Store {
	return p.annotations
}

// ElementName returns the document field name the property's value is
// stored under. An explicit or tag-configured name wins; the default is
// the lower-camel form of the Go field name, except for the conventional
// identifier field which maps to "_id".
func (p *Property) ElementName() string {
	return p.annotations.StringOr(annotations.ElementName, defaultElementName(p.name))
}

// SetElementName records the element name from the given configuration
// source. It returns false without mutating when a higher-precedence
// source already configured the name, and an error when the name is empty.
func (p *Property) SetElementName(name string, source annotations.Source) (bool, error) {
	p.declaring.model.checkMutable()
	if name == "" {
		return false, fmt.Errorf("element name for property %s.%s must not be empty", p.declaring.Name(), p.name)
	}
	return p.annotations.Set(annotations.ElementName, name, source), nil
}

// Representation returns the configured BSON representation, defaulting to
// RepresentationDefault.
func (p *Property) Representation() BSONRepresentation {
	return BSONRepresentation(p.annotations.IntOr(annotations.BSONRepresentation, int(RepresentationDefault)))
}

// SetRepresentation records the BSON representation from the given source.
func (p *Property) SetRepresentation(r BSONRepresentation, source annotations.Source) bool {
	p.declaring.model.checkMutable()
	return p.annotations.Set(annotations.BSONRepresentation, int(r), source)
}

// TimeKind returns the configured DateTimeKind, defaulting to
// DateTimeKindUnspecified.
func (p *Property) TimeKind() DateTimeKind {
	return DateTimeKind(p.annotations.IntOr(annotations.DateTimeKind, int(DateTimeKindUnspecified)))
}

// SetTimeKind records the DateTimeKind from the given source.
func (p *Property) SetTimeKind(k DateTimeKind, source annotations.Source) bool {
	p.declaring.model.checkMutable()
	return p.annotations.Set(annotations.DateTimeKind, int(k), source)
}

// Encryption returns the property's queryable encryption options, or nil
// when the property is not encrypted.
func (p *Property) Encryption() *QueryableEncryptionOptions {
	queryType, ok := p.annotations.Value(annotations.QueryableEncryptionType)
	if !ok {
		return nil
	}
	opts := &QueryableEncryptionOptions{
		QueryType:  queryType.(string),
		Contention: p.annotations.IntOr(annotations.EncryptionContention, 0),
		Sparsity:   p.annotations.IntOr(annotations.EncryptionSparsity, 0),
		TrimFactor: p.annotations.IntOr(annotations.EncryptionTrimFactor, 0),
	}
	if keyID, ok := p.annotations.Value(annotations.EncryptionDataKeyID); ok {
		id := keyID.(uuid.UUID)
		opts.DataKeyID = &id
	}
	if min, ok := p.annotations.Value(annotations.EncryptionRangeMin); ok {
		opts.Min = min
	}
	if max, ok := p.annotations.Value(annotations.EncryptionRangeMax); ok {
		opts.Max = max
	}
	return opts
}

// SetEncryption validates queryable encryption options and records them on
// the property's annotation store. Encryption is always configured from
// explicit code; there is no convention that enables it.
func (p *Property) SetEncryption(opts *QueryableEncryptionOptions) error {
	p.declaring.model.checkMutable()
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("invalid encryption configuration for property %s.%s: %w", p.declaring.Name(), p.name, err)
	}
	p.annotations.Set(annotations.QueryableEncryptionType, opts.QueryType, annotations.SourceExplicit)
	p.annotations.Set(annotations.EncryptionContention, opts.Contention, annotations.SourceExplicit)
	if opts.DataKeyID != nil {
		p.annotations.Set(annotations.EncryptionDataKeyID, *opts.DataKeyID, annotations.SourceExplicit)
	}
	if opts.QueryType == EncryptionQueryRange {
		if opts.Sparsity != 0 {
			p.annotations.Set(annotations.EncryptionSparsity, opts.Sparsity, annotations.SourceExplicit)
		}
		if opts.TrimFactor != 0 {
			p.annotations.Set(annotations.EncryptionTrimFactor, opts.TrimFactor, annotations.SourceExplicit)
		}
		p.annotations.Set(annotations.EncryptionRangeMin, opts.Min, annotations.SourceExplicit)
		p.annotations.Set(annotations.EncryptionRangeMax, opts.Max, annotations.SourceExplicit)
	}
	return nil
}

// defaultElementName derives the conventional document field name for a Go
// struct field name: "ID" maps to the document key "_id", everything else
// to the lower-camel form of the field name.
func defaultElementName(fieldName string) string {
	if fieldName == "ID" {
		return "_id"
	}
	if fieldName == strings.ToUpper(fieldName) {
		return strings.ToLower(fieldName)
	}
	return strings.ToLower(fieldName[:1]) + fieldName[1:]
}

// DecimalToDecimal128 converts a decimal value to its BSON Decimal128 form
// for properties with RepresentationDecimal128.
func DecimalToDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	parsed, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("cannot represent decimal %s as Decimal128: %w", d.String(), err)
	}
	return parsed, nil
}

// Decimal128ToDecimal converts a stored BSON Decimal128 back to a decimal
// value.
func Decimal128ToDecimal(d primitive.Decimal128) (decimal.Decimal, error) {
	parsed, err := decimal.NewFromString(d.String())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("cannot parse Decimal128 %s as a decimal: %w", d.String(), err)
	}
	return parsed, nil
}
