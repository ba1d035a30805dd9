// Package mongomap maps strongly-typed Go entity models to MongoDB
// documents and Atlas Search indexes. You define plain Go structs, let
// conventions and `bson` tags derive the document topology, refine the
// mapping through a fluent builder, and get back a frozen, concurrency-safe
// model that resolves collection names, element paths, search index
// definitions and $vectorSearch stages.
//
// # Modeling
//
// Struct-shaped fields become owned (embedded) entity types; slices of
// structs become embedded arrays. A field tagged mongomap:"ref" keeps the
// target in its own collection instead:
//
//	type Customer struct {
//	    ID      primitive.ObjectID `bson:"_id"`
//	    Name    string             `bson:"full_name"`
//	    Address Address                       // embedded document
//	    Orders  []Order                       // embedded array
//	    Agent   *Agent             `mongomap:"ref"` // separate collection
//	}
//
// # Building a model
//
//	builder := mongomap.NewModelBuilder()
//	customers := builder.Entity(&Customer{})
//	customers.ToCollection("customers")
//	customers.HasSearchIndex("customer_search").StringMember("Name")
//	customers.HasVectorIndex("Embedding", 1536, mongomap.SimilarityCosine)
//	model, err := builder.Build()
//
// Build freezes the model: reads are safe for unrestricted concurrent use,
// and any further configuration attempt panics. Index definitions can then
// be pushed to the database through NewIndexManager.
package mongomap

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/nlstn/go-mongomap/internal/annotations"
	"github.com/nlstn/go-mongomap/internal/indexmgmt"
	"github.com/nlstn/go-mongomap/internal/metadata"
	"github.com/nlstn/go-mongomap/internal/observability"
	"github.com/nlstn/go-mongomap/internal/query"
	"github.com/nlstn/go-mongomap/internal/scope"
	"github.com/nlstn/go-mongomap/internal/searchindex"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Configuration sources, ordered by precedence. Convention-derived values
// lose to tag-derived ones, which lose to explicit builder calls.
const (
	SourceConvention     = annotations.SourceConvention
	SourceDataAnnotation = annotations.SourceDataAnnotation
	SourceExplicit       = annotations.SourceExplicit
)

// Vector similarity functions for HasVectorIndex.
const (
	SimilarityCosine     = searchindex.SimilarityCosine
	SimilarityEuclidean  = searchindex.SimilarityEuclidean
	SimilarityDotProduct = searchindex.SimilarityDotProduct
)

// Aliases for the metadata types the public API hands out. The mapping
// graph lives in internal packages; these keep caller-visible names in the
// root package.
type (
	// EntityType is a node of the mapped entity graph.
	EntityType = metadata.EntityType
	// Property is a mapped scalar member of an entity type.
	Property = metadata.Property
	// Navigation is a relationship between entity types.
	Navigation = metadata.Navigation
	// Index is an ordinary or vector index declared on an entity type.
	Index = metadata.Index
	// VectorIndexOptions configures a vector index.
	VectorIndexOptions = metadata.VectorIndexOptions
	// QueryableEncryptionOptions configures client-side queryable
	// encryption for a property.
	QueryableEncryptionOptions = metadata.QueryableEncryptionOptions
	// BSONRepresentation selects the stored BSON type of a property.
	BSONRepresentation = metadata.BSONRepresentation
	// DateTimeKind selects the clock stored time.Time values are read
	// against.
	DateTimeKind = metadata.DateTimeKind
	// SearchIndexDefinition is the root of a search index definition tree.
	SearchIndexDefinition = searchindex.TopLevelDefinition
	// QueryScope is a reusable pre-filter for vector search stages.
	QueryScope = scope.QueryScope
	// IndexManager reconciles model-declared indexes with the database.
	IndexManager = indexmgmt.Manager
	// ClientWrapper is the database boundary the index manager drives.
	ClientWrapper = indexmgmt.ClientWrapper
)

// Re-exported BSON representation values.
const (
	RepresentationDefault    = metadata.RepresentationDefault
	RepresentationObjectID   = metadata.RepresentationObjectID
	RepresentationString     = metadata.RepresentationString
	RepresentationInt32      = metadata.RepresentationInt32
	RepresentationInt64      = metadata.RepresentationInt64
	RepresentationDouble     = metadata.RepresentationDouble
	RepresentationDecimal128 = metadata.RepresentationDecimal128
	RepresentationDateTime   = metadata.RepresentationDateTime
	RepresentationBinary     = metadata.RepresentationBinary
	RepresentationBoolean    = metadata.RepresentationBoolean
)

// Queryable encryption query types.
const (
	EncryptionQueryEquality = metadata.EncryptionQueryEquality
	EncryptionQueryRange    = metadata.EncryptionQueryRange
)

// Re-exported DateTimeKind values.
const (
	DateTimeKindUnspecified = metadata.DateTimeKindUnspecified
	DateTimeKindUTC         = metadata.DateTimeKindUTC
	DateTimeKindLocal       = metadata.DateTimeKindLocal
)

// Re-exported resolution errors, for errors.Is branching.
var (
	ErrOwnershipCycle        = metadata.ErrOwnershipCycle
	ErrUnmappedMember        = query.ErrUnmappedMember
	ErrNoVectorIndex         = query.ErrNoVectorIndex
	ErrAmbiguousVectorIndex  = query.ErrAmbiguousVectorIndex
	ErrVectorIndexNotDefined = query.ErrVectorIndexNotDefined
)

// ObservabilityConfig configures OpenTelemetry-based observability for
// index management operations. Zero-value fields stay disabled.
type ObservabilityConfig struct {
	// TracerProvider provides the tracer for index management spans.
	TracerProvider trace.TracerProvider

	// MeterProvider provides the meter for index management metrics.
	MeterProvider metric.MeterProvider

	// ServiceName overrides the service name attached to spans.
	ServiceName string

	// ServiceVersion is attached to spans when set.
	ServiceVersion string
}

// ModelBuilder accumulates entity registrations and fluent configuration,
// then produces a frozen Model. It is single-threaded by design; build the
// model once during startup.
type ModelBuilder struct {
	model  *metadata.Model
	logger *slog.Logger
	obs    *observability.Config
	err    error
}

// BuilderOption configures a ModelBuilder.
type BuilderOption func(*ModelBuilder)

// WithLogger sets the logger used during model building and by the index
// manager created from the model.
func WithLogger(logger *slog.Logger) BuilderOption {
	return func(b *ModelBuilder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewModelBuilder creates an empty model builder.
func NewModelBuilder(opts ...BuilderOption) *ModelBuilder {
	b := &ModelBuilder{logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	b.model = metadata.NewModel(b.logger)
	return b
}

// SetObservability configures OpenTelemetry tracing and metrics for index
// management operations created from the built model.
func (b *ModelBuilder) SetObservability(cfg ObservabilityConfig) error {
	opts := []observability.Option{observability.WithLogger(b.logger)}
	if cfg.TracerProvider != nil {
		opts = append(opts, observability.WithTracerProvider(cfg.TracerProvider))
	}
	if cfg.MeterProvider != nil {
		opts = append(opts, observability.WithMeterProvider(cfg.MeterProvider))
	}
	if cfg.ServiceName != "" {
		opts = append(opts, observability.WithServiceName(cfg.ServiceName))
	}
	if cfg.ServiceVersion != "" {
		opts = append(opts, observability.WithServiceVersion(cfg.ServiceVersion))
	}
	obs, err := observability.NewConfig(opts...)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	b.obs = obs
	return nil
}

// Entity registers a struct as an entity type, analyzing its fields by
// convention, and returns its fluent builder. Registering the same struct
// again returns a builder over the existing registration.
func (b *ModelBuilder) Entity(entity interface{}) *EntityTypeBuilder {
	t, err := b.model.AnalyzeEntity(entity)
	if err != nil {
		b.recordError(err)
		return &EntityTypeBuilder{parent: b}
	}
	return &EntityTypeBuilder{parent: b, entity: t}
}

// SharedEntity registers a struct under a caller-chosen entity type name,
// allowing one Go type to back several independently configured mappings.
func (b *ModelBuilder) SharedEntity(name string, entity interface{}) *EntityTypeBuilder {
	t, err := b.model.AnalyzeSharedEntity(name, entity)
	if err != nil {
		b.recordError(err)
		return &EntityTypeBuilder{parent: b}
	}
	return &EntityTypeBuilder{parent: b, entity: t}
}

// recordError keeps the first configuration error; Build reports it.
func (b *ModelBuilder) recordError(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Build validates the configuration, freezes the model and returns it.
// The first error recorded during fluent configuration is returned here;
// a builder whose Build fails must be discarded.
func (b *ModelBuilder) Build() (*Model, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := b.model.Freeze(); err != nil {
		return nil, err
	}
	b.logger.Debug("model built", "entityTypes", len(b.model.EntityTypes()))
	return &Model{meta: b.model, obs: b.obs, logger: b.logger}, nil
}

// Model is the frozen, immutable mapping model. All methods are safe for
// concurrent use.
type Model struct {
	meta   *metadata.Model
	obs    *observability.Config
	logger *slog.Logger
}

// EntityType looks an entity type up by registration name, which is the
// Go type name unless the registration was shared.
func (m *Model) EntityType(name string) *EntityType {
	return m.meta.EntityType(name)
}

// EntityTypeOf resolves the entity type of a struct value or pointer.
// Shared-type registrations cannot be resolved this way; look them up by
// name instead.
func (m *Model) EntityTypeOf(entity interface{}) *EntityType {
	goType, err := entityReflectType(entity)
	if err != nil {
		return nil
	}
	return m.meta.FindEntityType(goType)
}

// EntityTypes returns all registered entity types sorted by name.
func (m *Model) EntityTypes() []*EntityType {
	return m.meta.EntityTypes()
}

// DocumentRoots returns the entity types that map to their own
// collections.
func (m *Model) DocumentRoots() []*EntityType {
	return m.meta.DocumentRoots()
}

// Metadata exposes the underlying metadata model for advanced callers.
func (m *Model) Metadata() *metadata.Model {
	return m.meta
}

// NewIndexManager creates an index manager that reconciles this model's
// index declarations through the given client. Wrap a *mongo.Database with
// NewDatabaseClient for the production client.
func (m *Model) NewIndexManager(client ClientWrapper, opts ...indexmgmt.ManagerOption) *IndexManager {
	managerOpts := []indexmgmt.ManagerOption{indexmgmt.WithLogger(m.logger)}
	if m.obs != nil {
		managerOpts = append(managerOpts, indexmgmt.WithObservability(m.obs))
	}
	managerOpts = append(managerOpts, opts...)
	return indexmgmt.NewManager(client, managerOpts...)
}

// NewDatabaseClient wraps a mongo database handle as the index manager's
// client.
var NewDatabaseClient = indexmgmt.NewDatabaseClient

func entityReflectType(entity interface{}) (reflect.Type, error) {
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
