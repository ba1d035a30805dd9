package indexmgmt

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/nlstn/go-mongomap/internal/metadata"
	"github.com/nlstn/go-mongomap/internal/observability"
)

// Manager reconciles the indexes declared on a frozen model with the
// indexes that exist on the database. Missing indexes are created; an
// existing index whose definition differs from the model is reported as
// drift and left alone. Dropping or rebuilding drifted indexes is an
// operational decision the manager does not take by itself.
type Manager struct {
	client       ClientWrapper
	logger       *slog.Logger
	obs          *observability.Config
	pollInterval time.Duration
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithObservability attaches tracing and metrics to manager operations.
func WithObservability(obs *observability.Config) ManagerOption {
	return func(m *Manager) {
		m.obs = obs
	}
}

// WithPollInterval overrides the readiness polling interval, which
// defaults to five seconds.
func WithPollInterval(interval time.Duration) ManagerOption {
	return func(m *Manager) {
		if interval > 0 {
			m.pollInterval = interval
		}
	}
}

// NewManager creates a manager over the given client.
func NewManager(client ClientWrapper, opts ...ManagerOption) *Manager {
	m := &Manager{
		client:       client,
		logger:       slog.Default(),
		pollInterval: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// EnsureIndexes creates every index the model declares that does not yet
// exist on the database. It returns the names of the search and vector
// indexes it created, which callers can pass to WaitUntilReady.
func (m *Manager) EnsureIndexes(ctx context.Context, model *metadata.Model) (map[string][]string, error) {
	ctx, span := m.startSpan(ctx, "mongomap.EnsureIndexes")
	defer span.End()

	created := make(map[string][]string)
	listed := make(map[string][]SearchIndexStatus)

	for _, entity := range model.EntityTypes() {
		collection := entity.DocumentRoot().CollectionName()

		if len(entity.SearchIndexes()) > 0 || hasVectorIndex(entity) {
			if _, ok := listed[collection]; !ok {
				statuses, err := m.client.ListSearchIndexes(ctx, collection)
				if err != nil {
					return nil, err
				}
				listed[collection] = statuses
			}
		}

		for _, def := range entity.SearchIndexes() {
			name, err := m.ensureSearchIndex(ctx, collection, def.Name(), IndexTypeSearch, def, listed[collection])
			if err != nil {
				return nil, err
			}
			if name != "" {
				created[collection] = append(created[collection], name)
			}
		}

		for _, idx := range entity.Indexes() {
			if idx.VectorOptions() != nil {
				def, err := idx.VectorDefinition()
				if err != nil {
					return nil, err
				}
				name, err := m.ensureSearchIndex(ctx, collection, idx.Name(), IndexTypeVectorSearch, def, listed[collection])
				if err != nil {
					return nil, err
				}
				if name != "" {
					created[collection] = append(created[collection], name)
				}
				continue
			}
			if err := m.ensureOrdinaryIndex(ctx, collection, entity, idx); err != nil {
				return nil, err
			}
		}
	}
	return created, nil
}

type bsonSerializable interface {
	Name() string
	ToBson() (bson.D, error)
}

// ensureSearchIndex creates the index when missing and returns its name,
// or "" when it already exists.
func (m *Manager) ensureSearchIndex(ctx context.Context, collection, name, indexType string, def bsonSerializable, existing []SearchIndexStatus) (string, error) {
	doc, err := def.ToBson()
	if err != nil {
		return "", err
	}

	for _, status := range existing {
		if status.Name != name {
			continue
		}
		m.checkDrift(ctx, collection, name, doc, status)
		return "", nil
	}

	if err := m.client.CreateSearchIndex(ctx, collection, name, indexType, doc); err != nil {
		return "", err
	}
	m.logger.Info("created index", "collection", collection, "index", name, "type", indexType)
	if m.obs != nil {
		m.obs.IndexCreates.Add(ctx, 1, indexAttributes(collection, name, indexType))
	}
	return name, nil
}

// checkDrift fingerprints the model definition against the server's
// latest definition and logs a warning when they differ.
func (m *Manager) checkDrift(ctx context.Context, collection, name string, want bson.D, status SearchIndexStatus) {
	if len(status.Definition) == 0 {
		return
	}
	wantSum, err := Fingerprint(want)
	if err != nil {
		m.logger.Warn("cannot fingerprint model index definition", "collection", collection, "index", name, "error", err)
		return
	}
	var gotDoc bson.D
	if err := bson.Unmarshal(status.Definition, &gotDoc); err != nil {
		m.logger.Warn("cannot decode server index definition", "collection", collection, "index", name, "error", err)
		return
	}
	gotSum, err := Fingerprint(gotDoc)
	if err != nil {
		m.logger.Warn("cannot fingerprint server index definition", "collection", collection, "index", name, "error", err)
		return
	}
	if wantSum != gotSum {
		m.logger.Warn("index definition drifted from the model; drop and re-run EnsureIndexes to rebuild it",
			"collection", collection, "index", name)
		if m.obs != nil {
			m.obs.IndexDriftSeen.Add(ctx, 1, indexAttributes(collection, name, status.Type))
		}
	}
}

func (m *Manager) ensureOrdinaryIndex(ctx context.Context, collection string, entity *metadata.EntityType, idx *metadata.Index) error {
	keys := make(bson.D, 0, len(idx.Properties()))
	for _, p := range idx.Properties() {
		keys = append(keys, bson.E{Key: entity.ElementPath(p), Value: 1})
	}
	if err := m.client.CreateIndex(ctx, collection, idx.Name(), keys, idx.IsUnique(), idx.IsSparse()); err != nil {
		return err
	}
	m.logger.Debug("ensured ordinary index", "collection", collection, "index", idx.Name())
	return nil
}

// DropSearchIndex removes a search or vector index from the collection,
// typically before re-running EnsureIndexes to rebuild a drifted index.
func (m *Manager) DropSearchIndex(ctx context.Context, collection, name string) error {
	ctx, span := m.startSpan(ctx, "mongomap.DropSearchIndex")
	defer span.End()

	if err := m.client.DropSearchIndex(ctx, collection, name); err != nil {
		return err
	}
	m.logger.Info("dropped index", "collection", collection, "index", name)
	if m.obs != nil {
		m.obs.IndexDrops.Add(ctx, 1, indexAttributes(collection, name, ""))
	}
	return nil
}

// WaitUntilReady polls the collection's search index listing until every
// named index reports queryable, the context is cancelled, or an index
// reports a failed status.
func (m *Manager) WaitUntilReady(ctx context.Context, collection string, names []string) error {
	if len(names) == 0 {
		return nil
	}
	ctx, span := m.startSpan(ctx, "mongomap.WaitUntilReady")
	defer span.End()
	start := time.Now()

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		statuses, err := m.client.ListSearchIndexes(ctx, collection)
		if err != nil {
			return err
		}
		pending, err := pendingIndexes(collection, names, statuses)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			if m.obs != nil {
				m.obs.IndexWaits.Record(ctx, time.Since(start).Milliseconds(), indexAttributes(collection, "", ""))
			}
			return nil
		}
		m.logger.Debug("waiting for indexes to become queryable", "collection", collection, "pending", pending)

		select {
		case <-ctx.Done():
			return fmt.Errorf("gave up waiting for indexes %v on collection %s: %w", pending, collection, ctx.Err())
		case <-ticker.C:
		}
	}
}

// WaitUntilReadySync is the synchronous convenience variant bounded by a
// timeout instead of a caller-supplied context.
func (m *Manager) WaitUntilReadySync(collection string, names []string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return m.WaitUntilReady(ctx, collection, names)
}

// EnsureIndexesSync is the synchronous convenience variant of
// EnsureIndexes followed by readiness waiting, bounded by a timeout.
func (m *Manager) EnsureIndexesSync(model *metadata.Model, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	created, err := m.EnsureIndexes(ctx, model)
	if err != nil {
		return err
	}
	for collection, names := range created {
		if err := m.WaitUntilReady(ctx, collection, names); err != nil {
			return err
		}
	}
	return nil
}

func pendingIndexes(collection string, names []string, statuses []SearchIndexStatus) ([]string, error) {
	byName := make(map[string]SearchIndexStatus, len(statuses))
	for _, s := range statuses {
		byName[s.Name] = s
	}
	var pending []string
	for _, name := range names {
		status, ok := byName[name]
		if !ok {
			pending = append(pending, name)
			continue
		}
		if status.Status == "FAILED" {
			return nil, fmt.Errorf("index %q on collection %s failed to build", name, collection)
		}
		if !status.Queryable {
			pending = append(pending, name)
		}
	}
	return pending, nil
}

func hasVectorIndex(entity *metadata.EntityType) bool {
	for _, idx := range entity.Indexes() {
		if idx.VectorOptions() != nil {
			return true
		}
	}
	return false
}

func (m *Manager) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if m.obs == nil {
		return noop.NewTracerProvider().Tracer("").Start(ctx, name)
	}
	return m.obs.Tracer().Start(ctx, name)
}

func indexAttributes(collection, index, indexType string) metric.MeasurementOption {
	attrs := []attribute.KeyValue{attribute.String("collection", collection)}
	if index != "" {
		attrs = append(attrs, attribute.String("index", index))
	}
	if indexType != "" {
		attrs = append(attrs, attribute.String("type", indexType))
	}
	return metric.WithAttributes(attrs...)
}

// Fingerprint hashes a serialized index definition through its canonical
// extended JSON form, giving a stable content identity for drift checks.
func Fingerprint(doc bson.D) (uint64, error) {
	data, err := bson.MarshalExtJSON(doc, true, false)
	if err != nil {
		return 0, fmt.Errorf("cannot canonicalize index definition: %w", err)
	}
	return xxhash.Sum64(data), nil
}
