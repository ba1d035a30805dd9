package indexmgmt

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nlstn/go-mongomap/internal/metadata"
	"github.com/nlstn/go-mongomap/internal/searchindex"
)

type fakeIndex struct {
	collection string
	name       string
	indexType  string
	definition bson.D
	queryable  bool
	status     string
}

type fakeClient struct {
	searchIndexes   []fakeIndex
	ordinaryCreates []string
	listCalls       int
	listErr         error

	// becomeQueryableAfter flips all indexes queryable once the listing
	// has been polled that many times.
	becomeQueryableAfter int
}

func (f *fakeClient) CreateSearchIndex(ctx context.Context, collection, name, indexType string, definition bson.D) error {
	f.searchIndexes = append(f.searchIndexes, fakeIndex{
		collection: collection,
		name:       name,
		indexType:  indexType,
		definition: definition,
	})
	return nil
}

func (f *fakeClient) ListSearchIndexes(ctx context.Context, collection string) ([]SearchIndexStatus, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	var statuses []SearchIndexStatus
	for i := range f.searchIndexes {
		idx := &f.searchIndexes[i]
		if idx.collection != collection {
			continue
		}
		if f.becomeQueryableAfter > 0 && f.listCalls > f.becomeQueryableAfter {
			idx.queryable = true
		}
		raw, err := bson.Marshal(idx.definition)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, SearchIndexStatus{
			Name:       idx.name,
			Type:       idx.indexType,
			Status:     idx.status,
			Queryable:  idx.queryable,
			Definition: raw,
		})
	}
	return statuses, nil
}

func (f *fakeClient) DropSearchIndex(ctx context.Context, collection, name string) error {
	for i, idx := range f.searchIndexes {
		if idx.collection == collection && idx.name == name {
			f.searchIndexes = append(f.searchIndexes[:i], f.searchIndexes[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeClient) CreateIndex(ctx context.Context, collection, name string, keys bson.D, unique, sparse bool) error {
	f.ordinaryCreates = append(f.ordinaryCreates, collection+"/"+name)
	return nil
}

type document struct {
	ID        primitive.ObjectID `bson:"_id"`
	Title     string
	Embedding []float64
}

func buildIndexedModel(t *testing.T) *metadata.Model {
	t.Helper()
	m := metadata.NewModel(nil)
	entity, err := m.AnalyzeEntity(&document{})
	if err != nil {
		t.Fatalf("AnalyzeEntity failed: %v", err)
	}

	search := entity.GetOrAddSearchIndex("title_search")
	search.StringField("title")

	vector, err := entity.AddIndex("Embedding")
	if err != nil {
		t.Fatalf("AddIndex failed: %v", err)
	}
	err = vector.SetVectorOptions(&metadata.VectorIndexOptions{NumDimensions: 4, Similarity: searchindex.SimilarityCosine})
	if err != nil {
		t.Fatalf("SetVectorOptions failed: %v", err)
	}

	if _, err := entity.AddIndex("Title"); err != nil {
		t.Fatalf("AddIndex failed: %v", err)
	}

	if err := m.Freeze(); err != nil {
		t.Fatalf("Freeze failed: %v", err)
	}
	return m
}

func TestEnsureIndexesCreatesMissing(t *testing.T) {
	m := buildIndexedModel(t)
	client := &fakeClient{}
	manager := NewManager(client)

	created, err := manager.EnsureIndexes(context.Background(), m)
	if err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}

	if len(client.searchIndexes) != 2 {
		t.Fatalf("expected 2 search index creates, got %d", len(client.searchIndexes))
	}
	types := map[string]string{}
	for _, idx := range client.searchIndexes {
		if idx.collection != "document" {
			t.Errorf("index %q created on collection %q, want document", idx.name, idx.collection)
		}
		types[idx.name] = idx.indexType
	}
	if types["title_search"] != IndexTypeSearch {
		t.Errorf("title_search created with type %q", types["title_search"])
	}
	if types["embedding_idx"] != IndexTypeVectorSearch {
		t.Errorf("embedding_idx created with type %q", types["embedding_idx"])
	}

	if len(client.ordinaryCreates) != 1 || client.ordinaryCreates[0] != "document/title_idx" {
		t.Errorf("ordinary creates = %v, want [document/title_idx]", client.ordinaryCreates)
	}
	if len(created["document"]) != 2 {
		t.Errorf("created listing = %v, want both search indexes under document", created)
	}
}

func TestEnsureIndexesSkipsExisting(t *testing.T) {
	m := buildIndexedModel(t)
	client := &fakeClient{}
	manager := NewManager(client)

	if _, err := manager.EnsureIndexes(context.Background(), m); err != nil {
		t.Fatalf("first EnsureIndexes failed: %v", err)
	}
	before := len(client.searchIndexes)

	created, err := manager.EnsureIndexes(context.Background(), m)
	if err != nil {
		t.Fatalf("second EnsureIndexes failed: %v", err)
	}
	if len(client.searchIndexes) != before {
		t.Errorf("existing indexes should not be recreated: %d -> %d", before, len(client.searchIndexes))
	}
	if len(created) != 0 {
		t.Errorf("second run should create nothing, got %v", created)
	}
}

func TestDropSearchIndexRemovesIndex(t *testing.T) {
	m := buildIndexedModel(t)
	client := &fakeClient{}
	manager := NewManager(client)

	if _, err := manager.EnsureIndexes(context.Background(), m); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}
	before := len(client.searchIndexes)

	if err := manager.DropSearchIndex(context.Background(), "document", "title_search"); err != nil {
		t.Fatalf("DropSearchIndex failed: %v", err)
	}
	if len(client.searchIndexes) != before-1 {
		t.Fatalf("expected one index dropped, have %d of %d", len(client.searchIndexes), before)
	}
	for _, idx := range client.searchIndexes {
		if idx.name == "title_search" {
			t.Error("title_search should no longer exist")
		}
	}

	created, err := manager.EnsureIndexes(context.Background(), m)
	if err != nil {
		t.Fatalf("EnsureIndexes after drop failed: %v", err)
	}
	if len(created["document"]) != 1 || created["document"][0] != "title_search" {
		t.Errorf("re-run should recreate only the dropped index, got %v", created)
	}
}

func TestWaitUntilReadyPollsUntilQueryable(t *testing.T) {
	m := buildIndexedModel(t)
	client := &fakeClient{}
	manager := NewManager(client, WithPollInterval(time.Millisecond))

	created, err := manager.EnsureIndexes(context.Background(), m)
	if err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}
	client.becomeQueryableAfter = client.listCalls + 2

	err = manager.WaitUntilReady(context.Background(), "document", created["document"])
	if err != nil {
		t.Fatalf("WaitUntilReady failed: %v", err)
	}
}

func TestWaitUntilReadyHonorsContext(t *testing.T) {
	m := buildIndexedModel(t)
	client := &fakeClient{}
	manager := NewManager(client, WithPollInterval(time.Millisecond))

	created, err := manager.EnsureIndexes(context.Background(), m)
	if err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	// Indexes never become queryable.
	if err := manager.WaitUntilReady(ctx, "document", created["document"]); err == nil {
		t.Fatal("WaitUntilReady should fail when the context expires")
	}
}

func TestWaitUntilReadyFailsOnFailedIndex(t *testing.T) {
	client := &fakeClient{searchIndexes: []fakeIndex{{
		collection: "document",
		name:       "broken",
		indexType:  IndexTypeSearch,
		status:     "FAILED",
	}}}
	manager := NewManager(client, WithPollInterval(time.Millisecond))

	if err := manager.WaitUntilReady(context.Background(), "document", []string{"broken"}); err == nil {
		t.Fatal("a FAILED index should abort the wait")
	}
}

func TestFingerprintStability(t *testing.T) {
	doc := bson.D{{Key: "mappings", Value: bson.D{{Key: "dynamic", Value: true}}}}
	first, err := Fingerprint(doc)
	if err != nil {
		t.Fatalf("Fingerprint failed: %v", err)
	}
	second, err := Fingerprint(bson.D{{Key: "mappings", Value: bson.D{{Key: "dynamic", Value: true}}}})
	if err != nil {
		t.Fatalf("Fingerprint failed: %v", err)
	}
	if first != second {
		t.Error("equal documents must fingerprint equally")
	}

	changed, err := Fingerprint(bson.D{{Key: "mappings", Value: bson.D{{Key: "dynamic", Value: false}}}})
	if err != nil {
		t.Fatalf("Fingerprint failed: %v", err)
	}
	if changed == first {
		t.Error("different documents should fingerprint differently")
	}
}
