package query

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nlstn/go-mongomap/internal/annotations"
	"github.com/nlstn/go-mongomap/internal/metadata"
	"github.com/nlstn/go-mongomap/internal/searchindex"
)

type profile struct {
	Bio       string
	Embedding []float64
}

type account struct {
	ID      primitive.ObjectID `bson:"_id"`
	Email   string
	Profile profile
	Friend  *linkedAccount `mongomap:"ref"`
}

type linkedAccount struct {
	ID primitive.ObjectID `bson:"_id"`
}

func buildQueryModel(t *testing.T) *metadata.Model {
	t.Helper()
	m := metadata.NewModel(nil)
	if _, err := m.AnalyzeEntity(&account{}); err != nil {
		t.Fatalf("AnalyzeEntity failed: %v", err)
	}
	return m
}

func addVectorIndex(t *testing.T, entity *metadata.EntityType, name, property string) *metadata.Index {
	t.Helper()
	idx, err := entity.AddIndex(property)
	if err != nil {
		t.Fatalf("AddIndex failed: %v", err)
	}
	if name != "" {
		if ok, err := idx.SetName(name, annotations.SourceExplicit); err != nil || !ok {
			t.Fatalf("SetName failed: ok=%v err=%v", ok, err)
		}
	}
	err = idx.SetVectorOptions(&metadata.VectorIndexOptions{
		NumDimensions: 1536,
		Similarity:    searchindex.SimilarityCosine,
	})
	if err != nil {
		t.Fatalf("SetVectorOptions failed: %v", err)
	}
	return idx
}

func TestResolvePathWalksOwnedNavigations(t *testing.T) {
	m := buildQueryModel(t)

	member, err := ResolvePath(m.EntityType("account"), "Profile.Embedding")
	if err != nil {
		t.Fatalf("ResolvePath failed: %v", err)
	}
	if member.Property.Name() != "Embedding" {
		t.Errorf("resolved property = %s, want Embedding", member.Property.Name())
	}
	if member.Declaring.Name() != "profile" {
		t.Errorf("declaring type = %s, want profile", member.Declaring.Name())
	}
	if member.ElementPath != "profile.embedding" {
		t.Errorf("element path = %q, want profile.embedding", member.ElementPath)
	}
}

func TestResolvePathAcceptsSlashSeparators(t *testing.T) {
	m := buildQueryModel(t)
	member, err := ResolvePath(m.EntityType("account"), "Profile/Bio")
	if err != nil {
		t.Fatalf("ResolvePath failed: %v", err)
	}
	if member.ElementPath != "profile.bio" {
		t.Errorf("element path = %q, want profile.bio", member.ElementPath)
	}
}

func TestResolvePathFailures(t *testing.T) {
	m := buildQueryModel(t)
	entity := m.EntityType("account")

	cases := []string{
		"",
		"Nope",
		"Profile.Nope",
		"Email.Deeper",
		"Profile",
		"Friend.ID",
	}
	for _, path := range cases {
		if _, err := ResolvePath(entity, path); !errors.Is(err, ErrUnmappedMember) {
			t.Errorf("ResolvePath(%q) = %v, want ErrUnmappedMember", path, err)
		}
	}
}

func TestVectorResolutionImplicitSingle(t *testing.T) {
	m := buildQueryModel(t)
	profileType := m.EntityType("profile")
	idx := addVectorIndex(t, profileType, "bio_vectors", "Embedding")

	member, err := ResolvePath(m.EntityType("account"), "Profile.Embedding")
	if err != nil {
		t.Fatalf("ResolvePath failed: %v", err)
	}

	resolved, err := ResolveVectorIndex(member, "")
	if err != nil {
		t.Fatalf("implicit resolution with one candidate should succeed: %v", err)
	}
	if resolved != idx {
		t.Error("implicit resolution should select the sole candidate")
	}
}

func TestVectorResolutionZeroCandidates(t *testing.T) {
	m := buildQueryModel(t)
	member, err := ResolvePath(m.EntityType("account"), "Profile.Embedding")
	if err != nil {
		t.Fatalf("ResolvePath failed: %v", err)
	}

	if _, err := ResolveVectorIndex(member, ""); !errors.Is(err, ErrNoVectorIndex) {
		t.Errorf("unnamed lookup with zero candidates = %v, want ErrNoVectorIndex", err)
	}
	if _, err := ResolveVectorIndex(member, "bio_vectors"); !errors.Is(err, ErrNoVectorIndex) {
		t.Errorf("named lookup with zero candidates = %v, want ErrNoVectorIndex", err)
	}
}

func TestVectorResolutionAmbiguous(t *testing.T) {
	m := buildQueryModel(t)
	profileType := m.EntityType("profile")
	addVectorIndex(t, profileType, "first", "Embedding")
	addVectorIndex(t, profileType, "second", "Embedding")

	member, err := ResolvePath(m.EntityType("account"), "Profile.Embedding")
	if err != nil {
		t.Fatalf("ResolvePath failed: %v", err)
	}

	if _, err := ResolveVectorIndex(member, ""); !errors.Is(err, ErrAmbiguousVectorIndex) {
		t.Errorf("unnamed lookup with two candidates = %v, want ErrAmbiguousVectorIndex", err)
	}

	resolved, err := ResolveVectorIndex(member, "second")
	if err != nil {
		t.Fatalf("naming one of two candidates should succeed: %v", err)
	}
	if resolved.Name() != "second" {
		t.Errorf("resolved %q, want second", resolved.Name())
	}
}

func TestVectorResolutionNamedAbsent(t *testing.T) {
	m := buildQueryModel(t)
	profileType := m.EntityType("profile")
	addVectorIndex(t, profileType, "idx1", "Embedding")

	member, err := ResolvePath(m.EntityType("account"), "Profile.Embedding")
	if err != nil {
		t.Fatalf("ResolvePath failed: %v", err)
	}

	if _, err := ResolveVectorIndex(member, "idx2"); !errors.Is(err, ErrVectorIndexNotDefined) {
		t.Errorf("absent name = %v, want ErrVectorIndexNotDefined", err)
	}
}

func TestVectorResolutionIgnoresNonFirstProperty(t *testing.T) {
	m := buildQueryModel(t)
	profileType := m.EntityType("profile")

	idx, err := profileType.AddIndex("Bio", "Embedding")
	if err != nil {
		t.Fatalf("AddIndex failed: %v", err)
	}
	err = idx.SetVectorOptions(&metadata.VectorIndexOptions{NumDimensions: 8, Similarity: searchindex.SimilarityCosine})
	if err != nil {
		t.Fatalf("SetVectorOptions failed: %v", err)
	}

	member, err := ResolvePath(m.EntityType("account"), "Profile.Embedding")
	if err != nil {
		t.Fatalf("ResolvePath failed: %v", err)
	}
	if _, err := ResolveVectorIndex(member, ""); !errors.Is(err, ErrNoVectorIndex) {
		t.Errorf("an index listing the property second is not a candidate, got %v", err)
	}
}

func TestBuildVectorSearchStage(t *testing.T) {
	stage, err := BuildVectorSearchStage("bio_vectors", "profile.embedding", []float64{0.1, 0.2}, StageOptions{
		Limit:  5,
		Filter: bson.D{{Key: "email", Value: "a@example.com"}},
	})
	if err != nil {
		t.Fatalf("BuildVectorSearchStage failed: %v", err)
	}

	if stage[0].Key != "$vectorSearch" {
		t.Fatalf("stage key = %q, want $vectorSearch", stage[0].Key)
	}
	spec := stage[0].Value.(bson.D)
	want := map[string]interface{}{
		"index":         "bio_vectors",
		"path":          "profile.embedding",
		"limit":         5,
		"numCandidates": 50,
	}
	for key, expected := range want {
		found := false
		for _, e := range spec {
			if e.Key == key {
				found = true
				if e.Value != expected {
					t.Errorf("%s = %v, want %v", key, e.Value, expected)
				}
			}
		}
		if !found {
			t.Errorf("stage spec is missing %s", key)
		}
	}
	for _, e := range spec {
		if e.Key == "exact" {
			t.Error("approximate search must not emit exact")
		}
	}
}

func TestBuildVectorSearchStageExact(t *testing.T) {
	stage, err := BuildVectorSearchStage("bio_vectors", "profile.embedding", []float64{0.1}, StageOptions{
		Limit: 3,
		Exact: true,
	})
	if err != nil {
		t.Fatalf("BuildVectorSearchStage failed: %v", err)
	}
	spec := stage[0].Value.(bson.D)
	for _, e := range spec {
		if e.Key == "numCandidates" {
			t.Error("exact search must not emit numCandidates")
		}
	}
}

func TestBuildVectorSearchStageValidation(t *testing.T) {
	if _, err := BuildVectorSearchStage("", "p", []float64{1}, StageOptions{Limit: 1}); err == nil {
		t.Error("missing index name should fail")
	}
	if _, err := BuildVectorSearchStage("i", "p", nil, StageOptions{Limit: 1}); err == nil {
		t.Error("empty query vector should fail")
	}
	if _, err := BuildVectorSearchStage("i", "p", []float64{1}, StageOptions{}); err == nil {
		t.Error("non-positive limit should fail")
	}
	if _, err := BuildVectorSearchStage("i", "p", []float64{1}, StageOptions{Limit: 10, NumCandidates: 5}); err == nil {
		t.Error("numCandidates below limit should fail")
	}
}
