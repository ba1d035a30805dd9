package searchindex

import (
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

// docValue looks up a key in a serialized document.
func docValue(t *testing.T, doc bson.D, key string) interface{} {
	t.Helper()
	for _, e := range doc {
		if e.Key == key {
			return e.Value
		}
	}
	return nil
}

func mustToBson(t *testing.T, d Definition) bson.D {
	t.Helper()
	doc, err := d.ToBson()
	if err != nil {
		t.Fatalf("ToBson() failed for %q: %v", d.Name(), err)
	}
	return doc
}

func TestGetOrAddReturnsSameInstanceForSameNameAndType(t *testing.T) {
	def := NewTopLevelDefinition("products_search")

	first := def.StringField("name")
	second := def.StringField("name")
	if first != second {
		t.Error("StringField called twice with the same name should return the same instance")
	}
	if len(def.Fields()) != 1 {
		t.Errorf("expected 1 field definition, got %d", len(def.Fields()))
	}
}

func TestGetOrAddCreatesIndependentInstanceForDifferentType(t *testing.T) {
	def := NewTopLevelDefinition("products_search")

	str := def.StringField("name")
	auto := def.AutocompleteField("name")
	if Definition(str) == Definition(auto) {
		t.Fatal("definitions of different types must be independent instances")
	}
	if len(def.Fields()) != 2 {
		t.Errorf("expected 2 field definitions under one name, got %d", len(def.Fields()))
	}
}

func TestGetOrAddMutatesExistingInstance(t *testing.T) {
	def := NewTopLevelDefinition("products_search")

	def.StringField("name").Analyzer = "lucene.standard"
	def.StringField("name").SearchAnalyzer = "lucene.keyword"

	field := def.StringField("name")
	if field.Analyzer != "lucene.standard" || field.SearchAnalyzer != "lucene.keyword" {
		t.Errorf("cumulative configuration lost: analyzer=%q searchAnalyzer=%q", field.Analyzer, field.SearchAnalyzer)
	}
}

func TestDuplicateFieldNamesSerializeAsArray(t *testing.T) {
	def := NewTopLevelDefinition("products_search")
	def.StringField("name")
	def.AutocompleteField("name")
	def.NumberField("price")

	doc := mustToBson(t, def)
	mappings := docValue(t, doc, "mappings").(bson.D)
	fields := docValue(t, mappings, "fields").(bson.D)

	nameValue := docValue(t, fields, "name")
	arr, ok := nameValue.(bson.A)
	if !ok {
		t.Fatalf("two definitions under one field name should serialize as an array, got %T", nameValue)
	}
	if len(arr) != 2 {
		t.Fatalf("expected 2 entries under field name, got %d", len(arr))
	}

	priceValue := docValue(t, fields, "price")
	if _, ok := priceValue.(bson.D); !ok {
		t.Errorf("a single definition should serialize as a scalar document, got %T", priceValue)
	}
}

func TestTopLevelSerializationShape(t *testing.T) {
	def := NewTopLevelDefinition("products_search")
	def.Dynamic = true
	def.Analyzer = "lucene.standard"
	def.SearchAnalyzer = "lucene.keyword"
	def.NumPartitions = 4
	def.StringField("description")

	doc := mustToBson(t, def)

	mappings, ok := docValue(t, doc, "mappings").(bson.D)
	if !ok {
		t.Fatal("serialized definition is missing the mappings section")
	}
	if dynamic := docValue(t, mappings, "dynamic"); dynamic != true {
		t.Errorf("mappings.dynamic = %v, want true", dynamic)
	}
	if analyzer := docValue(t, doc, "analyzer"); analyzer != "lucene.standard" {
		t.Errorf("analyzer = %v, want lucene.standard", analyzer)
	}
	if searchAnalyzer := docValue(t, doc, "searchAnalyzer"); searchAnalyzer != "lucene.keyword" {
		t.Errorf("searchAnalyzer = %v, want lucene.keyword", searchAnalyzer)
	}
	if partitions := docValue(t, doc, "numPartitions"); partitions != 4 {
		t.Errorf("numPartitions = %v, want 4", partitions)
	}
	if stored := docValue(t, doc, "storedSource"); stored != nil {
		t.Errorf("unset storedSource must be omitted, got %v", stored)
	}
}

func TestDynamicTypeSetSerialization(t *testing.T) {
	def := NewTopLevelDefinition("products_search")
	def.TypeSetName = "string_only"
	def.TypeSet("string_only").StringMember()

	doc := mustToBson(t, def)
	mappings := docValue(t, doc, "mappings").(bson.D)
	dynamic, ok := docValue(t, mappings, "dynamic").(bson.D)
	if !ok {
		t.Fatalf("dynamic with a type set should serialize as a document, got %T", docValue(t, mappings, "dynamic"))
	}
	if name := docValue(t, dynamic, "typeSet"); name != "string_only" {
		t.Errorf("dynamic.typeSet = %v, want string_only", name)
	}

	typeSets, ok := docValue(t, doc, "typeSets").(bson.A)
	if !ok || len(typeSets) != 1 {
		t.Fatalf("expected one serialized type set, got %v", docValue(t, doc, "typeSets"))
	}
}

func TestEmbeddedFieldTypeFollowsCardinality(t *testing.T) {
	def := NewTopLevelDefinition("customers_search")

	single := def.EmbeddedField("address", false)
	singleDoc := mustToBson(t, single)
	if typ := docValue(t, singleDoc, "type"); typ != "document" {
		t.Errorf("single-valued embedded type = %v, want document", typ)
	}

	array := def.EmbeddedField("orders", true)
	arrayDoc := mustToBson(t, array)
	if typ := docValue(t, arrayDoc, "type"); typ != "embeddedDocuments" {
		t.Errorf("collection-valued embedded type = %v, want embeddedDocuments", typ)
	}
}

func TestEmbeddedFieldsNestRecursively(t *testing.T) {
	def := NewTopLevelDefinition("customers_search")
	address := def.EmbeddedField("address", false)
	city := address.EmbeddedField("city", false)
	city.StringField("name")

	doc := mustToBson(t, def)
	mappings := docValue(t, doc, "mappings").(bson.D)
	fields := docValue(t, mappings, "fields").(bson.D)
	addressDoc := docValue(t, fields, "address").(bson.D)
	addressFields := docValue(t, addressDoc, "fields").(bson.D)
	cityDoc := docValue(t, addressFields, "city").(bson.D)
	cityFields := docValue(t, cityDoc, "fields").(bson.D)
	if docValue(t, cityFields, "name") == nil {
		t.Error("third-level nested field missing from serialized definition")
	}
}

func TestStoredSourceIncludeOnly(t *testing.T) {
	def := NewTopLevelDefinition("products_search")
	def.IncludeStoredSourceField("name")
	def.IncludeStoredSourceField("price")

	doc := mustToBson(t, def)
	stored, ok := docValue(t, doc, "storedSource").(bson.D)
	if !ok {
		t.Fatalf("storedSource missing or wrong shape: %v", docValue(t, doc, "storedSource"))
	}
	include, ok := docValue(t, stored, "include").(bson.A)
	if !ok || len(include) != 2 {
		t.Fatalf("storedSource.include = %v, want two entries", docValue(t, stored, "include"))
	}
}

func TestStoredSourceExcludeOnly(t *testing.T) {
	def := NewTopLevelDefinition("products_search")
	def.ExcludeStoredSourceField("internalNotes")

	doc := mustToBson(t, def)
	stored := docValue(t, doc, "storedSource").(bson.D)
	exclude, ok := docValue(t, stored, "exclude").(bson.A)
	if !ok || len(exclude) != 1 || exclude[0] != "internalNotes" {
		t.Fatalf("storedSource.exclude = %v, want [internalNotes]", docValue(t, stored, "exclude"))
	}
}

func TestStoredSourceMixedListsFail(t *testing.T) {
	def := NewTopLevelDefinition("products_search")
	def.IncludeStoredSourceField("name")
	def.ExcludeStoredSourceField("price")

	if _, err := def.ToBson(); err == nil {
		t.Fatal("mixing include and exclude stored-source lists should fail serialization")
	} else if !strings.Contains(err.Error(), "products_search") {
		t.Errorf("error should name the offending definition: %v", err)
	}
}

func TestStoredSourceMixedAcrossNestingFails(t *testing.T) {
	def := NewTopLevelDefinition("customers_search")
	def.IncludeStoredSourceField("name")
	def.EmbeddedField("address", false).ExcludeStoredSourceField("street")

	if _, err := def.ToBson(); err == nil {
		t.Fatal("include at the root and exclude in a nested document should fail")
	}
}

func TestStoredSourcePrefixesNestedDocumentPaths(t *testing.T) {
	def := NewTopLevelDefinition("customers_search")
	address := def.EmbeddedField("address", false)
	address.IncludeStoredSourceField("street")
	city := address.EmbeddedField("city", false)
	city.IncludeStoredSourceField("name")

	doc := mustToBson(t, def)
	stored := docValue(t, doc, "storedSource").(bson.D)
	include := docValue(t, stored, "include").(bson.A)

	want := map[string]bool{"address.street": true, "address.city.name": true}
	if len(include) != len(want) {
		t.Fatalf("include = %v, want %v", include, want)
	}
	for _, entry := range include {
		if !want[entry.(string)] {
			t.Errorf("unexpected stored-source path %v", entry)
		}
	}
}

func TestEmbeddedArrayStopsStoredSourcePropagation(t *testing.T) {
	def := NewTopLevelDefinition("customers_search")
	orders := def.EmbeddedField("orders", true)
	orders.IncludeStoredSourceField("total")

	doc := mustToBson(t, def)
	if stored := docValue(t, doc, "storedSource"); stored != nil {
		t.Errorf("embedded-array stored source leaked to the top level: %v", stored)
	}

	orderDoc := mustToBson(t, orders)
	stored, ok := docValue(t, orderDoc, "storedSource").(bson.D)
	if !ok {
		t.Fatal("embedded-array definition should carry its own storedSource")
	}
	include := docValue(t, stored, "include").(bson.A)
	if len(include) != 1 || include[0] != "total" {
		t.Errorf("array-level include = %v, want [total]", include)
	}
}

func TestStoredSourceWholeDocument(t *testing.T) {
	on := true
	def := NewTopLevelDefinition("products_search")
	def.StoreAllSource = &on
	doc := mustToBson(t, def)
	if got := docValue(t, doc, "storedSource"); got != true {
		t.Errorf("storedSource = %v, want true", got)
	}

	off := false
	def = NewTopLevelDefinition("products_search")
	def.StoreAllSource = &off
	doc = mustToBson(t, def)
	if got := docValue(t, doc, "storedSource"); got != false {
		t.Errorf("storedSource = %v, want false", got)
	}
}

func TestStoredSourceWholeDocumentRejectsFieldLists(t *testing.T) {
	on := true
	def := NewTopLevelDefinition("products_search")
	def.StoreAllSource = &on
	def.IncludeStoredSourceField("name")

	if _, err := def.ToBson(); err == nil {
		t.Fatal("whole-document stored source combined with an include list should fail serialization")
	} else if !strings.Contains(err.Error(), "products_search") {
		t.Errorf("error should name the offending definition: %v", err)
	}
}

func TestNestedRebasesFieldsUnderPath(t *testing.T) {
	def := NewTopLevelDefinition("reviews_search")
	def.StringField("comment")
	def.Analyzer = "lucene.english"

	rooted := def.Nested([]NestStep{{Name: "customer_reviews", Array: true}})
	if rooted.Name() != "reviews_search" {
		t.Errorf("rebased name = %q, want reviews_search", rooted.Name())
	}

	doc := mustToBson(t, rooted)
	mappings := docValue(t, doc, "mappings").(bson.D)
	fields := docValue(t, mappings, "fields").(bson.D)
	if docValue(t, fields, "comment") != nil {
		t.Error("comment must not serialize at the top level")
	}
	container := docValue(t, fields, "customer_reviews").(bson.D)
	if got := docValue(t, container, "type"); got != "embeddedDocuments" {
		t.Errorf("container type = %v, want embeddedDocuments", got)
	}
	nested := docValue(t, container, "fields").(bson.D)
	if docValue(t, nested, "comment") == nil {
		t.Error("comment missing under customer_reviews")
	}
	if got := docValue(t, doc, "analyzer"); got != "lucene.english" {
		t.Errorf("analyzer = %v, want it kept at the top level", got)
	}
}

func TestNestedWithMultipleSteps(t *testing.T) {
	def := NewTopLevelDefinition("city_search")
	def.StringField("name")

	rooted := def.Nested([]NestStep{{Name: "address"}, {Name: "city"}})
	doc := mustToBson(t, rooted)
	mappings := docValue(t, doc, "mappings").(bson.D)
	fields := docValue(t, mappings, "fields").(bson.D)
	addressDoc := docValue(t, fields, "address").(bson.D)
	if got := docValue(t, addressDoc, "type"); got != "document" {
		t.Errorf("address type = %v, want document", got)
	}
	cityDoc := docValue(t, docValue(t, addressDoc, "fields").(bson.D), "city").(bson.D)
	if docValue(t, docValue(t, cityDoc, "fields").(bson.D), "name") == nil {
		t.Error("name missing under address.city")
	}
}

func TestNestedWithoutStepsReturnsSameDefinition(t *testing.T) {
	def := NewTopLevelDefinition("products_search")
	if def.Nested(nil) != def {
		t.Error("Nested without steps should return the definition unchanged")
	}
}
