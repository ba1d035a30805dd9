package searchindex

import (
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestCustomAnalyzerWithoutTokenizerFails(t *testing.T) {
	def := NewTopLevelDefinition("products_search")
	def.CustomAnalyzer("diacritic_folder")

	_, err := def.ToBson()
	if err == nil {
		t.Fatal("a custom analyzer without a tokenizer should fail serialization")
	}
	if !strings.Contains(err.Error(), "diacritic_folder") {
		t.Errorf("error should name the offending analyzer: %v", err)
	}
}

func TestCustomAnalyzerSerialization(t *testing.T) {
	def := NewTopLevelDefinition("products_search")
	analyzer := def.CustomAnalyzer("shingler")
	analyzer.SetTokenizer("nGram").Set("minGram", 2).Set("maxGram", 4)
	analyzer.CharFilter("htmlStrip")
	analyzer.TokenFilter("lowercase")

	doc := mustToBson(t, def)
	analyzers, ok := docValue(t, doc, "analyzers").(bson.A)
	if !ok || len(analyzers) != 1 {
		t.Fatalf("expected one serialized analyzer, got %v", docValue(t, doc, "analyzers"))
	}

	analyzerDoc := analyzers[0].(bson.D)
	if name := docValue(t, analyzerDoc, "name"); name != "shingler" {
		t.Errorf("analyzer name = %v, want shingler", name)
	}
	tokenizer, ok := docValue(t, analyzerDoc, "tokenizer").(bson.D)
	if !ok {
		t.Fatal("serialized analyzer is missing its tokenizer")
	}
	if typ := docValue(t, tokenizer, "type"); typ != "nGram" {
		t.Errorf("tokenizer type = %v, want nGram", typ)
	}
	if min := docValue(t, tokenizer, "minGram"); min != 2 {
		t.Errorf("tokenizer minGram = %v, want 2", min)
	}
	if filters, ok := docValue(t, analyzerDoc, "charFilters").(bson.A); !ok || len(filters) != 1 {
		t.Errorf("charFilters = %v, want one entry", docValue(t, analyzerDoc, "charFilters"))
	}
	if filters, ok := docValue(t, analyzerDoc, "tokenFilters").(bson.A); !ok || len(filters) != 1 {
		t.Errorf("tokenFilters = %v, want one entry", docValue(t, analyzerDoc, "tokenFilters"))
	}
}

func TestTokenizerOptionOverwrite(t *testing.T) {
	def := NewTopLevelDefinition("products_search")
	tokenizer := def.CustomAnalyzer("shingler").SetTokenizer("nGram")
	tokenizer.Set("minGram", 2)
	tokenizer.Set("minGram", 3)

	doc := mustToBson(t, tokenizer)
	if min := docValue(t, doc, "minGram"); min != 3 {
		t.Errorf("repeated Set should overwrite, got minGram = %v", min)
	}
	count := 0
	for _, e := range doc {
		if e.Key == "minGram" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("minGram serialized %d times, want once", count)
	}
}
