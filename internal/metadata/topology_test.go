package metadata

import (
	"errors"
	"reflect"
	"testing"

	"github.com/nlstn/go-mongomap/internal/annotations"
)

func TestIsDocumentRootClassification(t *testing.T) {
	m := buildTestModel(t)

	if !m.EntityType("testCustomer").IsDocumentRoot() {
		t.Error("testCustomer has no owner and should be a document root")
	}
	for _, name := range []string{"testAddress", "testCity", "testOrder", "testOrder.Shipping"} {
		if m.EntityType(name).IsDocumentRoot() {
			t.Errorf("owned entity type %s should not be a document root", name)
		}
	}
}

func TestDocumentPathDepthMatchesOwnershipChain(t *testing.T) {
	m := buildTestModel(t)

	cases := []struct {
		entity string
		want   []string
	}{
		{"testCustomer", nil},
		{"testAddress", []string{"address"}},
		{"testCity", []string{"address", "city"}},
		{"testOrder", []string{"orders"}},
		{"testOrder.Shipping", []string{"orders", "shipping"}},
	}
	for _, tc := range cases {
		got := m.EntityType(tc.entity).DocumentPath()
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("DocumentPath(%s) = %v, want %v", tc.entity, got, tc.want)
		}
	}
}

func TestDocumentRootWalksToTopOfChain(t *testing.T) {
	m := buildTestModel(t)
	customer := m.EntityType("testCustomer")

	for _, name := range []string{"testCustomer", "testAddress", "testCity", "testOrder", "testOrder.Shipping"} {
		if got := m.EntityType(name).DocumentRoot(); got != customer {
			t.Errorf("DocumentRoot(%s) = %s, want testCustomer", name, got.Name())
		}
	}
}

func TestExplicitContainingElementNameOverride(t *testing.T) {
	m := buildTestModel(t)
	address := m.EntityType("testAddress")

	if ok, err := address.SetContainingElementName("shipping_address", annotations.SourceExplicit); err != nil || !ok {
		t.Fatalf("SetContainingElementName failed: ok=%v err=%v", ok, err)
	}
	if got := address.ContainingElementName(); got != "shipping_address" {
		t.Errorf("ContainingElementName = %q, want shipping_address", got)
	}
	city := m.EntityType("testCity")
	if got := city.DocumentPath(); !reflect.DeepEqual(got, []string{"shipping_address", "city"}) {
		t.Errorf("descendant path should pick up the override, got %v", got)
	}

	if !address.RemoveContainingElementName(annotations.SourceExplicit) {
		t.Fatal("removing the explicit containing element name should succeed")
	}
	if got := address.ContainingElementName(); got != "address" {
		t.Errorf("ContainingElementName after removal = %q, want the navigation default address", got)
	}
}

func TestWhitespaceContainingElementNameIsArgumentError(t *testing.T) {
	m := buildTestModel(t)
	address := m.EntityType("testAddress")

	for _, name := range []string{"", "   ", "\t"} {
		if _, err := address.SetContainingElementName(name, annotations.SourceExplicit); err == nil {
			t.Errorf("SetContainingElementName(%q) should be an argument error", name)
		}
	}
}

func TestExplicitCollectionNamePromotesOwnedTypeToRoot(t *testing.T) {
	m := buildTestModel(t)
	order := m.EntityType("testOrder")

	if ok, err := order.SetCollectionName("orders", annotations.SourceExplicit); err != nil || !ok {
		t.Fatalf("SetCollectionName failed: ok=%v err=%v", ok, err)
	}
	if !order.IsDocumentRoot() {
		t.Fatal("an owned type with an explicit collection name is a document root")
	}
	if got := order.DocumentPath(); len(got) != 0 {
		t.Errorf("a promoted root has an empty document path, got %v", got)
	}
	if order.DocumentRoot() != order {
		t.Error("a promoted root is its own document root")
	}
}

func TestPromotedRootRebasesDeeplyNestedDescendants(t *testing.T) {
	m := buildTestModel(t)
	order := m.EntityType("testOrder")
	shipping := m.EntityType("testOrder.Shipping")

	if _, err := order.SetCollectionName("orders", annotations.SourceExplicit); err != nil {
		t.Fatalf("SetCollectionName failed: %v", err)
	}

	if got := shipping.DocumentPath(); !reflect.DeepEqual(got, []string{"shipping"}) {
		t.Errorf("descendant path should restart at the promoted root, got %v", got)
	}
	if shipping.DocumentRoot() != order {
		t.Error("descendants of a promoted root resolve to it, not the original root")
	}
}

func TestCollectionNamePrecedence(t *testing.T) {
	m := buildTestModel(t)
	customer := m.EntityType("testCustomer")

	if ok, err := customer.SetCollectionName("customers", annotations.SourceExplicit); err != nil || !ok {
		t.Fatalf("explicit SetCollectionName failed: ok=%v err=%v", ok, err)
	}
	if ok, err := customer.SetCollectionName("people", annotations.SourceConvention); err != nil {
		t.Fatalf("convention SetCollectionName errored: %v", err)
	} else if ok {
		t.Error("a convention write must not override an explicit collection name")
	}
	if got := customer.CollectionName(); got != "customers" {
		t.Errorf("CollectionName = %q, want customers", got)
	}
}

func TestEmptyCollectionNameIsArgumentError(t *testing.T) {
	m := buildTestModel(t)
	if _, err := m.EntityType("testCustomer").SetCollectionName("", annotations.SourceExplicit); err == nil {
		t.Error("empty collection names must be rejected regardless of source")
	}
}

func TestOwnershipCycleRejected(t *testing.T) {
	m := buildTestModel(t)
	customer := m.EntityType("testCustomer")
	city := m.EntityType("testCity")

	err := customer.setOwnership(city, nil)
	if err == nil {
		t.Fatal("embedding the root under its own descendant should fail")
	}
	if !errors.Is(err, ErrOwnershipCycle) {
		t.Errorf("error should wrap ErrOwnershipCycle, got %v", err)
	}
}

func TestElementPathJoinsDocumentPathAndElementName(t *testing.T) {
	m := buildTestModel(t)
	city := m.EntityType("testCity")

	if got := city.ElementPath(city.Property("Name")); got != "address.city.name" {
		t.Errorf("ElementPath = %q, want address.city.name", got)
	}
	customer := m.EntityType("testCustomer")
	if got := customer.ElementPath(customer.Property("ID")); got != "_id" {
		t.Errorf("root ElementPath = %q, want _id", got)
	}
}
