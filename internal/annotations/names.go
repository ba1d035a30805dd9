package annotations

// Well-known annotation names shared between the metadata graph and the
// fluent builder surface. Using a single set of constants keeps precedence
// arbitration in one place; builders and conventions write the same keys.
const (
	// CollectionName is the physical collection an entity type maps to.
	// Setting it on an owned entity type promotes the type to document root.
	CollectionName = "mongomap:collection"

	// ContainingElementName is the element under which an owned entity
	// type's data is embedded in its parent document.
	ContainingElementName = "mongomap:containing-element"

	// ElementName is the document field a property maps to.
	ElementName = "mongomap:element"

	// DiscriminatorProperty names the property used to discriminate entity
	// types in an inheritance chain.
	DiscriminatorProperty = "mongomap:discriminator-property"

	// DiscriminatorValue is the discriminator value stored for a concrete
	// entity type.
	DiscriminatorValue = "mongomap:discriminator-value"

	// BSONRepresentation is the BSON type a property value is stored as.
	BSONRepresentation = "mongomap:bson-representation"

	// DateTimeKind controls how time.Time values are interpreted on read
	// (unspecified, UTC or local).
	DateTimeKind = "mongomap:date-time-kind"

	// IndexName is the name of a declared index. When unset the index
	// falls back to a conventional name derived from its properties.
	IndexName = "mongomap:index-name"

	// EncryptionDataKeyID is the queryable-encryption data key for a
	// property, stored as a uuid.UUID.
	EncryptionDataKeyID = "mongomap:encryption-data-key-id"

	// QueryableEncryptionType records whether a property is encrypted for
	// equality or range queries.
	QueryableEncryptionType = "mongomap:queryable-encryption-type"

	// EncryptionContention is the queryable-encryption contention factor.
	EncryptionContention = "mongomap:encryption-contention"

	// EncryptionSparsity is the queryable-encryption range sparsity.
	EncryptionSparsity = "mongomap:encryption-sparsity"

	// EncryptionTrimFactor is the queryable-encryption range trim factor.
	EncryptionTrimFactor = "mongomap:encryption-trim-factor"

	// EncryptionRangeMin and EncryptionRangeMax bound range-encrypted
	// properties.
	EncryptionRangeMin = "mongomap:encryption-range-min"
	EncryptionRangeMax = "mongomap:encryption-range-max"
)
