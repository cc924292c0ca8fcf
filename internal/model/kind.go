package model

// Kind is the type tag of a field. Kinds are open: FieldTypeRegistry accepts
// constructors for kinds not listed here.
type Kind string

const (
	KindString         Kind = "string"
	KindText           Kind = "text"
	KindWysiwyg        Kind = "wysiwyg"
	KindEmail          Kind = "email"
	KindPassword       Kind = "password"
	KindNumber         Kind = "number"
	KindFloat          Kind = "float"
	KindBoolean        Kind = "boolean"
	KindChoice         Kind = "choice"
	KindChoices        Kind = "choices"
	KindDate           Kind = "date"
	KindDateTime       Kind = "datetime"
	KindFile           Kind = "file"
	KindJSON           Kind = "json"
	KindTemplate       Kind = "template"
	KindReference      Kind = "reference"
	KindReferenceMany  Kind = "reference_many"
	KindReferencedList Kind = "referenced_list"
	KindEmbeddedList   Kind = "embedded_list"
	KindFieldSet       Kind = "fieldset"
	KindRow            Kind = "row"
)

// IsReference reports whether fields of this kind hold foreign identifiers
// (reference or reference_many).
func (k Kind) IsReference() bool {
	return k == KindReference || k == KindReferenceMany
}

// IsLayout reports whether the kind only groups other fields.
func (k Kind) IsLayout() bool {
	return k == KindFieldSet || k == KindRow
}
