// Package config implements the schema-driven validator described by the
// runtime's "Config Validator" component: required/optional fields with
// defaults, scalar coercion, enum constraints, length-constrained
// sequences, and arbitrary-keyed maps validated against a sub-schema.
//
// It is a direct, from-scratch port of the voluptuous-style schemas in
// the original Python sources (original_source/core/validator.py and
// src/extensions/*/*.py's config_schema bodies) into an explicit Go
// struct shape rather than a combinator library, since the source
// schemas are themselves flat, declarative trees. Environment-variable
// expansion is not a per-field coercion here — env.go's ExpandTree walks
// the whole decoded configuration once, before validation ever runs, so
// every string in the tree is covered regardless of which fields a
// node's schema happens to name.
package config

// ValueKind names the scalar type a leaf field coerces into.
type ValueKind int

const (
	KindString ValueKind = iota
	KindInt
	KindBool
	KindAny
)

// FieldSpec describes one key of a Spec. Exactly one of the Nested, Seq
// or MapOf shape descriptors should be set for non-scalar fields; leave
// all three nil for a scalar leaf described by Kind.
type FieldSpec struct {
	Required bool
	Default  any

	Kind  ValueKind
	Lower bool
	OneOf []string

	Nested *Spec
	Seq    *SeqSpec
	MapOf  *Spec
}

// SeqSpec validates a homogeneous, length-constrained sequence.
type SeqSpec struct {
	Elem   *FieldSpec
	MinLen int
}

// Spec is a recursive description of an expected mapping's keys.
type Spec struct {
	Fields map[string]*FieldSpec
}

// Required is a convenience constructor for a required scalar field.
func Required(kind ValueKind) *FieldSpec {
	return &FieldSpec{Required: true, Kind: kind}
}

// Optional is a convenience constructor for an optional scalar field
// with a default substituted when the key is absent.
func Optional(kind ValueKind, def any) *FieldSpec {
	return &FieldSpec{Kind: kind, Default: def}
}
