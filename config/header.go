package config

// HeaderSpec is the schema for every node configuration file's mandatory
// `configuration` section: `{pipe, type, name}`. Everything else in the
// raw tree (connection, processing, tasks, ...) passes through untouched
// here and is validated again, against the concrete node's own Spec, once
// the registry has resolved which node type owns it.
func HeaderSpec(defaultName string) *Spec {
	return &Spec{Fields: map[string]*FieldSpec{
		"configuration": {
			Required: true,
			Nested: &Spec{Fields: map[string]*FieldSpec{
				"pipe": {Required: true, Kind: KindString, Lower: true,
					OneOf: []string{"spring", "flow", "delta"}},
				"type": {Required: true, Kind: KindString, Lower: true},
				"name": {Kind: KindString, Default: defaultName},
			}},
		},
	}}
}

// Header is the normalized `configuration` section extracted by
// ParseHeader.
type Header struct {
	Pipe string
	Type string
	Name string
}

// ParseHeader validates raw's header section and returns it typed.
func ParseHeader(raw map[string]any, defaultName string) (Header, map[string]any, error) {
	validated, err := Validate(HeaderSpec(defaultName), raw)
	if err != nil {
		return Header{}, nil, err
	}
	section := validated["configuration"].(map[string]any)
	return Header{
		Pipe: section["pipe"].(string),
		Type: section["type"].(string),
		Name: section["name"].(string),
	}, validated, nil
}
