package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Path is a dotted field path used in validation error messages, e.g.
// "connection.dbname" or "tasks.refresh.outputs.0".
type Path []string

func (p Path) child(k string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, k)
}

func (p Path) String() string { return strings.Join(p, ".") }

// ValidationError is the single error kind the validator raises,
// carrying the dotted path to the offending field.
type ValidationError struct {
	Path Path
	Msg  string
}

func (e *ValidationError) Error() string {
	if len(e.Path) == 0 {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}

func fail(path Path, msg string) error { return &ValidationError{Path: path, Msg: msg} }

// Validate normalizes raw against spec: it fills defaults for absent
// optional keys, fails on absent required keys, coerces and constrains
// scalars, and passes through any key raw carries that spec does not
// name (the header schema relies on this to tolerate component-specific
// sections it knows nothing about).
func Validate(spec *Spec, raw map[string]any) (map[string]any, error) {
	return validateMap(spec, raw, Path{})
}

func validateMap(spec *Spec, raw map[string]any, path Path) (map[string]any, error) {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[k] = v
	}
	for name, fs := range spec.Fields {
		childPath := path.child(name)
		val, present := raw[name]
		if !present {
			if fs.Required {
				return nil, fail(childPath, "required field missing")
			}
			out[name] = fs.Default
			continue
		}
		if val == nil {
			// Explicit null is preserved, never replaced by a default.
			out[name] = nil
			continue
		}
		resolved, err := validateField(fs, val, childPath)
		if err != nil {
			return nil, err
		}
		out[name] = resolved
	}
	return out, nil
}

func validateField(fs *FieldSpec, val any, path Path) (any, error) {
	switch {
	case fs.Nested != nil:
		m, ok := val.(map[string]any)
		if !ok {
			return nil, fail(path, "expected a mapping")
		}
		return validateMap(fs.Nested, m, path)
	case fs.Seq != nil:
		return validateSeq(fs.Seq, val, path)
	case fs.MapOf != nil:
		return validateMapOf(fs.MapOf, val, path)
	default:
		return validateScalar(fs, val, path)
	}
}

func validateScalar(fs *FieldSpec, val any, path Path) (any, error) {
	var out any
	switch fs.Kind {
	case KindString:
		s, ok := val.(string)
		if !ok {
			return nil, fail(path, "expected a string")
		}
		out = s
	case KindInt:
		switch t := val.(type) {
		case int:
			out = t
		case int64:
			out = int(t)
		case float64:
			out = int(t)
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(t))
			if err != nil {
				return nil, fail(path, "expected an integer")
			}
			out = n
		default:
			return nil, fail(path, "expected an integer")
		}
	case KindBool:
		switch t := val.(type) {
		case bool:
			out = t
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(t))
			if err != nil {
				return nil, fail(path, "expected a boolean")
			}
			out = b
		default:
			return nil, fail(path, "expected a boolean")
		}
	default: // KindAny
		out = val
	}

	if fs.Lower {
		if s, ok := out.(string); ok {
			out = strings.ToLower(s)
		}
	}
	if len(fs.OneOf) > 0 {
		s, ok := out.(string)
		if !ok || !contains(fs.OneOf, s) {
			return nil, fail(path, fmt.Sprintf("must be one of %v", fs.OneOf))
		}
	}
	return out, nil
}

func validateSeq(ss *SeqSpec, val any, path Path) (any, error) {
	arr, ok := val.([]any)
	if !ok {
		return nil, fail(path, "expected a sequence")
	}
	if len(arr) < ss.MinLen {
		return nil, fail(path, fmt.Sprintf("must have at least %d element(s)", ss.MinLen))
	}
	out := make([]any, len(arr))
	for i, item := range arr {
		resolved, err := validateField(ss.Elem, item, path.child(strconv.Itoa(i)))
		if err != nil {
			return nil, err
		}
		out[i] = resolved
	}
	return out, nil
}

// validateMapOf validates the "keys are arbitrary but values match a
// sub-schema" shape (used for `tasks`): every value of m is itself
// validated against sub.
func validateMapOf(sub *Spec, val any, path Path) (any, error) {
	m, ok := val.(map[string]any)
	if !ok {
		return nil, fail(path, "expected a mapping")
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		vm, ok := v.(map[string]any)
		if !ok {
			return nil, fail(path.child(k), "expected a mapping")
		}
		resolved, err := validateMap(sub, vm, path.child(k))
		if err != nil {
			return nil, err
		}
		out[k] = resolved
	}
	return out, nil
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
