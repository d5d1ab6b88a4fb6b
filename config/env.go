package config

import (
	"os"
	"regexp"
)

// envPattern matches both $VAR and ${VAR} forms.
var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// ExpandString replaces every $VAR or ${VAR} in s with the process
// environment's value, leaving the reference literal if the variable is
// unset. It never touches text that isn't shaped like a reference.
func ExpandString(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		sub := envPattern.FindStringSubmatch(match)
		name := sub[1]
		if name == "" {
			name = sub[2]
		}
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return match
	})
}

// ExpandTree walks a decoded YAML/JSON tree (maps, slices, scalars) and
// applies ExpandString to every string value it finds, recursively. It
// runs once, over the whole configuration file, before any schema
// validation — so every string anywhere in the tree is covered, not just
// the ones a schema happens to mark.
func ExpandTree(v any) any {
	switch t := v.(type) {
	case string:
		return ExpandString(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[k] = ExpandTree(child)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = ExpandTree(child)
		}
		return out
	default:
		return v
	}
}
