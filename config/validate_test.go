package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAppliesDefaultsOnlyWhenAbsent(t *testing.T) {
	spec := &Spec{Fields: map[string]*FieldSpec{
		"timeout": Optional(KindInt, 60),
	}}

	out, err := Validate(spec, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, 60, out["timeout"])

	out, err = Validate(spec, map[string]any{"timeout": 10})
	require.NoError(t, err)
	assert.Equal(t, 10, out["timeout"])

	out, err = Validate(spec, map[string]any{"timeout": nil})
	require.NoError(t, err)
	assert.Nil(t, out["timeout"])
}

func TestValidateRequiredMissingFails(t *testing.T) {
	spec := &Spec{Fields: map[string]*FieldSpec{
		"dbname": Required(KindString),
	}}
	_, err := Validate(spec, map[string]any{})
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "dbname", verr.Path.String())
}

func TestValidateCoercesScalars(t *testing.T) {
	spec := &Spec{Fields: map[string]*FieldSpec{
		"port":    Required(KindInt),
		"enabled": Required(KindBool),
	}}
	out, err := Validate(spec, map[string]any{"port": "5432", "enabled": "true"})
	require.NoError(t, err)
	assert.Equal(t, 5432, out["port"])
	assert.Equal(t, true, out["enabled"])
}

func TestValidateOneOf(t *testing.T) {
	spec := &Spec{Fields: map[string]*FieldSpec{
		"pipe": {Required: true, Kind: KindString, Lower: true, OneOf: []string{"spring", "flow", "delta"}},
	}}
	out, err := Validate(spec, map[string]any{"pipe": "SPRING"})
	require.NoError(t, err)
	assert.Equal(t, "spring", out["pipe"])

	_, err = Validate(spec, map[string]any{"pipe": "bogus"})
	require.Error(t, err)
}

func TestValidateSeqLength(t *testing.T) {
	spec := &Spec{Fields: map[string]*FieldSpec{
		"outputs": {Required: true, Seq: &SeqSpec{Elem: &FieldSpec{Kind: KindString}, MinLen: 1}},
	}}
	_, err := Validate(spec, map[string]any{"outputs": []any{}})
	require.Error(t, err)

	out, err := Validate(spec, map[string]any{"outputs": []any{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, out["outputs"])
}

func TestValidateMapOfArbitraryKeys(t *testing.T) {
	spec := &Spec{Fields: map[string]*FieldSpec{
		"tasks": {Required: true, MapOf: &Spec{Fields: map[string]*FieldSpec{
			"cron": Required(KindString),
		}}},
	}}
	out, err := Validate(spec, map[string]any{
		"tasks": map[string]any{
			"refresh": map[string]any{"cron": "* * * * *"},
		},
	})
	require.NoError(t, err)
	tasks := out["tasks"].(map[string]any)
	refresh := tasks["refresh"].(map[string]any)
	assert.Equal(t, "* * * * *", refresh["cron"])
}

func TestExpandStringIdempotentAndLeavesUnsetLiteral(t *testing.T) {
	assert.Equal(t, "no markers here", ExpandString("no markers here"))

	t.Setenv("PIPELINE_TEST_HOST", "db")
	os.Unsetenv("PIPELINE_TEST_PORT")

	assert.Equal(t, "db:${PIPELINE_TEST_PORT}", ExpandString("${PIPELINE_TEST_HOST}:${PIPELINE_TEST_PORT}"))
}

func TestExpandTreeWalksNestedStructures(t *testing.T) {
	t.Setenv("PIPELINE_TEST_NAME", "es")
	tree := map[string]any{
		"name": "$PIPELINE_TEST_NAME",
		"list": []any{"$PIPELINE_TEST_NAME", 42},
	}
	out := ExpandTree(tree).(map[string]any)
	assert.Equal(t, "es", out["name"])
	assert.Equal(t, []any{"es", 42}, out["list"])
}
