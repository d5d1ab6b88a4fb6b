package opensearch

import (
	"testing"

	"github.com/bittoy/pipeline/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesSchemaAndAppliesDefaults(t *testing.T) {
	node, err := New("es", types.Configuration{
		"connection": map[string]any{"host": "search.internal"},
		"processing": map[string]any{"index": "events"},
	})
	require.NoError(t, err)
	d := node.(*Delta)

	assert.Equal(t, []string{"https://search.internal:9200"}, d.addresses)
	assert.True(t, d.useSSL)
	assert.Equal(t, "events", d.index)
	assert.Nil(t, d.OutputIDs())
}

func TestNewRejectsMissingIndex(t *testing.T) {
	_, err := New("es", types.Configuration{
		"connection": map[string]any{"host": "search.internal"},
		"processing": map[string]any{},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index")
}

func TestNewHonorsUseSSLFalse(t *testing.T) {
	node, err := New("es", types.Configuration{
		"connection": map[string]any{"host": "search.internal", "use_ssl": false, "port": 9201},
		"processing": map[string]any{"index": "events"},
	})
	require.NoError(t, err)
	d := node.(*Delta)
	assert.Equal(t, []string{"http://search.internal:9201"}, d.addresses)
}
