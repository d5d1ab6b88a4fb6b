package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bittoy/pipeline/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPDeltaPostsBatchAndAcceptsConfiguredStatus(t *testing.T) {
	var receivedBody []types.Record
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&receivedBody))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	node, err := New("sink", types.Configuration{
		"connection": map[string]any{
			"endpoint":          srv.URL,
			"allowed_responses": []any{202},
		},
		"processing": map[string]any{},
	})
	require.NoError(t, err)
	d := node.(*Delta)
	require.NoError(t, d.Connect())
	defer d.Shutdown()

	_, err = d.LocalFunction()(context.Background(), []types.Record{{"a": float64(1)}})
	require.NoError(t, err)
	require.Len(t, receivedBody, 1)
	assert.Equal(t, float64(1), receivedBody[0]["a"])
}

func TestHTTPDeltaRejectsUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	node, err := New("sink", types.Configuration{
		"connection": map[string]any{"endpoint": srv.URL},
		"processing": map[string]any{},
	})
	require.NoError(t, err)
	d := node.(*Delta)
	require.NoError(t, d.Connect())
	defer d.Shutdown()

	_, err = d.LocalFunction()(context.Background(), []types.Record{{"a": 1}})
	require.Error(t, err)
}
