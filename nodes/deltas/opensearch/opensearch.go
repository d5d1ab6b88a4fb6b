// Package opensearch implements the reference OpenSearch sink Delta: it
// bulk-indexes each inbound batch into a configured index. Grounded on
// original_source/src/extensions/deltas/opensearch.py's OpenSearch class,
// ported from opensearchpy.helpers.bulk onto
// github.com/opensearch-project/opensearch-go/v2's NDJSON Bulk API, named
// in SPEC_FULL.md's domain stack (grounded on
// other_examples/manifests/DataDog-datadog-agent's go.mod).
package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/bittoy/pipeline/config"
	"github.com/bittoy/pipeline/logging"
	"github.com/bittoy/pipeline/nodes/base"
	"github.com/bittoy/pipeline/registry"
	"github.com/bittoy/pipeline/types"
	opensearch "github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
	"github.com/rs/zerolog"
)

func init() {
	_ = registry.Default.Register(types.KindDelta, "opensearch", New)
}

// Delta bulk-indexes batches into OpenSearch.
type Delta struct {
	base.Base

	addresses []string
	username  string
	password  string
	useSSL    bool
	index     string
	timeout   time.Duration

	mu     sync.Mutex
	client *opensearch.Client
	logger zerolog.Logger
}

func bodySpec() *config.Spec {
	return &config.Spec{Fields: map[string]*config.FieldSpec{
		"connection": {Required: true, Nested: &config.Spec{Fields: map[string]*config.FieldSpec{
			"host":     {Required: true, Kind: config.KindString},
			"port":     {Kind: config.KindInt, Default: 9200},
			"user":     {Kind: config.KindString, Default: ""},
			"password": {Kind: config.KindString, Default: ""},
			"use_ssl":  {Kind: config.KindBool, Default: true},
		}}},
		"processing": {Required: true, Nested: &config.Spec{Fields: map[string]*config.FieldSpec{
			"index":   {Required: true, Kind: config.KindString},
			"timeout": {Kind: config.KindInt, Default: 60},
		}}},
	}}
}

// New validates body against the OpenSearch Delta's schema.
func New(name string, body types.Configuration) (types.Node, error) {
	validated, err := config.Validate(bodySpec(), body)
	if err != nil {
		return nil, fmt.Errorf("opensearch delta %q: %w", name, err)
	}

	conn := validated["connection"].(map[string]any)
	proc := validated["processing"].(map[string]any)

	scheme := "http"
	if conn["use_ssl"].(bool) {
		scheme = "https"
	}

	return &Delta{
		Base:      base.New(types.KindDelta, name),
		addresses: []string{fmt.Sprintf("%s://%s:%d", scheme, conn["host"], conn["port"])},
		username:  conn["user"].(string),
		password:  conn["password"].(string),
		useSSL:    conn["use_ssl"].(bool),
		index:     proc["index"].(string),
		timeout:   time.Duration(proc["timeout"].(int)) * time.Second,
		logger:    logging.New("delta.opensearch"),
	}, nil
}

// Connect dials OpenSearch and pings it.
func (d *Delta) Connect() error {
	d.logger.Info().Str("node", d.Name()).Msg("connecting to OpenSearch")
	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: d.addresses,
		Username:  d.username,
		Password:  d.password,
	})
	if err != nil {
		return fmt.Errorf("opensearch delta %q: %w", d.Name(), err)
	}
	res, err := client.Ping()
	if err != nil {
		return fmt.Errorf("opensearch delta %q: ping: %w", d.Name(), err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("opensearch delta %q: ping failed: %s", d.Name(), res.String())
	}
	d.client = client
	return nil
}

// Shutdown has nothing to release: the opensearch-go client owns no
// long-lived connections beyond its pooled http.Transport.
func (d *Delta) Shutdown() error {
	d.logger.Info().Str("node", d.Name()).Msg("closed OpenSearch client")
	return nil
}

// OutputIDs is always empty: Deltas are terminal.
func (d *Delta) OutputIDs() []string { return nil }

// LocalFunction bulk-indexes the inbound batch as NDJSON action/document
// pairs, serializing concurrent calls so bulk requests never interleave.
func (d *Delta) LocalFunction() types.Function {
	return func(ctx context.Context, args ...any) (types.Payload, error) {
		var data types.Payload
		if len(args) > 0 {
			data = args[0]
		}
		records := types.Records(data)
		if len(records) == 0 {
			return nil, nil
		}

		var buf bytes.Buffer
		for _, record := range records {
			meta, err := json.Marshal(map[string]any{"index": map[string]any{"_index": d.index}})
			if err != nil {
				return nil, err
			}
			doc, err := json.Marshal(record)
			if err != nil {
				return nil, err
			}
			buf.Write(meta)
			buf.WriteByte('\n')
			buf.Write(doc)
			buf.WriteByte('\n')
		}

		reqCtx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()

		d.mu.Lock()
		defer d.mu.Unlock()

		req := opensearchapi.BulkRequest{Body: &buf}
		res, err := req.Do(reqCtx, d.client)
		if err != nil {
			return nil, err
		}
		defer res.Body.Close()
		if res.IsError() {
			return nil, fmt.Errorf("opensearch delta %q: bulk failed: %s", d.Name(), res.String())
		}
		return nil, nil
	}
}
