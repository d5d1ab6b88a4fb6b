// Package http implements the reference HTTP sink Delta: it POSTs (or
// otherwise submits) each inbound batch as a JSON body to a configured
// endpoint. Grounded on original_source/src/extensions/deltas/http.py's
// BasicHTTP, ported from requests.Session onto net/http — the runtime's
// own out-of-scope "concrete I/O backend" collaborators are intentionally
// the simplest available stdlib client; no example repo in the pack wraps
// a bare JSON-POST sink in a third-party HTTP client.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bittoy/pipeline/config"
	"github.com/bittoy/pipeline/logging"
	"github.com/bittoy/pipeline/nodes/base"
	"github.com/bittoy/pipeline/registry"
	"github.com/bittoy/pipeline/types"
	"github.com/rs/zerolog"
)

func init() {
	_ = registry.Default.Register(types.KindDelta, "http", New)
}

// Delta submits batches to an HTTP endpoint.
type Delta struct {
	base.Base

	endpoint string
	method   string
	headers  map[string]string
	username string
	password string
	allowed  map[int]bool
	timeout  time.Duration

	client *http.Client
	logger zerolog.Logger
}

func bodySpec() *config.Spec {
	return &config.Spec{Fields: map[string]*config.FieldSpec{
		"connection": {Required: true, Nested: &config.Spec{Fields: map[string]*config.FieldSpec{
			"endpoint": {Required: true, Kind: config.KindString},
			"auth": {Nested: &config.Spec{Fields: map[string]*config.FieldSpec{
				"username": {Required: true, Kind: config.KindString},
				"password": {Required: true, Kind: config.KindString},
			}}},
			"method": {Kind: config.KindString, Lower: true, Default: "post",
				OneOf: []string{"get", "post", "put", "delete"}},
			"allowed_responses": {Seq: &config.SeqSpec{Elem: &config.FieldSpec{Kind: config.KindInt}}, Default: []any{200}},
		}}},
		"processing": {Required: true, Nested: &config.Spec{Fields: map[string]*config.FieldSpec{
			"timeout": {Kind: config.KindInt, Default: 60},
		}}},
	}}
}

// New validates body against the HTTP Delta's schema.
func New(name string, body types.Configuration) (types.Node, error) {
	validated, err := config.Validate(bodySpec(), body)
	if err != nil {
		return nil, fmt.Errorf("http delta %q: %w", name, err)
	}

	conn := validated["connection"].(map[string]any)
	proc := validated["processing"].(map[string]any)

	d := &Delta{
		Base:     base.New(types.KindDelta, name),
		endpoint: conn["endpoint"].(string),
		method:   strings.ToUpper(conn["method"].(string)),
		headers:  map[string]string{},
		timeout:  time.Duration(proc["timeout"].(int)) * time.Second,
		allowed:  map[int]bool{},
		logger:   logging.New("delta.http"),
	}
	if auth, ok := conn["auth"].(map[string]any); ok {
		d.username, _ = auth["username"].(string)
		d.password, _ = auth["password"].(string)
	}
	allowedList, err := intSlice(conn["allowed_responses"])
	if err != nil {
		return nil, fmt.Errorf("http delta %q: allowed_responses: %w", name, err)
	}
	for _, code := range allowedList {
		d.allowed[code] = true
	}

	return d, nil
}

// Connect builds the HTTP client. There is no handshake to perform up
// front; connection failures surface on the first request instead.
func (d *Delta) Connect() error {
	d.client = &http.Client{Timeout: d.timeout}
	return nil
}

// Shutdown releases idle connections.
func (d *Delta) Shutdown() error {
	if d.client != nil {
		d.client.CloseIdleConnections()
	}
	d.logger.Info().Str("node", d.Name()).Msg("closed HTTP client")
	return nil
}

// OutputIDs is always empty: Deltas are terminal.
func (d *Delta) OutputIDs() []string { return nil }

// LocalFunction submits the inbound batch as a JSON body.
func (d *Delta) LocalFunction() types.Function {
	return func(ctx context.Context, args ...any) (types.Payload, error) {
		var data types.Payload
		if len(args) > 0 {
			data = args[0]
		}
		records := types.Records(data)

		body, err := json.Marshal(records)
		if err != nil {
			return nil, err
		}

		reqCtx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, d.method, d.endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range d.headers {
			req.Header.Set(k, v)
		}
		if d.username != "" {
			req.SetBasicAuth(d.username, d.password)
		}

		resp, err := d.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if !d.allowed[resp.StatusCode] {
			return nil, fmt.Errorf("http delta %q: unexpected status %d", d.Name(), resp.StatusCode)
		}
		return nil, nil
	}
}

func intSlice(v any) ([]int, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a sequence")
	}
	out := make([]int, len(arr))
	for i, item := range arr {
		n, ok := item.(int)
		if !ok {
			return nil, fmt.Errorf("element %d: expected an integer", i)
		}
		out[i] = n
	}
	return out, nil
}
