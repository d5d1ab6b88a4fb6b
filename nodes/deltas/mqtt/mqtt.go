// Package mqtt implements a reference MQTT sink Delta: it publishes each
// inbound batch, JSON-encoded, to a configured topic. There is no
// original_source equivalent; it exists to exercise
// github.com/eclipse/paho.mqtt.golang, a teacher dependency unused by the
// teacher's own rule-engine domain and repurposed here as a concrete I/O
// backend, per SPEC_FULL.md's domain stack table.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bittoy/pipeline/config"
	"github.com/bittoy/pipeline/logging"
	"github.com/bittoy/pipeline/nodes/base"
	"github.com/bittoy/pipeline/registry"
	"github.com/bittoy/pipeline/types"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

func init() {
	_ = registry.Default.Register(types.KindDelta, "mqtt", New)
}

// Delta publishes batches to an MQTT broker topic.
type Delta struct {
	base.Base

	broker   string
	clientID string
	username string
	password string
	topic    string
	qos      byte
	timeout  time.Duration

	client mqtt.Client
	logger zerolog.Logger
}

func bodySpec() *config.Spec {
	return &config.Spec{Fields: map[string]*config.FieldSpec{
		"connection": {Required: true, Nested: &config.Spec{Fields: map[string]*config.FieldSpec{
			"broker":    {Required: true, Kind: config.KindString},
			"client_id": {Kind: config.KindString, Default: "pipeline"},
			"username":  {Kind: config.KindString, Default: ""},
			"password":  {Kind: config.KindString, Default: ""},
		}}},
		"processing": {Required: true, Nested: &config.Spec{Fields: map[string]*config.FieldSpec{
			"topic":   {Required: true, Kind: config.KindString},
			"qos":     {Kind: config.KindInt, Default: 0},
			"timeout": {Kind: config.KindInt, Default: 30},
		}}},
	}}
}

// New validates body against the MQTT Delta's schema.
func New(name string, body types.Configuration) (types.Node, error) {
	validated, err := config.Validate(bodySpec(), body)
	if err != nil {
		return nil, fmt.Errorf("mqtt delta %q: %w", name, err)
	}

	conn := validated["connection"].(map[string]any)
	proc := validated["processing"].(map[string]any)

	return &Delta{
		Base:     base.New(types.KindDelta, name),
		broker:   conn["broker"].(string),
		clientID: conn["client_id"].(string),
		username: conn["username"].(string),
		password: conn["password"].(string),
		topic:    proc["topic"].(string),
		qos:      byte(proc["qos"].(int)),
		timeout:  time.Duration(proc["timeout"].(int)) * time.Second,
		logger:   logging.New("delta.mqtt"),
	}, nil
}

// Connect dials the broker.
func (d *Delta) Connect() error {
	opts := mqtt.NewClientOptions().AddBroker(d.broker).SetClientID(d.clientID)
	if d.username != "" {
		opts.SetUsername(d.username)
		opts.SetPassword(d.password)
	}
	d.client = mqtt.NewClient(opts)
	token := d.client.Connect()
	if !token.WaitTimeout(d.timeout) {
		return fmt.Errorf("mqtt delta %q: connect timed out", d.Name())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt delta %q: %w", d.Name(), err)
	}
	return nil
}

// Shutdown disconnects from the broker.
func (d *Delta) Shutdown() error {
	if d.client != nil && d.client.IsConnected() {
		d.client.Disconnect(250)
	}
	d.logger.Info().Str("node", d.Name()).Msg("disconnected MQTT client")
	return nil
}

// OutputIDs is always empty: Deltas are terminal.
func (d *Delta) OutputIDs() []string { return nil }

// LocalFunction publishes the inbound batch as a single JSON-encoded
// message.
func (d *Delta) LocalFunction() types.Function {
	return func(ctx context.Context, args ...any) (types.Payload, error) {
		var data types.Payload
		if len(args) > 0 {
			data = args[0]
		}
		records := types.Records(data)

		payload, err := json.Marshal(records)
		if err != nil {
			return nil, err
		}

		token := d.client.Publish(d.topic, d.qos, false, payload)
		if !token.WaitTimeout(d.timeout) {
			return nil, fmt.Errorf("mqtt delta %q: publish timed out", d.Name())
		}
		return nil, token.Error()
	}
}
