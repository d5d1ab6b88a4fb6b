// Package app is the App Controller component from spec §4.7: it
// orchestrates the runtime's startup lifecycle in strict order —
// discover node implementations, load and validate configuration files,
// build the graph, register broker tasks, validate pipeline topology, and
// connect I/O nodes — and owns the shutdown hook the process entry point
// runs on exit. It is grounded on
// original_source/src/core/app.py's AppController.
package app

import (
	"fmt"

	"github.com/bittoy/pipeline/broker"
	"github.com/bittoy/pipeline/crontask"
	"github.com/bittoy/pipeline/graph"
	"github.com/bittoy/pipeline/registry"
	"github.com/bittoy/pipeline/taskwrapper"
	"github.com/bittoy/pipeline/types"
	"github.com/rs/zerolog"
)

// Controller is the App Controller. Construct one with New, then call
// Load and Configure in order.
type Controller struct {
	registry     *registry.Registry
	graph        *graph.Graph
	broker       broker.Broker
	logger       zerolog.Logger
	configFolder string
}

// New returns a Controller wired to the given Registry, Graph and Broker.
// configFolder is the directory of YAML node configuration files
// ($CONFIG_FOLDER per spec §6); pass "" to use its default, "./configs".
func New(reg *registry.Registry, g *graph.Graph, b broker.Broker, logger zerolog.Logger, configFolder string) *Controller {
	if configFolder == "" {
		configFolder = "./configs"
	}
	return &Controller{registry: reg, graph: g, broker: b, logger: logger, configFolder: configFolder}
}

// Load discovers all available node implementations. Concrete node
// packages register themselves into registry.Default from their own
// package init(), so Load's only job is to report what is available.
func (c *Controller) Load() {
	c.logger.Info().Int("types", c.registry.Len()).Msg("initializing node registry")
}

// Configure loads configurations into the graph and initializes tasks, in
// the strict order spec §4.7 describes. Any failure here is a fatal
// startup error; the caller is expected to log it as critical and exit
// with a non-zero status.
func (c *Controller) Configure() error {
	c.logger.Info().Str("folder", c.configFolder).Msg("loading configurations")
	if err := c.loadConfigurations(); err != nil {
		return err
	}

	c.logger.Info().Msg("registering node-process broker tasks")
	if err := c.registerNodeTasks(); err != nil {
		return err
	}

	c.logger.Info().Msg("creating and validating periodic tasks")
	if err := c.scheduleCronTasks(); err != nil {
		return err
	}

	c.logger.Info().Msg("establishing node connections")
	if err := c.establishConnections(); err != nil {
		return err
	}

	return nil
}

// Shutdown runs Shutdown() on every Spring and Delta. It is the process-
// exit handler spec §4.7b describes; the process entry point is expected
// to call it once, on the exit path.
func (c *Controller) Shutdown() {
	for _, n := range c.graph.Iter(types.KindSpring, types.KindDelta) {
		if err := n.Shutdown(); err != nil {
			c.logger.Error().Err(err).Str("node", n.Name()).Msg("shutdown failed")
		}
	}
}

// registerNodeTasks registers every node's "{kind}-{name}-node-process"
// broker task (spec §4.4 point 2) and wires its Dispatch. Springs register
// a bare wrapper with no fan-out — their routing lives on their CronTasks
// instead (spec §4.4 point 3) — Flows and Deltas wrap with their own
// OutputIDs.
func (c *Controller) registerNodeTasks() error {
	for _, n := range c.graph.Iter() {
		taskName := fmt.Sprintf("%s-%s-node-process", n.Kind(), n.Name())

		var dispatch types.DispatchFunc
		var err error
		if reader, ok := n.(types.Reader); ok {
			dispatch, err = c.broker.RegisterTask(taskName, taskwrapper.Wrap(c.logger, c.graph, n.LocalFunction(), reader.OutputIDs()))
		} else {
			dispatch, err = c.broker.RegisterTask(taskName, taskwrapper.WrapBare(c.logger, n.LocalFunction()))
		}
		if err != nil {
			return fmt.Errorf("registering node-process task for %q: %w", n.Name(), err)
		}
		n.SetDispatch(dispatch)
	}
	return nil
}

// scheduleCronTasks walks every Spring and Flow's PeriodicTasks (Flow's is
// always empty, per spec §9's Open Question resolution) and registers
// each one's broker task and periodic trigger. This is where the
// build-time topology check (spec §4.6) runs.
func (c *Controller) scheduleCronTasks() error {
	writers := c.graph.Iter(types.KindSpring, types.KindFlow)
	for _, n := range writers {
		writer, ok := n.(types.Writer)
		if !ok {
			continue
		}
		for _, spec := range writer.PeriodicTasks() {
			task, err := crontask.Build(c.graph, c.logger, n.Kind(), n.Name(), spec)
			if err != nil {
				return fmt.Errorf("scheduling task %q on node %q: %w", spec.Name, n.Name(), err)
			}

			wrapped := taskwrapper.Wrap(c.logger, c.graph, n.LocalFunction(), task.OutputIDs)
			if _, err := c.broker.RegisterTask(task.Name, wrapped); err != nil {
				return fmt.Errorf("registering task %q: %w", task.Name, err)
			}
			if err := c.broker.RegisterPeriodic(task.Name, task.Schedule, task.Args); err != nil {
				return fmt.Errorf("registering periodic trigger %q: %w", task.Name, err)
			}
		}
	}
	return nil
}

// establishConnections calls Connect() on every Spring and Delta.
// Connection failures are fatal and re-raised immediately, per spec §4.7d.
func (c *Controller) establishConnections() error {
	for _, n := range c.graph.Iter(types.KindSpring, types.KindDelta) {
		if err := n.Connect(); err != nil {
			c.logger.Error().Err(err).Str("node", n.Name()).Msg("node failed to connect")
			return fmt.Errorf("node %q failed to connect: %w", n.Name(), err)
		}
	}
	return nil
}
