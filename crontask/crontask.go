package crontask

import (
	"fmt"
	"strings"

	"github.com/bittoy/pipeline/graph"
	"github.com/bittoy/pipeline/types"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// CronTask is a single scheduled execution unit belonging to a Spring: its
// cron schedule, the arguments its Spring's function is invoked with, and
// the readers its result fans out to.
type CronTask struct {
	// Name is the fully qualified broker task name:
	// "{kind}-{spring.name}-{task_name}-schedule".
	Name      string
	Schedule  cron.Schedule
	Args      []any
	OutputIDs []string

	SpringName string
	TaskName   string
}

// Build constructs the CronTask for one of a Spring's declared TaskSpecs
// and runs the build-time topology check against g: every output id must
// resolve to an existing reader node, must not transitively reach back to
// springName, and must not resolve to a Spring. Failures are logged with
// the full offending path and returned as "Invalid pipeline configuration".
func Build(g *graph.Graph, logger zerolog.Logger, springKind types.Kind, springName string, spec types.TaskSpec) (*CronTask, error) {
	schedule, err := ParseSchedule(spec.Schedule)
	if err != nil {
		return nil, fmt.Errorf("spring %q task %q: %w", springName, spec.Name, err)
	}

	for _, outputID := range spec.OutputIDs {
		if err := checkPipeline(g, logger, springName, outputID, []string{springName}); err != nil {
			return nil, err
		}
	}

	return &CronTask{
		Name:       fmt.Sprintf("%s-%s-%s-schedule", springKind, springName, spec.Name),
		Schedule:   schedule,
		Args:       spec.Args,
		OutputIDs:  spec.OutputIDs,
		SpringName: springName,
		TaskName:   spec.Name,
	}, nil
}

// checkPipeline performs the depth-first reachability walk described by
// spec §4.6. stack is the path walked so far, origin → … → the node about
// to be checked's parent; nodeID is the node being checked now.
func checkPipeline(g *graph.Graph, logger zerolog.Logger, origin, nodeID string, stack []string) error {
	path := append(append([]string{}, stack...), nodeID)
	pathStr := strings.Join(path, " -> ")

	for _, visited := range stack {
		if visited == nodeID {
			logger.Error().Str("spring", origin).Str("path", pathStr).Msg("detected closed loop in pipeline")
			return fmt.Errorf("invalid pipeline configuration: closed loop at %q (%s)", nodeID, pathStr)
		}
	}

	node, ok := g.Get(nodeID)
	if !ok {
		logger.Error().Str("spring", origin).Str("path", pathStr).Msg("node does not exist")
		return fmt.Errorf("invalid pipeline configuration: node %q does not exist (%s)", nodeID, pathStr)
	}

	// A Spring is identified by kind, not by the absence of a Reader
	// method set: an interface assertion alone can't distinguish "this is
	// a Spring" from "this stub/node forgot to implement OutputIDs".
	reader, isReader := node.(types.Reader)
	if node.Kind() == types.KindSpring || !isReader {
		logger.Error().Str("spring", origin).Str("path", pathStr).Msg("Spring cannot accept pipeline inputs")
		return fmt.Errorf("invalid pipeline configuration: %q is a Spring and cannot accept pipeline inputs (%s)", nodeID, pathStr)
	}

	outputs := reader.OutputIDs()
	if len(outputs) == 0 {
		logger.Warn().Str("spring", origin).Str("node", nodeID).Msg("node can write but has no output nodes defined")
		return nil
	}

	for _, next := range outputs {
		if err := checkPipeline(g, logger, origin, next, path); err != nil {
			return err
		}
	}
	return nil
}
