package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bittoy/pipeline/config"
	"github.com/bittoy/pipeline/types"
	"gopkg.in/yaml.v3"
)

// pipeKind converts a validated, lower-cased `configuration.pipe` string
// into its types.Kind. config.HeaderSpec's OneOf constraint already
// guarantees it is one of the three known values.
func pipeKind(pipe string) types.Kind { return types.Kind(pipe) }

// loadConfigurations enumerates c.configFolder, parses and validates each
// YAML file's header, resolves (pipe, type) against the registry,
// constructs the node and registers it in the graph. Duplicate names fail
// startup via Graph.Register.
func (c *Controller) loadConfigurations() error {
	entries, err := os.ReadDir(c.configFolder)
	if err != nil {
		return fmt.Errorf("reading config folder %q: %w", c.configFolder, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}
		path := filepath.Join(c.configFolder, entry.Name())
		if err := c.loadConfigFile(path, entry.Name()); err != nil {
			return fmt.Errorf("loading %q: %w", path, err)
		}
	}
	return nil
}

func isYAML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

func (c *Controller) loadConfigFile(path, fileName string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var decoded map[string]any
	if err := yaml.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("parsing yaml: %w", err)
	}

	expanded, ok := config.ExpandTree(decoded).(map[string]any)
	if !ok {
		return fmt.Errorf("expected a mapping at the document root")
	}

	defaultName := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	header, body, err := config.ParseHeader(expanded, defaultName)
	if err != nil {
		return fmt.Errorf("validating header: %w", err)
	}

	node, err := c.registry.New(pipeKind(header.Pipe), header.Type, header.Name, body)
	if err != nil {
		return fmt.Errorf("constructing node %q: %w", header.Name, err)
	}

	if err := c.graph.Register(header.Name, node); err != nil {
		return err
	}
	c.logger.Info().Str("name", header.Name).Str("pipe", header.Pipe).Str("type", header.Type).Msg("registered node")
	return nil
}
