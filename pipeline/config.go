package pipeline

import (
	"fmt"
	"os"

	"github.com/farriolsartur/experiment/push"
	"github.com/farriolsartur/experiment/report"
	"gopkg.in/yaml.v3"
)

// ExperimentKey is the reserved top-level key holding ExperimentParams.
const ExperimentKey = "ExperimentParams"

type ExperimentParams struct {
	// Report and Push are nil when disabled.
	Report *report.Params
	Push   *push.Params

	// BlockRNGSeed derives a seed per stage that does not set rng_seed.
	BlockRNGSeed bool
	// RNGSeed is the base seed for derivation.
	RNGSeed int64
	// Recompute is the default for stages that do not set recompute.
	Recompute bool
}

// StageConfig is one declared stage, in config order.
type StageConfig struct {
	Name   string
	Module string
	Params Params
}

type Config struct {
	Experiment ExperimentParams
	Stages     []StageConfig
}

type rawExperiment struct {
	Report       yaml.Node `yaml:"report"`
	Push         yaml.Node `yaml:"push"`
	BlockRNGSeed bool      `yaml:"block_rng_seed"`
	RNGSeed      int64     `yaml:"rng_seed"`
	Recompute    bool      `yaml:"recompute"`
}

func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(raw)
}

// ParseConfig reads stage declarations keeping their order.
func ParseConfig(raw []byte) (*Config, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, configErrorf("parsing yaml: %v", err)
	}
	cfg := &Config{}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return cfg, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, configErrorf("top level must be a mapping of stage name to params")
	}

	seen := make(map[string]bool)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		name := key.Value
		if seen[name] {
			return nil, configErrorf("line %d: duplicate stage %q", key.Line, name)
		}
		seen[name] = true

		if name == ExperimentKey {
			if err := decodeExperiment(val, &cfg.Experiment); err != nil {
				return nil, err
			}
			continue
		}
		sc, err := decodeStage(name, val)
		if err != nil {
			return nil, err
		}
		cfg.Stages = append(cfg.Stages, sc)
	}
	return cfg, nil
}

func decodeStage(name string, val *yaml.Node) (StageConfig, error) {
	if val.Kind != yaml.MappingNode {
		return StageConfig{}, configErrorf("line %d: stage %q must be a mapping", val.Line, name)
	}
	params := Params{}
	if err := val.Decode(&params); err != nil {
		return StageConfig{}, configErrorf("stage %q: %v", name, err)
	}
	module, ok := params["module"].(string)
	if !ok || module == "" {
		return StageConfig{}, configErrorf("stage %q: missing module", name)
	}
	delete(params, "module")
	for k, v := range params {
		params[k] = plainValue(v)
	}
	return StageConfig{Name: name, Module: module, Params: params}, nil
}

func decodeExperiment(val *yaml.Node, out *ExperimentParams) error {
	var raw rawExperiment
	if err := val.Decode(&raw); err != nil {
		return configErrorf("%s: %v", ExperimentKey, err)
	}
	out.BlockRNGSeed = raw.BlockRNGSeed
	out.RNGSeed = raw.RNGSeed
	out.Recompute = raw.Recompute

	var rp report.Params
	on, err := decodeToggle(&raw.Report, &rp)
	if err != nil {
		return configErrorf("%s.report: %v", ExperimentKey, err)
	}
	if on {
		out.Report = &rp
	}

	var pp push.Params
	on, err = decodeToggle(&raw.Push, &pp)
	if err != nil {
		return configErrorf("%s.push: %v", ExperimentKey, err)
	}
	if on {
		if pp.Bucket == "" {
			return configErrorf("%s.push: bucket is required", ExperimentKey)
		}
		out.Push = &pp
	}
	return nil
}

// decodeToggle handles options that are either a bool or a mapping.
// true enables with zero-valued params; a mapping enables with its values.
func decodeToggle(n *yaml.Node, out any) (bool, error) {
	switch n.Kind {
	case 0:
		return false, nil
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return false, nil
		}
		var on bool
		if err := n.Decode(&on); err != nil {
			return false, err
		}
		return on, nil
	case yaml.MappingNode:
		return true, n.Decode(out)
	default:
		return false, fmt.Errorf("line %d: expected bool or mapping", n.Line)
	}
}
