package testbed

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Mode selects which drain path a scenario exercises.
type Mode string

const (
	ModeSync  Mode = "sync"
	ModeAsync Mode = "async"
)

// Kind names the release shape of a simulated resource.
type Kind string

const (
	KindImmediate Kind = "immediate"
	KindAsync     Kind = "async"
	KindComposite Kind = "composite"
)

// Duration wraps time.Duration so scenario files can write "150ms".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Scenario describes a resource tree to build and drain.
type Scenario struct {
	Name      string         `yaml:"name"`
	Mode      Mode           `yaml:"mode"`    // defaults to sync
	Timeout   Duration       `yaml:"timeout"` // async mode: drain deadline, 0 = none
	Strict    bool           `yaml:"strict"`  // refuse blocking adaptations
	Resources []ResourceSpec `yaml:"resources"`
}

// ResourceSpec describes one simulated resource.
type ResourceSpec struct {
	Name     string         `yaml:"name"`
	Kind     Kind           `yaml:"kind"`
	Delay    Duration       `yaml:"delay"`    // simulated release latency
	Fail     string         `yaml:"fail"`     // non-empty: release fails with this message
	Children []ResourceSpec `yaml:"children"` // composite kind only
}

// Parse decodes and validates a scenario document.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if s.Mode == "" {
		s.Mode = ModeSync
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load reads and parses a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(data)
}

// Validate checks the scenario for structural mistakes.
func (s *Scenario) Validate() error {
	if s.Mode != ModeSync && s.Mode != ModeAsync {
		return fmt.Errorf("invalid mode %q", s.Mode)
	}
	if len(s.Resources) == 0 {
		return fmt.Errorf("scenario %q has no resources", s.Name)
	}
	return validateSpecs(s.Resources)
}

func validateSpecs(specs []ResourceSpec) error {
	for _, spec := range specs {
		if spec.Name == "" {
			return fmt.Errorf("resource with empty name")
		}
		switch spec.Kind {
		case KindImmediate, KindAsync:
			if len(spec.Children) > 0 {
				return fmt.Errorf("resource %q: only composite resources may have children", spec.Name)
			}
		case KindComposite:
			if spec.Fail != "" {
				return fmt.Errorf("resource %q: composite resources cannot fail directly", spec.Name)
			}
			if spec.Delay != 0 {
				return fmt.Errorf("resource %q: composite resources cannot delay directly", spec.Name)
			}
			if err := validateSpecs(spec.Children); err != nil {
				return err
			}
		default:
			return fmt.Errorf("resource %q: invalid kind %q", spec.Name, spec.Kind)
		}
	}
	return nil
}

// Total counts the leaf resources in the tree. Composite nodes produce no
// release events of their own.
func (s *Scenario) Total() int {
	return countLeaves(s.Resources)
}

func countLeaves(specs []ResourceSpec) int {
	n := 0
	for _, spec := range specs {
		if spec.Kind == KindComposite {
			n += countLeaves(spec.Children)
			continue
		}
		n++
	}
	return n
}
