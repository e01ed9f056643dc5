package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/graphlint/internal/backend"
	"github.com/roach88/graphlint/internal/engine"
	"github.com/roach88/graphlint/internal/testutil"
)

// Scenario defines one end-to-end validation case.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema is the schema file, relative to the scenario file.
	Schema string `yaml:"schema"`

	// Format forces the grammar; empty means detect.
	Format string `yaml:"format,omitempty"`

	// Mapping is an optional mapping override file, relative to the
	// scenario file.
	Mapping string `yaml:"mapping,omitempty"`

	Strict bool `yaml:"strict,omitempty"`

	// Backend defaults to cypher.
	Backend string `yaml:"backend,omitempty"`

	// Graph is the data the plan runs against.
	Graph testutil.Fixture `yaml:"graph"`

	// FailChecks makes the named checks' queries fail with the given
	// message.
	FailChecks map[string]string `yaml:"fail_checks,omitempty"`

	Expect Expectation `yaml:"expect"`

	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Expectation is the report-level outcome.
type Expectation struct {
	Conforms bool            `yaml:"conforms"`
	Summary  *engine.Summary `yaml:"summary,omitempty"`
}

// Assertion checks the outcome of one check.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Check is the check id.
	Check string `yaml:"check"`

	// Count is the expected violation count (check_failed only).
	Count *int `yaml:"count,omitempty"`

	// Nodes are element ids that must appear among the violating nodes
	// (check_failed only).
	Nodes []string `yaml:"nodes,omitempty"`
}

// Assertion type constants.
const (
	AssertCheckPassed  = "check_passed"
	AssertCheckFailed  = "check_failed"
	AssertCheckVacuous = "check_vacuous"
	AssertCheckError   = "check_error"
)

// LoadScenario reads and parses a scenario YAML file, resolving the
// schema and mapping paths against the file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	scenario.Schema = resolve(base, scenario.Schema)
	scenario.Mapping = resolve(base, scenario.Mapping)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml file in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Schema == "" {
		return fmt.Errorf("schema is required")
	}
	if _, err := os.Stat(s.Schema); os.IsNotExist(err) {
		return fmt.Errorf("schema file not found: %s", s.Schema)
	}
	if s.Mapping != "" {
		if _, err := os.Stat(s.Mapping); os.IsNotExist(err) {
			return fmt.Errorf("mapping file not found: %s", s.Mapping)
		}
	}
	if s.Backend != "" {
		if _, err := backend.Get(s.Backend); err != nil {
			return err
		}
	}

	ids := make(map[string]bool, len(s.Graph.Nodes))
	for i, n := range s.Graph.Nodes {
		if n.ID == "" {
			return fmt.Errorf("graph.nodes[%d]: id is required", i)
		}
		if ids[n.ID] {
			return fmt.Errorf("graph.nodes[%d]: duplicate id %q", i, n.ID)
		}
		ids[n.ID] = true
	}
	for i, r := range s.Graph.Relationships {
		if r.Type == "" {
			return fmt.Errorf("graph.relationships[%d]: type is required", i)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a Assertion) error {
	if a.Check == "" {
		return fmt.Errorf("assertions[%d]: check is required", index)
	}
	switch a.Type {
	case AssertCheckPassed, AssertCheckVacuous, AssertCheckError:
		if a.Count != nil || len(a.Nodes) > 0 {
			return fmt.Errorf("assertions[%d]: count and nodes only apply to %s", index, AssertCheckFailed)
		}
	case AssertCheckFailed:
		if a.Count != nil && *a.Count < 1 {
			return fmt.Errorf("assertions[%d]: count must be positive for check_failed", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
