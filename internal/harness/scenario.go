package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/hql/internal/compiler"
	"github.com/roach88/hql/internal/config"
	"github.com/roach88/hql/internal/semantic"
)

// Scenario is a list of queries compiled against one catalog, each with
// the outcome it must reach.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario covers.
	Description string `yaml:"description"`

	// Catalog is the fixture to seed, relative to the scenario file.
	Catalog string `yaml:"catalog"`

	// Dialect applies to every case that does not name its own.
	Dialect semantic.DialectID `yaml:"dialect"`

	// Options override compiler.DefaultOptions for every case.
	Options config.Query `yaml:"options,omitempty"`

	Cases []Case `yaml:"cases"`
}

// Case is one query and its expected outcome.
type Case struct {
	Query   string             `yaml:"query"`
	Dialect semantic.DialectID `yaml:"dialect,omitempty"`
	Expect  Expect             `yaml:"expect"`
}

// Expect describes a compilation outcome. Codes are compared as lists, in
// the order the stages raised them.
type Expect struct {
	// Stage is done or failed. Empty means done.
	Stage    compiler.Stage `yaml:"stage,omitempty"`
	FailedAt compiler.Stage `yaml:"failed_at,omitempty"`
	Warnings []string       `yaml:"warnings,omitempty"`
	Errors   []string       `yaml:"errors,omitempty"`

	// Results, when present, are the ids the store must return in order.
	// An explicit empty list expects no rows.
	Results []int64 `yaml:"results,omitempty"`

	// SQLContains are fragments the rendered statement must contain.
	SQLContains []string `yaml:"sql_contains,omitempty"`
}

// Opts returns the compiler options the scenario runs with.
func (s *Scenario) Opts() compiler.Options {
	return s.Options.Apply(compiler.DefaultOptions())
}

// DialectOf returns the dialect c compiles for.
func (s *Scenario) DialectOf(c Case) semantic.DialectID {
	if c.Dialect != "" {
		return c.Dialect
	}
	return s.Dialect
}

// LoadScenario reads and parses a scenario YAML file. The catalog path is
// resolved against the file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	s, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Catalog != "" && !filepath.IsAbs(s.Catalog) {
		s.Catalog = filepath.Join(filepath.Dir(path), s.Catalog)
	}
	return s, nil
}

// ParseScenario decodes and validates a scenario. Catalog paths are left
// as written.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // catches typos like "expects:"
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

// LoadDir loads every .yaml scenario directly under dir, sorted by file
// name.
func LoadDir(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	out := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}
	for i, c := range s.Cases {
		d := s.DialectOf(c)
		if d == "" {
			return fmt.Errorf("case %d: no dialect", i)
		}
		if _, ok := semantic.Lookup(d); !ok {
			return fmt.Errorf("case %d: unknown dialect %q", i, d)
		}
		switch c.Expect.Stage {
		case "", compiler.StageDone:
			if c.Expect.FailedAt != "" || len(c.Expect.Errors) > 0 {
				return fmt.Errorf("case %d: a done case expects no failure", i)
			}
		case compiler.StageFailed:
			if c.Expect.FailedAt == "" {
				return fmt.Errorf("case %d: failed_at is required when stage is failed", i)
			}
			if c.Expect.Results != nil || len(c.Expect.SQLContains) > 0 {
				return fmt.Errorf("case %d: a failed case has no results", i)
			}
		default:
			return fmt.Errorf("case %d: stage must be done or failed, got %q", i, c.Expect.Stage)
		}
	}
	return nil
}
