package scenario

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/controlstore/internal/errors"
)

// Scenario is a parsed scenario document.
type Scenario struct {
	Name     string                            `yaml:"name"`
	Store    StoreSpec                         `yaml:"store"`
	Bindings map[string]map[string]BindingSpec `yaml:"bindings"`
	Steps    []Step                            `yaml:"steps"`

	// File is the path the scenario was read from, if any.
	File string `yaml:"-"`
}

// StoreSpec describes the store under test.
type StoreSpec struct {
	Name    string         `yaml:"name"`
	Initial map[string]any `yaml:"initial"`
}

// BindingSpec configures one key of a binding.
type BindingSpec struct {
	Default    any
	HasDefault bool
	Name       string
	State      string
}

// UnmarshalYAML records whether a default was given, so that an explicit
// null default is kept.
func (b *BindingSpec) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	b.Default, b.HasDefault = raw["default"]
	b.Name, _ = raw["name"].(string)
	b.State, _ = raw["state"].(string)
	return nil
}

// SetterStep calls a generated setter.
type SetterStep struct {
	Key     string `yaml:"key"`
	Value   any    `yaml:"value"`
	Details any    `yaml:"details"`
}

// SyncStep passes props to a binding.
type SyncStep struct {
	Binding string         `yaml:"binding"`
	Props   map[string]any `yaml:"props"`
}

// ExpectStep checks the store. Unset fields are not checked.
type ExpectStep struct {
	// State lists fields that must hold the given values.
	State map[string]any `yaml:"state"`

	// Absent lists fields that must not be present.
	Absent []string `yaml:"absent"`

	// Codes is the exact sequence of diagnostic codes since the previous
	// expect that checked codes.
	Codes *[]string `yaml:"codes"`

	// Controlled is the exact set of controlled keys.
	Controlled *[]string `yaml:"controlled"`

	// Calls maps keys to the exact OnChange values requested since the
	// previous expect that checked calls.
	Calls map[string][]any `yaml:"calls"`
}

// Step is one scenario step.
type Step struct {
	Configure map[string]any `yaml:"configure"`
	Set       map[string]any `yaml:"set"`
	Apply     map[string]any `yaml:"apply"`
	Update    map[string]any `yaml:"update"`
	Setter    *SetterStep    `yaml:"setter"`
	Sync      *SyncStep      `yaml:"sync"`
	Expect    *ExpectStep    `yaml:"expect"`

	// Line is the step's line in the source document.
	Line int `yaml:"-"`
}

type rawStep Step

// UnmarshalYAML decodes a step and records its line.
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	var raw rawStep
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*s = Step(raw)
	s.Line = node.Line
	return nil
}

// Kind returns the name of the step's operation, or "" if it does not set
// exactly one.
func (s Step) Kind() string {
	var kinds []string
	if s.Configure != nil {
		kinds = append(kinds, "configure")
	}
	if s.Set != nil {
		kinds = append(kinds, "set")
	}
	if s.Apply != nil {
		kinds = append(kinds, "apply")
	}
	if s.Update != nil {
		kinds = append(kinds, "update")
	}
	if s.Setter != nil {
		kinds = append(kinds, "setter")
	}
	if s.Sync != nil {
		kinds = append(kinds, "sync")
	}
	if s.Expect != nil {
		kinds = append(kinds, "expect")
	}
	if len(kinds) != 1 {
		return ""
	}
	return kinds[0]
}

// Parse decodes a scenario from YAML or JSON and validates it.
func Parse(data []byte) (*Scenario, error) {
	return parse(data, "")
}

// ParseFile reads and parses the scenario at path.
func ParseFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("E180").Wrap(err)
	}
	return parse(data, path)
}

func parse(data []byte, file string) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, errors.New("E180").
			WithDetail(err.Error()).
			Wrap(err)
	}
	sc.File = file

	if len(sc.Steps) == 0 {
		return nil, errors.New("E180").WithDetail("The scenario has no steps.")
	}

	for i, step := range sc.Steps {
		if step.Kind() == "" {
			return nil, sc.errorAt("E181", step.Line).
				WithMessage(fmt.Sprintf("Step %d must set exactly one operation", i+1))
		}
		if step.Setter != nil && step.Setter.Key == "" {
			return nil, sc.errorAt("E180", step.Line).
				WithDetail(fmt.Sprintf("Step %d: setter needs a key.", i+1))
		}
		if step.Sync != nil {
			if _, ok := sc.Bindings[step.Sync.Binding]; !ok {
				return nil, sc.errorAt("E180", step.Line).
					WithDetail(fmt.Sprintf("Step %d: unknown binding %q.", i+1, step.Sync.Binding)).
					WithSuggestion("Declare it under bindings: " + sc.bindingNames())
			}
		}
	}
	return &sc, nil
}

func (sc *Scenario) errorAt(code string, line int) *errors.StoreError {
	file := sc.File
	if file == "" {
		file = "<scenario>"
	}
	return errors.New(code).WithLocation(file, line, 0)
}

func (sc *Scenario) bindingNames() string {
	names := make([]string, 0, len(sc.Bindings))
	for n := range sc.Bindings {
		names = append(names, n)
	}
	sort.Strings(names)
	return fmt.Sprint(names)
}
