// Package script provides types and functions for loading and validating
// shotrec step scripts.
package script

import (
	"errors"
	"fmt"
	"strings"
)

// Script is one browser test: a name and the commands to run in order.
type Script struct {
	Meta  Meta   `yaml:"meta"`
	Steps []Step `yaml:"steps"`
}

// Validate checks that the script is valid.
func (s *Script) Validate() error {
	if err := s.Meta.Validate(); err != nil {
		return fmt.Errorf("meta: %w", err)
	}
	if len(s.Steps) == 0 {
		return errors.New("steps must contain at least one step")
	}
	for i, step := range s.Steps {
		if err := step.Validate(); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return nil
}

// Meta identifies the script. Name doubles as the screenshot directory name
// and is used verbatim.
type Meta struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Start       string `yaml:"start,omitempty"`
}

// Validate checks that the meta section is valid.
func (m *Meta) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return errors.New("name must be non-empty")
	}
	return nil
}

// Step is a single command sent to the processor.
type Step struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args,omitempty"`
}

// Validate checks that the step is valid.
func (s *Step) Validate() error {
	if strings.TrimSpace(s.Command) == "" {
		return errors.New("command must be non-empty")
	}
	return nil
}
