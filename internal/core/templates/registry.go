// Package templates holds the single registry of challenge templates, keyed
// by challenge type: defaults, display metadata and default task sets.
package templates

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
)

//go:embed templates.yaml
var defaultTemplates []byte

type TaskTemplate struct {
	Name          string           `yaml:"name" json:"name"`
	Description   string           `yaml:"description" json:"description"`
	Type          domain.TaskType  `yaml:"type" json:"type"`
	Frequency     domain.Frequency `yaml:"frequency" json:"frequency"`
	TargetValue   *float64         `yaml:"target_value" json:"target_value,omitempty"`
	Unit          string           `yaml:"unit" json:"unit,omitempty"`
	ScheduledTime string           `yaml:"scheduled_time" json:"scheduled_time,omitempty"`
}

func (t TaskTemplate) Spec() domain.TaskSpec {
	return domain.TaskSpec{
		Name:          t.Name,
		Description:   t.Description,
		Type:          t.Type,
		Frequency:     t.Frequency,
		TargetValue:   t.TargetValue,
		Unit:          t.Unit,
		ScheduledTime: t.ScheduledTime,
	}
}

type Template struct {
	Type         domain.ChallengeType `yaml:"type" json:"type"`
	Name         string               `yaml:"name" json:"name"`
	Description  string               `yaml:"description" json:"description"`
	DurationDays int                  `yaml:"duration_days" json:"duration_days"`
	Difficulty   string               `yaml:"difficulty" json:"difficulty"`
	Color        string               `yaml:"color" json:"color"`
	Tasks        []TaskTemplate       `yaml:"tasks" json:"tasks"`
}

type file struct {
	Templates []Template `yaml:"templates"`
}

type Registry struct {
	byType map[domain.ChallengeType]Template
	order  []domain.ChallengeType
}

// Default returns the registry compiled into the binary.
func Default() (*Registry, error) {
	return Parse(defaultTemplates)
}

// LoadFile reads a registry from path; an empty path yields the default.
func LoadFile(path string) (*Registry, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("templates: read %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("templates: decode: %w", err)
	}

	r := &Registry{byType: make(map[domain.ChallengeType]Template, len(f.Templates))}
	for _, t := range f.Templates {
		if err := check(t); err != nil {
			return nil, err
		}
		if _, dup := r.byType[t.Type]; dup {
			return nil, fmt.Errorf("templates: duplicate template for %s", t.Type)
		}
		r.byType[t.Type] = t
		r.order = append(r.order, t.Type)
	}
	return r, nil
}

func check(t Template) error {
	if !t.Type.Valid() {
		return fmt.Errorf("templates: unknown challenge type %q", t.Type)
	}
	if t.DurationDays < domain.MinDuration || t.DurationDays > domain.MaxDuration {
		return fmt.Errorf("templates: %s duration %d out of range", t.Type, t.DurationDays)
	}
	if fixed := domain.FixedTaskCount(t.Type); fixed > 0 && len(t.Tasks) != fixed {
		return fmt.Errorf("templates: %s must define exactly %d tasks, got %d", t.Type, fixed, len(t.Tasks))
	}
	for i, task := range t.Tasks {
		if _, err := domain.NewTask("template", task.Spec(), i); err != nil {
			return fmt.Errorf("templates: %s task %d: %w", t.Type, i, err)
		}
	}
	return nil
}

func (r *Registry) Get(t domain.ChallengeType) (Template, bool) {
	tpl, ok := r.byType[t]
	return tpl, ok
}

// List returns templates in file order.
func (r *Registry) List() []Template {
	out := make([]Template, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, r.byType[t])
	}
	return out
}
