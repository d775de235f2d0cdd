package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/missionctl/missionctl/internal/models"
)

// planFile is the on-disk shape accepted by `missionctl plan`: a thin,
// yaml-tagged mirror of models.Plan/models.JobSpec (grounded on the
// teacher's parser/markdown.go front matter structs, which likewise keep a
// dedicated parse-target type rather than tagging the domain model for an
// input format it doesn't own).
type planFile struct {
	Name       string        `yaml:"name"`
	Mode       string        `yaml:"mode"`
	BaseCommit string        `yaml:"baseCommit"`
	Jobs       []planFileJob `yaml:"jobs"`
}

type planFileJob struct {
	Name      string   `yaml:"name"`
	Prompt    string   `yaml:"prompt"`
	DependsOn []string `yaml:"dependsOn"`
}

// loadPlanFile reads and converts a plan YAML document into a fresh
// models.Plan (spec.md §4.10 startPlan contract takes a Plan value; the
// Tool Surface itself never parses files).
func loadPlanFile(path string) (*models.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan file %s: %w", path, err)
	}

	var pf planFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse plan file %s: %w", path, err)
	}
	if len(pf.Jobs) == 0 {
		return nil, fmt.Errorf("plan file %s declares no jobs", path)
	}

	mode := models.Mode(pf.Mode)
	if mode == "" {
		mode = models.ModeSupervisor
	}

	jobs := make([]models.JobSpec, 0, len(pf.Jobs))
	for _, j := range pf.Jobs {
		jobs = append(jobs, models.JobSpec{
			Name:      j.Name,
			Prompt:    j.Prompt,
			DependsOn: j.DependsOn,
			Status:    models.JobQueued,
		})
	}

	return &models.Plan{
		Name:       pf.Name,
		Mode:       mode,
		BaseCommit: pf.BaseCommit,
		Jobs:       jobs,
	}, nil
}
