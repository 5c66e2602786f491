package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// RunPlan lists the fuzz targets for one invocation. Targets run
// sequentially, each against its own output subdirectory.
type RunPlan struct {
	Targets []PlanTarget `yaml:"targets"`
}

type PlanTarget struct {
	Binary   string `yaml:"binary"`
	Duration int    `yaml:"duration"` // seconds
	Project  string `yaml:"project"`
}

func LoadRunPlan(path string) (*RunPlan, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read run plan: %w", err)
	}

	var plan RunPlan
	if err := yaml.Unmarshal(content, &plan); err != nil {
		return nil, fmt.Errorf("parse run plan: %w", err)
	}
	if len(plan.Targets) == 0 {
		return nil, fmt.Errorf("run plan %s lists no targets", path)
	}
	// target basenames double as output subdirectory names, so they must
	// be unique within one plan
	seen := make(map[string]string, len(plan.Targets))
	for i, target := range plan.Targets {
		if target.Binary == "" {
			return nil, fmt.Errorf("run plan target %d has no binary", i)
		}
		if target.Duration <= 0 {
			return nil, fmt.Errorf("run plan target %s has non-positive duration", target.Binary)
		}
		name := filepath.Base(target.Binary)
		if prev, ok := seen[name]; ok {
			return nil, fmt.Errorf("run plan targets %s and %s share the name %s", prev, target.Binary, name)
		}
		seen[name] = target.Binary
	}
	return &plan, nil
}
