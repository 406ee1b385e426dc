package model

// Plan is the rendered execution artifact handed to an external scheduler
type Plan struct {
	APIVersion string         `yaml:"apiVersion" json:"apiVersion"`
	Kind       string         `yaml:"kind" json:"kind"`
	Metadata   PlanMetadata   `yaml:"metadata" json:"metadata"`
	Workflows  []PlanWorkflow `yaml:"workflows" json:"workflows"`
}

// PlanMetadata describes how the plan was produced
type PlanMetadata struct {
	Definitions string `yaml:"definitions" json:"definitions"`
	Workflows   int    `yaml:"workflows" json:"workflows"`
	Units       int    `yaml:"units" json:"units"`
	Failed      int    `yaml:"failed,omitempty" json:"failed,omitempty"`
}

// PlanWorkflow is one workflow with its units sorted by rank
type PlanWorkflow struct {
	ID                string                 `yaml:"id" json:"id"`
	Name              string                 `yaml:"name" json:"name"`
	Source            string                 `yaml:"source,omitempty" json:"source,omitempty"`
	Schedule          string                 `yaml:"schedule" json:"schedule"`
	DefaultParameters map[string]interface{} `yaml:"defaultParameters" json:"defaultParameters"`
	Status            Status                 `yaml:"status" json:"status"`
	Units             []PlanUnit             `yaml:"units" json:"units"`
	Error             string                 `yaml:"error,omitempty" json:"error,omitempty"`
}

// PlanUnit is a unit with its resolved position
type PlanUnit struct {
	ID           string                 `yaml:"id" json:"id"`
	Name         string                 `yaml:"name" json:"name"`
	Command      string                 `yaml:"command" json:"command"`
	Parameters   map[string]interface{} `yaml:"parameters,omitempty" json:"parameters,omitempty"`
	Dependencies []string               `yaml:"dependencies" json:"dependencies"`
	Rank         int                    `yaml:"rank" json:"rank"`
	Stage        int                    `yaml:"stage" json:"stage"` // elimination round the unit became ready in
	Status       Status                 `yaml:"status" json:"status"`
}
