package model

// Definition is one raw workflow definition as produced by the loader.
// Raw holds the decoded YAML mapping and is not interpreted until build time.
type Definition struct {
	Name   string                 // top-level key in the definition file
	Source string                 // file the definition was read from
	Raw    map[string]interface{} // {cron, default_args, tasks}
}

// Definition file keys
const (
	KeySchedule          = "cron"
	KeyDefaultParameters = "default_args"
	KeyTasks             = "tasks"

	KeyUnitName         = "name"
	KeyUnitCommand      = "command"
	KeyUnitParameters   = "args"
	KeyUnitDependencies = "dependencies"
)
