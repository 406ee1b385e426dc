package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sourceplane/nthflow/internal/planner"
	"github.com/sourceplane/nthflow/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const etl = `
my_flow_1:
  cron: "0 0 * * *"
  default_args:
    retries: 3
  tasks:
    - name: task1
      command: python task1.py
      args:
        arg1: value1
    - name: task2
      command: python task2.py
      dependencies:
        - task1
    - name: task3
      command: python task3.py
      dependencies: [task2]
`

const cyclic = `
looping:
  cron: "@daily"
  default_args: {}
  tasks:
    - name: a
      command: a
      dependencies: [b]
    - name: b
      command: b
      dependencies: [a]
`

// run executes the CLI in a scratch working directory
func run(t *testing.T, files map[string]string, args ...string) (string, string, error) {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	t.Chdir(dir)

	var stdout, stderr bytes.Buffer
	root := newRootCommand()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestBuildCommand(t *testing.T) {
	stdout, _, err := run(t, map[string]string{"etl.yml": etl},
		"build", "-d", "*.yml", "-o", "out/plan.yaml", "--view", "dag")
	require.NoError(t, err)

	assert.Contains(t, stdout, "□ Rendering plan...")
	assert.Contains(t, stdout, "✓ Resolved 1 of 1 workflows (3 units)")
	assert.Contains(t, stdout, "✓ Saved to: out/plan.yaml")
	assert.Contains(t, stdout, "└─ my_flow_1 [0 0 * * *]")

	plan, err := render.ReadPlan("out/plan.yaml")
	require.NoError(t, err)
	require.Len(t, plan.Workflows, 1)
	units := plan.Workflows[0].Units
	assert.Equal(t, "task1", units[0].Name)
	assert.Equal(t, "task3", units[2].Name)
	assert.Equal(t, 2, units[2].Rank)
}

func TestBuildCommandFailures(t *testing.T) {
	t.Run("cycle aborts", func(t *testing.T) {
		_, _, err := run(t, map[string]string{"a.yml": etl, "b.yml": cyclic},
			"build", "-d", ".", "-o", "plan.json")
		assert.ErrorIs(t, err, planner.ErrCycleDetected)
		assert.NoFileExists(t, "plan.json")
	})

	t.Run("keep going writes the partial plan", func(t *testing.T) {
		_, stderr, err := run(t, map[string]string{"a.yml": etl, "b.yml": cyclic},
			"build", "-d", ".", "-o", "plan.json", "--keep-going", "--workers", "2")
		assert.ErrorIs(t, err, planner.ErrCycleDetected)
		assert.Contains(t, stderr, "workflow excluded from rank table")

		plan, readErr := render.ReadPlan("plan.json")
		require.NoError(t, readErr)
		assert.Equal(t, 1, plan.Metadata.Failed)
		assert.Len(t, plan.Workflows, 2)
	})

	t.Run("definitions required", func(t *testing.T) {
		_, _, err := run(t, nil, "build")
		assert.ErrorContains(t, err, "definitions is required")
	})

	t.Run("unknown view", func(t *testing.T) {
		_, _, err := run(t, map[string]string{"etl.yml": etl}, "build", "-d", ".", "--view", "tree")
		assert.ErrorContains(t, err, `unknown view "tree"`)
	})
}

func TestBuildCommandNonStringParameterKeys(t *testing.T) {
	flow := "f: {cron: x, default_args: {opts: {1: one}}, tasks: [{name: a, command: a, args: {2: two}}]}\n"

	stdout, _, err := run(t, map[string]string{"f.yml": flow}, "build", "-d", ".", "-o", "plan.json")
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ Saved to: plan.json")

	plan, err := render.ReadPlan("plan.json")
	require.NoError(t, err)
	wf := plan.Workflows[0]
	assert.Equal(t, map[string]interface{}{"1": "one"}, wf.DefaultParameters["opts"])
	assert.Equal(t, "two", wf.Units[0].Parameters["2"])
}

func TestValidateCommand(t *testing.T) {
	stdout, _, err := run(t, map[string]string{"etl.yml": etl}, "validate", "-d", "etl.yml")
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ 1 workflows with 3 units are valid")

	_, _, err = run(t, map[string]string{"broken.yml": "flow:\n  cron: x\n  tasks: []\n"}, "validate", "-d", ".")
	assert.ErrorContains(t, err, `missing required field "default_args"`)
}

func TestWorkflowsCommand(t *testing.T) {
	files := map[string]string{"etl.yml": etl}

	stdout, _, err := run(t, files, "workflows", "-d", ".")
	require.NoError(t, err)
	assert.Contains(t, stdout, "my_flow_1 [0 0 * * *] 3 units (etl.yml)")

	stdout, _, err = run(t, files, "workflows", "my_flow_1", "-d", ".")
	require.NoError(t, err)
	assert.Contains(t, stdout, "    retries: 3\n")
	assert.Contains(t, stdout, "    1. task2 | python task2.py\n       Dependencies: task1\n")

	_, _, err = run(t, files, "workflows", "nope", "-d", ".")
	assert.ErrorContains(t, err, "workflow not found: nope")
}

func TestInspectCommand(t *testing.T) {
	files := map[string]string{"etl.yml": etl}

	stdout, _, err := run(t, files, "inspect", "my_flow_1", "task2", "-d", ".")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Rank: 1, Stage: 1")
	assert.Contains(t, stdout, "Depends on: task1")
	assert.Contains(t, stdout, "All downstream: task3")

	_, _, err = run(t, files, "inspect", "my_flow_1", "ghost", "-d", ".")
	assert.ErrorContains(t, err, "unit ghost not found in workflow my_flow_1")
}

func TestShowCommand(t *testing.T) {
	_, _, err := run(t, map[string]string{"etl.yml": etl}, "build", "-d", ".", "-o", "plan.json", "--stable-ids")
	require.NoError(t, err)

	var stdout bytes.Buffer
	root := newRootCommand()
	root.SetOut(&stdout)
	root.SetArgs([]string{"show", "plan.json", "--view", "dependencies"})
	require.NoError(t, root.Execute())

	assert.Contains(t, stdout.String(), "Unit Dependencies")
	assert.Contains(t, stdout.String(), "(depends on) task1")
}
