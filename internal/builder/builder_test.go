package builder

import (
	"fmt"
	"testing"

	"github.com/sourceplane/nthflow/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sequentialIDs makes identities predictable in assertions
type sequentialIDs struct{ n int }

func (s *sequentialIDs) WorkflowID(model.Definition) string {
	s.n++
	return fmt.Sprintf("wf-%d", s.n)
}

func (s *sequentialIDs) UnitID(workflowID, unitName string) string {
	return workflowID + "/" + unitName
}

func sampleDefinition() model.Definition {
	return model.Definition{
		Name:   "my_flow_1",
		Source: "flows/config1.yml",
		Raw: map[string]interface{}{
			"cron": "0 0 * * *",
			"default_args": map[string]interface{}{
				"on_failure_callback": "send_team_email.py",
				"on_success_callback": nil,
				"retries":             3,
				"retry_delay":         5,
				"start_date":          "2021-01-01",
			},
			"tasks": []interface{}{
				map[string]interface{}{
					"name":    "task1",
					"command": "python task1.py",
					"args":    map[string]interface{}{"arg1": "value1"},
				},
				map[string]interface{}{
					"name":         "task2",
					"command":      "python task2.py",
					"args":         map[string]interface{}{"arg2": "value2"},
					"dependencies": []interface{}{"task1"},
				},
			},
		},
	}
}

func TestBuildAll(t *testing.T) {
	b := New(WithIDGenerator(&sequentialIDs{}))

	registry, err := b.BuildAll([]model.Definition{sampleDefinition()})
	require.NoError(t, err)
	require.Equal(t, 1, registry.Len())

	wf, ok := registry.Get("wf-1")
	require.True(t, ok)
	assert.Equal(t, "my_flow_1", wf.Name)
	assert.Equal(t, "0 0 * * *", wf.Schedule)
	assert.Equal(t, "flows/config1.yml", wf.Source)
	assert.Equal(t, 3, wf.DefaultParameters["retries"])
	assert.Contains(t, wf.DefaultParameters, "on_success_callback")
	assert.Equal(t, model.StatusPending, wf.Status)

	require.Len(t, wf.Units, 2)
	task1, task2 := wf.Units[0], wf.Units[1]
	assert.Equal(t, "task1", task1.Name)
	assert.Equal(t, "wf-1/task1", task1.ID)
	assert.Equal(t, "wf-1", task1.WorkflowID)
	assert.Equal(t, "python task1.py", task1.Command)
	assert.Equal(t, map[string]interface{}{"arg1": "value1"}, task1.Parameters)
	assert.Empty(t, task1.Dependencies)
	assert.Equal(t, []string{"task1"}, task2.Dependencies)
	assert.Equal(t, model.StatusPending, task2.Status)
}

func TestBuildAllOptionalUnitFields(t *testing.T) {
	def := model.Definition{
		Name: "minimal",
		Raw: map[string]interface{}{
			"cron":         nil,
			"default_args": nil,
			"tasks": []interface{}{
				map[string]interface{}{"name": "only", "command": "true"},
			},
		},
	}

	registry, err := New().BuildAll([]model.Definition{def})
	require.NoError(t, err)

	wf := registry.Workflows()[0]
	assert.Equal(t, "", wf.Schedule)
	assert.NotNil(t, wf.DefaultParameters)
	assert.Empty(t, wf.DefaultParameters)
	assert.NotNil(t, wf.Units[0].Parameters)
	assert.Empty(t, wf.Units[0].Parameters)
	assert.NotNil(t, wf.Units[0].Dependencies)
	assert.Empty(t, wf.Units[0].Dependencies)
}

func TestBuildAllMissingFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(raw map[string]interface{})
		field   string
		message string
	}{
		{
			name:    "cron",
			mutate:  func(raw map[string]interface{}) { delete(raw, "cron") },
			field:   "cron",
			message: `workflow "my_flow_1": missing required field "cron"`,
		},
		{
			name:    "default_args",
			mutate:  func(raw map[string]interface{}) { delete(raw, "default_args") },
			field:   "default_args",
			message: `workflow "my_flow_1": missing required field "default_args"`,
		},
		{
			name:    "tasks",
			mutate:  func(raw map[string]interface{}) { delete(raw, "tasks") },
			field:   "tasks",
			message: `workflow "my_flow_1": missing required field "tasks"`,
		},
		{
			name: "unit name",
			mutate: func(raw map[string]interface{}) {
				delete(raw["tasks"].([]interface{})[1].(map[string]interface{}), "name")
			},
			field:   "name",
			message: `workflow "my_flow_1" task #2: missing required field "name"`,
		},
		{
			name: "unit command",
			mutate: func(raw map[string]interface{}) {
				delete(raw["tasks"].([]interface{})[0].(map[string]interface{}), "command")
			},
			field:   "command",
			message: `workflow "my_flow_1" task "task1": missing required field "command"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := sampleDefinition()
			tt.mutate(def.Raw)

			registry, err := New().BuildAll([]model.Definition{def})
			assert.Nil(t, registry)
			require.ErrorIs(t, err, ErrMissingField)

			var missing *MissingFieldError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, tt.field, missing.Field)
			assert.Equal(t, "my_flow_1", missing.Workflow)
			assert.Contains(t, err.Error(), tt.message)
			assert.Contains(t, err.Error(), "flows/config1.yml")
		})
	}
}

func TestBuildAllInvalidFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(raw map[string]interface{})
	}{
		{"tasks not a list", func(raw map[string]interface{}) { raw["tasks"] = "task1" }},
		{"tasks null", func(raw map[string]interface{}) { raw["tasks"] = nil }},
		{"cron not a string", func(raw map[string]interface{}) { raw["cron"] = 5 }},
		{"default_args not a mapping", func(raw map[string]interface{}) { raw["default_args"] = []interface{}{} }},
		{"task not a mapping", func(raw map[string]interface{}) { raw["tasks"] = []interface{}{"task1"} }},
		{"dependencies not a list", func(raw map[string]interface{}) {
			raw["tasks"].([]interface{})[1].(map[string]interface{})["dependencies"] = "task1"
		}},
		{"dependency not a string", func(raw map[string]interface{}) {
			raw["tasks"].([]interface{})[1].(map[string]interface{})["dependencies"] = []interface{}{1}
		}},
		{"empty name", func(raw map[string]interface{}) {
			raw["tasks"].([]interface{})[0].(map[string]interface{})["name"] = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := sampleDefinition()
			tt.mutate(def.Raw)

			_, err := New().BuildAll([]model.Definition{def})
			assert.ErrorIs(t, err, ErrInvalidField)
		})
	}
}

func TestBuildAllDuplicateUnit(t *testing.T) {
	def := sampleDefinition()
	tasks := def.Raw["tasks"].([]interface{})
	tasks[1].(map[string]interface{})["name"] = "task1"

	_, err := New().BuildAll([]model.Definition{def})
	assert.ErrorIs(t, err, ErrDuplicateUnit)
	assert.ErrorContains(t, err, "tasks #1 and #2")
}

func TestBuildAllSameNameAcrossFiles(t *testing.T) {
	first := sampleDefinition()
	second := sampleDefinition()
	second.Source = "flows/config2.yml"

	registry, err := New().BuildAll([]model.Definition{first, second})
	require.NoError(t, err)
	assert.Equal(t, 2, registry.Len())
	assert.Len(t, registry.FindByName("my_flow_1"), 2)
}

func TestRandomIDsAreFreshPerBuild(t *testing.T) {
	b := New()
	defs := []model.Definition{sampleDefinition()}

	first, err := b.BuildAll(defs)
	require.NoError(t, err)
	second, err := b.BuildAll(defs)
	require.NoError(t, err)

	// each pass gets its own registry
	assert.Equal(t, 1, first.Len())
	assert.Equal(t, 1, second.Len())

	ids := make(map[string]bool)
	for _, r := range []*model.Registry{first, second} {
		for _, wf := range r.Workflows() {
			assert.False(t, ids[wf.ID], "workflow id reused: %s", wf.ID)
			ids[wf.ID] = true
			for _, u := range wf.Units {
				assert.False(t, ids[u.ID], "unit id reused: %s", u.ID)
				ids[u.ID] = true
			}
		}
	}
	assert.Len(t, ids, 6)
}

func TestStableIDs(t *testing.T) {
	b := New(WithIDGenerator(StableIDs{}))
	defs := []model.Definition{sampleDefinition()}

	first, err := b.BuildAll(defs)
	require.NoError(t, err)
	second, err := b.BuildAll(defs)
	require.NoError(t, err)

	assert.Equal(t, first.IDs(), second.IDs())
	a, b2 := first.Workflows()[0], second.Workflows()[0]
	for i := range a.Units {
		assert.Equal(t, a.Units[i].ID, b2.Units[i].ID)
	}
	assert.NotEqual(t, a.Units[0].ID, a.Units[1].ID)

	other := sampleDefinition()
	other.Source = "flows/config2.yml"
	third, err := b.BuildAll([]model.Definition{other})
	require.NoError(t, err)
	assert.NotEqual(t, first.IDs(), third.IDs(), "source file participates in the identity")
}
