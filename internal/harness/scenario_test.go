package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, `
name: test_scenario
description: "Test scenario for validation"
profiles: [student]
steps:
  - op: insert
    table: roles
    fields: [name, description]
    values: [admin, "full access"]
    expect:
      rows_affected: 1
assertions:
  - type: trace_contains
    op: insert
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, []string{"student"}, scenario.Profiles)
	require.Len(t, scenario.Steps, 1)
	assert.Equal(t, []string{"admin", "full access"}, scenario.Steps[0].Values)
	require.NotNil(t, scenario.Steps[0].Expect.RowsAffected)
	assert.Equal(t, int64(1), *scenario.Steps[0].Expect.RowsAffected)
	assert.Len(t, scenario.Assertions, 1)
}

func TestLoadScenario_NumbersDecodeAsText(t *testing.T) {
	path := writeScenario(t, `
name: numbers
description: "Scalars decode into string fields"
steps:
  - op: entity
    profile: student
    action: add
    record: { kurs: 3, ortacha_bal: 4.5 }
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "3", scenario.Steps[0].Record["kurs"])
	assert.Equal(t, "4.5", scenario.Steps[0].Record["ortacha_bal"])
}

func TestLoadScenario_ResolvesProfilesDir(t *testing.T) {
	path := writeScenario(t, `
name: dir
description: "Relative profiles dir"
profiles_dir: profiles
steps:
  - op: count
    table: roles
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "profiles"), scenario.ProfilesDir)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: "Typo in a key"
steps:
  - op: count
    table: roles
assertion:
  - type: row_count
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "missing name",
			content: "description: d\nsteps: [{op: count, table: roles}]\n",
			want:    "name is required",
		},
		{
			name:    "missing description",
			content: "name: n\nsteps: [{op: count, table: roles}]\n",
			want:    "description is required",
		},
		{
			name:    "no steps",
			content: "name: n\ndescription: d\nsteps: []\n",
			want:    "steps list is required",
		},
		{
			name:    "missing op",
			content: "name: n\ndescription: d\nsteps: [{table: roles}]\n",
			want:    "steps[0]: op is required",
		},
		{
			name:    "unknown op",
			content: "name: n\ndescription: d\nsteps: [{op: truncate, table: roles}]\n",
			want:    `unknown op "truncate"`,
		},
		{
			name:    "missing table",
			content: "name: n\ndescription: d\nsteps: [{op: select}]\n",
			want:    "table is required for select",
		},
		{
			name:    "update without set",
			content: "name: n\ndescription: d\nsteps: [{op: update, table: roles, where: id=1}]\n",
			want:    "set is required for update",
		},
		{
			name:    "entity without profile",
			content: "name: n\ndescription: d\nsteps: [{op: entity, action: list}]\n",
			want:    "profile is required",
		},
		{
			name:    "unknown entity action",
			content: "name: n\ndescription: d\nsteps: [{op: entity, profile: student, action: drop}]\n",
			want:    `unknown entity action "drop"`,
		},
		{
			name:    "expect in setup",
			content: "name: n\ndescription: d\nsetup: [{op: count, table: roles, expect: {count: 0}}]\nsteps: [{op: count, table: roles}]\n",
			want:    "expect is not allowed in setup",
		},
		{
			name:    "unknown assertion",
			content: "name: n\ndescription: d\nsteps: [{op: count, table: roles}]\nassertions: [{type: eventually}]\n",
			want:    `unknown assertion type "eventually"`,
		},
		{
			name:    "trace_order without ops",
			content: "name: n\ndescription: d\nsteps: [{op: count, table: roles}]\nassertions: [{type: trace_order}]\n",
			want:    "ops list is required",
		},
		{
			name:    "final_state without expect",
			content: "name: n\ndescription: d\nsteps: [{op: count, table: roles}]\nassertions: [{type: final_state, table: roles}]\n",
			want:    "expect is required for final_state",
		},
		{
			name:    "row_count without table",
			content: "name: n\ndescription: d\nsteps: [{op: count, table: roles}]\nassertions: [{type: row_count, count: 1}]\n",
			want:    "table is required for row_count",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseScenario_ArityMismatchIsAllowed(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: arity
description: "Mismatched fields and values are a valid test case"
steps:
  - op: insert
    table: roles
    fields: [name]
    values: [a, b]
    expect:
      error: ARITY_MISMATCH
`))
	require.NoError(t, err)
}

func TestLoadScenario_Testdata(t *testing.T) {
	files, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		t.Run(filepath.Base(f), func(t *testing.T) {
			_, err := LoadScenario(f)
			require.NoError(t, err)
		})
	}
}
