package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func script(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

func TestShell_Session(t *testing.T) {
	env := newCLIEnv(t)

	r := env.runWithInput(script(
		"2", "roles", "name,description", "admin,full access",
		"1", "roles",
		"3", "roles", "description", "x", "id = 1",
		"2", "roles", "name", "a,b",
		"1", "sqlite_master",
		"4", "roles", "id = 1",
		"1", "roles",
		"9",
		"5",
	), "shell")
	require.Equal(t, ExitSuccess, r.code, r.stderr)

	out := r.stdout
	assert.Contains(t, out, "1. View rows")
	assert.Contains(t, out, "Columns of roles: id, name, description")
	assert.Contains(t, out, "✓ Row added (id 1)")
	assert.Contains(t, out, "full access")
	assert.Contains(t, out, "✓ 1 row(s) updated")
	assert.Contains(t, out, "✗ ARITY_MISMATCH")
	assert.Contains(t, out, "✗ TABLE_NOT_ALLOWED")
	assert.Contains(t, out, "✓ 1 row(s) deleted")
	assert.Contains(t, out, "Table roles is empty.")
	assert.Contains(t, out, `Invalid choice "9"`)
	assert.True(t, strings.HasSuffix(out, "Bye.\n"), out)
}

func TestShell_ErrorsDoNotEndSession(t *testing.T) {
	env := newCLIEnv(t)

	r := env.runWithInput(script(
		"4", "roles", "",
		"4", "roles", "id = 1 OR",
		"3", "roles", "title", "x", "id = 1",
		"2", "roles", "name", "guest",
		"5",
	), "shell")
	require.Equal(t, ExitSuccess, r.code)

	assert.Contains(t, r.stdout, "✗ MISSING_PREDICATE")
	assert.Contains(t, r.stdout, "✗ INVALID_PREDICATE")
	assert.Contains(t, r.stdout, "✗ SCHEMA_MISMATCH")
	assert.Contains(t, r.stdout, "✓ Row added (id 1)")
}

func TestShell_EndOfInput(t *testing.T) {
	env := newCLIEnv(t)

	r := env.runWithInput("1\n", "shell")
	assert.Equal(t, ExitSuccess, r.code)
	assert.Contains(t, r.stdout, "Table (e.g. students, users): ")
	assert.NotContains(t, r.stdout, "Bye.")

	r = env.runWithInput("", "shell")
	assert.Equal(t, ExitSuccess, r.code)
}

func TestShell_UnknownTableColumns(t *testing.T) {
	env := newCLIEnv(t)

	r := env.runWithInput(script("2", "nope", "a", "b", "5"), "shell")
	require.Equal(t, ExitSuccess, r.code)
	assert.Contains(t, r.stdout, "Columns of nope: \n")
	assert.Contains(t, r.stdout, "✗ TABLE_NOT_ALLOWED")
}
