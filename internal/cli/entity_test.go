package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addStudent(t *testing.T, env *cliEnv, sets ...string) cliRun {
	t.Helper()
	args := []string{"entity", "student", "add"}
	for _, s := range sets {
		args = append(args, "--set", s)
	}
	return env.run(args...)
}

func TestEntity_StudentFlow(t *testing.T) {
	env := newCLIEnv(t)

	r := addStudent(t, env, "familya=Aliyev", "ismi=Vali", "kurs=2", "fakultet=Fizika")
	require.Equal(t, ExitSuccess, r.code, r.stdout+r.stderr)
	assert.Equal(t, "OK: 1 row(s) inserted (id 1)\n", r.stdout)

	r = addStudent(t, env, "familya=Karimova", "ismi=Lola", "kurs=4")
	require.Equal(t, ExitSuccess, r.code, r.stdout)

	r = addStudent(t, env, "familya=X", "ismi=Y", "kurs=7")
	assert.Equal(t, ExitFailure, r.code)
	assert.Contains(t, r.stdout, "Error [INVALID_VALUE]")

	r = env.run("entity", "student", "list")
	require.Equal(t, ExitSuccess, r.code)
	assert.Contains(t, r.stdout, "Aliyev")
	assert.Contains(t, r.stdout, "Karimova")

	r = env.run("entity", "student", "search", "Ali")
	require.Equal(t, ExitSuccess, r.code)
	assert.Contains(t, r.stdout, "Aliyev")
	assert.NotContains(t, r.stdout, "Karimova")

	r = env.run("entity", "student", "search", "4", "--field", "kurs")
	require.Equal(t, ExitSuccess, r.code)
	assert.Contains(t, r.stdout, "Karimova")
	assert.NotContains(t, r.stdout, "Aliyev")

	var data struct {
		Rows []map[string]any `json:"rows"`
	}
	r = env.run("entity", "student", "range", "kurs", "1", "3", "--format", "json")
	require.Equal(t, ExitSuccess, r.code, r.stdout)
	r.decode(t, &data)
	require.Len(t, data.Rows, 1)
	assert.Equal(t, "Aliyev", data.Rows[0]["familya"])

	r = env.run("entity", "student", "ids")
	require.Equal(t, ExitSuccess, r.code)
	assert.Equal(t, "1 2\n", r.stdout)

	r = env.run("entity", "student", "last-saved", "1")
	require.Equal(t, ExitSuccess, r.code)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\n$`, r.stdout)

	r = env.run("entity", "student", "update", "2", "--set", "kurs=5")
	require.Equal(t, ExitSuccess, r.code, r.stdout)
	assert.Equal(t, "OK: 1 row(s) updated\n", r.stdout)

	r = env.run("entity", "student", "get", "2", "--format", "json")
	require.Equal(t, ExitSuccess, r.code)
	r.decode(t, &data)
	require.Len(t, data.Rows, 1)
	assert.EqualValues(t, 5, data.Rows[0]["kurs"])

	r = env.run("entity", "student", "delete", "1")
	require.Equal(t, ExitSuccess, r.code)

	r = env.run("entity", "student", "count")
	require.Equal(t, ExitSuccess, r.code)
	assert.Equal(t, "1\n", r.stdout)
}

func TestEntity_Errors(t *testing.T) {
	env := newCLIEnv(t)

	r := env.run("entity", "student", "get", "9")
	assert.Equal(t, ExitFailure, r.code)
	assert.Contains(t, r.stdout, "Error [NOT_FOUND]")

	r = env.run("entity", "student", "range", "familya", "a", "b")
	assert.Equal(t, ExitFailure, r.code)
	assert.Contains(t, r.stdout, "Error [INVALID_VALUE]")

	r = env.run("entity", "student", "add", "--set", "familya=Aliyev")
	assert.Equal(t, ExitFailure, r.code, "ismi is required")
	assert.Contains(t, r.stdout, "Error [INVALID_VALUE]")

	commandErrors := []struct {
		name string
		args []string
		want string
	}{
		{"unknown profile", []string{"entity", "teacher", "list"}, `unknown profile "teacher"`},
		{"unknown action", []string{"entity", "student", "drop"}, `unknown action "drop"`},
		{"missing id", []string{"entity", "student", "get"}, "get takes 1 argument(s): id"},
		{"bad id", []string{"entity", "student", "delete", "one"}, `invalid id "one"`},
		{"bad set", []string{"entity", "student", "add", "--set", "familya"}, "want field=value"},
		{"delete-all without yes", []string{"entity", "student", "delete-all"}, "without --yes"},
	}
	for _, tt := range commandErrors {
		t.Run(tt.name, func(t *testing.T) {
			r := env.run(tt.args...)
			assert.Equal(t, ExitCommandError, r.code)
			assert.Contains(t, r.stderr, tt.want)
		})
	}
}

func TestEntity_DeleteAll(t *testing.T) {
	env := newCLIEnv(t)
	require.Equal(t, ExitSuccess, env.run("entity", "inson", "add",
		"--set", "familya=Ergashev", "--set", "ism=Anvar", "--set", "otasi_ismi=Karim",
		"--set", "jinsi=Erkak", "--set", "millati=o'zbek", "--set", "boyi=180",
		"--set", "tugilgan_sana=1990-05-01").code)

	r := env.run("entity", "inson", "delete-all", "--yes")
	require.Equal(t, ExitSuccess, r.code, r.stdout)
	assert.Equal(t, "OK: 1 row(s) deleted\n", r.stdout)
}

func TestEntity_TablesAfterBootstrap(t *testing.T) {
	env := newCLIEnv(t)
	require.Equal(t, ExitSuccess, env.run("entity", "ticher", "count").code)

	r := env.run("tables")
	require.Equal(t, ExitSuccess, r.code)
	assert.Contains(t, r.stdout, "ticher\n")
	assert.NotContains(t, r.stdout, "student\n")
}

func TestEntity_ProfilesDir(t *testing.T) {
	env := newCLIEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "book.cue"), []byte(`
package extra

profile: kitob: {
	table: "kitob"
	columns: {
		nomi: {type: "TEXT", required: true}
		yili: {type: "INTEGER", min: 1000}
	}
	search: ["nomi"]
}
`), 0644))

	r := env.run("entity", "kitob", "add", "--set", "nomi=Kecha va kunduz", "--set", "yili=1936", "--profiles", dir)
	require.Equal(t, ExitSuccess, r.code, r.stdout+r.stderr)

	r = env.run("entity", "kitob", "search", "kunduz", "--profiles", dir)
	require.Equal(t, ExitSuccess, r.code)
	assert.Contains(t, r.stdout, "Kecha va kunduz")

	r = env.run("entity", "kitob", "list")
	assert.Equal(t, ExitCommandError, r.code, "profile is unknown without --profiles")
}
