package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinProfiles(t *testing.T) {
	profiles, err := Builtin()
	require.NoError(t, err)
	require.Len(t, profiles, 3)

	byName := make(map[string]int)
	for i, p := range profiles {
		byName[p.Name] = i
		assert.Empty(t, Validate(&p), "builtin profile %s should validate", p.Name)
	}
	require.Contains(t, byName, "student")
	require.Contains(t, byName, "ticher")
	require.Contains(t, byName, "inson")

	student := profiles[byName["student"]]
	assert.Equal(t, "student", student.Table)
	assert.Equal(t, "saqlangan_vaqt", student.Stamp)
	assert.Equal(t, []string{
		"familya", "ismi", "otasining_ismi", "jinsi", "millati", "ogirligi",
		"tugilgan_sana", "oliy_oquv_yurti", "fakultet", "kurs", "ortacha_bal",
	}, student.FieldNames())

	kurs, ok := student.Field("kurs")
	require.True(t, ok)
	assert.Equal(t, "INTEGER", kurs.Type)
	assert.Equal(t, 1.0, *kurs.Min)
	assert.Equal(t, 6.0, *kurs.Max)

	otasi, _ := student.Field("otasining_ismi")
	assert.False(t, otasi.Required)
	assert.Nil(t, otasi.Min, "optional definition fields stay unset")

	inson := profiles[byName["inson"]]
	boyi, ok := inson.Field("boyi")
	require.True(t, ok)
	assert.True(t, boyi.Required)
	jinsi, _ := inson.Field("jinsi")
	assert.Equal(t, []string{"Erkak", "Ayol"}, jinsi.Enum)

	ticher := profiles[byName["ticher"]]
	assert.Equal(t, "saqlangan_vaqti", ticher.Stamp)
	for _, f := range ticher.Fields {
		assert.True(t, f.Required, "ticher column %s is NOT NULL", f.Name)
	}
}

func TestCompileSourceCollectAll(t *testing.T) {
	src := []byte(`
profile: ok: columns: title: "TEXT"
profile: broken: table: "broken"
profile: worse: columns: n: 3
`)
	res, errs := CompileSource("inline.cue", src, LoadModeCollectAll)
	require.NotNil(t, res)
	assert.Len(t, errs, 2)
	require.Len(t, res.Profiles, 1)
	assert.Equal(t, "ok", res.Profiles[0].Name)

	_, errs = CompileSource("inline.cue", src, LoadModeFailFast)
	assert.Len(t, errs, 1)
}

func TestCompileSourceNoProfiles(t *testing.T) {
	_, errs := CompileSource("inline.cue", []byte(`other: 1`), LoadModeFailFast)
	require.Len(t, errs, 1)

	var le *LoadError
	require.ErrorAs(t, errs[0], &le)
	assert.Equal(t, ErrCodeNoProfiles, le.Code)
}

func TestCompileSourceSyntaxError(t *testing.T) {
	_, errs := CompileSource("inline.cue", []byte(`profile: {`), LoadModeFailFast)
	require.Len(t, errs, 1)

	var le *LoadError
	require.ErrorAs(t, errs[0], &le)
	assert.Equal(t, ErrCodeBuildFailed, le.Code)
}

func TestLoadProfilesFromDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "book.cue"), `package extra

profile: book: {
	table: "book"
	columns: {
		title: {type: "TEXT", required: true}
		pages: {type: "INTEGER", min: 1}
	}
	search: ["title"]
}
`)
	writeFile(t, filepath.Join(dir, "author.cue"), `package extra

profile: author: columns: name: "TEXT"
`)

	res, errs := LoadProfiles(dir, LoadModeCollectAll)
	require.Empty(t, errs)
	assert.Equal(t, 2, res.FileCount)
	require.Len(t, res.Profiles, 2)

	names := []string{res.Profiles[0].Name, res.Profiles[1].Name}
	assert.ElementsMatch(t, []string{"book", "author"}, names)
}

func TestLoadProfilesErrors(t *testing.T) {
	t.Run("missing dir", func(t *testing.T) {
		_, errs := LoadProfiles(filepath.Join(t.TempDir(), "nope"), LoadModeFailFast)
		require.Len(t, errs, 1)
		assert.Contains(t, errs[0].Error(), ErrCodeNotFound)
	})

	t.Run("not a dir", func(t *testing.T) {
		f := filepath.Join(t.TempDir(), "file.cue")
		writeFile(t, f, "package x\n")
		_, errs := LoadProfiles(f, LoadModeFailFast)
		require.Len(t, errs, 1)
		assert.Contains(t, errs[0].Error(), "not a directory")
	})

	t.Run("no cue files", func(t *testing.T) {
		_, errs := LoadProfiles(t.TempDir(), LoadModeFailFast)
		require.Len(t, errs, 1)
		assert.Contains(t, errs[0].Error(), ErrCodeNoFiles)
	})
}

func TestMapFieldToErrorCode(t *testing.T) {
	assert.Equal(t, ErrProfileNoColumns, MapFieldToErrorCode("columns"))
	assert.Equal(t, ErrInvalidFieldType, MapFieldToErrorCode("columns.title.type"))
	assert.Equal(t, ErrCodeBuildFailed, MapFieldToErrorCode("cue"))
	assert.Equal(t, ErrCodeGeneric, MapFieldToErrorCode("other"))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
