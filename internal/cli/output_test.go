package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tabledesk/internal/engine"
	"github.com/roach88/tabledesk/internal/entity"
	"github.com/roach88/tabledesk/internal/ir"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Success(map[string]string{"result": "success"})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error("TABLE_NOT_FOUND", "no such table", map[string]string{"table": "x"})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "TABLE_NOT_FOUND", resp.Error.Code)
	assert.Equal(t, "no such table", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextError(t *testing.T) {
	tests := []struct {
		name        string
		verbose     bool
		wantDetails bool
	}{
		{"quiet", false, false},
		{"verbose", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: tt.verbose}

			require.NoError(t, formatter.Error("ARITY_MISMATCH", "2 fields, 1 value", map[string]string{"table": "roles"}))
			assert.Contains(t, buf.String(), "Error [ARITY_MISMATCH]: 2 fields, 1 value")
			if tt.wantDetails {
				assert.Contains(t, buf.String(), "Details:")
			} else {
				assert.NotContains(t, buf.String(), "Details:")
			}
		})
	}
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			errBuf := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:    "json",
				Writer:    buf,
				ErrWriter: errBuf,
				Verbose:   tt.verbose,
			}

			formatter.VerboseLog("Opening %s", "tabledesk.db")

			assert.Empty(t, buf.String(), "verbose output never goes to stdout")
			if tt.wantLog {
				assert.Contains(t, errBuf.String(), "Opening tabledesk.db")
			} else {
				assert.Empty(t, errBuf.String())
			}
		})
	}
}

func sampleRows() *ir.RowSet {
	rs := ir.NewRowSet([]string{"id", "name", "description"})
	rs.Rows = append(rs.Rows,
		[]ir.Value{ir.Int(1), ir.String("admin"), ir.Null{}},
		[]ir.Value{ir.Int(2), ir.String("guest"), ir.String("read only")},
	)
	return rs
}

func TestOutputFormatter_RowsText(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Rows(sampleRows()))
	out := buf.String()
	for _, cell := range []string{"id", "name", "description", "admin", "guest", "read only", "NULL"} {
		assert.Contains(t, out, cell)
	}

	buf.Reset()
	require.NoError(t, formatter.Rows(ir.NewRowSet([]string{"id"})))
	assert.Equal(t, "(no rows)\n", buf.String())
}

func TestOutputFormatter_RowsJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Rows(sampleRows()))

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Columns []string         `json:"columns"`
			Rows    []map[string]any `json:"rows"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, []string{"id", "name", "description"}, resp.Data.Columns)
	require.Len(t, resp.Data.Rows, 2)
	assert.Equal(t, "guest", resp.Data.Rows[1]["name"])
	assert.Nil(t, resp.Data.Rows[0]["description"])
}

func TestOutputFormatter_Result(t *testing.T) {
	res := ir.Result{OpID: "op-1", Seq: 1, RowsAffected: 1, LastInsertID: 7}

	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}
	require.NoError(t, formatter.Result("inserted", res))
	assert.Equal(t, "OK: 1 row(s) inserted (id 7)\n", buf.String())

	buf.Reset()
	require.NoError(t, formatter.Result("deleted", ir.Result{OpID: "op-2", RowsAffected: 0}))
	assert.Equal(t, "OK: 0 row(s) deleted\n", buf.String())

	buf.Reset()
	formatter.Format = "json"
	require.NoError(t, formatter.Result("inserted", res))
	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "op-1", resp.TraceID)
}

func TestOutputFormatter_Report(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	err := formatter.Report(ExitFailure, engine.NewSchemaMismatch("roles", []string{"title"}))

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, ExitFailure, exitErr.Code)
	assert.True(t, exitErr.Reported)
	assert.True(t, engine.IsSchemaMismatch(err), "cause stays in the chain")

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "SCHEMA_MISMATCH", resp.Error.Code)
	details, ok := resp.Error.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "roles", details["table"])
	assert.Equal(t, []any{"title"}, details["fields"])
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "TABLE_NOT_ALLOWED", ErrorCode(engine.NewTableNotAllowed("sqlite_master")))
	assert.Equal(t, "NOT_FOUND", ErrorCode(fmt.Errorf("student 9: %w", entity.ErrNotFound)))
	assert.Equal(t, "ERROR", ErrorCode(errors.New("boom")))
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad flag")))
	assert.Equal(t, ExitFailure, GetExitCode(fmt.Errorf("wrapped: %w", NewExitError(ExitFailure, "x"))))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
}
