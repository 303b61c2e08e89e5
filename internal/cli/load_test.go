package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func executeLoad(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewLoadCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// loadCustomers loads the customer fixture into a new database and returns
// its path.
func loadCustomers(t *testing.T) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "customers.db")
	_, err := executeLoad(t, "text", "--db", db, "--schema", customerYAML, customerData)
	require.NoError(t, err)
	return db
}

func TestLoadText(t *testing.T) {
	db := filepath.Join(t.TempDir(), "customers.db")
	out, err := executeLoad(t, "text", "--db", db, "--schema", customerYAML, customerData)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Loaded 5 record(s) into customers (5 total)")

	_, err = os.Stat(db)
	assert.NoError(t, err, "database file should be created")
}

func TestLoadAppends(t *testing.T) {
	db := loadCustomers(t)

	out, err := executeLoad(t, "json", "--db", db, "--schema", customerCUE, customerData)
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   LoadResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, LoadResult{Table: "customers", Inserted: 5, Total: 10}, resp.Data)
}

func TestLoadSchemaMismatch(t *testing.T) {
	db := loadCustomers(t)

	other := filepath.Join(t.TempDir(), "other.yaml")
	writeFile(t, other, "name: other\ntable: customers\nfields:\n  - {name: id, type: int}\n")
	data := filepath.Join(t.TempDir(), "other-data.yaml")
	writeFile(t, data, "- id: 1\n")

	_, err := executeLoad(t, "text", "--db", db, "--schema", other, data)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeSchema)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	badYAML := filepath.Join(dir, "bad.yaml")
	writeFile(t, badYAML, "- name: [unclosed\n")
	badRecord := filepath.Join(dir, "bad-record.yaml")
	writeFile(t, badRecord, "- name: ok\n  tier: lots\n  active: true\n")

	tests := []struct {
		name   string
		schema string
		data   string
		code   string
	}{
		{"missing schema", filepath.Join(dir, "none.yaml"), customerData, ErrCodeNotFound},
		{"missing data", customerYAML, filepath.Join(dir, "none-data.yaml"), ErrCodeNotFound},
		{"malformed data", customerYAML, badYAML, ErrCodeLoadFailed},
		{"record does not match schema", customerYAML, badRecord, ErrCodeLoadFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := filepath.Join(t.TempDir(), "test.db")
			out, err := executeLoad(t, "json", "--db", db, "--schema", tt.schema, tt.data)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}
