package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/warp/judgment-interest/factory"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	// Flag variables are package globals; reset between runs.
	cfgPath, envFile = "", ""

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "missing.env")))
	err := cmd.Execute()
	return out.String(), err
}

func TestCalc_FromFiles(t *testing.T) {
	out, err := run(t, "calc",
		"--rates", "../../factory/testdata/rates.yaml",
		"--request", "../../factory/testdata/request.json")
	require.NoError(t, err)

	var result factory.ResultJSON
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "6.18", result.Total)
	assert.Len(t, result.Details, 4)
}

func TestCalc_YAMLOutput(t *testing.T) {
	out, err := run(t, "calc", "-o", "yaml",
		"--rates", "../../factory/testdata/rates.yaml",
		"--request", "../../factory/testdata/request.json")
	require.NoError(t, err)

	var result factory.ResultJSON
	require.NoError(t, yaml.Unmarshal([]byte(out), &result))
	assert.Equal(t, "6.18", result.Total)
}

func TestCalc_RequiresRequest(t *testing.T) {
	_, err := run(t, "calc", "--rates", "../../factory/testdata/rates.yaml")
	assert.Error(t, err)
}

func TestImportThenCalc_SQLite(t *testing.T) {
	// GIVEN: A config pointing at a fresh SQLite file
	// WHEN: The sample table is imported, then calc runs without --rates
	// THEN: calc prices the request from the database
	dir := t.TempDir()
	cfg := filepath.Join(dir, "interest.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("store:\n  driver: sqlite\n  path: "+filepath.Join(dir, "rates.db")+"\nlog:\n  level: error\n"), 0o600))

	out, err := run(t, "import", "-c", cfg, "--rates", "../../rates/example.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "BC\t4 periods")
	assert.Contains(t, out, "ON\t2 periods")

	request := filepath.Join(dir, "request.yaml")
	require.NoError(t, os.WriteFile(request, []byte(`
regime: postjudgment
start: "2023-01-01"
end: "2023-01-02"
principal: "36500"
jurisdiction: ON
`), 0o600))

	out, err = run(t, "calc", "-c", cfg, "--request", request)
	require.NoError(t, err)

	var result factory.ResultJSON
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	// 36500 × 5% × 1/365
	assert.Equal(t, "5.00", result.Total)
}

func TestImport_MissingFile(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "interest.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("store:\n  driver: memory\n"), 0o600))

	_, err := run(t, "import", "-c", cfg, "--rates", filepath.Join(dir, "nope.yaml"))
	assert.Error(t, err)
}
