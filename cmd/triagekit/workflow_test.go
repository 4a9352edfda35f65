package main

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/triagekit/triagekit/internal/config"
	"github.com/triagekit/triagekit/internal/db"
	"github.com/triagekit/triagekit/internal/ops"
	"github.com/triagekit/triagekit/internal/toolshed"
)

// TestWorkflow exercises the full triage loop end to end: import a package's
// result files, inspect its artifacts, browse findings, fetch one by ID, and
// review the recorded run.
func TestWorkflow(t *testing.T) {
	database, err := db.Init(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	store := &fakeStore{objects: map[string][]byte{
		"npm/left-pad/1.3.0/tool-codeql.sarif":   []byte(sampleSARIF),
		"npm/left-pad/1.3.0/tool-broken.sarif":   []byte("not json"),
		"npm/left-pad/1.3.0/metadata.json":       []byte("{}"),
		"pypi/requests/2.31.0/tool-bandit.sarif": []byte(sampleSARIF),
	}}
	deps := &appDeps{
		database: database,
		cfg:      &config.Config{Actor: "analyst"},
		catalog:  toolshed.NewCatalog(store, time.Hour),
	}
	app := newCLIApp(deps)

	// Import one package: the broken document fails, the metadata file is
	// skipped, the batch still completes.
	out, err := captureStdout(t, func() error {
		return app.Run([]string{"triagekit", "import", "--package", "npm/left-pad/1.3.0"})
	})
	require.NoError(t, err)

	var imported ops.ImportOutput
	require.NoError(t, json.Unmarshal([]byte(out), &imported))
	require.Equal(t, 3, imported.Attempted)
	require.Equal(t, 1, imported.Imported)
	require.Equal(t, 1, imported.Skipped)
	require.Equal(t, 1, imported.Failed)

	// The other package's findings must be untouched until imported.
	out, err = captureStdout(t, func() error {
		return app.Run([]string{"triagekit", "findings", "--package", "pypi/requests/2.31.0"})
	})
	require.NoError(t, err)
	var listed ops.FindingsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Zero(t, listed.Total)

	// Whole-store import picks it up via path inference.
	out, err = captureStdout(t, func() error {
		return app.Run([]string{"triagekit", "import", "--all"})
	})
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &imported))
	require.Equal(t, "all", imported.Target)

	out, err = captureStdout(t, func() error {
		return app.Run([]string{"triagekit", "findings", "--package", "pypi/requests/2.31.0"})
	})
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Equal(t, 1, listed.Total)
	require.Equal(t, "analyst", listed.Findings[0].Actor)

	// Single-finding fetch round-trips the listed ID.
	out, err = captureStdout(t, func() error {
		return app.Run([]string{"triagekit", "findings", listed.Findings[0].ID})
	})
	require.NoError(t, err)
	var fetched ops.GetFindingOutput
	require.NoError(t, json.Unmarshal([]byte(out), &fetched))
	require.Equal(t, listed.Findings[0].ID, fetched.Finding.ID)

	// Both batches left run records.
	out, err = captureStdout(t, func() error {
		return app.Run([]string{"triagekit", "runs"})
	})
	require.NoError(t, err)
	var runs ops.RunsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs.Runs, 2)
	targets := []string{runs.Runs[0].Target, runs.Runs[1].Target}
	require.ElementsMatch(t, []string{"all", "npm/left-pad/1.3.0"}, targets)
}
