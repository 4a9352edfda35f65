package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/triagekit/triagekit/internal/config"
	"github.com/triagekit/triagekit/internal/db"
	"github.com/triagekit/triagekit/internal/ops"
	"github.com/triagekit/triagekit/internal/toolshed"
)

const sampleSARIF = `{
	"runs": [
		{
			"tool": {"driver": {"name": "CodeQL"}},
			"results": [
				{"ruleId": "js/sql-injection", "level": "error", "message": {"text": "tainted query"}}
			]
		}
	]
}`

type fakeStore struct {
	objects map[string][]byte
}

func (f *fakeStore) List(ctx context.Context, prefix string) ([]toolshed.ObjectInfo, error) {
	keys := make([]string, 0, len(f.objects))
	for key := range f.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	result := make([]toolshed.ObjectInfo, 0, len(keys))
	for _, key := range keys {
		result = append(result, toolshed.ObjectInfo{Key: key, Size: int64(len(f.objects[key]))})
	}
	return result, nil
}

func (f *fakeStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}

func newTestApp(t *testing.T) *appDeps {
	t.Helper()

	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	store := &fakeStore{objects: map[string][]byte{
		"npm/left-pad/1.3.0/tool-codeql.sarif": []byte(sampleSARIF),
	}}
	return &appDeps{
		database: database,
		cfg:      &config.Config{Actor: "tester"},
		catalog:  toolshed.NewCatalog(store, time.Hour),
	}
}

// captureStdout runs fn and returns everything it wrote to stdout.
func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe failed: %v", err)
	}
	os.Stdout = w

	runErr := fn()

	w.Close()
	os.Stdout = old
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read captured output failed: %v", err)
	}
	return string(data), runErr
}

func TestCLI_Import(t *testing.T) {
	deps := newTestApp(t)
	app := newCLIApp(deps)

	out, err := captureStdout(t, func() error {
		return app.Run([]string{"triagekit", "import", "--package", "npm/left-pad/1.3.0"})
	})
	if err != nil {
		t.Fatalf("import command failed: %v", err)
	}

	var output ops.ImportOutput
	if err := json.Unmarshal([]byte(out), &output); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if output.Imported != 1 || output.Failed != 0 {
		t.Fatalf("unexpected import output: %+v", output)
	}

	_, total, err := db.ListFindings(deps.database, db.FindingFilter{Limit: 10})
	if err != nil {
		t.Fatalf("ListFindings failed: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected 1 persisted finding, got %d", total)
	}
}

func TestCLI_ImportModeConflict(t *testing.T) {
	app := newCLIApp(newTestApp(t))

	_, err := captureStdout(t, func() error {
		return app.Run([]string{"triagekit", "import", "--package", "npm/left-pad/1.3.0", "--all"})
	})
	if err == nil {
		t.Fatal("expected an error for conflicting mode flags")
	}
	if !strings.Contains(err.Error(), "INVALID_REQUEST") {
		t.Fatalf("expected INVALID_REQUEST in error, got %q", err.Error())
	}

	_, err = captureStdout(t, func() error {
		return app.Run([]string{"triagekit", "import"})
	})
	if err == nil {
		t.Fatal("expected an error when no mode is selected")
	}
}

func TestCLI_Artifacts(t *testing.T) {
	app := newCLIApp(newTestApp(t))

	out, err := captureStdout(t, func() error {
		return app.Run([]string{"triagekit", "artifacts", "-p", "npm/left-pad/1.3.0"})
	})
	if err != nil {
		t.Fatalf("artifacts command failed: %v", err)
	}

	var output ops.ArtifactsOutput
	if err := json.Unmarshal([]byte(out), &output); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(output.Tools) != 1 {
		t.Fatalf("unexpected artifacts output: %+v", output)
	}
}

func TestCLI_FindingsAndRuns(t *testing.T) {
	deps := newTestApp(t)
	app := newCLIApp(deps)

	if _, err := captureStdout(t, func() error {
		return app.Run([]string{"triagekit", "import", "-p", "npm/left-pad/1.3.0"})
	}); err != nil {
		t.Fatalf("import command failed: %v", err)
	}

	out, err := captureStdout(t, func() error {
		return app.Run([]string{"triagekit", "findings", "-p", "npm/left-pad/1.3.0"})
	})
	if err != nil {
		t.Fatalf("findings command failed: %v", err)
	}
	var listOutput ops.FindingsOutput
	if err := json.Unmarshal([]byte(out), &listOutput); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if listOutput.Total != 1 {
		t.Fatalf("expected 1 finding, got %d", listOutput.Total)
	}

	// Positional ID fetches a single finding.
	id := listOutput.Findings[0].ID
	out, err = captureStdout(t, func() error {
		return app.Run([]string{"triagekit", "findings", id})
	})
	if err != nil {
		t.Fatalf("findings get failed: %v", err)
	}
	var getOutput ops.GetFindingOutput
	if err := json.Unmarshal([]byte(out), &getOutput); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if getOutput.Finding.ID != id {
		t.Fatalf("unexpected finding: %+v", getOutput.Finding)
	}

	out, err = captureStdout(t, func() error {
		return app.Run([]string{"triagekit", "runs"})
	})
	if err != nil {
		t.Fatalf("runs command failed: %v", err)
	}
	var runsOutput ops.RunsOutput
	if err := json.Unmarshal([]byte(out), &runsOutput); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(runsOutput.Runs) != 1 || runsOutput.Runs[0].Imported != 1 {
		t.Fatalf("unexpected runs output: %+v", runsOutput)
	}
}

func TestCLI_FindingNotFound(t *testing.T) {
	app := newCLIApp(newTestApp(t))

	_, err := captureStdout(t, func() error {
		return app.Run([]string{"triagekit", "findings", "missing"})
	})
	if err == nil {
		t.Fatal("expected an error for a missing finding")
	}
	if !strings.Contains(err.Error(), "NOT_FOUND") {
		t.Fatalf("expected NOT_FOUND in error, got %q", err.Error())
	}
}
