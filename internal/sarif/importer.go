// Package sarif turns decoded SARIF documents into persisted finding
// records. The import pipeline treats it as an opaque collaborator behind
// the ops.Importer interface.
package sarif

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/triagekit/triagekit/internal/coordinate"
	"github.com/triagekit/triagekit/internal/db"
	"github.com/triagekit/triagekit/internal/findings"
)

// Importer persists SARIF results as findings.
type Importer struct {
	database *sql.DB
}

// NewImporter creates an Importer writing to database.
func NewImporter(database *sql.DB) *Importer {
	return &Importer{database: database}
}

// Import walks runs[].results[] of a decoded SARIF document and upserts one
// finding per result. It returns the number of findings written and fails
// if the document carries no runs section at all.
func (imp *Importer) Import(ctx context.Context, coord coordinate.Coordinate, doc map[string]any, objectPath, actor string) (int, error) {
	runs, ok := doc["runs"].([]any)
	if !ok {
		return 0, fmt.Errorf("document has no runs")
	}

	now := time.Now().Unix()
	count := 0
	for _, rawRun := range runs {
		run, ok := rawRun.(map[string]any)
		if !ok {
			continue
		}
		tool := driverName(run)
		if tool == "" {
			tool = "unknown"
		}

		results, _ := run["results"].([]any)
		for _, rawResult := range results {
			result, ok := rawResult.(map[string]any)
			if !ok {
				continue
			}

			f := buildFinding(coord, tool, result)
			f.ObjectPath = objectPath
			f.Actor = actor
			f.CreatedAt = now
			f.UpdatedAt = now

			id, err := generateULID()
			if err != nil {
				return count, err
			}
			f.ID = id

			if err := db.UpsertFinding(imp.database, f); err != nil {
				return count, err
			}
			count++
		}
	}

	logrus.WithFields(logrus.Fields{
		"package": coord.String(),
		"object":  objectPath,
		"count":   count,
	}).Debug("imported sarif results")

	return count, nil
}

// buildFinding extracts the fields triage cares about from one SARIF result.
// SARIF producers vary; absent fields degrade to zero values rather than
// failing the document.
func buildFinding(coord coordinate.Coordinate, tool string, result map[string]any) *findings.Finding {
	f := &findings.Finding{
		PackageKey:       coord.String(),
		PackageType:      coord.Type,
		PackageNamespace: coord.Namespace,
		PackageName:      coord.Name,
		PackageVersion:   coord.Version,
		Tool:             tool,
	}

	f.RuleID, _ = result["ruleId"].(string)
	if f.RuleID == "" {
		f.RuleID = "unknown"
	}
	f.Level, _ = result["level"].(string)

	if message, ok := result["message"].(map[string]any); ok {
		f.Message, _ = message["text"].(string)
	}

	if locations, ok := result["locations"].([]any); ok && len(locations) > 0 {
		if location, ok := locations[0].(map[string]any); ok {
			if physical, ok := location["physicalLocation"].(map[string]any); ok {
				if artifact, ok := physical["artifactLocation"].(map[string]any); ok {
					f.FilePath, _ = artifact["uri"].(string)
				}
				if region, ok := physical["region"].(map[string]any); ok {
					if line, ok := region["startLine"].(float64); ok {
						f.StartLine = int(line)
					}
				}
			}
		}
	}

	return f
}

// driverName returns tool.driver.name from a SARIF run.
func driverName(run map[string]any) string {
	tool, ok := run["tool"].(map[string]any)
	if !ok {
		return ""
	}
	driver, ok := tool["driver"].(map[string]any)
	if !ok {
		return ""
	}
	name, _ := driver["name"].(string)
	return name
}

// generateULID generates a new ULID.
func generateULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
