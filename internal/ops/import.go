package ops

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/triagekit/triagekit/internal/coordinate"
	"github.com/triagekit/triagekit/internal/db"
	"github.com/triagekit/triagekit/internal/errors"
	"github.com/triagekit/triagekit/internal/findings"
	"github.com/triagekit/triagekit/internal/toolshed"
)

// resultFileExt is the canonical result-file extension eligible for import.
const resultFileExt = ".sarif"

// ImportInput contains parameters for the Import operation. Exactly one of
// Package or All must be selected.
type ImportInput struct {
	Package string // compact coordinate, e.g. "npm/left-pad/1.3.0"
	All     bool   // scan the whole store
	Maximum int    // cap on attempted objects; 0 means no cap
}

// ImportOutput contains the batch summary.
type ImportOutput struct {
	Target    string    `json:"target"`
	Attempted int       `json:"attempted"`
	Imported  int       `json:"imported"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	Outcomes  []Outcome `json:"outcomes"`
}

// Import drives a batch import of result files from the Toolshed store into
// the finding store. Per-object failures are recovered locally: fetch,
// decode, and importer errors become failed Outcomes and the batch
// continues. Only mode-selection and coordinate-parse errors surface to the
// caller, before any iteration begins.
func Import(ctx context.Context, catalog *toolshed.Catalog, database *sql.DB, importer Importer, actor string, input ImportInput) (*ImportOutput, error) {
	// Both set and neither set are configuration mistakes, caught before any I/O.
	if input.All == (input.Package != "") {
		return nil, errors.NewInvalidRequest("must specify exactly one of package or all")
	}
	if input.Maximum < 0 {
		return nil, errors.NewInvalidRequest("maximum must be non-negative")
	}

	var fixed *coordinate.Coordinate
	var prefix string
	target := "all"
	if input.Package != "" {
		coord, err := coordinate.Parse(input.Package)
		if err != nil {
			return nil, err
		}
		p, err := coord.Prefix()
		if err != nil {
			return nil, err
		}
		fixed = &coord
		prefix = p
		target = coord.String()
	}

	startedAt := time.Now().Unix()
	output := &ImportOutput{Target: target}

	for _, blob := range catalog.List(ctx, prefix) {
		output.Attempted++
		if input.Maximum > 0 && output.Attempted > input.Maximum {
			logrus.WithField("maximum", input.Maximum).Info("maximum number of entries reached")
			output.Attempted--
			break
		}

		outcome := importOne(ctx, catalog, importer, fixed, actor, blob)
		output.Outcomes = append(output.Outcomes, outcome)
		switch outcome.Status {
		case StatusImported:
			output.Imported++
		case StatusSkipped:
			output.Skipped++
		case StatusFailed:
			output.Failed++
		}
	}

	run := &findings.Run{
		Target:     target,
		Attempted:  output.Attempted,
		Imported:   output.Imported,
		Skipped:    output.Skipped,
		Failed:     output.Failed,
		Actor:      actor,
		StartedAt:  startedAt,
		FinishedAt: time.Now().Unix(),
	}
	id, err := generateULID()
	if err == nil {
		run.ID = id
		err = db.InsertRun(database, run)
	}
	if err != nil {
		// The batch already ran; a summary-record failure is logged, not raised.
		logrus.WithError(err).Warn("failed to record import run")
	}

	return output, nil
}

// importOne processes a single candidate object and reports a tagged
// outcome. No error escapes: every failure mode is folded into the outcome.
func importOne(ctx context.Context, catalog *toolshed.Catalog, importer Importer, fixed *coordinate.Coordinate, actor string, blob toolshed.Blob) Outcome {
	if !strings.HasSuffix(blob.FullPath, resultFileExt) {
		return Outcome{ObjectPath: blob.FullPath, Status: StatusSkipped, Reason: "not a result file"}
	}

	coord := coordinate.Coordinate{}
	if fixed != nil {
		coord = *fixed
	} else {
		inferred, ok := coordinate.Infer(blob.FullPath)
		if !ok {
			return Outcome{ObjectPath: blob.FullPath, Status: StatusSkipped, Reason: "cannot infer package coordinate"}
		}
		coord = inferred
	}

	logrus.WithField("object", blob.FullPath).Info("importing")

	contents := catalog.Contents(ctx, blob.FullPath)
	if contents == nil {
		return failedOutcome(blob.FullPath, "object unavailable")
	}

	var doc map[string]any
	if err := json.Unmarshal(contents, &doc); err != nil {
		return failedOutcome(blob.FullPath, errors.NewDecode(blob.FullPath, err).Error())
	}

	if _, err := importer.Import(ctx, coord, doc, blob.FullPath, actor); err != nil {
		return failedOutcome(blob.FullPath, errors.NewImporter(blob.FullPath, err).Error())
	}

	return Outcome{ObjectPath: blob.FullPath, Status: StatusImported}
}

func failedOutcome(path, reason string) Outcome {
	logrus.WithFields(logrus.Fields{"object": path, "reason": reason}).Error("unable to import")
	return Outcome{ObjectPath: path, Status: StatusFailed, Reason: reason}
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
