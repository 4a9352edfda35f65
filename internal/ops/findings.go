package ops

import (
	"database/sql"

	"github.com/triagekit/triagekit/internal/db"
	"github.com/triagekit/triagekit/internal/errors"
	"github.com/triagekit/triagekit/internal/findings"
)

// FindingsInput contains parameters for the Findings list operation.
type FindingsInput struct {
	Package string // filter by compact coordinate
	Tool    string // filter by tool name
	Limit   int
	Offset  int
}

// FindingsOutput contains the result of the Findings operation.
type FindingsOutput struct {
	Findings []findings.Finding `json:"findings"`
	Total    int                `json:"total"`
	Limit    int                `json:"limit"`
	Offset   int                `json:"offset"`
}

// Findings lists imported findings, most recently updated first.
func Findings(database *sql.DB, input FindingsInput) (*FindingsOutput, error) {
	if input.Limit <= 0 {
		input.Limit = DefaultFindingLimit
	}
	if input.Limit > MaxFindingLimit {
		input.Limit = MaxFindingLimit
	}
	if input.Offset < 0 {
		return nil, errors.NewInvalidRequest("offset must be non-negative")
	}

	results, total, err := db.ListFindings(database, db.FindingFilter{
		PackageKey: input.Package,
		Tool:       input.Tool,
		Limit:      input.Limit,
		Offset:     input.Offset,
	})
	if err != nil {
		return nil, err
	}

	return &FindingsOutput{
		Findings: results,
		Total:    total,
		Limit:    input.Limit,
		Offset:   input.Offset,
	}, nil
}

// GetFindingOutput wraps a single finding.
type GetFindingOutput struct {
	Finding findings.Finding `json:"finding"`
}

// GetFinding retrieves one finding by ID.
func GetFinding(database *sql.DB, id string) (*GetFindingOutput, error) {
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	f, err := db.GetFinding(database, id)
	if err != nil {
		return nil, err
	}
	return &GetFindingOutput{Finding: *f}, nil
}

// RunsInput contains parameters for the Runs operation.
type RunsInput struct {
	Limit int
}

// RunsOutput contains recent import run summaries.
type RunsOutput struct {
	Runs []findings.Run `json:"runs"`
}

// Runs lists recent import batch summaries, newest first.
func Runs(database *sql.DB, input RunsInput) (*RunsOutput, error) {
	if input.Limit <= 0 {
		input.Limit = DefaultRunLimit
	}
	runs, err := db.ListRuns(database, input.Limit)
	if err != nil {
		return nil, err
	}
	return &RunsOutput{Runs: runs}, nil
}
