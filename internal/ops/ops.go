// Package ops implements the triagekit operations invoked from the CLI and
// MCP surfaces.
package ops

import (
	"context"

	"github.com/triagekit/triagekit/internal/coordinate"
)

// Pagination limits
const (
	DefaultFindingLimit = 50
	MaxFindingLimit     = 500
	DefaultRunLimit     = 20
)

// Importer is the finding-importer boundary: it accepts a decoded result
// document and persists whatever findings it yields. Any error is treated
// as a per-object failure by the import driver, never as fatal to a batch.
type Importer interface {
	Import(ctx context.Context, coord coordinate.Coordinate, doc map[string]any, objectPath, actor string) (int, error)
}

// OutcomeStatus tags what happened to one attempted object.
type OutcomeStatus string

const (
	StatusImported OutcomeStatus = "imported"
	StatusSkipped  OutcomeStatus = "skipped"
	StatusFailed   OutcomeStatus = "failed"
)

// Outcome is the per-object result of an import batch. Threading these
// through the iteration keeps the isolation contract explicit: a failed
// object produces an Outcome, not a propagated error.
type Outcome struct {
	ObjectPath string        `json:"object_path"`
	Status     OutcomeStatus `json:"status"`
	Reason     string        `json:"reason,omitempty"`
}
