package ops

import (
	"context"

	"github.com/triagekit/triagekit/internal/coordinate"
	"github.com/triagekit/triagekit/internal/errors"
	"github.com/triagekit/triagekit/internal/toolshed"
)

// ArtifactsInput contains parameters for the Artifacts operation.
type ArtifactsInput struct {
	Package string // required
}

// ArtifactsOutput is the classified view of one package's stored artifacts.
type ArtifactsOutput struct {
	Package      string              `json:"package"`
	Tools        []toolshed.Artifact `json:"tools"`
	PackageFiles []toolshed.Artifact `json:"package_files"`
	Intermediate []toolshed.Artifact `json:"intermediate"`
}

// Artifacts lists a package's artifacts by role: tool outputs, packaged
// reference-binary members, and intermediate files.
func Artifacts(ctx context.Context, catalog *toolshed.Catalog, input ArtifactsInput) (*ArtifactsOutput, error) {
	if input.Package == "" {
		return nil, errors.NewInvalidRequest("package is required")
	}

	coord, err := coordinate.Parse(input.Package)
	if err != nil {
		return nil, err
	}

	accessor, err := toolshed.NewAccessor(catalog, coord)
	if err != nil {
		return nil, err
	}

	return &ArtifactsOutput{
		Package:      coord.String(),
		Tools:        accessor.ToolFiles(ctx),
		PackageFiles: accessor.PackageFiles(ctx),
		Intermediate: accessor.IntermediateFiles(ctx),
	}, nil
}
