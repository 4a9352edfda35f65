package toolshed

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/triagekit/triagekit/internal/coordinate"
)

// Path-naming conventions used by the Toolshed pipeline. Classification is
// purely prefix/suffix driven; no object is opened to decide membership.
const (
	toolFileMarker    = "tool-"
	packageFileMarker = "reference-binaries"
)

// Accessor presents the classified view of one package's artifacts: tool
// output files, packaged reference binaries, and intermediate files.
type Accessor struct {
	catalog  *Catalog
	expander Expander
	prefix   string
}

// NewAccessor creates an Accessor scoped to the coordinate's prefix.
func NewAccessor(catalog *Catalog, coord coordinate.Coordinate) (*Accessor, error) {
	prefix, err := coord.Prefix()
	if err != nil {
		return nil, err
	}
	return &Accessor{
		catalog:  catalog,
		expander: TarballExpander{},
		prefix:   prefix,
	}, nil
}

// ToolFiles returns every entry produced by an analysis tool, re-rooted
// under "tools/".
func (a *Accessor) ToolFiles(ctx context.Context) []Artifact {
	var results []Artifact
	for _, blob := range a.catalog.List(ctx, a.prefix) {
		if strings.HasPrefix(blob.RelativePath, toolFileMarker) {
			results = append(results, Artifact{
				FullPath:     blob.FullPath,
				RelativePath: "tools/" + blob.RelativePath,
			})
		}
	}
	return results
}

// PackageFiles returns the members of every packaged reference binary,
// re-rooted under "package/". A corrupt or unavailable archive is a
// per-object failure: logged and skipped, never fatal to the listing.
func (a *Accessor) PackageFiles(ctx context.Context) []Artifact {
	var results []Artifact
	for _, blob := range a.catalog.List(ctx, a.prefix) {
		if !strings.HasPrefix(blob.RelativePath, packageFileMarker) || !a.expander.CanExpand(blob.RelativePath) {
			continue
		}

		contents := a.catalog.Contents(ctx, blob.FullPath)
		if contents == nil {
			logrus.WithField("path", blob.FullPath).Warn("package archive unavailable")
			continue
		}

		members, err := a.expander.Expand(blob.FullPath, contents)
		if err != nil {
			logrus.WithError(err).WithField("path", blob.FullPath).Warn("cannot expand package archive")
			continue
		}
		results = append(results, members...)
	}
	return results
}

// IntermediateFiles is a reserved classification for artifact kinds the
// pipeline does not produce yet. It stays an explicit, independently
// testable category rather than being folded into "other".
func (a *Accessor) IntermediateFiles(ctx context.Context) []Artifact {
	return []Artifact{}
}
