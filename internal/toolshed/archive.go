package toolshed

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"io"
	"strings"

	"github.com/triagekit/triagekit/internal/errors"
)

// Artifact is a stored object re-rooted under a logical namespace for
// downstream consumption ("tools/...", "package/..."). Archive members use
// the composite form "<archive_full_path>:<member_name>".
type Artifact struct {
	FullPath     string `json:"full_path"`
	RelativePath string `json:"relative_path"`
}

// Expander enumerates the members of a packaged reference binary as virtual
// sub-paths. Additional archive formats are added by implementing this
// interface; the classifier never inspects content itself.
type Expander interface {
	CanExpand(path string) bool
	Expand(fullPath string, contents []byte) ([]Artifact, error)
}

// TarballExpander expands tar archives, gzip-compressed or plain. The
// Toolshed convention is gzip-compressed tar with a .tgz extension.
type TarballExpander struct{}

var gzipMagic = []byte{0x1f, 0x8b}

// CanExpand reports whether path follows the packaged-binary convention.
func (TarballExpander) CanExpand(path string) bool {
	return strings.HasSuffix(path, ".tgz")
}

// Expand emits one Artifact per regular file member, with the member
// addressable as "<archive_full_path>:<member_name>" and logical path
// "package/<member_name>". Nested archives are not expanded.
func (TarballExpander) Expand(fullPath string, contents []byte) ([]Artifact, error) {
	var reader io.Reader = bytes.NewReader(contents)
	if bytes.HasPrefix(contents, gzipMagic) {
		gz, err := gzip.NewReader(reader)
		if err != nil {
			return nil, errors.NewArchiveCorrupt(fullPath, err)
		}
		defer gz.Close()
		reader = gz
	}

	tr := tar.NewReader(reader)
	var results []Artifact
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewArchiveCorrupt(fullPath, err)
		}
		if header.Typeflag == tar.TypeDir {
			continue
		}
		results = append(results, Artifact{
			FullPath:     fullPath + ":" + header.Name,
			RelativePath: "package/" + header.Name,
		})
	}
	return results, nil
}
