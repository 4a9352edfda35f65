// Package coordinate handles package identity: the (type, namespace?, name,
// version) tuple that names a specific package release, and its slash-joined
// storage prefix form used to scope Toolshed listings.
package coordinate

import (
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/triagekit/triagekit/internal/errors"
)

// Coordinate is a canonical package identity. Immutable once constructed.
type Coordinate struct {
	Type      string `json:"type"`
	Namespace string `json:"namespace,omitempty"`
	Name      string `json:"name"`
	Version   string `json:"version"`
}

// The namespaced pattern must be tried first: a three-segment match would
// otherwise absorb a genuine namespace into the name component.
var (
	namespacedPattern = regexp.MustCompile(`^(?P<type>[^/]+)/(?P<namespace>[^/]+)/(?P<name>[^/]+)/(?P<version>[^/]+)/.*$`)
	plainPattern      = regexp.MustCompile(`^(?P<type>[^/]+)/(?P<name>[^/]+)/(?P<version>[^/]+)/.*$`)
)

// Parse parses a compact package identity string of the form
// "type/namespace/name/version" or "type/name/version".
func Parse(identity string) (Coordinate, error) {
	identity = strings.TrimSpace(identity)
	parts := strings.Split(identity, "/")

	var c Coordinate
	switch len(parts) {
	case 3:
		c = Coordinate{Type: parts[0], Name: parts[1], Version: parts[2]}
	case 4:
		c = Coordinate{Type: parts[0], Namespace: parts[1], Name: parts[2], Version: parts[3]}
	default:
		return Coordinate{}, errors.NewInvalidCoordinate(identity)
	}

	if !c.Valid() {
		return Coordinate{}, errors.NewInvalidCoordinate(identity)
	}
	return c, nil
}

// Valid reports whether the required fields are present. Namespace is
// optional but must be non-empty when a four-segment form was used.
func (c Coordinate) Valid() bool {
	return c.Type != "" && c.Name != "" && c.Version != ""
}

// Prefix returns the storage-key prefix for this coordinate, with no
// trailing separator.
func (c Coordinate) Prefix() (string, error) {
	if !c.Valid() {
		return "", errors.NewInvalidCoordinate(c.String())
	}
	if c.Namespace != "" {
		return c.Type + "/" + c.Namespace + "/" + c.Name + "/" + c.Version, nil
	}
	return c.Type + "/" + c.Name + "/" + c.Version, nil
}

// String returns the compact identity form. Invalid coordinates render
// best-effort; use Prefix for the validated form.
func (c Coordinate) String() string {
	if c.Namespace != "" {
		return c.Type + "/" + c.Namespace + "/" + c.Name + "/" + c.Version
	}
	return c.Type + "/" + c.Name + "/" + c.Version
}

// Infer recovers a Coordinate from a stored-object path, trying the
// namespaced layout before the plain one. A miss is an expected outcome for
// malformed or unexpected object paths, so it is logged at debug level and
// reported via ok=false rather than an error.
func Infer(path string) (Coordinate, bool) {
	if m := namespacedPattern.FindStringSubmatch(path); m != nil {
		c := Coordinate{Type: m[1], Namespace: m[2], Name: m[3], Version: m[4]}
		if c.Valid() {
			return c, true
		}
	}
	if m := plainPattern.FindStringSubmatch(path); m != nil {
		c := Coordinate{Type: m[1], Name: m[2], Version: m[3]}
		if c.Valid() {
			return c, true
		}
	}
	logrus.WithField("path", path).Debug("unable to infer package coordinate from path")
	return Coordinate{}, false
}
