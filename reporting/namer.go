package reporting

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
)

const (
	DefaultReportDir  = "reports"
	DefaultReportBase = "report"
	DefaultReportExt  = ".html"
)

// ArtifactNamer picks paths for new report files that do not collide with existing ones.
//
// Candidates are probed linearly from index 0: base.ext, base1.ext, base2.ext, ...
// and the first one that does not exist is returned, so gaps left by deleted
// reports are reused before higher indices. Probing and writing are not atomic;
// only one process may generate reports into a directory at a time.
type ArtifactNamer struct {
	dir  string
	base string
	ext  string
}

// NewArtifactNamer creates a namer for the given directory, base name and extension.
// Empty values fall back to the defaults.
func NewArtifactNamer(dir, base, ext string) *ArtifactNamer {
	if dir == "" {
		dir = DefaultReportDir
	}
	if base == "" {
		base = DefaultReportBase
	}
	if ext == "" {
		ext = DefaultReportExt
	}
	return &ArtifactNamer{dir: dir, base: base, ext: ext}
}

// Dir returns the output directory
func (n *ArtifactNamer) Dir() string {
	return n.dir
}

// Candidate returns the path for a suffix index; index 0 has no numeric suffix
func (n *ArtifactNamer) Candidate(index int) string {
	name := n.base
	if index > 0 {
		name += strconv.Itoa(index)
	}
	return filepath.Join(n.dir, name+n.ext)
}

// Next creates the output directory if needed and returns the first unused candidate path
func (n *ArtifactNamer) Next() (string, error) {
	if err := os.MkdirAll(n.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory %s: %w", n.dir, err)
	}

	for i := 0; ; i++ {
		path := n.Candidate(i)
		_, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			return path, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check report path %s: %w", path, err)
		}
	}
}
