package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	forgeerr "git.home.luguber.info/inful/debforge/internal/errors"
	"git.home.luguber.info/inful/debforge/internal/logfields"
)

// Artifact describes one located .deb build output.
type Artifact struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`
}

// Locate finds the .deb artifacts of a build in dir. When a .changes file is
// available its Files: section is authoritative; otherwise a *.deb glob is
// used, and then exactly one match is required: returning the "first" of
// several candidates would silently upload the wrong package.
func Locate(dir, changesPath string) ([]Artifact, error) {
	if changesPath != "" {
		if _, err := os.Stat(changesPath); err == nil {
			return locateFromChanges(dir, changesPath)
		}
		slog.Warn("Changes file missing; falling back to glob", logfields.Path(changesPath))
	}
	return locateByGlob(dir)
}

func locateFromChanges(dir, changesPath string) ([]Artifact, error) {
	cf, err := ParseChanges(changesPath)
	if err != nil {
		return nil, forgeerr.Wrap(err, forgeerr.CategoryArtifact, forgeerr.SeverityFatal, "cannot parse changes file")
	}
	names := cf.DebNames()
	if len(names) == 0 {
		return nil, forgeerr.ArtifactNotFound(dir)
	}

	artifacts := make([]Artifact, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		a, err := describe(path)
		if err != nil {
			return nil, forgeerr.Wrap(err, forgeerr.CategoryArtifact, forgeerr.SeverityFatal, "artifact listed in changes file is missing").
				WithContext("artifact", name)
		}
		// Cross-check against the checksum sbuild recorded, when present.
		if want, ok := cf.SHA256[name]; ok && want != a.SHA256 {
			return nil, forgeerr.New(forgeerr.CategoryArtifact, forgeerr.SeverityFatal, "artifact checksum does not match changes file").
				WithContext("artifact", name).
				WithContext("expected", want).
				WithContext("actual", a.SHA256)
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, nil
}

func locateByGlob(dir string) ([]Artifact, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.deb"))
	if err != nil {
		return nil, forgeerr.Wrap(err, forgeerr.CategoryArtifact, forgeerr.SeverityFatal, "glob failed")
	}
	switch len(matches) {
	case 0:
		return nil, forgeerr.ArtifactNotFound(dir)
	case 1:
		a, err := describe(matches[0])
		if err != nil {
			return nil, forgeerr.Wrap(err, forgeerr.CategoryArtifact, forgeerr.SeverityFatal, "cannot stat artifact")
		}
		return []Artifact{a}, nil
	default:
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = filepath.Base(m)
		}
		return nil, forgeerr.AmbiguousArtifact(dir, names)
	}
}

// describe stats and hashes the file at path.
func describe(path string) (Artifact, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return Artifact{}, err
	}
	sum, err := SHA256File(path)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{
		Name:   filepath.Base(path),
		Path:   path,
		Size:   fi.Size(),
		SHA256: sum,
	}, nil
}

// SHA256File returns the hex sha256 digest of the file at path.
func SHA256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open for hashing: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
