// Package artifact locates and describes the outputs of a package build.
//
// The preferred source of truth is the .changes file sbuild writes next to
// the artifacts: it enumerates every produced file by name with sizes and
// checksums, which removes the guesswork of globbing a directory that may
// hold artifacts from earlier builds.
package artifact

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ChangesFile is the parsed subset of a Debian .changes file we care about.
type ChangesFile struct {
	Source       string
	Version      string
	Architecture string
	Distribution string
	Files        []FileEntry
	SHA256       map[string]string // filename -> hex digest, from Checksums-Sha256
}

// FileEntry is one line of the Files: section.
type FileEntry struct {
	MD5      string
	Size     int64
	Section  string
	Priority string
	Name     string
}

// ParseChanges parses a .changes control file. Only the fields debforge
// consumes are extracted; unknown fields are skipped.
func ParseChanges(path string) (*ChangesFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open changes file: %w", err)
	}
	defer f.Close()

	cf := &ChangesFile{SHA256: make(map[string]string)}

	const (
		sectionNone = iota
		sectionFiles
		sectionSHA256
	)
	section := sectionNone

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()

		// Continuation lines of a multi-line field start with a space.
		if strings.HasPrefix(line, " ") {
			entry := strings.Fields(line)
			switch section {
			case sectionFiles:
				// md5 size section priority filename
				if len(entry) == 5 {
					size, err := strconv.ParseInt(entry[1], 10, 64)
					if err != nil {
						return nil, fmt.Errorf("malformed Files entry %q: %w", line, err)
					}
					cf.Files = append(cf.Files, FileEntry{
						MD5:      entry[0],
						Size:     size,
						Section:  entry[2],
						Priority: entry[3],
						Name:     entry[4],
					})
				}
			case sectionSHA256:
				// sha256 size filename
				if len(entry) == 3 {
					cf.SHA256[entry[2]] = entry[0]
				}
			}
			continue
		}

		section = sectionNone
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		switch key {
		case "Source":
			cf.Source = value
		case "Version":
			cf.Version = value
		case "Architecture":
			cf.Architecture = value
		case "Distribution":
			cf.Distribution = value
		case "Files":
			section = sectionFiles
		case "Checksums-Sha256":
			section = sectionSHA256
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read changes file: %w", err)
	}
	if len(cf.Files) == 0 {
		return nil, fmt.Errorf("changes file %s lists no files", path)
	}
	return cf, nil
}

// DebNames returns the .deb entries of the Files: section.
func (cf *ChangesFile) DebNames() []string {
	var debs []string
	for _, f := range cf.Files {
		if strings.HasSuffix(f.Name, ".deb") {
			debs = append(debs, f.Name)
		}
	}
	return debs
}
