package sbuild

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	forgeerr "git.home.luguber.info/inful/debforge/internal/errors"
	"git.home.luguber.info/inful/debforge/internal/logfields"
)

// BuildSource runs dpkg-source against the package tree and returns the path
// of the generated .dsc descriptor. dpkg-source drops its outputs in the
// invocation directory, so we run it from artifactDir with the source tree
// as argument.
func BuildSource(ctx context.Context, runner ToolRunner, sourceDir, artifactDir string) (string, error) {
	out, err := runner.Run(ctx, artifactDir, "dpkg-source", "-b", sourceDir)
	if err != nil {
		return "", forgeerr.SourceBuildFailed(sourceDir, err)
	}

	name := ExtractDescriptor(out)
	if name == "" {
		return "", forgeerr.DescriptorMissing(sourceDir)
	}

	path := filepath.Join(artifactDir, name)
	if _, err := os.Stat(path); err != nil {
		// The tool printed a descriptor name but never wrote the file.
		return "", forgeerr.DescriptorMissing(sourceDir).WithContext("descriptor", name)
	}

	slog.Info("Source package built", logfields.Path(path))
	return path, nil
}

// ExtractDescriptor finds the generated descriptor filename in dpkg-source
// output: the last whitespace-delimited token of the last line mentioning a
// .dsc file, e.g. "dpkg-source: info: building profiler in profiler_1.0.5.dsc".
func ExtractDescriptor(output string) string {
	var name string
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, ".dsc") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if last := fields[len(fields)-1]; strings.HasSuffix(last, ".dsc") {
			name = last
		}
	}
	return name
}
