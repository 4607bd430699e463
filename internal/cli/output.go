package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/erlayout/pkg/pipeline"
)

// artifactWriteParams describes where the artifacts of one input go.
type artifactWriteParams struct {
	artifacts map[string][]byte
	formats   []string
	input     string
	output    string // file (single format), base path, or directory (dir=true)
	dir       bool
}

// writeArtifacts writes each requested format and returns the paths written,
// in format order.
func writeArtifacts(p artifactWriteParams) ([]string, error) {
	base := basePath(p.output, p.input)
	if p.dir {
		if err := os.MkdirAll(p.output, 0755); err != nil {
			return nil, fmt.Errorf("create output dir %s: %w", p.output, err)
		}
		base = filepath.Join(p.output, filepath.Base(basePath("", p.input)))
	}

	paths := make([]string, 0, len(p.formats))
	for _, format := range p.formats {
		data, ok := p.artifacts[format]
		if !ok {
			continue
		}
		path := artifactPath(base, format)
		if p.output != "" && !p.dir && len(p.formats) == 1 {
			path = p.output
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return paths, fmt.Errorf("write output %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension (and a ".layout" marker) from
// input. If output has a format extension, that extension is stripped.
func basePath(output, input string) string {
	if output == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		return strings.TrimSuffix(base, layoutSuffix)
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(strings.TrimSuffix(output, ext), layoutSuffix)
	}
	return output
}

// artifactPath names the file for one format. Layouts use ".layout.json" so
// they do not collide with input documents.
func artifactPath(base, format string) string {
	if format == pipeline.FormatJSON {
		return base + layoutSuffix + ".json"
	}
	return base + "." + format
}
