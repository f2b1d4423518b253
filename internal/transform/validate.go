package transform

import (
	"os"
	"path/filepath"
	"strings"
)

// ValidateOutputs checks outputs against the placement rules of an
// invocation and returns them unchanged. Every output must exist and must be
// the input itself, the output directory itself, or a file below either.
func ValidateOutputs(input, outputDir string, outputs []string) ([]string, error) {
	if outputs == nil {
		return nil, &OutputError{Reason: NullResult}
	}
	input = filepath.Clean(input)
	outputDir = filepath.Clean(outputDir)
	for _, out := range outputs {
		if _, err := os.Stat(out); err != nil {
			return nil, &OutputError{Reason: MissingOutput, Path: out}
		}
		if !placed(filepath.Clean(out), input, outputDir) {
			return nil, &OutputError{Reason: MisplacedOutput, Path: out}
		}
	}
	return outputs, nil
}

func placed(out, input, outputDir string) bool {
	if out == input || out == outputDir {
		return true
	}
	return within(out, outputDir) || within(out, input)
}

func within(path, dir string) bool {
	if dir == string(filepath.Separator) {
		return strings.HasPrefix(path, dir)
	}
	return strings.HasPrefix(path, dir+string(filepath.Separator))
}
