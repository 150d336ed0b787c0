// Package output handles file naming and writing for rendered work items.
// Every output lands flat in one directory as workitem_{id}{ext}, so
// different formats of the same item sit next to each other.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Writer writes rendered output to disk.
type Writer struct {
	OutputDir string
}

// New creates a Writer targeting the given output directory.
// If outputDir is empty, it defaults to the current working directory.
func New(outputDir string) (*Writer, error) {
	if outputDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		outputDir = wd
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	return &Writer{OutputDir: outputDir}, nil
}

// Filename returns the base name used for a work item's output.
func Filename(id int, ext string) string {
	return "workitem_" + strconv.Itoa(id) + ext
}

// Write stores data for work item id and returns the written path. An
// existing file for the same item and format is replaced.
func (w *Writer) Write(id int, data []byte, ext string) (string, error) {
	path := filepath.Join(w.OutputDir, Filename(id, ext))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing file %s: %w", path, err)
	}
	return path, nil
}
