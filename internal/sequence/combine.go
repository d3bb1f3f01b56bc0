package sequence

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/jjtimmons/cox1/internal/errs"
)

// Files returns the paths in dir with extension ext, sorted lexicographically
// so the combined corpus has the same record order on every run.
func Files(dir, ext string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*"+ext))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// Combine reads every record from the ext files in dir and writes them, in
// file then record order, to out. out is skipped if it's inside dir.
// Returns the number of records written.
func Combine(dir, ext, out string) (int, error) {
	paths, err := Files(dir, ext)
	if err != nil {
		return 0, err
	}

	absOut, err := filepath.Abs(out)
	if err != nil {
		return 0, fmt.Errorf("failed to create path to output file: %w", err)
	}

	var records []*Record
	for _, path := range paths {
		if abs, _ := filepath.Abs(path); abs == absOut {
			continue
		}

		fileRecords, err := Read(path)
		if err != nil {
			return 0, err
		}
		records = append(records, fileRecords...)
	}

	if len(records) < 1 {
		return 0, &errs.ParseError{Path: dir, Err: fmt.Errorf("no %s records found", ext)}
	}

	if err := Write(out, records); err != nil {
		return 0, err
	}
	return len(records), nil
}
