package housekeeper

import (
	"os"
	"path/filepath"
)

// MoveOptions configures one batched move. BatchSize values below one are
// normalized to one.
type MoveOptions struct {
	DryRun    bool
	BatchSize int
}

// MoveNonDuplicates relocates cleanup-only subdirectories (those whose names
// do not appear under the target root) into the target root, at most
// BatchSize per call. The remainder is reported, not acted on. Dry runs plan
// the same batch without touching disk. A failed rename is collected and
// does not stop the batch.
func MoveNonDuplicates(cleanupRoot, targetRoot string, opts MoveOptions) (*MoveResult, error) {
	comparison, err := CompareDirectories(cleanupRoot, targetRoot)
	if err != nil {
		return nil, err
	}

	if opts.BatchSize < 1 {
		opts.BatchSize = 1
	}

	duplicates := make(map[string]struct{}, len(comparison.Duplicates))
	for _, name := range comparison.Duplicates {
		duplicates[name] = struct{}{}
	}
	nonDuplicates := []string{}
	for _, name := range comparison.CleanupSubdirs {
		if _, ok := duplicates[name]; !ok {
			nonDuplicates = append(nonDuplicates, name)
		}
	}

	batch := nonDuplicates
	if len(batch) > opts.BatchSize {
		batch = batch[:opts.BatchSize]
	}

	result := &MoveResult{
		CleanupDirectory:   comparison.CleanupDirectory,
		TargetDirectory:    comparison.TargetDirectory,
		DryRun:             opts.DryRun,
		BatchSize:          opts.BatchSize,
		DuplicatesFound:    comparison.DuplicateCount,
		NonDuplicatesFound: len(nonDuplicates),
		NonDuplicates:      nonDuplicates,
		Moved:              []string{},
		Remaining:          len(nonDuplicates) - len(batch),
	}

	for _, name := range batch {
		source := filepath.Join(comparison.CleanupDirectory, name)
		destination := filepath.Join(comparison.TargetDirectory, name)
		if !opts.DryRun {
			if err := os.Rename(source, destination); err != nil {
				result.Errors = append(result.Errors, MoveError{
					Name:        name,
					Source:      source,
					Destination: destination,
					Reason:      err.Error(),
				})
				continue
			}
		}
		result.Moved = append(result.Moved, name)
		result.DirectoriesMoved++
	}
	return result, nil
}
