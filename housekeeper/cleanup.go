package housekeeper

import (
	"context"
	"os"
)

// CleanupOptions configures one cleanup invocation. An empty Patterns slice
// selects the built-in default set.
type CleanupOptions struct {
	Patterns []string
	DryRun   bool
}

// Cleaner deletes unwanted files found by its Scanner.
type Cleaner struct {
	scanner *Scanner
}

func NewCleaner(scanner *Scanner) *Cleaner {
	return &Cleaner{scanner: scanner}
}

// CleanupDirectory validates and scans root, then removes each match
// independently unless DryRun is set. A failed removal is recorded and does not stop
// the rest of the batch; partial success is a normal outcome. The scan runs
// in both modes so dry runs report exactly what would be removed.
func (c *Cleaner) CleanupDirectory(ctx context.Context, root string, opts CleanupOptions) (*CleanupResult, error) {
	scan, err := c.scanner.ScanDirectory(ctx, root, opts.Patterns)
	if err != nil {
		return nil, err
	}

	result := &CleanupResult{
		Directory:      scan.Directory,
		DryRun:         opts.DryRun,
		Patterns:       scan.Patterns,
		FilesFound:     scan.FilesFound,
		TotalSize:      scan.TotalSize,
		PatternMatches: scan.PatternMatches,
		RemovedFiles:   []MatchedFile{},
	}
	if opts.DryRun {
		return result, nil
	}

	for _, match := range scan.Files {
		c.scanner.throttle(ctx)
		if err := os.Remove(match.Path); err != nil {
			result.Errors = append(result.Errors, RemovalError{
				Path:    match.Path,
				Pattern: match.Pattern,
				Reason:  err.Error(),
			})
			continue
		}
		result.RemovedFiles = append(result.RemovedFiles, match)
		result.FilesRemoved++
	}
	return result, nil
}
