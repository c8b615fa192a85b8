package housekeeper

import (
	"os"
	"sort"

	"bronson/logger"
)

// ListSubdirectories returns the names of the immediate child directories of
// root, sorted. Any read error yields an empty list: this is a best-effort
// leaf used for comparison, never for destructive action.
func ListSubdirectories(root string) []string {
	entries, err := os.ReadDir(root)
	if err != nil {
		logger.Warnf("Could not list subdirectories of %s: %v", root, err)
		return []string{}
	}
	names := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names
}

// CompareDirectories validates both roots and intersects their immediate
// subdirectory name sets. Name equality is exact and case-sensitive; the
// intersection is symmetric in its arguments.
func CompareDirectories(cleanupRoot, targetRoot string) (*ComparisonResult, error) {
	resolvedCleanup, err := ValidateDirectory(cleanupRoot)
	if err != nil {
		return nil, err
	}
	resolvedTarget, err := ValidateDirectory(targetRoot)
	if err != nil {
		return nil, err
	}

	cleanupSubdirs := ListSubdirectories(resolvedCleanup)
	targetSubdirs := ListSubdirectories(resolvedTarget)

	targetSet := make(map[string]struct{}, len(targetSubdirs))
	for _, name := range targetSubdirs {
		targetSet[name] = struct{}{}
	}
	duplicates := []string{}
	for _, name := range cleanupSubdirs {
		if _, ok := targetSet[name]; ok {
			duplicates = append(duplicates, name)
		}
	}

	return &ComparisonResult{
		CleanupDirectory:    resolvedCleanup,
		TargetDirectory:     resolvedTarget,
		Duplicates:          duplicates,
		DuplicateCount:      len(duplicates),
		NonDuplicateCount:   len(cleanupSubdirs) - len(duplicates),
		TotalCleanupSubdirs: len(cleanupSubdirs),
		TotalTargetSubdirs:  len(targetSubdirs),
		CleanupSubdirs:      cleanupSubdirs,
		TargetSubdirs:       targetSubdirs,
	}, nil
}
