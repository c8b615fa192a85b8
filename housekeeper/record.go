package housekeeper

import "time"

// MatchedFile is a single unwanted file found during a scan. Size is zero
// when the file could not be stat'ed; Modified is zero in the same case.
type MatchedFile struct {
	Path     string    `json:"path"`
	Size     int64     `json:"size_bytes"`
	Pattern  string    `json:"pattern"`
	Modified time.Time `json:"modified,omitzero"`
}

// ScanResult reports one scan invocation. PatternMatches counts found files
// per pattern and carries a zero entry for every active pattern that matched
// nothing.
type ScanResult struct {
	Directory      string         `json:"directory"`
	Patterns       []string       `json:"patterns_used"`
	FilesFound     int            `json:"files_found"`
	TotalSize      int64          `json:"total_size_bytes"`
	Files          []MatchedFile  `json:"found_files"`
	PatternMatches map[string]int `json:"pattern_matches"`
}

// CleanupResult reports one cleanup invocation. Removal is not
// transactional: files removed before a later failure stay removed.
// Per-pattern counts reflect files found, independent of removal outcomes;
// removal counts per pattern derive from the removed-file list.
type CleanupResult struct {
	Directory      string         `json:"directory"`
	DryRun         bool           `json:"dry_run"`
	Patterns       []string       `json:"patterns_used"`
	FilesFound     int            `json:"files_found"`
	FilesRemoved   int            `json:"files_removed"`
	TotalSize      int64          `json:"total_size_bytes"`
	PatternMatches map[string]int `json:"pattern_matches"`
	RemovedFiles   []MatchedFile  `json:"removed_files"`
	Errors         []RemovalError `json:"error_details,omitempty"`
}

// ComparisonResult reports the subdirectory-name overlap between the cleanup
// root and the target root. The full listings are always computed; whether
// they are rendered is the transport's verbose concern. All slices are
// sorted.
type ComparisonResult struct {
	CleanupDirectory    string   `json:"cleanup_directory"`
	TargetDirectory     string   `json:"target_directory"`
	Duplicates          []string `json:"duplicates"`
	DuplicateCount      int      `json:"duplicate_count"`
	NonDuplicateCount   int      `json:"non_duplicate_count"`
	TotalCleanupSubdirs int      `json:"total_cleanup_subdirectories"`
	TotalTargetSubdirs  int      `json:"total_target_subdirectories"`
	CleanupSubdirs      []string `json:"cleanup_subdirectories"`
	TargetSubdirs       []string `json:"target_subdirectories"`
}

// MoveResult reports one batched move of cleanup-only subdirectories into
// the target root.
type MoveResult struct {
	CleanupDirectory   string      `json:"cleanup_directory"`
	TargetDirectory    string      `json:"target_directory"`
	DryRun             bool        `json:"dry_run"`
	BatchSize          int         `json:"batch_size"`
	DuplicatesFound    int         `json:"duplicates_found"`
	NonDuplicatesFound int         `json:"non_duplicates_found"`
	NonDuplicates      []string    `json:"non_duplicate_subdirectories"`
	DirectoriesMoved   int         `json:"directories_moved"`
	Moved              []string    `json:"moved"`
	Remaining          int         `json:"remaining"`
	Errors             []MoveError `json:"error_details,omitempty"`
}
