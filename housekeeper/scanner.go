package housekeeper

import (
	"context"
	"os"
	"path/filepath"

	"bronson/logger"

	"github.com/djherbis/times"
	"golang.org/x/time/rate"
)

// Scanner walks directory trees looking for files whose base names match a
// PatternSet. One invocation is one sequential pass; the scanner itself
// holds no mutable state beyond the optional rate limiter.
type Scanner struct {
	limiter *rate.Limiter
}

// NewScanner returns a Scanner throttled to at most maxFSOpsPerSecond
// filesystem operations per second. Zero or negative means unlimited.
func NewScanner(maxFSOpsPerSecond int) *Scanner {
	s := &Scanner{}
	if maxFSOpsPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(maxFSOpsPerSecond), maxFSOpsPerSecond)
	}
	return s
}

func (s *Scanner) throttle(ctx context.Context) {
	if s.limiter != nil {
		_ = s.limiter.Wait(ctx)
	}
}

// ScanDirectory validates root, then walks it recursively and returns every
// file whose base name matches the pattern set (default set when patterns is
// empty). The first matching pattern in list order is recorded per file.
func (s *Scanner) ScanDirectory(ctx context.Context, root string, patterns []string) (*ScanResult, error) {
	resolved, err := ValidateDirectory(root)
	if err != nil {
		return nil, err
	}
	set, err := CompilePatterns(patterns)
	if err != nil {
		return nil, err
	}

	files, err := s.scanTree(ctx, resolved, set)
	if err != nil {
		return nil, &OperationError{Op: "scan", Path: resolved, Err: err}
	}

	result := &ScanResult{
		Directory:      resolved,
		Patterns:       set.Sources(),
		Files:          files,
		PatternMatches: make(map[string]int, len(set.sources)),
	}
	for _, pattern := range result.Patterns {
		result.PatternMatches[pattern] = 0
	}
	result.FilesFound = len(files)
	for _, f := range files {
		result.TotalSize += f.Size
		result.PatternMatches[f.Pattern]++
	}
	return result, nil
}

type treeEntry struct {
	path  string
	isDir bool
	name  string
}

// scanTree performs the walk. Unreadable directories and unstatable files
// are logged and skipped; they never abort the traversal. Only context
// cancellation stops the walk early.
func (s *Scanner) scanTree(ctx context.Context, root string, set *PatternSet) ([]MatchedFile, error) {
	matches := []MatchedFile{}
	stack := []treeEntry{{path: root, isDir: true, name: filepath.Base(root)}}

	for len(stack) > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if current.isDir {
			s.throttle(ctx)
			entries, err := os.ReadDir(current.path)
			if err != nil {
				logger.Warnf("Skipping unreadable directory %s: %v", current.path, err)
				continue
			}
			for _, entry := range entries {
				stack = append(stack, treeEntry{
					path:  filepath.Join(current.path, entry.Name()),
					isDir: entry.IsDir(),
					name:  entry.Name(),
				})
			}
			continue
		}

		pattern, ok := set.Match(current.name)
		if !ok {
			continue
		}
		match := MatchedFile{Path: current.path, Pattern: pattern}
		s.throttle(ctx)
		if info, err := os.Lstat(current.path); err == nil {
			match.Size = info.Size()
			match.Modified = times.Get(info).ModTime()
		} else {
			logger.Warnf("Could not stat %s: %v", current.path, err)
		}
		matches = append(matches, match)
	}
	return matches, nil
}
