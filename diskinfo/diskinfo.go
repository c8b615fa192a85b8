package diskinfo

import (
	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/disk"

	"bronson/logger"
)

// Usage describes the filesystem holding one configured root.
type Usage struct {
	Path        string  `json:"path"`
	TotalBytes  uint64  `json:"total_bytes"`
	FreeBytes   uint64  `json:"free_bytes"`
	UsedPercent float64 `json:"used_percent"`
	Total       string  `json:"total_human"`
	Free        string  `json:"free_human"`
}

// Collect gathers disk usage for each path, best effort: a path that cannot
// be measured is logged and skipped.
func Collect(paths ...string) []Usage {
	usages := []Usage{}
	for _, path := range paths {
		if path == "" {
			continue
		}
		stat, err := disk.Usage(path)
		if err != nil {
			logger.Warnf("Failed to gather disk usage for %s: %v", path, err)
			continue
		}
		usages = append(usages, Usage{
			Path:        path,
			TotalBytes:  stat.Total,
			FreeBytes:   stat.Free,
			UsedPercent: stat.UsedPercent,
			Total:       humanize.IBytes(stat.Total),
			Free:        humanize.IBytes(stat.Free),
		})
	}
	return usages
}
