//go:build linux

package health

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// SystemMemoryCheck checks system-wide memory usage.
type SystemMemoryCheck struct {
	MaxUsagePercent float64
}

func (c *SystemMemoryCheck) Name() string { return "system_memory" }

func (c *SystemMemoryCheck) Check(ctx context.Context) CheckResult {
	result := CheckResult{
		Timestamp: time.Now(),
		Metadata:  make(map[string]any),
	}

	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		result.Status = StatusUnhealthy
		result.Error = fmt.Sprintf("sysinfo: %v", err)
		return result
	}

	total := info.Totalram * uint64(info.Unit)
	free := info.Freeram * uint64(info.Unit)
	usage := float64(total-free) / float64(total) * 100

	result.Metadata["total_bytes"] = total
	result.Metadata["free_bytes"] = free
	result.Metadata["usage_percent"] = fmt.Sprintf("%.2f%%", usage)

	if c.MaxUsagePercent > 0 && usage > c.MaxUsagePercent {
		result.Status = StatusDegraded
		result.Error = fmt.Sprintf("memory usage %.2f%% exceeds threshold %.2f%%", usage, c.MaxUsagePercent)
		return result
	}

	result.Status = StatusHealthy
	result.Message = fmt.Sprintf("memory usage: %.2f%%", usage)
	return result
}

// DiskCheck checks free space where rotated log files are written.
type DiskCheck struct {
	Path           string
	MinFreePercent float64
}

func (c *DiskCheck) Name() string { return "disk" }

func (c *DiskCheck) Check(ctx context.Context) CheckResult {
	path := c.Path
	if path == "" {
		path = "."
	}
	result := CheckResult{
		Timestamp: time.Now(),
		Metadata:  map[string]any{"path": path},
	}

	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		result.Status = StatusUnhealthy
		result.Error = fmt.Sprintf("statfs %s: %v", path, err)
		return result
	}

	total := stat.Blocks * uint64(stat.Bsize) //nolint:gosec // Bsize is positive on linux
	free := stat.Bavail * uint64(stat.Bsize)  //nolint:gosec // Bsize is positive on linux
	freePercent := 0.0
	if total > 0 {
		freePercent = float64(free) / float64(total) * 100
	}
	result.Metadata["free_bytes"] = free
	result.Metadata["free_percent"] = fmt.Sprintf("%.2f%%", freePercent)

	if c.MinFreePercent > 0 && freePercent < c.MinFreePercent {
		result.Status = StatusDegraded
		result.Error = fmt.Sprintf("free space %.2f%% is below %.2f%%", freePercent, c.MinFreePercent)
		return result
	}

	result.Status = StatusHealthy
	result.Message = fmt.Sprintf("%.2f%% free", freePercent)
	return result
}
