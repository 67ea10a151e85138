//go:build !linux

package health

import (
	"context"
	"runtime"
	"time"
)

// SystemMemoryCheck reports Go runtime memory outside Linux.
type SystemMemoryCheck struct {
	MaxUsagePercent float64
}

func (c *SystemMemoryCheck) Name() string { return "system_memory" }

func (c *SystemMemoryCheck) Check(ctx context.Context) CheckResult {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return CheckResult{
		Status:    StatusHealthy,
		Message:   "system memory stats unavailable on " + runtime.GOOS,
		Timestamp: time.Now(),
		Metadata: map[string]any{
			"heap_alloc_bytes": m.HeapAlloc,
			"sys_bytes":        m.Sys,
		},
	}
}

// DiskCheck is not supported outside Linux.
type DiskCheck struct {
	Path           string
	MinFreePercent float64
}

func (c *DiskCheck) Name() string { return "disk" }

func (c *DiskCheck) Check(ctx context.Context) CheckResult {
	return CheckResult{
		Status:    StatusUnknown,
		Message:   "disk check unavailable on " + runtime.GOOS,
		Timestamp: time.Now(),
	}
}
