//go:build linux

package health

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"
)

// SystemMemoryCheck reports host memory usage from sysinfo(2). Usage above
// MaxUsagePercent is unhealthy; zero disables the threshold.
type SystemMemoryCheck struct {
	MaxUsagePercent float64
}

func (c *SystemMemoryCheck) Name() string { return "system_memory" }

func (c *SystemMemoryCheck) Check(ctx context.Context) CheckResult {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: fmt.Sprintf("sysinfo: %v", err)}
	}

	unit := uint64(info.Unit)
	total, free := info.Totalram*unit, info.Freeram*unit
	var used float64
	if total > 0 {
		used = float64(total-free) / float64(total) * 100
	}

	result := CheckResult{
		Status:  StatusHealthy,
		Message: fmt.Sprintf("%.1f%% of %s in use", used, humanize.Bytes(total)),
		Metadata: map[string]any{
			"total_bytes":   total,
			"free_bytes":    free,
			"usage_percent": fmt.Sprintf("%.2f%%", used),
		},
	}
	if c.MaxUsagePercent > 0 && used > c.MaxUsagePercent {
		result.Status = StatusUnhealthy
		result.Error = fmt.Sprintf("memory usage %.2f%% above %.2f%%", used, c.MaxUsagePercent)
	}
	return result
}
