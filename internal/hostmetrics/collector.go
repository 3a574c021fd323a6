// Package hostmetrics reads point-in-time resource usage of the local host.
//
// Every read goes straight to the operating system through gopsutil; nothing
// is cached between calls.
package hostmetrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

// ErrNoCPUSample is returned when the CPU percentage read yields no value.
var ErrNoCPUSample = errors.New("no cpu sample returned")

// HostMetrics is the full result of one collection.
type HostMetrics struct {
	CPUPercent    float64
	LoadAverage   *load.AvgStat
	VirtualMemory *mem.VirtualMemoryStat
	SwapMemory    *mem.SwapMemoryStat
	DiskUsage     *disk.UsageStat
	CollectedAt   time.Time
}

// Collector reads host metrics.
type Collector interface {
	Collect(ctx context.Context) (*HostMetrics, error)
}

// Config controls what SystemCollector reads.
type Config struct {
	DiskPath          string
	CPUSampleInterval time.Duration
}

// SystemCollector collects metrics from the running host.
type SystemCollector struct {
	diskPath    string
	cpuInterval time.Duration

	// OS readers, replaced in tests.
	cpuPercent    func(ctx context.Context, interval time.Duration, perCPU bool) ([]float64, error)
	loadAvg       func(ctx context.Context) (*load.AvgStat, error)
	virtualMemory func(ctx context.Context) (*mem.VirtualMemoryStat, error)
	swapMemory    func(ctx context.Context) (*mem.SwapMemoryStat, error)
	diskUsage     func(ctx context.Context, path string) (*disk.UsageStat, error)
	now           func() time.Time
}

// NewSystemCollector creates a collector reading the given disk path.
// An empty DiskPath means the root filesystem.
func NewSystemCollector(cfg Config) *SystemCollector {
	path := cfg.DiskPath
	if path == "" {
		path = "/"
	}
	return &SystemCollector{
		diskPath:      path,
		cpuInterval:   cfg.CPUSampleInterval,
		cpuPercent:    cpu.PercentWithContext,
		loadAvg:       load.AvgWithContext,
		virtualMemory: mem.VirtualMemoryWithContext,
		swapMemory:    mem.SwapMemoryWithContext,
		diskUsage:     disk.UsageWithContext,
		now:           time.Now,
	}
}

// Collect reads CPU and load, virtual memory, swap and disk usage, in that
// order. The first failing read aborts the collection.
func (c *SystemCollector) Collect(ctx context.Context) (*HostMetrics, error) {
	percents, err := c.cpuPercent(ctx, c.cpuInterval, false)
	if err != nil {
		return nil, fmt.Errorf("read cpu percent: %w", err)
	}
	if len(percents) == 0 {
		return nil, fmt.Errorf("read cpu percent: %w", ErrNoCPUSample)
	}

	avg, err := c.loadAvg(ctx)
	if err != nil {
		return nil, fmt.Errorf("read load average: %w", err)
	}

	vm, err := c.virtualMemory(ctx)
	if err != nil {
		return nil, fmt.Errorf("read virtual memory: %w", err)
	}

	swap, err := c.swapMemory(ctx)
	if err != nil {
		return nil, fmt.Errorf("read swap memory: %w", err)
	}

	du, err := c.diskUsage(ctx, c.diskPath)
	if err != nil {
		return nil, fmt.Errorf("read disk usage for %s: %w", c.diskPath, err)
	}

	return &HostMetrics{
		CPUPercent:    percents[0],
		LoadAverage:   avg,
		VirtualMemory: vm,
		SwapMemory:    swap,
		DiskUsage:     du,
		CollectedAt:   c.now(),
	}, nil
}

// DiskPath returns the filesystem path whose usage is reported.
func (c *SystemCollector) DiskPath() string {
	return c.diskPath
}
