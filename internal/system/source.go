package system

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

// ErrVanished is returned when a process exits between enumeration and inspection
var ErrVanished = errors.New("process vanished")

// Source is the OS-facing metrics provider used by the Collector
type Source interface {
	Hostname(ctx context.Context) (string, error)
	CPUTimes(ctx context.Context) ([]cpu.TimesStat, error)
	Partitions(ctx context.Context) ([]Partition, error)
	Usage(ctx context.Context, mountpoint string) (DiskUsage, error)
	VirtualMemory(ctx context.Context) (MemoryReading, error)
	SwapMemory(ctx context.Context) (MemoryReading, error)
	Pids(ctx context.Context) ([]int32, error)
	Process(ctx context.Context, pid int32) (ProcessReading, error)
}

// HostSource reads metrics of the local host through gopsutil
type HostSource struct{}

// NewHostSource creates a gopsutil backed source
func NewHostSource() *HostSource {
	return &HostSource{}
}

// Hostname retrieves the host name
func (s *HostSource) Hostname(ctx context.Context) (string, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get host info: %w", err)
	}
	return info.Hostname, nil
}

// CPUTimes retrieves cumulative per-core CPU times
func (s *HostSource) CPUTimes(ctx context.Context) ([]cpu.TimesStat, error) {
	times, err := cpu.TimesWithContext(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to get cpu times: %w", err)
	}
	return times, nil
}

// Partitions lists every mounted filesystem, pseudo filesystems included
func (s *HostSource) Partitions(ctx context.Context) ([]Partition, error) {
	partitions, err := disk.PartitionsWithContext(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to get disk partitions: %w", err)
	}

	result := make([]Partition, 0, len(partitions))
	for _, p := range partitions {
		result = append(result, Partition{
			Device:     p.Device,
			Mountpoint: p.Mountpoint,
			Fstype:     p.Fstype,
			Opts:       strings.Join(p.Opts, ","),
		})
	}
	return result, nil
}

// Usage retrieves usage statistics for a mountpoint
func (s *HostSource) Usage(ctx context.Context, mountpoint string) (DiskUsage, error) {
	usage, err := disk.UsageWithContext(ctx, mountpoint)
	if err != nil {
		return DiskUsage{}, fmt.Errorf("failed to get disk usage for %s: %w", mountpoint, err)
	}
	return DiskUsage{
		Total:       usage.Total,
		Used:        usage.Used,
		Free:        usage.Free,
		UsedPercent: usage.UsedPercent,
	}, nil
}

// VirtualMemory retrieves physical memory usage; Free is the available amount
func (s *HostSource) VirtualMemory(ctx context.Context) (MemoryReading, error) {
	vmem, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return MemoryReading{}, fmt.Errorf("failed to get virtual memory: %w", err)
	}
	return MemoryReading{
		Total:       vmem.Total,
		Free:        vmem.Available,
		Used:        vmem.Used,
		UsedPercent: vmem.UsedPercent,
	}, nil
}

// SwapMemory retrieves swap usage
func (s *HostSource) SwapMemory(ctx context.Context) (MemoryReading, error) {
	swap, err := mem.SwapMemoryWithContext(ctx)
	if err != nil {
		return MemoryReading{}, fmt.Errorf("failed to get swap memory: %w", err)
	}
	return MemoryReading{
		Total:       swap.Total,
		Free:        swap.Free,
		Used:        swap.Used,
		UsedPercent: swap.UsedPercent,
	}, nil
}

// Pids lists the visible process ids
func (s *HostSource) Pids(ctx context.Context) ([]int32, error) {
	pids, err := process.PidsWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get processes: %w", err)
	}
	return pids, nil
}

// Process inspects a single process. Fields the caller may not read
// (exe and username of other users' processes) are left empty.
func (s *HostSource) Process(ctx context.Context, pid int32) (ProcessReading, error) {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return ProcessReading{}, s.processError(ctx, pid, err)
	}

	name, err := p.NameWithContext(ctx)
	if err != nil {
		return ProcessReading{}, s.processError(ctx, pid, err)
	}

	exe, _ := p.ExeWithContext(ctx)
	username, _ := p.UsernameWithContext(ctx)
	status, _ := p.StatusWithContext(ctx)

	memInfo, err := p.MemoryInfoWithContext(ctx)
	if err != nil {
		return ProcessReading{}, s.processError(ctx, pid, err)
	}

	var statusStr string
	if len(status) > 0 {
		statusStr = status[0]
	}

	return ProcessReading{
		PID:      uint32(pid),
		Name:     name,
		Username: username,
		Status:   statusStr,
		Exe:      exe,
		Resident: memInfo.RSS,
		Virtual:  memInfo.VMS,
	}, nil
}

// processError maps a failure to ErrVanished when the process is gone
func (s *HostSource) processError(ctx context.Context, pid int32, err error) error {
	if errors.Is(err, process.ErrorProcessNotRunning) || errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("pid %d: %w", pid, ErrVanished)
	}
	if exists, existsErr := process.PidExistsWithContext(ctx, pid); existsErr == nil && !exists {
		return fmt.Errorf("pid %d: %w", pid, ErrVanished)
	}
	return fmt.Errorf("failed to inspect process %d: %w", pid, err)
}
