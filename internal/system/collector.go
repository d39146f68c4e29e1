package system

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
)

// DefaultCPUInterval is the window over which per-core percentages are measured
const DefaultCPUInterval = 200 * time.Millisecond

// Collector handles system metrics collection
type Collector struct {
	src      Source
	interval time.Duration
	now      func() time.Time
}

// NewCollector creates a collector reading the local host
func NewCollector(interval time.Duration) *Collector {
	return NewCollectorWithSource(NewHostSource(), interval)
}

// NewCollectorWithSource creates a collector over an arbitrary source
func NewCollectorWithSource(src Source, interval time.Duration) *Collector {
	return &Collector{
		src:      src,
		interval: interval,
		now:      time.Now,
	}
}

// CPU samples per-core times twice, one interval apart, and returns the
// user, system and idle share of each core ordered by core index.
func (c *Collector) CPU(ctx context.Context) ([]CPUReading, error) {
	before, err := c.src.CPUTimes(ctx)
	if err != nil {
		return nil, err
	}

	if err := sleep(ctx, c.interval); err != nil {
		return nil, fmt.Errorf("cpu sampling interrupted: %w", err)
	}

	after, err := c.src.CPUTimes(ctx)
	if err != nil {
		return nil, err
	}

	return cpuPercents(before, after), nil
}

// Disks returns usage for every mounted partition keyed by device.
// Partitions whose usage cannot be read are left out.
func (c *Collector) Disks(ctx context.Context) (map[string]DiskReading, error) {
	partitions, err := c.src.Partitions(ctx)
	if err != nil {
		return nil, err
	}

	result := make(map[string]DiskReading, len(partitions))
	for _, p := range partitions {
		usage, err := c.src.Usage(ctx, p.Mountpoint)
		if err != nil {
			continue
		}

		result[p.Device] = DiskReading{
			Partition: p,
			Usage:     usage,
		}
	}

	return result, nil
}

// Memory retrieves RAM and swap usage
func (c *Collector) Memory(ctx context.Context) (Memory, error) {
	ram, err := c.src.VirtualMemory(ctx)
	if err != nil {
		return Memory{}, err
	}

	swap, err := c.src.SwapMemory(ctx)
	if err != nil {
		return Memory{}, err
	}

	return Memory{RAM: ram, Swap: swap}, nil
}

// Processes returns every running process keyed by pid. Processes that
// exit while being inspected are skipped.
func (c *Collector) Processes(ctx context.Context) (map[uint32]ProcessReading, error) {
	pids, err := c.src.Pids(ctx)
	if err != nil {
		return nil, err
	}

	result := make(map[uint32]ProcessReading, len(pids))
	for _, pid := range pids {
		info, err := c.src.Process(ctx, pid)
		if errors.Is(err, ErrVanished) {
			continue
		}
		if err != nil {
			return nil, err
		}
		result[info.PID] = info
	}

	return result, nil
}

// Snapshot retrieves all readings. Each one is sampled on its own, so they
// may reflect slightly different instants.
func (c *Collector) Snapshot(ctx context.Context) (*Snapshot, error) {
	hostname, err := c.src.Hostname(ctx)
	if err != nil {
		return nil, err
	}

	cpus, err := c.CPU(ctx)
	if err != nil {
		return nil, err
	}

	disks, err := c.Disks(ctx)
	if err != nil {
		return nil, err
	}

	memory, err := c.Memory(ctx)
	if err != nil {
		return nil, err
	}

	processes, err := c.Processes(ctx)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Hostname:  hostname,
		TakenAt:   c.now(),
		CPU:       cpus,
		Disks:     disks,
		Memory:    memory,
		Processes: processes,
	}, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// cpuPercents converts two cumulative samples into per-core percentages
func cpuPercents(before, after []cpu.TimesStat) []CPUReading {
	n := min(len(before), len(after))

	readings := make([]CPUReading, 0, n)
	for i := 0; i < n; i++ {
		total := cpuTotal(after[i]) - cpuTotal(before[i])

		readings = append(readings, CPUReading{
			Index:  i,
			User:   percentOf(after[i].User-before[i].User, total),
			System: percentOf(after[i].System-before[i].System, total),
			Idle:   percentOf(after[i].Idle-before[i].Idle, total),
		})
	}

	return readings
}

// cpuTotal sums the time buckets; guest time is already counted in user.
func cpuTotal(t cpu.TimesStat) float64 {
	return t.User + t.System + t.Idle + t.Nice + t.Iowait + t.Irq + t.Softirq + t.Steal
}

func percentOf(delta, total float64) float64 {
	if total <= 0 {
		return 0
	}
	pct := math.Round(delta/total*1000) / 10
	return math.Max(0, math.Min(100, pct))
}
