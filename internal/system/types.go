package system

import (
	"fmt"
	"time"
)

// CPUReading contains usage percentages for a single logical core
type CPUReading struct {
	Index  int     `json:"index"`
	User   float64 `json:"user"`
	System float64 `json:"system"`
	Idle   float64 `json:"idle"`
}

// Key returns the identifier used in reports, e.g. "cpu0"
func (r CPUReading) Key() string {
	return fmt.Sprintf("cpu%d", r.Index)
}

// Partition is a mounted filesystem as enumerated by the source
type Partition struct {
	Device     string `json:"device"`
	Mountpoint string `json:"mountpoint"`
	Fstype     string `json:"fstype"`
	Opts       string `json:"opts"`
}

// DiskUsage contains usage statistics for a mountpoint
type DiskUsage struct {
	Total       uint64  `json:"total"`
	Used        uint64  `json:"used"`
	Free        uint64  `json:"free"`
	UsedPercent float64 `json:"used_percent"`
}

// DiskReading represents a single mounted partition and its usage
type DiskReading struct {
	Partition
	Usage DiskUsage `json:"usage"`
}

// MemoryReading contains usage information for RAM or swap
type MemoryReading struct {
	Total       uint64  `json:"total"`
	Free        uint64  `json:"free"`
	Used        uint64  `json:"used"`
	UsedPercent float64 `json:"used_percent"`
}

// Memory keys
const (
	KeyRAM  = "ram"
	KeySwap = "swap"
)

// Memory holds the two fixed memory entries
type Memory struct {
	RAM  MemoryReading `json:"ram"`
	Swap MemoryReading `json:"swap"`
}

// NamedMemory pairs a memory entry with its key
type NamedMemory struct {
	Key string
	MemoryReading
}

// Named returns the entries in report order: ram, then swap
func (m Memory) Named() []NamedMemory {
	return []NamedMemory{
		{Key: KeyRAM, MemoryReading: m.RAM},
		{Key: KeySwap, MemoryReading: m.Swap},
	}
}

// ProcessReading represents a running process
type ProcessReading struct {
	PID      uint32 `json:"pid"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Status   string `json:"status"`
	Exe      string `json:"exe"`
	Resident uint64 `json:"resident"`
	Virtual  uint64 `json:"virtual"`
}

// Snapshot aggregates independently sampled readings
type Snapshot struct {
	Hostname  string                    `json:"hostname"`
	TakenAt   time.Time                 `json:"taken_at"`
	CPU       []CPUReading              `json:"cpu"`
	Disks     map[string]DiskReading    `json:"disks"`
	Memory    Memory                    `json:"memory"`
	Processes map[uint32]ProcessReading `json:"processes"`
}
